package reddit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"

	"github.com/karmalab/karmatracker/internal/config"
)

const (
	defaultBaseURL = "https://oauth.reddit.com"
	defaultAuthURL = "https://www.reddit.com"

	requestTimeout = 30 * time.Second
)

// Client talks to the upstream account/content API. It is constructed once
// per run and passed to the samplers explicitly.
type Client struct {
	// BaseURL serves the listing and profile endpoints. Overridable for
	// tests against a local server.
	BaseURL string
	// AuthURL serves the token endpoint.
	AuthURL string

	cfg        config.RedditConfig
	httpClient *http.Client

	token       string
	tokenExpiry time.Time
}

// NewClient creates a client using the supplied credentials. When no client
// id is configured, requests go out unauthenticated against the public JSON
// endpoints.
func NewClient(cfg config.RedditConfig) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		AuthURL:    defaultAuthURL,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// AboutUser fetches an account's public profile fields.
func (c *Client) AboutUser(ctx context.Context, name string) (Account, error) {
	body, err := c.get(ctx, fmt.Sprintf("/user/%s/about.json", url.PathEscape(name)))
	if err != nil {
		return Account{}, fmt.Errorf("failed to fetch account %s: %w", name, err)
	}

	var envelope aboutEnvelope
	if err := sonic.Unmarshal(body, &envelope); err != nil {
		return Account{}, fmt.Errorf("failed to unmarshal account %s: %w", name, err)
	}

	if envelope.Data.IsSuspended {
		return Account{}, fmt.Errorf("account %s: %w", name, ErrSuspended)
	}

	return Account{
		Name:         envelope.Data.Name,
		LinkKarma:    envelope.Data.LinkKarma,
		CommentKarma: envelope.Data.CommentKarma,
	}, nil
}

// TopComments fetches an account's top-scored comments for the trailing day.
func (c *Client) TopComments(ctx context.Context, name string) ([]Comment, error) {
	envelope, err := c.getListing(ctx, fmt.Sprintf("/user/%s/comments.json?sort=top&t=day", url.PathEscape(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments for %s: %w", name, err)
	}

	comments := make([]Comment, 0, len(envelope.Data.Children))
	for _, child := range envelope.Data.Children {
		comments = append(comments, Comment{
			ID:          child.Data.ID,
			CreatedUTC:  child.Data.CreatedUTC,
			Score:       child.Data.Score,
			Subreddit:   child.Data.Subreddit,
			IsSubmitter: child.Data.IsSubmitter,
			Author:      child.Data.Author,
		})
	}

	return comments, nil
}

// TopSubmissions fetches an account's top-scored posts for the trailing day.
func (c *Client) TopSubmissions(ctx context.Context, name string) ([]Post, error) {
	envelope, err := c.getListing(ctx, fmt.Sprintf("/user/%s/submitted.json?sort=top&t=day", url.PathEscape(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions for %s: %w", name, err)
	}

	return postsFromListing(envelope), nil
}

// RandomHot fetches the hot listing of a random subreddit, limited to the
// given number of items with stickied entries filtered out. Every call
// resolves to a different subreddit upstream; that redirect is the
// randomness source.
func (c *Client) RandomHot(ctx context.Context, limit int) ([]Post, error) {
	envelope, err := c.getListing(ctx, fmt.Sprintf("/r/random/hot.json?limit=%s", strconv.Itoa(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch random hot listing: %w", err)
	}

	posts := postsFromListing(envelope)
	filtered := posts[:0]
	for _, post := range posts {
		if !post.Stickied {
			filtered = append(filtered, post)
		}
	}

	return filtered, nil
}

func postsFromListing(envelope *listingEnvelope) []Post {
	posts := make([]Post, 0, len(envelope.Data.Children))
	for _, child := range envelope.Data.Children {
		posts = append(posts, Post{
			ID:         child.Data.ID,
			CreatedUTC: child.Data.CreatedUTC,
			Score:      child.Data.Score,
			Subreddit:  child.Data.Subreddit,
			Author:     child.Data.Author,
			Stickied:   child.Data.Stickied,
		})
	}

	return posts
}

func (c *Client) getListing(ctx context.Context, path string) (*listingEnvelope, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var envelope listingEnvelope
	if err := sonic.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal listing: %w", err)
	}

	return &envelope, nil
}

// get performs a single authenticated GET and classifies failure statuses.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.cfg.UserAgent)

	if c.cfg.ClientID != "" {
		token, err := c.accessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusForbidden:
		// Suspended accounts 403 on some listings.
		return nil, ErrSuspended
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", ErrOverloaded, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// accessToken returns a cached token or fetches a fresh one with the
// password grant. Transient failures are retried with exponential backoff.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(500*time.Millisecond),
		backoff.WithMaxInterval(5*time.Second),
	), 3)

	var tok tokenResponse

	operation := func() error {
		resp, err := c.fetchToken(ctx)
		if err != nil {
			return err
		}

		tok = resp
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", err
	}

	c.token = tok.AccessToken
	// Refresh a minute early so in-flight calls never carry a stale token.
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn-60) * time.Second)

	return c.token, nil
}

func (c *Client) fetchToken(ctx context.Context) (tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.cfg.Username)
	form.Set("password", c.cfg.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.AuthURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, fmt.Errorf("failed to create token request: %w", err)
	}

	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("failed to request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return tokenResponse{}, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("failed to read token response: %w", err)
	}

	var tok tokenResponse
	if err := sonic.Unmarshal(body, &tok); err != nil {
		return tokenResponse{}, fmt.Errorf("failed to unmarshal token response: %w", err)
	}

	return tok, nil
}
