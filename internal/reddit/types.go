package reddit

import "errors"

var (
	// ErrNotFound means the queried account does not exist (or was deleted).
	ErrNotFound = errors.New("account not found")
	// ErrSuspended means the account exists but is suspended, so its karma
	// fields are not resolvable.
	ErrSuspended = errors.New("account suspended")
	// ErrOverloaded means the upstream returned a transient server or
	// rate-limit error and the call may succeed later.
	ErrOverloaded = errors.New("upstream overloaded")
)

// Account is an account's public profile as returned by the about endpoint.
type Account struct {
	Name         string
	LinkKarma    int64
	CommentKarma int64
}

// TotalKarma is the combined counter used for karma-band filtering.
func (a Account) TotalKarma() int64 {
	return a.LinkKarma + a.CommentKarma
}

// Comment is one entry from a user's comment listing.
type Comment struct {
	ID          string
	CreatedUTC  float64
	Score       int64
	Subreddit   string
	IsSubmitter bool
	Author      string
}

// Post is one entry from a submission or subreddit listing.
type Post struct {
	ID         string
	CreatedUTC float64
	Score      int64
	Subreddit  string
	Author     string
	Stickied   bool
}

// Wire format. Listings arrive as a kind/data envelope with the fields of
// comments and posts overlaid in one child shape.
type listingEnvelope struct {
	Data struct {
		Children []struct {
			Data childData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type childData struct {
	ID          string  `json:"id"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int64   `json:"score"`
	Subreddit   string  `json:"subreddit"`
	IsSubmitter bool    `json:"is_submitter"`
	Author      string  `json:"author"`
	Stickied    bool    `json:"stickied"`
}

type aboutEnvelope struct {
	Data struct {
		Name         string `json:"name"`
		LinkKarma    int64  `json:"link_karma"`
		CommentKarma int64  `json:"comment_karma"`
		IsSuspended  bool   `json:"is_suspended"`
	} `json:"data"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
