package sampler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/karmalab/karmatracker/internal/models"
)

// ActivityResult carries the two tables an activity run accumulates.
type ActivityResult struct {
	Snapshots []models.AccountSnapshot
	Activity  []models.ActivityRecord
}

// ActivitySampler samples karma counters and trailing-day activity for a
// configured list of accounts.
type ActivitySampler struct {
	client Client
	logger *zap.Logger
}

// NewActivitySampler creates an activity sampler using the given client.
func NewActivitySampler(client Client, logger *zap.Logger) *ActivitySampler {
	return &ActivitySampler{
		client: client,
		logger: logger,
	}
}

// Run samples every account in order. Both tables start empty; a snapshot
// row is appended per account and activity rows are appended in account
// order. Any per-account error aborts the whole run.
func (s *ActivitySampler) Run(ctx context.Context, accounts []string) (*ActivityResult, error) {
	result := &ActivityResult{
		Snapshots: make([]models.AccountSnapshot, 0, len(accounts)),
		Activity:  []models.ActivityRecord{},
	}

	for _, name := range accounts {
		snapshot, err := s.RetrieveAccount(ctx, name)
		if err != nil {
			return nil, err
		}

		records, err := s.RetrieveActivity(ctx, snapshot.Name)
		if err != nil {
			return nil, err
		}

		result.Snapshots = append(result.Snapshots, snapshot)
		result.Activity = append(result.Activity, records...)

		s.logger.Info("sampled account",
			zap.String("account", snapshot.Name),
			zap.Int64("post_karma", snapshot.PostKarma),
			zap.Int64("comment_karma", snapshot.CommentKarma),
			zap.Int("activity_rows", len(records)))
	}

	return result, nil
}

// RetrieveAccount fetches an account's karma counters and stamps the
// sampling time.
func (s *ActivitySampler) RetrieveAccount(ctx context.Context, name string) (models.AccountSnapshot, error) {
	account, err := s.client.AboutUser(ctx, name)
	if err != nil {
		return models.AccountSnapshot{}, fmt.Errorf("failed to retrieve account %s: %w", name, err)
	}

	return models.AccountSnapshot{
		Name:         account.Name,
		PostKarma:    account.LinkKarma,
		CommentKarma: account.CommentKarma,
		SampledAt:    time.Now(),
	}, nil
}

// RetrieveActivity fetches the account's top comments and posts for the
// trailing day and folds them into one slice, comments first. The slice is
// not re-sorted by timestamp.
func (s *ActivitySampler) RetrieveActivity(ctx context.Context, name string) ([]models.ActivityRecord, error) {
	comments, err := s.client.TopComments(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve comments for %s: %w", name, err)
	}

	posts, err := s.client.TopSubmissions(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve submissions for %s: %w", name, err)
	}

	records := make([]models.ActivityRecord, 0, len(comments)+len(posts))

	for _, comment := range comments {
		isSubmitter := comment.IsSubmitter
		records = append(records, models.ActivityRecord{
			Timestamp:   comment.CreatedUTC,
			ID:          comment.ID,
			Karma:       comment.Score,
			Subreddit:   comment.Subreddit,
			IsSubmitter: &isSubmitter,
			AccountName: name,
			Type:        models.ActivityComment,
		})
	}

	for _, post := range posts {
		records = append(records, models.ActivityRecord{
			Timestamp:   post.CreatedUTC,
			ID:          post.ID,
			Karma:       post.Score,
			Subreddit:   post.Subreddit,
			IsSubmitter: nil,
			AccountName: name,
			Type:        models.ActivityPost,
		})
	}

	return records, nil
}
