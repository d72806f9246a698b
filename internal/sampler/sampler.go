// Package sampler implements the two batch jobs: the account activity
// sampler and the random account sampler. Both receive the upstream client
// as an explicit dependency.
package sampler

import (
	"context"

	"github.com/karmalab/karmatracker/internal/reddit"
)

// Client is the slice of the upstream API the samplers consume.
type Client interface {
	AboutUser(ctx context.Context, name string) (reddit.Account, error)
	TopComments(ctx context.Context, name string) ([]reddit.Comment, error)
	TopSubmissions(ctx context.Context, name string) ([]reddit.Post, error)
	RandomHot(ctx context.Context, limit int) ([]reddit.Post, error)
}

// deletedAuthor is the placeholder name listings carry once an author's
// account is gone.
const deletedAuthor = "[deleted]"
