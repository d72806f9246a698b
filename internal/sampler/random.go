package sampler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/karmalab/karmatracker/internal/config"
	"github.com/karmalab/karmatracker/internal/models"
	"github.com/karmalab/karmatracker/internal/reddit"
)

// ErrFeedExhausted means the configured batch bound was reached before the
// sample table filled. The loop is unbounded unless max_batches is set.
var ErrFeedExhausted = errors.New("random feed exhausted before sample table filled")

// RandomSampler collects accounts within a karma band from the randomized
// hot feed.
type RandomSampler struct {
	client     Client
	logger     *zap.Logger
	batchSize  int
	maxBatches int
	pause      backoff.BackOff
}

// NewRandomSampler creates a random sampler with the configured batch size,
// optional batch bound, and overload pause.
func NewRandomSampler(client Client, logger *zap.Logger, cfg config.RandomConfig) *RandomSampler {
	return &RandomSampler{
		client:     client,
		logger:     logger,
		batchSize:  cfg.BatchSize,
		maxBatches: cfg.MaxBatches,
		pause:      backoff.NewConstantBackOff(time.Duration(cfg.OverloadPause) * time.Millisecond),
	}
}

// Run fills a table of exactly count rows with distinct usernames whose
// combined karma lies in [minKarma, maxKarma]. It returns as soon as the
// table is full, possibly mid-batch. Per-item failures are contained:
// deleted and suspended authors are skipped, and an upstream overload
// pauses once and abandons the remainder of the current batch.
func (s *RandomSampler) Run(ctx context.Context, count int, minKarma, maxKarma int64) ([]models.RandomSampleRow, error) {
	rows := make([]models.RandomSampleRow, count)
	label := models.KarmaRangeLabel(minKarma, maxKarma)
	nextSlot := 0
	batches := 0

	if count == 0 {
		return rows, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if s.maxBatches > 0 && batches >= s.maxBatches {
			return nil, fmt.Errorf("%w: %d rows filled after %d batches", ErrFeedExhausted, nextSlot, batches)
		}

		posts, err := s.client.RandomHot(ctx, s.batchSize)
		batches++

		if err != nil {
			if errors.Is(err, reddit.ErrOverloaded) {
				s.pauseForOverload(ctx)
				continue
			}

			return nil, fmt.Errorf("failed to fetch feed batch: %w", err)
		}

		for _, post := range posts {
			if post.Author == "" || post.Author == deletedAuthor {
				continue
			}

			account, err := s.client.AboutUser(ctx, post.Author)
			if err != nil {
				switch {
				case errors.Is(err, reddit.ErrNotFound), errors.Is(err, reddit.ErrSuspended):
					s.logger.Debug("skipping unresolvable author",
						zap.String("author", post.Author), zap.Error(err))
					continue
				case errors.Is(err, reddit.ErrOverloaded):
					s.pauseForOverload(ctx)
				default:
					return nil, fmt.Errorf("failed to resolve author %s: %w", post.Author, err)
				}

				// Abandon the rest of the batch after an overload.
				break
			}

			karma := account.TotalKarma()
			if karma < minKarma || karma > maxKarma {
				continue
			}

			if containsUsername(rows[:nextSlot], account.Name) {
				continue
			}

			rows[nextSlot] = models.RandomSampleRow{
				Username:   account.Name,
				Karma:      karma,
				KarmaRange: label,
			}
			nextSlot++

			s.logger.Info("collected account",
				zap.String("username", account.Name),
				zap.Int64("karma", karma),
				zap.Int("filled", nextSlot),
				zap.Int("count", count))

			if nextSlot == count {
				return rows, nil
			}
		}
	}
}

func (s *RandomSampler) pauseForOverload(ctx context.Context) {
	wait := s.pause.NextBackOff()
	s.logger.Warn("upstream overloaded, pausing", zap.Duration("pause", wait))

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func containsUsername(rows []models.RandomSampleRow, name string) bool {
	for _, row := range rows {
		if row.Username == name {
			return true
		}
	}

	return false
}
