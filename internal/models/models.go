package models

import (
	"fmt"
	"time"
)

// ActivityType distinguishes comment rows from post rows. The two draw
// their ids from separate namespaces upstream, so an id is only unique
// within its type.
type ActivityType string

const (
	ActivityComment ActivityType = "Comment"
	ActivityPost    ActivityType = "Post"
)

// AccountSnapshot captures an account's karma counters at sampling time.
// One row is appended to the karma table per configured account per run.
type AccountSnapshot struct {
	Name         string
	PostKarma    int64
	CommentKarma int64
	SampledAt    time.Time
}

// ActivityRecord is one comment or post from an account's trailing-day
// activity. IsSubmitter is nil for posts, where the concept does not apply.
type ActivityRecord struct {
	Timestamp   float64
	ID          string
	Karma       int64
	Subreddit   string
	IsSubmitter *bool
	AccountName string
	Type        ActivityType
}

// RandomSampleRow is one collected account from a random-sampling run.
type RandomSampleRow struct {
	Username   string
	Karma      int64
	KarmaRange string
}

// KarmaRangeLabel formats the band label stamped on every sample row.
func KarmaRangeLabel(minKarma, maxKarma int64) string {
	return fmt.Sprintf("%d-%d", minKarma, maxKarma)
}
