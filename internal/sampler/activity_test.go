package sampler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karmalab/karmatracker/internal/models"
	"github.com/karmalab/karmatracker/internal/reddit"
)

// MockClient is a mock implementation of the Client interface
type MockClient struct {
	mock.Mock
}

func (m *MockClient) AboutUser(ctx context.Context, name string) (reddit.Account, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(reddit.Account), args.Error(1)
}

func (m *MockClient) TopComments(ctx context.Context, name string) ([]reddit.Comment, error) {
	args := m.Called(ctx, name)
	return args.Get(0).([]reddit.Comment), args.Error(1)
}

func (m *MockClient) TopSubmissions(ctx context.Context, name string) ([]reddit.Post, error) {
	args := m.Called(ctx, name)
	return args.Get(0).([]reddit.Post), args.Error(1)
}

func (m *MockClient) RandomHot(ctx context.Context, limit int) ([]reddit.Post, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]reddit.Post), args.Error(1)
}

func TestActivitySampler_Run(t *testing.T) {
	accounts := []string{"alpha", "beta"}

	mockClient := new(MockClient)
	mockClient.On("AboutUser", mock.Anything, "alpha").
		Return(reddit.Account{Name: "alpha", LinkKarma: 10, CommentKarma: 20}, nil)
	mockClient.On("AboutUser", mock.Anything, "beta").
		Return(reddit.Account{Name: "beta", LinkKarma: 1, CommentKarma: 2}, nil)
	mockClient.On("TopComments", mock.Anything, "alpha").
		Return([]reddit.Comment{
			{ID: "c1", CreatedUTC: 1700000000.5, Score: 5, Subreddit: "golang", IsSubmitter: true, Author: "alpha"},
		}, nil)
	mockClient.On("TopSubmissions", mock.Anything, "alpha").
		Return([]reddit.Post{
			{ID: "p1", CreatedUTC: 1700000100, Score: 42, Subreddit: "golang", Author: "alpha"},
		}, nil)
	mockClient.On("TopComments", mock.Anything, "beta").
		Return([]reddit.Comment{}, nil)
	mockClient.On("TopSubmissions", mock.Anything, "beta").
		Return([]reddit.Post{}, nil)

	s := NewActivitySampler(mockClient, zap.NewNop())

	result, err := s.Run(context.Background(), accounts)
	require.NoError(t, err)

	// Exactly one snapshot per configured account, in configured order
	require.Len(t, result.Snapshots, 2)
	assert.Equal(t, "alpha", result.Snapshots[0].Name)
	assert.Equal(t, "beta", result.Snapshots[1].Name)
	assert.Equal(t, int64(10), result.Snapshots[0].PostKarma)
	assert.Equal(t, int64(20), result.Snapshots[0].CommentKarma)
	assert.WithinDuration(t, time.Now(), result.Snapshots[0].SampledAt, time.Minute)

	// The account with zero trailing-day activity contributes zero rows
	require.Len(t, result.Activity, 2)
	for _, record := range result.Activity {
		assert.Equal(t, "alpha", record.AccountName)
	}

	mockClient.AssertExpectations(t)
}

func TestActivitySampler_Run_NotFoundAbortsRun(t *testing.T) {
	mockClient := new(MockClient)
	mockClient.On("AboutUser", mock.Anything, "ghost").
		Return(reddit.Account{}, reddit.ErrNotFound)

	s := NewActivitySampler(mockClient, zap.NewNop())

	result, err := s.Run(context.Background(), []string{"ghost", "beta"})

	require.Error(t, err)
	assert.ErrorIs(t, err, reddit.ErrNotFound)
	assert.Nil(t, result)
	// The run aborts before the second account is touched
	mockClient.AssertNotCalled(t, "AboutUser", mock.Anything, "beta")
}

func TestActivitySampler_RetrieveActivity_CommentsBeforePosts(t *testing.T) {
	mockClient := new(MockClient)
	mockClient.On("TopComments", mock.Anything, "alpha").
		Return([]reddit.Comment{
			{ID: "c1", CreatedUTC: 1700000500, Score: 1, Subreddit: "golang", IsSubmitter: false, Author: "alpha"},
			{ID: "c2", CreatedUTC: 1700000100, Score: 2, Subreddit: "golang", IsSubmitter: true, Author: "alpha"},
		}, nil)
	mockClient.On("TopSubmissions", mock.Anything, "alpha").
		Return([]reddit.Post{
			{ID: "p1", CreatedUTC: 1700000000, Score: 3, Subreddit: "golang", Author: "alpha"},
		}, nil)

	s := NewActivitySampler(mockClient, zap.NewNop())

	records, err := s.RetrieveActivity(context.Background(), "alpha")
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Source-iteration order is preserved: comments first, then posts,
	// with no re-sort by timestamp
	assert.Equal(t, []string{"c1", "c2", "p1"}, []string{records[0].ID, records[1].ID, records[2].ID})
	assert.Equal(t, models.ActivityComment, records[0].Type)
	assert.Equal(t, models.ActivityComment, records[1].Type)
	assert.Equal(t, models.ActivityPost, records[2].Type)

	// Comments carry the flag, posts carry nothing
	require.NotNil(t, records[0].IsSubmitter)
	assert.False(t, *records[0].IsSubmitter)
	require.NotNil(t, records[1].IsSubmitter)
	assert.True(t, *records[1].IsSubmitter)
	assert.Nil(t, records[2].IsSubmitter)
}
