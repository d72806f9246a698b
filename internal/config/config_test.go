package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	content := `
debug = true

[reddit]
client_id = "id"
client_secret = "secret"
user_agent = "karmatracker/1.0"
username = "alpha"
password = "hunter2"

[data]
dir = "datasets"
format = "binary"

[activity]
accounts = ["alpha", "beta"]

[random]
count = 25
min_karma = 500
max_karma = 10000
max_batches = 100
`

	path := filepath.Join(t.TempDir(), "karmatracker.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "id", cfg.Reddit.ClientID)
	assert.Equal(t, "karmatracker/1.0", cfg.Reddit.UserAgent)
	assert.Equal(t, "datasets", cfg.Data.Dir)
	assert.Equal(t, "binary", cfg.Data.Format)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Activity.Accounts)
	assert.Equal(t, 25, cfg.Random.Count)
	assert.Equal(t, int64(500), cfg.Random.MinKarma)
	assert.Equal(t, int64(10000), cfg.Random.MaxKarma)
	assert.Equal(t, 100, cfg.Random.MaxBatches)

	// Unset fields keep their defaults
	assert.Equal(t, 10, cfg.Random.BatchSize)
	assert.Equal(t, 10000, cfg.Random.OverloadPause)
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "karmatracker.toml")
	require.NoError(t, os.WriteFile(path, []byte("[reddit]\nuser_agent = \"ua\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "csv", cfg.Data.Format)
	assert.Equal(t, 10, cfg.Random.Count)
	assert.Equal(t, int64(100), cfg.Random.MinKarma)
	assert.Equal(t, int64(50000), cfg.Random.MaxKarma)
	assert.Equal(t, 0, cfg.Random.MaxBatches)
	assert.False(t, cfg.Debug)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
