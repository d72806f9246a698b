package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var ErrConfigFileNotFound = errors.New("could not find config file in any config path")

// Config is the full application configuration, loaded from a TOML file.
type Config struct {
	Reddit   RedditConfig   `koanf:"reddit"`
	Data     DataConfig     `koanf:"data"`
	Activity ActivityConfig `koanf:"activity"`
	Random   RandomConfig   `koanf:"random"`
	S3       S3Config       `koanf:"s3"`
	Debug    bool           `koanf:"debug"`
}

// RedditConfig holds the externally supplied API credentials.
type RedditConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	UserAgent    string `koanf:"user_agent"`
	Username     string `koanf:"username"`
	Password     string `koanf:"password"`
}

// DataConfig controls where and how table files are persisted.
type DataConfig struct {
	// Directory for table files, relative to the working directory.
	Dir string `koanf:"dir"`
	// Encoding for table files: "csv" or "binary".
	Format string `koanf:"format"`
}

// ActivityConfig holds the account list for the activity sampler.
type ActivityConfig struct {
	Accounts []string `koanf:"accounts"`
}

// RandomConfig holds parameters for the random account sampler.
type RandomConfig struct {
	Count    int   `koanf:"count"`
	MinKarma int64 `koanf:"min_karma"`
	MaxKarma int64 `koanf:"max_karma"`
	// Items requested per hot-feed call.
	BatchSize int `koanf:"batch_size"`
	// Upper bound on feed batches before giving up; 0 means unbounded.
	MaxBatches int `koanf:"max_batches"`
	// Pause after an upstream overload in milliseconds.
	OverloadPause int `koanf:"overload_pause"`
}

// S3Config enables mirroring of persisted table files to a bucket when
// Bucket is set.
type S3Config struct {
	Bucket string `koanf:"bucket"`
	Region string `koanf:"region"`
	// Custom endpoint for local testing.
	Endpoint string `koanf:"endpoint"`
}

// Load reads the config file from the given path, or searches the default
// config paths when path is empty, and applies defaults for unset fields.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		found, err := findConfigFile()
		if err != nil {
			return nil, err
		}
		path = found
	}

	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Data: DataConfig{
			Dir:    "data",
			Format: "csv",
		},
		Random: RandomConfig{
			Count:         10,
			MinKarma:      100,
			MaxKarma:      50000,
			BatchSize:     10,
			OverloadPause: 10000,
		},
		S3: S3Config{
			Region: "us-west-2",
		},
	}
}

func findConfigFile() (string, error) {
	for _, candidate := range []string{"config/karmatracker.toml", "karmatracker.toml"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", ErrConfigFileNotFound
}
