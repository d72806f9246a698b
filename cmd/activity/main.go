package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/karmalab/karmatracker/internal/config"
	"github.com/karmalab/karmatracker/internal/logging"
	"github.com/karmalab/karmatracker/internal/reddit"
	"github.com/karmalab/karmatracker/internal/sampler"
	"github.com/karmalab/karmatracker/internal/store"
)

const (
	activityTableName = "activity_data"
	karmaTableName    = "karmatracker"
)

var errNoAccounts = errors.New("no accounts configured under [activity]")

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "activity",
		Usage: "Sample karma counters and trailing-day activity for the configured accounts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the config file",
			},
		},
		Action: runActivity,
	}

	return app.Run(context.Background(), os.Args)
}

func runActivity(ctx context.Context, c *cli.Command) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Debug).With(zap.String("run_id", uuid.New().String()))
	defer logger.Sync() //nolint:errcheck // stderr sync

	if len(cfg.Activity.Accounts) == 0 {
		return errNoAccounts
	}

	format, err := store.ParseFormat(cfg.Data.Format)
	if err != nil {
		return err
	}

	client := reddit.NewClient(cfg.Reddit)
	activitySampler := sampler.NewActivitySampler(client, logger)

	result, err := activitySampler.Run(ctx, cfg.Activity.Accounts)
	if err != nil {
		return err
	}

	logger.Info("sampling complete",
		zap.Int("accounts", len(result.Snapshots)),
		zap.Int("activity_rows", len(result.Activity)))

	var mirror *store.Mirror

	if cfg.S3.Bucket != "" {
		mirror, err = store.NewMirror(cfg.S3)
		if err != nil {
			return err
		}
	}

	activityCodec, err := store.NewActivityCodec(format)
	if err != nil {
		return err
	}

	snapshotCodec, err := store.NewSnapshotCodec(format)
	if err != nil {
		return err
	}

	if err := persist(ctx, logger, store.NewFileStore(activityCodec),
		cfg.Data.Dir, activityTableName, result.Activity, mirror); err != nil {
		return err
	}

	return persist(ctx, logger, store.NewFileStore(snapshotCodec),
		cfg.Data.Dir, karmaTableName, result.Snapshots, mirror)
}

// persist saves rows to the table file, merge-appending behind an operator
// confirmation when the file already exists.
func persist[T any](ctx context.Context, logger *zap.Logger, fs *store.FileStore[T],
	dir, name string, rows []T, mirror *store.Mirror,
) error {
	path := fs.Path(dir, name)

	if _, err := os.Stat(path); err == nil {
		if !confirmOverwrite(path, len(rows)) {
			logger.Warn("update declined, discarding rows", zap.String("path", path))
			return nil
		}

		if err := fs.MergeAndSave(path, rows); err != nil {
			return err
		}
	} else {
		if err := fs.Save(path, rows); err != nil {
			return err
		}
	}

	logger.Info("saved table", zap.String("path", path), zap.Int("new_rows", len(rows)))

	if mirror != nil {
		if err := mirror.Upload(ctx, path); err != nil {
			return err
		}

		logger.Info("mirrored table", zap.String("path", path))
	}

	return nil
}

// confirmOverwrite asks the operator before touching an existing file. Only
// the exact token "Y" confirms.
func confirmOverwrite(path string, newRows int) bool {
	fmt.Printf("%s exists; append %d new rows? [Y/n]: ", path, newRows)

	reader := bufio.NewReader(os.Stdin)

	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimRight(input, "\r\n") == "Y"
}
