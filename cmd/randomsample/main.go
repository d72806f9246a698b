package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/karmalab/karmatracker/internal/config"
	"github.com/karmalab/karmatracker/internal/logging"
	"github.com/karmalab/karmatracker/internal/models"
	"github.com/karmalab/karmatracker/internal/reddit"
	"github.com/karmalab/karmatracker/internal/sampler"
	"github.com/karmalab/karmatracker/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "randomsample",
		Usage: "Collect random accounts within a karma band from the randomized hot feed",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the config file",
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "Number of accounts to collect (overrides config)",
			},
			&cli.IntFlag{
				Name:  "min-karma",
				Usage: "Lower bound of the karma band (overrides config)",
			},
			&cli.IntFlag{
				Name:  "max-karma",
				Usage: "Upper bound of the karma band (overrides config)",
			},
		},
		Action: runRandomSample,
	}

	return app.Run(context.Background(), os.Args)
}

func runRandomSample(ctx context.Context, c *cli.Command) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	if c.IsSet("count") {
		cfg.Random.Count = int(c.Int("count"))
	}

	if c.IsSet("min-karma") {
		cfg.Random.MinKarma = c.Int("min-karma")
	}

	if c.IsSet("max-karma") {
		cfg.Random.MaxKarma = c.Int("max-karma")
	}

	logger := logging.New(cfg.Debug).With(zap.String("run_id", uuid.New().String()))
	defer logger.Sync() //nolint:errcheck // stderr sync

	format, err := store.ParseFormat(cfg.Data.Format)
	if err != nil {
		return err
	}

	client := reddit.NewClient(cfg.Reddit)
	randomSampler := sampler.NewRandomSampler(client, logger, cfg.Random)

	logger.Info("starting random sample",
		zap.Int("count", cfg.Random.Count),
		zap.Int64("min_karma", cfg.Random.MinKarma),
		zap.Int64("max_karma", cfg.Random.MaxKarma))

	rows, err := randomSampler.Run(ctx, cfg.Random.Count, cfg.Random.MinKarma, cfg.Random.MaxKarma)
	if err != nil {
		return err
	}

	codec, err := store.NewSampleCodec(format)
	if err != nil {
		return err
	}

	fs := store.NewFileStore(codec)
	name := "redditors_" + models.KarmaRangeLabel(cfg.Random.MinKarma, cfg.Random.MaxKarma)
	path := fs.Path(cfg.Data.Dir, name)

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

	if cfg.S3.Bucket != "" {
		mirror, err := store.NewMirror(cfg.S3)
		if err != nil {
			return err
		}

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
