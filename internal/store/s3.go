package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/karmalab/karmatracker/internal/config"
)

// Mirror uploads persisted table files to an S3 bucket after each save, so
// datasets collected on a workstation survive it.
type Mirror struct {
	uploader *s3manager.Uploader
	bucket   string
}

// NewMirror creates a mirror for the configured bucket.
func NewMirror(cfg config.S3Config) (*Mirror, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}

	// For local testing with an S3-compatible server
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &Mirror{
		uploader: s3manager.NewUploader(sess),
		bucket:   cfg.Bucket,
	}, nil
}

// Upload copies the file at path to the bucket under its base name.
func (m *Mirror) Upload(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file for mirroring: %w", err)
	}
	defer file.Close()

	_, err = m.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(filepath.Base(path)),
		Body:   file,
	})
	if err != nil {
		return fmt.Errorf("failed to mirror %s to s3: %w", path, err)
	}

	return nil
}
