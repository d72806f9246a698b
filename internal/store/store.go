// Package store persists tables as whole files: load everything, append
// rows, write everything back. No dedup happens at this layer; merging the
// same rows twice doubles them, and callers that need uniqueness enforce it
// before saving.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/karmalab/karmatracker/internal/models"
)

// ErrNotFound means the table file does not exist at the given path.
var ErrNotFound = errors.New("table file not found")

// Format selects the on-disk encoding of a table file.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatBinary Format = "binary"
)

// ParseFormat validates a format name from configuration.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatCSV, FormatBinary:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unsupported table format: %s", name)
	}
}

// Codec encodes and decodes one table type in one format.
type Codec[T any] interface {
	// Ext is the file extension for this encoding, including the dot.
	Ext() string
	Encode(w io.Writer, rows []T) error
	Decode(r io.Reader) ([]T, error)
}

// NewActivityCodec returns the activity-table codec for a format.
func NewActivityCodec(format Format) (Codec[models.ActivityRecord], error) {
	switch format {
	case FormatCSV:
		return activityCSV{}, nil
	case FormatBinary:
		return activityBinary{}, nil
	default:
		return nil, fmt.Errorf("unsupported table format: %s", format)
	}
}

// NewSnapshotCodec returns the karma-table codec for a format.
func NewSnapshotCodec(format Format) (Codec[models.AccountSnapshot], error) {
	switch format {
	case FormatCSV:
		return snapshotCSV{}, nil
	case FormatBinary:
		return snapshotBinary{}, nil
	default:
		return nil, fmt.Errorf("unsupported table format: %s", format)
	}
}

// NewSampleCodec returns the random-sample-table codec for a format.
func NewSampleCodec(format Format) (Codec[models.RandomSampleRow], error) {
	switch format {
	case FormatCSV:
		return sampleCSV{}, nil
	case FormatBinary:
		return sampleBinary{}, nil
	default:
		return nil, fmt.Errorf("unsupported table format: %s", format)
	}
}

// FileStore reads and writes whole table files through a codec.
type FileStore[T any] struct {
	codec Codec[T]
}

// NewFileStore creates a file store for the given codec.
func NewFileStore[T any](codec Codec[T]) *FileStore[T] {
	return &FileStore[T]{codec: codec}
}

// Path joins the data directory and base table name with the codec's
// extension.
func (s *FileStore[T]) Path(dir, name string) string {
	return filepath.Join(dir, name+s.codec.Ext())
}

// Load reads the whole table at path. A missing file is ErrNotFound.
func (s *FileStore[T]) Load(path string) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return nil, fmt.Errorf("failed to open table file: %w", err)
	}
	defer file.Close()

	rows, err := s.codec.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode table file %s: %w", path, err)
	}

	return rows, nil
}

// Save writes the whole table to path, replacing any existing file. The
// write goes through a temp file and rename so a crash never leaves a
// half-written table behind.
func (s *FileStore[T]) Save(path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if err := s.codec.Encode(tmp, rows); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to encode table: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace table file: %w", err)
	}

	return nil
}

// MergeAndSave loads the existing table, appends rows after the existing
// ones, and writes the result back. Rows are appended as-is; invoking this
// twice with the same rows doubles them.
func (s *FileStore[T]) MergeAndSave(path string, rows []T) error {
	existing, err := s.Load(path)
	if err != nil {
		return err
	}

	merged := make([]T, 0, len(existing)+len(rows))
	merged = append(merged, existing...)
	merged = append(merged, rows...)

	return s.Save(path, merged)
}
