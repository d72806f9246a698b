package store

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/karmalab/karmatracker/internal/models"
)

// The binary snapshot format is a row count followed by fixed-order fields:
// little-endian numbers, length-prefixed strings, and a presence byte ahead
// of optional values. Unlike csv it round-trips every field exactly,
// including the nil/false distinction of is_submitter.

func writeCount[T any](w io.Writer, rows []T) error {
	count := uint32(len(rows)) //nolint:gosec // unlikely to overflow
	if err := binary.Write(w, binary.LittleEndian, count); err != nil {
		return fmt.Errorf("failed to write row count: %w", err)
	}

	return nil
}

func readCount(r io.Reader) (uint32, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return 0, fmt.Errorf("failed to read row count: %w", err)
	}

	return count, nil
}

func writeString(w io.Writer, s string) error {
	b := []byte(s)

	length := uint16(len(b)) //nolint:gosec // unlikely to overflow
	if err := binary.Write(w, binary.LittleEndian, length); err != nil {
		return fmt.Errorf("failed to write string length: %w", err)
	}

	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("failed to write string: %w", err)
	}

	return nil
}

func readString(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", fmt.Errorf("failed to read string length: %w", err)
	}

	b := make([]byte, length)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("failed to read string: %w", err)
	}

	return string(b), nil
}

func writeOptionalBool(w io.Writer, v *bool) error {
	present := uint8(0)
	value := uint8(0)

	if v != nil {
		present = 1
		if *v {
			value = 1
		}
	}

	if err := binary.Write(w, binary.LittleEndian, [2]uint8{present, value}); err != nil {
		return fmt.Errorf("failed to write optional bool: %w", err)
	}

	return nil
}

func readOptionalBool(r io.Reader) (*bool, error) {
	var pair [2]uint8
	if err := binary.Read(r, binary.LittleEndian, &pair); err != nil {
		return nil, fmt.Errorf("failed to read optional bool: %w", err)
	}

	if pair[0] == 0 {
		return nil, nil
	}

	value := pair[1] == 1

	return &value, nil
}

type activityBinary struct{}

func (activityBinary) Ext() string { return ".bin" }

func (activityBinary) Encode(w io.Writer, rows []models.ActivityRecord) error {
	if err := writeCount(w, rows); err != nil {
		return err
	}

	for _, row := range rows {
		if err := binary.Write(w, binary.LittleEndian, row.Timestamp); err != nil {
			return fmt.Errorf("failed to write timestamp: %w", err)
		}

		if err := writeString(w, row.ID); err != nil {
			return err
		}

		if err := binary.Write(w, binary.LittleEndian, row.Karma); err != nil {
			return fmt.Errorf("failed to write karma: %w", err)
		}

		if err := writeString(w, row.Subreddit); err != nil {
			return err
		}

		if err := writeOptionalBool(w, row.IsSubmitter); err != nil {
			return err
		}

		if err := writeString(w, row.AccountName); err != nil {
			return err
		}

		if err := writeString(w, string(row.Type)); err != nil {
			return err
		}
	}

	return nil
}

func (activityBinary) Decode(r io.Reader) ([]models.ActivityRecord, error) {
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}

	rows := make([]models.ActivityRecord, 0, count)

	for i := uint32(0); i < count; i++ {
		var row models.ActivityRecord

		if err := binary.Read(r, binary.LittleEndian, &row.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to read timestamp: %w", err)
		}

		if row.ID, err = readString(r); err != nil {
			return nil, err
		}

		if err := binary.Read(r, binary.LittleEndian, &row.Karma); err != nil {
			return nil, fmt.Errorf("failed to read karma: %w", err)
		}

		if row.Subreddit, err = readString(r); err != nil {
			return nil, err
		}

		if row.IsSubmitter, err = readOptionalBool(r); err != nil {
			return nil, err
		}

		if row.AccountName, err = readString(r); err != nil {
			return nil, err
		}

		recordType, err := readString(r)
		if err != nil {
			return nil, err
		}

		row.Type = models.ActivityType(recordType)
		rows = append(rows, row)
	}

	return rows, nil
}

type snapshotBinary struct{}

func (snapshotBinary) Ext() string { return ".bin" }

func (snapshotBinary) Encode(w io.Writer, rows []models.AccountSnapshot) error {
	if err := writeCount(w, rows); err != nil {
		return err
	}

	for _, row := range rows {
		if err := writeString(w, row.Name); err != nil {
			return err
		}

		if err := binary.Write(w, binary.LittleEndian, row.PostKarma); err != nil {
			return fmt.Errorf("failed to write post karma: %w", err)
		}

		if err := binary.Write(w, binary.LittleEndian, row.CommentKarma); err != nil {
			return fmt.Errorf("failed to write comment karma: %w", err)
		}

		if err := binary.Write(w, binary.LittleEndian, row.SampledAt.UnixNano()); err != nil {
			return fmt.Errorf("failed to write sampled_at: %w", err)
		}
	}

	return nil
}

func (snapshotBinary) Decode(r io.Reader) ([]models.AccountSnapshot, error) {
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}

	rows := make([]models.AccountSnapshot, 0, count)

	for i := uint32(0); i < count; i++ {
		var row models.AccountSnapshot

		if row.Name, err = readString(r); err != nil {
			return nil, err
		}

		if err := binary.Read(r, binary.LittleEndian, &row.PostKarma); err != nil {
			return nil, fmt.Errorf("failed to read post karma: %w", err)
		}

		if err := binary.Read(r, binary.LittleEndian, &row.CommentKarma); err != nil {
			return nil, fmt.Errorf("failed to read comment karma: %w", err)
		}

		var sampledAt int64
		if err := binary.Read(r, binary.LittleEndian, &sampledAt); err != nil {
			return nil, fmt.Errorf("failed to read sampled_at: %w", err)
		}

		row.SampledAt = time.Unix(0, sampledAt)
		rows = append(rows, row)
	}

	return rows, nil
}

type sampleBinary struct{}

func (sampleBinary) Ext() string { return ".bin" }

func (sampleBinary) Encode(w io.Writer, rows []models.RandomSampleRow) error {
	if err := writeCount(w, rows); err != nil {
		return err
	}

	for _, row := range rows {
		if err := writeString(w, row.Username); err != nil {
			return err
		}

		if err := binary.Write(w, binary.LittleEndian, row.Karma); err != nil {
			return fmt.Errorf("failed to write karma: %w", err)
		}

		if err := writeString(w, row.KarmaRange); err != nil {
			return err
		}
	}

	return nil
}

func (sampleBinary) Decode(r io.Reader) ([]models.RandomSampleRow, error) {
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}

	rows := make([]models.RandomSampleRow, 0, count)

	for i := uint32(0); i < count; i++ {
		var row models.RandomSampleRow

		if row.Username, err = readString(r); err != nil {
			return nil, err
		}

		if err := binary.Read(r, binary.LittleEndian, &row.Karma); err != nil {
			return nil, fmt.Errorf("failed to read karma: %w", err)
		}

		if row.KarmaRange, err = readString(r); err != nil {
			return nil, err
		}

		rows = append(rows, row)
	}

	return rows, nil
}
