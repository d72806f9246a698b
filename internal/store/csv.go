package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/karmalab/karmatracker/internal/models"
)

// The textual format writes the literal NaN for an inapplicable
// is_submitter. Reading it back cannot distinguish that sentinel from an
// absent value; the binary format can.
const csvNaN = "NaN"

var (
	activityHeader = []string{"timestamp", "id", "karma", "subreddit", "is_submitter", "account_name", "type"}
	snapshotHeader = []string{"name", "post_karma", "comment_karma", "sampled_at"}
	sampleHeader   = []string{"username", "karma", "karma_range"}
)

func encodeCSV[T any](w io.Writer, header []string, rows []T, encodeRow func(T) []string) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range rows {
		if err := writer.Write(encodeRow(row)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()

	return writer.Error()
}

func decodeCSV[T any](r io.Reader, header []string, decodeRow func([]string) (T, error)) ([]T, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(header)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("csv is missing its header row")
	}

	rows := make([]T, 0, len(records)-1)

	for _, record := range records[1:] {
		row, err := decodeRow(record)
		if err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}

		rows = append(rows, row)
	}

	return rows, nil
}

type activityCSV struct{}

func (activityCSV) Ext() string { return ".csv" }

func (activityCSV) Encode(w io.Writer, rows []models.ActivityRecord) error {
	return encodeCSV(w, activityHeader, rows, func(r models.ActivityRecord) []string {
		isSubmitter := csvNaN
		if r.IsSubmitter != nil {
			isSubmitter = strconv.FormatBool(*r.IsSubmitter)
		}

		return []string{
			strconv.FormatFloat(r.Timestamp, 'f', -1, 64),
			r.ID,
			strconv.FormatInt(r.Karma, 10),
			r.Subreddit,
			isSubmitter,
			r.AccountName,
			string(r.Type),
		}
	})
}

func (activityCSV) Decode(r io.Reader) ([]models.ActivityRecord, error) {
	return decodeCSV(r, activityHeader, func(fields []string) (models.ActivityRecord, error) {
		timestamp, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return models.ActivityRecord{}, fmt.Errorf("invalid timestamp %q: %w", fields[0], err)
		}

		karma, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return models.ActivityRecord{}, fmt.Errorf("invalid karma %q: %w", fields[2], err)
		}

		var isSubmitter *bool

		if fields[4] != csvNaN && fields[4] != "" {
			parsed, err := strconv.ParseBool(fields[4])
			if err != nil {
				return models.ActivityRecord{}, fmt.Errorf("invalid is_submitter %q: %w", fields[4], err)
			}

			isSubmitter = &parsed
		}

		return models.ActivityRecord{
			Timestamp:   timestamp,
			ID:          fields[1],
			Karma:       karma,
			Subreddit:   fields[3],
			IsSubmitter: isSubmitter,
			AccountName: fields[5],
			Type:        models.ActivityType(fields[6]),
		}, nil
	})
}

type snapshotCSV struct{}

func (snapshotCSV) Ext() string { return ".csv" }

func (snapshotCSV) Encode(w io.Writer, rows []models.AccountSnapshot) error {
	return encodeCSV(w, snapshotHeader, rows, func(r models.AccountSnapshot) []string {
		return []string{
			r.Name,
			strconv.FormatInt(r.PostKarma, 10),
			strconv.FormatInt(r.CommentKarma, 10),
			r.SampledAt.Format(time.RFC3339Nano),
		}
	})
}

func (snapshotCSV) Decode(r io.Reader) ([]models.AccountSnapshot, error) {
	return decodeCSV(r, snapshotHeader, func(fields []string) (models.AccountSnapshot, error) {
		postKarma, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return models.AccountSnapshot{}, fmt.Errorf("invalid post_karma %q: %w", fields[1], err)
		}

		commentKarma, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return models.AccountSnapshot{}, fmt.Errorf("invalid comment_karma %q: %w", fields[2], err)
		}

		sampledAt, err := time.Parse(time.RFC3339Nano, fields[3])
		if err != nil {
			return models.AccountSnapshot{}, fmt.Errorf("invalid sampled_at %q: %w", fields[3], err)
		}

		return models.AccountSnapshot{
			Name:         fields[0],
			PostKarma:    postKarma,
			CommentKarma: commentKarma,
			SampledAt:    sampledAt,
		}, nil
	})
}

type sampleCSV struct{}

func (sampleCSV) Ext() string { return ".csv" }

func (sampleCSV) Encode(w io.Writer, rows []models.RandomSampleRow) error {
	return encodeCSV(w, sampleHeader, rows, func(r models.RandomSampleRow) []string {
		return []string{
			r.Username,
			strconv.FormatInt(r.Karma, 10),
			r.KarmaRange,
		}
	})
}

func (sampleCSV) Decode(r io.Reader) ([]models.RandomSampleRow, error) {
	return decodeCSV(r, sampleHeader, func(fields []string) (models.RandomSampleRow, error) {
		karma, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return models.RandomSampleRow{}, fmt.Errorf("invalid karma %q: %w", fields[1], err)
		}

		return models.RandomSampleRow{
			Username:   fields[0],
			Karma:      karma,
			KarmaRange: fields[2],
		}, nil
	})
}
