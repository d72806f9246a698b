package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karmalab/karmatracker/internal/models"
	"github.com/karmalab/karmatracker/internal/store"
)

func sampleRows() []models.RandomSampleRow {
	return []models.RandomSampleRow{
		{Username: "u1", Karma: 150, KarmaRange: "100-50000"},
		{Username: "u2", Karma: 49999, KarmaRange: "100-50000"},
	}
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	t.Parallel()

	codec, err := store.NewSampleCodec(store.FormatCSV)
	require.NoError(t, err)

	fs := store.NewFileStore(codec)

	rows, err := fs.Load(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Nil(t, rows)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	for _, format := range []store.Format{store.FormatCSV, store.FormatBinary} {
		codec, err := store.NewSampleCodec(format)
		require.NoError(t, err)

		fs := store.NewFileStore(codec)
		path := fs.Path(t.TempDir(), "redditors_100-50000")

		require.NoError(t, fs.Save(path, sampleRows()))

		loaded, err := fs.Load(path)
		require.NoError(t, err)
		assert.Equal(t, sampleRows(), loaded, "format %s", format)
	}
}

func TestFileStore_SaveReplacesExisting(t *testing.T) {
	t.Parallel()

	codec, err := store.NewSampleCodec(store.FormatCSV)
	require.NoError(t, err)

	fs := store.NewFileStore(codec)
	path := fs.Path(t.TempDir(), "redditors_100-50000")

	require.NoError(t, fs.Save(path, sampleRows()))
	require.NoError(t, fs.Save(path, sampleRows()[:1]))

	loaded, err := fs.Load(path)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

// Merging the same rows twice doubles the row count. The store enforces no
// dedup key; uniqueness is the caller's job.
func TestFileStore_MergeAndSaveDuplicatesRows(t *testing.T) {
	t.Parallel()

	codec, err := store.NewSampleCodec(store.FormatBinary)
	require.NoError(t, err)

	fs := store.NewFileStore(codec)
	path := fs.Path(t.TempDir(), "redditors_100-50000")

	rows := sampleRows()
	require.NoError(t, fs.Save(path, rows))
	require.NoError(t, fs.MergeAndSave(path, rows))

	loaded, err := fs.Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2*len(rows))

	// Existing row order precedes the appended rows
	assert.Equal(t, append(sampleRows(), sampleRows()...), loaded)

	require.NoError(t, fs.MergeAndSave(path, rows))

	loaded, err = fs.Load(path)
	require.NoError(t, err)
	assert.Len(t, loaded, 3*len(rows))
}

func TestFileStore_MergeAndSaveMissingFile(t *testing.T) {
	t.Parallel()

	codec, err := store.NewSampleCodec(store.FormatCSV)
	require.NoError(t, err)

	fs := store.NewFileStore(codec)

	err = fs.MergeAndSave(filepath.Join(t.TempDir(), "missing.csv"), sampleRows())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFileStore_Path(t *testing.T) {
	t.Parallel()

	csvCodec, err := store.NewActivityCodec(store.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "activity_data.csv"),
		store.NewFileStore(csvCodec).Path("data", "activity_data"))

	binCodec, err := store.NewActivityCodec(store.FormatBinary)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "activity_data.bin"),
		store.NewFileStore(binCodec).Path("data", "activity_data"))
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	format, err := store.ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, store.FormatCSV, format)

	format, err = store.ParseFormat("binary")
	require.NoError(t, err)
	assert.Equal(t, store.FormatBinary, format)

	_, err = store.ParseFormat("parquet")
	assert.Error(t, err)
}

func TestFileStore_SaveCreatesDataDir(t *testing.T) {
	t.Parallel()

	codec, err := store.NewSampleCodec(store.FormatCSV)
	require.NoError(t, err)

	fs := store.NewFileStore(codec)
	path := fs.Path(filepath.Join(t.TempDir(), "data"), "redditors_100-50000")

	require.NoError(t, fs.Save(path, sampleRows()))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
