package storage

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/newsgoat/internal/config"
	"github.com/IshaanNene/newsgoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func sampleRecords() []types.ArticleRecord {
	return []types.ArticleRecord{
		types.NewArticle("https://www.bbc.com/news/x1", "Storm, hits coast", "Body \"quoted\"."),
		types.NewSubArticle("https://www.bbc.com/news/live/x3", "Post one", "First."),
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVSinkOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "bbc_data.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("old,content\n"), 0o644))

	s, err := NewCSVSink(path, ModeOverwrite, testLogger)
	require.NoError(t, err)
	require.NoError(t, s.Append(sampleRecords()))
	require.NoError(t, s.Flush(context.Background()))
	require.NoError(t, s.Close())

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, types.CSVHeader, rows[0])
	assert.Equal(t, []string{"False", "https://www.bbc.com/news/x1", "Storm, hits coast", "Body \"quoted\"."}, rows[1])
	assert.Equal(t, "True", rows[2][0])
}

func TestCSVSinkAppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bbc_data.csv")

	for i := 0; i < 2; i++ {
		s, err := NewCSVSink(path, ModeAppend, testLogger)
		require.NoError(t, err)
		require.NoError(t, s.Append(sampleRecords()[:1]))
		require.NoError(t, s.Close())
	}

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, types.CSVHeader, rows[0])
	assert.Equal(t, rows[1], rows[2])
}

func TestJSONLSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")

	s, err := NewJSONLSink(path, ModeOverwrite, testLogger)
	require.NoError(t, err)
	require.NoError(t, s.Append(sampleRecords()))
	require.NoError(t, s.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var got []types.ArticleRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec types.ArticleRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		got = append(got, rec)
	}
	assert.Equal(t, sampleRecords(), got)
}

func TestJSONSinkWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	s, err := NewJSONSink(path, testLogger)
	require.NoError(t, err)
	require.NoError(t, s.Append(sampleRecords()))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, true, got[1]["sub_article"])
}

func TestNewFactory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.OutputPath = filepath.Join(t.TempDir(), "bbc_data.csv")

	s, err := New(cfg, "session", testLogger)
	require.NoError(t, err)
	assert.Equal(t, "csv", s.Name())
	require.NoError(t, s.Close())

	cfg.Storage.Type = "csv, jsonl"
	s, err = New(cfg, "session", testLogger)
	require.NoError(t, err)
	assert.Equal(t, "multi(csv,jsonl)", s.Name())
	require.NoError(t, s.Append(sampleRecords()))
	require.NoError(t, s.Close())
	assert.FileExists(t, filepath.Join(filepath.Dir(cfg.Storage.OutputPath), "bbc_data.jsonl"))

	cfg.Storage.Type = "parquet"
	_, err = New(cfg, "session", testLogger)
	var se *types.StorageError
	assert.True(t, errors.As(err, &se))
}

type brokenSink struct{ name string }

func (b brokenSink) Name() string { return b.name }
func (b brokenSink) Append([]types.ArticleRecord) error { return errors.New("disk full") }
func (b brokenSink) Flush(context.Context) error { return nil }
func (b brokenSink) Close() error { return nil }

func TestMultiSinkReportsFirstError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	good, err := NewJSONLSink(path, ModeOverwrite, testLogger)
	require.NoError(t, err)

	m := NewMultiSink([]Sink{brokenSink{name: "broken"}, good}, testLogger)
	err = m.Append(sampleRecords())
	assert.EqualError(t, err, "disk full")
	require.NoError(t, m.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data, "healthy backends still receive the records")
}
