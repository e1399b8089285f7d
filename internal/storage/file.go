package storage

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/IshaanNene/newsgoat/internal/types"
)

// openOutput opens path for writing in the given mode and reports whether
// the file is empty (new, truncated, or zero length).
func openOutput(path, mode string) (*os.File, bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, false, fmt.Errorf("create output dir: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if mode == ModeAppend {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("open output file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("stat output file: %w", err)
	}
	return f, info.Size() == 0, nil
}

// --- CSV Sink ---

// CSVSink writes records as CSV rows with a sub_article,url,title,description
// header.
type CSVSink struct {
	path   string
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewCSVSink opens a CSV file. Overwrite truncates it and writes the header;
// append writes the header only when the file is new or empty.
func NewCSVSink(outputPath, mode string, logger *slog.Logger) (*CSVSink, error) {
	f, empty, err := openOutput(outputPath, mode)
	if err != nil {
		return nil, err
	}

	s := &CSVSink{
		path:   outputPath,
		file:   f,
		writer: csv.NewWriter(f),
		logger: logger.With("component", "csv_sink"),
	}

	if empty {
		if err := s.writer.Write(types.CSVHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("write CSV header: %w", err)
		}
		s.writer.Flush()
		if err := s.writer.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("write CSV header: %w", err)
		}
	}
	return s, nil
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Append(records []types.ArticleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if err := s.writer.Write(rec.CSVRow()); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("write CSV row: %w", err)}
		}
		s.count++
	}

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	return nil
}

func (s *CSVSink) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	if err := s.file.Sync(); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	return nil
}

func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("CSV written", "path", s.path, "records", s.count)
	s.writer.Flush()
	werr := s.writer.Error()
	if err := s.file.Close(); err != nil {
		return err
	}
	return werr
}

// --- JSONL Sink ---

// JSONLSink writes records as newline-delimited JSON (one object per line).
type JSONLSink struct {
	path   string
	file   *os.File
	buf    *bufio.Writer
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLSink opens a JSONL file in the given mode.
func NewJSONLSink(outputPath, mode string, logger *slog.Logger) (*JSONLSink, error) {
	f, _, err := openOutput(outputPath, mode)
	if err != nil {
		return nil, err
	}

	buf := bufio.NewWriter(f)
	return &JSONLSink{
		path:   outputPath,
		file:   f,
		buf:    buf,
		enc:    json.NewEncoder(buf),
		logger: logger.With("component", "jsonl_sink"),
	}, nil
}

func (s *JSONLSink) Name() string { return "jsonl" }

func (s *JSONLSink) Append(records []types.ArticleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if err := s.enc.Encode(rec); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("encode JSONL: %w", err)}
		}
		s.count++
	}
	if err := s.buf.Flush(); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	return nil
}

func (s *JSONLSink) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.buf.Flush(); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	if err := s.file.Sync(); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	return nil
}

func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("JSONL written", "path", s.path, "records", s.count)
	ferr := s.buf.Flush()
	if err := s.file.Close(); err != nil {
		return err
	}
	return ferr
}

// --- JSON Sink ---

// JSONSink buffers records and writes them as one JSON array. The file is
// rewritten on every Flush, so it only supports overwrite mode.
type JSONSink struct {
	path    string
	records []types.ArticleRecord
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewJSONSink creates a JSON array sink.
func NewJSONSink(outputPath string, logger *slog.Logger) (*JSONSink, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &JSONSink{
		path:    outputPath,
		records: make([]types.ArticleRecord, 0),
		logger:  logger.With("component", "json_sink"),
	}, nil
}

func (s *JSONSink) Name() string { return "json" }

func (s *JSONSink) Append(records []types.ArticleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	s.logger.Debug("records buffered", "count", len(records), "total", len(s.records))
	return nil
}

func (s *JSONSink) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	return nil
}

func (s *JSONSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	s.logger.Info("JSON written", "path", s.path, "records", len(s.records))
	return nil
}

func (s *JSONSink) write() error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.records); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}
