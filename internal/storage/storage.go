// Package storage persists article records.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/IshaanNene/newsgoat/internal/config"
	"github.com/IshaanNene/newsgoat/internal/types"
)

// Write modes.
const (
	ModeOverwrite = "overwrite"
	ModeAppend    = "append"
)

// Sink is the interface for all storage backends. Append must be safe for
// concurrent use; records of one call are written contiguously.
type Sink interface {
	// Append persists a batch of records.
	Append(records []types.ArticleRecord) error

	// Flush forces buffered records out to the backend.
	Flush(ctx context.Context) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// New builds the sink(s) named by storage.type. A comma separated list
// yields a MultiSink; file sinks then share output_path with the extension
// swapped per format.
func New(cfg *config.Config, sessionID string, logger *slog.Logger) (Sink, error) {
	kinds := config.SinkTypes(cfg.Storage.Type)
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no storage type configured")
	}

	sinks := make([]Sink, 0, len(kinds))
	for _, kind := range kinds {
		s, err := newSink(kind, cfg, sessionID, logger)
		if err != nil {
			for _, opened := range sinks {
				_ = opened.Close()
			}
			return nil, &types.StorageError{Backend: kind, Err: err}
		}
		sinks = append(sinks, s)
	}

	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return NewMultiSink(sinks, logger), nil
}

func newSink(kind string, cfg *config.Config, sessionID string, logger *slog.Logger) (Sink, error) {
	st := cfg.Storage
	switch kind {
	case "csv":
		return NewCSVSink(outputPath(st.OutputPath, "csv"), st.Mode, logger)
	case "jsonl":
		return NewJSONLSink(outputPath(st.OutputPath, "jsonl"), st.Mode, logger)
	case "json":
		return NewJSONSink(outputPath(st.OutputPath, "json"), logger)
	case "mongo":
		return NewMongoSink(context.Background(), st.Mongo, st.Mode, sessionID, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", kind)
	}
}

// outputPath swaps the extension of base for ext.
func outputPath(base, ext string) string {
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + ext
}

// --- Multi-Sink Fan-Out ---

// MultiSink writes records to multiple backends.
type MultiSink struct {
	backends []Sink
	logger   *slog.Logger
}

// NewMultiSink creates a sink that fans out to multiple backends.
func NewMultiSink(backends []Sink, logger *slog.Logger) *MultiSink {
	return &MultiSink{
		backends: backends,
		logger:   logger.With("component", "multi_sink"),
	}
}

func (s *MultiSink) Name() string {
	names := make([]string, len(s.backends))
	for i, b := range s.backends {
		names[i] = b.Name()
	}
	return "multi(" + strings.Join(names, ",") + ")"
}

func (s *MultiSink) Append(records []types.ArticleRecord) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Append(records); err != nil {
			s.logger.Error("backend append failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *MultiSink) Flush(ctx context.Context) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Flush(ctx); err != nil {
			s.logger.Error("backend flush failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *MultiSink) Close() error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
