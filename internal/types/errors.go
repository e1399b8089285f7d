package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrStale            = errors.New("stale page element")
	ErrNoExtractor      = errors.New("no extractor registered for page kind")
	ErrInvalidURL       = errors.New("invalid URL")
	ErrNoSeeds          = errors.New("no seed URLs to crawl")
	ErrRetriesExhausted = errors.New("stale retries exhausted")
	ErrBrowserClosed    = errors.New("browser has been closed")
)

// PageError wraps errors raised by the browser while working on a page.
type PageError struct {
	URL   string
	Op    string
	Err   error
	Stale bool // the rendered tree was replaced under the query
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %s for %s: %v", e.Op, e.URL, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// Is reports stale page errors as ErrStale.
func (e *PageError) Is(target error) bool {
	return target == ErrStale && e.Stale
}

// ExtractError wraps errors that occur while extracting records from a page.
type ExtractError struct {
	URL      string
	Kind     PageKind
	Selector string
	Err      error
}

func (e *ExtractError) Error() string {
	if e.Selector != "" {
		return fmt.Sprintf("extract %s %s (selector=%q): %v", e.Kind, e.URL, e.Selector, e.Err)
	}
	return fmt.Sprintf("extract %s %s: %v", e.Kind, e.URL, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError wraps errors that occur in the record pipeline.
type PipelineError struct {
	Stage  string
	Record *ArticleRecord
	Err    error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// IsStale reports whether err was caused by a page element going stale.
func IsStale(err error) bool {
	return errors.Is(err, ErrStale)
}
