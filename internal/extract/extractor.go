// Package extract turns a rendered page into article records. There is one
// strategy per page kind, looked up through a Registry.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IshaanNene/newsgoat/internal/browser"
	"github.com/IshaanNene/newsgoat/internal/config"
	"github.com/IshaanNene/newsgoat/internal/types"
)

// Target identifies the page being extracted.
type Target struct {
	// URL is the seed URL; every record produced carries it.
	URL string

	// Title is the document title with the site suffix removed.
	Title string
}

// Extractor produces records from a rendered page.
type Extractor interface {
	// Name returns the extractor identifier.
	Name() string

	// Extract reads the page and returns zero or more records. Browser errors
	// are returned wrapped but unchanged in kind, so staleness stays
	// detectable with types.IsStale.
	Extract(ctx context.Context, page browser.Page, target Target) ([]types.ArticleRecord, error)
}

// Registry maps page kinds to extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[types.PageKind]Extractor
	logger     *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		extractors: make(map[types.PageKind]Extractor),
		logger:     logger.With("component", "extract_registry"),
	}
}

// DefaultRegistry wires the standard, live-blog and skip extractors.
func DefaultRegistry(sel config.SelectorsConfig, logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(types.KindStandardArticle, NewStandard(sel))
	r.Register(types.KindLiveBlog, NewLiveBlog(sel, logger))
	r.Register(types.KindVideo, Skip{})
	r.Register(types.KindGallery, Skip{})
	return r
}

// Register sets the extractor for kind, replacing any previous one.
func (r *Registry) Register(kind types.PageKind, ex Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[kind] = ex
	r.logger.Debug("extractor registered", "kind", kind, "name", ex.Name())
}

// Lookup returns the extractor for kind.
func (r *Registry) Lookup(kind types.PageKind) (Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.extractors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrNoExtractor, kind)
	}
	return ex, nil
}

// Len returns the number of registered kinds.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.extractors)
}

// Skip is the extractor for pages that are recognized but never scraped.
type Skip struct{}

func (Skip) Name() string { return "skip" }

func (Skip) Extract(context.Context, browser.Page, Target) ([]types.ArticleRecord, error) {
	return nil, nil
}

// queryTexts runs sel and wraps any failure as an ExtractError.
func queryTexts(ctx context.Context, page browser.Page, sel browser.Selector, target Target, kind types.PageKind) ([]string, error) {
	texts, err := browser.QueryTexts(ctx, page, sel)
	if err != nil {
		return nil, &types.ExtractError{URL: target.URL, Kind: kind, Selector: sel.Expr, Err: err}
	}
	return texts, nil
}
