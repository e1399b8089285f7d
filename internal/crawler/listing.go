package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/IshaanNene/newsgoat/internal/browser"
	"github.com/IshaanNene/newsgoat/internal/config"
)

// Listing is the homepage tab that seeds a session. It stays open while the
// articles are visited and is closed at the end of the session.
type Listing struct {
	page    browser.Page
	baseURL *url.URL
	links   browser.Selector
	logger  *slog.Logger
}

// OpenListing opens the listing page and accepts the consent dialog if one
// shows up. Missing consent buttons are not an error.
func OpenListing(ctx context.Context, cfg *config.Config, b browser.Browser, logger *slog.Logger) (*Listing, error) {
	base, err := url.Parse(cfg.Crawl.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}

	logger = logger.With("component", "listing", "url", cfg.Crawl.ListingURL)
	page, err := b.Open(ctx, cfg.Crawl.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("open listing: %w", err)
	}

	l := &Listing{
		page:    page,
		baseURL: base,
		links:   browser.ParseSelector(cfg.Selectors.ListingLinks),
		logger:  logger,
	}

	if err := browser.Sleep(ctx, cfg.Crawl.ConsentWait); err != nil {
		page.Close()
		return nil, err
	}
	l.acceptConsent(ctx, cfg.Selectors.ConsentButtons)
	return l, nil
}

func (l *Listing) acceptConsent(ctx context.Context, buttons []string) {
	for _, expr := range buttons {
		clicked, err := l.page.Click(ctx, browser.ParseSelector(expr))
		switch {
		case err != nil:
			l.logger.Debug("consent click failed", "selector", expr, "error", err)
		case clicked:
			l.logger.Debug("consent button clicked", "selector", expr)
		}
	}
}

// Links returns the absolute article URLs linked from the listing, in
// document order. Duplicates are kept; the controller removes them.
func (l *Listing) Links(ctx context.Context) ([]string, error) {
	elements, err := l.page.Query(ctx, l.links)
	if err != nil {
		return nil, fmt.Errorf("query listing links: %w", err)
	}

	out := make([]string, 0, len(elements))
	for _, el := range elements {
		href, ok, err := el.Attribute("href")
		if err != nil {
			return nil, fmt.Errorf("read listing link: %w", err)
		}
		if !ok {
			continue
		}
		if abs, ok := l.resolve(href); ok {
			out = append(out, abs)
		}
	}

	l.logger.Info("listing links harvested", "links", len(out))
	return out, nil
}

func (l *Listing) resolve(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return l.baseURL.ResolveReference(ref).String(), true
}

// Close closes the listing tab.
func (l *Listing) Close() error {
	return l.page.Close()
}
