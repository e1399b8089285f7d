package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/xpath"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Browser.Type != "rod" && cfg.Browser.Type != "static" {
		return fmt.Errorf("browser.type must be 'rod' or 'static', got %q", cfg.Browser.Type)
	}
	if cfg.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be > 0")
	}

	if cfg.Crawl.Concurrency < 1 {
		return fmt.Errorf("crawl.concurrency must be >= 1, got %d", cfg.Crawl.Concurrency)
	}
	if cfg.Crawl.Concurrency > 64 {
		return fmt.Errorf("crawl.concurrency must be <= 64, got %d", cfg.Crawl.Concurrency)
	}
	if cfg.Crawl.MaxStaleRetries < 0 {
		return fmt.Errorf("crawl.max_stale_retries must be >= 0, got %d", cfg.Crawl.MaxStaleRetries)
	}
	for name, d := range map[string]int64{
		"crawl.render_wait":      int64(cfg.Crawl.RenderWait),
		"crawl.first_visit_wait": int64(cfg.Crawl.FirstVisitWait),
		"crawl.consent_wait":     int64(cfg.Crawl.ConsentWait),
		"crawl.stale_backoff":    int64(cfg.Crawl.StaleBackoff),
	} {
		if d < 0 {
			return fmt.Errorf("%s must be >= 0", name)
		}
	}
	switch cfg.Crawl.WaitStrategy {
	case "fixed", "stable":
	case "selector":
		if cfg.Crawl.WaitSelector == "" {
			return fmt.Errorf("crawl.wait_selector is required when crawl.wait_strategy is 'selector'")
		}
		if cfg.Crawl.RenderTimeout <= 0 {
			return fmt.Errorf("crawl.render_timeout must be > 0 for the selector wait strategy")
		}
	default:
		return fmt.Errorf("crawl.wait_strategy must be fixed/stable/selector, got %q", cfg.Crawl.WaitStrategy)
	}
	if cfg.Crawl.ListingURL != "" {
		if err := ValidateURL(cfg.Crawl.ListingURL); err != nil {
			return fmt.Errorf("crawl.listing_url: %w", err)
		}
	}

	if cfg.Pages.LiveBlogPrefix == "" || cfg.Pages.ArticlePrefix == "" {
		return fmt.Errorf("pages.live_blog_prefix and pages.article_prefix must be set")
	}

	if cfg.Selectors.LiveHeaderLimit < 1 {
		return fmt.Errorf("selectors.live_header_limit must be >= 1, got %d", cfg.Selectors.LiveHeaderLimit)
	}
	selectors := map[string]string{
		"selectors.listing_links":      cfg.Selectors.ListingLinks,
		"selectors.popup":              cfg.Selectors.Popup,
		"selectors.article_paragraphs": cfg.Selectors.ArticleParagraphs,
		"selectors.live_headers":       cfg.Selectors.LiveHeaders,
		"selectors.live_posts":         cfg.Selectors.LivePosts,
		"selectors.caption_primary":    cfg.Selectors.CaptionPrimary,
		"selectors.caption_secondary":  cfg.Selectors.CaptionSecondary,
		"selectors.copyright_line":     cfg.Selectors.CopyrightLine,
		"crawl.wait_selector":          cfg.Crawl.WaitSelector,
	}
	for i, expr := range cfg.Selectors.ConsentButtons {
		selectors[fmt.Sprintf("selectors.consent_buttons[%d]", i)] = expr
	}
	for name, expr := range selectors {
		if expr == "" {
			continue
		}
		if err := ValidateSelector(expr); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	validSinks := map[string]bool{
		"json": true, "jsonl": true, "csv": true, "mongo": true,
	}
	sinks := SinkTypes(cfg.Storage.Type)
	if len(sinks) == 0 {
		return fmt.Errorf("storage.type must not be empty")
	}
	for _, s := range sinks {
		if !validSinks[s] {
			return fmt.Errorf("storage.type %q is not supported (valid: csv, json, jsonl, mongo)", s)
		}
		if s == "json" && cfg.Storage.Mode == "append" {
			return fmt.Errorf("storage.mode 'append' is not supported by the json sink")
		}
		if s == "mongo" && cfg.Storage.Mongo.URI == "" {
			return fmt.Errorf("storage.mongo.uri is required for the mongo sink")
		}
	}
	if cfg.Storage.Mode != "overwrite" && cfg.Storage.Mode != "append" {
		return fmt.Errorf("storage.mode must be 'overwrite' or 'append', got %q", cfg.Storage.Mode)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is valid for crawling.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// IsXPath reports whether a selector expression is XPath rather than CSS.
func IsXPath(expr string) bool {
	expr = strings.TrimSpace(expr)
	return strings.HasPrefix(expr, "/") || strings.HasPrefix(expr, "./") || strings.HasPrefix(expr, "(")
}

// ValidateSelector compiles a CSS or XPath expression.
func ValidateSelector(expr string) error {
	if IsXPath(expr) {
		if _, err := xpath.Compile(expr); err != nil {
			return fmt.Errorf("invalid xpath %q: %w", expr, err)
		}
		return nil
	}
	if _, err := cascadia.Compile(expr); err != nil {
		return fmt.Errorf("invalid css selector %q: %w", expr, err)
	}
	return nil
}

// SinkTypes splits a comma separated storage.type value.
func SinkTypes(value string) []string {
	var kinds []string
	for _, t := range strings.Split(value, ",") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			kinds = append(kinds, t)
		}
	}
	return kinds
}
