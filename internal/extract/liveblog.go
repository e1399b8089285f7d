package extract

import (
	"context"
	"log/slog"

	"github.com/IshaanNene/newsgoat/internal/browser"
	"github.com/IshaanNene/newsgoat/internal/config"
	"github.com/IshaanNene/newsgoat/internal/textnorm"
	"github.com/IshaanNene/newsgoat/internal/types"
)

// LiveBlogStats describes one live-blog extraction.
type LiveBlogStats struct {
	Headers int
	Posts   int
	Emitted int
}

// Mismatch reports whether headers and posts failed to line up.
func (s LiveBlogStats) Mismatch() bool {
	return s.Headers != s.Posts
}

// LiveBlog extracts one sub-article record per post of a live stream.
type LiveBlog struct {
	Headers          browser.Selector
	HeaderLimit      int
	Posts            browser.Selector
	CaptionPrimary   browser.Selector
	CaptionSecondary browser.Selector
	Copyright        browser.Selector

	logger *slog.Logger
}

// NewLiveBlog creates a LiveBlog extractor from the selectors config.
func NewLiveBlog(sel config.SelectorsConfig, logger *slog.Logger) *LiveBlog {
	return &LiveBlog{
		Headers:          browser.ParseSelector(sel.LiveHeaders),
		HeaderLimit:      sel.LiveHeaderLimit,
		Posts:            browser.ParseSelector(sel.LivePosts),
		CaptionPrimary:   browser.ParseSelector(sel.CaptionPrimary),
		CaptionSecondary: browser.ParseSelector(sel.CaptionSecondary),
		Copyright:        browser.ParseSelector(sel.CopyrightLine),
		logger:           logger.With("component", "liveblog_extractor"),
	}
}

func (l *LiveBlog) Name() string { return "live_blog" }

func (l *LiveBlog) Extract(ctx context.Context, page browser.Page, target Target) ([]types.ArticleRecord, error) {
	records, _, err := l.ExtractStats(ctx, page, target)
	return records, err
}

// ExtractStats pairs the most recent headers with the post bodies by
// position. When the counts differ nothing is emitted: position is the only
// link between a header and its post, and a shifted pairing would attach
// every title to the wrong text.
func (l *LiveBlog) ExtractStats(ctx context.Context, page browser.Page, target Target) ([]types.ArticleRecord, LiveBlogStats, error) {
	var stats LiveBlogStats

	headers, err := l.query(ctx, page, l.Headers, target)
	if err != nil {
		return nil, stats, err
	}
	if l.HeaderLimit > 0 && len(headers) > l.HeaderLimit {
		headers = headers[len(headers)-l.HeaderLimit:]
	}

	posts, err := l.query(ctx, page, l.Posts, target)
	if err != nil {
		return nil, stats, err
	}
	stats.Headers, stats.Posts = len(headers), len(posts)

	if stats.Mismatch() {
		l.logger.Warn("live blog headers and posts do not line up",
			"url", target.URL,
			"headers", stats.Headers,
			"posts", stats.Posts,
		)
		return nil, stats, nil
	}

	captions, err := l.query(ctx, page, l.CaptionPrimary, target)
	if err != nil {
		return nil, stats, err
	}
	credits, err := l.query(ctx, page, l.CaptionSecondary, target)
	if err != nil {
		return nil, stats, err
	}
	copyrights, err := l.query(ctx, page, l.Copyright, target)
	if err != nil {
		return nil, stats, err
	}

	fragments := textnorm.Fragments(textnorm.PairNoise(captions, credits, copyrights))
	descriptions := textnorm.Normalize(posts, fragments)

	records := make([]types.ArticleRecord, len(headers))
	for i, header := range headers {
		records[i] = types.NewSubArticle(target.URL, textnorm.CollapseSpace(header), descriptions[i])
	}
	stats.Emitted = len(records)

	l.logger.Debug("live blog extracted", "url", target.URL, "posts", stats.Emitted, "noise", len(fragments))
	return records, stats, nil
}

func (l *LiveBlog) query(ctx context.Context, page browser.Page, sel browser.Selector, target Target) ([]string, error) {
	return queryTexts(ctx, page, sel, target, types.KindLiveBlog)
}
