// Package classify decides which extraction strategy applies to a page.
package classify

import (
	"strings"

	"github.com/IshaanNene/newsgoat/internal/config"
	"github.com/IshaanNene/newsgoat/internal/types"
)

// Rules holds the URL and title markers used for classification.
type Rules struct {
	VideoMarker        string
	GalleryTitleMarker string
	GalleryURLMarker   string
	LiveBlogPrefix     string
	ArticlePrefix      string
	TitleSuffix        string
}

// RulesFromConfig builds Rules from the pages config section.
func RulesFromConfig(cfg config.PagesConfig) Rules {
	return Rules{
		VideoMarker:        cfg.VideoMarker,
		GalleryTitleMarker: cfg.GalleryTitleMarker,
		GalleryURLMarker:   cfg.GalleryURLMarker,
		LiveBlogPrefix:     cfg.LiveBlogPrefix,
		ArticlePrefix:      cfg.ArticlePrefix,
		TitleSuffix:        cfg.TitleSuffix,
	}
}

// Classifier maps a URL and rendered title to a page kind.
type Classifier struct {
	rules Rules
}

// New creates a Classifier.
func New(rules Rules) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the kind of the page. The first matching rule wins:
// video, gallery, live blog, standard article, otherwise unsupported.
// Live-blog URLs also carry the article prefix, so the order is load-bearing.
func (c *Classifier) Classify(url, title string) types.PageKind {
	switch {
	case contains(url, c.rules.VideoMarker):
		return types.KindVideo
	case containsFold(title, c.rules.GalleryTitleMarker) || contains(url, c.rules.GalleryURLMarker):
		return types.KindGallery
	case contains(url, c.rules.LiveBlogPrefix):
		return types.KindLiveBlog
	case contains(url, c.rules.ArticlePrefix):
		return types.KindStandardArticle
	default:
		return types.KindUnsupported
	}
}

// ClassifyPage checks the video marker against the URL the browser actually
// landed on, and every other rule against the seed URL.
func (c *Classifier) ClassifyPage(seedURL, currentURL, title string) types.PageKind {
	if contains(currentURL, c.rules.VideoMarker) {
		return types.KindVideo
	}
	return c.Classify(seedURL, title)
}

// TrimTitle cuts a document title at the site suffix ("Headline - BBC News"
// becomes "Headline").
func (c *Classifier) TrimTitle(documentTitle string) string {
	if c.rules.TitleSuffix == "" {
		return strings.TrimSpace(documentTitle)
	}
	before, _, _ := strings.Cut(documentTitle, c.rules.TitleSuffix)
	return strings.TrimSpace(before)
}

// Loggable reports whether a kind belongs in the non-scrapable log.
// Video and gallery pages are recognized and skipped on purpose.
func Loggable(kind types.PageKind) bool {
	return kind == types.KindUnsupported
}

func contains(s, marker string) bool {
	return marker != "" && strings.Contains(s, marker)
}

func containsFold(s, marker string) bool {
	return marker != "" && strings.Contains(strings.ToLower(s), strings.ToLower(marker))
}
