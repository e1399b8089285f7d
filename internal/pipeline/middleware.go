package pipeline

import (
	"strings"
	"sync"

	"github.com/IshaanNene/newsgoat/internal/textnorm"
	"github.com/IshaanNene/newsgoat/internal/types"
)

// TrimMiddleware trims the text fields and folds whitespace in the title.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(rec *types.ArticleRecord) (*types.ArticleRecord, error) {
	rec.Title = textnorm.CollapseSpace(rec.Title)
	rec.Description = strings.TrimSpace(rec.Description)
	rec.URL = strings.TrimSpace(rec.URL)
	return rec, nil
}

// RequiredTitleMiddleware drops records without a title.
type RequiredTitleMiddleware struct{}

func (m *RequiredTitleMiddleware) Name() string { return "required_title" }

func (m *RequiredTitleMiddleware) Process(rec *types.ArticleRecord) (*types.ArticleRecord, error) {
	if strings.TrimSpace(rec.Title) == "" {
		return nil, nil
	}
	return rec, nil
}

// UniqueArticleMiddleware drops a second standalone record for a URL.
// Sub-articles share their parent URL and always pass.
type UniqueArticleMiddleware struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewUniqueArticleMiddleware() *UniqueArticleMiddleware {
	return &UniqueArticleMiddleware{
		seen: make(map[string]struct{}),
	}
}

func (m *UniqueArticleMiddleware) Name() string { return "unique_article" }

func (m *UniqueArticleMiddleware) Process(rec *types.ArticleRecord) (*types.ArticleRecord, error) {
	if rec.IsSubArticle {
		return rec, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.seen[rec.URL]; exists {
		return nil, nil
	}
	m.seen[rec.URL] = struct{}{}
	return rec, nil
}
