package extract

import (
	"context"
	"strings"

	"github.com/IshaanNene/newsgoat/internal/browser"
	"github.com/IshaanNene/newsgoat/internal/config"
	"github.com/IshaanNene/newsgoat/internal/textnorm"
	"github.com/IshaanNene/newsgoat/internal/types"
)

// Standard extracts a single record from a regular news article.
type Standard struct {
	Paragraphs browser.Selector
	Marker     string
}

// NewStandard creates a Standard extractor from the selectors config.
func NewStandard(sel config.SelectorsConfig) *Standard {
	return &Standard{
		Paragraphs: browser.ParseSelector(sel.ArticleParagraphs),
		Marker:     sel.ParagraphMarker,
	}
}

func (s *Standard) Name() string { return "standard" }

// Extract joins the article's body paragraphs into one description.
// Paragraphs whose class carries the marker are preferred; templates that
// omit the marker fall back to every paragraph. No paragraphs at all still
// yields a record, with an empty description.
func (s *Standard) Extract(ctx context.Context, page browser.Page, target Target) ([]types.ArticleRecord, error) {
	elements, err := page.Query(ctx, s.Paragraphs)
	if err != nil {
		return nil, s.wrap(target, err)
	}

	chosen, err := s.filter(elements)
	if err != nil {
		return nil, s.wrap(target, err)
	}

	texts, err := browser.Texts(chosen)
	if err != nil {
		return nil, s.wrap(target, err)
	}

	description := textnorm.StripNewlines(strings.Join(texts, " "))
	return []types.ArticleRecord{types.NewArticle(target.URL, target.Title, description)}, nil
}

func (s *Standard) filter(elements []browser.Element) ([]browser.Element, error) {
	if s.Marker == "" {
		return elements, nil
	}
	marker := strings.ToLower(s.Marker)

	var marked []browser.Element
	for _, el := range elements {
		class, _, err := el.Attribute("class")
		if err != nil {
			return nil, err
		}
		if strings.Contains(strings.ToLower(class), marker) {
			marked = append(marked, el)
		}
	}
	if len(marked) == 0 {
		return elements, nil
	}
	return marked, nil
}

func (s *Standard) wrap(target Target, err error) error {
	return &types.ExtractError{
		URL:      target.URL,
		Kind:     types.KindStandardArticle,
		Selector: s.Paragraphs.Expr,
		Err:      err,
	}
}
