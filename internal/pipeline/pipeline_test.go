package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/IshaanNene/newsgoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestPipelineBasic(t *testing.T) {
	p := New(testLogger)
	p.Use(&TrimMiddleware{})

	rec := types.NewArticle(" https://www.bbc.com/news/x ", "  Storm \n hits   coast ", "  body  ")

	result, err := p.Process(&rec)
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if result.Title != "Storm hits coast" {
		t.Errorf("expected collapsed title, got %q", result.Title)
	}
	if result.Description != "body" {
		t.Errorf("expected trimmed description, got %q", result.Description)
	}
	if result.URL != "https://www.bbc.com/news/x" {
		t.Errorf("expected trimmed url, got %q", result.URL)
	}
}

func TestRequiredTitleMiddleware(t *testing.T) {
	m := &RequiredTitleMiddleware{}

	ok := types.NewArticle("u", "Hello", "")
	if result, err := m.Process(&ok); err != nil || result == nil {
		t.Error("record with title should pass")
	}

	blank := types.NewSubArticle("u", "   ", "body")
	if result, _ := m.Process(&blank); result != nil {
		t.Error("record without title should be dropped (nil)")
	}
}

func TestUniqueArticleMiddleware(t *testing.T) {
	m := NewUniqueArticleMiddleware()

	first := types.NewArticle("u1", "A", "")
	second := types.NewArticle("u1", "A again", "")
	other := types.NewArticle("u2", "B", "")

	if r, _ := m.Process(&first); r == nil {
		t.Error("first article should pass")
	}
	if r, _ := m.Process(&second); r != nil {
		t.Error("second standalone record for u1 should be dropped")
	}
	if r, _ := m.Process(&other); r == nil {
		t.Error("article for another url should pass")
	}

	for i := 0; i < 3; i++ {
		sub := types.NewSubArticle("live", "post", "")
		if r, _ := m.Process(&sub); r == nil {
			t.Errorf("sub-article %d should pass", i)
		}
	}
}

func TestProcessAllKeepsOrder(t *testing.T) {
	p := Default(testLogger)
	if p.Len() != 3 {
		t.Fatalf("expected 3 middleware, got %d", p.Len())
	}

	in := []types.ArticleRecord{
		types.NewSubArticle("live", "one", "a"),
		types.NewSubArticle("live", "", "dropped"),
		types.NewSubArticle("live", "two", "b"),
		types.NewSubArticle("live", "three", "c"),
	}

	out, dropped, err := p.ProcessAll(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", dropped)
	}
	want := []string{"one", "two", "three"}
	if len(out) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(out))
	}
	for i, title := range want {
		if out[i].Title != title {
			t.Errorf("record %d: expected %q, got %q", i, title, out[i].Title)
		}
	}
}

type failingMiddleware struct{}

func (failingMiddleware) Name() string { return "failing" }

func (failingMiddleware) Process(*types.ArticleRecord) (*types.ArticleRecord, error) {
	return nil, errors.New("boom")
}

func TestPipelineErrorNamesStage(t *testing.T) {
	p := New(testLogger)
	p.Use(failingMiddleware{})

	rec := types.NewArticle("u", "t", "")
	_, err := p.Process(&rec)

	var pe *types.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if pe.Stage != "failing" {
		t.Errorf("expected stage 'failing', got %q", pe.Stage)
	}
}
