package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/newsgoat/internal/browser"
	"github.com/IshaanNene/newsgoat/internal/config"
	"github.com/IshaanNene/newsgoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func selectors() config.SelectorsConfig {
	return config.DefaultConfig().Selectors
}

func staticPage(t *testing.T, url, markup string) *browser.StaticPage {
	t.Helper()
	page, err := browser.NewStaticPageFromString(url, markup)
	require.NoError(t, err)
	return page
}

// liveHTML renders a live page with the given header and post counts. Every
// post carries a figure whose caption and credit must be stripped.
func liveHTML(headers, posts int) string {
	var sb strings.Builder
	sb.WriteString("<html><head><title>Live: storms - BBC News</title></head><body><article>")
	for i := 0; i < headers; i++ {
		fmt.Fprintf(&sb, "<header>Header %d</header>", i)
	}
	for i := 0; i < posts; i++ {
		fmt.Fprintf(&sb, `<div class="lx-stream-post-body"><p>Post %d text.</p>`+
			`<figure><figcaption><span>Caption %d</span><span>Credit %d</span></figcaption></figure></div>`, i, i, i)
	}
	sb.WriteString("</article></body></html>")
	return sb.String()
}

func TestStandardUsesMarkedParagraphs(t *testing.T) {
	page := staticPage(t, "https://www.bbc.com/news/x1", `<html><body><article>
		<p class="ssrcss-1q0x1qg-Paragraph">One.</p>
		<p class="promo">Related stories</p>
		<p class="ssrcss-1q0x1qg-Paragraph">Two
		lines.</p>
		<p class="ssrcss-1q0x1qg-Paragraph">Three.</p>
	</article></body></html>`)

	records, err := NewStandard(selectors()).Extract(context.Background(), page, Target{URL: "https://www.bbc.com/news/x1", Title: "Headline"})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.False(t, rec.IsSubArticle)
	assert.Equal(t, "https://www.bbc.com/news/x1", rec.URL)
	assert.Equal(t, "Headline", rec.Title)
	assert.NotContains(t, rec.Description, "Related stories")
	assert.NotContains(t, rec.Description, "\n")
	assert.True(t, strings.HasPrefix(rec.Description, "One. Two"))
	assert.True(t, strings.HasSuffix(rec.Description, "lines. Three."))
}

func TestStandardFallsBackToAllParagraphs(t *testing.T) {
	page := staticPage(t, "u", `<html><body><article><p>A</p><p class="x">B</p></article></body></html>`)

	records, err := NewStandard(selectors()).Extract(context.Background(), page, Target{URL: "u", Title: "T"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A B", records[0].Description)
}

func TestStandardEmptyArticle(t *testing.T) {
	page := staticPage(t, "u", `<html><body><div>no article</div></body></html>`)

	records, err := NewStandard(selectors()).Extract(context.Background(), page, Target{URL: "u", Title: "T"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].Description)
	assert.Equal(t, "T", records[0].Title)
}

func TestLiveBlogAlignedPairs(t *testing.T) {
	page := staticPage(t, "https://www.bbc.com/news/live/x3", liveHTML(5, 5))

	records, stats, err := NewLiveBlog(selectors(), testLogger).ExtractStats(context.Background(), page, Target{URL: "https://www.bbc.com/news/live/x3"})
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, LiveBlogStats{Headers: 5, Posts: 5, Emitted: 5}, stats)

	for i, rec := range records {
		assert.True(t, rec.IsSubArticle)
		assert.Equal(t, "https://www.bbc.com/news/live/x3", rec.URL)
		assert.Equal(t, fmt.Sprintf("Header %d", i), rec.Title)
		assert.Equal(t, fmt.Sprintf("Post %d text.", i), rec.Description)
	}
}

func TestLiveBlogMismatchEmitsNothing(t *testing.T) {
	page := staticPage(t, "u", liveHTML(5, 4))

	records, stats, err := NewLiveBlog(selectors(), testLogger).ExtractStats(context.Background(), page, Target{URL: "u"})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.True(t, stats.Mismatch())
	assert.Equal(t, 0, stats.Emitted)
}

func TestLiveBlogKeepsLastHeaders(t *testing.T) {
	page := staticPage(t, "u", liveHTML(25, 20))

	records, err := NewLiveBlog(selectors(), testLogger).Extract(context.Background(), page, Target{URL: "u"})
	require.NoError(t, err)
	require.Len(t, records, 20)
	assert.Equal(t, "Header 5", records[0].Title)
	assert.Equal(t, "Header 24", records[19].Title)
}

func TestLiveBlogCreditWithoutCaption(t *testing.T) {
	page := staticPage(t, "u", `<html><body><article>
		<header>H</header>
		<div class="lx-stream-post-body"><p>Body</p><figure><figcaption><span>Getty Images</span></figcaption></figure></div>
	</article></body></html>`)

	records, err := NewLiveBlog(selectors(), testLogger).Extract(context.Background(), page, Target{URL: "u"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Body", records[0].Description)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry(selectors(), testLogger)
	assert.Equal(t, 4, r.Len())

	for _, kind := range []types.PageKind{types.KindVideo, types.KindGallery} {
		ex, err := r.Lookup(kind)
		require.NoError(t, err)
		records, err := ex.Extract(context.Background(), nil, Target{URL: "u"})
		require.NoError(t, err)
		assert.Empty(t, records)
	}

	_, err := r.Lookup(types.KindUnsupported)
	assert.ErrorIs(t, err, types.ErrNoExtractor)
}

// stalePage fails every query as if the DOM had been replaced.
type stalePage struct{}

func (stalePage) URL(context.Context) (string, error) { return "u", nil }
func (stalePage) Title(context.Context) (string, error) { return "", nil }
func (stalePage) Query(context.Context, browser.Selector) ([]browser.Element, error) {
	return nil, &types.PageError{URL: "u", Op: "query", Err: errors.New("object not found"), Stale: true}
}
func (stalePage) Click(context.Context, browser.Selector) (bool, error) { return false, nil }
func (stalePage) WaitStable(context.Context, time.Duration) error { return nil }
func (stalePage) Close() error { return nil }

func TestExtractorsPropagateStaleness(t *testing.T) {
	target := Target{URL: "u", Title: "T"}

	_, err := NewStandard(selectors()).Extract(context.Background(), stalePage{}, target)
	assert.True(t, types.IsStale(err))
	var extractErr *types.ExtractError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, types.KindStandardArticle, extractErr.Kind)

	_, err = NewLiveBlog(selectors(), testLogger).Extract(context.Background(), stalePage{}, target)
	assert.True(t, types.IsStale(err))
}
