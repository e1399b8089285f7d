package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageErrorStaleness(t *testing.T) {
	stale := &PageError{URL: "u", Op: "query", Err: errors.New("Object not found"), Stale: true}
	wrapped := &ExtractError{URL: "u", Kind: KindLiveBlog, Err: fmt.Errorf("headers: %w", stale)}

	assert.True(t, IsStale(stale))
	assert.True(t, IsStale(wrapped))
	assert.False(t, IsStale(&PageError{URL: "u", Op: "navigate", Err: errors.New("timeout")}))
	assert.False(t, IsStale(errors.New("plain")))
	assert.False(t, IsStale(nil))
}

func TestExtractErrorMessage(t *testing.T) {
	err := &ExtractError{URL: "u", Kind: KindStandardArticle, Selector: "//article//p", Err: errors.New("boom")}
	assert.Equal(t, `extract standard_article u (selector="//article//p"): boom`, err.Error())
}

func TestArticleRecordCSVRow(t *testing.T) {
	assert.Equal(t, []string{"False", "u", "t", "d"}, NewArticle("u", "t", "d").CSVRow())
	assert.Equal(t, []string{"True", "u", "t", "d"}, NewSubArticle("u", "t", "d").CSVRow())
	assert.Len(t, CSVHeader, 4)
}

func TestPageKind(t *testing.T) {
	assert.True(t, KindVideo.Terminal())
	assert.True(t, KindGallery.Terminal())
	assert.False(t, KindLiveBlog.Terminal())
	assert.False(t, KindUnsupported.Terminal())
	assert.Equal(t, "live_blog", KindLiveBlog.String())
	assert.Equal(t, "unsupported", PageKind(42).String())
}
