package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/IshaanNene/newsgoat/internal/config"
	"github.com/IshaanNene/newsgoat/internal/types"
)

func newTestClassifier() *Classifier {
	return New(RulesFromConfig(config.DefaultConfig().Pages))
}

func TestClassify(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name  string
		url   string
		title string
		want  types.PageKind
	}{
		{"video", "https://www.bbc.com/news/av/world-123", "Watch", types.KindVideo},
		{"gallery by title", "https://www.bbc.com/news/world-1", "In pictures: Snow day", types.KindGallery},
		{"gallery by url", "https://www.bbc.com/news/in-pictures-1", "Snow", types.KindGallery},
		{"live blog", "https://www.bbc.com/news/live/world-2", "Live: Summit", types.KindLiveBlog},
		{"standard", "https://www.bbc.com/news/uk-3", "Budget", types.KindStandardArticle},
		{"sport", "https://www.bbc.com/sport/football/4", "Match report", types.KindUnsupported},
		{"empty", "", "", types.KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.url, tt.title))
		})
	}
}

func TestClassifyPrecedence(t *testing.T) {
	c := newTestClassifier()

	// video beats live blog
	assert.Equal(t, types.KindVideo, c.Classify("https://www.bbc.com/news/live/av/x", ""))
	// gallery beats live blog
	assert.Equal(t, types.KindGallery, c.Classify("https://www.bbc.com/news/live/x", "In Pictures: the day"))
	// live blog beats standard even though both prefixes match
	assert.Equal(t, types.KindLiveBlog, c.Classify("https://www.bbc.com/news/live/x", "Live"))
}

func TestClassifyTotal(t *testing.T) {
	c := newTestClassifier()
	inputs := []string{"", " ", "\x00", "://", "bbc.com/news/", "BBC.COM/NEWS/X", "日本語", "/av/"}

	valid := map[types.PageKind]bool{
		types.KindVideo: true, types.KindGallery: true, types.KindLiveBlog: true,
		types.KindStandardArticle: true, types.KindUnsupported: true,
	}
	for _, u := range inputs {
		for _, title := range inputs {
			assert.NotPanics(t, func() {
				assert.True(t, valid[c.Classify(u, title)])
			})
		}
	}
}

func TestClassifyPageUsesCurrentURLForVideo(t *testing.T) {
	c := newTestClassifier()

	kind := c.ClassifyPage("https://www.bbc.com/news/uk-1", "https://www.bbc.com/news/av/uk-1", "Clip")
	assert.Equal(t, types.KindVideo, kind)

	kind = c.ClassifyPage("https://www.bbc.com/news/uk-1", "https://www.bbc.com/news/uk-1", "Story")
	assert.Equal(t, types.KindStandardArticle, kind)
}

func TestTrimTitle(t *testing.T) {
	c := newTestClassifier()
	assert.Equal(t, "Budget 2024: What it means", c.TrimTitle("Budget 2024: What it means - BBC News"))
	assert.Equal(t, "No suffix", c.TrimTitle("No suffix"))
	assert.Equal(t, "", c.TrimTitle(" - BBC Sport"))
}

func TestLoggable(t *testing.T) {
	assert.True(t, Loggable(types.KindUnsupported))
	assert.False(t, Loggable(types.KindVideo))
	assert.False(t, Loggable(types.KindGallery))
	assert.False(t, Loggable(types.KindLiveBlog))
}
