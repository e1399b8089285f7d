package crawler

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/IshaanNene/newsgoat/internal/extract"
	"github.com/IshaanNene/newsgoat/internal/types"
)

// Failure is a URL that could not be extracted.
type Failure struct {
	URL    string
	Reason string
	Err    error
}

// LiveBlogResult is the outcome of one live-blog page.
type LiveBlogResult struct {
	URL string
	extract.LiveBlogStats
}

// Report is the outcome of a crawl session.
type Report struct {
	SessionID string

	// Seeds is the number of distinct URLs after deduplication.
	Seeds      int
	Duplicates int

	Records     []types.ArticleRecord
	Unsupported []string
	Failed      []Failure
	Skipped     []string
	LiveBlogs   []LiveBlogResult

	Dropped      int
	StaleRetries int
	Elapsed      time.Duration
}

// Articles returns the number of standalone article records.
func (r *Report) Articles() int {
	n := 0
	for _, rec := range r.Records {
		if !rec.IsSubArticle {
			n++
		}
	}
	return n
}

// SubArticles returns the number of live-blog post records.
func (r *Report) SubArticles() int {
	return len(r.Records) - r.Articles()
}

// Render writes the session report as tables.
func (r *Report) Render(w io.Writer) {
	summary := table.NewWriter()
	summary.SetOutputMirror(w)
	summary.SetTitle("Session " + r.SessionID)
	summary.AppendRows([]table.Row{
		{"Seed URLs", r.Seeds},
		{"Duplicate seeds", r.Duplicates},
		{"Articles", r.Articles()},
		{"Sub-articles", r.SubArticles()},
		{"Skipped (video/gallery)", len(r.Skipped)},
		{"Unsupported", len(r.Unsupported)},
		{"Failed", len(r.Failed)},
		{"Dropped records", r.Dropped},
		{"Stale retries", r.StaleRetries},
		{"Elapsed", r.Elapsed.Round(time.Millisecond)},
	})
	summary.Render()

	if len(r.LiveBlogs) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle("Live blogs")
		t.AppendHeader(table.Row{"URL", "Headers", "Posts", "Sub-articles"})
		for _, lb := range r.LiveBlogs {
			t.AppendRow(table.Row{lb.URL, lb.Headers, lb.Posts, lb.Emitted})
		}
		t.Render()
	}

	if len(r.Unsupported) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle(fmt.Sprintf("Unsupported URLs (%d)", len(r.Unsupported)))
		for _, u := range r.Unsupported {
			t.AppendRow(table.Row{u})
		}
		t.Render()
	}

	if len(r.Failed) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle(fmt.Sprintf("Failed URLs (%d)", len(r.Failed)))
		t.AppendHeader(table.Row{"URL", "Reason"})
		for _, f := range r.Failed {
			t.AppendRow(table.Row{f.URL, f.Reason})
		}
		t.Render()
	}
}
