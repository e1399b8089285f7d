package types

import (
	"strings"
)

// CSVHeader is the column order of the tabular dataset.
var CSVHeader = []string{"sub_article", "url", "title", "description"}

// ArticleRecord is one scraped unit: a standalone article or a single post
// inside a live-blog stream.
type ArticleRecord struct {
	// URL is the seed URL of the article or the live-blog root.
	URL string `json:"url" bson:"url"`

	// Title is the headline text.
	Title string `json:"title" bson:"title"`

	// Description is the body text with captions and newlines removed.
	Description string `json:"description" bson:"description"`

	// IsSubArticle is true for posts within a live-blog stream.
	IsSubArticle bool `json:"sub_article" bson:"sub_article"`
}

// NewArticle creates a standalone article record.
func NewArticle(url, title, description string) ArticleRecord {
	return ArticleRecord{URL: url, Title: title, Description: description}
}

// NewSubArticle creates a live-blog post record.
func NewSubArticle(url, title, description string) ArticleRecord {
	return ArticleRecord{URL: url, Title: title, Description: description, IsSubArticle: true}
}

// CSVRow returns the record in CSVHeader column order. Booleans are written
// as True/False so appended files stay compatible with existing datasets.
func (r ArticleRecord) CSVRow() []string {
	sub := "False"
	if r.IsSubArticle {
		sub = "True"
	}
	return []string{sub, r.URL, r.Title, r.Description}
}

// IsEmpty returns true if the record carries no text at all.
func (r ArticleRecord) IsEmpty() bool {
	return strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.Description) == ""
}
