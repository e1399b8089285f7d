// Package browser abstracts the rendering browser the crawler drives.
//
// Two implementations exist: RodBrowser drives a real Chromium through the
// DevTools protocol, StaticBrowser fetches HTML over plain HTTP and answers
// queries against the parsed tree without running JavaScript.
package browser

import (
	"context"
	"time"

	"github.com/IshaanNene/newsgoat/internal/config"
)

// Browser opens isolated browsing contexts (tabs).
type Browser interface {
	// Open creates a new tab, navigates it to url and returns it.
	Open(ctx context.Context, url string) (Page, error)

	// Close releases the browser and every open tab.
	Close() error
}

// Page is one rendered document in its own tab.
type Page interface {
	// URL returns the URL the tab currently shows (after redirects).
	URL(ctx context.Context) (string, error)

	// Title returns the document title.
	Title(ctx context.Context) (string, error)

	// Query returns all elements matching the selector, in document order.
	Query(ctx context.Context, sel Selector) ([]Element, error)

	// Click clicks the first element matching sel without waiting for it.
	// It returns false when nothing matched.
	Click(ctx context.Context, sel Selector) (bool, error)

	// WaitStable blocks until the DOM has not changed for d.
	WaitStable(ctx context.Context, d time.Duration) error

	// Close closes the tab.
	Close() error
}

// Element is a located node of a rendered page.
type Element interface {
	// Text returns the rendered text of the element.
	Text() (string, error)

	// Attribute returns the attribute value and whether it is present.
	Attribute(name string) (string, bool, error)
}

// SelectorKind is the query dialect of a Selector.
type SelectorKind int

const (
	CSS SelectorKind = iota
	XPath
)

// Selector is a DOM query in either CSS or XPath.
type Selector struct {
	Kind SelectorKind
	Expr string
}

// ParseSelector picks the dialect from the expression itself.
func ParseSelector(expr string) Selector {
	if config.IsXPath(expr) {
		return Selector{Kind: XPath, Expr: expr}
	}
	return Selector{Kind: CSS, Expr: expr}
}

func (s Selector) String() string {
	return s.Expr
}

// Texts reads the text of every element.
func Texts(elements []Element) ([]string, error) {
	out := make([]string, len(elements))
	for i, el := range elements {
		text, err := el.Text()
		if err != nil {
			return nil, err
		}
		out[i] = text
	}
	return out, nil
}

// QueryTexts runs a query and returns the text of each match.
func QueryTexts(ctx context.Context, page Page, sel Selector) ([]string, error) {
	elements, err := page.Query(ctx, sel)
	if err != nil {
		return nil, err
	}
	return Texts(elements)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
