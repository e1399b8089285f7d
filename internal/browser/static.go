package browser

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/newsgoat/internal/config"
	"github.com/IshaanNene/newsgoat/internal/types"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxBodySize caps a single static page download.
const maxBodySize = 10 * 1024 * 1024

// StaticBrowser implements Browser over plain HTTP. Pages are parsed once
// and never change, so queries can not go stale.
type StaticBrowser struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewStaticBrowser creates a StaticBrowser.
func NewStaticBrowser(cfg *config.Config, logger *slog.Logger) *StaticBrowser {
	ua := cfg.Browser.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &StaticBrowser{
		client: &http.Client{
			Timeout: cfg.Browser.NavigationTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DisableCompression:  true, // decompression (including brotli) is handled below
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: ua,
		logger:    logger.With("component", "static_browser"),
	}
}

// Open fetches url and parses it into a StaticPage.
func (b *StaticBrowser) Open(ctx context.Context, url string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &types.PageError{URL: url, Op: "open", Err: fmt.Errorf("%w: %v", types.ErrInvalidURL, err)}
	}
	req.Header.Set("User-Agent", b.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, br")

	start := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &types.PageError{URL: url, Op: "open", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &types.PageError{URL: url, Op: "open", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	body, err := decompressReader(resp)
	if err != nil {
		return nil, &types.PageError{URL: url, Op: "decompress", Err: err}
	}

	page, err := NewStaticPage(resp.Request.URL.String(), io.LimitReader(body, maxBodySize))
	if err != nil {
		return nil, &types.PageError{URL: url, Op: "parse", Err: err}
	}

	b.logger.Debug("page fetched",
		"url", url,
		"final_url", page.url,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return page, nil
}

// Close releases idle connections.
func (b *StaticBrowser) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

// decompressReader wraps the body based on Content-Encoding.
func decompressReader(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

// StaticPage is a parsed, immutable HTML document. CSS queries are answered
// by goquery, XPath queries by htmlquery, both over the same node tree.
type StaticPage struct {
	url  string
	root *html.Node
	doc  *goquery.Document
}

// NewStaticPage parses HTML from r. url is reported as the page URL.
func NewStaticPage(url string, r io.Reader) (*StaticPage, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &StaticPage{
		url:  url,
		root: root,
		doc:  goquery.NewDocumentFromNode(root),
	}, nil
}

// NewStaticPageFromString is a convenience wrapper around NewStaticPage.
func NewStaticPageFromString(url, markup string) (*StaticPage, error) {
	return NewStaticPage(url, strings.NewReader(markup))
}

func (p *StaticPage) URL(context.Context) (string, error) {
	return p.url, nil
}

func (p *StaticPage) Title(context.Context) (string, error) {
	return strings.TrimSpace(p.doc.Find("title").First().Text()), nil
}

func (p *StaticPage) Query(ctx context.Context, sel Selector) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nodes, err := p.nodes(sel)
	if err != nil {
		return nil, &types.PageError{URL: p.url, Op: "query " + sel.Expr, Err: err}
	}
	out := make([]Element, len(nodes))
	for i, n := range nodes {
		out[i] = &staticElement{node: n}
	}
	return out, nil
}

func (p *StaticPage) nodes(sel Selector) ([]*html.Node, error) {
	if sel.Kind == XPath {
		return htmlquery.QueryAll(p.root, sel.Expr)
	}
	matcher, err := cascadia.Compile(sel.Expr)
	if err != nil {
		return nil, err
	}
	return p.doc.FindMatcher(matcher).Nodes, nil
}

// Click reports whether sel matches; static documents have no behaviour to
// trigger, so a match is treated as a successful no-op click.
func (p *StaticPage) Click(ctx context.Context, sel Selector) (bool, error) {
	nodes, err := p.nodes(sel)
	if err != nil {
		return false, &types.PageError{URL: p.url, Op: "find " + sel.Expr, Err: err}
	}
	return len(nodes) > 0, nil
}

func (p *StaticPage) WaitStable(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func (p *StaticPage) Close() error { return nil }

type staticElement struct {
	node *html.Node
}

func (e *staticElement) Text() (string, error) {
	var sb strings.Builder
	renderText(&sb, e.node)
	return strings.TrimSpace(sb.String()), nil
}

func (e *staticElement) Attribute(name string) (string, bool, error) {
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val, true, nil
		}
	}
	return "", false, nil
}

// blockElements end with a line break in rendered text.
var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "footer": true,
	"section": true, "article": true, "figure": true, "figcaption": true,
	"blockquote": true, "ul": true, "ol": true, "tr": true,
}

// renderText approximates innerText: text content without scripts, with
// line breaks after block elements and <br>.
func renderText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		case "br":
			sb.WriteByte('\n')
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(sb, c)
	}
	if n.Type == html.ElementNode && blockElements[n.Data] {
		sb.WriteByte('\n')
	}
}
