package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/newsgoat/internal/config"
	"github.com/IshaanNene/newsgoat/internal/types"
)

// staleMessages are CDP error messages raised when a previously located node
// or its execution context no longer exists.
var staleMessages = map[string]bool{
	cdp.ErrObjNotFound.Message:                           true,
	cdp.ErrCtxDestroyed.Message:                          true,
	cdp.ErrCtxNotFound.Message:                           true,
	"No node with given id found":                        true,
	"Node with given id does not belong to the document": true,
}

// RodBrowser implements Browser using a headless Chromium via Rod.
type RodBrowser struct {
	browser *rod.Browser
	cfg     *config.BrowserConfig
	logger  *slog.Logger
	mu      sync.Mutex
	closed  bool
}

// NewRodBrowser launches Chromium and connects to it.
func NewRodBrowser(cfg *config.Config, logger *slog.Logger) (*RodBrowser, error) {
	rb := &RodBrowser{
		cfg:    &cfg.Browser,
		logger: logger.With("component", "rod_browser"),
	}

	launchURL, err := rb.launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	rb.browser = browser

	rb.logger.Info("browser ready",
		"headless", rb.cfg.Headless,
		"stealth", rb.cfg.Stealth,
	)
	return rb, nil
}

// launch starts a Chromium instance with appropriate flags.
func (rb *RodBrowser) launch() (string, error) {
	l := launcher.New().
		Headless(rb.cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	if rb.cfg.Bin != "" {
		l = l.Bin(rb.cfg.Bin)
	}
	if rb.cfg.UserDataDir != "" {
		l = l.UserDataDir(rb.cfg.UserDataDir)
	}
	if rb.cfg.WindowSize != "" {
		l = l.Set("window-size", rb.cfg.WindowSize)
	}

	return l.Launch()
}

// Open creates a new tab and navigates it to url.
func (rb *RodBrowser) Open(ctx context.Context, url string) (Page, error) {
	rb.mu.Lock()
	closed := rb.closed
	rb.mu.Unlock()
	if closed {
		return nil, types.ErrBrowserClosed
	}

	var (
		page *rod.Page
		err  error
	)
	if rb.cfg.Stealth {
		page, err = stealth.Page(rb.browser)
	} else {
		page, err = rb.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, &types.PageError{URL: url, Op: "open", Err: err}
	}

	if rb.cfg.UserAgent != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: rb.cfg.UserAgent})
		if err != nil {
			rb.logger.Warn("failed to set user agent", "error", err)
		}
	}

	if err := page.Context(ctx).Timeout(rb.cfg.NavigationTimeout).Navigate(url); err != nil {
		_ = page.Close()
		return nil, wrapRodError(url, "navigate", err)
	}

	rb.logger.Debug("tab opened", "url", url)
	return &rodPage{page: page, url: url}, nil
}

// Close shuts down the browser.
func (rb *RodBrowser) Close() error {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.closed || rb.browser == nil {
		return nil
	}
	rb.closed = true
	return rb.browser.Close()
}

type rodPage struct {
	page *rod.Page
	url  string
}

func (p *rodPage) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", wrapRodError(p.url, "info", err)
	}
	return info.URL, nil
}

func (p *rodPage) Title(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", wrapRodError(p.url, "info", err)
	}
	return info.Title, nil
}

func (p *rodPage) Query(ctx context.Context, sel Selector) ([]Element, error) {
	page := p.page.Context(ctx)

	var (
		found rod.Elements
		err   error
	)
	if sel.Kind == XPath {
		found, err = page.ElementsX(sel.Expr)
	} else {
		found, err = page.Elements(sel.Expr)
	}
	if err != nil {
		return nil, wrapRodError(p.url, "query "+sel.Expr, err)
	}

	out := make([]Element, len(found))
	for i, el := range found {
		out[i] = &rodElement{el: el, url: p.url}
	}
	return out, nil
}

func (p *rodPage) Click(ctx context.Context, sel Selector) (bool, error) {
	page := p.page.Context(ctx)

	var (
		has bool
		el  *rod.Element
		err error
	)
	if sel.Kind == XPath {
		has, el, err = page.HasX(sel.Expr)
	} else {
		has, el, err = page.Has(sel.Expr)
	}
	if err != nil {
		return false, wrapRodError(p.url, "find "+sel.Expr, err)
	}
	if !has {
		return false, nil
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, wrapRodError(p.url, "click "+sel.Expr, err)
	}
	return true, nil
}

func (p *rodPage) WaitStable(ctx context.Context, d time.Duration) error {
	if err := p.page.Context(ctx).WaitStable(d); err != nil {
		return wrapRodError(p.url, "wait stable", err)
	}
	return nil
}

func (p *rodPage) Close() error {
	return p.page.Close()
}

type rodElement struct {
	el  *rod.Element
	url string
}

func (e *rodElement) Text() (string, error) {
	text, err := e.el.Text()
	if err != nil {
		return "", wrapRodError(e.url, "text", err)
	}
	return text, nil
}

func (e *rodElement) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", false, wrapRodError(e.url, "attribute "+name, err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// wrapRodError converts a Rod/CDP error into a PageError, flagging the ones
// caused by the rendered tree being replaced mid-query.
func wrapRodError(url, op string, err error) error {
	return &types.PageError{URL: url, Op: op, Err: err, Stale: isStaleRodError(err)}
}

func isStaleRodError(err error) bool {
	if errors.Is(err, &rod.ObjectNotFoundError{}) {
		return true
	}
	var cdpErr *cdp.Error
	if errors.As(err, &cdpErr) {
		return staleMessages[cdpErr.Message]
	}
	return false
}
