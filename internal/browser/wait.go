package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/IshaanNene/newsgoat/internal/config"
)

// selectorPollInterval is how often SelectorWait re-checks the page.
const selectorPollInterval = 250 * time.Millisecond

// Waiter blocks until a freshly opened page has rendered enough to query.
type Waiter interface {
	Wait(ctx context.Context, page Page) error
}

// FixedWait sleeps for a fixed duration.
type FixedWait struct {
	Delay time.Duration
}

func (w FixedWait) Wait(ctx context.Context, _ Page) error {
	return Sleep(ctx, w.Delay)
}

// StableWait waits until the DOM stops changing, bounded by Timeout.
type StableWait struct {
	Quiet   time.Duration
	Timeout time.Duration
}

func (w StableWait) Wait(ctx context.Context, page Page) error {
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}
	return page.WaitStable(ctx, w.Quiet)
}

// SelectorWait polls until Selector matches at least one element or Timeout
// passes. Timing out is not an error: extraction proceeds against whatever
// the page has rendered.
type SelectorWait struct {
	Selector Selector
	Timeout  time.Duration
}

func (w SelectorWait) Wait(ctx context.Context, page Page) error {
	deadline := time.Now().Add(w.Timeout)
	for {
		elements, err := page.Query(ctx, w.Selector)
		if err != nil {
			return err
		}
		if len(elements) > 0 || !time.Now().Before(deadline) {
			return nil
		}
		if err := Sleep(ctx, selectorPollInterval); err != nil {
			return err
		}
	}
}

// NewWaiter builds the Waiter selected by crawl.wait_strategy.
func NewWaiter(cfg config.CrawlConfig) (Waiter, error) {
	switch cfg.WaitStrategy {
	case "", "fixed":
		return FixedWait{Delay: cfg.RenderWait}, nil
	case "stable":
		return StableWait{Quiet: cfg.RenderWait, Timeout: cfg.RenderTimeout}, nil
	case "selector":
		if cfg.WaitSelector == "" {
			return nil, fmt.Errorf("wait strategy %q requires crawl.wait_selector", cfg.WaitStrategy)
		}
		return SelectorWait{Selector: ParseSelector(cfg.WaitSelector), Timeout: cfg.RenderTimeout}, nil
	default:
		return nil, fmt.Errorf("unknown wait strategy %q", cfg.WaitStrategy)
	}
}
