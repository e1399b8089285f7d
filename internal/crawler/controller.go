// Package crawler drives a scrape session: it visits every seed URL once,
// classifies the page, runs the matching extractor and hands the records to
// the sink. Pages that go stale mid-extraction are retried in place.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/newsgoat/internal/browser"
	"github.com/IshaanNene/newsgoat/internal/classify"
	"github.com/IshaanNene/newsgoat/internal/config"
	"github.com/IshaanNene/newsgoat/internal/extract"
	"github.com/IshaanNene/newsgoat/internal/observability"
	"github.com/IshaanNene/newsgoat/internal/pipeline"
	"github.com/IshaanNene/newsgoat/internal/storage"
	"github.com/IshaanNene/newsgoat/internal/types"
)

// flushTimeout bounds the final sink flush, which runs even after the
// session context is cancelled.
const flushTimeout = 30 * time.Second

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithSessionID sets the session id used in logs and stored documents.
func WithSessionID(id string) Option {
	return func(c *Controller) { c.sessionID = id }
}

// WithPipeline sets the record pipeline.
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(c *Controller) { c.pipeline = p }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithWaiter overrides the render waiter chosen by crawl.wait_strategy.
func WithWaiter(w browser.Waiter) Option {
	return func(c *Controller) { c.waiter = w }
}

// Controller runs one crawl session at a time.
type Controller struct {
	cfg        *config.Config
	browser    browser.Browser
	classifier *classify.Classifier
	registry   *extract.Registry
	sink       storage.Sink
	pipeline   *pipeline.Pipeline
	waiter     browser.Waiter
	metrics    *observability.Metrics
	logger     *slog.Logger
	sessionID  string
	popup      browser.Selector

	// per-session state, reset by Run
	mu         sync.Mutex
	report     *Report
	firstVisit *sync.Once
	fatal      error
	cancel     context.CancelFunc
}

// New creates a Controller.
func New(cfg *config.Config, b browser.Browser, classifier *classify.Classifier, registry *extract.Registry, sink storage.Sink, opts ...Option) *Controller {
	c := &Controller{
		cfg:        cfg,
		browser:    b,
		classifier: classifier,
		registry:   registry,
		sink:       sink,
		logger:     slog.Default(),
		popup:      browser.ParseSelector(cfg.Selectors.Popup),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	c.logger = c.logger.With("component", "crawler", "session", c.sessionID)
	if c.pipeline == nil {
		c.pipeline = pipeline.Default(c.logger)
	}
	if c.metrics == nil {
		c.metrics = observability.NewMetrics(c.logger)
	}
	if c.waiter == nil {
		w, err := browser.NewWaiter(cfg.Crawl)
		if err != nil {
			c.logger.Warn("invalid wait strategy, using fixed wait", "error", err)
			w = browser.FixedWait{Delay: cfg.Crawl.RenderWait}
		}
		c.waiter = w
	}
	return c
}

// SessionID returns the id of the controller's session.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Run visits every seed URL and returns the session report. Cancelling ctx
// stops the workers between URLs; the records gathered so far stay in the
// report and the sink, and Run returns the report with ctx's error. A sink
// write failure stops the session and is returned as *types.StorageError.
func (c *Controller) Run(ctx context.Context, seeds []string) (*Report, error) {
	start := time.Now()

	dedup := NewDeduplicator(len(seeds))
	unique := dedup.Unique(seeds)
	if len(unique) == 0 {
		return nil, types.ErrNoSeeds
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.report = &Report{
		SessionID:  c.sessionID,
		Seeds:      len(unique),
		Duplicates: len(seeds) - len(unique),
	}
	c.firstVisit = &sync.Once{}
	c.fatal = nil
	c.cancel = cancel
	c.mu.Unlock()

	queue := NewWorkQueue()
	for i, u := range unique {
		queue.Push(&Task{URL: u, Position: i})
	}
	c.metrics.QueueDepth.Store(int64(queue.Len()))

	workers := max(c.cfg.Crawl.Concurrency, 1)
	c.logger.Info("session starting",
		"seeds", len(unique),
		"duplicates", len(seeds)-len(unique),
		"workers", workers,
		"sink", c.sink.Name(),
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.worker(ctx, id, queue)
		}(i)
	}
	wg.Wait()

	flushCtx, flushCancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer flushCancel()
	flushErr := c.sink.Flush(flushCtx)

	c.mu.Lock()
	report := c.report
	report.Elapsed = time.Since(start)
	fatal := c.fatal
	c.mu.Unlock()

	c.logger.Info("session finished",
		"records", len(report.Records),
		"unsupported", len(report.Unsupported),
		"failed", len(report.Failed),
		"stale_retries", report.StaleRetries,
		"elapsed", report.Elapsed,
	)

	switch {
	case fatal != nil:
		return report, fatal
	case flushErr != nil:
		return report, asStorageError(c.sink.Name(), flushErr)
	default:
		return report, context.Cause(ctx)
	}
}

func (c *Controller) worker(ctx context.Context, id int, queue *WorkQueue) {
	logger := c.logger.With("worker_id", id)

	for {
		task, ok := queue.Pop(ctx)
		if !ok {
			return
		}
		c.metrics.QueueDepth.Store(int64(queue.Len()))
		c.metrics.ActiveWorkers.Add(1)
		c.handle(ctx, logger, queue, task)
		c.metrics.ActiveWorkers.Add(-1)
	}
}

// handle visits one task and routes its outcome.
func (c *Controller) handle(ctx context.Context, logger *slog.Logger, queue *WorkQueue, task *Task) {
	logger = logger.With("url", task.URL)
	err := c.visit(ctx, logger, task)

	var storageErr *types.StorageError
	switch {
	case err == nil:
		queue.Done(task)

	case errors.As(err, &storageErr):
		logger.Error("sink write failed, stopping session", "error", err)
		c.stop(storageErr)
		queue.Done(task)

	case ctx.Err() != nil:
		logger.Debug("visit interrupted", "error", err)
		queue.Done(task)

	case types.IsStale(err):
		task.StaleRetries++
		c.metrics.StaleRetries.Add(1)
		c.mu.Lock()
		c.report.StaleRetries++
		c.mu.Unlock()

		if limit := c.cfg.Crawl.MaxStaleRetries; limit > 0 && task.StaleRetries > limit {
			logger.Warn("giving up on stale page", "attempts", task.StaleRetries, "error", err)
			c.fail(task.URL, fmt.Errorf("%w: %w", types.ErrRetriesExhausted, err))
			queue.Done(task)
			return
		}

		logger.Warn("page went stale, retrying", "attempt", task.StaleRetries, "backoff", c.cfg.Crawl.StaleBackoff)
		if err := browser.Sleep(ctx, c.cfg.Crawl.StaleBackoff); err != nil {
			queue.Done(task)
			return
		}
		queue.Requeue(task)

	default:
		logger.Error("visit failed", "error", err)
		c.fail(task.URL, err)
		queue.Done(task)
	}
}

// visit opens the URL in its own tab, extracts it and closes the tab.
func (c *Controller) visit(ctx context.Context, logger *slog.Logger, task *Task) (err error) {
	page, err := c.browser.Open(ctx, task.URL)
	if err != nil {
		return err
	}
	c.metrics.PagesOpened.Add(1)

	defer func() {
		if types.IsStale(err) {
			c.dismissPopup(ctx, logger, page)
		}
		if cerr := page.Close(); cerr != nil {
			logger.Debug("page close failed", "error", cerr)
		}
	}()

	if err := c.waiter.Wait(ctx, page); err != nil {
		return err
	}

	var firstErr error
	c.firstVisit.Do(func() {
		logger.Debug("first visit, waiting for overlays", "wait", c.cfg.Crawl.FirstVisitWait)
		if firstErr = browser.Sleep(ctx, c.cfg.Crawl.FirstVisitWait); firstErr == nil {
			c.dismissPopup(ctx, logger, page)
		}
	})
	if firstErr != nil {
		return firstErr
	}

	current, err := page.URL(ctx)
	if err != nil {
		return err
	}
	title, err := page.Title(ctx)
	if err != nil {
		return err
	}

	kind := c.classifier.ClassifyPage(task.URL, current, title)
	logger = logger.With("kind", kind)

	if classify.Loggable(kind) {
		logger.Info("unsupported page")
		c.metrics.PagesUnsupported.Add(1)
		c.mu.Lock()
		c.report.Unsupported = append(c.report.Unsupported, task.URL)
		c.mu.Unlock()
		return nil
	}

	ex, err := c.registry.Lookup(kind)
	if err != nil {
		return err
	}

	target := extract.Target{URL: task.URL, Title: c.classifier.TrimTitle(title)}

	var records []types.ArticleRecord
	if lb, ok := ex.(*extract.LiveBlog); ok {
		var stats extract.LiveBlogStats
		records, stats, err = lb.ExtractStats(ctx, page, target)
		if err != nil {
			return err
		}
		if stats.Mismatch() {
			c.metrics.LiveBlogMismatch.Add(1)
		}
		logger.Info("live blog extracted", "sub_articles", stats.Emitted)
		c.mu.Lock()
		c.report.LiveBlogs = append(c.report.LiveBlogs, LiveBlogResult{URL: task.URL, LiveBlogStats: stats})
		c.mu.Unlock()
	} else {
		records, err = ex.Extract(ctx, page, target)
		if err != nil {
			return err
		}
	}

	if kind.Terminal() {
		logger.Info("page skipped")
		c.metrics.PagesSkipped.Add(1)
		c.mu.Lock()
		c.report.Skipped = append(c.report.Skipped, task.URL)
		c.mu.Unlock()
		return nil
	}

	return c.emit(logger, records)
}

// emit runs records through the pipeline and appends the survivors to the
// report and the sink as one batch.
func (c *Controller) emit(logger *slog.Logger, records []types.ArticleRecord) error {
	c.metrics.RecordsExtracted.Add(int64(len(records)))

	kept, dropped, err := c.pipeline.ProcessAll(records)
	if err != nil {
		return err
	}
	c.metrics.RecordsDropped.Add(int64(dropped))

	c.mu.Lock()
	defer c.mu.Unlock()

	c.report.Dropped += dropped
	if len(kept) == 0 {
		return nil
	}
	if err := c.sink.Append(kept); err != nil {
		return asStorageError(c.sink.Name(), err)
	}
	c.report.Records = append(c.report.Records, kept...)

	c.metrics.RecordsStored.Add(int64(len(kept)))
	for _, rec := range kept {
		if rec.IsSubArticle {
			c.metrics.SubArticles.Add(1)
		}
	}
	logger.Debug("records stored", "count", len(kept), "dropped", dropped)
	return nil
}

// dismissPopup closes the overlay if it is showing. It never fails.
func (c *Controller) dismissPopup(ctx context.Context, logger *slog.Logger, page browser.Page) {
	if c.popup.Expr == "" {
		return
	}
	clicked, err := page.Click(ctx, c.popup)
	switch {
	case err != nil:
		logger.Debug("popup dismissal failed", "error", err)
	case clicked:
		logger.Debug("popup dismissed")
	}
}

func (c *Controller) fail(url string, err error) {
	c.metrics.PagesFailed.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Failed = append(c.report.Failed, Failure{URL: url, Reason: err.Error(), Err: err})
}

// stop records the first fatal error and cancels the session.
func (c *Controller) stop(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fatal == nil {
		c.fatal = err
	}
	c.cancel()
}

func asStorageError(backend string, err error) error {
	var se *types.StorageError
	if errors.As(err, &se) {
		return se
	}
	return &types.StorageError{Backend: backend, Err: err}
}
