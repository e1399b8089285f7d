package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics tracks operational metrics for a scrape session.
type Metrics struct {
	// Page metrics
	PagesOpened      atomic.Int64
	PagesFailed      atomic.Int64
	PagesUnsupported atomic.Int64
	PagesSkipped     atomic.Int64
	StaleRetries     atomic.Int64

	// Record metrics
	RecordsExtracted atomic.Int64
	RecordsDropped   atomic.Int64
	RecordsStored    atomic.Int64
	SubArticles      atomic.Int64
	LiveBlogMismatch atomic.Int64

	// Controller metrics
	ActiveWorkers atomic.Int32
	QueueDepth    atomic.Int64

	logger *slog.Logger
	server *http.Server
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		kind  string
		value int64
	}{
		{"newsgoat_pages_opened_total", "Total pages opened", "counter", m.PagesOpened.Load()},
		{"newsgoat_pages_failed_total", "Total pages that failed", "counter", m.PagesFailed.Load()},
		{"newsgoat_pages_unsupported_total", "Total pages matching no known layout", "counter", m.PagesUnsupported.Load()},
		{"newsgoat_pages_skipped_total", "Total video and gallery pages skipped", "counter", m.PagesSkipped.Load()},
		{"newsgoat_stale_retries_total", "Total retries after stale page elements", "counter", m.StaleRetries.Load()},
		{"newsgoat_records_extracted_total", "Total records extracted", "counter", m.RecordsExtracted.Load()},
		{"newsgoat_records_dropped_total", "Total records dropped by the pipeline", "counter", m.RecordsDropped.Load()},
		{"newsgoat_records_stored_total", "Total records written to the sink", "counter", m.RecordsStored.Load()},
		{"newsgoat_sub_articles_total", "Total live-blog posts extracted", "counter", m.SubArticles.Load()},
		{"newsgoat_liveblog_mismatch_total", "Total live blogs with unaligned headers and posts", "counter", m.LiveBlogMismatch.Load()},
		{"newsgoat_active_workers", "Currently active workers", "gauge", int64(m.ActiveWorkers.Load())},
		{"newsgoat_queue_depth", "Current URL queue depth", "gauge", m.QueueDepth.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", metric.name, metric.kind)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server in the background.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Shutdown stops the metrics server if it was started.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"pages_opened":      m.PagesOpened.Load(),
		"pages_failed":      m.PagesFailed.Load(),
		"pages_unsupported": m.PagesUnsupported.Load(),
		"pages_skipped":     m.PagesSkipped.Load(),
		"stale_retries":     m.StaleRetries.Load(),
		"records_extracted": m.RecordsExtracted.Load(),
		"records_dropped":   m.RecordsDropped.Load(),
		"records_stored":    m.RecordsStored.Load(),
		"sub_articles":      m.SubArticles.Load(),
		"liveblog_mismatch": m.LiveBlogMismatch.Load(),
		"active_workers":    int64(m.ActiveWorkers.Load()),
		"queue_depth":       m.QueueDepth.Load(),
	}
}
