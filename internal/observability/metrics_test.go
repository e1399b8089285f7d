package observability

import (
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics(testLogger)
	m.PagesOpened.Add(3)
	m.StaleRetries.Add(1)
	m.QueueDepth.Store(7)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, body, "newsgoat_pages_opened_total 3\n")
	assert.Contains(t, body, "newsgoat_stale_retries_total 1\n")
	assert.Contains(t, body, "# TYPE newsgoat_queue_depth gauge\n")
	assert.Contains(t, body, "newsgoat_queue_depth 7\n")
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics(testLogger)
	m.RecordsStored.Add(5)
	m.SubArticles.Add(2)

	snap := m.Snapshot()
	assert.Equal(t, int64(5), snap["records_stored"])
	assert.Equal(t, int64(2), snap["sub_articles"])
	assert.Equal(t, int64(0), snap["pages_failed"])
}
