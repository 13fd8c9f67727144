package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raisedragon/raisedragon/internal/metrics"
)

type recordingCollector struct {
	metrics.NopCollector
	statuses  []int
	latencies int
}

func (c *recordingCollector) RecordHTTPStatus(code int)          { c.statuses = append(c.statuses, code) }
func (c *recordingCollector) RecordRequestLatency(time.Duration) { c.latencies++ }

func TestMetricsMiddleware_RecordsStatusAndLatency(t *testing.T) {
	collector := &recordingCollector{}
	handler := NewMetricsMiddleware(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/goal/x", nil))

	if len(collector.statuses) != 1 || collector.statuses[0] != http.StatusNotFound {
		t.Errorf("statuses = %v, want [404]", collector.statuses)
	}
	if collector.latencies != 1 {
		t.Errorf("latencies = %d, want 1", collector.latencies)
	}
}
