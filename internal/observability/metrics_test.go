package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/check-imei", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/api/check-imei", "GET", 200, 10*time.Millisecond)
	m.RecordCheck("valid")
	m.RecordBotMessage("lookup")

	if got := testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/api/check-imei", "200")); got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.checkCount.WithLabelValues("valid")); got != 1 {
		t.Fatalf("expected 1 valid check, got %v", got)
	}
	if got := testutil.ToFloat64(m.botMessageCount.WithLabelValues("lookup")); got != 1 {
		t.Fatalf("expected 1 bot message, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordCheck("valid")
	m.RecordBotMessage("start")
	if m.Handler() == nil {
		t.Fatal("expected a handler")
	}
}
