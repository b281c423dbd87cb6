package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors for the API and the bot. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	checkCount      *prometheus.CounterVec
	botMessageCount *prometheus.CounterVec
}

// NewMetrics registers collectors on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "imei_http_requests_total",
			Help: "HTTP requests handled, by route and status.",
		}, []string{"method", "path", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "imei_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		checkCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "imei_checks_total",
			Help: "IMEI checks by outcome.",
		}, []string{"outcome"}),
		botMessageCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "imei_bot_messages_total",
			Help: "Chat messages handled by the bot, by kind.",
		}, []string{"kind"}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCheck counts an IMEI check outcome (valid, invalid, upstream_error).
func (m *Metrics) RecordCheck(outcome string) {
	if m == nil {
		return
	}
	m.checkCount.WithLabelValues(outcome).Inc()
}

// RecordBotMessage counts a handled chat message by kind.
func (m *Metrics) RecordBotMessage(kind string) {
	if m == nil {
		return
	}
	m.botMessageCount.WithLabelValues(kind).Inc()
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
