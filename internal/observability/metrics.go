package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Latency stages recorded in the rolling window.
const (
	StageProviderCall = "provider_call"
	StageRequestTotal = "request_total"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	Sessions         prometheus.Gauge
	ChatRequests     *prometheus.CounterVec
	ProviderErrors   *prometheus.CounterVec
	ProviderLatency  prometheus.Histogram
	AuditWriteErrors prometheus.Counter

	window *latencyWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Sessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Number of sessions currently held by the transcript store.",
		}),
		ChatRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests by outcome.",
		}, []string{"outcome"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Provider errors by provider and failure kind.",
		}, []string{"provider", "kind"}),
		ProviderLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_latency_ms",
			Help:      "Completion provider call latency in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000, 20000},
		}),
		AuditWriteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_write_errors_total",
			Help:      "Best-effort audit log writes that failed.",
		}),
		window: newLatencyWindow(256),
	}
}

// ObserveProviderLatency records a provider call duration in both the
// histogram and the rolling window.
func (m *Metrics) ObserveProviderLatency(d time.Duration) {
	ms := float64(d.Milliseconds())
	m.ProviderLatency.Observe(ms)
	m.window.Observe(StageProviderCall, ms)
}

// ObserveRequestLatency records whole-request duration in the rolling window.
func (m *Metrics) ObserveRequestLatency(d time.Duration) {
	m.window.Observe(StageRequestTotal, float64(d.Milliseconds()))
}

// SnapshotLatency returns percentile stats over the recent window.
func (m *Metrics) SnapshotLatency() LatencySnapshot {
	return m.window.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
