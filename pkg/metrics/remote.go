package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Call outcomes recorded by RemoteCallMetrics.
const (
	OutcomeSuccess   = "success"
	OutcomeService   = "service_error"
	OutcomeTransport = "transport_error"
)

// RemoteCallMetrics records latency and outcome of legacy service calls.
type RemoteCallMetrics struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
	skipped  *prometheus.CounterVec
}

// NewRemoteCallMetrics registers the remote call metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewRemoteCallMetrics(reg prometheus.Registerer) *RemoteCallMetrics {
	if reg == nil {
		return &RemoteCallMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "remote_call_duration_seconds",
		Help:    "Duration of legacy service calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "remote_calls_total",
		Help: "Legacy service calls by outcome.",
	}, []string{"endpoint", "outcome"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skipped_records_total",
		Help: "Malformed sub-records dropped during normalization.",
	}, []string{"collection"})
	reg.MustRegister(duration, calls, skipped)
	return &RemoteCallMetrics{
		duration: duration,
		calls:    calls,
		skipped:  skipped,
	}
}

// ObserveCall records the duration and outcome for the named endpoint.
func (m *RemoteCallMetrics) ObserveCall(endpoint, outcome string, duration time.Duration) {
	if m == nil || m.duration == nil || m.calls == nil {
		return
	}
	endpoint = normalizeLabel(endpoint)
	m.duration.WithLabelValues(endpoint).Observe(duration.Seconds())
	m.calls.WithLabelValues(endpoint, normalizeLabel(outcome)).Inc()
}

// AddSkipped counts sub-records dropped from the named collection.
func (m *RemoteCallMetrics) AddSkipped(collection string, n int) {
	if m == nil || m.skipped == nil || n <= 0 {
		return
	}
	m.skipped.WithLabelValues(normalizeLabel(collection)).Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
