package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultNamespace = "sdk"
	DefaultSubsystem = "transport"
)

// Recorder receives transport-core events. Implement it to integrate with
// your metrics system, or use the Prometheus implementation below.
type Recorder interface {
	// RecordCall observes one finished logical call with its terminal
	// status ("success" or an error kind) and full multi-attempt duration.
	RecordCall(operation, status string, duration time.Duration)
	// RecordAttempt counts one dispatch attempt and its outcome.
	RecordAttempt(operation, outcome string)
	// RecordRetry counts one scheduled retry with its classification.
	RecordRetry(operation, reason string)
	// RecordPoisoned counts one connection eviction.
	RecordPoisoned(operation string)
}

// NoopRecorder discards all events.
type NoopRecorder struct{}

func NewNoopRecorder() Recorder {
	return &NoopRecorder{}
}

func (*NoopRecorder) RecordCall(operation, status string, duration time.Duration) {}
func (*NoopRecorder) RecordAttempt(operation, outcome string)                     {}
func (*NoopRecorder) RecordRetry(operation, reason string)                        {}
func (*NoopRecorder) RecordPoisoned(operation string)                             {}

// Config defines configuration for Prometheus transport metrics.
type Config struct {
	Namespace string // e.g., "payments_sdk"
	Subsystem string // default: "transport"
	Registry  prometheus.Registerer
}

// PrometheusRecorder records transport events as Prometheus metrics.
type PrometheusRecorder struct {
	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	attempts     *prometheus.CounterVec
	retries      *prometheus.CounterVec
	poisoned     *prometheus.CounterVec
}

// NewPrometheusRecorder creates and registers the transport metric set. A
// nil Registry falls back to the default registerer.
func NewPrometheusRecorder(cfg Config) *PrometheusRecorder {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = DefaultSubsystem
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.DefaultRegisterer
	}

	m := &PrometheusRecorder{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "calls_total",
			Help:      "Finished logical calls by operation and terminal status",
		}, []string{"operation", "status"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "call_duration_seconds",
			Help:      "Full multi-attempt call duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "attempts_total",
			Help:      "Dispatch attempts by operation and outcome",
		}, []string{"operation", "outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "retries_total",
			Help:      "Scheduled retries by operation and classification",
		}, []string{"operation", "reason"}),
		poisoned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "connections_poisoned_total",
			Help:      "Connections evicted from the reuse pool",
		}, []string{"operation"}),
	}

	cfg.Registry.MustRegister(m.calls, m.callDuration, m.attempts, m.retries, m.poisoned)
	return m
}

func (m *PrometheusRecorder) RecordCall(operation, status string, duration time.Duration) {
	m.calls.WithLabelValues(operation, status).Inc()
	m.callDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *PrometheusRecorder) RecordAttempt(operation, outcome string) {
	m.attempts.WithLabelValues(operation, outcome).Inc()
}

func (m *PrometheusRecorder) RecordRetry(operation, reason string) {
	m.retries.WithLabelValues(operation, reason).Inc()
}

func (m *PrometheusRecorder) RecordPoisoned(operation string) {
	m.poisoned.WithLabelValues(operation).Inc()
}
