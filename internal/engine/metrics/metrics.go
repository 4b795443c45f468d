package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the policy engine.
type Metrics struct {
	// Overall evaluation latency including compile-cache lookups
	EvaluateLatency prometheus.Histogram

	// Decision outcomes by decision and action
	DecisionOutcome *prometheus.CounterVec

	// Bundle compilation latency (cache misses only)
	CompileLatency prometheus.Histogram

	// Bundle cache lookups by result
	BundleCache *prometheus.CounterVec
}

// New creates a new Metrics instance with all engine metrics registered.
func New() *Metrics {
	return &Metrics{
		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "signet_engine_evaluate_duration_seconds",
			Help:    "Duration of full request evaluation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		DecisionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signet_engine_decisions_total",
			Help: "Total decisions by outcome and action",
		}, []string{"decision", "action"}),

		CompileLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "signet_engine_compile_duration_seconds",
			Help:    "Duration of policy bundle compilation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		BundleCache: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signet_engine_bundle_cache_total",
			Help: "Bundle cache lookups by result",
		}, []string{"result"}),
	}
}

// ObserveEvaluateLatency records a full evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

// IncrementDecision records a decision outcome.
func (m *Metrics) IncrementDecision(decision, action string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(decision, action).Inc()
	}
}

// ObserveCompileLatency records a bundle build duration.
func (m *Metrics) ObserveCompileLatency(d time.Duration) {
	if m != nil {
		m.CompileLatency.Observe(d.Seconds())
	}
}

// IncBundleCacheHit records a bundle served from cache.
func (m *Metrics) IncBundleCacheHit() {
	if m != nil {
		m.BundleCache.WithLabelValues("hit").Inc()
	}
}

// IncBundleCacheMiss records a bundle that had to be built.
func (m *Metrics) IncBundleCacheMiss() {
	if m != nil {
		m.BundleCache.WithLabelValues("miss").Inc()
	}
}
