// Package metrics exposes checkout counters and latency histograms on
// the default prometheus registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	AttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "attempts_total",
			Help:      "Checkout attempts by final outcome",
		},
		[]string{"outcome"},
	)

	AttemptDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "checkout",
			Name:      "attempt_duration_seconds",
			Help:      "Duration from startPayment to a terminal status",
			// The widget wait is user-paced, so buckets stretch well
			// past typical request latencies.
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	OpenSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "checkout",
			Name:      "open_sessions",
			Help:      "Checkout sessions currently open",
		},
	)
)

func init() {
	prometheus.MustRegister(AttemptsTotal, AttemptDuration, OpenSessions)
}

// Outcome labels for AttemptsTotal.
const (
	OutcomeStarted   = "started"
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// RecordOutcome increments the attempt counter for the given outcome.
func RecordOutcome(outcome string) {
	AttemptsTotal.WithLabelValues(outcome).Inc()
}

// ObserveAttemptDuration records the wall time of a finished attempt.
func ObserveAttemptDuration(seconds float64) {
	AttemptDuration.Observe(seconds)
}
