package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the review module.
type Metrics struct {
	// Decision outcomes by outcome and result ("ok", "denied", "conflict",
	// "not_found", "error")
	DecisionsTotal *prometheus.CounterVec

	// Notification delivery attempts by outcome
	NotificationsTotal *prometheus.CounterVec

	// End-to-end decision latency including the notification attempt
	DecisionLatency prometheus.Histogram

	// Status mismatches repaired by the reconciler
	RepairsTotal prometheus.Counter
}

// New creates a Metrics instance with all review module metrics registered.
func New() *Metrics {
	return &Metrics{
		DecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clearport_review_decisions_total",
			Help: "Total review decisions by outcome and result",
		}, []string{"outcome", "result"}),

		NotificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clearport_review_notifications_total",
			Help: "Total decision notification attempts by delivery outcome",
		}, []string{"status"}), // status: "sent", "failed", "skipped"

		DecisionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "clearport_review_decision_duration_seconds",
			Help:    "Duration of a full review decision including notification",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		RepairsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearport_review_status_repairs_total",
			Help: "Total member statuses repaired by the reconciler",
		}),
	}
}

// IncrementDecision records a decision attempt result.
func (m *Metrics) IncrementDecision(outcome, result string) {
	if m != nil {
		m.DecisionsTotal.WithLabelValues(outcome, result).Inc()
	}
}

// IncrementNotification records a notification delivery outcome.
func (m *Metrics) IncrementNotification(status string) {
	if m != nil {
		m.NotificationsTotal.WithLabelValues(status).Inc()
	}
}

// ObserveDecisionLatency records the total decision duration.
func (m *Metrics) ObserveDecisionLatency(d time.Duration) {
	if m != nil {
		m.DecisionLatency.Observe(d.Seconds())
	}
}

// IncrementRepairs records a reconciler repair.
func (m *Metrics) IncrementRepairs() {
	if m != nil {
		m.RepairsTotal.Inc()
	}
}
