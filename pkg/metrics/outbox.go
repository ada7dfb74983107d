package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics tracks the relay from outbox_events to Pub/Sub.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	failures  *prometheus.CounterVec
	deferred  prometheus.Counter
	lag       prometheus.Histogram
}

// NewOutboxMetrics registers the relay metrics. A nil registerer yields a no-op recorder.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	m := &OutboxMetrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lbn_outbox_published_total",
			Help: "Outbox events published by event type.",
		}, []string{"event_type"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lbn_outbox_publish_failures_total",
			Help: "Outbox publish failures by event type and whether the row was parked.",
		}, []string{"event_type", "terminal"}),
		deferred: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lbn_outbox_deferred_total",
			Help: "Events held back because an earlier event for the same order failed.",
		}),
		lag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lbn_outbox_publish_lag_seconds",
			Help:    "Time between an event being written and published.",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 15, 60, 300},
		}),
	}
	reg.MustRegister(m.published, m.failures, m.deferred, m.lag)
	return m
}

func (m *OutboxMetrics) ObservePublished(eventType string, createdAt time.Time) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(eventType).Inc()
	if !createdAt.IsZero() {
		m.lag.Observe(time.Since(createdAt).Seconds())
	}
}

func (m *OutboxMetrics) ObserveFailure(eventType string, terminal bool) {
	if m == nil || m.failures == nil {
		return
	}
	label := "false"
	if terminal {
		label = "true"
	}
	m.failures.WithLabelValues(eventType, label).Inc()
}

func (m *OutboxMetrics) ObserveDeferred() {
	if m == nil || m.deferred == nil {
		return
	}
	m.deferred.Inc()
}
