package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Initiation modes recorded on lbn_payment_initiations_total.
const (
	ModeLive     = "live"
	ModeManual   = "manual"
	ModeFallback = "fallback"
)

// PaymentMetrics tracks initiation, reconciliation and callback traffic.
type PaymentMetrics struct {
	initiations     *prometheus.CounterVec
	initiateLatency *prometheus.HistogramVec
	transitions     *prometheus.CounterVec
	callbacks       *prometheus.CounterVec
	expired         prometheus.Counter
}

// NewPaymentMetrics registers the payment metrics. A nil registerer yields a no-op recorder.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	m := &PaymentMetrics{
		initiations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lbn_payment_initiations_total",
			Help: "Payment initiations by channel and mode.",
		}, []string{"channel", "mode"}),
		initiateLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lbn_payment_initiate_duration_seconds",
			Help:    "Latency of channel initiate calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"channel"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lbn_payment_transitions_total",
			Help: "Applied payment status transitions.",
		}, []string{"channel", "status"}),
		callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lbn_payment_callbacks_total",
			Help: "Provider callbacks by channel, result and signature verification.",
		}, []string{"channel", "result", "verified"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lbn_payment_expired_total",
			Help: "Pending payments expired by the stale payment job.",
		}),
	}
	reg.MustRegister(m.initiations, m.initiateLatency, m.transitions, m.callbacks, m.expired)
	return m
}

func (m *PaymentMetrics) ObserveInitiation(channel, mode string, took time.Duration) {
	if m == nil || m.initiations == nil {
		return
	}
	m.initiations.WithLabelValues(normalizeLabel(channel), normalizeLabel(mode)).Inc()
	m.initiateLatency.WithLabelValues(normalizeLabel(channel)).Observe(took.Seconds())
}

func (m *PaymentMetrics) IncTransition(channel, status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(channel), normalizeLabel(status)).Inc()
}

// IncCallback counts a callback delivery; result is applied, noop, duplicate or rejected.
func (m *PaymentMetrics) IncCallback(channel, result string, verified bool) {
	if m == nil || m.callbacks == nil {
		return
	}
	m.callbacks.WithLabelValues(normalizeLabel(channel), normalizeLabel(result), strconv.FormatBool(verified)).Inc()
}

func (m *PaymentMetrics) AddExpired(n int) {
	if m == nil || m.expired == nil || n <= 0 {
		return
	}
	m.expired.Add(float64(n))
}
