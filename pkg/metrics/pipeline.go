package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records order pipeline activity.
type PipelineMetrics struct {
	ordersPlaced      *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	outboxPublished   prometheus.Counter
	outboxFailed      prometheus.Counter
	checkoutDuration  prometheus.Histogram
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	ordersPlaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders accepted by checkout.",
	}, []string{"payment_method"})
	statusTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions applied.",
	}, []string{"to"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_dispatched_total",
		Help: "Notification dispatch attempts by outcome.",
	}, []string{"channel", "outcome"})
	outboxPublished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events successfully published.",
	})
	outboxFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_events_failed_total",
		Help: "Outbox publish attempts that failed.",
	})
	checkoutDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of order placement in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(ordersPlaced, statusTransitions, notifications, outboxPublished, outboxFailed, checkoutDuration)
	return &PipelineMetrics{
		ordersPlaced:      ordersPlaced,
		statusTransitions: statusTransitions,
		notifications:     notifications,
		outboxPublished:   outboxPublished,
		outboxFailed:      outboxFailed,
		checkoutDuration:  checkoutDuration,
	}
}

// IncOrderPlaced counts a placed order by payment method.
func (m *PipelineMetrics) IncOrderPlaced(paymentMethod string) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncStatusTransition counts a transition into the given status.
func (m *PipelineMetrics) IncStatusTransition(to string) {
	if m == nil || m.statusTransitions == nil {
		return
	}
	m.statusTransitions.WithLabelValues(normalizeLabel(to)).Inc()
}

// IncNotification counts a dispatch attempt for the channel and outcome.
func (m *PipelineMetrics) IncNotification(channel, outcome string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(channel), normalizeLabel(outcome)).Inc()
}

// IncOutboxPublished counts a successfully published outbox event.
func (m *PipelineMetrics) IncOutboxPublished() {
	if m == nil || m.outboxPublished == nil {
		return
	}
	m.outboxPublished.Inc()
}

// IncOutboxFailed counts a failed outbox publish attempt.
func (m *PipelineMetrics) IncOutboxFailed() {
	if m == nil || m.outboxFailed == nil {
		return
	}
	m.outboxFailed.Inc()
}

// ObserveCheckoutDuration records how long order placement took.
func (m *PipelineMetrics) ObserveCheckoutDuration(d time.Duration) {
	if m == nil || m.checkoutDuration == nil {
		return
	}
	m.checkoutDuration.Observe(d.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
