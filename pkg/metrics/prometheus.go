package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	quoteRefreshes  *prometheus.CounterVec
	alertsTriggered *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	lastPrice       *prometheus.GaugeVec
	connectedUsers  prometheus.Gauge
	pendingQueue    prometheus.Gauge
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		quoteRefreshes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockwatch_quote_refreshes_total",
				Help: "Total quote fetches by outcome",
			},
			[]string{"result"},
		),
		alertsTriggered: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockwatch_alerts_triggered_total",
				Help: "Total alert rules transitioned to triggered",
			},
			[]string{"kind"},
		),
		notifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockwatch_notifications_total",
				Help: "Notification deliveries by outcome",
			},
			[]string{"outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockwatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockwatch_last_price",
				Help: "Last cached price for a symbol",
			},
			[]string{"symbol"},
		),
		connectedUsers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "stockwatch_connected_users",
				Help: "Currently bound push channels",
			},
		),
		pendingQueue: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "stockwatch_pending_notifications",
				Help: "Undelivered notifications at last flush",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockwatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRefresh records a quote fetch outcome ("ok" or "error").
func (r *Recorder) RecordRefresh(result string) {
	r.quoteRefreshes.WithLabelValues(result).Inc()
}

// RecordTrigger records a triggered alert by kind.
func (r *Recorder) RecordTrigger(kind string) {
	r.alertsTriggered.WithLabelValues(kind).Inc()
}

// RecordDelivery records a notification delivery outcome ("delivered" or "pending").
func (r *Recorder) RecordDelivery(outcome string) {
	r.notifications.WithLabelValues(outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last cached price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordConnectedUsers records the current channel binding count.
func (r *Recorder) RecordConnectedUsers(n int) {
	r.connectedUsers.Set(float64(n))
}

// RecordPendingNotifications records the undelivered backlog size.
func (r *Recorder) RecordPendingNotifications(n int) {
	r.pendingQueue.Set(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
