package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics exported by the API.
type Collector struct {
	registry *prometheus.Registry

	transactionsRecorded *prometheus.CounterVec
	transactionsFailed   prometheus.Counter
	transactionDuration  prometheus.Histogram
	bookingsActive       prometheus.Gauge
	bookingTransitions   *prometheus.CounterVec
	bonusClaims          prometheus.Counter
}

// NewCollector creates a new metrics collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		transactionsRecorded: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transactions_recorded_total",
			Help: "Total number of recorded ledger transactions",
		}, []string{"type", "currency"}),
		transactionsFailed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_transactions_failed_total",
			Help: "Total number of ledger transactions that failed validation or commit",
		}),
		transactionDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_transaction_duration_seconds",
			Help:    "Time taken to record a ledger transaction",
			Buckets: prometheus.DefBuckets,
		}),
		bookingsActive: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "bookings_in_progress",
			Help: "Number of bookings currently in progress",
		}),
		bookingTransitions: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Booking lifecycle transitions by target status",
		}, []string{"status"}),
		bonusClaims: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "daily_bonus_claims_total",
			Help: "Total number of granted daily bonuses",
		}),
	}
}

// RecordTransaction records a ledger transaction outcome.
func (c *Collector) RecordTransaction(txType, currency string, duration time.Duration, success bool) {
	if success {
		c.transactionsRecorded.WithLabelValues(txType, currency).Inc()
	} else {
		c.transactionsFailed.Inc()
	}
	c.transactionDuration.Observe(duration.Seconds())
}

// BookingTransition records a booking status transition.
func (c *Collector) BookingTransition(status string) {
	c.bookingTransitions.WithLabelValues(status).Inc()
	switch status {
	case "in_progress":
		c.bookingsActive.Inc()
	case "completed", "cancelled", "expired":
		c.bookingsActive.Dec()
	}
}

// BonusClaim records a granted daily bonus.
func (c *Collector) BonusClaim() {
	c.bonusClaims.Inc()
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
