package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	OrdersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_orders_created_total",
			Help: "Number of orders created, by settlement path (free, paid)",
		},
		[]string{"path"},
	)

	OrderCreationTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "checkout_order_creation_seconds",
			Help:    "Time taken to create an order",
			Buckets: prometheus.DefBuckets,
		},
	)

	PaymentIntents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_payment_intents_total",
			Help: "Number of payment intent requests, by result",
		},
		[]string{"result"},
	)

	PaymentVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_payment_verifications_total",
			Help: "Number of payment verifications, by result",
		},
		[]string{"result"},
	)

	EnrollmentsActivated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_enrollments_activated_total",
			Help: "Number of enrollments activated",
		},
	)

	OutboxEventsRelayed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_outbox_events_relayed_total",
			Help: "Number of outbox events handed to the broker, by result",
		},
		[]string{"result"},
	)

	StalePendingPayments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "checkout_stale_pending_payments",
			Help: "PENDING payments older than the configured threshold at the last check",
		},
	)
)

var registerOnce sync.Once

// Register adds all collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			OrdersCreated,
			OrderCreationTime,
			PaymentIntents,
			PaymentVerifications,
			EnrollmentsActivated,
			OutboxEventsRelayed,
			StalePendingPayments,
		)
	})
}
