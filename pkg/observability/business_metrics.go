package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Reservation lifecycle metrics
	reservationsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservations_created_total",
		Help: "Total number of seat reservations created",
	}, []string{"plan_id"})

	reservationsExtendedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservations_extended_total",
		Help: "Total number of reservation TTL extensions granted",
	}, []string{"plan_id"})

	reservationsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_expired_total",
		Help: "Total number of reservations expired by sweep or lazy read",
	})

	// Checkout metrics
	checkoutSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_total",
		Help: "Total number of checkout sessions built",
	}, []string{"provider"})

	// Reconciliation metrics
	reconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliations_total",
		Help: "Total number of payment reconciliations",
	}, []string{
		"provider",
		"status",    // pending, approved, declined, voided, error
		"activated", // true only for the run that won the activation race
	})

	activationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subscription_activations_total",
		Help: "Total number of subscriptions activated by reconciliation",
	}, []string{"provider"})

	activationAmountMinorUnits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "activation_amount_minor_units_total",
		Help: "Total settled amount in currency minor units (revenue tracking)",
	}, []string{"provider", "currency"})

	// Inbound notification metrics
	webhookDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_deliveries_total",
		Help: "Total number of inbound provider notifications",
	}, []string{
		"provider",
		"outcome", // accepted, rejected_signature, provider_unavailable, failed
	})

	webhookDeliveryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_delivery_duration_seconds",
		Help:    "Time to process an inbound provider notification",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
)

// RecordReservationCreated records a new seat reservation
func RecordReservationCreated(planID string) {
	reservationsCreatedTotal.WithLabelValues(planID).Inc()
}

// RecordReservationExtended records a granted TTL extension
func RecordReservationExtended(planID string) {
	reservationsExtendedTotal.WithLabelValues(planID).Inc()
}

// RecordReservationsSwept records reservations moved to expired
func RecordReservationsSwept(count int64) {
	reservationsExpiredTotal.Add(float64(count))
}

// RecordCheckoutSession records a built checkout session
func RecordCheckoutSession(provider string) {
	checkoutSessionsTotal.WithLabelValues(provider).Inc()
}

// RecordReconciliation records the outcome of one reconciliation run
func RecordReconciliation(provider, status string, activated bool) {
	label := "false"
	if activated {
		label = "true"
	}
	reconciliationsTotal.WithLabelValues(provider, status, label).Inc()
}

// RecordActivation records a won activation and its settled amount.
// Amounts are only counted here, so replayed notifications never inflate
// revenue.
func RecordActivation(provider string, amountMinorUnits int64, currency string) {
	activationsTotal.WithLabelValues(provider).Inc()
	activationAmountMinorUnits.WithLabelValues(provider, currency).Add(float64(amountMinorUnits))
}

// RecordWebhookDelivery records an inbound provider notification
func RecordWebhookDelivery(provider, outcome string, duration float64) {
	webhookDeliveriesTotal.WithLabelValues(provider, outcome).Inc()
	webhookDeliveryDuration.WithLabelValues(provider).Observe(duration)
}
