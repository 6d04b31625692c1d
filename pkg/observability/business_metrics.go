package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Payment intent lifecycle metrics
	paymentIntentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payin_payment_intents_total",
		Help: "Total number of payment intent operations",
	}, []string{
		"operation", // create, capture, cancel, adjust, refund
		"status",    // succeeded, rejected, failed
		"country",
	})

	paymentAmountCents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payin_payment_amount_cents_total",
		Help: "Total payment amount in minor units (for revenue tracking)",
	}, []string{
		"operation",
		"status",
		"currency",
	})

	// Intent processing duration (end-to-end, gateway call included)
	intentProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payin_intent_processing_duration_seconds",
		Help:    "Total time to process a payment intent operation (end-to-end)",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{
		"operation",
		"status",
	})

	// Idempotent replay metrics
	idempotentReplaysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payin_idempotent_replays_total",
		Help: "Total requests answered from a previously committed result",
	}, []string{
		"operation",
	})

	// Legacy shadow write metrics
	legacyShadowWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payin_legacy_shadow_writes_total",
		Help: "Total main-DB shadow charge writes",
	}, []string{
		"status", // success, failed
	})

	// Lazy payer migration metrics
	lazyPayerCreationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payin_lazy_payer_creations_total",
		Help: "Total legacy payers lazily provisioned into the payment DB",
	}, []string{
		"outcome", // created, raced
	})

	// Refund metrics
	refundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payin_refunds_total",
		Help: "Total refund attempts",
	}, []string{
		"status", // processing, succeeded, failed, rejected
	})

	refundAmountCents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payin_refund_amount_cents_total",
		Help: "Total refunded amount in minor units",
	}, []string{
		"currency",
	})

	// Reconciliation metrics
	intentReconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payin_intent_reconciliations_total",
		Help: "Total read-path reconciliations of an intent with its gateway mirror",
	}, []string{
		"to_status",
	})
)

// RecordIntentOperation records a payment intent operation.
// This is the primary business metric for volume and success rate tracking.
func RecordIntentOperation(operation, status, country, currency string, amountCents int64, duration float64) {
	paymentIntentsTotal.WithLabelValues(operation, status, country).Inc()
	paymentAmountCents.WithLabelValues(operation, status, currency).Add(float64(amountCents))
	intentProcessingDuration.WithLabelValues(operation, status).Observe(duration)
}

// RecordIdempotentReplay records a request answered from a committed result
func RecordIdempotentReplay(operation string) {
	idempotentReplaysTotal.WithLabelValues(operation).Inc()
}

// RecordLegacyShadowWrite records a main-DB shadow write attempt
func RecordLegacyShadowWrite(status string) {
	legacyShadowWritesTotal.WithLabelValues(status).Inc()
}

// RecordLazyPayerCreation records a lazy legacy payer migration
func RecordLazyPayerCreation(outcome string) {
	lazyPayerCreationsTotal.WithLabelValues(outcome).Inc()
}

// RecordRefund records a refund attempt with its final status
func RecordRefund(status, currency string, amountCents int64) {
	refundsTotal.WithLabelValues(status).Inc()
	if status == "succeeded" {
		refundAmountCents.WithLabelValues(currency).Add(float64(amountCents))
	}
}

// RecordIntentReconciliation records a read-path status reconciliation
func RecordIntentReconciliation(toStatus string) {
	intentReconciliationsTotal.WithLabelValues(toStatus).Inc()
}
