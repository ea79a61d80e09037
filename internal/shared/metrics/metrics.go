package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentsRecorded counts Payment Recorder outcomes.
	// result: success, confirmation_required, failed
	PaymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salary_payments_recorded_total",
		Help: "Total number of salary payment recording attempts by result",
	}, []string{"result"})

	// PaymentRecordDuration measures the synchronous part of recording a payment.
	PaymentRecordDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "salary_payment_record_duration_seconds",
		Help:    "Duration of the synchronous payment recording workflow",
		Buckets: prometheus.DefBuckets,
	})

	// TransactionsReversed counts reversals; snapshot_recomputed tells whether
	// the employee snapshot had to be rebuilt.
	TransactionsReversed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salary_transactions_reversed_total",
		Help: "Total number of salary transaction reversals",
	}, []string{"snapshot_recomputed"})

	// SideEffectDeliveries tracks notification/export deliveries.
	// channel: email, export; status: delivered, failed
	SideEffectDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salary_side_effect_deliveries_total",
		Help: "Total number of side-effect delivery outcomes",
	}, []string{"channel", "status"})

	// SideEffectRetries counts retries triggered inside the dispatcher.
	SideEffectRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salary_side_effect_retries_total",
		Help: "Number of retries triggered while delivering side effects",
	}, []string{"channel"})

	// OutboxPublished tracks the outbox relay.
	// status: sent, failed
	OutboxPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salary_outbox_events_total",
		Help: "Total number of outbox events handled by the relay",
	}, []string{"status", "event_type"})

	// AlertsComputed reports bucket sizes of the latest alert computation.
	AlertsComputed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "salary_alerts_current",
		Help: "Number of employees in each alert bucket at the last computation",
	}, []string{"bucket"})
)
