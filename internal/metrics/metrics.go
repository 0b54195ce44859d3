package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prediction_tasks_submitted_total",
		Help: "Prediction tasks accepted by the dispatcher.",
	})

	TasksSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prediction_tasks_succeeded_total",
		Help: "Prediction tasks finalized as succeeded.",
	})

	TasksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prediction_tasks_failed_total",
		Help: "Prediction tasks finalized as failed.",
	})

	// DebitFailures is the anomaly signal for debits that fail after a task
	// has already been finalized as succeeded. Such tasks keep their result;
	// the miss is surfaced here and in the logs instead of being retried.
	DebitFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_debit_failures_total",
		Help: "Ledger debits that failed after a successful prediction.",
	})

	InferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "prediction_inference_duration_seconds",
		Help:    "Wall time spent in the predictor per task.",
		Buckets: prometheus.DefBuckets,
	})
)
