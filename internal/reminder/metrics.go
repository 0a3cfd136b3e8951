package reminder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminder_dispatch_runs_total",
		Help: "Dispatch runs by outcome (completed, empty, locked, failed).",
	}, []string{"outcome"})

	deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminder_deliveries_total",
		Help: "Push delivery attempts by status (sent, failed, gone).",
	}, []string{"status"})

	subscriptionsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reminder_subscriptions_pruned_total",
		Help: "Subscriptions deleted after the push service reported them gone.",
	})

	dispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reminder_dispatch_duration_seconds",
		Help:    "Wall time of a full dispatch run.",
		Buckets: prometheus.DefBuckets,
	})
)
