package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы обработки работы (метка outcome).
const (
	outcomeProcessed = "processed"
	outcomeFailed    = "failed"
	outcomeContended = "contended"
	outcomeSkipped   = "skipped"
)

var (
	workItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "concord_work_items_total",
		Help: "Scheduled work items handled by the batch runner, by outcome.",
	}, []string{"outcome"})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "concord_batch_duration_seconds",
		Help:    "Duration of one RunDueWork pass.",
		Buckets: prometheus.DefBuckets,
	})

	workflowUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "concord_workflow_updates_total",
		Help: "Workflow updates, by deciding class and outcome.",
	}, []string{"class", "outcome"})
)
