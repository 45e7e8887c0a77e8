package lock

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lockWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "concord_lock_wait_seconds",
		Help:    "Time spent waiting to acquire a lock",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30},
	}, []string{"backend"})

	lockContentionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "concord_lock_contention_total",
		Help: "Lock acquisitions that gave up after the wait timeout",
	}, []string{"backend"})
)
