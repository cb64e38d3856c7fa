package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reminder_store_op_duration_seconds",
			Help:    "Duration of whole-collection store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)

	corruptLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_store_corrupt_loads_total",
			Help: "Loads that found a malformed document and fell back to an empty list",
		},
		[]string{"backend"},
	)
)
