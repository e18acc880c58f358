package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	graphBuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "figflow",
		Name:      "graph_builds_total",
		Help:      "Number of graph build requests, by outcome.",
	}, []string{"outcome"})

	graphBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "figflow",
		Name:      "graph_build_duration_seconds",
		Help:      "Latency of the filter/aggregate/build pipeline.",
		Buckets:   prometheus.DefBuckets,
	})

	snapshotRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "figflow",
		Name:      "snapshot_records",
		Help:      "Number of flow records in the active snapshot.",
	})

	snapshotReloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "figflow",
		Name:      "snapshot_reloads_total",
		Help:      "Number of successful record set reloads.",
	})
)
