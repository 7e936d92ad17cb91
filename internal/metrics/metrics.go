// Package metrics registers the Prometheus collectors for scan activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Item outcomes recorded on ScanItems.
const (
	OutcomeOK          = "ok"
	OutcomeTimeout     = "timeout"
	OutcomeRateLimited = "rate_limited"
	OutcomeUpstream    = "upstream_error"
)

var (
	ScanRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flipscan_scan_runs_total",
		Help: "Completed batch scan runs.",
	})

	ScanItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flipscan_scan_items_total",
		Help: "Scored items by outcome.",
	}, []string{"outcome"})

	ScoreDistribution = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flipscan_score",
		Help:    "Distribution of opportunity scores over successful items.",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flipscan_fetch_duration_seconds",
		Help:    "Upstream fetch latency including guard waits.",
		Buckets: prometheus.DefBuckets,
	})
)
