package books

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "microfin",
			Name:      "mutations_total",
			Help:      "Commands processed, by operation and outcome (applied|rejected)",
		},
		[]string{"operation", "outcome"},
	)
	persistTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "microfin",
			Name:      "persist_total",
			Help:      "Snapshot writes, by outcome (ok|error)",
		},
		[]string{"outcome"},
	)
	persistDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "microfin",
			Name:      "persist_duration_seconds",
			Help:      "Duration of snapshot writes in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
	fundDerivations = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "microfin",
			Name:      "fund_state_derivations_total",
			Help:      "Fund state computations that missed the memo",
		},
	)
)
