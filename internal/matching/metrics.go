// internal/matching/metrics.go
// Prometheus metrics for the matching engine

package matching

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scoringDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "matching_scoring_duration_seconds",
		Help:    "Time spent ranking candidates, by scoring mode",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	scoringRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matching_scoring_runs_total",
		Help: "Number of ranking runs, by scoring mode",
	}, []string{"mode"})
)

func observeScoring(mode Mode, d time.Duration) {
	scoringDuration.WithLabelValues(string(mode)).Observe(d.Seconds())
	scoringRuns.WithLabelValues(string(mode)).Inc()
}
