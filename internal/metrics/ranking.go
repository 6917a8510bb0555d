package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Ranking job metrics.
var (
	RankingJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_jobs_total",
			Help:      "Ranking jobs by terminal status",
		},
		[]string{"status"}, // complete | failed
	)

	RankingJobDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ranking_job_duration_seconds",
			Help:      "Wall time of a ranking job from start to terminal state",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	RankingDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_documents_total",
			Help:      "Documents processed by ranking jobs",
		},
		[]string{"kind", "outcome"}, // kind: reference | candidate; outcome: ok | empty | error
	)

	RankingJobsRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ranking_jobs_running",
			Help:      "Ranking jobs currently holding a worker slot",
		},
	)
)

var registerRankingOnce sync.Once

// RegisterRankingMetrics registers the ranking collectors on the default registry.
// Safe to call more than once.
func RegisterRankingMetrics() {
	registerRankingOnce.Do(func() {
		prometheus.MustRegister(
			RankingJobsTotal,
			RankingJobDuration,
			RankingDocumentsTotal,
			RankingJobsRunning,
		)
	})
}
