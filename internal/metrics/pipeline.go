package metrics

import "github.com/prometheus/client_golang/prometheus"

// Match pipeline Prometheus metrics.
var (
	MatchTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vayo",
			Name:      "match_tasks_total",
			Help:      "Match tasks by outcome",
		},
		[]string{"outcome"}, // "success" / "failure" / "expired"
	)

	MatchTierTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vayo",
			Name:      "match_tier_total",
			Help:      "Successful matches by tier",
		},
		[]string{"tier"},
	)

	MatchBranchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vayo",
			Name:      "match_branch_total",
			Help:      "Candidate branch taken by the pipeline",
		},
		[]string{"branch"}, // "vector" / "popular"
	)

	MatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vayo",
			Name:      "match_duration_seconds",
			Help:      "End-to-end pipeline duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	BestEffortFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vayo",
			Name:      "best_effort_failures_total",
			Help:      "Swallowed failures of non-critical writes",
		},
		[]string{"op"},
	)

	EnrichmentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vayo",
			Name:      "enrichment_total",
			Help:      "Profile enrichment results",
		},
		[]string{"result"}, // "llm" / "fallback" / "breaker_open" / "disabled"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers match pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(MatchTasksTotal)
	prometheus.MustRegister(MatchTierTotal)
	prometheus.MustRegister(MatchBranchTotal)
	prometheus.MustRegister(MatchDuration)
	prometheus.MustRegister(BestEffortFailuresTotal)
	prometheus.MustRegister(EnrichmentTotal)
	pipelineMetricsRegistered = true
}
