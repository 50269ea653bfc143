package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the pick'em service

var (
	// Provider metrics
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickem_provider_calls_total",
			Help: "Total number of score provider calls",
		},
		[]string{"endpoint", "status"},
	)

	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pickem_provider_call_duration_seconds",
			Help:    "Duration of score provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Reconciliation metrics
	ReconcileGamesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickem_reconcile_games_total",
			Help: "Games visited by reconciliation, by outcome",
		},
		[]string{"outcome"}, // updated, unchanged, unmatched, shielded
	)

	// Grading metrics
	ResultsGradedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickem_results_graded_total",
			Help: "Game results visited by the grading engine, by outcome",
		},
		[]string{"outcome"}, // processed, conflict, failed
	)

	PicksGradedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pickem_picks_graded_total",
			Help: "Total number of pick grades written",
		},
	)

	// Scheduler metrics
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickem_job_runs_total",
			Help: "Background job runs by job and outcome",
		},
		[]string{"job", "outcome"},
	)

	JobSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickem_job_skipped_total",
			Help: "Ticks skipped because the previous run of the job was still active",
		},
		[]string{"job"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pickem_job_duration_seconds",
			Help:    "Duration of background job runs in seconds",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"job"},
	)

	LastSuccessfulRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pickem_job_last_success_timestamp",
			Help: "Timestamp of the last successful run of each job",
		},
		[]string{"job"},
	)
)

// RecordProviderCall records a provider call metric
func RecordProviderCall(endpoint, status string, duration time.Duration) {
	ProviderCallsTotal.WithLabelValues(endpoint, status).Inc()
	ProviderCallDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordReconcile counts one reconciled game
func RecordReconcile(outcome string) {
	ReconcileGamesTotal.WithLabelValues(outcome).Inc()
}

// RecordGrading counts one graded result and the picks it touched
func RecordGrading(outcome string, picks int) {
	ResultsGradedTotal.WithLabelValues(outcome).Inc()
	if picks > 0 {
		PicksGradedTotal.Add(float64(picks))
	}
}

// RecordJobRun records the outcome and duration of a job run
func RecordJobRun(job, outcome string, duration time.Duration) {
	JobRunsTotal.WithLabelValues(job, outcome).Inc()
	JobDuration.WithLabelValues(job).Observe(duration.Seconds())
	if outcome == "success" {
		LastSuccessfulRun.WithLabelValues(job).SetToCurrentTime()
	}
}

// RecordJobSkipped counts a tick dropped by the overlap guard
func RecordJobSkipped(job string) {
	JobSkippedTotal.WithLabelValues(job).Inc()
}
