// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_completed_total",
			Help: "Total number of pipeline runs completed",
		},
		[]string{"round"},
	)

	PipelineRunsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_failed_total",
			Help: "Total number of pipeline runs failed",
		},
		[]string{"round", "error_code"},
	)

	PipelineRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_run_duration_seconds",
			Help: "Duration of pipeline runs in seconds",
		},
		[]string{"round"},
	)

	PipelineRunsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_runs_active",
			Help: "Number of pipeline runs currently executing",
		},
	)

	NotifierAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifier_attempts_total",
			Help: "Total number of evaluation callback attempts",
		},
	)

	NotifierDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_deliveries_total",
			Help: "Total number of evaluation callback deliveries by outcome",
		},
		[]string{"outcome"},
	)
)
