package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salespipe_job_attempts_total",
			Help: "Total number of job attempts by outcome",
		},
		[]string{"stage", "job", "status"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salespipe_job_duration_seconds",
			Help:    "Duration of jobs including retries",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17 minutes
		},
		[]string{"stage", "job"},
	)

	RowsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salespipe_rows_processed_total",
			Help: "Total number of rows extracted or loaded",
		},
		[]string{"stage", "job"},
	)

	BytesStagedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salespipe_bytes_staged_total",
			Help: "Total number of CSV bytes written to object storage",
		},
		[]string{"job"},
	)

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salespipe_runs_total",
			Help: "Total number of pipeline runs by final status",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "salespipe_run_duration_seconds",
			Help:    "Duration of pipeline runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14), // 1s to ~4.5 hours
		},
	)
)
