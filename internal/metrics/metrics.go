// Package metrics exposes job and pass metrics in the Prometheus format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job metrics
var (
	JobsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webmc_jobs_finished_total",
			Help: "Total number of jobs that reached a terminal state",
		},
		[]string{"status"}, // "complete", "error"
	)

	JobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webmc_job_failures_total",
			Help: "Total number of failed jobs by the pass that failed (0 = before encoding)",
		},
		[]string{"pass"},
	)

	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webmc_job_duration_seconds",
			Help:    "Wall-clock duration of successful jobs, both passes",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		},
	)
)

// Encoder metrics
var (
	FirstPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webmc_first_pass_duration_seconds",
			Help:    "Wall-clock duration of the analysis pass",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		},
	)

	ProgressSamplesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webmc_progress_samples_total",
			Help: "Total number of second-pass progress samples parsed",
		},
	)
)
