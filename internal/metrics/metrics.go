// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxpost_pipeline_runs_total",
			Help: "Pipeline runs by outcome (completed, failed, skipped)",
		},
		[]string{"outcome"},
	)

	PipelineFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxpost_pipeline_failures_total",
			Help: "Terminal pipeline failures by step and error kind",
		},
		[]string{"step", "kind"},
	)

	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voxpost_step_duration_seconds",
			Help:    "Pipeline step duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"step", "status"},
	)

	StepsResumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxpost_steps_resumed_total",
			Help: "Steps skipped because a checkpoint already existed",
		},
		[]string{"step"},
	)

	ImagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxpost_images_total",
			Help: "Image generation calls by kind (cover, placeholder) and status",
		},
		[]string{"kind", "status"},
	)

	// Queue metrics
	QueueJobs = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "voxpost_queue_jobs",
			Help: "Jobs in the queue by status",
		},
		[]string{"status"},
	)

	ActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "voxpost_workers_active",
			Help: "Number of workers currently running a job",
		},
	)

	// Trigger metrics
	TriggerEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxpost_trigger_events_total",
			Help: "Trigger events by transport and result (enqueued, duplicate, rejected, redelivered)",
		},
		[]string{"transport", "result"},
	)

	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxpost_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voxpost_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// ObserveStep records one step execution.
func ObserveStep(step, status string, elapsed time.Duration) {
	StepDuration.WithLabelValues(step, status).Observe(elapsed.Seconds())
}

// SetQueueDepth publishes job counts; statuses missing from counts are zeroed.
func SetQueueDepth(statuses []string, counts map[string]int) {
	for _, status := range statuses {
		QueueJobs.WithLabelValues(status).Set(float64(counts[status]))
	}
}
