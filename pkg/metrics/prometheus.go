// Package metrics provides Prometheus metrics for the video analysis engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Job lifecycle
	jobsSubmitted prometheus.Counter
	jobsCompleted prometheus.Counter
	jobsFailed    prometheus.Counter
	jobsCancelled prometheus.Counter
	jobsQueued    prometheus.Gauge
	jobsActive    prometheus.Gauge
	jobDuration   prometheus.Histogram
	jobsSwept     prometheus.Counter

	// Frame pipeline
	framesProcessed  prometheus.Counter
	framesEmpty      prometheus.Counter
	frameLatency     prometheus.Histogram
	detectorRetries  prometheus.Counter
	detectorFailures prometheus.Counter

	// Scheduler
	workerCount prometheus.Gauge
	queueDepth  prometheus.Gauge

	// Errors by component and kind
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "blazevision",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.jobsSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_submitted_total",
		Help:      "Total number of analysis jobs accepted at submission",
	})
	m.jobsCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_completed_total",
		Help:      "Total number of jobs that reached the completed state",
	})
	m.jobsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_failed_total",
		Help:      "Total number of jobs that reached the failed state",
	})
	m.jobsCancelled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_cancelled_total",
		Help:      "Total number of jobs cancelled or timed out",
	})
	m.jobsQueued = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_queued",
		Help:      "Number of jobs currently waiting for a worker slot",
	})
	m.jobsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_processing",
		Help:      "Number of jobs currently processing",
	})
	m.jobDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "job_duration_milliseconds",
		Help:      "Histogram of end-to-end job processing time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.jobsSwept = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_swept_total",
		Help:      "Total number of terminal jobs removed by the retention sweep",
	})

	m.framesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_processed_total",
		Help:      "Total number of frames pushed through the detection pipeline",
	})
	m.framesEmpty = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_empty_total",
		Help:      "Total number of frames recorded empty after detector failure",
	})
	m.frameLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frame_latency_milliseconds",
		Help:      "Histogram of per-frame detection latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.detectorRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "detector_retries_total",
		Help:      "Total number of per-frame detector retries",
	})
	m.detectorFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "detector_failures_total",
		Help:      "Total number of frames whose detection failed after retry",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Configured size of the job worker pool",
	})
	m.queueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_depth",
		Help:      "Number of jobs in the scheduler's pending list",
	})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Total errors by component and kind",
	}, []string{"component", "kind"})
}

// Job Lifecycle Functions.

// RecordJobSubmitted increments the submitted counter.
func RecordJobSubmitted() {
	globalManager.jobsSubmitted.Inc()
}

// RecordJobCompleted increments the completed counter.
func RecordJobCompleted() {
	globalManager.jobsCompleted.Inc()
}

// RecordJobFailed increments the failed counter.
func RecordJobFailed() {
	globalManager.jobsFailed.Inc()
}

// RecordJobCancelled increments the cancelled counter.
func RecordJobCancelled() {
	globalManager.jobsCancelled.Inc()
}

// UpdateJobsQueued sets the queued-jobs gauge.
func UpdateJobsQueued(count int) {
	globalManager.jobsQueued.Set(float64(count))
}

// UpdateJobsProcessing sets the processing-jobs gauge.
func UpdateJobsProcessing(count int) {
	globalManager.jobsActive.Set(float64(count))
}

// RecordJobDuration records end-to-end job processing time.
func RecordJobDuration(ms float64) {
	globalManager.jobDuration.Observe(ms)
}

// RecordJobsSwept adds to the retention sweep counter.
func RecordJobsSwept(count int) {
	globalManager.jobsSwept.Add(float64(count))
}

// Frame Pipeline Functions.

// RecordFrameProcessed increments the processed-frames counter.
func RecordFrameProcessed() {
	globalManager.framesProcessed.Inc()
}

// RecordFrameEmpty increments the empty-frame counter.
func RecordFrameEmpty() {
	globalManager.framesEmpty.Inc()
}

// RecordFrameLatency records per-frame detection latency.
func RecordFrameLatency(ms float64) {
	globalManager.frameLatency.Observe(ms)
}

// RecordDetectorRetry increments the detector retry counter.
func RecordDetectorRetry() {
	globalManager.detectorRetries.Inc()
}

// RecordDetectorFailure increments the detector failure counter.
func RecordDetectorFailure() {
	globalManager.detectorFailures.Inc()
}

// Scheduler Functions.

// UpdateWorkerCount sets the worker pool size gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateQueueDepth sets the pending-list depth gauge.
func UpdateQueueDepth(depth int) {
	globalManager.queueDepth.Set(float64(depth))
}

// Error Functions.

// RecordErrorByComponent records an error with component and kind labels.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// GetRegistry returns the custom registry backing the global manager, for
// exposing via promhttp.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
