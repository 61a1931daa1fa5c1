// Package metrics provides Prometheus metrics for the ladder service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector used by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Rule evaluations
	evaluations       *prometheus.CounterVec
	evaluationLatency *prometheus.HistogramVec
	badgesEarned      *prometheus.CounterVec

	// Submission pipeline
	submissions       *prometheus.CounterVec
	verdicts          *prometheus.CounterVec
	processingLatency prometheus.Histogram
	verdictsStored    prometheus.Gauge
	usersRanked       prometheus.Gauge
	dedupeSize        prometheus.Gauge

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount  prometheus.Gauge
	workerActive prometheus.Gauge
	workerErrors prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         prometheus.Counter

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics manager

// customRegistry keeps the exposition free of default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ladder",
		subsystem:        "",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.evaluations = auto.NewCounterVec(
		m.counterOpts("evaluations_total", "Rule evaluations by evaluator and outcome"),
		[]string{"evaluator", "outcome"},
	)
	m.evaluationLatency = auto.NewHistogramVec(
		m.histogramOpts("evaluation_latency_milliseconds", "Rule evaluation latency in milliseconds", m.histogramBuckets),
		[]string{"evaluator"},
	)
	m.badgesEarned = auto.NewCounterVec(
		m.counterOpts("badge_tiers_earned_total", "Earned badge tiers reported by progress evaluations"),
		[]string{"category", "tier"},
	)

	m.submissions = auto.NewCounterVec(
		m.counterOpts("submissions_total", "Evidence submissions by intake status"),
		[]string{"status"},
	)
	m.verdicts = auto.NewCounterVec(
		m.counterOpts("verdicts_total", "Processed submissions by verdict"),
		[]string{"accepted"},
	)
	m.processingLatency = auto.NewHistogram(
		m.histogramOpts("processing_latency_milliseconds", "Time from dequeue to stored verdict in milliseconds", m.histogramBuckets),
	)
	m.verdictsStored = auto.NewGauge(m.gaugeOpts("verdicts_stored", "Verdicts currently held in the store"))
	m.usersRanked = auto.NewGauge(m.gaugeOpts("users_ranked", "Users with at least one accepted submission"))
	m.dedupeSize = auto.NewGauge(m.gaugeOpts("dedupe_entries", "Submission IDs tracked for idempotency"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of queued submissions"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum number of queued submissions"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue size divided by capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Submissions enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total", "Submissions dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Rejected enqueue attempts"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured worker goroutines"))
	m.workerActive = auto.NewGauge(m.gaugeOpts("worker_active", "Workers currently processing a submission"))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Submissions a worker failed to store"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.rateLimited = auto.NewCounter(m.counterOpts("http_rate_limited_total", "Requests rejected by the per-client rate limiter"))

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_milliseconds", "Most recent GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

func outcome(ok bool) string {
	if ok {
		return "valid"
	}
	return "invalid"
}

// Evaluation metrics.

// RecordEvaluation counts one evaluator call and its latency.
func RecordEvaluation(evaluator string, ok bool, latencyMs float64) {
	globalManager.evaluations.WithLabelValues(evaluator, outcome(ok)).Inc()
	globalManager.evaluationLatency.WithLabelValues(evaluator).Observe(latencyMs)
}

// RecordBadgeEarned counts an earned tier in a progress report.
func RecordBadgeEarned(category, tier string) {
	globalManager.badgesEarned.WithLabelValues(category, tier).Inc()
}

// Pipeline metrics.

// RecordSubmission counts a submission by intake status (queued, duplicate, backpressure).
func RecordSubmission(status string) {
	globalManager.submissions.WithLabelValues(status).Inc()
}

// RecordVerdict counts a processed submission and its processing latency.
func RecordVerdict(accepted bool, latencyMs float64) {
	globalManager.verdicts.WithLabelValues(strconv.FormatBool(accepted)).Inc()
	globalManager.processingLatency.Observe(latencyMs)
}

// UpdateVerdictsStored sets the number of stored verdicts.
func UpdateVerdictsStored(count int) {
	globalManager.verdictsStored.Set(float64(count))
}

// UpdateUsersRanked sets the number of ranked users.
func UpdateUsersRanked(count int) {
	globalManager.usersRanked.Set(float64(count))
}

// UpdateDedupeSize sets the number of tracked submission IDs.
func UpdateDedupeSize(count int64) {
	globalManager.dedupeSize.Set(float64(count))
}

// Queue metrics.

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the queue size and the derived utilization.
func UpdateQueueSize(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// RecordQueueEnqueue counts a successful enqueue.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a dequeue.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker metrics.

// UpdateWorkerCount sets the number of worker goroutines.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActive sets the number of busy workers.
func UpdateWorkerActive(count int64) {
	globalManager.workerActive.Set(float64(count))
}

// RecordWorkerError counts a worker failure.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP metrics.

// RecordHTTPRequest counts a request and observes its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited() {
	globalManager.rateLimited.Inc()
}

// RecordErrorByComponent counts an error for component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets heap bytes in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes a GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry the global manager registers with.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
