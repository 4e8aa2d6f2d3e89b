// Package metrics provides Prometheus metrics for the scoreboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the scoreboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Record source
	fetchTotal     *prometheus.CounterVec
	fetchErrors    prometheus.Counter
	fetchLatency   prometheus.Histogram
	fetchRecords   prometheus.Histogram
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheErrors    prometheus.Counter
	storeErrors    *prometheus.CounterVec
	storeLatency   *prometheus.HistogramVec
	companiesTotal prometheus.Gauge

	// Aggregation core
	aggregationLatency *prometheus.HistogramVec
	companiesRanked    prometheus.Histogram
	profileNotFound    prometheus.Counter

	// Ingestion
	evaluationsSubmitted prometheus.Counter
	evaluationsDuplicate prometheus.Counter
	evaluationsStored    prometheus.Counter
	queueSize            prometheus.Gauge
	queueCapacity        prometheus.Gauge
	queueEnqueueErrors   *prometheus.CounterVec
	workerCount          prometheus.Gauge
	workerLatency        prometheus.Histogram
	workerErrors         prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scoreboard",
		subsystem:        "dashboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// Enabled reports whether recording is switched on.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is how often gauge updaters should poll.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels, Buckets: m.histogramBuckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	m.fetchTotal = m.counterVec("record_fetch_total",
		"Record source fetches by the fallback tier that produced the result", "tier")
	m.fetchErrors = m.counter("record_fetch_errors_total", "Record source fetches that failed")
	m.fetchLatency = m.histogram("record_fetch_latency_milliseconds",
		"Latency of record source fetches in milliseconds", m.histogramBuckets)
	m.fetchRecords = m.histogram("record_fetch_size",
		"Number of evaluation records returned per fetch",
		[]float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000})
	m.cacheHits = m.counter("record_cache_hits_total", "Record cache hits")
	m.cacheMisses = m.counter("record_cache_misses_total", "Record cache misses")
	m.cacheErrors = m.counter("record_cache_errors_total", "Record cache errors (fetch falls through to the store)")
	m.storeErrors = m.counterVec("store_errors_total", "Evaluation store errors by operation", "operation")
	m.storeLatency = m.histogramVec("store_latency_milliseconds",
		"Evaluation store operation latency in milliseconds", "operation")
	m.companiesTotal = m.gauge("companies_last_ranked", "Distinct companies in the most recent leaderboard")

	m.aggregationLatency = m.histogramVec("aggregation_latency_milliseconds",
		"Time spent aggregating and ranking a record collection", "view")
	m.companiesRanked = m.histogram("companies_ranked",
		"Distinct companies per aggregation pass",
		[]float64{0, 1, 2, 5, 10, 20, 50, 100, 200})
	m.profileNotFound = m.counter("profile_not_found_total", "Profile requests for companies without records")

	m.evaluationsSubmitted = m.counter("evaluations_submitted_total", "Evaluations accepted for ingestion")
	m.evaluationsDuplicate = m.counter("evaluations_duplicate_total", "Evaluations rejected as duplicate submissions")
	m.evaluationsStored = m.counter("evaluations_stored_total", "Evaluations written to the store")
	m.queueSize = m.gauge("queue_size", "Current size of the ingestion queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum ingestion queue capacity")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Failed enqueues by reason", "reason")
	m.workerCount = m.gauge("worker_count", "Number of ingestion workers")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds",
		"Time to persist one evaluation", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Evaluations the workers failed to persist")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and type", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Record source.

// RecordFetch counts a fetch answered by tier ("none" when every tier came back empty).
func RecordFetch(tier string, records int, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.fetchTotal.WithLabelValues(tier).Inc()
	globalManager.fetchRecords.Observe(float64(records))
	globalManager.fetchLatency.Observe(latencyMs)
}

// RecordFetchError counts a failed fetch.
func RecordFetchError() {
	if !globalManager.enabled {
		return
	}
	globalManager.fetchErrors.Inc()
	globalManager.errorRateByComponent.WithLabelValues("source", "fetch_error").Inc()
}

// RecordCacheHit counts a record cache hit.
func RecordCacheHit() {
	if globalManager.enabled {
		globalManager.cacheHits.Inc()
	}
}

// RecordCacheMiss counts a record cache miss.
func RecordCacheMiss() {
	if globalManager.enabled {
		globalManager.cacheMisses.Inc()
	}
}

// RecordCacheError counts a cache failure.
func RecordCacheError() {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheErrors.Inc()
	globalManager.errorRateByComponent.WithLabelValues("cache", "redis_error").Inc()
}

// RecordStoreLatency records the latency of one store operation.
func RecordStoreLatency(operation string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
	}
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(operation string) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeErrors.WithLabelValues(operation).Inc()
	globalManager.errorRateByComponent.WithLabelValues("store", operation).Inc()
}

// Aggregation core.

// RecordAggregation records one aggregate/rank pass for a view ("leaderboard" or "profile").
func RecordAggregation(view string, companies int, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.aggregationLatency.WithLabelValues(view).Observe(latencyMs)
	globalManager.companiesRanked.Observe(float64(companies))
	if view == "leaderboard" {
		globalManager.companiesTotal.Set(float64(companies))
	}
}

// RecordProfileNotFound counts profile lookups that found no records.
func RecordProfileNotFound() {
	if globalManager.enabled {
		globalManager.profileNotFound.Inc()
	}
}

// Ingestion.

// RecordEvaluationSubmitted counts an evaluation accepted onto the queue.
func RecordEvaluationSubmitted() {
	if globalManager.enabled {
		globalManager.evaluationsSubmitted.Inc()
	}
}

// RecordEvaluationDuplicate counts a duplicate submission.
func RecordEvaluationDuplicate() {
	if globalManager.enabled {
		globalManager.evaluationsDuplicate.Inc()
	}
}

// RecordEvaluationStored counts an evaluation persisted by a worker.
func RecordEvaluationStored() {
	if globalManager.enabled {
		globalManager.evaluationsStored.Inc()
	}
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
	globalManager.errorRateByComponent.WithLabelValues("queue", reason).Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency records how long a worker took for one evaluation.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.workerLatency.Observe(latencyMs)
	}
}

// RecordWorkerError counts a failed write.
func RecordWorkerError() {
	if !globalManager.enabled {
		return
	}
	globalManager.workerErrors.Inc()
	globalManager.errorRateByComponent.WithLabelValues("worker", "store_error").Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if globalManager.enabled {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Since returns milliseconds elapsed since start, the unit every latency metric uses.
func Since(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
