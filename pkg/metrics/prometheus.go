// Package metrics provides Prometheus metrics for the judgeboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Exclusion reasons used as label values.
const (
	ReasonNoRun     = "no_run"
	ReasonNoRecords = "no_records"
	ReasonFailed    = "failed"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Aggregation
	leaderboardComputations prometheus.Counter
	leaderboardErrors       prometheus.Counter
	computationLatency      prometheus.Histogram
	participantsRanked      prometheus.Gauge
	participantsExcluded    *prometheus.CounterVec
	recordsParsed           prometheus.Counter
	malformedLines          prometheus.Counter

	// Artifact store
	artifactFetchLatency prometheus.Histogram
	artifactErrors       *prometheus.CounterVec

	// Summary cache
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	// Worker pool
	workerActiveJobs prometheus.Gauge
	workerJobLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "judgeboard",
		subsystem:        "aggregator",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// RefreshInterval reports how often periodic gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.leaderboardComputations = m.counter("leaderboard_computations_total",
		"Total number of leaderboard computations")
	m.leaderboardErrors = m.counter("leaderboard_errors_total",
		"Total number of leaderboard computations that failed at request level")
	m.computationLatency = m.histogram("computation_latency_milliseconds",
		"Leaderboard computation latency in milliseconds")
	m.participantsRanked = m.gauge("participants_ranked",
		"Number of participants ranked by the last computation")
	m.participantsExcluded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "participants_excluded_total",
		Help:      "Participants left out of a leaderboard computation by reason",
	}, []string{"reason"})
	m.recordsParsed = m.counter("verdict_records_parsed_total",
		"Total number of verdict records parsed from run outputs")
	m.malformedLines = m.counter("verdict_malformed_lines_total",
		"Total number of verdict lines skipped as malformed")

	m.artifactFetchLatency = m.histogram("artifact_fetch_latency_milliseconds",
		"Artifact store read latency in milliseconds")
	m.artifactErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "artifact_errors_total",
		Help:      "Artifact store errors by operation",
	}, []string{"operation"})

	m.cacheHits = m.counter("summary_cache_hits_total", "Run summaries served from cache")
	m.cacheMisses = m.counter("summary_cache_misses_total", "Run summaries computed from artifacts")

	m.workerActiveJobs = m.gauge("worker_active_jobs", "Participant jobs currently executing")
	m.workerJobLatency = m.histogram("worker_job_latency_milliseconds",
		"Per-participant processing latency in milliseconds")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "Total number of errors by endpoint",
	}, []string{"endpoint", "method", "error_type"})
	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_type_total",
		Help:      "Total number of errors by type",
	}, []string{"error_type", "severity"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "Average GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordLeaderboardComputation counts a computation and observes its latency.
func RecordLeaderboardComputation(latencyMs float64, ranked int) {
	globalManager.leaderboardComputations.Inc()
	globalManager.computationLatency.Observe(latencyMs)
	globalManager.participantsRanked.Set(float64(ranked))
}

// RecordLeaderboardError counts a request-level computation failure.
func RecordLeaderboardError() {
	globalManager.leaderboardErrors.Inc()
}

// RecordParticipantExcluded counts an excluded participant by reason.
func RecordParticipantExcluded(reason string) {
	globalManager.participantsExcluded.WithLabelValues(reason).Inc()
}

// RecordVerdictRecords adds parsed and malformed line counts.
func RecordVerdictRecords(parsed, malformed int) {
	globalManager.recordsParsed.Add(float64(parsed))
	globalManager.malformedLines.Add(float64(malformed))
}

// RecordArtifactFetchLatency observes a store read.
func RecordArtifactFetchLatency(latencyMs float64) {
	globalManager.artifactFetchLatency.Observe(latencyMs)
}

// RecordArtifactError counts a store failure for operation (list, fetch, open).
func RecordArtifactError(operation string) {
	globalManager.artifactErrors.WithLabelValues(operation).Inc()
}

// RecordCacheHit counts a summary cache hit.
func RecordCacheHit() { globalManager.cacheHits.Inc() }

// RecordCacheMiss counts a summary cache miss.
func RecordCacheMiss() { globalManager.cacheMisses.Inc() }

// AddWorkerActiveJobs adjusts the in-flight participant job gauge.
func AddWorkerActiveJobs(delta int) {
	globalManager.workerActiveJobs.Add(float64(delta))
}

// RecordWorkerJobLatency observes one participant job.
func RecordWorkerJobLatency(latencyMs float64) {
	globalManager.workerJobLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// RefreshInterval returns the refresh interval of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
