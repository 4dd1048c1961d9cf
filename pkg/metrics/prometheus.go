// Package metrics provides Prometheus metrics for the versus battle
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the versus service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Voting metrics - the heart of the system.
	votesRecorded   prometheus.Counter
	votesDuplicate  prometheus.Counter
	votesRejected   *prometheus.CounterVec
	votesContention prometheus.Counter
	voteLatency     prometheus.Histogram

	// Matching metrics.
	matchingPasses prometheus.Counter
	matchingEmpty  *prometheus.CounterVec
	matchingPairs  prometheus.Counter

	// Battle lifecycle metrics.
	battlesCreated   prometheus.Counter
	battlesFinalized prometheus.Counter

	// Store metrics.
	storeRetries prometheus.Counter

	// Operational gauges.
	ongoingBattles      prometheus.Gauge
	availableContenders prometheus.Gauge

	// HTTP performance metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics.
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "versus",
		subsystem:        "core",
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
	factory := promauto.With(m.registry)

	m.votesRecorded = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_recorded_total",
		Help:      "Total number of votes successfully recorded.",
	})
	m.votesDuplicate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_duplicate_total",
		Help:      "Total number of votes rejected as duplicates.",
	})
	m.votesRejected = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_rejected_total",
		Help:      "Total number of votes rejected, by reason.",
	}, []string{"reason"})
	m.votesContention = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_contention_total",
		Help:      "Total number of votes failed after exhausting optimistic retries.",
	})
	m.voteLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "vote_latency_ms",
		Help:      "Vote transaction latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.matchingPasses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matching_passes_total",
		Help:      "Total number of matching passes executed.",
	})
	m.matchingEmpty = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matching_empty_total",
		Help:      "Total number of empty matching passes, by reason.",
	}, []string{"reason"})
	m.matchingPairs = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matching_pairs_total",
		Help:      "Total number of pairs selected by matching passes.",
	})

	m.battlesCreated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "battles_created_total",
		Help:      "Total number of battles created.",
	})
	m.battlesFinalized = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "battles_finalized_total",
		Help:      "Total number of battles finalized.",
	})

	m.storeRetries = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_retries_total",
		Help:      "Total number of optimistic write retries in the store.",
	})

	m.ongoingBattles = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ongoing_battles",
		Help:      "Current number of ongoing battles.",
	})
	m.availableContenders = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "available_contenders",
		Help:      "Current number of contenders available for matching.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.systemMemoryUsage = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Current allocated heap memory in bytes.",
	})
	m.systemGoroutineCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Current number of goroutines.",
	})
	m.systemGCPauseTime = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "gc_pause_ms",
		Help:      "Average GC pause time in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
}

// Package-level helpers recording through the global manager.

// RecordVote counts a successfully recorded vote.
func RecordVote() {
	globalManager.votesRecorded.Inc()
}

// RecordDuplicateVote counts a vote rejected as a duplicate.
func RecordDuplicateVote() {
	globalManager.votesDuplicate.Inc()
	globalManager.votesRejected.WithLabelValues("duplicate").Inc()
}

// RecordVoteRejected counts a rejected vote by reason.
func RecordVoteRejected(reason string) {
	globalManager.votesRejected.WithLabelValues(reason).Inc()
}

// RecordVoteContention counts a vote lost to exhausted retries.
func RecordVoteContention() {
	globalManager.votesContention.Inc()
	globalManager.votesRejected.WithLabelValues("contention").Inc()
}

// RecordVoteLatency records one vote transaction duration.
func RecordVoteLatency(latencyMs float64) {
	globalManager.voteLatency.Observe(latencyMs)
}

// RecordMatchingPass counts one matching pass.
func RecordMatchingPass() {
	globalManager.matchingPasses.Inc()
}

// RecordMatchingEmpty counts an empty matching pass by reason.
func RecordMatchingEmpty(reason string) {
	globalManager.matchingEmpty.WithLabelValues(reason).Inc()
}

// RecordMatchingPairs counts pairs selected in a pass.
func RecordMatchingPairs(n int) {
	globalManager.matchingPairs.Add(float64(n))
}

// RecordBattleCreated counts one created battle.
func RecordBattleCreated() {
	globalManager.battlesCreated.Inc()
}

// RecordBattleFinalized counts one finalized battle.
func RecordBattleFinalized() {
	globalManager.battlesFinalized.Inc()
}

// RecordStoreRetry counts one optimistic write retry.
func RecordStoreRetry() {
	globalManager.storeRetries.Inc()
}

// UpdateOngoingBattles sets the ongoing battle gauge.
func UpdateOngoingBattles(count int) {
	globalManager.ongoingBattles.Set(float64(count))
}

// UpdateAvailableContenders sets the available contender gauge.
func UpdateAvailableContenders(count int) {
	globalManager.availableContenders.Set(float64(count))
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets the allocated heap gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause duration.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry exposes the custom registry for the /metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
