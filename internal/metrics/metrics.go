// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides comprehensive instrumentation for:
// - Database query performance (DuckDB)
// - API endpoint latency and throughput
// - Recommendation pipeline stages and fallbacks
// - Feedback learning loop throughput
// - Event pipeline (NATS JetStream) and feedback journal (WAL)
// - Cache efficiency

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets, // 0.005s, 0.01s, 0.025s, 0.05s, 0.1s, 0.25s, 0.5s, 1s, 2.5s, 5s, 10s
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBConnectionPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "duckdb_connection_pool_size",
			Help: "Current number of database connections in use",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Recommendation Pipeline Metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"algorithm", "source"}, // source: "engine", "cache", "fallback"
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Duration of recommendation scoring in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"algorithm"},
	)

	RecommendationCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_candidates_returned",
			Help:    "Number of candidates returned per request",
			Buckets: []float64{0, 1, 5, 10, 20, 50},
		},
	)

	RecommendationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_fallbacks_total",
			Help: "Total number of fallback transitions in the scoring chain",
		},
		[]string{"from", "to"}, // e.g. hybrid -> content, content -> popularity
	)

	RecommendationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_errors_total",
			Help: "Total number of recommendation pipeline errors",
		},
		[]string{"stage"}, // "profile", "collaborative", "content", "context", "popularity"
	)

	ContextRescores = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "context_rescores_total",
			Help: "Total number of candidates re-scored with session context",
		},
	)

	ModelArtifactLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_artifact_loads_total",
			Help: "Total number of model artifact load attempts",
		},
		[]string{"artifact", "result"}, // result: "success", "missing", "corrupt"
	)

	ModelArtifactSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_artifact_saves_total",
			Help: "Total number of model artifact save attempts",
		},
		[]string{"artifact", "result"},
	)

	// Feedback Learning Metrics
	FeedbackBuffered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_events_buffered_total",
			Help: "Total number of feedback events accepted into the buffer",
		},
	)

	FeedbackEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_events_evicted_total",
			Help: "Total number of feedback events evicted from a full buffer",
		},
	)

	FeedbackBufferDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedback_buffer_depth",
			Help: "Current number of feedback events waiting in the buffer",
		},
	)

	FeedbackBatchesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_batches_processed_total",
			Help: "Total number of feedback batches drained and processed",
		},
	)

	FeedbackBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedback_batch_size",
			Help:    "Number of events in each processed feedback batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	FeedbackProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedback_processing_duration_seconds",
			Help:    "Duration of feedback batch processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	LearnerUsersTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "learner_users_tracked",
			Help: "Current number of users with engagement metrics",
		},
	)

	LearnerAdaptations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learner_adaptations_total",
			Help: "Total number of strategy adaptations decided by the learner",
		},
		[]string{"strategy"}, // "increase_difficulty", "decrease_difficulty", ...
	)

	// Cache Metrics (General)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "recommendations", "similar", "profiles"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry)",
		},
		[]string{"cache_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// NATS Event Processing Metrics
	NATSMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of messages published to NATS",
		},
	)

	NATSMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_consumed_total",
			Help: "Total number of messages consumed from NATS",
		},
	)

	NATSMessagesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_processed_total",
			Help: "Total number of messages successfully processed",
		},
	)

	NATSMessagesDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_deduplicated_total",
			Help: "Total number of messages skipped due to deduplication",
		},
	)

	NATSMessagesParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_parse_failed_total",
			Help: "Total number of messages that failed to parse",
		},
	)

	NATSProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nats_processing_duration_seconds",
			Help:    "Duration of NATS message processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	NATSConsumerLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nats_consumer_lag",
			Help: "Number of pending messages in NATS consumer",
		},
	)

	// Feedback Journal (WAL) Metrics
	WALEntriesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_entries_written_total",
			Help: "Total number of feedback entries written to the journal",
		},
	)

	WALEntriesConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_entries_confirmed_total",
			Help: "Total number of journal entries confirmed after processing",
		},
	)

	WALEntriesReplayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_entries_replayed_total",
			Help: "Total number of unconfirmed journal entries replayed on startup",
		},
	)

	WALPendingEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wal_pending_entries",
			Help: "Current number of unconfirmed journal entries",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records a recommendation request outcome
func RecordRecommendation(algorithm, source string, duration time.Duration, candidates int) {
	RecommendationRequests.WithLabelValues(algorithm, source).Inc()
	RecommendationDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	RecommendationCandidates.Observe(float64(candidates))
}

// RecordFallback records one fallback transition in the scoring chain
func RecordFallback(from, to string) {
	RecommendationFallbacks.WithLabelValues(from, to).Inc()
}

// RecordRecommendationError records a pipeline stage failure
func RecordRecommendationError(stage string) {
	RecommendationErrors.WithLabelValues(stage).Inc()
}

// RecordFeedbackBuffered records a feedback event entering the buffer
func RecordFeedbackBuffered(depth int) {
	FeedbackBuffered.Inc()
	FeedbackBufferDepth.Set(float64(depth))
}

// RecordFeedbackEvicted records an eviction from a full feedback buffer
func RecordFeedbackEvicted() {
	FeedbackEvicted.Inc()
}

// RecordFeedbackBatch records a drained feedback batch
func RecordFeedbackBatch(duration time.Duration, batchSize int) {
	FeedbackBatchesProcessed.Inc()
	FeedbackBatchSize.Observe(float64(batchSize))
	FeedbackProcessingDuration.Observe(duration.Seconds())
}

// RecordAdaptation records a strategy adaptation decision
func RecordAdaptation(strategy string) {
	LearnerAdaptations.WithLabelValues(strategy).Inc()
}

// RecordNATSPublish records a message being published to NATS
func RecordNATSPublish() {
	NATSMessagesPublished.Inc()
}

// RecordNATSConsume records a message being consumed from NATS
func RecordNATSConsume() {
	NATSMessagesConsumed.Inc()
}

// RecordNATSProcessed records a message being successfully processed
func RecordNATSProcessed() {
	NATSMessagesProcessed.Inc()
}

// RecordNATSDeduplicated records a message being skipped due to deduplication
func RecordNATSDeduplicated() {
	NATSMessagesDeduplicated.Inc()
}

// RecordNATSParseFailed records a message that failed to parse
func RecordNATSParseFailed() {
	NATSMessagesParseFailed.Inc()
}

// RecordNATSProcessingDuration records the duration of message processing
func RecordNATSProcessingDuration(duration time.Duration) {
	NATSProcessingDuration.Observe(duration.Seconds())
}

// UpdateNATSConsumerLag updates the NATS consumer lag gauge
func UpdateNATSConsumerLag(lag int64) {
	NATSConsumerLag.Set(float64(lag))
}

// RecordWALWrite records a journal write
func RecordWALWrite() {
	WALEntriesWritten.Inc()
}

// RecordWALConfirm records a journal confirmation
func RecordWALConfirm() {
	WALEntriesConfirmed.Inc()
}

// RecordWALReplay records entries replayed on startup
func RecordWALReplay(count int) {
	WALEntriesReplayed.Add(float64(count))
}

// UpdateWALPending updates the unconfirmed entry gauge
func UpdateWALPending(pending int64) {
	WALPendingEntries.Set(float64(pending))
}
