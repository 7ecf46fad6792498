// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements comprehensive application instrumentation using the Prometheus
client library, exposing metrics for monitoring performance, errors, and system health.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - Database query performance (DuckDB)
  - Recommendation pipeline stages, fallbacks, and cache efficiency
  - Feedback learning loop throughput and adaptations
  - Event pipeline (NATS JetStream) and feedback journal (WAL)
  - Circuit breaker state transitions

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8591/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: Active requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

Database Metrics:
  - duckdb_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - duckdb_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type
  - duckdb_connection_pool_size: Connections in use (gauge)

Recommendation Metrics:
  - recommendation_requests_total: Requests served (counter)
    Labels: algorithm, source (engine, cache, fallback)
  - recommendation_duration_seconds: Scoring latency (histogram)
    Labels: algorithm
  - recommendation_candidates_returned: Result set sizes (histogram)
  - recommendation_fallbacks_total: Fallback chain transitions (counter)
    Labels: from, to
  - recommendation_errors_total: Pipeline stage failures (counter)
    Labels: stage
  - context_rescores_total: Candidates re-scored with context (counter)
  - model_artifact_loads_total / model_artifact_saves_total:
    Artifact store operations (counter), Labels: artifact, result

Feedback Learning Metrics:
  - feedback_events_buffered_total: Events accepted (counter)
  - feedback_events_evicted_total: Events dropped from a full buffer (counter)
  - feedback_buffer_depth: Waiting events (gauge)
  - feedback_batches_processed_total: Drained batches (counter)
  - feedback_batch_size: Events per batch (histogram)
  - feedback_processing_duration_seconds: Batch processing time (histogram)
  - learner_users_tracked: Users with engagement metrics (gauge)
  - learner_adaptations_total: Strategy adaptations (counter)
    Labels: strategy

Event Pipeline Metrics:
  - nats_messages_published_total / consumed_total / processed_total
  - nats_messages_deduplicated_total / parse_failed_total
  - nats_processing_duration_seconds (histogram)
  - nats_consumer_lag (gauge)

Feedback Journal Metrics:
  - wal_entries_written_total / confirmed_total / replayed_total
  - wal_pending_entries (gauge)

Cache Metrics:
  - cache_hits_total / cache_misses_total / cache_evictions_total
    Labels: cache_type
  - cache_entries (gauge), Labels: cache_type

# Usage Example

	import "github.com/courseloom/praeceptor/internal/metrics"

	start := time.Now()
	rows, err := db.Query(ctx, query)
	metrics.RecordDBQuery("SELECT", "courses", time.Since(start), err)

# Design Notes

All metrics are registered at package initialization via promauto, so
importing this package is sufficient to expose them. Helper functions
wrap the common record-with-labels patterns; hot paths may use the
metric variables directly.
*/
package metrics
