// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

/*
Package config provides centralized configuration management for Praeceptor.

This package handles loading, validation, and parsing of environment variables
for all application components. It ensures consistent configuration across the
backend services and provides sensible defaults for optional settings.

# Configuration Sources

The package reads configuration from, in order of increasing priority:
  - Built-in defaults
  - YAML config file (config.yaml, or CONFIG_PATH)
  - Environment variables

# Configuration Structure

The package organizes configuration into logical groups:

  - ServerConfig: HTTP server settings (host, port, timeouts)
  - DatabaseConfig: DuckDB connection and performance tuning
  - RecommendConfig: Recommendation engine and scoring constants
  - LearningConfig: Feedback-learning loop tuning
  - NATSConfig: Feedback event pipeline (embedded NATS JetStream)
  - WALConfig: Durable feedback journal (BadgerDB)
  - APIConfig: Pagination, rate limiting, and CORS
  - LoggingConfig: Structured logging (zerolog)

# Environment Variables

Variables are organized by component:

HTTP Server (ServerConfig):
  - HTTP_HOST: Bind address (default: 0.0.0.0)
  - HTTP_PORT: Listen port (default: 8591)
  - HTTP_TIMEOUT: Read/write timeout (default: 30s)
  - ENVIRONMENT: development, staging, production (default: development)

Database (DatabaseConfig):
  - DUCKDB_PATH: Database file path (default: /data/praeceptor.duckdb)
  - DUCKDB_THREADS: Thread count (default: 0 = CPU count)
  - DUCKDB_MAX_MEMORY: Memory limit (default: 2GB)

Recommendation Engine (RecommendConfig):
  - RECOMMEND_ENABLED: Enable the engine (default: true)
  - RECOMMEND_REQUEST_TIMEOUT: Per-request deadline (default: 10s)
  - RECOMMEND_DEFAULT_LIMIT: Default candidate count (default: 10)
  - RECOMMEND_MAX_LIMIT: Max candidate count (default: 50)
  - RECOMMEND_CACHE_TTL: Result cache TTL (default: 5m)
  - RECOMMEND_MODEL_PATH: Model artifact directory (default: /data/praeceptor/models)
  - RECOMMEND_SIMILAR_USERS: Neighborhood size (default: 20)
  - RECOMMEND_MIN_SIMILARITY: Similarity cutoff (default: 0.1)
  - RECOMMEND_CONTEXT_BLEND: Context share of blended score (default: 0.3)

Feedback Learning (LearningConfig):
  - RECOMMEND_LEARNING_BUFFER_SIZE: Buffer capacity (default: 1000)
  - RECOMMEND_LEARNING_DRAIN_INTERVAL: Batch interval (default: 5m)
  - RECOMMEND_LEARNING_HISTORY_LIMIT: Snapshot history cap (default: 100)
  - RECOMMEND_FEEDBACK_RATE: Per-user events/second (default: 5)

Event Pipeline (NATSConfig):
  - NATS_ENABLED: Enable event processing (default: true)
  - NATS_URL: Server URL (default: nats://127.0.0.1:4222)
  - NATS_EMBEDDED: Run embedded server (default: true)
  - NATS_STORE_DIR: JetStream storage (default: /data/praeceptor/nats)
  - NATS_SUBSCRIBERS: Concurrent processors (default: 4)

Feedback Journal (WALConfig):
  - WAL_ENABLED: Enable the journal (default: true)
  - WAL_DIR: BadgerDB directory (default: /data/praeceptor/wal)
  - WAL_RETENTION: Confirmed-entry TTL (default: 72h)

# Usage Example

Basic configuration loading:

	import "github.com/courseloom/praeceptor/internal/config"

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
	    log.Fatalf("Failed to load config: %v", err)
	}

	// Access configuration values
	fmt.Printf("Starting server on %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Database: %s\n", cfg.Database.Path)

Testing with custom configuration:

	// Override environment variables for testing
	os.Setenv("HTTP_PORT", "8080")
	os.Setenv("RECOMMEND_CACHE_TTL", "1s")

	cfg, err := config.Load()
	// Use cfg for testing

# Validation

The package performs comprehensive validation:

  - Numeric ranges: HTTP_PORT (1-65535), NATS_SUBSCRIBERS (1-32)
  - Duration ranges: RECOMMEND_REQUEST_TIMEOUT (100ms-1m)
  - Scoring bounds: RECOMMEND_CONTEXT_BLEND and similarity cutoffs in [0, 1]
  - URL formats: NATS_URL must use nats, tls, ws, or wss schemes
  - Enumerations: LOG_LEVEL, LOG_FORMAT, ENVIRONMENT

Validation errors name the offending environment variable so
misconfiguration is diagnosable from the startup log alone.

# Docker Deployment

For Docker deployments, use environment variables or docker-compose.yml:

	services:
	  praeceptor:
	    image: ghcr.io/courseloom/praeceptor:latest
	    environment:
	      DUCKDB_PATH: /data/praeceptor.duckdb
	      RECOMMEND_MODEL_PATH: /data/models
	      LOG_LEVEL: info
	    ports:
	      - "8591:8591"

# Thread Safety

The Config struct is immutable after Load() returns, making it safe for
concurrent access from multiple goroutines without synchronization.

# Performance

Configuration loading is fast (<10ms) and only happens once at startup.
Values are parsed and validated during Load(), so runtime access is direct
field reads with zero overhead.
*/
package config
