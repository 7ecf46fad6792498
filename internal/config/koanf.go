// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/praeceptor/config.yaml",
	"/etc/praeceptor/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

var (
	globalKoanf   *koanf.Koanf
	globalKoanfMu sync.RWMutex
)

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		NATS: NATSConfig{
			Enabled:                    true,
			URL:                        "nats://127.0.0.1:4222",
			EmbeddedServer:             true,
			StoreDir:                   "/data/praeceptor/nats",
			MaxMemory:                  1 << 30,  // 1GB
			MaxStore:                   10 << 30, // 10GB
			StreamRetentionDays:        7,
			SubscribersCount:           4,
			DurableName:                "feedback-processor",
			QueueGroup:                 "processors",
			RouterRetryCount:           3,
			RouterRetryInitialInterval: 100 * time.Millisecond,
			RouterThrottlePerSecond:    0, // unlimited
			RouterDeduplicationEnabled: true,
			RouterDeduplicationTTL:     5 * time.Minute,
			RouterPoisonQueueEnabled:   true,
			RouterPoisonQueueTopic:     "dlq.feedback",
			RouterCloseTimeout:         30 * time.Second,
		},
		WAL: WALConfig{
			Enabled:    true,
			Dir:        "/data/praeceptor/wal",
			SyncWrites: false,
			Retention:  72 * time.Hour,
			GCInterval: 10 * time.Minute,
		},
		Recommend: RecommendConfig{
			Enabled:          true,
			RequestTimeout:   10 * time.Second,
			DefaultLimit:     10,
			MaxLimit:         50,
			CacheTTL:         5 * time.Minute,
			ModelPath:        "/data/praeceptor/models",
			RefreshInterval:  24 * time.Hour,
			MinInteractions:  5,
			MinEnrollments:   2,
			DecayHorizonDays: 365,
			MinDecay:         0.1,
			SimilarUserLimit: 20,
			MinSimilarity:    0.1,
			ContextBlend:     0.3,
			MaxConfidence:    0.95,
			Learning: LearningConfig{
				BufferSize:      1000,
				DrainInterval:   5 * time.Minute,
				HistoryLimit:    100,
				TrendWindow:     10,
				MinTrendSamples: 5,
				StatePath:       "", // persistence off unless configured
				FeedbackRate:    5,
				FeedbackBurst:   20,
			},
		},
		Database: DatabaseConfig{
			Path:      "/data/praeceptor.duckdb",
			MaxMemory: "2GB",
			Threads:   0, // 0 = use all available cores
		},
		Server: ServerConfig{
			Port:        8591,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		API: APIConfig{
			DefaultPageSize:   20,
			MaxPageSize:       100,
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf with proper layering:
// defaults first, then an optional YAML config file, then environment
// variables on top.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from the struct itself.
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file.
	if configFile := findConfigFile(); configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
	}

	// Layer 3: environment variables.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Comma-separated env values become slices for the slice-typed paths.
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalKoanfMu.Lock()
	globalKoanf = k
	globalKoanfMu.Unlock()

	return cfg, nil
}

// findConfigFile returns the first existing config file path, checking
// CONFIG_PATH first and then DefaultConfigPaths. Returns "" when no file
// exists, which is not an error: defaults plus environment suffice.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return ""
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists the dotted config paths whose values are slices.
// Environment variables set these as comma-separated strings.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values into string
// slices for the paths in sliceConfigPaths. Values that are already slices
// (from the YAML file or the defaults) are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		if !k.Exists(path) {
			continue
		}
		switch v := k.Get(path).(type) {
		case []interface{}, []string:
			continue
		case string:
			parts := strings.Split(v, ",")
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if trimmed := strings.TrimSpace(p); trimmed != "" {
					out = append(out, trimmed)
				}
			}
			if err := k.Set(path, out); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names onto dotted config
// paths. Only explicitly-mapped variables are honored; everything else is
// ignored so unrelated environment noise cannot leak into the config.
func envTransformFunc(s string) string {
	s = strings.ToLower(s)

	mappings := map[string]string{
		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// HTTP server
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// API
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",
		"rate_limit_requests":   "api.rate_limit_reqs",
		"rate_limit_window":     "api.rate_limit_window",
		"disable_rate_limit":    "api.rate_limit_disabled",
		"cors_origins":          "api.cors_origins",

		// Database (DuckDB)
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// NATS / event pipeline
		"nats_enabled":        "nats.enabled",
		"nats_url":            "nats.url",
		"nats_embedded":       "nats.embedded_server",
		"nats_store_dir":      "nats.store_dir",
		"nats_max_memory":     "nats.max_memory",
		"nats_max_store":      "nats.max_store",
		"nats_retention_days": "nats.stream_retention_days",
		"nats_subscribers":    "nats.subscribers_count",
		"nats_durable_name":   "nats.durable_name",
		"nats_queue_group":    "nats.queue_group",

		// NATS router middleware
		"nats_router_retry_count":            "nats.router_retry_count",
		"nats_router_retry_initial_interval": "nats.router_retry_initial_interval",
		"nats_router_throttle_per_second":    "nats.router_throttle_per_second",
		"nats_router_dedup_enabled":          "nats.router_deduplication_enabled",
		"nats_router_dedup_ttl":              "nats.router_deduplication_ttl",
		"nats_router_poison_enabled":         "nats.router_poison_queue_enabled",
		"nats_router_poison_topic":           "nats.router_poison_queue_topic",
		"nats_router_close_timeout":          "nats.router_close_timeout",

		// WAL (feedback journal)
		"wal_enabled":     "wal.enabled",
		"wal_dir":         "wal.dir",
		"wal_sync_writes": "wal.sync_writes",
		"wal_retention":   "wal.retention",
		"wal_gc_interval": "wal.gc_interval",

		// Recommendation engine
		"recommend_enabled":            "recommend.enabled",
		"recommend_request_timeout":    "recommend.request_timeout",
		"recommend_default_limit":      "recommend.default_limit",
		"recommend_max_limit":          "recommend.max_limit",
		"recommend_cache_ttl":          "recommend.cache_ttl",
		"recommend_model_path":         "recommend.model_path",
		"recommend_refresh_interval":   "recommend.refresh_interval",
		"recommend_min_interactions":   "recommend.min_interactions",
		"recommend_min_enrollments":    "recommend.min_enrollments",
		"recommend_decay_horizon_days": "recommend.decay_horizon_days",
		"recommend_min_decay":          "recommend.min_decay",
		"recommend_similar_users":      "recommend.similar_user_limit",
		"recommend_min_similarity":     "recommend.min_similarity",
		"recommend_context_blend":      "recommend.context_blend",
		"recommend_max_confidence":     "recommend.max_confidence",

		// Feedback learning loop
		"recommend_learning_buffer_size":    "recommend.learning.buffer_size",
		"recommend_learning_drain_interval": "recommend.learning.drain_interval",
		"recommend_learning_history_limit":  "recommend.learning.history_limit",
		"recommend_learning_trend_window":   "recommend.learning.trend_window",
		"recommend_learning_min_samples":    "recommend.learning.min_trend_samples",
		"recommend_learning_state_path":     "recommend.learning.state_path",
		"recommend_feedback_rate":           "recommend.learning.feedback_rate",
		"recommend_feedback_burst":          "recommend.learning.feedback_burst",
	}

	if mapped, ok := mappings[s]; ok {
		return mapped
	}
	// Unmapped variables are dropped so they cannot collide with config keys.
	return ""
}

// GetKoanfInstance returns the koanf instance from the last successful
// Load, or nil when Load has not run yet. Intended for debugging.
func GetKoanfInstance() *koanf.Koanf {
	globalKoanfMu.RLock()
	defer globalKoanfMu.RUnlock()
	return globalKoanf
}

// WatchConfigFile watches the given config file and invokes callback on
// every change. The callback receives the freshly-loaded config; reload
// errors are passed through so the caller can log and keep the old config.
func WatchConfigFile(path string, callback func(*Config, error)) error {
	f := file.Provider(path)
	return f.Watch(func(event interface{}, err error) {
		if err != nil {
			callback(nil, fmt.Errorf("config watch error: %w", err))
			return
		}
		callback(LoadWithKoanf())
	})
}
