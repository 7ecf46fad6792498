// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package config

import (
	"time"
)

// Config holds all application configuration loaded from environment
// variables and config files. Provides centralized configuration management
// for all application components: the recommendation engine, the feedback
// pipeline, the database, the HTTP server, and logging.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Example - Load configuration from environment:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	// cfg.Database.Path, cfg.Recommend.RequestTimeout, etc. are now populated
//
// Example - Access configuration values:
//
//	db, err := database.New(cfg.Database)
//	engine := recommend.NewEngine(cfg.Recommend, provider, store)
//	server := http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)}
type Config struct {
	NATS      NATSConfig      `koanf:"nats"`      // Feedback event pipeline (Watermill/NATS JetStream)
	WAL       WALConfig       `koanf:"wal"`       // Durable feedback journal (BadgerDB)
	Recommend RecommendConfig `koanf:"recommend"` // Recommendation engine tuning
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// NATSConfig holds NATS JetStream configuration for the feedback event
// pipeline. Enables Watermill-based event processing for reliable feedback
// delivery with deduplication and guaranteed delivery.
//
// Architecture Benefits:
//   - Decoupled feedback ingestion from HTTP handlers
//   - Exactly-once delivery via JetStream acknowledgments
//   - Message deduplication via message ID
//   - Circuit breaker protection for resilience
//   - Event replay for debugging and audit
//
// Environment Variables:
//   - NATS_ENABLED: Enable event processing (default: true)
//   - NATS_URL: NATS server connection URL (default: nats://127.0.0.1:4222)
//   - NATS_EMBEDDED: Use embedded NATS server (default: true)
//   - NATS_STORE_DIR: JetStream storage directory (default: /data/praeceptor/nats)
//   - NATS_MAX_MEMORY: Max memory for JetStream in bytes (default: 1073741824 = 1GB)
//   - NATS_MAX_STORE: Max disk storage for JetStream in bytes (default: 10737418240 = 10GB)
//   - NATS_RETENTION_DAYS: Event retention period in days (default: 7)
//   - NATS_SUBSCRIBERS: Number of concurrent message processors (default: 4)
//   - NATS_DURABLE_NAME: Consumer durable name (default: feedback-processor)
//   - NATS_QUEUE_GROUP: Queue group for load balancing (default: processors)
type NATSConfig struct {
	// Enabled controls whether event processing is active.
	Enabled bool `koanf:"enabled"`

	// URL is the NATS server connection URL.
	URL string `koanf:"url"`

	// EmbeddedServer enables embedded NATS server.
	// If false, expects external NATS server at URL.
	EmbeddedServer bool `koanf:"embedded_server"`

	// StoreDir is the JetStream storage directory.
	StoreDir string `koanf:"store_dir"`

	// MaxMemory is the maximum memory for JetStream in bytes.
	MaxMemory int64 `koanf:"max_memory"`

	// MaxStore is the maximum disk storage for JetStream in bytes.
	MaxStore int64 `koanf:"max_store"`

	// StreamRetentionDays is how long to keep events.
	StreamRetentionDays int `koanf:"stream_retention_days"`

	// SubscribersCount is the number of concurrent message processors.
	SubscribersCount int `koanf:"subscribers_count"`

	// DurableName is the consumer durable name for message tracking.
	DurableName string `koanf:"durable_name"`

	// QueueGroup is the queue group for load balancing.
	QueueGroup string `koanf:"queue_group"`

	// Router configuration (Watermill Router-based message processing)
	// These settings control the middleware stack for message handling.

	// RouterRetryCount is the maximum number of retries for failed messages.
	// Default: 3
	RouterRetryCount int `koanf:"router_retry_count"`

	// RouterRetryInitialInterval is the initial backoff interval for retries.
	// Default: 100ms
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`

	// RouterThrottlePerSecond limits messages processed per second (0 = unlimited).
	// Default: 0 (unlimited)
	RouterThrottlePerSecond int `koanf:"router_throttle_per_second"`

	// RouterDeduplicationEnabled enables message ID deduplication in the Router.
	// Default: true
	RouterDeduplicationEnabled bool `koanf:"router_deduplication_enabled"`

	// RouterDeduplicationTTL is how long to remember message IDs for deduplication.
	// Default: 5m
	RouterDeduplicationTTL time.Duration `koanf:"router_deduplication_ttl"`

	// RouterPoisonQueueEnabled enables routing of permanently failed messages
	// to a poison queue.
	// Default: true
	RouterPoisonQueueEnabled bool `koanf:"router_poison_queue_enabled"`

	// RouterPoisonQueueTopic is the topic for permanently failed messages.
	// Default: "dlq.feedback"
	RouterPoisonQueueTopic string `koanf:"router_poison_queue_topic"`

	// RouterCloseTimeout is the maximum time to wait for graceful router shutdown.
	// Default: 30s
	RouterCloseTimeout time.Duration `koanf:"router_close_timeout"`
}

// WALConfig holds the durable feedback journal settings (BadgerDB).
// The write-ahead log guarantees that accepted feedback survives process
// restarts: entries are written before acknowledgment and confirmed after
// the learner has consumed them. Unconfirmed entries are replayed on startup.
//
// Environment Variables:
//   - WAL_ENABLED: Enable the feedback journal (default: true)
//   - WAL_DIR: BadgerDB directory (default: /data/praeceptor/wal)
//   - WAL_SYNC_WRITES: Fsync every write (default: false; Badger still
//     guarantees atomicity, sync trades throughput for durability)
//   - WAL_RETENTION: TTL for confirmed entries (default: 72h)
//   - WAL_GC_INTERVAL: Value log garbage collection interval (default: 10m)
type WALConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Dir        string        `koanf:"dir"`
	SyncWrites bool          `koanf:"sync_writes"`
	Retention  time.Duration `koanf:"retention"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// RecommendConfig holds recommendation engine tuning. Every scoring
// constant that shapes ranking behavior is surfaced here so deployments can
// adjust them without a rebuild; the defaults reproduce the documented
// scoring semantics.
//
// Environment Variables:
//   - RECOMMEND_ENABLED: Enable the recommendation engine (default: true)
//   - RECOMMEND_REQUEST_TIMEOUT: Per-request pipeline deadline (default: 10s)
//   - RECOMMEND_DEFAULT_LIMIT: Default candidate count (default: 10)
//   - RECOMMEND_MAX_LIMIT: Maximum candidate count per request (default: 50)
//   - RECOMMEND_CACHE_TTL: Recommendation cache TTL (default: 5m)
//   - RECOMMEND_MODEL_PATH: Directory for model artifacts (default: /data/praeceptor/models)
//   - RECOMMEND_REFRESH_INTERVAL: Model refresh pass interval (default: 24h)
//   - RECOMMEND_MIN_INTERACTIONS: Interactions needed before personalization (default: 5)
//   - RECOMMEND_MIN_ENROLLMENTS: Active enrollments needed before personalization (default: 2)
//   - RECOMMEND_DECAY_HORIZON_DAYS: Interaction weight decay horizon (default: 365)
//   - RECOMMEND_SIMILAR_USERS: Similar-user neighborhood size (default: 20)
//   - RECOMMEND_MIN_SIMILARITY: Minimum user similarity to count (default: 0.1)
//   - RECOMMEND_CONTEXT_BLEND: Context share of the blended score (default: 0.3)
//   - RECOMMEND_MAX_CONFIDENCE: Confidence ceiling after re-scoring (default: 0.95)
type RecommendConfig struct {
	// Enabled controls whether personalized scoring is active. When
	// false no scorers are registered and no background training runs;
	// the engine serves the popularity fallback only.
	Enabled bool `koanf:"enabled"`

	// RequestTimeout bounds the whole scoring pipeline for one request.
	// When the deadline is hit the engine serves the popularity fallback.
	// Default: 10s
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// DefaultLimit is the candidate count when the caller does not specify one.
	// Default: 10
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps the candidate count per request.
	// Default: 50
	MaxLimit int `koanf:"max_limit"`

	// CacheTTL is how long to cache recommendation results.
	// Default: 5m
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// ModelPath is the directory for persisting model artifacts
	// (course vectors, encoders, learner state).
	// Default: /data/praeceptor/models
	ModelPath string `koanf:"model_path"`

	// RefreshInterval is how often the model refresh pass runs. Each
	// pass reloads newer artifacts from disk and retrains the scorers.
	// Default: 24h
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// MinInteractions is the interaction count below which (together with
	// MinEnrollments) the engine routes straight to the popularity fallback.
	// Default: 5
	MinInteractions int `koanf:"min_interactions"`

	// MinEnrollments is the active enrollment count for the same gate.
	// Default: 2
	MinEnrollments int `koanf:"min_enrollments"`

	// DecayHorizonDays is the interaction age at which decay bottoms out.
	// Default: 365
	DecayHorizonDays int `koanf:"decay_horizon_days"`

	// MinDecay is the decay floor so old interactions never vanish entirely.
	// Default: 0.1
	MinDecay float64 `koanf:"min_decay"`

	// SimilarUserLimit is the collaborative neighborhood size.
	// Default: 20
	SimilarUserLimit int `koanf:"similar_user_limit"`

	// MinSimilarity drops neighbors below this cosine similarity.
	// Default: 0.1
	MinSimilarity float64 `koanf:"min_similarity"`

	// ContextBlend is the context share of the blended score (0-1).
	// The original score keeps the complement.
	// Default: 0.3
	ContextBlend float64 `koanf:"context_blend"`

	// MaxConfidence caps confidence after contextual re-scoring.
	// Default: 0.95
	MaxConfidence float64 `koanf:"max_confidence"`

	// Learning holds the feedback-learning loop settings.
	Learning LearningConfig `koanf:"learning"`
}

// LearningConfig holds the feedback-learning loop settings.
//
// Environment Variables:
//   - RECOMMEND_LEARNING_BUFFER_SIZE: Feedback buffer capacity (default: 1000)
//   - RECOMMEND_LEARNING_DRAIN_INTERVAL: Batch processing interval (default: 5m)
//   - RECOMMEND_LEARNING_HISTORY_LIMIT: Aggregate metric history cap (default: 100)
//   - RECOMMEND_LEARNING_STATE_PATH: Learner state artifact directory
//     (default: empty, state persistence disabled)
//   - RECOMMEND_FEEDBACK_RATE: Per-user feedback events per second (default: 5)
//   - RECOMMEND_FEEDBACK_BURST: Per-user feedback burst size (default: 20)
type LearningConfig struct {
	// BufferSize is the feedback buffer capacity. When full, the oldest
	// entry is evicted first. Default: 1000
	BufferSize int `koanf:"buffer_size"`

	// DrainInterval is how often the buffer is drained and processed.
	// Default: 5m
	DrainInterval time.Duration `koanf:"drain_interval"`

	// HistoryLimit caps the aggregate performance snapshot history.
	// Default: 100
	HistoryLimit int `koanf:"history_limit"`

	// TrendWindow is how many recent engagement samples feed the
	// trend slope. Default: 10
	TrendWindow int `koanf:"trend_window"`

	// MinTrendSamples is the minimum samples before a trend is reported.
	// Default: 5
	MinTrendSamples int `koanf:"min_trend_samples"`

	// StatePath is the directory for persisting learner state across
	// restarts. Empty disables state persistence.
	StatePath string `koanf:"state_path"`

	// FeedbackRate is the per-user sustained feedback rate (events/second).
	// Default: 5
	FeedbackRate float64 `koanf:"feedback_rate"`

	// FeedbackBurst is the per-user feedback burst size.
	// Default: 20
	FeedbackBurst int `koanf:"feedback_burst"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // Number of DuckDB threads (0 = use NumCPU)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development", "staging", "production" (default: "development")
}

// APIConfig holds API pagination, rate limiting, and CORS settings.
type APIConfig struct {
	DefaultPageSize   int           `koanf:"default_page_size"`
	MaxPageSize       int           `koanf:"max_page_size"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// JSON is recommended for production (structured, machine-parseable).
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Adds slight performance overhead.
	// Default: false
	Caller bool `koanf:"caller"`
}

// IsProduction returns true when the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// IsDevelopment returns true when the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// Load reads configuration from environment variables and optional config file.
// Configuration is loaded in the following order (later sources override
// earlier ones):
//  1. Built-in defaults
//  2. Config file (config.yaml if exists, or path specified in CONFIG_PATH)
//  3. Environment variables
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
