// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateNATS(); err != nil {
		return err
	}

	if err := c.validateWAL(); err != nil {
		return err
	}

	if err := c.validateRecommend(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateAPI(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateNATS validates NATS configuration (only if enabled)
func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}

	if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}

	return c.validateNATSLimits()
}

// NATS limit constants
const (
	natsMinMemory      = 64 * 1024 * 1024  // 64MB
	natsMinStore       = 100 * 1024 * 1024 // 100MB
	natsMaxRetention   = 365
	natsMinRetention   = 1
	natsMaxSubscribers = 32
)

// validateNATSLimits validates NATS storage and processing limits
func (c *Config) validateNATSLimits() error {
	validators := []func() error{
		c.validateNATSMemory,
		c.validateNATSStore,
		c.validateNATSRetention,
		c.validateNATSSubscribers,
	}

	for _, validator := range validators {
		if err := validator(); err != nil {
			return err
		}
	}
	return nil
}

// validateNATSMemory validates NATS max memory setting
func (c *Config) validateNATSMemory() error {
	if c.NATS.MaxMemory < natsMinMemory {
		return fmt.Errorf("NATS_MAX_MEMORY must be at least 64MB (67108864 bytes)")
	}
	return nil
}

// validateNATSStore validates NATS max store setting
func (c *Config) validateNATSStore() error {
	if c.NATS.MaxStore < natsMinStore {
		return fmt.Errorf("NATS_MAX_STORE must be at least 100MB (104857600 bytes)")
	}
	return nil
}

// validateNATSRetention validates NATS stream retention days
func (c *Config) validateNATSRetention() error {
	if c.NATS.StreamRetentionDays < natsMinRetention || c.NATS.StreamRetentionDays > natsMaxRetention {
		return fmt.Errorf("NATS_RETENTION_DAYS must be between 1 and 365")
	}
	return nil
}

// validateNATSSubscribers validates NATS subscribers count
func (c *Config) validateNATSSubscribers() error {
	if c.NATS.SubscribersCount < 1 || c.NATS.SubscribersCount > natsMaxSubscribers {
		return fmt.Errorf("NATS_SUBSCRIBERS must be between 1 and 32")
	}
	return nil
}

// validNATSSchemes defines the allowed NATS URL schemes
var validNATSSchemes = map[string]bool{
	"nats": true,
	"tls":  true,
	"ws":   true,
	"wss":  true,
}

// validateNATSURL validates a NATS connection URL
func validateNATSURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL is empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("URL is not parseable: %w", err)
	}

	if !validNATSSchemes[parsed.Scheme] {
		return fmt.Errorf("URL scheme must be one of: nats, tls, ws, wss (got %q)", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL is missing a host")
	}

	return nil
}

// validateWAL validates the feedback journal configuration (only if enabled)
func (c *Config) validateWAL() error {
	if !c.WAL.Enabled {
		return nil
	}

	if c.WAL.Dir == "" {
		return fmt.Errorf("WAL_DIR is required when WAL_ENABLED=true")
	}
	if c.WAL.Retention < time.Minute {
		return fmt.Errorf("WAL_RETENTION must be at least 1m")
	}
	if c.WAL.GCInterval < time.Minute {
		return fmt.Errorf("WAL_GC_INTERVAL must be at least 1m")
	}
	return nil
}

// validateRecommend validates recommendation engine configuration
// (only if enabled)
func (c *Config) validateRecommend() error {
	if !c.Recommend.Enabled {
		return nil
	}

	validators := []func() error{
		c.validateRecommendTimeout,
		c.validateRecommendLimits,
		c.validateRecommendModelPath,
		c.validateRecommendScoring,
		c.validateLearning,
	}

	for _, validator := range validators {
		if err := validator(); err != nil {
			return err
		}
	}
	return nil
}

// validateRecommendTimeout validates the per-request pipeline deadline
func (c *Config) validateRecommendTimeout() error {
	if c.Recommend.RequestTimeout < 100*time.Millisecond || c.Recommend.RequestTimeout > time.Minute {
		return fmt.Errorf("RECOMMEND_REQUEST_TIMEOUT must be between 100ms and 1m")
	}
	return nil
}

// validateRecommendLimits validates candidate count bounds
func (c *Config) validateRecommendLimits() error {
	if c.Recommend.DefaultLimit < 1 {
		return fmt.Errorf("RECOMMEND_DEFAULT_LIMIT must be at least 1")
	}
	if c.Recommend.MaxLimit < c.Recommend.DefaultLimit {
		return fmt.Errorf("RECOMMEND_MAX_LIMIT must be >= RECOMMEND_DEFAULT_LIMIT")
	}
	if c.Recommend.SimilarUserLimit < 1 {
		return fmt.Errorf("RECOMMEND_SIMILAR_USERS must be at least 1")
	}
	return nil
}

// validateRecommendModelPath validates the model artifact directory
func (c *Config) validateRecommendModelPath() error {
	if c.Recommend.ModelPath == "" {
		return fmt.Errorf("RECOMMEND_MODEL_PATH is required when RECOMMEND_ENABLED=true")
	}
	return nil
}

// validateRecommendScoring validates scoring constants. The bounds keep
// scores and confidences inside [0, 1] arithmetic.
func (c *Config) validateRecommendScoring() error {
	if c.Recommend.MinSimilarity < 0 || c.Recommend.MinSimilarity > 1 {
		return fmt.Errorf("RECOMMEND_MIN_SIMILARITY must be between 0 and 1")
	}
	if c.Recommend.MinDecay <= 0 || c.Recommend.MinDecay > 1 {
		return fmt.Errorf("RECOMMEND_MIN_DECAY must be between 0 (exclusive) and 1")
	}
	if c.Recommend.DecayHorizonDays < 1 {
		return fmt.Errorf("RECOMMEND_DECAY_HORIZON_DAYS must be at least 1")
	}
	if c.Recommend.ContextBlend < 0 || c.Recommend.ContextBlend > 1 {
		return fmt.Errorf("RECOMMEND_CONTEXT_BLEND must be between 0 and 1")
	}
	if c.Recommend.MaxConfidence <= 0 || c.Recommend.MaxConfidence > 1 {
		return fmt.Errorf("RECOMMEND_MAX_CONFIDENCE must be between 0 (exclusive) and 1")
	}
	return nil
}

// validateLearning validates the feedback-learning loop configuration
func (c *Config) validateLearning() error {
	l := c.Recommend.Learning

	if l.BufferSize < 1 {
		return fmt.Errorf("RECOMMEND_LEARNING_BUFFER_SIZE must be at least 1")
	}
	if l.DrainInterval < time.Second {
		return fmt.Errorf("RECOMMEND_LEARNING_DRAIN_INTERVAL must be at least 1s")
	}
	if l.HistoryLimit < 1 {
		return fmt.Errorf("RECOMMEND_LEARNING_HISTORY_LIMIT must be at least 1")
	}
	if l.TrendWindow < 2 {
		return fmt.Errorf("RECOMMEND_LEARNING_TREND_WINDOW must be at least 2")
	}
	if l.MinTrendSamples < 2 || l.MinTrendSamples > l.TrendWindow {
		return fmt.Errorf("RECOMMEND_LEARNING_MIN_SAMPLES must be between 2 and RECOMMEND_LEARNING_TREND_WINDOW")
	}
	if l.FeedbackRate <= 0 {
		return fmt.Errorf("RECOMMEND_FEEDBACK_RATE must be positive")
	}
	if l.FeedbackBurst < 1 {
		return fmt.Errorf("RECOMMEND_FEEDBACK_BURST must be at least 1")
	}
	return nil
}

// validateDatabase validates DuckDB configuration
func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be non-negative (0 = all cores)")
	}
	return nil
}

// validEnvironments defines the allowed deployment environments
var validEnvironments = map[string]bool{
	"development": true,
	"staging":     true,
	"production":  true,
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout < time.Second {
		return fmt.Errorf("HTTP_TIMEOUT must be at least 1s")
	}
	if !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("ENVIRONMENT must be one of: development, staging, production")
	}
	return nil
}

// Rate limit bounds. Values outside these ranges indicate misconfiguration
// rather than intent.
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateAPI validates API pagination and rate limiting configuration
func (c *Config) validateAPI() error {
	if err := c.validatePageSizes(); err != nil {
		return err
	}
	return c.validateRateLimits()
}

// validatePageSizes validates pagination bounds
func (c *Config) validatePageSizes() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be at least 1")
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE must be >= API_DEFAULT_PAGE_SIZE")
	}
	return nil
}

// validateRateLimits validates rate limiting configuration bounds
func (c *Config) validateRateLimits() error {
	if c.API.RateLimitDisabled {
		return nil
	}

	if c.API.RateLimitReqs < minRateLimitRequests || c.API.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.API.RateLimitWindow < minRateLimitWindow || c.API.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if err := c.validateLogLevel(); err != nil {
		return err
	}
	return c.validateLogFormat()
}

// validateLogLevel validates the log level configuration
func (c *Config) validateLogLevel() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	return nil
}

// validateLogFormat validates the log format configuration
func (c *Config) validateLogFormat() error {
	if c.Logging.Format == "" {
		return nil
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
