// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	// NATS defaults (enabled, embedded)
	if cfg.NATS.Enabled != true {
		t.Errorf("NATS.Enabled should be true by default")
	}
	if cfg.NATS.EmbeddedServer != true {
		t.Errorf("NATS.EmbeddedServer should be true by default")
	}
	if cfg.NATS.URL != "nats://127.0.0.1:4222" {
		t.Errorf("NATS.URL = %q, want nats://127.0.0.1:4222", cfg.NATS.URL)
	}
	if cfg.NATS.MaxMemory != 1<<30 {
		t.Errorf("NATS.MaxMemory = %d, want 1GB", cfg.NATS.MaxMemory)
	}
	if cfg.NATS.MaxStore != 10<<30 {
		t.Errorf("NATS.MaxStore = %d, want 10GB", cfg.NATS.MaxStore)
	}
	if cfg.NATS.RouterPoisonQueueTopic != "dlq.feedback" {
		t.Errorf("NATS.RouterPoisonQueueTopic = %q, want dlq.feedback", cfg.NATS.RouterPoisonQueueTopic)
	}

	// WAL defaults
	if cfg.WAL.Enabled != true {
		t.Errorf("WAL.Enabled should be true by default")
	}
	if cfg.WAL.Retention != 72*time.Hour {
		t.Errorf("WAL.Retention = %v, want 72h", cfg.WAL.Retention)
	}

	// Recommendation engine defaults
	if cfg.Recommend.Enabled != true {
		t.Errorf("Recommend.Enabled should be true by default")
	}
	if cfg.Recommend.RequestTimeout != 10*time.Second {
		t.Errorf("Recommend.RequestTimeout = %v, want 10s", cfg.Recommend.RequestTimeout)
	}
	if cfg.Recommend.SimilarUserLimit != 20 {
		t.Errorf("Recommend.SimilarUserLimit = %d, want 20", cfg.Recommend.SimilarUserLimit)
	}
	if cfg.Recommend.MinSimilarity != 0.1 {
		t.Errorf("Recommend.MinSimilarity = %v, want 0.1", cfg.Recommend.MinSimilarity)
	}
	if cfg.Recommend.ContextBlend != 0.3 {
		t.Errorf("Recommend.ContextBlend = %v, want 0.3", cfg.Recommend.ContextBlend)
	}
	if cfg.Recommend.Learning.BufferSize != 1000 {
		t.Errorf("Recommend.Learning.BufferSize = %d, want 1000", cfg.Recommend.Learning.BufferSize)
	}
	if cfg.Recommend.Learning.DrainInterval != 5*time.Minute {
		t.Errorf("Recommend.Learning.DrainInterval = %v, want 5m", cfg.Recommend.Learning.DrainInterval)
	}
	if cfg.Recommend.Learning.HistoryLimit != 100 {
		t.Errorf("Recommend.Learning.HistoryLimit = %d, want 100", cfg.Recommend.Learning.HistoryLimit)
	}

	// Database defaults
	if cfg.Database.Path != "/data/praeceptor.duckdb" {
		t.Errorf("Database.Path = %q, want /data/praeceptor.duckdb", cfg.Database.Path)
	}
	if cfg.Database.MaxMemory != "2GB" {
		t.Errorf("Database.MaxMemory = %q, want 2GB", cfg.Database.MaxMemory)
	}

	// Server defaults
	if cfg.Server.Port != 8591 {
		t.Errorf("Server.Port = %d, want 8591", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}

	// API defaults
	if cfg.API.DefaultPageSize != 20 {
		t.Errorf("API.DefaultPageSize = %d, want 20", cfg.API.DefaultPageSize)
	}
	if cfg.API.MaxPageSize != 100 {
		t.Errorf("API.MaxPageSize = %d, want 100", cfg.API.MaxPageSize)
	}
	if len(cfg.API.CORSOrigins) != 1 || cfg.API.CORSOrigins[0] != "*" {
		t.Errorf("API.CORSOrigins = %v, want [*]", cfg.API.CORSOrigins)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Server
		{"HTTP_PORT", "server.port"},
		{"HTTP_HOST", "server.host"},
		{"HTTP_TIMEOUT", "server.timeout"},
		{"ENVIRONMENT", "server.environment"},

		// Database
		{"DUCKDB_PATH", "database.path"},
		{"DUCKDB_MAX_MEMORY", "database.max_memory"},
		{"DUCKDB_THREADS", "database.threads"},

		// NATS
		{"NATS_ENABLED", "nats.enabled"},
		{"NATS_URL", "nats.url"},
		{"NATS_EMBEDDED", "nats.embedded_server"},
		{"NATS_MAX_MEMORY", "nats.max_memory"},
		{"NATS_RETENTION_DAYS", "nats.stream_retention_days"},
		{"NATS_ROUTER_POISON_TOPIC", "nats.router_poison_queue_topic"},

		// WAL
		{"WAL_ENABLED", "wal.enabled"},
		{"WAL_DIR", "wal.dir"},
		{"WAL_RETENTION", "wal.retention"},

		// Recommendation engine
		{"RECOMMEND_REQUEST_TIMEOUT", "recommend.request_timeout"},
		{"RECOMMEND_SIMILAR_USERS", "recommend.similar_user_limit"},
		{"RECOMMEND_MIN_SIMILARITY", "recommend.min_similarity"},
		{"RECOMMEND_CONTEXT_BLEND", "recommend.context_blend"},
		{"RECOMMEND_LEARNING_BUFFER_SIZE", "recommend.learning.buffer_size"},
		{"RECOMMEND_LEARNING_DRAIN_INTERVAL", "recommend.learning.drain_interval"},
		{"RECOMMEND_FEEDBACK_RATE", "recommend.learning.feedback_rate"},

		// API
		{"RATE_LIMIT_REQUESTS", "api.rate_limit_reqs"},
		{"DISABLE_RATE_LIMIT", "api.rate_limit_disabled"},
		{"CORS_ORIGINS", "api.cors_origins"},

		// Logging
		{"LOG_LEVEL", "logging.level"},
		{"LOG_FORMAT", "logging.format"},

		// Unknown (should return empty)
		{"RANDOM_VAR", ""},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := envTransformFunc(tt.input)
			if result != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestFindConfigFile verifies config file discovery
func TestFindConfigFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	defer func() {
		if err := os.Chdir(origDir); err != nil {
			t.Errorf("Failed to restore working directory: %v", err)
		}
	}()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	t.Run("no config file exists", func(t *testing.T) {
		os.Unsetenv(ConfigPathEnvVar)
		result := findConfigFile()
		if result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("test: true"), 0644); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		defer os.Remove(configPath)

		os.Unsetenv(ConfigPathEnvVar)
		result := findConfigFile()
		if result != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", result)
		}
	})

	t.Run("CONFIG_PATH env var takes precedence", func(t *testing.T) {
		customPath := filepath.Join(tmpDir, "custom_config.yaml")
		if err := os.WriteFile(customPath, []byte("test: true"), 0644); err != nil {
			t.Fatalf("Failed to create custom config file: %v", err)
		}
		defer os.Remove(customPath)

		os.Setenv(ConfigPathEnvVar, customPath)
		defer os.Unsetenv(ConfigPathEnvVar)

		result := findConfigFile()
		if result != customPath {
			t.Errorf("findConfigFile() = %q, want %q", result, customPath)
		}
	})

	t.Run("CONFIG_PATH env var with non-existent file", func(t *testing.T) {
		os.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
		defer os.Unsetenv(ConfigPathEnvVar)

		result := findConfigFile()
		if result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})
}

// TestLoadWithKoanfEnvVars tests loading configuration from environment variables
func TestLoadWithKoanfEnvVars(t *testing.T) {
	os.Clearenv()

	// Set some custom values to override defaults
	os.Setenv("HTTP_PORT", "9000")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("RECOMMEND_SIMILAR_USERS", "10")
	os.Setenv("RECOMMEND_LEARNING_BUFFER_SIZE", "250")
	os.Setenv("WAL_ENABLED", "false")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	// Verify custom overrides
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Recommend.SimilarUserLimit != 10 {
		t.Errorf("Recommend.SimilarUserLimit = %d, want 10", cfg.Recommend.SimilarUserLimit)
	}
	if cfg.Recommend.Learning.BufferSize != 250 {
		t.Errorf("Recommend.Learning.BufferSize = %d, want 250", cfg.Recommend.Learning.BufferSize)
	}
	if cfg.WAL.Enabled {
		t.Errorf("WAL.Enabled = true, want false")
	}

	// Verify defaults are still applied for unset values
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
	if cfg.Database.MaxMemory != "2GB" {
		t.Errorf("Database.MaxMemory = %q, want 2GB (default)", cfg.Database.MaxMemory)
	}
	if cfg.Recommend.RequestTimeout != 10*time.Second {
		t.Errorf("Recommend.RequestTimeout = %v, want 10s (default)", cfg.Recommend.RequestTimeout)
	}
}

// TestLoadWithKoanfConfigFile tests loading configuration from a YAML file
func TestLoadWithKoanfConfigFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configContent := `
server:
  port: 8888
  host: "127.0.0.1"

recommend:
  default_limit: 15
  min_similarity: 0.25
  learning:
    buffer_size: 500

logging:
  level: "warn"
`
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	os.Clearenv()
	os.Setenv(ConfigPathEnvVar, configPath)
	defer os.Unsetenv(ConfigPathEnvVar)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Recommend.DefaultLimit != 15 {
		t.Errorf("Recommend.DefaultLimit = %d, want 15", cfg.Recommend.DefaultLimit)
	}
	if cfg.Recommend.MinSimilarity != 0.25 {
		t.Errorf("Recommend.MinSimilarity = %v, want 0.25", cfg.Recommend.MinSimilarity)
	}
	if cfg.Recommend.Learning.BufferSize != 500 {
		t.Errorf("Recommend.Learning.BufferSize = %d, want 500", cfg.Recommend.Learning.BufferSize)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}

	// Values absent from the file keep their defaults
	if cfg.Recommend.MaxLimit != 50 {
		t.Errorf("Recommend.MaxLimit = %d, want 50 (default)", cfg.Recommend.MaxLimit)
	}
}

// TestEnvOverridesConfigFile verifies env vars win over the config file
func TestEnvOverridesConfigFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configContent := `
server:
  port: 8888
`
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	os.Clearenv()
	os.Setenv(ConfigPathEnvVar, configPath)
	os.Setenv("HTTP_PORT", "9999")
	defer os.Clearenv()

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999 (env should override file)", cfg.Server.Port)
	}
}

// TestProcessSliceFields tests comma-separated env values become slices
func TestProcessSliceFields(t *testing.T) {
	os.Clearenv()
	os.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")
	defer os.Clearenv()

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	want := []string{"https://app.example.com", "https://admin.example.com"}
	if len(cfg.API.CORSOrigins) != len(want) {
		t.Fatalf("API.CORSOrigins = %v, want %v", cfg.API.CORSOrigins, want)
	}
	for i, origin := range want {
		if cfg.API.CORSOrigins[i] != origin {
			t.Errorf("API.CORSOrigins[%d] = %q, want %q", i, cfg.API.CORSOrigins[i], origin)
		}
	}
}
