// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package config

import (
	"strings"
	"testing"
	"time"
)

// TestValidateDefaults verifies the built-in defaults pass validation.
// A default config that fails Validate would make a bare startup impossible.
func TestValidateDefaults(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaultConfig().Validate() error = %v, want nil", err)
	}
}

// TestValidateNATSURL verifies NATS URL validation
func TestValidateNATSURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid nats URL",
			url:     "nats://127.0.0.1:4222",
			wantErr: false,
		},
		{
			name:    "valid tls URL",
			url:     "tls://nats.example.com:4222",
			wantErr: false,
		},
		{
			name:    "valid websocket URL",
			url:     "ws://nats.example.com:8080",
			wantErr: false,
		},
		{
			name:    "valid secure websocket URL",
			url:     "wss://nats.example.com:443",
			wantErr: false,
		},
		{
			name:    "empty URL",
			url:     "",
			wantErr: true,
			errMsg:  "empty",
		},
		{
			name:    "http scheme rejected",
			url:     "http://nats.example.com:4222",
			wantErr: true,
			errMsg:  "scheme",
		},
		{
			name:    "missing host",
			url:     "nats://",
			wantErr: true,
			errMsg:  "host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateNATSURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("validateNATSURL(%q) = nil, want error", tt.url)
				}
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("validateNATSURL(%q) error = %v, want containing %q", tt.url, err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("validateNATSURL(%q) error = %v, want nil", tt.url, err)
			}
		})
	}
}

// TestValidateServer verifies server configuration validation
func TestValidateServer(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "timeout too small",
			mutate:  func(c *Config) { c.Server.Timeout = 100 * time.Millisecond },
			wantErr: "HTTP_TIMEOUT",
		},
		{
			name:    "unknown environment",
			mutate:  func(c *Config) { c.Server.Environment = "qa" },
			wantErr: "ENVIRONMENT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.validateServer()
			checkValidationResult(t, err, tt.wantErr)
		})
	}
}

// TestValidateRecommend verifies recommendation engine validation
func TestValidateRecommend(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "disabled skips validation",
			mutate:  func(c *Config) { c.Recommend.Enabled = false; c.Recommend.RequestTimeout = 0 },
			wantErr: "",
		},
		{
			name:    "timeout too small",
			mutate:  func(c *Config) { c.Recommend.RequestTimeout = 10 * time.Millisecond },
			wantErr: "RECOMMEND_REQUEST_TIMEOUT",
		},
		{
			name:    "timeout too large",
			mutate:  func(c *Config) { c.Recommend.RequestTimeout = 5 * time.Minute },
			wantErr: "RECOMMEND_REQUEST_TIMEOUT",
		},
		{
			name:    "max limit below default limit",
			mutate:  func(c *Config) { c.Recommend.MaxLimit = 5 },
			wantErr: "RECOMMEND_MAX_LIMIT",
		},
		{
			name:    "zero neighborhood",
			mutate:  func(c *Config) { c.Recommend.SimilarUserLimit = 0 },
			wantErr: "RECOMMEND_SIMILAR_USERS",
		},
		{
			name:    "empty model path",
			mutate:  func(c *Config) { c.Recommend.ModelPath = "" },
			wantErr: "RECOMMEND_MODEL_PATH",
		},
		{
			name:    "similarity out of range",
			mutate:  func(c *Config) { c.Recommend.MinSimilarity = 1.5 },
			wantErr: "RECOMMEND_MIN_SIMILARITY",
		},
		{
			name:    "context blend out of range",
			mutate:  func(c *Config) { c.Recommend.ContextBlend = -0.1 },
			wantErr: "RECOMMEND_CONTEXT_BLEND",
		},
		{
			name:    "zero max confidence",
			mutate:  func(c *Config) { c.Recommend.MaxConfidence = 0 },
			wantErr: "RECOMMEND_MAX_CONFIDENCE",
		},
		{
			name:    "zero decay floor",
			mutate:  func(c *Config) { c.Recommend.MinDecay = 0 },
			wantErr: "RECOMMEND_MIN_DECAY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.validateRecommend()
			checkValidationResult(t, err, tt.wantErr)
		})
	}
}

// TestValidateLearning verifies feedback-learning loop validation
func TestValidateLearning(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "zero buffer",
			mutate:  func(c *Config) { c.Recommend.Learning.BufferSize = 0 },
			wantErr: "RECOMMEND_LEARNING_BUFFER_SIZE",
		},
		{
			name:    "drain interval too small",
			mutate:  func(c *Config) { c.Recommend.Learning.DrainInterval = 100 * time.Millisecond },
			wantErr: "RECOMMEND_LEARNING_DRAIN_INTERVAL",
		},
		{
			name:    "zero history limit",
			mutate:  func(c *Config) { c.Recommend.Learning.HistoryLimit = 0 },
			wantErr: "RECOMMEND_LEARNING_HISTORY_LIMIT",
		},
		{
			name:    "min samples above window",
			mutate:  func(c *Config) { c.Recommend.Learning.MinTrendSamples = 50 },
			wantErr: "RECOMMEND_LEARNING_MIN_SAMPLES",
		},
		{
			name:    "negative feedback rate",
			mutate:  func(c *Config) { c.Recommend.Learning.FeedbackRate = -1 },
			wantErr: "RECOMMEND_FEEDBACK_RATE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.validateLearning()
			checkValidationResult(t, err, tt.wantErr)
		})
	}
}

// TestValidateWAL verifies feedback journal validation
func TestValidateWAL(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "disabled skips validation",
			mutate:  func(c *Config) { c.WAL.Enabled = false; c.WAL.Dir = "" },
			wantErr: "",
		},
		{
			name:    "empty dir",
			mutate:  func(c *Config) { c.WAL.Dir = "" },
			wantErr: "WAL_DIR",
		},
		{
			name:    "retention too small",
			mutate:  func(c *Config) { c.WAL.Retention = time.Second },
			wantErr: "WAL_RETENTION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.validateWAL()
			checkValidationResult(t, err, tt.wantErr)
		})
	}
}

// TestValidateAPI verifies API configuration validation
func TestValidateAPI(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "zero page size",
			mutate:  func(c *Config) { c.API.DefaultPageSize = 0 },
			wantErr: "API_DEFAULT_PAGE_SIZE",
		},
		{
			name:    "max below default",
			mutate:  func(c *Config) { c.API.MaxPageSize = 10 },
			wantErr: "API_MAX_PAGE_SIZE",
		},
		{
			name:    "rate limit requests out of range",
			mutate:  func(c *Config) { c.API.RateLimitReqs = 0 },
			wantErr: "RATE_LIMIT_REQUESTS",
		},
		{
			name:    "rate limit disabled skips bounds",
			mutate:  func(c *Config) { c.API.RateLimitDisabled = true; c.API.RateLimitReqs = 0 },
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.validateAPI()
			checkValidationResult(t, err, tt.wantErr)
		})
	}
}

// TestValidateLogging verifies logging configuration validation
func TestValidateLogging(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr string
	}{
		{name: "valid json info", level: "info", format: "json", wantErr: ""},
		{name: "valid console debug", level: "debug", format: "console", wantErr: ""},
		{name: "empty format allowed", level: "warn", format: "", wantErr: ""},
		{name: "invalid level", level: "verbose", format: "json", wantErr: "LOG_LEVEL"},
		{name: "invalid format", level: "info", format: "xml", wantErr: "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Logging.Level = tt.level
			cfg.Logging.Format = tt.format
			err := cfg.validateLogging()
			checkValidationResult(t, err, tt.wantErr)
		})
	}
}

// TestEnvironmentHelpers verifies IsProduction and IsDevelopment
func TestEnvironmentHelpers(t *testing.T) {
	cfg := defaultConfig()

	if !cfg.IsDevelopment() {
		t.Errorf("IsDevelopment() = false for default config, want true")
	}
	if cfg.IsProduction() {
		t.Errorf("IsProduction() = true for default config, want false")
	}

	cfg.Server.Environment = "production"
	if !cfg.IsProduction() {
		t.Errorf("IsProduction() = false for production config, want true")
	}
	if cfg.IsDevelopment() {
		t.Errorf("IsDevelopment() = true for production config, want false")
	}
}

// checkValidationResult asserts the presence or absence of a validation error
func checkValidationResult(t *testing.T, err error, wantErr string) {
	t.Helper()
	if wantErr == "" {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", wantErr)
	}
	if !strings.Contains(err.Error(), wantErr) {
		t.Errorf("error = %v, want containing %q", err, wantErr)
	}
}
