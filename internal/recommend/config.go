// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package recommend

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Config holds engine tuning parameters. Use DefaultConfig for
// production-ready values and adjust selectively.
type Config struct {
	// Limits bounds request shape.
	Limits LimitsConfig `json:"limits"`

	// Gate controls the data sufficiency check.
	Gate GateConfig `json:"gate"`

	// Decay controls temporal weighting of interactions.
	Decay DecayConfig `json:"decay"`

	// Context controls contextual re-scoring.
	Context ContextConfig `json:"context"`

	// Training bounds training passes.
	Training TrainingConfig `json:"training"`

	// Cache controls the served-response cache.
	Cache CacheConfig `json:"cache"`
}

// LimitsConfig bounds request shape.
type LimitsConfig struct {
	// DefaultLimit is applied when a request carries no limit.
	// Default: 10.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit clamps the largest candidate list a request may ask
	// for. Default: 50.
	MaxLimit int `json:"max_limit"`

	// RequestTimeout is the single per-request deadline covering every
	// pipeline stage. On expiry the engine serves the popularity
	// fallback. Default: 10s.
	RequestTimeout time.Duration `json:"request_timeout"`
}

// GateConfig controls the data sufficiency check. A user below both
// thresholds is served the popularity fallback without running scorers.
type GateConfig struct {
	// MinInteractions is the interaction count at which a user is
	// considered personalizable. Default: 5.
	MinInteractions int64 `json:"min_interactions"`

	// MinEnrollments is the active enrollment count at which a user is
	// considered personalizable. Default: 2.
	MinEnrollments int64 `json:"min_enrollments"`
}

// DecayConfig controls temporal weighting of interactions.
type DecayConfig struct {
	// HorizonDays is the age at which an interaction's weight reaches
	// the floor. Default: 365.
	HorizonDays float64 `json:"horizon_days"`

	// Floor is the minimum decay multiplier. Default: 0.1.
	Floor float64 `json:"floor"`
}

// ContextConfig controls contextual re-scoring.
type ContextConfig struct {
	// Blend is the share of the final confidence taken from the
	// context score; the rest stays with the original confidence.
	// Default: 0.3.
	Blend float64 `json:"blend"`

	// MaxConfidence caps blended confidence. Default: 0.95.
	MaxConfidence float64 `json:"max_confidence"`
}

// TrainingConfig bounds training passes.
type TrainingConfig struct {
	// Timeout bounds a full training pass across all scorers.
	// Default: 10m.
	Timeout time.Duration `json:"timeout"`
}

// CacheConfig controls the served-response cache.
type CacheConfig struct {
	// Enabled toggles response caching. Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the response cache lifetime. Default: 5m.
	TTL time.Duration `json:"ttl"`

	// InvalidateOnTrain clears the cache when a training pass
	// completes. Default: true.
	InvalidateOnTrain bool `json:"invalidate_on_train"`
}

// DefaultConfig returns production-ready engine defaults.
func DefaultConfig() *Config {
	return &Config{
		Limits: LimitsConfig{
			DefaultLimit:   10,
			MaxLimit:       50,
			RequestTimeout: 10 * time.Second,
		},
		Gate: GateConfig{
			MinInteractions: 5,
			MinEnrollments:  2,
		},
		Decay: DecayConfig{
			HorizonDays: 365,
			Floor:       0.1,
		},
		Context: ContextConfig{
			Blend:         0.3,
			MaxConfidence: 0.95,
		},
		Training: TrainingConfig{
			Timeout: 10 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled:           true,
			TTL:               5 * time.Minute,
			InvalidateOnTrain: true,
		},
	}
}

// Validate checks config invariants.
//
//nolint:gocyclo // sequential field validation
func (c *Config) Validate() error {
	if c.Limits.DefaultLimit < 1 {
		return fmt.Errorf("limits.default_limit must be >= 1, got %d", c.Limits.DefaultLimit)
	}
	if c.Limits.MaxLimit < c.Limits.DefaultLimit {
		return fmt.Errorf("limits.max_limit must be >= default_limit, got %d < %d",
			c.Limits.MaxLimit, c.Limits.DefaultLimit)
	}
	if c.Limits.RequestTimeout <= 0 {
		return fmt.Errorf("limits.request_timeout must be positive, got %v", c.Limits.RequestTimeout)
	}
	if c.Gate.MinInteractions < 0 {
		return fmt.Errorf("gate.min_interactions must be >= 0, got %d", c.Gate.MinInteractions)
	}
	if c.Gate.MinEnrollments < 0 {
		return fmt.Errorf("gate.min_enrollments must be >= 0, got %d", c.Gate.MinEnrollments)
	}
	if c.Decay.HorizonDays <= 0 {
		return fmt.Errorf("decay.horizon_days must be positive, got %v", c.Decay.HorizonDays)
	}
	if c.Decay.Floor < 0 || c.Decay.Floor >= 1 {
		return fmt.Errorf("decay.floor must be in [0, 1), got %v", c.Decay.Floor)
	}
	if c.Context.Blend < 0 || c.Context.Blend > 1 {
		return fmt.Errorf("context.blend must be in [0, 1], got %v", c.Context.Blend)
	}
	if c.Context.MaxConfidence <= 0 || c.Context.MaxConfidence > 1 {
		return fmt.Errorf("context.max_confidence must be in (0, 1], got %v", c.Context.MaxConfidence)
	}
	if c.Training.Timeout <= 0 {
		return fmt.Errorf("training.timeout must be positive, got %v", c.Training.Timeout)
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when cache is enabled, got %v", c.Cache.TTL)
	}
	return nil
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	// Direct field copy - all nested structs contain only value types.
	clone := *c
	return &clone
}

// MarshalJSON renders durations as human-readable strings.
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	return json.Marshal(&struct {
		*Alias
		Limits struct {
			DefaultLimit   int    `json:"default_limit"`
			MaxLimit       int    `json:"max_limit"`
			RequestTimeout string `json:"request_timeout"`
		} `json:"limits"`
		Training struct {
			Timeout string `json:"timeout"`
		} `json:"training"`
		Cache struct {
			Enabled           bool   `json:"enabled"`
			TTL               string `json:"ttl"`
			InvalidateOnTrain bool   `json:"invalidate_on_train"`
		} `json:"cache"`
	}{
		Alias: (*Alias)(c),
		Limits: struct {
			DefaultLimit   int    `json:"default_limit"`
			MaxLimit       int    `json:"max_limit"`
			RequestTimeout string `json:"request_timeout"`
		}{
			DefaultLimit:   c.Limits.DefaultLimit,
			MaxLimit:       c.Limits.MaxLimit,
			RequestTimeout: c.Limits.RequestTimeout.String(),
		},
		Training: struct {
			Timeout string `json:"timeout"`
		}{
			Timeout: c.Training.Timeout.String(),
		},
		Cache: struct {
			Enabled           bool   `json:"enabled"`
			TTL               string `json:"ttl"`
			InvalidateOnTrain bool   `json:"invalidate_on_train"`
		}{
			Enabled:           c.Cache.Enabled,
			TTL:               c.Cache.TTL.String(),
			InvalidateOnTrain: c.Cache.InvalidateOnTrain,
		},
	})
}
