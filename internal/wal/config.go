// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package wal

import "time"

// Config holds journal settings. The application maps its wal.* config
// section onto this struct; defaults here match those koanf defaults.
type Config struct {
	// Path is the directory where BadgerDB stores its files.
	// Should be on a durable filesystem (not tmpfs).
	Path string

	// SyncWrites forces fsync after every write. Badger guarantees
	// atomicity either way; sync trades throughput for durability
	// across power loss.
	SyncWrites bool

	// EntryTTL bounds how long any entry lives. Unconfirmed entries
	// older than this are dropped as undeliverable; Badger also
	// expires the keys natively.
	EntryTTL time.Duration

	// RetryInterval is the time between relay replay passes.
	RetryInterval time.Duration

	// MaxRetries is the publish attempt limit per entry. Entries that
	// exceed it are deleted and logged as permanently failed.
	MaxRetries int

	// RetryBackoff is the base for per-entry exponential backoff.
	RetryBackoff time.Duration

	// CompactInterval is the time between compaction runs.
	CompactInterval time.Duration

	// GCRatio is the Badger value log garbage collection ratio.
	GCRatio float64

	// CloseTimeout bounds graceful shutdown of the database.
	CloseTimeout time.Duration

	// Badger tuning.
	MemTableSize     int64
	ValueLogFileSize int64
	NumCompactors    int

	// Compression enables Snappy compression for stored entries.
	Compression bool
}

// DefaultConfig returns defaults that prioritize durability of
// feedback over write throughput.
func DefaultConfig() Config {
	return Config{
		Path:             "/data/praeceptor/wal",
		SyncWrites:       false,
		EntryTTL:         72 * time.Hour,
		RetryInterval:    30 * time.Second,
		MaxRetries:       100,
		RetryBackoff:     5 * time.Second,
		CompactInterval:  10 * time.Minute,
		GCRatio:          0.5,
		CloseTimeout:     30 * time.Second,
		MemTableSize:     16 * 1024 * 1024,
		ValueLogFileSize: 64 * 1024 * 1024,
		NumCompactors:    2,
		Compression:      true,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Path == "" {
		return &ConfigError{Field: "Path", Message: "journal path is required"}
	}
	if c.EntryTTL < time.Hour {
		return &ConfigError{Field: "EntryTTL", Message: "must be at least 1 hour"}
	}
	if c.RetryInterval < time.Second {
		return &ConfigError{Field: "RetryInterval", Message: "must be at least 1 second"}
	}
	if c.MaxRetries < 1 {
		return &ConfigError{Field: "MaxRetries", Message: "must be at least 1"}
	}
	if c.RetryBackoff < time.Second {
		return &ConfigError{Field: "RetryBackoff", Message: "must be at least 1 second"}
	}
	if c.CompactInterval < time.Minute {
		return &ConfigError{Field: "CompactInterval", Message: "must be at least 1 minute"}
	}
	if c.MemTableSize < 1024*1024 {
		return &ConfigError{Field: "MemTableSize", Message: "must be at least 1MB"}
	}
	if c.ValueLogFileSize < 1024*1024 {
		return &ConfigError{Field: "ValueLogFileSize", Message: "must be at least 1MB"}
	}
	if c.NumCompactors < 2 {
		return &ConfigError{Field: "NumCompactors", Message: "must be at least 2 (BadgerDB requirement)"}
	}
	return nil
}

// ConfigError reports an invalid journal configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "wal config error: " + e.Field + ": " + e.Message
}
