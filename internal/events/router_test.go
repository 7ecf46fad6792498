// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package events

import (
	"context"
	"testing"
	"time"
)

func TestDefaultRouterConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultRouterConfig()

	if cfg.CloseTimeout != 30*time.Second {
		t.Errorf("CloseTimeout = %v, want %v", cfg.CloseTimeout, 30*time.Second)
	}
	if cfg.RetryMaxRetries != 3 {
		t.Errorf("RetryMaxRetries = %d, want 3", cfg.RetryMaxRetries)
	}
	if cfg.RetryInitialInterval != 100*time.Millisecond {
		t.Errorf("RetryInitialInterval = %v, want %v", cfg.RetryInitialInterval, 100*time.Millisecond)
	}
	if cfg.RetryMaxInterval != time.Minute {
		t.Errorf("RetryMaxInterval = %v, want %v", cfg.RetryMaxInterval, time.Minute)
	}
	if cfg.RetryMultiplier != 2.0 {
		t.Errorf("RetryMultiplier = %f, want 2.0", cfg.RetryMultiplier)
	}
	if cfg.ThrottlePerSecond != 0 {
		t.Errorf("ThrottlePerSecond = %d, want 0", cfg.ThrottlePerSecond)
	}
	if cfg.PoisonQueueTopic != "dlq.feedback" {
		t.Errorf("PoisonQueueTopic = %q, want %q", cfg.PoisonQueueTopic, "dlq.feedback")
	}
	if !cfg.DeduplicationEnabled {
		t.Error("DeduplicationEnabled should be true by default")
	}
	if cfg.DeduplicationTTL != 5*time.Minute {
		t.Errorf("DeduplicationTTL = %v, want %v", cfg.DeduplicationTTL, 5*time.Minute)
	}
}

func TestInMemoryDeduplicator(t *testing.T) {
	t.Parallel()

	ttl := 100 * time.Millisecond
	dedup := NewInMemoryDeduplicator(ttl)
	ctx := context.Background()

	isDup, err := dedup.IsDuplicate(ctx, "key1")
	if err != nil {
		t.Fatalf("IsDuplicate error: %v", err)
	}
	if isDup {
		t.Error("First call should not be duplicate")
	}

	isDup, err = dedup.IsDuplicate(ctx, "key1")
	if err != nil {
		t.Fatalf("IsDuplicate error: %v", err)
	}
	if !isDup {
		t.Error("Second call with same key should be duplicate")
	}

	isDup, err = dedup.IsDuplicate(ctx, "key2")
	if err != nil {
		t.Fatalf("IsDuplicate error: %v", err)
	}
	if isDup {
		t.Error("Different key should not be duplicate")
	}

	time.Sleep(ttl + 10*time.Millisecond)
	isDup, err = dedup.IsDuplicate(ctx, "key1")
	if err != nil {
		t.Fatalf("IsDuplicate error: %v", err)
	}
	if isDup {
		t.Error("After TTL, key should not be duplicate")
	}
}

func TestNewRouter_NilConfig(t *testing.T) {
	t.Parallel()

	router, err := NewRouter(nil, nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if router == nil {
		t.Fatal("NewRouter returned nil")
	}
	if router.IsRunning() {
		t.Error("Router should not be running before Run")
	}
	if router.HandlerCount() != 0 {
		t.Errorf("HandlerCount = %d, want 0", router.HandlerCount())
	}
}

func TestNewRouter_DeduplicationDisabled(t *testing.T) {
	t.Parallel()

	cfg := DefaultRouterConfig()
	cfg.DeduplicationEnabled = false

	router, err := NewRouter(&cfg, nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if router.dedupRepo != nil {
		t.Error("Deduplicator should not be created when disabled")
	}
}

func TestRouter_Close(t *testing.T) {
	t.Parallel()

	cfg := DefaultRouterConfig()
	cfg.CloseTimeout = time.Second

	router, err := NewRouter(&cfg, nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if err := router.Close(); err != nil {
		t.Errorf("Close error: %v", err)
	}
}
