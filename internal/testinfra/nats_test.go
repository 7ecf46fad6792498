// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package testinfra

import (
	"context"
	"testing"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// TestNATSContainerOptions verifies option plumbing without Docker.
func TestNATSContainerOptions(t *testing.T) {
	cfg := &natsConfig{
		image:        DefaultNATSImage,
		jetStream:    true,
		startTimeout: 30 * time.Second,
	}

	opts := []NATSOption{
		WithNATSImage("nats:2.11-alpine"),
		WithoutJetStream(),
		WithStartTimeout(90 * time.Second),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.image != "nats:2.11-alpine" {
		t.Errorf("image = %q, want %q", cfg.image, "nats:2.11-alpine")
	}
	if cfg.jetStream {
		t.Error("jetStream = true, want false after WithoutJetStream")
	}
	if cfg.startTimeout != 90*time.Second {
		t.Errorf("startTimeout = %v, want %v", cfg.startTimeout, 90*time.Second)
	}
}

func TestNATSContainerLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	natsC, err := NewNATSContainer(ctx)
	if err != nil {
		t.Fatalf("NewNATSContainer() error = %v", err)
	}
	defer CleanupContainer(t, ctx, natsC.Container)

	if natsC.URL == "" {
		t.Fatal("container URL is empty")
	}

	nc, err := natsgo.Connect(natsC.URL)
	if err != nil {
		t.Fatalf("Connect(%q) error = %v", natsC.URL, err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("jetstream.New() error = %v", err)
	}

	// AccountInfo fails when the server runs without JetStream, so a
	// successful call proves -js took effect.
	if _, err := js.AccountInfo(ctx); err != nil {
		t.Fatalf("AccountInfo() error = %v", err)
	}
}
