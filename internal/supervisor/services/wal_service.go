// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package services

import (
	"context"
	"fmt"
)

// JournalLoop interface matches the journal Relay and Compactor lifecycle.
//
// This interface allows the journal services to work with the actual
// components without importing the wal package.
//
// Satisfied by:
//   - *wal.Relay from internal/wal/relay.go
//   - *wal.Compactor from internal/wal/compaction.go
type JournalLoop interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
}

// RelayService wraps the journal relay as a supervised service.
//
// The relay replays unconfirmed journal entries, republishing feedback
// that never reached the learner, with exponential backoff between
// attempts.
//
// It adapts the Start/Stop lifecycle pattern to suture's Serve pattern:
//  1. Calls Start(ctx) to begin the replay loop
//  2. Waits for context cancellation
//  3. Calls Stop() for graceful shutdown (waits for the loop goroutine)
//
// Example usage:
//
//	relay := wal.NewRelay(journal, publisher)
//	svc := services.NewRelayService(relay)
//	tree.AddDataService(svc)
type RelayService struct {
	relay JournalLoop
	name  string
}

// NewRelayService creates a new journal relay service wrapper.
func NewRelayService(relay JournalLoop) *RelayService {
	return &RelayService{
		relay: relay,
		name:  "wal-relay",
	}
}

// Serve implements suture.Service.
//
// If Start() fails, the error is returned immediately, causing suture to
// restart the service according to its backoff policy.
func (s *RelayService) Serve(ctx context.Context) error {
	if err := s.relay.Start(ctx); err != nil {
		return fmt.Errorf("journal relay start failed: %w", err)
	}

	// Wait for shutdown signal
	<-ctx.Done()

	// Stop blocks until the replay goroutine exits
	s.relay.Stop()

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *RelayService) String() string {
	return s.name
}

// CompactorService wraps the journal compactor as a supervised service.
//
// The compactor periodically deletes confirmed and expired journal
// entries and triggers BadgerDB value log garbage collection.
//
// It adapts the Start/Stop lifecycle pattern to suture's Serve pattern:
//  1. Calls Start(ctx) to begin the compaction loop
//  2. Waits for context cancellation
//  3. Calls Stop() for graceful shutdown (waits for the loop goroutine)
//
// Example usage:
//
//	compactor := wal.NewCompactor(journal)
//	svc := services.NewCompactorService(compactor)
//	tree.AddDataService(svc)
type CompactorService struct {
	compactor JournalLoop
	name      string
}

// NewCompactorService creates a new journal compactor service wrapper.
func NewCompactorService(compactor JournalLoop) *CompactorService {
	return &CompactorService{
		compactor: compactor,
		name:      "wal-compactor",
	}
}

// Serve implements suture.Service.
//
// If Start() fails, the error is returned immediately, causing suture to
// restart the service according to its backoff policy.
func (s *CompactorService) Serve(ctx context.Context) error {
	if err := s.compactor.Start(ctx); err != nil {
		return fmt.Errorf("journal compactor start failed: %w", err)
	}

	// Wait for shutdown signal
	<-ctx.Done()

	// Stop blocks until the compaction goroutine exits
	s.compactor.Stop()

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *CompactorService) String() string {
	return s.name
}
