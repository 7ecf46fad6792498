// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package wal

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/courseloom/praeceptor/internal/logging"
	"github.com/courseloom/praeceptor/internal/metrics"
)

// Publisher republishes a journal entry to the stream.
type Publisher interface {
	PublishEntry(ctx context.Context, entry *Entry) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, entry *Entry) error

// PublishEntry calls f.
func (f PublisherFunc) PublishEntry(ctx context.Context, entry *Entry) error {
	return f(ctx, entry)
}

// Relay drives unconfirmed entries back into the stream. Start runs
// one replay pass immediately, covering entries stranded by a restart,
// then repeats on RetryInterval. Individual entries back off
// exponentially between attempts; entries past their TTL or attempt
// limit are dropped.
type Relay struct {
	journal   *BadgerJournal
	publisher Publisher
	config    Config

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	running  bool
	stopDone chan struct{}
}

// ReplayResult summarizes one replay pass.
type ReplayResult struct {
	Pending  int
	Replayed int
	Failed   int
	Expired  int
	Dropped  int
	Skipped  int
	Duration time.Duration
}

// NewRelay creates a relay for the journal.
func NewRelay(journal *BadgerJournal, publisher Publisher) *Relay {
	return &Relay{
		journal:   journal,
		publisher: publisher,
		config:    journal.Config(),
	}
}

// Start launches the relay loop. The first pass runs before the ticker
// so restart recovery does not wait a full interval.
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.running = true
	r.stopDone = make(chan struct{})
	loopCtx := r.ctx
	done := r.stopDone
	r.mu.Unlock()

	go r.run(loopCtx, done)

	logging.Info().
		Dur("interval", r.config.RetryInterval).
		Int("max_retries", r.config.MaxRetries).
		Msg("Journal relay started")
	return nil
}

// Stop cancels the loop and waits for it to exit.
func (r *Relay) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.running = false
	done := r.stopDone
	r.mu.Unlock()

	<-done
	logging.Info().Msg("Journal relay stopped")
}

// IsRunning reports whether the relay loop is active.
func (r *Relay) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Relay) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	// Startup recovery pass.
	if result := r.Replay(ctx); result.Pending > 0 {
		logging.Info().
			Int("pending", result.Pending).
			Int("replayed", result.Replayed).
			Int("failed", result.Failed).
			Int("expired", result.Expired).
			Int("dropped", result.Dropped).
			Dur("duration", result.Duration).
			Msg("Journal startup recovery complete")
	}

	ticker := time.NewTicker(r.config.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result := r.Replay(ctx)
			if result.Replayed > 0 || result.Failed > 0 || result.Expired > 0 || result.Dropped > 0 {
				logging.Info().
					Int("replayed", result.Replayed).
					Int("failed", result.Failed).
					Int("expired", result.Expired).
					Int("dropped", result.Dropped).
					Msg("Journal replay pass complete")
			}
		}
	}
}

// Replay runs a single pass over all pending entries.
func (r *Relay) Replay(ctx context.Context) ReplayResult {
	start := time.Now()
	result := ReplayResult{}

	entries, err := r.journal.GetPending(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("Journal replay failed to list pending entries")
		result.Duration = time.Since(start)
		return result
	}
	result.Pending = len(entries)
	if len(entries) == 0 {
		result.Duration = time.Since(start)
		return result
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			result.Duration = time.Since(start)
			return result
		default:
		}

		switch r.processEntry(ctx, entry) {
		case replaySuccess:
			result.Replayed++
		case replayFailed:
			result.Failed++
		case replayExpired:
			result.Expired++
		case replayDropped:
			result.Dropped++
		case replaySkipped:
			result.Skipped++
		}
	}

	if result.Replayed > 0 {
		metrics.RecordWALReplay(result.Replayed)
	}
	result.Duration = time.Since(start)
	return result
}

type replayOutcome int

const (
	replaySuccess replayOutcome = iota
	replayFailed
	replayExpired
	replayDropped
	replaySkipped
)

func (r *Relay) processEntry(ctx context.Context, entry *Entry) replayOutcome {
	if time.Since(entry.CreatedAt) > r.config.EntryTTL {
		logging.Info().Str("entry_id", entry.ID).Msg("Journal entry expired, removing")
		if err := r.journal.DeleteEntry(ctx, entry.ID); err != nil {
			logging.Error().Err(err).Str("entry_id", entry.ID).Msg("Failed to delete expired entry")
		}
		return replayExpired
	}

	if entry.Attempts >= r.config.MaxRetries {
		logging.Warn().
			Str("entry_id", entry.ID).
			Int("attempts", entry.Attempts).
			Str("last_error", entry.LastError).
			Msg("Journal entry exceeded max retries, removing")
		if err := r.journal.DeleteEntry(ctx, entry.ID); err != nil {
			logging.Error().Err(err).Str("entry_id", entry.ID).Msg("Failed to delete max-retried entry")
		}
		return replayDropped
	}

	if !r.readyForRetry(entry) {
		return replaySkipped
	}

	pubCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err := r.publisher.PublishEntry(pubCtx, entry)
	cancel()

	if err != nil {
		logging.Error().
			Err(err).
			Str("entry_id", entry.ID).
			Int("attempt", entry.Attempts+1).
			Msg("Journal replay publish failed")
		if updateErr := r.journal.UpdateAttempt(ctx, entry.ID, err.Error()); updateErr != nil {
			logging.Error().Err(updateErr).Str("entry_id", entry.ID).Msg("Failed to record publish attempt")
		}
		return replayFailed
	}

	if err := r.journal.Confirm(ctx, entry.ID); err != nil {
		logging.Error().Err(err).Str("entry_id", entry.ID).Msg("Failed to confirm replayed entry")
		return replayFailed
	}

	return replaySuccess
}

// readyForRetry checks the per-entry backoff schedule.
func (r *Relay) readyForRetry(entry *Entry) bool {
	if entry.LastAttemptAt.IsZero() {
		return true
	}
	return time.Since(entry.LastAttemptAt) >= r.backoff(entry.Attempts)
}

// backoff is RetryBackoff * 2^attempts, capped at 5 minutes.
func (r *Relay) backoff(attempts int) time.Duration {
	const maxBackoff = 5 * time.Minute

	// 2^attempts overflows time.Duration well before 50.
	if attempts > 50 {
		return maxBackoff
	}

	d := time.Duration(float64(r.config.RetryBackoff) * math.Pow(2, float64(attempts)))
	if d < 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}
