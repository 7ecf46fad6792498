// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package main

import (
	"context"
	"fmt"

	"github.com/courseloom/praeceptor/internal/config"
	"github.com/courseloom/praeceptor/internal/events"
	"github.com/courseloom/praeceptor/internal/logging"
	"github.com/courseloom/praeceptor/internal/wal"
)

// JournalComponents holds the durable feedback journal and its
// background loops. The relay and compactor run under the supervisor
// tree; this package owns only the journal handle itself.
type JournalComponents struct {
	journal   *wal.BadgerJournal
	relay     *wal.Relay
	compactor *wal.Compactor
}

// initJournal opens the BadgerDB feedback journal. Returns nil when
// the journal is disabled; feedback then flows through the event
// pipeline without a durability net.
func initJournal(cfg *config.Config) (*JournalComponents, error) {
	if !cfg.WAL.Enabled {
		logging.Warn().Msg("Feedback journal disabled (WAL_ENABLED=false), feedback may be lost if the event pipeline fails")
		return nil, nil
	}

	jcfg := buildJournalConfig(&cfg.WAL)

	logging.Info().
		Str("path", jcfg.Path).
		Bool("sync_writes", jcfg.SyncWrites).
		Dur("entry_ttl", jcfg.EntryTTL).
		Msg("Opening feedback journal")

	journal, err := wal.Open(&jcfg)
	if err != nil {
		return nil, fmt.Errorf("open feedback journal: %w", err)
	}

	return &JournalComponents{
		journal:   journal,
		compactor: wal.NewCompactor(journal),
	}, nil
}

// buildJournalConfig maps application config onto the journal,
// keeping journal defaults for unexposed tuning.
func buildJournalConfig(wc *config.WALConfig) wal.Config {
	jcfg := wal.DefaultConfig()
	jcfg.Path = wc.Dir
	jcfg.SyncWrites = wc.SyncWrites
	if wc.Retention > 0 {
		jcfg.EntryTTL = wc.Retention
	}
	if wc.GCInterval > 0 {
		jcfg.CompactInterval = wc.GCInterval
	}
	return jcfg
}

// wireRelay creates the replay loop once the event publisher exists.
// Replayed entries carry their journal entry ID so the consumer's
// confirmation still lands on the right entry.
func (c *JournalComponents) wireRelay(publisher *events.Publisher) *wal.Relay {
	if c == nil || publisher == nil {
		return nil
	}

	c.relay = wal.NewRelay(c.journal, wal.PublisherFunc(func(ctx context.Context, entry *wal.Entry) error {
		var event events.FeedbackEvent
		if err := entry.UnmarshalPayload(&event); err != nil {
			return err
		}
		return publisher.PublishFeedback(ctx, &event, entry.ID)
	}))
	return c.relay
}

// Journal returns the journal handle, or nil when disabled.
func (c *JournalComponents) Journal() *wal.BadgerJournal {
	if c == nil {
		return nil
	}
	return c.journal
}

// Relay returns the replay loop, or nil when not wired.
func (c *JournalComponents) Relay() *wal.Relay {
	if c == nil {
		return nil
	}
	return c.relay
}

// Compactor returns the compaction loop, or nil when disabled.
func (c *JournalComponents) Compactor() *wal.Compactor {
	if c == nil {
		return nil
	}
	return c.compactor
}

// Close closes the journal. Called after the supervisor tree has
// stopped the relay and compactor loops.
func (c *JournalComponents) Close() {
	if c == nil || c.journal == nil {
		return
	}
	if err := c.journal.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing feedback journal")
		return
	}
	logging.Info().Msg("Feedback journal closed")
}
