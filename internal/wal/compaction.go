// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package wal

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/courseloom/praeceptor/internal/logging"
)

// Compactor removes confirmed and expired entries on a timer and runs
// Badger value log garbage collection afterwards.
type Compactor struct {
	journal *BadgerJournal
	config  Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu               sync.Mutex
	running          bool
	lastRun          time.Time
	lastRemovedCount int64
}

// CompactorStats reports the most recent compaction run.
type CompactorStats struct {
	LastRun          time.Time
	LastRemovedCount int64
}

// NewCompactor creates a compactor for the journal.
func NewCompactor(journal *BadgerJournal) *Compactor {
	return &Compactor{
		journal: journal,
		config:  journal.Config(),
	}
}

// Start launches the background compaction loop.
func (c *Compactor) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.running = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run()

	logging.Info().Dur("interval", c.config.CompactInterval).Msg("Journal compactor started")
	return nil
}

// Stop halts the loop and waits for it to exit.
func (c *Compactor) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.cancel()
	c.running = false
	c.mu.Unlock()

	c.wg.Wait()
	logging.Info().Msg("Journal compactor stopped")
}

// IsRunning reports whether the compactor loop is active.
func (c *Compactor) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Compactor) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CompactInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.compact()
		}
	}
}

// RunNow triggers an immediate compaction pass.
func (c *Compactor) RunNow() {
	c.compact()
}

func (c *Compactor) compact() {
	start := time.Now()

	confirmed, err := c.deleteConfirmedEntries()
	if err != nil {
		logging.Error().Err(err).Msg("Journal compaction failed to delete confirmed entries")
	}

	expired, err := c.deleteExpiredEntries()
	if err != nil {
		logging.Error().Err(err).Msg("Journal compaction failed to delete expired entries")
	}

	if err := c.journal.RunGC(); err != nil {
		logging.Error().Err(err).Msg("Journal value log GC failed")
	}

	total := confirmed + expired
	c.mu.Lock()
	c.lastRun = time.Now()
	c.lastRemovedCount = total
	c.mu.Unlock()

	c.journal.mu.Lock()
	c.journal.lastCompaction = time.Now()
	c.journal.mu.Unlock()

	if total > 0 {
		logging.Info().
			Int64("confirmed", confirmed).
			Int64("expired", expired).
			Dur("duration", time.Since(start)).
			Msg("Journal compaction removed entries")
	}
}

// deleteConfirmedEntries removes everything under the confirmed
// prefix. Keys are collected first; Badger forbids deleting during
// iteration.
func (c *Compactor) deleteConfirmedEntries() (int64, error) {
	var count int64

	err := c.journal.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var keys [][]byte
		prefix := []byte(prefixConfirmed)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := make([]byte, len(it.Item().Key()))
			copy(key, it.Item().Key())
			keys = append(keys, key)
		}

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
			count++
		}
		return nil
	})

	return count, err
}

// deleteExpiredEntries removes pending entries older than EntryTTL.
func (c *Compactor) deleteExpiredEntries() (int64, error) {
	var count int64
	cutoff := time.Now().Add(-c.config.EntryTTL)

	err := c.journal.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		var keys [][]byte
		prefix := []byte(prefixPending)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			var entry Entry
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				continue
			}

			if entry.CreatedAt.Before(cutoff) {
				key := make([]byte, len(item.Key()))
				copy(key, item.Key())
				keys = append(keys, key)
			}
		}

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
			count++
		}
		return nil
	})

	return count, err
}

// Stats returns compaction statistics.
func (c *Compactor) Stats() CompactorStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CompactorStats{
		LastRun:          c.lastRun,
		LastRemovedCount: c.lastRemovedCount,
	}
}
