// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package learning

import (
	"sync"
	"time"

	"github.com/courseloom/praeceptor/internal/recommend"
)

// Feedback is a single user signal awaiting processing.
type Feedback struct {
	UserID    int64
	CourseID  int64
	Type      recommend.InteractionType
	Rating    *float64
	CreatedAt time.Time
}

// Buffer is a bounded FIFO of pending feedback. Appending to a full
// buffer evicts the oldest entry so the newest signal is never lost.
type Buffer struct {
	mu      sync.Mutex
	entries []Feedback
	limit   int
}

// NewBuffer creates a buffer holding at most limit entries.
func NewBuffer(limit int) *Buffer {
	if limit <= 0 {
		limit = defaultBufferSize
	}

	return &Buffer{
		entries: make([]Feedback, 0, limit),
		limit:   limit,
	}
}

// Append adds fb to the buffer, evicting the oldest entry when full.
// It returns the depth after the append and whether an eviction
// happened.
func (b *Buffer) Append(fb Feedback) (depth int, evicted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) >= b.limit {
		copy(b.entries, b.entries[1:])
		b.entries = b.entries[:len(b.entries)-1]
		evicted = true
	}

	b.entries = append(b.entries, fb)

	return len(b.entries), evicted
}

// Swap hands the buffered entries to the caller and resets the buffer.
// The batch is processed outside the lock so Append never blocks on a
// drain cycle.
func (b *Buffer) Swap() []Feedback {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) == 0 {
		return nil
	}

	batch := b.entries
	b.entries = make([]Feedback, 0, b.limit)

	return batch
}

// Len returns the current depth.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.entries)
}

// Cap returns the configured capacity.
func (b *Buffer) Cap() int {
	return b.limit
}
