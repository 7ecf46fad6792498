// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package events

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/courseloom/praeceptor/internal/metrics"
	"github.com/courseloom/praeceptor/internal/recommend/learning"
)

// FeedbackRecorder accepts decoded feedback for learning. Record
// reports whether the feedback was admitted or dropped by the
// per-user rate limiter.
type FeedbackRecorder interface {
	Record(fb learning.Feedback) bool
}

// JournalConfirmer marks a write-ahead journal entry as delivered.
type JournalConfirmer interface {
	Confirm(ctx context.Context, entryID string) error
}

// FeedbackHandler consumes feedback events from the router and feeds
// them to the learner. Undecodable and invalid payloads are rejected
// with a permanent error so the router poisons them instead of
// retrying. Successfully handled events confirm their journal entry
// when the message carries one.
type FeedbackHandler struct {
	recorder   FeedbackRecorder
	journal    JournalConfirmer
	serializer *Serializer
	logger     zerolog.Logger

	received      atomic.Int64
	recorded      atomic.Int64
	rejected      atomic.Int64
	parseErrors   atomic.Int64
	lastEventTime atomic.Value
}

// HandlerStats is a point-in-time snapshot of handler counters.
type HandlerStats struct {
	Received      int64     `json:"received"`
	Recorded      int64     `json:"recorded"`
	Rejected      int64     `json:"rejected"`
	ParseErrors   int64     `json:"parse_errors"`
	LastEventTime time.Time `json:"last_event_time"`
}

// NewFeedbackHandler creates a handler feeding the given recorder.
// The journal confirmer may be nil when journaling is disabled.
func NewFeedbackHandler(recorder FeedbackRecorder, journal JournalConfirmer, logger zerolog.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		recorder:   recorder,
		journal:    journal,
		serializer: NewSerializer(),
		logger:     logger.With().Str("component", "feedback_handler").Logger(),
	}
}

// Handle processes a single feedback message. It satisfies
// message.NoPublishHandlerFunc for Router.AddConsumerHandler.
func (h *FeedbackHandler) Handle(msg *message.Message) error {
	start := time.Now()
	h.received.Add(1)
	metrics.RecordNATSConsume()

	event, err := h.serializer.Unmarshal(msg.Payload)
	if err != nil {
		h.parseErrors.Add(1)
		metrics.RecordNATSParseFailed()
		h.logger.Error().
			Err(err).
			Str("message_uuid", msg.UUID).
			Msg("Dropping undecodable feedback event")
		return NewPermanentError("deserialize feedback event", err)
	}

	if err := event.Validate(); err != nil {
		h.parseErrors.Add(1)
		metrics.RecordNATSParseFailed()
		h.logger.Error().
			Err(err).
			Str("event_id", event.EventID).
			Msg("Dropping invalid feedback event")
		return NewPermanentError("validate feedback event", err)
	}

	if h.recorder.Record(event.Feedback()) {
		h.recorded.Add(1)
		metrics.RecordNATSProcessed()
	} else {
		// Rate limiter dropped it. Acking is deliberate: redelivery
		// would hit the same limiter.
		h.rejected.Add(1)
		h.logger.Debug().
			Str("event_id", event.EventID).
			Int64("user_id", event.UserID).
			Msg("Feedback event rejected by rate limiter")
	}

	h.confirmJournal(msg)

	h.lastEventTime.Store(time.Now().UTC())
	metrics.RecordNATSProcessingDuration(time.Since(start))
	return nil
}

// confirmJournal marks the message's journal entry delivered. Confirm
// failures are logged, not returned: the entry stays pending and the
// relay republishes it, where deduplication drops the replay.
func (h *FeedbackHandler) confirmJournal(msg *message.Message) {
	if h.journal == nil {
		return
	}

	entryID := msg.Metadata.Get(MetaJournalEntry)
	if entryID == "" {
		return
	}

	if err := h.journal.Confirm(msg.Context(), entryID); err != nil {
		h.logger.Warn().
			Err(err).
			Str("journal_entry", entryID).
			Msg("Failed to confirm journal entry")
	}
}

// Stats returns a snapshot of the handler counters.
func (h *FeedbackHandler) Stats() HandlerStats {
	stats := HandlerStats{
		Received:    h.received.Load(),
		Recorded:    h.recorded.Load(),
		Rejected:    h.rejected.Load(),
		ParseErrors: h.parseErrors.Load(),
	}
	if t, ok := h.lastEventTime.Load().(time.Time); ok {
		stats.LastEventTime = t
	}
	return stats
}
