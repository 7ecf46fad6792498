// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package api

import (
	"context"
	"time"

	"github.com/courseloom/praeceptor/internal/database"
	"github.com/courseloom/praeceptor/internal/events"
	"github.com/courseloom/praeceptor/internal/recommend"
	"github.com/courseloom/praeceptor/internal/recommend/learning"
)

// FeedbackJournal is the subset of the write-ahead journal the API
// uses. Write persists the event before publishing and returns the
// entry ID carried in the message metadata; Confirm marks an entry
// delivered when the API short-circuits the transport.
type FeedbackJournal interface {
	Write(ctx context.Context, event interface{}) (string, error)
	Confirm(ctx context.Context, entryID string) error
}

// FeedbackPublisher sends feedback events to the message stream.
// Implemented by events.Publisher.
type FeedbackPublisher interface {
	PublishFeedback(ctx context.Context, event *events.FeedbackEvent, journalEntryID string) error
}

// Handler holds the dependencies shared by all HTTP handlers.
//
// The database, engine and learner are required. The journal and
// publisher are optional and injected after construction: when the
// publisher is missing, feedback is fed straight into the learner;
// when the journal is missing, feedback skips the durable write and
// relies on the transport alone.
type Handler struct {
	db      *database.DB
	engine  *recommend.Engine
	learner *learning.Learner

	journal   FeedbackJournal
	publisher FeedbackPublisher

	startTime time.Time
}

// NewHandler creates the handler hub with the required dependencies.
func NewHandler(db *database.DB, engine *recommend.Engine, learner *learning.Learner) *Handler {
	return &Handler{
		db:        db,
		engine:    engine,
		learner:   learner,
		startTime: time.Now(),
	}
}

// SetFeedbackJournal wires the write-ahead journal into the feedback
// path. Called during startup when journaling is enabled.
func (h *Handler) SetFeedbackJournal(journal FeedbackJournal) {
	h.journal = journal
}

// SetFeedbackPublisher wires the event publisher into the feedback
// path. Called during startup when messaging is enabled.
func (h *Handler) SetFeedbackPublisher(publisher FeedbackPublisher) {
	h.publisher = publisher
}
