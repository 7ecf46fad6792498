// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/courseloom/praeceptor/internal/events"
	"github.com/courseloom/praeceptor/internal/logging"
	"github.com/courseloom/praeceptor/internal/models"
	"github.com/courseloom/praeceptor/internal/recommend"
)

// PostFeedback handles POST /api/v1/feedback.
//
// The feedback row is written to the database synchronously so the
// next training round sees it. The learning signal then travels the
// durable path: journal write, publish, asynchronous consume. A
// transport failure never fails the request once the journal holds the
// entry, because the relay replays it. Without a publisher the signal
// goes straight into the learner.
func (h *Handler) PostFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	var req models.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", err)
		return
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status: "error",
			Metadata: models.Metadata{
				Timestamp: time.Now(),
			},
			Error: apiErr,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	fb := req.ToFeedback(time.Now().UTC())
	if err := h.db.RecordFeedback(ctx, &fb); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record feedback", err)
		return
	}

	event := events.NewFeedbackEvent(req.UserID, req.CourseID, recommend.InteractionType(req.Type))
	event.Rating = req.Rating
	event.RequestID = r.Header.Get("X-Request-ID")
	event.Source = "api"

	entryID := h.dispatchFeedback(ctx, event)

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status: "success",
		Data: models.FeedbackResponse{
			Accepted: true,
			EntryID:  entryID,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// dispatchFeedback moves the event into the learning pipeline and
// returns the journal entry ID when one was written.
//
// Failure handling follows the channel-failure rule: problems on this
// path are logged and absorbed, never surfaced to the client. The
// database row is already committed, so the signal reappears at the
// next training round even in the worst case.
func (h *Handler) dispatchFeedback(ctx context.Context, event *events.FeedbackEvent) string {
	var entryID string
	if h.journal != nil {
		id, err := h.journal.Write(ctx, event)
		if err != nil {
			logging.Warn().Err(err).
				Str("event_id", event.EventID).
				Msg("Journal write failed, feedback continues without durable copy")
		} else {
			entryID = id
		}
	}

	if h.publisher == nil {
		h.recordDirect(ctx, event, entryID)
		return entryID
	}

	if err := h.publisher.PublishFeedback(ctx, event, entryID); err != nil {
		if entryID != "" {
			// The journal holds the entry; the relay replays it once the
			// stream recovers.
			logging.Warn().Err(err).
				Str("event_id", event.EventID).
				Str("journal_entry", entryID).
				Msg("Feedback publish failed, relay will replay from journal")
			return entryID
		}
		logging.Warn().Err(err).
			Str("event_id", event.EventID).
			Msg("Feedback publish failed without journal, recording directly")
		h.recordDirect(ctx, event, "")
	}

	return entryID
}

// recordDirect feeds the learner synchronously, bypassing the message
// stream. The journal entry is confirmed immediately because delivery
// already happened.
func (h *Handler) recordDirect(ctx context.Context, event *events.FeedbackEvent, entryID string) {
	if h.learner != nil {
		h.learner.Record(event.Feedback())
	}
	if entryID != "" && h.journal != nil {
		if err := h.journal.Confirm(ctx, entryID); err != nil {
			logging.Warn().Err(err).
				Str("journal_entry", entryID).
				Msg("Failed to confirm journal entry after direct record")
		}
	}
}
