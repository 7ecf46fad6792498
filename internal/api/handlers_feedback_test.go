// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPostFeedback_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	h.db = setupTestDB(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/feedback", nil)
	rec := httptest.NewRecorder()

	h.PostFeedback(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestPostFeedback_InvalidBody(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	h.db = setupTestDB(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.PostFeedback(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}

	response := decodeEnvelope(t, rec)
	errObj, _ := response["error"].(map[string]interface{})
	if errObj["code"] != "INVALID_BODY" {
		t.Errorf("Expected code INVALID_BODY, got %v", errObj["code"])
	}
}

func TestPostFeedback_ValidationRejectsUnknownType(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	h.db = setupTestDB(t)

	body := `{"user_id": 1, "course_id": 2, "type": "explode"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.PostFeedback(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
	}

	response := decodeEnvelope(t, rec)
	errObj, _ := response["error"].(map[string]interface{})
	if errObj["code"] != "VALIDATION_ERROR" {
		t.Errorf("Expected code VALIDATION_ERROR, got %v", errObj["code"])
	}

	// Nothing reached the learner or the database.
	if depth := h.learner.BufferDepth(); depth != 0 {
		t.Errorf("Expected empty learner buffer, got depth %d", depth)
	}
}

func TestPostFeedback_ValidationRejectsOutOfRangeRating(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	h.db = setupTestDB(t)

	body := `{"user_id": 1, "course_id": 2, "type": "rate", "rating": 9.5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.PostFeedback(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestPostFeedback_DirectRecordWithoutPublisher(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	h.db = setupTestDB(t)

	body := `{"user_id": 7, "course_id": 101, "type": "like"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.PostFeedback(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusAccepted, rec.Code, rec.Body.String())
	}

	response := decodeEnvelope(t, rec)
	data, _ := response["data"].(map[string]interface{})
	if data["accepted"] != true {
		t.Errorf("Expected accepted true, got %v", data["accepted"])
	}

	// Without a publisher the signal goes straight into the learner.
	if depth := h.learner.BufferDepth(); depth != 1 {
		t.Errorf("Expected learner buffer depth 1, got %d", depth)
	}

	// The database row is committed synchronously.
	count, err := h.db.CountInteractionsByUser(context.Background(), 7)
	if err != nil {
		t.Fatalf("CountInteractionsByUser() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 interaction row, got %d", count)
	}
}

func TestPostFeedback_PublishesWithJournalEntry(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	h.db = setupTestDB(t)

	journal := &fakeJournal{}
	publisher := &fakePublisher{}
	h.SetFeedbackJournal(journal)
	h.SetFeedbackPublisher(publisher)

	body := `{"user_id": 3, "course_id": 55, "type": "enroll"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(body))
	req.Header.Set("X-Request-ID", "req-abc")
	rec := httptest.NewRecorder()

	h.PostFeedback(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusAccepted, rec.Code, rec.Body.String())
	}

	response := decodeEnvelope(t, rec)
	data, _ := response["data"].(map[string]interface{})
	if data["entry_id"] != "entry-1" {
		t.Errorf("Expected entry_id 'entry-1', got %v", data["entry_id"])
	}

	events, entryIDs := publisher.published()
	if len(events) != 1 {
		t.Fatalf("Expected 1 published event, got %d", len(events))
	}
	if events[0].UserID != 3 || events[0].CourseID != 55 || events[0].Type != "enroll" {
		t.Errorf("Published event = %+v, want user 3 course 55 enroll", events[0])
	}
	if events[0].Source != "api" {
		t.Errorf("Expected source 'api', got %q", events[0].Source)
	}
	if events[0].RequestID != "req-abc" {
		t.Errorf("Expected request ID 'req-abc', got %q", events[0].RequestID)
	}
	if entryIDs[0] != "entry-1" {
		t.Errorf("Expected journal entry 'entry-1' in publish, got %q", entryIDs[0])
	}

	// Confirmation happens when the consumer processes the message,
	// not at publish time.
	if confirmed := journal.confirmedIDs(); len(confirmed) != 0 {
		t.Errorf("Expected no confirms yet, got %v", confirmed)
	}

	// The learner is fed through the stream, not directly.
	if depth := h.learner.BufferDepth(); depth != 0 {
		t.Errorf("Expected learner buffer depth 0, got %d", depth)
	}
}

func TestPostFeedback_PublishFailureWithJournalStillAccepted(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	h.db = setupTestDB(t)

	journal := &fakeJournal{}
	publisher := &fakePublisher{err: errors.New("stream unavailable")}
	h.SetFeedbackJournal(journal)
	h.SetFeedbackPublisher(publisher)

	body := `{"user_id": 4, "course_id": 60, "type": "view"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.PostFeedback(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected status %d, got %d", http.StatusAccepted, rec.Code)
	}

	response := decodeEnvelope(t, rec)
	data, _ := response["data"].(map[string]interface{})
	if data["entry_id"] != "entry-1" {
		t.Errorf("Expected entry_id 'entry-1', got %v", data["entry_id"])
	}

	// The relay owns redelivery; the learner must not see the event
	// twice when the journal replays it.
	if depth := h.learner.BufferDepth(); depth != 0 {
		t.Errorf("Expected learner buffer depth 0, got %d", depth)
	}
}

func TestPostFeedback_PublishFailureWithoutJournalRecordsDirectly(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	h.db = setupTestDB(t)

	publisher := &fakePublisher{err: errors.New("stream unavailable")}
	h.SetFeedbackPublisher(publisher)

	body := `{"user_id": 5, "course_id": 61, "type": "complete"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.PostFeedback(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected status %d, got %d", http.StatusAccepted, rec.Code)
	}

	// No durable copy exists, so the handler falls back to feeding the
	// learner directly rather than dropping the signal.
	if depth := h.learner.BufferDepth(); depth != 1 {
		t.Errorf("Expected learner buffer depth 1, got %d", depth)
	}
}

func TestPostFeedback_JournalWriteFailureTolerated(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	h.db = setupTestDB(t)

	journal := &fakeJournal{writeErr: errors.New("disk full")}
	publisher := &fakePublisher{}
	h.SetFeedbackJournal(journal)
	h.SetFeedbackPublisher(publisher)

	body := `{"user_id": 6, "course_id": 62, "type": "dislike"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.PostFeedback(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected status %d, got %d", http.StatusAccepted, rec.Code)
	}

	// Publishing proceeds with an empty journal entry ID.
	_, entryIDs := publisher.published()
	if len(entryIDs) != 1 || entryIDs[0] != "" {
		t.Errorf("Expected one publish with empty entry ID, got %v", entryIDs)
	}
}

func TestPostFeedback_DirectRecordConfirmsJournal(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	h.db = setupTestDB(t)

	// Journal without publisher: delivery is synchronous, so the entry
	// is confirmed immediately.
	journal := &fakeJournal{}
	h.SetFeedbackJournal(journal)

	body := `{"user_id": 8, "course_id": 70, "type": "rate", "rating": 4.5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.PostFeedback(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected status %d, got %d", http.StatusAccepted, rec.Code)
	}

	if confirmed := journal.confirmedIDs(); len(confirmed) != 1 || confirmed[0] != "entry-1" {
		t.Errorf("Expected entry-1 confirmed, got %v", confirmed)
	}
	if depth := h.learner.BufferDepth(); depth != 1 {
		t.Errorf("Expected learner buffer depth 1, got %d", depth)
	}
}
