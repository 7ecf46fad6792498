// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/courseloom/praeceptor/internal/recommend"
	"github.com/courseloom/praeceptor/internal/recommend/learning"
)

// SchemaVersion is the current event schema version.
// Increment on breaking changes to FeedbackEvent or RecommendationEvent.
const SchemaVersion = 1

// Topic prefixes for the two event families. The stream subscribes to
// both with trailing wildcards.
const (
	TopicPrefixFeedback    = "feedback"
	TopicPrefixRecommended = "recommended"
)

// Metadata keys stamped on published messages. Consumers and middleware
// read these instead of the Watermill UUID, which does not survive
// redelivery.
const (
	MetaEventID      = "event_id"
	MetaUserID       = "user_id"
	MetaJournalEntry = "journal_entry"
)

// FeedbackEvent is a single user signal in transit between the API and
// the learning loop.
type FeedbackEvent struct {
	// SchemaVersion tracks the event format for forward compatibility.
	SchemaVersion int `json:"schema_version,omitempty"`

	// EventID uniquely identifies this event. Doubles as the
	// Nats-Msg-Id for JetStream deduplication.
	EventID string `json:"event_id"`

	UserID   int64  `json:"user_id"`
	CourseID int64  `json:"course_id"`
	Type     string `json:"type"`

	// Rating accompanies "rate" events, scale 0-5.
	Rating *float64 `json:"rating,omitempty"`

	// RequestID links the signal back to the recommendation request
	// that surfaced the course, when the client knows it.
	RequestID string `json:"request_id,omitempty"`

	// Source names the producer: api, replay.
	Source string `json:"source,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// NewFeedbackEvent creates a feedback event with a fresh ID, timestamp,
// and the current schema version.
func NewFeedbackEvent(userID, courseID int64, typ recommend.InteractionType) *FeedbackEvent {
	return &FeedbackEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		UserID:        userID,
		CourseID:      courseID,
		Type:          string(typ),
		OccurredAt:    time.Now().UTC(),
	}
}

// GetSchemaVersion returns the schema version, defaulting to 1 for
// events written before the field existed.
func (e *FeedbackEvent) GetSchemaVersion() int {
	if e.SchemaVersion == 0 {
		return 1
	}
	return e.SchemaVersion
}

// EnsureSchemaVersion sets the schema version if not already set.
func (e *FeedbackEvent) EnsureSchemaVersion() {
	if e.SchemaVersion == 0 {
		e.SchemaVersion = SchemaVersion
	}
}

// Validate checks required fields and value ranges.
func (e *FeedbackEvent) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.UserID <= 0 {
		return &ValidationError{Field: "user_id", Message: "required"}
	}
	if e.CourseID <= 0 {
		return &ValidationError{Field: "course_id", Message: "required"}
	}
	if !recommend.InteractionType(e.Type).Valid() {
		return &ValidationError{Field: "type", Message: "unknown interaction type"}
	}
	if e.Rating != nil && (*e.Rating < 0 || *e.Rating > 5) {
		return &ValidationError{Field: "rating", Message: "must be between 0 and 5"}
	}
	return nil
}

// Topic returns the NATS subject for this event.
// Format: feedback.<type>, e.g. feedback.enroll.
func (e *FeedbackEvent) Topic() string {
	return TopicPrefixFeedback + "." + e.Type
}

// Feedback converts the event into the learner's intake form.
func (e *FeedbackEvent) Feedback() learning.Feedback {
	return learning.Feedback{
		UserID:    e.UserID,
		CourseID:  e.CourseID,
		Type:      recommend.InteractionType(e.Type),
		Rating:    e.Rating,
		CreatedAt: e.OccurredAt,
	}
}

// RecommendationEvent records one candidate the engine served.
type RecommendationEvent struct {
	SchemaVersion int `json:"schema_version,omitempty"`

	EventID    string    `json:"event_id"`
	UserID     int64     `json:"user_id"`
	CourseID   int64     `json:"course_id"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	Reason     string    `json:"reason,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewRecommendationEvent converts an engine event into its wire form.
func NewRecommendationEvent(src *recommend.RecommendedEvent) *RecommendationEvent {
	return &RecommendationEvent{
		SchemaVersion: SchemaVersion,
		EventID:       src.EventID,
		UserID:        src.UserID,
		CourseID:      src.CourseID,
		Confidence:    src.Confidence,
		Source:        src.Source,
		Reason:        src.Reason,
		RequestID:     src.RequestID,
		OccurredAt:    src.OccurredAt,
	}
}

// Validate checks required fields.
func (e *RecommendationEvent) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.UserID <= 0 {
		return &ValidationError{Field: "user_id", Message: "required"}
	}
	if e.CourseID <= 0 {
		return &ValidationError{Field: "course_id", Message: "required"}
	}
	if e.Source == "" {
		return &ValidationError{Field: "source", Message: "required"}
	}
	return nil
}

// Topic returns the NATS subject for this event.
// Format: recommended.<source>, e.g. recommended.collaborative.
func (e *RecommendationEvent) Topic() string {
	return TopicPrefixRecommended + "." + e.Source
}

// ValidationError reports a field that failed event validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
