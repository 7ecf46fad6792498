// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package models

import (
	"time"
)

// Interaction types. The closed vocabulary matters: collaborative scoring
// assigns a base weight per type and unknown types carry zero weight.
const (
	InteractionView     = "view"
	InteractionLike     = "like"
	InteractionUnlike   = "unlike"
	InteractionDislike  = "dislike"
	InteractionEnroll   = "enroll"
	InteractionUnenroll = "unenroll"
	InteractionComplete = "complete"
	InteractionRate     = "rate"
	InteractionShare    = "share"
)

// validInteractionTypes is the closed set accepted at the API boundary.
var validInteractionTypes = map[string]bool{
	InteractionView:     true,
	InteractionLike:     true,
	InteractionUnlike:   true,
	InteractionDislike:  true,
	InteractionEnroll:   true,
	InteractionUnenroll: true,
	InteractionComplete: true,
	InteractionRate:     true,
	InteractionShare:    true,
}

// IsValidInteractionType reports whether t is a known interaction type.
func IsValidInteractionType(t string) bool {
	return validInteractionTypes[t]
}

// UserInteraction represents a single user action on a course: a view, a
// like, an enrollment, a completion, or a rating. Interactions are the raw
// material for collaborative filtering and preference learning.
//
// Rating is only set for "rate" interactions (0-5 scale).
type UserInteraction struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	CourseID int64  `json:"course_id"`
	Type     string `json:"type"`

	// Rating on a 0-5 scale, set only for "rate" interactions
	Rating *float64 `json:"rating,omitempty"`

	// Progress through the course at interaction time (0-100)
	Progress *float64 `json:"progress,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Enrollment statuses.
const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentDropped   = "dropped"
)

// Enrollment represents a user's registration in a course.
//
// CompletedAt is set only when Status is "completed".
type Enrollment struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	CourseID int64  `json:"course_id"`
	Status   string `json:"status"`

	// Progress through the course (0-100)
	Progress float64 `json:"progress"`

	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsActive reports whether the enrollment counts toward the
// personalization gate (active or completed, not dropped).
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentActive || e.Status == EnrollmentCompleted
}
