// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package models

import (
	"time"
)

// Feedback represents one user reaction to a recommended course. Feedback
// shares the interaction type vocabulary (like, dislike, rate, enroll,
// complete, view, unlike) and drives the continuous learning loop.
//
// Rating is only meaningful for "rate" feedback (0-5 scale).
type Feedback struct {
	UserID   int64  `json:"user_id"`
	CourseID int64  `json:"course_id"`
	Type     string `json:"type"`

	Rating  *float64 `json:"rating,omitempty"`
	Comment string   `json:"comment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// RatingValue returns the rating, or 0 when unset.
func (f *Feedback) RatingValue() float64 {
	if f.Rating == nil {
		return 0
	}
	return *f.Rating
}

// IsPositive reports whether the feedback type signals satisfaction
// (like, enroll, complete).
func (f *Feedback) IsPositive() bool {
	switch f.Type {
	case InteractionLike, InteractionEnroll, InteractionComplete:
		return true
	}
	return false
}

// IsNegative reports whether the feedback type signals dissatisfaction
// (dislike, unlike).
func (f *Feedback) IsNegative() bool {
	switch f.Type {
	case InteractionDislike, InteractionUnlike:
		return true
	}
	return false
}
