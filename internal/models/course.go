// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package models

import (
	"time"
)

// Course difficulty levels. Difficulty is a closed vocabulary: the scoring
// weight tables are keyed by these exact strings.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Course content formats.
const (
	ContentVideo       = "video"
	ContentReading     = "reading"
	ContentInteractive = "interactive"
	ContentMixed       = "mixed"
)

// Course represents a single course in the catalog.
//
// This is the core catalog model. Courses are scored by the recommendation
// engine and surfaced to users ranked by confidence.
//
// Key Fields:
//   - ID: Unique course identifier
//   - Category: Topic area (e.g., "programming", "data-science")
//   - Difficulty: One of the Difficulty* constants
//   - ContentType: One of the Content* constants
//   - DurationHours: Total course length; feeds duration bucketing
//     (short <=2h, medium <=8h, long otherwise)
//   - Rating: Mean user rating on a 0-5 scale
//   - Skills: Skills taught, used for preference overlap scoring
//
// JSON serialization uses omitempty for optional pointer fields to minimize
// response payload size.
type Course struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// Classification
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty"`
	ContentType string `json:"content_type"`

	// Content metrics
	DurationHours   float64 `json:"duration_hours"`
	Rating          float64 `json:"rating"`
	RatingCount     int     `json:"rating_count,omitempty"`
	EnrollmentCount int     `json:"enrollment_count,omitempty"`

	// Skills taught by this course
	Skills []string `json:"skills,omitempty"`

	// Optional instructor attribution
	Instructor *string `json:"instructor,omitempty"`

	// Active marks the course as recommendable. Inactive courses are
	// excluded from candidate generation and fallbacks.
	Active bool `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DurationBucket classifies course length into the coarse buckets used by
// contextual scoring: "short" (<=2h), "medium" (<=8h), "long" (>8h).
func (c *Course) DurationBucket() string {
	switch {
	case c.DurationHours <= 2:
		return "short"
	case c.DurationHours <= 8:
		return "medium"
	default:
		return "long"
	}
}
