// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

/*
Package models defines data structures for the Praeceptor application.

This package contains all data models used throughout the application,
including database-backed catalog models, API request/response structures,
and internal data transfer objects. It serves as the single source of truth
for data structure definitions.

Key Components:

  - Course: Catalog model (category, difficulty, duration, skills)
  - UserInteraction: Single user action on a course (view, like, rate, ...)
  - Enrollment: A user's registration in a course with progress
  - Feedback: One user reaction driving the continuous learning loop
  - APIResponse: Standardized API response wrapper

Model Categories:

1. Catalog Models:
  - Course: Course metadata with difficulty, duration, and skills

2. Activity Models:
  - UserInteraction: Interaction history feeding collaborative filtering
  - Enrollment: Enrollment state feeding the personalization gate
  - Feedback: Reactions to recommendations

3. API Request/Response Models:
  - APIResponse: Standard response wrapper
  - APIError: Error details
  - Metadata: Response metadata (timestamp, query time)
  - FeedbackRequest/FeedbackResponse: Feedback ingestion payloads

Closed Vocabularies:

Interaction types (view, like, unlike, dislike, enroll, complete, rate),
difficulty levels (beginner, intermediate, advanced), and content formats
(video, reading, interactive, mixed) are closed sets. Scoring weight tables
are keyed by these exact strings, so new values require code changes, not
just data changes.

Usage Example:

	import "github.com/courseloom/praeceptor/internal/models"

	interaction := &models.UserInteraction{
	    UserID:    42,
	    CourseID:  1001,
	    Type:      models.InteractionComplete,
	    CreatedAt: time.Now().UTC(),
	}

Design Notes:

All models use JSON struct tags for API serialization. Optional fields use
pointers with omitempty to distinguish unset from zero values. Timestamps
are stored in UTC.
*/
package models
