// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package models

import (
	"time"
)

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
// It provides consistent structure for both successful and error responses, with metadata
// for observability and caching information.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"user_id": 42, "recommendations": [...]},
//	  "metadata": {
//	    "timestamp": "2026-08-25T12:00:00Z",
//	    "query_time_ms": 45,
//	    "cached": false
//	  }
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "Invalid limit parameter",
//	    "details": {"field": "limit"}
//	  },
//	  "metadata": {"timestamp": "2026-08-25T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability and performance tracking.
// All API responses include this metadata for monitoring query performance and
// cache effectiveness.
//
// Query time tracking:
//   - Cached responses: QueryTimeMS is 0, Cached is true
//   - Fresh queries: QueryTimeMS shows actual scoring pipeline time
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents an error response with structured error details.
// Provides consistent error format across all API endpoints for better client handling.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - DATABASE_ERROR: Query execution failure
//   - NOT_FOUND: Resource doesn't exist
//   - RATE_LIMIT_EXCEEDED: Too many requests
//   - ENGINE_ERROR: Recommendation pipeline failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// FeedbackRequest is the payload for POST /api/v1/feedback. The type
// vocabulary is closed; unknown types are rejected with VALIDATION_ERROR
// before anything reaches the learning pipeline.
//
// Example:
//
//	{
//	  "user_id": 42,
//	  "course_id": 1001,
//	  "type": "rate",
//	  "rating": 4.5
//	}
type FeedbackRequest struct {
	UserID   int64    `json:"user_id" validate:"required,gt=0"`
	CourseID int64    `json:"course_id" validate:"required,gt=0"`
	Type     string   `json:"type" validate:"required,oneof=view like unlike dislike enroll unenroll complete rate share"`
	Rating   *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	Comment  string   `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

// ToFeedback converts the request into the internal feedback model,
// stamping the server-side receive time.
func (r *FeedbackRequest) ToFeedback(now time.Time) Feedback {
	return Feedback{
		UserID:    r.UserID,
		CourseID:  r.CourseID,
		Type:      r.Type,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: now,
	}
}

// FeedbackResponse acknowledges accepted feedback. Processing is
// asynchronous: "accepted" means journaled and queued, not yet learned.
type FeedbackResponse struct {
	Accepted bool   `json:"accepted"`
	EntryID  string `json:"entry_id,omitempty"`
}
