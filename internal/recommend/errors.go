// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package recommend

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the engine. Callers match them with
// errors.Is; the engine wraps them with request detail using %w.
var (
	// ErrInsufficientData signals that a user has too little history to
	// personalize for. It routes the request to the popularity
	// fallback rather than surfacing to clients.
	ErrInsufficientData = errors.New("insufficient interaction data")

	// ErrNotTrained is returned when a scorer is asked to score before
	// its first training pass completed.
	ErrNotTrained = errors.New("scorer not trained")

	// ErrTrainingInProgress is returned when a training pass is
	// requested while another is still running.
	ErrTrainingInProgress = errors.New("training already in progress")

	// ErrNoProvider is returned when the engine is used before a data
	// provider was attached.
	ErrNoProvider = errors.New("data provider not configured")

	// ErrCourseNotFound is returned by the similar-courses surface when
	// the anchor course does not exist.
	ErrCourseNotFound = errors.New("course not found")

	// ErrNoCandidates is returned when every stage of the fallback
	// chain came up empty.
	ErrNoCandidates = errors.New("no candidates available")
)

// ScorerError attributes a failure to a named scorer. The engine treats
// scorer failures as soft: it logs them, serves what the remaining
// stages produce, and never panics a request over one.
type ScorerError struct {
	Scorer string
	Err    error
}

// Error implements the error interface.
func (e *ScorerError) Error() string {
	return fmt.Sprintf("scorer %s: %v", e.Scorer, e.Err)
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *ScorerError) Unwrap() error {
	return e.Err
}

// NewScorerError wraps err with the scorer's name. Returns nil when err
// is nil.
func NewScorerError(scorer string, err error) error {
	if err == nil {
		return nil
	}
	return &ScorerError{Scorer: scorer, Err: err}
}
