// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package events

import "errors"

// ErrPublisherClosed is returned when publishing through a closed publisher.
var ErrPublisherClosed = errors.New("publisher is closed")

// ErrNilEvent is returned when a nil event is passed to a publish method.
var ErrNilEvent = errors.New("event cannot be nil")

// ErrInvalidConfig is returned when pipeline configuration is invalid.
var ErrInvalidConfig = errors.New("invalid configuration")

// PermanentError marks a failure that retrying cannot fix, such as a
// malformed payload. These surface in logs and on the dead-letter
// topic with the cause preserved for inspection.
type PermanentError struct {
	Message string
	Cause   error
}

// NewPermanentError creates a permanent error.
func NewPermanentError(message string, cause error) *PermanentError {
	return &PermanentError{Message: message, Cause: cause}
}

func (e *PermanentError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *PermanentError) Unwrap() error {
	return e.Cause
}

// IsPermanentError checks whether err is, or wraps, a PermanentError.
func IsPermanentError(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}
