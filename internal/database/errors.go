// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package database

import (
	"errors"
	"strings"
)

// Sentinel errors returned by repository methods. Callers branch with
// errors.Is; the API layer maps these to NOT_FOUND responses.
var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrCourseIDConflict   = errors.New("course with this id already exists")
)

// isUniqueConstraintError checks if an error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// DuckDB unique constraint error messages contain "UNIQUE constraint" or "Duplicate key"
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "unique constraint") || strings.Contains(errMsg, "duplicate key")
}

// isConnectionError checks if an error indicates a lost or unusable
// database connection rather than a bad query.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	connectionIndicators := []string{
		"database is closed",
		"connection refused",
		"connection reset",
		"broken pipe",
		"driver: bad connection",
	}
	for _, indicator := range connectionIndicators {
		if strings.Contains(errMsg, indicator) {
			return true
		}
	}
	return false
}
