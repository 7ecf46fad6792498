// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/courseloom/praeceptor/internal/metrics"
	"github.com/courseloom/praeceptor/internal/models"
)

// UpsertEnrollment inserts a new enrollment or updates the status and
// progress of an existing (user, course) row.
func (db *DB) UpsertEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentActive
	}
	if enrollment.Status == models.EnrollmentCompleted && enrollment.CompletedAt == nil {
		now := time.Now().UTC()
		enrollment.CompletedAt = &now
	}

	query := `INSERT INTO enrollments (
		user_id, course_id, status, progress, enrolled_at, completed_at
	) VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_id, course_id) DO UPDATE SET
		status = excluded.status,
		progress = excluded.progress,
		completed_at = excluded.completed_at`

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		enrollment.UserID, enrollment.CourseID, enrollment.Status,
		enrollment.Progress, enrollment.EnrolledAt, enrollment.CompletedAt,
	)
	metrics.RecordDBQuery("UPSERT", "enrollments", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to upsert enrollment: %w", err)
	}

	return nil
}

// GetEnrollment retrieves the enrollment for a (user, course) pair.
func (db *DB) GetEnrollment(ctx context.Context, userID, courseID int64) (*models.Enrollment, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	query := `SELECT id, user_id, course_id, status, progress, enrolled_at, completed_at
	FROM enrollments
	WHERE user_id = ? AND course_id = ?`

	var enrollment models.Enrollment
	var completedAt sql.NullTime

	start := time.Now()
	err := db.conn.QueryRowContext(ctx, query, userID, courseID).Scan(
		&enrollment.ID, &enrollment.UserID, &enrollment.CourseID,
		&enrollment.Status, &enrollment.Progress, &enrollment.EnrolledAt,
		&completedAt,
	)
	metrics.RecordDBQuery("SELECT", "enrollments", time.Since(start), err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	if completedAt.Valid {
		enrollment.CompletedAt = &completedAt.Time
	}

	return &enrollment, nil
}

// ListEnrollmentsByUser returns all of a user's enrollments, newest first.
func (db *DB) ListEnrollmentsByUser(ctx context.Context, userID int64) ([]models.Enrollment, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	query := `SELECT id, user_id, course_id, status, progress, enrolled_at, completed_at
	FROM enrollments
	WHERE user_id = ?
	ORDER BY enrolled_at DESC, id DESC`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, userID)
	metrics.RecordDBQuery("SELECT", "enrollments", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := make([]models.Enrollment, 0)
	for rows.Next() {
		var enrollment models.Enrollment
		var completedAt sql.NullTime

		err := rows.Scan(
			&enrollment.ID, &enrollment.UserID, &enrollment.CourseID,
			&enrollment.Status, &enrollment.Progress, &enrollment.EnrolledAt,
			&completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}

		if completedAt.Valid {
			enrollment.CompletedAt = &completedAt.Time
		}
		enrollments = append(enrollments, enrollment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollments: %w", err)
	}

	return enrollments, nil
}

// CountActiveEnrollmentsByUser returns how many non-dropped enrollments
// a user has. Feeds the personalization gate on every recommendation
// request, so it goes through the prepared statement cache.
func (db *DB) CountActiveEnrollmentsByUser(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	stmt, err := db.prepared(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE user_id = ? AND status IN ('active', 'completed')`)
	if err != nil {
		return 0, err
	}

	var count int64
	start := time.Now()
	err = stmt.QueryRowContext(ctx, userID).Scan(&count)
	metrics.RecordDBQuery("SELECT", "enrollments", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count active enrollments: %w", err)
	}

	return count, nil
}

// IncrementEnrollmentCount bumps a course's denormalized enrollment
// counter. Called alongside UpsertEnrollment on new enrollments.
func (db *DB) IncrementEnrollmentCount(ctx context.Context, courseID int64) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`UPDATE courses SET enrollment_count = enrollment_count + 1 WHERE id = ?`,
		courseID,
	)
	metrics.RecordDBQuery("UPDATE", "courses", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to increment enrollment count: %w", err)
	}

	db.invalidateCatalogCache()
	return nil
}
