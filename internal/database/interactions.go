// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/courseloom/praeceptor/internal/metrics"
	"github.com/courseloom/praeceptor/internal/models"
)

// RecordInteraction appends an interaction to the log. The log is
// append-only; corrections are modeled as new events (e.g. unlike after
// like), never as updates.
func (db *DB) RecordInteraction(ctx context.Context, interaction *models.UserInteraction) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO user_interactions (
		user_id, course_id, interaction_type, rating, progress, created_at
	) VALUES (?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		interaction.UserID, interaction.CourseID, interaction.Type,
		interaction.Rating, interaction.Progress, interaction.CreatedAt,
	)
	metrics.RecordDBQuery("INSERT", "user_interactions", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}

	return nil
}

// RecordFeedback persists a processed feedback event as an interaction
// row so future training rounds see it. The comment travels with the
// row but is never read back on the scoring path.
func (db *DB) RecordFeedback(ctx context.Context, fb *models.Feedback) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	createdAt := fb.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `INSERT INTO user_interactions (
		user_id, course_id, interaction_type, rating, comment, created_at
	) VALUES (?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		fb.UserID, fb.CourseID, fb.Type, fb.Rating,
		nullableString(fb.Comment), createdAt,
	)
	metrics.RecordDBQuery("INSERT", "user_interactions", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	return nil
}

// ListInteractionsByUser returns a user's interactions newest first.
func (db *DB) ListInteractionsByUser(ctx context.Context, userID int64, limit int) ([]models.UserInteraction, error) {
	if limit <= 0 {
		limit = 500
	}

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	query := `SELECT id, user_id, course_id, interaction_type, rating, progress, created_at
	FROM user_interactions
	WHERE user_id = ?
	ORDER BY created_at DESC, id DESC
	LIMIT ?`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, userID, limit)
	metrics.RecordDBQuery("SELECT", "user_interactions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()

	return collectInteractions(rows)
}

// ListInteractionsByCourse returns a course's interactions newest first.
func (db *DB) ListInteractionsByCourse(ctx context.Context, courseID int64, limit int) ([]models.UserInteraction, error) {
	if limit <= 0 {
		limit = 500
	}

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	query := `SELECT id, user_id, course_id, interaction_type, rating, progress, created_at
	FROM user_interactions
	WHERE course_id = ?
	ORDER BY created_at DESC, id DESC
	LIMIT ?`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, courseID, limit)
	metrics.RecordDBQuery("SELECT", "user_interactions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()

	return collectInteractions(rows)
}

// CountInteractionsByUser returns the total interaction count for a
// user. This feeds the personalization gate together with
// CountActiveEnrollmentsByUser, so it runs on every recommendation
// request and goes through the prepared statement cache.
func (db *DB) CountInteractionsByUser(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	stmt, err := db.prepared(ctx, `SELECT COUNT(*) FROM user_interactions WHERE user_id = ?`)
	if err != nil {
		return 0, err
	}

	var count int64
	start := time.Now()
	err = stmt.QueryRowContext(ctx, userID).Scan(&count)
	metrics.RecordDBQuery("SELECT", "user_interactions", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}

	return count, nil
}

// collectInteractions scans all rows into UserInteraction structs.
func collectInteractions(rows *sql.Rows) ([]models.UserInteraction, error) {
	interactions := make([]models.UserInteraction, 0)
	for rows.Next() {
		var inter models.UserInteraction
		var rating, progress sql.NullFloat64

		err := rows.Scan(
			&inter.ID, &inter.UserID, &inter.CourseID, &inter.Type,
			&rating, &progress, &inter.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}

		if rating.Valid {
			r := rating.Float64
			inter.Rating = &r
		}
		if progress.Valid {
			p := progress.Float64
			inter.Progress = &p
		}
		interactions = append(interactions, inter)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interactions: %w", err)
	}

	return interactions, nil
}

// nullableString maps an empty string to NULL for optional text columns.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
