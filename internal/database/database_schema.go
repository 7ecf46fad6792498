// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

/*
database_schema.go - Database Schema Management

This file manages the DuckDB database schema including table creation
and index management for optimal query performance.

Tables:
  - courses: Course catalog with classification, rating, and skill metadata
  - user_interactions: Append-only log of user actions on courses
    (views, likes, enrollments, completions, ratings, feedback)
  - enrollments: One row per (user, course) registration with status
    and progress

Schema Strategy (Pre-Release):
All columns are defined in the initial CREATE TABLE statement. This provides:
  - Single source of truth for the complete schema
  - Faster startup (no migrations to run)
  - Cleaner codebase

Post-Release Migration Strategy:
After the first public release with real users, use versioned migrations in
migrations.go to add new columns without losing existing data.

Index Strategy:
Indexes are created for:
  - The candidate generation path (active courses ordered by rating)
  - Per-user interaction history scans (collaborative training)
  - The personalization gate (interaction and enrollment counts per user)
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := db.getTableCreationQueries()

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func (db *DB) getTableCreationQueries() []string {
	return []string{
		// Course catalog. Skills are stored as a comma-separated list;
		// splitAndTrim reconstructs the slice on read.
		`CREATE TABLE IF NOT EXISTS courses (
			id BIGINT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			category TEXT NOT NULL,
			difficulty TEXT NOT NULL CHECK (difficulty IN ('beginner', 'intermediate', 'advanced')),
			content_type TEXT NOT NULL,
			duration_hours DOUBLE NOT NULL DEFAULT 0,
			rating DOUBLE NOT NULL DEFAULT 0,
			rating_count INTEGER NOT NULL DEFAULT 0,
			enrollment_count INTEGER NOT NULL DEFAULT 0,
			skills TEXT,
			instructor TEXT,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Interaction log. Append-only: rows are never updated or
		// deleted by the application. Feedback is persisted here too so
		// future training rounds see it (comment column is write-only
		// from the feedback path).
		`CREATE SEQUENCE IF NOT EXISTS seq_interaction_id START 1;`,
		`CREATE TABLE IF NOT EXISTS user_interactions (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_interaction_id'),
			user_id BIGINT NOT NULL,
			course_id BIGINT NOT NULL,
			interaction_type TEXT NOT NULL,
			rating DOUBLE,
			progress DOUBLE,
			comment TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Enrollments. One row per (user, course); status transitions
		// active -> completed or active -> dropped via upsert.
		`CREATE SEQUENCE IF NOT EXISTS seq_enrollment_id START 1;`,
		`CREATE TABLE IF NOT EXISTS enrollments (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_enrollment_id'),
			user_id BIGINT NOT NULL,
			course_id BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'completed', 'dropped')),
			progress DOUBLE NOT NULL DEFAULT 0,
			enrolled_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			completed_at TIMESTAMP,
			UNIQUE (user_id, course_id)
		);`,
	}
}

// createIndexes creates database indexes for query optimization
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		// Candidate generation: active courses ordered by rating
		`CREATE INDEX IF NOT EXISTS idx_courses_active ON courses(active);`,
		`CREATE INDEX IF NOT EXISTS idx_courses_category ON courses(category);`,
		`CREATE INDEX IF NOT EXISTS idx_courses_rating ON courses(rating DESC);`,

		// Collaborative training and per-user history scans
		`CREATE INDEX IF NOT EXISTS idx_interactions_user ON user_interactions(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_course ON user_interactions(course_id);`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_created ON user_interactions(created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_user_course ON user_interactions(user_id, course_id);`,

		// Personalization gate counts
		`CREATE INDEX IF NOT EXISTS idx_enrollments_user ON enrollments(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_enrollments_course ON enrollments(course_id);`,
		`CREATE INDEX IF NOT EXISTS idx_enrollments_status ON enrollments(status);`,
	}

	for _, idx := range indexes {
		if _, err := db.conn.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", idx, err)
		}
	}

	return nil
}
