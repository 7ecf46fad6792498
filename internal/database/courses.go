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

	"github.com/courseloom/praeceptor/internal/cache"
	"github.com/courseloom/praeceptor/internal/metrics"
	"github.com/courseloom/praeceptor/internal/models"
)

// courseColumns is the canonical column list shared by all course
// SELECTs so scanCourse stays in sync with a single definition.
const courseColumns = `id, title, description, category, difficulty, content_type,
	duration_hours, rating, rating_count, enrollment_count, skills,
	instructor, active, created_at, updated_at`

// CreateCourse inserts a new course into the catalog.
func (db *DB) CreateCourse(ctx context.Context, course *models.Course) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	query := `INSERT INTO courses (
		id, title, description, category, difficulty, content_type,
		duration_hours, rating, rating_count, enrollment_count, skills,
		instructor, active, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		course.ID, course.Title, course.Description, course.Category,
		course.Difficulty, course.ContentType, course.DurationHours,
		course.Rating, course.RatingCount, course.EnrollmentCount,
		joinList(course.Skills), course.Instructor, course.Active,
		course.CreatedAt, course.UpdatedAt,
	)
	metrics.RecordDBQuery("INSERT", "courses", time.Since(start), err)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrCourseIDConflict
		}
		return fmt.Errorf("failed to create course: %w", err)
	}

	db.invalidateCatalogCache()
	return nil
}

// GetCourse retrieves a course by ID. Lookups are served through the
// catalog cache; a miss falls through to DuckDB.
func (db *DB) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	cacheKey := fmt.Sprintf("course:%d", id)
	if cached, ok := db.queryCache.Get(cacheKey); ok {
		if course, ok := cached.(*models.Course); ok {
			return course, nil
		}
	}

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = ?`

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, query, id)
	course, err := scanCourse(row)
	metrics.RecordDBQuery("SELECT", "courses", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	db.queryCache.Set(cacheKey, course)
	return course, nil
}

// ListActiveCourses returns active courses ordered by rating descending,
// enrollment count descending. This ordering backs both the popularity
// fallback and the rule-based content fallback.
func (db *DB) ListActiveCourses(ctx context.Context, limit int) ([]models.Course, error) {
	if limit <= 0 {
		limit = 100
	}

	cacheKey := cache.GenerateKey("active_courses", map[string]int{"limit": limit})
	if cached, ok := db.queryCache.Get(cacheKey); ok {
		if courses, ok := cached.([]models.Course); ok {
			return courses, nil
		}
	}

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + courseColumns + `
	FROM courses
	WHERE active = true
	ORDER BY rating DESC, enrollment_count DESC, id ASC
	LIMIT ?`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, limit)
	metrics.RecordDBQuery("SELECT", "courses", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list active courses: %w", err)
	}
	defer rows.Close()

	courses, err := collectCourses(rows)
	if err != nil {
		return nil, err
	}

	db.queryCache.Set(cacheKey, courses)
	return courses, nil
}

// ListCoursesByCategory returns active courses in a category ordered by
// rating descending. Used by the similar-courses fallback when the
// similarity index has nothing for a course.
func (db *DB) ListCoursesByCategory(ctx context.Context, category string, limit int) ([]models.Course, error) {
	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + courseColumns + `
	FROM courses
	WHERE active = true AND lower(category) = lower(?)
	ORDER BY rating DESC, enrollment_count DESC, id ASC
	LIMIT ?`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, category, limit)
	metrics.RecordDBQuery("SELECT", "courses", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses by category: %w", err)
	}
	defer rows.Close()

	return collectCourses(rows)
}

// UpdateCourse updates catalog fields of an existing course.
func (db *DB) UpdateCourse(ctx context.Context, course *models.Course) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	course.UpdatedAt = time.Now().UTC()

	query := `UPDATE courses SET
		title = ?, description = ?, category = ?, difficulty = ?,
		content_type = ?, duration_hours = ?, rating = ?, rating_count = ?,
		enrollment_count = ?, skills = ?, instructor = ?, active = ?,
		updated_at = ?
	WHERE id = ?`

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, query,
		course.Title, course.Description, course.Category, course.Difficulty,
		course.ContentType, course.DurationHours, course.Rating, course.RatingCount,
		course.EnrollmentCount, joinList(course.Skills), course.Instructor,
		course.Active, course.UpdatedAt, course.ID,
	)
	metrics.RecordDBQuery("UPDATE", "courses", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCourseNotFound
	}

	db.invalidateCatalogCache()
	return nil
}

// SetCourseActive flips a course's recommendable flag.
func (db *DB) SetCourseActive(ctx context.Context, id int64, active bool) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	query := `UPDATE courses SET active = ?, updated_at = ? WHERE id = ?`

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, query, active, time.Now().UTC(), id)
	metrics.RecordDBQuery("UPDATE", "courses", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update course active flag: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCourseNotFound
	}

	db.invalidateCatalogCache()
	return nil
}

// CountCourses returns the number of courses, optionally active only.
func (db *DB) CountCourses(ctx context.Context, activeOnly bool) (int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	query := `SELECT COUNT(*) FROM courses`
	if activeOnly {
		query += ` WHERE active = true`
	}

	var count int64
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, query).Scan(&count)
	metrics.RecordDBQuery("SELECT", "courses", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}

	return count, nil
}

// invalidateCatalogCache drops all cached catalog reads after a write.
// The catalog is small and writes are rare, so a full clear is simpler
// than tracking per-key dependencies.
func (db *DB) invalidateCatalogCache() {
	db.queryCache.Clear()
}

// scanCourse scans a single row into a Course struct.
func scanCourse(row *sql.Row) (*models.Course, error) {
	var course models.Course
	var description, skills, instructor sql.NullString

	err := row.Scan(
		&course.ID, &course.Title, &description, &course.Category,
		&course.Difficulty, &course.ContentType, &course.DurationHours,
		&course.Rating, &course.RatingCount, &course.EnrollmentCount,
		&skills, &instructor, &course.Active,
		&course.CreatedAt, &course.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}

	applyCourseNullables(&course, description, skills, instructor)
	return &course, nil
}

// collectCourses scans all rows into Course structs.
func collectCourses(rows *sql.Rows) ([]models.Course, error) {
	courses := make([]models.Course, 0)
	for rows.Next() {
		var course models.Course
		var description, skills, instructor sql.NullString

		err := rows.Scan(
			&course.ID, &course.Title, &description, &course.Category,
			&course.Difficulty, &course.ContentType, &course.DurationHours,
			&course.Rating, &course.RatingCount, &course.EnrollmentCount,
			&skills, &instructor, &course.Active,
			&course.CreatedAt, &course.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}

		applyCourseNullables(&course, description, skills, instructor)
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}

	return courses, nil
}

func applyCourseNullables(course *models.Course, description, skills, instructor sql.NullString) {
	if description.Valid {
		course.Description = description.String
	}
	if skills.Valid {
		course.Skills = splitAndTrim(skills.String)
	}
	if instructor.Valid && instructor.String != "" {
		s := instructor.String
		course.Instructor = &s
	}
}
