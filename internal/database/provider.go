// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/courseloom/praeceptor/internal/metrics"
	"github.com/courseloom/praeceptor/internal/models"
	"github.com/courseloom/praeceptor/internal/recommend"
)

// This file implements the recommend.DataProvider contract. The engine
// depends on the interface, not on this package, so the dependency runs
// database -> recommend and never cycles back.

// GetTrainingInteractions returns the interaction log for recommendation
// model training. Events are returned raw; algorithms apply type base
// weights and temporal decay at training time so "now" is training time.
func (db *DB) GetTrainingInteractions(ctx context.Context, since time.Time) ([]recommend.Interaction, error) {
	query := `
		SELECT user_id, course_id, interaction_type, COALESCE(rating, 0), created_at
		FROM user_interactions
		WHERE created_at >= ?
		ORDER BY created_at DESC
	`

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, since)
	metrics.RecordDBQuery("SELECT", "user_interactions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query training interactions: %w", err)
	}
	defer rows.Close()

	var interactions []recommend.Interaction
	for rows.Next() {
		var (
			userID    int64
			courseID  int64
			eventType string
			rating    float64
			createdAt time.Time
		)

		if err := rows.Scan(&userID, &courseID, &eventType, &rating, &createdAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}

		interactions = append(interactions, recommend.Interaction{
			UserID:    userID,
			CourseID:  courseID,
			Type:      recommend.InteractionType(eventType),
			Rating:    rating,
			CreatedAt: createdAt,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}

	return interactions, nil
}

// GetTrainingCourses returns the catalog projection for model training.
// Inactive courses are included so trained state can score history
// against them, but they are never emitted as candidates.
func (db *DB) GetTrainingCourses(ctx context.Context) ([]recommend.Course, error) {
	query := `
		SELECT id, title, COALESCE(category, ''), COALESCE(difficulty, ''),
			COALESCE(content_type, ''), duration_hours, rating,
			enrollment_count, COALESCE(skills, ''), active
		FROM courses
	`

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query)
	metrics.RecordDBQuery("SELECT", "courses", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query training courses: %w", err)
	}
	defer rows.Close()

	var courses []recommend.Course
	for rows.Next() {
		var (
			course recommend.Course
			skills string
		)

		if err := rows.Scan(
			&course.ID, &course.Title, &course.Category, &course.Difficulty,
			&course.ContentType, &course.DurationHours, &course.Rating,
			&course.EnrollmentCount, &skills, &course.Active,
		); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}

		course.Skills = splitAndTrim(skills)
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}

	return courses, nil
}

// GetUserCourseHistory returns the distinct course IDs a user has
// interacted with or enrolled in. The engine excludes these from
// candidates so nobody is recommended a course they already know.
func (db *DB) GetUserCourseHistory(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT DISTINCT course_id FROM user_interactions WHERE user_id = ?
		UNION
		SELECT DISTINCT course_id FROM enrollments WHERE user_id = ?
	`

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, userID, userID)
	metrics.RecordDBQuery("SELECT", "user_interactions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query user history: %w", err)
	}
	defer rows.Close()

	var history []int64
	for rows.Next() {
		var courseID int64
		if err := rows.Scan(&courseID); err != nil {
			return nil, fmt.Errorf("scan course id: %w", err)
		}
		history = append(history, courseID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user history: %w", err)
	}

	return history, nil
}

// GetActiveCourses returns active courses as engine projections, rating
// descending then enrollment descending. Backs the popularity fallback.
func (db *DB) GetActiveCourses(ctx context.Context, limit int) ([]recommend.Course, error) {
	courses, err := db.ListActiveCourses(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toEngineCourses(courses), nil
}

// GetCoursesByCategory returns active courses in a category as engine
// projections. Backs the similar-courses category fallback.
func (db *DB) GetCoursesByCategory(ctx context.Context, category string, limit int) ([]recommend.Course, error) {
	courses, err := db.ListCoursesByCategory(ctx, category, limit)
	if err != nil {
		return nil, err
	}
	return toEngineCourses(courses), nil
}

// GetCourseByID returns a single course as an engine projection. The
// engine uses it to resolve titles and categories for courses it has
// not seen since the last training pass.
func (db *DB) GetCourseByID(ctx context.Context, id int64) (*recommend.Course, error) {
	course, err := db.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	projected := toEngineCourses([]models.Course{*course})
	return &projected[0], nil
}

// toEngineCourses maps catalog models to the engine's course projection.
func toEngineCourses(courses []models.Course) []recommend.Course {
	out := make([]recommend.Course, 0, len(courses))
	for i := range courses {
		c := &courses[i]
		out = append(out, recommend.Course{
			ID:              c.ID,
			Title:           c.Title,
			Category:        c.Category,
			Difficulty:      c.Difficulty,
			ContentType:     c.ContentType,
			DurationHours:   c.DurationHours,
			Skills:          c.Skills,
			Rating:          c.Rating,
			EnrollmentCount: int64(c.EnrollmentCount),
			Active:          c.Active,
		})
	}
	return out
}

// Compile-time check that DB satisfies the engine's data contract.
var _ recommend.DataProvider = (*DB)(nil)
