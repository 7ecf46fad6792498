// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package models

import (
	"testing"
	"time"
)

func TestDurationBucket(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		hours float64
		want  string
	}{
		{"zero duration is short", 0, "short"},
		{"one hour is short", 1, "short"},
		{"exactly two hours is short", 2, "short"},
		{"three hours is medium", 3, "medium"},
		{"exactly eight hours is medium", 8, "medium"},
		{"nine hours is long", 9, "long"},
		{"forty hours is long", 40, "long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := &Course{DurationHours: tt.hours}
			if got := c.DurationBucket(); got != tt.want {
				t.Errorf("DurationBucket() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsValidInteractionType(t *testing.T) {
	t.Parallel()

	valid := []string{
		InteractionView, InteractionLike, InteractionUnlike,
		InteractionDislike, InteractionEnroll, InteractionUnenroll,
		InteractionComplete, InteractionRate, InteractionShare,
	}
	for _, typ := range valid {
		if !IsValidInteractionType(typ) {
			t.Errorf("IsValidInteractionType(%q) = false, want true", typ)
		}
	}

	invalid := []string{"", "bookmark", "VIEW", "watch"}
	for _, typ := range invalid {
		if IsValidInteractionType(typ) {
			t.Errorf("IsValidInteractionType(%q) = true, want false", typ)
		}
	}
}

func TestFeedbackPolarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ          string
		wantPositive bool
		wantNegative bool
	}{
		{InteractionLike, true, false},
		{InteractionEnroll, true, false},
		{InteractionComplete, true, false},
		{InteractionDislike, false, true},
		{InteractionUnlike, false, true},
		{InteractionView, false, false},
		{InteractionRate, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			f := &Feedback{Type: tt.typ}
			if got := f.IsPositive(); got != tt.wantPositive {
				t.Errorf("IsPositive() = %v, want %v", got, tt.wantPositive)
			}
			if got := f.IsNegative(); got != tt.wantNegative {
				t.Errorf("IsNegative() = %v, want %v", got, tt.wantNegative)
			}
		})
	}
}

func TestFeedbackRatingValue(t *testing.T) {
	t.Parallel()

	f := &Feedback{Type: InteractionRate}
	if got := f.RatingValue(); got != 0 {
		t.Errorf("RatingValue() with nil rating = %v, want 0", got)
	}

	rating := 4.5
	f.Rating = &rating
	if got := f.RatingValue(); got != 4.5 {
		t.Errorf("RatingValue() = %v, want 4.5", got)
	}
}

func TestEnrollmentIsActive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status string
		want   bool
	}{
		{EnrollmentActive, true},
		{EnrollmentCompleted, true},
		{EnrollmentDropped, false},
		{"", false},
	}

	for _, tt := range tests {
		e := &Enrollment{Status: tt.status}
		if got := e.IsActive(); got != tt.want {
			t.Errorf("IsActive() with status %q = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestFeedbackRequestToFeedback(t *testing.T) {
	t.Parallel()

	rating := 3.5
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	req := &FeedbackRequest{
		UserID:   42,
		CourseID: 1001,
		Type:     InteractionRate,
		Rating:   &rating,
		Comment:  "solid intro",
	}

	f := req.ToFeedback(now)
	if f.UserID != 42 || f.CourseID != 1001 {
		t.Errorf("ToFeedback() ids = (%d, %d), want (42, 1001)", f.UserID, f.CourseID)
	}
	if f.Type != InteractionRate {
		t.Errorf("ToFeedback() type = %q, want %q", f.Type, InteractionRate)
	}
	if f.Rating == nil || *f.Rating != 3.5 {
		t.Errorf("ToFeedback() rating = %v, want 3.5", f.Rating)
	}
	if !f.CreatedAt.Equal(now) {
		t.Errorf("ToFeedback() created_at = %v, want %v", f.CreatedAt, now)
	}
}
