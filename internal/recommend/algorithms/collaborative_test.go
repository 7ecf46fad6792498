// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package algorithms

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/courseloom/praeceptor/internal/recommend"
)

func completion(userID, courseID int64, at time.Time) recommend.Interaction {
	return recommend.Interaction{
		UserID:    userID,
		CourseID:  courseID,
		Type:      recommend.InteractionComplete,
		CreatedAt: at,
	}
}

func activeCourses(ids ...int64) []recommend.Course {
	courses := make([]recommend.Course, len(ids))
	for i, id := range ids {
		courses[i] = recommend.Course{ID: id, Active: true}
	}
	return courses
}

func TestCollaborativeTrain(t *testing.T) {
	t.Parallel()

	t.Run("identical histories are mutual neighbors with similarity one", func(t *testing.T) {
		t.Parallel()
		now := time.Now()
		c := NewCollaborative(CollaborativeConfig{})

		err := c.Train(context.Background(), []recommend.Interaction{
			completion(1, 101, now),
			completion(1, 102, now),
			completion(2, 101, now),
			completion(2, 102, now),
			completion(3, 101, now),
			completion(3, 102, now),
			completion(3, 103, now),
		}, activeCourses(101, 102, 103))
		if err != nil {
			t.Fatalf("Train() error = %v, want nil", err)
		}

		findNeighbor := func(userID, neighborID int64) (userNeighbor, bool) {
			for _, n := range c.neighbors[userID] {
				if n.UserID == neighborID {
					return n, true
				}
			}
			return userNeighbor{}, false
		}

		n12, ok := findNeighbor(1, 2)
		if !ok {
			t.Fatal("user 2 missing from user 1's neighbors")
		}
		if !almostEqual(n12.Similarity, 1) {
			t.Errorf("similarity(1, 2) = %v, want 1", n12.Similarity)
		}

		n21, ok := findNeighbor(2, 1)
		if !ok {
			t.Fatal("user 1 missing from user 2's neighbors")
		}
		if !almostEqual(n21.Similarity, 1) {
			t.Errorf("similarity(2, 1) = %v, want 1", n21.Similarity)
		}

		// User 3 shares two of three courses with user 1.
		n13, ok := findNeighbor(1, 3)
		if !ok {
			t.Fatal("user 3 missing from user 1's neighbors")
		}
		want := 2 / (math.Sqrt(2) * math.Sqrt(3))
		if !almostEqual(n13.Similarity, want) {
			t.Errorf("similarity(1, 3) = %v, want %v", n13.Similarity, want)
		}
	})

	t.Run("repeat interactions accumulate additively", func(t *testing.T) {
		t.Parallel()
		now := time.Now()
		c := NewCollaborative(CollaborativeConfig{})

		views := []recommend.Interaction{
			{UserID: 1, CourseID: 101, Type: recommend.InteractionView, CreatedAt: now},
			{UserID: 1, CourseID: 101, Type: recommend.InteractionView, CreatedAt: now},
			{UserID: 1, CourseID: 101, Type: recommend.InteractionView, CreatedAt: now},
		}
		if err := c.Train(context.Background(), views, activeCourses(101)); err != nil {
			t.Fatalf("Train() error = %v, want nil", err)
		}

		if got := c.userVectors[1][101]; !almostEqual(got, 0.3) {
			t.Errorf("accumulated weight = %v, want 0.3 from three views", got)
		}
	})

	t.Run("old interactions decay to the floor", func(t *testing.T) {
		t.Parallel()
		now := time.Now()
		c := NewCollaborative(CollaborativeConfig{})

		old := []recommend.Interaction{
			completion(1, 101, now.Add(-400*24*time.Hour)),
		}
		if err := c.Train(context.Background(), old, activeCourses(101)); err != nil {
			t.Fatalf("Train() error = %v, want nil", err)
		}

		if got := c.userVectors[1][101]; !almostEqual(got, 0.1) {
			t.Errorf("decayed weight = %v, want 0.1 floor", got)
		}
	})

	t.Run("zero-weight interaction types are ignored", func(t *testing.T) {
		t.Parallel()
		now := time.Now()
		c := NewCollaborative(CollaborativeConfig{})

		err := c.Train(context.Background(), []recommend.Interaction{
			{UserID: 1, CourseID: 101, Type: recommend.InteractionDislike, CreatedAt: now},
		}, activeCourses(101))
		if err != nil {
			t.Fatalf("Train() error = %v, want nil", err)
		}
		if len(c.userVectors) != 0 {
			t.Errorf("userVectors = %v, want empty for zero-weight types", c.userVectors)
		}
	})

	t.Run("cancelled context aborts training", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := NewCollaborative(CollaborativeConfig{})
		err := c.Train(ctx, []recommend.Interaction{
			completion(1, 101, time.Now()),
		}, activeCourses(101))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Train() error = %v, want context.Canceled", err)
		}
		if c.IsTrained() {
			t.Error("IsTrained() = true after aborted training")
		}
	})
}

func TestCollaborativeScore(t *testing.T) {
	t.Parallel()

	now := time.Now()

	// Users 1 and 2 share courses 101 and 102; user 2 also completed
	// 103 and the inactive 104.
	train := func(t *testing.T) *Collaborative {
		t.Helper()
		c := NewCollaborative(CollaborativeConfig{})
		courses := activeCourses(101, 102, 103)
		courses = append(courses, recommend.Course{ID: 104, Active: false})
		err := c.Train(context.Background(), []recommend.Interaction{
			completion(1, 101, now),
			completion(1, 102, now),
			completion(2, 101, now),
			completion(2, 102, now),
			completion(2, 103, now),
			completion(2, 104, now),
		}, courses)
		if err != nil {
			t.Fatalf("Train() error = %v, want nil", err)
		}
		return c
	}

	t.Run("recommends neighbor courses outside own history", func(t *testing.T) {
		t.Parallel()
		c := train(t)

		candidates, err := c.Score(context.Background(), 1, 5, nil)
		if err != nil {
			t.Fatalf("Score() error = %v, want nil", err)
		}
		if len(candidates) != 1 {
			t.Fatalf("candidates = %d, want 1", len(candidates))
		}
		got := candidates[0]
		if got.CourseID != 103 {
			t.Errorf("candidate = course %d, want 103", got.CourseID)
		}
		if got.Reason != recommend.ReasonCollaborative {
			t.Errorf("reason = %q, want %q", got.Reason, recommend.ReasonCollaborative)
		}
		if got.Source != recommend.AlgorithmCollaborative {
			t.Errorf("source = %q, want %q", got.Source, recommend.AlgorithmCollaborative)
		}
		if got.Confidence < 0.6 || got.Confidence > 0.9 {
			t.Errorf("confidence = %v, want within [0.6, 0.9]", got.Confidence)
		}
	})

	t.Run("exclusion set suppresses candidates", func(t *testing.T) {
		t.Parallel()
		c := train(t)

		candidates, err := c.Score(context.Background(), 1, 5, map[int64]struct{}{103: {}})
		if err != nil {
			t.Fatalf("Score() error = %v, want nil", err)
		}
		if len(candidates) != 0 {
			t.Errorf("candidates = %v, want none with 103 excluded", candidates)
		}
	})

	t.Run("inactive courses are never recommended", func(t *testing.T) {
		t.Parallel()
		c := train(t)

		candidates, err := c.Score(context.Background(), 1, 5, nil)
		if err != nil {
			t.Fatalf("Score() error = %v, want nil", err)
		}
		for _, cand := range candidates {
			if cand.CourseID == 104 {
				t.Error("inactive course 104 recommended")
			}
		}
	})

	t.Run("user without neighbors gets nothing", func(t *testing.T) {
		t.Parallel()
		c := train(t)

		candidates, err := c.Score(context.Background(), 42, 5, nil)
		if err != nil {
			t.Fatalf("Score() error = %v, want nil", err)
		}
		if candidates != nil {
			t.Errorf("candidates = %v, want nil for unknown user", candidates)
		}
	})

	t.Run("untrained scorer returns ErrNotTrained", func(t *testing.T) {
		t.Parallel()
		c := NewCollaborative(CollaborativeConfig{})

		_, err := c.Score(context.Background(), 1, 5, nil)
		if !errors.Is(err, recommend.ErrNotTrained) {
			t.Errorf("Score() error = %v, want ErrNotTrained", err)
		}
	})
}

func TestCollaborativeConfidenceBand(t *testing.T) {
	t.Parallel()

	now := time.Now()
	interactions := []recommend.Interaction{
		completion(1, 101, now),
		completion(1, 102, now),
	}
	// Fifteen users identical apart from also completing course 999:
	// their contributions accumulate well past the confidence cap.
	for i := int64(0); i < 15; i++ {
		userID := 100 + i
		interactions = append(interactions,
			completion(userID, 101, now),
			completion(userID, 102, now),
			completion(userID, 999, now),
		)
	}

	c := NewCollaborative(CollaborativeConfig{})
	if err := c.Train(context.Background(), interactions, activeCourses(101, 102, 999)); err != nil {
		t.Fatalf("Train() error = %v, want nil", err)
	}

	candidates, err := c.Score(context.Background(), 1, 5, nil)
	if err != nil {
		t.Fatalf("Score() error = %v, want nil", err)
	}
	if len(candidates) != 1 || candidates[0].CourseID != 999 {
		t.Fatalf("candidates = %+v, want course 999", candidates)
	}
	if !almostEqual(candidates[0].Confidence, 0.9) {
		t.Errorf("confidence = %v, want capped at 0.9", candidates[0].Confidence)
	}
}

func TestCollaborativeScoreDeterministic(t *testing.T) {
	t.Parallel()

	now := time.Now()
	var interactions []recommend.Interaction
	for user := int64(1); user <= 6; user++ {
		for course := int64(101); course <= 108; course++ {
			if (user+course)%3 == 0 {
				continue
			}
			interactions = append(interactions, completion(user, course, now))
		}
	}

	c := NewCollaborative(CollaborativeConfig{})
	if err := c.Train(context.Background(), interactions, activeCourses(101, 102, 103, 104, 105, 106, 107, 108)); err != nil {
		t.Fatalf("Train() error = %v, want nil", err)
	}

	first, err := c.Score(context.Background(), 1, 5, nil)
	if err != nil {
		t.Fatalf("first Score() error = %v, want nil", err)
	}
	second, err := c.Score(context.Background(), 1, 5, nil)
	if err != nil {
		t.Fatalf("second Score() error = %v, want nil", err)
	}

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].CourseID != second[i].CourseID {
			t.Errorf("position %d differs: %d vs %d", i, first[i].CourseID, second[i].CourseID)
		}
	}
}
