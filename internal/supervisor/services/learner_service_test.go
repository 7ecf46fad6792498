// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/courseloom/praeceptor/internal/recommend"
	"github.com/courseloom/praeceptor/internal/recommend/learning"
)

// mockFeedbackLoop is a test double for the FeedbackLoop interface.
type mockFeedbackLoop struct {
	runErr error
	ran    bool
}

func (m *mockFeedbackLoop) Run(ctx context.Context) error {
	m.ran = true
	if m.runErr != nil {
		return m.runErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestLearnerService_Interface(t *testing.T) {
	var _ suture.Service = (*LearnerService)(nil)
}

func TestLearnerService_DelegatesToRun(t *testing.T) {
	loop := &mockFeedbackLoop{}
	svc := NewLearnerService(loop)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
	if !loop.ran {
		t.Error("Run was not called")
	}
}

func TestLearnerService_PropagatesRunError(t *testing.T) {
	runErr := errors.New("drain failed")
	loop := &mockFeedbackLoop{runErr: runErr}
	svc := NewLearnerService(loop)

	if err := svc.Serve(context.Background()); !errors.Is(err, runErr) {
		t.Errorf("expected run error, got %v", err)
	}
}

// TestLearnerService_FlushesOnShutdown runs the wrapper against a real
// learner and verifies the final drain empties the buffer when the
// service stops.
func TestLearnerService_FlushesOnShutdown(t *testing.T) {
	learner := learning.New(learning.DefaultConfig(), zerolog.Nop())
	learner.Record(learning.Feedback{
		UserID:    7,
		CourseID:  101,
		Type:      recommend.InteractionComplete,
		CreatedAt: time.Now().UTC(),
	})
	if learner.BufferDepth() != 1 {
		t.Fatalf("expected buffered feedback before run, got depth %d", learner.BufferDepth())
	}

	svc := NewLearnerService(learner)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}

	if depth := learner.BufferDepth(); depth != 0 {
		t.Errorf("expected empty buffer after shutdown drain, got depth %d", depth)
	}
}

func TestLearnerService_String(t *testing.T) {
	svc := NewLearnerService(&mockFeedbackLoop{})

	if svc.String() != "feedback-learner" {
		t.Errorf("expected 'feedback-learner', got %q", svc.String())
	}
}
