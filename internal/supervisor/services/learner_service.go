// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package services

import (
	"context"
)

// FeedbackLoop interface matches the learner's Run method.
//
// This interface allows the LearnerService to work with the learner
// without importing the learning package.
//
// Satisfied by *learning.Learner from internal/recommend/learning:
//   - Run(ctx context.Context) error
type FeedbackLoop interface {
	Run(ctx context.Context) error
}

// LearnerService wraps the feedback learner's drain loop as a
// supervised service.
//
// The learner's Run method already implements the suture.Service
// pattern: it drains the buffer on its configured interval, flushes a
// final batch when the context is canceled, and returns ctx.Err().
// This wrapper delegates to it and provides a name for logging.
//
// Example usage:
//
//	learner := learning.New(cfg, logger)
//	svc := services.NewLearnerService(learner)
//	tree.AddMessagingService(svc)
type LearnerService struct {
	learner FeedbackLoop
	name    string
}

// NewLearnerService creates a new feedback learner service wrapper.
func NewLearnerService(learner FeedbackLoop) *LearnerService {
	return &LearnerService{
		learner: learner,
		name:    "feedback-learner",
	}
}

// Serve implements suture.Service by delegating to the learner's
// drain loop.
func (s *LearnerService) Serve(ctx context.Context) error {
	return s.learner.Run(ctx)
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *LearnerService) String() string {
	return s.name
}
