// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package events

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/courseloom/praeceptor/internal/recommend"
)

// RecommendationPublisher publishes recommendation events to the
// stream. Satisfied by *Publisher.
type RecommendationPublisher interface {
	PublishRecommendation(ctx context.Context, event *RecommendationEvent) error
}

// RecommendationSink bridges the engine to NATS: it implements
// recommend.EventSink by converting served recommendations to
// versioned stream events.
type RecommendationSink struct {
	publisher RecommendationPublisher
	logger    zerolog.Logger

	published atomic.Int64
	failed    atomic.Int64
}

// NewRecommendationSink creates a sink publishing through the given
// publisher.
func NewRecommendationSink(publisher RecommendationPublisher, logger zerolog.Logger) *RecommendationSink {
	return &RecommendationSink{
		publisher: publisher,
		logger:    logger.With().Str("component", "recommendation_sink").Logger(),
	}
}

// PublishRecommended converts and publishes a single served
// recommendation. Implements recommend.EventSink.
func (s *RecommendationSink) PublishRecommended(ctx context.Context, ev *recommend.RecommendedEvent) error {
	if ev == nil {
		return ErrNilEvent
	}

	event := NewRecommendationEvent(ev)
	if err := s.publisher.PublishRecommendation(ctx, event); err != nil {
		s.failed.Add(1)
		return fmt.Errorf("publish recommendation event: %w", err)
	}

	s.published.Add(1)
	s.logger.Trace().
		Str("event_id", event.EventID).
		Int64("user_id", event.UserID).
		Int64("course_id", event.CourseID).
		Str("source", event.Source).
		Msg("Published recommendation event")
	return nil
}

// Published returns the count of successfully published events.
func (s *RecommendationSink) Published() int64 {
	return s.published.Load()
}

// Failed returns the count of failed publishes.
func (s *RecommendationSink) Failed() int64 {
	return s.failed.Load()
}
