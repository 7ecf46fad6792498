// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package storage

import (
	"context"
	"encoding/gob"
	"errors"

	"github.com/courseloom/praeceptor/internal/metrics"
	"github.com/courseloom/praeceptor/internal/recommend"
	"github.com/courseloom/praeceptor/internal/recommend/learning"
)

// Well-known artifact names.
const (
	// ArtifactVectors holds the course embedding vectors.
	ArtifactVectors = "course_vectors"

	// ArtifactUserEncoder holds the user feature encoder.
	ArtifactUserEncoder = "user_encoder"

	// ArtifactCourseEncoder holds the course feature encoder.
	ArtifactCourseEncoder = "course_encoder"

	// ArtifactLearnerState holds the feedback learner's state.
	ArtifactLearnerState = "learner_state"
)

// SaveVectors persists course embedding vectors as the next version.
//
//nolint:gocritic // hugeParam: meta passed by value is acceptable for this write operation
func (s *Store) SaveVectors(ctx context.Context, vectors []recommend.CourseVector, meta ArtifactMetadata) error {
	return s.saveArtifact(ctx, ArtifactVectors, vectors, meta)
}

// LoadVectors loads the latest course embedding vectors.
func (s *Store) LoadVectors(ctx context.Context) ([]recommend.CourseVector, *ArtifactMetadata, error) {
	var vectors []recommend.CourseVector

	meta, err := s.loadArtifact(ctx, ArtifactVectors, &vectors)
	if err != nil {
		return nil, nil, err
	}

	return vectors, meta, nil
}

// SaveUserEncoder persists the user feature encoder as the next
// version.
//
//nolint:gocritic // hugeParam: meta passed by value is acceptable for this write operation
func (s *Store) SaveUserEncoder(ctx context.Context, encoder *recommend.FeatureEncoder, meta ArtifactMetadata) error {
	return s.saveArtifact(ctx, ArtifactUserEncoder, encoder, meta)
}

// LoadUserEncoder loads the latest user feature encoder.
func (s *Store) LoadUserEncoder(ctx context.Context) (*recommend.FeatureEncoder, *ArtifactMetadata, error) {
	var encoder recommend.FeatureEncoder

	meta, err := s.loadArtifact(ctx, ArtifactUserEncoder, &encoder)
	if err != nil {
		return nil, nil, err
	}

	return &encoder, meta, nil
}

// SaveCourseEncoder persists the course feature encoder as the next
// version.
//
//nolint:gocritic // hugeParam: meta passed by value is acceptable for this write operation
func (s *Store) SaveCourseEncoder(ctx context.Context, encoder *recommend.FeatureEncoder, meta ArtifactMetadata) error {
	return s.saveArtifact(ctx, ArtifactCourseEncoder, encoder, meta)
}

// LoadCourseEncoder loads the latest course feature encoder.
func (s *Store) LoadCourseEncoder(ctx context.Context) (*recommend.FeatureEncoder, *ArtifactMetadata, error) {
	var encoder recommend.FeatureEncoder

	meta, err := s.loadArtifact(ctx, ArtifactCourseEncoder, &encoder)
	if err != nil {
		return nil, nil, err
	}

	return &encoder, meta, nil
}

// SaveLearnerState persists the feedback learner's state as the next
// version.
func (s *Store) SaveLearnerState(ctx context.Context, state *learning.State) error {
	meta := ArtifactMetadata{UserCount: len(state.Users)}

	return s.saveArtifact(ctx, ArtifactLearnerState, state, meta)
}

// LoadLearnerState loads the latest persisted learner state.
func (s *Store) LoadLearnerState(ctx context.Context) (*learning.State, error) {
	var state learning.State

	if _, err := s.loadArtifact(ctx, ArtifactLearnerState, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

// saveArtifact stores data as the next version of name and records the
// outcome.
//
//nolint:gocritic // hugeParam: meta passed by value is acceptable for this write operation
func (s *Store) saveArtifact(ctx context.Context, name string, data interface{}, meta ArtifactMetadata) error {
	version, _ := s.GetLatestVersion(name)

	err := s.Save(ctx, name, version+1, data, meta)

	result := "success"
	if err != nil {
		result = "error"
	}

	metrics.ModelArtifactSaves.WithLabelValues(name, result).Inc()

	return err
}

// loadArtifact loads the latest version of name into target and records
// the outcome.
func (s *Store) loadArtifact(ctx context.Context, name string, target interface{}) (*ArtifactMetadata, error) {
	meta, err := s.Load(ctx, name, 0, target)

	switch {
	case err == nil:
		metrics.ModelArtifactLoads.WithLabelValues(name, "success").Inc()
	case errors.Is(err, ErrArtifactNotFound):
		metrics.ModelArtifactLoads.WithLabelValues(name, "missing").Inc()
	default:
		metrics.ModelArtifactLoads.WithLabelValues(name, "corrupt").Inc()
	}

	return meta, err
}

// Register gob types for serialization.
//
//nolint:gochecknoinits // gob.Register must be called in init for type registration
func init() {
	gob.Register(ArtifactMetadata{})
	gob.Register(storedFile{})
	gob.Register(recommend.CourseVector{})
	gob.Register(recommend.FeatureEncoder{})
	gob.Register(learning.State{})
	gob.Register(learning.UserState{})
	gob.Register(learning.Snapshot{})
	gob.Register(learning.PreferenceUpdate{})
}
