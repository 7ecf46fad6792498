// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package algorithms

import (
	"context"

	"github.com/courseloom/praeceptor/internal/recommend"
)

var _ recommend.Scorer = (*Popularity)(nil)

// Popularity ranks the active catalog by rating and enrollment count.
// It backs explicit popularity requests and the end of the fallback
// chain; the same ranking serves every user, so only the exclusion set
// differs.
type Popularity struct {
	BaseScorer
	ranked []recommend.Course
}

// NewPopularity creates the scorer.
func NewPopularity() *Popularity {
	return &Popularity{BaseScorer: NewBaseScorer("popularity")}
}

// Train snapshots the active catalog in serving order. Interactions are
// unused; the rating and enrollment aggregates already live on the
// catalog rows.
//
//nolint:gocritic // rangeValCopy: courses iterated by value
func (p *Popularity) Train(ctx context.Context, _ []recommend.Interaction, courses []recommend.Course) error {
	p.acquireTrainLock()
	defer p.releaseTrainLock()

	if contextCancelled(ctx) {
		return ctx.Err()
	}

	ranked := make([]recommend.Course, 0, len(courses))
	for _, course := range courses {
		if course.Active {
			ranked = append(ranked, course)
		}
	}
	sortCoursesByPopularity(ranked)

	p.ranked = ranked
	p.markTrained()
	return nil
}

// Score serves the top of the ranking with rank-decayed confidence,
// skipping excluded courses.
func (p *Popularity) Score(ctx context.Context, _ int64, limit int, exclude map[int64]struct{}) ([]recommend.Candidate, error) {
	p.acquireScoreLock()
	defer p.releaseScoreLock()

	if !p.trained {
		return nil, recommend.ErrNotTrained
	}
	if limit <= 0 {
		return nil, nil
	}
	if contextCancelled(ctx) {
		return nil, ctx.Err()
	}

	candidates := make([]recommend.Candidate, 0, limit)
	for _, course := range p.ranked {
		if len(candidates) >= limit {
			break
		}
		if _, skip := exclude[course.ID]; skip {
			continue
		}
		candidates = append(candidates, recommend.Candidate{
			CourseID:   course.ID,
			Confidence: recommend.PopularityConfidence(len(candidates)),
			Reason:     recommend.ReasonPopular,
			Source:     recommend.AlgorithmPopularity,
		})
	}
	return candidates, nil
}
