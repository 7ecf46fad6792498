// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package reranking

import (
	"context"
	"math"
	"strings"

	"github.com/courseloom/praeceptor/internal/recommend"
)

var _ recommend.Reranker = (*MMR)(nil)

const (
	// maxRerankSize bounds the pairwise similarity computation.
	maxRerankSize = 10000

	// Attribute similarity splits between skill overlap and category
	// equality.
	skillSimWeight    = 0.6
	categorySimWeight = 0.4
)

// MMR implements Maximal Marginal Relevance selection (Carbonell and
// Goldstein, SIGIR 1998) over candidate lists. Relevance is the
// candidate's confidence; redundancy is attribute similarity between
// courses, from skill overlap and shared category.
type MMR struct {
	lambda  float64
	resolve CourseResolver
}

// NewMMR creates the reranker. Lambda balances relevance against
// diversity: 1 is pure relevance and leaves ranking untouched, 0 is
// pure diversity. Out-of-range values are clamped.
func NewMMR(lambda float64, resolve CourseResolver) *MMR {
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	return &MMR{lambda: lambda, resolve: resolve}
}

// Name returns the reranker name.
func (m *MMR) Name() string {
	return "mmr"
}

// Rerank greedily selects up to k candidates, each step picking the
// candidate with the best lambda-weighted balance of confidence and
// dissimilarity to what is already selected.
func (m *MMR) Rerank(ctx context.Context, candidates []recommend.Candidate, k int) []recommend.Candidate {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}
	if m.lambda >= 1 || len(candidates) == 1 || len(candidates) > maxRerankSize || ctx.Err() != nil {
		return candidates[:k]
	}

	courses := make([]recommend.Course, len(candidates))
	resolved := make([]bool, len(candidates))
	for i, cand := range candidates {
		courses[i], resolved[i] = m.resolve(cand.CourseID)
	}

	selected := make([]recommend.Candidate, 0, k)
	selectedIdx := make([]int, 0, k)
	remaining := make([]int, len(candidates))
	for i := range remaining {
		remaining[i] = i
	}

	for len(selected) < k && len(remaining) > 0 {
		bestPos := 0
		bestScore := math.Inf(-1)
		for pos, idx := range remaining {
			maxSim := 0.0
			for _, sel := range selectedIdx {
				if !resolved[idx] || !resolved[sel] {
					continue
				}
				if sim := courseSimilarity(courses[idx], courses[sel]); sim > maxSim {
					maxSim = sim
				}
			}
			score := m.lambda*candidates[idx].Confidence - (1-m.lambda)*maxSim
			if score > bestScore {
				bestScore = score
				bestPos = pos
			}
		}

		idx := remaining[bestPos]
		selected = append(selected, candidates[idx])
		selectedIdx = append(selectedIdx, idx)
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}
	return selected
}

// courseSimilarity measures attribute redundancy between two courses.
func courseSimilarity(a, b recommend.Course) float64 {
	sim := skillSimWeight * skillOverlap(a.Skills, b.Skills)
	if a.Category != "" && strings.EqualFold(a.Category, b.Category) {
		sim += categorySimWeight
	}
	return sim
}

// skillOverlap is the Jaccard similarity of two skill sets,
// case-insensitive.
func skillOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	intersection := 0
	for s := range setA {
		if _, ok := setB[s]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
