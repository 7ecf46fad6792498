// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package algorithms

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/courseloom/praeceptor/internal/recommend"
)

// BaseScorer provides the bookkeeping shared by every scorer: name,
// trained flag, version counter and the lock protecting trained state.
// Embed it by value and guard state access with the train and score
// locks.
type BaseScorer struct {
	name          string
	trained       bool
	version       int
	lastTrainedAt time.Time
	mu            sync.RWMutex
}

// NewBaseScorer creates the shared scorer base.
func NewBaseScorer(name string) BaseScorer {
	return BaseScorer{name: name}
}

// Name returns the scorer's name.
func (b *BaseScorer) Name() string {
	return b.name
}

// IsTrained reports whether at least one training pass completed.
func (b *BaseScorer) IsTrained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trained
}

// Version returns the training generation counter.
func (b *BaseScorer) Version() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// LastTrainedAt returns the completion time of the last training pass.
func (b *BaseScorer) LastTrainedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastTrainedAt
}

// markTrained records a completed training pass. Callers must hold the
// write lock.
func (b *BaseScorer) markTrained() {
	b.trained = true
	b.version++
	b.lastTrainedAt = time.Now().UTC()
}

func (b *BaseScorer) acquireTrainLock() { b.mu.Lock() }
func (b *BaseScorer) releaseTrainLock() { b.mu.Unlock() }
func (b *BaseScorer) acquireScoreLock() { b.mu.RLock() }
func (b *BaseScorer) releaseScoreLock() { b.mu.RUnlock() }

// contextCancelled reports whether the context is done without
// blocking.
func contextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// cosineSimilarityMap computes cosine similarity between two sparse
// weight vectors. The dot product runs over the key intersection while
// the norms cover each full vector, so identical vectors score 1.0.
func cosineSimilarityMap(a, b map[int64]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Iterate the smaller map for the intersection.
	if len(b) < len(a) {
		a, b = b, a
	}

	var dot float64
	for key, av := range a {
		if bv, ok := b[key]; ok {
			dot += av * bv
		}
	}
	if dot == 0 {
		return 0
	}

	var normA, normB float64
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// cosineSimilarityVec computes cosine similarity between two dense
// vectors of equal length.
func cosineSimilarityVec(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// jaccardSimilarity computes set overlap between two string slices,
// case-insensitive.
func jaccardSimilarity(a, b []string) float64 {
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

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sortCoursesByPopularity orders courses by rating then enrollment
// count, both descending, with ascending ID breaking ties.
func sortCoursesByPopularity(courses []recommend.Course) {
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].Rating != courses[j].Rating {
			return courses[i].Rating > courses[j].Rating
		}
		if courses[i].EnrollmentCount != courses[j].EnrollmentCount {
			return courses[i].EnrollmentCount > courses[j].EnrollmentCount
		}
		return courses[i].ID < courses[j].ID
	})
}
