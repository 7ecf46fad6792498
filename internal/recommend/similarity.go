// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package recommend

import (
	"math"
	"sync"

	"github.com/courseloom/praeceptor/internal/cache"
)

// Neighbor is a course scored by similarity to an anchor course.
type Neighbor struct {
	CourseID   int64
	Similarity float64
}

// SimilarityIndex answers nearest-neighbor queries over course
// embeddings. Vectors are L2-normalized at build time so cosine
// similarity reduces to a dot product at query time.
//
// The index is safe for concurrent use. Rebuild swaps the whole
// structure under the write lock, so readers always see a complete
// generation.
type SimilarityIndex struct {
	mu      sync.RWMutex
	dim     int
	ids     []int64
	rows    map[int64]int
	vectors [][]float64
}

// NewSimilarityIndex returns an empty index.
func NewSimilarityIndex() *SimilarityIndex {
	return &SimilarityIndex{rows: make(map[int64]int)}
}

// Rebuild replaces the index contents with the given vectors and
// returns the number indexed. Vectors with no magnitude or with a
// dimensionality different from the first valid vector are skipped.
func (s *SimilarityIndex) Rebuild(vectors []CourseVector) int {
	dim := 0
	ids := make([]int64, 0, len(vectors))
	rows := make(map[int64]int, len(vectors))
	normalized := make([][]float64, 0, len(vectors))

	for _, cv := range vectors {
		if len(cv.Embedding) == 0 {
			continue
		}
		if dim == 0 {
			dim = len(cv.Embedding)
		}
		if len(cv.Embedding) != dim {
			continue
		}
		vec := normalize(cv.Embedding)
		if vec == nil {
			continue
		}
		if _, dup := rows[cv.CourseID]; dup {
			continue
		}
		rows[cv.CourseID] = len(ids)
		ids = append(ids, cv.CourseID)
		normalized = append(normalized, vec)
	}

	s.mu.Lock()
	s.dim = dim
	s.ids = ids
	s.rows = rows
	s.vectors = normalized
	s.mu.Unlock()

	return len(ids)
}

// Nearest returns up to k courses most similar to the anchor, ordered
// by descending similarity with ascending course ID breaking ties. The
// anchor itself is excluded. Returns nil when the anchor is not
// indexed.
func (s *SimilarityIndex) Nearest(courseID int64, k int) []Neighbor {
	if k <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[courseID]
	if !ok {
		return nil
	}

	anchor := s.vectors[row]
	top := cache.NewTopK[struct{}](k)
	for i, id := range s.ids {
		if id == courseID {
			continue
		}
		top.Push(id, struct{}{}, dot(anchor, s.vectors[i]))
	}

	ranked := top.Sorted()
	neighbors := make([]Neighbor, len(ranked))
	for i, item := range ranked {
		neighbors[i] = Neighbor{CourseID: item.ID, Similarity: item.Score}
	}
	return neighbors
}

// Similarity returns the cosine similarity between two indexed courses,
// or zero when either is missing.
func (s *SimilarityIndex) Similarity(a, b int64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ra, ok := s.rows[a]
	if !ok {
		return 0
	}
	rb, ok := s.rows[b]
	if !ok {
		return 0
	}
	return dot(s.vectors[ra], s.vectors[rb])
}

// Has reports whether the course is indexed.
func (s *SimilarityIndex) Has(courseID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rows[courseID]
	return ok
}

// Len returns the number of indexed courses.
func (s *SimilarityIndex) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// normalize returns the unit-length copy of vec, or nil when vec has no
// magnitude.
func normalize(vec []float64) []float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return nil
	}
	norm := math.Sqrt(sum)
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
