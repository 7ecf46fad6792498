// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package algorithms

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/courseloom/praeceptor/internal/cache"
	"github.com/courseloom/praeceptor/internal/recommend"
)

var _ recommend.Scorer = (*Collaborative)(nil)

// CollaborativeConfig tunes the user-based collaborative scorer.
type CollaborativeConfig struct {
	// Neighbors is the number of similar users kept per user.
	// Default: 20.
	Neighbors int

	// MinSimilarity drops neighbors below this cosine similarity.
	// Default: 0.1.
	MinSimilarity float64

	// DecayHorizonDays is the interaction age at which decay bottoms
	// out. Default: 365.
	DecayHorizonDays float64

	// DecayFloor is the minimum decay multiplier. Default: 0.1.
	DecayFloor float64

	// NumWorkers parallelizes neighbor precomputation. Default: 4.
	NumWorkers int
}

// DefaultCollaborativeConfig returns production-ready defaults.
func DefaultCollaborativeConfig() CollaborativeConfig {
	return CollaborativeConfig{
		Neighbors:        20,
		MinSimilarity:    0.1,
		DecayHorizonDays: 365,
		DecayFloor:       0.1,
		NumWorkers:       4,
	}
}

// userNeighbor is a similar user with their cosine similarity.
type userNeighbor struct {
	UserID     int64
	Similarity float64
}

// Collaborative implements user-based collaborative filtering. Training
// accumulates decayed interaction weights into per-user course vectors
// and precomputes each user's nearest neighbors; scoring sums
// similarity-weighted neighbor preferences over courses the user has
// not seen.
type Collaborative struct {
	BaseScorer
	config CollaborativeConfig

	userVectors map[int64]map[int64]float64
	neighbors   map[int64][]userNeighbor
	active      map[int64]struct{}
}

// NewCollaborative creates the scorer. Zero config fields receive
// defaults.
func NewCollaborative(config CollaborativeConfig) *Collaborative {
	if config.Neighbors <= 0 {
		config.Neighbors = 20
	}
	if config.MinSimilarity <= 0 {
		config.MinSimilarity = 0.1
	}
	if config.DecayHorizonDays <= 0 {
		config.DecayHorizonDays = 365
	}
	if config.DecayFloor <= 0 {
		config.DecayFloor = 0.1
	}
	if config.NumWorkers <= 0 {
		config.NumWorkers = 4
	}
	return &Collaborative{
		BaseScorer: NewBaseScorer("collaborative"),
		config:     config,
	}
}

// Train builds user preference vectors and neighbor lists. Weights
// accumulate additively, so repeat interactions with a course keep
// strengthening it.
//
//nolint:gocritic // rangeValCopy: interactions iterated by value
func (c *Collaborative) Train(ctx context.Context, interactions []recommend.Interaction, courses []recommend.Course) error {
	c.acquireTrainLock()
	defer c.releaseTrainLock()

	now := time.Now().UTC()
	vectors := make(map[int64]map[int64]float64)
	for _, inter := range interactions {
		weight := inter.Weight(now, c.config.DecayHorizonDays, c.config.DecayFloor)
		if weight == 0 {
			continue
		}
		vec := vectors[inter.UserID]
		if vec == nil {
			vec = make(map[int64]float64)
			vectors[inter.UserID] = vec
		}
		vec[inter.CourseID] += weight
	}

	active := make(map[int64]struct{}, len(courses))
	for _, course := range courses {
		if course.Active {
			active[course.ID] = struct{}{}
		}
	}

	neighbors, err := c.computeNeighbors(ctx, vectors)
	if err != nil {
		return err
	}

	c.userVectors = vectors
	c.neighbors = neighbors
	c.active = active
	c.markTrained()
	return nil
}

// computeNeighbors precomputes each user's top similar users across a
// fixed-size worker pool.
func (c *Collaborative) computeNeighbors(ctx context.Context, vectors map[int64]map[int64]float64) (map[int64][]userNeighbor, error) {
	userIDs := make([]int64, 0, len(vectors))
	for id := range vectors {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	neighbors := make(map[int64][]userNeighbor, len(userIDs))
	var neighborsMu sync.Mutex
	var cancelled atomic.Bool
	var wg sync.WaitGroup

	chunk := (len(userIDs) + c.config.NumWorkers - 1) / c.config.NumWorkers
	for start := 0; start < len(userIDs); start += chunk {
		end := start + chunk
		if end > len(userIDs) {
			end = len(userIDs)
		}
		wg.Add(1)
		go func(ids []int64) {
			defer wg.Done()
			for _, userID := range ids {
				if contextCancelled(ctx) {
					cancelled.Store(true)
					return
				}
				list := c.nearestUsers(userID, vectors)
				if len(list) == 0 {
					continue
				}
				neighborsMu.Lock()
				neighbors[userID] = list
				neighborsMu.Unlock()
			}
		}(userIDs[start:end])
	}
	wg.Wait()

	if cancelled.Load() {
		return nil, ctx.Err()
	}
	return neighbors, nil
}

// nearestUsers ranks other users by cosine similarity over shared
// course weights, keeping the configured top K above the similarity
// floor. Ties break toward the smaller user ID.
func (c *Collaborative) nearestUsers(userID int64, vectors map[int64]map[int64]float64) []userNeighbor {
	own := vectors[userID]
	top := cache.NewTopK[struct{}](c.config.Neighbors)
	for otherID, other := range vectors {
		if otherID == userID {
			continue
		}
		sim := cosineSimilarityMap(own, other)
		if sim < c.config.MinSimilarity {
			continue
		}
		top.Push(otherID, struct{}{}, sim)
	}

	ranked := top.Sorted()
	if len(ranked) == 0 {
		return nil
	}
	out := make([]userNeighbor, len(ranked))
	for i, item := range ranked {
		out[i] = userNeighbor{UserID: item.ID, Similarity: item.Score}
	}
	return out
}

// Score sums similarity-weighted neighbor preferences over active
// courses outside the user's own history.
func (c *Collaborative) Score(ctx context.Context, userID int64, limit int, exclude map[int64]struct{}) ([]recommend.Candidate, error) {
	c.acquireScoreLock()
	defer c.releaseScoreLock()

	if !c.trained {
		return nil, recommend.ErrNotTrained
	}
	if limit <= 0 {
		return nil, nil
	}
	if contextCancelled(ctx) {
		return nil, ctx.Err()
	}

	neighbors := c.neighbors[userID]
	if len(neighbors) == 0 {
		return nil, nil
	}

	own := c.userVectors[userID]
	scores := make(map[int64]float64)
	for _, n := range neighbors {
		for courseID, weight := range c.userVectors[n.UserID] {
			if _, seen := own[courseID]; seen {
				continue
			}
			if _, skip := exclude[courseID]; skip {
				continue
			}
			if _, ok := c.active[courseID]; !ok {
				continue
			}
			scores[courseID] += n.Similarity * weight
		}
	}
	if len(scores) == 0 {
		return nil, nil
	}

	top := cache.NewTopK[struct{}](limit)
	for courseID, score := range scores {
		top.Push(courseID, struct{}{}, score)
	}

	ranked := top.Sorted()
	candidates := make([]recommend.Candidate, len(ranked))
	for i, item := range ranked {
		candidates[i] = recommend.Candidate{
			CourseID:   item.ID,
			Confidence: collaborativeConfidence(item.Score),
			Reason:     recommend.ReasonCollaborative,
			Source:     recommend.AlgorithmCollaborative,
		}
	}
	return candidates, nil
}

// collaborativeConfidence maps an accumulated neighbor score into the
// serving band.
func collaborativeConfidence(score float64) float64 {
	return clamp(score/10, 0.6, 0.9)
}
