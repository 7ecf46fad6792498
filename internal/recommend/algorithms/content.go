// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package algorithms

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/courseloom/praeceptor/internal/cache"
	"github.com/courseloom/praeceptor/internal/recommend"
)

var _ recommend.Scorer = (*Content)(nil)

// ContentConfig tunes the content-based scorer.
type ContentConfig struct {
	// MinConfidence floors served confidence. Default: 0.6.
	MinConfidence float64

	// MaxConfidence caps served confidence. Default: 0.95.
	MaxConfidence float64

	// SimilarityFactor scales cosine similarity into confidence.
	// Default: 1.2.
	SimilarityFactor float64

	// SkillBonusFactor scales skill overlap into confidence.
	// Default: 0.3.
	SkillBonusFactor float64

	// DecayHorizonDays is the interaction age at which decay bottoms
	// out. Default: 365.
	DecayHorizonDays float64

	// DecayFloor is the minimum decay multiplier. Default: 0.1.
	DecayFloor float64
}

// DefaultContentConfig returns production-ready defaults.
func DefaultContentConfig() ContentConfig {
	return ContentConfig{
		MinConfidence:    0.6,
		MaxConfidence:    0.95,
		SimilarityFactor: 1.2,
		SkillBonusFactor: 0.3,
		DecayHorizonDays: 365,
		DecayFloor:       0.1,
	}
}

// weightedCourse is a positive-history entry with its decayed weight.
type weightedCourse struct {
	courseID int64
	weight   float64
}

// Content scores courses against a per-user preference vector built
// from the embeddings of the user's positive history. Users without
// embedding coverage fall back to rule-based scoring over their
// attribute preference weights.
//
// Embeddings and the profile encoder arrive from model artifacts via
// SetVectors and SetEncoder; they refresh independently of training.
type Content struct {
	BaseScorer
	config ContentConfig

	vecMu   sync.RWMutex
	vectors map[int64][]float64
	encoder *recommend.FeatureEncoder

	profiles  map[int64]*recommend.UserProfile
	positives map[int64][]weightedCourse
	catalog   map[int64]recommend.Course
	ranked    []recommend.Course
}

// NewContent creates the scorer. Zero config fields receive defaults.
func NewContent(config ContentConfig) *Content {
	if config.MinConfidence <= 0 {
		config.MinConfidence = 0.6
	}
	if config.MaxConfidence <= 0 {
		config.MaxConfidence = 0.95
	}
	if config.SimilarityFactor <= 0 {
		config.SimilarityFactor = 1.2
	}
	if config.SkillBonusFactor <= 0 {
		config.SkillBonusFactor = 0.3
	}
	if config.DecayHorizonDays <= 0 {
		config.DecayHorizonDays = 365
	}
	if config.DecayFloor <= 0 {
		config.DecayFloor = 0.1
	}
	return &Content{
		BaseScorer: NewBaseScorer("content"),
		config:     config,
	}
}

// SetVectors installs course embeddings from the model artifact store.
func (c *Content) SetVectors(vectors []recommend.CourseVector) {
	byID := make(map[int64][]float64, len(vectors))
	for _, cv := range vectors {
		if len(cv.Embedding) == 0 {
			continue
		}
		byID[cv.CourseID] = cv.Embedding
	}

	c.vecMu.Lock()
	c.vectors = byID
	c.vecMu.Unlock()
}

// SetEncoder installs the user profile encoder used to project
// attribute weights into the embedding space.
func (c *Content) SetEncoder(encoder *recommend.FeatureEncoder) {
	c.vecMu.Lock()
	c.encoder = encoder
	c.vecMu.Unlock()
}

func (c *Content) artifacts() (map[int64][]float64, *recommend.FeatureEncoder) {
	c.vecMu.RLock()
	defer c.vecMu.RUnlock()
	return c.vectors, c.encoder
}

// Train builds per-user attribute profiles and positive-history lists
// from decayed interaction weights, and snapshots the active catalog in
// popularity order for the rule-based path.
//
//nolint:gocritic // rangeValCopy: interactions iterated by value
func (c *Content) Train(ctx context.Context, interactions []recommend.Interaction, courses []recommend.Course) error {
	c.acquireTrainLock()
	defer c.releaseTrainLock()

	catalog := make(map[int64]recommend.Course, len(courses))
	ranked := make([]recommend.Course, 0, len(courses))
	for _, course := range courses {
		catalog[course.ID] = course
		if course.Active {
			ranked = append(ranked, course)
		}
	}
	sortCoursesByPopularity(ranked)

	now := time.Now().UTC()
	profiles := make(map[int64]*recommend.UserProfile)
	positives := make(map[int64][]weightedCourse)
	skills := make(map[int64]map[string]struct{})

	for _, inter := range interactions {
		if contextCancelled(ctx) {
			return ctx.Err()
		}
		course, ok := catalog[inter.CourseID]
		if !ok {
			continue
		}

		weight := inter.Weight(now, c.config.DecayHorizonDays, c.config.DecayFloor)
		if weight > 0 {
			prof := profiles[inter.UserID]
			if prof == nil {
				prof = &recommend.UserProfile{
					UserID:             inter.UserID,
					CategoryWeights:    make(map[string]float64),
					DifficultyWeights:  make(map[string]float64),
					ContentTypeWeights: make(map[string]float64),
				}
				profiles[inter.UserID] = prof
			}
			addWeight(prof.CategoryWeights, course.Category, weight)
			addWeight(prof.DifficultyWeights, course.Difficulty, weight)
			addWeight(prof.ContentTypeWeights, course.ContentType, weight)
		}

		if inter.Type.IsPositive() {
			positives[inter.UserID] = append(positives[inter.UserID], weightedCourse{
				courseID: inter.CourseID,
				weight:   weight,
			})
			set := skills[inter.UserID]
			if set == nil {
				set = make(map[string]struct{})
				skills[inter.UserID] = set
			}
			for _, skill := range course.Skills {
				skill = strings.ToLower(strings.TrimSpace(skill))
				if skill != "" {
					set[skill] = struct{}{}
				}
			}
		}
	}

	for userID, set := range skills {
		prof := profiles[userID]
		if prof == nil {
			continue
		}
		prof.SkillsToDevelop = sortedStrings(set)
	}

	c.catalog = catalog
	c.ranked = ranked
	c.profiles = profiles
	c.positives = positives
	c.markTrained()
	return nil
}

// Score ranks courses for the user. Embedding scoring is used when the
// user has a preference vector; otherwise the rule-based path scores
// the active catalog by attribute preference weights.
func (c *Content) Score(ctx context.Context, userID int64, limit int, exclude map[int64]struct{}) ([]recommend.Candidate, error) {
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

	prof := c.profiles[userID]
	if prof == nil {
		return nil, nil
	}

	vectors, encoder := c.artifacts()
	pref := c.preferenceVector(userID, prof, vectors, encoder)
	if pref == nil {
		return c.ruleBased(prof, limit, exclude), nil
	}
	return c.embeddingScore(userID, prof, pref, vectors, limit, exclude), nil
}

// preferenceVector returns the decay-weighted mean of the embeddings of
// the user's positive history. When none of those courses has an
// embedding, the profile's attribute weights are projected through the
// encoder instead. Nil means no embedding signal at all.
func (c *Content) preferenceVector(userID int64, prof *recommend.UserProfile, vectors map[int64][]float64, encoder *recommend.FeatureEncoder) []float64 {
	if len(vectors) == 0 {
		return c.projectProfile(prof, encoder)
	}

	var pref []float64
	var total float64
	for _, wc := range c.positives[userID] {
		vec, ok := vectors[wc.courseID]
		if !ok {
			continue
		}
		if pref == nil {
			pref = make([]float64, len(vec))
		}
		if len(vec) != len(pref) {
			continue
		}
		for i, v := range vec {
			pref[i] += v * wc.weight
		}
		total += wc.weight
	}

	if pref != nil && total > 0 {
		for i := range pref {
			pref[i] /= total
		}
		return pref
	}
	return c.projectProfile(prof, encoder)
}

// projectProfile renders profile attribute weights into the embedding
// space through the user encoder.
func (c *Content) projectProfile(prof *recommend.UserProfile, encoder *recommend.FeatureEncoder) []float64 {
	if encoder == nil {
		return nil
	}

	features := make(map[string]float64,
		len(prof.CategoryWeights)+len(prof.DifficultyWeights)+len(prof.ContentTypeWeights)+len(prof.SkillsToDevelop))
	for value, weight := range prof.CategoryWeights {
		features[recommend.FeatureKey(recommend.FeatureCategory, value)] = weight
	}
	for value, weight := range prof.DifficultyWeights {
		features[recommend.FeatureKey(recommend.FeatureDifficulty, value)] = weight
	}
	for value, weight := range prof.ContentTypeWeights {
		features[recommend.FeatureKey(recommend.FeatureContentType, value)] = weight
	}
	for _, skill := range prof.SkillsToDevelop {
		features[recommend.FeatureKey(recommend.FeatureSkill, skill)] = 1
	}
	return encoder.Project(features)
}

// embeddingScore ranks courses with embeddings by cosine similarity to
// the preference vector plus a skill overlap bonus. Selection ranks on
// the raw score; served confidence is the clamped blend.
func (c *Content) embeddingScore(userID int64, prof *recommend.UserProfile, pref []float64, vectors map[int64][]float64, limit int, exclude map[int64]struct{}) []recommend.Candidate {
	seen := make(map[int64]struct{}, len(c.positives[userID]))
	for _, wc := range c.positives[userID] {
		seen[wc.courseID] = struct{}{}
	}

	top := cache.NewTopK[float64](limit)
	for courseID, vec := range vectors {
		if _, skip := exclude[courseID]; skip {
			continue
		}
		if _, ok := seen[courseID]; ok {
			continue
		}
		course, ok := c.catalog[courseID]
		if !ok || !course.Active {
			continue
		}
		if len(vec) != len(pref) {
			continue
		}

		sim := cosineSimilarityVec(pref, vec)
		bonus := jaccardSimilarity(prof.SkillsToDevelop, course.Skills)
		score := sim*c.config.SimilarityFactor + bonus*c.config.SkillBonusFactor
		confidence := clamp(score, c.config.MinConfidence, c.config.MaxConfidence)
		top.Push(courseID, confidence, score)
	}

	ranked := top.Sorted()
	if len(ranked) == 0 {
		return nil
	}
	candidates := make([]recommend.Candidate, len(ranked))
	for i, item := range ranked {
		candidates[i] = recommend.Candidate{
			CourseID:   item.ID,
			Confidence: item.Value,
			Reason:     recommend.ReasonContent,
			Source:     recommend.AlgorithmContent,
		}
	}
	return candidates
}

// ruleBased scores the active catalog by the profile's attribute
// weights, with catalog popularity order breaking ties.
func (c *Content) ruleBased(prof *recommend.UserProfile, limit int, exclude map[int64]struct{}) []recommend.Candidate {
	type scoredCourse struct {
		courseID int64
		score    float64
	}

	scored := make([]scoredCourse, 0, len(c.ranked))
	for _, course := range c.ranked {
		if _, skip := exclude[course.ID]; skip {
			continue
		}
		score := prof.CategoryWeights[strings.ToLower(course.Category)] +
			prof.DifficultyWeights[strings.ToLower(course.Difficulty)] +
			prof.ContentTypeWeights[strings.ToLower(course.ContentType)]
		scored = append(scored, scoredCourse{courseID: course.ID, score: score})
	}
	if len(scored) == 0 {
		return nil
	}

	// Stable keeps the rating/enrollment order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	candidates := make([]recommend.Candidate, len(scored))
	for i, sc := range scored {
		candidates[i] = recommend.Candidate{
			CourseID:   sc.courseID,
			Confidence: clamp(sc.score, c.config.MinConfidence, c.config.MaxConfidence),
			Reason:     recommend.ReasonContent,
			Source:     recommend.AlgorithmContent,
		}
	}
	return candidates
}

func addWeight(m map[string]float64, value string, weight float64) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return
	}
	m[value] += weight
}

func sortedStrings(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
