// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/courseloom/praeceptor/internal/cache"
	"github.com/courseloom/praeceptor/internal/metrics"
)

const (
	// fallbackBudget bounds the popularity query served after the
	// request deadline already expired.
	fallbackBudget = 2 * time.Second

	// eventEmitBudget bounds asynchronous event publishing per request.
	eventEmitBudget = 5 * time.Second

	// Single-source discounts applied during the hybrid merge. A course
	// surfaced by both scorers averages their confidences instead.
	hybridCollabDiscount  = 0.8
	hybridContentDiscount = 0.9
)

// Engine orchestrates scorers, contextual re-scoring, rerankers and
// fallbacks behind the Recommend and SimilarCourses surfaces. Create
// one with NewEngine, attach a DataProvider and scorers, then Train.
type Engine struct {
	config *Config
	logger zerolog.Logger

	mu        sync.RWMutex
	provider  DataProvider
	events    EventSink
	scorers   map[Algorithm]Scorer
	rescorer  ContextRescorer
	rerankers []Reranker
	index     *SimilarityIndex

	catalogMu sync.RWMutex
	catalog   map[int64]Course

	trainMu      sync.Mutex
	statusMu     sync.RWMutex
	status       TrainingStatus
	modelVersion atomic.Int32

	respCache *cache.Cache
}

// NewEngine creates a recommendation engine. A nil config applies
// defaults.
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recommend config: %w", err)
	}

	e := &Engine{
		config:  cfg.Clone(),
		logger:  logger.With().Str("component", "recommend").Logger(),
		scorers: make(map[Algorithm]Scorer),
		catalog: make(map[int64]Course),
	}
	if cfg.Cache.Enabled {
		e.respCache = cache.New(cfg.Cache.TTL)
	}
	return e, nil
}

// SetDataProvider attaches the catalog and interaction source.
func (e *Engine) SetDataProvider(provider DataProvider) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.provider = provider
}

// SetEventSink attaches the recommended-event consumer.
func (e *Engine) SetEventSink(sink EventSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = sink
}

// RegisterScorer registers a scorer under the algorithm it serves.
// Hybrid and context_aware are engine compositions, not scorers, and
// have no registration slot.
func (e *Engine) RegisterScorer(alg Algorithm, scorer Scorer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scorers[alg] = scorer
}

// SetContextRescorer attaches the contextual re-scoring stage.
func (e *Engine) SetContextRescorer(rescorer ContextRescorer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rescorer = rescorer
}

// RegisterReranker appends a post-processing reranker. Rerankers run in
// registration order after the context pass.
func (e *Engine) RegisterReranker(reranker Reranker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rerankers = append(e.rerankers, reranker)
}

// SetSimilarityIndex attaches the embedding index backing
// SimilarCourses.
func (e *Engine) SetSimilarityIndex(index *SimilarityIndex) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index = index
}

// GetConfig returns a copy of the engine configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

// GetStatus returns a snapshot of the training status.
func (e *Engine) GetStatus() TrainingStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

// ModelVersion returns the current training generation.
func (e *Engine) ModelVersion() int32 {
	return e.modelVersion.Load()
}

// Recommend serves a ranked candidate list for the request. The whole
// pipeline runs under a single deadline; on expiry the engine discards
// partial work and serves the popularity fallback. Scorer failures
// degrade to the fallback chain instead of failing the request.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	req = e.prepareRequest(req)
	log := e.requestLogger(req)

	if resp := e.cachedResponse(req, start); resp != nil {
		metrics.RecordRecommendation(req.Algorithm.String(), SourceCache, time.Since(start), len(resp.Candidates))
		return resp, nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.config.Limits.RequestTimeout)
	defer cancel()

	candidates, source, err := e.generate(reqCtx, req, log)
	if err != nil {
		if !isContextErr(err) {
			metrics.RecordRecommendationError("generate")
			return nil, fmt.Errorf("recommend for user %d: %w", req.UserID, err)
		}
		log.Warn().Err(err).Msg("Request deadline hit, serving popularity fallback")
		metrics.RecordRecommendationError("deadline")
		candidates, source = e.deadlineFallback(ctx, req, log)
	}

	resp := e.buildResponse(req, candidates, source, start)
	e.storeCache(req, resp)
	e.emitRecommended(ctx, req, resp.Candidates, log)

	metrics.RecordRecommendation(req.Algorithm.String(), source, time.Since(start), len(resp.Candidates))
	log.Debug().
		Int("candidates", len(resp.Candidates)).
		Str("source", source).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("Recommendations served")
	return resp, nil
}

// generate runs the scoring pipeline: sufficiency gate, scorer
// selection, fallback cascade, filters, context pass, rerankers.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) generate(ctx context.Context, req Request, log zerolog.Logger) ([]Candidate, string, error) {
	if e.dataProvider() == nil {
		return nil, "", ErrNoProvider
	}

	if err := e.checkDataSufficiency(ctx, req.UserID); err != nil {
		if isContextErr(err) {
			return nil, "", err
		}
		if errors.Is(err, ErrInsufficientData) {
			log.Debug().Msg("Cold start user, serving popularity fallback")
		} else {
			log.Warn().Err(err).Msg("Data sufficiency check failed, serving popularity fallback")
		}
		metrics.RecordFallback(req.Algorithm.String(), "cold_start")
		candidates, ferr := e.fallbackPopularity(ctx, req.Limit, e.exclusionSet(ctx, req.UserID, log))
		if ferr != nil {
			return nil, "", ferr
		}
		return candidates, SourceFallback, nil
	}

	exclude := e.exclusionSet(ctx, req.UserID, log)

	candidates, err := e.scoreCandidates(ctx, req, exclude, log)
	if err != nil {
		return nil, "", err
	}

	source := SourceEngine
	if len(candidates) == 0 {
		candidates, source, err = e.fallbackChain(ctx, req, exclude, log)
		if err != nil {
			return nil, "", err
		}
	}

	candidates = e.applyFilters(candidates, req.Filters)

	if req.Context != nil || req.Algorithm == AlgorithmContextAware {
		candidates = e.applyContext(ctx, req, candidates)
	}

	candidates = e.applyRerankers(ctx, candidates, req.Limit)

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	return candidates, source, nil
}

// scoreCandidates routes the request to the selected scorer, or to the
// hybrid merge for hybrid and context_aware requests.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) scoreCandidates(ctx context.Context, req Request, exclude map[int64]struct{}, log zerolog.Logger) ([]Candidate, error) {
	switch req.Algorithm {
	case AlgorithmCollaborative, AlgorithmContent, AlgorithmPopularity:
		return e.runScorer(ctx, req.Algorithm, req.UserID, req.Limit, exclude, log)
	default:
		return e.hybridCandidates(ctx, req, exclude, log)
	}
}

// runScorer executes a single scorer. Missing, untrained and failing
// scorers all degrade to an empty result; only context expiry
// propagates as an error.
func (e *Engine) runScorer(ctx context.Context, alg Algorithm, userID int64, limit int, exclude map[int64]struct{}, log zerolog.Logger) ([]Candidate, error) {
	scorer := e.scorer(alg)
	if scorer == nil {
		log.Debug().Str("scorer", alg.String()).Msg("Scorer not registered")
		return nil, nil
	}
	if !scorer.IsTrained() {
		log.Debug().Str("scorer", scorer.Name()).Msg("Scorer not trained yet")
		return nil, nil
	}

	candidates, err := scorer.Score(ctx, userID, limit, exclude)
	if err != nil {
		if isContextErr(err) {
			return nil, err
		}
		log.Warn().Err(NewScorerError(scorer.Name(), err)).Msg("Scorer failed, continuing without its candidates")
		metrics.RecordRecommendationError("scorer")
		return nil, nil
	}
	return candidates, nil
}

type scorerResult struct {
	alg        Algorithm
	candidates []Candidate
	err        error
}

// hybridCandidates runs the collaborative and content scorers in
// parallel, each for half the limit, and merges their output.
// Collaborative gets the odd slot when the limit is odd.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) hybridCandidates(ctx context.Context, req Request, exclude map[int64]struct{}, log zerolog.Logger) ([]Candidate, error) {
	contentLimit := req.Limit / 2
	collabLimit := req.Limit - contentLimit

	var wg sync.WaitGroup
	results := make(chan scorerResult, 2)
	launch := func(alg Algorithm, limit int) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			candidates, err := e.runScorer(ctx, alg, req.UserID, limit, exclude, log)
			results <- scorerResult{alg: alg, candidates: candidates, err: err}
		}()
	}
	launch(AlgorithmCollaborative, collabLimit)
	launch(AlgorithmContent, contentLimit)
	wg.Wait()
	close(results)

	var collab, content []Candidate
	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		switch res.alg {
		case AlgorithmCollaborative:
			collab = res.candidates
		case AlgorithmContent:
			content = res.candidates
		}
	}
	return mergeHybrid(collab, content, req.Limit), nil
}

// mergeHybrid combines collaborative and content candidates. A course
// surfaced by both sources averages their confidences and carries the
// combined reason; single-source candidates keep their reason with a
// discounted confidence.
func mergeHybrid(collab, content []Candidate, limit int) []Candidate {
	contentByID := make(map[int64]Candidate, len(content))
	for _, c := range content {
		contentByID[c.CourseID] = c
	}

	merged := make([]Candidate, 0, len(collab)+len(content))
	fromCollab := make(map[int64]struct{}, len(collab))
	for _, c := range collab {
		fromCollab[c.CourseID] = struct{}{}
		if match, ok := contentByID[c.CourseID]; ok {
			c.Confidence = (c.Confidence + match.Confidence) / 2
			c.Reason = ReasonHybrid
			c.Source = AlgorithmHybrid
		} else {
			c.Confidence *= hybridCollabDiscount
		}
		merged = append(merged, c)
	}
	for _, c := range content {
		if _, ok := fromCollab[c.CourseID]; ok {
			continue
		}
		c.Confidence *= hybridContentDiscount
		merged = append(merged, c)
	}

	sortCandidates(merged)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// fallbackChain cascades to the scorers the request has not tried yet,
// then to the catalog popularity fallback. Runs only when the selected
// strategy produced nothing, before filters, so filtered-out candidates
// are never readmitted by a later stage.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) fallbackChain(ctx context.Context, req Request, exclude map[int64]struct{}, log zerolog.Logger) ([]Candidate, string, error) {
	from := req.Algorithm.String()
	attempted := attemptedScorers(req.Algorithm)

	for _, alg := range []Algorithm{AlgorithmContent, AlgorithmPopularity} {
		if _, done := attempted[alg]; done {
			continue
		}
		metrics.RecordFallback(from, alg.String())
		log.Debug().Str("from", from).Str("to", alg.String()).Msg("Cascading to next scorer")

		candidates, err := e.runScorer(ctx, alg, req.UserID, req.Limit, exclude, log)
		if err != nil {
			return nil, "", err
		}
		if len(candidates) > 0 {
			return candidates, SourceEngine, nil
		}
		from = alg.String()
	}

	metrics.RecordFallback(from, "catalog")
	log.Debug().Str("from", from).Msg("Cascading to catalog popularity fallback")
	candidates, err := e.fallbackPopularity(ctx, req.Limit, exclude)
	if err != nil {
		return nil, "", err
	}
	return candidates, SourceFallback, nil
}

// attemptedScorers returns the scorers already consulted for the
// algorithm before the fallback chain runs.
func attemptedScorers(alg Algorithm) map[Algorithm]struct{} {
	switch alg {
	case AlgorithmCollaborative, AlgorithmContent, AlgorithmPopularity:
		return map[Algorithm]struct{}{alg: {}}
	default:
		return map[Algorithm]struct{}{
			AlgorithmCollaborative: {},
			AlgorithmContent:       {},
		}
	}
}

// PopularityConfidence returns the rank-decayed confidence for
// popularity-ranked candidates. Rank is zero-based.
func PopularityConfidence(rank int) float64 {
	confidence := 0.8 - 0.05*float64(rank)
	if confidence < 0.5 {
		return 0.5
	}
	return confidence
}

// SimilarConfidence returns the rank-decayed confidence for
// similar-course candidates. Rank is zero-based.
func SimilarConfidence(rank int) float64 {
	confidence := 0.9 - 0.1*float64(rank)
	if confidence < 0.6 {
		return 0.6
	}
	return confidence
}

// fallbackPopularity serves the top active courses by rating and
// enrollment with rank-decayed confidence.
func (e *Engine) fallbackPopularity(ctx context.Context, limit int, exclude map[int64]struct{}) ([]Candidate, error) {
	provider := e.dataProvider()
	if provider == nil {
		return nil, ErrNoProvider
	}

	courses, err := provider.GetActiveCourses(ctx, limit+len(exclude))
	if err != nil {
		return nil, fmt.Errorf("load active courses: %w", err)
	}

	candidates := make([]Candidate, 0, limit)
	for _, course := range courses {
		if len(candidates) >= limit {
			break
		}
		if _, skip := exclude[course.ID]; skip {
			continue
		}
		candidates = append(candidates, Candidate{
			CourseID:   course.ID,
			Confidence: PopularityConfidence(len(candidates)),
			Reason:     ReasonPopular,
			Source:     AlgorithmPopularity,
		})
	}
	return candidates, nil
}

// deadlineFallback serves the popularity fallback on a fresh bounded
// context after the request deadline expired.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) deadlineFallback(ctx context.Context, req Request, log zerolog.Logger) ([]Candidate, string) {
	fbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fallbackBudget)
	defer cancel()

	candidates, err := e.fallbackPopularity(fbCtx, req.Limit, nil)
	if err != nil {
		log.Error().Err(err).Msg("Popularity fallback failed after deadline")
		return nil, SourceFallback
	}
	return candidates, SourceFallback
}

// checkDataSufficiency applies the cold-start gate. A user below both
// the interaction and enrollment thresholds gets ErrInsufficientData.
func (e *Engine) checkDataSufficiency(ctx context.Context, userID int64) error {
	provider := e.dataProvider()

	interactions, err := provider.CountInteractionsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("count interactions: %w", err)
	}
	if interactions >= e.config.Gate.MinInteractions {
		return nil
	}

	enrollments, err := provider.CountActiveEnrollmentsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("count enrollments: %w", err)
	}
	if enrollments >= e.config.Gate.MinEnrollments {
		return nil
	}
	return fmt.Errorf("user %d: %w", userID, ErrInsufficientData)
}

// exclusionSet returns the IDs of courses already in the user's
// history. A history read failure degrades to no exclusions rather than
// failing the request.
func (e *Engine) exclusionSet(ctx context.Context, userID int64, log zerolog.Logger) map[int64]struct{} {
	provider := e.dataProvider()
	if provider == nil {
		return nil
	}

	ids, err := provider.GetUserCourseHistory(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Msg("Course history lookup failed, candidates may include seen courses")
		return nil
	}
	if len(ids) == 0 {
		return nil
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// applyFilters drops candidates whose course attributes do not match
// the requested filters. Matching is case-insensitive equality; empty
// filter values are ignored. Candidates missing from the catalog
// snapshot cannot be matched and are dropped. Nothing is backfilled.
func (e *Engine) applyFilters(candidates []Candidate, filters map[string]string) []Candidate {
	if len(candidates) == 0 || len(filters) == 0 {
		return candidates
	}

	category := strings.TrimSpace(filters[FilterCategory])
	difficulty := strings.TrimSpace(filters[FilterDifficulty])
	contentType := strings.TrimSpace(filters[FilterContentType])
	if category == "" && difficulty == "" && contentType == "" {
		return candidates
	}

	filtered := make([]Candidate, 0, len(candidates))
	for _, cand := range candidates {
		course, ok := e.LookupCourse(cand.CourseID)
		if !ok {
			continue
		}
		if category != "" && !strings.EqualFold(course.Category, category) {
			continue
		}
		if difficulty != "" && !strings.EqualFold(course.Difficulty, difficulty) {
			continue
		}
		if contentType != "" && !strings.EqualFold(course.ContentType, contentType) {
			continue
		}
		filtered = append(filtered, cand)
	}
	return filtered
}

// applyContext runs contextual re-scoring. Requests without an explicit
// context still reach here for context_aware; the rescorer fills in
// defaults.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) applyContext(ctx context.Context, req Request, candidates []Candidate) []Candidate {
	rescorer := e.contextRescorer()
	if rescorer == nil || len(candidates) == 0 {
		return candidates
	}

	uc := UserContext{}
	if req.Context != nil {
		uc = *req.Context
	}
	return rescorer.Rescore(ctx, candidates, uc)
}

// applyRerankers runs registered rerankers in order.
func (e *Engine) applyRerankers(ctx context.Context, candidates []Candidate, k int) []Candidate {
	for _, reranker := range e.rerankerList() {
		candidates = reranker.Rerank(ctx, candidates, k)
	}
	return candidates
}

// SimilarCourses returns courses similar to the anchor course, from the
// embedding index when it covers the anchor, otherwise from the
// anchor's category ordered by popularity.
func (e *Engine) SimilarCourses(ctx context.Context, courseID int64, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = e.config.Limits.DefaultLimit
	}
	if limit > e.config.Limits.MaxLimit {
		limit = e.config.Limits.MaxLimit
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.config.Limits.RequestTimeout)
	defer cancel()

	anchor, err := e.resolveCourse(reqCtx, courseID)
	if err != nil {
		return nil, err
	}

	if index := e.similarityIndex(); index != nil {
		if neighbors := index.Nearest(courseID, limit); len(neighbors) > 0 {
			return e.neighborCandidates(anchor, neighbors), nil
		}
	}
	return e.categoryFallback(reqCtx, anchor, limit)
}

// resolveCourse looks up a course in the catalog snapshot, falling back
// to the provider for courses added since the last training pass.
func (e *Engine) resolveCourse(ctx context.Context, courseID int64) (Course, error) {
	if course, ok := e.LookupCourse(courseID); ok {
		return course, nil
	}

	provider := e.dataProvider()
	if provider == nil {
		return Course{}, ErrNoProvider
	}
	course, err := provider.GetCourseByID(ctx, courseID)
	if err != nil {
		return Course{}, fmt.Errorf("resolve course %d: %w", courseID, err)
	}
	if course == nil {
		return Course{}, fmt.Errorf("course %d: %w", courseID, ErrCourseNotFound)
	}
	return *course, nil
}

// neighborCandidates converts index neighbors into candidates, skipping
// courses the catalog snapshot marks inactive.
func (e *Engine) neighborCandidates(anchor Course, neighbors []Neighbor) []Candidate {
	reason := ReasonSimilar(anchor.Title)
	candidates := make([]Candidate, 0, len(neighbors))
	for _, n := range neighbors {
		if course, ok := e.LookupCourse(n.CourseID); ok && !course.Active {
			continue
		}
		candidates = append(candidates, Candidate{
			CourseID:   n.CourseID,
			Confidence: SimilarConfidence(len(candidates)),
			Reason:     reason,
			Source:     AlgorithmContent,
		})
	}
	return candidates
}

// categoryFallback serves active courses from the anchor's category
// when the embedding index cannot answer.
func (e *Engine) categoryFallback(ctx context.Context, anchor Course, limit int) ([]Candidate, error) {
	provider := e.dataProvider()
	if provider == nil {
		return nil, ErrNoProvider
	}

	courses, err := provider.GetCoursesByCategory(ctx, anchor.Category, limit+1)
	if err != nil {
		return nil, fmt.Errorf("load category courses: %w", err)
	}

	reason := ReasonSimilar(anchor.Title)
	candidates := make([]Candidate, 0, limit)
	for _, course := range courses {
		if course.ID == anchor.ID {
			continue
		}
		if len(candidates) >= limit {
			break
		}
		candidates = append(candidates, Candidate{
			CourseID:   course.ID,
			Confidence: SimilarConfidence(len(candidates)),
			Reason:     reason,
			Source:     AlgorithmContent,
		})
	}
	return candidates, nil
}

// Train rebuilds every registered scorer from a fresh interaction and
// catalog snapshot. Concurrent calls are rejected, not queued.
// Individual scorer failures keep the previous model and training
// continues; Train fails only when loading data fails or no scorer
// trained.
func (e *Engine) Train(ctx context.Context) error {
	if !e.trainMu.TryLock() {
		return ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	provider := e.dataProvider()
	if provider == nil {
		return ErrNoProvider
	}

	trainCtx, cancel := context.WithTimeout(ctx, e.config.Training.Timeout)
	defer cancel()

	start := time.Now()
	e.setTrainingStarted(start)

	interactions, courses, err := e.loadTrainingData(trainCtx, provider)
	if err != nil {
		e.setTrainingFailed(err)
		return err
	}

	e.updateCatalog(courses)

	trained, total := e.trainScorers(trainCtx, interactions, courses)
	if trained == 0 && total > 0 {
		err := errors.New("all scorers failed to train")
		e.setTrainingFailed(err)
		return err
	}

	e.completeTraining(start, interactions, courses, trained)
	return nil
}

func (e *Engine) loadTrainingData(ctx context.Context, provider DataProvider) ([]Interaction, []Course, error) {
	interactions, err := provider.GetTrainingInteractions(ctx, time.Time{})
	if err != nil {
		return nil, nil, fmt.Errorf("load training interactions: %w", err)
	}
	courses, err := provider.GetTrainingCourses(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load training courses: %w", err)
	}
	return interactions, courses, nil
}

// trainScorers trains registered scorers in a fixed order and returns
// how many succeeded along with how many were attempted.
func (e *Engine) trainScorers(ctx context.Context, interactions []Interaction, courses []Course) (int, int) {
	order := []Algorithm{AlgorithmCollaborative, AlgorithmContent, AlgorithmPopularity}

	var scorers []Scorer
	for _, alg := range order {
		if s := e.scorer(alg); s != nil {
			scorers = append(scorers, s)
		}
	}

	trained := 0
	for i, scorer := range scorers {
		e.setTrainingProgress(scorer.Name(), float64(i)/float64(len(scorers)))
		if err := scorer.Train(ctx, interactions, courses); err != nil {
			e.logger.Error().
				Err(NewScorerError(scorer.Name(), err)).
				Msg("Scorer training failed, keeping previous model")
			metrics.RecordRecommendationError("train")
			continue
		}
		trained++
	}
	return trained, len(scorers)
}

func (e *Engine) completeTraining(start time.Time, interactions []Interaction, courses []Course, trained int) {
	version := e.modelVersion.Add(1)
	users := countUniqueUsers(interactions)
	duration := time.Since(start)

	e.statusMu.Lock()
	e.status = TrainingStatus{
		Progress:         1,
		LastTrainedAt:    time.Now().UTC(),
		LastDuration:     duration,
		InteractionCount: len(interactions),
		CourseCount:      len(courses),
		UserCount:        users,
		ModelVersion:     version,
	}
	e.statusMu.Unlock()

	if e.config.Cache.InvalidateOnTrain && e.respCache != nil {
		e.respCache.Clear()
	}

	e.logger.Info().
		Int32("model_version", version).
		Int("interactions", len(interactions)).
		Int("courses", len(courses)).
		Int("users", users).
		Int("scorers_trained", trained).
		Dur("duration", duration).
		Msg("Training pass complete")
}

func (e *Engine) setTrainingStarted(start time.Time) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	prev := e.status
	e.status = TrainingStatus{
		IsTraining:       true,
		StartedAt:        start,
		LastTrainedAt:    prev.LastTrainedAt,
		LastDuration:     prev.LastDuration,
		InteractionCount: prev.InteractionCount,
		CourseCount:      prev.CourseCount,
		UserCount:        prev.UserCount,
		ModelVersion:     prev.ModelVersion,
	}
}

func (e *Engine) setTrainingProgress(scorer string, progress float64) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.status.CurrentScorer = scorer
	e.status.Progress = progress
}

func (e *Engine) setTrainingFailed(err error) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.status.IsTraining = false
	e.status.CurrentScorer = ""
	e.status.LastError = err.Error()
}

// updateCatalog swaps in the catalog snapshot used for filters, title
// resolution and context re-scoring.
func (e *Engine) updateCatalog(courses []Course) {
	catalog := make(map[int64]Course, len(courses))
	for _, course := range courses {
		catalog[course.ID] = course
	}
	e.catalogMu.Lock()
	e.catalog = catalog
	e.catalogMu.Unlock()
}

// LookupCourse returns the catalog snapshot entry for a course. The
// snapshot refreshes on every training pass.
func (e *Engine) LookupCourse(courseID int64) (Course, bool) {
	e.catalogMu.RLock()
	defer e.catalogMu.RUnlock()
	course, ok := e.catalog[courseID]
	return course, ok
}

// prepareRequest applies limit defaults and clamps, normalizes the
// algorithm and assigns a request ID when missing.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.Limit <= 0 {
		req.Limit = e.config.Limits.DefaultLimit
	}
	if req.Limit > e.config.Limits.MaxLimit {
		req.Limit = e.config.Limits.MaxLimit
	}
	req.Algorithm = ParseAlgorithm(req.Algorithm.String())
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	return req
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) requestLogger(req Request) zerolog.Logger {
	return e.logger.With().
		Str("request_id", req.RequestID).
		Int64("user_id", req.UserID).
		Str("algorithm", req.Algorithm.String()).
		Logger()
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) buildResponse(req Request, candidates []Candidate, source string, start time.Time) *Response {
	if candidates == nil {
		candidates = []Candidate{}
	}
	return &Response{
		Candidates: candidates,
		Metadata: ResponseMetadata{
			RequestID:    req.RequestID,
			UserID:       req.UserID,
			Algorithm:    req.Algorithm.String(),
			Source:       source,
			ModelVersion: e.modelVersion.Load(),
			GeneratedAt:  time.Now().UTC(),
			LatencyMS:    time.Since(start).Milliseconds(),
		},
	}
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) cacheKey(req Request) string {
	return cache.GenerateKey("recommend", struct {
		UserID    int64
		Limit     int
		Algorithm string
		Filters   map[string]string
		Context   *UserContext
	}{
		UserID:    req.UserID,
		Limit:     req.Limit,
		Algorithm: req.Algorithm.String(),
		Filters:   req.Filters,
		Context:   req.Context,
	})
}

// cachedResponse returns a copy of a cached response with refreshed
// metadata, or nil on a miss.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) cachedResponse(req Request, start time.Time) *Response {
	if e.respCache == nil {
		return nil
	}
	val, ok := e.respCache.Get(e.cacheKey(req))
	if !ok {
		return nil
	}
	cached, ok := val.(*Response)
	if !ok {
		return nil
	}

	resp := &Response{
		Candidates: copyCandidates(cached.Candidates),
		Metadata:   cached.Metadata,
	}
	resp.Metadata.RequestID = req.RequestID
	resp.Metadata.Source = SourceCache
	resp.Metadata.CacheHit = true
	resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
	return resp
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) storeCache(req Request, resp *Response) {
	if e.respCache == nil {
		return
	}
	e.respCache.Set(e.cacheKey(req), resp)
}

// copyCandidates deep-copies a candidate list so cached entries are
// never aliased by callers.
func copyCandidates(in []Candidate) []Candidate {
	out := make([]Candidate, len(in))
	copy(out, in)
	for i := range out {
		if in[i].ContextScore != nil {
			score := *in[i].ContextScore
			out[i].ContextScore = &score
		}
		if in[i].ContextFactors != nil {
			factors := make(map[string]float64, len(in[i].ContextFactors))
			for k, v := range in[i].ContextFactors {
				factors[k] = v
			}
			out[i].ContextFactors = factors
		}
	}
	return out
}

// emitRecommended publishes a recommended event per served candidate on
// a detached context so slow consumers never hold up the response.
// Publish failures are logged and dropped.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) emitRecommended(ctx context.Context, req Request, candidates []Candidate, log zerolog.Logger) {
	sink := e.eventSink()
	if sink == nil || len(candidates) == 0 {
		return
	}

	now := time.Now().UTC()
	events := make([]*RecommendedEvent, len(candidates))
	for i, cand := range candidates {
		events[i] = &RecommendedEvent{
			EventID:    uuid.NewString(),
			UserID:     req.UserID,
			CourseID:   cand.CourseID,
			Confidence: cand.Confidence,
			Source:     cand.Source.String(),
			Reason:     cand.Reason,
			RequestID:  req.RequestID,
			OccurredAt: now,
		}
	}

	go func() {
		emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventEmitBudget)
		defer cancel()
		for _, event := range events {
			if err := sink.PublishRecommended(emitCtx, event); err != nil {
				log.Warn().
					Err(err).
					Int64("course_id", event.CourseID).
					Msg("Recommended event publish failed")
				metrics.RecordRecommendationError("emit")
			}
		}
	}()
}

// sortCandidates orders by descending confidence with ascending course
// ID breaking ties, keeping results deterministic across runs.
func sortCandidates(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].CourseID < candidates[j].CourseID
	})
}

func countUniqueUsers(interactions []Interaction) int {
	users := make(map[int64]struct{}, len(interactions))
	for _, inter := range interactions {
		users[inter.UserID] = struct{}{}
	}
	return len(users)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func (e *Engine) dataProvider() DataProvider {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.provider
}

func (e *Engine) eventSink() EventSink {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.events
}

func (e *Engine) scorer(alg Algorithm) Scorer {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scorers[alg]
}

func (e *Engine) contextRescorer() ContextRescorer {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rescorer
}

func (e *Engine) rerankerList() []Reranker {
	e.mu.RLock()
	defer e.mu.RUnlock()
	list := make([]Reranker, len(e.rerankers))
	copy(list, e.rerankers)
	return list
}

func (e *Engine) similarityIndex() *SimilarityIndex {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index
}
