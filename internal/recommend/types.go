// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package recommend

import (
	"context"
	"strings"
	"time"
)

// InteractionType identifies how a user engaged with a course.
type InteractionType string

// Interaction types recorded by the platform.
const (
	InteractionView     InteractionType = "view"
	InteractionLike     InteractionType = "like"
	InteractionUnlike   InteractionType = "unlike"
	InteractionDislike  InteractionType = "dislike"
	InteractionEnroll   InteractionType = "enroll"
	InteractionUnenroll InteractionType = "unenroll"
	InteractionComplete InteractionType = "complete"
	InteractionRate     InteractionType = "rate"
	InteractionShare    InteractionType = "share"
)

// BaseWeight returns the contribution of the interaction type to
// preference accumulation. Stronger commitment carries more weight:
// completing a course outweighs enrolling, which outweighs a view.
// Types that express no preference signal contribute zero.
func (t InteractionType) BaseWeight() float64 {
	switch t {
	case InteractionComplete:
		return 1.0
	case InteractionEnroll:
		return 0.5
	case InteractionRate:
		return 0.4
	case InteractionLike:
		return 0.3
	case InteractionView:
		return 0.1
	default:
		return 0
	}
}

// IsPositive reports whether the interaction expresses positive intent
// toward the course. Positive history drives the content-based
// preference vector.
func (t InteractionType) IsPositive() bool {
	switch t {
	case InteractionLike, InteractionEnroll, InteractionComplete, InteractionRate:
		return true
	default:
		return false
	}
}

// Valid reports whether t is one of the recognized interaction types.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionView, InteractionLike, InteractionUnlike, InteractionDislike,
		InteractionEnroll, InteractionUnenroll, InteractionComplete,
		InteractionRate, InteractionShare:
		return true
	default:
		return false
	}
}

// TemporalDecay returns the age multiplier applied to interaction
// weights. Decay is linear over the horizon with a fixed floor, so old
// interactions retain a residual influence instead of vanishing.
// Timestamps in the future decay as if they were fresh.
func TemporalDecay(age time.Duration, horizonDays, floor float64) float64 {
	if horizonDays <= 0 {
		return 1
	}
	ageDays := age.Hours() / 24
	decay := 1 - ageDays/horizonDays
	if decay > 1 {
		return 1
	}
	if decay < floor {
		return floor
	}
	return decay
}

// Interaction is a single user-course engagement event as consumed by
// scorer training. Rating is the 1-5 star value for rate events and
// zero for everything else.
type Interaction struct {
	UserID    int64
	CourseID  int64
	Type      InteractionType
	Rating    float64
	CreatedAt time.Time
}

// Weight returns the decayed preference weight of the interaction at
// the given reference time.
func (i Interaction) Weight(now time.Time, horizonDays, floor float64) float64 {
	base := i.Type.BaseWeight()
	if base == 0 {
		return 0
	}
	return base * TemporalDecay(now.Sub(i.CreatedAt), horizonDays, floor)
}

// Course is the engine's projection of a catalog course. Only inactive
// courses already in a user's history influence training; scorers never
// emit inactive courses as candidates.
type Course struct {
	ID              int64
	Title           string
	Category        string
	Difficulty      string
	ContentType     string
	DurationHours   float64
	Skills          []string
	Rating          float64
	EnrollmentCount int64
	Active          bool
}

// Duration buckets used by contextual scoring.
const (
	DurationShort  = "short"
	DurationMedium = "medium"
	DurationLong   = "long"
)

// DurationBucket classifies the course length: up to two hours is
// short, up to eight is medium, anything longer is long.
func (c Course) DurationBucket() string {
	switch {
	case c.DurationHours <= 2:
		return DurationShort
	case c.DurationHours <= 8:
		return DurationMedium
	default:
		return DurationLong
	}
}

// CourseAttributes carries the attribute snapshot stored alongside a
// course embedding, so similarity artifacts stay usable even when the
// catalog row has changed since the embedding was computed.
type CourseAttributes struct {
	Category      string
	Difficulty    string
	ContentType   string
	DurationHours float64
	Skills        []string
}

// CourseVector pairs a course with its trained embedding.
type CourseVector struct {
	CourseID  int64
	Embedding []float64
	Attrs     CourseAttributes
}

// Feature namespaces recognized by the encoders.
const (
	FeatureCategory    = "category"
	FeatureDifficulty  = "difficulty"
	FeatureContentType = "content_type"
	FeatureSkill       = "skill"
)

// FeatureKey builds the namespaced vocabulary key for an attribute
// value, e.g. FeatureKey(FeatureCategory, "Programming") returns
// "category:programming".
func FeatureKey(namespace, value string) string {
	return namespace + ":" + strings.ToLower(strings.TrimSpace(value))
}

// FeatureEncoder maps namespaced attribute values to dimensions of the
// embedding space. Encoders are produced by offline training and loaded
// as model artifacts; they let the engine project courses and profiles
// that have no precomputed embedding.
type FeatureEncoder struct {
	// Dim is the dimensionality of the embedding space.
	Dim int

	// Index maps feature keys (see FeatureKey) to dimension indices.
	Index map[string]int
}

// Project renders a sparse feature-weight map into the encoder's dense
// space. Features missing from the vocabulary are ignored. Returns nil
// when no feature matched, so callers can distinguish "no coverage"
// from an all-zero projection.
func (e *FeatureEncoder) Project(features map[string]float64) []float64 {
	if e == nil || e.Dim <= 0 || len(features) == 0 {
		return nil
	}
	vec := make([]float64, e.Dim)
	matched := false
	for name, weight := range features {
		idx, ok := e.Index[name]
		if !ok || idx < 0 || idx >= e.Dim {
			continue
		}
		vec[idx] += weight
		matched = true
	}
	if !matched {
		return nil
	}
	return vec
}

// UserProfile aggregates a user's decayed interaction history into
// attribute preference weights. Built during scorer training and
// consulted by the content scorer's rule-based fallback.
type UserProfile struct {
	UserID int64

	// CategoryWeights, DifficultyWeights and ContentTypeWeights map
	// lowercased attribute values to accumulated decayed weights.
	CategoryWeights    map[string]float64
	DifficultyWeights  map[string]float64
	ContentTypeWeights map[string]float64

	// SkillsToDevelop holds the skills taught by courses the user
	// engaged with positively.
	SkillsToDevelop []string

	// EngagementScore and LearningVelocity are refreshed by the
	// feedback learner between training passes.
	EngagementScore  float64
	LearningVelocity float64
}

// UserContext captures request-time situational signals used by
// contextual re-scoring. Empty fields receive defaults at scoring time.
type UserContext struct {
	TimeOfDay        string // morning, afternoon, evening, night
	DayKind          string // weekday, weekend
	SessionType      string // quick, focused, deep
	DeviceType       string // mobile, tablet, desktop
	Mood             string // motivated, tired, curious, focused
	LearningGoal     string // skill_development, career_change, hobby, certification
	SkillLevel       string // beginner, intermediate, advanced
	AvailableMinutes int
	StreakDays       int
}

// Algorithm selects the candidate generation strategy for a request.
type Algorithm string

// Supported algorithms.
const (
	AlgorithmCollaborative Algorithm = "collaborative"
	AlgorithmContent       Algorithm = "content"
	AlgorithmHybrid        Algorithm = "hybrid"
	AlgorithmPopularity    Algorithm = "popularity"
	AlgorithmContextAware  Algorithm = "context_aware"
)

// ParseAlgorithm normalizes a client-supplied algorithm string.
// Unrecognized values resolve to hybrid so requests from clients with
// newer enum values degrade instead of erroring.
func ParseAlgorithm(s string) Algorithm {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case AlgorithmCollaborative, AlgorithmContent, AlgorithmHybrid,
		AlgorithmPopularity, AlgorithmContextAware:
		return a
	default:
		return AlgorithmHybrid
	}
}

// String returns the wire form of the algorithm name.
func (a Algorithm) String() string {
	return string(a)
}

// Candidate is a single scored recommendation.
type Candidate struct {
	CourseID int64

	// Confidence is the serving score, always within [0, 1].
	Confidence float64

	// Reason is the human-readable explanation attached by the source.
	Reason string

	// Source names the strategy that produced the candidate.
	Source Algorithm

	// ContextScore is set when contextual re-scoring ran. It holds the
	// raw context score before blending.
	ContextScore *float64

	// ContextFactors records the per-factor scores behind ContextScore.
	ContextFactors map[string]float64
}

// Reason strings attached to candidates by source.
const (
	ReasonCollaborative = "Recommended by users with similar interests"
	ReasonContent       = "Matches your learning preferences"
	ReasonHybrid        = "Combined recommendation based on similar users and your preferences"
	ReasonPopular       = "Popular course with high ratings"
)

// ReasonSimilar formats the reason for similar-course candidates.
func ReasonSimilar(title string) string {
	return "Similar to " + title
}

// Filter keys recognized by Request.Filters. Unknown keys are ignored.
const (
	FilterCategory    = "category"
	FilterDifficulty  = "difficulty"
	FilterContentType = "content_type"
)

// Request describes a recommendation query.
type Request struct {
	// UserID is the user to recommend for.
	UserID int64

	// Limit is the maximum number of candidates to return. Zero applies
	// the configured default; values above the configured maximum are
	// clamped.
	Limit int

	// Algorithm selects the generation strategy. Empty or unknown
	// values resolve to hybrid.
	Algorithm Algorithm

	// Filters restricts candidates by course attribute. Matching is
	// case-insensitive equality on category, difficulty and
	// content_type.
	Filters map[string]string

	// Context carries situational signals. When present the engine runs
	// contextual re-scoring even if Algorithm does not request it.
	Context *UserContext

	// RequestID correlates logs and events. Generated when empty.
	RequestID string
}

// Response sources reported in metadata.
const (
	SourceEngine   = "engine"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// Response is a served recommendation list with metadata.
type Response struct {
	Candidates []Candidate
	Metadata   ResponseMetadata
}

// ResponseMetadata describes how a response was produced.
type ResponseMetadata struct {
	RequestID    string
	UserID       int64
	Algorithm    string
	Source       string
	ModelVersion int32
	GeneratedAt  time.Time
	LatencyMS    int64
	CacheHit     bool
}

// Scorer generates scored candidates for a user. Implementations train
// on interaction and catalog snapshots and must be safe for concurrent
// Score calls while a Train is in flight.
type Scorer interface {
	// Name returns the scorer's unique name.
	Name() string

	// Train rebuilds the scorer's state from an interaction and catalog
	// snapshot.
	Train(ctx context.Context, interactions []Interaction, courses []Course) error

	// Score returns up to limit candidates for the user, ordered by
	// descending confidence. Courses in exclude are never emitted. An
	// empty result with a nil error means the scorer has nothing to
	// offer for this user.
	Score(ctx context.Context, userID int64, limit int, exclude map[int64]struct{}) ([]Candidate, error)

	// IsTrained reports whether the scorer has completed at least one
	// training pass.
	IsTrained() bool

	// Version returns the training generation counter.
	Version() int

	// LastTrainedAt returns the completion time of the last training
	// pass.
	LastTrainedAt() time.Time
}

// ContextRescorer blends contextual signals into candidate confidence
// and re-ranks the list.
type ContextRescorer interface {
	Name() string
	Rescore(ctx context.Context, candidates []Candidate, uc UserContext) []Candidate
}

// Reranker post-processes a ranked candidate list, returning at most k
// candidates.
type Reranker interface {
	Name() string
	Rerank(ctx context.Context, candidates []Candidate, k int) []Candidate
}

// DataProvider supplies catalog and interaction data to the engine. The
// database layer implements it; tests substitute fixtures.
type DataProvider interface {
	// GetTrainingInteractions returns interactions created at or after
	// since, for scorer training.
	GetTrainingInteractions(ctx context.Context, since time.Time) ([]Interaction, error)

	// GetTrainingCourses returns the full catalog, inactive courses
	// included.
	GetTrainingCourses(ctx context.Context) ([]Course, error)

	// GetUserCourseHistory returns the IDs of courses the user has
	// interacted with or enrolled in. The engine excludes these from
	// candidates.
	GetUserCourseHistory(ctx context.Context, userID int64) ([]int64, error)

	// GetActiveCourses returns active courses ordered by rating then
	// enrollment count, both descending.
	GetActiveCourses(ctx context.Context, limit int) ([]Course, error)

	// GetCoursesByCategory returns active courses in a category,
	// ordered like GetActiveCourses.
	GetCoursesByCategory(ctx context.Context, category string, limit int) ([]Course, error)

	// GetCourseByID returns a single course.
	GetCourseByID(ctx context.Context, id int64) (*Course, error)

	// CountInteractionsByUser returns the user's total interaction
	// count.
	CountInteractionsByUser(ctx context.Context, userID int64) (int64, error)

	// CountActiveEnrollmentsByUser returns the user's active
	// enrollment count.
	CountActiveEnrollmentsByUser(ctx context.Context, userID int64) (int64, error)
}

// RecommendedEvent is emitted for every candidate served to a user. The
// learning loop consumes these to correlate later feedback with what
// was recommended.
type RecommendedEvent struct {
	EventID    string
	UserID     int64
	CourseID   int64
	Confidence float64
	Source     string
	Reason     string
	RequestID  string
	OccurredAt time.Time
}

// EventSink receives recommendation events. Publish failures are the
// sink's to report; the engine logs them and never fails a serving
// request over one.
type EventSink interface {
	PublishRecommended(ctx context.Context, event *RecommendedEvent) error
}

// TrainingStatus reports the state of the most recent training pass.
type TrainingStatus struct {
	IsTraining       bool
	Progress         float64
	CurrentScorer    string
	StartedAt        time.Time
	LastTrainedAt    time.Time
	LastDuration     time.Duration
	LastError        string
	InteractionCount int
	CourseCount      int
	UserCount        int
	ModelVersion     int32
}
