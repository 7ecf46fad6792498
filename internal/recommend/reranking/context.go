// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

// Package reranking implements post-scoring candidate adjustment:
// contextual re-scoring against the learner's current situation, and
// diversity-aware selection.
package reranking

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/courseloom/praeceptor/internal/metrics"
	"github.com/courseloom/praeceptor/internal/recommend"
)

var _ recommend.ContextRescorer = (*Contextual)(nil)

// Factor names reported in candidate context metadata.
const (
	FactorTimeOfDay     = "time_of_day"
	FactorDayOfWeek     = "day_of_week"
	FactorSession       = "learning_session"
	FactorDevice        = "device_type"
	FactorMood          = "user_mood"
	FactorGoal          = "learning_goal"
	FactorSkill         = "skill_level"
	FactorAvailableTime = "available_time"
	FactorStreak        = "streak_bonus"
)

// factorWeights is the fixed contribution of each factor to the context
// score. Day kind and device type carry weights for reporting but have
// no boost tables, so their scores are always zero.
var factorWeights = map[string]float64{
	FactorTimeOfDay:     0.15,
	FactorDayOfWeek:     0.10,
	FactorSession:       0.20,
	FactorDevice:        0.05,
	FactorMood:          0.15,
	FactorGoal:          0.20,
	FactorSkill:         0.10,
	FactorAvailableTime: 0.05,
}

// Context defaults applied when a request omits fields.
const (
	defaultSession          = "focused"
	defaultDevice           = "desktop"
	defaultMood             = "motivated"
	defaultGoal             = "skill_development"
	defaultSkillLevel       = "intermediate"
	defaultAvailableMinutes = 60
)

// boostTable maps course attributes to additive boosts for one context
// value. Attributes missing from a table contribute zero.
type boostTable struct {
	difficulty  map[string]float64
	contentType map[string]float64
	duration    map[string]float64
}

func (t boostTable) score(course recommend.Course) float64 {
	return t.difficulty[strings.ToLower(course.Difficulty)] +
		t.contentType[strings.ToLower(course.ContentType)] +
		t.duration[course.DurationBucket()]
}

var timeOfDayBoosts = map[string]boostTable{
	"morning": {
		difficulty:  map[string]float64{"beginner": 0.1, "intermediate": 0, "advanced": -0.1},
		contentType: map[string]float64{"video": 0.1, "text": 0, "interactive": 0.05},
		duration:    map[string]float64{"short": 0.1, "medium": 0, "long": -0.1},
	},
	"afternoon": {
		difficulty:  map[string]float64{"beginner": 0, "intermediate": 0.1, "advanced": 0},
		contentType: map[string]float64{"video": 0, "text": 0.1, "interactive": 0.1},
		duration:    map[string]float64{"short": 0, "medium": 0.1, "long": 0},
	},
	"evening": {
		difficulty:  map[string]float64{"beginner": 0, "intermediate": 0, "advanced": 0.1},
		contentType: map[string]float64{"video": 0.1, "text": -0.1, "interactive": 0},
		duration:    map[string]float64{"short": 0, "medium": 0, "long": 0.1},
	},
	"night": {
		difficulty:  map[string]float64{"beginner": 0.1, "intermediate": -0.1, "advanced": -0.2},
		contentType: map[string]float64{"video": 0.2, "text": -0.2, "interactive": -0.1},
		duration:    map[string]float64{"short": 0.2, "medium": -0.1, "long": -0.2},
	},
}

var sessionBoosts = map[string]boostTable{
	"quick": {
		duration:    map[string]float64{"short": 0.3, "medium": -0.2, "long": -0.5},
		contentType: map[string]float64{"video": 0.1, "text": 0.2, "interactive": 0},
		difficulty:  map[string]float64{"beginner": 0.1, "intermediate": 0, "advanced": -0.1},
	},
	"focused": {
		duration:    map[string]float64{"short": 0, "medium": 0.2, "long": 0.1},
		contentType: map[string]float64{"video": 0, "text": 0.1, "interactive": 0.2},
		difficulty:  map[string]float64{"beginner": 0, "intermediate": 0.1, "advanced": 0.1},
	},
	"deep": {
		duration:    map[string]float64{"short": -0.2, "medium": 0.1, "long": 0.3},
		contentType: map[string]float64{"video": 0.1, "text": 0.2, "interactive": 0.1},
		difficulty:  map[string]float64{"beginner": -0.1, "intermediate": 0.1, "advanced": 0.2},
	},
}

var moodBoosts = map[string]boostTable{
	"motivated": {
		difficulty:  map[string]float64{"beginner": 0, "intermediate": 0.1, "advanced": 0.2},
		contentType: map[string]float64{"video": 0, "text": 0.1, "interactive": 0.2},
		duration:    map[string]float64{"short": 0, "medium": 0.1, "long": 0.1},
	},
	"tired": {
		difficulty:  map[string]float64{"beginner": 0.2, "intermediate": -0.1, "advanced": -0.2},
		contentType: map[string]float64{"video": 0.2, "text": -0.1, "interactive": -0.1},
		duration:    map[string]float64{"short": 0.3, "medium": -0.1, "long": -0.2},
	},
	"curious": {
		difficulty:  map[string]float64{"beginner": 0.1, "intermediate": 0.1, "advanced": 0},
		contentType: map[string]float64{"video": 0.1, "text": 0, "interactive": 0.2},
		duration:    map[string]float64{"short": 0.1, "medium": 0.1, "long": 0},
	},
	"focused": {
		difficulty:  map[string]float64{"beginner": 0, "intermediate": 0.1, "advanced": 0.1},
		contentType: map[string]float64{"video": 0, "text": 0.2, "interactive": 0.1},
		duration:    map[string]float64{"short": 0, "medium": 0.2, "long": 0.1},
	},
}

var goalBoosts = map[string]boostTable{
	"skill_development": {
		difficulty:  map[string]float64{"beginner": 0.1, "intermediate": 0.2, "advanced": 0.1},
		contentType: map[string]float64{"video": 0.1, "text": 0.1, "interactive": 0.2},
		duration:    map[string]float64{"short": 0, "medium": 0.1, "long": 0.1},
	},
	"career_change": {
		difficulty:  map[string]float64{"beginner": 0.2, "intermediate": 0.1, "advanced": 0},
		contentType: map[string]float64{"video": 0.1, "text": 0.2, "interactive": 0.1},
		duration:    map[string]float64{"short": 0, "medium": 0.2, "long": 0.1},
	},
	"hobby": {
		difficulty:  map[string]float64{"beginner": 0.2, "intermediate": 0, "advanced": -0.1},
		contentType: map[string]float64{"video": 0.2, "text": 0, "interactive": 0.1},
		duration:    map[string]float64{"short": 0.1, "medium": 0, "long": -0.1},
	},
	"certification": {
		difficulty:  map[string]float64{"beginner": 0, "intermediate": 0.1, "advanced": 0.2},
		contentType: map[string]float64{"video": 0, "text": 0.2, "interactive": 0.1},
		duration:    map[string]float64{"short": -0.1, "medium": 0.1, "long": 0.2},
	},
}

// skillLevels orders difficulty levels for adjacency scoring.
var skillLevels = map[string]int{
	"beginner":     0,
	"intermediate": 1,
	"advanced":     2,
}

// Config tunes the contextual rescorer.
type Config struct {
	// Blend is the share of final confidence taken from the context
	// score. Default: 0.3.
	Blend float64

	// MaxConfidence caps blended confidence. Default: 0.95.
	MaxConfidence float64
}

// CourseResolver looks up course attributes for a candidate. The engine
// supplies its catalog snapshot lookup.
type CourseResolver func(courseID int64) (recommend.Course, bool)

// Contextual re-scores candidates against the learner's situation. Each
// candidate's confidence is blended with a weighted context score built
// from time of day, session type, mood, learning goal, skill match,
// time fit and streak; the list is then re-ranked.
type Contextual struct {
	config  Config
	resolve CourseResolver
	now     func() time.Time
}

// NewContextual creates the rescorer. Zero config fields receive
// defaults.
func NewContextual(config Config, resolve CourseResolver) *Contextual {
	if config.Blend <= 0 {
		config.Blend = 0.3
	}
	if config.MaxConfidence <= 0 {
		config.MaxConfidence = 0.95
	}
	return &Contextual{
		config:  config,
		resolve: resolve,
		now:     time.Now,
	}
}

// Name returns the rescorer name.
func (c *Contextual) Name() string {
	return "contextual"
}

// Rescore blends each candidate's confidence with its context score and
// re-ranks by the result. Candidates whose course attributes cannot be
// resolved pass through unchanged. The input slice is not modified.
func (c *Contextual) Rescore(ctx context.Context, candidates []recommend.Candidate, uc recommend.UserContext) []recommend.Candidate {
	if len(candidates) == 0 || ctx.Err() != nil {
		return candidates
	}
	uc = normalizeContext(uc, c.now())

	rescored := make([]recommend.Candidate, len(candidates))
	copy(rescored, candidates)
	for i := range rescored {
		course, ok := c.resolve(rescored[i].CourseID)
		if !ok {
			continue
		}

		score, factors := contextScore(course, uc)
		blended := rescored[i].Confidence*(1-c.config.Blend) + score*c.config.Blend
		if blended > c.config.MaxConfidence {
			blended = c.config.MaxConfidence
		}

		contextValue := score
		rescored[i].Confidence = blended
		rescored[i].ContextScore = &contextValue
		rescored[i].ContextFactors = factors
	}

	sort.Slice(rescored, func(i, j int) bool {
		if rescored[i].Confidence != rescored[j].Confidence {
			return rescored[i].Confidence > rescored[j].Confidence
		}
		return rescored[i].CourseID < rescored[j].CourseID
	})

	metrics.ContextRescores.Add(float64(len(rescored)))
	return rescored
}

// contextScore computes the weighted context score and its per-factor
// breakdown for one course. The factor map records raw table scores
// before weighting.
func contextScore(course recommend.Course, uc recommend.UserContext) (float64, map[string]float64) {
	timeScore := timeOfDayBoosts[uc.TimeOfDay].score(course)
	sessionScore := sessionBoosts[uc.SessionType].score(course)
	moodScore := moodBoosts[uc.Mood].score(course)
	goalScore := goalBoosts[uc.LearningGoal].score(course)
	skillScore := skillMatchScore(uc.SkillLevel, course.Difficulty)
	timeFit := timeFitScore(course.DurationHours, uc.AvailableMinutes)
	streak := streakBonus(uc.StreakDays, course.Difficulty)

	factors := map[string]float64{
		FactorTimeOfDay:     timeScore,
		FactorDayOfWeek:     0,
		FactorSession:       sessionScore,
		FactorDevice:        0,
		FactorMood:          moodScore,
		FactorGoal:          goalScore,
		FactorSkill:         skillScore,
		FactorAvailableTime: timeFit,
		FactorStreak:        streak,
	}

	score := timeScore*factorWeights[FactorTimeOfDay] +
		sessionScore*factorWeights[FactorSession] +
		moodScore*factorWeights[FactorMood] +
		goalScore*factorWeights[FactorGoal] +
		skillScore*factorWeights[FactorSkill] +
		timeFit*factorWeights[FactorAvailableTime] +
		streak
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, factors
}

// skillMatchScore rewards courses at or adjacent to the user's level
// and penalizes the rest. Unknown levels count as intermediate.
func skillMatchScore(userLevel, courseDifficulty string) float64 {
	user, ok := skillLevels[strings.ToLower(userLevel)]
	if !ok {
		user = skillLevels[defaultSkillLevel]
	}
	level, ok := skillLevels[strings.ToLower(courseDifficulty)]
	if !ok {
		level = skillLevels[defaultSkillLevel]
	}

	gap := user - level
	if gap < 0 {
		gap = -gap
	}
	switch gap {
	case 0:
		return 0.2
	case 1:
		return 0.1
	default:
		return -0.1
	}
}

// timeFitScore compares the course length against the session budget. A
// course that fits gets a small boost, one within one and a half times
// the budget is neutral, anything longer is penalized.
func timeFitScore(durationHours float64, availableMinutes int) float64 {
	minutes := durationHours * 60
	available := float64(availableMinutes)
	switch {
	case minutes <= available:
		return 0.1
	case minutes <= available*1.5:
		return 0
	default:
		return -0.2
	}
}

// streakBonus rewards consistent learners. Week-long streaks favor
// harder material; shorter streaks earn a flat nudge.
func streakBonus(streakDays int, courseDifficulty string) float64 {
	switch {
	case streakDays >= 7:
		switch strings.ToLower(courseDifficulty) {
		case "advanced":
			return 0.1
		case "intermediate":
			return 0.05
		default:
			return 0
		}
	case streakDays >= 3:
		return 0.02
	default:
		return 0
	}
}

// normalizeContext fills empty fields with clock-derived and fixed
// defaults and lowercases the enumerated values.
func normalizeContext(uc recommend.UserContext, now time.Time) recommend.UserContext {
	uc.TimeOfDay = normalizeValue(uc.TimeOfDay, timeOfDayAt(now))
	uc.DayKind = normalizeValue(uc.DayKind, dayKindAt(now))
	uc.SessionType = normalizeValue(uc.SessionType, defaultSession)
	uc.DeviceType = normalizeValue(uc.DeviceType, defaultDevice)
	uc.Mood = normalizeValue(uc.Mood, defaultMood)
	uc.LearningGoal = normalizeValue(uc.LearningGoal, defaultGoal)
	uc.SkillLevel = normalizeValue(uc.SkillLevel, defaultSkillLevel)
	if uc.AvailableMinutes <= 0 {
		uc.AvailableMinutes = defaultAvailableMinutes
	}
	if uc.StreakDays < 0 {
		uc.StreakDays = 0
	}
	return uc
}

func normalizeValue(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}

// timeOfDayAt buckets the clock hour: 5-11 morning, 12-16 afternoon,
// 17-21 evening, everything else night.
func timeOfDayAt(now time.Time) string {
	switch hour := now.Hour(); {
	case hour >= 5 && hour <= 11:
		return "morning"
	case hour >= 12 && hour <= 16:
		return "afternoon"
	case hour >= 17 && hour <= 21:
		return "evening"
	default:
		return "night"
	}
}

func dayKindAt(now time.Time) string {
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return "weekend"
	default:
		return "weekday"
	}
}
