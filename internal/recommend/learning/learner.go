// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package learning

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/courseloom/praeceptor/internal/metrics"
	"github.com/courseloom/praeceptor/internal/recommend"
)

// Defaults applied by New for zero config fields.
const (
	defaultBufferSize      = 1000
	defaultDrainInterval   = 5 * time.Minute
	defaultHistoryLimit    = 100
	defaultTrendWindow     = 10
	defaultMinTrendSamples = 5
	defaultPreferenceTTL   = 30 * 24 * time.Hour
	defaultFeedbackRate    = rate.Limit(5)
	defaultFeedbackBurst   = 20
)

// Adaptation signals emitted when a user's engagement trend moves
// sharply.
const (
	SignalIncreaseDifficulty = "increase_difficulty"
	SignalDecreaseDifficulty = "decrease_difficulty"
	SignalMaintainEngagement = "maintain_engagement"
	SignalBoostEngagement    = "boost_engagement"
)

// Trend thresholds. A slope within ±trendThreshold is noise; beyond
// ±difficultyThreshold the difficulty itself should change.
const (
	trendThreshold      = 0.2
	difficultyThreshold = 0.3
)

// Config tunes the feedback learner.
type Config struct {
	// BufferSize caps the pending feedback FIFO. Default: 1000.
	BufferSize int
	// DrainInterval is how often buffered feedback is processed.
	// Default: 5m.
	DrainInterval time.Duration
	// HistoryLimit caps the retained performance snapshots.
	// Default: 100.
	HistoryLimit int
	// TrendWindow is how many recent samples a trend fit covers.
	// Default: 10.
	TrendWindow int
	// MinTrendSamples is the minimum history before adaptation
	// signals fire. Default: 5.
	MinTrendSamples int
	// PreferenceTTL is how long immediate preference updates are
	// retained. Default: 720h.
	PreferenceTTL time.Duration
	// FeedbackRate limits accepted feedback per user per second.
	// Default: 5.
	FeedbackRate rate.Limit
	// FeedbackBurst is the per-user burst allowance. Default: 20.
	FeedbackBurst int
}

// DefaultConfig returns the production learner configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize:      defaultBufferSize,
		DrainInterval:   defaultDrainInterval,
		HistoryLimit:    defaultHistoryLimit,
		TrendWindow:     defaultTrendWindow,
		MinTrendSamples: defaultMinTrendSamples,
		PreferenceTTL:   defaultPreferenceTTL,
		FeedbackRate:    defaultFeedbackRate,
		FeedbackBurst:   defaultFeedbackBurst,
	}
}

// PreferenceUpdate is an immediate profile adjustment applied from an
// explicit feedback signal.
type PreferenceUpdate struct {
	CourseID  int64
	Weight    float64
	AppliedAt time.Time
}

// UserState holds one user's learning metrics. Exported for gob
// persistence; mutate only through the Learner.
type UserState struct {
	Engagement  []float64
	Accuracy    float64
	HasAccuracy bool
	Conversion  float64
	Updates     []PreferenceUpdate
	LastSignal  string
}

// Snapshot aggregates learning metrics across tracked users after a
// drain cycle. Precision, recall and F1 mirror accuracy.
type Snapshot struct {
	Accuracy       float64
	Precision      float64
	Recall         float64
	F1             float64
	Satisfaction   float64
	EngagementRate float64
	ConversionRate float64
	Timestamp      time.Time
}

// State is the persistable form of the learner.
type State struct {
	Users     map[int64]*UserState
	History   []Snapshot
	Processed int64
}

// Learner buffers feedback and turns it into per-user metrics,
// adaptation signals and aggregate performance snapshots.
type Learner struct {
	config Config
	logger zerolog.Logger

	buffer *Buffer

	limMu    sync.Mutex
	limiters map[int64]*rate.Limiter

	stateMu   sync.RWMutex
	users     map[int64]*UserState
	history   []Snapshot
	processed int64

	// now is replaceable for tests.
	now func() time.Time
}

// New creates a Learner. Zero config fields fall back to defaults.
func New(config Config, logger zerolog.Logger) *Learner {
	if config.BufferSize <= 0 {
		config.BufferSize = defaultBufferSize
	}

	if config.DrainInterval <= 0 {
		config.DrainInterval = defaultDrainInterval
	}

	if config.HistoryLimit <= 0 {
		config.HistoryLimit = defaultHistoryLimit
	}

	if config.TrendWindow <= 0 {
		config.TrendWindow = defaultTrendWindow
	}

	if config.MinTrendSamples <= 0 {
		config.MinTrendSamples = defaultMinTrendSamples
	}

	if config.PreferenceTTL <= 0 {
		config.PreferenceTTL = defaultPreferenceTTL
	}

	if config.FeedbackRate <= 0 {
		config.FeedbackRate = defaultFeedbackRate
	}

	if config.FeedbackBurst <= 0 {
		config.FeedbackBurst = defaultFeedbackBurst
	}

	return &Learner{
		config:   config,
		logger:   logger.With().Str("component", "learner").Logger(),
		buffer:   NewBuffer(config.BufferSize),
		limiters: make(map[int64]*rate.Limiter),
		users:    make(map[int64]*UserState),
		now:      time.Now,
	}
}

// Record buffers fb for the next drain cycle. Explicit signals (like,
// dislike, rate) additionally apply an immediate preference update.
// Returns false when the user's rate limit rejected the event.
func (l *Learner) Record(fb Feedback) bool {
	if !l.allow(fb.UserID) {
		l.logger.Debug().
			Int64("user_id", fb.UserID).
			Str("type", string(fb.Type)).
			Msg("Feedback rate limited, dropping")

		return false
	}

	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = l.now().UTC()
	}

	depth, evicted := l.buffer.Append(fb)
	if evicted {
		metrics.RecordFeedbackEvicted()
	}

	metrics.RecordFeedbackBuffered(depth)

	switch fb.Type {
	case recommend.InteractionLike, recommend.InteractionDislike, recommend.InteractionRate:
		l.applyPreferenceUpdate(fb)
	}

	return true
}

// allow applies the per-user rate limit.
func (l *Learner) allow(userID int64) bool {
	l.limMu.Lock()
	defer l.limMu.Unlock()

	lim := l.limiters[userID]
	if lim == nil {
		lim = rate.NewLimiter(l.config.FeedbackRate, l.config.FeedbackBurst)
		l.limiters[userID] = lim
	}

	return lim.Allow()
}

// applyPreferenceUpdate records an immediate weight adjustment and
// prunes entries past the retention window.
func (l *Learner) applyPreferenceUpdate(fb Feedback) {
	weight := preferenceWeight(fb.Type, fb.Rating)
	if weight == 0 {
		return
	}

	now := l.now().UTC()
	cutoff := now.Add(-l.config.PreferenceTTL)

	l.stateMu.Lock()
	defer l.stateMu.Unlock()

	state := l.userState(fb.UserID)

	kept := state.Updates[:0]

	for _, upd := range state.Updates {
		if upd.AppliedAt.After(cutoff) {
			kept = append(kept, upd)
		}
	}

	state.Updates = append(kept, PreferenceUpdate{
		CourseID:  fb.CourseID,
		Weight:    weight,
		AppliedAt: now,
	})
}

// preferenceWeight maps a feedback signal to an immediate profile
// weight. Unknown types carry no weight.
func preferenceWeight(t recommend.InteractionType, rating *float64) float64 {
	switch t {
	case recommend.InteractionLike:
		return 0.8
	case recommend.InteractionDislike:
		return -0.8
	case recommend.InteractionRate:
		if rating == nil {
			return 0
		}

		return *rating / 5
	case recommend.InteractionEnroll:
		return 0.6
	case recommend.InteractionComplete:
		return 1.0
	case recommend.InteractionView:
		return 0.2
	case recommend.InteractionUnlike:
		return -0.6
	default:
		return 0
	}
}

// Run drains the buffer on the configured interval until ctx ends. A
// final drain flushes whatever is still buffered.
func (l *Learner) Run(ctx context.Context) error {
	l.logger.Info().
		Dur("interval", l.config.DrainInterval).
		Int("buffer_size", l.config.BufferSize).
		Msg("Feedback learner started")

	ticker := time.NewTicker(l.config.DrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Drain()
			l.logger.Info().Msg("Feedback learner stopped")

			return ctx.Err()
		case <-ticker.C:
			l.Drain()
		}
	}
}

// Drain processes everything buffered since the last cycle. The batch
// is swapped out under the buffer lock and processed outside it, so
// Record never blocks on a drain.
func (l *Learner) Drain() {
	batch := l.buffer.Swap()

	metrics.FeedbackBufferDepth.Set(0)

	if len(batch) == 0 {
		return
	}

	start := time.Now()
	perUser := groupByUser(batch)

	l.stateMu.Lock()

	for userID, events := range perUser {
		summary := summarizeEvents(events)

		state := l.userState(userID)
		state.Engagement = append(state.Engagement, summary.engagement)

		if len(state.Engagement) > l.config.TrendWindow {
			state.Engagement = append([]float64(nil), tail(state.Engagement, l.config.TrendWindow)...)
		}

		if summary.hasAccuracy {
			state.Accuracy = summary.accuracy
			state.HasAccuracy = true
		}

		state.Conversion = summary.conversion

		l.applyTrendSignal(userID, state)
	}

	snapshot := l.aggregateLocked(batchSatisfaction(batch))

	l.history = append(l.history, snapshot)
	if len(l.history) > l.config.HistoryLimit {
		l.history = append([]Snapshot(nil), l.history[len(l.history)-l.config.HistoryLimit:]...)
	}

	l.processed += int64(len(batch))
	tracked := len(l.users)

	l.stateMu.Unlock()

	l.pruneLimiters()

	metrics.RecordFeedbackBatch(time.Since(start), len(batch))
	metrics.LearnerUsersTracked.Set(float64(tracked))

	l.logger.Debug().
		Int("batch_size", len(batch)).
		Int("users", len(perUser)).
		Dur("duration", time.Since(start)).
		Msg("Feedback batch processed")
}

// applyTrendSignal fits the user's recent engagement trend and records
// an adaptation signal when it moves sharply. Callers hold stateMu.
func (l *Learner) applyTrendSignal(userID int64, state *UserState) {
	if len(state.Engagement) < l.config.MinTrendSamples {
		return
	}

	slope := olsSlope(tail(state.Engagement, l.config.TrendWindow))

	var signal string

	switch {
	case slope > difficultyThreshold:
		signal = SignalIncreaseDifficulty
	case slope < -difficultyThreshold:
		signal = SignalDecreaseDifficulty
	case slope > trendThreshold:
		signal = SignalMaintainEngagement
	case slope < -trendThreshold:
		signal = SignalBoostEngagement
	default:
		return
	}

	state.LastSignal = signal
	metrics.RecordAdaptation(signal)

	l.logger.Info().
		Int64("user_id", userID).
		Str("signal", signal).
		Float64("slope", slope).
		Msg("Adaptation signal emitted")
}

// eventSummary holds one user's metrics for a single batch.
type eventSummary struct {
	engagement  float64
	accuracy    float64
	hasAccuracy bool
	conversion  float64
}

// summarizeEvents computes engagement, accuracy and conversion over one
// user's slice of a batch.
func summarizeEvents(events []Feedback) eventSummary {
	var (
		sum                  float64
		positives, negatives int
		views, enrolls       int
	)

	for _, fb := range events {
		weight := engagementWeight(fb.Type)
		if fb.Rating != nil {
			weight *= *fb.Rating / 5
		}

		sum += weight

		switch fb.Type {
		case recommend.InteractionLike, recommend.InteractionEnroll, recommend.InteractionComplete:
			positives++
		case recommend.InteractionDislike, recommend.InteractionUnlike:
			negatives++
		}

		switch fb.Type {
		case recommend.InteractionView:
			views++
		case recommend.InteractionEnroll:
			enrolls++
		}
	}

	out := eventSummary{engagement: sum / float64(len(events))}

	if positives+negatives > 0 {
		out.accuracy = float64(positives) / float64(positives+negatives)
		out.hasAccuracy = true
	}

	if views > 0 {
		out.conversion = float64(enrolls) / float64(views)
	}

	return out
}

// engagementWeight maps a feedback signal to its engagement
// contribution. Negative signals count against engagement here, unlike
// the candidate base weights.
func engagementWeight(t recommend.InteractionType) float64 {
	switch t {
	case recommend.InteractionView:
		return 0.1
	case recommend.InteractionLike:
		return 0.3
	case recommend.InteractionEnroll:
		return 0.5
	case recommend.InteractionComplete:
		return 1.0
	case recommend.InteractionRate:
		return 0.4
	case recommend.InteractionDislike:
		return -0.2
	case recommend.InteractionUnlike:
		return -0.3
	default:
		return 0
	}
}

// batchSatisfaction is the mean normalized rating over the batch
// events that carry one, or 0 when none do.
func batchSatisfaction(batch []Feedback) float64 {
	var (
		sum   float64
		count int
	)

	for _, fb := range batch {
		if fb.Rating != nil {
			sum += *fb.Rating / 5
			count++
		}
	}

	if count == 0 {
		return 0
	}

	return sum / float64(count)
}

// aggregateLocked means the latest per-user metrics into a snapshot.
// Callers hold stateMu.
func (l *Learner) aggregateLocked(satisfaction float64) Snapshot {
	var (
		engagement, accuracy, conversion float64
		accuracyCount                    int
	)

	for _, state := range l.users {
		if len(state.Engagement) > 0 {
			engagement += state.Engagement[len(state.Engagement)-1]
		}

		if state.HasAccuracy {
			accuracy += state.Accuracy
			accuracyCount++
		}

		conversion += state.Conversion
	}

	snap := Snapshot{
		Satisfaction: satisfaction,
		Timestamp:    l.now().UTC(),
	}

	if n := float64(len(l.users)); n > 0 {
		snap.EngagementRate = engagement / n
		snap.ConversionRate = conversion / n
	}

	if accuracyCount > 0 {
		snap.Accuracy = accuracy / float64(accuracyCount)
	} else {
		snap.Accuracy = 0.5
	}

	snap.Precision = snap.Accuracy
	snap.Recall = snap.Accuracy
	snap.F1 = snap.Accuracy

	return snap
}

// pruneLimiters drops limiters that refilled to full burst, which marks
// the user idle since the last cycle.
func (l *Learner) pruneLimiters() {
	l.limMu.Lock()
	defer l.limMu.Unlock()

	for userID, lim := range l.limiters {
		if lim.Tokens() >= float64(l.config.FeedbackBurst) {
			delete(l.limiters, userID)
		}
	}
}

// userState returns the state for userID, creating it if missing.
// Callers hold stateMu.
func (l *Learner) userState(userID int64) *UserState {
	state := l.users[userID]
	if state == nil {
		state = &UserState{}
		l.users[userID] = state
	}

	return state
}

// groupByUser splits a batch by user.
func groupByUser(batch []Feedback) map[int64][]Feedback {
	out := make(map[int64][]Feedback)

	for _, fb := range batch {
		out[fb.UserID] = append(out[fb.UserID], fb)
	}

	return out
}

// BufferDepth reports the current pending feedback count.
func (l *Learner) BufferDepth() int {
	return l.buffer.Len()
}

// ExportState snapshots the learner for persistence.
func (l *Learner) ExportState() *State {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()

	users := make(map[int64]*UserState, len(l.users))

	for userID, state := range l.users {
		clone := &UserState{
			Engagement:  append([]float64(nil), state.Engagement...),
			Accuracy:    state.Accuracy,
			HasAccuracy: state.HasAccuracy,
			Conversion:  state.Conversion,
			Updates:     append([]PreferenceUpdate(nil), state.Updates...),
			LastSignal:  state.LastSignal,
		}
		users[userID] = clone
	}

	return &State{
		Users:     users,
		History:   append([]Snapshot(nil), l.history...),
		Processed: l.processed,
	}
}

// ImportState restores a persisted snapshot. Call before Run.
func (l *Learner) ImportState(state *State) {
	if state == nil {
		return
	}

	l.stateMu.Lock()
	defer l.stateMu.Unlock()

	l.users = make(map[int64]*UserState, len(state.Users))
	for userID, us := range state.Users {
		if us != nil {
			l.users[userID] = us
		}
	}

	l.history = append([]Snapshot(nil), state.History...)
	l.processed = state.Processed

	l.logger.Info().
		Int("users", len(l.users)).
		Int("snapshots", len(l.history)).
		Int64("processed", l.processed).
		Msg("Learner state restored")
}
