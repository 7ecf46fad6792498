// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package learning

import "time"

// Coaching actions surfaced in user insight reports.
const (
	ActionEasierContent    = "Consider easier content to boost engagement"
	ActionImproveTargeting = "Improve recommendation targeting"
	ActionFocusQuality     = "Focus on high-quality, relevant content"
	ActionAdvancedContent  = "User is highly engaged - consider advanced content"
)

// Insight thresholds that trigger coaching actions.
const (
	lowAccuracyThreshold   = 0.4
	lowConversionThreshold = 0.1
	highTrendThreshold     = 0.3
	velocityWindowDays     = 30
)

// InsightsReport summarizes one user's learning signals.
type InsightsReport struct {
	UserID             int64     `json:"user_id"`
	EngagementTrend    float64   `json:"engagement_trend"`
	Accuracy           float64   `json:"accuracy"`
	ConversionRate     float64   `json:"conversion_rate"`
	PreferenceUpdates  int       `json:"preference_updates"`
	LearningVelocity   float64   `json:"learning_velocity"`
	LastSignal         string    `json:"last_signal,omitempty"`
	RecommendedActions []string  `json:"recommended_actions"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// UserInsights builds the learning report for one user. Users with no
// processed feedback get neutral defaults.
func (l *Learner) UserInsights(userID int64) *InsightsReport {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()

	report := &InsightsReport{
		UserID:      userID,
		Accuracy:    0.5,
		GeneratedAt: l.now().UTC(),
	}

	if state := l.users[userID]; state != nil {
		if len(state.Engagement) >= 2 {
			report.EngagementTrend = olsSlope(tail(state.Engagement, l.config.TrendWindow))
		}

		if state.HasAccuracy {
			report.Accuracy = state.Accuracy
		}

		report.ConversionRate = state.Conversion
		report.PreferenceUpdates = len(state.Updates)
		report.LearningVelocity = velocity(state.Updates, l.now().UTC())
		report.LastSignal = state.LastSignal
	}

	report.RecommendedActions = recommendedActions(
		report.EngagementTrend, report.Accuracy, report.ConversionRate)

	return report
}

// velocity is the per-day preference update rate over the trailing
// 30-day window.
func velocity(updates []PreferenceUpdate, now time.Time) float64 {
	cutoff := now.Add(-velocityWindowDays * 24 * time.Hour)
	recent := 0

	for _, upd := range updates {
		if upd.AppliedAt.After(cutoff) {
			recent++
		}
	}

	return float64(recent) / velocityWindowDays
}

// recommendedActions derives coaching actions from the user's metrics.
func recommendedActions(trend, accuracy, conversion float64) []string {
	var actions []string

	if trend < -trendThreshold {
		actions = append(actions, ActionEasierContent)
	}

	if accuracy < lowAccuracyThreshold {
		actions = append(actions, ActionImproveTargeting)
	}

	if conversion < lowConversionThreshold {
		actions = append(actions, ActionFocusQuality)
	}

	if trend > highTrendThreshold {
		actions = append(actions, ActionAdvancedContent)
	}

	return actions
}

// PerformanceReport summarizes system-wide learning performance.
type PerformanceReport struct {
	Latest            *Snapshot          `json:"latest,omitempty"`
	Trends            map[string]float64 `json:"trends"`
	UsersTracked      int                `json:"users_tracked"`
	FeedbackProcessed int64              `json:"feedback_processed"`
	SnapshotCount     int                `json:"snapshot_count"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

// PerformanceSummary reports the latest snapshot, per-metric trends
// over the recent window, and processing totals.
func (l *Learner) PerformanceSummary() *PerformanceReport {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()

	report := &PerformanceReport{
		Trends:            make(map[string]float64),
		UsersTracked:      len(l.users),
		FeedbackProcessed: l.processed,
		SnapshotCount:     len(l.history),
		GeneratedAt:       l.now().UTC(),
	}

	if len(l.history) == 0 {
		return report
	}

	latest := l.history[len(l.history)-1]
	report.Latest = &latest

	window := l.history
	if len(window) > l.config.TrendWindow {
		window = window[len(window)-l.config.TrendWindow:]
	}

	series := map[string]func(Snapshot) float64{
		"accuracy":        func(s Snapshot) float64 { return s.Accuracy },
		"satisfaction":    func(s Snapshot) float64 { return s.Satisfaction },
		"engagement_rate": func(s Snapshot) float64 { return s.EngagementRate },
		"conversion_rate": func(s Snapshot) float64 { return s.ConversionRate },
	}

	samples := make([]float64, len(window))

	for name, pick := range series {
		for i, snap := range window {
			samples[i] = pick(snap)
		}

		report.Trends[name] = olsSlope(samples)
	}

	return report
}
