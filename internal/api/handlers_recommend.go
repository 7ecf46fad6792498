// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/courseloom/praeceptor/internal/logging"
	"github.com/courseloom/praeceptor/internal/models"
	"github.com/courseloom/praeceptor/internal/recommend"
)

// RecommendationItem is one scored course in an API response. Title
// and category are filled from the engine's catalog when the course is
// known; confidence is the blended score in [0,1].
type RecommendationItem struct {
	CourseID       int64              `json:"course_id"`
	Title          string             `json:"title,omitempty"`
	Category       string             `json:"category,omitempty"`
	Difficulty     string             `json:"difficulty,omitempty"`
	Confidence     float64            `json:"confidence"`
	Reason         string             `json:"reason"`
	Source         string             `json:"source"`
	ContextScore   *float64           `json:"context_score,omitempty"`
	ContextFactors map[string]float64 `json:"context_factors,omitempty"`
}

// RecommendationList is the payload for GET /api/v1/recommendations/{userID}.
type RecommendationList struct {
	UserID       int64                `json:"user_id"`
	Algorithm    string               `json:"algorithm"`
	Source       string               `json:"source"`
	ModelVersion int32                `json:"model_version"`
	Count        int                  `json:"count"`
	Items        []RecommendationItem `json:"items"`
}

// SimilarCourseList is the payload for GET /api/v1/courses/{courseID}/similar.
type SimilarCourseList struct {
	CourseID int64                `json:"course_id"`
	Count    int                  `json:"count"`
	Items    []RecommendationItem `json:"items"`
}

// TrainingStatusResponse is the payload for GET /api/v1/recommendations/status.
type TrainingStatusResponse struct {
	IsTraining       bool      `json:"is_training"`
	Progress         float64   `json:"progress"`
	CurrentScorer    string    `json:"current_scorer,omitempty"`
	StartedAt        time.Time `json:"started_at,omitempty"`
	LastTrainedAt    time.Time `json:"last_trained_at,omitempty"`
	LastDurationMS   int64     `json:"last_duration_ms"`
	LastError        string    `json:"last_error,omitempty"`
	InteractionCount int       `json:"interaction_count"`
	CourseCount      int       `json:"course_count"`
	UserCount        int       `json:"user_count"`
	ModelVersion     int32     `json:"model_version"`
}

// GetRecommendations handles GET /api/v1/recommendations/{userID}.
//
// Query parameters: limit, algorithm (collaborative, content, hybrid,
// popularity, context_aware), category, difficulty, content_type, and
// the context fields time_of_day, day_kind, session_type, device_type,
// mood, learning_goal, skill_level, available_minutes, streak_days.
// Unknown algorithm names fall back to hybrid; unknown filter keys are
// ignored.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	userIDStr := chi.URLParam(r, "userID")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "User ID must be a positive integer", nil)
		return
	}

	req := recommend.Request{
		UserID:    userID,
		Limit:     getIntParam(r, "limit", 0),
		Algorithm: recommend.ParseAlgorithm(r.URL.Query().Get("algorithm")),
		Filters:   parseFilters(r),
		Context:   parseUserContext(r),
		RequestID: r.Header.Get("X-Request-ID"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	resp, err := h.engine.Recommend(ctx, req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "ENGINE_ERROR", "Failed to generate recommendations", err)
		return
	}

	list := RecommendationList{
		UserID:       userID,
		Algorithm:    resp.Metadata.Algorithm,
		Source:       resp.Metadata.Source,
		ModelVersion: resp.Metadata.ModelVersion,
		Count:        len(resp.Candidates),
		Items:        h.toItems(resp.Candidates),
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   list,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: resp.Metadata.LatencyMS,
			Cached:      resp.Metadata.CacheHit,
		},
	})
}

// GetSimilarCourses handles GET /api/v1/courses/{courseID}/similar.
func (h *Handler) GetSimilarCourses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	courseIDStr := chi.URLParam(r, "courseID")
	courseID, err := strconv.ParseInt(courseIDStr, 10, 64)
	if err != nil || courseID <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_COURSE_ID", "Course ID must be a positive integer", nil)
		return
	}

	limit := getIntParam(r, "limit", 10)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	start := time.Now()
	candidates, err := h.engine.SimilarCourses(ctx, courseID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "ENGINE_ERROR", "Failed to find similar courses", err)
		return
	}

	list := SimilarCourseList{
		CourseID: courseID,
		Count:    len(candidates),
		Items:    h.toItems(candidates),
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   list,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// GetRecommendationStatus handles GET /api/v1/recommendations/status.
func (h *Handler) GetRecommendationStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	status := h.engine.GetStatus()

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: TrainingStatusResponse{
			IsTraining:       status.IsTraining,
			Progress:         status.Progress,
			CurrentScorer:    status.CurrentScorer,
			StartedAt:        status.StartedAt,
			LastTrainedAt:    status.LastTrainedAt,
			LastDurationMS:   status.LastDuration.Milliseconds(),
			LastError:        status.LastError,
			InteractionCount: status.InteractionCount,
			CourseCount:      status.CourseCount,
			UserCount:        status.UserCount,
			ModelVersion:     status.ModelVersion,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// TriggerTraining handles POST /api/v1/recommendations/train. Training
// runs in the background; the response acknowledges the trigger, and
// progress is visible through the status endpoint. A round already in
// flight yields 409.
func (h *Handler) TriggerTraining(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if h.engine.GetStatus().IsTraining {
		respondError(w, http.StatusConflict, "TRAINING_IN_PROGRESS", "A training round is already running", nil)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		if err := h.engine.Train(ctx); err != nil {
			logging.Error().Err(err).Msg("Background training round failed")
		}
	}()

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"training_started": true,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// toItems shapes engine candidates for the wire, filling course titles
// from the catalog when available.
func (h *Handler) toItems(candidates []recommend.Candidate) []RecommendationItem {
	items := make([]RecommendationItem, 0, len(candidates))
	for _, c := range candidates {
		item := RecommendationItem{
			CourseID:       c.CourseID,
			Confidence:     c.Confidence,
			Reason:         c.Reason,
			Source:         string(c.Source),
			ContextScore:   c.ContextScore,
			ContextFactors: c.ContextFactors,
		}
		if course, ok := h.engine.LookupCourse(c.CourseID); ok {
			item.Title = course.Title
			item.Category = course.Category
			item.Difficulty = course.Difficulty
		}
		items = append(items, item)
	}
	return items
}

// parseFilters extracts the recognized filter keys from the query
// string. Unknown keys are ignored rather than rejected.
func parseFilters(r *http.Request) map[string]string {
	var filters map[string]string
	for _, key := range []string{recommend.FilterCategory, recommend.FilterDifficulty, recommend.FilterContentType} {
		if v := r.URL.Query().Get(key); v != "" {
			if filters == nil {
				filters = make(map[string]string)
			}
			filters[key] = v
		}
	}
	return filters
}

// parseUserContext builds the request context from query parameters.
// Returns nil when no context parameter is present so context-free
// requests skip the rescoring pass.
func parseUserContext(r *http.Request) *recommend.UserContext {
	q := r.URL.Query()
	uc := recommend.UserContext{
		TimeOfDay:        q.Get("time_of_day"),
		DayKind:          q.Get("day_kind"),
		SessionType:      q.Get("session_type"),
		DeviceType:       q.Get("device_type"),
		Mood:             q.Get("mood"),
		LearningGoal:     q.Get("learning_goal"),
		SkillLevel:       q.Get("skill_level"),
		AvailableMinutes: getIntParam(r, "available_minutes", 0),
		StreakDays:       getIntParam(r, "streak_days", 0),
	}

	if uc == (recommend.UserContext{}) {
		return nil
	}
	return &uc
}
