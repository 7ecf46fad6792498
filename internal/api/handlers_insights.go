// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/courseloom/praeceptor/internal/models"
)

// GetUserInsights handles GET /api/v1/users/{userID}/insights. Users
// without processed feedback receive the neutral report rather than a
// 404, matching the learner's contract.
func (h *Handler) GetUserInsights(w http.ResponseWriter, r *http.Request) {
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

	start := time.Now()
	report := h.learner.UserInsights(userID)

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   report,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// GetLearningPerformance handles GET /api/v1/learning/performance,
// returning the aggregate learner report: latest snapshot, metric
// trends and processing counters.
func (h *Handler) GetLearningPerformance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   h.learner.PerformanceSummary(),
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
