// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package api

import (
	"net/http"
	"time"

	"github.com/courseloom/praeceptor/internal/models"
)

// HealthStatus is the full health report returned by GET /api/v1/health.
type HealthStatus struct {
	Status             string  `json:"status"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
	DatabaseConnected  bool    `json:"database_connected"`
	ModelVersion       int32   `json:"model_version"`
	Training           bool    `json:"training"`
	LearnerBufferDepth int     `json:"learner_buffer_depth"`
}

// Health returns the full health report. The service reports degraded
// rather than failing when the database is unreachable because the
// engine keeps serving from trained state and cache.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	engineStatus := h.engine.GetStatus()

	health := HealthStatus{
		Status:             status,
		UptimeSeconds:      time.Since(h.startTime).Seconds(),
		DatabaseConnected:  dbConnected,
		ModelVersion:       engineStatus.ModelVersion,
		Training:           engineStatus.IsTraining,
		LearnerBufferDepth: h.learner.BufferDepth(),
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   health,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthLive is the liveness probe. It answers as long as the process
// accepts requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":          true,
			"uptime_seconds": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady is the readiness probe. It fails with 503 until the
// database answers pings, keeping the instance out of rotation while
// dependencies start up.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	data := map[string]interface{}{
		"ready_to_serve":     dbConnected,
		"database_connected": dbConnected,
	}

	if !dbConnected {
		respondJSON(w, http.StatusServiceUnavailable, &models.APIResponse{
			Status: "error",
			Data:   data,
			Metadata: models.Metadata{
				Timestamp: time.Now(),
			},
			Error: &models.APIError{
				Code:    "NOT_READY",
				Message: "Service dependencies are not ready",
			},
		})
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
