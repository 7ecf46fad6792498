// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/courseloom/praeceptor/internal/recommend"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	h := newTestHandler(t,
		recommend.Candidate{CourseID: 201, Confidence: 0.85, Source: recommend.AlgorithmCollaborative},
	)
	return NewRouter(h, nil)
}

func TestRouter_HealthLive(t *testing.T) {
	t.Parallel()

	handler := newTestRouter(t).Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Expected security headers on health routes, got X-Content-Type-Options %q", got)
	}
}

func TestRouter_HealthAlias(t *testing.T) {
	t.Parallel()

	handler := newTestRouter(t).Setup()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRouter_RecommendationsRoute(t *testing.T) {
	t.Parallel()

	handler := newTestRouter(t).Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/42?algorithm=collaborative", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	response := decodeEnvelope(t, rec)
	data, _ := response["data"].(map[string]interface{})
	if data["user_id"] != float64(42) {
		t.Errorf("Expected user_id 42 through URL param, got %v", data["user_id"])
	}
}

func TestRouter_SimilarCoursesRoute(t *testing.T) {
	t.Parallel()

	handler := newTestRouter(t).Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/201/similar", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
}

func TestRouter_FeedbackRouteRejectsGet(t *testing.T) {
	t.Parallel()

	handler := newTestRouter(t).Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/feedback", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestRouter_InsightsRoute(t *testing.T) {
	t.Parallel()

	handler := newTestRouter(t).Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/7/insights", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
}

func TestRouter_LearningPerformanceRoute(t *testing.T) {
	t.Parallel()

	handler := newTestRouter(t).Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/learning/performance", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	t.Parallel()

	handler := newTestRouter(t).Setup()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_") {
		t.Error("Expected Prometheus exposition output")
	}
}

func TestRouter_JournalRoutesOnlyWhenConfigured(t *testing.T) {
	t.Parallel()

	t.Run("absent by default", func(t *testing.T) {
		t.Parallel()

		handler := newTestRouter(t).Setup()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/journal/stats", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})

	t.Run("present when configured", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(t)
		router.ConfigureJournalHandlers(NewJournalHandlers(&fakeStatsProvider{}, nil))
		handler := router.Setup()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/journal/stats", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected status %d, got %d", http.StatusOK, rec.Code)
		}
	})
}

func TestRouter_UnknownRoute(t *testing.T) {
	t.Parallel()

	handler := newTestRouter(t).Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nonsense", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}
