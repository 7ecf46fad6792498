// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router assembles the HTTP routing tree. The journal handlers are
// optional; their routes are only registered when configured.
type Router struct {
	handler         *Handler
	journalHandlers *JournalHandlers
	chiMiddleware   *ChiMiddleware
}

// NewRouter creates a router around the handler hub. A nil middleware
// config uses the secure defaults.
func NewRouter(handler *Handler, mwConfig *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// ConfigureJournalHandlers registers the journal endpoints. Called
// during startup when the write-ahead journal is enabled.
func (router *Router) ConfigureJournalHandlers(jh *JournalHandlers) {
	router.journalHandlers = jh
}

// Setup builds the routing tree with the full middleware stack.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order. CORS must be
	// global so OPTIONS preflight requests are answered before routing.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// Health endpoints. Permissive rate limiting so monitoring tools
	// can poll frequently.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// Bare /health alias for load balancers with fixed probe paths.
	r.With(router.chiMiddleware.RateLimitCustom(RateLimitHealth)).
		Get("/health", router.handler.Health)

	// Recommendation endpoints. Burst-friendly limits because a single
	// page load issues several scoring calls.
	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitRecommend))
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())

		r.Get("/status", router.handler.GetRecommendationStatus)
		r.With(router.chiMiddleware.RateLimitCustom(RateLimitWrite)).
			Post("/train", router.handler.TriggerTraining)
		r.Get("/{userID}", router.handler.GetRecommendations)
	})

	r.Route("/api/v1/courses", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitRecommend))
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())

		r.Get("/{courseID}/similar", router.handler.GetSimilarCourses)
	})

	// Feedback intake. Write-rate limited to protect the journal and
	// the stream from floods.
	r.Route("/api/v1/feedback", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitWrite))
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())

		r.Post("/", router.handler.PostFeedback)
	})

	// Learning reports.
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitAPI))
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())

		r.Get("/{userID}/insights", router.handler.GetUserInsights)
	})

	r.Route("/api/v1/learning", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitAPI))
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())

		r.Get("/performance", router.handler.GetLearningPerformance)
	})

	// Journal endpoints, present only when the write-ahead journal is
	// enabled.
	if router.journalHandlers != nil {
		r.Route("/api/v1/journal", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitAPI))
			r.Use(APISecurityHeaders())

			r.Get("/stats", router.journalHandlers.GetStats)
			r.Get("/health", router.journalHandlers.GetHealth)
			r.With(router.chiMiddleware.RateLimitCustom(RateLimitWrite)).
				Post("/compact", router.journalHandlers.TriggerCompaction)
		})
	}

	r.Handle("/metrics", promhttp.Handler())

	return r
}
