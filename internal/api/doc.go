// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

// Package api exposes the recommendation engine over HTTP using the
// Chi router.
//
// All endpoints respond with the models.APIResponse envelope. Read
// endpoints carry an ETag and a short public cache lifetime, write
// endpoints are rate limited separately from reads, and every request
// receives an X-Request-ID header that flows into the logging context.
//
// Route map:
//
//	GET  /api/v1/recommendations/{userID}        personalized recommendations
//	GET  /api/v1/recommendations/status          training status
//	POST /api/v1/recommendations/train           trigger a training round
//	GET  /api/v1/courses/{courseID}/similar      similar courses
//	POST /api/v1/feedback                        feedback intake
//	GET  /api/v1/users/{userID}/insights         per-user learning report
//	GET  /api/v1/learning/performance            learner performance summary
//	GET  /api/v1/journal/stats                   feedback journal statistics
//	GET  /api/v1/journal/health                  journal backlog health
//	POST /api/v1/journal/compact                 trigger journal compaction
//	GET  /api/v1/health                          full health report
//	GET  /api/v1/health/live                     liveness probe
//	GET  /api/v1/health/ready                    readiness probe
//	GET  /metrics                                Prometheus metrics
package api
