// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

// Package recommend implements the course recommendation engine.
//
// The engine combines collaborative filtering and content-based scoring
// into a hybrid candidate list, optionally re-scores candidates against
// the learner's current context (time of day, session type, mood, goal),
// and falls back to popularity ranking whenever a user has too little
// history to personalize for.
//
// # Architecture
//
// The engine orchestrates a set of pluggable components:
//
//   - Scorer implementations (see the algorithms subpackage) generate
//     scored candidates per user. Each scorer trains on interaction and
//     catalog snapshots and serves from in-memory state.
//   - A ContextRescorer (see the reranking subpackage) blends contextual
//     boosts into candidate confidence when a request carries context.
//   - Rerankers apply post-processing such as diversity selection.
//   - A SimilarityIndex over course embeddings backs the similar-courses
//     surface.
//   - A DataProvider abstracts catalog and interaction reads so the
//     engine never touches the database layer directly.
//   - An EventSink receives a recommended event for every served
//     candidate, feeding the learning loop.
//
// # Request Pipeline
//
// Recommend runs a fixed pipeline: data sufficiency gate, scorer
// selection, hybrid merge, attribute filters, context re-scoring,
// fallback cascade, and event emission. Every stage is bounded by a
// single per-request deadline; when the deadline expires the engine
// discards partial work and serves the popularity fallback instead of
// failing the request.
//
// # Concurrency
//
// All exported methods are safe for concurrent use. Scorers swap
// trained state atomically under their own locks, training is
// serialized with a try-lock so overlapping refreshes are rejected
// rather than queued, and served responses are cached with a short TTL.
package recommend
