// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

// Package algorithms implements the candidate scorers behind the
// recommendation engine.
//
// Each scorer implements the recommend.Scorer interface: it trains on
// an interaction and catalog snapshot, serves ranked candidates from
// in-memory state, and can be retrained at any time without blocking
// serving.
//
// # Scorers
//
// Collaborative:
//   - User-based collaborative filtering over decayed interaction
//     weights. Neighbors are precomputed at training time.
//
// Content:
//   - Preference-vector matching over course embeddings, with a
//     rule-based attribute fallback when no embedding signal exists
//     for a user.
//
// Popularity:
//   - Catalog ranking by rating and enrollment count. Backs explicit
//     popularity requests and the end of the fallback chain.
//
// All scorers accumulate interaction weights additively: every event
// contributes its decayed base weight, so repeated engagement with a
// course keeps strengthening the signal.
package algorithms
