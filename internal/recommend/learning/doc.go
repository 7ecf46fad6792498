// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

// Package learning implements the continuous feedback loop behind the
// recommendation engine.
//
// Feedback events are buffered in a bounded FIFO and drained on a fixed
// interval. Each drain cycle computes per-user engagement, accuracy and
// conversion metrics, fits engagement trends to emit adaptation
// signals, and appends an aggregate snapshot to the performance
// history. Explicit signals (like, dislike, rate) additionally apply an
// immediate preference update without waiting for the next cycle.
//
// The learner is the sole writer of its metric histories. Readers get
// point-in-time reports through UserInsights and PerformanceSummary;
// state survives restarts via ExportState and ImportState.
package learning
