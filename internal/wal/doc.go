// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

// Package wal provides a durable write-ahead journal for feedback
// events using BadgerDB. Accepted feedback is persisted before the
// HTTP handler acknowledges it and confirmed only after the learner
// has consumed it from the stream, so a process crash or NATS outage
// between the two never loses a signal.
//
// Lifecycle of an entry:
//
//  1. Write stores the serialized event under the pending: prefix and
//     returns an entry ID. The ID travels with the published message.
//  2. The feedback handler calls Confirm after the learner records the
//     event, moving the entry to the confirmed: prefix.
//  3. The Relay replays unconfirmed entries on startup and on a timer,
//     with exponential backoff per entry. Replays carry the original
//     event ID, so stream-side deduplication drops any copy the
//     learner already saw.
//  4. The Compactor deletes confirmed and expired entries and runs
//     Badger value log garbage collection.
package wal
