// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

// Package events provides the NATS JetStream feedback pipeline.
//
// Two event families flow through the pipeline:
//
//   - FeedbackEvent: a user signal (view, like, rate, enroll, ...)
//     accepted by the API and consumed by the learning loop. Published
//     on "feedback.<type>".
//   - RecommendationEvent: one entry per candidate the engine served,
//     used to correlate later feedback with what was recommended.
//     Published on "recommended.<source>".
//
// Both subject families are captured by a single JetStream stream
// (see StreamInitializer) so feedback survives process restarts and
// consumers can be replayed from the durable log.
//
// # Components
//
// EmbeddedServer runs an in-process NATS server with JetStream for
// single-binary deployments. When config points at an external server
// the embedded server is simply not started.
//
// Publisher wraps the Watermill NATS publisher with a circuit breaker
// (gobreaker) and message-ID deduplication. PublishFeedback and
// PublishRecommendation serialize, stamp metadata, and publish.
//
// Subscriber binds a durable queue-group consumer to the stream.
// Wildcard topics ("feedback.>") require binding to a pre-created
// stream because stream names cannot contain wildcards.
//
// Router owns the consume side: it wires Watermill middleware in the
// order Recoverer, Retry, Throttle, Deduplicator, PoisonQueue and
// dispatches messages to registered handlers. FeedbackHandler decodes
// feedback events, hands them to the learner, and confirms the
// matching journal entry so the write-ahead log can discard it.
//
// # Delivery semantics
//
// Publishes set Nats-Msg-Id so JetStream drops duplicates inside the
// stream's duplicate window. The router's deduplicator keys on the
// event ID carried in message metadata, never on the Watermill UUID,
// which is regenerated on redelivery. Failed messages are retried with
// exponential backoff and eventually routed to the poison queue topic.
package events
