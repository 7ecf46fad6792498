// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

// Package database provides DuckDB-backed persistence for the course
// catalog, user interactions, and enrollments.
//
// # Architecture
//
// The package wraps a single DuckDB connection pool behind the DB type.
// All access methods take a context.Context and respect cancellation.
// Repositories are organized by aggregate:
//
//   - courses.go: catalog CRUD and active-course listings
//   - interactions.go: append-only interaction log, feedback persistence
//   - enrollments.go: enrollment upserts and the personalization gate counts
//   - provider.go: training data queries for the recommendation engine
//
// # Connection Management
//
// DuckDB is an embedded analytical database. The pool is tuned for its
// process model: one writer, NumCPU threads, bounded memory. Close
// performs a CHECKPOINT to flush the write-ahead log so the next startup
// does not replay schema statements.
//
// # Schema
//
// Tables are created on startup with CREATE TABLE IF NOT EXISTS; see
// database_schema.go. Post-release changes go through versioned
// migrations in migrations.go.
//
// # Caching
//
// Hot catalog queries (active course listings, single-course lookups)
// are served through a read-through TTL cache. Writes to the catalog
// invalidate the cache.
package database
