// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

// Package storage provides artifact persistence for the recommendation
// engine.
//
// This package handles the serialization, compression, and storage of
// model artifacts: course embedding vectors, feature encoders, and the
// feedback learner's state. It enables warm starts across application
// restarts, version tracking for artifact lineage, and rollback to
// previous versions.
//
// # Overview
//
// The storage system provides:
//   - Gob serialization for efficient Go type encoding
//   - Gzip compression to reduce storage footprint
//   - SHA-256 checksums for data integrity verification
//   - Version tracking per artifact name
//   - Cleanup of old artifact versions
//
// # Storage Format
//
// Artifacts are stored with metadata in a gob-encoded, gzip-compressed
// format:
//
//	filename: {artifact_name}_v{version}.gob.gz
//
//	structure:
//	  - Metadata (ArtifactMetadata)
//	  - CompressedData (gzip-compressed gob-encoded artifact)
//
// # Usage Example
//
// Saving course vectors:
//
//	store, err := storage.NewStore("/data/praeceptor/models")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	meta := storage.ArtifactMetadata{
//	    CourseCount: len(vectors),
//	    TrainedAt:   time.Now(),
//	}
//
//	err = store.SaveVectors(ctx, vectors, meta)
//
// Loading the latest version:
//
//	vectors, meta, err := store.LoadVectors(ctx)
//	if errors.Is(err, storage.ErrArtifactNotFound) {
//	    // cold start, embeddings stay disabled
//	}
//
// # Version Management
//
// The store tracks the latest version of each artifact:
//
//	version, ok := store.GetLatestVersion(storage.ArtifactVectors)
//
//	// Load a specific version (0 = latest)
//	meta, err := store.Load(ctx, storage.ArtifactVectors, 5, &vectors)
//
// # Cleanup and Pruning
//
//	// Delete a specific version
//	err := store.Delete(ctx, storage.ArtifactVectors, 2)
//
//	// Keep only the latest 3 versions
//	err := store.Prune(ctx, storage.ArtifactVectors, 3)
//
// # Data Integrity
//
// Artifacts are validated on load using SHA-256 checksums:
//
//  1. Decompress gzip data
//  2. Compute SHA-256 of decompressed data
//  3. Compare with stored checksum
//  4. Return ErrArtifactCorrupt on mismatch
//
// This prevents loading corrupted artifacts that could produce wrong
// recommendations.
//
// # Directory Structure
//
//	/data/praeceptor/models/
//	  course_vectors_v1.gob.gz
//	  course_vectors_v2.gob.gz   <- latest
//	  user_encoder_v1.gob.gz
//	  course_encoder_v1.gob.gz
//	  learner_state_v4.gob.gz
//
// # Thread Safety
//
// All store operations are thread-safe:
//   - Save, Delete, Prune acquire the write lock
//   - Load acquires the read lock; loads run concurrently
//
// # See Also
//
//   - internal/recommend: engine consuming stored artifacts
//   - internal/recommend/learning: learner state persisted here
//   - encoding/gob: Go serialization format
package storage
