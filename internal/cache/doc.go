// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

/*
Package cache provides thread-safe in-memory caching and selection structures.

This package implements the caching layer for recommendation responses and
course metadata, plus the heap used to select top-scoring candidates during
scoring, reducing database load and keeping request latency flat as the
catalog grows.

# Overview

The package provides four structures:

  - Cache: TTL-based key-value cache with background cleanup
  - LFUCache: capacity-bounded cache evicting least frequently used entries
  - LRUCache: capacity-bounded recency cache with an IsDuplicate fast path
  - TopK: bounded min-heap retaining the k highest-scoring items

Cache and LFUCache both satisfy the Cacher interface, so consumers can switch
strategies through NewCacher without code changes.

# Use Cases

Primary use cases:
  - Recommendation responses (TTL cache, 5-minute TTL)
  - Similar-course lookups (TTL cache, 5-minute TTL)
  - Course metadata (LFU cache, popular courses dominate lookups)
  - Feedback event deduplication (LRU cache keyed by message UUID)
  - Neighbor and candidate selection during scoring (TopK)

# Usage Example

Basic caching:

	import "github.com/courseloom/praeceptor/internal/cache"

	// Create cache with 5-minute default TTL
	c := cache.New(5 * time.Minute)

	// Store recommendations for a user
	c.Set(key, recs)

	// Retrieve
	if value, ok := c.Get(key); ok {
	    recs := value.(*RecommendationResponse)
	    // Serve cached recommendations
	}

Parameterized cache keys:

	type recParams struct {
	    UserID int64
	    Limit  int
	    Mood   string
	    Goal   string
	}

	key := cache.GenerateKey("GetRecommendations", recParams{
	    UserID: userID,
	    Limit:  limit,
	    Mood:   ctx.Mood,
	    Goal:   ctx.Goal,
	})

GenerateKey serializes the parameters with goccy/go-json and hashes them with
SHA-256, so any combination of request parameters maps to a stable, compact
key.

Top-K selection:

	// Keep the 20 most similar users out of the full user base
	neighbors := cache.NewTopK[float64](20)
	for _, other := range users {
	    sim := cosine(target, other.Vector)
	    neighbors.Push(other.ID, sim, sim)
	}
	for _, item := range neighbors.Sorted() {
	    // Descending similarity, ties broken by ascending user ID
	}

# Cache Invalidation

Two invalidation strategies:

 1. TTL-based expiration (automatic): entries expire after the configured TTL,
    checked lazily on Get and swept by a background goroutine every 5 minutes.

 2. Manual invalidation (on data changes): Clear() after a model refresh,
    Delete(key) when a single user's profile changes.

# Eviction Policies

LFUCache evicts the least frequently used entry when at capacity, with ties
broken by recency at the minimum frequency. This suits course metadata where a
small set of popular courses absorbs most lookups.

LRUCache evicts the least recently used entry. Its IsDuplicate method checks
and records a key in one locked pass, which is the shape the event
deduplication middleware needs.

TopK evicts the weakest retained item (lowest score, ties broken so the
smaller ID survives) whenever more than k items have been pushed, making
candidate selection deterministic for equal scores.

# Thread Safety

All structures are safe for concurrent use. Cache uses sync.RWMutex with a
separate stats mutex; LFUCache, LRUCache, and TopK each guard their state with
a single mutex.

# Performance Characteristics

  - Cache Get/Set/Delete: O(1)
  - LFUCache Get/Set/eviction: O(1)
  - LRUCache Get/Add/IsDuplicate/eviction: O(1)
  - TopK Push: O(log k), Sorted: O(k log k)

# See Also

  - internal/recommend: engine-level response caching and candidate selection
  - internal/events: deduplication middleware built on LRUCache
  - internal/database: course metadata caching
*/
package cache
