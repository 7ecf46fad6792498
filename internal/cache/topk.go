// Praeceptor - Adaptive Course Recommendation Engine
// Copyright 2026 Courseloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseloom/praeceptor

package cache

import (
	"sort"
	"sync"
)

// ScoredItem is an element tracked by a TopK heap.
type ScoredItem[T any] struct {
	ID    int64
	Value T
	Score float64
	index int // index in the heap array, used for O(log n) updates
}

// TopK keeps the k highest-scoring items seen so far.
// It provides O(log k) Push and O(k log k) Sorted, versus sorting the full
// candidate set.
//
// This is used for:
//   - Neighbor selection (k most similar users during scoring)
//   - Final ranking (top-N recommendations out of a large candidate pool)
//
// Backed by a min-heap: the root is the weakest retained item and is evicted
// first when the heap is over capacity. Ties on score are broken by ID so
// selection is deterministic: the smaller ID wins the slot. A parallel map
// gives O(1) lookup by ID; pushing an existing ID updates its score in place.
type TopK[T any] struct {
	mu   sync.RWMutex
	heap []*ScoredItem[T]
	byID map[int64]*ScoredItem[T]
	k    int
}

// NewTopK creates a heap retaining the k highest-scoring items.
// k <= 0 means unbounded (all items retained).
func NewTopK[T any](k int) *TopK[T] {
	return &TopK[T]{
		heap: make([]*ScoredItem[T], 0),
		byID: make(map[int64]*ScoredItem[T]),
		k:    k,
	}
}

// Push adds an item to the heap.
// If an item with the same ID exists, its value and score are updated.
// Returns the evicted item if the heap was at capacity, nil otherwise.
func (h *TopK[T]) Push(id int64, value T, score float64) *ScoredItem[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Check if ID already exists
	if existing, exists := h.byID[id]; exists {
		existing.Value = value
		existing.Score = score
		h.fix(existing.index)
		return nil
	}

	// Create new item
	item := &ScoredItem[T]{
		ID:    id,
		Value: value,
		Score: score,
		index: len(h.heap),
	}

	// Add to heap and map
	h.heap = append(h.heap, item)
	h.byID[id] = item
	h.bubbleUp(item.index)

	// Evict if over capacity
	if h.k > 0 && len(h.heap) > h.k {
		return h.popWeakest()
	}

	return nil
}

// WouldAccept reports whether an item with the given score and ID would be
// retained by Push. Lets hot loops skip allocation for hopeless candidates.
func (h *TopK[T]) WouldAccept(id int64, score float64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.k <= 0 || len(h.heap) < h.k {
		return true
	}
	return weaker(h.heap[0].Score, h.heap[0].ID, score, id)
}

// Min returns the weakest retained item without removing it.
// Returns nil if the heap is empty.
func (h *TopK[T]) Min() *ScoredItem[T] {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.heap) == 0 {
		return nil
	}
	return h.heap[0]
}

// Get retrieves an item by ID without removing it.
// Returns nil if not found.
func (h *TopK[T]) Get(id int64) *ScoredItem[T] {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.byID[id]
}

// Remove removes an item by ID.
// Returns the removed item, or nil if not found.
func (h *TopK[T]) Remove(id int64) *ScoredItem[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	item, exists := h.byID[id]
	if !exists {
		return nil
	}

	return h.removeAt(item.index)
}

// Len returns the number of retained items.
func (h *TopK[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.heap)
}

// Sorted returns the retained items ordered best-first:
// descending score, ties broken by ascending ID.
func (h *TopK[T]) Sorted() []*ScoredItem[T] {
	h.mu.RLock()
	items := make([]*ScoredItem[T], len(h.heap))
	copy(items, h.heap)
	h.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// All returns the retained items in no particular order.
func (h *TopK[T]) All() []*ScoredItem[T] {
	h.mu.RLock()
	defer h.mu.RUnlock()

	items := make([]*ScoredItem[T], len(h.heap))
	copy(items, h.heap)
	return items
}

// Clear removes all items from the heap.
func (h *TopK[T]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.heap = make([]*ScoredItem[T], 0)
	h.byID = make(map[int64]*ScoredItem[T])
}

// weaker reports whether (scoreA, idA) ranks below (scoreB, idB).
// Lower score is weaker; on equal scores the larger ID is weaker,
// so smaller IDs survive eviction.
func weaker(scoreA float64, idA int64, scoreB float64, idB int64) bool {
	if scoreA != scoreB {
		return scoreA < scoreB
	}
	return idA > idB
}

// Internal heap operations (must be called with lock held)

// popWeakest removes and returns the minimum element.
func (h *TopK[T]) popWeakest() *ScoredItem[T] {
	if len(h.heap) == 0 {
		return nil
	}

	return h.removeAt(0)
}

// removeAt removes the element at the given index.
func (h *TopK[T]) removeAt(i int) *ScoredItem[T] {
	n := len(h.heap) - 1
	item := h.heap[i]

	// Remove from map
	delete(h.byID, item.ID)

	if i == n {
		// Removing last element
		h.heap = h.heap[:n]
		return item
	}

	// Move last element to position i
	h.heap[i] = h.heap[n]
	h.heap[i].index = i
	h.heap = h.heap[:n]

	// Fix heap property
	h.fix(i)

	return item
}

// fix maintains heap property after a score change at index i.
func (h *TopK[T]) fix(i int) {
	// Try bubbling up
	if h.bubbleUp(i) {
		return
	}
	// If didn't bubble up, try bubbling down
	h.bubbleDown(i)
}

// bubbleUp moves element at index i up to its correct position.
// Returns true if the element moved.
func (h *TopK[T]) bubbleUp(i int) bool {
	moved := false
	for i > 0 {
		parent := (i - 1) / 2
		if !weaker(h.heap[i].Score, h.heap[i].ID, h.heap[parent].Score, h.heap[parent].ID) {
			break
		}
		h.swap(i, parent)
		i = parent
		moved = true
	}
	return moved
}

// bubbleDown moves element at index i down to its correct position.
func (h *TopK[T]) bubbleDown(i int) {
	n := len(h.heap)
	for {
		weakest := i
		left := 2*i + 1
		right := 2*i + 2

		if left < n && weaker(h.heap[left].Score, h.heap[left].ID, h.heap[weakest].Score, h.heap[weakest].ID) {
			weakest = left
		}
		if right < n && weaker(h.heap[right].Score, h.heap[right].ID, h.heap[weakest].Score, h.heap[weakest].ID) {
			weakest = right
		}

		if weakest == i {
			break
		}

		h.swap(i, weakest)
		i = weakest
	}
}

// swap swaps elements at indices i and j.
func (h *TopK[T]) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.heap[i].index = i
	h.heap[j].index = j
}
