// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTTL is the fixed lifetime for both the insight cache and the raw
// order-data cache. An entry older than its TTL is treated as absent, never
// returned.
const DefaultTTL = 24 * time.Hour

// Entry wraps a cached value with the timestamp it was generated at. The
// timestamp is surfaced to callers for freshness display.
type Entry[T any] struct {
	Value       T
	GeneratedAt time.Time
}

// Store is an in-memory, per-shop TTL cache.
//
// # Description
//
// Get answers nil for absent and expired entries alike; expiry is evaluated
// lazily against the injected Clock on every read, so no background sweeper
// is required for correctness. Hit/miss/eviction counts are kept for the
// metrics endpoint.
//
// # Thread Safety
//
// Safe for concurrent use. Last-writer-wins on concurrent Set for the same
// shop, which is acceptable because regeneration is idempotent per inputs
// within the TTL window.
type Store[T any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[T]
	ttl     time.Duration
	clock   Clock

	hits      int64
	misses    int64
	evictions int64
}

// NewStore creates a Store with the given TTL. A nil clock falls back to the
// system clock.
func NewStore[T any](ttl time.Duration, clock Clock) *Store[T] {
	if clock == nil {
		clock = SystemClock()
	}
	return &Store[T]{
		entries: make(map[string]Entry[T]),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns the live entry for shop, or (nil, false) when the entry is
// absent or has outlived its TTL. An expired entry is removed on the way out.
func (s *Store[T]) Get(shop string) (*Entry[T], bool) {
	s.mu.RLock()
	entry, ok := s.entries[shop]
	s.mu.RUnlock()

	if !ok {
		atomic.AddInt64(&s.misses, 1)
		return nil, false
	}

	if s.clock.Now().Sub(entry.GeneratedAt) >= s.ttl {
		s.mu.Lock()
		// Re-check under the write lock; a fresher entry may have landed.
		if current, still := s.entries[shop]; still && current.GeneratedAt.Equal(entry.GeneratedAt) {
			delete(s.entries, shop)
			atomic.AddInt64(&s.evictions, 1)
		}
		s.mu.Unlock()
		atomic.AddInt64(&s.misses, 1)
		return nil, false
	}

	atomic.AddInt64(&s.hits, 1)
	return &entry, true
}

// Set stores value for shop with a fresh timestamp.
func (s *Store[T]) Set(shop string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[shop] = Entry[T]{Value: value, GeneratedAt: s.clock.Now()}
}

// Delete removes the entry for shop, if any.
func (s *Store[T]) Delete(shop string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, shop)
}

// Len returns the number of entries currently held, expired or not.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns cumulative hit, miss, and eviction counts.
func (s *Store[T]) Stats() (hits, misses, evictions int64) {
	return atomic.LoadInt64(&s.hits), atomic.LoadInt64(&s.misses), atomic.LoadInt64(&s.evictions)
}
