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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testShop = "aurora.myshopify.com"

func newTestStore(t *testing.T) (*Store[string], *ManualClock) {
	t.Helper()
	clock := NewManualClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewStore[string](DefaultTTL, clock), clock
}

func TestStoreGetSet(t *testing.T) {
	store, _ := newTestStore(t)

	_, ok := store.Get(testShop)
	assert.False(t, ok)

	store.Set(testShop, "cached")
	entry, ok := store.Get(testShop)
	require.True(t, ok)
	assert.Equal(t, "cached", entry.Value)
	assert.False(t, entry.GeneratedAt.IsZero())
}

func TestStoreTTLBoundary(t *testing.T) {
	store, clock := newTestStore(t)
	store.Set(testShop, "cached")

	t.Run("just inside TTL", func(t *testing.T) {
		clock.Advance(DefaultTTL - time.Second)
		_, ok := store.Get(testShop)
		assert.True(t, ok)
	})

	t.Run("at TTL", func(t *testing.T) {
		clock.Advance(time.Second)
		_, ok := store.Get(testShop)
		assert.False(t, ok, "an entry exactly at its TTL is expired")
	})

	t.Run("expired entry is evicted", func(t *testing.T) {
		assert.Equal(t, 0, store.Len())
	})
}

func TestStoreSetRefreshesTimestamp(t *testing.T) {
	store, clock := newTestStore(t)
	store.Set(testShop, "first")

	clock.Advance(20 * time.Hour)
	store.Set(testShop, "second")

	clock.Advance(20 * time.Hour)
	entry, ok := store.Get(testShop)
	require.True(t, ok, "rewrite restarts the TTL window")
	assert.Equal(t, "second", entry.Value)
}

func TestStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	store.Set(testShop, "cached")
	store.Delete(testShop)

	_, ok := store.Get(testShop)
	assert.False(t, ok)
}

func TestStoreShopsAreIndependent(t *testing.T) {
	store, _ := newTestStore(t)
	store.Set("a.myshopify.com", "alpha")
	store.Set("b.myshopify.com", "beta")

	store.Delete("a.myshopify.com")

	_, ok := store.Get("a.myshopify.com")
	assert.False(t, ok)
	entry, ok := store.Get("b.myshopify.com")
	require.True(t, ok)
	assert.Equal(t, "beta", entry.Value)
}

func TestStoreStats(t *testing.T) {
	store, clock := newTestStore(t)

	store.Get(testShop) // miss
	store.Set(testShop, "v")
	store.Get(testShop) // hit
	clock.Advance(DefaultTTL)
	store.Get(testShop) // miss + eviction

	hits, misses, evictions := store.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), misses)
	assert.Equal(t, int64(1), evictions)
}

func TestStoreConcurrentAccess(t *testing.T) {
	store, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			shop := fmt.Sprintf("shop-%d.myshopify.com", i%5)
			store.Set(shop, "v")
			store.Get(shop)
			store.Delete(shop)
		}(i)
	}
	wg.Wait()
}
