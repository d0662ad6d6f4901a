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
	"time"

	"github.com/AleutianAI/AleutianCommerce/services/dashboard/datatypes"
)

// ShopState aggregates all per-shop mutable state: the stored access token,
// the insight cache, and the raw order-data cache.
//
// # Pairwise invalidation
//
// Insights are derived from order data, so the two caches are always cleared
// together on forced refresh, and everything including the token is removed
// together on disconnect. DeleteAll holds the state-level lock across all
// three removals, so no request can observe a partial deletion.
//
// # Thread Safety
//
// Safe for concurrent use. All access goes through the state-level RWMutex;
// the embedded stores carry their own locks but are never reached around it.
type ShopState struct {
	mu       sync.RWMutex
	tokens   map[string]string
	insights *Store[datatypes.InsightRecord]
	orders   *Store[datatypes.OrderSet]
}

// NewShopState creates the per-shop state with the given TTL for both
// caches. A nil clock falls back to the system clock.
func NewShopState(ttl time.Duration, clock Clock) *ShopState {
	return &ShopState{
		tokens:   make(map[string]string),
		insights: NewStore[datatypes.InsightRecord](ttl, clock),
		orders:   NewStore[datatypes.OrderSet](ttl, clock),
	}
}

// =============================================================================
// Token Store
// =============================================================================

// Token returns the stored access token for shop, or ("", false).
func (s *ShopState) Token(shop string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[shop]
	return token, ok
}

// SetToken stores the access token for shop.
func (s *ShopState) SetToken(shop, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[shop] = token
}

// =============================================================================
// Caches
// =============================================================================

// GetInsights returns the live insight entry for shop, or (nil, false).
func (s *ShopState) GetInsights(shop string) (*Entry[datatypes.InsightRecord], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.insights.Get(shop)
}

// SetInsights stores the generated record with a fresh timestamp.
func (s *ShopState) SetInsights(shop string, record datatypes.InsightRecord) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.insights.Set(shop, record)
}

// GetOrders returns the live raw order entry for shop, or (nil, false).
func (s *ShopState) GetOrders(shop string) (*Entry[datatypes.OrderSet], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders.Get(shop)
}

// SetOrders stores the paginated order sample and its reported total with a
// fresh timestamp.
func (s *ShopState) SetOrders(shop string, set datatypes.OrderSet) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.orders.Set(shop, set)
}

// ClearCaches removes the insight and order entries for shop as a pair.
// Used on forced refresh; the token survives.
func (s *ShopState) ClearCaches(shop string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insights.Delete(shop)
	s.orders.Delete(shop)
}

// DeleteAll removes both caches and the stored token for shop. Invoked on
// disconnect and on credential invalidation after a storefront 401.
func (s *ShopState) DeleteAll(shop string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insights.Delete(shop)
	s.orders.Delete(shop)
	delete(s.tokens, shop)
}

// Stats exposes the embedded stores' counters for the metrics endpoint.
func (s *ShopState) Stats() (insightHits, insightMisses, orderHits, orderMisses int64) {
	ih, im, _ := s.insights.Stats()
	oh, om, _ := s.orders.Stats()
	return ih, im, oh, om
}
