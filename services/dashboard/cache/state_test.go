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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianCommerce/services/dashboard/datatypes"
)

func newTestState(t *testing.T) (*ShopState, *ManualClock) {
	t.Helper()
	clock := NewManualClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewShopState(DefaultTTL, clock), clock
}

func seedState(state *ShopState, shop string) {
	state.SetToken(shop, "shpat_test")
	state.SetInsights(shop, datatypes.InsightRecord{
		Tiles:   &datatypes.InsightTiles{HealthCheck: "🟢 fine"},
		Summary: datatypes.DataSummary{Period: "Last 30 days"},
	})
	state.SetOrders(shop, datatypes.OrderSet{
		Orders:     []datatypes.Order{{ID: 1, TotalPrice: 50}},
		TotalCount: 1,
	})
}

func TestShopStateOrderSetKeepsReportedCount(t *testing.T) {
	state, _ := newTestState(t)
	state.SetOrders(testShop, datatypes.OrderSet{
		Orders:     []datatypes.Order{{ID: 1, TotalPrice: 50}, {ID: 2, TotalPrice: 30}},
		TotalCount: 400,
	})

	entry, ok := state.GetOrders(testShop)
	require.True(t, ok)
	assert.Len(t, entry.Value.Orders, 2)
	assert.Equal(t, 400, entry.Value.TotalCount, "reported count survives the round trip")
}

func TestShopStateTokenRoundTrip(t *testing.T) {
	state, _ := newTestState(t)

	_, ok := state.Token(testShop)
	assert.False(t, ok)

	state.SetToken(testShop, "shpat_abc")
	token, ok := state.Token(testShop)
	require.True(t, ok)
	assert.Equal(t, "shpat_abc", token)
}

func TestShopStateClearCachesIsPairwise(t *testing.T) {
	state, _ := newTestState(t)
	seedState(state, testShop)

	state.ClearCaches(testShop)

	_, ok := state.GetInsights(testShop)
	assert.False(t, ok, "insight cache cleared")
	_, ok = state.GetOrders(testShop)
	assert.False(t, ok, "order cache cleared with it")

	token, ok := state.Token(testShop)
	require.True(t, ok, "token survives a forced refresh")
	assert.Equal(t, "shpat_test", token)
}

func TestShopStateDeleteAll(t *testing.T) {
	state, _ := newTestState(t)
	seedState(state, testShop)

	state.DeleteAll(testShop)

	_, ok := state.Token(testShop)
	assert.False(t, ok)
	_, ok = state.GetInsights(testShop)
	assert.False(t, ok)
	_, ok = state.GetOrders(testShop)
	assert.False(t, ok)
}

func TestShopStateDeleteAllOtherShopsUntouched(t *testing.T) {
	state, _ := newTestState(t)
	seedState(state, "a.myshopify.com")
	seedState(state, "b.myshopify.com")

	state.DeleteAll("a.myshopify.com")

	_, ok := state.Token("b.myshopify.com")
	assert.True(t, ok)
	_, ok = state.GetInsights("b.myshopify.com")
	assert.True(t, ok)
}

func TestShopStateCachesExpireTogether(t *testing.T) {
	state, clock := newTestState(t)
	seedState(state, testShop)

	clock.Advance(DefaultTTL + time.Minute)

	_, okInsights := state.GetInsights(testShop)
	_, okOrders := state.GetOrders(testShop)
	assert.False(t, okInsights)
	assert.False(t, okOrders)

	_, ok := state.Token(testShop)
	assert.True(t, ok, "tokens have no TTL")
}

func TestShopStateEntryTimestampSurfaced(t *testing.T) {
	state, clock := newTestState(t)
	start := clock.Now()
	seedState(state, testShop)

	entry, ok := state.GetInsights(testShop)
	require.True(t, ok)
	assert.Equal(t, start, entry.GeneratedAt)
}
