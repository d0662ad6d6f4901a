// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianCommerce/services/dashboard/datatypes"
)

func order(total float64, items ...datatypes.LineItem) datatypes.Order {
	return datatypes.Order{
		ID:         1,
		TotalPrice: total,
		CreatedAt:  time.Now(),
		LineItems:  items,
	}
}

func TestComputeShopifyStats_FullSample(t *testing.T) {
	orders := []datatypes.Order{order(50), order(70)}

	stats, _ := ComputeShopifyStats(orders, 2)

	assert.Equal(t, 2, stats.OrderCount)
	assert.Equal(t, 120.0, stats.Revenue)
	assert.Equal(t, 60.0, stats.AvgOrderValue)
	assert.Equal(t, 2, stats.SampleSize)
	assert.False(t, stats.RevenueIsEstimated)
}

func TestComputeShopifyStats_PartialSampleIsEstimated(t *testing.T) {
	orders := []datatypes.Order{order(50), order(70)}

	stats, _ := ComputeShopifyStats(orders, 10)

	assert.True(t, stats.RevenueIsEstimated)
	assert.Equal(t, 10, stats.OrderCount)
	assert.Equal(t, 2, stats.SampleSize)
}

func TestComputeShopifyStats_NoOrders(t *testing.T) {
	stats, top := ComputeShopifyStats(nil, 0)

	assert.Equal(t, 0.0, stats.Revenue)
	assert.Equal(t, 0.0, stats.AvgOrderValue)
	assert.False(t, stats.RevenueIsEstimated)
	assert.Nil(t, top)
}

func TestComputeShopifyStats_Rounding(t *testing.T) {
	orders := []datatypes.Order{order(10.333), order(10.333), order(10.333)}

	stats, _ := ComputeShopifyStats(orders, 3)

	assert.Equal(t, 31.0, stats.Revenue)
	assert.Equal(t, 10.33, stats.AvgOrderValue)
}

func TestComputeTopProducts_Breakdowns(t *testing.T) {
	orders := []datatypes.Order{
		order(100,
			datatypes.LineItem{Title: "Candle", Price: 20, Quantity: 4},
			datatypes.LineItem{Title: "Diffuser", Price: 45, Quantity: 1},
		),
		order(60,
			datatypes.LineItem{Title: "Candle", Price: 20, Quantity: 1},
			datatypes.LineItem{Title: "Wax Melts", Price: 8, Quantity: 5},
		),
		order(30,
			datatypes.LineItem{Title: "Matches", Price: 3, Quantity: 2},
		),
	}

	_, top := ComputeShopifyStats(orders, 3)
	require.NotNil(t, top)

	require.Len(t, top.ByRevenue, 3)
	assert.Equal(t, "Candle", top.ByRevenue[0].Title)
	assert.Equal(t, 100.0, top.ByRevenue[0].Revenue)
	assert.Equal(t, "Diffuser", top.ByRevenue[1].Title)
	assert.Equal(t, "Wax Melts", top.ByRevenue[2].Title)

	require.Len(t, top.ByUnits, 3)
	assert.Equal(t, "Candle", top.ByUnits[0].Title)
	assert.Equal(t, 5, top.ByUnits[0].Units)
	assert.Equal(t, "Wax Melts", top.ByUnits[1].Title)
}

func TestComputeTopProducts_MissingTitleBucket(t *testing.T) {
	orders := []datatypes.Order{
		order(10, datatypes.LineItem{Title: "", Price: 5, Quantity: 2}),
	}

	_, top := ComputeShopifyStats(orders, 1)
	require.NotNil(t, top)
	require.Len(t, top.ByRevenue, 1)
	assert.Equal(t, "Unknown", top.ByRevenue[0].Title)
}

func TestComputeTopProducts_TieBreakByTitle(t *testing.T) {
	orders := []datatypes.Order{
		order(40,
			datatypes.LineItem{Title: "Zeta", Price: 10, Quantity: 2},
			datatypes.LineItem{Title: "Alpha", Price: 10, Quantity: 2},
		),
	}

	_, top := ComputeShopifyStats(orders, 1)
	require.NotNil(t, top)
	assert.Equal(t, "Alpha", top.ByRevenue[0].Title)
	assert.Equal(t, "Zeta", top.ByRevenue[1].Title)
}

func TestBuildDataSummary_PassesOptionalSourcesThrough(t *testing.T) {
	stats := datatypes.ShopifyStats{OrderCount: 5, Revenue: 250, AvgOrderValue: 50, SampleSize: 5}

	summary := BuildDataSummary(stats, nil, nil, nil)

	assert.Equal(t, "Last 30 days", summary.Period)
	assert.Nil(t, summary.GA4)
	assert.Nil(t, summary.MetaAds)
	assert.Nil(t, summary.TopProducts)
}

func TestBuildDataSummary_RoundsAdFigures(t *testing.T) {
	ads := &datatypes.AdPlatformData{Spend: 99.999, Revenue: 300.004}

	summary := BuildDataSummary(datatypes.ShopifyStats{}, nil, ads, nil)

	require.NotNil(t, summary.MetaAds)
	assert.Equal(t, 100.0, summary.MetaAds.Spend)
	assert.Equal(t, 300.0, summary.MetaAds.Revenue)
	// The caller's struct must not be mutated.
	assert.Equal(t, 99.999, ads.Spend)
}
