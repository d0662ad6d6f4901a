// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package insights implements the insight-generation pipeline: it normalizes
// heterogeneous connector outputs into one canonical data summary, checks the
// summary against the operator's business context, renders deterministic
// prompts, invokes the model, and parses the response into the fixed tile
// schema.
//
// The pipeline tolerates partially available sources: the analytics and
// ad-platform figures are optional everywhere, and absence flows through as
// nil rather than an error.
package insights

import (
	"sort"

	"github.com/AleutianAI/AleutianCommerce/services/dashboard/datatypes"
)

// summaryPeriod labels the trailing window every source is fetched for.
const summaryPeriod = "Last 30 days"

// unknownProductTitle is the bucket for line items missing a product title.
const unknownProductTitle = "Unknown"

// topProductsLimit caps each top-products breakdown.
const topProductsLimit = 3

// =============================================================================
// Storefront Aggregation
// =============================================================================

// ComputeShopifyStats aggregates the paginated paid orders into the canonical
// storefront figures and the top-products breakdown.
//
// # Description
//
// Revenue is the exact sum of order totals across the fetched orders.
// RevenueIsEstimated is true iff the fetched sample is smaller than the
// reported order count, i.e. pagination did not cover every order in the
// window. When the sample is complete, SampleSize equals the number of orders
// backing Revenue exactly.
//
// # Inputs
//
//   - orders: Fully paginated paid orders for the window. May be empty.
//   - orderCount: The storefront's reported order count for the same window.
//
// # Outputs
//
//   - datatypes.ShopifyStats: Aggregated figures, rounded to 2dp.
//   - *datatypes.TopProducts: Top-3 breakdowns, nil when no line items exist.
func ComputeShopifyStats(orders []datatypes.Order, orderCount int) (datatypes.ShopifyStats, *datatypes.TopProducts) {
	var revenue float64
	for _, o := range orders {
		revenue += o.TotalPrice
	}

	sampleSize := len(orders)
	aov := 0.0
	if sampleSize > 0 {
		aov = revenue / float64(sampleSize)
	}

	stats := datatypes.ShopifyStats{
		OrderCount:         orderCount,
		Revenue:            datatypes.Round2(revenue),
		AvgOrderValue:      datatypes.Round2(aov),
		SampleSize:         sampleSize,
		RevenueIsEstimated: sampleSize < orderCount,
	}

	return stats, computeTopProducts(orders)
}

// computeTopProducts aggregates line items by product title and returns the
// top three by revenue and by units. Returns nil when no line items exist.
func computeTopProducts(orders []datatypes.Order) *datatypes.TopProducts {
	agg := make(map[string]*datatypes.ProductSales)
	for _, o := range orders {
		for _, li := range o.LineItems {
			title := li.Title
			if title == "" {
				title = unknownProductTitle
			}
			p, ok := agg[title]
			if !ok {
				p = &datatypes.ProductSales{Title: title}
				agg[title] = p
			}
			p.Revenue += li.Price * float64(li.Quantity)
			p.Units += li.Quantity
		}
	}
	if len(agg) == 0 {
		return nil
	}

	all := make([]datatypes.ProductSales, 0, len(agg))
	for _, p := range agg {
		p.Revenue = datatypes.Round2(p.Revenue)
		all = append(all, *p)
	}

	byRevenue := make([]datatypes.ProductSales, len(all))
	copy(byRevenue, all)
	// Secondary sort on title keeps the output order-stable when revenues tie,
	// which keeps the rendered prompt byte-identical across runs.
	sort.Slice(byRevenue, func(i, j int) bool {
		if byRevenue[i].Revenue != byRevenue[j].Revenue {
			return byRevenue[i].Revenue > byRevenue[j].Revenue
		}
		return byRevenue[i].Title < byRevenue[j].Title
	})

	byUnits := make([]datatypes.ProductSales, len(all))
	copy(byUnits, all)
	sort.Slice(byUnits, func(i, j int) bool {
		if byUnits[i].Units != byUnits[j].Units {
			return byUnits[i].Units > byUnits[j].Units
		}
		return byUnits[i].Title < byUnits[j].Title
	})

	return &datatypes.TopProducts{
		ByRevenue: truncateProducts(byRevenue),
		ByUnits:   truncateProducts(byUnits),
	}
}

func truncateProducts(ps []datatypes.ProductSales) []datatypes.ProductSales {
	if len(ps) > topProductsLimit {
		return ps[:topProductsLimit]
	}
	return ps
}

// =============================================================================
// Canonical Summary
// =============================================================================

// BuildDataSummary assembles the canonical normalized envelope.
//
// # Description
//
// Pure function, no I/O. The same inputs always produce an identical summary:
// every derived field is rounded through datatypes.Round2, and the optional
// sources pass through as nil when absent. The envelope is the only structure
// the prompt builder and context validator may depend on.
func BuildDataSummary(stats datatypes.ShopifyStats, ga4 *datatypes.AnalyticsData,
	ads *datatypes.AdPlatformData, top *datatypes.TopProducts) datatypes.DataSummary {

	stats.Revenue = datatypes.Round2(stats.Revenue)
	stats.AvgOrderValue = datatypes.Round2(stats.AvgOrderValue)

	if ads != nil {
		rounded := *ads
		rounded.Spend = datatypes.Round2(rounded.Spend)
		rounded.Revenue = datatypes.Round2(rounded.Revenue)
		ads = &rounded
	}

	return datatypes.DataSummary{
		Period:      summaryPeriod,
		Shopify:     stats,
		GA4:         ga4,
		MetaAds:     ads,
		TopProducts: top,
	}
}
