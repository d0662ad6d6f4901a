// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the commerce dashboard service.
//
// This file contains the canonical data summary envelope and the per-source
// figures it is assembled from. The summary is the only structure the prompt
// builder and context validator may depend on; connector-native shapes must
// not leak past the summary builder in services/insights.
package datatypes

import "math"

// Round2 rounds to two decimal places. All presentation-adjacent derived
// fields go through this so identical inputs serialize byte-identically.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// =============================================================================
// Storefront Figures
// =============================================================================

// ShopifyStats holds the aggregated storefront numbers for the trailing window.
//
// # Invariants
//
//   - RevenueIsEstimated is true iff Revenue was computed from a partial order
//     sample rather than the full paginated set.
//   - When RevenueIsEstimated is false, SampleSize equals the exact number of
//     orders backing Revenue.
//
// Instances are immutable once built and expire with their cache entry.
type ShopifyStats struct {
	OrderCount         int     `json:"order_count"`
	Revenue            float64 `json:"revenue"`
	AvgOrderValue      float64 `json:"avg_order_value"`
	SampleSize         int     `json:"sample_size"`
	RevenueIsEstimated bool    `json:"revenue_is_estimated"`
}

// ProductSales is one aggregated product line in a top-products breakdown.
type ProductSales struct {
	Title   string  `json:"title"`
	Revenue float64 `json:"revenue"`
	Units   int     `json:"units"`
}

// TopProducts holds the top-3 product breakdowns derived from paid order line
// items, grouped by product title. Orders missing a title aggregate into the
// "Unknown" bucket. Always recomputed alongside ShopifyStats, never persisted
// on its own.
type TopProducts struct {
	ByRevenue []ProductSales `json:"by_revenue"`
	ByUnits   []ProductSales `json:"by_units"`
}

// =============================================================================
// Optional Source Figures
// =============================================================================

// AnalyticsData holds web analytics figures for the trailing 30-day window.
//
// A nil *AnalyticsData means the analytics source is not configured for this
// shop. A present-but-zeroed value is distinct from nil and means "configured,
// zero traffic in window".
type AnalyticsData struct {
	Sessions   int     `json:"sessions"`
	PageViews  int     `json:"page_views"`
	Users      int     `json:"users"`
	BounceRate float64 `json:"bounce_rate"` // fraction in [0,1]
}

// AdPlatformData holds ad-platform figures for the trailing 30-day window.
//
// Revenue here is the ad-attributed conversion value reported by the ad
// platform, not storefront revenue; the two are never assumed equal. ROAS is
// always derived (Revenue / Spend when Spend > 0), never stored.
type AdPlatformData struct {
	Spend       float64 `json:"spend"`
	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	Purchases   int     `json:"purchases"`
	Revenue     float64 `json:"revenue"`
}

// ROAS returns the derived return on ad spend rounded to two decimal places.
// The boolean is false when Spend is zero, where ROAS is undefined.
func (a *AdPlatformData) ROAS() (float64, bool) {
	if a == nil || a.Spend <= 0 {
		return 0, false
	}
	return Round2(a.Revenue / a.Spend), true
}

// CPC returns the derived cost per click rounded to two decimal places.
// The boolean is false when Clicks is zero.
func (a *AdPlatformData) CPC() (float64, bool) {
	if a == nil || a.Clicks <= 0 {
		return 0, false
	}
	return Round2(a.Spend / float64(a.Clicks)), true
}

// CTR returns the derived click-through rate as a percentage rounded to two
// decimal places. The boolean is false when Impressions is zero.
func (a *AdPlatformData) CTR() (float64, bool) {
	if a == nil || a.Impressions <= 0 {
		return 0, false
	}
	return Round2(float64(a.Clicks) / float64(a.Impressions) * 100), true
}

// =============================================================================
// Canonical Envelope
// =============================================================================

// DataSummary is the canonical normalized envelope handed to the prompt
// builder and context validator.
//
// # Determinism
//
// Derived presentation fields (ROAS, CPC, CTR, AOV) are rounded to two decimal
// places by the summary builder so identical inputs serialize byte-identically.
// The summary is embedded verbatim into prompts; instability here causes
// model-output instability.
type DataSummary struct {
	Period      string          `json:"period"`
	Shopify     ShopifyStats    `json:"shopify"`
	GA4         *AnalyticsData  `json:"ga4"`
	MetaAds     *AdPlatformData `json:"meta_ads"`
	TopProducts *TopProducts    `json:"top_products"`
}
