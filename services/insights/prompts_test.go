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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianCommerce/services/dashboard/datatypes"
)

func TestBuildSystemPrompt_Deterministic(t *testing.T) {
	bc := testContext()

	first := BuildSystemPrompt(bc)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, BuildSystemPrompt(bc), "system prompt must be byte-identical across calls")
	}
}

func TestBuildSystemPrompt_Content(t *testing.T) {
	prompt := BuildSystemPrompt(testContext())

	assert.Contains(t, prompt, "Aurora Candle Co")
	assert.Contains(t, prompt, "Typical AOV band: £40-80")
	assert.Contains(t, prompt, "Hero products: Candle, Diffuser")
	assert.Contains(t, prompt, "Gross paid order value before refunds.")
	assert.Contains(t, prompt, "(excludes refunds)")
	assert.Contains(t, prompt, "Flag discrepancies above 15%")
	assert.Contains(t, prompt, "min_purchase_count (threshold 30)")
	assert.Contains(t, prompt, "ROAS goal is 3.00")
	assert.Contains(t, prompt, "CAC ceiling is 25.00")
	assert.NotContains(t, prompt, "MER goal")
}

func TestBuildSystemPrompt_OmitsEmptyOptionalFields(t *testing.T) {
	bc := testContext()
	bc.Profile.Stage = ""
	bc.Profile.MarginModel = ""
	bc.Profile.HeroProducts = nil
	bc.Targets = datatypes.Targets{}

	prompt := BuildSystemPrompt(bc)
	assert.NotContains(t, prompt, "Stage:")
	assert.NotContains(t, prompt, "Margin model:")
	assert.NotContains(t, prompt, "Hero products:")
	assert.NotContains(t, prompt, "goal")
}

func TestBuildSystemPrompt_CanonicalContractOrder(t *testing.T) {
	prompt := BuildSystemPrompt(testContext())

	// revenue, orders, roas declared in testContext; canonical order puts
	// revenue before orders before roas regardless of map order.
	iRevenue := strings.Index(prompt, "- revenue:")
	iOrders := strings.Index(prompt, "- orders:")
	iROAS := strings.Index(prompt, "- roas:")
	require.True(t, iRevenue >= 0 && iOrders >= 0 && iROAS >= 0)
	assert.Less(t, iRevenue, iOrders)
	assert.Less(t, iOrders, iROAS)
}

func TestBuildUserPrompt_FourTilesWithoutAdData(t *testing.T) {
	summary := summaryWith(datatypes.ShopifyStats{OrderCount: 120, Revenue: 6000, AvgOrderValue: 50, SampleSize: 120}, nil, nil)

	prompt := BuildUserPrompt(summary, false, nil)

	assert.Equal(t, 4, strings.Count(prompt, "\n### "), "instruction blocks")
	assert.Contains(t, prompt, "Produce exactly 4 sections")
	assert.NotContains(t, prompt, "### AD PERFORMANCE")
	assert.Contains(t, prompt, "Meta Ads: Not connected")
	assert.Contains(t, prompt, "GA4: Not connected")
}

func TestBuildUserPrompt_FiveTilesWithAdData(t *testing.T) {
	ads := &datatypes.AdPlatformData{Spend: 500, Impressions: 10000, Clicks: 400, Purchases: 25, Revenue: 1500}
	summary := summaryWith(datatypes.ShopifyStats{OrderCount: 120, Revenue: 6000, AvgOrderValue: 50, SampleSize: 120}, ads, nil)

	prompt := BuildUserPrompt(summary, true, nil)

	assert.Equal(t, 5, strings.Count(prompt, "\n### "))
	assert.Contains(t, prompt, "Produce exactly 5 sections")
	assert.Contains(t, prompt, "### AD PERFORMANCE")
	assert.Contains(t, prompt, "- ROAS: 3.00")
	assert.Contains(t, prompt, "- CPC: 1.25")
	assert.Contains(t, prompt, "- CTR: 4.00%")
}

func TestBuildUserPrompt_EstimationMarker(t *testing.T) {
	stats := datatypes.ShopifyStats{OrderCount: 400, Revenue: 12500, AvgOrderValue: 50, SampleSize: 250, RevenueIsEstimated: true}
	summary := summaryWith(stats, nil, nil)

	prompt := BuildUserPrompt(summary, false, nil)
	assert.Contains(t, prompt, "(estimated from a sample of 250 orders)")
}

func TestBuildUserPrompt_NoEstimationMarkerForFullSample(t *testing.T) {
	stats := datatypes.ShopifyStats{OrderCount: 120, Revenue: 6000, AvgOrderValue: 50, SampleSize: 120}
	summary := summaryWith(stats, nil, nil)

	prompt := BuildUserPrompt(summary, false, nil)
	assert.NotContains(t, prompt, "estimated from a sample")
}

func TestBuildUserPrompt_ContextNotesBlock(t *testing.T) {
	summary := summaryWith(datatypes.ShopifyStats{OrderCount: 10, AvgOrderValue: 50, SampleSize: 10}, nil, nil)
	notes := []string{"Live AOV 25.00 is below the declared band £40-80."}

	prompt := BuildUserPrompt(summary, false, notes)
	assert.Contains(t, prompt, "ANALYST NOTES")
	assert.Contains(t, prompt, notes[0])

	without := BuildUserPrompt(summary, false, nil)
	assert.NotContains(t, without, "ANALYST NOTES")
}

func TestBuildUserPrompt_ZeroSpendOmitsROAS(t *testing.T) {
	ads := &datatypes.AdPlatformData{Spend: 0, Impressions: 100, Clicks: 5}
	summary := summaryWith(datatypes.ShopifyStats{OrderCount: 1, SampleSize: 1}, ads, nil)

	prompt := BuildUserPrompt(summary, true, nil)
	assert.Contains(t, prompt, "- ROAS: N/A")
}

func TestBuildUserPrompt_Deterministic(t *testing.T) {
	ads := &datatypes.AdPlatformData{Spend: 500, Impressions: 10000, Clicks: 400, Purchases: 25, Revenue: 1500}
	top := &datatypes.TopProducts{
		ByRevenue: []datatypes.ProductSales{{Title: "Candle", Revenue: 400, Units: 20}},
		ByUnits:   []datatypes.ProductSales{{Title: "Candle", Revenue: 400, Units: 20}},
	}
	summary := summaryWith(datatypes.ShopifyStats{OrderCount: 120, Revenue: 6000, AvgOrderValue: 50, SampleSize: 120}, ads, top)

	first := BuildUserPrompt(summary, true, []string{"note"})
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, BuildUserPrompt(summary, true, []string{"note"}))
	}
}
