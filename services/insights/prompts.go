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
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/AleutianCommerce/services/dashboard/datatypes"
)

// sectionMarker is the header prefix the model is instructed to emit before
// each tile, and the marker the parser splits on. The prompt builder and the
// parser must agree on this string.
const sectionMarker = "###"

// contractOrder fixes the rendering order of the canonical metric contracts.
// Map iteration order would leak into the prompt otherwise, breaking the
// determinism guarantee.
var contractOrder = []string{"revenue", "orders", "sessions", "conversion_rate", "roas"}

// railOrder fixes the rendering order of the trust-and-safety rails.
var railOrder = []string{"min_purchase_count", "min_trend_days", "session_drop_flag", "revenue_gap_flag"}

// =============================================================================
// System Prompt
// =============================================================================

// BuildSystemPrompt renders the persona, business profile, canonical metric
// definitions, and trust-and-safety rails into the system prompt.
//
// # Determinism
//
// Same input produces a byte-identical string across calls; this is a
// correctness property tested directly. Optional profile fields that are
// empty are omitted entirely rather than rendered blank.
func BuildSystemPrompt(bc *datatypes.BusinessContext) string {
	var b strings.Builder

	b.WriteString("You are a senior e-commerce analyst writing a daily advisory dashboard for the merchant described below. ")
	b.WriteString("Be specific, quantitative, and brief. Never invent figures that are not in the data you are given.\n\n")

	b.WriteString("BUSINESS PROFILE\n")
	fmt.Fprintf(&b, "- Store: %s\n", bc.Profile.StoreName)
	fmt.Fprintf(&b, "- Industry: %s\n", bc.Profile.Industry)
	if bc.Profile.Stage != "" {
		fmt.Fprintf(&b, "- Stage: %s\n", bc.Profile.Stage)
	}
	fmt.Fprintf(&b, "- Typical AOV band: %s\n", bc.Profile.AOVBand)
	if bc.Profile.MarginModel != "" {
		fmt.Fprintf(&b, "- Margin model: %s\n", bc.Profile.MarginModel)
	}
	fmt.Fprintf(&b, "- Currency: %s\n", bc.Profile.Currency)
	if len(bc.Profile.HeroProducts) > 0 {
		fmt.Fprintf(&b, "- Hero products: %s\n", strings.Join(bc.Profile.HeroProducts, ", "))
	}

	b.WriteString("\nMETRIC DEFINITIONS\n")
	for _, name := range orderedKeys(bc.DataContracts, contractOrder) {
		contract := bc.DataContracts[name]
		fmt.Fprintf(&b, "- %s: %s", name, contract.Definition)
		if contract.Warning != "" {
			fmt.Fprintf(&b, " (%s)", contract.Warning)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nATTRIBUTION\n")
	fmt.Fprintf(&b, "- %s\n", bc.AttributionRule)

	b.WriteString("\nTRUST AND SAFETY RULES\n")
	for _, name := range orderedKeys(bc.SafetyRails, railOrder) {
		rule := bc.SafetyRails[name]
		fmt.Fprintf(&b, "- %s (threshold %g): %s\n", name, rule.Threshold, rule.Message)
	}

	if bc.Targets.ROASGoal != nil {
		fmt.Fprintf(&b, "\nThe merchant's ROAS goal is %.2f.\n", *bc.Targets.ROASGoal)
	}
	if bc.Targets.CACCeiling != nil {
		fmt.Fprintf(&b, "The merchant's CAC ceiling is %.2f.\n", *bc.Targets.CACCeiling)
	}
	if bc.Targets.MERGoal != nil {
		fmt.Fprintf(&b, "The merchant's MER goal is %.2f.\n", *bc.Targets.MERGoal)
	}

	return b.String()
}

// orderedKeys returns the keys of m in canonical order: the entries of
// canonical that exist in m first, then any remaining keys sorted.
func orderedKeys[V any](m map[string]V, canonical []string) []string {
	out := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, k := range canonical {
		if _, ok := m[k]; ok {
			out = append(out, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// =============================================================================
// User Prompt
// =============================================================================

// tileInstruction is one per-tile instruction block in the user prompt.
type tileInstruction struct {
	header      string
	instruction string
}

// coreTiles are the instruction blocks present on every generation.
var coreTiles = []tileInstruction{
	{"HEALTH CHECK", "One sentence on overall store health. Start the body with exactly one status marker: 🟢 if healthy, 🟡 if there are warning signs, 🔴 if something is critical."},
	{"BIGGEST ISSUE", "The single most important problem in the data right now and why it matters. Max 40 words."},
	{"QUICK WIN", "One action the merchant can complete today with the likely impact. Max 40 words."},
	{"OPPORTUNITY", "One growth opportunity visible in the data worth investing in this month. Max 40 words."},
}

// adTile is appended only when ad-platform data is present.
var adTile = tileInstruction{
	"AD PERFORMANCE",
	"Assess ad efficiency using spend, ROAS, CPC and CTR. Call out whether spend should move up or down. Max 40 words.",
}

// BuildUserPrompt renders the data block and the per-tile instructions.
//
// # Description
//
// The data block lists storefront, analytics, and ad figures, explicitly
// marking "Not connected" for absent optional sources and flagging revenue
// with an estimation marker when the storefront sample was partial. When
// contextNotes is non-empty, a block instructing the model to briefly
// acknowledge the notes is prepended.
//
// # Invariants
//
// The tile count named in the closing instruction always matches the number
// of instruction blocks rendered: 5 when hasAdData, 4 otherwise. The parser
// tolerates a missing section but relies on this prompt never asking for a
// merged one.
func BuildUserPrompt(summary datatypes.DataSummary, hasAdData bool, contextNotes []string) string {
	var b strings.Builder

	if len(contextNotes) > 0 {
		b.WriteString("ANALYST NOTES (acknowledge briefly where relevant):\n")
		for _, note := range contextNotes {
			fmt.Fprintf(&b, "- %s\n", note)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "DATA (%s)\n", summary.Period)
	writeShopifyBlock(&b, summary.Shopify)
	writeAnalyticsBlock(&b, summary.GA4)
	writeAdsBlock(&b, summary.MetaAds)
	writeTopProductsBlock(&b, summary.TopProducts)

	tiles := coreTiles
	if hasAdData {
		tiles = append(append([]tileInstruction{}, coreTiles...), adTile)
	}

	b.WriteString("\nWrite the following sections. Start each section with a line containing only the marker and the section name, e.g. \"")
	b.WriteString(sectionMarker)
	b.WriteString(" HEALTH CHECK\".\n\n")
	for _, tile := range tiles {
		fmt.Fprintf(&b, "%s %s\n%s\n\n", sectionMarker, tile.header, tile.instruction)
	}
	fmt.Fprintf(&b, "Produce exactly %d sections, nothing else.\n", len(tiles))

	return b.String()
}

func writeShopifyBlock(b *strings.Builder, s datatypes.ShopifyStats) {
	b.WriteString("Shopify:\n")
	fmt.Fprintf(b, "- Orders: %d\n", s.OrderCount)
	if s.RevenueIsEstimated {
		fmt.Fprintf(b, "- Revenue: %.2f (estimated from a sample of %d orders)\n", s.Revenue, s.SampleSize)
	} else {
		fmt.Fprintf(b, "- Revenue: %.2f\n", s.Revenue)
	}
	fmt.Fprintf(b, "- Average order value: %.2f\n", s.AvgOrderValue)
}

func writeAnalyticsBlock(b *strings.Builder, a *datatypes.AnalyticsData) {
	if a == nil {
		b.WriteString("GA4: Not connected\n")
		return
	}
	b.WriteString("GA4:\n")
	fmt.Fprintf(b, "- Sessions: %d\n", a.Sessions)
	fmt.Fprintf(b, "- Page views: %d\n", a.PageViews)
	fmt.Fprintf(b, "- Users: %d\n", a.Users)
	fmt.Fprintf(b, "- Bounce rate: %.2f%%\n", a.BounceRate*100)
}

func writeAdsBlock(b *strings.Builder, a *datatypes.AdPlatformData) {
	if a == nil {
		b.WriteString("Meta Ads: Not connected\n")
		return
	}
	b.WriteString("Meta Ads:\n")
	fmt.Fprintf(b, "- Spend: %.2f\n", a.Spend)
	fmt.Fprintf(b, "- Impressions: %d\n", a.Impressions)
	fmt.Fprintf(b, "- Clicks: %d\n", a.Clicks)
	fmt.Fprintf(b, "- Purchases: %d\n", a.Purchases)
	fmt.Fprintf(b, "- Ad-attributed revenue: %.2f\n", a.Revenue)
	if roas, ok := a.ROAS(); ok {
		fmt.Fprintf(b, "- ROAS: %.2f\n", roas)
	} else {
		b.WriteString("- ROAS: N/A\n")
	}
	if cpc, ok := a.CPC(); ok {
		fmt.Fprintf(b, "- CPC: %.2f\n", cpc)
	}
	if ctr, ok := a.CTR(); ok {
		fmt.Fprintf(b, "- CTR: %.2f%%\n", ctr)
	}
}

func writeTopProductsBlock(b *strings.Builder, top *datatypes.TopProducts) {
	if top == nil {
		return
	}
	b.WriteString("Top products by revenue:\n")
	for _, p := range top.ByRevenue {
		fmt.Fprintf(b, "- %s: %.2f (%d units)\n", p.Title, p.Revenue, p.Units)
	}
	b.WriteString("Top products by units:\n")
	for _, p := range top.ByUnits {
		fmt.Fprintf(b, "- %s: %d units (%.2f)\n", p.Title, p.Units, p.Revenue)
	}
}
