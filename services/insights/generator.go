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
	"context"
	"log/slog"
	"strings"

	"github.com/AleutianAI/AleutianCommerce/services/dashboard/datatypes"
	"github.com/AleutianAI/AleutianCommerce/services/llm"
)

// Output budgets for one generation. The budget grows when ad data is present
// because a fifth section has to fit in the response.
const (
	maxTokensFourTiles = 1200
	maxTokensFiveTiles = 1500
)

// Numeric ad-severity thresholds on ROAS (ad-attributed revenue / spend).
const (
	adROASCritical = 1.5
	adROASWarning  = 2.5
)

// =============================================================================
// Generator
// =============================================================================

// Generator owns the model call contract: it renders the prompts, invokes the
// model once, and parses the free-text response into the fixed tile schema.
type Generator struct {
	client llm.LLMClient
	bc     *datatypes.BusinessContext
}

// NewGenerator creates a Generator. client may be nil, which disables
// generation (Generate becomes a no-op returning nil tiles).
func NewGenerator(client llm.LLMClient, bc *datatypes.BusinessContext) *Generator {
	return &Generator{client: client, bc: bc}
}

// Enabled reports whether a model backend is configured.
func (g *Generator) Enabled() bool {
	return g.client != nil
}

// Generate runs one full generation cycle.
//
// # Description
//
// Builds the canonical data summary, runs the context validator, renders the
// system and user prompts, invokes the model with a bounded output budget,
// and parses the response into tiles. Severity tags are derived afterwards:
// health severity from status markers in the Health Check text, ad severity
// purely from the connector's own spend and revenue numbers.
//
// When no model backend is configured the call returns (nil, summary, nil)
// without any external call. A model invocation error propagates to the
// caller uncaught; the dashboard handler owns the fallback behavior.
//
// # Outputs
//
//   - *datatypes.InsightTiles: Parsed tiles, nil when generation is disabled.
//   - datatypes.DataSummary: The summary the tiles were generated from,
//     returned in all cases for freshness display.
//   - error: Non-nil only on model invocation failure.
func (g *Generator) Generate(ctx context.Context, stats datatypes.ShopifyStats,
	ga4 *datatypes.AnalyticsData, ads *datatypes.AdPlatformData,
	top *datatypes.TopProducts) (*datatypes.InsightTiles, datatypes.DataSummary, error) {

	summary := BuildDataSummary(stats, ga4, ads, top)
	if g.client == nil {
		return nil, summary, nil
	}

	notes := ValidateAgainstContext(g.bc, summary)
	hasAdData := summary.MetaAds != nil

	systemPrompt := BuildSystemPrompt(g.bc)
	userPrompt := BuildUserPrompt(summary, hasAdData, notes)

	budget := maxTokensFourTiles
	if hasAdData {
		budget = maxTokensFiveTiles
	}

	raw, err := g.client.Invoke(ctx, systemPrompt, userPrompt, budget)
	if err != nil {
		return nil, summary, err
	}

	tiles := ParseTiles(raw)
	tiles.HealthSeverity = deriveHealthSeverity(tiles.HealthCheck)
	tiles.AdSeverity = DeriveAdSeverity(summary.MetaAds)

	if !hasAdData {
		// A stray fifth section from the model must not surface when the ads
		// source was absent from the summary the tiles were generated from.
		tiles.AdPerformance = ""
	}

	if tiles.Empty() {
		slog.Warn("Model response produced no recognizable sections", "response_length", len(raw))
	}
	return tiles, summary, nil
}

// =============================================================================
// Response Parsing
// =============================================================================

// ParseTiles splits the model's free text on the section marker and
// classifies each segment into a named tile by keyword-matching its first
// line. The parser is deliberately tolerant: a model that reorders sections,
// omits one, or adds stray whitespace still yields the sections that are
// present. Unmatched or empty segments are dropped silently.
func ParseTiles(raw string) *datatypes.InsightTiles {
	tiles := &datatypes.InsightTiles{}

	for _, segment := range strings.Split(raw, sectionMarker) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		header := segment
		body := ""
		if idx := strings.IndexByte(segment, '\n'); idx >= 0 {
			header = segment[:idx]
			body = strings.TrimSpace(segment[idx+1:])
		}

		switch classifyHeader(header) {
		case "health":
			tiles.HealthCheck = body
		case "issue":
			tiles.BiggestIssue = body
		case "quickwin":
			tiles.QuickWin = body
		case "opportunity":
			tiles.Opportunity = body
		case "adperf":
			tiles.AdPerformance = body
		}
	}
	return tiles
}

// classifyHeader maps a section's first line onto a tile slot. Case
// insensitive, keyword based; returns "" for an unrecognized header.
func classifyHeader(header string) string {
	h := strings.ToUpper(header)
	switch {
	case strings.Contains(h, "HEALTH"):
		return "health"
	case strings.Contains(h, "ISSUE"):
		return "issue"
	case strings.Contains(h, "QUICK") || strings.Contains(h, "WIN"):
		return "quickwin"
	case strings.Contains(h, "OPPORTUN"):
		return "opportunity"
	case strings.Contains(h, "AD") && strings.Contains(h, "PERF"):
		return "adperf"
	default:
		return ""
	}
}

// =============================================================================
// Severity Derivation
// =============================================================================

// healthMarkers is the fixed-order status-marker scan for the Health Check
// tile, highest severity first so the highest marker wins if several appear.
var healthMarkers = []struct {
	markers  []string
	severity datatypes.Severity
}{
	{[]string{"🔴", "CRITICAL"}, datatypes.SeverityCritical},
	{[]string{"🟡", "WARNING"}, datatypes.SeverityWarning},
	{[]string{"🟢", "HEALTHY"}, datatypes.SeverityHealthy},
}

// deriveHealthSeverity scans the Health Check body for the status markers the
// prompt instructs the model to emit. Defaults to healthy when no marker is
// found, since the absence of a marker is a formatting slip, not a signal.
func deriveHealthSeverity(healthCheck string) datatypes.Severity {
	upper := strings.ToUpper(healthCheck)
	for _, entry := range healthMarkers {
		for _, m := range entry.markers {
			if strings.Contains(healthCheck, m) || strings.Contains(upper, m) {
				return entry.severity
			}
		}
	}
	return datatypes.SeverityHealthy
}

// DeriveAdSeverity classifies ad performance purely from the connector's own
// numbers, never from model text, so the classification stays deterministic
// and testable independent of model output. No ad data, or zero spend, is
// healthy by definition.
func DeriveAdSeverity(ads *datatypes.AdPlatformData) datatypes.Severity {
	roas, ok := ads.ROAS()
	if !ok {
		return datatypes.SeverityHealthy
	}
	switch {
	case roas < adROASCritical:
		return datatypes.SeverityCritical
	case roas <= adROASWarning:
		return datatypes.SeverityWarning
	default:
		return datatypes.SeverityHealthy
	}
}
