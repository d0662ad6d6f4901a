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
// This file contains the generated insight tile schema and severity levels.
package datatypes

// Severity classifies a tile's urgency for rendering (badge colour, ordering).
type Severity string

const (
	SeverityHealthy  Severity = "healthy"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// InsightTiles is one generation cycle's parsed model output.
//
// Tile bodies are free text parsed out of the model response; a body may be
// empty when the model omitted or mangled that section. AdPerformance and
// AdSeverity are populated only when ad-platform data was present in the
// DataSummary the tiles were generated from.
type InsightTiles struct {
	HealthCheck   string `json:"health_check"`
	BiggestIssue  string `json:"biggest_issue"`
	QuickWin      string `json:"quick_win"`
	Opportunity   string `json:"opportunity"`
	AdPerformance string `json:"ad_performance,omitempty"`

	HealthSeverity Severity `json:"health_severity"`
	AdSeverity     Severity `json:"ad_severity"`
}

// InsightRecord is what the insight cache stores for one shop: the parsed
// tiles together with the data summary they were generated from, so the
// consumer can display freshness alongside the advice.
type InsightRecord struct {
	Tiles   *InsightTiles `json:"tiles"`
	Summary DataSummary   `json:"summary"`
}

// Empty reports whether no tile body was populated at all. The dashboard
// handler treats a fully empty tile set the same as a generation failure and
// shows the retry affordance.
func (t *InsightTiles) Empty() bool {
	return t.HealthCheck == "" && t.BiggestIssue == "" && t.QuickWin == "" &&
		t.Opportunity == "" && t.AdPerformance == ""
}
