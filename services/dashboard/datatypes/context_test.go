// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validContextYAML = `
profile:
  store_name: Aurora Candle Co
  industry: Home fragrance
  stage: growth
  aov_band: "£40-80"
  margin_model: 60% gross margin
  currency: GBP
  hero_products:
    - Candle
    - Diffuser
data_contracts:
  revenue:
    definition: Gross paid order value before refunds.
    warning: excludes refunds
  orders:
    definition: Count of paid orders in the window.
attribution_rule: Flag discrepancies above 15% between sources.
safety_rails:
  min_purchase_count:
    threshold: 30
    message: Do not draw conversion conclusions below 30 purchases.
targets:
  roas_goal: 3.0
  cac_ceiling: 25.0
`

func writeContextFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "business_context.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadBusinessContext_Valid(t *testing.T) {
	bc, err := LoadBusinessContext(writeContextFile(t, validContextYAML))

	require.NoError(t, err)
	assert.Equal(t, "Aurora Candle Co", bc.Profile.StoreName)
	assert.Equal(t, "£40-80", bc.Profile.AOVBand)
	assert.Equal(t, []string{"Candle", "Diffuser"}, bc.Profile.HeroProducts)
	assert.Equal(t, "excludes refunds", bc.DataContracts["revenue"].Warning)
	assert.Equal(t, 30.0, bc.SafetyRails["min_purchase_count"].Threshold)
	require.NotNil(t, bc.Targets.ROASGoal)
	assert.Equal(t, 3.0, *bc.Targets.ROASGoal)
	assert.Nil(t, bc.Targets.MERGoal, "undeclared target stays nil")
}

func TestLoadBusinessContext_MissingFile(t *testing.T) {
	_, err := LoadBusinessContext("/nonexistent/business_context.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read business context")
}

func TestLoadBusinessContext_MalformedYAML(t *testing.T) {
	_, err := LoadBusinessContext(writeContextFile(t, "profile: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse business context")
}

func TestLoadBusinessContext_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate string
	}{
		{"missing store name", `
profile:
  industry: Home fragrance
  aov_band: "£40-80"
  currency: GBP
data_contracts:
  revenue:
    definition: x
attribution_rule: x
safety_rails:
  min_purchase_count:
    threshold: 30
    message: x
`},
		{"malformed aov band", `
profile:
  store_name: Aurora
  industry: Home fragrance
  aov_band: "whatever"
  currency: GBP
data_contracts:
  revenue:
    definition: x
attribution_rule: x
safety_rails:
  min_purchase_count:
    threshold: 30
    message: x
`},
		{"rail missing message", `
profile:
  store_name: Aurora
  industry: Home fragrance
  aov_band: "£40-80"
  currency: GBP
data_contracts:
  revenue:
    definition: x
attribution_rule: x
safety_rails:
  min_purchase_count:
    threshold: 30
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBusinessContext(writeContextFile(t, tt.mutate))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid business context")
		})
	}
}

func TestParseAOVBand(t *testing.T) {
	tests := []struct {
		band    string
		low     float64
		high    float64
		wantErr bool
	}{
		{"£40-80", 40, 80, false},
		{"$10-25.50", 10, 25.50, false},
		{"€5-15", 5, 15, false},
		{"40-80", 40, 80, false},
		{" £40 - 80 ", 40, 80, false},
		{"80-40", 0, 0, true},
		{"forty-eighty", 0, 0, true},
		{"40", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.band, func(t *testing.T) {
			low, high, err := ParseAOVBand(tt.band)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.low, low)
			assert.Equal(t, tt.high, high)
		})
	}
}
