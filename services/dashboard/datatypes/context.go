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
// This file contains the operator-edited business context document. The
// document is loaded once at process start, validated, and treated as
// immutable for the process lifetime. Hot reloading is deliberately not
// supported; restart the service after editing the document.
package datatypes

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// contextValidate validates the business context document at load time.
// Initialized in init() with the aov_band custom validator.
var contextValidate *validator.Validate

func init() {
	contextValidate = validator.New()
	_ = contextValidate.RegisterValidation("aov_band", validateAOVBand)
}

// validateAOVBand checks that a declared AOV band parses as "£low-high".
// Rejecting a malformed band at startup is cheaper than discovering it on
// every dashboard request.
func validateAOVBand(fl validator.FieldLevel) bool {
	_, _, err := ParseAOVBand(fl.Field().String())
	return err == nil
}

// =============================================================================
// Business Context Document
// =============================================================================

// BusinessProfile describes the merchant behind the shop. Optional fields that
// are empty are omitted from the system prompt.
type BusinessProfile struct {
	StoreName    string   `yaml:"store_name" validate:"required"`
	Industry     string   `yaml:"industry" validate:"required"`
	Stage        string   `yaml:"stage"`
	AOVBand      string   `yaml:"aov_band" validate:"required,aov_band"`
	MarginModel  string   `yaml:"margin_model"`
	Currency     string   `yaml:"currency" validate:"required"`
	HeroProducts []string `yaml:"hero_products"`
}

// DataContract is the canonical prose definition of one metric, plus the
// caveat the model must repeat when leaning on that metric.
type DataContract struct {
	Definition string `yaml:"definition" validate:"required"`
	Warning    string `yaml:"warning"`
}

// SafetyRule is one named trust-and-safety rail: a numeric threshold and the
// message the model is instructed to honor when the threshold applies.
type SafetyRule struct {
	Threshold float64 `yaml:"threshold"`
	Message   string  `yaml:"message" validate:"required"`
}

// Targets holds the merchant's declared performance goals. All fields are
// optional; a nil pointer means the merchant declared no goal for that metric.
type Targets struct {
	ROASGoal   *float64 `yaml:"roas_goal"`
	CACCeiling *float64 `yaml:"cac_ceiling"`
	MERGoal    *float64 `yaml:"mer_goal"`
}

// BusinessContext is the static, operator-edited document describing the
// tenant's business profile, canonical metric definitions, attribution rules,
// safety thresholds, and targets.
//
// # Thread Safety
//
// Read-only after LoadBusinessContext returns. Request handling must never
// mutate it.
type BusinessContext struct {
	Profile BusinessProfile `yaml:"profile" validate:"required"`

	// DataContracts keys are canonical metric names: revenue, orders,
	// sessions, conversion_rate, roas.
	DataContracts map[string]DataContract `yaml:"data_contracts" validate:"required,dive"`

	// AttributionRule is the cross-source discrepancy-flagging rule rendered
	// into the system prompt verbatim.
	AttributionRule string `yaml:"attribution_rule" validate:"required"`

	// SafetyRails keys are rule names: min_purchase_count, min_trend_days,
	// session_drop_flag, revenue_gap_flag.
	SafetyRails map[string]SafetyRule `yaml:"safety_rails" validate:"required,dive"`

	Targets Targets `yaml:"targets"`
}

// LoadBusinessContext reads and validates the business context document.
//
// # Description
//
// Parses the YAML document at path and validates required fields, failing
// fast so a malformed document is caught at startup rather than mid-request.
//
// # Inputs
//
//   - path: Filesystem path to the YAML document.
//
// # Outputs
//
//   - *BusinessContext: The validated, immutable document.
//   - error: Non-nil on read, parse, or validation failure.
func LoadBusinessContext(path string) (*BusinessContext, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read business context: %w", err)
	}

	var bc BusinessContext
	if err := yaml.Unmarshal(raw, &bc); err != nil {
		return nil, fmt.Errorf("parse business context: %w", err)
	}

	if err := contextValidate.Struct(&bc); err != nil {
		return nil, fmt.Errorf("invalid business context: %w", err)
	}
	return &bc, nil
}

// ParseAOVBand parses a declared AOV band of the form "£low-high" (currency
// symbol optional) into its numeric bounds.
func ParseAOVBand(band string) (low, high float64, err error) {
	s := strings.TrimSpace(band)
	s = strings.TrimLeft(s, "£$€")
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("aov band %q: want \"low-high\"", band)
	}
	low, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("aov band %q: bad low bound: %w", band, err)
	}
	high, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("aov band %q: bad high bound: %w", band, err)
	}
	if low > high {
		return 0, 0, fmt.Errorf("aov band %q: low bound exceeds high bound", band)
	}
	return low, high, nil
}
