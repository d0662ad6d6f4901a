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
	"strings"

	"github.com/AleutianAI/AleutianCommerce/services/dashboard/datatypes"
)

// ValidateAgainstContext compares the live data summary against the declared
// business context and returns advisory notes for the model to acknowledge.
//
// # Description
//
// Every check runs on every call, independently; no check aborts another.
// Each note is a distinct self-contained human-readable string. The function
// is pure and side-effect-free, and the note order is stable for identical
// inputs.
//
// Checks:
//
//   - AOV band: live AOV outside the declared "£low-high" band.
//   - Hero products: a declared hero absent from the top products by revenue
//     (case-insensitive title match across the by-revenue breakdown).
//   - ROAS floor: actual ROAS below half the declared goal.
//   - CPA ceiling: spend per order above the declared CAC ceiling, with
//     escalated wording beyond twice the ceiling.
//
// # Outputs
//
//   - []string: Zero or more advisory notes, order-stable.
func ValidateAgainstContext(bc *datatypes.BusinessContext, summary datatypes.DataSummary) []string {
	var notes []string
	notes = append(notes, checkAOVBand(bc, summary)...)
	notes = append(notes, checkHeroProducts(bc, summary)...)
	notes = append(notes, checkROASFloor(bc, summary)...)
	notes = append(notes, checkCPACeiling(bc, summary)...)
	return notes
}

func checkAOVBand(bc *datatypes.BusinessContext, summary datatypes.DataSummary) []string {
	low, high, err := datatypes.ParseAOVBand(bc.Profile.AOVBand)
	if err != nil {
		// The band was validated at load time; an unparseable band here means
		// the document changed out from under us, so stay silent.
		return nil
	}
	aov := summary.Shopify.AvgOrderValue
	if summary.Shopify.SampleSize == 0 {
		return nil
	}
	if aov < low {
		return []string{fmt.Sprintf(
			"Live AOV %.2f is below the declared band %s; check for discounting or product-mix shifts.",
			aov, bc.Profile.AOVBand)}
	}
	if aov > high {
		return []string{fmt.Sprintf(
			"Live AOV %.2f is above the declared band %s; the declared band may be stale.",
			aov, bc.Profile.AOVBand)}
	}
	return nil
}

func checkHeroProducts(bc *datatypes.BusinessContext, summary datatypes.DataSummary) []string {
	if len(bc.Profile.HeroProducts) == 0 || summary.TopProducts == nil || len(summary.TopProducts.ByRevenue) == 0 {
		return nil
	}

	// The by-revenue breakdown is already capped upstream, so every declared
	// hero is matched against the full breakdown the summary carries.
	var notes []string
	for _, hero := range bc.Profile.HeroProducts {
		found := false
		for _, p := range summary.TopProducts.ByRevenue {
			if strings.EqualFold(p.Title, hero) {
				found = true
				break
			}
		}
		if !found {
			notes = append(notes, fmt.Sprintf(
				"Declared hero product %q is not among the top products by revenue this period.",
				hero))
		}
	}
	return notes
}

func checkROASFloor(bc *datatypes.BusinessContext, summary datatypes.DataSummary) []string {
	goal := bc.Targets.ROASGoal
	if goal == nil {
		return nil
	}
	roas, ok := summary.MetaAds.ROAS()
	if !ok {
		return nil
	}
	if roas < *goal*0.5 {
		return []string{fmt.Sprintf(
			"Actual ROAS %.2f is below half the declared goal of %.2f.", roas, *goal)}
	}
	return nil
}

func checkCPACeiling(bc *datatypes.BusinessContext, summary datatypes.DataSummary) []string {
	ceiling := bc.Targets.CACCeiling
	if ceiling == nil || summary.MetaAds == nil {
		return nil
	}
	spend := summary.MetaAds.Spend
	orders := summary.Shopify.OrderCount
	if spend <= 0 || orders <= 0 {
		return nil
	}

	cpa := datatypes.Round2(spend / float64(orders))
	switch {
	case cpa > *ceiling*2:
		return []string{fmt.Sprintf(
			"Blended cost per order %.2f is more than double the declared CAC ceiling of %.2f; acquisition economics need urgent review.",
			cpa, *ceiling)}
	case cpa > *ceiling:
		return []string{fmt.Sprintf(
			"Blended cost per order %.2f exceeds the declared CAC ceiling of %.2f.",
			cpa, *ceiling)}
	}
	return nil
}
