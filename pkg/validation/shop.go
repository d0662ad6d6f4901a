// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that are used in
// outbound request URLs or cache keys. The shop domain in particular is
// interpolated into the storefront API base URL, so an unvalidated value is a
// server-side request forgery vector.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// shopDomainPattern matches valid Shopify shop domains: a store handle of
// lowercase letters, digits, and hyphens (no leading/trailing hyphen)
// followed by the fixed ".myshopify.com" suffix.
var shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]{0,58}[a-z0-9]\.myshopify\.com$`)

// ValidateShopDomain validates a shop domain to prevent request forgery.
//
// Valid domains:
//   - "{handle}.myshopify.com" with a 2-60 character handle
//   - Handle characters: lowercase a-z, digits, interior hyphens
//
// Returns an error if the domain is invalid.
//
// Example:
//
//	if err := validation.ValidateShopDomain(shop); err != nil {
//	    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shop"})
//	    return
//	}
//	// Safe to use in https://{shop}/admin/api/... URLs
func ValidateShopDomain(shop string) error {
	if shop == "" {
		return fmt.Errorf("shop domain cannot be empty")
	}

	if !shopDomainPattern.MatchString(shop) {
		return fmt.Errorf("invalid shop domain: %q (must be {handle}.myshopify.com)", shop)
	}

	return nil
}

// SanitizeShopDomain normalizes and validates a shop domain.
// Lowercases, trims whitespace, and strips a scheme prefix if the caller
// pasted a full URL. Returns the canonical domain or an error.
func SanitizeShopDomain(shop string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(shop))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimSuffix(s, "/")

	if err := ValidateShopDomain(s); err != nil {
		return "", err
	}
	return s, nil
}
