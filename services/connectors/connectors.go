// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package connectors holds the three upstream source adapters: the storefront
// order fetcher (Shopify Admin REST, mandatory), the web analytics fetcher
// (GA4, optional), and the ad-platform insights fetcher (Meta, optional).
//
// # Failure contract
//
// Optional connectors return (nil, nil) when not configured for this
// deployment; that is a config-shape check, not a transient failure. A
// non-nil error always means "configured but the remote call failed". The
// dashboard handler decides whether a failed optional source degrades to
// absent; the mandatory storefront source never degrades, and a 401 from it
// surfaces as ErrUnauthorized so the caller can invalidate the stored
// credential.
package connectors

import "net/http"

// HTTPClient allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
