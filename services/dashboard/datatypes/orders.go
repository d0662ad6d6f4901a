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
// This file contains the normalized order shape produced by the storefront
// connector. Prices arrive from the Shopify Admin API as strings; the
// connector parses them before anything downstream sees an order.
package datatypes

import "time"

// LineItem is one product line on a paid order.
type LineItem struct {
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Order is one paid storefront order within the trailing window.
type Order struct {
	ID         int64      `json:"id"`
	TotalPrice float64    `json:"total_price"`
	CreatedAt  time.Time  `json:"created_at"`
	LineItems  []LineItem `json:"line_items"`
}

// OrderSet is the cached unit of storefront data: the paginated order sample
// together with the storefront's reported total for the same window. The
// total travels with the sample so a cache hit preserves the sample-versus-
// total distinction that marks revenue as estimated.
type OrderSet struct {
	Orders     []Order `json:"orders"`
	TotalCount int     `json:"total_count"`
}
