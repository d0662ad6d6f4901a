// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/AleutianCommerce/services/dashboard/datatypes"
)

// ErrUnauthorized signals a 401 from the Shopify Admin API: the stored access
// token has been revoked or expired. Callers must invalidate the shop's
// stored state and redirect to re-authentication; this failure is never
// downgraded to "source absent".
var ErrUnauthorized = errors.New("shopify: access token unauthorized")

const (
	shopifyAPIVersion = "2024-07"

	// ordersPageLimit is the Admin REST maximum page size; fewer pages means
	// fewer sequential round-trips on a cache miss.
	ordersPageLimit = 250

	// Shopify's REST bucket refills at 2 requests/second for standard plans.
	shopifyRequestsPerSecond = 2
	shopifyBurst             = 4
)

// =============================================================================
// Wire Shapes (Shopify-native, do not leak past this file)
// =============================================================================

type shopifyOrderCountResponse struct {
	Count int `json:"count"`
}

type shopifyOrdersResponse struct {
	Orders []shopifyOrder `json:"orders"`
}

type shopifyOrder struct {
	ID         int64             `json:"id"`
	TotalPrice string            `json:"total_price"`
	CreatedAt  time.Time         `json:"created_at"`
	LineItems  []shopifyLineItem `json:"line_items"`
}

type shopifyLineItem struct {
	Title    string `json:"title"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

// =============================================================================
// Connector
// =============================================================================

// ShopifyConnector fetches order aggregates and fully paginated paid orders
// from the Shopify Admin REST API for one shop at a time.
//
// # Thread Safety
//
// Safe for concurrent use; the rate limiter serializes request admission
// across goroutines.
type ShopifyConnector struct {
	httpClient HTTPClient
	limiter    *rate.Limiter

	// baseURL overrides the per-shop https://{shop} base in tests.
	baseURL string
}

// NewShopifyConnector creates a connector with the default HTTP client and
// Shopify's standard-plan rate limit.
func NewShopifyConnector() *ShopifyConnector {
	return &ShopifyConnector{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(shopifyRequestsPerSecond), shopifyBurst),
	}
}

// NewShopifyConnectorWithClient creates a connector with an injected HTTP
// client and base URL, for tests against httptest servers.
func NewShopifyConnectorWithClient(client HTTPClient, baseURL string) *ShopifyConnector {
	return &ShopifyConnector{
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		baseURL:    baseURL,
	}
}

func (s *ShopifyConnector) shopBase(shop string) string {
	if s.baseURL != "" {
		return s.baseURL
	}
	return "https://" + shop
}

// FetchOrderCount returns the shop's paid order count since the given time.
func (s *ShopifyConnector) FetchOrderCount(ctx context.Context, shop, token string, since time.Time) (int, error) {
	url := fmt.Sprintf("%s/admin/api/%s/orders/count.json?status=any&financial_status=paid&created_at_min=%s",
		s.shopBase(shop), shopifyAPIVersion, since.UTC().Format(time.RFC3339))

	body, _, err := s.doGet(ctx, url, token)
	if err != nil {
		return 0, err
	}

	var resp shopifyOrderCountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("shopify: parse order count: %w", err)
	}
	return resp.Count, nil
}

// FetchAllPaidOrders follows cursor-based pagination links until exhausted
// and returns every paid order in the window.
//
// # Description
//
// Each page's cursor comes from the previous response's Link header, so the
// page fetches are inherently sequential. This loop is the main latency
// driver on a cache miss, which is why order data has its own cache upstream.
// Callers must never assume a single-page result.
func (s *ShopifyConnector) FetchAllPaidOrders(ctx context.Context, shop, token string, since time.Time) ([]datatypes.Order, error) {
	url := fmt.Sprintf("%s/admin/api/%s/orders.json?status=any&financial_status=paid&limit=%d&created_at_min=%s",
		s.shopBase(shop), shopifyAPIVersion, ordersPageLimit, since.UTC().Format(time.RFC3339))

	var all []datatypes.Order
	pages := 0
	for url != "" {
		body, next, err := s.doGet(ctx, url, token)
		if err != nil {
			return nil, err
		}

		var resp shopifyOrdersResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("shopify: parse orders page: %w", err)
		}
		for _, wire := range resp.Orders {
			all = append(all, normalizeOrder(wire))
		}

		pages++
		url = next
	}

	slog.Debug("Fetched paid orders", "shop", shop, "orders", len(all), "pages", pages)
	return all, nil
}

// doGet performs one rate-limited GET and returns the body plus the next-page
// URL from the Link header, if any.
func (s *ShopifyConnector) doGet(ctx context.Context, url, token string) ([]byte, string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("shopify: create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("shopify: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("shopify: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, "", ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, "", fmt.Errorf("shopify: API returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, parseNextLink(resp.Header.Get("Link")), nil
}

// parseNextLink extracts the rel="next" URL from a Shopify Link header.
// Returns "" when there is no next page.
func parseNextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.IndexByte(part, '<')
		end := strings.IndexByte(part, '>')
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}
	return ""
}

// normalizeOrder converts the Shopify wire shape (string prices) into the
// typed order the rest of the pipeline consumes. Unparseable prices count as
// zero rather than failing the whole page.
func normalizeOrder(wire shopifyOrder) datatypes.Order {
	order := datatypes.Order{
		ID:        wire.ID,
		CreatedAt: wire.CreatedAt,
	}
	if v, err := strconv.ParseFloat(wire.TotalPrice, 64); err == nil {
		order.TotalPrice = v
	}
	for _, li := range wire.LineItems {
		item := datatypes.LineItem{Title: li.Title, Quantity: li.Quantity}
		if v, err := strconv.ParseFloat(li.Price, 64); err == nil {
			item.Price = v
		}
		order.LineItems = append(order.LineItems, item)
	}
	return order
}
