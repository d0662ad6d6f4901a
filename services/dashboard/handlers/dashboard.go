// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP surface of the commerce dashboard.
//
// The dashboard handler coordinates cache lookup, parallel fan-out to the
// source connectors on a miss, the insight generation pipeline, cache
// population, and incremental response emission: a skeleton chunk is flushed
// immediately so the host iframe can paint, and the finished payload follows
// on the same response once generation completes.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/AleutianCommerce/pkg/validation"
	"github.com/AleutianAI/AleutianCommerce/services/connectors"
	"github.com/AleutianAI/AleutianCommerce/services/dashboard/cache"
	"github.com/AleutianAI/AleutianCommerce/services/dashboard/datatypes"
	"github.com/AleutianAI/AleutianCommerce/services/dashboard/observability"
	"github.com/AleutianAI/AleutianCommerce/services/insights"
)

// fetchWindow is the trailing window every source is queried for.
const fetchWindow = 30 * 24 * time.Hour

// =============================================================================
// Connector Interfaces
// =============================================================================

// OrderFetcher is the mandatory storefront source.
type OrderFetcher interface {
	FetchOrderCount(ctx context.Context, shop, token string, since time.Time) (int, error)
	FetchAllPaidOrders(ctx context.Context, shop, token string, since time.Time) ([]datatypes.Order, error)
}

// AnalyticsFetcher is the optional web analytics source.
type AnalyticsFetcher interface {
	Fetch(ctx context.Context) (*datatypes.AnalyticsData, error)
}

// AdsFetcher is the optional ad-platform source.
type AdsFetcher interface {
	Fetch(ctx context.Context) (*datatypes.AdPlatformData, error)
}

// =============================================================================
// Dashboard Service
// =============================================================================

// Dashboard wires the caches, connectors, and generator together for the
// HTTP handlers.
type Dashboard struct {
	State     *cache.ShopState
	Shopify   OrderFetcher
	Analytics AnalyticsFetcher
	Ads       AdsFetcher
	Generator *insights.Generator

	// flight collapses concurrent cache-miss regenerations for the same shop
	// into one upstream cycle. Regeneration is idempotent per inputs within
	// the TTL window, so this changes cost, not observable behavior.
	flight singleflight.Group
}

// dashboardResponse is one NDJSON chunk on the dashboard stream.
type dashboardResponse struct {
	Status      string                   `json:"status"` // loading, ready, disabled, retry, error, reauth
	Tiles       *datatypes.InsightTiles  `json:"tiles,omitempty"`
	Summary     *datatypes.DataSummary   `json:"summary,omitempty"`
	GeneratedAt *time.Time               `json:"generated_at,omitempty"`
	Error       string                   `json:"error,omitempty"`
	Redirect    string                   `json:"redirect,omitempty"`
}

// HandleDashboard serves GET /v1/dashboard?shop=...&refresh=1.
//
// # Description
//
// With a live insight cache entry (and no refresh flag) the entry is served
// immediately with zero upstream calls. Otherwise a skeleton chunk is
// flushed, the sources are fetched concurrently, the generator runs, the
// cache is populated, and the finished content follows as a second chunk on
// the same response.
//
// A 401 from the storefront source at any stage invalidates the shop's
// stored state and answers with a re-auth redirect target; it is the one
// failure never downgraded to "source absent".
func HandleDashboard(d *Dashboard) gin.HandlerFunc {
	return func(c *gin.Context) {
		shop, ok := shopParam(c)
		if !ok {
			return
		}

		token, ok := d.State.Token(shop)
		if !ok {
			observability.RecordRequest("reauth")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "shop not connected", "redirect": reauthPath(shop)})
			return
		}

		forced := c.Query("refresh") == "1"
		if forced {
			d.State.ClearCaches(shop)
			slog.Info("Forced refresh, caches cleared", "shop", shop)
		}

		if !forced {
			if entry, ok := d.State.GetInsights(shop); ok {
				observability.RecordCacheLookup("insights", true)
				observability.RecordRequest("cache_hit")
				c.JSON(http.StatusOK, dashboardResponse{
					Status:      "ready",
					Tiles:       entry.Value.Tiles,
					Summary:     &entry.Value.Summary,
					GeneratedAt: &entry.GeneratedAt,
				})
				return
			}
			observability.RecordCacheLookup("insights", false)
		}

		// Cache miss: flush the skeleton so the iframe paints, then stream
		// the finished payload on the same response.
		c.Writer.Header().Set("Content-Type", "application/x-ndjson")
		c.Writer.WriteHeader(http.StatusOK)
		writeChunk(c, dashboardResponse{Status: "loading"})

		writeChunk(c, d.regenerate(c.Request.Context(), shop, token))
	}
}

// HandleRefresh serves POST /v1/dashboard/refresh?shop=... — clears both
// caches as a pair and regenerates synchronously.
func HandleRefresh(d *Dashboard) gin.HandlerFunc {
	return func(c *gin.Context) {
		shop, ok := shopParam(c)
		if !ok {
			return
		}
		token, ok := d.State.Token(shop)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "shop not connected", "redirect": reauthPath(shop)})
			return
		}

		d.State.ClearCaches(shop)
		resp := d.regenerate(c.Request.Context(), shop, token)

		status := http.StatusOK
		switch resp.Status {
		case "reauth":
			status = http.StatusUnauthorized
		case "error":
			status = http.StatusBadGateway
		}
		c.JSON(status, resp)
	}
}

// HandleSummary serves GET /v1/dashboard/summary?shop=... — the cached data
// summary and its generation timestamp, for freshness display.
func HandleSummary(d *Dashboard) gin.HandlerFunc {
	return func(c *gin.Context) {
		shop, ok := shopParam(c)
		if !ok {
			return
		}
		entry, ok := d.State.GetInsights(shop)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no cached insights for shop"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"summary":      entry.Value.Summary,
			"generated_at": entry.GeneratedAt,
		})
	}
}

// HandleDisconnect serves DELETE /v1/shop?shop=... — removes both caches and
// the stored credential together.
func HandleDisconnect(d *Dashboard) gin.HandlerFunc {
	return func(c *gin.Context) {
		shop, ok := shopParam(c)
		if !ok {
			return
		}
		d.State.DeleteAll(shop)
		slog.Info("Shop disconnected", "shop", shop)
		c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
	}
}

// =============================================================================
// Regeneration
// =============================================================================

// sourceResults carries the fan-out results for one regeneration cycle.
type sourceResults struct {
	orders     []datatypes.Order
	orderCount int
	ga4        *datatypes.AnalyticsData
	ads        *datatypes.AdPlatformData
	shopifyErr error
}

// regenerate runs one full cache-miss cycle and returns the response chunk
// describing the outcome. Concurrent calls for the same shop share one cycle
// via singleflight.
func (d *Dashboard) regenerate(ctx context.Context, shop, token string) dashboardResponse {
	// Joined callers share the flight, so the cycle must not die with the
	// caller whose request context happens to be captured by the closure.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := d.flight.Do(shop, func() (interface{}, error) {
		return d.regenerateOnce(flightCtx, shop, token), nil
	})
	if err != nil {
		// The inner func never returns an error; keep the compiler honest.
		return dashboardResponse{Status: "error", Error: err.Error()}
	}
	return v.(dashboardResponse)
}

func (d *Dashboard) regenerateOnce(ctx context.Context, shop, token string) dashboardResponse {
	start := time.Now()
	since := time.Now().Add(-fetchWindow)

	results := d.fetchSources(ctx, shop, token, since)

	if results.shopifyErr != nil {
		if errors.Is(results.shopifyErr, connectors.ErrUnauthorized) {
			// The stored credential is dead, not just a flaky call. Remove
			// everything for the shop and send the caller back through OAuth.
			d.State.DeleteAll(shop)
			observability.RecordRequest("reauth")
			slog.Warn("Shopify token rejected, shop state invalidated", "shop", shop)
			return dashboardResponse{Status: "reauth", Redirect: reauthPath(shop)}
		}
		observability.RecordRequest("error")
		slog.Error("Shopify fetch failed", "shop", shop, "error", results.shopifyErr)
		return dashboardResponse{Status: "error", Error: "storefront data unavailable"}
	}

	stats, top := insights.ComputeShopifyStats(results.orders, results.orderCount)

	if !d.Generator.Enabled() {
		observability.RecordRequest("disabled")
		summary := insights.BuildDataSummary(stats, results.ga4, results.ads, top)
		return dashboardResponse{Status: "disabled", Summary: &summary}
	}

	tiles, summary, err := d.Generator.Generate(ctx, stats, results.ga4, results.ads, top)
	if err != nil {
		// The insights cache stays unpopulated; the caller renders an
		// explicit retry affordance rather than stale or partial tiles.
		observability.RecordGeneration("error", time.Since(start).Seconds())
		observability.RecordRequest("error")
		slog.Error("Insight generation failed", "shop", shop, "error", err)
		return dashboardResponse{Status: "retry", Error: "unable to generate insights", Summary: &summary}
	}

	if tiles == nil || tiles.Empty() {
		observability.RecordGeneration("empty", time.Since(start).Seconds())
		observability.RecordRequest("error")
		slog.Warn("Generation produced no usable tiles", "shop", shop)
		return dashboardResponse{Status: "retry", Error: "unable to generate insights", Summary: &summary}
	}

	d.State.SetInsights(shop, datatypes.InsightRecord{Tiles: tiles, Summary: summary})
	entry, _ := d.State.GetInsights(shop)

	observability.RecordGeneration("success", time.Since(start).Seconds())
	observability.RecordRequest("generated")
	slog.Info("Insights generated", "shop", shop, "duration_ms", time.Since(start).Milliseconds())

	resp := dashboardResponse{Status: "ready", Tiles: tiles, Summary: &summary}
	if entry != nil {
		resp.GeneratedAt = &entry.GeneratedAt
	}
	return resp
}

// fetchSources issues the three source fetches concurrently and awaits them
// jointly. Analytics and ad-platform failures are caught per-source and
// downgraded to absent; only the storefront error propagates.
func (d *Dashboard) fetchSources(ctx context.Context, shop, token string, since time.Time) sourceResults {
	var results sourceResults
	var wg sync.WaitGroup

	wg.Add(3)

	go func() {
		defer wg.Done()
		results.orders, results.orderCount, results.shopifyErr = d.fetchOrders(ctx, shop, token, since)
	}()

	go func() {
		defer wg.Done()
		if d.Analytics == nil {
			observability.RecordConnector("ga4", "absent")
			return
		}
		ga4, err := d.Analytics.Fetch(ctx)
		if err != nil {
			// Degraded, not fatal: an erroring optional source renders the
			// same as an unconfigured one.
			observability.RecordConnector("ga4", "error")
			slog.Warn("GA4 fetch failed, treating as absent", "shop", shop, "error", err)
			return
		}
		if ga4 == nil {
			observability.RecordConnector("ga4", "absent")
			return
		}
		observability.RecordConnector("ga4", "ok")
		results.ga4 = ga4
	}()

	go func() {
		defer wg.Done()
		if d.Ads == nil {
			observability.RecordConnector("meta", "absent")
			return
		}
		ads, err := d.Ads.Fetch(ctx)
		if err != nil {
			observability.RecordConnector("meta", "error")
			slog.Warn("Meta fetch failed, treating as absent", "shop", shop, "error", err)
			return
		}
		if ads == nil {
			observability.RecordConnector("meta", "absent")
			return
		}
		observability.RecordConnector("meta", "ok")
		results.ads = ads
	}()

	wg.Wait()
	return results
}

// fetchOrders serves order data from its cache when live, otherwise runs the
// full sequential pagination and repopulates the cache.
func (d *Dashboard) fetchOrders(ctx context.Context, shop, token string, since time.Time) ([]datatypes.Order, int, error) {
	if entry, ok := d.State.GetOrders(shop); ok {
		observability.RecordCacheLookup("orders", true)
		return entry.Value.Orders, entry.Value.TotalCount, nil
	}
	observability.RecordCacheLookup("orders", false)

	count, err := d.Shopify.FetchOrderCount(ctx, shop, token, since)
	if err != nil {
		observability.RecordConnector("shopify", "error")
		return nil, 0, err
	}

	orders, err := d.Shopify.FetchAllPaidOrders(ctx, shop, token, since)
	if err != nil {
		observability.RecordConnector("shopify", "error")
		return nil, 0, err
	}
	observability.RecordConnector("shopify", "ok")

	// The reported count is cached with the sample; recomputing it from the
	// sample length on a later hit would erase a partial pagination.
	d.State.SetOrders(shop, datatypes.OrderSet{Orders: orders, TotalCount: count})
	return orders, count, nil
}

// =============================================================================
// Helpers
// =============================================================================

// shopParam extracts and sanitizes the shop query parameter. The domain ends
// up interpolated into outbound storefront URLs, so anything that is not a
// well-formed shop domain is rejected here with a 400.
func shopParam(c *gin.Context) (string, bool) {
	shop, err := validation.SanitizeShopDomain(c.Query("shop"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid shop parameter"})
		return "", false
	}
	return shop, true
}

// reauthPath is where the host app restarts the OAuth handshake. The
// handshake itself lives outside this service.
func reauthPath(shop string) string {
	return fmt.Sprintf("/auth/shopify?shop=%s", shop)
}

// writeChunk writes one NDJSON chunk and flushes it to the client.
func writeChunk(c *gin.Context, resp dashboardResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("Failed to marshal dashboard chunk", "error", err)
		return
	}
	if _, err := c.Writer.Write(append(data, '\n')); err != nil {
		slog.Warn("Client disconnected mid-stream", "error", err)
		return
	}
	c.Writer.Flush()
}
