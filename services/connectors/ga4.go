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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/AleutianAI/AleutianCommerce/services/dashboard/datatypes"
)

const ga4BaseURL = "https://analyticsdata.googleapis.com/v1beta"

// GA4Connector fetches web analytics figures from the GA4 Data API for a
// fixed trailing 30-day window. A connector with no property ID or access
// token is "unconfigured" and Fetch returns (nil, nil).
type GA4Connector struct {
	httpClient  HTTPClient
	propertyID  string
	accessToken string

	// baseURL overrides ga4BaseURL in tests.
	baseURL string
}

// NewGA4Connector reads GA4_PROPERTY_ID and GA4_ACCESS_TOKEN from the
// environment. Either being absent leaves the connector unconfigured.
func NewGA4Connector() *GA4Connector {
	return &GA4Connector{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		propertyID:  os.Getenv("GA4_PROPERTY_ID"),
		accessToken: os.Getenv("GA4_ACCESS_TOKEN"),
	}
}

// NewGA4ConnectorWithClient creates a configured connector against an
// injected HTTP client and base URL, for tests.
func NewGA4ConnectorWithClient(client HTTPClient, baseURL, propertyID, token string) *GA4Connector {
	return &GA4Connector{httpClient: client, baseURL: baseURL, propertyID: propertyID, accessToken: token}
}

// ga4RunReportRequest is the subset of the Data API runReport body we use.
type ga4RunReportRequest struct {
	DateRanges []ga4DateRange `json:"dateRanges"`
	Metrics    []ga4Metric    `json:"metrics"`
}

type ga4DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type ga4Metric struct {
	Name string `json:"name"`
}

type ga4RunReportResponse struct {
	Rows []struct {
		MetricValues []struct {
			Value string `json:"value"`
		} `json:"metricValues"`
	} `json:"rows"`
}

// Fetch returns the trailing-30-day analytics figures, or (nil, nil) when the
// connector is unconfigured. A configured connector whose call fails returns
// a non-nil error; the caller decides whether that degrades to absent.
func (g *GA4Connector) Fetch(ctx context.Context) (*datatypes.AnalyticsData, error) {
	if g.propertyID == "" || g.accessToken == "" {
		return nil, nil
	}

	reqBody := ga4RunReportRequest{
		DateRanges: []ga4DateRange{{StartDate: "30daysAgo", EndDate: "today"}},
		Metrics: []ga4Metric{
			{Name: "sessions"},
			{Name: "screenPageViews"},
			{Name: "totalUsers"},
			{Name: "bounceRate"},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("ga4: marshal request: %w", err)
	}

	base := g.baseURL
	if base == "" {
		base = ga4BaseURL
	}
	url := fmt.Sprintf("%s/properties/%s:runReport", base, g.propertyID)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("ga4: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ga4: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ga4: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ga4: API returned status %d: %s", resp.StatusCode, string(body))
	}

	var report ga4RunReportResponse
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("ga4: parse response: %w", err)
	}

	// A configured property with zero traffic returns no rows; that is a
	// present-but-zeroed value, distinct from unconfigured.
	out := &datatypes.AnalyticsData{}
	if len(report.Rows) > 0 && len(report.Rows[0].MetricValues) >= 4 {
		vals := report.Rows[0].MetricValues
		out.Sessions = atoiSafe(vals[0].Value)
		out.PageViews = atoiSafe(vals[1].Value)
		out.Users = atoiSafe(vals[2].Value)
		if f, err := strconv.ParseFloat(vals[3].Value, 64); err == nil {
			out.BounceRate = f
		}
	}
	return out, nil
}

func atoiSafe(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
