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
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/AleutianAI/AleutianCommerce/services/dashboard/datatypes"
)

const metaBaseURL = "https://graph.facebook.com/v19.0"

// MetaConnector fetches ad-account insights from the Meta Marketing API for a
// fixed trailing 30-day window. A connector with no ad-account ID or access
// token is "unconfigured" and Fetch returns (nil, nil).
//
// The revenue figure it returns is the ad-attributed conversion value as
// reported by Meta; it is never assumed equal to storefront revenue.
type MetaConnector struct {
	httpClient  HTTPClient
	adAccountID string
	accessToken string

	// baseURL overrides metaBaseURL in tests.
	baseURL string
}

// NewMetaConnector reads META_AD_ACCOUNT_ID and META_ACCESS_TOKEN from the
// environment. Either being absent leaves the connector unconfigured.
func NewMetaConnector() *MetaConnector {
	return &MetaConnector{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		adAccountID: os.Getenv("META_AD_ACCOUNT_ID"),
		accessToken: os.Getenv("META_ACCESS_TOKEN"),
	}
}

// NewMetaConnectorWithClient creates a configured connector against an
// injected HTTP client and base URL, for tests.
func NewMetaConnectorWithClient(client HTTPClient, baseURL, adAccountID, token string) *MetaConnector {
	return &MetaConnector{httpClient: client, baseURL: baseURL, adAccountID: adAccountID, accessToken: token}
}

// Meta reports numeric fields as strings; actions/action_values carry the
// purchase breakdown.
type metaInsightsResponse struct {
	Data []struct {
		Spend        string       `json:"spend"`
		Impressions  string       `json:"impressions"`
		Clicks       string       `json:"clicks"`
		Actions      []metaAction `json:"actions"`
		ActionValues []metaAction `json:"action_values"`
	} `json:"data"`
}

type metaAction struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

// Fetch returns the trailing-30-day ad figures, or (nil, nil) when the
// connector is unconfigured. A configured connector whose call fails returns
// a non-nil error; the caller decides whether that degrades to absent.
func (m *MetaConnector) Fetch(ctx context.Context) (*datatypes.AdPlatformData, error) {
	if m.adAccountID == "" || m.accessToken == "" {
		return nil, nil
	}

	base := m.baseURL
	if base == "" {
		base = metaBaseURL
	}

	q := url.Values{}
	q.Set("fields", "spend,impressions,clicks,actions,action_values")
	q.Set("date_preset", "last_30d")
	q.Set("access_token", m.accessToken)
	reqURL := fmt.Sprintf("%s/act_%s/insights?%s", base, m.adAccountID, q.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("meta: create request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("meta: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("meta: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("meta: API returned status %d: %s", resp.StatusCode, string(body))
	}

	var insights metaInsightsResponse
	if err := json.Unmarshal(body, &insights); err != nil {
		return nil, fmt.Errorf("meta: parse response: %w", err)
	}

	// An account with no delivery in the window returns an empty data array;
	// that is a present-but-zeroed value, distinct from unconfigured.
	out := &datatypes.AdPlatformData{}
	if len(insights.Data) > 0 {
		row := insights.Data[0]
		out.Spend = parseFloatSafe(row.Spend)
		out.Impressions = atoiSafe(row.Impressions)
		out.Clicks = atoiSafe(row.Clicks)
		out.Purchases = int(sumActions(row.Actions, "purchase"))
		out.Revenue = sumActions(row.ActionValues, "purchase")
	}
	return out, nil
}

// sumActions totals every action entry whose type matches.
func sumActions(actions []metaAction, actionType string) float64 {
	var total float64
	for _, a := range actions {
		if a.ActionType == actionType {
			total += parseFloatSafe(a.Value)
		}
	}
	return total
}

func parseFloatSafe(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
