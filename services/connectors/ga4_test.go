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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGA4Fetch_UnconfiguredReturnsNilNil(t *testing.T) {
	conn := &GA4Connector{}
	data, err := conn.Fetch(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestGA4Fetch_ParsesReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ga4-token", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Path, "properties/12345:runReport")

		var req ga4RunReportRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.DateRanges, 1)
		assert.Equal(t, "30daysAgo", req.DateRanges[0].StartDate)

		fmt.Fprint(w, `{"rows": [{"metricValues": [
			{"value": "4200"}, {"value": "9800"}, {"value": "3100"}, {"value": "0.47"}
		]}]}`)
	}))
	defer server.Close()

	conn := NewGA4ConnectorWithClient(server.Client(), server.URL, "12345", "ga4-token")
	data, err := conn.Fetch(context.Background())

	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, 4200, data.Sessions)
	assert.Equal(t, 9800, data.PageViews)
	assert.Equal(t, 3100, data.Users)
	assert.Equal(t, 0.47, data.BounceRate)
}

func TestGA4Fetch_ZeroTrafficIsPresentButZeroed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rows": []}`)
	}))
	defer server.Close()

	conn := NewGA4ConnectorWithClient(server.Client(), server.URL, "12345", "ga4-token")
	data, err := conn.Fetch(context.Background())

	require.NoError(t, err)
	require.NotNil(t, data, "configured with zero traffic is distinct from unconfigured")
	assert.Equal(t, 0, data.Sessions)
}

func TestGA4Fetch_APIErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"message": "insufficient permissions"}}`)
	}))
	defer server.Close()

	conn := NewGA4ConnectorWithClient(server.Client(), server.URL, "12345", "ga4-token")
	data, err := conn.Fetch(context.Background())

	require.Error(t, err)
	assert.Nil(t, data)
	assert.Contains(t, err.Error(), "403")
}
