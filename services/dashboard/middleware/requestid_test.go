// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func setupRouter() (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	var captured string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		captured = GetRequestID(c)
		c.Status(http.StatusOK)
	})
	return router, &captured
}

func TestRequestIDAssigned(t *testing.T) {
	router, captured := setupRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))

	header := w.Header().Get("X-Request-ID")
	if header == "" {
		t.Fatal("expected X-Request-ID response header")
	}
	if _, err := uuid.Parse(header); err != nil {
		t.Errorf("generated request ID %q is not a UUID: %v", header, err)
	}
	if *captured != header {
		t.Errorf("handler saw %q, response header carries %q", *captured, header)
	}
}

func TestRequestIDHonorsInbound(t *testing.T) {
	router, captured := setupRouter()

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Request-ID", "inbound-id-42")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") != "inbound-id-42" {
		t.Errorf("inbound request ID not honored, got %q", w.Header().Get("X-Request-ID"))
	}
	if *captured != "inbound-id-42" {
		t.Errorf("handler saw %q", *captured)
	}
}

func TestGetRequestIDWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := GetRequestID(c); got != "" {
		t.Errorf("expected empty ID without middleware, got %q", got)
	}
}
