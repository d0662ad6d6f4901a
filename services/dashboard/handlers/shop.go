// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianCommerce/pkg/validation"
)

// ConnectRequest registers a shop's access credential after the host app
// completes the OAuth handshake. The handshake and HMAC verification happen
// outside this service; we only store the result.
type ConnectRequest struct {
	Shop  string `json:"shop" binding:"required,hostname"`
	Token string `json:"token" binding:"required"`
}

// HandleConnect serves POST /v1/shop/connect.
func HandleConnect(d *Dashboard) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ConnectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		shop, err := validation.SanitizeShopDomain(req.Shop)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shop domain"})
			return
		}

		d.State.SetToken(shop, req.Token)
		slog.Info("Shop connected", "shop", shop, "token_present", req.Token != "")
		c.JSON(http.StatusOK, gin.H{"status": "connected"})
	}
}

// HealthCheck serves GET /health.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
