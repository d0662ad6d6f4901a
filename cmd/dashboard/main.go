// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command dashboard starts the AleutianCommerce dashboard HTTP server.
//
// This is the main entry point for the containerized dashboard service.
// It reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - DASHBOARD_PORT: HTTP server port (default: 12240)
//   - BUSINESS_CONTEXT_PATH: Business context YAML (default: /app/config/business_context.yaml)
//   - LLM_PROVIDER: Model backend - anthropic, openai (default: anthropic)
//   - ANTHROPIC_API_KEY / OPENAI_API_KEY: Model credential (optional; insight
//     generation is disabled without one)
//   - GA4_PROPERTY_ID, GA4_ACCESS_TOKEN: Web analytics source (optional)
//   - META_AD_ACCOUNT_ID, META_ACCESS_TOKEN: Ad platform source (optional)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: aleutian-otel-collector:4317)
//   - LOG_DIR: Directory for JSON log files (optional)
//
// # Usage
//
//	# Build
//	go build -o dashboard ./cmd/dashboard
//
//	# Run
//	./dashboard
//
//	# Or via container
//	podman-compose up dashboard
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/AleutianAI/AleutianCommerce/pkg/logging"
	"github.com/AleutianAI/AleutianCommerce/services/dashboard"
)

func main() {
	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		LogDir:  os.Getenv("LOG_DIR"),
		Service: "dashboard",
		JSON:    true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	cfg := dashboard.Config{
		Port:                getEnvInt("DASHBOARD_PORT", 12240),
		BusinessContextPath: os.Getenv("BUSINESS_CONTEXT_PATH"),
		OTelEndpoint:        getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "aleutian-otel-collector:4317"),
		EnableMetrics:       true,
	}

	slog.Info("Starting dashboard",
		"port", cfg.Port,
		"otel_endpoint", cfg.OTelEndpoint)

	svc, err := dashboard.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dashboard service: %v", err)
	}

	if err := svc.Run(); err != nil {
		log.Fatalf("Dashboard server error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the environment variable parsed as int, or a default.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Invalid integer environment variable, using default",
			"key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}
