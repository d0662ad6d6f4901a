// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dashboard assembles and runs the embedded commerce dashboard
// service: per-shop caches, source connectors, the insight generation
// pipeline, and the HTTP surface that ties them together.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/AleutianCommerce/services/connectors"
	"github.com/AleutianAI/AleutianCommerce/services/dashboard/cache"
	"github.com/AleutianAI/AleutianCommerce/services/dashboard/datatypes"
	"github.com/AleutianAI/AleutianCommerce/services/dashboard/handlers"
	"github.com/AleutianAI/AleutianCommerce/services/dashboard/middleware"
	"github.com/AleutianAI/AleutianCommerce/services/dashboard/observability"
	"github.com/AleutianAI/AleutianCommerce/services/dashboard/routes"
	"github.com/AleutianAI/AleutianCommerce/services/insights"
	"github.com/AleutianAI/AleutianCommerce/services/llm"
)

const serviceName = "commerce-dashboard"

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the dashboard service.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and should
// only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing. Callers must
	// not modify routes after construction.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds dashboard service configuration. Zero values use defaults.
type Config struct {
	// Port is the HTTP server port. Default: 12240
	Port int

	// BusinessContextPath is the location of the operator-edited business
	// context YAML document. Default: "/app/config/business_context.yaml".
	// Loading is fail-fast: a missing or invalid document aborts startup.
	BusinessContextPath string

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "aleutian-otel-collector:4317"
	OTelEndpoint string

	// EnableMetrics enables the Prometheus metrics endpoint.
	EnableMetrics bool

	// GinMode sets the Gin framework mode ("debug", "release", "test").
	// Default: uses the GIN_MODE env var or "debug".
	GinMode string
}

func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12240
	}
	if cfg.BusinessContextPath == "" {
		cfg.BusinessContextPath = "/app/config/business_context.yaml"
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "aleutian-otel-collector:4317"
	}
	return cfg
}

// =============================================================================
// Implementation
// =============================================================================

// service coordinates HTTP routing, per-shop state, the source connectors,
// and the insight generator. All fields are read-only after New returns.
type service struct {
	config        Config
	router        *gin.Engine
	state         *cache.ShopState
	tracerCleanup func(context.Context)
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a dashboard Service from cfg.
//
// # Description
//
// Initializes tracing and metrics, loads and validates the business context
// document (fail-fast), selects an LLM backend from the environment, and
// wires the caches, connectors, and HTTP routes. A missing model credential
// is not an error: the service runs with insight generation disabled and the
// dashboard reports the summary-only "disabled" state.
//
// # Outputs
//
//   - Service: Ready-to-run dashboard service.
//   - error: Non-nil when tracing setup or business context loading fails.
func New(cfg Config) (Service, error) {
	s := &service{config: applyConfigDefaults(cfg)}

	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	if s.config.EnableMetrics {
		observability.InitMetrics()
	}

	businessContext, err := datatypes.LoadBusinessContext(s.config.BusinessContextPath)
	if err != nil {
		s.shutdownTracer()
		return nil, fmt.Errorf("failed to load business context: %w", err)
	}
	slog.Info("Business context loaded", "store", businessContext.Profile.StoreName)

	llmClient, err := llm.NewFromEnv()
	if err != nil {
		s.shutdownTracer()
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	if llmClient == nil {
		slog.Warn("No model credential configured, running without insight generation")
	}

	s.state = cache.NewShopState(cache.DefaultTTL, cache.SystemClock())

	d := &handlers.Dashboard{
		State:     s.state,
		Shopify:   connectors.NewShopifyConnector(),
		Analytics: connectors.NewGA4Connector(),
		Ads:       connectors.NewMetaConnector(),
		Generator: insights.NewGenerator(llmClient, businessContext),
	}

	router := gin.Default()
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.RequestID())
	routes.SetupRoutes(router, d)
	s.router = router

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until it stops.
func (s *service) Run() error {
	defer s.shutdownTracer()
	slog.Info("Starting dashboard server", "port", s.config.Port)
	return s.router.Run(fmt.Sprintf(":%d", s.config.Port))
}

// Router returns the configured Gin engine.
func (s *service) Router() *gin.Engine {
	return s.router
}

func (s *service) shutdownTracer() {
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Tracing
// =============================================================================

// initTracer wires the OTLP gRPC exporter and installs the global tracer
// provider. The returned cleanup flushes spans on shutdown.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, err
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}
