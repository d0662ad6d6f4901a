// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and instrumentation for the
// commerce dashboard service.
//
// # Description
//
// This package implements Prometheus metrics for monitoring the insight
// pipeline. Metrics include:
//   - Dashboard request counters (by outcome)
//   - Cache hits/misses (by cache)
//   - Upstream connector requests (by source and status)
//   - Insight generation counters and duration histogram
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics.
const metricsNamespace = "aleutian"

// Subsystem for dashboard metrics.
const dashboardSubsystem = "commerce"

// DashboardMetrics holds all Prometheus metrics for the insight pipeline.
//
// Initialize once at startup via InitMetrics().
type DashboardMetrics struct {
	// RequestsTotal counts dashboard requests by outcome.
	// Labels: outcome (cache_hit, generated, disabled, error, reauth)
	RequestsTotal *prometheus.CounterVec

	// CacheLookupsTotal counts cache lookups by cache and result.
	// Labels: cache (insights, orders), result (hit, miss)
	CacheLookupsTotal *prometheus.CounterVec

	// ConnectorRequestsTotal counts upstream fetches by source and status.
	// Labels: source (shopify, ga4, meta), status (ok, error, absent)
	ConnectorRequestsTotal *prometheus.CounterVec

	// GenerationDurationSeconds measures a full generation cycle, from the
	// first upstream fetch through model response parse.
	GenerationDurationSeconds prometheus.Histogram

	// GenerationsTotal counts model generation attempts by status.
	// Labels: status (success, empty, error)
	GenerationsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of DashboardMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *DashboardMetrics

// InitMetrics initializes and registers the default metrics instance.
// Call once at application startup.
func InitMetrics() *DashboardMetrics {
	DefaultMetrics = NewDashboardMetrics()
	return DefaultMetrics
}

// NewDashboardMetrics creates and registers all dashboard metrics with the
// default Prometheus registry.
func NewDashboardMetrics() *DashboardMetrics {
	return &DashboardMetrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: dashboardSubsystem,
			Name:      "dashboard_requests_total",
			Help:      "Dashboard requests by outcome.",
		}, []string{"outcome"}),

		CacheLookupsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: dashboardSubsystem,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache and result.",
		}, []string{"cache", "result"}),

		ConnectorRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: dashboardSubsystem,
			Name:      "connector_requests_total",
			Help:      "Upstream connector fetches by source and status.",
		}, []string{"source", "status"}),

		GenerationDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: dashboardSubsystem,
			Name:      "generation_duration_seconds",
			Help:      "Full insight generation cycle duration.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		}),

		GenerationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: dashboardSubsystem,
			Name:      "generations_total",
			Help:      "Model generation attempts by status.",
		}, []string{"status"}),
	}
}

// RecordRequest increments the request counter if metrics are initialized.
func RecordRequest(outcome string) {
	if DefaultMetrics != nil {
		DefaultMetrics.RequestsTotal.WithLabelValues(outcome).Inc()
	}
}

// RecordCacheLookup increments the cache lookup counter if metrics are
// initialized.
func RecordCacheLookup(cache string, hit bool) {
	if DefaultMetrics == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.CacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

// RecordConnector increments the connector counter if metrics are initialized.
func RecordConnector(source, status string) {
	if DefaultMetrics != nil {
		DefaultMetrics.ConnectorRequestsTotal.WithLabelValues(source, status).Inc()
	}
}

// RecordGeneration observes one generation attempt if metrics are initialized.
func RecordGeneration(status string, seconds float64) {
	if DefaultMetrics != nil {
		DefaultMetrics.GenerationsTotal.WithLabelValues(status).Inc()
		DefaultMetrics.GenerationDurationSeconds.Observe(seconds)
	}
}
