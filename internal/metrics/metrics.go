// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "attune_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attune_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Recommendation Metrics
	RecommendationsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attune_recommendations_generated_total",
			Help: "Total number of full recommendation set generations",
		},
		[]string{"refresh"}, // "none", "manual", "auto"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "attune_recommendation_generation_seconds",
			Help:    "Duration of one full ranking pass in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Feedback Metrics
	FeedbackRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attune_feedback_recorded_total",
			Help: "Total number of recorded feedback events",
		},
		[]string{"type"}, // "like", "dislike", "play", ...
	)

	FeedbackRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attune_feedback_rejected_total",
			Help: "Total number of rejected feedback events",
		},
		[]string{"reason"}, // "invalid_type", "unknown_user", "store_unavailable"
	)

	// Refresh Scheduler Metrics
	RefreshDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attune_refresh_denied_total",
			Help: "Total number of denied refresh requests",
		},
		[]string{"kind"}, // "manual", "auto"
	)

	// Recommendation Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "attune_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "attune_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "attune_cache_entries",
			Help: "Current number of cached recommendation sets",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "attune_cache_evictions_total",
			Help: "Total number of evicted recommendation sets",
		},
	)

	// Catalog Client Metrics
	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "attune_catalog_request_duration_seconds",
			Help:    "Duration of catalog provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	CatalogBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "attune_catalog_breaker_state",
			Help: "Catalog circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	ProfileLookupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "attune_profile_lookup_failures_total",
			Help: "Profile provider failures degraded to a neutral match",
		},
	)
)

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	HTTPRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
}
