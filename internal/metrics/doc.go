// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

// Package metrics defines the Prometheus collectors for the recommendation
// service: HTTP throughput and latency, generation and feedback counters,
// refresh denials, cache efficiency, and catalog client health. Collectors
// register on the default registry via promauto and are exposed by the
// /metrics endpoint.
package metrics
