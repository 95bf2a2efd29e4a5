// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

// Package middleware provides the HTTP middleware stack: request ID
// propagation, Prometheus instrumentation, and bearer token
// authentication. All middleware is chi-compatible
// (func(http.Handler) http.Handler).
package middleware
