// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

// Package preference provides durable storage for per-(user, genre) learning
// aggregates and per-(user, item) feedback toggle marks.
//
// Two implementations of recommend.PreferenceStore are provided: a
// BadgerDB-backed store for production and an in-memory store for tests and
// ephemeral deployments. Both serialize concurrent writers per key so that
// feedback events are never lost to a read-modify-write race.
package preference
