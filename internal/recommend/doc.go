// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

// Package recommend implements the personality-aware recommendation core:
// feature normalization, personality matching, reward derivation,
// epsilon-greedy ranking, and the engine that orchestrates them against
// the preference store, refresh scheduler, and recommendation cache.
//
// The package depends only on narrow interfaces (PreferenceStore,
// CandidateSource, ProfileSource, SetCache, RefreshGate) so the catalog,
// profile, storage, scheduler, and cache packages can be wired in without
// circular imports.
//
// Personality matching and ranking are pure computations and safe to run
// concurrently across users and genres. All mutable state lives behind the
// PreferenceStore and RefreshGate implementations.
package recommend
