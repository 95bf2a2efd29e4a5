// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package recommend

import (
	"math"
	"math/rand"
	"sort"
	"sync"
)

// Epsilon computes the exploration rate for a user: it starts at start and
// decays with the square root of the user's total interaction count, never
// dropping below min.
func Epsilon(totalInteractions int, start, min float64) float64 {
	if totalInteractions < 0 {
		totalInteractions = 0
	}
	eps := start / math.Sqrt(1+float64(totalInteractions))
	if eps < min {
		return min
	}
	return eps
}

// Ranker orders candidates within a genre by an epsilon-greedy blend of
// personality match, learned preference, and uniform exploration noise.
// It is safe for concurrent use; only the noise source is guarded.
type Ranker struct {
	// personalityWeight and preferenceWeight blend the two exploit terms.
	personalityWeight float64
	preferenceWeight  float64

	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewRanker creates a ranker with the given blend weights and RNG seed.
// A fixed seed makes exploration reproducible in tests.
func NewRanker(personalityWeight, preferenceWeight float64, seed int64) *Ranker {
	return &Ranker{
		personalityWeight: personalityWeight,
		preferenceWeight:  preferenceWeight,
		rng:               rand.New(rand.NewSource(seed)), //nolint:gosec // exploration noise, not crypto
	}
}

// noise returns one uniform sample in [0,1).
func (r *Ranker) noise() float64 {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.rng.Float64()
}

// RankGenre scores and orders the candidates of a single genre, keeping the
// top limit tracks.
//
// combined = (1-eps)*(w1*personalityMatch + w2*preferenceScore) + eps*noise
//
// A nil profile degrades to a neutral personality match of 0.5 for every
// item. Ties break by preference score, then popularity, then item ID, so
// orderings are deterministic when eps is zero.
func (r *Ranker) RankGenre(profile *PersonalityProfile, items []CatalogItem, pref GenrePreference, eps float64, limit int) []ScoredTrack {
	if len(items) == 0 {
		return nil
	}

	scored := make([]ScoredTrack, 0, len(items))
	for _, item := range items {
		match := 0.5
		if profile != nil {
			match = Match(*profile, item)
		}

		exploit := r.personalityWeight*match + r.preferenceWeight*pref.PreferenceScore
		combined := (1-eps)*exploit + eps*r.noise()

		scored = append(scored, ScoredTrack{
			Item:             item,
			PersonalityMatch: match,
			PreferenceScore:  pref.PreferenceScore,
			CombinedScore:    combined,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.CombinedScore != b.CombinedScore {
			return a.CombinedScore > b.CombinedScore
		}
		if a.PreferenceScore != b.PreferenceScore {
			return a.PreferenceScore > b.PreferenceScore
		}
		if a.Item.Features.Popularity != b.Item.Features.Popularity {
			return a.Item.Features.Popularity > b.Item.Features.Popularity
		}
		return a.Item.ID < b.Item.ID
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
