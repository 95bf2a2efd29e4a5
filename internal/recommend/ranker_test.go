// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package recommend

import (
	"math"
	"testing"
)

func TestEpsilon_Decay(t *testing.T) {
	tests := []struct {
		name  string
		total int
		want  float64
	}{
		{"no history", 0, 0.3},
		{"three interactions", 3, 0.15},
		{"many interactions hit floor", 100, 0.05},
		{"negative treated as zero", -5, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Epsilon(tt.total, 0.3, 0.05)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Epsilon(%d) = %f, want %f", tt.total, got, tt.want)
			}
		})
	}
}

func TestEpsilon_Monotonic(t *testing.T) {
	prev := Epsilon(0, 0.3, 0.05)
	for total := 1; total < 200; total++ {
		eps := Epsilon(total, 0.3, 0.05)
		if eps > prev {
			t.Fatalf("epsilon rose from %f to %f at total=%d", prev, eps, total)
		}
		if eps < 0.05 {
			t.Fatalf("epsilon %f below floor at total=%d", eps, total)
		}
		prev = eps
	}
}

func TestRankGenre_DeterministicWhenGreedy(t *testing.T) {
	r := NewRanker(0.5, 0.5, 1)
	profile := PersonalityProfile{
		Openness:          0.8,
		Conscientiousness: 0.5,
		Extraversion:      0.2,
		Agreeableness:     0.5,
		Neuroticism:       0.3,
	}
	items := []CatalogItem{
		{ID: "a", Genre: "jazz", Features: FeatureVector{Energy: 0.9, Danceability: 0.9, Valence: 0.8}},
		{ID: "b", Genre: "jazz", Features: FeatureVector{Acousticness: 0.9, Instrumentalness: 0.7, Valence: 0.4}},
	}
	pref := DefaultGenrePreference("u1", "jazz")

	ranked := r.RankGenre(&profile, items, pref, 0, 10)
	if len(ranked) != 2 {
		t.Fatalf("got %d tracks, want 2", len(ranked))
	}
	// An introverted, open listener favors the acoustic instrumental
	// track over the high-energy danceable one.
	if ranked[0].Item.ID != "b" {
		t.Errorf("top track = %s, want b", ranked[0].Item.ID)
	}
	if ranked[0].CombinedScore < ranked[1].CombinedScore {
		t.Errorf("scores out of order: %f < %f", ranked[0].CombinedScore, ranked[1].CombinedScore)
	}
}

func TestRankGenre_NilProfileNeutralMatch(t *testing.T) {
	r := NewRanker(0.5, 0.5, 1)
	items := []CatalogItem{
		{ID: "a", Genre: "jazz", Features: FeatureVector{Energy: 1.0}},
	}
	ranked := r.RankGenre(nil, items, DefaultGenrePreference("u1", "jazz"), 0, 10)
	if len(ranked) != 1 {
		t.Fatalf("got %d tracks, want 1", len(ranked))
	}
	if ranked[0].PersonalityMatch != 0.5 {
		t.Errorf("PersonalityMatch = %f, want 0.5", ranked[0].PersonalityMatch)
	}
	// Neutral match and default preference combine to exactly 0.5.
	if math.Abs(ranked[0].CombinedScore-0.5) > 1e-9 {
		t.Errorf("CombinedScore = %f, want 0.5", ranked[0].CombinedScore)
	}
}

func TestRankGenre_TieBreaks(t *testing.T) {
	r := NewRanker(0.5, 0.5, 1)
	profile := NeutralProfile()
	// Identical feature vectors force identical combined scores; ordering
	// must fall through to popularity, then ID.
	items := []CatalogItem{
		{ID: "c", Genre: "pop", Features: FeatureVector{Popularity: 0.2}},
		{ID: "b", Genre: "pop", Features: FeatureVector{Popularity: 0.9}},
		{ID: "a", Genre: "pop", Features: FeatureVector{Popularity: 0.2}},
	}
	ranked := r.RankGenre(&profile, items, DefaultGenrePreference("u1", "pop"), 0, 10)

	// Popularity carries no trait weight, so all three share the same
	// combined score and ordering falls through to popularity, then ID.
	for i, want := range []string{"b", "a", "c"} {
		if ranked[i].Item.ID != want {
			t.Errorf("position %d = %s, want %s", i, ranked[i].Item.ID, want)
		}
	}
}

func TestRankGenre_Limit(t *testing.T) {
	r := NewRanker(0.5, 0.5, 1)
	items := make([]CatalogItem, 20)
	for i := range items {
		items[i] = CatalogItem{ID: string(rune('a' + i)), Genre: "rock"}
	}
	ranked := r.RankGenre(nil, items, DefaultGenrePreference("u1", "rock"), 0, 5)
	if len(ranked) != 5 {
		t.Errorf("got %d tracks, want 5", len(ranked))
	}
}

func TestRankGenre_EmptyCandidates(t *testing.T) {
	r := NewRanker(0.5, 0.5, 1)
	if got := r.RankGenre(nil, nil, DefaultGenrePreference("u1", "rock"), 0.3, 10); got != nil {
		t.Errorf("expected nil for empty candidates, got %v", got)
	}
}

func TestRankGenre_ExplorationStaysBounded(t *testing.T) {
	r := NewRanker(0.5, 0.5, 7)
	items := make([]CatalogItem, 50)
	for i := range items {
		items[i] = CatalogItem{ID: string(rune('a' + i%26)) + string(rune('a' + i/26)), Genre: "rock"}
	}
	ranked := r.RankGenre(nil, items, DefaultGenrePreference("u1", "rock"), 0.3, 50)
	for _, s := range ranked {
		if s.CombinedScore < 0 || s.CombinedScore > 1 {
			t.Fatalf("CombinedScore %f outside [0,1]", s.CombinedScore)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"negative weight", func(c *Config) { c.PersonalityWeight = -0.1 }, true},
		{"both weights zero", func(c *Config) { c.PersonalityWeight = 0; c.PreferenceWeight = 0 }, true},
		{"epsilon start above one", func(c *Config) { c.EpsilonStart = 1.5 }, true},
		{"epsilon min above start", func(c *Config) { c.EpsilonMin = 0.5 }, true},
		{"zero default limit", func(c *Config) { c.DefaultLimit = 0 }, true},
		{"max below default", func(c *Config) { c.MaxLimit = 5 }, true},
		{"zero pool", func(c *Config) { c.CandidatePoolSize = 0 }, true},
		{"zero ttl", func(c *Config) { c.CacheTTL = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
