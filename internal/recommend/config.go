// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package recommend

import (
	"fmt"
	"time"
)

// Config holds engine tuning parameters.
type Config struct {
	// PersonalityWeight scales the personality-match term of the combined
	// score. Default: 0.5
	PersonalityWeight float64

	// PreferenceWeight scales the learned-preference term. Default: 0.5
	PreferenceWeight float64

	// EpsilonStart is the exploration rate for a user with no history.
	// Default: 0.3
	EpsilonStart float64

	// EpsilonMin is the exploration floor. Default: 0.05
	EpsilonMin float64

	// DefaultLimit is the per-genre track count when the caller does not
	// specify one. Default: 10
	DefaultLimit int

	// MaxLimit caps the per-genre track count. Default: 50
	MaxLimit int

	// CandidatePoolSize is how many candidates to request per genre from
	// the catalog provider. Default: 100
	CandidatePoolSize int

	// CacheTTL is the recommendation set time-to-live. Default: 8h
	CacheTTL time.Duration

	// Seed seeds the exploration RNG; zero selects a fixed default so
	// runs are reproducible unless explicitly randomized.
	Seed int64
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		PersonalityWeight: 0.5,
		PreferenceWeight:  0.5,
		EpsilonStart:      0.3,
		EpsilonMin:        0.05,
		DefaultLimit:      10,
		MaxLimit:          50,
		CandidatePoolSize: 100,
		CacheTTL:          8 * time.Hour,
		Seed:              42,
	}
}

// Validate checks the configuration for contradictions.
func (c Config) Validate() error {
	if c.PersonalityWeight < 0 || c.PreferenceWeight < 0 {
		return fmt.Errorf("blend weights must be non-negative, got %v/%v", c.PersonalityWeight, c.PreferenceWeight)
	}
	if c.PersonalityWeight+c.PreferenceWeight == 0 {
		return fmt.Errorf("at least one blend weight must be positive")
	}
	if c.EpsilonStart < 0 || c.EpsilonStart > 1 {
		return fmt.Errorf("epsilon start %v outside [0,1]", c.EpsilonStart)
	}
	if c.EpsilonMin < 0 || c.EpsilonMin > c.EpsilonStart {
		return fmt.Errorf("epsilon min %v outside [0, start]", c.EpsilonMin)
	}
	if c.DefaultLimit <= 0 || c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("limits misconfigured: default %d, max %d", c.DefaultLimit, c.MaxLimit)
	}
	if c.CandidatePoolSize <= 0 {
		return fmt.Errorf("candidate pool size must be positive, got %d", c.CandidatePoolSize)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %s", c.CacheTTL)
	}
	return nil
}
