// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package config

import (
	"github.com/soundhaus/attune/internal/recommend"
	"github.com/soundhaus/attune/internal/scheduler"
)

// EngineConfig maps the recommend section onto the engine's own config
// type, keeping the engine package free of config imports.
func (c *Config) EngineConfig() recommend.Config {
	return recommend.Config{
		PersonalityWeight: c.Recommend.PersonalityWeight,
		PreferenceWeight:  c.Recommend.PreferenceWeight,
		EpsilonStart:      c.Recommend.EpsilonStart,
		EpsilonMin:        c.Recommend.EpsilonMin,
		DefaultLimit:      c.Recommend.DefaultLimit,
		MaxLimit:          c.Recommend.MaxLimit,
		CandidatePoolSize: c.Recommend.CandidatePoolSize,
		CacheTTL:          c.Recommend.CacheTTL,
		Seed:              c.Recommend.Seed,
	}
}

// SchedulerSettings maps the scheduler section onto the scheduler's config
// type.
func (c *Config) SchedulerSettings() scheduler.Config {
	return scheduler.Config{
		MaxManualPerDay: c.Scheduler.MaxManualPerDay,
		Timezone:        c.Scheduler.Timezone,
	}
}
