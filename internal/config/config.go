// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

// Package config provides layered configuration for the recommendation
// service: built-in defaults, an optional YAML file, and ATTUNE_-prefixed
// environment variables, in rising precedence.
package config

import (
	"fmt"
	"time"
)

// Config is the root service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Auth      AuthConfig      `koanf:"auth"`
	Storage   StorageConfig   `koanf:"storage"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Profile   ProfileConfig   `koanf:"profile"`
	Recommend RecommendConfig `koanf:"recommend"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Cache     CacheConfig     `koanf:"cache"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	Timeout           time.Duration `koanf:"timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// AuthConfig holds authentication settings. The identity provider is an
// external collaborator; this service only verifies bearer tokens.
type AuthConfig struct {
	// Mode is "jwt" (verify bearer tokens) or "none" (trust X-User-ID,
	// development only).
	Mode string `koanf:"mode"`

	// JWTSecret is the HMAC secret for bearer token verification.
	JWTSecret string `koanf:"jwt_secret"`
}

// StorageConfig holds the durable store settings shared by the preference
// store and the refresh quota store.
type StorageConfig struct {
	// Backend is "badger" (persistent) or "memory" (ephemeral).
	Backend string `koanf:"backend"`

	// Path is the BadgerDB directory for the badger backend.
	Path string `koanf:"path"`

	// GCInterval is how often the BadgerDB value log is garbage collected.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// CatalogConfig holds the catalog provider client settings.
type CatalogConfig struct {
	URL               string        `koanf:"url"`
	APIKey            string        `koanf:"api_key"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
}

// ProfileConfig holds the personality profile provider client settings.
type ProfileConfig struct {
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// RecommendConfig holds the engine tuning parameters.
type RecommendConfig struct {
	PersonalityWeight float64       `koanf:"personality_weight"`
	PreferenceWeight  float64       `koanf:"preference_weight"`
	EpsilonStart      float64       `koanf:"epsilon_start"`
	EpsilonMin        float64       `koanf:"epsilon_min"`
	DefaultLimit      int           `koanf:"default_limit"`
	MaxLimit          int           `koanf:"max_limit"`
	CandidatePoolSize int           `koanf:"candidate_pool_size"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
	Seed              int64         `koanf:"seed"`
}

// SchedulerConfig holds the refresh scheduler settings.
type SchedulerConfig struct {
	MaxManualPerDay int    `koanf:"max_manual_per_day"`
	Timezone        string `koanf:"timezone"`
}

// CacheConfig holds the recommendation cache settings.
type CacheConfig struct {
	// SweepInterval is how often the janitor evicts expired sets.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8406,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Auth: AuthConfig{
			Mode:      "jwt",
			JWTSecret: "",
		},
		Storage: StorageConfig{
			Backend:    "badger",
			Path:       "/data/attune",
			GCInterval: 10 * time.Minute,
		},
		Catalog: CatalogConfig{
			URL:               "",
			APIKey:            "",
			Timeout:           15 * time.Second,
			RequestsPerSecond: 20,
			Burst:             10,
		},
		Profile: ProfileConfig{
			URL:     "",
			APIKey:  "",
			Timeout: 10 * time.Second,
		},
		Recommend: RecommendConfig{
			PersonalityWeight: 0.5,
			PreferenceWeight:  0.5,
			EpsilonStart:      0.3,
			EpsilonMin:        0.05,
			DefaultLimit:      10,
			MaxLimit:          50,
			CandidatePoolSize: 100,
			CacheTTL:          8 * time.Hour,
			Seed:              42,
		},
		Scheduler: SchedulerConfig{
			MaxManualPerDay: 3,
			Timezone:        "",
		},
		Cache: CacheConfig{
			SweepInterval: 15 * time.Minute,
		},
	}
}

// Validate checks the configuration for contradictions. It runs after all
// layers are merged, so it sees the effective values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d outside [1, 65535]", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got %s", c.Server.Timeout)
	}

	switch c.Auth.Mode {
	case "jwt":
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth mode jwt requires a jwt_secret")
		}
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("jwt_secret must be at least 32 bytes, got %d", len(c.Auth.JWTSecret))
		}
	case "none":
	default:
		return fmt.Errorf("unknown auth mode %q (want jwt or none)", c.Auth.Mode)
	}

	switch c.Storage.Backend {
	case "badger":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage backend badger requires a path")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage backend %q (want badger or memory)", c.Storage.Backend)
	}

	if c.Catalog.URL == "" {
		return fmt.Errorf("catalog url is required")
	}

	if c.Scheduler.MaxManualPerDay <= 0 {
		return fmt.Errorf("scheduler max_manual_per_day must be positive, got %d", c.Scheduler.MaxManualPerDay)
	}
	if c.Cache.SweepInterval <= 0 {
		return fmt.Errorf("cache sweep_interval must be positive, got %s", c.Cache.SweepInterval)
	}

	if err := c.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("recommend section: %w", err)
	}
	return nil
}
