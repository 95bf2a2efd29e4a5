// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

// Package main is the entry point for the Attune recommendation server.
//
// Attune learns per-user genre preferences from listening feedback and
// blends them with Big Five personality profiles to rank catalog tracks.
// The server wires together:
//
//  1. Configuration: layered Koanf sources (defaults, YAML file, ATTUNE_ env)
//  2. Storage: BadgerDB (or in-memory) preference and quota stores
//  3. Catalog client: circuit-broken, rate-limited track provider
//  4. Profile client: personality trait provider, degrades to neutral
//  5. Engine: epsilon-greedy ranking with preference learning
//  6. HTTP API: chi router under a suture supervisor tree
//
// Shutdown is graceful on SIGINT and SIGTERM: the supervisor tree drains
// the HTTP server, then the stores are closed.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/soundhaus/attune/internal/api"
	"github.com/soundhaus/attune/internal/cache"
	"github.com/soundhaus/attune/internal/catalog"
	"github.com/soundhaus/attune/internal/config"
	"github.com/soundhaus/attune/internal/logging"
	"github.com/soundhaus/attune/internal/middleware"
	"github.com/soundhaus/attune/internal/preference"
	"github.com/soundhaus/attune/internal/profile"
	"github.com/soundhaus/attune/internal/recommend"
	"github.com/soundhaus/attune/internal/scheduler"
	"github.com/soundhaus/attune/internal/supervisor"
	"github.com/soundhaus/attune/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("storage", cfg.Storage.Backend).
		Str("auth_mode", cfg.Auth.Mode).
		Str("catalog_url", cfg.Catalog.URL).
		Msg("Starting Attune")

	// Storage: one shared BadgerDB for preferences, marks, and quotas.
	factory, err := preference.NewFactory(preference.StoreType(cfg.Storage.Backend), cfg.Storage.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open preference store")
	}
	defer func() {
		if err := factory.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing preference store")
		}
	}()
	store := factory.CreateStore()

	var quotaStore scheduler.QuotaStore
	if db := factory.DB(); db != nil {
		quotaStore = scheduler.NewBadgerQuotaStore(db)
	} else {
		quotaStore = scheduler.NewMemoryQuotaStore()
	}

	sched, err := scheduler.New(cfg.SchedulerSettings(), quotaStore, logging.WithComponent("scheduler"))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize refresh scheduler")
	}

	// External providers.
	catalogClient := catalog.NewResilientClient(
		catalog.NewClient(cfg.Catalog.URL, cfg.Catalog.APIKey, cfg.Catalog.Timeout),
		catalog.ResilientConfig{
			RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
			Burst:             cfg.Catalog.Burst,
		},
	)

	var profiles recommend.ProfileSource
	if cfg.Profile.URL != "" {
		profiles = profile.NewClient(cfg.Profile.URL, cfg.Profile.APIKey, cfg.Profile.Timeout)
	} else {
		logging.Warn().Msg("Profile provider not configured, all personality matches will be neutral")
	}

	setCache := cache.New()

	engine, err := recommend.NewEngine(
		cfg.EngineConfig(),
		logging.WithComponent("engine"),
		store,
		catalogClient,
		profiles,
		setCache,
		sched,
	)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}

	// HTTP surface.
	auth, err := middleware.NewAuthenticator(cfg.Auth.Mode, cfg.Auth.JWTSecret)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authenticator")
	}
	handler := api.NewHandler(engine, sched)
	handler.SetReadyCheck(func(ctx context.Context) error {
		_, err := store.TotalInteractions(ctx, "health-probe")
		return err
	})
	router := api.NewRouter(handler, auth, api.RouterConfig{
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimitReqs:     cfg.Server.RateLimitReqs,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
		RateLimitDisabled: cfg.Server.RateLimitDisabled,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	// Supervisor tree: storage maintenance and the HTTP server.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if db := factory.DB(); db != nil {
		tree.AddStorageService(services.NewBadgerGCService(db, cfg.Storage.GCInterval, logging.WithComponent("badger-gc")))
	}
	tree.AddStorageService(services.NewJanitorService(setCache, cfg.Cache.SweepInterval, logging.WithComponent("cache-janitor")))
	tree.AddAPIService(services.NewHTTPService(server, supervisor.DefaultTreeConfig().ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Listening")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
		factoryClose(factory)
		os.Exit(1)
	}
	logging.Info().Msg("Shutdown complete")
}

// factoryClose closes the store before a non-deferred exit path.
func factoryClose(factory *preference.Factory) {
	if err := factory.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing preference store")
	}
}
