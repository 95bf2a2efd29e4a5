// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/soundhaus/attune/internal/logging"
	"github.com/soundhaus/attune/internal/metrics"
	"github.com/soundhaus/attune/internal/recommend"
)

// Ensure ResilientClient implements the engine's candidate source.
var _ recommend.CandidateSource = (*ResilientClient)(nil)

// ResilientClient wraps the catalog client with a token-bucket rate limiter
// and a circuit breaker, so a degraded provider cannot stall or cascade
// into the recommendation path. Breaker rejections surface as errors the
// engine turns into omitted genres.
type ResilientClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[[]recommend.CatalogItem]
	limit  *rate.Limiter
}

// ResilientConfig holds transport resilience settings.
type ResilientConfig struct {
	// RequestsPerSecond caps outbound catalog calls. Zero disables limiting.
	RequestsPerSecond float64

	// Burst is the limiter burst size. Zero selects 1 when limiting is on.
	Burst int
}

// NewResilientClient wraps a catalog client. Circuit breaker settings:
// at most 3 half-open probes, a 1 minute closed-state measurement window,
// a 2 minute open-state timeout, tripping at a 60% failure rate over at
// least 10 requests.
func NewResilientClient(client *Client, cfg ResilientConfig) *ResilientClient {
	metrics.CatalogBreakerState.Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]recommend.CatalogItem](gobreaker.Settings{
		Name:        "catalog-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("catalog circuit breaker state transition")
			metrics.CatalogBreakerState.Set(stateToFloat(to))
		},
	})

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &ResilientClient{
		client: client,
		cb:     cb,
		limit:  limiter,
	}
}

// Candidates fetches candidates through the limiter and breaker. The
// limiter wait honors the request context, so a cancelled caller never
// queues a provider call.
func (r *ResilientClient) Candidates(ctx context.Context, genre string, limit int) ([]recommend.CatalogItem, error) {
	if r.limit != nil {
		if err := r.limit.Wait(ctx); err != nil {
			return nil, fmt.Errorf("catalog rate limit wait: %w", err)
		}
	}

	start := time.Now()
	items, err := r.cb.Execute(func() ([]recommend.CatalogItem, error) {
		return r.client.Candidates(ctx, genre, limit)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CatalogRequestDuration.WithLabelValues("rejected").Observe(time.Since(start).Seconds())
		logging.Warn().Err(err).Str("genre", genre).Msg("catalog request rejected by circuit breaker")
		return nil, err
	case err != nil:
		metrics.CatalogRequestDuration.WithLabelValues("failure").Observe(time.Since(start).Seconds())
		return nil, err
	}

	metrics.CatalogRequestDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())
	return items, nil
}

// State returns the current circuit breaker state.
func (r *ResilientClient) State() gobreaker.State {
	return r.cb.State()
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "open"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
