// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

// Package profile provides the HTTP client for the external personality
// profile provider. The engine treats profiles as read-only per-request
// snapshots and degrades to a neutral match when the provider is down, so
// this client reports failures instead of masking them.
package profile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/soundhaus/attune/internal/metrics"
	"github.com/soundhaus/attune/internal/recommend"
)

// Ensure Client implements the engine's profile source.
var _ recommend.ProfileSource = (*Client)(nil)

// Client provides access to the profile provider REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// profilePayload is the provider's wire format for the Big Five scores.
type profilePayload struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}

// NewClient creates a profile API client. A zero timeout selects 10s.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Profile fetches the user's five-trait profile. Any failure is surfaced
// as an error; the engine translates it into a neutral personality match.
func (c *Client) Profile(ctx context.Context, userID string) (*recommend.PersonalityProfile, error) {
	endpoint := fmt.Sprintf("%s/v1/profiles/%s", c.baseURL, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ProfileLookupFailures.Inc()
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.ProfileLookupFailures.Inc()
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if readErr != nil {
			return nil, fmt.Errorf("profile provider returned status %d (failed to read body)", resp.StatusCode)
		}
		return nil, fmt.Errorf("profile provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload profilePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.ProfileLookupFailures.Inc()
		return nil, fmt.Errorf("decode profile response: %w", err)
	}

	return &recommend.PersonalityProfile{
		Openness:          payload.Openness,
		Conscientiousness: payload.Conscientiousness,
		Extraversion:      payload.Extraversion,
		Agreeableness:     payload.Agreeableness,
		Neuroticism:       payload.Neuroticism,
	}, nil
}
