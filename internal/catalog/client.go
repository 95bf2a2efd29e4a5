// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

// Package catalog provides the HTTP client for the external catalog
// provider, the service that owns raw track data and audio features. The
// client adapts provider payloads into normalized feature vectors and wraps
// the transport in a rate limiter and a circuit breaker.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/soundhaus/attune/internal/recommend"
)

// Client provides access to the catalog provider REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// trackPayload is the provider's wire format for one track. Audio features
// arrive raw: tempo in BPM and popularity on a 0-100 scale.
type trackPayload struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Artist           string  `json:"artist"`
	Genre            string  `json:"genre"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Danceability     float64 `json:"danceability"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	TempoBPM         float64 `json:"tempo_bpm"`
	Popularity       float64 `json:"popularity"`
}

// tracksResponse is the provider's candidate list envelope.
type tracksResponse struct {
	Tracks []trackPayload `json:"tracks"`
}

// NewClient creates a catalog API client.
//
// Parameters:
//   - baseURL: provider URL (e.g. https://catalog.internal:8443)
//   - apiKey: bearer token issued by the provider
//   - timeout: per-request timeout; zero selects 15s
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Candidates fetches up to limit candidate tracks for a genre and adapts
// their raw attributes into normalized feature vectors.
func (c *Client) Candidates(ctx context.Context, genre string, limit int) ([]recommend.CatalogItem, error) {
	endpoint := fmt.Sprintf("%s/v1/tracks?genre=%s&limit=%s",
		c.baseURL, url.QueryEscape(genre), strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if readErr != nil {
			return nil, fmt.Errorf("catalog returned status %d (failed to read body)", resp.StatusCode)
		}
		return nil, fmt.Errorf("catalog returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload tracksResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	items := make([]recommend.CatalogItem, 0, len(payload.Tracks))
	for _, t := range payload.Tracks {
		items = append(items, recommend.CatalogItem{
			ID:     t.ID,
			Title:  t.Title,
			Artist: t.Artist,
			Genre:  t.Genre,
			Features: recommend.AdaptFeatures(recommend.TrackAttributes{
				Energy:           t.Energy,
				Valence:          t.Valence,
				Danceability:     t.Danceability,
				Acousticness:     t.Acousticness,
				Instrumentalness: t.Instrumentalness,
				TempoBPM:         t.TempoBPM,
				Popularity:       t.Popularity,
			}),
		})
	}
	return items, nil
}
