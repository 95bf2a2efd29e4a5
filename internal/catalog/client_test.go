// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

const tracksBody = `{
	"tracks": [
		{
			"id": "t1",
			"title": "Blue in Green",
			"artist": "Miles Davis",
			"genre": "jazz",
			"energy": 0.2,
			"valence": 0.3,
			"danceability": 0.25,
			"acousticness": 0.9,
			"instrumentalness": 0.85,
			"tempo_bpm": 120,
			"popularity": 80
		}
	]
}`

func TestClient_Candidates(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(tracksBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 5*time.Second)
	items, err := c.Candidates(context.Background(), "jazz", 100)
	if err != nil {
		t.Fatalf("Candidates() error = %v", err)
	}

	if gotPath != "/v1/tracks" {
		t.Errorf("path = %s, want /v1/tracks", gotPath)
	}
	if gotQuery != "genre=jazz&limit=100" {
		t.Errorf("query = %s, want genre=jazz&limit=100", gotQuery)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %q, want bearer token", gotAuth)
	}

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	item := items[0]
	if item.ID != "t1" || item.Genre != "jazz" || item.Artist != "Miles Davis" {
		t.Errorf("item = %+v, want t1/jazz/Miles Davis", item)
	}
	// Raw tempo 120 BPM normalizes to 0.5, popularity 80 to 0.8.
	if item.Features.Tempo != 0.5 {
		t.Errorf("Tempo = %f, want 0.5", item.Features.Tempo)
	}
	if item.Features.Popularity != 0.8 {
		t.Errorf("Popularity = %f, want 0.8", item.Features.Popularity)
	}
	if item.Features.Acousticness != 0.9 {
		t.Errorf("Acousticness = %f, want 0.9", item.Features.Acousticness)
	}
}

func TestClient_CandidatesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream melted", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	if _, err := c.Candidates(context.Background(), "jazz", 10); err == nil {
		t.Error("expected error for 502 response")
	}
}

func TestClient_CandidatesMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tracks": [{`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	if _, err := c.Candidates(context.Background(), "jazz", 10); err == nil {
		t.Error("expected error for malformed body")
	}
}

func TestClient_CandidatesHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(tracksBody))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL, "", 5*time.Second)
	if _, err := c.Candidates(ctx, "jazz", 10); err == nil {
		t.Error("expected error for expired context")
	}
}

func TestResilientClient_PassThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(tracksBody))
	}))
	defer srv.Close()

	rc := NewResilientClient(NewClient(srv.URL, "", 5*time.Second), ResilientConfig{})
	items, err := rc.Candidates(context.Background(), "jazz", 10)
	if err != nil {
		t.Fatalf("Candidates() error = %v", err)
	}
	if len(items) != 1 {
		t.Errorf("got %d items, want 1", len(items))
	}
	if rc.State() != gobreaker.StateClosed {
		t.Errorf("breaker state = %v, want closed", rc.State())
	}
}

func TestResilientClient_BreakerOpensOnFailures(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rc := NewResilientClient(NewClient(srv.URL, "", 5*time.Second), ResilientConfig{})

	// Ten straight failures exceed the 60% trip threshold.
	for i := 0; i < 10; i++ {
		if _, err := rc.Candidates(context.Background(), "jazz", 10); err == nil {
			t.Fatalf("request %d should fail", i+1)
		}
	}
	if rc.State() != gobreaker.StateOpen {
		t.Fatalf("breaker state = %v, want open", rc.State())
	}

	// An open breaker rejects without touching the provider.
	before := calls.Load()
	_, err := rc.Candidates(context.Background(), "jazz", 10)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want ErrOpenState", err)
	}
	if calls.Load() != before {
		t.Error("open breaker still reached the provider")
	}
}

func TestResilientClient_RateLimiterHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(tracksBody))
	}))
	defer srv.Close()

	// One request per hour with burst 1: the second call must block, and a
	// cancelled context must abort the wait.
	rc := NewResilientClient(NewClient(srv.URL, "", 5*time.Second), ResilientConfig{
		RequestsPerSecond: 1.0 / 3600.0,
		Burst:             1,
	})

	if _, err := rc.Candidates(context.Background(), "jazz", 10); err != nil {
		t.Fatalf("first call error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := rc.Candidates(ctx, "jazz", 10); err == nil {
		t.Error("expected rate limit wait to abort on context timeout")
	}
}
