// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/soundhaus/attune/internal/middleware"
)

func testRouter(t *testing.T, engine *fakeEngine) http.Handler {
	t.Helper()
	auth, err := middleware.NewAuthenticator("none", "")
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	return NewRouter(NewHandler(engine, nil), auth, RouterConfig{
		CORSOrigins:       []string{"*"},
		RateLimitReqs:     100,
		RateLimitWindow:   time.Minute,
		RateLimitDisabled: true,
	})
}

func TestRouter_RecommendationsEndToEnd(t *testing.T) {
	engine := &fakeEngine{set: sampleSet("u1")}
	router := testRouter(t, engine)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations?genres=jazz", nil)
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if engine.gotUser != "u1" {
		t.Errorf("engine saw user %q, want u1", engine.gotUser)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestRouter_RequiresIdentity(t *testing.T) {
	router := testRouter(t, &fakeEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations?genres=jazz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without identity", rec.Code)
	}
}

func TestRouter_HealthIsPublic(t *testing.T) {
	router := testRouter(t, &fakeEngine{})

	for _, path := range []string{"/api/v1/health/live", "/api/v1/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestRouter_MetricsIsPublic(t *testing.T) {
	router := testRouter(t, &fakeEngine{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", rec.Code)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := testRouter(t, &fakeEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
