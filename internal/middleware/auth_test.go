// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/soundhaus/attune/internal/logging"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func signToken(t *testing.T, secret, subject string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func authHandler(t *testing.T, a *Authenticator) (http.Handler, *string) {
	t.Helper()
	var gotUser string
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = logging.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &gotUser
}

func TestNewAuthenticator(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		secret  string
		wantErr bool
	}{
		{"jwt with secret", "jwt", testSecret, false},
		{"jwt without secret", "jwt", "", true},
		{"none mode", "none", "", false},
		{"unknown mode", "basic", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAuthenticator(tt.mode, tt.secret)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewAuthenticator(%s) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
			}
		})
	}
}

func TestAuthenticator_JWT(t *testing.T) {
	auth, err := NewAuthenticator("jwt", testSecret)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{
			name:       "valid token",
			header:     "Bearer " + signToken(t, testSecret, "user-1", time.Hour),
			wantStatus: http.StatusOK,
			wantUser:   "user-1",
		},
		{
			name:       "missing header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not a bearer token",
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			header:     "Bearer " + signToken(t, testSecret, "user-1", -time.Hour),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			header:     "Bearer " + signToken(t, "another-secret-another-secret-ok", "user-1", time.Hour),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no subject",
			header:     "Bearer " + signToken(t, testSecret, "", time.Hour),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			header:     "Bearer not.a.token",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, gotUser := authHandler(t, auth)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantUser != "" && *gotUser != tt.wantUser {
				t.Errorf("user ID = %q, want %q", *gotUser, tt.wantUser)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
					t.Errorf("Content-Type = %q, want application/json", ct)
				}
			}
		})
	}
}

func TestAuthenticator_NoneMode(t *testing.T) {
	auth, err := NewAuthenticator("none", "")
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}

	t.Run("trusts X-User-ID", func(t *testing.T) {
		handler, gotUser := authHandler(t, auth)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-ID", "dev-user")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if *gotUser != "dev-user" {
			t.Errorf("user ID = %q, want dev-user", *gotUser)
		}
	})

	t.Run("missing header rejected", func(t *testing.T) {
		handler, _ := authHandler(t, auth)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("ignores bearer tokens", func(t *testing.T) {
		handler, gotUser := authHandler(t, auth)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "jwt-user", time.Hour))
		req.Header.Set("X-User-ID", "header-user")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if *gotUser != "header-user" {
			t.Errorf("user ID = %q, want header-user", *gotUser)
		}
	})
}
