// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/soundhaus/attune/internal/logging"
)

// Authenticator resolves the user identity carried by each request.
// Identity is issued elsewhere; this service only verifies bearer tokens
// (mode "jwt") or, in development, trusts the X-User-ID header
// (mode "none").
type Authenticator struct {
	mode   string
	secret []byte
}

// NewAuthenticator builds an Authenticator for the given mode. The secret
// is the HMAC key for bearer token verification and is required in jwt
// mode.
func NewAuthenticator(mode, secret string) (*Authenticator, error) {
	switch mode {
	case "jwt":
		if secret == "" {
			return nil, fmt.Errorf("jwt auth mode requires a secret")
		}
	case "none":
	default:
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}
	return &Authenticator{mode: mode, secret: []byte(secret)}, nil
}

// Middleware authenticates the request and stores the user ID in the
// context, where handlers retrieve it via logging.UserIDFromContext.
// Unauthenticated requests get a 401 and never reach the handler.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.identify(r)
		if err != nil {
			logging.Ctx(r.Context()).Warn().
				Err(err).
				Str("path", r.URL.Path).
				Msg("authentication failed")
			writeAuthError(w)
			return
		}

		ctx := logging.ContextWithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) identify(r *http.Request) (string, error) {
	if a.mode == "none" {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			return "", fmt.Errorf("missing X-User-ID header")
		}
		return userID, nil
	}

	header := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return "", fmt.Errorf("missing bearer token")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "authentication required",
	})
}
