// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// OwnerKey is the context key for the authenticated owner id.
	OwnerKey contextKey = "owner"
)

// AuthOptions configures bearer token verification.
type AuthOptions struct {
	Secret string
	Issuer string // checked when non-empty
}

// Authenticate verifies the HS256 bearer token issued by the identity
// provider and stores its subject as the owner id in the request context.
// Requests without a valid token get a JSON 401.
func Authenticate(opts AuthOptions) func(http.Handler) http.Handler {
	secret := []byte(strings.TrimSpace(opts.Secret))
	if len(secret) == 0 {
		panic("middleware.Authenticate: secret is required")
	}

	keyFunc := func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, r, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims := &jwt.RegisteredClaims{}
			tok, err := jwt.ParseWithClaims(raw, claims, keyFunc)
			if err != nil || !tok.Valid {
				writeError(w, r, http.StatusUnauthorized, "Invalid token")
				return
			}
			if opts.Issuer != "" && !claims.VerifyIssuer(opts.Issuer, true) {
				writeError(w, r, http.StatusUnauthorized, "Invalid token issuer")
				return
			}
			owner := strings.TrimSpace(claims.Subject)
			if owner == "" {
				writeError(w, r, http.StatusUnauthorized, "Invalid token subject")
				return
			}

			ctx := context.WithValue(r.Context(), OwnerKey, owner)
			ctx = context.WithValue(ctx, loggerKey, Log(ctx).With("owner", owner))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken returns the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authz) < 7 || !strings.EqualFold(authz[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[7:])
}

// OwnerFromCtx returns the authenticated owner id, or "" when the request
// did not pass through Authenticate.
func OwnerFromCtx(ctx context.Context) string {
	owner, _ := ctx.Value(OwnerKey).(string)
	return owner
}

// WithOwner returns a copy of ctx carrying owner. Used by tests and
// internal callers that act on behalf of a user.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, OwnerKey, owner)
}
