// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

// Pinger checks a backing service.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// PingContext calls f.
func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Health reports on the database and Valkey.
type Health struct {
	db     Pinger
	valkey Pinger
}

// NewHealth creates the health handler. valkey may be nil when caching is
// disabled.
func NewHealth(db, valkey Pinger) *Health {
	return &Health{db: db, valkey: valkey}
}

// ServeHTTP handles GET /healthz.
func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "ok", "database": "ok", "valkey": "disabled"}

	if err := h.db.PingContext(ctx); err != nil {
		slog.Warn("health check: database unreachable", "error", err)
		body["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if h.valkey != nil {
		body["valkey"] = "ok"
		if err := h.valkey.PingContext(ctx); err != nil {
			slog.Warn("health check: valkey unreachable", "error", err)
			body["valkey"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	writeJSON(w, status, body)
}
