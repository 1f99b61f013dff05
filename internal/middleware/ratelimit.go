// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Rate limit defaults.
const (
	DefaultRateLimit  = 300
	DefaultRateWindow = time.Minute
)

// window holds the hit times of one caller inside the sliding window,
// oldest first.
type window struct {
	mu   sync.Mutex
	hits []time.Time
}

// RateLimiter limits requests per caller in a sliding window. Callers are
// keyed by owner once authenticated, by client IP before. Idle windows
// expire from the cache one window after their last hit.
type RateLimiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex // guards window creation
	windows *gocache.Cache
}

// NewRateLimiter allows limit requests per period for every caller.
// Non-positive values fall back to the defaults.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if period <= 0 {
		period = DefaultRateWindow
	}
	sweep := 5 * period
	if sweep > 5*time.Minute {
		sweep = 5 * time.Minute
	}
	return &RateLimiter{
		limit:   limit,
		period:  period,
		now:     time.Now,
		windows: gocache.New(period, sweep),
	}
}

// Stop drops every tracked window. The cache sweeper exits once the
// limiter is collected.
func (rl *RateLimiter) Stop() {
	rl.windows.Flush()
}

// Tracked returns how many callers currently hold a window.
func (rl *RateLimiter) Tracked() int {
	return rl.windows.ItemCount()
}

// take records a hit for key. It returns the hits left in the window, or
// the wait until the oldest hit leaves it when the caller is over limit.
func (rl *RateLimiter) take(key string) (remaining int, wait time.Duration, ok bool) {
	rl.mu.Lock()
	v, found := rl.windows.Get(key)
	if !found {
		v = &window{}
	}
	rl.windows.SetDefault(key, v)
	rl.mu.Unlock()

	w := v.(*window)
	now := rl.now()
	cutoff := now.Add(-rl.period)

	w.mu.Lock()
	defer w.mu.Unlock()

	expired := 0
	for expired < len(w.hits) && !w.hits[expired].After(cutoff) {
		expired++
	}
	w.hits = w.hits[expired:]

	if len(w.hits) >= rl.limit {
		return 0, w.hits[0].Sub(cutoff), false
	}
	w.hits = append(w.hits, now)
	return rl.limit - len(w.hits), 0, true
}

// Middleware rejects callers over the limit with a JSON 429 and a
// Retry-After header. Allowed responses carry the remaining budget.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remaining, wait, ok := rl.take(clientKey(r))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter(wait)))
			writeError(w, r, http.StatusTooManyRequests, "Too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// retryAfter rounds a wait up to whole seconds, at least one.
func retryAfter(wait time.Duration) int {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// clientKey identifies the caller for limiting.
func clientKey(r *http.Request) string {
	if owner := OwnerFromCtx(r.Context()); owner != "" {
		return "owner:" + owner
	}
	return "ip:" + clientIP(r)
}

// clientIP returns the leftmost X-Forwarded-For address, then X-Real-IP,
// then the connection's remote host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
