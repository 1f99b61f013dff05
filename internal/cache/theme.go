// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rhpbdev/legacyprints/internal/models"
)

const (
	// themeKeyPrefix is the Valkey key prefix for cached themes.
	themeKeyPrefix = "theme:"

	// DefaultThemeTTL is how long a theme stays cached.
	DefaultThemeTTL = 10 * time.Minute
)

// ThemeCache caches theme rows as JSON in Valkey. Themes are read-only at
// runtime, so entries only leave through TTL or explicit invalidation.
// A nil *ThemeCache is valid and always misses.
type ThemeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewThemeCache creates a theme cache backed by the given Valkey client.
func NewThemeCache(client *redis.Client, ttl time.Duration) *ThemeCache {
	if ttl == 0 {
		ttl = DefaultThemeTTL
	}
	return &ThemeCache{client: client, ttl: ttl}
}

// ThemeKey returns the cache key for a theme id.
func ThemeKey(id int64) string {
	return themeKeyPrefix + strconv.FormatInt(id, 10)
}

// Get returns the cached theme. Errors are logged and reported as a miss.
func (tc *ThemeCache) Get(ctx context.Context, id int64) (*models.Theme, bool) {
	if tc == nil || tc.client == nil {
		return nil, false
	}
	val, err := tc.client.Get(ctx, ThemeKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("theme cache get error", "theme_id", id, "error", err)
		return nil, false
	}
	var t models.Theme
	if err := json.Unmarshal(val, &t); err != nil {
		slog.Warn("theme cache decode error", "theme_id", id, "error", err)
		tc.Invalidate(ctx, id)
		return nil, false
	}
	slog.Debug("theme cache hit", "theme_id", id)
	return &t, true
}

// Set stores a theme with the configured TTL.
func (tc *ThemeCache) Set(ctx context.Context, t *models.Theme) {
	if tc == nil || tc.client == nil || t == nil {
		return
	}
	data, err := json.Marshal(t)
	if err != nil {
		slog.Warn("theme cache encode error", "theme_id", t.ID, "error", err)
		return
	}
	if err := tc.client.Set(ctx, ThemeKey(t.ID), data, tc.ttl).Err(); err != nil {
		slog.Warn("theme cache set error", "theme_id", t.ID, "error", err)
	}
}

// Fetch reads through the cache: on a miss it calls load and caches a
// non-nil result. A nil theme from load is returned as is and not cached.
func (tc *ThemeCache) Fetch(ctx context.Context, id int64, load func(context.Context, int64) (*models.Theme, error)) (*models.Theme, error) {
	if t, ok := tc.Get(ctx, id); ok {
		return t, nil
	}
	t, err := load(ctx, id)
	if err != nil || t == nil {
		return t, err
	}
	tc.Set(ctx, t)
	return t, nil
}

// Invalidate removes a single theme.
func (tc *ThemeCache) Invalidate(ctx context.Context, id int64) {
	if tc == nil || tc.client == nil {
		return
	}
	if err := tc.client.Del(ctx, ThemeKey(id)).Err(); err != nil {
		slog.Warn("theme cache invalidate error", "theme_id", id, "error", err)
	}
}

// InvalidateAll removes every cached theme by scanning for the prefix.
func (tc *ThemeCache) InvalidateAll(ctx context.Context) {
	if tc == nil || tc.client == nil {
		return
	}
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := tc.client.Scan(ctx, cursor, themeKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("theme cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := tc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("theme cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("theme cache cleared", "deleted", deleted)
	}
}
