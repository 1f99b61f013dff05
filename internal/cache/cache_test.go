// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rhpbdev/legacyprints/internal/models"
	"github.com/rhpbdev/legacyprints/internal/scene"
	"github.com/rhpbdev/legacyprints/internal/storage"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, themeKeyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func sampleTheme(id int64) *models.Theme {
	return &models.Theme{
		ID:     id,
		Name:   "Dove",
		Layout: models.LayoutBifold,
		Data: scene.Document{Pages: []scene.Page{{
			Objects: []*scene.Object{scene.NewText("{{deceasedName}}")},
		}}},
		Active: true,
	}
}

func TestConnectValkey(t *testing.T) {
	ctx := context.Background()
	client, err := ConnectValkey(ctx, envOr("VALKEY_HOST", "localhost"), envOr("VALKEY_PORT", "6379"), os.Getenv("VALKEY_PASSWORD"))
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	if err := (Pinger{Client: client}).PingContext(ctx); err != nil {
		t.Errorf("PingContext: %v", err)
	}
}

func TestConnectValkeyUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := ConnectValkey(ctx, "127.0.0.1", "1", ""); err == nil {
		t.Error("expected error for closed port")
	}
}

func TestThemeCacheSetAndGet(t *testing.T) {
	client := testValkeyClient(t)
	tc := NewThemeCache(client, time.Minute)
	ctx := context.Background()

	if _, ok := tc.Get(ctx, 901); ok {
		t.Error("expected cache miss")
	}

	tc.Set(ctx, sampleTheme(901))

	got, ok := tc.Get(ctx, 901)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Name != "Dove" || got.Layout != models.LayoutBifold {
		t.Errorf("got %+v", got)
	}
	if len(got.Data.Pages) != 1 || got.Data.Pages[0].Objects[0].Text.Text != "{{deceasedName}}" {
		t.Errorf("theme data not preserved: %+v", got.Data)
	}
}

func TestThemeCacheFetch(t *testing.T) {
	client := testValkeyClient(t)
	tc := NewThemeCache(client, time.Minute)
	ctx := context.Background()

	calls := 0
	load := func(_ context.Context, id int64) (*models.Theme, error) {
		calls++
		return sampleTheme(id), nil
	}
	for range 3 {
		if _, err := tc.Fetch(ctx, 902, load); err != nil {
			t.Fatalf("Fetch: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("loader calls = %d, want 1", calls)
	}

	missing := func(context.Context, int64) (*models.Theme, error) { return nil, nil }
	if th, err := tc.Fetch(ctx, 903, missing); th != nil || err != nil {
		t.Errorf("Fetch missing = %v, %v", th, err)
	}
	if _, ok := tc.Get(ctx, 903); ok {
		t.Error("missing theme was cached")
	}
}

func TestThemeCacheInvalidate(t *testing.T) {
	client := testValkeyClient(t)
	tc := NewThemeCache(client, time.Minute)
	ctx := context.Background()

	tc.Set(ctx, sampleTheme(904))
	tc.Set(ctx, sampleTheme(905))
	tc.Set(ctx, sampleTheme(906))

	tc.Invalidate(ctx, 904)
	if _, ok := tc.Get(ctx, 904); ok {
		t.Error("expected miss after Invalidate")
	}
	if _, ok := tc.Get(ctx, 905); !ok {
		t.Error("Invalidate removed another theme")
	}

	tc.InvalidateAll(ctx)
	for _, id := range []int64{905, 906} {
		if _, ok := tc.Get(ctx, id); ok {
			t.Errorf("expected miss for %d after InvalidateAll", id)
		}
	}
}

func TestThemeCacheNil(t *testing.T) {
	var tc *ThemeCache
	ctx := context.Background()

	if _, ok := tc.Get(ctx, 1); ok {
		t.Error("nil cache reported a hit")
	}
	tc.Set(ctx, sampleTheme(1))
	tc.Invalidate(ctx, 1)
	tc.InvalidateAll(ctx)

	boom := errors.New("boom")
	_, err := tc.Fetch(ctx, 1, func(context.Context, int64) (*models.Theme, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("Fetch err = %v, want loader error", err)
	}
}

func TestThemeKey(t *testing.T) {
	if got := ThemeKey(42); got != "theme:42" {
		t.Errorf("ThemeKey(42) = %q", got)
	}
}

func TestNewThemeCacheDefaultTTL(t *testing.T) {
	tc := NewThemeCache(nil, 0)
	if tc.ttl != DefaultThemeTTL {
		t.Errorf("expected DefaultThemeTTL (%v), got %v", DefaultThemeTTL, tc.ttl)
	}
}

func TestFolderCache(t *testing.T) {
	fc := NewFolderCache(time.Minute)
	objs := []storage.Object{
		{Key: "u1/7/collage-photos/a.jpg", Size: 10, LastModified: time.Unix(100, 0)},
		{Key: "u1/7/collage-photos/b.jpg", Size: 20, LastModified: time.Unix(200, 0)},
	}

	if _, ok := fc.Get("u1", "u1/7/collage-photos"); ok {
		t.Fatal("expected miss")
	}
	stored := fc.Set("u1", "u1/7/collage-photos", objs)

	got, ok := fc.Get("u1", "u1/7/collage-photos")
	if !ok || got.ETag != stored.ETag || len(got.Objects) != 2 {
		t.Fatalf("Get = %+v, %v", got, ok)
	}
	if _, ok := fc.Get("u2", "u1/7/collage-photos"); ok {
		t.Error("listing leaked to another owner")
	}

	fc.Invalidate("u1", "u1/7/collage-photos")
	if _, ok := fc.Get("u1", "u1/7/collage-photos"); ok {
		t.Error("expected miss after Invalidate")
	}
}

func TestFolderCacheExpires(t *testing.T) {
	fc := NewFolderCache(20 * time.Millisecond)
	fc.Set("u1", "f", nil)
	time.Sleep(40 * time.Millisecond)
	if _, ok := fc.Get("u1", "f"); ok {
		t.Error("expected entry to expire")
	}
}

func TestETag(t *testing.T) {
	a := []storage.Object{{Key: "k1", Size: 1, LastModified: time.Unix(1, 0)}}
	b := []storage.Object{{Key: "k1", Size: 2, LastModified: time.Unix(1, 0)}}

	if ETag(a) != ETag(a) {
		t.Error("ETag is not deterministic")
	}
	if ETag(a) == ETag(b) {
		t.Error("size change did not change ETag")
	}
	if ETag(nil) == ETag(a) {
		t.Error("empty listing shares ETag with non-empty")
	}
	if tag := ETag(a); tag[0] != '"' || tag[len(tag)-1] != '"' {
		t.Errorf("ETag %s is not quoted", tag)
	}
}
