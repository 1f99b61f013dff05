// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the legacyprints API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rhpbdev/legacyprints/internal/cache"
	"github.com/rhpbdev/legacyprints/internal/canvas"
	"github.com/rhpbdev/legacyprints/internal/config"
	"github.com/rhpbdev/legacyprints/internal/database"
	"github.com/rhpbdev/legacyprints/internal/design"
	"github.com/rhpbdev/legacyprints/internal/fonts"
	"github.com/rhpbdev/legacyprints/internal/handlers"
	"github.com/rhpbdev/legacyprints/internal/logging"
	"github.com/rhpbdev/legacyprints/internal/middleware"
	"github.com/rhpbdev/legacyprints/internal/router"
	"github.com/rhpbdev/legacyprints/internal/session"
	"github.com/rhpbdev/legacyprints/internal/storage"
	"github.com/rhpbdev/legacyprints/internal/store"
)

// imageTimeout bounds a single image header fetch during page loads.
const imageTimeout = 10 * time.Second

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger, text in development and JSON when LOG_FORMAT=json.
	opts := logging.FromEnv()
	opts.Level, opts.Format, opts.File = cfg.LogLevel, cfg.LogFormat, cfg.LogFile
	logCloser := logging.Init(opts)
	defer logCloser.Close()

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(context.Background(), cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if _, err := database.Migrate(context.Background(), db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the product catalog and starter theme (no-op if present).
	if err := database.Seed(context.Background(), db); err != nil {
		slog.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey for the theme cache (optional).
	var valkeyClient *redis.Client
	var valkeyPing handlers.Pinger
	if cfg.ValkeyHost != "" {
		valkeyClient, err = cache.ConnectValkey(context.Background(), cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Warn("valkey unavailable, theme cache disabled", "error", err)
		} else {
			defer valkeyClient.Close()
			valkeyPing = cache.Pinger{Client: valkeyClient}
		}
	}
	themeCache := cache.NewThemeCache(valkeyClient, cache.DefaultThemeTTL)
	folderCache := cache.NewFolderCache(cache.DefaultFolderTTL)

	// Connect to S3-compatible object storage (optional, the app works without it).
	var objects handlers.ObjectStore
	if cfg.S3Endpoint != "" && cfg.S3AccessKey != "" {
		storageClient, err := storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		if storageClient != nil {
			objects = storageClient
			slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
		}
	} else {
		slog.Warn("s3 storage not configured, uploads disabled")
	}

	// Register the script faces in the background; page loads wait on the
	// gate for at most FontTimeout.
	gate := fonts.NewGate(fonts.NewRegistry(), fonts.DirLoader(cfg.FontsDir), fonts.Builtin, cfg.FontTimeout)
	go func() {
		report := gate.Wait(context.Background())
		slog.Info("fonts registered",
			"registered", len(report.Registered),
			"failed", len(report.Failed),
			"timed_out", report.TimedOut,
		)
	}()

	// Initialize data stores.
	memorialStore := store.NewMemorialStore(db)
	memorialProductStore := store.NewMemorialProductStore(db)
	themeStore := store.NewThemeStore(db)
	designs := design.NewBridge(memorialProductStore)

	validate := handlers.NewValidator(nil)
	themeHandlers := handlers.NewThemes(themeStore, themeCache)

	// Editor sessions share the cached theme lookup.
	sessions := session.NewRegistry(session.Config{
		Memorials: memorialStore,
		Themes:    themeHandlers,
		Designs:   designs,
		Gate:      gate,
		Images:    canvas.NewHTTPImageLoader(cfg.ImageBaseURL, imageTimeout),
		LoadWait:  cfg.CanvasLoadWait,
		IdleTTL:   cfg.EditorIdleTTL,
	})
	defer sessions.Shutdown()

	limiter := middleware.NewRateLimiter(300, time.Minute)
	defer limiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(router.Handlers{
		Memorials: handlers.NewMemorials(memorialStore, themeHandlers, objects, folderCache, validate, nil),
		Products:  handlers.NewProducts(memorialStore, themeHandlers, memorialProductStore, designs),
		Themes:    themeHandlers,
		Catalog:   handlers.NewCatalog(store.NewProductStore(db)),
		Editor:    handlers.NewEditor(sessions, designs),
		Assets:    handlers.NewAssets(objects, folderCache, memorialStore, cfg.S3UploadTTL),
		Health:    handlers.NewHealth(db, valkeyPing),
	}, middleware.AuthOptions{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, limiter)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server stopped gracefully")
}
