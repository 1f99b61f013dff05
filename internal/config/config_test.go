// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package config

import (
	"strings"
	"testing"
	"time"
)

var allEnv = []string{
	"APP_HOST", "APP_PORT", "APP_ENV",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_SSLMODE",
	"VALKEY_HOST", "VALKEY_PORT", "VALKEY_PASSWORD",
	"S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_PUBLIC_URL", "S3_UPLOAD_TTL",
	"AUTH_JWT_SECRET", "AUTH_JWT_ISSUER",
	"FONTS_DIR", "FONT_TIMEOUT", "CANVAS_LOAD_WAIT", "EDITOR_IDLE_TTL", "CANVAS_IMAGE_BASE_URL",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
}

// clearEnv sets every variable Load reads to "", which envOrDefault treats
// the same as unset. t.Setenv restores the old values afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnv {
		t.Setenv(key, "")
	}
}

// TestLoad_Defaults verifies that Load returns sensible development defaults
// when no environment variables are set.
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	strs := []struct {
		field, got, want string
	}{
		{"Host", cfg.Host, "0.0.0.0"},
		{"Port", cfg.Port, "8080"},
		{"Env", cfg.Env, "development"},
		{"DBHost", cfg.DBHost, "localhost"},
		{"DBUser", cfg.DBUser, "legacyprints"},
		{"DBName", cfg.DBName, "legacyprints"},
		{"DBSSLMode", cfg.DBSSLMode, "disable"},
		{"ValkeyPort", cfg.ValkeyPort, "6379"},
		{"S3Region", cfg.S3Region, "us-east-1"},
		{"S3Bucket", cfg.S3Bucket, "legacyprints-assets"},
		{"S3Endpoint", cfg.S3Endpoint, ""},
		{"JWTSecret", cfg.JWTSecret, DefaultJWTSecret},
		{"FontsDir", cfg.FontsDir, "web/static/fonts"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFormat", cfg.LogFormat, "text"},
	}
	for _, s := range strs {
		if s.got != s.want {
			t.Errorf("%s = %q, want %q", s.field, s.got, s.want)
		}
	}

	durs := []struct {
		field     string
		got, want time.Duration
	}{
		{"S3UploadTTL", cfg.S3UploadTTL, 15 * time.Minute},
		{"FontTimeout", cfg.FontTimeout, 3 * time.Second},
		{"CanvasLoadWait", cfg.CanvasLoadWait, 300 * time.Millisecond},
		{"EditorIdleTTL", cfg.EditorIdleTTL, 30 * time.Minute},
	}
	for _, d := range durs {
		if d.got != d.want {
			t.Errorf("%s = %v, want %v", d.field, d.got, d.want)
		}
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("POSTGRES_SSLMODE", "require")
	t.Setenv("CANVAS_LOAD_WAIT", "750ms")
	t.Setenv("EDITOR_IDLE_TTL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.CanvasLoadWait != 750*time.Millisecond {
		t.Errorf("CanvasLoadWait = %v", cfg.CanvasLoadWait)
	}
	if cfg.EditorIdleTTL != 5*time.Minute {
		t.Errorf("EditorIdleTTL = %v", cfg.EditorIdleTTL)
	}
	if !strings.HasSuffix(cfg.DSN(), "sslmode=require") {
		t.Errorf("DSN = %q", cfg.DSN())
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"FONT_TIMEOUT", "soon"},
		{"EDITOR_IDLE_TTL", "-5m"},
		{"S3_UPLOAD_TTL", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q does not name %s", err, tt.key)
			}
		})
	}
}

// TestLoad_ProductionGuards verifies that production refuses the default
// database password and the default signing secret.
func TestLoad_ProductionGuards(t *testing.T) {
	tests := []struct {
		name     string
		password string
		secret   string
		wantErr  string
	}{
		{"default password", "", "s3cret", "POSTGRES_PASSWORD"},
		{"default secret", "strong", "", "AUTH_JWT_SECRET"},
		{"both set", "strong", "s3cret", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_ENV", "production")
			t.Setenv("POSTGRES_PASSWORD", tt.password)
			t.Setenv("AUTH_JWT_SECRET", tt.secret)

			cfg, err := Load()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Load: %v", err)
				}
				if cfg.IsDev() {
					t.Error("production config reports IsDev")
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := &Config{
		Host: "127.0.0.1", Port: "8080", Env: "development",
		DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5432", DBName: "n", DBSSLMode: "disable",
	}
	if got := cfg.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr = %q", got)
	}
	if got := cfg.DSN(); got != "postgres://u:p@db:5432/n?sslmode=disable" {
		t.Errorf("DSN = %q", got)
	}
	if !cfg.IsDev() {
		t.Error("IsDev = false")
	}
}
