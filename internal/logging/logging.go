// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

// Package logging configures the process-wide slog logger. Output goes to
// stderr and, when a file is configured, to a rotating JSON log as well.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	Level     string // debug, info, warn, error
	Format    string // text or json
	File      string // optional rotating log file
	AddSource bool
}

// FromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_FILE and LOG_SOURCE.
func FromEnv() Options {
	return Options{
		Level:     os.Getenv("LOG_LEVEL"),
		Format:    os.Getenv("LOG_FORMAT"),
		File:      os.Getenv("LOG_FILE"),
		AddSource: strings.EqualFold(os.Getenv("LOG_SOURCE"), "true"),
	}
}

// New builds a logger writing to stderr. The returned closer flushes and
// closes the log file, if any.
func New(opts Options) (*slog.Logger, io.Closer) {
	return newLogger(opts, os.Stderr)
}

func newLogger(opts Options, console io.Writer) (*slog.Logger, io.Closer) {
	ho := &slog.HandlerOptions{Level: ParseLevel(opts.Level), AddSource: opts.AddSource}

	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		h = slog.NewJSONHandler(console, ho)
	} else {
		h = slog.NewTextHandler(console, ho)
	}

	var closer io.Closer = nopCloser{}
	if file := strings.TrimSpace(opts.File); file != "" {
		w := &lumberjack.Logger{Filename: file, MaxSize: 10, MaxBackups: 5, MaxAge: 28, Compress: true}
		h = &multi{hs: []slog.Handler{h, slog.NewJSONHandler(w, ho)}}
		closer = w
	}
	return slog.New(h), closer
}

// Init builds a logger from opts and installs it as slog.Default.
func Init(opts Options) io.Closer {
	logger, closer := New(opts)
	slog.SetDefault(logger)
	return closer
}

// ParseLevel converts a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// multi fans out log records to multiple handlers.
type multi struct{ hs []slog.Handler }

func (m *multi) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multi) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.hs {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *multi) WithAttrs(attrs []slog.Attr) slog.Handler {
	res := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		res[i] = h.WithAttrs(attrs)
	}
	return &multi{hs: res}
}

func (m *multi) WithGroup(name string) slog.Handler {
	res := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		res[i] = h.WithGroup(name)
	}
	return &multi{hs: res}
}
