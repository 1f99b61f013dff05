// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package fonts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds how long page loading waits for fonts.
const DefaultTimeout = 3 * time.Second

// Loader fetches the bytes of a font face.
type Loader func(ctx context.Context, f Face) ([]byte, error)

// DirLoader reads faces from files under dir.
func DirLoader(dir string) Loader {
	return func(ctx context.Context, f Face) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(dir, f.Path))
		if err != nil {
			return nil, fmt.Errorf("read font %s: %w", f.Path, err)
		}
		return data, nil
	}
}

// Report summarizes a registration run.
type Report struct {
	Registered []string          `json:"registered"`
	Failed     map[string]string `json:"failed,omitempty"`
	TimedOut   bool              `json:"timedOut"`
}

// Gate registers a fixed set of faces once and lets callers wait for the
// registration to settle. A face that fails is logged and skipped; a
// registration that outlasts the timeout is left running while waiters
// proceed.
type Gate struct {
	registry *Registry
	load     Loader
	faces    []Face
	timeout  time.Duration

	start   sync.Once
	done    chan struct{}
	settled chan struct{}
	settle  sync.Once

	mu     sync.Mutex
	report Report
}

// NewGate creates a gate for faces. A zero timeout means DefaultTimeout.
func NewGate(registry *Registry, load Loader, faces []Face, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gate{
		registry: registry,
		load:     load,
		faces:    faces,
		timeout:  timeout,
		done:     make(chan struct{}),
		settled:  make(chan struct{}),
		report:   Report{Failed: make(map[string]string)},
	}
}

// Registry returns the registry the gate fills.
func (g *Gate) Registry() *Registry { return g.registry }

// Wait starts registration on first use and blocks until every face has
// settled, the gate timeout elapses, or ctx is done. Once settled, later
// calls return immediately.
func (g *Gate) Wait(ctx context.Context) Report {
	g.start.Do(func() {
		go g.run()
		time.AfterFunc(g.timeout, func() {
			g.settle.Do(func() {
				g.mu.Lock()
				g.report.TimedOut = true
				g.mu.Unlock()
				slog.Warn("font registration timed out, continuing with fallbacks", "timeout", g.timeout.String())
				close(g.settled)
			})
		})
	})

	select {
	case <-g.settled:
	case <-ctx.Done():
	}
	return g.Report()
}

// Settled reports whether registration finished or timed out.
func (g *Gate) Settled() bool {
	select {
	case <-g.settled:
		return true
	default:
		return false
	}
}

// Done is closed when every face has either registered or failed.
func (g *Gate) Done() <-chan struct{} { return g.done }

// Report returns a snapshot of the registration outcome so far.
func (g *Gate) Report() Report {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := Report{
		Registered: append([]string(nil), g.report.Registered...),
		Failed:     make(map[string]string, len(g.report.Failed)),
		TimedOut:   g.report.TimedOut,
	}
	for k, v := range g.report.Failed {
		r.Failed[k] = v
	}
	return r
}

func (g *Gate) run() {
	defer func() {
		close(g.done)
		g.settle.Do(func() { close(g.settled) })
	}()

	// The registration itself gets more room than the gate so slow faces
	// can still land for later pages.
	ctx, cancel := context.WithTimeout(context.Background(), 4*g.timeout)
	defer cancel()

	var eg errgroup.Group
	for _, face := range g.faces {
		eg.Go(func() error {
			data, err := g.load(ctx, face)
			if err == nil {
				err = g.registry.Register(face, data)
			}

			g.mu.Lock()
			defer g.mu.Unlock()
			if err != nil {
				g.report.Failed[face.Family] = err.Error()
				slog.Warn("font registration failed", "family", face.Family, "error", err)
				return nil
			}
			g.report.Registered = append(g.report.Registered, face.Family)
			slog.Debug("font registered", "family", face.Family)
			return nil
		})
	}
	_ = eg.Wait()

	r := g.Report()
	slog.Info("custom fonts settled", "registered", len(r.Registered), "failed", len(r.Failed))
}
