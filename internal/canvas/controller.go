// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package canvas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rhpbdev/legacyprints/internal/apperr"
	"github.com/rhpbdev/legacyprints/internal/fonts"
	"github.com/rhpbdev/legacyprints/internal/models"
	"github.com/rhpbdev/legacyprints/internal/placeholder"
	"github.com/rhpbdev/legacyprints/internal/scene"
)

// DefaultLoadWait bounds how long a page load waits for its images before
// committing coordinates anyway.
const DefaultLoadWait = 300 * time.Millisecond

// State is the lifecycle state of a Controller.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrControllerDisposed is returned by Init after Dispose.
var ErrControllerDisposed = errors.New("canvas controller disposed")

// Options configure a Controller.
type Options struct {
	Theme    *models.Theme
	Memorial *models.Memorial
	// Saved is the customized design for the product, nil when the
	// product was never customized.
	Saved *scene.Document

	Gate     *fonts.Gate
	Images   ImageLoader
	LoadWait time.Duration

	OnPageLoad  func(index int)
	OnPageError func(index int, err error)
}

// Controller owns one Surface for its Ready lifetime and loads pages onto
// it. Page loads run one at a time on a dedicated worker; a navigation
// request made while a load is in flight replaces any pending request and
// cancels the in-flight load, so the newest target wins.
type Controller struct {
	opts    Options
	surface *Surface

	mu           sync.Mutex
	state        State
	initializing bool
	gen          uint64
	listener     ListenerID

	total    int
	current  int
	pending  int
	inflight int
	loadCtx  context.Context
	cancel   context.CancelFunc
	loaded   int
	failure  error

	busy bool
	idle chan struct{}
	wake chan struct{}
	stop chan struct{}
}

// New creates an uninitialized controller with a fresh surface sized for
// the theme layout.
func New(opts Options) *Controller {
	if opts.LoadWait <= 0 {
		opts.LoadWait = DefaultLoadWait
	}
	var registry *fonts.Registry
	if opts.Gate != nil {
		registry = opts.Gate.Registry()
	}
	var layout models.ThemeLayout
	if opts.Theme != nil {
		layout = opts.Theme.Layout
	}

	idle := make(chan struct{})
	close(idle)
	return &Controller{
		opts:     opts,
		surface:  NewSurface(DimensionsFor(layout), opts.Images, registry),
		total:    TotalPages(opts.Theme, opts.Saved),
		pending:  -1,
		inflight: -1,
		loaded:   -1,
		idle:     idle,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// Init waits for the font gate, attaches the identifier tagger and loads
// the first page. Calls made while Ready or while another Init is running
// return nil without doing anything.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.state == StateDisposed:
		c.mu.Unlock()
		return ErrControllerDisposed
	case c.state == StateReady || c.initializing:
		c.mu.Unlock()
		return nil
	}
	c.initializing = true
	c.mu.Unlock()

	if c.opts.Gate != nil {
		c.opts.Gate.Wait(ctx)
		if !c.opts.Gate.Settled() {
			c.mu.Lock()
			c.initializing = false
			c.mu.Unlock()
			return fmt.Errorf("wait for fonts: %w", ctx.Err())
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.initializing = false
	if c.state != StateUninitialized {
		return ErrControllerDisposed
	}
	c.listener = c.surface.On(EventObjectAdded, c.tagObject)
	c.state = StateReady
	go c.worker()

	if c.total > 0 {
		c.requestLocked(0)
	}
	slog.Debug("canvas ready", "pages", c.total, "width", c.surface.dims.Width, "height", c.surface.dims.Height)
	return nil
}

// tagObject gives every object added to the surface a unique identifier
// unless it already carries one.
func (c *Controller) tagObject(ev Event) {
	if ev.Object == nil || ev.Object.ID != "" {
		return
	}
	c.surface.Update(ev.Ref, func(o *scene.Object) {
		if o.ID == "" {
			o.ID = NewObjectID()
		}
	})
}

// Next requests the page after the current one.
func (c *Controller) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goToLocked(c.current + 1)
}

// Previous requests the page before the current one.
func (c *Controller) Previous() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goToLocked(c.current - 1)
}

// GoTo requests page index. It reports false when the controller is not
// Ready, the index is out of range, or the page is already shown or
// being loaded.
func (c *Controller) GoTo(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goToLocked(index)
}

func (c *Controller) goToLocked(index int) bool {
	if c.state != StateReady || index < 0 || index >= c.total {
		return false
	}
	if index == c.current {
		if c.busy {
			return false
		}
		if c.loaded == index && c.failure == nil {
			return false
		}
	}
	c.requestLocked(index)
	return true
}

func (c *Controller) requestLocked(index int) {
	c.current = index
	if !c.busy {
		c.busy = true
		c.idle = make(chan struct{})
	}
	if c.inflight == index && c.loadCtx != nil && c.loadCtx.Err() == nil {
		c.pending = -1
		return
	}
	c.pending = index
	if c.cancel != nil {
		c.cancel()
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) worker() {
	for {
		select {
		case <-c.stop:
			return
		case <-c.wake:
		}

		for {
			c.mu.Lock()
			if c.state != StateReady || c.pending < 0 {
				c.inflight = -1
				c.loadCtx, c.cancel = nil, nil
				if c.busy {
					c.busy = false
					close(c.idle)
				}
				c.mu.Unlock()
				break
			}
			index, gen := c.pending, c.gen
			c.pending = -1
			ctx, cancel := context.WithCancel(context.Background())
			c.inflight, c.loadCtx, c.cancel = index, ctx, cancel
			c.mu.Unlock()

			c.load(ctx, gen, index)
			cancel()
		}
	}
}

// alive reports whether a load may still mutate the surface.
func (c *Controller) alive(ctx context.Context, gen uint64) bool {
	if ctx.Err() != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen && c.state == StateReady && !c.surface.Disposed()
}

// load hydrates page index onto the surface. Every surface-mutating step
// is preceded by a liveness check, and a load that lost its liveness
// returns without reporting anything.
func (c *Controller) load(ctx context.Context, gen uint64, index int) {
	defer func() {
		if r := recover(); r != nil {
			c.fail(ctx, gen, index, fmt.Errorf("panic: %v", r))
		}
	}()

	page, err := ResolvePage(c.opts.Theme, c.opts.Saved, index)
	if err != nil {
		c.fail(ctx, gen, index, err)
		return
	}

	if !c.alive(ctx, gen) {
		return
	}
	if err := c.surface.Clear(); err != nil {
		c.fail(ctx, gen, index, err)
		return
	}

	content := placeholder.Unlock(placeholder.Apply(page, c.opts.Memorial))

	if !c.alive(ctx, gen) {
		return
	}
	settled := make(chan error, 1)
	if err := c.surface.Load(ctx, content, func(err error) { settled <- err }); err != nil {
		c.fail(ctx, gen, index, err)
		return
	}

	timer := time.NewTimer(c.opts.LoadWait)
	defer timer.Stop()
	select {
	case err := <-settled:
		if err != nil {
			slog.Warn("page images failed to load", "page", index, "error", err)
		}
	case <-timer.C:
		slog.Debug("page load wait elapsed, committing", "page", index, "wait", c.opts.LoadWait.String())
	case <-ctx.Done():
		return
	}

	if !c.alive(ctx, gen) {
		return
	}
	if err := c.surface.CommitCoords(); err != nil {
		c.fail(ctx, gen, index, err)
		return
	}
	c.surface.SetInteractive(true)
	c.surface.RequestRender()

	c.mu.Lock()
	if c.gen != gen || ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.loaded = index
	c.failure = nil
	onLoad := c.opts.OnPageLoad
	c.mu.Unlock()

	slog.Debug("page loaded", "page", index)
	if onLoad != nil {
		onLoad(index)
	}
}

func (c *Controller) fail(ctx context.Context, gen uint64, index int, err error) {
	c.mu.Lock()
	if c.gen != gen || ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	rerr := &apperr.RenderError{Page: index, Err: err}
	c.failure = rerr
	c.loaded = -1
	onError := c.opts.OnPageError
	c.mu.Unlock()

	c.surface.SetInteractive(false)
	slog.Error("page load failed", "page", index, "error", err)
	if onError != nil {
		onError(index, rerr)
	}
}

// Dispose cancels any load, detaches the listeners the controller
// registered and releases the surface. It is safe to call more than once.
func (c *Controller) Dispose() {
	c.mu.Lock()
	if c.state == StateDisposed {
		c.mu.Unlock()
		return
	}
	wasReady := c.state == StateReady
	c.state = StateDisposed
	c.gen++
	c.pending = -1
	if c.cancel != nil {
		c.cancel()
	}
	if c.busy {
		c.busy = false
		close(c.idle)
	}
	listener := c.listener
	c.mu.Unlock()

	if wasReady {
		close(c.stop)
		c.surface.Off(listener)
	}
	c.surface.Dispose()
	slog.Debug("canvas disposed")
}

// WaitIdle blocks until no load is in flight or pending.
func (c *Controller) WaitIdle(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentPage returns the most recently requested page index.
func (c *Controller) CurrentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// TotalPages returns the number of navigable pages.
func (c *Controller) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Loading reports whether a load is in flight or pending.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// LoadedPage returns the index of the page shown on the surface, or -1.
func (c *Controller) LoadedPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Failure returns the error of the last failed load, cleared by the next
// successful one.
func (c *Controller) Failure() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failure
}

// Surface returns the live surface. Callers must not keep it beyond the
// call they need it for.
func (c *Controller) Surface() *Surface { return c.surface }

// Dimensions returns the surface size.
func (c *Controller) Dimensions() Dimensions { return c.surface.Dimensions() }
