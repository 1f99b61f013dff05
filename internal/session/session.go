// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

// Package session keeps server-side editor sessions. Each session owns a
// canvas controller for one memorial product and the text settings bound
// to its surface. Sessions live in process memory and are disposed when
// closed or when they sit idle past the configured TTL.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/rhpbdev/legacyprints/internal/apperr"
	"github.com/rhpbdev/legacyprints/internal/canvas"
	"github.com/rhpbdev/legacyprints/internal/design"
	"github.com/rhpbdev/legacyprints/internal/editor"
	"github.com/rhpbdev/legacyprints/internal/fonts"
	"github.com/rhpbdev/legacyprints/internal/models"
	"github.com/rhpbdev/legacyprints/internal/scene"
)

const (
	// DefaultIdleTTL is how long an untouched session is kept.
	DefaultIdleTTL = 30 * time.Minute

	// idLength is the byte length of the random session ID (16 bytes = 32 hex chars).
	idLength = 16

	// settleTimeout bounds how long a request waits for a page load.
	settleTimeout = 10 * time.Second
)

// MemorialFinder loads a memorial owned by ownerID, (nil, nil) if absent.
type MemorialFinder interface {
	FindByID(ctx context.Context, id int64, ownerID string) (*models.Memorial, error)
}

// ThemeFinder loads a theme, (nil, nil) if absent.
type ThemeFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Theme, error)
}

// ThemeFinderFunc adapts a function to ThemeFinder.
type ThemeFinderFunc func(ctx context.Context, id int64) (*models.Theme, error)

// FindByID calls f.
func (f ThemeFinderFunc) FindByID(ctx context.Context, id int64) (*models.Theme, error) {
	return f(ctx, id)
}

// Config wires a Registry to its data sources.
type Config struct {
	Memorials MemorialFinder
	Themes    ThemeFinder
	Designs   *design.Bridge
	Gate      *fonts.Gate
	Images    canvas.ImageLoader
	LoadWait  time.Duration
	IdleTTL   time.Duration
}

// Registry holds the open editor sessions.
type Registry struct {
	cfg      Config
	sessions *gocache.Cache
}

// NewRegistry creates a registry. Evicted sessions are disposed.
func NewRegistry(cfg Config) *Registry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	cleanup := cfg.IdleTTL / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	r := &Registry{cfg: cfg, sessions: gocache.New(cfg.IdleTTL, cleanup)}
	r.sessions.OnEvicted(func(id string, v any) {
		s := v.(*Session)
		s.dispose()
		slog.Info("editor session closed", "session", id, "owner", s.OwnerID)
	})
	return r
}

// Session is one open editor.
type Session struct {
	ID         string
	OwnerID    string
	MemorialID int64
	ProductID  uuid.UUID
	Layout     models.ThemeLayout
	OpenedAt   time.Time

	ctrl   *canvas.Controller
	text   *editor.TextSettings
	detach func()

	// mu serializes mutations issued through the API.
	mu sync.Mutex
}

// Open loads the memorial, its theme and the saved design, then starts a
// controller on the first page and waits for that load to settle.
func (r *Registry) Open(ctx context.Context, ownerID string, memorialID int64, productID uuid.UUID) (*Session, error) {
	if ownerID == "" {
		return nil, apperr.ErrUnauthorized
	}

	m, err := r.cfg.Memorials.FindByID(ctx, memorialID, ownerID)
	if err != nil {
		return nil, apperr.Storage("find memorial", err)
	}
	if m == nil {
		return nil, fmt.Errorf("memorial %d: %w", memorialID, apperr.ErrNotFound)
	}

	// A design that cannot be read loads as the theme defaults.
	var saved *scene.Document
	rec, err := r.cfg.Designs.Read(ctx, ownerID, memorialID, productID)
	var se *apperr.StorageError
	switch {
	case errors.As(err, &se):
		slog.Warn("saved design unavailable, loading theme defaults",
			"memorial_id", memorialID, "product_id", productID, "error", err)
	case err != nil:
		return nil, err
	default:
		saved = rec.Document
	}

	if m.ThemeID == 0 {
		return nil, apperr.Validation("themeId", "Choose a theme before customizing products")
	}
	theme, err := r.cfg.Themes.FindByID(ctx, m.ThemeID)
	if err != nil {
		return nil, apperr.Storage("find theme", err)
	}
	if theme == nil {
		return nil, fmt.Errorf("theme %d: %w", m.ThemeID, apperr.ErrNotFound)
	}

	id, err := generateID()
	if err != nil {
		return nil, err
	}

	ctrl := canvas.New(canvas.Options{
		Theme:    theme,
		Memorial: m,
		Saved:    saved,
		Gate:     r.cfg.Gate,
		Images:   r.cfg.Images,
		LoadWait: r.cfg.LoadWait,
		OnPageError: func(index int, err error) {
			slog.Warn("editor page failed", "session", id, "page", index, "error", err)
		},
	})
	text := editor.NewTextSettings(r.registry())
	s := &Session{
		ID:         id,
		OwnerID:    ownerID,
		MemorialID: memorialID,
		ProductID:  productID,
		Layout:     theme.Layout,
		OpenedAt:   time.Now().UTC(),
		ctrl:       ctrl,
		text:       text,
		detach:     text.Attach(ctrl.Surface()),
	}

	if err := ctrl.Init(ctx); err != nil {
		s.dispose()
		return nil, fmt.Errorf("init editor: %w", err)
	}
	s.settle(ctx)

	r.sessions.Set(id, s, gocache.DefaultExpiration)
	slog.Info("editor session opened",
		"session", id, "owner", ownerID, "memorial_id", memorialID,
		"product_id", productID, "pages", ctrl.TotalPages(),
	)
	return s, nil
}

// Get returns the owner's session and extends its idle deadline. A session
// of another owner is reported as not found.
func (r *Registry) Get(ownerID, id string) (*Session, error) {
	v, found := r.sessions.Get(id)
	if !found {
		return nil, fmt.Errorf("editor session: %w", apperr.ErrNotFound)
	}
	s := v.(*Session)
	if s.OwnerID != ownerID {
		return nil, fmt.Errorf("editor session: %w", apperr.ErrNotFound)
	}
	r.sessions.Set(id, s, gocache.DefaultExpiration)
	return s, nil
}

// Close disposes the owner's session.
func (r *Registry) Close(ownerID, id string) error {
	if _, err := r.Get(ownerID, id); err != nil {
		return err
	}
	r.sessions.Delete(id)
	return nil
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	return r.sessions.ItemCount()
}

// Shutdown disposes every session.
func (r *Registry) Shutdown() {
	for id := range r.sessions.Items() {
		r.sessions.Delete(id)
	}
}

func (r *Registry) registry() *fonts.Registry {
	if r.cfg.Gate == nil {
		return nil
	}
	return r.cfg.Gate.Registry()
}

// Families lists the font families offered in the text editor.
func (r *Registry) Families() []string {
	if reg := r.registry(); reg != nil {
		return reg.Families()
	}
	return append([]string(nil), fonts.DefaultFamilies...)
}

// generateID creates a cryptographically random hex-encoded session ID.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *Session) dispose() {
	if s.detach != nil {
		s.detach()
	}
	s.ctrl.Dispose()
}

// settle waits for pending loads, bounded by settleTimeout.
func (s *Session) settle(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	if err := s.ctrl.WaitIdle(ctx); err != nil {
		slog.Debug("editor still loading", "session", s.ID, "error", err)
	}
}

// Controller returns the session's canvas controller.
func (s *Session) Controller() *canvas.Controller { return s.ctrl }

// Next moves to the following page. It reports whether a load started.
func (s *Session) Next(ctx context.Context) bool {
	return s.navigate(ctx, s.ctrl.Next)
}

// Previous moves to the preceding page.
func (s *Session) Previous(ctx context.Context) bool {
	return s.navigate(ctx, s.ctrl.Previous)
}

// GoTo jumps to page index.
func (s *Session) GoTo(ctx context.Context, index int) bool {
	return s.navigate(ctx, func() bool { return s.ctrl.GoTo(index) })
}

func (s *Session) navigate(ctx context.Context, move func() bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved := move()
	if moved {
		s.settle(ctx)
	}
	return moved
}

// Select makes the object with id the active selection.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return translate(s.ctrl.Surface().SetActive(id))
}

// SelectAt selects the topmost selectable object under the point, the way
// a click on the surface does. A click on empty space clears the
// selection. It reports whether an object was selected.
func (s *Session) SelectAt(x, y float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	surface := s.ctrl.Surface()
	if surface.Disposed() {
		return false, translate(canvas.ErrDisposed)
	}
	o, ok := surface.ObjectAt(x, y)
	if !ok {
		surface.DiscardActive()
		return false, nil
	}
	if err := surface.SetActive(o.ID); err != nil {
		return false, translate(err)
	}
	return true, nil
}

// Deselect clears the active selection.
func (s *Session) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.Surface().DiscardActive()
}

// ApplyText applies style to the selected text object.
func (s *Session) ApplyText(style editor.TextStyle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return translate(s.text.Apply(s.ctrl.Surface(), style))
}

// EditActive changes the text or placement of the selected object.
func (s *Session) EditActive(edit editor.ObjectEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return translate(editor.ApplyEdit(s.ctrl.Surface(), edit))
}

// DeleteActive removes the selected object from the page.
func (s *Session) DeleteActive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := editor.DeleteActive(s.ctrl.Surface())
	return translate(err)
}

// Save persists the page on the surface through bridge. Saving is refused
// while the current page has failed to load.
func (s *Session) Save(ctx context.Context, bridge *design.Bridge) (*design.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settle(ctx)
	if err := s.ctrl.Failure(); err != nil {
		return nil, err
	}
	index := s.ctrl.LoadedPage()
	if index < 0 || s.ctrl.Loading() {
		return nil, &apperr.RenderError{Page: s.ctrl.CurrentPage(), Err: errors.New("page is still loading")}
	}
	return bridge.Save(ctx, s.OwnerID, s.MemorialID, s.ProductID, index, s.ctrl.Surface().Snapshot())
}

// translate maps editor and surface errors to API categories.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, canvas.ErrNoSelection):
		return apperr.Validation("selection", "No object selected")
	case errors.Is(err, editor.ErrNotText):
		return apperr.Validation("selection", "Selected object is not text")
	case errors.Is(err, editor.ErrNotEditable):
		return apperr.Validation("selection", "Selected text is not editable")
	case errors.Is(err, canvas.ErrNoObject), errors.Is(err, canvas.ErrDisposed):
		return fmt.Errorf("%w: %w", apperr.ErrNotFound, err)
	default:
		return err
	}
}
