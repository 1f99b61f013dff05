// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

// Package editor implements the property editors that act on the current
// selection of a canvas surface. Editors never keep a surface: it is
// passed into every call and its liveness is checked there.
package editor

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/rhpbdev/legacyprints/internal/apperr"
	"github.com/rhpbdev/legacyprints/internal/canvas"
	"github.com/rhpbdev/legacyprints/internal/fonts"
	"github.com/rhpbdev/legacyprints/internal/scene"
)

// Editor errors.
var (
	ErrNoSelection = canvas.ErrNoSelection
	ErrNotText     = errors.New("Selected object is not text")
)

// TextStyle is the editable typography of a text object.
type TextStyle struct {
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
	TextAlign  string  `json:"textAlign"`
	Fill       string  `json:"fill,omitempty"`
}

// Validate checks the style before it touches a surface.
func (s TextStyle) Validate() error {
	if s.FontSize <= 0 {
		return apperr.Validation("fontSize", "Font size must be greater than zero")
	}
	if strings.TrimSpace(s.FontFamily) == "" {
		return apperr.Validation("fontFamily", "Font family is required")
	}
	if !slices.Contains(scene.TextAlignments, s.TextAlign) {
		return apperr.Validation("textAlign", "Text alignment must be left, center, right or justify")
	}
	return nil
}

func styleOf(o *scene.Object) TextStyle {
	return TextStyle{
		FontSize:   o.Text.FontSize,
		FontFamily: o.Text.FontFamily,
		TextAlign:  o.Text.TextAlign,
		Fill:       o.Text.Fill,
	}
}

// TextSettings mirrors the style of the selected text object and applies
// style changes to it.
type TextSettings struct {
	fonts *fonts.Registry

	mu       sync.Mutex
	style    TextStyle
	selected bool
}

// NewTextSettings creates a text editor. With a registry, unknown
// families resolve to the fallback family.
func NewTextSettings(registry *fonts.Registry) *TextSettings {
	return &TextSettings{fonts: registry}
}

// Attach subscribes to selection changes on s and returns the function
// that unsubscribes.
func (t *TextSettings) Attach(s *canvas.Surface) (detach func()) {
	ids := []canvas.ListenerID{
		s.On(canvas.EventSelectionCreated, t.onSelect),
		s.On(canvas.EventSelectionUpdated, t.onSelect),
		s.On(canvas.EventObjectModified, t.onSelect),
		s.On(canvas.EventSelectionCleared, t.onClear),
	}
	if o, ok := s.Active(); ok {
		t.onSelect(canvas.Event{Object: o})
	}
	return func() {
		for _, id := range ids {
			s.Off(id)
		}
		t.onClear(canvas.Event{})
	}
}

func (t *TextSettings) onSelect(ev canvas.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ev.Object == nil || ev.Object.Kind() != scene.KindText {
		t.selected = false
		t.style = TextStyle{}
		return
	}
	t.selected = true
	t.style = styleOf(ev.Object)
}

func (t *TextSettings) onClear(canvas.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selected = false
	t.style = TextStyle{}
}

// Current returns the mirrored style and whether a text object is
// selected.
func (t *TextSettings) Current() (TextStyle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.style, t.selected
}

// Apply validates style and writes it to the selected text object. An
// empty Fill keeps the current color.
func (t *TextSettings) Apply(s *canvas.Surface, style TextStyle) error {
	if err := style.Validate(); err != nil {
		return err
	}
	if s == nil || s.Disposed() {
		return canvas.ErrDisposed
	}
	if t.fonts != nil {
		style.FontFamily = t.fonts.Resolve(style.FontFamily)
	}
	return s.UpdateActive(func(o *scene.Object) error {
		if o.Kind() != scene.KindText {
			return ErrNotText
		}
		o.Text.FontSize = style.FontSize
		o.Text.FontFamily = style.FontFamily
		o.Text.TextAlign = style.TextAlign
		if style.Fill != "" {
			o.Text.Fill = style.Fill
		}
		return nil
	})
}

// DeleteActive removes the selected object from s.
func DeleteActive(s *canvas.Surface) (*scene.Object, error) {
	if s == nil || s.Disposed() {
		return nil, canvas.ErrDisposed
	}
	return s.RemoveActive()
}
