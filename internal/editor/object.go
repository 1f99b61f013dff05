// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package editor

import (
	"errors"
	"math"
	"unicode/utf8"

	"github.com/rhpbdev/legacyprints/internal/apperr"
	"github.com/rhpbdev/legacyprints/internal/canvas"
	"github.com/rhpbdev/legacyprints/internal/scene"
)

// Object edit bounds.
const (
	MaxTextLength = 2000
	MaxScale      = 20.0
)

// ErrNotEditable is returned when new text targets a text object that is
// not editable.
var ErrNotEditable = errors.New("Selected text is not editable")

// ObjectEdit changes the content and placement of the selected object, as
// a drag, scale, rotate or in-place typing would. Nil fields keep their
// current value.
type ObjectEdit struct {
	Text   *string  `json:"text,omitempty"`
	Left   *float64 `json:"left,omitempty"`
	Top    *float64 `json:"top,omitempty"`
	ScaleX *float64 `json:"scaleX,omitempty"`
	ScaleY *float64 `json:"scaleY,omitempty"`
	Angle  *float64 `json:"angle,omitempty"`
}

// Empty reports whether the edit changes nothing.
func (e ObjectEdit) Empty() bool {
	return e.Text == nil && e.Left == nil && e.Top == nil &&
		e.ScaleX == nil && e.ScaleY == nil && e.Angle == nil
}

// Validate checks the edit before it touches a surface.
func (e ObjectEdit) Validate() error {
	if e.Empty() {
		return apperr.Validation("edit", "Nothing to change")
	}
	if e.Text != nil && utf8.RuneCountInString(*e.Text) > MaxTextLength {
		return apperr.Validation("text", "Text is too long")
	}
	nums := []struct {
		field string
		v     *float64
	}{
		{"left", e.Left}, {"top", e.Top}, {"scaleX", e.ScaleX}, {"scaleY", e.ScaleY}, {"angle", e.Angle},
	}
	for _, n := range nums {
		if n.v != nil && (math.IsNaN(*n.v) || math.IsInf(*n.v, 0)) {
			return apperr.Validation(n.field, "Value must be a finite number")
		}
	}
	for _, n := range nums[2:4] {
		if n.v != nil && (*n.v <= 0 || *n.v > MaxScale) {
			return apperr.Validation(n.field, "Scale must be greater than zero and at most 20")
		}
	}
	return nil
}

// ApplyEdit validates edit and writes it to the selected object of s.
// Angles are kept within [0, 360). The surface recommits the object's
// coordinates and emits an object-modified event.
func ApplyEdit(s *canvas.Surface, edit ObjectEdit) error {
	if err := edit.Validate(); err != nil {
		return err
	}
	if s == nil || s.Disposed() {
		return canvas.ErrDisposed
	}
	return s.UpdateActive(func(o *scene.Object) error {
		if edit.Text != nil {
			if o.Kind() != scene.KindText {
				return ErrNotText
			}
			if !o.Text.Editable {
				return ErrNotEditable
			}
		}
		if edit.Text != nil {
			o.Text.Text = *edit.Text
		}
		if edit.Left != nil {
			o.Left = *edit.Left
		}
		if edit.Top != nil {
			o.Top = *edit.Top
		}
		if edit.ScaleX != nil {
			o.ScaleX = *edit.ScaleX
		}
		if edit.ScaleY != nil {
			o.ScaleY = *edit.ScaleY
		}
		if edit.Angle != nil {
			o.Angle = normalizeAngle(*edit.Angle)
		}
		return nil
	})
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
