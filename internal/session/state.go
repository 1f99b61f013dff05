// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package session

import (
	"github.com/google/uuid"

	"github.com/rhpbdev/legacyprints/internal/apperr"
	"github.com/rhpbdev/legacyprints/internal/canvas"
	"github.com/rhpbdev/legacyprints/internal/editor"
	"github.com/rhpbdev/legacyprints/internal/models"
	"github.com/rhpbdev/legacyprints/internal/scene"
)

// Selection describes the active object.
type Selection struct {
	ID    string            `json:"id"`
	Type  string            `json:"type"`
	Name  string            `json:"name,omitempty"`
	Style *editor.TextStyle `json:"textStyle,omitempty"`
	Box   *scene.Rect       `json:"box,omitempty"`
}

// State is the client view of a session.
type State struct {
	ID          string             `json:"id"`
	MemorialID  int64              `json:"memorialId"`
	ProductID   uuid.UUID          `json:"productId"`
	Layout      models.ThemeLayout `json:"layout"`
	Dimensions  canvas.Dimensions  `json:"dimensions"`
	Status      string             `json:"status"`
	Page        int                `json:"page"`
	LoadedPage  int                `json:"loadedPage"`
	TotalPages  int                `json:"totalPages"`
	Loading     bool               `json:"loading"`
	Interactive bool               `json:"interactive"`
	Failure     string             `json:"failure,omitempty"`
	Current     *scene.Page        `json:"current,omitempty"`
	Selection   *Selection         `json:"selection,omitempty"`
}

// State snapshots the session. Current is omitted while no page is shown.
func (s *Session) State() State {
	surface := s.ctrl.Surface()
	st := State{
		ID:          s.ID,
		MemorialID:  s.MemorialID,
		ProductID:   s.ProductID,
		Layout:      s.Layout,
		Dimensions:  s.ctrl.Dimensions(),
		Status:      s.ctrl.State().String(),
		Page:        s.ctrl.CurrentPage(),
		LoadedPage:  s.ctrl.LoadedPage(),
		TotalPages:  s.ctrl.TotalPages(),
		Loading:     s.ctrl.Loading(),
		Interactive: surface.Interactive(),
	}
	if err := s.ctrl.Failure(); err != nil {
		st.Failure = apperr.Message(err)
	}
	if st.LoadedPage >= 0 {
		page := surface.Snapshot()
		st.Current = &page
	}
	if o, ok := surface.Active(); ok {
		sel := &Selection{ID: o.ID, Type: o.Type(), Name: o.Name}
		if box, ok := o.Coords(); ok {
			sel.Box = &box
		}
		if style, ok := s.text.Current(); ok {
			sel.Style = &style
		}
		st.Selection = sel
	}
	return st
}
