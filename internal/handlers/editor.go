// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rhpbdev/legacyprints/internal/apperr"
	"github.com/rhpbdev/legacyprints/internal/design"
	"github.com/rhpbdev/legacyprints/internal/editor"
	"github.com/rhpbdev/legacyprints/internal/session"
)

// Editor groups the editor session handlers. Each session holds one
// canvas controller bound to a memorial product.
type Editor struct {
	sessions *session.Registry
	designs  *design.Bridge
}

// NewEditor creates the editor handlers.
func NewEditor(sessions *session.Registry, designs *design.Bridge) *Editor {
	return &Editor{sessions: sessions, designs: designs}
}

type openRequest struct {
	MemorialID int64     `json:"memorialId"`
	ProductID  uuid.UUID `json:"productId"`
}

// session resolves {sid} for the caller.
func (h *Editor) session(r *http.Request) (*session.Session, error) {
	ownerID, err := owner(r)
	if err != nil {
		return nil, err
	}
	return h.sessions.Get(ownerID, chi.URLParam(r, "sid"))
}

// Open handles POST /editor.
func (h *Editor) Open(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req openRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.MemorialID <= 0 {
		writeError(w, r, apperr.Validation("memorialId", "Memorial ID is required"))
		return
	}
	if req.ProductID == uuid.Nil {
		writeError(w, r, apperr.Validation("productId", "Product ID is required"))
		return
	}

	s, err := h.sessions.Open(r.Context(), ownerID, req.MemorialID, req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.State())
}

// Fonts handles GET /editor/fonts.
func (h *Editor) Fonts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"families": h.sessions.Families()})
}

// State handles GET /editor/{sid}.
func (h *Editor) State(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

// Next handles POST /editor/{sid}/next.
func (h *Editor) Next(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.Next(r.Context())
	writeJSON(w, http.StatusOK, s.State())
}

// Previous handles POST /editor/{sid}/previous.
func (h *Editor) Previous(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.Previous(r.Context())
	writeJSON(w, http.StatusOK, s.State())
}

// GoTo handles POST /editor/{sid}/goto/{index}. An index outside the
// document leaves the session on its current page.
func (h *Editor) GoTo(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, r, apperr.Validation("index", "Page index must be a whole number"))
		return
	}
	s.GoTo(r.Context(), index)
	writeJSON(w, http.StatusOK, s.State())
}

// Select handles POST /editor/{sid}/select/{objectID}.
func (h *Editor) Select(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.Select(chi.URLParam(r, "objectID")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

// SelectAt handles POST /editor/{sid}/select-at?x=&y=, a click at surface
// coordinates. A click on empty space clears the selection.
func (h *Editor) SelectAt(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	x, err := coordParam(r, "x")
	if err != nil {
		writeError(w, r, err)
		return
	}
	y, err := coordParam(r, "y")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.SelectAt(x, y); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

// coordParam reads a finite surface coordinate from the query string.
func coordParam(r *http.Request, name string) (float64, error) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperr.Validation(name, "Coordinates must be numbers")
	}
	return v, nil
}

// Deselect handles DELETE /editor/{sid}/select.
func (h *Editor) Deselect(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.Deselect()
	writeJSON(w, http.StatusOK, s.State())
}

// TextStyle handles PUT /editor/{sid}/text-style.
func (h *Editor) TextStyle(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var style editor.TextStyle
	if err := decodeJSON(r, &style); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ApplyText(style); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

// EditActive handles PUT /editor/{sid}/active. The body carries new text
// and transform values for the selected object.
func (h *Editor) EditActive(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var edit editor.ObjectEdit
	if err := decodeJSON(r, &edit); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.EditActive(edit); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

// DeleteActive handles DELETE /editor/{sid}/active.
func (h *Editor) DeleteActive(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.DeleteActive(); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

// Save handles POST /editor/{sid}/save.
func (h *Editor) Save(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.Save(r.Context(), h.designs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDesignResponse(rec))
}

// Close handles DELETE /editor/{sid}.
func (h *Editor) Close(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sessions.Close(ownerID, chi.URLParam(r, "sid")); err != nil {
		writeError(w, r, fmt.Errorf("close editor: %w", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
