// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rhpbdev/legacyprints/internal/apperr"
	"github.com/rhpbdev/legacyprints/internal/cache"
	"github.com/rhpbdev/legacyprints/internal/markdown"
	"github.com/rhpbdev/legacyprints/internal/middleware"
	"github.com/rhpbdev/legacyprints/internal/models"
)

// ThemeStore is the theme catalog.
type ThemeStore interface {
	ThemeFinder
	List(ctx context.Context) ([]models.Theme, error)
}

// Themes groups the theme catalog handlers.
type Themes struct {
	store ThemeStore
	cache *cache.ThemeCache
}

// NewThemes creates the theme handlers. cache may be nil.
func NewThemes(s ThemeStore, c *cache.ThemeCache) *Themes {
	return &Themes{store: s, cache: c}
}

// FindByID reads a theme through the cache. It satisfies ThemeFinder so
// the other handlers share the cached path.
func (h *Themes) FindByID(ctx context.Context, id int64) (*models.Theme, error) {
	return h.cache.Fetch(ctx, id, h.store.FindByID)
}

// themeSummary is a catalog entry without the page data.
type themeSummary struct {
	ID              int64              `json:"id"`
	Name            string             `json:"name"`
	Layout          models.ThemeLayout `json:"type"`
	Description     string             `json:"description"`
	DescriptionHTML string             `json:"descriptionHtml"`
	Summary         string             `json:"summary"`
	Pages           int                `json:"pages"`
}

// summaryLength bounds the catalog card teaser.
const summaryLength = 140

// List handles GET /themes.
func (h *Themes) List(w http.ResponseWriter, r *http.Request) {
	themes, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, r, apperr.Storage("list themes", err))
		return
	}

	items := make([]themeSummary, 0, len(themes))
	for _, t := range themes {
		descHTML, err := markdown.ToHTML(t.Description)
		if err != nil {
			middleware.Log(r.Context()).Warn("theme description render failed", "theme_id", t.ID, "error", err)
		}
		items = append(items, themeSummary{
			ID:              t.ID,
			Name:            t.Name,
			Layout:          t.Layout,
			Description:     t.Description,
			DescriptionHTML: descHTML,
			Summary:         markdown.Summary(t.Description, summaryLength),
			Pages:           len(t.Data.Pages),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// Get handles GET /themes/{id}.
func (h *Themes) Get(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, apperr.Storage("find theme", err))
		return
	}
	if t == nil {
		writeError(w, r, fmt.Errorf("%w: theme %d", apperr.ErrNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, t)
}
