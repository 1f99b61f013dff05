// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rhpbdev/legacyprints/internal/apperr"
	"github.com/rhpbdev/legacyprints/internal/design"
	"github.com/rhpbdev/legacyprints/internal/models"
)

// MemorialFinder loads a memorial of ownerID, (nil, nil) if absent.
type MemorialFinder interface {
	FindByID(ctx context.Context, id int64, ownerID string) (*models.Memorial, error)
}

// MemorialProductStore is the memorial product persistence used by the
// product handlers.
type MemorialProductStore interface {
	ToggleOrder(ctx context.Context, memorialID int64, productID uuid.UUID, ownerID string) (*models.MemorialProduct, error)
	ListByMemorial(ctx context.Context, memorialID int64, ownerID string) ([]models.MemorialProductView, error)
}

// Products groups the memorial product handlers.
type Products struct {
	memorials MemorialFinder
	themes    ThemeFinder
	products  MemorialProductStore
	designs   *design.Bridge
}

// NewProducts creates the product handlers.
func NewProducts(memorials MemorialFinder, themes ThemeFinder, products MemorialProductStore, designs *design.Bridge) *Products {
	return &Products{memorials: memorials, themes: themes, products: products, designs: designs}
}

// designResponse is the stored design of one memorial product.
type designResponse struct {
	SavedData  json.RawMessage `json:"savedData"`
	InOrder    bool            `json:"inOrder"`
	Customized bool            `json:"customized"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func newDesignResponse(rec *design.Record) designResponse {
	return designResponse{
		SavedData:  rec.SavedData(),
		InOrder:    rec.InOrder,
		Customized: rec.Customized,
		UpdatedAt:  rec.UpdatedAt,
	}
}

// List handles GET /memorials/{id}/products. Program products are listed
// only when their name matches the layout of the memorial's theme.
func (h *Products) List(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := int64Param(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.memorials.FindByID(r.Context(), id, ownerID)
	if err != nil {
		writeError(w, r, apperr.Storage("find memorial", err))
		return
	}
	if m == nil {
		writeError(w, r, fmt.Errorf("%w: memorial %d", apperr.ErrNotFound, id))
		return
	}

	var layout models.ThemeLayout
	if m.ThemeID > 0 {
		theme, err := h.themes.FindByID(r.Context(), m.ThemeID)
		if err != nil {
			writeError(w, r, apperr.Storage("find theme", err))
			return
		}
		if theme != nil {
			layout = theme.Layout
		}
	}

	items, err := h.products.ListByMemorial(r.Context(), m.ID, ownerID)
	if err != nil {
		writeError(w, r, apperr.Storage("list products", err))
		return
	}
	writeJSON(w, http.StatusOK, models.FilterByLayout(items, layout))
}

// Data handles GET /memorials/{id}/products/{productID}.
func (h *Products) Data(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := int64Param(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	productID, err := uuidParam(r, "productID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.designs.Read(r.Context(), ownerID, id, productID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDesignResponse(rec))
}

// ToggleOrder handles PUT /memorials/{id}/products/{productID}/order.
func (h *Products) ToggleOrder(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := int64Param(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	productID, err := uuidParam(r, "productID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	mp, err := h.products.ToggleOrder(r.Context(), id, productID, ownerID)
	if err != nil {
		writeError(w, r, apperr.Storage("toggle order", err))
		return
	}
	if mp == nil {
		writeError(w, r, fmt.Errorf("%w: product %s", apperr.ErrNotFound, productID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"inOrder":   mp.InOrder,
		"updatedAt": mp.UpdatedAt,
	})
}

// ProductLister reads the product catalog.
type ProductLister interface {
	List(ctx context.Context) ([]models.Product, error)
}

// Catalog serves GET /products, the products every memorial is created
// with.
type Catalog struct {
	products ProductLister
}

// NewCatalog creates the catalog handler.
func NewCatalog(p ProductLister) *Catalog {
	return &Catalog{products: p}
}

func (h *Catalog) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	items, err := h.products.List(r.Context())
	if err != nil {
		writeError(w, r, apperr.Storage("list catalog", err))
		return
	}
	if items == nil {
		items = []models.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": items})
}
