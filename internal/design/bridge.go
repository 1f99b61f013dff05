// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package design

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rhpbdev/legacyprints/internal/apperr"
	"github.com/rhpbdev/legacyprints/internal/models"
	"github.com/rhpbdev/legacyprints/internal/scene"
)

// Store is the relational storage the bridge reads and writes. A missing
// row is reported as (nil, nil).
type Store interface {
	GetMemorialProductData(ctx context.Context, memorialID int64, productID uuid.UUID, ownerID string) (*models.MemorialProduct, error)
	SaveDesignData(ctx context.Context, memorialID int64, productID uuid.UUID, ownerID string, data json.RawMessage) (*models.MemorialProduct, error)
}

// Record is a stored design as seen by callers. Document is nil when the
// product was never customized.
type Record struct {
	Document   *scene.Document `json:"-"`
	Customized bool            `json:"customized"`
	InOrder    bool            `json:"inOrder"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// SavedData returns the document in its stored form, "{}" when the
// product was never customized.
func (r *Record) SavedData() json.RawMessage {
	if r == nil || r.Document == nil {
		return json.RawMessage("{}")
	}
	data, err := json.Marshal(r.Document)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}

// Bridge reads and saves per-product designs.
type Bridge struct {
	store Store
}

// NewBridge creates a Bridge over store.
func NewBridge(store Store) *Bridge {
	return &Bridge{store: store}
}

// Read returns the stored design for (memorialID, productID).
// apperr.ErrNotFound means the row does not exist; a *apperr.StorageError
// means the lookup itself failed.
func (b *Bridge) Read(ctx context.Context, ownerID string, memorialID int64, productID uuid.UUID) (*Record, error) {
	if ownerID == "" {
		return nil, apperr.ErrUnauthorized
	}
	mp, err := b.store.GetMemorialProductData(ctx, memorialID, productID, ownerID)
	if err != nil {
		return nil, apperr.Storage("read design", err)
	}
	if mp == nil {
		return nil, fmt.Errorf("memorial %d product %s: %w", memorialID, productID, apperr.ErrNotFound)
	}

	doc, customized, err := scene.ParseSaved(mp.SavedData)
	if err != nil {
		return nil, apperr.Storage("decode design", err)
	}
	return &Record{
		Document:   doc,
		Customized: customized,
		InOrder:    mp.InOrder,
		UpdatedAt:  mp.UpdatedAt,
	}, nil
}

// Save merges current into the stored design at index and writes the
// result. Nothing is cached locally: a failed save leaves the stored
// design as it was.
func (b *Bridge) Save(ctx context.Context, ownerID string, memorialID int64, productID uuid.UUID, index int, current scene.Page) (*Record, error) {
	if index < 0 {
		return nil, apperr.Validation("pageIndex", "Page index must not be negative")
	}
	existing, err := b.Read(ctx, ownerID, memorialID, productID)
	if err != nil {
		return nil, err
	}

	merged := Merge(existing.Document, index, current)
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode design: %w", err)
	}
	if err := scene.Validate(data); err != nil {
		var se *scene.SchemaError
		if errors.As(err, &se) {
			slog.Warn("design rejected by schema", "memorial_id", memorialID, "product_id", productID, "violations", se.Violations)
			return nil, apperr.Validation("savedData", "The design could not be saved because it contains invalid content")
		}
		return nil, err
	}

	mp, err := b.store.SaveDesignData(ctx, memorialID, productID, ownerID, data)
	if err != nil {
		return nil, apperr.Storage("save design", err)
	}
	if mp == nil {
		return nil, fmt.Errorf("memorial %d product %s: %w", memorialID, productID, apperr.ErrNotFound)
	}

	slog.Info("design saved", "memorial_id", memorialID, "product_id", productID, "page", index, "pages", len(merged.Pages))
	return &Record{
		Document:   &merged,
		Customized: true,
		InOrder:    mp.InOrder,
		UpdatedAt:  mp.UpdatedAt,
	}, nil
}
