// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rhpbdev/legacyprints/internal/models"
)

// MemorialProductStore handles the per-product design rows of memorials.
// Ownership is checked through the parent memorial.
type MemorialProductStore struct {
	db *sql.DB
}

// NewMemorialProductStore creates a new MemorialProductStore.
func NewMemorialProductStore(db *sql.DB) *MemorialProductStore {
	return &MemorialProductStore{db: db}
}

const memorialProductColumns = `mp.id, mp.memorial_id, mp.product_id, mp.saved_data, mp.in_order, mp.created_at, mp.updated_at`

func scanMemorialProduct(scanner interface{ Scan(...any) error }, extra ...any) (*models.MemorialProduct, error) {
	var (
		mp   models.MemorialProduct
		data []byte
	)
	dest := append([]any{&mp.ID, &mp.MemorialID, &mp.ProductID, &data, &mp.InOrder, &mp.CreatedAt, &mp.UpdatedAt}, extra...)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	mp.SavedData = json.RawMessage(data)
	return &mp, nil
}

// GetMemorialProductData returns the design row for a memorial product.
// Returns nil if the row does not exist or belongs to another owner.
func (s *MemorialProductStore) GetMemorialProductData(ctx context.Context, memorialID int64, productID uuid.UUID, ownerID string) (*models.MemorialProduct, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+memorialProductColumns+`
		FROM memorial_products mp
		JOIN memorials m ON m.id = mp.memorial_id
		WHERE mp.memorial_id = $1 AND mp.product_id = $2 AND m.user_id = $3
	`, memorialID, productID, ownerID)
	mp, err := scanMemorialProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memorial product data: %w", err)
	}
	return mp, nil
}

// SaveDesignData replaces the stored design. Returns nil if the row does
// not exist or belongs to another owner.
func (s *MemorialProductStore) SaveDesignData(ctx context.Context, memorialID int64, productID uuid.UUID, ownerID string, data json.RawMessage) (*models.MemorialProduct, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE memorial_products mp SET saved_data = $1::jsonb, updated_at = NOW()
		FROM memorials m
		WHERE m.id = mp.memorial_id
		  AND mp.memorial_id = $2 AND mp.product_id = $3 AND m.user_id = $4
		RETURNING `+memorialProductColumns,
		string(data), memorialID, productID, ownerID,
	)
	mp, err := scanMemorialProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("save design data: %w", err)
	}
	return mp, nil
}

// ToggleOrder flips whether the product is part of the order. Returns
// nil if the row does not exist or belongs to another owner.
func (s *MemorialProductStore) ToggleOrder(ctx context.Context, memorialID int64, productID uuid.UUID, ownerID string) (*models.MemorialProduct, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE memorial_products mp SET in_order = NOT mp.in_order, updated_at = NOW()
		FROM memorials m
		WHERE m.id = mp.memorial_id
		  AND mp.memorial_id = $1 AND mp.product_id = $2 AND m.user_id = $3
		RETURNING `+memorialProductColumns,
		memorialID, productID, ownerID,
	)
	mp, err := scanMemorialProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("toggle memorial product order: %w", err)
	}
	return mp, nil
}

// ListByMemorial returns the memorial's products joined with the catalog.
func (s *MemorialProductStore) ListByMemorial(ctx context.Context, memorialID int64, ownerID string) ([]models.MemorialProductView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+memorialProductColumns+`,
		       p.id, p.product_name, p.product_category, p.description, p.created_at, p.updated_at
		FROM memorial_products mp
		JOIN memorials m ON m.id = mp.memorial_id
		JOIN products p ON p.id = mp.product_id
		WHERE mp.memorial_id = $1 AND m.user_id = $2
		ORDER BY p.product_category, p.product_name
	`, memorialID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list memorial products: %w", err)
	}
	defer rows.Close()

	items := []models.MemorialProductView{}
	for rows.Next() {
		var p models.Product
		mp, err := scanMemorialProduct(rows,
			&p.ID, &p.Name, &p.Category, &p.Description, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan memorial product: %w", err)
		}
		items = append(items, models.MemorialProductView{MemorialProduct: *mp, Product: p})
	}
	return items, rows.Err()
}
