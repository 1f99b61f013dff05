// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProductCategory groups purchasable products.
type ProductCategory string

const (
	CategoryPrograms  ProductCategory = "programs"
	CategoryCards     ProductCategory = "cards"
	CategoryBookmarks ProductCategory = "bookmarks"
	CategoryOther     ProductCategory = "other"
)

// Product is a printable item a memorial can be ordered on.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"productName"`
	Category    ProductCategory `json:"productCategory"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// IsProgram reports whether the product is a folded program, whose name
// has to match the memorial's theme layout.
func (p *Product) IsProgram() bool {
	return strings.EqualFold(string(p.Category), string(CategoryPrograms))
}

// MemorialProduct joins a memorial to a product and holds the per-product
// design. SavedData is the raw stored document; "{}" means the design was
// never customized.
type MemorialProduct struct {
	ID         uuid.UUID       `json:"id"`
	MemorialID int64           `json:"memorialId"`
	ProductID  uuid.UUID       `json:"productId"`
	SavedData  json.RawMessage `json:"savedData"`
	InOrder    bool            `json:"inOrder"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// MemorialProductView is a memorial product listed with its product.
type MemorialProductView struct {
	MemorialProduct
	Product Product `json:"product"`
}

// FilterByLayout drops program products whose name does not match the
// layout. Non-program products are always kept.
func FilterByLayout(items []MemorialProductView, layout ThemeLayout) []MemorialProductView {
	out := make([]MemorialProductView, 0, len(items))
	for _, it := range items {
		if it.Product.IsProgram() && !layout.Matches(it.Product.Name) {
			continue
		}
		out = append(out, it)
	}
	return out
}
