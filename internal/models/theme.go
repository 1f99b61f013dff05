// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"

	"github.com/rhpbdev/legacyprints/internal/scene"
)

// ThemeLayout is the fold profile of a theme. It fixes the page size.
type ThemeLayout string

const (
	LayoutBifold  ThemeLayout = "bifold"
	LayoutTrifold ThemeLayout = "trifold"
)

// Valid reports whether l is one of the known layouts.
func (l ThemeLayout) Valid() bool {
	return l == LayoutBifold || l == LayoutTrifold
}

// Matches reports whether a product name designates this layout, ignoring
// case. Program products are named after the layout they print.
func (l ThemeLayout) Matches(productName string) bool {
	return strings.EqualFold(strings.TrimSpace(productName), string(l))
}

// Theme is an administrator-authored template. Its Data holds the default
// pages with {{field}} placeholders. Themes are read-only at runtime.
type Theme struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Layout      ThemeLayout    `json:"type"`
	Description string         `json:"description"`
	Data        scene.Document `json:"data"`
	Active      bool           `json:"isActive"`
}
