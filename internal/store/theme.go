// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rhpbdev/legacyprints/internal/models"
)

// ThemeStore reads themes. Themes are authored outside the application,
// so the store has no write path.
type ThemeStore struct {
	db *sql.DB
}

// NewThemeStore creates a new ThemeStore.
func NewThemeStore(db *sql.DB) *ThemeStore {
	return &ThemeStore{db: db}
}

// themeColumns lists the columns selected in theme queries.
const themeColumns = `id, name, type, description, data, is_active`

// scanTheme scans a theme row and decodes its page data.
func scanTheme(scanner interface{ Scan(...any) error }) (*models.Theme, error) {
	var (
		t    models.Theme
		data []byte
	)
	if err := scanner.Scan(&t.ID, &t.Name, &t.Layout, &t.Description, &data, &t.Active); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &t.Data); err != nil {
			return nil, fmt.Errorf("decode theme %d data: %w", t.ID, err)
		}
	}
	return &t, nil
}

// List returns the active themes ordered by name.
func (s *ThemeStore) List(ctx context.Context) ([]models.Theme, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+themeColumns+`
		FROM themes
		WHERE is_active = TRUE
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	defer rows.Close()

	var items []models.Theme
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// FindByID retrieves a theme by id. Returns nil if not found.
func (s *ThemeStore) FindByID(ctx context.Context, id int64) (*models.Theme, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+themeColumns+` FROM themes WHERE id = $1`, id)
	t, err := scanTheme(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find theme by id: %w", err)
	}
	return t, nil
}
