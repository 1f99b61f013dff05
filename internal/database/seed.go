// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rhpbdev/legacyprints/internal/placeholder"
	"github.com/rhpbdev/legacyprints/internal/scene"
)

type seedProduct struct {
	name     string
	category string
	desc     string
}

var defaultProducts = []seedProduct{
	{"Bifold", "programs", "Folded funeral program with four panels."},
	{"Trifold", "programs", "Folded funeral program with six panels."},
	{"Prayer Card", "cards", "Wallet-sized card with a photo and a prayer."},
	{"Thank You Card", "cards", "Acknowledgement card for family and friends."},
	{"Bookmark", "bookmarks", "Laminated bookmark keepsake."},
}

// Seed populates the database with the default product catalog and a
// starter theme for development. Tables that already hold rows are left
// alone.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return fmt.Errorf("seed check products: %w", err)
	}
	if count == 0 {
		for _, p := range defaultProducts {
			_, err := db.ExecContext(ctx, `
				INSERT INTO products (product_name, product_category, description)
				VALUES ($1, $2, $3)
				ON CONFLICT (product_name) DO NOTHING
			`, p.name, p.category, p.desc)
			if err != nil {
				return fmt.Errorf("seed insert product %s: %w", p.name, err)
			}
		}
		slog.Info("database seeded with default products", "count", len(defaultProducts))
	}

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM themes").Scan(&count); err != nil {
		return fmt.Errorf("seed check themes: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping themes")
		return nil
	}

	data, err := json.Marshal(starterTheme())
	if err != nil {
		return fmt.Errorf("seed encode theme: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO themes (name, type, description, data)
		VALUES ($1, $2, $3, $4)
	`, "Dove", "bifold", "A quiet **white dove** over soft linen.\n\nFits most services.", data)
	if err != nil {
		return fmt.Errorf("seed insert theme: %w", err)
	}
	slog.Info("database seeded with starter theme", "name", "Dove")
	return nil
}

// starterTheme builds a two-page bifold with every placeholder on it.
func starterTheme() scene.Document {
	title := scene.NewText(placeholder.TokenDeceasedName.Marker())
	title.Left, title.Top = 100, 380
	title.Text.FontFamily = "Pinyon Script"
	title.Text.FontSize = 48
	title.Text.TextAlign = "center"

	dates := scene.NewText(placeholder.TokenSunriseDate.Marker() + " - " + placeholder.TokenSunsetDate.Marker())
	dates.Left, dates.Top = 100, 460
	dates.Text.FontSize = 20
	dates.Text.TextAlign = "center"

	photo := scene.NewImage(placeholder.CoverPhotoSlot, "/placeholder-image.jpg")
	photo.Left, photo.Top, photo.Width, photo.Height = 250, 60, 300, 300

	service := scene.NewText("Service\n" + placeholder.TokenServiceDatetime.Marker() + "\n" +
		placeholder.TokenServiceLocation.Marker() + "\n" + placeholder.TokenServiceAddress.Marker())
	service.Left, service.Top = 80, 120
	service.Text.FontSize = 22

	return scene.Document{Pages: []scene.Page{
		{Objects: []*scene.Object{photo, title, dates}, Version: scene.DefaultVersion, Background: "#fbf8f3"},
		{Objects: []*scene.Object{service}, Version: scene.DefaultVersion, Background: "#fbf8f3"},
	}}
}
