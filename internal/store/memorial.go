// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rhpbdev/legacyprints/internal/models"
)

// MemorialStore handles memorial rows. Every query is scoped to the
// owning user; a memorial of another owner behaves as if it did not exist.
type MemorialStore struct {
	db *sql.DB
}

// NewMemorialStore creates a new MemorialStore.
func NewMemorialStore(db *sql.DB) *MemorialStore {
	return &MemorialStore{db: db}
}

const memorialColumns = `id, user_id, deceased_name, deceased_photo_url, quantity,
	sunrise_date, sunset_date, service_date, service_time,
	service_location, service_address, theme_id, created_at, updated_at`

func scanMemorial(scanner interface{ Scan(...any) error }) (*models.Memorial, error) {
	var m models.Memorial
	err := scanner.Scan(
		&m.ID, &m.OwnerID, &m.DeceasedName, &m.DeceasedPhotoURL, &m.Quantity,
		&m.SunriseDate, &m.SunsetDate, &m.ServiceDate, &m.ServiceTime,
		&m.ServiceLocation, &m.ServiceAddress, &m.ThemeID, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a memorial and one memorial_products row per catalog
// product in a single transaction. It returns the memorial and the number
// of product rows created, which is zero when the catalog is empty.
func (s *MemorialStore) Create(ctx context.Context, m *models.Memorial) (*models.Memorial, int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO memorials (user_id, deceased_name, deceased_photo_url, quantity,
			sunrise_date, sunset_date, service_date, service_time,
			service_location, service_address, theme_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+memorialColumns,
		m.OwnerID, m.DeceasedName, m.DeceasedPhotoURL, m.Quantity,
		m.SunriseDate, m.SunsetDate, m.ServiceDate, m.ServiceTime,
		m.ServiceLocation, m.ServiceAddress, m.ThemeID,
	)
	created, err := scanMemorial(row)
	if err != nil {
		return nil, 0, fmt.Errorf("create memorial: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO memorial_products (memorial_id, product_id)
		SELECT $1, id FROM products
	`, created.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("create memorial products: %w", err)
	}
	products, err := result.RowsAffected()
	if err != nil {
		return nil, 0, fmt.Errorf("count memorial products: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit memorial: %w", err)
	}
	return created, products, nil
}

// FindByID retrieves a memorial owned by ownerID. Returns nil if not found.
func (s *MemorialStore) FindByID(ctx context.Context, id int64, ownerID string) (*models.Memorial, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memorialColumns+` FROM memorials WHERE id = $1 AND user_id = $2`, id, ownerID)
	m, err := scanMemorial(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find memorial by id: %w", err)
	}
	return m, nil
}

// Update writes the editable fields of m. Returns nil if the memorial
// does not exist for m.OwnerID.
func (s *MemorialStore) Update(ctx context.Context, m *models.Memorial) (*models.Memorial, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE memorials SET
			deceased_name = $1, deceased_photo_url = $2, quantity = $3,
			sunrise_date = $4, sunset_date = $5, service_date = $6, service_time = $7,
			service_location = $8, service_address = $9, theme_id = $10, updated_at = NOW()
		WHERE id = $11 AND user_id = $12
		RETURNING `+memorialColumns,
		m.DeceasedName, m.DeceasedPhotoURL, m.Quantity,
		m.SunriseDate, m.SunsetDate, m.ServiceDate, m.ServiceTime,
		m.ServiceLocation, m.ServiceAddress, m.ThemeID, m.ID, m.OwnerID,
	)
	updated, err := scanMemorial(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update memorial: %w", err)
	}
	return updated, nil
}

// UpdatePhoto sets the cover photo URL. It reports false when the
// memorial does not exist for ownerID.
func (s *MemorialStore) UpdatePhoto(ctx context.Context, id int64, ownerID, url string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE memorials SET deceased_photo_url = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`, url, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("update memorial photo: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// Delete removes a memorial and, by cascade, its product rows. It reports
// false when nothing was deleted.
func (s *MemorialStore) Delete(ctx context.Context, id int64, ownerID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM memorials WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete memorial: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

const summarySelect = `
	SELECT m.id, m.deceased_name, m.quantity, m.service_date, m.deceased_photo_url,
	       COALESCE(t.name, ''), COALESCE(t.type, ''), m.created_at, m.updated_at
	FROM memorials m
	LEFT JOIN themes t ON t.id = m.theme_id`

func (s *MemorialStore) listSummaries(ctx context.Context, query string, args ...any) ([]models.MemorialSummary, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.MemorialSummary{}
	for rows.Next() {
		var ms models.MemorialSummary
		if err := rows.Scan(
			&ms.ID, &ms.DeceasedName, &ms.Quantity, &ms.ServiceDate, &ms.DeceasedPhotoURL,
			&ms.Theme, &ms.ProgramType, &ms.CreatedAt, &ms.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan memorial summary: %w", err)
		}
		items = append(items, ms)
	}
	return items, rows.Err()
}

// Recent returns the owner's most recently created memorials.
func (s *MemorialStore) Recent(ctx context.Context, ownerID string, limit int) ([]models.MemorialSummary, error) {
	items, err := s.listSummaries(ctx, summarySelect+`
		WHERE m.user_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent memorials: %w", err)
	}
	return items, nil
}

// ByMonth returns the owner's memorials whose service falls in the given
// calendar month.
func (s *MemorialStore) ByMonth(ctx context.Context, ownerID string, year, month int) ([]models.MemorialSummary, error) {
	items, err := s.listSummaries(ctx, summarySelect+`
		WHERE m.user_id = $1
		  AND m.service_date >= make_date($2, $3, 1)
		  AND m.service_date < make_date($2, $3, 1) + INTERVAL '1 month'
		ORDER BY m.created_at DESC
	`, ownerID, year, month)
	if err != nil {
		return nil, fmt.Errorf("list memorials by month: %w", err)
	}
	return items, nil
}

// EarliestServiceYear returns the year of the owner's earliest service,
// or false when the owner has no dated memorial.
func (s *MemorialStore) EarliestServiceYear(ctx context.Context, ownerID string) (int, bool, error) {
	var year sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT EXTRACT(YEAR FROM MIN(service_date))::int
		FROM memorials WHERE user_id = $1
	`, ownerID).Scan(&year)
	if err != nil {
		return 0, false, fmt.Errorf("find earliest service year: %w", err)
	}
	return int(year.Int64), year.Valid, nil
}

// YearsRange lists the years from current back to earliest, newest
// first. An earliest year after current yields just current.
func YearsRange(earliest, current int) []int {
	if earliest > current || earliest <= 0 {
		earliest = current
	}
	years := make([]int, 0, current-earliest+1)
	for y := current; y >= earliest; y-- {
		years = append(years, y)
	}
	return years
}

// MonthlyQuantity is the number of printed programs per layout for one
// month.
type MonthlyQuantity struct {
	Month   int `json:"month"`
	Bifold  int `json:"bifold"`
	Trifold int `json:"trifold"`
}

// AnnualQuantities sums memorial quantities per service month and theme
// layout for one year. All twelve months are returned.
func (s *MemorialStore) AnnualQuantities(ctx context.Context, ownerID string, year int) ([]MonthlyQuantity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT EXTRACT(MONTH FROM m.service_date)::int AS month,
		       COALESCE(SUM(CASE WHEN t.type = 'bifold' THEN m.quantity ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN t.type = 'trifold' THEN m.quantity ELSE 0 END), 0)
		FROM memorials m
		LEFT JOIN themes t ON t.id = m.theme_id
		WHERE m.user_id = $1 AND EXTRACT(YEAR FROM m.service_date) = $2
		GROUP BY month
	`, ownerID, year)
	if err != nil {
		return nil, fmt.Errorf("sum annual quantities: %w", err)
	}
	defer rows.Close()

	months := make([]MonthlyQuantity, 12)
	for i := range months {
		months[i].Month = i + 1
	}
	for rows.Next() {
		var q MonthlyQuantity
		if err := rows.Scan(&q.Month, &q.Bifold, &q.Trifold); err != nil {
			return nil, fmt.Errorf("scan annual quantity: %w", err)
		}
		if q.Month >= 1 && q.Month <= 12 {
			months[q.Month-1] = q
		}
	}
	return months, rows.Err()
}
