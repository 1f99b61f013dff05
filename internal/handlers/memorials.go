// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rhpbdev/legacyprints/internal/apperr"
	"github.com/rhpbdev/legacyprints/internal/cache"
	"github.com/rhpbdev/legacyprints/internal/middleware"
	"github.com/rhpbdev/legacyprints/internal/models"
	"github.com/rhpbdev/legacyprints/internal/storage"
	"github.com/rhpbdev/legacyprints/internal/store"
)

// Listing limits for the dashboard.
const (
	defaultRecent = 8
	maxRecent     = 50
)

// MemorialStore is the memorial persistence used by the handlers.
type MemorialStore interface {
	Create(ctx context.Context, m *models.Memorial) (*models.Memorial, int64, error)
	FindByID(ctx context.Context, id int64, ownerID string) (*models.Memorial, error)
	Update(ctx context.Context, m *models.Memorial) (*models.Memorial, error)
	UpdatePhoto(ctx context.Context, id int64, ownerID, url string) (bool, error)
	Delete(ctx context.Context, id int64, ownerID string) (bool, error)
	Recent(ctx context.Context, ownerID string, limit int) ([]models.MemorialSummary, error)
	ByMonth(ctx context.Context, ownerID string, year, month int) ([]models.MemorialSummary, error)
	EarliestServiceYear(ctx context.Context, ownerID string) (int, bool, error)
	AnnualQuantities(ctx context.Context, ownerID string, year int) ([]store.MonthlyQuantity, error)
}

// ThemeFinder loads one theme, (nil, nil) if absent.
type ThemeFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Theme, error)
}

// ObjectStore is the slice of the asset bucket the handlers use.
type ObjectStore interface {
	storage.Lister
	storage.Deleter
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	FileURL(key string) string
	ExtractKey(rawURL string) (string, bool)
}

// Memorials groups the memorial HTTP handlers.
type Memorials struct {
	store    MemorialStore
	themes   ThemeFinder
	objects  ObjectStore
	folders  *cache.FolderCache
	validate *Validator
	now      func() time.Time
}

// NewMemorials creates the memorial handlers. objects and folders may be
// nil when object storage is not configured.
func NewMemorials(s MemorialStore, themes ThemeFinder, objects ObjectStore, folders *cache.FolderCache, v *Validator, now func() time.Time) *Memorials {
	if now == nil {
		now = time.Now
	}
	return &Memorials{
		store:    s,
		themes:   themes,
		objects:  objects,
		folders:  folders,
		validate: v,
		now:      now,
	}
}

// decodeInput reads and validates a memorial payload.
func (h *Memorials) decodeInput(r *http.Request) (*models.MemorialInput, error) {
	var in models.MemorialInput
	if err := decodeJSON(r, &in); err != nil {
		return nil, err
	}
	in.DeceasedName = strings.TrimSpace(in.DeceasedName)
	in.DeceasedPhotoURL = strings.TrimSpace(in.DeceasedPhotoURL)
	in.ServiceTime = strings.TrimSpace(in.ServiceTime)
	in.ServiceLocation = strings.TrimSpace(in.ServiceLocation)
	in.ServiceAddress = strings.TrimSpace(in.ServiceAddress)
	if err := h.validate.Struct(&in); err != nil {
		return nil, err
	}

	theme, err := h.themes.FindByID(r.Context(), in.ThemeID)
	if err != nil {
		return nil, apperr.Storage("find theme", err)
	}
	if theme == nil {
		return nil, apperr.Validation("themeId", "Theme ID is invalid")
	}
	return &in, nil
}

// find loads a memorial of the caller or returns ErrNotFound.
func (h *Memorials) find(r *http.Request) (*models.Memorial, error) {
	ownerID, err := owner(r)
	if err != nil {
		return nil, err
	}
	id, err := int64Param(r, "id")
	if err != nil {
		return nil, err
	}
	m, err := h.store.FindByID(r.Context(), id, ownerID)
	if err != nil {
		return nil, apperr.Storage("find memorial", err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: memorial %d", apperr.ErrNotFound, id)
	}
	return m, nil
}

// Create handles POST /memorials.
func (h *Memorials) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := h.decodeInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	m := &models.Memorial{OwnerID: ownerID}
	in.Apply(m)
	created, products, err := h.store.Create(r.Context(), m)
	if err != nil {
		writeError(w, r, apperr.Storage("create memorial", err))
		return
	}

	middleware.Log(r.Context()).Info("memorial created", "memorial_id", created.ID, "owner", ownerID, "products", products)
	writeJSON(w, http.StatusCreated, map[string]any{
		"memorial": created,
		"products": products,
	})
}

// Get handles GET /memorials/{id}.
func (h *Memorials) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.find(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// List handles GET /memorials. With year and month it lists the services
// of that month, otherwise the most recent memorials.
func (h *Memorials) List(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	if q.Has("year") || q.Has("month") {
		year, err := queryInt(r, "year", 0)
		if err != nil {
			writeError(w, r, err)
			return
		}
		month, err := queryInt(r, "month", 0)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if year < 1 || month < 1 || month > 12 {
			writeError(w, r, apperr.Validation("month", "Year and month are required"))
			return
		}
		items, err := h.store.ByMonth(r.Context(), ownerID, year, month)
		if err != nil {
			writeError(w, r, apperr.Storage("list memorials", err))
			return
		}
		writeJSON(w, http.StatusOK, items)
		return
	}

	limit, err := queryInt(r, "recent", defaultRecent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if limit < 1 {
		limit = defaultRecent
	}
	limit = min(limit, maxRecent)

	items, err := h.store.Recent(r.Context(), ownerID, limit)
	if err != nil {
		writeError(w, r, apperr.Storage("list memorials", err))
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Years handles GET /memorials/years: every year from the current one
// back to the owner's earliest service, newest first.
func (h *Memorials) Years(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	current := h.now().Year()
	earliest, ok, err := h.store.EarliestServiceYear(r.Context(), ownerID)
	if err != nil {
		writeError(w, r, apperr.Storage("find years", err))
		return
	}
	if !ok {
		earliest = current
	}
	writeJSON(w, http.StatusOK, map[string]any{"years": store.YearsRange(earliest, current)})
}

// Annual handles GET /memorials/annual?year=: printed quantities per month
// split by layout.
func (h *Memorials) Annual(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	year, err := queryInt(r, "year", h.now().Year())
	if err != nil {
		writeError(w, r, err)
		return
	}
	months, err := h.store.AnnualQuantities(r.Context(), ownerID, year)
	if err != nil {
		writeError(w, r, apperr.Storage("annual quantities", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "months": months})
}

// Update handles PUT /memorials/{id}.
func (h *Memorials) Update(w http.ResponseWriter, r *http.Request) {
	m, err := h.find(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := h.decodeInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in.Apply(m)

	updated, err := h.store.Update(r.Context(), m)
	if err != nil {
		writeError(w, r, apperr.Storage("update memorial", err))
		return
	}
	if updated == nil {
		writeError(w, r, apperr.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /memorials/{id}. Stored assets are removed after
// the row; failures there are logged and do not fail the request.
func (h *Memorials) Delete(w http.ResponseWriter, r *http.Request) {
	m, err := h.find(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	deleted, err := h.store.Delete(r.Context(), m.ID, m.OwnerID)
	if err != nil {
		writeError(w, r, apperr.Storage("delete memorial", err))
		return
	}
	if !deleted {
		writeError(w, r, apperr.ErrNotFound)
		return
	}

	if h.objects != nil {
		prefix := storage.MemorialPrefix(m.OwnerID, m.ID)
		n, err := storage.DeletePrefix(r.Context(), h.objects, prefix)
		if err != nil {
			middleware.Log(r.Context()).Warn("memorial assets cleanup failed", "memorial_id", m.ID, "prefix", prefix, "error", err)
		} else if n > 0 {
			middleware.Log(r.Context()).Info("memorial assets removed", "memorial_id", m.ID, "objects", n)
		}
		h.folders.Invalidate(m.OwnerID, storage.Folder(m.OwnerID, m.ID, storage.KindCollagePhotos))
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type photoRequest struct {
	URL string `json:"url"`
}

// Photo handles PUT /memorials/{id}/photo. The previous cover photo is
// deleted from storage before the new URL is written.
func (h *Memorials) Photo(w http.ResponseWriter, r *http.Request) {
	m, err := h.find(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req photoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	url := strings.TrimSpace(req.URL)
	if err := h.validate.Var("deceasedPhotoUrl", url, "required,url"); err != nil {
		writeError(w, r, err)
		return
	}

	var deleted string
	if h.objects != nil {
		folder := storage.Folder(m.OwnerID, m.ID, storage.KindCoverPhoto)
		key, ok := h.objects.ExtractKey(url)
		if !ok || !storage.OwnsKey(m.OwnerID, key) || !strings.HasPrefix(key, folder+"/") {
			writeError(w, r, apperr.Validation("url", "Photo must be uploaded to this memorial's cover folder"))
			return
		}
		deleted, err = h.deletePreviousPhoto(r.Context(), m, key)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	ok, err := h.savePhotoURL(r.Context(), m, url, deleted)
	if err != nil {
		writeError(w, r, apperr.Storage("update photo", err))
		return
	}
	if !ok {
		writeError(w, r, apperr.ErrNotFound)
		return
	}
	m.DeceasedPhotoURL = url
	writeJSON(w, http.StatusOK, m)
}

// deletePreviousPhoto removes the stored object behind the memorial's
// current photo when it differs from next. It returns the deleted key, or
// "" when nothing was deleted.
func (h *Memorials) deletePreviousPhoto(ctx context.Context, m *models.Memorial, next string) (string, error) {
	if !m.HasPhoto() {
		return "", nil
	}
	prev, ok := h.objects.ExtractKey(m.DeceasedPhotoURL)
	if !ok || prev == next || !storage.OwnsKey(m.OwnerID, prev) {
		return "", nil
	}
	report := storage.DeleteBatch(ctx, h.objects, []string{prev})
	if report.Failed > 0 {
		return "", apperr.Storage("delete previous photo", fmt.Errorf("%s: %s", prev, report.Results[0].Error))
	}
	middleware.Log(ctx).Info("previous cover photo deleted", "memorial_id", m.ID, "key", prev)
	return prev, nil
}

// savePhotoURL writes url to the memorial, retrying once on a storage
// error. If the write still fails after the previous object was deleted,
// the memorial points at a missing object; that is logged at error level
// with the dangling URL.
func (h *Memorials) savePhotoURL(ctx context.Context, m *models.Memorial, url, deletedKey string) (bool, error) {
	ok, err := h.store.UpdatePhoto(ctx, m.ID, m.OwnerID, url)
	if err != nil {
		middleware.Log(ctx).Warn("photo update failed, retrying", "memorial_id", m.ID, "error", err)
		ok, err = h.store.UpdatePhoto(ctx, m.ID, m.OwnerID, url)
	}
	if err != nil && deletedKey != "" {
		middleware.Log(ctx).Error("memorial photo points at a deleted object",
			"memorial_id", m.ID, "orphaned_url", m.DeceasedPhotoURL, "deleted_key", deletedKey,
			"new_url", url, "error", err)
	}
	return ok, err
}
