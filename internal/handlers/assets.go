// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rhpbdev/legacyprints/internal/apperr"
	"github.com/rhpbdev/legacyprints/internal/cache"
	"github.com/rhpbdev/legacyprints/internal/middleware"
	"github.com/rhpbdev/legacyprints/internal/models"
	"github.com/rhpbdev/legacyprints/internal/storage"
)

// DefaultUploadTTL is how long a presigned upload URL stays valid.
const DefaultUploadTTL = 15 * time.Minute

// maxDeleteKeys bounds one collage delete request.
const maxDeleteKeys = 200

// Assets groups the memorial asset handlers: upload authorization, cover
// photo removal and the collage folder.
type Assets struct {
	objects   ObjectStore
	folders   *cache.FolderCache
	memorials MemorialFinder
	uploadTTL time.Duration
}

// NewAssets creates the asset handlers. A nil objects answers every
// request with 503.
func NewAssets(objects ObjectStore, folders *cache.FolderCache, memorials MemorialFinder, uploadTTL time.Duration) *Assets {
	if uploadTTL <= 0 {
		uploadTTL = DefaultUploadTTL
	}
	return &Assets{objects: objects, folders: folders, memorials: memorials, uploadTTL: uploadTTL}
}

// ready writes 503 and reports false when storage is not configured.
func (h *Assets) ready(w http.ResponseWriter) bool {
	if h.objects == nil {
		writeMessage(w, http.StatusServiceUnavailable, "File storage is not configured")
		return false
	}
	return true
}

// memorial loads a memorial of ownerID by id.
func (h *Assets) memorial(r *http.Request, ownerID string, id int64) (*models.Memorial, error) {
	if id <= 0 {
		return nil, apperr.Validation("memorialId", "Memorial ID is required")
	}
	m, err := h.memorials.FindByID(r.Context(), id, ownerID)
	if err != nil {
		return nil, apperr.Storage("find memorial", err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: memorial %d", apperr.ErrNotFound, id)
	}
	return m, nil
}

type uploadAuthRequest struct {
	MemorialID  int64             `json:"memorialId"`
	Kind        storage.AssetKind `json:"kind"`
	FileName    string            `json:"fileName"`
	ContentType string            `json:"contentType"`
}

type uploadAuthResponse struct {
	UploadURL string    `json:"uploadUrl"`
	Key       string    `json:"key"`
	FileURL   string    `json:"fileUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UploadAuth handles POST /upload-auth. It returns a presigned PUT URL for
// a new object in the memorial's folder of the requested kind.
func (h *Assets) UploadAuth(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ownerID, err := owner(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req uploadAuthRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if !req.Kind.Valid() {
		writeError(w, r, apperr.Validation("kind", "Kind must be cover-photo or collage-photos"))
		return
	}
	if strings.TrimSpace(req.FileName) == "" {
		writeError(w, r, apperr.Validation("fileName", "File name is required"))
		return
	}
	if !strings.HasPrefix(req.ContentType, "image/") {
		writeError(w, r, apperr.Validation("contentType", "Only image uploads are allowed"))
		return
	}
	m, err := h.memorial(r, ownerID, req.MemorialID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	key := storage.ObjectKey(ownerID, m.ID, req.Kind, req.FileName)
	url, err := h.objects.PresignPut(r.Context(), key, req.ContentType, h.uploadTTL)
	if err != nil {
		writeError(w, r, apperr.Network("upload auth", err))
		return
	}
	h.folders.Invalidate(ownerID, storage.Folder(ownerID, m.ID, req.Kind))

	middleware.Log(r.Context()).Info("upload authorized", "owner", ownerID, "memorial_id", m.ID, "key", key)
	writeJSON(w, http.StatusOK, uploadAuthResponse{
		UploadURL: url,
		Key:       key,
		FileURL:   h.objects.FileURL(key),
		ExpiresAt: time.Now().Add(h.uploadTTL).UTC(),
	})
}

// DeleteCoverPhoto handles DELETE /cover-photo?folder=. Every object in
// the caller's cover photo folder is removed.
func (h *Assets) DeleteCoverPhoto(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ownerID, err := owner(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	folder := strings.TrimRight(strings.TrimSpace(r.URL.Query().Get("folder")), "/")
	if folder == "" {
		writeError(w, r, apperr.Validation("folder", "Folder is required"))
		return
	}
	if !storage.OwnsKey(ownerID, folder) || !strings.HasSuffix(folder, "/"+string(storage.KindCoverPhoto)) {
		writeMessage(w, http.StatusForbidden, "Forbidden")
		return
	}

	n, err := storage.DeletePrefix(r.Context(), h.objects, folder)
	if err != nil {
		writeError(w, r, apperr.Storage("delete cover photo", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": n})
}

type collageResponse struct {
	Folder  string           `json:"folder"`
	Objects []storage.Object `json:"objects"`
}

// ListCollage handles GET /collage-photos?memorialId=. Listings are cached
// briefly per folder and tagged so clients can revalidate with
// If-None-Match.
func (h *Assets) ListCollage(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ownerID, err := owner(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := strconv.ParseInt(r.URL.Query().Get("memorialId"), 10, 64)
	if err != nil {
		writeError(w, r, apperr.Validation("memorialId", "Memorial ID is required"))
		return
	}
	m, err := h.memorial(r, ownerID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	folder := storage.Folder(ownerID, m.ID, storage.KindCollagePhotos)
	listing, hit := h.folders.Get(ownerID, folder)
	if !hit {
		objects, err := storage.ListWithRetry(r.Context(), h.objects, folder)
		if err != nil {
			writeError(w, r, apperr.Storage("list collage", err))
			return
		}
		if objects == nil {
			objects = []storage.Object{}
		}
		listing = h.folders.Set(ownerID, folder, objects)
	}

	w.Header().Set("ETag", listing.ETag)
	if etagMatches(r.Header.Get("If-None-Match"), listing.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, collageResponse{Folder: folder, Objects: listing.Objects})
}

// etagMatches implements the If-None-Match comparison, including "*" and
// weak validators.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

type deleteCollageRequest struct {
	MemorialID    int64    `json:"memorialId"`
	Keys          []string `json:"keys"`
	ExpectedCount *int     `json:"expectedCount,omitempty"`
}

type deleteCollageResponse struct {
	storage.DeleteReport
	Reconciled *bool            `json:"reconciled,omitempty"`
	Objects    []storage.Object `json:"objects,omitempty"`
}

// DeleteCollage handles DELETE /collage-photos. Keys are deleted in small
// concurrent batches with per-file retries. With expectedCount the folder
// is listed again until it reflects the deletes.
func (h *Assets) DeleteCollage(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ownerID, err := owner(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req deleteCollageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.Keys) == 0 {
		writeError(w, r, apperr.Validation("keys", "At least one file must be selected"))
		return
	}
	if len(req.Keys) > maxDeleteKeys {
		writeError(w, r, apperr.Validation("keys", fmt.Sprintf("At most %d files can be deleted at once", maxDeleteKeys)))
		return
	}
	if req.ExpectedCount != nil && *req.ExpectedCount < 0 {
		writeError(w, r, apperr.Validation("expectedCount", "Expected count must not be negative"))
		return
	}
	m, err := h.memorial(r, ownerID, req.MemorialID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	folder := storage.Folder(ownerID, m.ID, storage.KindCollagePhotos)
	for _, key := range req.Keys {
		if !storage.OwnsKey(ownerID, key) || !strings.HasPrefix(key, folder+"/") {
			writeMessage(w, http.StatusForbidden, "Forbidden")
			return
		}
	}

	report := storage.DeleteBatch(r.Context(), h.objects, req.Keys)
	h.folders.Invalidate(ownerID, folder)
	middleware.Log(r.Context()).Info("collage photos deleted", "memorial_id", m.ID, "deleted", report.Deleted, "failed", report.Failed)

	resp := deleteCollageResponse{DeleteReport: report}
	if req.ExpectedCount != nil {
		objects, err := storage.Reconcile(r.Context(), h.objects, folder, *req.ExpectedCount)
		reconciled := err == nil
		resp.Reconciled = &reconciled
		switch {
		case err == nil:
			resp.Objects = h.folders.Set(ownerID, folder, objects).Objects
		case errors.Is(err, storage.ErrCountMismatch):
			middleware.Log(r.Context()).Warn("collage listing not reconciled", "memorial_id", m.ID, "want", *req.ExpectedCount, "have", len(objects))
			resp.Objects = objects
		default:
			middleware.Log(r.Context()).Warn("collage reconcile failed", "memorial_id", m.ID, "error", err)
		}
	}

	status := http.StatusOK
	switch {
	case report.Deleted == 0:
		status = http.StatusInternalServerError
	case report.Failed > 0:
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, resp)
}
