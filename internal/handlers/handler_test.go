// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

// handler_test.go provides the in-memory stores and request helpers shared
// by the handler tests.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rhpbdev/legacyprints/internal/middleware"
	"github.com/rhpbdev/legacyprints/internal/models"
	"github.com/rhpbdev/legacyprints/internal/scene"
	"github.com/rhpbdev/legacyprints/internal/storage"
	"github.com/rhpbdev/legacyprints/internal/store"
)

const (
	testOwner = "user_1"
	otherUser = "user_2"
	bucketURL = "http://s3.test/assets/"
)

var (
	programID  = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	trifoldID  = uuid.MustParse("22222222-2222-4222-8222-222222222222")
	cardID     = uuid.MustParse("33333333-3333-4333-8333-333333333333")
	testNow    = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	fixedClock = func() time.Time { return testNow }
)

func init() {
	storage.DeleteBackoff = time.Millisecond
	storage.ListBackoff = time.Millisecond
	storage.ReconcileDelay = time.Millisecond
}

// --- memorials ---

type fakeMemorialStore struct {
	mu        sync.Mutex
	nextID    int64
	rows      map[int64]*models.Memorial
	products  int64
	earliest  int
	recentLim int
	err       error

	photoFailures int // UpdatePhoto calls left to fail
}

func newFakeMemorialStore(rows ...*models.Memorial) *fakeMemorialStore {
	f := &fakeMemorialStore{nextID: 100, rows: map[int64]*models.Memorial{}}
	for _, m := range rows {
		f.rows[m.ID] = m
	}
	return f
}

func (f *fakeMemorialStore) Create(_ context.Context, m *models.Memorial) (*models.Memorial, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	f.nextID++
	cp := *m
	cp.ID = f.nextID
	cp.CreatedAt, cp.UpdatedAt = testNow, testNow
	f.rows[cp.ID] = &cp
	return &cp, f.products, nil
}

func (f *fakeMemorialStore) FindByID(_ context.Context, id int64, ownerID string) (*models.Memorial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.rows[id]
	if !ok || m.OwnerID != ownerID {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMemorialStore) Update(_ context.Context, m *models.Memorial) (*models.Memorial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.rows[m.ID]
	if !ok || cur.OwnerID != m.OwnerID {
		return nil, nil
	}
	cp := *m
	f.rows[m.ID] = &cp
	return &cp, nil
}

func (f *fakeMemorialStore) UpdatePhoto(_ context.Context, id int64, ownerID, url string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.photoFailures > 0 {
		f.photoFailures--
		return false, errors.New("connection reset")
	}
	m, ok := f.rows[id]
	if !ok || m.OwnerID != ownerID {
		return false, nil
	}
	m.DeceasedPhotoURL = url
	return true, nil
}

func (f *fakeMemorialStore) Delete(_ context.Context, id int64, ownerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.rows[id]
	if !ok || m.OwnerID != ownerID {
		return false, nil
	}
	delete(f.rows, id)
	return true, nil
}

func (f *fakeMemorialStore) summaries(ownerID string, keep func(*models.Memorial) bool) []models.MemorialSummary {
	items := []models.MemorialSummary{}
	for _, m := range f.rows {
		if m.OwnerID == ownerID && keep(m) {
			items = append(items, models.MemorialSummary{ID: m.ID, DeceasedName: m.DeceasedName, ServiceDate: m.ServiceDate})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return items
}

func (f *fakeMemorialStore) Recent(_ context.Context, ownerID string, limit int) ([]models.MemorialSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recentLim = limit
	items := f.summaries(ownerID, func(*models.Memorial) bool { return true })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (f *fakeMemorialStore) ByMonth(_ context.Context, ownerID string, year, month int) ([]models.MemorialSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summaries(ownerID, func(m *models.Memorial) bool {
		return m.ServiceDate.Year() == year && int(m.ServiceDate.Month()) == month
	}), nil
}

func (f *fakeMemorialStore) EarliestServiceYear(context.Context, string) (int, bool, error) {
	return f.earliest, f.earliest > 0, nil
}

func (f *fakeMemorialStore) AnnualQuantities(_ context.Context, ownerID string, year int) ([]store.MonthlyQuantity, error) {
	months := make([]store.MonthlyQuantity, 12)
	for i := range months {
		months[i].Month = i + 1
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.rows {
		if m.OwnerID == ownerID && m.ServiceDate.Year() == year {
			months[m.ServiceDate.Month()-1].Bifold += m.Quantity
		}
	}
	return months, nil
}

// --- themes ---

type fakeThemeStore struct {
	themes map[int64]*models.Theme
	finds  int
}

func (f *fakeThemeStore) FindByID(_ context.Context, id int64) (*models.Theme, error) {
	f.finds++
	t, ok := f.themes[id]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (f *fakeThemeStore) List(context.Context) ([]models.Theme, error) {
	var out []models.Theme
	for _, t := range f.themes {
		if t.Active {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func textPage(texts ...string) scene.Page {
	p := scene.Page{Version: scene.DefaultVersion}
	for _, s := range texts {
		p.Objects = append(p.Objects, scene.NewText(s))
	}
	return p
}

func newFakeThemeStore() *fakeThemeStore {
	return &fakeThemeStore{themes: map[int64]*models.Theme{
		1: {
			ID: 1, Name: "Dove", Layout: models.LayoutBifold, Active: true,
			Description: "A *soft* cover",
			Data: scene.Document{Pages: []scene.Page{
				textPage("{{deceasedName}}", "In loving memory"),
				textPage("{{serviceLocation}}"),
			}},
		},
		2: {ID: 2, Name: "Garden", Layout: models.LayoutTrifold, Active: true},
		3: {ID: 3, Name: "Retired", Layout: models.LayoutBifold},
	}}
}

// --- memorial products ---

type fakeProductStore struct {
	mu   sync.Mutex
	rows []models.MemorialProductView
	mems *fakeMemorialStore
}

func newFakeProductStore(mems *fakeMemorialStore, memorialID int64) *fakeProductStore {
	catalog := []models.Product{
		{ID: programID, Name: "Bifold", Category: models.CategoryPrograms},
		{ID: trifoldID, Name: "Trifold", Category: models.CategoryPrograms},
		{ID: cardID, Name: "Prayer Card", Category: models.CategoryCards},
	}
	f := &fakeProductStore{mems: mems}
	for _, p := range catalog {
		f.rows = append(f.rows, models.MemorialProductView{
			MemorialProduct: models.MemorialProduct{
				ID: uuid.New(), MemorialID: memorialID, ProductID: p.ID,
				SavedData: json.RawMessage(`{}`), UpdatedAt: testNow,
			},
			Product: p,
		})
	}
	return f
}

func (f *fakeProductStore) owned(memorialID int64, ownerID string) bool {
	m, _ := f.mems.FindByID(context.Background(), memorialID, ownerID)
	return m != nil
}

func (f *fakeProductStore) row(memorialID int64, productID uuid.UUID) *models.MemorialProductView {
	for i := range f.rows {
		if f.rows[i].MemorialID == memorialID && f.rows[i].ProductID == productID {
			return &f.rows[i]
		}
	}
	return nil
}

func (f *fakeProductStore) GetMemorialProductData(_ context.Context, memorialID int64, productID uuid.UUID, ownerID string) (*models.MemorialProduct, error) {
	if !f.owned(memorialID, ownerID) {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.row(memorialID, productID)
	if r == nil {
		return nil, nil
	}
	cp := r.MemorialProduct
	return &cp, nil
}

func (f *fakeProductStore) SaveDesignData(_ context.Context, memorialID int64, productID uuid.UUID, ownerID string, data json.RawMessage) (*models.MemorialProduct, error) {
	if !f.owned(memorialID, ownerID) {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.row(memorialID, productID)
	if r == nil {
		return nil, nil
	}
	r.SavedData = append(json.RawMessage(nil), data...)
	r.UpdatedAt = time.Now()
	cp := r.MemorialProduct
	return &cp, nil
}

func (f *fakeProductStore) ToggleOrder(_ context.Context, memorialID int64, productID uuid.UUID, ownerID string) (*models.MemorialProduct, error) {
	if !f.owned(memorialID, ownerID) {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.row(memorialID, productID)
	if r == nil {
		return nil, nil
	}
	r.InOrder = !r.InOrder
	cp := r.MemorialProduct
	return &cp, nil
}

func (f *fakeProductStore) ListByMemorial(_ context.Context, memorialID int64, ownerID string) ([]models.MemorialProductView, error) {
	if !f.owned(memorialID, ownerID) {
		return []models.MemorialProductView{}, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MemorialProductView
	for _, r := range f.rows {
		if r.MemorialID == memorialID {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- object storage ---

// fakeObjects is an in-memory bucket. failDelete marks keys whose deletes
// always fail.
type fakeObjects struct {
	mu         sync.Mutex
	objects    map[string]storage.Object
	failDelete map[string]bool
	lists      int
	deleted    []string
	presignErr error
}

func newFakeObjects(keys ...string) *fakeObjects {
	f := &fakeObjects{objects: map[string]storage.Object{}, failDelete: map[string]bool{}}
	for i, k := range keys {
		f.objects[k] = storage.Object{Key: k, URL: bucketURL + k, Size: int64(100 + i), LastModified: time.Unix(int64(1000+i), 0)}
	}
	return f
}

func (f *fakeObjects) List(_ context.Context, prefix string) ([]storage.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	var out []storage.Object
	for k, o := range f.objects {
		if strings.HasPrefix(k, strings.TrimRight(prefix, "/")+"/") {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete[key] {
		return errors.New("access denied")
	}
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjects) PresignPut(_ context.Context, key, contentType string, expires time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return fmt.Sprintf("%s%s?X-Amz-Expires=%d&content-type=%s", bucketURL, key, int(expires.Seconds()), contentType), nil
}

func (f *fakeObjects) FileURL(key string) string { return bucketURL + key }

func (f *fakeObjects) ExtractKey(rawURL string) (string, bool) {
	if !strings.HasPrefix(rawURL, bucketURL) {
		return "", false
	}
	return strings.TrimPrefix(rawURL, bucketURL), true
}

func (f *fakeObjects) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

// --- requests ---

// newRequest builds a request for ownerID. params are chi URL parameters
// as name/value pairs.
func newRequest(method, target, ownerID string, body any, params ...string) *http.Request {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, _ := json.Marshal(b)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	if ownerID != "" {
		req = req.WithContext(middleware.WithOwner(req.Context(), ownerID))
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rctx.URLParams.Add(params[i], params[i+1])
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	return req
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[errorBody](t, rr).Message
}
