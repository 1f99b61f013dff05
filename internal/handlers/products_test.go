package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/rhpbdev/legacyprints/internal/design"
	"github.com/rhpbdev/legacyprints/internal/models"
)

type productEnv struct {
	h        *Products
	memorial *fakeMemorialStore
	products *fakeProductStore
}

func newProductEnv(t *testing.T) *productEnv {
	t.Helper()
	ms := newFakeMemorialStore(
		&models.Memorial{ID: 7, OwnerID: testOwner, DeceasedName: "Jane Doe", ThemeID: 1},
		&models.Memorial{ID: 9, OwnerID: testOwner, DeceasedName: "No Theme"},
	)
	ps := newFakeProductStore(ms, 7)
	return &productEnv{
		h:        NewProducts(ms, newFakeThemeStore(), ps, design.NewBridge(ps)),
		memorial: ms,
		products: ps,
	}
}

func productNames(items []models.MemorialProductView) []string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Product.Name
	}
	return names
}

func TestProductsList_FiltersProgramsByLayout(t *testing.T) {
	env := newProductEnv(t)

	rr := serve(env.h.List, newRequest(http.MethodGet, "/memorials/7/products", testOwner, nil, "id", "7"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	names := productNames(decodeBody[[]models.MemorialProductView](t, rr))
	if len(names) != 2 || names[0] != "Bifold" || names[1] != "Prayer Card" {
		t.Errorf("products = %v, want [Bifold Prayer Card]", names)
	}
}

func TestProductsList_NotFound(t *testing.T) {
	env := newProductEnv(t)
	rr := serve(env.h.List, newRequest(http.MethodGet, "/memorials/7/products", otherUser, nil, "id", "7"))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestProductsData(t *testing.T) {
	env := newProductEnv(t)

	rr := serve(env.h.Data, newRequest(http.MethodGet, "/", testOwner, nil, "id", "7", "productID", programID.String()))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	resp := decodeBody[designResponse](t, rr)
	if string(resp.SavedData) != "{}" || resp.Customized || resp.InOrder {
		t.Errorf("uncustomized = %+v", resp)
	}

	saved := `{"pages":[{"version":"6.7.0","objects":[]}]}`
	env.products.rows[0].SavedData = json.RawMessage(saved)
	rr = serve(env.h.Data, newRequest(http.MethodGet, "/", testOwner, nil, "id", "7", "productID", programID.String()))
	resp = decodeBody[designResponse](t, rr)
	if !resp.Customized || len(resp.SavedData) <= 2 {
		t.Errorf("customized = %+v", resp)
	}

	tests := []struct {
		name, owner, id, product string
		status                   int
	}{
		{"unauthenticated", "", "7", programID.String(), http.StatusUnauthorized},
		{"other owner", otherUser, "7", programID.String(), http.StatusNotFound},
		{"bad product id", testOwner, "7", "nope", http.StatusNotFound},
		{"unknown product", testOwner, "9", programID.String(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(env.h.Data, newRequest(http.MethodGet, "/", tt.owner, nil, "id", tt.id, "productID", tt.product))
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
		})
	}
}

func TestProductsToggleOrder(t *testing.T) {
	env := newProductEnv(t)
	req := func() *http.Request {
		return newRequest(http.MethodPut, "/", testOwner, nil, "id", "7", "productID", cardID.String())
	}

	for _, want := range []bool{true, false} {
		rr := serve(env.h.ToggleOrder, req())
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		if got := decodeBody[map[string]any](t, rr)["inOrder"]; got != want {
			t.Errorf("inOrder = %v, want %v", got, want)
		}
	}

	rr := serve(env.h.ToggleOrder, newRequest(http.MethodPut, "/", otherUser, nil, "id", "7", "productID", cardID.String()))
	if rr.Code != http.StatusNotFound {
		t.Errorf("other owner: status = %d", rr.Code)
	}
}

type catalogFunc func() ([]models.Product, error)

func (f catalogFunc) List(context.Context) ([]models.Product, error) { return f() }

func TestCatalog(t *testing.T) {
	tests := []struct {
		name   string
		list   catalogFunc
		status int
		count  int
	}{
		{"products", func() ([]models.Product, error) {
			return []models.Product{{ID: programID, Name: "Bifold", Category: models.CategoryPrograms}}, nil
		}, http.StatusOK, 1},
		{"empty", func() ([]models.Product, error) { return nil, nil }, http.StatusOK, 0},
		{"store down", func() ([]models.Product, error) { return nil, errors.New("boom") }, http.StatusInternalServerError, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(NewCatalog(tt.list).ServeHTTP, newRequest(http.MethodGet, "/products", testOwner, nil))
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}
			body := decodeBody[map[string][]models.Product](t, rr)
			if got, ok := body["products"]; !ok || len(got) != tt.count {
				t.Errorf("products = %v", body)
			}
		})
	}
}
