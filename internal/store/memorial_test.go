package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rhpbdev/legacyprints/internal/models"
)

func newMemorial(owner string, themeID int64, service time.Time) *models.Memorial {
	return &models.Memorial{
		OwnerID:         owner,
		DeceasedName:    "Jane Doe",
		Quantity:        100,
		SunriseDate:     models.NewDate(time.Date(1940, 3, 2, 0, 0, 0, 0, time.UTC)),
		SunsetDate:      models.NewDate(service.AddDate(0, 0, -7)),
		ServiceDate:     models.NewDate(service),
		ServiceTime:     "11:00 AM",
		ServiceLocation: "Grace Chapel",
		ServiceAddress:  "12 Elm St",
		ThemeID:         themeID,
	}
}

func TestMemorialStoreLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	s := NewMemorialStore(db)
	owner := "test-owner-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanOwner(t, db, owner) })

	themeID := testTheme(t, db, "Store Test "+owner, "bifold", `{"pages":[]}`)

	var productCount int64
	if err := db.QueryRow("SELECT COUNT(*) FROM products").Scan(&productCount); err != nil {
		t.Fatalf("count products: %v", err)
	}

	service := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	created, fanned, err := s.Create(ctx, newMemorial(owner, themeID, service))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 || created.OwnerID != owner {
		t.Fatalf("created = %+v", created)
	}
	if fanned != productCount {
		t.Errorf("memorial products = %d, want one per product (%d)", fanned, productCount)
	}
	if created.ServiceDate.String() != "2024-05-10" {
		t.Errorf("service date = %s", created.ServiceDate)
	}

	found, err := s.FindByID(ctx, created.ID, owner)
	if err != nil || found == nil {
		t.Fatalf("FindByID: %v, %v", found, err)
	}
	if other, _ := s.FindByID(ctx, created.ID, "someone-else"); other != nil {
		t.Error("memorial visible to another owner")
	}

	found.DeceasedName = "Jane A. Doe"
	updated, err := s.Update(ctx, found)
	if err != nil || updated == nil || updated.DeceasedName != "Jane A. Doe" {
		t.Fatalf("Update: %+v, %v", updated, err)
	}

	ok, err := s.UpdatePhoto(ctx, created.ID, owner, "https://cdn.example.com/jane.jpg")
	if err != nil || !ok {
		t.Fatalf("UpdatePhoto: %v, %v", ok, err)
	}

	recent, err := s.Recent(ctx, owner, 8)
	if err != nil || len(recent) != 1 || recent[0].Theme != "Store Test "+owner || recent[0].ProgramType != models.LayoutBifold {
		t.Fatalf("Recent: %+v, %v", recent, err)
	}

	may, err := s.ByMonth(ctx, owner, 2024, 5)
	if err != nil || len(may) != 1 {
		t.Errorf("ByMonth(May) = %d, %v", len(may), err)
	}
	june, _ := s.ByMonth(ctx, owner, 2024, 6)
	if len(june) != 0 {
		t.Errorf("ByMonth(June) = %d", len(june))
	}

	year, ok, err := s.EarliestServiceYear(ctx, owner)
	if err != nil || !ok || year != 2024 {
		t.Errorf("EarliestServiceYear = %d, %v, %v", year, ok, err)
	}

	months, err := s.AnnualQuantities(ctx, owner, 2024)
	if err != nil || len(months) != 12 || months[4].Bifold != 100 || months[4].Trifold != 0 {
		t.Errorf("AnnualQuantities = %+v, %v", months, err)
	}

	if ok, _ := s.Delete(ctx, created.ID, "someone-else"); ok {
		t.Error("deleted by another owner")
	}
	if ok, err := s.Delete(ctx, created.ID, owner); err != nil || !ok {
		t.Fatalf("Delete: %v, %v", ok, err)
	}
	var left int
	db.QueryRow("SELECT COUNT(*) FROM memorial_products WHERE memorial_id = $1", created.ID).Scan(&left)
	if left != 0 {
		t.Errorf("%d memorial products survived the cascade", left)
	}
}

func TestMemorialCreate_EmptyCatalog(t *testing.T) {
	db := scratchDB(t)
	ctx := context.Background()

	var products int
	if err := db.QueryRow("SELECT COUNT(*) FROM products").Scan(&products); err != nil || products != 0 {
		t.Fatalf("scratch catalog has %d products (%v)", products, err)
	}

	themeID := testTheme(t, db, "Empty Catalog", "bifold", `{"pages":[]}`)
	m, n, err := NewMemorialStore(db).Create(ctx, newMemorial("empty-catalog-owner", themeID, time.Now()))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m == nil || m.ID == 0 {
		t.Fatalf("memorial = %+v", m)
	}
	if n != 0 {
		t.Errorf("products = %d, want 0", n)
	}

	var rows int
	db.QueryRow("SELECT COUNT(*) FROM memorial_products WHERE memorial_id = $1", m.ID).Scan(&rows)
	if rows != 0 {
		t.Errorf("%d memorial product rows, want none", rows)
	}
	views, err := NewMemorialProductStore(db).ListByMemorial(ctx, m.ID, "empty-catalog-owner")
	if err != nil || len(views) != 0 {
		t.Errorf("ListByMemorial = %d, %v", len(views), err)
	}
}

func TestMemorialProductStore(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	owner := "test-owner-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanOwner(t, db, owner) })

	var productID uuid.UUID
	if err := db.QueryRow("SELECT id FROM products LIMIT 1").Scan(&productID); err != nil {
		t.Skip("no products in database")
	}

	themeID := testTheme(t, db, "Design Test "+owner, "trifold", `{"pages":[]}`)
	m, _, err := NewMemorialStore(db).Create(ctx, newMemorial(owner, themeID, time.Now()))
	if err != nil {
		t.Fatalf("Create memorial: %v", err)
	}

	s := NewMemorialProductStore(db)
	mp, err := s.GetMemorialProductData(ctx, m.ID, productID, owner)
	if err != nil || mp == nil {
		t.Fatalf("GetMemorialProductData: %v, %v", mp, err)
	}
	if string(mp.SavedData) != "{}" || mp.InOrder {
		t.Errorf("fresh row = %s inOrder=%v", mp.SavedData, mp.InOrder)
	}
	if other, _ := s.GetMemorialProductData(ctx, m.ID, productID, "someone-else"); other != nil {
		t.Error("design visible to another owner")
	}

	doc := json.RawMessage(`{"pages":[{"objects":[],"version":"6.7.0"}]}`)
	saved, err := s.SaveDesignData(ctx, m.ID, productID, owner, doc)
	if err != nil || saved == nil {
		t.Fatalf("SaveDesignData: %v, %v", saved, err)
	}
	var got struct {
		Pages []json.RawMessage `json:"pages"`
	}
	if err := json.Unmarshal(saved.SavedData, &got); err != nil || len(got.Pages) != 1 {
		t.Errorf("saved data = %s", saved.SavedData)
	}
	if none, _ := s.SaveDesignData(ctx, m.ID, productID, "someone-else", doc); none != nil {
		t.Error("another owner saved a design")
	}

	toggled, err := s.ToggleOrder(ctx, m.ID, productID, owner)
	if err != nil || toggled == nil || !toggled.InOrder {
		t.Fatalf("ToggleOrder: %+v, %v", toggled, err)
	}

	views, err := s.ListByMemorial(ctx, m.ID, owner)
	if err != nil || len(views) == 0 {
		t.Fatalf("ListByMemorial: %d, %v", len(views), err)
	}
	for _, v := range views {
		if v.Product.Name == "" || v.MemorialID != m.ID {
			t.Errorf("view = %+v", v)
		}
	}
}

func TestThemeStore(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	s := NewThemeStore(db)

	id := testTheme(t, db, "Theme Test "+uuid.NewString()[:8], "trifold",
		`{"pages":[{"objects":[{"type":"i-text","text":"{{deceasedName}}"}],"version":"6.7.0"}]}`)

	theme, err := s.FindByID(ctx, id)
	if err != nil || theme == nil {
		t.Fatalf("FindByID: %v, %v", theme, err)
	}
	if theme.Layout != models.LayoutTrifold || len(theme.Data.Pages) != 1 {
		t.Errorf("theme = %+v", theme)
	}
	if theme.Data.Pages[0].Objects[0].Text.Text != "{{deceasedName}}" {
		t.Error("page data not decoded")
	}

	if missing, _ := s.FindByID(ctx, -1); missing != nil {
		t.Error("expected nil for unknown theme")
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	found := false
	for _, th := range list {
		found = found || th.ID == id
	}
	if !found {
		t.Error("active theme missing from List")
	}
}

func TestYearsRange(t *testing.T) {
	tests := []struct {
		earliest, current int
		want              []int
	}{
		{2022, 2024, []int{2024, 2023, 2022}},
		{2024, 2024, []int{2024}},
		{2026, 2024, []int{2024}},
		{0, 2024, []int{2024}},
	}
	for _, tt := range tests {
		got := YearsRange(tt.earliest, tt.current)
		if len(got) != len(tt.want) {
			t.Errorf("YearsRange(%d, %d) = %v, want %v", tt.earliest, tt.current, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("YearsRange(%d, %d) = %v, want %v", tt.earliest, tt.current, got, tt.want)
				break
			}
		}
	}
}
