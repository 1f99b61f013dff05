package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain date", in: "2024-01-05", want: "2024-01-05"},
		{name: "timestamp keeps date", in: "2024-01-05T18:30:00Z", want: "2024-01-05"},
		{name: "empty is zero", in: "", want: ""},
		{name: "garbage", in: "05/01/2024", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && d.String() != tt.want {
				t.Errorf("ParseDate(%q) = %q, want %q", tt.in, d.String(), tt.want)
			}
		})
	}
}

func TestDateJSON(t *testing.T) {
	var m Memorial
	if err := json.Unmarshal([]byte(`{"sunriseDate":"1950-03-02","sunsetDate":""}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.SunriseDate.String() != "1950-03-02" {
		t.Errorf("sunrise: %q", m.SunriseDate)
	}
	if !m.SunsetDate.IsZero() {
		t.Error("empty sunset should be zero")
	}

	out, err := json.Marshal(struct{ D Date }{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"D":""}` {
		t.Errorf("zero date encoded as %s", out)
	}
}

func TestDateScanAndValue(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2020, 6, 1, 0, 0, 0, 0, time.Local)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	v, err := d.Value()
	if err != nil || v != "2020-06-01" {
		t.Errorf("Value() = %v, %v", v, err)
	}
	if err := d.Scan(42); err == nil {
		t.Error("expected error for int source")
	}
	if v, _ := (Date{}).Value(); v != nil {
		t.Errorf("zero date value = %v, want nil", v)
	}
}

func TestFilterByLayout(t *testing.T) {
	view := func(name string, cat ProductCategory) MemorialProductView {
		return MemorialProductView{
			MemorialProduct: MemorialProduct{ID: uuid.New()},
			Product:         Product{Name: name, Category: cat},
		}
	}
	items := []MemorialProductView{
		view("Trifold", CategoryPrograms),
		view("Bifold", CategoryPrograms),
		view("Prayer Card", CategoryCards),
		view("Bookmark", CategoryBookmarks),
	}

	got := FilterByLayout(items, LayoutTrifold)
	if len(got) != 3 {
		t.Fatalf("got %d items, want 3", len(got))
	}
	for _, it := range got {
		if it.Product.Name == "Bifold" {
			t.Error("bifold program should be filtered out for a trifold theme")
		}
	}
}

func TestMemorialInputApply(t *testing.T) {
	in := MemorialInput{DeceasedName: "  Jane Doe ", Quantity: 50, ServiceTime: " 10:00 AM "}
	m := Memorial{ID: 7, OwnerID: "user_1"}
	in.Apply(&m)
	if m.ID != 7 || m.OwnerID != "user_1" {
		t.Error("Apply must not touch identity")
	}
	if m.DeceasedName != "Jane Doe" || m.ServiceTime != "10:00 AM" || m.Quantity != 50 {
		t.Errorf("Apply result: %+v", m)
	}
}
