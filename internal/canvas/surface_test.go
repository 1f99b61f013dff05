package canvas

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/rhpbdev/legacyprints/internal/fonts"
	"github.com/rhpbdev/legacyprints/internal/models"
	"github.com/rhpbdev/legacyprints/internal/scene"
)

type staticImages map[string]ImageInfo

func (s staticImages) LoadImage(_ context.Context, src string) (ImageInfo, error) {
	info, ok := s[src]
	if !ok {
		return ImageInfo{}, errors.New("no such image")
	}
	return info, nil
}

func recordEvents(s *Surface, types ...EventType) *[]EventType {
	var got []EventType
	for _, t := range types {
		s.On(t, func(ev Event) { got = append(got, ev.Type) })
	}
	return &got
}

func TestSurface_SelectionEvents(t *testing.T) {
	s := NewSurface(BifoldDimensions, nil, nil)
	got := recordEvents(s, EventSelectionCreated, EventSelectionUpdated, EventSelectionCleared)

	a, b := scene.NewText("a"), scene.NewText("b")
	a.ID, b.ID = "a", "b"
	if _, err := s.Add(a, b); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := s.SetActive("a"); err != nil {
		t.Fatalf("SetActive(a): %v", err)
	}
	if err := s.SetActive("b"); err != nil {
		t.Fatalf("SetActive(b): %v", err)
	}
	s.DiscardActive()
	s.DiscardActive()

	want := []EventType{EventSelectionCreated, EventSelectionUpdated, EventSelectionCleared}
	if len(*got) != len(want) {
		t.Fatalf("events = %v, want %v", *got, want)
	}
	for i := range want {
		if (*got)[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, (*got)[i], want[i])
		}
	}

	if err := s.SetActive("missing"); !errors.Is(err, ErrNoObject) {
		t.Errorf("SetActive(missing) = %v, want ErrNoObject", err)
	}
}

func TestSurface_UpdateAndRemoveActive(t *testing.T) {
	s := NewSurface(BifoldDimensions, nil, nil)

	if err := s.UpdateActive(func(*scene.Object) error { return nil }); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("UpdateActive without selection = %v", err)
	}
	if _, err := s.RemoveActive(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("RemoveActive without selection = %v", err)
	}

	o := scene.NewText("hello")
	o.ID = "t1"
	s.Add(o)
	s.SetActive("t1")

	if err := s.UpdateActive(func(o *scene.Object) error {
		o.Text.FontSize = 12
		return nil
	}); err != nil {
		t.Fatalf("UpdateActive: %v", err)
	}
	got, _ := s.Object("t1")
	if got.Text.FontSize != 12 {
		t.Errorf("font size = %v, want 12", got.Text.FontSize)
	}

	removed, err := s.RemoveActive()
	if err != nil {
		t.Fatalf("RemoveActive: %v", err)
	}
	if removed.ID != "t1" || s.Len() != 0 {
		t.Errorf("removed %q, %d objects left", removed.ID, s.Len())
	}
	if _, ok := s.Active(); ok {
		t.Error("selection should be cleared after removal")
	}
}

func TestSurface_ObjectAtNeedsInteractiveAndCoords(t *testing.T) {
	s := NewSurface(BifoldDimensions, nil, nil)
	back := scene.NewObject("rect")
	back.ID, back.Width, back.Height = "back", 200, 200
	front := scene.NewObject("rect")
	front.ID, front.Left, front.Top, front.Width, front.Height = "front", 50, 50, 20, 20
	s.Add(back, front)

	if _, ok := s.ObjectAt(55, 55); ok {
		t.Fatal("hit before interactive")
	}
	s.SetInteractive(true)
	if _, ok := s.ObjectAt(55, 55); ok {
		t.Fatal("hit before coordinates were committed")
	}

	if err := s.CommitCoords(); err != nil {
		t.Fatalf("CommitCoords: %v", err)
	}
	if o, ok := s.ObjectAt(55, 55); !ok || o.ID != "front" {
		t.Errorf("ObjectAt(55,55) = %v, want front", o)
	}
	if o, ok := s.ObjectAt(150, 150); !ok || o.ID != "back" {
		t.Errorf("ObjectAt(150,150) = %v, want back", o)
	}
	if _, ok := s.ObjectAt(500, 500); ok {
		t.Error("hit outside every object")
	}
}

func TestSurface_LoadRejectsMalformedGeometry(t *testing.T) {
	s := NewSurface(BifoldDimensions, nil, nil)
	bad := scene.NewObject("rect")
	bad.Width = -4

	err := s.Load(context.Background(), scene.Page{Objects: []*scene.Object{bad}}, nil)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("Load = %v, want ErrMalformed", err)
	}
	if s.Len() != 0 {
		t.Errorf("malformed page left %d objects", s.Len())
	}
}

func TestSurface_LoadResolvesImageSizes(t *testing.T) {
	s := NewSurface(BifoldDimensions, staticImages{"dove.png": {Width: 64, Height: 48}}, nil)
	page := scene.Page{
		Version:    scene.DefaultVersion,
		Background: "#fff",
		Objects:    []*scene.Object{scene.NewImage("ornament", "dove.png"), scene.NewImage("", "missing.png")},
	}

	done := make(chan error, 1)
	if err := s.Load(context.Background(), page, func(err error) { done <- err }); err != nil {
		t.Fatalf("Load: %v", err)
	}

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected the missing image to be reported")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("images never settled")
	}

	snap := s.Snapshot()
	if snap.Background != "#fff" || len(snap.Objects) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Objects[0].Width != 64 || snap.Objects[0].Height != 48 {
		t.Errorf("image size = %vx%v, want 64x48", snap.Objects[0].Width, snap.Objects[0].Height)
	}
	if snap.Objects[1].Width != 0 {
		t.Errorf("unresolved image got width %v", snap.Objects[1].Width)
	}
}

func TestSurface_CommitMeasuresRegisteredFonts(t *testing.T) {
	reg := fonts.NewRegistry()
	if err := reg.Register(fonts.Face{Family: "Go"}, goregular.TTF); err != nil {
		t.Fatalf("Register: %v", err)
	}
	s := NewSurface(BifoldDimensions, nil, reg)

	measured := scene.NewText("In loving memory")
	measured.Text.FontFamily = "Go"
	unknown := scene.NewText("In loving memory")
	unknown.Text.FontFamily = "Nope"
	unknown.Width = 10
	s.Add(measured, unknown)

	if err := s.CommitCoords(); err != nil {
		t.Fatalf("CommitCoords: %v", err)
	}
	objs := s.Objects()
	if objs[0].Width <= 0 || objs[0].Height <= 0 {
		t.Errorf("registered family not measured: %vx%v", objs[0].Width, objs[0].Height)
	}
	if objs[1].Width != 10 {
		t.Errorf("unknown family width changed to %v", objs[1].Width)
	}
	if _, ok := objs[0].Coords(); !ok {
		t.Error("coordinates not committed")
	}
}

func TestSurface_Dispose(t *testing.T) {
	s := NewSurface(BifoldDimensions, nil, nil)
	s.On(EventObjectAdded, func(Event) {})
	s.Add(scene.NewText("x"))
	epoch := s.Epoch()

	s.Dispose()
	s.Dispose()

	if !s.Disposed() || s.Epoch() == epoch {
		t.Error("dispose did not mark the surface")
	}
	if s.ListenerCount() != 0 || s.Len() != 0 {
		t.Error("dispose kept listeners or objects")
	}
	if _, err := s.Add(scene.NewText("y")); !errors.Is(err, ErrDisposed) {
		t.Errorf("Add after dispose = %v", err)
	}
	if err := s.Clear(); !errors.Is(err, ErrDisposed) {
		t.Errorf("Clear after dispose = %v", err)
	}
}

func TestDimensionsFor(t *testing.T) {
	if got := DimensionsFor(models.LayoutTrifold); got != (Dimensions{1100, 760}) {
		t.Errorf("trifold = %v", got)
	}
	if got := DimensionsFor(models.LayoutBifold); got != (Dimensions{800, 600}) {
		t.Errorf("bifold = %v", got)
	}
}

func TestNewObjectID(t *testing.T) {
	re := regexp.MustCompile(`^obj_\d{13}_[0-9a-z]{9}$`)
	seen := make(map[string]bool)
	for range 1000 {
		id := NewObjectID()
		if !re.MatchString(id) {
			t.Fatalf("bad id %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestHTTPImageLoader(t *testing.T) {
	data := pngBytes(t, 30, 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img/photo.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	l := NewHTTPImageLoader(srv.URL, 2*time.Second)
	ctx := context.Background()

	tests := []struct {
		name    string
		src     string
		want    ImageInfo
		wantErr bool
	}{
		{"absolute", srv.URL + "/img/photo.png", ImageInfo{30, 20}, false},
		{"relative", "/img/photo.png", ImageInfo{30, 20}, false},
		{"data url", "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), ImageInfo{30, 20}, false},
		{"not found", "/img/missing.png", ImageInfo{}, true},
		{"bad data url", "data:image/png;base64", ImageInfo{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.LoadImage(ctx, tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
