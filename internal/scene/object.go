// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

// Package scene defines the serialized design model: documents made of
// pages, pages made of drawable objects. The JSON shape matches what the
// browser editor stores, and attributes this package does not model are
// carried through untouched.
package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Kind discriminates the object variants.
type Kind int

const (
	KindOther Kind = iota
	KindText
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "other"
	}
}

// Normalized type tags.
const (
	TypeIText   = "i-text"
	TypeTextbox = "textbox"
	TypeText    = "text"
	TypeImage   = "image"
)

// Text alignments accepted by text objects.
var TextAlignments = []string{"left", "center", "right", "justify"}

// NormalizeType lowercases a raw type tag and folds the camel-cased
// interactive text tag onto its canonical spelling.
func NormalizeType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "itext" {
		return TypeIText
	}
	return t
}

func kindOf(typ string) Kind {
	switch typ {
	case TypeIText, TypeTextbox, TypeText:
		return KindText
	case TypeImage:
		return KindImage
	default:
		return KindOther
	}
}

// Base holds the attributes every object carries.
type Base struct {
	ID          string
	Name        string
	Left        float64
	Top         float64
	Width       float64
	Height      float64
	ScaleX      float64
	ScaleY      float64
	Angle       float64
	Visible     bool
	Selectable  bool
	HasControls bool
	HasBorders  bool
	Evented     bool
}

// Text is the payload of text objects. Text may contain {{field}} tokens.
type Text struct {
	Text       string
	FontFamily string
	FontSize   float64
	Fill       string
	TextAlign  string
	Editable   bool
}

// Image is the payload of image objects.
type Image struct {
	Src         string
	CrossOrigin string
}

// Rect is an axis-aligned bounding box in surface coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

// Object is one drawable element. Exactly one of Text and Image is set
// for text and image kinds; both are nil for everything else. The type
// tag is fixed at construction.
type Object struct {
	Base
	Text  *Text
	Image *Image

	// Extra keeps attributes this package does not model, keyed by their
	// JSON name, so they survive a load/save cycle.
	Extra map[string]json.RawMessage

	typ    string
	coords *Rect
}

// NewObject creates an object of the given type with editor defaults.
func NewObject(typ string) *Object {
	o := &Object{
		typ: NormalizeType(typ),
		Base: Base{
			ScaleX:      1,
			ScaleY:      1,
			Visible:     true,
			Selectable:  true,
			HasControls: true,
			HasBorders:  true,
			Evented:     true,
		},
	}
	switch o.Kind() {
	case KindText:
		o.Text = &Text{
			FontFamily: "Times New Roman",
			FontSize:   40,
			Fill:       "rgb(0,0,0)",
			TextAlign:  "left",
			Editable:   true,
		}
	case KindImage:
		o.Image = &Image{}
	}
	return o
}

// NewText creates a text object with the given content.
func NewText(content string) *Object {
	o := NewObject(TypeIText)
	o.Text.Text = content
	return o
}

// NewImage creates an image object pointing at src.
func NewImage(name, src string) *Object {
	o := NewObject(TypeImage)
	o.Name = name
	o.Image.Src = src
	return o
}

// Type returns the normalized type tag.
func (o *Object) Type() string { return o.typ }

// Kind returns the variant the type tag selects.
func (o *Object) Kind() Kind { return kindOf(o.typ) }

// Clone returns a deep copy, committed coordinates included.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := &Object{Base: o.Base, typ: o.typ}
	if o.coords != nil {
		r := *o.coords
		c.coords = &r
	}
	if o.Text != nil {
		t := *o.Text
		c.Text = &t
	}
	if o.Image != nil {
		img := *o.Image
		c.Image = &img
	}
	if o.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(o.Extra))
		for k, v := range o.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}

// SetCoords commits the current transform into a bounding box used for
// hit-testing. It must be called again after any geometry change.
func (o *Object) SetCoords() {
	w := o.Width * o.ScaleX
	h := o.Height * o.ScaleY
	if o.Angle == 0 {
		o.coords = &Rect{Left: o.Left, Top: o.Top, Right: o.Left + w, Bottom: o.Top + h}
		return
	}

	rad := o.Angle * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	xs := []float64{0, w * cos, w*cos - h*sin, -h * sin}
	ys := []float64{0, w * sin, w*sin + h*cos, h * cos}
	r := Rect{Left: math.Inf(1), Top: math.Inf(1), Right: math.Inf(-1), Bottom: math.Inf(-1)}
	for i := range xs {
		x, y := o.Left+xs[i], o.Top+ys[i]
		r.Left = math.Min(r.Left, x)
		r.Right = math.Max(r.Right, x)
		r.Top = math.Min(r.Top, y)
		r.Bottom = math.Max(r.Bottom, y)
	}
	o.coords = &r
}

// Coords returns the committed bounding box, if any.
func (o *Object) Coords() (Rect, bool) {
	if o.coords == nil {
		return Rect{}, false
	}
	return *o.coords, true
}

// MarshalJSON writes the modelled attributes over the preserved extras.
func (o *Object) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(o.Extra)+20)
	for k, v := range o.Extra {
		m[k] = v
	}

	m["type"] = o.typ
	if o.ID != "" {
		m["id"] = o.ID
	}
	if o.Name != "" {
		m["name"] = o.Name
	}
	m["left"] = o.Left
	m["top"] = o.Top
	m["width"] = o.Width
	m["height"] = o.Height
	m["scaleX"] = o.ScaleX
	m["scaleY"] = o.ScaleY
	m["angle"] = o.Angle
	m["visible"] = o.Visible
	m["selectable"] = o.Selectable
	m["hasControls"] = o.HasControls
	m["hasBorders"] = o.HasBorders
	m["evented"] = o.Evented

	if t := o.Text; t != nil {
		m["text"] = t.Text
		m["fontFamily"] = t.FontFamily
		m["fontSize"] = t.FontSize
		m["fill"] = t.Fill
		m["textAlign"] = t.TextAlign
		m["editable"] = t.Editable
	}
	if img := o.Image; img != nil {
		m["src"] = img.Src
		if img.CrossOrigin != "" {
			m["crossOrigin"] = img.CrossOrigin
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads an object, tolerating missing or malformed type
// tags by treating them as the "other" kind.
func (o *Object) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode scene object: %w", err)
	}

	var typ string
	if v, ok := raw["type"]; ok {
		// A non-string tag falls through to the other kind.
		_ = json.Unmarshal(v, &typ)
		delete(raw, "type")
	}
	*o = *NewObject(typ)

	r := fieldReader{raw: raw}
	r.str("id", &o.ID)
	r.str("name", &o.Name)
	r.num("left", &o.Left)
	r.num("top", &o.Top)
	r.num("width", &o.Width)
	r.num("height", &o.Height)
	r.num("scaleX", &o.ScaleX)
	r.num("scaleY", &o.ScaleY)
	r.num("angle", &o.Angle)
	r.flag("visible", &o.Visible)
	r.flag("selectable", &o.Selectable)
	r.flag("hasControls", &o.HasControls)
	r.flag("hasBorders", &o.HasBorders)
	r.flag("evented", &o.Evented)

	switch o.Kind() {
	case KindText:
		r.str("text", &o.Text.Text)
		r.str("fontFamily", &o.Text.FontFamily)
		r.num("fontSize", &o.Text.FontSize)
		r.str("fill", &o.Text.Fill)
		r.str("textAlign", &o.Text.TextAlign)
		r.flag("editable", &o.Text.Editable)
	case KindImage:
		r.str("src", &o.Image.Src)
		r.str("crossOrigin", &o.Image.CrossOrigin)
	}
	if r.err != nil {
		return fmt.Errorf("decode %s object: %w", o.typ, r.err)
	}

	if len(raw) > 0 {
		o.Extra = raw
	}
	return nil
}

// fieldReader pulls typed values out of a raw attribute map, removing
// each key it consumes. JSON null leaves the default in place.
type fieldReader struct {
	raw map[string]json.RawMessage
	err error
}

func (r *fieldReader) take(key string, dst any) {
	v, ok := r.raw[key]
	if !ok {
		return
	}
	delete(r.raw, key)
	if r.err != nil || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return
	}
	if err := json.Unmarshal(v, dst); err != nil {
		r.err = fmt.Errorf("field %q: %w", key, err)
	}
}

func (r *fieldReader) str(key string, dst *string)  { r.take(key, dst) }
func (r *fieldReader) num(key string, dst *float64) { r.take(key, dst) }
func (r *fieldReader) flag(key string, dst *bool)   { r.take(key, dst) }
