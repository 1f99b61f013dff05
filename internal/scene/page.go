// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultVersion is the serialization version stamped on pages created
// server-side, such as padding pages.
const DefaultVersion = "6.7.0"

// ImageRef is a background image reference. It decodes from a plain URL
// string or from an object carrying a "src" field and always encodes as
// the URL string.
type ImageRef string

func (r *ImageRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = ImageRef(s)
		return nil
	default:
		var obj struct {
			Src string `json:"src"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("decode background image: %w", err)
		}
		*r = ImageRef(obj.Src)
		return nil
	}
}

// Page is one design surface. Object order is paint order: later entries
// draw on top.
type Page struct {
	Objects         []*Object `json:"objects"`
	Version         string    `json:"version"`
	Background      string    `json:"background"`
	BackgroundImage ImageRef  `json:"backgroundImage,omitempty"`
}

// EmptyPage returns the placeholder page used to keep documents dense.
func EmptyPage() Page {
	return Page{Objects: []*Object{}, Version: DefaultVersion, Background: ""}
}

// MarshalJSON encodes a nil object list as an empty array.
func (p Page) MarshalJSON() ([]byte, error) {
	type page Page
	if p.Objects == nil {
		p.Objects = []*Object{}
	}
	return json.Marshal(page(p))
}

// Clone returns a deep copy of the page.
func (p Page) Clone() Page {
	c := p
	c.Objects = make([]*Object, 0, len(p.Objects))
	for _, o := range p.Objects {
		if o == nil {
			continue
		}
		c.Objects = append(c.Objects, o.Clone())
	}
	return c
}

// Document is a saved design: pages addressed by zero-based index.
type Document struct {
	Pages []Page `json:"pages"`
}

// MarshalJSON encodes a nil page list as an empty array.
func (d Document) MarshalJSON() ([]byte, error) {
	type document Document
	if d.Pages == nil {
		d.Pages = []Page{}
	}
	return json.Marshal(document(d))
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	c := Document{Pages: make([]Page, len(d.Pages))}
	for i, p := range d.Pages {
		c.Pages[i] = p.Clone()
	}
	return c
}

// Page returns the page at index, or false if index is out of range.
func (d Document) Page(index int) (Page, bool) {
	if index < 0 || index >= len(d.Pages) {
		return Page{}, false
	}
	return d.Pages[index], true
}

// ParseSaved decodes a stored per-product design. An absent value, JSON
// null, or an object without keys means the design was never customized
// and yields (nil, false, nil). A document with an empty pages array is
// customized.
func ParseSaved(raw []byte) (*Document, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false, nil
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, false, fmt.Errorf("decode saved design: %w", err)
	}
	if len(keys) == 0 {
		return nil, false, nil
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, true, fmt.Errorf("decode saved design: %w", err)
	}
	return &doc, true, nil
}
