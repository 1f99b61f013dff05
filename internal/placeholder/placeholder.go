// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

// Package placeholder merges memorial data into theme pages. Text objects
// have their {{field}} tokens replaced and the cover photo slot receives
// the memorial's photo. The input page is never modified.
package placeholder

import (
	"strings"

	"github.com/rhpbdev/legacyprints/internal/models"
	"github.com/rhpbdev/legacyprints/internal/scene"
)

// CoverPhotoSlot is the object name reserved for the deceased's photo.
const CoverPhotoSlot = "deceased_cover_photo"

// PlaceholderImageSrc stands in for image objects saved without a source.
const PlaceholderImageSrc = "/placeholder-image.jpg"

// DisplayDateLayout renders dates as "January 5, 2024".
const DisplayDateLayout = "January 2, 2006"

// Token is one recognized placeholder name.
type Token string

const (
	TokenDeceasedName    Token = "deceasedName"
	TokenSunriseDate     Token = "sunriseDate"
	TokenSunsetDate      Token = "sunsetDate"
	TokenServiceDate     Token = "serviceDate"
	TokenServiceTime     Token = "serviceTime"
	TokenServiceDatetime Token = "serviceDatetime"
	TokenServiceLocation Token = "serviceLocation"
	TokenServiceAddress  Token = "serviceAddress"
)

// Tokens lists every recognized token in replacement order.
var Tokens = []Token{
	TokenDeceasedName,
	TokenSunriseDate,
	TokenSunsetDate,
	TokenServiceDate,
	TokenServiceTime,
	TokenServiceDatetime,
	TokenServiceLocation,
	TokenServiceAddress,
}

// Marker returns the delimited form of the token as it appears in text.
func (t Token) Marker() string { return "{{" + string(t) + "}}" }

// Fallback labels used when a memorial field is empty.
var fallbacks = map[Token]string{
	TokenDeceasedName:    "Deceased Name",
	TokenSunriseDate:     "Sunrise Date",
	TokenSunsetDate:      "Sunset Date",
	TokenServiceDate:     "Service Date",
	TokenServiceTime:     "Service Time",
	TokenServiceDatetime: "Service Date/Time",
	TokenServiceLocation: "Service Location",
	TokenServiceAddress:  "Service Address",
}

// Values returns the replacement text for every token. Empty fields map
// to their fallback label.
func Values(m *models.Memorial) map[Token]string {
	if m == nil {
		m = &models.Memorial{}
	}
	vals := map[Token]string{
		TokenDeceasedName:    strings.TrimSpace(m.DeceasedName),
		TokenSunriseDate:     formatDate(m.SunriseDate),
		TokenSunsetDate:      formatDate(m.SunsetDate),
		TokenServiceDate:     formatDate(m.ServiceDate),
		TokenServiceTime:     strings.TrimSpace(m.ServiceTime),
		TokenServiceLocation: strings.TrimSpace(m.ServiceLocation),
		TokenServiceAddress:  strings.TrimSpace(m.ServiceAddress),
	}
	if vals[TokenServiceDate] != "" && vals[TokenServiceTime] != "" {
		vals[TokenServiceDatetime] = vals[TokenServiceDate] + " at " + vals[TokenServiceTime]
	}
	for tok, label := range fallbacks {
		if vals[tok] == "" {
			vals[tok] = label
		}
	}
	return vals
}

func formatDate(d models.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DisplayDateLayout)
}

// Apply returns a copy of page with memorial data merged in. Only text
// content and image sources are rewritten: the cover slot takes the
// memorial photo and an image without a source takes PlaceholderImageSrc.
func Apply(page scene.Page, m *models.Memorial) scene.Page {
	out := page.Clone()
	pairs := make([]string, 0, 2*len(Tokens))
	vals := Values(m)
	for _, tok := range Tokens {
		pairs = append(pairs, tok.Marker(), vals[tok])
	}
	replacer := strings.NewReplacer(pairs...)

	photo := ""
	if m != nil && m.HasPhoto() {
		photo = strings.TrimSpace(m.DeceasedPhotoURL)
	}

	for _, obj := range out.Objects {
		switch obj.Kind() {
		case scene.KindText:
			obj.Text.Text = replacer.Replace(obj.Text.Text)
		case scene.KindImage:
			switch {
			case obj.Name == CoverPhotoSlot && photo != "":
				obj.Image.Src = photo
			case strings.TrimSpace(obj.Image.Src) == "":
				obj.Image.Src = PlaceholderImageSrc
			}
		}
	}
	return out
}

// Unlock makes every text and image object of page editable in place:
// selectable, evented, with controls and borders, and text editable.
// Locked flags in theme JSON would otherwise hide them from selection.
// Other kinds keep their flags, and no type tag changes.
func Unlock(page scene.Page) scene.Page {
	for _, obj := range page.Objects {
		if obj == nil {
			continue
		}
		switch obj.Kind() {
		case scene.KindText:
			obj.Text.Editable = true
		case scene.KindImage:
		default:
			continue
		}
		obj.Selectable = true
		obj.Evented = true
		obj.HasControls = true
		obj.HasBorders = true
	}
	return page
}

// ApplyDocument substitutes every page of doc.
func ApplyDocument(doc scene.Document, m *models.Memorial) scene.Document {
	out := scene.Document{Pages: make([]scene.Page, len(doc.Pages))}
	for i, p := range doc.Pages {
		out.Pages[i] = Apply(p, m)
	}
	return out
}
