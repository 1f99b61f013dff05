// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

// Package fonts registers the custom typefaces used by themes and gates
// page loading on their registration. Faces are parsed with the OpenType
// parser from golang.org/x/image so text metrics match the real glyphs.
package fonts

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Face describes one custom typeface file.
type Face struct {
	Family string
	Weight string // "normal" or "bold"
	Style  string // "normal" or "italic"
	Path   string // relative to the fonts directory
}

func (f Face) key() string {
	return strings.ToLower(f.Family)
}

// Builtin lists the script faces shipped with the themes.
var Builtin = []Face{
	{Family: "Aston Script Pro Bold", Weight: "bold", Style: "normal", Path: "AstonScriptProBold.otf"},
	{Family: "Pinyon Script", Weight: "normal", Style: "normal", Path: "PinyonScript-Regular.ttf"},
}

// DefaultFamilies are the system families always offered in the editor.
var DefaultFamilies = []string{"Arial", "Georgia", "Times New Roman", "Courier New", "Verdana", "Roboto"}

// FallbackFamily is used when a requested family is unknown.
const FallbackFamily = "Arial"

// Registry holds parsed custom fonts keyed by family name.
type Registry struct {
	mu    sync.RWMutex
	fonts map[string]*opentype.Font
	names map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fonts: make(map[string]*opentype.Font),
		names: make(map[string]string),
	}
}

// Register parses data as an OpenType/TrueType font and stores it under
// the face's family. Registering a family twice replaces the first entry.
func (r *Registry) Register(f Face, data []byte) error {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", f.Family, err)
	}
	r.mu.Lock()
	r.fonts[f.key()] = parsed
	r.names[f.key()] = f.Family
	r.mu.Unlock()
	return nil
}

// Has reports whether family is registered as a custom font.
func (r *Registry) Has(family string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.fonts[strings.ToLower(family)]
	return ok
}

// Families returns the default families followed by the registered
// custom families, sorted.
func (r *Registry) Families() []string {
	r.mu.RLock()
	custom := make([]string, 0, len(r.names))
	for _, name := range r.names {
		custom = append(custom, name)
	}
	r.mu.RUnlock()
	sort.Strings(custom)
	return append(append([]string(nil), DefaultFamilies...), custom...)
}

// Resolve returns family if it is a default or registered family and the
// fallback family otherwise.
func (r *Registry) Resolve(family string) string {
	for _, f := range DefaultFamilies {
		if strings.EqualFold(f, family) {
			return f
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name, ok := r.names[strings.ToLower(family)]; ok {
		return name
	}
	return FallbackFamily
}

// Measure returns the advance width and line height of s set in a
// registered family at size px. ok is false when the family is not
// registered, in which case the caller keeps its own dimensions.
func (r *Registry) Measure(family string, size float64, s string) (width, height float64, ok bool) {
	r.mu.RLock()
	f, found := r.fonts[strings.ToLower(family)]
	r.mu.RUnlock()
	if !found || size <= 0 {
		return 0, 0, false
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return 0, 0, false
	}
	defer face.Close()

	var widest fixed.Int26_6
	lines := strings.Split(s, "\n")
	for _, line := range lines {
		if adv := font.MeasureString(face, line); adv > widest {
			widest = adv
		}
	}
	lineHeight := face.Metrics().Height
	return fix(widest), fix(lineHeight) * float64(len(lines)), true
}

func fix(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
