// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

// Package slug turns user-supplied names into safe object key segments.
package slug

import (
	"path"
	"regexp"
	"strings"
)

// MaxLen caps the length of a generated slug.
const MaxLen = 60

var (
	// separators matches every run of characters that isn't a letter or digit.
	separators = regexp.MustCompile(`[^a-z0-9]+`)
	// extension matches a file extension made of letters and digits only.
	extension = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)
)

// Generate creates a key-safe slug from the given string.
// Example: "Mom's Photo (1).JPG" → "mom-s-photo-1-jpg"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = separators.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	if len(result) > MaxLen {
		result = result[:MaxLen]
		if i := strings.LastIndexByte(result, '-'); i > MaxLen/2 {
			result = result[:i]
		}
		result = strings.TrimRight(result, "-")
	}
	return result
}

// FileName splits a client file name into a slugged base and a lowercased
// extension. Directory parts are dropped and an empty base becomes "file".
// An extension that isn't plain alphanumeric is discarded.
func FileName(name string) (base, ext string) {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	ext = strings.ToLower(path.Ext(name))
	base = Generate(strings.TrimSuffix(name, path.Ext(name)))
	if !extension.MatchString(ext) {
		ext = ""
	}
	if base == "" {
		base = "file"
	}
	return base, ext
}
