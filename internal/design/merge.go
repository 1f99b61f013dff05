// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

// Package design persists per-product designs. Saving one page merges it
// into the stored document so the other pages survive untouched.
package design

import "github.com/rhpbdev/legacyprints/internal/scene"

// Merge returns a new document with current stored at index. Pages of
// existing are copied, missing indices below index are filled with empty
// pages, and every other page is preserved. existing is not modified.
func Merge(existing *scene.Document, index int, current scene.Page) scene.Document {
	if index < 0 {
		index = 0
	}
	var out scene.Document
	if existing != nil {
		out = existing.Clone()
	}
	for len(out.Pages) <= index {
		out.Pages = append(out.Pages, scene.EmptyPage())
	}
	out.Pages[index] = current.Clone()
	return out
}
