// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package canvas

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/rhpbdev/legacyprints/internal/models"
	"github.com/rhpbdev/legacyprints/internal/scene"
)

// Surface sizes per theme layout.
var (
	TrifoldDimensions = Dimensions{Width: 1100, Height: 760}
	BifoldDimensions  = Dimensions{Width: 800, Height: 600}
)

// DimensionsFor returns the surface size for a theme layout. Unknown
// layouts get the bifold size.
func DimensionsFor(layout models.ThemeLayout) Dimensions {
	if layout == models.LayoutTrifold {
		return TrifoldDimensions
	}
	return BifoldDimensions
}

// TotalPages counts the pages a design can navigate: the theme's pages,
// or more when a saved design grew beyond them.
func TotalPages(theme *models.Theme, saved *scene.Document) int {
	n := 0
	if theme != nil {
		n = len(theme.Data.Pages)
	}
	if saved != nil && len(saved.Pages) > n {
		n = len(saved.Pages)
	}
	return n
}

// ResolvePage picks the content for page index. A saved design wins for
// every index it covers; the theme fills the rest.
func ResolvePage(theme *models.Theme, saved *scene.Document, index int) (scene.Page, error) {
	if saved != nil {
		if p, ok := saved.Page(index); ok {
			return p, nil
		}
	}
	if theme != nil {
		if p, ok := theme.Data.Page(index); ok {
			return p, nil
		}
	}
	return scene.Page{}, fmt.Errorf("resolve page %d: no content", index)
}

const idSuffixSpace = 101559956668416 // 36^9

// NewObjectID returns an identifier of the form obj_<unix ms>_<9 base36
// characters>.
func NewObjectID() string {
	suffix := strconv.FormatUint(rand.Uint64N(idSuffixSpace), 36)
	if pad := 9 - len(suffix); pad > 0 {
		suffix = strings.Repeat("0", pad) + suffix
	}
	return "obj_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + suffix
}
