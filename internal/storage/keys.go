// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rhpbdev/legacyprints/internal/slug"
)

// AssetKind names an asset folder of a memorial.
type AssetKind string

const (
	KindCoverPhoto    AssetKind = "cover-photo"
	KindCollagePhotos AssetKind = "collage-photos"
)

// Valid reports whether k is a known asset folder.
func (k AssetKind) Valid() bool {
	return k == KindCoverPhoto || k == KindCollagePhotos
}

// Folder returns the prefix {owner}/{memorial}/{kind}.
func Folder(ownerID string, memorialID int64, kind AssetKind) string {
	return ownerID + "/" + strconv.FormatInt(memorialID, 10) + "/" + string(kind)
}

// MemorialPrefix returns the prefix holding every asset of a memorial.
func MemorialPrefix(ownerID string, memorialID int64) string {
	return ownerID + "/" + strconv.FormatInt(memorialID, 10)
}

// ObjectKey builds the key of a new upload: the folder followed by the
// slugged base name, a short random suffix and the lowercased extension.
func ObjectKey(ownerID string, memorialID int64, kind AssetKind, fileName string) string {
	base, ext := slug.FileName(fileName)
	return fmt.Sprintf("%s/%s-%s%s", Folder(ownerID, memorialID, kind), base, uuid.NewString()[:8], ext)
}

// OwnsKey reports whether key lies inside the owner's namespace.
func OwnsKey(ownerID, key string) bool {
	if ownerID == "" || strings.Contains(key, "..") {
		return false
	}
	return strings.HasPrefix(key, ownerID+"/")
}
