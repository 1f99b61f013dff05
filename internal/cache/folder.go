// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/rhpbdev/legacyprints/internal/storage"
)

const (
	// DefaultFolderTTL is how long a folder listing is served from memory.
	DefaultFolderTTL = 30 * time.Second

	folderCleanup = 5 * time.Minute
)

// Listing is a cached folder listing and its entity tag.
type Listing struct {
	Objects []storage.Object
	ETag    string
}

// FolderCache keeps recent asset folder listings in process memory, keyed
// by owner and folder. A nil *FolderCache never hits.
type FolderCache struct {
	cache *gocache.Cache
}

// NewFolderCache creates a folder cache whose entries expire after ttl.
func NewFolderCache(ttl time.Duration) *FolderCache {
	if ttl == 0 {
		ttl = DefaultFolderTTL
	}
	return &FolderCache{cache: gocache.New(ttl, folderCleanup)}
}

func folderKey(ownerID, folder string) string {
	return ownerID + "\x00" + folder
}

// Get returns the cached listing for (ownerID, folder).
func (fc *FolderCache) Get(ownerID, folder string) (Listing, bool) {
	if fc == nil {
		return Listing{}, false
	}
	x, found := fc.cache.Get(folderKey(ownerID, folder))
	if !found {
		return Listing{}, false
	}
	return x.(Listing), true
}

// Set caches objects for (ownerID, folder) and returns the stored listing.
func (fc *FolderCache) Set(ownerID, folder string, objects []storage.Object) Listing {
	l := Listing{Objects: objects, ETag: ETag(objects)}
	if fc == nil {
		return l
	}
	fc.cache.Set(folderKey(ownerID, folder), l, gocache.DefaultExpiration)
	return l
}

// Invalidate drops the listing for (ownerID, folder).
func (fc *FolderCache) Invalidate(ownerID, folder string) {
	if fc == nil {
		return
	}
	fc.cache.Delete(folderKey(ownerID, folder))
}

// ETag derives a strong entity tag from the keys, sizes and modification
// times of objects, in order.
func ETag(objects []storage.Object) string {
	h := sha256.New()
	for _, o := range objects {
		h.Write([]byte(o.Key))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(o.Size, 10)))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(o.LastModified.UnixNano(), 10)))
		h.Write([]byte{'\n'})
	}
	return `"` + hex.EncodeToString(h.Sum(nil)[:16]) + `"`
}
