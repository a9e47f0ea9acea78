package gateway

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// blobScheme prefixes transient in-memory blob handles stored in a
// track's file path while running on the fallback store.
const blobScheme = "mem://"

type blob struct {
	owner       string
	data        []byte
	contentType string
}

// BlobCache holds uploaded song bytes in memory while the app runs on
// the local fallback store. Handles do not survive a restart: a track
// persisted by the fallback store keeps its handle, but the bytes behind
// it are gone.
type BlobCache struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

// NewBlobCache creates an empty BlobCache.
func NewBlobCache() *BlobCache {
	return &BlobCache{blobs: make(map[string]blob)}
}

// Put stores the bytes for the given owner and returns a transient
// handle.
func (c *BlobCache) Put(owner string, data []byte, contentType string) string {
	id := uuid.New().String()
	c.mu.Lock()
	c.blobs[id] = blob{owner: owner, data: data, contentType: contentType}
	c.mu.Unlock()
	return blobScheme + id
}

// Get returns the bytes and content type behind a handle. Blobs are
// exclusively owned: a handle only resolves for the user who uploaded
// it.
func (c *BlobCache) Get(owner, handle string) (data []byte, contentType string, ok bool) {
	id := strings.TrimPrefix(handle, blobScheme)
	c.mu.RLock()
	b, ok := c.blobs[id]
	c.mu.RUnlock()
	if !ok || b.owner != owner {
		return nil, "", false
	}
	return b.data, b.contentType, true
}

// Delete drops the bytes behind a handle.
func (c *BlobCache) Delete(handle string) {
	id := strings.TrimPrefix(handle, blobScheme)
	c.mu.Lock()
	delete(c.blobs, id)
	c.mu.Unlock()
}

// IsHandle reports whether a file path refers to a cached blob rather
// than a durable storage key.
func IsHandle(filePath string) bool {
	return strings.HasPrefix(filePath, blobScheme)
}

// URL returns the serve path for a blob handle.
func URL(handle string) string {
	return "/blobs/" + strings.TrimPrefix(handle, blobScheme)
}
