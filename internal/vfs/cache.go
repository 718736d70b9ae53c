package vfs

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultFilesCacheSize is used when a non-positive size is requested.
const DefaultFilesCacheSize = 1024

// FilesCache keeps resolved nodes of one filesystem so that resolving the same name
// twice yields the same node, and with it the same cached metadata.
type FilesCache struct {
	files *lru.Cache[string, FileObject]
}

// NewFilesCache creates a cache holding at most size nodes.
func NewFilesCache(size int) *FilesCache {
	if size <= 0 {
		size = DefaultFilesCacheSize
	}
	// lru.New only fails for non-positive sizes.
	files, _ := lru.New[string, FileObject](size)
	return &FilesCache{files: files}
}

// Get returns the cached node for name.
func (c *FilesCache) Get(name FileName) (FileObject, bool) {
	return c.files.Get(name.URI())
}

// Put caches f under its name.
func (c *FilesCache) Put(f FileObject) {
	c.files.Add(f.Name().URI(), f)
}

// PutIfAbsent caches f unless a node with the same name is already cached, and returns
// the node that ends up in the cache.
func (c *FilesCache) PutIfAbsent(f FileObject) FileObject {
	previous, found, _ := c.files.PeekOrAdd(f.Name().URI(), f)
	if found {
		return previous
	}
	return f
}

// Remove evicts the node cached under name.
func (c *FilesCache) Remove(name FileName) {
	c.files.Remove(name.URI())
}

// RefreshTree calls Refresh on the cached node for name and on every cached node below it.
func (c *FilesCache) RefreshTree(name FileName) {
	uri := name.URI()
	prefix := strings.TrimSuffix(uri, "/") + "/"
	for _, key := range c.files.Keys() {
		if key != uri && !strings.HasPrefix(key, prefix) {
			continue
		}
		if f, ok := c.files.Peek(key); ok {
			f.Refresh()
		}
	}
}

// Clear evicts every node.
func (c *FilesCache) Clear() {
	c.files.Purge()
}

// Len returns the number of cached nodes.
func (c *FilesCache) Len() int {
	return c.files.Len()
}
