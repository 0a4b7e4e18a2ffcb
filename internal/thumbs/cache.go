// Package thumbs caches and retrieves per-item thumbnails for recycled row
// views. A fetch is tagged with its destination slot when issued and only
// binds if the slot still carries that tag when the fetch completes.
package thumbs

import (
	"container/list"
	"fmt"
	"image"
	"sync"

	"github.com/justyntemme/docview/internal/debug"
	"github.com/justyntemme/docview/internal/metrics"
	"github.com/justyntemme/docview/internal/model"
)

// Key identifies a cached thumbnail: the same document at two pixel sizes
// occupies two entries.
type Key struct {
	ID   model.DocID
	Size int
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%d", k.ID, k.Size)
}

// Cache is a bounded LRU of decoded thumbnails. It outlives load cycles and
// is shared by every view showing thumbnails. Safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[Key]*list.Element
	lru        *list.List // front = most recent
	maxEntries int
}

type cacheEntry struct {
	key Key
	img image.Image
}

// NewCache creates a cache holding at most maxEntries thumbnails.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Cache{
		entries:    make(map[Key]*list.Element),
		lru:        list.New(),
		maxEntries: maxEntries,
	}
}

// Get looks up a thumbnail without ever triggering a fetch.
func (c *Cache) Get(id model.DocID, size int) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[Key{ID: id, Size: size}]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(el)
	return el.Value.(*cacheEntry).img, true
}

// Put inserts or overwrites, evicting the least recently used entries.
func (c *Cache) Put(id model.DocID, size int, img image.Image) {
	key := Key{ID: id, Size: size}

	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).img = img
		c.lru.MoveToFront(el)
		c.mu.Unlock()
		return
	}

	for c.lru.Len() >= c.maxEntries {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		evicted := oldest.Value.(*cacheEntry).key
		delete(c.entries, evicted)
		c.lru.Remove(oldest)
		debug.Log(debug.THUMB, "Cache: evicted %s", evicted)
	}

	c.entries[key] = c.lru.PushFront(&cacheEntry{key: key, img: img})
	n := c.lru.Len()
	c.mu.Unlock()

	metrics.SetThumbnailCacheSize(n)
}

// Len returns the number of cached thumbnails.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[Key]*list.Element)
	c.lru.Init()
	c.mu.Unlock()

	metrics.SetThumbnailCacheSize(0)
	debug.Log(debug.THUMB, "Cache: cleared")
}
