package imagesearch

import (
	"image"
	"sync"
)

// Image is a resolved card image
type Image struct {
	Key    string // Query or reference the image was resolved for
	Source string // Name of the source that produced it
	Img    image.Image
}

// Cache memoises resolutions by exact key for one generation run. Failed
// lookups are stored as nil so a key is fetched at most once.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Image
	hits    int
	misses  int
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Image)}
}

// Get returns the cached entry for key. The second result is false when the
// key has never been resolved; a cached failure returns nil, true.
func (c *Cache) Get(key string) (*Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	img, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return img, ok
}

// Put records the outcome for key. A nil image marks the key as failed.
func (c *Cache) Put(key string, img *Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = img
}

func (c *Cache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

func (c *Cache) Misses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.misses
}

// Len returns the number of cached keys, failures included
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
