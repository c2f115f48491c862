package thumb

import (
	"strings"
	"sync"
)

// LoadState tracks the lifecycle of one thumbnail lookup.
type LoadState int

const (
	// StateLoading marks a fetch in flight.
	StateLoading LoadState = iota
	// StateLoaded means the image is available at Result.Path.
	StateLoaded
	// StateNotFound means the remote store has no image for the key.
	StateNotFound
)

// Result is the cached outcome of one thumbnail lookup.
type Result struct {
	State LoadState
	Path  string
}

// Key builds the composite cache key for one image lookup.
func Key(platform, gameName, imageType string) string {
	return strings.Join([]string{platform, gameName, imageType}, "|")
}

// Cache is an in-memory map of lookup outcomes, safe for concurrent use.
// It is owned by the UI/command layer and injected into collaborators; the
// index core never touches it.
type Cache struct {
	mu    sync.RWMutex
	items map[string]Result
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string]Result)}
}

// Get returns the cached result for the key.
func (c *Cache) Get(key string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.items[key]
	return r, ok
}

// BeginLoad marks the key as loading. It returns false when the key already
// has a result or a fetch in flight, so only one caller fetches.
func (c *Cache) BeginLoad(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; ok {
		return false
	}
	c.items[key] = Result{State: StateLoading}
	return true
}

// Store records the final result for the key.
func (c *Cache) Store(key string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = r
}
