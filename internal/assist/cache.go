package assist

import (
	"context"
	"fmt"
	"sync"

	"github.com/simmerhq/simmer/internal/recipe"
)

// Entry is a single-flight result slot. The creator resolves it exactly
// once; every other caller waits on the same pending result.
type Entry struct {
	done   chan struct{}
	result *recipe.ExtractedRecipe
	err    error
}

func newEntry() *Entry {
	return &Entry{done: make(chan struct{})}
}

func (e *Entry) resolve(result *recipe.ExtractedRecipe, err error) {
	e.result = result
	e.err = err
	close(e.done)
}

// Wait blocks until the entry resolves or the context ends.
func (e *Entry) Wait(ctx context.Context) (*recipe.ExtractedRecipe, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("await assist result: %w", ctx.Err())
	case <-e.done:
		return e.result, e.err
	}
}

// Cache is the injected dedup store, keyed by content hash. Implementations
// must be safe for concurrent use. Production can swap in a distributed
// cache; tests substitute a fake.
type Cache interface {
	// GetOrCreate returns the entry for key, creating it when absent.
	// The boolean reports whether the entry already existed.
	GetOrCreate(key string) (*Entry, bool)
	// Delete evicts a key so a later identical request retries.
	Delete(key string)
}

// MemoryCache is the process-lifetime in-memory Cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// NewMemoryCache constructs an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*Entry)}
}

// GetOrCreate implements Cache.
func (c *MemoryCache) GetOrCreate(key string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok {
		return entry, true
	}
	entry := newEntry()
	c.entries[key] = entry
	return entry, false
}

// Delete implements Cache.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
