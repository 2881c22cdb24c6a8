/*
cache.go - Coherent in-memory mirror of the item store

PURPOSE:
  Serves all reads without touching the database. The cache is
  write-through: Put/Remove are called by the engine only after the
  corresponding store write has committed, never speculatively. That
  ordering is what keeps the cache from ever showing a state that was
  not actually durable.

COHERENCE:
  After any successful mutating operation returns, the entry for that
  item equals the store's persisted row. On process start the cache is
  fully rebuilt from the store before any read is served. Reload can
  also be called later to recover from suspected drift.

CONCURRENCY:
  A single RWMutex guards the map. Reads take the read lock; the brief
  Put/Remove critical sections are the only points where a reader can
  wait on the engine.
*/
package inventory

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Cache is a read-optimized mirror of the item store, keyed by item id.
type Cache struct {
	mu    sync.RWMutex
	items map[int64]Item
}

// NewCache returns an empty cache. Call Reload before serving reads.
func NewCache() *Cache {
	return &Cache{items: make(map[int64]Item)}
}

// Reload clears all entries and repopulates from the store.
func (c *Cache) Reload(ctx context.Context, store Store) error {
	items, err := store.ListItems(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[int64]Item, len(items))
	for _, it := range items {
		c.items[it.ID] = it
	}
	return nil
}

// Get returns the cached item, or nil if absent.
func (c *Cache) Get(id int64) *Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[id]
	if !ok {
		return nil
	}
	return &it
}

// List returns a snapshot of all cached items ordered by name.
// The returned slice is a defensive copy.
func (c *Cache) List() []Item {
	c.mu.RLock()
	items := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		items = append(items, it)
	}
	c.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].Name == items[j].Name {
			return items[i].ID < items[j].ID
		}
		return items[i].Name < items[j].Name
	})
	return items
}

// Search returns cached items whose name or sku contains the query,
// case-insensitive, ordered by name. An empty query matches everything.
func (c *Cache) Search(query string) []Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.List()
	}

	var result []Item
	for _, it := range c.List() {
		if strings.Contains(strings.ToLower(it.Name), q) ||
			strings.Contains(strings.ToLower(it.SKU), q) {
			result = append(result, it)
		}
	}
	return result
}

// Put stores one item. Called only after the store write committed.
func (c *Cache) Put(item Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[item.ID] = item
}

// Remove drops one entry.
func (c *Cache) Remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
