// Package crud holds the admin list state and the form checks that run
// before any create/update request leaves the client.
package crud

import (
	"slices"
	"sync"
	"time"
)

// Collection is a locally held copy of one entity list. Mutations splice the
// server's answer in place instead of re-fetching the list. It is safe for
// concurrent use: two tabs of one admin session share a collection.
type Collection[T any] struct {
	mu    sync.RWMutex
	items []T
	id    func(T) int
}

func NewCollection[T any](items []T, id func(T) int) *Collection[T] {
	cp := make([]T, len(items))
	copy(cp, items)
	return &Collection[T]{items: cp, id: id}
}

// Items returns a snapshot of the list.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Collection[T]) Find(id int) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if c.id(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Upsert replaces the item with the same id or appends it. Items without an
// id are always appended.
func (c *Collection[T]) Upsert(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id := c.id(item); id != 0 {
		for i, it := range c.items {
			if c.id(it) == id {
				c.items[i] = item
				return
			}
		}
	}
	c.items = append(c.items, item)
}

func (c *Collection[T]) Remove(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, it := range c.items {
		if c.id(it) == id {
			c.items = slices.Delete(c.items, i, i+1)
			return true
		}
	}
	return false
}

// Cache keeps one collection per key (session id and entity kind) until ttl passes.
type Cache[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry[T]
}

type cacheEntry[T any] struct {
	col     *Collection[T]
	expires time.Time
}

func NewCache[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{ttl: ttl, now: time.Now, entries: map[string]cacheEntry[T]{}}
}

// Get returns the cached collection, loading it with load when absent, expired or refresh is set.
func (c *Cache[T]) Get(key string, refresh bool, load func() (*Collection[T], error)) (*Collection[T], error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	now := c.now()
	if ok && !refresh && now.Before(e.expires) {
		c.mu.Unlock()
		return e.col, nil
	}
	c.mu.Unlock()

	col, err := load()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry[T]{col: col, expires: now.Add(c.ttl)}
	c.sweepLocked(now)
	c.mu.Unlock()
	return col, nil
}

// Update runs fn against the cached collection under the cache lock, if present.
func (c *Cache[T]) Update(key string, fn func(*Collection[T])) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		fn(e.col)
	}
}

// Splice upserts item into the cached collection. An item the server
// returned without an id cannot be matched later, so the entry is dropped
// and the next read loads the list again.
func (c *Cache[T]) Splice(key string, item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	if e.col.id(item) == 0 {
		delete(c.entries, key)
		return
	}
	e.col.Upsert(item)
}

// Peek returns the cached collection without loading.
func (c *Cache[T]) Peek(key string) (*Collection[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	return e.col, true
}

func (c *Cache[T]) Drop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache[T]) sweepLocked(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
}
