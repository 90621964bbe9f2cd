// Package cache holds the in-memory mirror of remote documents. It is the
// single writable home of cached entities; everything derived is recomputed
// from its snapshots.
package cache

import "sync"

// Entity is anything the cache can hold.
type Entity interface {
	EntityID() string
	EntityActive() bool
}

// DefaultRecentLimit bounds the "recent" view.
const DefaultRecentLimit = 10

// Cache is an id-keyed, insertion-ordered store for one collection. Upserts
// are idempotent and keyed by id; the later upsert wins. A bounded recent
// view is kept alongside the main ordering.
//
// Every mutation runs the OnChange hook synchronously before the lock is
// released, so derived totals are never stale relative to a read that
// follows the mutation. The hook must not call back into the cache.
type Cache[T Entity] struct {
	mu          sync.RWMutex
	byID        map[string]T
	order       []string
	recent      []T
	recentLimit int

	onChange func(snapshot []T)
}

func New[T Entity]() *Cache[T] {
	return &Cache[T]{
		byID:        make(map[string]T),
		recentLimit: DefaultRecentLimit,
	}
}

// OnChange registers the eager recompute hook. Nil disables it.
func (c *Cache[T]) OnChange(fn func(snapshot []T)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onChange = fn
}

// Replace resets the cache to the given records, in order.
func (c *Cache[T]) Replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byID = make(map[string]T, len(items))
	c.order = c.order[:0]

	for _, it := range items {
		id := it.EntityID()
		if _, dup := c.byID[id]; !dup {
			c.order = append(c.order, id)
		}

		c.byID[id] = it
	}

	c.changed()
}

// Append upserts records at the end of the ordering (next-page merge).
// Records already present keep their position.
func (c *Cache[T]) Append(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, it := range items {
		c.put(it, false)
	}

	c.changed()
}

// Upsert inserts or updates one record. New records go to the end.
func (c *Cache[T]) Upsert(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.put(item, false)
	c.changed()
}

// Prepend upserts one record at the front of the ordering and pushes it
// onto the recent view.
func (c *Cache[T]) Prepend(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.put(item, true)
	c.pushRecent(item)
	c.changed()
}

// PrependMany prepends a batch, preserving the batch's own order, and feeds
// the recent view from the front of the batch.
func (c *Cache[T]) PrependMany(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(items) - 1; i >= 0; i-- {
		c.put(items[i], true)
	}

	for i := len(items) - 1; i >= 0; i-- {
		c.pushRecent(items[i])
	}

	c.changed()
}

// ReplaceID swaps a provisional record for its confirmed counterpart,
// keeping the provisional position. The replacement is a replace, not a
// merge, so provisional and confirmed records never coexist.
func (c *Cache[T]) ReplaceID(oldID string, item T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[oldID]; !ok {
		c.put(item, true)
		c.changed()

		return
	}

	delete(c.byID, oldID)
	c.byID[item.EntityID()] = item

	for i, id := range c.order {
		if id == oldID {
			c.order[i] = item.EntityID()
			break
		}
	}

	for i := range c.recent {
		if c.recent[i].EntityID() == oldID {
			c.recent[i] = item
			break
		}
	}

	c.changed()
}

// Remove drops a record from the cache and the recent view.
func (c *Cache[T]) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[id]; !ok {
		return false
	}

	delete(c.byID, id)

	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}

	for i := range c.recent {
		if c.recent[i].EntityID() == id {
			c.recent = append(c.recent[:i], c.recent[i+1:]...)
			break
		}
	}

	c.changed()

	return true
}

func (c *Cache[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.byID[id]

	return it, ok
}

// List returns all records in cache order.
func (c *Cache[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.snapshot()
}

// ListActive returns records whose active flag is set, in cache order.
func (c *Cache[T]) ListActive() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []T

	for _, id := range c.order {
		if it := c.byID[id]; it.EntityActive() {
			out = append(out, it)
		}
	}

	return out
}

// Recent returns the bounded recent view, newest first.
func (c *Cache[T]) Recent() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]T(nil), c.recent...)
}

// SetRecent replaces the recent view (createdAt-descending fetch),
// trimmed to the view bound.
func (c *Cache[T]) SetRecent(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(items) > c.recentLimit {
		items = items[:c.recentLimit]
	}

	c.recent = append(c.recent[:0], items...)
	c.changed()
}

func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.order)
}

// Clear drops everything, main ordering and recent view alike.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byID = make(map[string]T)
	c.order = nil
	c.recent = nil
	c.changed()
}

func (c *Cache[T]) put(item T, front bool) {
	id := item.EntityID()

	if _, ok := c.byID[id]; ok {
		c.byID[id] = item

		for i := range c.recent {
			if c.recent[i].EntityID() == id {
				c.recent[i] = item
				break
			}
		}

		return
	}

	c.byID[id] = item

	if front {
		c.order = append([]string{id}, c.order...)
	} else {
		c.order = append(c.order, id)
	}
}

func (c *Cache[T]) pushRecent(item T) {
	for i := range c.recent {
		if c.recent[i].EntityID() == item.EntityID() {
			c.recent[i] = item
			return
		}
	}

	c.recent = append([]T{item}, c.recent...)
	if len(c.recent) > c.recentLimit {
		c.recent = c.recent[:c.recentLimit]
	}
}

func (c *Cache[T]) snapshot() []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}

	return out
}

func (c *Cache[T]) changed() {
	if c.onChange != nil {
		c.onChange(c.snapshot())
	}
}
