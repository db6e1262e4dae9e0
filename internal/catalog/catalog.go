// Package catalog provides the copy-on-write definition registry shared by
// rules, missions and achievement templates.
//
// Readers take an immutable snapshot with a single atomic load and never
// block. Writers serialize on a mutex, copy the current slice, apply their
// change and publish the new slice. A snapshot taken before a write keeps
// seeing the old definitions.
package catalog

import (
	"sync"
	"sync/atomic"
)

// Keyed is implemented by every catalog entry.
type Keyed interface {
	Key() string
}

// Catalog is an ordered set of definitions keyed by ID.
//
// Insertion order is preserved. Upserting an existing ID replaces the
// entry in place.
type Catalog[T Keyed] struct {
	mu      sync.Mutex
	entries atomic.Pointer[[]T]
}

// New creates an empty catalog.
func New[T Keyed]() *Catalog[T] {
	c := &Catalog[T]{}
	empty := []T{}
	c.entries.Store(&empty)
	return c
}

// Snapshot returns the current entries. Callers must not modify the slice.
func (c *Catalog[T]) Snapshot() []T {
	return *c.entries.Load()
}

// List returns a copy of the current entries.
func (c *Catalog[T]) List() []T {
	snap := c.Snapshot()
	out := make([]T, len(snap))
	copy(out, snap)
	return out
}

// Len returns the number of entries.
func (c *Catalog[T]) Len() int {
	return len(c.Snapshot())
}

// Get returns the entry with the given ID.
func (c *Catalog[T]) Get(id string) (T, bool) {
	for _, e := range c.Snapshot() {
		if e.Key() == id {
			return e, true
		}
	}
	var zero T
	return zero, false
}

// Has reports whether an entry with the given ID exists.
func (c *Catalog[T]) Has(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// Upsert adds v or replaces the entry with the same ID.
// Returns true when an existing entry was replaced.
func (c *Catalog[T]) Upsert(v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.Snapshot()
	next := make([]T, len(cur), len(cur)+1)
	copy(next, cur)

	for i, e := range next {
		if e.Key() == v.Key() {
			next[i] = v
			c.entries.Store(&next)
			return true
		}
	}
	next = append(next, v)
	c.entries.Store(&next)
	return false
}

// Remove deletes the entry with the given ID.
// Returns false when no such entry exists.
func (c *Catalog[T]) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.Snapshot()
	next := make([]T, 0, len(cur))
	found := false
	for _, e := range cur {
		if e.Key() == id {
			found = true
			continue
		}
		next = append(next, e)
	}
	if found {
		c.entries.Store(&next)
	}
	return found
}

// Update applies fn to a copy of the entry with the given ID and publishes
// the result. Returns false when no such entry exists.
func (c *Catalog[T]) Update(id string, fn func(*T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.Snapshot()
	for i, e := range cur {
		if e.Key() != id {
			continue
		}
		next := make([]T, len(cur))
		copy(next, cur)
		fn(&next[i])
		c.entries.Store(&next)
		return true
	}
	return false
}
