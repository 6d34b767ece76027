// Package lru implements the classic Least-Recently-Used policy.
package lru

import (
	"sync"

	"github.com/IvanBrykalov/arccache/internal/list"
	"github.com/IvanBrykalov/arccache/policy"
)

// Cache is a "move-to-front" LRU cache guarded by a single mutex.
// Head of the list is MRU, tail is LRU.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	cap     int
	arena   *list.Arena[K, V]
	ll      list.List
	idx     map[K]list.Handle
	onEvict policy.EvictFunc[K, V]
}

// New returns an LRU cache holding at most capacity entries.
// A non-positive capacity yields a cache that never stores anything.
// onEvict may be nil.
func New[K comparable, V any](capacity int, onEvict policy.EvictFunc[K, V]) *Cache[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	return &Cache[K, V]{
		cap:     capacity,
		arena:   list.NewArena[K, V](capacity),
		idx:     make(map[K]list.Handle, capacity),
		onEvict: onEvict,
	}
}

// Factory returns a policy.Factory producing LRU instances.
func Factory[K comparable, V any]() policy.Factory[K, V] {
	return func(capacity int, onEvict policy.EvictFunc[K, V]) policy.Policy[K, V] {
		return New[K, V](capacity, onEvict)
	}
}

// Put inserts or updates k→v and marks it most recently used.
// Inserting into a full cache evicts the LRU entry first.
func (c *Cache[K, V]) Put(k K, v V) {
	if c.cap == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.idx[k]; ok {
		c.arena.Node(h).Value = v
		c.arena.MoveToFront(&c.ll, h)
		return
	}
	if c.ll.Len() >= c.cap {
		c.evictLocked()
	}
	h := c.arena.Alloc(k, v, 1)
	c.arena.PushFront(&c.ll, h)
	c.idx[k] = h
}

// Get returns the value for k, promoting it to MRU on hit.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.idx[k]
	if !ok {
		var zero V
		return zero, false
	}
	n := c.arena.Node(h)
	n.Touch()
	c.arena.MoveToFront(&c.ll, h)
	return n.Value, true
}

// Value returns the value for k or the zero value on miss.
func (c *Cache[K, V]) Value(k K) V {
	v, _ := c.Get(k)
	return v
}

// Peek returns the value for k without updating recency.
func (c *Cache[K, V]) Peek(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.idx[k]; ok {
		return c.arena.Node(h).Value, true
	}
	var zero V
	return zero, false
}

// Remove deletes k if present.
func (c *Cache[K, V]) Remove(k K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.idx[k]
	if !ok {
		return false
	}
	c.arena.Unlink(&c.ll, h)
	c.arena.Release(h)
	delete(c.idx, k)
	return true
}

// Len returns the number of resident entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Keys returns resident keys from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]K, 0, c.ll.Len())
	for h := range c.arena.All(&c.ll) {
		out = append(out, c.arena.Node(h).Key)
	}
	return out
}

// evictLocked drops the LRU entry (mu held).
func (c *Cache[K, V]) evictLocked() {
	h := c.ll.Back()
	if h == list.Nil {
		return
	}
	n := *c.arena.Node(h)
	c.arena.Unlink(&c.ll, h)
	c.arena.Release(h)
	delete(c.idx, n.Key)
	if c.onEvict != nil {
		c.onEvict(n.Key, n.Value, policy.EvictCapacity)
	}
}

var _ policy.Policy[string, int] = (*Cache[string, int])(nil)
