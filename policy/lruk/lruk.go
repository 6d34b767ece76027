// Package lruk implements the LRU-K admission policy.
package lruk

import (
	"sync"

	"github.com/IvanBrykalov/arccache/policy"
	"github.com/IvanBrykalov/arccache/policy/lru"
)

// Cache is an LRU cache that only admits a key after it has been seen K times.
//
// Queues:
//   - history: an LRU of keys that have not reached K accesses yet; each
//     entry carries its access count and the latest value written for it.
//     Its own capacity bounds how much probation state is kept.
//   - main: a plain LRU of admitted entries.
//
// One-off keys therefore never displace resident entries, which makes the
// policy resistant to scans.
//
// Concurrency: mu serializes the compound history/main sequences; the two
// queues also lock themselves.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	k       int
	main    *lru.Cache[K, V]
	history *lru.Cache[K, pending[V]]
}

// pending is a history entry: accesses seen so far and the last value, if any.
type pending[V any] struct {
	count    int
	value    V
	hasValue bool
}

// Options configures an LRU-K cache. Zero values are safe; defaults are
// applied in New:
//   - HistoryCapacity <= 0 => Capacity
//   - K <= 0               => 2
type Options[K comparable, V any] struct {
	// Capacity is the number of admitted entries.
	Capacity int
	// HistoryCapacity bounds the number of keys tracked on probation.
	HistoryCapacity int
	// K is the number of accesses required before admission.
	K int
	// OnEvict is called when an admitted entry is evicted.
	OnEvict policy.EvictFunc[K, V]
}

// New constructs an LRU-K cache.
func New[K comparable, V any](opt Options[K, V]) *Cache[K, V] {
	if opt.HistoryCapacity <= 0 {
		opt.HistoryCapacity = opt.Capacity
	}
	if opt.K <= 0 {
		opt.K = 2
	}
	return &Cache[K, V]{
		k:       opt.K,
		main:    lru.New[K, V](opt.Capacity, opt.OnEvict),
		history: lru.New[K, pending[V]](opt.HistoryCapacity, nil),
	}
}

// Factory returns a policy.Factory producing LRU-K instances; the history
// queue of every instance is as large as its main queue.
func Factory[K comparable, V any](k int) policy.Factory[K, V] {
	return func(capacity int, onEvict policy.EvictFunc[K, V]) policy.Policy[K, V] {
		return New(Options[K, V]{Capacity: capacity, K: k, OnEvict: onEvict})
	}
}

// Put updates an admitted entry in place. Otherwise it records one access
// and the value on the history queue, and admits the key once it reaches K.
func (c *Cache[K, V]) Put(k K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.main.Peek(k); ok {
		c.main.Put(k, v)
		return
	}
	p, _ := c.history.Peek(k)
	p.count++
	p.value, p.hasValue = v, true
	if p.count >= c.k {
		c.history.Remove(k)
		c.main.Put(k, v)
		return
	}
	c.history.Put(k, p)
}

// Get returns an admitted entry. On miss it records one access on the history
// queue and admits the key if it reached K and a value is known for it.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.main.Get(k); ok {
		return v, true
	}
	p, _ := c.history.Peek(k)
	p.count++
	if p.count >= c.k && p.hasValue {
		c.history.Remove(k)
		c.main.Put(k, p.value)
		return p.value, true
	}
	c.history.Put(k, p)
	var zero V
	return zero, false
}

// Peek returns an admitted entry without recording an access; keys still on
// probation are reported as absent.
func (c *Cache[K, V]) Peek(k K) (V, bool) { return c.main.Peek(k) }

// Value returns the value for k or the zero value on miss.
func (c *Cache[K, V]) Value(k K) V {
	v, _ := c.Get(k)
	return v
}

// Remove deletes k from the main queue and forgets its history.
func (c *Cache[K, V]) Remove(k K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history.Remove(k)
	return c.main.Remove(k)
}

// Len returns the number of admitted entries.
func (c *Cache[K, V]) Len() int { return c.main.Len() }

// HistoryLen returns the number of keys currently on probation.
func (c *Cache[K, V]) HistoryLen() int { return c.history.Len() }

var _ policy.Policy[string, int] = (*Cache[string, int])(nil)
