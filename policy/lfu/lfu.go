// Package lfu implements a Least-Frequently-Used policy with frequency aging.
package lfu

import (
	"slices"
	"sync"

	"github.com/IvanBrykalov/arccache/internal/list"
	"github.com/IvanBrykalov/arccache/policy"
)

// Cache evicts the entry with the lowest access count; among entries with the
// same count, the one that entered that count first goes first.
//
// Aging: the cache tracks the sum of access counts of resident entries. When
// the average count per entry exceeds MaxAverageFreq, every count is reduced
// by MaxAverageFreq/2 (never below 1). Entries that were hot long ago thus
// lose their advantage over entries that are hot now.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	cap     int
	maxAvg  int
	arena   *list.Arena[K, V]
	idx     map[K]list.Handle
	buckets map[int]*list.List // access count -> FIFO of nodes at that count
	minFreq int
	total   int // sum of Count over resident nodes
	onEvict policy.EvictFunc[K, V]
}

// Options configures an LFU cache.
type Options[K comparable, V any] struct {
	// Capacity is the entry count limit.
	Capacity int
	// MaxAverageFreq triggers aging when exceeded by the average access
	// count. Zero or negative disables aging.
	MaxAverageFreq int
	// OnEvict is called for every capacity eviction.
	OnEvict policy.EvictFunc[K, V]
}

// New constructs an LFU cache.
func New[K comparable, V any](opt Options[K, V]) *Cache[K, V] {
	if opt.Capacity < 0 {
		opt.Capacity = 0
	}
	return &Cache[K, V]{
		cap:     opt.Capacity,
		maxAvg:  opt.MaxAverageFreq,
		arena:   list.NewArena[K, V](opt.Capacity),
		idx:     make(map[K]list.Handle, opt.Capacity),
		buckets: make(map[int]*list.List),
		onEvict: opt.OnEvict,
	}
}

// Factory returns a policy.Factory producing LFU instances.
func Factory[K comparable, V any](maxAverageFreq int) policy.Factory[K, V] {
	return func(capacity int, onEvict policy.EvictFunc[K, V]) policy.Policy[K, V] {
		return New(Options[K, V]{Capacity: capacity, MaxAverageFreq: maxAverageFreq, OnEvict: onEvict})
	}
}

// Put inserts k→v with count 1, or updates an existing entry; an update
// counts as an access.
func (c *Cache[K, V]) Put(k K, v V) {
	if c.cap == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.idx[k]; ok {
		c.arena.Node(h).Value = v
		c.touchLocked(h)
		return
	}
	if len(c.idx) >= c.cap {
		c.evictLocked()
	}
	h := c.arena.Alloc(k, v, 1)
	c.idx[k] = h
	c.arena.PushBack(c.bucket(1), h)
	c.minFreq = 1
	c.addTotalLocked(1)
}

// Get returns the value for k and increments its access count on hit.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.idx[k]
	if !ok {
		var zero V
		return zero, false
	}
	c.touchLocked(h)
	return c.arena.Node(h).Value, true
}

// Value returns the value for k or the zero value on miss.
func (c *Cache[K, V]) Value(k K) V {
	v, _ := c.Get(k)
	return v
}

// Remove deletes k if present.
func (c *Cache[K, V]) Remove(k K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.idx[k]
	if !ok {
		return false
	}
	c.dropLocked(h)
	return true
}

// Len returns the number of resident entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.idx)
}

// Peek returns the value for k without incrementing its access count.
func (c *Cache[K, V]) Peek(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.idx[k]; ok {
		return c.arena.Node(h).Value, true
	}
	var zero V
	return zero, false
}

// Freq returns the current access count of k (0 if absent) without
// recording an access.
func (c *Cache[K, V]) Freq(k K) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.idx[k]; ok {
		return c.arena.Node(h).Count
	}
	return 0
}

// -------------------- internals (mu held) --------------------

func (c *Cache[K, V]) bucket(freq int) *list.List {
	b, ok := c.buckets[freq]
	if !ok {
		b = &list.List{}
		c.buckets[freq] = b
	}
	return b
}

// touchLocked moves h to the bucket for its next count.
func (c *Cache[K, V]) touchLocked(h list.Handle) {
	n := c.arena.Node(h)
	old := n.Count
	c.unlinkFromBucket(h, old)
	n.Touch()
	c.arena.PushBack(c.bucket(n.Count), h)
	if c.minFreq == old && c.buckets[old] == nil {
		c.minFreq = n.Count
	}
	c.addTotalLocked(1)
}

func (c *Cache[K, V]) unlinkFromBucket(h list.Handle, freq int) {
	b := c.buckets[freq]
	c.arena.Unlink(b, h)
	if b.Len() == 0 {
		delete(c.buckets, freq)
	}
}

// evictLocked drops the oldest node of the minFreq bucket.
func (c *Cache[K, V]) evictLocked() {
	b := c.buckets[c.minFreq]
	if b == nil {
		c.recomputeMinFreq()
		if b = c.buckets[c.minFreq]; b == nil {
			return
		}
	}
	h := b.Front()
	n := *c.arena.Node(h)
	c.dropLocked(h)
	if c.onEvict != nil {
		c.onEvict(n.Key, n.Value, policy.EvictCapacity)
	}
}

func (c *Cache[K, V]) dropLocked(h list.Handle) {
	n := c.arena.Node(h)
	freq, key := n.Count, n.Key
	c.unlinkFromBucket(h, freq)
	c.total -= freq
	delete(c.idx, key)
	c.arena.Release(h)
	if freq == c.minFreq && c.buckets[freq] == nil {
		c.recomputeMinFreq()
	}
}

func (c *Cache[K, V]) recomputeMinFreq() {
	c.minFreq = 0
	for f := range c.buckets {
		if c.minFreq == 0 || f < c.minFreq {
			c.minFreq = f
		}
	}
}

// addTotalLocked records delta accesses and ages all counts when the average
// exceeds the configured maximum.
func (c *Cache[K, V]) addTotalLocked(delta int) {
	c.total += delta
	if c.maxAvg <= 0 || len(c.idx) == 0 {
		return
	}
	if c.total/len(c.idx) > c.maxAvg {
		c.ageLocked()
	}
}

// ageLocked lowers every count by maxAvg/2 (floor 1), keeping the relative
// FIFO order of nodes that land in the same bucket.
func (c *Cache[K, V]) ageLocked() {
	dec := c.maxAvg / 2
	if dec < 1 {
		dec = 1
	}
	old := c.buckets
	c.buckets = make(map[int]*list.List, len(old))
	c.total = 0

	freqs := make([]int, 0, len(old))
	for f := range old {
		freqs = append(freqs, f)
	}
	slices.Sort(freqs)

	for _, f := range freqs {
		b := old[f]
		for h := b.Front(); h != list.Nil; {
			next := c.arena.Next(h)
			c.arena.Unlink(b, h)
			n := c.arena.Node(h)
			n.Count -= dec
			if n.Count < 1 {
				n.Count = 1
			}
			c.arena.PushBack(c.bucket(n.Count), h)
			c.total += n.Count
			h = next
		}
	}
	c.recomputeMinFreq()
}

var _ policy.Policy[string, int] = (*Cache[string, int])(nil)
