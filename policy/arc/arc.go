package arc

import (
	"sync/atomic"

	"github.com/IvanBrykalov/arccache/policy"
)

// Cache is an Adaptive Replacement Cache. It coordinates a recency partition
// and a frequency partition, promotes hot recency entries, and moves capacity
// between the partitions whenever a recently evicted key is requested again.
//
// All methods are safe for concurrent use. Each partition has its own lock;
// Cache itself holds none, so a Get or Put is a sequence of independently
// atomic partition calls. Concurrent calls may interleave between those
// steps, which can delay a promotion or rebalance on a stale observation but
// never breaks a partition's own structure.
type Cache[K comparable, V any] struct {
	recency   *recencyPart[K, V]
	frequency *frequencyPart[K, V]
	capacity  int
	floor     int

	// recencyFloor is floor raised to 1 for a non-empty cache: new keys only
	// enter through the recency partition, so it must never close.
	recencyFloor int

	hits               atomic.Uint64
	misses             atomic.Uint64
	promotions         atomic.Uint64
	recencyGhostHits   atomic.Uint64
	frequencyGhostHits atomic.Uint64
}

// Stats is a snapshot of the cache state and counters.
// Partition values are read one partition at a time and may be mutually
// inconsistent under concurrent use.
type Stats struct {
	RecencyLen        int
	RecencyCapacity   int
	RecencyGhostLen   int
	FrequencyLen      int
	FrequencyCapacity int
	FrequencyGhostLen int

	Hits               uint64
	Misses             uint64
	Promotions         uint64
	RecencyGhostHits   uint64
	FrequencyGhostHits uint64
	Evictions          uint64
}

// Add returns the field-wise sum of s and o, for aggregating shards.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		RecencyLen:         s.RecencyLen + o.RecencyLen,
		RecencyCapacity:    s.RecencyCapacity + o.RecencyCapacity,
		RecencyGhostLen:    s.RecencyGhostLen + o.RecencyGhostLen,
		FrequencyLen:       s.FrequencyLen + o.FrequencyLen,
		FrequencyCapacity:  s.FrequencyCapacity + o.FrequencyCapacity,
		FrequencyGhostLen:  s.FrequencyGhostLen + o.FrequencyGhostLen,
		Hits:               s.Hits + o.Hits,
		Misses:             s.Misses + o.Misses,
		Promotions:         s.Promotions + o.Promotions,
		RecencyGhostHits:   s.RecencyGhostHits + o.RecencyGhostHits,
		FrequencyGhostHits: s.FrequencyGhostHits + o.FrequencyGhostHits,
		Evictions:          s.Evictions + o.Evictions,
	}
}

// New constructs an ARC cache. It returns ErrInvalidOption (with details)
// for negative values or a MinPartitionCapacity above Capacity/2.
func New[K comparable, V any](opt Options[K, V]) (*Cache[K, V], error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	if opt.TransformThreshold == 0 {
		opt.TransformThreshold = DefaultTransformThreshold
	}

	rc, fc := split(opt.Capacity)
	rg, fg := rc, fc
	if opt.GhostCapacity > 0 {
		rg, fg = opt.GhostCapacity, opt.GhostCapacity
	}
	recencyFloor := opt.MinPartitionCapacity
	if opt.Capacity > 0 {
		recencyFloor = max(recencyFloor, 1)
	}
	return &Cache[K, V]{
		recency:      newRecencyPart[K, V](rc, rg, opt.TransformThreshold, opt.OnEvict),
		frequency:    newFrequencyPart[K, V](fc, fg, opt.OnEvict),
		capacity:     opt.Capacity,
		floor:        opt.MinPartitionCapacity,
		recencyFloor: recencyFloor,
	}, nil
}

// MustNew is like New but panics on invalid options.
func MustNew[K comparable, V any](opt Options[K, V]) *Cache[K, V] {
	c, err := New(opt)
	if err != nil {
		panic(err)
	}
	return c
}

// Factory returns a policy.Factory producing ARC instances with the given
// promotion threshold (0 => DefaultTransformThreshold).
// Negative capacities are treated as zero.
func Factory[K comparable, V any](transformThreshold int) policy.Factory[K, V] {
	return func(capacity int, onEvict policy.EvictFunc[K, V]) policy.Policy[K, V] {
		return MustNew(Options[K, V]{
			Capacity:           max(capacity, 0),
			TransformThreshold: transformThreshold,
			OnEvict:            onEvict,
		})
	}
}

// Get returns the value for k.
//
// The frequency partition is consulted first and is terminal. A recency hit
// that reaches the promotion threshold moves the entry to the frequency
// partition. On a miss, a ghost hit in either partition grows that partition
// by one unit taken from the other.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	if v, ok := c.frequency.get(k); ok {
		c.hits.Add(1)
		return v, true
	}
	if v, promote, ok := c.recency.get(k); ok {
		if promote {
			c.promote(k)
		}
		c.hits.Add(1)
		return v, true
	}
	c.misses.Add(1)
	c.adapt(k)
	var zero V
	return zero, false
}

// Value returns the value for k or the zero value on miss.
func (c *Cache[K, V]) Value(k K) V {
	v, _ := c.Get(k)
	return v
}

// Peek returns the value for k without recording an access, promoting or
// adapting.
func (c *Cache[K, V]) Peek(k K) (V, bool) {
	if v, ok := c.frequency.peek(k); ok {
		return v, true
	}
	return c.recency.peek(k)
}

// Put inserts or updates k→v. A live key is updated in the partition that
// holds it. A new key first triggers ghost-hit rebalancing, then always
// enters the recency partition.
func (c *Cache[K, V]) Put(k K, v V) {
	if c.capacity == 0 {
		return
	}
	if c.frequency.update(k, v) {
		return
	}
	if c.recency.update(k, v) {
		return
	}
	c.adapt(k)
	c.recency.put(k, v)
}

// Remove deletes k from whichever partition holds it and forgets any
// eviction history for it.
func (c *Cache[K, V]) Remove(k K) bool {
	removed := c.frequency.remove(k) || c.recency.remove(k)
	c.recency.checkGhost(k)
	c.frequency.checkGhost(k)
	return removed
}

// Len returns the number of live entries in both partitions.
func (c *Cache[K, V]) Len() int {
	return c.recency.stats().len + c.frequency.stats().len
}

// Capacity returns the total configured capacity.
func (c *Cache[K, V]) Capacity() int { return c.capacity }

// Stats returns a snapshot of sizes, capacities and counters.
func (c *Cache[K, V]) Stats() Stats {
	r, f := c.recency.stats(), c.frequency.stats()
	return Stats{
		RecencyLen:         r.len,
		RecencyCapacity:    r.capacity,
		RecencyGhostLen:    r.ghostLen,
		FrequencyLen:       f.len,
		FrequencyCapacity:  f.capacity,
		FrequencyGhostLen:  f.ghostLen,
		Hits:               c.hits.Load(),
		Misses:             c.misses.Load(),
		Promotions:         c.promotions.Load(),
		RecencyGhostHits:   c.recencyGhostHits.Load(),
		FrequencyGhostHits: c.frequencyGhostHits.Load(),
		Evictions:          r.evictions + f.evictions,
	}
}

// promote moves k from the recency partition to the frequency partition.
// With no frequency capacity the entry stays where it is.
func (c *Cache[K, V]) promote(k K) {
	if c.frequency.cap() == 0 {
		return
	}
	e, ok := c.recency.take(k)
	if !ok {
		return // evicted or promoted concurrently
	}
	if c.frequency.admit(e) {
		c.promotions.Add(1)
		return
	}
	// Frequency capacity was given away in between.
	c.recency.restore(e)
}

// adapt consumes a ghost entry for k, if any, and shifts one unit of capacity
// towards the partition that evicted k. Capacity only moves when the other
// partition can give it up without going below its floor, so the total is
// preserved. The recency partition never drops below one slot.
func (c *Cache[K, V]) adapt(k K) {
	switch {
	case c.recency.checkGhost(k):
		c.recencyGhostHits.Add(1)
		if c.frequency.decreaseCapacity(c.floor) {
			c.recency.increaseCapacity()
		}
	case c.frequency.checkGhost(k):
		c.frequencyGhostHits.Add(1)
		if c.recency.decreaseCapacity(c.recencyFloor) {
			c.frequency.increaseCapacity()
		}
	}
}

var _ policy.Policy[string, int] = (*Cache[string, int])(nil)
