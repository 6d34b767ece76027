package cache

import (
	"context"
	"sync/atomic"

	"emperror.dev/errors"

	"github.com/IvanBrykalov/arccache/internal/singleflight"
	"github.com/IvanBrykalov/arccache/internal/util"
	"github.com/IvanBrykalov/arccache/policy/lru"
)

const (
	// ErrNoLoader is returned by GetOrLoad when no Loader was configured in Options.
	ErrNoLoader = errors.Sentinel("cache: no Loader provided")

	// ErrInvalidCapacity is returned by New for a non-positive Capacity.
	ErrInvalidCapacity = errors.Sentinel("cache: Capacity must be > 0")
)

// cache is a sharded in-memory KV store with a pluggable eviction policy.
// All methods are safe for concurrent use by multiple goroutines.
type cache[K comparable, V any] struct {
	shards []*shard[K, V]
	hash   func(K) uint64
	closed atomic.Bool

	loader func(ctx context.Context, k K) (V, error)

	// singleflight group for coalescing concurrent loads in GetOrLoad.
	sf singleflight.Group[K, V]
}

// New constructs a cache with the provided Options.
// Defaults:
//   - nil Metrics  -> NoopMetrics
//   - nil Policy   -> LRU
//   - nil Hasher   -> util.Hash
//   - Shards <= 0  -> auto, rounded up to the next power of two
func New[K comparable, V any](opt Options[K, V]) (Cache[K, V], error) {
	if opt.Capacity <= 0 {
		return nil, errors.WithDetails(ErrInvalidCapacity, "capacity", opt.Capacity)
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Policy == nil {
		opt.Policy = lru.Factory[K, V]()
	}
	if opt.Hasher == nil {
		opt.Hasher = util.Hash[K]
	}

	n := util.ShardCount(opt.Shards)
	perShard := (opt.Capacity + n - 1) / n // ceil
	shards := make([]*shard[K, V], n)
	for i := range shards {
		shards[i] = newShard(perShard, opt)
	}

	return &cache[K, V]{
		shards: shards,
		hash:   opt.Hasher,
		loader: opt.Loader,
	}, nil
}

// MustNew is like New but panics on invalid options.
func MustNew[K comparable, V any](opt Options[K, V]) Cache[K, V] {
	c, err := New(opt)
	if err != nil {
		panic(err)
	}
	return c
}

// ---- Cache[K,V] implementation ----

func (c *cache[K, V]) Put(k K, v V) {
	if c.closed.Load() {
		return
	}
	c.shardFor(k).Put(k, v)
}

func (c *cache[K, V]) Get(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	return c.shardFor(k).Get(k)
}

func (c *cache[K, V]) Remove(k K) bool {
	if c.closed.Load() {
		return false
	}
	return c.shardFor(k).Remove(k)
}

func (c *cache[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		total += s.Len()
	}
	return total
}

func (c *cache[K, V]) Stats() Stats {
	st := Stats{Shards: len(c.shards)}
	for _, s := range c.shards {
		st.Hits += s.hits.Load()
		st.Misses += s.misses.Load()
		st.Evictions += s.evicts.Load()
		st.Len += s.Len()
	}
	return st
}

// Close marks the cache as closed. Future operations are ignored.
func (c *cache[K, V]) Close() error {
	c.closed.Store(true)
	return nil
}

// GetOrLoad returns the value for k; on miss it loads via Options.Loader,
// coalescing concurrent loads for the same key.
func (c *cache[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	if v, ok := c.Get(k); ok {
		return v, nil
	}
	if c.loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	v, _, err := c.sf.Do(ctx, k, func(ctx context.Context) (V, error) {
		// A previous flight may have stored it meanwhile. Peek keeps this
		// re-check from counting as a second access.
		if v, ok := c.shardFor(k).pol.Peek(k); ok {
			return v, nil
		}
		v, err := c.loader(ctx, k)
		if err != nil {
			return v, err
		}
		c.Put(k, v)
		return v, nil
	})
	return v, err
}

// shardFor picks a shard by hashing the key; len(c.shards) is a power of two.
func (c *cache[K, V]) shardFor(k K) *shard[K, V] {
	return c.shards[util.ShardIndex(c.hash(k), len(c.shards))]
}
