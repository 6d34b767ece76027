package cache

import (
	"context"

	"github.com/IvanBrykalov/arccache/policy"
)

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason policy.EvictReason)
}

// Options configures the cache behavior. Zero values are safe;
// defaults are applied in New():
//   - nil Policy   => LRU
//   - Shards <= 0  => auto (rounded up to power of two)
//   - nil Metrics  => NoopMetrics
//   - nil Hasher   => util.Hash
type Options[K comparable, V any] struct {
	// Capacity is the total entry limit, split evenly (rounded up) across
	// shards.
	Capacity int

	// Shards defines the number of shards. If 0, an automatic value is chosen
	// (≈ 2*GOMAXPROCS) and rounded to the next power of two.
	Shards int

	// Policy builds one eviction policy per shard; nil => lru.Factory.
	Policy policy.Factory[K, V]

	// Hasher maps a key to the 64-bit hash used for shard selection.
	Hasher func(K) uint64

	// Loader fetches a value on cache miss. Used by GetOrLoad.
	Loader func(ctx context.Context, k K) (V, error)

	// OnEvict is called on eviction under the policy lock; keep it lightweight.
	OnEvict policy.EvictFunc[K, V]

	Metrics Metrics
}
