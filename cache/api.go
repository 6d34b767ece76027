package cache

import "context"

// Cache is a sharded, in-memory key/value cache. Each shard is an independent
// eviction policy instance (LRU, LRU-K, LFU or ARC) selected through
// Options.Policy. All methods are safe for concurrent use.
type Cache[K comparable, V any] interface {
	// Put inserts or updates k→v in the shard that owns k.
	Put(k K, v V)

	// Get returns the value for k and a boolean flag indicating presence.
	// What a hit does to the entry's standing is up to the shard policy.
	Get(k K) (V, bool)

	// Remove deletes k if present and returns true on success.
	Remove(k K) bool

	// Len returns the total number of resident entries across all shards.
	Len() int

	// Stats returns hit/miss/eviction counters summed over shards.
	Stats() Stats

	// Close marks the cache closed; later calls are no-ops that report a miss.
	Close() error

	// GetOrLoad returns the value for k, loading it via Options.Loader on miss.
	// Concurrent loads for the same key are coalesced.
	// If no Loader was configured, returns ErrNoLoader.
	GetOrLoad(ctx context.Context, k K) (V, error)
}

// Stats is a point-in-time view of the cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Len       int
	Shards    int
}
