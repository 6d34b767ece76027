// Package policy defines the contract shared by every eviction policy in this
// module (ARC, LRU, LRU-K, aging LFU) so callers can swap one for another
// without code changes.
package policy

// Policy is a bounded key/value cache with a specific eviction strategy.
// All methods are safe for concurrent use by multiple goroutines.
//
// A cache is best effort: capacity exhaustion triggers eviction, never an
// error, and a zero-capacity cache accepts Put as a no-op and always misses.
type Policy[K comparable, V any] interface {
	// Put inserts or updates k→v. Whether an update counts as an access
	// is up to the policy.
	Put(k K, v V)

	// Get returns the value for k and whether it was present.
	// A hit is recorded as an access by the policy.
	Get(k K) (V, bool)

	// Peek returns the value for k without recording an access.
	Peek(k K) (V, bool)

	// Value is Get without the presence flag; it returns the zero value on miss.
	Value(k K) V

	// Remove deletes k if resident and reports whether it was.
	// Removal is not an eviction: no eviction callback fires and no
	// history is kept for the key.
	Remove(k K) bool

	// Len returns the number of resident entries.
	Len() int
}

// EvictReason explains why a policy dropped an entry.
type EvictReason int

const (
	// EvictCapacity means the entry was removed to make room for a new entry.
	EvictCapacity EvictReason = iota
	// EvictResize means the entry was removed because the owning partition
	// shrank (ARC capacity rebalancing).
	EvictResize
)

// String returns a stable lowercase label (used for metric labels).
func (r EvictReason) String() string {
	switch r {
	case EvictResize:
		return "resize"
	default:
		return "capacity"
	}
}

// EvictFunc is called for every eviction, under the lock of the evicting
// policy. Keep callbacks lightweight and do not call back into the cache.
type EvictFunc[K comparable, V any] func(k K, v V, reason EvictReason)

// Factory builds a policy instance with the given capacity. It lets wrappers
// such as the sharded cache create one independent instance per shard.
// onEvict may be nil.
type Factory[K comparable, V any] func(capacity int, onEvict EvictFunc[K, V]) Policy[K, V]
