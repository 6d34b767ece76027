package arc

import (
	"emperror.dev/errors"

	"github.com/IvanBrykalov/arccache/policy"
)

// DefaultTransformThreshold is the number of recency-tier accesses (the
// insertion included) after which an entry moves to the frequency tier.
const DefaultTransformThreshold = 2

// ErrInvalidOption is returned by New for negative or inconsistent Options.
// Use errors.Is to match it; the offending field and value are attached as
// error details.
const ErrInvalidOption = errors.Sentinel("arc: invalid option")

// Options configures an ARC cache. Zero values are safe; defaults are
// applied in New:
//   - TransformThreshold == 0 => DefaultTransformThreshold
//   - GhostCapacity == 0      => each partition's initial capacity
type Options[K comparable, V any] struct {
	// Capacity is the total number of live entries, split between the
	// recency and frequency partitions. The split adapts at runtime; the
	// sum never changes. Zero yields a cache that never stores anything.
	Capacity int

	// TransformThreshold is the access count an entry must reach in the
	// recency partition before it is promoted to the frequency partition.
	TransformThreshold int

	// GhostCapacity bounds each partition's history of evicted keys.
	GhostCapacity int

	// MinPartitionCapacity is the floor neither partition's capacity may
	// drop below while rebalancing. It must not exceed Capacity/2. The
	// recency partition never drops below 1 when Capacity > 0.
	MinPartitionCapacity int

	// OnEvict is called when a live entry leaves the cache because of
	// capacity pressure (reason EvictCapacity) or because its partition
	// shrank (reason EvictResize). It runs under a partition lock.
	OnEvict policy.EvictFunc[K, V]
}

func (o *Options[K, V]) validate() error {
	for _, f := range []struct {
		name  string
		value int
	}{
		{"Capacity", o.Capacity},
		{"TransformThreshold", o.TransformThreshold},
		{"GhostCapacity", o.GhostCapacity},
		{"MinPartitionCapacity", o.MinPartitionCapacity},
	} {
		if f.value < 0 {
			return errors.WithDetails(
				errors.WithMessagef(ErrInvalidOption, "%s must be >= 0", f.name),
				"option", f.name, "value", f.value)
		}
	}
	if o.MinPartitionCapacity > o.Capacity/2 {
		return errors.WithDetails(
			errors.WithMessage(ErrInvalidOption, "MinPartitionCapacity must not exceed Capacity/2"),
			"option", "MinPartitionCapacity", "value", o.MinPartitionCapacity, "capacity", o.Capacity)
	}
	return nil
}

// split returns the initial recency and frequency capacities.
func split(capacity int) (recency, frequency int) {
	frequency = capacity / 2
	return capacity - frequency, frequency
}
