// Package arc implements an Adaptive Replacement Cache.
//
// Design
//
//   - Partitions: live entries are split between a recency partition (an LRU
//     list) and a frequency partition (buckets keyed by access count, FIFO
//     within a bucket). New keys always enter the recency partition.
//
//   - Promotion: every recency hit increments the entry's access count. Once
//     the count reaches Options.TransformThreshold (the insertion counts as
//     the first access) the entry moves to the frequency partition, keeping
//     its count. The frequency partition is terminal.
//
//   - Ghosts: each partition remembers the keys it recently evicted (keys
//     only, no values), bounded by Options.GhostCapacity. A request for a
//     ghost key means that partition was too small: one unit of capacity is
//     moved to it from the other partition. The sum of both capacities always
//     equals Options.Capacity; Options.MinPartitionCapacity is the floor
//     neither side is pushed below. The recency partition additionally keeps
//     at least one slot in a non-empty cache, since it is the only way in.
//
//   - Storage: nodes live in per-partition arenas and are linked by integer
//     handles (see internal/list). Eviction turns a live node into a ghost in
//     place; promotion copies the node out of one arena into the other.
//
//   - Concurrency: each partition has its own mutex; the controller holds no
//     lock between partition calls and keeps its counters in atomics.
//
// A key is in at most one of: recency live, recency ghost, frequency live,
// frequency ghost.
//
// Basic usage
//
//	c, err := arc.New(arc.Options[string, []byte]{Capacity: 10_000})
//	if err != nil {
//	    return err
//	}
//	c.Put("a", []byte("1"))
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//
// The cache satisfies policy.Policy, so it can be swapped with the LRU, LRU-K
// and LFU caches or used per shard through cache.New and arc.Factory.
package arc
