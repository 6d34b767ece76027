package cache

import (
	"github.com/IvanBrykalov/arccache/internal/util"
	"github.com/IvanBrykalov/arccache/policy"
)

// shard is one independent partition of the key space: a self-locking
// policy instance plus counters. The shard adds no lock of its own.
type shard[K comparable, V any] struct {
	pol     policy.Policy[K, V]
	metrics Metrics

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	hits   util.Counter
	misses util.Counter
	evicts util.Counter
}

// newShard builds the shard's policy with an eviction hook that counts,
// reports to Metrics and then calls the user's OnEvict.
func newShard[K comparable, V any](capacity int, opt Options[K, V]) *shard[K, V] {
	s := &shard[K, V]{metrics: opt.Metrics}
	user := opt.OnEvict
	s.pol = opt.Policy(capacity, func(k K, v V, reason policy.EvictReason) {
		s.evicts.Add(1)
		s.metrics.Evict(reason)
		if user != nil {
			user(k, v, reason)
		}
	})
	return s
}

func (s *shard[K, V]) Get(k K) (V, bool) {
	v, ok := s.pol.Get(k)
	if ok {
		s.hits.Add(1)
		s.metrics.Hit()
	} else {
		s.misses.Add(1)
		s.metrics.Miss()
	}
	return v, ok
}

func (s *shard[K, V]) Put(k K, v V)     { s.pol.Put(k, v) }
func (s *shard[K, V]) Remove(k K) bool { return s.pol.Remove(k) }
func (s *shard[K, V]) Len() int        { return s.pol.Len() }
