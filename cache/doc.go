// Package cache provides a generic, sharded in-memory cache on top of the
// eviction policies in this module (LRU by default), with singleflight
// loading and lightweight metrics hooks.
//
// Design
//
//   - Concurrency: the key space is split into shards by hash. Each shard is
//     a self-locking policy instance, so operations on different shards never
//     contend. The default shard count is nextPow2(2*GOMAXPROCS), capped.
//
//   - Policies: Options.Policy is a policy.Factory invoked once per shard with
//     ceil(Capacity/Shards). Use lru.Factory, lruk.Factory, lfu.Factory or
//     arc.Factory. Eviction decisions stay local to a shard.
//
//   - GetOrLoad: coalesces concurrent loads for the same key using
//     singleflight. If Loader is nil, GetOrLoad returns ErrNoLoader.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict signals.
//     By default NoopMetrics is used; metrics/prom exports them to Prometheus.
//
//   - Callbacks: Options.OnEvict(k, v, reason) is called for every eviction
//     under the owning policy's lock.
//
// Basic usage
//
//	c, err := cache.New(cache.Options[string, []byte]{Capacity: 10_000})
//	if err != nil {
//	    return err
//	}
//	c.Put("a", []byte("1"))
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//	c.Remove("a")
//
// ARC shards
//
//	c := cache.MustNew(cache.Options[string, string]{
//	    Capacity: 50_000,
//	    Shards:   16,
//	    Policy:   arc.Factory[string, string](arc.DefaultTransformThreshold),
//	})
//
// With GetOrLoad
//
//	c := cache.MustNew(cache.Options[string, string]{
//	    Capacity: 1024,
//	    Loader: func(ctx context.Context, k string) (string, error) {
//	        return "v:" + k, nil
//	    },
//	})
//	v, err := c.GetOrLoad(context.Background(), "key")
//
// Exporting metrics
//
//	m := prom.New(nil, "arccache", "demo", nil) // implements Metrics
//	c := cache.MustNew(cache.Options[string, []byte]{Capacity: 10_000, Metrics: m})
package cache
