package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"emperror.dev/errors"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/arccache/policy"
	"github.com/IvanBrykalov/arccache/policy/arc"
	"github.com/IvanBrykalov/arccache/policy/lfu"
	"github.com/IvanBrykalov/arccache/policy/lruk"
)

func policies() map[string]policy.Factory[string, int] {
	return map[string]policy.Factory[string, int]{
		"lru":  nil,
		"lruk": lruk.Factory[string, int](1),
		"lfu":  lfu.Factory[string, int](0),
		"arc":  arc.Factory[string, int](0),
	}
}

// Basic Put/Get/Remove semantics for every policy.
func TestCache_BasicPutGetRemove(t *testing.T) {
	t.Parallel()

	for name, f := range policies() {
		t.Run(name, func(t *testing.T) {
			c := MustNew(Options[string, int]{Capacity: 64, Shards: 4, Policy: f})
			t.Cleanup(func() { _ = c.Close() })

			c.Put("a", 1)
			c.Put("a", 11)
			if v, ok := c.Get("a"); !ok || v != 11 {
				t.Fatalf("Get a want 11, got %v ok=%v", v, ok)
			}
			if !c.Remove("a") {
				t.Fatal("Remove a must be true")
			}
			if _, ok := c.Get("a"); ok {
				t.Fatal("a must be absent after Remove")
			}
			if c.Remove("a") {
				t.Fatal("second Remove must be false")
			}
		})
	}
}

// Capacity is split per shard (rounded up); the total never exceeds
// Shards*ceil(Capacity/Shards).
func TestCache_CapacityBound(t *testing.T) {
	t.Parallel()

	for name, f := range policies() {
		t.Run(name, func(t *testing.T) {
			c := MustNew(Options[string, int]{Capacity: 30, Shards: 4, Policy: f})
			for i := range 1000 {
				k := fmt.Sprint(i)
				c.Put(k, i)
				c.Get(k)
			}
			if n := c.Len(); n > 32 || n == 0 {
				t.Fatalf("Len = %d", n)
			}
			if s := c.Stats(); s.Shards != 4 || s.Evictions == 0 {
				t.Fatalf("stats %+v", s)
			}
		})
	}
}

// Deterministic LRU eviction: single shard, small capacity.
// Accessing "a" promotes it; inserting "c" evicts LRU ("b").
func TestCache_EvictionLRU(t *testing.T) {
	t.Parallel()

	var evicted []string
	c := MustNew(Options[string, int]{
		Capacity: 2,
		Shards:   1, // force a single shard so LRU is global
		OnEvict:  func(k string, _ int, _ policy.EvictReason) { evicted = append(evicted, k) },
	})
	t.Cleanup(func() { _ = c.Close() })

	c.Put("a", 1)
	c.Put("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expect hit for a")
	}
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b must be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a must survive (promoted)")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("OnEvict saw %v", evicted)
	}
}

// ARC shards keep a frequently used key through a scan.
func TestCache_ARCShardResistsScan(t *testing.T) {
	t.Parallel()

	c := MustNew(Options[string, int]{Capacity: 8, Shards: 1, Policy: arc.Factory[string, int](0)})
	c.Put("hot", 1)
	c.Get("hot")
	for i := range 100 {
		c.Put(fmt.Sprint("scan", i), i)
	}
	if _, ok := c.Get("hot"); !ok {
		t.Fatal("hot key lost to a scan")
	}
}

type countingMetrics struct {
	mu           sync.Mutex
	hits, misses int
	evicts       map[policy.EvictReason]int
}

func (m *countingMetrics) Hit()  { m.mu.Lock(); m.hits++; m.mu.Unlock() }
func (m *countingMetrics) Miss() { m.mu.Lock(); m.misses++; m.mu.Unlock() }
func (m *countingMetrics) Evict(r policy.EvictReason) {
	m.mu.Lock()
	if m.evicts == nil {
		m.evicts = map[policy.EvictReason]int{}
	}
	m.evicts[r]++
	m.mu.Unlock()
}

func TestCache_MetricsHooks(t *testing.T) {
	t.Parallel()

	m := &countingMetrics{}
	c := MustNew(Options[string, int]{Capacity: 1, Shards: 1, Metrics: m})
	c.Put("a", 1)
	c.Get("a")
	c.Get("b")
	c.Put("b", 2)

	if m.hits != 1 || m.misses != 1 || m.evicts[policy.EvictCapacity] != 1 {
		t.Fatalf("metrics %+v", m)
	}
	if s := c.Stats(); s.Hits != 1 || s.Misses != 1 || s.Evictions != 1 || s.Len != 1 {
		t.Fatalf("stats %+v", s)
	}
}

func TestCache_InvalidCapacity(t *testing.T) {
	t.Parallel()

	if _, err := New(Options[string, int]{}); !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("err = %v", err)
	}
}

func TestCache_Closed(t *testing.T) {
	t.Parallel()

	c := MustNew(Options[string, int]{Capacity: 4})
	c.Put("a", 1)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	c.Put("b", 2)
	if _, ok := c.Get("a"); ok {
		t.Fatal("closed cache served a hit")
	}
	if c.Remove("a") {
		t.Fatal("closed cache removed a key")
	}
}

func TestCache_GetOrLoad_NoLoader(t *testing.T) {
	t.Parallel()

	c := MustNew(Options[string, int]{Capacity: 4})
	if _, err := c.GetOrLoad(context.Background(), "a"); !errors.Is(err, ErrNoLoader) {
		t.Fatalf("err = %v", err)
	}
}

func TestCache_GetOrLoad_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	c := MustNew(Options[string, int]{
		Capacity: 4,
		Loader:   func(context.Context, string) (int, error) { return 0, boom },
	})
	if _, err := c.GetOrLoad(context.Background(), "a"); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if c.Len() != 0 {
		t.Fatal("failed load was cached")
	}
}

// A GetOrLoad miss is recorded once by the policy, and a load does not add
// accesses to the stored entry.
func TestCache_GetOrLoad_CountsOneAccess(t *testing.T) {
	t.Parallel()

	var inner *arc.Cache[string, int]
	c := MustNew(Options[string, int]{
		Capacity: 8,
		Shards:   1,
		Policy: func(capacity int, onEvict policy.EvictFunc[string, int]) policy.Policy[string, int] {
			inner = arc.MustNew(arc.Options[string, int]{Capacity: capacity, OnEvict: onEvict})
			return inner
		},
		Loader: func(context.Context, string) (int, error) { return 7, nil },
	})

	if v, err := c.GetOrLoad(context.Background(), "a"); err != nil || v != 7 {
		t.Fatalf("GetOrLoad = %v, %v", v, err)
	}
	if s := inner.Stats(); s.Misses != 1 || s.Hits != 0 || s.Promotions != 0 {
		t.Fatalf("arc stats after load: %+v", s)
	}
	if s := c.Stats(); s.Misses != 1 || s.Hits != 0 {
		t.Fatalf("cache stats after load: %+v", s)
	}
}

// Singleflight test: concurrent GetOrLoad calls for the same key
// should trigger the Loader at most once; subsequent calls are cache hits.
func TestCache_GetOrLoad_Singleflight(t *testing.T) {
	var calls int64

	c := MustNew(Options[string, string]{
		Capacity: 64,
		Policy:   arc.Factory[string, string](0),
		Loader: func(_ context.Context, k string) (string, error) {
			atomic.AddInt64(&calls, 1)
			time.Sleep(5 * time.Millisecond) // simulate I/O
			return "v:" + k, nil
		},
	})
	t.Cleanup(func() { _ = c.Close() })

	const N = 64
	var g errgroup.Group
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := make(chan struct{})
	for range N {
		g.Go(func() error {
			<-start
			v, err := c.GetOrLoad(ctx, "k")
			if err != nil {
				return err
			}
			if v != "v:k" {
				return fmt.Errorf("got %q", v)
			}
			return nil
		})
	}
	close(start)
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("loader must run exactly once, got %d", got)
	}
	if v, err := c.GetOrLoad(context.Background(), "k"); err != nil || v != "v:k" {
		t.Fatalf("second GetOrLoad failed: v=%q err=%v", v, err)
	}
}
