package arc_test

import (
	"fmt"
	"math/rand"
	"testing"

	hcarc "github.com/hashicorp/golang-lru/arc/v2"

	"github.com/IvanBrykalov/arccache/policy"
	"github.com/IvanBrykalov/arccache/policy/arc"
	"github.com/IvanBrykalov/arccache/policy/lfu"
	"github.com/IvanBrykalov/arccache/policy/lru"
)

type (
	benchCache interface {
		Put(int, int)
		Get(int) (int, bool)
	}
	hashicorpARC struct{ *hcarc.ARCCache[int, int] }
)

func (h hashicorpARC) Put(k, v int) { h.Add(k, v) }

const benchSeed = 1

func benchConstructors() []struct {
	name string
	new  func(capacity int, b *testing.B) benchCache
} {
	return []struct {
		name string
		new  func(capacity int, b *testing.B) benchCache
	}{
		{"ARC", func(capacity int, b *testing.B) benchCache {
			c, err := arc.New(arc.Options[int, int]{Capacity: capacity})
			if err != nil {
				b.Fatal(err)
			}
			return c
		}},
		{"HashicorpARC", func(capacity int, b *testing.B) benchCache {
			c, err := hcarc.NewARC[int, int](capacity)
			if err != nil {
				b.Fatal(err)
			}
			return hashicorpARC{c}
		}},
		{"LRU", func(capacity int, _ *testing.B) benchCache {
			return lru.New[int, int](capacity, nil)
		}},
		{"LFU", func(capacity int, _ *testing.B) benchCache {
			return lfu.New(lfu.Options[int, int]{Capacity: capacity})
		}},
	}
}

// BenchmarkPolicies replays fixed access sequences against each policy and
// reports the hit rate next to the usual timings.
func BenchmarkPolicies(b *testing.B) {
	patterns := []struct {
		name string
		gen  func(capacity int) []int
	}{
		{"Zipf", func(int) []int { return makeZipf(16384, 1<<16, 1.2, 1.0) }},
		{"Loop", func(capacity int) []int { return makeLooping(capacity, 8192, 1<<16, 0.9) }},
		{"ScanThenHot", func(capacity int) []int { return makeScanThenHot(capacity, 1<<16) }},
	}
	for _, p := range patterns {
		b.Run(p.name, func(b *testing.B) {
			for _, capacity := range []int{128, 2048} {
				seq := p.gen(capacity)
				b.Run(fmt.Sprintf("Cap%d", capacity), func(b *testing.B) {
					for _, ctor := range benchConstructors() {
						b.Run(ctor.name, func(b *testing.B) {
							runSequence(b, ctor.new(capacity, b), seq)
						})
					}
				})
			}
		})
	}
}

func runSequence(b *testing.B, c benchCache, seq []int) {
	mask := len(seq) - 1
	for _, k := range seq {
		if _, ok := c.Get(k); !ok {
			c.Put(k, k)
		}
	}
	b.ReportAllocs()
	b.ResetTimer()

	var hits, misses int64
	for i := 0; b.Loop(); i++ {
		k := seq[i&mask]
		if _, ok := c.Get(k); ok {
			hits++
		} else {
			misses++
			c.Put(k, k)
		}
	}
	b.StopTimer()
	b.ReportMetric(float64(hits)/float64(hits+misses)*100, "hit_rate_pct")
}

// BenchmarkParallelGetPut measures lock contention under RunParallel.
func BenchmarkParallelGetPut(b *testing.B) {
	c := arc.MustNew(arc.Options[int, int]{Capacity: 1 << 14})
	for i := range 1 << 14 {
		c.Put(i, i)
	}
	var p policy.Policy[int, int] = c
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(benchSeed))
		for pb.Next() {
			k := r.Intn(1 << 15)
			if r.Intn(10) == 0 {
				p.Put(k, k)
			} else {
				p.Get(k)
			}
		}
	})
}

func makeZipf(universe, seqLen int, skew, bias float64) []int {
	rng := rand.New(rand.NewSource(benchSeed))
	z := rand.NewZipf(rng, skew, bias, uint64(max(universe, 2)-1))
	seq := make([]int, seqLen)
	for i := range seq {
		seq[i] = int(z.Uint64())
	}
	return seq
}

func makeLooping(capacity, universe, seqLen int, hotRatio float64) []int {
	rng := rand.New(rand.NewSource(benchSeed))
	hot := max(1, capacity)
	cold := max(1, universe-hot)
	seq := make([]int, seqLen)
	for i := range seq {
		if rng.Float64() < hotRatio {
			seq[i] = rng.Intn(hot)
		} else {
			seq[i] = hot + rng.Intn(cold)
		}
	}
	return seq
}

// makeScanThenHot interleaves a small hot set with long one-off scans, the
// workload where recency-only policies lose their working set.
func makeScanThenHot(capacity, seqLen int) []int {
	rng := rand.New(rand.NewSource(benchSeed))
	hot := max(1, capacity/2)
	seq := make([]int, seqLen)
	next := hot
	for i := range seq {
		if (i/capacity)%2 == 0 {
			seq[i] = rng.Intn(hot)
		} else {
			seq[i] = next
			next++
		}
	}
	return seq
}
