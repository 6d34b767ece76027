package main

import (
	"sync"

	hcarc "github.com/hashicorp/golang-lru/arc/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/arccache/cache"
	"github.com/IvanBrykalov/arccache/metrics/prom"
	"github.com/IvanBrykalov/arccache/policy"
	"github.com/IvanBrykalov/arccache/policy/arc"
	"github.com/IvanBrykalov/arccache/policy/lfu"
	"github.com/IvanBrykalov/arccache/policy/lruk"
)

const (
	metricsNamespace = "arccache"
	metricsSubsystem = "bench"
)

// benchCache is what the workload needs from a cache.
type benchCache interface {
	Put(k, v string)
	Get(k string) (string, bool)
	Len() int
}

func policyNames() []string {
	return []string{"lru", "lruk", "lfu", "arc", "hashicorp-arc"}
}

// buildCache constructs the configured cache and registers its metrics on reg.
func buildCache(cfg config, reg prometheus.Registerer) (benchCache, error) {
	if cfg.Policy == "hashicorp-arc" {
		c, err := hcarc.NewARC[string, string](cfg.Capacity)
		if err != nil {
			return nil, err
		}
		return hashicorpARC{c}, nil
	}

	opt := cache.Options[string, string]{
		Capacity: cfg.Capacity,
		Shards:   cfg.Shards,
		Metrics:  prom.New(reg, metricsNamespace, metricsSubsystem, nil),
	}
	switch cfg.Policy {
	case "lru":
		// nil => LRU by default
	case "lruk":
		opt.Policy = lruk.Factory[string, string](cfg.LRUK)
	case "lfu":
		opt.Policy = lfu.Factory[string, string](cfg.LFUMaxAvg)
	case "arc":
		shards := &arcShards{}
		opt.Policy = shards.factory(cfg.Threshold)
		reg.MustRegister(prom.NewARCCollector(metricsNamespace, metricsSubsystem, nil, shards.stats))
	}
	c, err := cache.New(opt)
	if err != nil {
		return nil, err
	}
	prom.RegisterSize(reg, metricsNamespace, metricsSubsystem, nil, c)
	return c, nil
}

// arcShards remembers every ARC instance the sharded cache creates so their
// stats can be summed at scrape time.
type arcShards struct {
	mu     sync.Mutex
	caches []*arc.Cache[string, string]
}

func (s *arcShards) factory(threshold int) policy.Factory[string, string] {
	return func(capacity int, onEvict policy.EvictFunc[string, string]) policy.Policy[string, string] {
		c := arc.MustNew(arc.Options[string, string]{
			Capacity:           capacity,
			TransformThreshold: threshold,
			OnEvict:            onEvict,
		})
		s.mu.Lock()
		s.caches = append(s.caches, c)
		s.mu.Unlock()
		return c
	}
}

func (s *arcShards) stats() arc.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum arc.Stats
	for _, c := range s.caches {
		sum = sum.Add(c.Stats())
	}
	return sum
}

// hashicorpARC adapts github.com/hashicorp/golang-lru/arc/v2 as a baseline.
type hashicorpARC struct {
	*hcarc.ARCCache[string, string]
}

func (h hashicorpARC) Put(k, v string) { h.Add(k, v) }
