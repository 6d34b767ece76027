package main

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

type result struct {
	Elapsed            time.Duration
	Ops, Reads, Writes uint64
	Hits, Misses       uint64
}

func (r result) opsPerSec() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Elapsed.Seconds()
}

func (r result) hitRate() float64 {
	if r.Reads == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Reads) * 100
}

func (r result) String() string {
	return fmt.Sprintf("ops=%d (%.0f ops/s)  reads=%d  writes=%d  hits=%d  misses=%d  hit-rate=%.2f%%  elapsed=%v",
		r.Ops, r.opsPerSec(), r.Reads, r.Writes, r.Hits, r.Misses, r.hitRate(), r.Elapsed)
}

func key(i uint64) string { return "k:" + strconv.FormatUint(i, 10) }

func preload(c benchCache, n int) {
	for i := range n {
		c.Put(key(uint64(i)), "v"+strconv.Itoa(i))
	}
}

// runWorkload drives cfg.Workers goroutines until cfg.Duration elapses or
// ctx is cancelled. Each worker owns its RNG and Zipf source.
func runWorkload(ctx context.Context, cfg config, c benchCache) (result, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var reads, writes, hits, misses atomic.Uint64
	keysMax := uint64(cfg.Keys - 1)

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := range cfg.Workers {
		g.Go(func() error {
			r := rand.New(rand.NewSource(cfg.Seed + int64(w)*9973))
			zipf := rand.NewZipf(r, cfg.ZipfS, cfg.ZipfV, keysMax)
			for ctx.Err() == nil {
				k := key(zipf.Uint64())
				if r.Intn(100) < cfg.ReadPct {
					reads.Add(1)
					if _, ok := c.Get(k); ok {
						hits.Add(1)
					} else {
						misses.Add(1)
					}
				} else {
					writes.Add(1)
					c.Put(k, "v"+strconv.Itoa(r.Int()))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result{}, err
	}

	res := result{
		Elapsed: time.Since(start),
		Reads:   reads.Load(),
		Writes:  writes.Load(),
		Hits:    hits.Load(),
		Misses:  misses.Load(),
	}
	res.Ops = res.Reads + res.Writes
	return res, nil
}
