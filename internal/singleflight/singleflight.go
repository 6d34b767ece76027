// Package singleflight coalesces concurrent loads of the same key.
package singleflight

import (
	"context"
	"sync"

	"emperror.dev/errors"
)

// Group runs at most one load per key at a time; callers that arrive while a
// load is running wait for its result instead of starting their own.
//
// A waiting caller whose ctx is cancelled returns ctx.Err() without
// affecting the running load. The load itself only sees the ctx of the
// caller that started it.
type Group[K comparable, V any] struct {
	mu       sync.Mutex
	inflight map[K]*call[V]
}

type call[V any] struct {
	done    chan struct{} // closed once val/err are set
	val     V
	err     error
	waiters int
}

// Do returns the result of fn for key. shared reports whether the result
// was delivered to more than one caller. A panic in fn is turned into an
// error for every caller.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func(context.Context) (V, error)) (v V, shared bool, err error) {
	g.mu.Lock()
	if g.inflight == nil {
		g.inflight = make(map[K]*call[V])
	}
	if c, ok := g.inflight[key]; ok {
		c.waiters++
		g.mu.Unlock()
		select {
		case <-c.done:
			return c.val, true, c.err
		case <-ctx.Done():
			var zero V
			return zero, false, ctx.Err()
		}
	}
	c := &call[V]{done: make(chan struct{})}
	g.inflight[key] = c
	g.mu.Unlock()

	g.run(ctx, key, c, fn)
	return c.val, c.waiters > 0, c.err
}

// InFlight returns the number of keys currently being loaded.
func (g *Group[K, V]) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inflight)
}

func (g *Group[K, V]) run(ctx context.Context, key K, c *call[V], fn func(context.Context) (V, error)) {
	defer func() {
		if r := recover(); r != nil {
			c.err = errors.Errorf("singleflight: load panicked: %v", r)
		}
		g.mu.Lock()
		delete(g.inflight, key)
		g.mu.Unlock()
		close(c.done)
	}()
	c.val, c.err = fn(ctx)
}
