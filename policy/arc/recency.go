package arc

import (
	"sync"

	"github.com/IvanBrykalov/arccache/internal/list"
	"github.com/IvanBrykalov/arccache/policy"
)

// entry is a node in transit between partitions (promotion).
type entry[K comparable, V any] struct {
	key   K
	value V
	count int
}

// partStats is a point-in-time view of one partition.
type partStats struct {
	len, capacity, ghostLen int
	evictions               uint64
}

// recencyPart is the recency partition (T1 with its ghost list B1): an LRU
// list of live entries plus a bounded list of keys recently evicted from it.
//
// Live and ghost nodes share one arena; eviction moves a node from the live
// list onto the ghost list in place, dropping its value.
type recencyPart[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu        sync.Mutex
	capacity  int
	ghostCap  int
	threshold int
	arena     *list.Arena[K, V]
	live      list.List // head = MRU, tail = LRU
	ghost     list.List // head = newest, tail = oldest
	liveIdx   map[K]list.Handle
	ghostIdx  map[K]list.Handle
	evictions uint64

	onEvict policy.EvictFunc[K, V]
}

func newRecencyPart[K comparable, V any](capacity, ghostCap, threshold int, onEvict policy.EvictFunc[K, V]) *recencyPart[K, V] {
	return &recencyPart[K, V]{
		capacity:  capacity,
		ghostCap:  ghostCap,
		threshold: threshold,
		arena:     list.NewArena[K, V](capacity + ghostCap),
		liveIdx:   make(map[K]list.Handle, capacity),
		ghostIdx:  make(map[K]list.Handle, ghostCap),
		onEvict:   onEvict,
	}
}

// put inserts or updates k→v at the MRU end. It reports false only when the
// partition has no capacity.
func (p *recencyPart[K, V]) put(k K, v V) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.liveIdx[k]; ok {
		p.arena.Node(h).Value = v
		p.arena.MoveToFront(&p.live, h)
		return true
	}
	return p.insertLocked(entry[K, V]{key: k, value: v, count: 1})
}

// update overwrites the value of a live key and moves it to MRU.
// It does not count as an access.
func (p *recencyPart[K, V]) update(k K, v V) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.liveIdx[k]
	if !ok {
		return false
	}
	p.arena.Node(h).Value = v
	p.arena.MoveToFront(&p.live, h)
	return true
}

// get returns the value of a live key, moving it to MRU and counting the
// access. promote reports that the access count reached the threshold.
// A miss has no side effects.
func (p *recencyPart[K, V]) get(k K) (v V, promote, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.liveIdx[k]
	if !ok {
		return v, false, false
	}
	p.arena.MoveToFront(&p.live, h)
	n := p.arena.Node(h)
	return n.Value, n.Touch() >= p.threshold, true
}

// peek reads a live value without touching order or count.
func (p *recencyPart[K, V]) peek(k K) (V, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.liveIdx[k]; ok {
		return p.arena.Node(h).Value, true
	}
	var zero V
	return zero, false
}

// take removes a live key and hands its node contents to the caller.
func (p *recencyPart[K, V]) take(k K) (entry[K, V], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.liveIdx[k]
	if !ok {
		return entry[K, V]{}, false
	}
	n := p.arena.Node(h)
	e := entry[K, V]{key: n.Key, value: n.Value, count: n.Count}
	p.arena.Unlink(&p.live, h)
	p.arena.Release(h)
	delete(p.liveIdx, k)
	return e, true
}

// restore puts back an entry that could not be promoted, keeping its count.
// A newer live value for the key wins.
func (p *recencyPart[K, V]) restore(e entry[K, V]) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.liveIdx[e.key]; ok {
		return true
	}
	return p.insertLocked(e)
}

// checkGhost reports whether k was recently evicted from this partition and
// forgets it if so.
func (p *recencyPart[K, V]) checkGhost(k K) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.ghostIdx[k]
	if !ok {
		return false
	}
	p.dropGhostLocked(k, h)
	return true
}

// remove deletes a live key without recording it as a ghost.
func (p *recencyPart[K, V]) remove(k K) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.liveIdx[k]
	if !ok {
		return false
	}
	p.arena.Unlink(&p.live, h)
	p.arena.Release(h)
	delete(p.liveIdx, k)
	return true
}

func (p *recencyPart[K, V]) increaseCapacity() {
	p.mu.Lock()
	p.capacity++
	p.mu.Unlock()
}

// decreaseCapacity shrinks the partition by one, evicting the LRU entry
// first when the partition is full. It fails at or below floor.
func (p *recencyPart[K, V]) decreaseCapacity(floor int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.capacity <= floor || p.capacity <= 0 {
		return false
	}
	if p.live.Len() >= p.capacity {
		p.evictLocked(policy.EvictResize)
	}
	p.capacity--
	return true
}

func (p *recencyPart[K, V]) stats() partStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return partStats{len: p.live.Len(), capacity: p.capacity, ghostLen: p.ghost.Len(), evictions: p.evictions}
}

// -------------------- internals (mu held) --------------------

func (p *recencyPart[K, V]) insertLocked(e entry[K, V]) bool {
	if p.capacity <= 0 {
		return false
	}
	if h, ok := p.ghostIdx[e.key]; ok {
		p.dropGhostLocked(e.key, h)
	}
	for p.live.Len() >= p.capacity {
		p.evictLocked(policy.EvictCapacity)
	}
	h := p.arena.Alloc(e.key, e.value, e.count)
	p.arena.PushFront(&p.live, h)
	p.liveIdx[e.key] = h
	return true
}

// evictLocked moves the LRU node onto the ghost list, dropping the oldest
// ghost first when the ghost list is full.
func (p *recencyPart[K, V]) evictLocked(reason policy.EvictReason) {
	h := p.live.Back()
	if h == list.Nil {
		return
	}
	n := p.arena.Node(h)
	k, v := n.Key, n.Value
	p.arena.Unlink(&p.live, h)
	delete(p.liveIdx, k)
	p.evictions++

	if p.ghostCap > 0 {
		if p.ghost.Len() >= p.ghostCap {
			old := p.ghost.Back()
			p.dropGhostLocked(p.arena.Node(old).Key, old)
		}
		var zero V
		n.Value = zero
		n.Count = 1
		p.arena.PushFront(&p.ghost, h)
		p.ghostIdx[k] = h
	} else {
		p.arena.Release(h)
	}

	if p.onEvict != nil {
		p.onEvict(k, v, reason)
	}
}

func (p *recencyPart[K, V]) dropGhostLocked(k K, h list.Handle) {
	p.arena.Unlink(&p.ghost, h)
	p.arena.Release(h)
	delete(p.ghostIdx, k)
}
