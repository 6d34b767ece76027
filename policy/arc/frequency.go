package arc

import (
	"sync"

	"github.com/IvanBrykalov/arccache/internal/list"
	"github.com/IvanBrykalov/arccache/policy"
)

// frequencyPart is the frequency partition (T2 with its ghost list B2).
// Live entries are grouped in buckets by access count; the victim is the
// oldest entry of the lowest non-empty bucket.
type frequencyPart[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu        sync.Mutex
	capacity  int
	ghostCap  int
	arena     *list.Arena[K, V]
	buckets   map[int]*list.List // access count -> FIFO (front = oldest)
	minFreq   int                // smallest key in buckets, 0 when empty
	liveIdx   map[K]list.Handle
	ghost     list.List // head = newest, tail = oldest
	ghostIdx  map[K]list.Handle
	evictions uint64

	onEvict policy.EvictFunc[K, V]
}

func newFrequencyPart[K comparable, V any](capacity, ghostCap int, onEvict policy.EvictFunc[K, V]) *frequencyPart[K, V] {
	return &frequencyPart[K, V]{
		capacity: capacity,
		ghostCap: ghostCap,
		arena:    list.NewArena[K, V](capacity + ghostCap),
		buckets:  make(map[int]*list.List),
		liveIdx:  make(map[K]list.Handle, capacity),
		ghostIdx: make(map[K]list.Handle, ghostCap),
		onEvict:  onEvict,
	}
}

// put updates a live key (counting an access) or inserts a new one with
// count 1. It reports false only when the partition has no capacity.
func (p *frequencyPart[K, V]) put(k K, v V) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.liveIdx[k]; ok {
		p.arena.Node(h).Value = v
		p.touchLocked(h)
		return true
	}
	return p.insertLocked(entry[K, V]{key: k, value: v, count: 1})
}

// update overwrites the value of a live key; the write counts as an access.
func (p *frequencyPart[K, V]) update(k K, v V) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.liveIdx[k]
	if !ok {
		return false
	}
	p.arena.Node(h).Value = v
	p.touchLocked(h)
	return true
}

// get returns the value of a live key and moves it to the next bucket.
func (p *frequencyPart[K, V]) get(k K) (V, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.liveIdx[k]
	if !ok {
		var zero V
		return zero, false
	}
	p.touchLocked(h)
	return p.arena.Node(h).Value, true
}

// peek reads a live value without counting an access.
func (p *frequencyPart[K, V]) peek(k K) (V, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.liveIdx[k]; ok {
		return p.arena.Node(h).Value, true
	}
	var zero V
	return zero, false
}

// admit inserts a promoted entry, keeping its access count.
func (p *frequencyPart[K, V]) admit(e entry[K, V]) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.liveIdx[e.key]; ok {
		p.arena.Node(h).Value = e.value
		p.touchLocked(h)
		return true
	}
	return p.insertLocked(e)
}

// cap returns the current capacity.
func (p *frequencyPart[K, V]) cap() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capacity
}

// checkGhost reports whether k was recently evicted from this partition and
// forgets it if so.
func (p *frequencyPart[K, V]) checkGhost(k K) bool {
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
func (p *frequencyPart[K, V]) remove(k K) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.liveIdx[k]
	if !ok {
		return false
	}
	p.unlinkLiveLocked(h)
	p.arena.Release(h)
	delete(p.liveIdx, k)
	return true
}

func (p *frequencyPart[K, V]) increaseCapacity() {
	p.mu.Lock()
	p.capacity++
	p.mu.Unlock()
}

// decreaseCapacity shrinks the partition by one, evicting first when full.
// It fails at or below floor.
func (p *frequencyPart[K, V]) decreaseCapacity(floor int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.capacity <= floor || p.capacity <= 0 {
		return false
	}
	if len(p.liveIdx) >= p.capacity {
		p.evictLocked(policy.EvictResize)
	}
	p.capacity--
	return true
}

func (p *frequencyPart[K, V]) stats() partStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return partStats{len: len(p.liveIdx), capacity: p.capacity, ghostLen: p.ghost.Len(), evictions: p.evictions}
}

// -------------------- internals (mu held) --------------------

func (p *frequencyPart[K, V]) bucket(freq int) *list.List {
	b, ok := p.buckets[freq]
	if !ok {
		b = &list.List{}
		p.buckets[freq] = b
	}
	return b
}

func (p *frequencyPart[K, V]) insertLocked(e entry[K, V]) bool {
	if p.capacity <= 0 {
		return false
	}
	if h, ok := p.ghostIdx[e.key]; ok {
		p.dropGhostLocked(e.key, h)
	}
	for len(p.liveIdx) >= p.capacity {
		p.evictLocked(policy.EvictCapacity)
	}
	if e.count < 1 {
		e.count = 1
	}
	h := p.arena.Alloc(e.key, e.value, e.count)
	p.arena.PushBack(p.bucket(e.count), h)
	p.liveIdx[e.key] = h
	if p.minFreq == 0 || e.count < p.minFreq {
		p.minFreq = e.count
	}
	return true
}

// touchLocked counts one access and moves h to the back of its new bucket.
// The next bucket is never empty afterwards, so minFreq needs no scan.
func (p *frequencyPart[K, V]) touchLocked(h list.Handle) {
	n := p.arena.Node(h)
	old := n.Count
	b := p.buckets[old]
	p.arena.Unlink(b, h)
	if b.Len() == 0 {
		delete(p.buckets, old)
		if p.minFreq == old {
			p.minFreq = old + 1
		}
	}
	n.Touch()
	p.arena.PushBack(p.bucket(n.Count), h)
}

// unlinkLiveLocked detaches h from its bucket, deleting the bucket when it
// empties and rescanning for minFreq if that bucket was the minimum.
func (p *frequencyPart[K, V]) unlinkLiveLocked(h list.Handle) {
	freq := p.arena.Node(h).Count
	b := p.buckets[freq]
	p.arena.Unlink(b, h)
	if b.Len() == 0 {
		delete(p.buckets, freq)
		if freq == p.minFreq {
			p.recomputeMinFreq()
		}
	}
}

func (p *frequencyPart[K, V]) recomputeMinFreq() {
	p.minFreq = 0
	for f := range p.buckets {
		if p.minFreq == 0 || f < p.minFreq {
			p.minFreq = f
		}
	}
}

// evictLocked moves the oldest node of the minFreq bucket onto the ghost list.
func (p *frequencyPart[K, V]) evictLocked(reason policy.EvictReason) {
	b := p.buckets[p.minFreq]
	if b == nil {
		return
	}
	h := b.Front()
	p.unlinkLiveLocked(h)
	n := p.arena.Node(h)
	k, v := n.Key, n.Value
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

func (p *frequencyPart[K, V]) dropGhostLocked(k K, h list.Handle) {
	p.arena.Unlink(&p.ghost, h)
	p.arena.Release(h)
	delete(p.ghostIdx, k)
}
