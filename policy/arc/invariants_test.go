package arc

import (
	"fmt"

	"github.com/IvanBrykalov/arccache/internal/list"
)

// Structural checks used by the tests. Each verify method takes the
// partition lock, so it can run after (not during) concurrent work.

// walk collects the handles of l, failing if the list is longer than its
// recorded length (a cycle or a stray link).
func walk[K comparable, V any](a *list.Arena[K, V], l *list.List) ([]list.Handle, error) {
	out := make([]list.Handle, 0, l.Len())
	for h := range a.All(l) {
		if len(out) > l.Len() {
			return nil, fmt.Errorf("list longer than its length %d", l.Len())
		}
		out = append(out, h)
	}
	if len(out) != l.Len() {
		return nil, fmt.Errorf("walked %d nodes, length says %d", len(out), l.Len())
	}
	return out, nil
}

func (p *recencyPart[K, V]) verify() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.live.Len() > p.capacity {
		return fmt.Errorf("recency: %d live > capacity %d", p.live.Len(), p.capacity)
	}
	if p.ghostCap > 0 && p.ghost.Len() > p.ghostCap {
		return fmt.Errorf("recency: %d ghosts > ghost capacity %d", p.ghost.Len(), p.ghostCap)
	}
	live, err := walk(p.arena, &p.live)
	if err != nil {
		return fmt.Errorf("recency live: %w", err)
	}
	if len(live) != len(p.liveIdx) {
		return fmt.Errorf("recency: list has %d live, index %d", len(live), len(p.liveIdx))
	}
	for _, h := range live {
		n := p.arena.Node(h)
		if p.liveIdx[n.Key] != h {
			return fmt.Errorf("recency: index does not point at node for %v", n.Key)
		}
		if _, dup := p.ghostIdx[n.Key]; dup {
			return fmt.Errorf("recency: %v is live and ghost", n.Key)
		}
		if n.Count < 1 {
			return fmt.Errorf("recency: %v has count %d", n.Key, n.Count)
		}
	}
	ghosts, err := walk(p.arena, &p.ghost)
	if err != nil {
		return fmt.Errorf("recency ghost: %w", err)
	}
	if len(ghosts) != len(p.ghostIdx) {
		return fmt.Errorf("recency: list has %d ghosts, index %d", len(ghosts), len(p.ghostIdx))
	}
	for _, h := range ghosts {
		if k := p.arena.Node(h).Key; p.ghostIdx[k] != h {
			return fmt.Errorf("recency: ghost index does not point at node for %v", k)
		}
	}
	if got, want := p.arena.Len(), len(live)+len(ghosts); got != want {
		return fmt.Errorf("recency: arena holds %d nodes, lists %d", got, want)
	}
	return nil
}

func (p *frequencyPart[K, V]) verify() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.liveIdx) > p.capacity {
		return fmt.Errorf("frequency: %d live > capacity %d", len(p.liveIdx), p.capacity)
	}
	if p.ghostCap > 0 && p.ghost.Len() > p.ghostCap {
		return fmt.Errorf("frequency: %d ghosts > ghost capacity %d", p.ghost.Len(), p.ghostCap)
	}
	total, minFreq := 0, 0
	for freq, b := range p.buckets {
		if b.Len() == 0 {
			return fmt.Errorf("frequency: empty bucket %d kept", freq)
		}
		hs, err := walk(p.arena, b)
		if err != nil {
			return fmt.Errorf("frequency bucket %d: %w", freq, err)
		}
		for _, h := range hs {
			n := p.arena.Node(h)
			if n.Count != freq {
				return fmt.Errorf("frequency: %v has count %d in bucket %d", n.Key, n.Count, freq)
			}
			if p.liveIdx[n.Key] != h {
				return fmt.Errorf("frequency: index does not point at node for %v", n.Key)
			}
			if _, dup := p.ghostIdx[n.Key]; dup {
				return fmt.Errorf("frequency: %v is live and ghost", n.Key)
			}
		}
		total += len(hs)
		if minFreq == 0 || freq < minFreq {
			minFreq = freq
		}
	}
	if total != len(p.liveIdx) {
		return fmt.Errorf("frequency: buckets hold %d, index %d", total, len(p.liveIdx))
	}
	if minFreq != p.minFreq {
		return fmt.Errorf("frequency: minFreq %d, smallest bucket %d", p.minFreq, minFreq)
	}
	ghosts, err := walk(p.arena, &p.ghost)
	if err != nil {
		return fmt.Errorf("frequency ghost: %w", err)
	}
	if len(ghosts) != len(p.ghostIdx) {
		return fmt.Errorf("frequency: list has %d ghosts, index %d", len(ghosts), len(p.ghostIdx))
	}
	for _, h := range ghosts {
		if k := p.arena.Node(h).Key; p.ghostIdx[k] != h {
			return fmt.Errorf("frequency: ghost index does not point at node for %v", k)
		}
	}
	if got, want := p.arena.Len(), total+len(ghosts); got != want {
		return fmt.Errorf("frequency: arena holds %d nodes, lists %d", got, want)
	}
	return nil
}

// verify checks both partitions, key exclusivity across them and the
// capacity sum. The cache must be quiescent.
func (c *Cache[K, V]) verify() error {
	if err := c.recency.verify(); err != nil {
		return err
	}
	if err := c.frequency.verify(); err != nil {
		return err
	}
	r, f := c.recency, c.frequency
	r.mu.Lock()
	defer r.mu.Unlock()
	f.mu.Lock()
	defer f.mu.Unlock()

	if sum := r.capacity + f.capacity; sum != c.capacity {
		return fmt.Errorf("capacities %d+%d != %d", r.capacity, f.capacity, c.capacity)
	}
	if r.capacity < c.recencyFloor || f.capacity < c.floor {
		return fmt.Errorf("capacities %d/%d below floors %d/%d", r.capacity, f.capacity, c.recencyFloor, c.floor)
	}
	for _, idx := range []map[K]list.Handle{r.liveIdx, r.ghostIdx} {
		for k := range idx {
			if _, ok := f.liveIdx[k]; ok {
				return fmt.Errorf("%v in recency and frequency live", k)
			}
			if _, ok := f.ghostIdx[k]; ok {
				return fmt.Errorf("%v in recency and frequency ghost", k)
			}
		}
	}
	return nil
}

// recencyKeys returns live recency keys from MRU to LRU.
func (p *recencyPart[K, V]) keys() []K {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]K, 0, p.live.Len())
	for h := range p.arena.All(&p.live) {
		out = append(out, p.arena.Node(h).Key)
	}
	return out
}

// ghostKeys returns ghost keys from newest to oldest.
func (p *recencyPart[K, V]) ghostKeys() []K {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]K, 0, p.ghost.Len())
	for h := range p.arena.All(&p.ghost) {
		out = append(out, p.arena.Node(h).Key)
	}
	return out
}

func (p *frequencyPart[K, V]) has(k K) (live, ghost bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, live = p.liveIdx[k]
	_, ghost = p.ghostIdx[k]
	return live, ghost
}

func (p *frequencyPart[K, V]) count(k K) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.liveIdx[k]
	if !ok {
		return 0
	}
	return p.arena.Node(h).Count
}
