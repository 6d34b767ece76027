// Package list provides arena-backed doubly linked lists used by the cache
// policies.
//
// Nodes live in an Arena and are addressed by integer Handles instead of
// pointers. A List only records its head, tail and length; the links are
// stored inside the nodes. Both link directions are plain handles, so there
// is no ownership between neighbours and a node can be detached and its slot
// recycled without touching any other structure.
//
// Concurrency: none. Arenas and lists are guarded by the lock of the policy
// that owns them.
package list

import "iter"

// Handle addresses a node inside an Arena. The zero Handle is nil.
type Handle int32

// Nil is the handle that addresses no node.
const Nil Handle = 0

// Node is a cache entry: key, value and access count plus list links.
type Node[K comparable, V any] struct {
	Key   K
	Value V

	// Count is the number of recorded accesses; 1 on first insertion.
	Count int

	// Links are handles into the same arena: head is Front, tail is Back.
	prev Handle
	next Handle
}

// Touch increments the access count and returns the new value.
func (n *Node[K, V]) Touch() int {
	n.Count++
	return n.Count
}

// List is a doubly linked list of nodes stored in an Arena.
// The zero value is an empty list.
type List struct {
	head Handle
	tail Handle
	len  int
}

// Front returns the first node of the list or Nil.
func (l *List) Front() Handle { return l.head }

// Back returns the last node of the list or Nil.
func (l *List) Back() Handle { return l.tail }

// Len returns the number of nodes linked into the list.
func (l *List) Len() int { return l.len }

// Arena owns node storage. Released slots are reused by later allocations.
// The zero value is ready to use.
type Arena[K comparable, V any] struct {
	// nodes[0] is reserved so that the zero Handle means "no node".
	nodes []Node[K, V]
	free  []Handle
}

// NewArena returns an arena with room for hint nodes before growing.
func NewArena[K comparable, V any](hint int) *Arena[K, V] {
	if hint < 0 {
		hint = 0
	}
	return &Arena[K, V]{nodes: make([]Node[K, V], 1, hint+1)}
}

// Alloc stores a new unlinked node and returns its handle.
func (a *Arena[K, V]) Alloc(k K, v V, count int) Handle {
	if len(a.nodes) == 0 {
		a.nodes = make([]Node[K, V], 1, 16)
	}
	var h Handle
	if n := len(a.free); n > 0 {
		h = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.nodes = append(a.nodes, Node[K, V]{})
		h = Handle(len(a.nodes) - 1)
	}
	a.nodes[h] = Node[K, V]{Key: k, Value: v, Count: count}
	return h
}

// Release zeroes the node and returns its slot to the free list.
// The node must already be unlinked from every list.
func (a *Arena[K, V]) Release(h Handle) {
	a.nodes[h] = Node[K, V]{}
	a.free = append(a.free, h)
}

// Node returns the node addressed by h.
// The pointer is only valid until the next Alloc, which may grow the arena.
func (a *Arena[K, V]) Node(h Handle) *Node[K, V] { return &a.nodes[h] }

// Len returns the number of allocated (not released) nodes.
func (a *Arena[K, V]) Len() int {
	if len(a.nodes) == 0 {
		return 0
	}
	return len(a.nodes) - 1 - len(a.free)
}

// Next returns the node after h in its list, or Nil.
func (a *Arena[K, V]) Next(h Handle) Handle { return a.nodes[h].next }

// Prev returns the node before h in its list, or Nil.
func (a *Arena[K, V]) Prev(h Handle) Handle { return a.nodes[h].prev }

// PushFront links h at the head of l in O(1).
func (a *Arena[K, V]) PushFront(l *List, h Handle) {
	n := &a.nodes[h]
	n.prev = Nil
	n.next = l.head
	if l.head != Nil {
		a.nodes[l.head].prev = h
	}
	l.head = h
	if l.tail == Nil {
		l.tail = h
	}
	l.len++
}

// PushBack links h at the tail of l in O(1).
func (a *Arena[K, V]) PushBack(l *List, h Handle) {
	n := &a.nodes[h]
	n.next = Nil
	n.prev = l.tail
	if l.tail != Nil {
		a.nodes[l.tail].next = h
	}
	l.tail = h
	if l.head == Nil {
		l.head = h
	}
	l.len++
}

// Unlink detaches h from l in O(1). The node stays allocated.
func (a *Arena[K, V]) Unlink(l *List, h Handle) {
	n := &a.nodes[h]
	if n.prev != Nil {
		a.nodes[n.prev].next = n.next
	} else {
		l.head = n.next
	}
	if n.next != Nil {
		a.nodes[n.next].prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = Nil, Nil
	l.len--
}

// MoveToFront relinks h at the head of l in O(1).
func (a *Arena[K, V]) MoveToFront(l *List, h Handle) {
	if l.head == h {
		return
	}
	a.Unlink(l, h)
	a.PushFront(l, h)
}

// All iterates the handles of l from front to back.
// The list must not be modified during iteration.
func (a *Arena[K, V]) All(l *List) iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		for h := l.head; h != Nil; h = a.nodes[h].next {
			if !yield(h) {
				return
			}
		}
	}
}
