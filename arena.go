// Copyright (c) 2026 Uber Technologies, Inc.

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package timewheel

// nilIndex terminates slot lists. Index 0 of the arena is never handed out.
const nilIndex = 0

// Callback is invoked with the argument given to Insert when a timer
// expires. The wheel never inspects or releases args; any cleanup it needs
// is the callback's responsibility.
type Callback func(args interface{})

// Handle identifies a scheduled timer. It can only be used to cancel the
// timer, and becomes stale once the timer fires or is reclaimed.
// The zero Handle never refers to a timer.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero returns whether h is the zero Handle, as returned by Insert for
// timers that fired synchronously.
func (h Handle) IsZero() bool {
	return h.index == nilIndex
}

type node struct {
	callback Callback
	args     interface{}
	expire   uint64 // in ticks, fixed at insert
	seq      uint64 // insertion order, breaks ties between equal expiries
	next     uint32
	gen      uint32
	active   bool
}

// arena stores every node the wheel owns. Nodes are addressed by index so
// that moving them between slots never copies or frees them, and reused
// indices are told apart by their generation.
type arena struct {
	nodes []node
	free  []uint32
}

func newArena() arena {
	// Reserve index 0 as the list terminator.
	return arena{nodes: make([]node, 1, 64)}
}

func (a *arena) alloc() uint32 {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		return idx
	}
	a.nodes = append(a.nodes, node{gen: 1})
	return uint32(len(a.nodes) - 1)
}

// release returns idx to the free list and invalidates outstanding handles.
func (a *arena) release(idx uint32) {
	n := &a.nodes[idx]
	gen := n.gen + 1
	if gen == 0 {
		gen = 1
	}
	*n = node{gen: gen}
	a.free = append(a.free, idx)
}

// lookup returns the node h refers to, or nil if h is stale.
func (a *arena) lookup(h Handle) *node {
	if h.index == nilIndex || int(h.index) >= len(a.nodes) {
		return nil
	}
	n := &a.nodes[h.index]
	if n.gen != h.gen || n.callback == nil {
		return nil
	}
	return n
}

// slotList is a FIFO list of arena indices. The zero value is empty.
type slotList struct {
	head uint32
	tail uint32
}

func (l *slotList) empty() bool { return l.head == nilIndex }

func (l *slotList) push(a *arena, idx uint32) {
	a.nodes[idx].next = nilIndex
	if l.tail == nilIndex {
		l.head = idx
	} else {
		a.nodes[l.tail].next = idx
	}
	l.tail = idx
}

// take detaches and returns the head of the list, leaving the slot empty.
// The detached chain is walked through node.next.
func (l *slotList) take() uint32 {
	head := l.head
	l.head, l.tail = nilIndex, nilIndex
	return head
}
