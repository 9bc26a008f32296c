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

const (
	// Level 1 is the fine-grained wheel: one slot per tick.
	level1Bits = 8
	level1Size = 1 << level1Bits

	// Levels 2 to 5 each cover one full rotation of the level below per slot.
	levelNBits = 6
	levelNSize = 1 << levelNBits

	numLevels = 5

	// MaxDelay is the largest delay, in ticks, that can be scheduled.
	MaxDelay uint64 = 1<<(level1Bits+(numLevels-1)*levelNBits) - 1
)

// level is one tier of the wheel. Slot i of a level holds nodes whose
// expiry, shifted right by shift and masked, equals i.
type level struct {
	shift uint
	bits  uint
	slots []slotList
}

func newLevels() [numLevels]level {
	var levels [numLevels]level
	shift := uint(0)
	for i := range levels {
		bits := uint(levelNBits)
		if i == 0 {
			bits = level1Bits
		}
		levels[i] = level{
			shift: shift,
			bits:  bits,
			slots: make([]slotList, 1<<bits),
		}
		shift += bits
	}
	return levels
}

func (l *level) size() int { return len(l.slots) }

func (l *level) mask() uint64 { return uint64(len(l.slots) - 1) }

// ticksPerSlot is the number of ticks a single slot of this level covers.
func (l *level) ticksPerSlot() uint64 { return 1 << l.shift }

// span is the number of ticks covered by one full rotation of this level,
// and the exclusive upper bound on delays placed into it.
func (l *level) span() uint64 { return 1 << (l.shift + l.bits) }

// index returns the slot that tick falls into.
func (l *level) index(tick uint64) int {
	return int((tick >> l.shift) & l.mask())
}

// sweep returns the slots crossed when time moves from last to now, as a
// starting slot and a count. Slots are visited in tick order starting at
// first and wrapping around the level. Crossings are counted in slot
// periods, not ticks: a jump shorter than the span can still cross every
// slot when it starts at the end of one.
func (l *level) sweep(last, now uint64) (first, n int) {
	first = (l.index(last) + 1) & int(l.mask())
	crossed := (now >> l.shift) - (last >> l.shift)
	if crossed >= uint64(l.size()) {
		return first, l.size()
	}
	return first, int(crossed)
}

// levelFor returns the level a node with the given delay belongs in.
// A delay is placed in the first level whose span exceeds it, so a delay
// equal to a level's span lands in the next level up.
func levelFor(levels *[numLevels]level, delay uint64) (int, bool) {
	for i := range levels {
		if delay < levels[i].span() {
			return i, true
		}
	}
	return 0, false
}

// reached reports whether a node expiring at expire is due at now. The
// comparison is wrap-safe: expiry ticks are allowed to wrap around uint64.
func reached(expire, now uint64) bool {
	return int64(now-expire) >= 0
}
