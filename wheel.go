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

// Package timewheel implements a hierarchical timing wheel: a scheduler
// for large numbers of deferred callbacks with O(1) insertion, O(1)
// cancellation and amortized O(1) work per tick.
//
// Time is measured in ticks supplied by the caller. The wheel has five
// levels. Level 1 has 256 slots of one tick each; levels 2 to 5 have 64
// slots each, every slot spanning a full rotation of the level below. A
// timer is placed in the finest level whose range covers its delay and is
// cascaded into finer levels as Advance crosses its slot, until it reaches
// level 1 and fires.
//
// A Wheel is not safe for concurrent use. Callers that need to share one
// across goroutines must serialize access; the timers package provides a
// clock-driven wrapper that does so.
package timewheel

import (
	"sort"
)

// Wheel schedules callbacks against an externally driven tick counter.
type Wheel struct {
	levels [numLevels]level
	arena  arena

	tick     uint64 // tick of the most recent Advance
	seq      uint64
	resident int

	// due holds the nodes collected from level 1 during Advance until they
	// have been fired.
	due       []dueNode
	advancing bool

	log       Logger
	stats     StatsReporter
	statsTags map[string]string
}

type dueNode struct {
	index  uint32
	gen    uint32
	expire uint64
	seq    uint64
}

// New returns an empty wheel whose current tick is opts.StartTick.
// opts may be nil.
func New(opts *Options) *Wheel {
	w := &Wheel{
		levels:    newLevels(),
		arena:     newArena(),
		log:       opts.logger(),
		stats:     opts.statsReporter(),
		statsTags: opts.statsTags(),
	}
	if opts != nil {
		w.tick = opts.StartTick
		if opts.Name != "" {
			w.log = w.log.WithFields(LogField{"wheel", opts.Name})
		}
	}
	return w
}

// Tick returns the tick passed to the most recent Advance, or the start
// tick if Advance has not been called.
func (w *Wheel) Tick() uint64 {
	return w.tick
}

// Logger returns the logger for this wheel.
func (w *Wheel) Logger() Logger {
	return w.log
}

// Len returns the number of timers held by the wheel, including cancelled
// timers that have not been reclaimed yet.
func (w *Wheel) Len() int {
	return w.resident
}

// Insert schedules callback to be called with args once delay ticks have
// elapsed from the current tick. A zero delay calls callback immediately
// and returns the zero Handle. Delays above MaxDelay are rejected with an
// error wrapping ErrDelayOverflow.
//
// The returned Handle is only useful for Cancel; the wheel keeps ownership
// of the timer.
func (w *Wheel) Insert(delay uint64, callback Callback, args interface{}) (Handle, error) {
	if callback == nil {
		return Handle{}, ErrNilCallback
	}
	if delay == 0 {
		callback(args)
		return Handle{}, nil
	}
	if delay > MaxDelay {
		w.stats.IncCounter(MetricOverflow, w.statsTags, 1)
		return Handle{}, delayOverflowError(delay)
	}

	idx := w.arena.alloc()
	w.seq++
	n := &w.arena.nodes[idx]
	n.callback = callback
	n.args = args
	n.expire = w.tick + delay
	n.seq = w.seq
	n.active = true
	h := Handle{index: idx, gen: n.gen}

	// delay <= MaxDelay, so placement cannot overflow.
	w.place(idx, w.tick)
	w.resident++
	w.stats.IncCounter(MetricInserted, w.statsTags, 1)
	return h, nil
}

// Cancel stops the timer identified by h from firing. It returns false if
// the timer has already fired, been cancelled or been reclaimed.
//
// Cancelled timers stay in their slot until Advance or Clear next visits
// it, so Len does not drop immediately.
func (w *Wheel) Cancel(h Handle) bool {
	n := w.arena.lookup(h)
	if n == nil || !n.active {
		return false
	}
	n.active = false
	w.stats.IncCounter(MetricCanceled, w.statsTags, 1)
	return true
}

// place links idx into the slot its expiry maps to, judged from now.
// It returns false if the delay is out of range, in which case the node
// is left unlinked.
func (w *Wheel) place(idx uint32, now uint64) bool {
	expire := w.arena.nodes[idx].expire
	delay := expire - now
	lvl := 0
	if !reached(expire, now) {
		var ok bool
		if lvl, ok = levelFor(&w.levels, delay); !ok {
			return false
		}
	}
	// Nodes that are already due go to level 1, at the slot of their own
	// expiry, which the running Advance is about to scan.
	l := &w.levels[lvl]
	l.slots[l.index(expire)].push(&w.arena, idx)
	return true
}

func (w *Wheel) reclaim(idx uint32) {
	w.arena.release(idx)
	w.resident--
}

// Advance moves the wheel to now, firing every active timer whose expiry
// has been reached. Calls with now at or before the current tick do
// nothing.
//
// now may jump ahead by any number of ticks. The timers fired are the same,
// and fire in the same order, as if Advance had been called once for each
// tick in between: ordered by expiry, then by insertion.
//
// Callbacks run synchronously. They may call Insert, Cancel and Clear on
// this wheel, but not Advance.
func (w *Wheel) Advance(now uint64) {
	if now <= w.tick {
		return
	}
	if w.advancing {
		panic("timewheel: Advance called from a timer callback")
	}
	w.advancing = true
	defer func() { w.advancing = false }()

	last := w.tick
	if now-last >= w.levels[0].span() && w.log.Enabled(LogLevelDebug) {
		w.log.WithFields(
			LogField{"from", last},
			LogField{"to", now},
		).Debug("Advancing wheel by more than a level 1 rotation.")
	}

	var stats advanceStats
	for lvl := numLevels - 1; lvl > 0; lvl-- {
		w.cascade(lvl, last, now, &stats)
	}
	w.collect(last, now, &stats)

	// Timers inserted by the callbacks below are relative to now.
	w.tick = now
	w.fire(&stats)

	stats.report(w.stats, w.statsTags)
	w.stats.UpdateGauge(MetricPending, w.statsTags, int64(w.resident))
}

// cascade empties every slot of the given level crossed between last and
// now, re-placing the nodes against now.
func (w *Wheel) cascade(lvl int, last, now uint64, stats *advanceStats) {
	l := &w.levels[lvl]
	first, n := l.sweep(last, now)
	for i := 0; i < n; i++ {
		slot := &l.slots[(first+i)&int(l.mask())]
		if slot.empty() {
			continue
		}

		for idx := slot.take(); idx != nilIndex; {
			nd := &w.arena.nodes[idx]
			next := nd.next
			switch {
			case !nd.active:
				w.reclaim(idx)
				stats.reclaimed++
			case !w.place(idx, now):
				w.log.WithFields(
					LogField{"expire", nd.expire},
					LogField{"now", now},
				).Warn("Discarding timer whose delay is out of range.")
				w.reclaim(idx)
				stats.overflow++
			default:
				stats.cascaded++
			}
			idx = next
		}
	}
}

// collect unlinks the due nodes of every level 1 slot crossed between last
// and now. Cancelled nodes are reclaimed; active ones are queued for fire.
// Nodes not due yet stay put; after a full rotation a slot can hold
// timers from a later rotation.
func (w *Wheel) collect(last, now uint64, stats *advanceStats) {
	l := &w.levels[0]
	first, n := l.sweep(last, now)
	for i := 0; i < n; i++ {
		slot := &l.slots[(first+i)&int(l.mask())]
		if slot.empty() {
			continue
		}

		for idx := slot.take(); idx != nilIndex; {
			nd := &w.arena.nodes[idx]
			next := nd.next
			switch {
			case !reached(nd.expire, now):
				slot.push(&w.arena, idx)
			case !nd.active:
				w.reclaim(idx)
				stats.reclaimed++
			default:
				w.due = append(w.due, dueNode{
					index:  idx,
					gen:    nd.gen,
					expire: nd.expire,
					seq:    nd.seq,
				})
			}
			idx = next
		}
	}
}

// fire runs the callbacks of the collected nodes in expiry order. Each
// node is reclaimed before its callback runs, so a callback cancelling its
// own handle is a no-op.
func (w *Wheel) fire(stats *advanceStats) {
	if len(w.due) > 1 {
		sort.Slice(w.due, func(i, j int) bool {
			a, b := w.due[i], w.due[j]
			if a.expire != b.expire {
				return int64(a.expire-b.expire) < 0
			}
			return a.seq < b.seq
		})
	}

	// Callbacks may Clear the wheel, which truncates due.
	for i := 0; i < len(w.due); i++ {
		d := w.due[i]
		nd := &w.arena.nodes[d.index]
		if nd.gen != d.gen {
			continue
		}

		callback, args, active := nd.callback, nd.args, nd.active
		w.reclaim(d.index)
		if !active {
			stats.reclaimed++
			continue
		}
		stats.fired++
		callback(args)
	}
	w.due = w.due[:0]
}

// Clear reclaims every timer without calling any callback. The wheel stays
// usable and keeps its current tick.
func (w *Wheel) Clear() {
	cleared := 0
	for lvl := range w.levels {
		l := &w.levels[lvl]
		for s := range l.slots {
			for idx := l.slots[s].take(); idx != nilIndex; {
				next := w.arena.nodes[idx].next
				w.reclaim(idx)
				cleared++
				idx = next
			}
		}
	}
	for _, d := range w.due {
		if w.arena.nodes[d.index].gen == d.gen {
			w.reclaim(d.index)
			cleared++
		}
	}
	w.due = w.due[:0]

	if cleared > 0 {
		w.log.Debugf("Cleared %d timers.", cleared)
		w.stats.IncCounter(MetricReclaimed, w.statsTags, int64(cleared))
	}
	w.stats.UpdateGauge(MetricPending, w.statsTags, int64(w.resident))
}
