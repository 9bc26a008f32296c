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

// WheelRuntimeState is a snapshot of the timers held by a wheel.
type WheelRuntimeState struct {
	Tick    uint64              `json:"tick"`
	Pending int                 `json:"pending"`
	Levels  []LevelRuntimeState `json:"levels"`
}

// LevelRuntimeState is the runtime state of a single level.
type LevelRuntimeState struct {
	Level         int    `json:"level"`
	Slots         int    `json:"slots"`
	TicksPerSlot  uint64 `json:"ticksPerSlot"`
	OccupiedSlots int    `json:"occupiedSlots"`
	Timers        int    `json:"timers"`
	Canceled      int    `json:"canceled"`
}

// IntrospectState returns the runtime state of the wheel.
// Note: this walks every timer, so it is purely for debugging and monitoring.
func (w *Wheel) IntrospectState() *WheelRuntimeState {
	state := &WheelRuntimeState{
		Tick:    w.tick,
		Pending: w.resident,
		Levels:  make([]LevelRuntimeState, len(w.levels)),
	}
	for i := range w.levels {
		state.Levels[i] = w.levels[i].introspectState(i+1, &w.arena)
	}
	return state
}

func (l *level) introspectState(num int, a *arena) LevelRuntimeState {
	state := LevelRuntimeState{
		Level:        num,
		Slots:        l.size(),
		TicksPerSlot: l.ticksPerSlot(),
	}
	for s := range l.slots {
		if l.slots[s].empty() {
			continue
		}
		state.OccupiedSlots++
		for idx := l.slots[s].head; idx != nilIndex; idx = a.nodes[idx].next {
			state.Timers++
			if !a.nodes[idx].active {
				state.Canceled++
			}
		}
	}
	return state
}
