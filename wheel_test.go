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

package timewheel_test

import (
	"errors"
	"math/rand"
	"sort"
	"testing"
	"time"

	. "github.com/uber/timewheel"

	"github.com/uber/timewheel/testutils"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWheel(t testing.TB, start uint64) *Wheel {
	return New(&Options{
		Name:      "test",
		Logger:    testutils.NewErrorLogger(t, nil),
		StartTick: start,
	})
}

func mustInsert(t testing.TB, w *Wheel, delay uint64, cb Callback, arg interface{}) Handle {
	h, err := w.Insert(delay, cb, arg)
	require.NoError(t, err, "Insert(%v) failed", delay)
	return h
}

func advanceEachTick(w *Wheel, to uint64) {
	for now := w.Tick() + 1; now <= to; now++ {
		w.Advance(now)
	}
}

func randomDelays(r *rand.Rand, n int, max int64) []uint64 {
	ds := make([]uint64, n)
	for i := range ds {
		ds[i] = 1 + uint64(r.Int63n(max))
	}
	return ds
}

func TestInsertZeroDelayFiresSynchronously(t *testing.T) {
	w := newTestWheel(t, 0)
	rec := testutils.NewRecorder(nil)

	h, err := w.Insert(0, rec.Callback(), "now")
	require.NoError(t, err)
	assert.True(t, h.IsZero(), "Expected zero handle for synchronous timer")
	assert.Equal(t, []interface{}{"now"}, rec.Args())
	assert.Equal(t, 0, w.Len(), "Synchronous timers never enter the wheel")
	assert.False(t, w.Cancel(h), "Zero handle cannot be cancelled")
}

func TestInsertNilCallback(t *testing.T) {
	w := newTestWheel(t, 0)
	_, err := w.Insert(10, nil, nil)
	assert.Equal(t, ErrNilCallback, err)
	assert.Equal(t, 0, w.Len())
}

func TestInsertDelayOverflow(t *testing.T) {
	stats := testutils.NewStatsReporter()
	w := New(&Options{StatsReporter: stats})
	rec := testutils.NewRecorder(nil)

	_, err := w.Insert(MaxDelay+1, rec.Callback(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDelayOverflow), "Unexpected error: %v", err)
	assert.Equal(t, 0, w.Len())
	assert.EqualValues(t, 1, stats.Counter(MetricOverflow))

	_, err = w.Insert(MaxDelay, rec.Callback(), nil)
	assert.NoError(t, err, "MaxDelay itself is supported")

	w.Advance(MaxDelay + 1)
	assert.Equal(t, 1, rec.Len(), "Only the in-range timer should fire")
}

func TestScenarios(t *testing.T) {
	t.Run("fires on the expiry tick", func(t *testing.T) {
		w := newTestWheel(t, 0)
		rec := testutils.NewRecorder(w.Tick)
		mustInsert(t, w, 10, rec.Callback(), 1)

		w.Advance(9)
		assert.Equal(t, 0, rec.Len(), "Fired before expiry")
		w.Advance(10)
		assert.Equal(t, []testutils.Firing{{Tick: 10, Arg: 1}}, rec.Fired())
	})

	t.Run("cancelled coarse timer never fires", func(t *testing.T) {
		w := newTestWheel(t, 0)
		rec := testutils.NewRecorder(nil)
		h := mustInsert(t, w, 300, rec.Callback(), 1)

		w.Advance(50)
		assert.True(t, w.Cancel(h))
		w.Advance(400)
		assert.Equal(t, 0, rec.Len())
		assert.Equal(t, 0, w.Len(), "Expected cancelled timer to be reclaimed")
	})

	t.Run("near and far timers", func(t *testing.T) {
		w := newTestWheel(t, 0)
		rec := testutils.NewRecorder(w.Tick)
		mustInsert(t, w, 5, rec.Callback(), "near")
		mustInsert(t, w, 5000, rec.Callback(), "far")

		w.Advance(5)
		assert.Equal(t, []interface{}{"near"}, rec.Args())
		w.Advance(5000)
		assert.Equal(t, []testutils.Firing{
			{Tick: 5, Arg: "near"},
			{Tick: 5000, Arg: "far"},
		}, rec.Fired())
		assert.Equal(t, 0, w.Len())
	})
}

func TestExactExpiry(t *testing.T) {
	delays := []uint64{1, 2, 255, 256, 257, 300, 1<<14 - 1, 1 << 14, 70000, 1<<20 + 3}
	for _, start := range []uint64{0, 1, 200, 1<<14 - 7, 123456789} {
		for _, d := range delays {
			w := newTestWheel(t, start)
			rec := testutils.NewRecorder(w.Tick)
			mustInsert(t, w, d, rec.Callback(), d)

			advanceEachTick(w, start+d-1)
			require.Equal(t, 0, rec.Len(), "start %v delay %v fired early", start, d)

			w.Advance(start + d)
			require.Equal(t, []testutils.Firing{{Tick: start + d, Arg: d}}, rec.Fired(),
				"start %v delay %v did not fire exactly once on its expiry", start, d)
		}
	}
}

func TestSingleTickOrdering(t *testing.T) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	w := newTestWheel(t, uint64(r.Int63n(1<<20)))
	rec := testutils.NewRecorder(w.Tick)

	// Distinct delays so the expected order is unambiguous.
	seen := make(map[uint64]struct{})
	var want []testutils.Firing
	for len(want) < 300 {
		d := 1 + uint64(r.Int63n(20000))
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		mustInsert(t, w, d, rec.Callback(), d)
		want = append(want, testutils.Firing{Tick: w.Tick() + d, Arg: d})
	}
	sort.Slice(want, func(i, j int) bool { return want[i].Tick < want[j].Tick })

	advanceEachTick(w, w.Tick()+20000)
	if diff := cmp.Diff(want, rec.Fired()); diff != "" {
		t.Errorf("Unexpected firing order (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, w.Len())
}

func TestCatchUpEquivalence(t *testing.T) {
	tests := []struct {
		msg      string
		maxDelay int64
		maxJump  int64
	}{
		{"small jumps in level 1", 255, 8},
		{"jumps across level 2", 1 << 14, 300},
		{"jumps larger than a level 1 rotation", 1 << 16, 5000},
		{"jumps across level 4", 1 << 22, 1 << 18},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			r := rand.New(rand.NewSource(time.Now().UnixNano()))
			start := uint64(r.Int63n(1 << 30))
			stepped := newTestWheel(t, start)
			jumped := newTestWheel(t, start)
			steppedRec := testutils.NewRecorder(nil)
			jumpedRec := testutils.NewRecorder(nil)

			// Duplicate delays are intentional: ties must also fire in the same order.
			delays := randomDelays(r, 500, tt.maxDelay)
			for i, d := range delays {
				hs := mustInsert(t, stepped, d, steppedRec.Callback(), i)
				hj := mustInsert(t, jumped, d, jumpedRec.Callback(), i)
				if i%7 == 0 {
					stepped.Cancel(hs)
					jumped.Cancel(hj)
				}
			}

			end := start + uint64(tt.maxDelay) + 1
			advanceEachTick(stepped, end)
			for now := start; now < end; {
				now += 1 + uint64(r.Int63n(tt.maxJump))
				if now > end {
					now = end
				}
				jumped.Advance(now)
			}

			require.Equal(t, len(delays)-(len(delays)+6)/7, steppedRec.Len(), "Unexpected number of fired timers")
			if diff := cmp.Diff(steppedRec.Args(), jumpedRec.Args()); diff != "" {
				t.Errorf("Jumped advance fired differently (-stepped +jumped):\n%s", diff)
			}
			assert.Equal(t, 0, stepped.Len())
			assert.Equal(t, 0, jumped.Len())
		})
	}
}

func TestJumpEndingJustUnderCoarseSpan(t *testing.T) {
	w := newTestWheel(t, 0)
	rec := testutils.NewRecorder(nil)
	for i, d := range []uint64{300, 1000, 16000} {
		mustInsert(t, w, d, rec.Callback(), i)
	}

	w.Advance(255)
	assert.Equal(t, 0, rec.Len(), "Nothing is due at 255")
	w.Advance(16638)
	assert.Equal(t, []interface{}{0, 1, 2}, rec.Args(), "Every timer due by 16638 should fire")
	assert.Equal(t, 0, w.Len())
}

func TestJumpAcrossEveryCoarseSlot(t *testing.T) {
	tests := []struct {
		msg     string
		shift   uint
		stepped bool
	}{
		{"level 2", 8, true},
		{"level 3", 14, true},
		{"level 4", 20, false},
		{"level 5", 26, false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			slot := uint64(1) << tt.shift
			span := slot << 6
			from := slot - 1
			to := from + span - 1

			delays := []uint64{slot + 44, span / 4, span / 2, span - 2}
			if late := to + 1; late <= MaxDelay {
				delays = append(delays, late)
			}

			jumped := newTestWheel(t, 0)
			jumpedRec := testutils.NewRecorder(nil)
			var want []interface{}
			for i, d := range delays {
				mustInsert(t, jumped, d, jumpedRec.Callback(), i)
				if d <= to {
					want = append(want, i)
				}
			}

			jumped.Advance(from)
			require.Equal(t, 0, jumpedRec.Len(), "Nothing is due before the jump")
			jumped.Advance(to)
			assert.Equal(t, want, jumpedRec.Args(), "Unexpected timers fired by the jump")
			assert.Equal(t, len(delays)-len(want), jumped.Len())

			if !tt.stepped {
				return
			}
			stepped := newTestWheel(t, 0)
			steppedRec := testutils.NewRecorder(nil)
			for i, d := range delays {
				mustInsert(t, stepped, d, steppedRec.Callback(), i)
			}
			advanceEachTick(stepped, to)
			if diff := cmp.Diff(steppedRec.Args(), jumpedRec.Args()); diff != "" {
				t.Errorf("Jumped advance fired differently (-stepped +jumped):\n%s", diff)
			}
		})
	}
}

func TestSingleHugeJumpFiresEverythingInOrder(t *testing.T) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	w := newTestWheel(t, 42)
	rec := testutils.NewRecorder(nil)

	delays := randomDelays(r, 1000, int64(MaxDelay))
	for i, d := range delays {
		mustInsert(t, w, d, rec.Callback(), i)
	}
	want := make([]interface{}, len(delays))
	for i := range want {
		want[i] = i
	}
	sort.SliceStable(want, func(i, j int) bool {
		return delays[want[i].(int)] < delays[want[j].(int)]
	})

	w.Advance(42 + MaxDelay + 1<<33)
	if diff := cmp.Diff(want, rec.Args()); diff != "" {
		t.Errorf("Unexpected firing order (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, w.Len())
}

func TestTimersRemainAfterFullLevel1Rotation(t *testing.T) {
	w := newTestWheel(t, 0)
	rec := testutils.NewRecorder(w.Tick)

	// Both land in level 1 slot 44 once the coarse timer has cascaded.
	mustInsert(t, w, 44, rec.Callback(), "first")
	mustInsert(t, w, 300, rec.Callback(), "second")

	w.Advance(299)
	assert.Equal(t, []interface{}{"first"}, rec.Args())
	assert.Equal(t, 1, w.Len(), "Expected the later timer to stay in the wheel")

	w.Advance(300)
	assert.Equal(t, []interface{}{"first", "second"}, rec.Args())
}

func TestAdvanceIgnoresStaleTicks(t *testing.T) {
	w := newTestWheel(t, 100)
	rec := testutils.NewRecorder(nil)
	mustInsert(t, w, 10, rec.Callback(), nil)

	w.Advance(100)
	w.Advance(50)
	assert.Equal(t, uint64(100), w.Tick(), "Tick must never go backwards")

	w.Advance(110)
	w.Advance(105)
	assert.Equal(t, uint64(110), w.Tick())
	assert.Equal(t, 1, rec.Len())
}

func TestCancel(t *testing.T) {
	w := newTestWheel(t, 0)
	rec := testutils.NewRecorder(nil)

	var handles []Handle
	for i := 0; i < 20; i++ {
		handles = append(handles, mustInsert(t, w, uint64(1+i*100), rec.Callback(), i))
	}
	for i, h := range handles {
		if i%2 == 1 {
			assert.True(t, w.Cancel(h), "Cancel(%v) should succeed", i)
			assert.False(t, w.Cancel(h), "Second Cancel(%v) should be a no-op", i)
		}
	}
	assert.Equal(t, 20, w.Len(), "Cancellation is lazy")

	advanceEachTick(w, 10000)
	var want []interface{}
	for i := 0; i < 20; i += 2 {
		want = append(want, i)
	}
	assert.Equal(t, want, rec.Args())
	assert.Equal(t, 0, w.Len())

	for i, h := range handles {
		assert.False(t, w.Cancel(h), "Cancel(%v) after fire or reclaim should fail", i)
	}
}

func TestStaleHandleDoesNotCancelReusedNode(t *testing.T) {
	w := newTestWheel(t, 0)
	rec := testutils.NewRecorder(nil)

	old := mustInsert(t, w, 1, rec.Callback(), "old")
	w.Advance(1)

	// The new timer reuses the node released by the first.
	mustInsert(t, w, 1, rec.Callback(), "new")
	assert.False(t, w.Cancel(old), "Stale handle must not cancel the new timer")
	w.Advance(2)
	assert.Equal(t, []interface{}{"old", "new"}, rec.Args())
}

func TestCallbacks(t *testing.T) {
	t.Run("cancel a later timer in the same batch", func(t *testing.T) {
		w := newTestWheel(t, 0)
		rec := testutils.NewRecorder(nil)
		var second Handle
		mustInsert(t, w, 10, func(interface{}) {
			assert.True(t, w.Cancel(second))
		}, nil)
		second = mustInsert(t, w, 10, rec.Callback(), "second")

		w.Advance(10)
		assert.Equal(t, 0, rec.Len(), "Timer cancelled by an earlier callback fired")
		assert.Equal(t, 0, w.Len())
	})

	t.Run("cancel own handle", func(t *testing.T) {
		w := newTestWheel(t, 0)
		var h Handle
		called := 0
		h = mustInsert(t, w, 3, func(interface{}) {
			called++
			assert.False(t, w.Cancel(h), "A firing timer has already been reclaimed")
			assert.Equal(t, 0, w.Len())
		}, nil)
		w.Advance(3)
		assert.Equal(t, 1, called)
	})

	t.Run("re-arm from the callback", func(t *testing.T) {
		w := newTestWheel(t, 0)
		var fired []uint64
		var rearm Callback
		rearm = func(interface{}) {
			fired = append(fired, w.Tick())
			mustInsert(t, w, 500, rearm, nil)
		}
		mustInsert(t, w, 1000, rearm, nil)

		advanceEachTick(w, 2600)
		assert.Equal(t, []uint64{1000, 1500, 2000, 2500}, fired)
		assert.Equal(t, 1, w.Len())
	})

	t.Run("zero delay insert from a callback", func(t *testing.T) {
		w := newTestWheel(t, 0)
		rec := testutils.NewRecorder(nil)
		mustInsert(t, w, 1, func(interface{}) {
			mustInsert(t, w, 0, rec.Callback(), "inner")
		}, nil)
		w.Advance(1)
		assert.Equal(t, []interface{}{"inner"}, rec.Args())
	})

	t.Run("clear from a callback", func(t *testing.T) {
		w := newTestWheel(t, 0)
		rec := testutils.NewRecorder(nil)
		mustInsert(t, w, 5, func(interface{}) { w.Clear() }, nil)
		mustInsert(t, w, 5, rec.Callback(), "same batch")
		mustInsert(t, w, 50, rec.Callback(), "later")

		w.Advance(100)
		assert.Equal(t, 0, rec.Len(), "Cleared timers must not fire")
		assert.Equal(t, 0, w.Len())
	})

	t.Run("advance from a callback panics", func(t *testing.T) {
		w := newTestWheel(t, 0)
		mustInsert(t, w, 1, func(interface{}) { w.Advance(5) }, nil)
		assert.Panics(t, func() { w.Advance(1) })
	})

	t.Run("args are passed through", func(t *testing.T) {
		w := newTestWheel(t, 0)
		type ctx struct{ id int }
		arg := &ctx{id: 7}
		var got interface{}
		mustInsert(t, w, 2, func(a interface{}) { got = a }, arg)
		w.Advance(2)
		assert.True(t, got == arg, "Expected the same argument pointer")
	})
}

func TestClear(t *testing.T) {
	w := newTestWheel(t, 0)
	rec := testutils.NewRecorder(nil)
	for _, d := range []uint64{1, 255, 256, 1 << 14, 1 << 20, 1 << 26, MaxDelay} {
		mustInsert(t, w, d, rec.Callback(), d)
	}
	h := mustInsert(t, w, 20, rec.Callback(), "cancelled")
	w.Cancel(h)
	require.Equal(t, 8, w.Len())

	w.Clear()
	assert.Equal(t, 0, w.Len())
	w.Clear()
	assert.Equal(t, 0, w.Len(), "Clear should be idempotent")

	w.Advance(MaxDelay + 10)
	assert.Equal(t, 0, rec.Len(), "Cleared timers must not fire")
	state := w.IntrospectState()
	for _, l := range state.Levels {
		assert.Equal(t, 0, l.Timers, "Level %v not empty", l.Level)
	}

	mustInsert(t, w, 1, rec.Callback(), "after clear")
	w.Advance(w.Tick() + 1)
	assert.Equal(t, []interface{}{"after clear"}, rec.Args())
}

func TestLenOnlyGrowsOnInsert(t *testing.T) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	w := newTestWheel(t, 0)
	for _, d := range randomDelays(r, 200, 3000) {
		h := mustInsert(t, w, d, func(interface{}) {}, nil)
		if r.Intn(3) == 0 {
			w.Cancel(h)
		}
	}

	last := w.Len()
	for now := uint64(1); now <= 3001; now++ {
		w.Advance(now)
		assert.True(t, w.Len() <= last, "Len grew from %v to %v at tick %v", last, w.Len(), now)
		last = w.Len()
	}
	assert.Equal(t, 0, last)
}

func TestWheelStats(t *testing.T) {
	stats := testutils.NewStatsReporter()
	w := New(&Options{Name: "stats", StatsReporter: stats})
	rec := testutils.NewRecorder(nil)

	mustInsert(t, w, 5, rec.Callback(), nil)
	mustInsert(t, w, 300, rec.Callback(), nil)
	h := mustInsert(t, w, 6, rec.Callback(), nil)
	w.Cancel(h)

	assert.EqualValues(t, 3, stats.Counter(MetricInserted))
	assert.EqualValues(t, 1, stats.Counter(MetricCanceled))

	w.Advance(10)
	assert.EqualValues(t, 1, stats.Counter(MetricFired))
	assert.EqualValues(t, 1, stats.Counter(MetricReclaimed))
	assert.EqualValues(t, 1, stats.Gauge(MetricPending))

	w.Advance(300)
	assert.EqualValues(t, 2, stats.Counter(MetricFired))
	assert.EqualValues(t, 1, stats.Counter(MetricCascaded))
	assert.EqualValues(t, 0, stats.Gauge(MetricPending))
}

func TestIntrospectState(t *testing.T) {
	w := newTestWheel(t, 0)
	mustInsert(t, w, 10, func(interface{}) {}, nil)
	mustInsert(t, w, 11, func(interface{}) {}, nil)
	h := mustInsert(t, w, 300, func(interface{}) {}, nil)
	w.Cancel(h)
	mustInsert(t, w, 1<<26, func(interface{}) {}, nil)

	state := w.IntrospectState()
	assert.Equal(t, uint64(0), state.Tick)
	assert.Equal(t, 4, state.Pending)
	require.Len(t, state.Levels, 5)

	want := []LevelRuntimeState{
		{Level: 1, Slots: 256, TicksPerSlot: 1, OccupiedSlots: 2, Timers: 2},
		{Level: 2, Slots: 64, TicksPerSlot: 1 << 8, OccupiedSlots: 1, Timers: 1, Canceled: 1},
		{Level: 3, Slots: 64, TicksPerSlot: 1 << 14},
		{Level: 4, Slots: 64, TicksPerSlot: 1 << 20},
		{Level: 5, Slots: 64, TicksPerSlot: 1 << 26, OccupiedSlots: 1, Timers: 1},
	}
	if diff := cmp.Diff(want, state.Levels); diff != "" {
		t.Errorf("Unexpected level state (-want +got):\n%s", diff)
	}
}

func TestLargeJumpLogsAtDebug(t *testing.T) {
	w := New(&Options{
		Logger: testutils.NewErrorLogger(t, nil),
	})
	// Any warning would fail the test through the error logger.
	mustInsert(t, w, 1000, func(interface{}) {}, nil)
	w.Advance(1 << 30)
	assert.Equal(t, 0, w.Len())
}

func BenchmarkInsertAndCancel(b *testing.B) {
	w := New(nil)
	r := rand.New(rand.NewSource(1))
	ds := randomDelays(r, 1024, 1<<24)
	cb := func(interface{}) {}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		h, _ := w.Insert(ds[i&1023], cb, nil)
		w.Cancel(h)
	}
}

func BenchmarkAdvanceWithPendingTimers(b *testing.B) {
	w := New(nil)
	r := rand.New(rand.NewSource(1))
	cb := func(interface{}) {}
	for _, d := range randomDelays(r, 100000, 1<<24) {
		w.Insert(d, cb, nil)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		w.Advance(w.Tick() + 1)
		w.Insert(1+uint64(i&0xffff), cb, nil)
	}
}
