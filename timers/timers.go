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

// Package timers drives a timewheel.Wheel from a clock. It is designed for
// very large numbers of timeouts that are usually cancelled, trading
// precision (one tick) for cheap scheduling and cancellation.
package timers

import (
	"errors"
	"sync"
	"time"

	"github.com/andres-erbsen/clock"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/atomic"

	"github.com/uber/timewheel"
)

const (
	// State machine for timers.
	stateScheduled = iota
	stateExpired
	stateCanceled
)

// DefaultTick is the tick length used when Options.Tick is not set.
const DefaultTick = time.Millisecond

// ErrStopped is returned by Timer.Err for timers scheduled after the wheel
// was stopped.
var ErrStopped = errors.New("timers: wheel is stopped")

// Options configure a Wheel.
type Options struct {
	// Tick is the resolution of the wheel. Delays are rounded up to a
	// whole number of ticks.
	Tick time.Duration

	// Name identifies the wheel in logs and metric tags.
	Name string

	// The logger to use for this wheel.
	Logger timewheel.Logger

	// The reporter to use for reporting stats for this wheel.
	StatsReporter timewheel.StatsReporter

	// Tracer is used to report a span for every tick that fires timers.
	// Defaults to opentracing.GlobalTracer().
	Tracer opentracing.Tracer
}

// A Timer is a handle to a deferred operation.
type Timer struct {
	f      func()
	handle timewheel.Handle // guarded by the wheel's mutex
	state  atomic.Int32
	err    error
	w      *Wheel
}

// Stop cancels the deferred operation. It returns whether or not the
// cancellation succeeded.
func (t *Timer) Stop() bool {
	if !t.state.CAS(stateScheduled, stateCanceled) {
		return false
	}
	if t.w != nil {
		t.w.cancel(t)
	}
	return true
}

// Err returns the error that prevented the timer from being scheduled, if
// any. Such timers are returned already stopped.
func (t *Timer) Err() error {
	return t.err
}

func (t *Timer) expire() bool {
	return t.state.CAS(stateScheduled, stateExpired)
}

func stoppedTimer(f func(), err error) *Timer {
	t := &Timer{f: f, err: err}
	t.state.Store(stateCanceled)
	return t
}

// A Wheel schedules and executes deferred operations.
type Wheel struct {
	clock   clock.Clock
	tickDur time.Duration
	start   time.Time
	ticker  *clock.Ticker

	mu      sync.Mutex
	wheel   *timewheel.Wheel
	todo    []*Timer
	stopped bool

	log       timewheel.Logger
	stats     timewheel.StatsReporter
	statsTags map[string]string
	tracer    opentracing.Tracer

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWheel creates and starts a new Wheel. opts may be nil.
func NewWheel(opts *Options) *Wheel {
	w := newWheel(opts, clock.New())
	w.begin()
	return w
}

func newWheel(opts *Options, clk clock.Clock) *Wheel {
	if opts == nil {
		opts = &Options{}
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultTick
	}
	coreOpts := &timewheel.Options{
		Name:          opts.Name,
		Logger:        opts.Logger,
		StatsReporter: opts.StatsReporter,
	}
	w := &Wheel{
		clock:   clk,
		tickDur: tick,
		start:   clk.Now(),
		ticker:  clk.Ticker(tick),
		wheel:   timewheel.New(coreOpts),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		tracer:  opts.Tracer,
	}
	w.log = w.wheel.Logger()
	w.stats = coreOpts.StatsReporter
	if w.stats == nil {
		w.stats = timewheel.NullStatsReporter
	}
	if opts.Name != "" {
		w.statsTags = map[string]string{"wheel": opts.Name}
	}
	if w.tracer == nil {
		w.tracer = opentracing.GlobalTracer()
	}
	return w
}

// Stop shuts down the wheel, blocking until the background goroutine
// completes. It then clears all remaining timers, without firing any of
// their associated callbacks.
//
// Stop is safe to call multiple times; calls after the first are no-ops.
func (w *Wheel) Stop() {
	w.stopOnce.Do(func() {
		w.ticker.Stop()
		close(w.stopCh)
		<-w.doneCh

		w.mu.Lock()
		w.stopped = true
		pending := w.wheel.Len()
		w.wheel.Clear()
		w.mu.Unlock()
		w.log.Debugf("Stopped timer wheel with %d pending timers.", pending)
	})
}

// AfterFunc schedules f to run on the wheel's goroutine once d has
// elapsed, and returns a Timer that can cancel it. d is rounded up to the
// next tick. If d is not positive, f runs before AfterFunc returns.
//
// Delays longer than timewheel.MaxDelay ticks cannot be scheduled; the
// returned Timer is already stopped and Err reports why.
func (w *Wheel) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		t := &Timer{f: f}
		t.state.Store(stateExpired)
		f()
		return t
	}

	t := &Timer{f: f, w: w}
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return stoppedTimer(f, ErrStopped)
	}
	// The wheel may be ahead of the clock if it was advanced with a later
	// time than Now; such timers fire on the next tick.
	delay := uint64(1)
	if deadline, cur := w.ceilTick(w.clock.Now().Add(d)), w.wheel.Tick(); deadline > cur {
		delay = deadline - cur
	}
	h, err := w.wheel.Insert(delay, w.gather, t)
	t.handle = h
	w.mu.Unlock()

	if err != nil {
		w.log.WithFields(
			timewheel.LogField{Key: "delay", Value: d},
			timewheel.ErrField(err),
		).Warn("Failed to schedule timer.")
		return stoppedTimer(f, err)
	}
	return t
}

// Pending returns the number of timers held by the wheel, including
// cancelled timers that have not been reclaimed yet.
func (w *Wheel) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wheel.Len()
}

// IntrospectState returns the occupancy of the underlying wheel.
func (w *Wheel) IntrospectState() *timewheel.WheelRuntimeState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wheel.IntrospectState()
}

func (w *Wheel) cancel(t *Timer) {
	w.mu.Lock()
	w.wheel.Cancel(t.handle)
	w.mu.Unlock()
}

func (w *Wheel) begin() {
	go w.tick(w.ticker.C)
}

func (w *Wheel) tick(nowCh <-chan time.Time) {
	for {
		select {
		case now := <-nowCh:
			w.advance(now)
		case <-w.stopCh:
			close(w.doneCh)
			return
		}
	}
}

// advance moves the core wheel to now and runs the expired timers after
// releasing the lock, so they can schedule and stop other timers.
func (w *Wheel) advance(now time.Time) {
	started := w.clock.Now()

	w.mu.Lock()
	from := w.wheel.Tick()
	to := w.asTick(now)
	w.wheel.Advance(to)
	todo := w.todo
	w.todo = nil
	w.mu.Unlock()

	if len(todo) > 0 {
		w.fire(to-from, todo)
	}
	w.stats.RecordTimer(timewheel.MetricAdvanceLatency, w.statsTags, w.clock.Now().Sub(started))
}

// gather is the callback registered for every timer. It runs with the lock
// held, from inside the core wheel's Advance.
func (w *Wheel) gather(args interface{}) {
	t := args.(*Timer)
	if t.expire() {
		w.todo = append(w.todo, t)
	}
}

func (w *Wheel) fire(ticks uint64, batch []*Timer) {
	span := w.tracer.StartSpan("timewheel.advance")
	span.SetTag("ticks", ticks)
	span.SetTag("fired", len(batch))
	defer span.Finish()

	for _, t := range batch {
		t.f()
	}
}

// asTick returns the number of whole ticks between the wheel's start and t.
func (w *Wheel) asTick(t time.Time) uint64 {
	elapsed := t.Sub(w.start)
	if elapsed <= 0 {
		return 0
	}
	return uint64(elapsed / w.tickDur)
}

func (w *Wheel) ceilTick(t time.Time) uint64 {
	elapsed := t.Sub(w.start)
	if elapsed <= 0 {
		return 0
	}
	return uint64((elapsed + w.tickDur - 1) / w.tickDur)
}
