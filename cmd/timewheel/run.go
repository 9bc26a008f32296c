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

package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/andres-erbsen/clock"
	"github.com/bmizerany/perks/quantile"
	"github.com/sugawarayuuta/sonnet"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/uber/timewheel/config"
	"github.com/uber/timewheel/timers"
)

// summary collects what happened to the scheduled timers. Callbacks run on
// the wheel goroutine.
type summary struct {
	scheduled atomic.Int64
	fired     atomic.Int64
	canceled  atomic.Int64
	periodic  atomic.Int64

	mu       sync.Mutex
	lateness *quantile.Stream // milliseconds
}

func newSummary() *summary {
	return &summary{lateness: quantile.NewTargeted(0.50, 0.90, 0.99)}
}

func (s *summary) observe(late time.Duration) {
	s.fired.Inc()
	s.mu.Lock()
	s.lateness.Insert(float64(late) / float64(time.Millisecond))
	s.mu.Unlock()
}

func (s *summary) print(w io.Writer) {
	fmt.Fprintf(w, "scheduled: %d fired: %d canceled: %d periodic: %d\n",
		s.scheduled.Load(), s.fired.Load(), s.canceled.Load(), s.periodic.Load())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lateness.Count() == 0 {
		return
	}
	fmt.Fprintf(w, "lateness p50: %.2fms p90: %.2fms p99: %.2fms\n",
		s.lateness.Query(0.50), s.lateness.Query(0.90), s.lateness.Query(0.99))
}

// run drives a wheel for cfg.Duration and writes a summary to out.
func run(cfg config.Config, dumpState bool, out io.Writer) (err error) {
	logger := newLogger(cfg.Logging, os.Stderr)

	reporter, statsCloser, err := newStatsReporter(cfg.Stats)
	if err != nil {
		return fmt.Errorf("create stats reporter: %w", err)
	}
	defer func() { err = multierr.Append(err, statsCloser.Close()) }()

	tracer, tracerCloser := newTracer(cfg.Tracing, logger)
	defer func() { err = multierr.Append(err, tracerCloser.Close()) }()

	clk := clock.New()
	w := timers.NewWheel(&timers.Options{
		Tick:          cfg.Tick,
		Name:          cfg.Name,
		Logger:        logger,
		StatsReporter: reporter,
		Tracer:        tracer,
	})
	defer w.Stop()

	sum := newSummary()
	schedule(w, clk, cfg, sum)
	logger.Infof("Scheduled %d timers, cancelled %d.", sum.scheduled.Load(), sum.canceled.Load())

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	defer signal.Stop(interrupted)

	select {
	case <-clk.After(cfg.Duration):
	case <-interrupted:
		logger.Info("Interrupted, stopping early.")
	}

	if dumpState {
		state, err := sonnet.Marshal(w.IntrospectState())
		if err != nil {
			return fmt.Errorf("marshal wheel state: %w", err)
		}
		fmt.Fprintf(out, "%s\n", state)
	}

	w.Stop()
	sum.print(out)
	return nil
}

func schedule(w *timers.Wheel, clk clock.Clock, cfg config.Config, sum *summary) {
	rng := rand.New(rand.NewSource(clk.Now().UnixNano()))
	for i := 0; i < cfg.Timers; i++ {
		d := cfg.Tick + time.Duration(rng.Int63n(int64(cfg.MaxDelay)))
		deadline := clk.Now().Add(d)
		t := w.AfterFunc(d, func() {
			sum.observe(clk.Now().Sub(deadline))
		})
		if err := t.Err(); err != nil {
			continue
		}
		sum.scheduled.Inc()
		if rng.Float64() < cfg.CancelRatio && t.Stop() {
			sum.canceled.Inc()
		}
	}

	if cfg.Periodic <= 0 {
		return
	}
	var rearm func()
	rearm = func() {
		sum.periodic.Inc()
		w.AfterFunc(cfg.Periodic, rearm)
	}
	w.AfterFunc(cfg.Periodic, rearm)
}
