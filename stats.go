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

import (
	"log"
	"sync"
	"time"
)

// StatsReporter is the the interface used to report stats.
type StatsReporter interface {
	IncCounter(name string, tags map[string]string, value int64)
	UpdateGauge(name string, tags map[string]string, value int64)
	RecordTimer(name string, tags map[string]string, d time.Duration)
}

// NullStatsReporter is a stats reporter that discards the statistics.
var NullStatsReporter StatsReporter = nullStatsReporter{}

type nullStatsReporter struct{}

func (nullStatsReporter) IncCounter(name string, tags map[string]string, value int64) {}

func (nullStatsReporter) UpdateGauge(name string, tags map[string]string, value int64) {}

func (nullStatsReporter) RecordTimer(name string, tags map[string]string, d time.Duration) {}

// SimpleStatsReporter is a stats reporter that reports stats to the log.
var SimpleStatsReporter StatsReporter = &simpleStatsReporter{}

type simpleStatsReporter struct {
	sync.Mutex
}

func (r *simpleStatsReporter) IncCounter(name string, tags map[string]string, value int64) {
	r.printf("IncCounter(%v, %v) +%v", name, tags, value)
}

func (r *simpleStatsReporter) UpdateGauge(name string, tags map[string]string, value int64) {
	r.printf("UpdateGauge(%v, %v) = %v", name, tags, value)
}

func (r *simpleStatsReporter) RecordTimer(name string, tags map[string]string, d time.Duration) {
	r.printf("RecordTimer(%v, %v) = %v", name, tags, d)
}

func (r *simpleStatsReporter) printf(format string, args ...interface{}) {
	r.Lock()
	log.Printf("Stats: "+format, args...)
	r.Unlock()
}

// Metric names emitted by the wheel.
const (
	MetricInserted  = "timewheel.inserted"
	MetricFired     = "timewheel.fired"
	MetricCanceled  = "timewheel.canceled"
	MetricReclaimed = "timewheel.reclaimed"
	MetricOverflow  = "timewheel.overflow"
	MetricCascaded  = "timewheel.cascaded"
	MetricPending   = "timewheel.pending"

	// MetricAdvanceLatency is recorded by drivers around each advance pass.
	MetricAdvanceLatency = "timewheel.advance.latency"
)

// advanceStats accumulates counts during one call to Advance so they are
// reported once per pass rather than once per node.
type advanceStats struct {
	fired     int64
	reclaimed int64
	overflow  int64
	cascaded  int64
}

func (s *advanceStats) report(r StatsReporter, tags map[string]string) {
	report := func(name string, v int64) {
		if v > 0 {
			r.IncCounter(name, tags, v)
		}
	}
	report(MetricFired, s.fired)
	report(MetricReclaimed, s.reclaimed)
	report(MetricOverflow, s.overflow)
	report(MetricCascaded, s.cascaded)
}
