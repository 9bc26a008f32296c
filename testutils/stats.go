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

package testutils

import (
	"sync"
	"time"
)

// StatsReporter records every stat it is given. It is safe for concurrent use.
type StatsReporter struct {
	sync.Mutex

	counters map[string]int64
	gauges   map[string]int64
	timers   map[string][]time.Duration
}

// NewStatsReporter returns an empty recording StatsReporter.
func NewStatsReporter() *StatsReporter {
	return &StatsReporter{
		counters: make(map[string]int64),
		gauges:   make(map[string]int64),
		timers:   make(map[string][]time.Duration),
	}
}

// IncCounter implements timewheel.StatsReporter.
func (r *StatsReporter) IncCounter(name string, tags map[string]string, value int64) {
	r.Lock()
	r.counters[name] += value
	r.Unlock()
}

// UpdateGauge implements timewheel.StatsReporter.
func (r *StatsReporter) UpdateGauge(name string, tags map[string]string, value int64) {
	r.Lock()
	r.gauges[name] = value
	r.Unlock()
}

// RecordTimer implements timewheel.StatsReporter.
func (r *StatsReporter) RecordTimer(name string, tags map[string]string, d time.Duration) {
	r.Lock()
	r.timers[name] = append(r.timers[name], d)
	r.Unlock()
}

// Counter returns the sum of all increments of the named counter.
func (r *StatsReporter) Counter(name string) int64 {
	r.Lock()
	defer r.Unlock()
	return r.counters[name]
}

// Gauge returns the last value of the named gauge.
func (r *StatsReporter) Gauge(name string) int64 {
	r.Lock()
	defer r.Unlock()
	return r.gauges[name]
}

// Timers returns every duration recorded for the named timer.
func (r *StatsReporter) Timers(name string) []time.Duration {
	r.Lock()
	defer r.Unlock()
	return append([]time.Duration(nil), r.timers[name]...)
}
