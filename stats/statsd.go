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

package stats

import (
	"time"

	"github.com/cactus/go-statsd-client/statsd"

	"github.com/uber/timewheel"
)

const statsdFlushInterval = 250 * time.Millisecond

type statsdReporter struct {
	client statsd.Statter
	keyFor func(name string, tags map[string]string) string
}

// NewStatsdReporter returns a StatsReporter that reports to statsd on the
// given addr. Stats are buffered and flushed periodically.
func NewStatsdReporter(addr, prefix string) (timewheel.StatsReporter, error) {
	client, err := statsd.NewBufferedClient(addr, prefix, statsdFlushInterval, 0)
	if err != nil {
		return nil, err
	}

	return NewStatsdReporterClient(client), nil
}

// NewStatsdReporterClient returns a StatsReporter that reports stats to the
// given client, keyed by DefaultMetricPrefix.
func NewStatsdReporterClient(client statsd.Statter) timewheel.StatsReporter {
	return &statsdReporter{client: client, keyFor: DefaultMetricPrefix}
}

// Errors from the client are dropped.
func (r *statsdReporter) IncCounter(name string, tags map[string]string, value int64) {
	r.client.Inc(r.keyFor(name, tags), value, 1.0)
}

func (r *statsdReporter) UpdateGauge(name string, tags map[string]string, value int64) {
	r.client.Gauge(r.keyFor(name, tags), value, 1.0)
}

func (r *statsdReporter) RecordTimer(name string, tags map[string]string, d time.Duration) {
	r.client.TimingDuration(r.keyFor(name, tags), d, 1.0)
}
