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
	"sync"
	"time"

	"github.com/uber-go/tally"

	"github.com/uber/timewheel"
)

// tallyReporter caches one tagged scope per wheel name. tally keeps its own
// per-scope metric registry, so metrics are looked up on the scope directly.
type tallyReporter struct {
	sync.RWMutex

	root    tally.Scope
	byWheel map[string]tally.Scope
}

// NewTallyReporter takes a tally.Scope and wraps it so it can be used as a
// StatsReporter. The only tag emitted is wheel, the name of the wheel the
// metric came from.
func NewTallyReporter(scope tally.Scope) timewheel.StatsReporter {
	return &tallyReporter{
		root:    scope,
		byWheel: make(map[string]tally.Scope),
	}
}

func (r *tallyReporter) IncCounter(name string, tags map[string]string, value int64) {
	r.scopeFor(tags).Counter(name).Inc(value)
}

func (r *tallyReporter) UpdateGauge(name string, tags map[string]string, value int64) {
	r.scopeFor(tags).Gauge(name).Update(float64(value))
}

func (r *tallyReporter) RecordTimer(name string, tags map[string]string, d time.Duration) {
	r.scopeFor(tags).Timer(name).Record(d)
}

// scopeFor returns the scope for the wheel named in tags. Any other tag is
// dropped; metrics without a wheel name go to the root scope.
func (r *tallyReporter) scopeFor(tags map[string]string) tally.Scope {
	wheel := tags["wheel"]
	if wheel == "" {
		return r.root
	}

	r.RLock()
	scope, ok := r.byWheel[wheel]
	r.RUnlock()
	if ok {
		return scope
	}

	r.Lock()
	defer r.Unlock()
	if scope, ok := r.byWheel[wheel]; ok {
		return scope
	}
	scope = r.root.Tagged(map[string]string{"wheel": wheel})
	r.byWheel[wheel] = scope
	return scope
}
