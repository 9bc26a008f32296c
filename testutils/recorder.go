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

	"github.com/uber/timewheel"
)

// Firing is a single callback invocation seen by a Recorder.
type Firing struct {
	Tick uint64
	Arg  interface{}
}

// Recorder records timer callbacks in the order they run.
type Recorder struct {
	sync.Mutex
	fired []Firing
	now   func() uint64
}

// NewRecorder returns a Recorder that stamps each firing with now().
// now may be nil.
func NewRecorder(now func() uint64) *Recorder {
	return &Recorder{now: now}
}

// Callback returns a timewheel.Callback that records its argument.
func (r *Recorder) Callback() timewheel.Callback {
	return r.record
}

func (r *Recorder) record(arg interface{}) {
	var tick uint64
	if r.now != nil {
		tick = r.now()
	}
	r.Lock()
	r.fired = append(r.fired, Firing{Tick: tick, Arg: arg})
	r.Unlock()
}

// Fired returns every firing recorded so far.
func (r *Recorder) Fired() []Firing {
	r.Lock()
	defer r.Unlock()
	return append([]Firing(nil), r.fired...)
}

// Args returns the arguments of every firing recorded so far.
func (r *Recorder) Args() []interface{} {
	r.Lock()
	defer r.Unlock()
	args := make([]interface{}, len(r.fired))
	for i, f := range r.fired {
		args[i] = f.Arg
	}
	return args
}

// Len returns the number of firings recorded.
func (r *Recorder) Len() int {
	r.Lock()
	defer r.Unlock()
	return len(r.fired)
}
