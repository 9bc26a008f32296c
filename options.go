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

// Options are used to create a Wheel.
type Options struct {
	// Name identifies the wheel in logs and metric tags. Optional.
	Name string

	// The logger to use for this wheel.
	Logger Logger

	// The reporter to use for reporting stats for this wheel.
	StatsReporter StatsReporter

	// StartTick is the tick the wheel considers current until the first
	// Advance. Drivers usually pass a monotonic clock reading.
	StartTick uint64
}

func (o *Options) logger() Logger {
	if o == nil || o.Logger == nil {
		return NullLogger
	}
	return o.Logger
}

func (o *Options) statsReporter() StatsReporter {
	if o == nil || o.StatsReporter == nil {
		return NullStatsReporter
	}
	return o.StatsReporter
}

func (o *Options) statsTags() map[string]string {
	if o == nil || o.Name == "" {
		return nil
	}
	return map[string]string{"wheel": o.Name}
}
