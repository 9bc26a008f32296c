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
	"errors"
	"fmt"
)

var (
	// ErrDelayOverflow is returned by Insert when the requested delay is
	// larger than MaxDelay ticks.
	ErrDelayOverflow = errors.New("timewheel: delay exceeds the maximum supported delay")

	// ErrNilCallback is returned by Insert when no callback is given.
	ErrNilCallback = errors.New("timewheel: nil callback")
)

func delayOverflowError(delay uint64) error {
	return fmt.Errorf("%w: %d ticks requested, max is %d", ErrDelayOverflow, delay, MaxDelay)
}
