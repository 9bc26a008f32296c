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
	"fmt"
	"strings"
	"testing"

	"github.com/uber/timewheel"

	"go.uber.org/atomic"
)

// LogFilter is a single substring match filter for log messages.
type LogFilter struct {
	// Filter is the substring to match in the log message.
	Filter string

	// FieldFilters are substrings to match against the log fields.
	FieldFilters map[string]string

	// Count is the maximum number of times this message may be logged.
	Count uint
}

// LogVerification contains the options for verifying logs. Warnings and
// errors that do not match a filter fail the test.
type LogVerification struct {
	Filters []LogFilter
}

// Matches returns true if the message and fields match the filter.
func (f LogFilter) Matches(msg string, fields timewheel.LogFields) bool {
	// First check the message and ensure it contains Filter
	if !strings.Contains(msg, f.Filter) {
		return false
	}

	// if there are no field filters, then the message match is enough.
	if len(f.FieldFilters) == 0 {
		return true
	}

	fieldsMap := make(map[string]interface{})
	for _, field := range fields {
		fieldsMap[field.Key] = field.Value
	}

	for k, filter := range f.FieldFilters {
		value, ok := fieldsMap[k]
		if !ok {
			return false
		}

		if !strings.Contains(fmt.Sprint(value), filter) {
			return false
		}
	}

	return true
}

type errorLoggerState struct {
	matchCount []atomic.Uint32
}

type testLogger struct {
	t      testing.TB
	fields timewheel.LogFields
}

// NewTestLogger returns a logger that writes every message to t.Logf.
func NewTestLogger(t testing.TB) timewheel.Logger {
	return testLogger{t, nil}
}

func (l testLogger) Enabled(level timewheel.LogLevel) bool {
	return true
}

func (l testLogger) log(prefix string, msg string) {
	l.t.Logf("[%s] %v %v", prefix, msg, l.fields)
}

func (l testLogger) Fatal(msg string) {
	l.log("F", msg)
}

func (l testLogger) Error(msg string) {
	l.log("E", msg)
}

func (l testLogger) Warn(msg string) {
	l.log("W", msg)
}

func (l testLogger) Info(msg string) {
	l.log("I", msg)
}

func (l testLogger) Infof(msg string, args ...interface{}) {
	l.log("I", fmt.Sprintf(msg, args...))
}

func (l testLogger) Debug(msg string) {
	l.log("D", msg)
}

func (l testLogger) Debugf(msg string, args ...interface{}) {
	l.log("D", fmt.Sprintf(msg, args...))
}

func (l testLogger) Fields() timewheel.LogFields {
	return l.fields
}

func (l testLogger) WithFields(fields ...timewheel.LogField) timewheel.Logger {
	existing := len(l.Fields())
	newFields := make(timewheel.LogFields, existing+len(fields))
	copy(newFields, l.Fields())
	copy(newFields[existing:], fields)
	return testLogger{l.t, newFields}
}

// NewErrorLogger returns a test logger that fails t on any warning or error
// not permitted by v.
func NewErrorLogger(t testing.TB, v *LogVerification) timewheel.Logger {
	if v == nil {
		v = &LogVerification{}
	}
	return errorLogger{
		Logger: NewTestLogger(t),
		t:      t,
		v:      v,
		s:      &errorLoggerState{matchCount: make([]atomic.Uint32, len(v.Filters))},
	}
}

type errorLogger struct {
	timewheel.Logger
	t testing.TB
	v *LogVerification
	s *errorLoggerState
}

// checkFilters returns whether the message can be ignored by the filters.
func (l errorLogger) checkFilters(msg string) bool {
	match := -1
	for i, filter := range l.v.Filters {
		if filter.Matches(msg, l.Fields()) {
			match = i
		}
	}

	if match == -1 {
		return false
	}

	matchCount := l.s.matchCount[match].Inc()
	return uint(matchCount) <= l.v.Filters[match].Count
}

func (l errorLogger) checkErr(prefix, msg string) {
	if l.checkFilters(msg) {
		return
	}

	l.t.Errorf("%v: %s %v", prefix, msg, l.Logger.Fields())
}

func (l errorLogger) Fatal(msg string) {
	l.checkErr("[Fatal]", msg)
	l.Logger.Fatal(msg)
}

func (l errorLogger) Error(msg string) {
	l.checkErr("[Error]", msg)
	l.Logger.Error(msg)
}

func (l errorLogger) Warn(msg string) {
	l.checkErr("[Warn]", msg)
	l.Logger.Warn(msg)
}

func (l errorLogger) WithFields(fields ...timewheel.LogField) timewheel.Logger {
	return errorLogger{l.Logger.WithFields(fields...), l.t, l.v, l.s}
}
