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
	"context"
	"fmt"
	"log/slog"
	"os"
)

type slogLogger struct {
	logger *slog.Logger
	fields LogFields
}

// NewSlogLogger returns a Logger that writes structured records to logger.
// LogFields are emitted as slog attributes.
func NewSlogLogger(logger *slog.Logger) Logger {
	return slogLogger{logger: logger}
}

func (l slogLogger) Enabled(level LogLevel) bool {
	return l.logger.Enabled(context.Background(), toSlogLevel(level))
}

func (l slogLogger) Fatal(msg string) {
	l.logger.Error(msg)
	os.Exit(1)
}

func (l slogLogger) Error(msg string) { l.logger.Error(msg) }
func (l slogLogger) Warn(msg string)  { l.logger.Warn(msg) }
func (l slogLogger) Info(msg string)  { l.logger.Info(msg) }
func (l slogLogger) Debug(msg string) { l.logger.Debug(msg) }

func (l slogLogger) Infof(msg string, args ...interface{}) {
	if l.logger.Enabled(context.Background(), slog.LevelInfo) {
		l.logger.Info(fmt.Sprintf(msg, args...))
	}
}

func (l slogLogger) Debugf(msg string, args ...interface{}) {
	if l.logger.Enabled(context.Background(), slog.LevelDebug) {
		l.logger.Debug(fmt.Sprintf(msg, args...))
	}
}

func (l slogLogger) Fields() LogFields {
	return l.fields
}

func (l slogLogger) WithFields(fields ...LogField) Logger {
	attrs := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	newFields := make(LogFields, 0, len(l.fields)+len(fields))
	newFields = append(newFields, l.fields...)
	newFields = append(newFields, fields...)
	return slogLogger{
		logger: l.logger.With(attrs...),
		fields: newFields,
	}
}

func toSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelAll, LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
