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
	"io"
	"log/slog"
	"time"

	"github.com/cactus/go-statsd-client/statsd"
	"github.com/golang-cz/devslog"
	"github.com/opentracing/opentracing-go"
	"github.com/phsym/console-slog"
	slogformatter "github.com/samber/slog-formatter"
	"github.com/uber-go/tally"
	tallystatsd "github.com/uber-go/tally/statsd"
	"github.com/uber/jaeger-client-go"

	"github.com/uber/timewheel"
	"github.com/uber/timewheel/config"
	"github.com/uber/timewheel/stats"
)

var newHandler = slogformatter.NewFormatterHandler(
	slogformatter.ErrorFormatter("error"),
)

func newLogger(cfg config.LoggingConfig, w io.Writer) timewheel.Logger {
	var handler slog.Handler
	if cfg.Dev {
		handler = devslog.NewHandler(w, &devslog.Options{
			HandlerOptions: &slog.HandlerOptions{
				AddSource: true,
				Level:     slog.LevelDebug,
			},
			SortKeys:   true,
			TimeFormat: time.RFC3339Nano,
		})
	} else {
		handler = console.NewHandler(w, &console.HandlerOptions{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC3339Nano,
		})
	}

	logger := timewheel.NewSlogLogger(slog.New(newHandler(handler)))
	return timewheel.NewLevelLogger(logger, config.LogLevels[cfg.Level])
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var nopCloser = closerFunc(func() error { return nil })

func newStatsReporter(cfg config.StatsConfig) (timewheel.StatsReporter, io.Closer, error) {
	if cfg.Backend == config.StatsNone {
		return timewheel.NullStatsReporter, nopCloser, nil
	}

	if cfg.Backend == config.StatsStatsd {
		client, err := statsd.NewBufferedClient(cfg.StatsdAddr, cfg.Prefix, cfg.ReportInterval, 0)
		if err != nil {
			return nil, nil, err
		}
		return stats.NewStatsdReporterClient(client), client, nil
	}

	// The tally scope applies the prefix.
	client, err := statsd.NewBufferedClient(cfg.StatsdAddr, "", cfg.ReportInterval, 0)
	if err != nil {
		return nil, nil, err
	}

	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix:   cfg.Prefix,
		Reporter: tallystatsd.NewReporter(client, tallystatsd.Options{SampleRate: 1.0}),
	}, cfg.ReportInterval)
	return stats.NewTallyReporter(scope), closerFunc(func() error {
		// The scope flushes into the client, so it closes first.
		scopeErr := closer.Close()
		if err := client.Close(); err != nil {
			return err
		}
		return scopeErr
	}), nil
}

func newTracer(cfg config.TracingConfig, logger timewheel.Logger) (opentracing.Tracer, io.Closer) {
	if !cfg.Enabled {
		return opentracing.NoopTracer{}, nopCloser
	}
	return jaeger.NewTracer(
		cfg.ServiceName,
		jaeger.NewConstSampler(true),
		jaeger.NewLoggingReporter(logger),
	)
}
