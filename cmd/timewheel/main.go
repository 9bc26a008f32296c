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

// timewheel schedules a batch of random timers on a timer wheel, cancels
// some of them and reports how late the rest fired.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/uber/timewheel/config"
)

type options struct {
	Config string `long:"config" description:"YAML configuration file"`

	Duration    time.Duration `long:"duration" description:"How long to run"`
	Tick        time.Duration `long:"tick" description:"Wheel tick"`
	Timers      int           `long:"timers" description:"Number of random timers"`
	MaxDelay    time.Duration `long:"max-delay" description:"Upper bound of the random delays"`
	CancelRatio float64       `long:"cancel-ratio" description:"Fraction of timers to cancel"`
	Periodic    time.Duration `long:"periodic" description:"Interval of a self re-arming timer"`

	DevLog   bool   `long:"dev-log" description:"Use the development log handler"`
	LogLevel string `long:"log-level" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Minimum log level"`
	Trace    bool   `long:"trace" description:"Report a jaeger span for every tick that fires timers"`

	Stats      string `long:"stats" choice:"none" choice:"tally" choice:"statsd" description:"Stats backend"`
	StatsdAddr string `long:"statsd-addr" description:"host:port of the statsd server"`

	DumpState bool `long:"dump-state" description:"Print the wheel state as JSON before stopping"`
}

func parseArgs(args []string) (options, error) {
	var opts options
	_, err := flags.ParseArgs(&opts, args)
	return opts, err
}

// loadConfig reads the configuration file, if any, and applies every flag
// that was set on top of it.
func loadConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		var err error
		if cfg, err = config.Load(opts.Config); err != nil {
			return cfg, err
		}
	}

	if opts.Duration != 0 {
		cfg.Duration = opts.Duration
	}
	if opts.Tick != 0 {
		cfg.Tick = opts.Tick
	}
	if opts.Timers != 0 {
		cfg.Timers = opts.Timers
	}
	if opts.MaxDelay != 0 {
		cfg.MaxDelay = opts.MaxDelay
	}
	if opts.CancelRatio != 0 {
		cfg.CancelRatio = opts.CancelRatio
	}
	if opts.Periodic != 0 {
		cfg.Periodic = opts.Periodic
	}
	if opts.DevLog {
		cfg.Logging.Dev = true
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.Trace {
		cfg.Tracing.Enabled = true
	}
	if opts.Stats != "" {
		cfg.Stats.Backend = opts.Stats
	}
	if opts.StatsdAddr != "" {
		cfg.Stats.StatsdAddr = opts.StatsdAddr
	}
	return cfg, cfg.Validate()
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		// go-flags already printed the error or the help message.
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg, opts.DumpState, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "timewheel: %v\n", err)
		os.Exit(1)
	}
}

