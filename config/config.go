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

// Package config holds the settings of the timewheel command, loaded from
// YAML and validated as a whole.
package config

import (
	"fmt"
	"os"
	"time"

	"braces.dev/errtrace"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"

	"github.com/uber/timewheel"
)

// Stats backends.
const (
	StatsNone   = "none"
	StatsTally  = "tally"
	StatsStatsd = "statsd"
)

// Config is the configuration of a timewheel run.
type Config struct {
	// Name tags logs and metrics of the wheel.
	Name string `yaml:"name"`

	// Tick is the duration of one wheel tick.
	Tick time.Duration `yaml:"tick"`

	// Duration is how long the run lasts.
	Duration time.Duration `yaml:"duration"`

	// Timers is the number of random timers scheduled at start.
	Timers int `yaml:"timers"`

	// MaxDelay bounds the random timer delays.
	MaxDelay time.Duration `yaml:"maxDelay"`

	// CancelRatio is the fraction of timers cancelled before they fire.
	CancelRatio float64 `yaml:"cancelRatio"`

	// Periodic is the interval of a self re-arming timer. Zero disables it.
	Periodic time.Duration `yaml:"periodic"`

	Logging LoggingConfig `yaml:"logging"`
	Stats   StatsConfig   `yaml:"stats"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level"`

	// Dev switches to the verbose development handler.
	Dev bool `yaml:"dev"`
}

// StatsConfig configures where metrics go.
type StatsConfig struct {
	// Backend is none, tally (a tally scope flushed to statsd) or statsd.
	Backend    string `yaml:"backend"`
	StatsdAddr string `yaml:"statsdAddr"`
	Prefix     string `yaml:"prefix"`

	// ReportInterval is how often the tally scope flushes.
	ReportInterval time.Duration `yaml:"reportInterval"`
}

// TracingConfig configures the jaeger tracer.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"serviceName"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Name:        "timewheel",
		Tick:        time.Millisecond,
		Duration:    10 * time.Second,
		Timers:      1000,
		MaxDelay:    5 * time.Second,
		CancelRatio: 0.1,
		Logging: LoggingConfig{
			Level: "info",
		},
		Stats: StatsConfig{
			Backend:        StatsNone,
			Prefix:         "timewheel",
			ReportInterval: time.Second,
		},
		Tracing: TracingConfig{
			ServiceName: "timewheel",
		},
	}
}

// Load reads the YAML file at path on top of Default and validates the
// result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errtrace.Wrap(err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, errtrace.Wrap(fmt.Errorf("parse %v: %w", path, err))
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, rejecting unknown fields, and validates the
// result. Fields missing from data keep their current value.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return errtrace.Wrap(err)
	}
	return errtrace.Wrap(cfg.Validate())
}

// Validate returns every problem with the configuration combined into one
// error, or nil.
func (c Config) Validate() error {
	var errs error
	if c.Tick <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("tick must be positive, got %v", c.Tick))
	}
	if c.Duration <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("duration must be positive, got %v", c.Duration))
	}
	if c.Timers < 0 {
		errs = multierr.Append(errs, fmt.Errorf("timers must not be negative, got %v", c.Timers))
	}
	if c.MaxDelay <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("maxDelay must be positive, got %v", c.MaxDelay))
	} else if c.Tick > 0 && uint64(c.MaxDelay/c.Tick) > timewheel.MaxDelay {
		errs = multierr.Append(errs, fmt.Errorf("maxDelay %v exceeds %d ticks of %v", c.MaxDelay, timewheel.MaxDelay, c.Tick))
	}
	if c.CancelRatio < 0 || c.CancelRatio > 1 {
		errs = multierr.Append(errs, fmt.Errorf("cancelRatio must be within [0, 1], got %v", c.CancelRatio))
	}
	if c.Periodic < 0 {
		errs = multierr.Append(errs, fmt.Errorf("periodic must not be negative, got %v", c.Periodic))
	}
	if _, ok := LogLevels[c.Logging.Level]; !ok {
		errs = multierr.Append(errs, fmt.Errorf("unknown logging level %q", c.Logging.Level))
	}

	switch c.Stats.Backend {
	case StatsNone:
	case StatsTally, StatsStatsd:
		if c.Stats.StatsdAddr == "" {
			errs = multierr.Append(errs, fmt.Errorf("stats backend %q requires statsdAddr", c.Stats.Backend))
		}
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown stats backend %q", c.Stats.Backend))
	}
	if c.Stats.Backend != StatsNone && c.Stats.ReportInterval <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("stats reportInterval must be positive, got %v", c.Stats.ReportInterval))
	}
	if c.Tracing.Enabled && c.Tracing.ServiceName == "" {
		errs = multierr.Append(errs, fmt.Errorf("tracing requires a serviceName"))
	}
	return errs
}

// LogLevels maps the accepted logging level names to wheel log levels.
var LogLevels = map[string]timewheel.LogLevel{
	"debug": timewheel.LogLevelDebug,
	"info":  timewheel.LogLevelInfo,
	"warn":  timewheel.LogLevelWarn,
	"error": timewheel.LogLevelError,
}
