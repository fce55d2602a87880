// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package harvest

import (
	"log/slog"

	"k8s.io/utils/clock"

	"github.com/sustainable-computing-io/harvester/internal/trace"
)

type Opts struct {
	logger   *slog.Logger
	clock    clock.PassiveClock
	inputDir string
	trace    *trace.Trace
}

// DefaultOpts returns a new Opts with defaults set
func DefaultOpts() Opts {
	return Opts{
		logger:   slog.Default(),
		clock:    clock.RealClock{},
		inputDir: ".",
	}
}

// OptionFn is a function sets one more more options in Opts struct
type OptionFn func(*Opts)

// WithLogger sets the logger for the Harvester
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Opts) {
		o.logger = logger
	}
}

// WithClock sets the clock the Harvester
func WithClock(c clock.PassiveClock) OptionFn {
	return func(o *Opts) {
		o.clock = c
	}
}

// WithInputDir sets the directory the trace is loaded from
func WithInputDir(dir string) OptionFn {
	return func(o *Opts) {
		o.inputDir = dir
	}
}

// WithTrace uses an already loaded trace instead of reading the input dir
func WithTrace(tr *trace.Trace) OptionFn {
	return func(o *Opts) {
		o.trace = tr
	}
}
