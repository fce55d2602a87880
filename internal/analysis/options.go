// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"log/slog"
	"runtime"
	"time"

	"k8s.io/utils/clock"
)

const (
	DefaultInterval = 100 * time.Millisecond
	DefaultMargin   = time.Second
)

type Opts struct {
	logger   *slog.Logger
	clock    clock.PassiveClock
	interval time.Duration
	margin   time.Duration
	workers  int
}

// DefaultOpts returns the options used when none are given
func DefaultOpts() Opts {
	return Opts{
		logger:   slog.Default(),
		clock:    clock.RealClock{},
		interval: DefaultInterval,
		margin:   DefaultMargin,
		workers:  runtime.NumCPU(),
	}
}

// OptionFn is a function sets one more more options in Opts struct
type OptionFn func(*Opts)

// WithLogger sets the logger for the Analyzer
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Opts) {
		o.logger = logger
	}
}

// WithClock sets the clock used to time analysis runs
func WithClock(c clock.PassiveClock) OptionFn {
	return func(o *Opts) {
		o.clock = c
	}
}

// WithInterval sets the window width
func WithInterval(d time.Duration) OptionFn {
	return func(o *Opts) {
		o.interval = d
	}
}

// WithMargin sets how far before and after the analysis span events are selected
func WithMargin(d time.Duration) OptionFn {
	return func(o *Opts) {
		o.margin = d
	}
}

// WithWorkers sets how many cores are folded concurrently; n <= 0 uses one
// worker per CPU
func WithWorkers(n int) OptionFn {
	return func(o *Opts) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		o.workers = n
	}
}
