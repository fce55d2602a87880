// SPDX-FileCopyrightText: 2025 The Kepler Authors
// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package service

import "context"

// Service is anything Init and Run can manage
type Service interface {
	Name() string
}

// Initializer prepares a service before any service runs; a trace is loaded
// and output files are opened here
type Initializer interface {
	Service
	Init() error
}

// Runner runs in its own goroutine. A one-shot Runner returns once its work
// is done, which ends the run for every other Runner.
type Runner interface {
	Service
	Run(ctx context.Context) error
}

// Shutdowner releases what Init acquired
type Shutdowner interface {
	Service
	Shutdown() error
}

// LiveChecker is implemented by services able to report they are working
type LiveChecker interface {
	Service
	IsLive() bool
}

// ReadyChecker is implemented by services whose results become available
// some time after Run is called
type ReadyChecker interface {
	Service
	IsReady() bool
}

// Publisher makes a result available to other services by closing its data
// channel exactly once
type Publisher interface {
	DataChannel() <-chan struct{}
}

// Await blocks until p has published or ctx is done, in which case it
// returns the context error
func Await(ctx context.Context, p Publisher) error {
	select {
	case <-p.DataChannel():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Published reports whether p has already published without blocking
func Published(p Publisher) bool {
	select {
	case <-p.DataChannel():
		return true
	default:
		return false
	}
}
