// SPDX-FileCopyrightText: 2025 The Kepler Authors
// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"sync"
	"sync/atomic"
)

// named is a Service that does nothing
type named string

func (n named) Name() string {
	return string(n)
}

// fakeLoader stands in for a service that acquires something in Init and
// releases it in Shutdown, like a trace loader or an output file
type fakeLoader struct {
	name      string
	initErr   error
	onClose   func(name string) error
	inits     int
	shutdowns int
}

func (f *fakeLoader) Name() string {
	return f.name
}

func (f *fakeLoader) Init() error {
	f.inits++
	return f.initErr
}

func (f *fakeLoader) Shutdown() error {
	f.shutdowns++
	if f.onClose != nil {
		return f.onClose(f.name)
	}
	return nil
}

// fakeHarvester publishes once analyze returns and then waits for the run
// to end, or returns the analysis error
type fakeHarvester struct {
	analyze   func(ctx context.Context) error
	dataCh    chan struct{}
	published sync.Once
	shutdowns atomic.Int32
}

var (
	_ Runner     = (*fakeHarvester)(nil)
	_ Shutdowner = (*fakeHarvester)(nil)
	_ Publisher  = (*fakeHarvester)(nil)
)

func newFakeHarvester(analyze func(ctx context.Context) error) *fakeHarvester {
	return &fakeHarvester{analyze: analyze, dataCh: make(chan struct{})}
}

func (h *fakeHarvester) Name() string {
	return "harvester"
}

func (h *fakeHarvester) Run(ctx context.Context) error {
	if h.analyze != nil {
		if err := h.analyze(ctx); err != nil {
			return err
		}
	}
	h.published.Do(func() { close(h.dataCh) })
	<-ctx.Done()
	return nil
}

func (h *fakeHarvester) Shutdown() error {
	h.shutdowns.Add(1)
	return nil
}

func (h *fakeHarvester) DataChannel() <-chan struct{} {
	return h.dataCh
}

// fakeExporter waits for its publisher, counts the write and returns unless
// it lingers
type fakeExporter struct {
	name      string
	source    Publisher
	linger    bool
	writeErr  error
	writes    atomic.Int32
	shutdowns atomic.Int32
}

var (
	_ Runner     = (*fakeExporter)(nil)
	_ Shutdowner = (*fakeExporter)(nil)
)

func (e *fakeExporter) Name() string {
	return e.name
}

func (e *fakeExporter) Run(ctx context.Context) error {
	if err := Await(ctx, e.source); err != nil {
		return nil
	}
	if e.writeErr != nil {
		return e.writeErr
	}
	e.writes.Add(1)
	if e.linger {
		<-ctx.Done()
	}
	return nil
}

func (e *fakeExporter) Shutdown() error {
	e.shutdowns.Add(1)
	return nil
}

// blocker runs until the run ends and reports the context error, like a
// signal handler or an HTTP server
type blocker struct {
	name    string
	started chan struct{}
}

func newBlocker(name string) *blocker {
	return &blocker{name: name, started: make(chan struct{})}
}

func (b *blocker) Name() string {
	return b.name
}

func (b *blocker) Run(ctx context.Context) error {
	close(b.started)
	<-ctx.Done()
	return ctx.Err()
}
