// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"k8s.io/utils/clock"

	"github.com/sustainable-computing-io/harvester/internal/analysis"
	"github.com/sustainable-computing-io/harvester/internal/processor"
	"github.com/sustainable-computing-io/harvester/internal/service"
	"github.com/sustainable-computing-io/harvester/internal/trace"
)

// ErrNotReady is returned by Output before the analysis has completed
var ErrNotReady = errors.New("analysis has not completed")

type OutputProvider interface {
	// Output returns the entries produced by the processors
	Output() (processor.Output, error)

	// DataChannel is closed once the output is available
	service.Publisher
}

// Service defines the interface for the harvesting service
type Service interface {
	service.Service
	OutputProvider
}

// Analyzer turns a trace into frames
type Analyzer interface {
	Analyze(ctx context.Context, tr *trace.Trace) (*analysis.Result, error)
}

// Harvester loads a trace, analyses it and runs the processors over the result
type Harvester struct {
	logger     *slog.Logger
	clock      clock.PassiveClock
	inputDir   string
	analyzer   Analyzer
	processors []processor.Processor

	trace  *trace.Trace
	result atomic.Pointer[analysis.Result]
	output atomic.Pointer[processor.Output]

	// closed once the output is available
	dataCh    chan struct{}
	published sync.Once
}

var (
	_ Service              = (*Harvester)(nil)
	_ service.Initializer  = (*Harvester)(nil)
	_ service.Runner       = (*Harvester)(nil)
	_ service.Shutdowner   = (*Harvester)(nil)
	_ service.LiveChecker  = (*Harvester)(nil)
	_ service.ReadyChecker = (*Harvester)(nil)
	_ service.Publisher    = (*Harvester)(nil)
)

// NewHarvester creates a Harvester running processors over the result of analyzer
func NewHarvester(analyzer Analyzer, processors []processor.Processor, applyOpts ...OptionFn) *Harvester {
	opts := DefaultOpts()
	for _, apply := range applyOpts {
		apply(&opts)
	}

	return &Harvester{
		logger:     opts.logger.With("service", "harvester"),
		clock:      opts.clock,
		inputDir:   opts.inputDir,
		trace:      opts.trace,
		analyzer:   analyzer,
		processors: processors,
		dataCh:     make(chan struct{}),
	}
}

func (h *Harvester) Name() string {
	return "harvester"
}

// Init loads the trace unless one was given
func (h *Harvester) Init() error {
	if h.analyzer == nil {
		return fmt.Errorf("no analyzer configured")
	}
	if len(h.processors) == 0 {
		return fmt.Errorf("no processors configured")
	}
	if h.trace != nil {
		return nil
	}

	started := h.clock.Now()
	tr, err := trace.Load(h.inputDir)
	if err != nil {
		return fmt.Errorf("failed to load trace from %s: %w", h.inputDir, err)
	}
	h.trace = tr
	h.logger.Info("Trace loaded",
		"dir", h.inputDir,
		"processes", len(tr.Processes),
		"switches", len(tr.Switches),
		"counters", len(tr.Counters),
		"faults", len(tr.Faults),
		"locks", len(tr.Locks),
		"elapsed", h.clock.Since(started))
	return nil
}

// Run analyses the trace once, publishes the output and waits for ctx to be done
func (h *Harvester) Run(ctx context.Context) error {
	h.logger.Info("Harvester is running...")
	if h.trace == nil {
		return fmt.Errorf("trace not loaded")
	}

	res, err := h.analyzer.Analyze(ctx, h.trace)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	h.result.Store(res)

	out := make(processor.Output, 0)
	for _, p := range h.processors {
		entries := p.Process(res)
		h.logger.Debug("Processor done", "processor", p.Name(), "entries", len(entries))
		out = append(out, entries...)
	}
	h.output.Store(&out)
	h.logger.Info("Output ready", "entries", len(out))
	h.signalNewData()

	<-ctx.Done()
	h.logger.Info("Harvester has terminated.")
	return nil
}

// signalNewData wakes every exporter waiting on DataChannel
func (h *Harvester) signalNewData() {
	h.published.Do(func() {
		close(h.dataCh)
		h.logger.Debug("Data channel closed")
	})
}

func (h *Harvester) Shutdown() error {
	h.logger.Info("shutting down harvester")
	return nil
}

func (h *Harvester) DataChannel() <-chan struct{} {
	return h.dataCh
}

func (h *Harvester) Output() (processor.Output, error) {
	out := h.output.Load()
	if out == nil {
		return nil, ErrNotReady
	}
	return *out, nil
}

// IsLive reports whether a trace has been loaded
func (h *Harvester) IsLive() bool {
	return h.trace != nil
}

// IsReady reports whether the output has been published
func (h *Harvester) IsReady() bool {
	return service.Published(h)
}

// Result returns the analysis result once Run has produced it
func (h *Harvester) Result() (*analysis.Result, error) {
	res := h.result.Load()
	if res == nil {
		return nil, ErrNotReady
	}
	return res, nil
}
