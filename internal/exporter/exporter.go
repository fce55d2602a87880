// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/sustainable-computing-io/harvester/internal/harvest"
	"github.com/sustainable-computing-io/harvester/internal/processor"
	"github.com/sustainable-computing-io/harvester/internal/service"
)

type (
	Initializer = service.Initializer
	Runner      = service.Runner
	Shutdowner  = service.Shutdowner
	Provider    = harvest.OutputProvider
)

// StdoutPath selects standard output as destination
const StdoutPath = "-"

// EncodeFn writes out to w in an exporter specific format
type EncodeFn func(w io.Writer, out processor.Output) error

// Await blocks until p publishes its output or ctx is done
func Await(ctx context.Context, p Provider) (processor.Output, error) {
	if err := service.Await(ctx, p); err != nil {
		return nil, err
	}
	return p.Output()
}

// Open returns a writer for path; StdoutPath writes to standard output which
// is left open on Close
func Open(path string) (io.WriteCloser, error) {
	if path == "" || path == StdoutPath {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

type Opts struct {
	logger *slog.Logger
	path   string
	out    io.WriteCloser
	linger bool
}

// DefaultOpts returns a new Opts with defaults set
func DefaultOpts() Opts {
	return Opts{
		logger: slog.Default(),
		path:   StdoutPath,
	}
}

// OptionFn is a function sets one more more options in Opts struct
type OptionFn func(*Opts)

// WithLogger sets the logger for the Exporter
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Opts) {
		o.logger = logger
	}
}

// WithPath sets the file the Exporter writes to
func WithPath(path string) OptionFn {
	return func(o *Opts) {
		o.path = path
	}
}

// WithOutput sets the writer used instead of opening a path
func WithOutput(out io.WriteCloser) OptionFn {
	return func(o *Opts) {
		o.out = out
	}
}

// WithLinger keeps Run blocked after writing until its context is done
func WithLinger(linger bool) OptionFn {
	return func(o *Opts) {
		o.linger = linger
	}
}

// Exporter writes the harvested output once using an EncodeFn
type Exporter struct {
	name     string
	logger   *slog.Logger
	provider Provider
	encode   EncodeFn
	path     string
	out      io.WriteCloser
	linger   bool
	written  atomic.Bool
}

var (
	_ Initializer          = (*Exporter)(nil)
	_ Runner               = (*Exporter)(nil)
	_ Shutdowner           = (*Exporter)(nil)
	_ service.ReadyChecker = (*Exporter)(nil)
)

// New creates an Exporter named name that writes the output of p with encode
func New(name string, p Provider, encode EncodeFn, applyOpts ...OptionFn) *Exporter {
	opts := DefaultOpts()
	for _, apply := range applyOpts {
		apply(&opts)
	}

	return &Exporter{
		name:     name,
		logger:   opts.logger.With("service", name),
		provider: p,
		encode:   encode,
		path:     opts.path,
		out:      opts.out,
		linger:   opts.linger,
	}
}

// Name implements service.Name
func (e *Exporter) Name() string {
	return e.name
}

func (e *Exporter) Init() error {
	if e.out != nil {
		return nil
	}
	out, err := Open(e.path)
	if err != nil {
		return err
	}
	e.out = out
	return nil
}

func (e *Exporter) Run(ctx context.Context) error {
	out, err := Await(ctx, e.provider)
	if err != nil {
		if ctx.Err() != nil {
			e.logger.Info("Exiting before output was ready")
			return nil
		}
		return fmt.Errorf("failed to get output: %w", err)
	}

	if err := e.encode(e.out, out); err != nil {
		return fmt.Errorf("failed to write %s output: %w", e.name, err)
	}
	e.written.Store(true)
	e.logger.Info("Output written", "entries", len(out), "path", e.path)

	if e.linger {
		<-ctx.Done()
	}
	return nil
}

// IsReady reports whether the output has been written
func (e *Exporter) IsReady() bool {
	return e.written.Load()
}

func (e *Exporter) Shutdown() error {
	if e.out == nil {
		return nil
	}
	return e.out.Close()
}
