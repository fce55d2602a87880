// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package prometheus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/sustainable-computing-io/harvester/internal/exporter"
	collector "github.com/sustainable-computing-io/harvester/internal/exporter/prometheus/collector"
)

type APIRegistry interface {
	Register(endpoint, summary, description string, handler http.Handler) error
}

type Opts struct {
	logger          *slog.Logger
	debugCollectors map[string]bool
	collectors      map[string]prom.Collector
	server          APIRegistry
	path            string
	out             io.Writer
	linger          bool
}

// DefaultOpts returns a new Opts with defaults set
func DefaultOpts() Opts {
	return Opts{
		logger:          slog.Default(),
		debugCollectors: map[string]bool{},
		collectors:      map[string]prom.Collector{},
		out:             os.Stdout,
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

// WithDebugCollectors sets the debug collectors
func WithDebugCollectors(c []string) OptionFn {
	return func(o *Opts) {
		// Reset existing collectors
		o.debugCollectors = make(map[string]bool)

		for _, name := range c {
			o.debugCollectors[name] = true
		}
	}
}

// WithCollectors adds collectors registered next to the entry collector
func WithCollectors(c map[string]prom.Collector) OptionFn {
	return func(o *Opts) {
		o.collectors = c
	}
}

// WithServer serves the registry on /metrics of server
func WithServer(s APIRegistry) OptionFn {
	return func(o *Opts) {
		o.server = s
	}
}

// WithPath writes the metrics once in text format to path; "-" writes to
// the output set by WithOutput and an empty path writes nothing
func WithPath(path string) OptionFn {
	return func(o *Opts) {
		o.path = path
	}
}

// WithOutput sets the writer used for the "-" path
func WithOutput(out io.Writer) OptionFn {
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

// Exporter exports harvested entries as Prometheus metrics
type Exporter struct {
	logger          *slog.Logger
	provider        exporter.Provider
	registry        *prom.Registry
	server          APIRegistry
	debugCollectors map[string]bool
	collectors      map[string]prom.Collector
	path            string
	out             io.Writer
	linger          bool
}

var (
	_ exporter.Initializer = (*Exporter)(nil)
	_ exporter.Runner      = (*Exporter)(nil)
)

// NewExporter creates a new Exporter instance
func NewExporter(p exporter.Provider, applyOpts ...OptionFn) *Exporter {
	opts := DefaultOpts()
	for _, apply := range applyOpts {
		apply(&opts)
	}

	return &Exporter{
		logger:          opts.logger.With("service", "prometheus"),
		provider:        p,
		registry:        prom.NewRegistry(),
		server:          opts.server,
		debugCollectors: opts.debugCollectors,
		collectors:      opts.collectors,
		path:            opts.path,
		out:             opts.out,
		linger:          opts.linger,
	}
}

func collectorForName(name string) (prom.Collector, error) {
	switch name {
	case "go":
		return collectors.NewGoCollector(), nil
	case "process":
		return collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), nil
	default:
		return nil, fmt.Errorf("unknown collector: %s", name)
	}
}

// CreateCollectors returns the collectors exposing the output of p
func CreateCollectors(p exporter.Provider, logger *slog.Logger) map[string]prom.Collector {
	return map[string]prom.Collector{
		"build_info": collector.NewBuildInfoCollector(),
		"entry":      collector.NewEntryCollector(p, logger),
	}
}

func (e *Exporter) Init() error {
	e.logger.Info("Initializing Prometheus exporter")
	for c := range e.debugCollectors {
		collector, err := collectorForName(c)
		if err != nil {
			e.logger.Error("Error creating collector", "collector", c, "error", err)
			return err
		}
		e.logger.Info("Enabling debug collector", "collector", c)
		e.registry.MustRegister(collector)
	}

	for name, collector := range e.collectors {
		e.logger.Info("Enabling collector", "collector", name)
		e.registry.MustRegister(collector)
	}

	if e.server == nil {
		return nil
	}
	return e.server.Register("/metrics", "Metrics", "Prometheus metrics",
		promhttp.HandlerFor(
			e.registry,
			promhttp.HandlerOpts{
				EnableOpenMetrics: true,
				Registry:          e.registry,
			},
		))
}

func (e *Exporter) Run(ctx context.Context) error {
	if _, err := exporter.Await(ctx, e.provider); err != nil {
		if ctx.Err() != nil {
			e.logger.Info("Exiting before output was ready")
			return nil
		}
		return fmt.Errorf("failed to get output: %w", err)
	}

	if err := e.write(); err != nil {
		return err
	}

	if e.linger {
		e.logger.Info("Serving metrics until shutdown")
		<-ctx.Done()
	}
	return nil
}

func (e *Exporter) write() error {
	switch e.path {
	case "":
		return nil

	case exporter.StdoutPath:
		families, err := e.registry.Gather()
		if err != nil {
			return fmt.Errorf("failed to gather metrics: %w", err)
		}
		for _, mf := range families {
			if _, err := expfmt.MetricFamilyToText(e.out, mf); err != nil {
				return fmt.Errorf("failed to write metrics: %w", err)
			}
		}

	default:
		if err := prom.WriteToTextfile(e.path, e.registry); err != nil {
			return fmt.Errorf("failed to write metrics to %s: %w", e.path, err)
		}
	}
	e.logger.Info("Metrics written", "path", e.path)
	return nil
}

// Name implements service.Name
func (e *Exporter) Name() string {
	return "prometheus"
}
