// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"log/slog"
	"sort"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/sustainable-computing-io/harvester/internal/processor"
)

// OutputProvider gives the collector access to the harvested entries
type OutputProvider interface {
	Output() (processor.Output, error)
}

// EntryCollector exposes harvested entries as one summary per series, the
// series being the type, program, thread and cpu of an entry
type EntryCollector struct {
	logger   *slog.Logger
	provider OutputProvider
	desc     *prom.Desc
	entries  *prom.Desc
}

var _ prom.Collector = (*EntryCollector)(nil)

// NewEntryCollector creates a collector reading entries from provider
func NewEntryCollector(provider OutputProvider, logger *slog.Logger) *EntryCollector {
	return &EntryCollector{
		logger:   logger.With("collector", "entry"),
		provider: provider,
		desc: prom.NewDesc(
			prom.BuildFQName(harvesterNS, "entry", "value"),
			"Values of the harvested entries of a series",
			[]string{"type", "program", "tid", "pid", "cpu"},
			nil,
		),
		entries: prom.NewDesc(
			prom.BuildFQName(harvesterNS, "", "entries"),
			"Number of harvested entries per type",
			[]string{"type"},
			nil,
		),
	}
}

func (c *EntryCollector) Describe(ch chan<- *prom.Desc) {
	ch <- c.desc
	ch <- c.entries
}

type series struct {
	typ, program  string
	tid, pid, cpu int
}

type stat struct {
	count uint64
	sum   float64
}

func (c *EntryCollector) Collect(ch chan<- prom.Metric) {
	out, err := c.provider.Output()
	if err != nil {
		c.logger.Debug("No entries to collect", "reason", err)
		return
	}

	stats := map[series]*stat{}
	perType := map[string]int{}
	for _, e := range out {
		k := series{e.Type, e.Program, e.TID, e.PID, e.CPU}
		s, ok := stats[k]
		if !ok {
			s = &stat{}
			stats[k] = s
		}
		s.count++
		s.sum += e.Value
		perType[e.Type]++
	}

	for k, s := range stats {
		ch <- prom.MustNewConstSummary(c.desc, s.count, s.sum, nil,
			k.typ, k.program, strconv.Itoa(k.tid), strconv.Itoa(k.pid), strconv.Itoa(k.cpu))
	}

	types := make([]string, 0, len(perType))
	for typ := range perType {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		ch <- prom.MustNewConstMetric(c.entries, prom.GaugeValue, float64(perType[typ]), typ)
	}
}
