// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

// gen-metric-docs writes the reference of the metrics served by the
// prometheus exporter as Markdown.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/sustainable-computing-io/harvester/internal/exporter/prometheus/collector"
	"github.com/sustainable-computing-io/harvester/internal/logger"
	"github.com/sustainable-computing-io/harvester/internal/processor"
)

// MetricInfo holds information about a Prometheus metric
type MetricInfo struct {
	Name        string
	Type        string
	Description string
	Labels      []string
}

// sampleOutput makes the entry collector emit every family it describes
type sampleOutput struct{}

func (sampleOutput) Output() (processor.Output, error) {
	return processor.Output{{
		Type:    "cycles",
		Program: "bench.exe",
		User:    "user",
		Time:    time.Unix(0, 0).UTC(),
		Value:   1,
		TID:     5,
		PID:     99,
	}}, nil
}

// gatherMetricsInfo collects every collector once and describes the
// resulting metric families
func gatherMetricsInfo(collectors ...prometheus.Collector) ([]MetricInfo, error) {
	reg := prometheus.NewRegistry()
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	families, err := reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	metrics := make([]MetricInfo, 0, len(families))
	for _, mf := range families {
		metrics = append(metrics, MetricInfo{
			Name:        mf.GetName(),
			Type:        mf.GetType().String(),
			Description: mf.GetHelp(),
			Labels:      labelNames(mf),
		})
	}
	return metrics, nil
}

func labelNames(mf *dto.MetricFamily) []string {
	if len(mf.GetMetric()) == 0 {
		return nil
	}
	var names []string
	for _, lp := range mf.GetMetric()[0].GetLabel() {
		names = append(names, lp.GetName())
	}
	return names
}

type section struct {
	title, prefix, intro string
}

var sections = []section{
	{"Entry Metrics", "harvester_entr", "Harvested entries of the selected metric families, one series per type, program, thread and cpu."},
	{"Build Metrics", "harvester_build_", "Version of the running binary."},
}

// generateMarkdown generates Markdown documentation from metric information
func generateMarkdown(metrics []MetricInfo) string {
	var md strings.Builder
	sort.Slice(metrics, func(i, j int) bool {
		return metrics[i].Name < metrics[j].Name
	})

	md.WriteString("# Harvester Metrics\n\n")
	md.WriteString("The prometheus exporter writes these metrics to a text file, or serves them on `/metrics` when a web listen address is set.\n\n")
	md.WriteString("## Metrics Reference\n\n")

	seen := make([]bool, len(metrics))
	for _, s := range sections {
		var matched []MetricInfo
		for i, m := range metrics {
			if !seen[i] && strings.HasPrefix(m.Name, s.prefix) {
				matched = append(matched, m)
				seen[i] = true
			}
		}
		if len(matched) == 0 {
			continue
		}
		fmt.Fprintf(&md, "### %s\n\n%s\n\n", s.title, s.intro)
		writeMetricsSection(&md, matched)
	}

	var other []MetricInfo
	for i, m := range metrics {
		if !seen[i] {
			other = append(other, m)
		}
	}
	if len(other) > 0 {
		md.WriteString("### Other Metrics\n\n")
		writeMetricsSection(&md, other)
	}

	md.WriteString("---\n\n")
	md.WriteString("This documentation was automatically generated by the gen-metric-docs tool.\n")
	return md.String()
}

// writeMetricsSection writes a section of metrics to the markdown builder
func writeMetricsSection(md *strings.Builder, metrics []MetricInfo) {
	for _, metric := range metrics {
		fmt.Fprintf(md, "#### %s\n\n", metric.Name)
		fmt.Fprintf(md, "- **Type**: %s\n", metric.Type)
		fmt.Fprintf(md, "- **Description**: %s\n", metric.Description)
		if len(metric.Labels) > 0 {
			md.WriteString("- **Labels**:\n")
			for _, label := range metric.Labels {
				fmt.Fprintf(md, "  - `%s`\n", label)
			}
		}
		md.WriteString("\n")
	}
}

func run(args []string, log *slog.Logger) error {
	app := kingpin.New("gen-metric-docs", "Generate the metrics reference of the prometheus exporter.")
	output := app.Flag("output", "Path to output Markdown file").Default("metrics.md").String()
	if _, err := app.Parse(args); err != nil {
		return err
	}

	metrics, err := gatherMetricsInfo(
		collector.NewBuildInfoCollector(),
		collector.NewEntryCollector(sampleOutput{}, log),
	)
	if err != nil {
		return err
	}
	log.Info("Gathered metrics", "count", len(metrics))

	if dir := filepath.Dir(*output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(*output, []byte(generateMarkdown(metrics)), 0o644); err != nil {
		return fmt.Errorf("failed to write markdown file: %w", err)
	}
	log.Info("Metrics documentation generated", "path", *output)
	return nil
}

func main() {
	log := logger.New("info", "text", os.Stderr)
	if err := run(os.Args[1:], log); err != nil {
		log.Error("Failed to generate metrics documentation", "error", err)
		os.Exit(1)
	}
}
