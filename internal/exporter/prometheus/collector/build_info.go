// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/sustainable-computing-io/harvester/internal/version"
)

const (
	harvesterNS    = "harvester"
	buildSubsystem = "build"
)

// BuildInfoCollector exposes the version of the running binary
type BuildInfoCollector struct {
	desc   *prom.Desc
	labels []string
}

// NewBuildInfoCollector creates a new collector for build information
func NewBuildInfoCollector() *BuildInfoCollector {
	info := version.Info()
	return &BuildInfoCollector{
		desc: prom.NewDesc(
			prom.BuildFQName(harvesterNS, buildSubsystem, "info"),
			"A metric with a constant '1' value labeled with version information",
			[]string{"arch", "branch", "revision", "version", "goversion"},
			nil,
		),
		labels: []string{info.GoArch, info.GitBranch, info.GitCommit, info.Version, info.GoVersion},
	}
}

func (c *BuildInfoCollector) Describe(ch chan<- *prom.Desc) {
	ch <- c.desc
}

func (c *BuildInfoCollector) Collect(ch chan<- prom.Metric) {
	ch <- prom.MustNewConstMetric(c.desc, prom.GaugeValue, 1, c.labels...)
}
