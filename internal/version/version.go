// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
)

// set at build time with -ldflags "-X"
var (
	version   string
	buildTime string
	gitBranch string
	gitCommit string
)

type VersionInfo struct {
	Version   string
	BuildTime string
	GitBranch string
	GitCommit string

	GoVersion string
	GoOS      string
	GoArch    string
}

// Info returns the version information
func Info() VersionInfo {
	return VersionInfo{
		Version:   version,
		BuildTime: buildTime,
		GitBranch: gitBranch,
		GitCommit: gitCommit,

		GoVersion: runtime.Version(),
		GoOS:      runtime.GOOS,
		GoArch:    runtime.GOARCH,
	}
}

// String formats v for --version output
func (v VersionInfo) String() string {
	ver := v.Version
	if ver == "" {
		ver = "dev"
	}
	s := fmt.Sprintf("harvester %s (%s/%s, %s)", ver, v.GoOS, v.GoArch, v.GoVersion)
	if v.GitCommit != "" {
		s += fmt.Sprintf(" commit %s", v.GitCommit)
		if v.GitBranch != "" {
			s += fmt.Sprintf(" on %s", v.GitBranch)
		}
	}
	if v.BuildTime != "" {
		s += fmt.Sprintf(" built %s", v.BuildTime)
	}
	return s
}
