// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package processor

import "github.com/sustainable-computing-io/harvester/internal/analysis"

type memoryProcessor struct{}

func (memoryProcessor) Name() string {
	return Memory
}

func (memoryProcessor) Process(res *analysis.Result) Output {
	var out Output
	systemCore := res.Plan.SystemCore()
	for _, f := range res.Frames {
		if f == nil {
			continue
		}
		out.addFrame(res, "drambw", f, analysis.CustomThread, f.Counters.DRAMBandwidth)
		if f.Core == systemCore {
			out.addFrame(res, "MC_read", f, analysis.CustomThread, f.Counters.BytesReadFromMC)
			out.addFrame(res, "MC_write", f, analysis.CustomThread, f.Counters.BytesWrittenToMC)
		}
	}
	return out
}
