// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package processor

import (
	"math"

	"github.com/sustainable-computing-io/harvester/internal/analysis"
	"github.com/sustainable-computing-io/harvester/internal/trace"
)

// stateTypes names the per state time entries, reported in nanoseconds
var stateTypes = map[trace.ThreadState]string{
	trace.Initialized: "init",
	trace.Ready:       "ready",
	trace.Running:     "running",
	trace.Standby:     "standby",
	trace.Terminated:  "terminated",
	trace.Wait:        "wait",
	trace.Transition:  "transition",
	trace.Unknown:     "unknown",
}

// loadBalanceProcessor reports how busy each core was and who it was busy with
type loadBalanceProcessor struct{}

func (loadBalanceProcessor) Name() string {
	return LoadBalance
}

func (loadBalanceProcessor) Process(res *analysis.Result) Output {
	var out Output
	for _, f := range res.Frames {
		if f == nil {
			continue
		}
		n := 0
		for _, sw := range trace.Between(res.Switches, f.Window.Start, f.Window.End()) {
			if sw.Processor == f.Core {
				n++
			}
		}
		out.addFrame(res, "switch", f, analysis.CustomThread, float64(n))

		for _, id := range f.Threads() {
			out.addFrame(res, "cycles", f, id, math.Round(totalShare(f, id)*f.Counters.Cycles))
			for _, state := range trace.States() {
				d := stateTime(f, id, state)
				out.addFrame(res, stateTypes[state], f, id, float64(d.Nanoseconds()))
			}
		}
	}
	return out
}
