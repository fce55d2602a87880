// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package processor

import (
	"math"
	"time"

	"github.com/sustainable-computing-io/harvester/internal/analysis"
	"github.com/sustainable-computing-io/harvester/internal/trace"
)

// faultCycles is roughly what taking and returning from a hard page fault costs
const faultCycles = 1050

// localityProcessor splits cache and TLB behaviour of each core between the
// threads that occupied it
type localityProcessor struct{}

func (localityProcessor) Name() string {
	return Locality
}

func (localityProcessor) Process(res *analysis.Result) Output {
	var out Output
	eachThread(res, func(f *analysis.Frame, id analysis.ThreadIdentity) {
		cn := f.Counters
		m := onCoreRatio(f, id)

		var dzf, hpf float64
		if id.Kind == analysis.KindMonitored {
			dzf = float64(f.FaultCount(id.TID, trace.FaultMinor))
			hpf = float64(f.FaultCount(id.TID, trace.FaultMajor))
		}
		cycles := math.Round(m * cn.Cycles)

		out.addFrame(res, "cycles", f, id, cycles)
		out.addFrame(res, "time", f, id, m)
		out.addFrame(res, "l1miss", f, id, math.Round(m*cn.L1Misses))
		out.addFrame(res, "l2miss", f, id, math.Round(m*cn.L2Misses))
		out.addFrame(res, "l3miss", f, id, math.Round(m*cn.L3Misses))
		out.addFrame(res, "tlbmiss", f, id, math.Round(m*cn.TLBMisses))
		out.addFrame(res, "dzf", f, id, dzf)
		out.addFrame(res, "hpf", f, id, hpf)
		out.addFrame(res, "ipc", f, id, cn.IPC)
		out.addFrame(res, "tlbperf", f, id, cn.TLBClock)
		out.addFrame(res, "l1perf", f, id, m*cn.L2Hits*10/cycles)
		out.addFrame(res, "l2perf", f, id, cn.L2Clock)
		out.addFrame(res, "l3perf", f, id, cn.L3Clock)
		out.addFrame(res, "hpfperf", f, id, hpf*faultCycles/cycles)
	})
	return out
}

// onCoreRatio is Frame.OnCoreRatio for an identity taken from f.Threads()
func onCoreRatio(f *analysis.Frame, id analysis.ThreadIdentity) float64 {
	r, err := f.OnCoreRatio(id)
	if err != nil {
		return 0
	}
	return r
}

// totalShare is Frame.TotalShare for an identity taken from f.Threads()
func totalShare(f *analysis.Frame, id analysis.ThreadIdentity) float64 {
	s, err := f.TotalShare(id)
	if err != nil {
		return 0
	}
	return s
}

// stateTime is Frame.Time for an identity taken from f.Threads()
func stateTime(f *analysis.Frame, id analysis.ThreadIdentity, state trace.ThreadState) time.Duration {
	d, err := f.Time(id, state)
	if err != nil {
		return 0
	}
	return d
}
