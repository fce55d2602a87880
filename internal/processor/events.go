// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package processor

import (
	"github.com/sustainable-computing-io/harvester/internal/analysis"
	"github.com/sustainable-computing-io/harvester/internal/trace"
)

// switchProcessor lists every context switch of the analysis span and the
// thread lifetimes of the monitored process
type switchProcessor struct{}

func (switchProcessor) Name() string {
	return Switch
}

func (switchProcessor) Process(res *analysis.Result) Output {
	var out Output
	plan := res.Plan
	for _, sw := range trace.Between(res.Switches, plan.Start, plan.End) {
		th := thread{program: res.ProcessName(sw.NewProcessID), tid: sw.NewThreadID, pid: sw.NewProcessID}
		out.add("sw", sw.Timestamp, th, sw.Processor, 1)
	}

	for _, lt := range res.Lifetimes {
		if lt.ProcessID != plan.Process.ID {
			continue
		}
		th := thread{program: plan.Process.Name, tid: lt.ThreadID, pid: lt.ProcessID}
		out.add(lt.Kind.String(), lt.Timestamp, th, lt.Processor, 1)
	}
	return out
}

// lockProcessor lists lock events, numbering locks 1..n in order of first use
type lockProcessor struct{}

func (lockProcessor) Name() string {
	return Lock
}

func (lockProcessor) Process(res *analysis.Result) Output {
	var out Output
	locks := map[int64]int{}
	for _, ev := range res.Locks {
		n, ok := locks[ev.Lock]
		if !ok {
			n = len(locks) + 1
			locks[ev.Lock] = n
		}
		th := thread{program: res.Plan.Process.Name, tid: ev.ThreadID, pid: ev.ProcessID}
		out.add(ev.Kind.String(), ev.Timestamp, th, ev.Processor, float64(n))
	}
	return out
}
