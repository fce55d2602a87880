// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"time"

	"github.com/sustainable-computing-io/harvester/internal/trace"
)

const benchPID = 99

var epoch = time.Unix(1_700_000_000, 0).UTC()

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func window(index, startMs, widthMs int) Window {
	return Window{Index: index, Start: at(startMs), Duration: ms(widthMs)}
}

// switchAt returns a switch on core from (oldTid, oldPid) to (newTid, newPid)
// with the outgoing thread left in state
func switchAt(t, core int, oldTid, oldPid, newTid, newPid int, state trace.ThreadState) trace.ContextSwitch {
	return trace.ContextSwitch{
		OldThreadID:  oldTid,
		OldProcessID: oldPid,
		NewThreadID:  newTid,
		NewProcessID: newPid,
		State:        state,
		Processor:    core,
		Timestamp:    at(t),
	}
}

func sample(core, t, durMs int, ct trace.CounterType, v float64) trace.CounterSample {
	return trace.CounterSample{
		Core:      core,
		Timestamp: at(t),
		Duration:  ms(durMs),
		Type:      ct,
		Value:     v,
	}
}
