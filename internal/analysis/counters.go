// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"time"

	"github.com/sustainable-computing-io/harvester/internal/trace"
)

// HardwareCounters holds the counter values of one core over one window.
// Count-like values are rescaled to the window width, rate-like values are
// averaged over the samples.
type HardwareCounters struct {
	Cycles          float64
	IPC             float64
	L1Misses        float64
	L2Misses        float64
	L2Hits          float64
	L3Misses        float64
	L3Hits          float64
	L2Clock         float64
	L3Clock         float64
	TLBMisses       float64
	TLBClock        float64
	L1Invalidations float64
	L2Invalidations float64
	DRAMBandwidth   float64

	// only set on the system core
	BytesReadFromMC  float64
	BytesWrittenToMC float64
	IncomingQPI      float64
	OutgoingQPI      float64
}

// Get returns the aggregated value of a counter type
func (hc HardwareCounters) Get(ct trace.CounterType) float64 {
	switch ct {
	case trace.Cycles:
		return hc.Cycles
	case trace.IPC:
		return hc.IPC
	case trace.L2Miss:
		return hc.L2Misses
	case trace.L2Hit:
		return hc.L2Hits
	case trace.L3Miss:
		return hc.L3Misses
	case trace.L3Hit:
		return hc.L3Hits
	case trace.L2Clock:
		return hc.L2Clock
	case trace.L3Clock:
		return hc.L3Clock
	case trace.TLBMiss:
		return hc.TLBMisses
	case trace.TLBClock:
		return hc.TLBClock
	case trace.L1Invalidation:
		return hc.L1Invalidations
	case trace.L2Invalidation:
		return hc.L2Invalidations
	case trace.DRAMBandwidth:
		return hc.DRAMBandwidth
	case trace.BytesReadFromMC:
		return hc.BytesReadFromMC
	case trace.BytesWrittenToMC:
		return hc.BytesWrittenToMC
	case trace.IncomingQPI:
		return hc.IncomingQPI
	case trace.OutgoingQPI:
		return hc.OutgoingQPI
	}
	return 0
}

func (hc *HardwareCounters) set(ct trace.CounterType, v float64) {
	switch ct {
	case trace.Cycles:
		hc.Cycles = v
	case trace.IPC:
		hc.IPC = v
	case trace.L2Miss:
		hc.L2Misses = v
	case trace.L2Hit:
		hc.L2Hits = v
	case trace.L3Miss:
		hc.L3Misses = v
	case trace.L3Hit:
		hc.L3Hits = v
	case trace.L2Clock:
		hc.L2Clock = v
	case trace.L3Clock:
		hc.L3Clock = v
	case trace.TLBMiss:
		hc.TLBMisses = v
	case trace.TLBClock:
		hc.TLBClock = v
	case trace.L1Invalidation:
		hc.L1Invalidations = v
	case trace.L2Invalidation:
		hc.L2Invalidations = v
	case trace.DRAMBandwidth:
		hc.DRAMBandwidth = v
	case trace.BytesReadFromMC:
		hc.BytesReadFromMC = v
	case trace.BytesWrittenToMC:
		hc.BytesWrittenToMC = v
	case trace.IncomingQPI:
		hc.IncomingQPI = v
	case trace.OutgoingQPI:
		hc.OutgoingQPI = v
	}
}

type accumulator struct {
	sum      float64
	duration time.Duration
	n        int
}

// AggregateCounters folds the samples of core that fall in [w.Start, w.End)
// into one snapshot. samples may contain other cores and times; they are
// skipped. System wide counters are only kept when systemCore is set.
func AggregateCounters(w Window, core int, samples []trace.CounterSample, systemCore bool) HardwareCounters {
	var acc [trace.CounterTypeCount]accumulator
	for _, s := range samples {
		if s.Core != core || !w.Contains(s.Timestamp) {
			continue
		}
		if int(s.Type) < 0 || int(s.Type) >= len(acc) {
			continue
		}
		a := &acc[s.Type]
		a.sum += s.Value
		a.duration += s.Duration
		a.n++
	}

	var hc HardwareCounters
	windowMs := msec(w.Duration)
	for _, ct := range trace.CounterTypes() {
		a := acc[ct]
		if a.n == 0 {
			continue
		}
		if ct.IsSystemWide() && !systemCore {
			continue
		}

		var v float64
		switch {
		case ct.IsRate():
			v = a.sum / float64(a.n)
		case a.duration > 0:
			v = a.sum / msec(a.duration) * windowMs
		}
		hc.set(ct, v)
	}
	hc.L1Misses = hc.L2Misses + hc.L2Hits
	return hc
}

func msec(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
