// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"fmt"
	"strings"
	"time"
)

// CounterType identifies what a hardware counter sample measures
type CounterType int

const (
	Cycles CounterType = iota
	IPC
	L2Miss
	L2Hit
	L3Miss
	L3Hit
	L2Clock
	L3Clock
	TLBMiss
	TLBClock
	L1Invalidation
	L2Invalidation
	DRAMBandwidth
	BytesReadFromMC
	BytesWrittenToMC
	IncomingQPI
	OutgoingQPI
)

// CounterTypeCount is the number of counter types
const CounterTypeCount = int(OutgoingQPI) + 1

var counterTypeNames = [CounterTypeCount]string{
	"cycles", "ipc", "l2miss", "l2hit", "l3miss", "l3hit", "l2clk", "l3clk",
	"tlbmiss", "tlbclk", "l1inv", "l2inv", "drambw", "mcread", "mcwrite", "qpiin", "qpiout",
}

// CounterTypes returns every known counter type
func CounterTypes() []CounterType {
	ret := make([]CounterType, CounterTypeCount)
	for i := range ret {
		ret[i] = CounterType(i)
	}
	return ret
}

func (t CounterType) String() string {
	if t < 0 || int(t) >= CounterTypeCount {
		return fmt.Sprintf("counter(%d)", int(t))
	}
	return counterTypeNames[t]
}

// IsRate reports whether samples of this type are ratios that are averaged
// rather than counts that are summed and rescaled
func (t CounterType) IsRate() bool {
	switch t {
	case IPC, L2Clock, L3Clock, TLBClock:
		return true
	}
	return false
}

// IsSystemWide reports whether the counter belongs to the whole socket rather
// than to an individual core
func (t CounterType) IsSystemWide() bool {
	switch t {
	case BytesReadFromMC, BytesWrittenToMC, IncomingQPI, OutgoingQPI:
		return true
	}
	return false
}

func ParseCounterType(v string) (CounterType, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for i, name := range counterTypeNames {
		if name == v {
			return CounterType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown counter type: %q", v)
}

func (t CounterType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *CounterType) UnmarshalText(b []byte) error {
	parsed, err := ParseCounterType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// CounterSample is one reading of one counter on one core, covering Duration
// of time that ends at Timestamp
type CounterSample struct {
	Core      int
	Timestamp time.Time
	Duration  time.Duration
	Type      CounterType
	Value     float64
}
