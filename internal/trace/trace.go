// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"sort"
	"strings"
	"time"
)

// Trace holds everything collected for one run. Event slices are ordered by
// timestamp once Sort has been called; counter samples need not be ordered
// on input.
type Trace struct {
	Processes []Process
	Markers   []Marker
	Switches  []ContextSwitch
	Lifetimes []ThreadLifetime
	Faults    []PageFault
	Locks     []LockEvent
	Counters  []CounterSample
}

// Sort orders every event slice by timestamp. The sort is stable so events
// sharing a timestamp keep their collection order.
func (t *Trace) Sort() {
	sort.SliceStable(t.Markers, func(i, j int) bool {
		return t.Markers[i].Timestamp.Before(t.Markers[j].Timestamp)
	})
	sort.SliceStable(t.Switches, func(i, j int) bool {
		return t.Switches[i].Timestamp.Before(t.Switches[j].Timestamp)
	})
	sort.SliceStable(t.Lifetimes, func(i, j int) bool {
		return t.Lifetimes[i].Timestamp.Before(t.Lifetimes[j].Timestamp)
	})
	sort.SliceStable(t.Faults, func(i, j int) bool {
		return t.Faults[i].Timestamp.Before(t.Faults[j].Timestamp)
	})
	sort.SliceStable(t.Locks, func(i, j int) bool {
		return t.Locks[i].Timestamp.Before(t.Locks[j].Timestamp)
	})
	sort.SliceStable(t.Counters, func(i, j int) bool {
		return t.Counters[i].Timestamp.Before(t.Counters[j].Timestamp)
	})
}

// FindProcess returns the first process whose name starts with prefix
func (t *Trace) FindProcess(prefix string) (Process, bool) {
	for _, p := range t.Processes {
		if strings.HasPrefix(p.Name, prefix) {
			return p, true
		}
	}
	return Process{}, false
}

// FindMarker returns the earliest marker of pid whose name contains name
func (t *Trace) FindMarker(pid int, name string) (Marker, bool) {
	for _, m := range t.Markers {
		if m.ProcessID == pid && strings.Contains(m.Name, name) {
			return m, true
		}
	}
	return Marker{}, false
}

// ProcessName returns the name of the process with the given id, if known
func (t *Trace) ProcessName(pid int) (string, bool) {
	for _, p := range t.Processes {
		if p.ID == pid {
			return p.Name, true
		}
	}
	return "", false
}

// SampleSpan returns the earliest and latest timestamps of samples, which
// need not be ordered
func SampleSpan(samples []CounterSample) (first, last time.Time, ok bool) {
	if len(samples) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = samples[0].Timestamp, samples[0].Timestamp
	for _, c := range samples[1:] {
		if c.Timestamp.Before(first) {
			first = c.Timestamp
		}
		if c.Timestamp.After(last) {
			last = c.Timestamp
		}
	}
	return first, last, true
}

// SampleCores returns the sorted distinct cores that reported samples
func SampleCores(samples []CounterSample) []int {
	seen := map[int]struct{}{}
	for _, c := range samples {
		seen[c.Core] = struct{}{}
	}
	cores := make([]int, 0, len(seen))
	for core := range seen {
		cores = append(cores, core)
	}
	sort.Ints(cores)
	return cores
}

// SwitchesBetween returns the context switches in [from, to)
func (t *Trace) SwitchesBetween(from, to time.Time) []ContextSwitch {
	return Between(t.Switches, from, to)
}

// LifetimesBetween returns the thread lifetime events in [from, to)
func (t *Trace) LifetimesBetween(from, to time.Time) []ThreadLifetime {
	return Between(t.Lifetimes, from, to)
}

// LocksBetween returns the lock events in [from, to)
func (t *Trace) LocksBetween(from, to time.Time) []LockEvent {
	return Between(t.Locks, from, to)
}

// FaultsBetween returns the page faults in [from, to)
func (t *Trace) FaultsBetween(from, to time.Time) []PageFault {
	return Between(t.Faults, from, to)
}

// Timestamped is implemented by every time ordered event
type Timestamped interface {
	At() time.Time
}

func (cs ContextSwitch) At() time.Time { return cs.Timestamp }
func (l ThreadLifetime) At() time.Time { return l.Timestamp }
func (pf PageFault) At() time.Time { return pf.Timestamp }
func (l LockEvent) At() time.Time { return l.Timestamp }
func (c CounterSample) At() time.Time { return c.Timestamp }
func (m Marker) At() time.Time { return m.Timestamp }

// Between returns the sub-slice of time ordered items falling in [from, to).
// The result shares the backing array with items.
func Between[T Timestamped](items []T, from, to time.Time) []T {
	lo := sort.Search(len(items), func(i int) bool { return !items[i].At().Before(from) })
	hi := sort.Search(len(items), func(i int) bool { return !items[i].At().Before(to) })
	if hi < lo {
		hi = lo
	}
	return items[lo:hi:hi]
}
