// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"sort"
	"time"

	"github.com/sustainable-computing-io/harvester/internal/trace"
)

// SwitchIndex maps a thread id to the time ordered switches in which that
// thread left a core. It is read-only once built and safe for concurrent use.
type SwitchIndex struct {
	out map[int][]trace.ContextSwitch
}

// NewSwitchIndex indexes switches by their outgoing thread
func NewSwitchIndex(switches []trace.ContextSwitch) *SwitchIndex {
	out := make(map[int][]trace.ContextSwitch)
	for _, sw := range switches {
		out[sw.OldThreadID] = append(out[sw.OldThreadID], sw)
	}
	for _, seq := range out {
		sort.SliceStable(seq, func(i, j int) bool {
			return seq[i].Timestamp.Before(seq[j].Timestamp)
		})
	}
	return &SwitchIndex{out: out}
}

// Len returns the number of indexed threads
func (idx *SwitchIndex) Len() int {
	return len(idx.out)
}

// LastSwitchOut returns the latest switch before `before` in which threadID
// left a core while belonging to processID. Switches in [lowerBound, before)
// are searched first; if there is none the search is repeated without a
// lower bound.
func (idx *SwitchIndex) LastSwitchOut(threadID, processID int, before, lowerBound time.Time) (trace.ContextSwitch, bool) {
	seq := idx.out[threadID]
	hi := searchTime(seq, before)
	lo := searchTime(seq, lowerBound)
	if lo > hi {
		lo = hi
	}
	if sw, ok := latestOf(seq[lo:hi], processID); ok {
		return sw, true
	}
	return latestOf(seq[:lo], processID)
}

// searchTime returns the index of the first switch at or after t
func searchTime(seq []trace.ContextSwitch, t time.Time) int {
	return sort.Search(len(seq), func(i int) bool { return !seq[i].Timestamp.Before(t) })
}

func latestOf(seq []trace.ContextSwitch, processID int) (trace.ContextSwitch, bool) {
	for i := len(seq) - 1; i >= 0; i-- {
		if seq[i].OldProcessID == processID {
			return seq[i], true
		}
	}
	return trace.ContextSwitch{}, false
}
