// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sustainable-computing-io/harvester/internal/trace"
)

// ErrUnknownThread is returned when a frame is queried for an identity that
// was never recorded in it
var ErrUnknownThread = errors.New("thread not recorded in frame")

type threadTimes struct {
	states [trace.StateCount]time.Duration
	onCore time.Duration
}

func (tt *threadTimes) total() time.Duration {
	var sum time.Duration
	for _, d := range tt.states {
		sum += d
	}
	return sum
}

// Frame is the attribution of one core's time during one window
type Frame struct {
	Window     Window
	Core       int
	Counters   HardwareCounters
	PageFaults []trace.PageFault

	threads map[ThreadIdentity]*threadTimes
	total   time.Duration
	onCore  time.Duration
}

func newFrame(w Window, core int) *Frame {
	f := &Frame{
		Window:  w,
		Core:    core,
		threads: make(map[ThreadIdentity]*threadTimes),
	}
	// the system thread is always present
	f.entry(SystemThread)
	return f
}

func (f *Frame) entry(id ThreadIdentity) *threadTimes {
	tt, ok := f.threads[id]
	if !ok {
		tt = &threadTimes{}
		f.threads[id] = tt
	}
	return tt
}

// add credits d of state to id
func (f *Frame) add(id ThreadIdentity, state trace.ThreadState, d time.Duration) {
	if d <= 0 || !state.Valid() {
		return
	}
	f.entry(id).states[state] += d
	f.total += d
}

// occupy credits d of running time to id and counts it as on-core time
func (f *Frame) occupy(id ThreadIdentity, d time.Duration) {
	if d <= 0 {
		return
	}
	f.add(id, trace.Running, d)
	f.entry(id).onCore += d
	f.onCore += d
}

// Total is the sum of every (thread, state) cell
func (f *Frame) Total() time.Duration {
	return f.total
}

// OnCoreTotal is the time any thread was occupying the core
func (f *Frame) OnCoreTotal() time.Duration {
	return f.onCore
}

// Threads returns the recorded identities ordered by kind, pid and tid
func (f *Frame) Threads() []ThreadIdentity {
	ids := make([]ThreadIdentity, 0, len(f.threads))
	for id := range f.threads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].less(ids[j]) })
	return ids
}

// Has reports whether id was recorded in the frame
func (f *Frame) Has(id ThreadIdentity) bool {
	_, ok := f.threads[id]
	return ok
}

func (f *Frame) lookup(id ThreadIdentity) (*threadTimes, error) {
	tt, ok := f.threads[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s on core %d window %d", ErrUnknownThread, id, f.Core, f.Window.Index)
	}
	return tt, nil
}

// Time returns how long id spent in state during the window
func (f *Frame) Time(id ThreadIdentity, state trace.ThreadState) (time.Duration, error) {
	tt, err := f.lookup(id)
	if err != nil {
		return 0, err
	}
	if !state.Valid() {
		return 0, fmt.Errorf("invalid thread state %d", int(state))
	}
	return tt.states[state], nil
}

// TotalTime returns the time credited to id across all states
func (f *Frame) TotalTime(id ThreadIdentity) (time.Duration, error) {
	tt, err := f.lookup(id)
	if err != nil {
		return 0, err
	}
	return tt.total(), nil
}

// Share returns the fraction of the frame total id spent in state
func (f *Frame) Share(id ThreadIdentity, state trace.ThreadState) (float64, error) {
	d, err := f.Time(id, state)
	if err != nil {
		return 0, err
	}
	return ratio(d, f.total), nil
}

// TotalShare returns the fraction of the frame total credited to id
func (f *Frame) TotalShare(id ThreadIdentity) (float64, error) {
	d, err := f.TotalTime(id)
	if err != nil {
		return 0, err
	}
	return ratio(d, f.total), nil
}

// OnCoreRatio returns the fraction of on-core time that id occupied the core
func (f *Frame) OnCoreRatio(id ThreadIdentity) (float64, error) {
	tt, err := f.lookup(id)
	if err != nil {
		return 0, err
	}
	return ratio(tt.onCore, f.onCore), nil
}

// FaultCount returns the number of page faults of kind raised by thread tid
func (f *Frame) FaultCount(tid int, kind trace.PageFaultKind) int {
	n := 0
	for _, pf := range f.PageFaults {
		if pf.ThreadID == tid && pf.Kind == kind {
			n++
		}
	}
	return n
}

func ratio(part, whole time.Duration) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
