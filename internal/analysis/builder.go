// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import "github.com/sustainable-computing-io/harvester/internal/trace"

// FrameBuilder attributes the time of one core, window by window. Build must
// be called for consecutive windows in increasing time order since the last
// switch seen on the core carries over into the next window.
type FrameBuilder struct {
	core      int
	monitored int
	index     *SwitchIndex

	last *trace.ContextSwitch
}

// NewFrameBuilder returns a builder for core; monitored is the pid of the
// analysed process
func NewFrameBuilder(core, monitored int, index *SwitchIndex) *FrameBuilder {
	return &FrameBuilder{
		core:      core,
		monitored: monitored,
		index:     index,
	}
}

// Seed sets the switch that last happened on the core before the first
// window, so a quiet first window goes to the thread it switched in
func (b *FrameBuilder) Seed(sw trace.ContextSwitch) *FrameBuilder {
	if sw.Processor == b.core {
		b.last = &sw
	}
	return b
}

// LastSwitch returns the most recent switch observed on the core, if any
func (b *FrameBuilder) LastSwitch() (trace.ContextSwitch, bool) {
	if b.last == nil {
		return trace.ContextSwitch{}, false
	}
	return *b.last, true
}

// Build attributes the time of w. switches must be ordered by time; those
// not on this core or outside [w.Start, w.End) are ignored.
func (b *FrameBuilder) Build(w Window, switches []trace.ContextSwitch) *Frame {
	f := newFrame(w, b.core)

	prev := w.Start
	seen := 0
	for i := range switches {
		sw := switches[i]
		if sw.Processor != b.core || !w.Contains(sw.Timestamp) {
			continue
		}
		seen++

		elapsed := sw.Timestamp.Sub(prev)
		prev = sw.Timestamp

		oldID := Resolve(sw.OldThreadID, sw.OldProcessID, b.monitored)
		newID := Resolve(sw.NewThreadID, sw.NewProcessID, b.monitored)

		f.occupy(oldID, elapsed)
		f.entry(newID)
		b.creditWait(f, newID, sw)

		b.last = &sw
	}

	if seen == 0 {
		f.occupy(b.running(), w.Duration)
		return f
	}

	// the thread switched in last holds the core until the window closes
	f.occupy(b.running(), w.End().Sub(prev))
	return f
}

// creditWait credits the incoming thread with the time it spent waiting
// since it last left a core
func (b *FrameBuilder) creditWait(f *Frame, id ThreadIdentity, sw trace.ContextSwitch) {
	if b.index == nil {
		return
	}
	out, ok := b.index.LastSwitchOut(sw.NewThreadID, sw.NewProcessID, sw.Timestamp, f.Window.Start)
	if !ok {
		return
	}
	switch out.State {
	case trace.Wait, trace.Ready, trace.Standby:
		f.add(id, out.State, min(sw.Timestamp.Sub(out.Timestamp), f.Window.Duration))
	}
}

// running is the identity currently holding the core
func (b *FrameBuilder) running() ThreadIdentity {
	if b.last == nil {
		return SystemThread
	}
	return Resolve(b.last.NewThreadID, b.last.NewProcessID, b.monitored)
}
