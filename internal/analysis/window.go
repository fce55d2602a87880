// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/sustainable-computing-io/harvester/internal/trace"
)

// Marker names emitted by an instrumented program around the measured region
const (
	BeginMarker = "BenchmarkBegin"
	EndMarker   = "BenchmarkEnd"
)

var (
	ErrProcessNotFound = errors.New("no matching process found")
	ErrNoCounters      = errors.New("no hardware counter samples")
	ErrEmptySpan       = errors.New("analysis span is empty")
	ErrInvalidInterval = errors.New("interval must be positive")
)

// Window is one fixed width slice of the analysis span
type Window struct {
	Index    int
	Start    time.Time
	Duration time.Duration
}

// End returns the exclusive end of the window
func (w Window) End() time.Time {
	return w.Start.Add(w.Duration)
}

// Contains reports whether t falls in [Start, End)
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End())
}

// PlanInput is what the planner needs to lay out the window grid
type PlanInput struct {
	Process  *trace.Process
	Begin    *trace.Marker // optional explicit start
	End      *trace.Marker // optional explicit end
	Samples  []trace.CounterSample
	Interval time.Duration
}

// Plan is the window grid of one analysis run
type Plan struct {
	Process  trace.Process
	Start    time.Time
	End      time.Time
	Interval time.Duration
	Count    int   // number of windows
	Cores    []int // sorted distinct cores
}

// PlanWindows computes the analysis span and partitions it into windows
func PlanWindows(in PlanInput) (Plan, error) {
	if in.Process == nil {
		return Plan{}, ErrProcessNotFound
	}
	if in.Interval <= 0 {
		return Plan{}, fmt.Errorf("%w: %s", ErrInvalidInterval, in.Interval)
	}
	first, last, ok := trace.SampleSpan(in.Samples)
	if !ok {
		return Plan{}, ErrNoCounters
	}

	start := latest(in.Process.Start, first)
	if in.Begin != nil {
		start = in.Begin.Timestamp
	}
	end := earliest(in.Process.End, last)
	if in.End != nil {
		end = in.End.Timestamp
	}
	if !end.After(start) {
		return Plan{}, fmt.Errorf("%w: start %s, end %s", ErrEmptySpan,
			start.Format(time.RFC3339Nano), end.Format(time.RFC3339Nano))
	}

	span := end.Sub(start)
	count := int((span + in.Interval - 1) / in.Interval)

	return Plan{
		Process:  *in.Process,
		Start:    start,
		End:      end,
		Interval: in.Interval,
		Count:    count,
		Cores:    trace.SampleCores(in.Samples),
	}, nil
}

// PlanFromTrace looks up the process by name prefix and its begin/end
// markers in tr, then plans the windows
func PlanFromTrace(tr *trace.Trace, processName string, interval time.Duration) (Plan, error) {
	proc, ok := tr.FindProcess(processName)
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrProcessNotFound, processName)
	}

	in := PlanInput{
		Process:  &proc,
		Samples:  tr.Counters,
		Interval: interval,
	}
	if m, ok := tr.FindMarker(proc.ID, BeginMarker); ok {
		in.Begin = &m
	}
	if m, ok := tr.FindMarker(proc.ID, EndMarker); ok {
		in.End = &m
	}
	return PlanWindows(in)
}

func (p Plan) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

func (p Plan) CoreCount() int {
	return len(p.Cores)
}

// Window returns the i-th window of the grid
func (p Plan) Window(i int) Window {
	return Window{
		Index:    i,
		Start:    p.Start.Add(time.Duration(i) * p.Interval),
		Duration: p.Interval,
	}
}

// SystemCore is the core that system wide counters are attached to
func (p Plan) SystemCore() int {
	if len(p.Cores) == 0 {
		return -1
	}
	return p.Cores[len(p.Cores)-1]
}

// SelectionRange widens [Start, End) by margin on both sides. Events in this
// range are kept so that switch-outs slightly before Start can be found.
func (p Plan) SelectionRange(margin time.Duration) (from, to time.Time) {
	return p.Start.Add(-margin), p.End.Add(margin)
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
