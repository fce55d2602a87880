// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/sustainable-computing-io/harvester/internal/trace"
)

// Result is the outcome of one analysis run
type Result struct {
	Plan Plan

	// Frames holds Plan.Count * Plan.CoreCount() frames, window-major
	Frames []*Frame

	// events selected around the analysis span
	Switches  []trace.ContextSwitch
	Lifetimes []trace.ThreadLifetime
	Locks     []trace.LockEvent

	Trace *trace.Trace
}

// Frame returns the frame of window w on the core at coreIndex in Plan.Cores
func (r *Result) Frame(w, coreIndex int) *Frame {
	n := r.Plan.CoreCount()
	if w < 0 || w >= r.Plan.Count || coreIndex < 0 || coreIndex >= n {
		return nil
	}
	return r.Frames[w*n+coreIndex]
}

// CoreIndex returns the position of core in Plan.Cores or -1
func (r *Result) CoreIndex(core int) int {
	i := sort.SearchInts(r.Plan.Cores, core)
	if i < len(r.Plan.Cores) && r.Plan.Cores[i] == core {
		return i
	}
	return -1
}

// ProcessName returns the name of pid, falling back to the pid itself
func (r *Result) ProcessName(pid int) string {
	if r.Trace != nil {
		if name, ok := r.Trace.ProcessName(pid); ok {
			return name
		}
	}
	return fmt.Sprintf("pid %d", pid)
}

// Analyzer turns a trace into per window, per core frames
type Analyzer struct {
	logger   *slog.Logger
	clock    clock.PassiveClock
	process  string
	interval time.Duration
	margin   time.Duration
	workers  int
}

// NewAnalyzer returns an Analyzer for the process whose name starts with process
func NewAnalyzer(process string, applyOpts ...OptionFn) *Analyzer {
	opts := DefaultOpts()
	for _, apply := range applyOpts {
		apply(&opts)
	}

	return &Analyzer{
		logger:   opts.logger.With("service", "analyzer"),
		clock:    opts.clock,
		process:  process,
		interval: opts.interval,
		margin:   opts.margin,
		workers:  opts.workers,
	}
}

// Analyze plans the windows and builds every frame. Event slices of tr must
// be time ordered (see trace.Trace.Sort). Cores are folded concurrently,
// windows of one core sequentially.
func (a *Analyzer) Analyze(ctx context.Context, tr *trace.Trace) (*Result, error) {
	started := a.clock.Now()

	plan, err := PlanFromTrace(tr, a.process, a.interval)
	if err != nil {
		return nil, fmt.Errorf("failed to plan windows: %w", err)
	}
	a.logger.Info("Analysis planned",
		"process", plan.Process.Name,
		"pid", plan.Process.ID,
		"threads", len(plan.Process.Threads),
		"duration", plan.Duration(),
		"cores", plan.CoreCount(),
		"windows", plan.Count,
		"interval", plan.Interval)

	from, to := plan.SelectionRange(a.margin)
	res := &Result{
		Plan:      plan,
		Frames:    make([]*Frame, plan.Count*plan.CoreCount()),
		Switches:  tr.SwitchesBetween(from, to),
		Lifetimes: tr.LifetimesBetween(from, to),
		Locks:     tr.LocksBetween(from, to),
		Trace:     tr,
	}
	index := NewSwitchIndex(res.Switches)

	switches := make(map[int][]trace.ContextSwitch, plan.CoreCount())
	for _, sw := range res.Switches {
		switches[sw.Processor] = append(switches[sw.Processor], sw)
	}
	counters := make(map[int][]trace.CounterSample, plan.CoreCount())
	for _, c := range tr.Counters {
		counters[c.Core] = append(counters[c.Core], c)
	}
	faults := make(map[int][]trace.PageFault, plan.CoreCount())
	for _, pf := range tr.FaultsBetween(from, to) {
		if pf.ProcessID == plan.Process.ID {
			faults[pf.Processor] = append(faults[pf.Processor], pf)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for ci, core := range plan.Cores {
		samples := counters[core]
		sort.SliceStable(samples, func(i, j int) bool {
			return samples[i].Timestamp.Before(samples[j].Timestamp)
		})

		g.Go(func() error {
			return a.foldCore(gctx, res, ci, core, index, switches[core], samples, faults[core])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger.Info("Analysis complete", "frames", len(res.Frames), "elapsed", a.clock.Since(started))
	return res, nil
}

// foldCore builds the frames of one core in window order. It only writes
// the frame slots of its own core.
func (a *Analyzer) foldCore(ctx context.Context, res *Result, ci, core int, index *SwitchIndex,
	switches []trace.ContextSwitch, samples []trace.CounterSample, faults []trace.PageFault,
) error {
	plan := res.Plan
	n := plan.CoreCount()
	systemCore := core == plan.SystemCore()
	b := NewFrameBuilder(core, plan.Process.ID, index)
	// switches are selected from the margin before the plan start
	if before := trace.Between(switches, time.Time{}, plan.Start); len(before) > 0 {
		b.Seed(before[len(before)-1])
	}

	for w := range plan.Count {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("analysis of core %d aborted: %w", core, err)
		}

		win := plan.Window(w)
		start, end := win.Start, win.End()
		f := b.Build(win, trace.Between(switches, start, end))
		f.Counters = AggregateCounters(win, core, trace.Between(samples, start, end), systemCore)
		f.PageFaults = trace.Between(faults, start, end)
		res.Frames[w*n+ci] = f
	}

	a.logger.Debug("Core analysed", "core", core, "windows", plan.Count)
	return nil
}
