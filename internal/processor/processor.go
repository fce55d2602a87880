// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package processor

import (
	"fmt"
	"math"
	"time"

	"github.com/sustainable-computing-io/harvester/internal/analysis"
)

// Entry is one exported measurement
type Entry struct {
	Type    string    `json:"type" csv:"type"`
	Program string    `json:"program" csv:"program"`
	User    string    `json:"user" csv:"user"`
	Time    time.Time `json:"time" csv:"time"`
	Value   float64   `json:"value" csv:"value"`
	TID     int       `json:"tid" csv:"tid"`
	PID     int       `json:"pid" csv:"pid"`
	CPU     int       `json:"cid" csv:"cpu"`
	UID     int       `json:"uid" csv:"uid"`
}

// Output is the ordered list of entries produced by processors
type Output []Entry

// Processor derives one family of metrics from an analysis result
type Processor interface {
	// Name returns the family name
	Name() string
	// Process returns the entries of the family; it must not modify res
	Process(res *analysis.Result) Output
}

// Family names
const (
	Locality    = "locality"
	Coherency   = "coherency"
	LoadBalance = "loadbalance"
	Memory      = "memory"
	Switch      = "switch"
	Lock        = "lock"
)

// Names returns every family name in export order
func Names() []string {
	return []string{Locality, Coherency, LoadBalance, Memory, Switch, Lock}
}

// New returns the processor of the named family
func New(name string) (Processor, error) {
	switch name {
	case Locality:
		return &localityProcessor{}, nil
	case Coherency:
		return &coherencyProcessor{}, nil
	case LoadBalance:
		return &loadBalanceProcessor{}, nil
	case Memory:
		return &memoryProcessor{}, nil
	case Switch:
		return &switchProcessor{}, nil
	case Lock:
		return &lockProcessor{}, nil
	}
	return nil, fmt.Errorf("unknown processor %q", name)
}

// thread describes who an entry is attributed to
type thread struct {
	program string
	user    string
	tid     int
	pid     int
	uid     int
}

var (
	systemThread = thread{program: "system", user: "root"}
	idleThread   = thread{program: "idle", user: "root", tid: 1, pid: 1}
	customThread = thread{program: "N/A", user: "N/A", tid: -1}
)

func describe(res *analysis.Result, id analysis.ThreadIdentity) thread {
	switch id.Kind {
	case analysis.KindIdle:
		return idleThread
	case analysis.KindMonitored:
		return thread{program: res.Plan.Process.Name, user: "user", tid: id.TID, pid: id.PID, uid: 1}
	case analysis.KindCustom:
		return customThread
	default:
		return systemThread
	}
}

func (o *Output) add(typ string, at time.Time, th thread, cpu int, value float64) {
	*o = append(*o, Entry{
		Type:    typ,
		Program: th.program,
		User:    th.user,
		Time:    at,
		Value:   finite(value),
		TID:     th.tid,
		PID:     th.pid,
		CPU:     cpu,
		UID:     th.uid,
	})
}

// addFrame adds an entry for id stamped with the frame's window and core
func (o *Output) addFrame(res *analysis.Result, typ string, f *analysis.Frame, id analysis.ThreadIdentity, value float64) {
	o.add(typ, f.Window.Start, describe(res, id), f.Core, value)
}

// finite maps NaN and infinities, which arise when a frame has no cycles, to 0
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// eachThread calls fn for every recorded thread of every frame in order
func eachThread(res *analysis.Result, fn func(f *analysis.Frame, id analysis.ThreadIdentity)) {
	for _, f := range res.Frames {
		if f == nil {
			continue
		}
		for _, id := range f.Threads() {
			fn(f, id)
		}
	}
}
