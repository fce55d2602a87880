// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"fmt"
	"strings"
	"time"
)

// ThreadState is the scheduling state a thread is left in when it is switched off a core
type ThreadState int

const (
	Initialized ThreadState = iota
	Ready
	Running
	Standby
	Terminated
	Wait
	Transition
	Unknown

	// StateCount is the number of scheduling states
	StateCount = int(Unknown) + 1
)

var threadStateNames = [StateCount]string{
	"initialized", "ready", "running", "standby", "terminated", "wait", "transition", "unknown",
}

// States returns all scheduling states in their numeric order
func States() []ThreadState {
	ret := make([]ThreadState, StateCount)
	for i := range ret {
		ret[i] = ThreadState(i)
	}
	return ret
}

func (s ThreadState) String() string {
	if s < 0 || int(s) >= StateCount {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return threadStateNames[s]
}

// Valid reports whether s is one of the known states
func (s ThreadState) Valid() bool {
	return s >= 0 && int(s) < StateCount
}

// ParseThreadState accepts either the state name or its numeric value
func ParseThreadState(v string) (ThreadState, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for i, name := range threadStateNames {
		if name == v {
			return ThreadState(i), nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err == nil && ThreadState(n).Valid() {
		return ThreadState(n), nil
	}
	return Unknown, fmt.Errorf("unknown thread state: %q", v)
}

func (s ThreadState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ThreadState) UnmarshalText(b []byte) error {
	parsed, err := ParseThreadState(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ContextSwitch records a core moving from one thread to another
type ContextSwitch struct {
	OldThreadID  int
	OldProcessID int
	NewThreadID  int
	NewProcessID int

	State     ThreadState // state the old thread was left in
	Processor int
	Timestamp time.Time
}

func (cs ContextSwitch) String() string {
	return fmt.Sprintf("%s %d: (%d, %d) -> (%d, %d) on cpu %d",
		cs.State, cs.Timestamp.UnixNano(),
		cs.OldThreadID, cs.OldProcessID, cs.NewThreadID, cs.NewProcessID, cs.Processor)
}

// PageFaultKind distinguishes minor (demand zero) from major (hard) faults
type PageFaultKind int

const (
	FaultUnknown PageFaultKind = iota
	FaultMinor
	FaultMajor
)

func (k PageFaultKind) String() string {
	switch k {
	case FaultMinor:
		return "minor"
	case FaultMajor:
		return "major"
	default:
		return "unknown"
	}
}

func (k PageFaultKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PageFaultKind) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "minor", "demandzerofault":
		*k = FaultMinor
	case "major", "hardpagefault", "hardfault":
		*k = FaultMajor
	default:
		*k = FaultUnknown
	}
	return nil
}

type PageFault struct {
	Kind      PageFaultKind
	ProcessID int
	ThreadID  int
	Processor int
	Timestamp time.Time
}

// LockKind is the outcome of a lock acquisition event
type LockKind int

const (
	LockSuccess LockKind = iota
	LockFailure
	LockRelease
)

func (k LockKind) String() string {
	switch k {
	case LockSuccess:
		return "success"
	case LockFailure:
		return "failure"
	case LockRelease:
		return "release"
	default:
		return fmt.Sprintf("lock(%d)", int(k))
	}
}

func (k LockKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *LockKind) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "success":
		*k = LockSuccess
	case "failure":
		*k = LockFailure
	case "release":
		*k = LockRelease
	default:
		return fmt.Errorf("unknown lock kind: %q", string(b))
	}
	return nil
}

// releaseFlag marks a lock event as a release regardless of its reported kind
const releaseFlag = -1

type LockEvent struct {
	Lock      int64
	Flag      int64
	Kind      LockKind
	ThreadID  int
	ProcessID int
	Processor int
	Timestamp time.Time
}

// NewLockEvent builds a lock event, turning it into a release when flag is -1
func NewLockEvent(lock, flag int64, kind LockKind, tid, pid, cpu int, ts time.Time) LockEvent {
	if flag == releaseFlag {
		kind = LockRelease
	}
	return LockEvent{
		Lock:      lock,
		Flag:      flag,
		Kind:      kind,
		ThreadID:  tid,
		ProcessID: pid,
		Processor: cpu,
		Timestamp: ts,
	}
}

type LifetimeKind int

const (
	ThreadStart LifetimeKind = iota
	ThreadEnd
)

func (k LifetimeKind) String() string {
	if k == ThreadEnd {
		return "end"
	}
	return "start"
}

func (k LifetimeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *LifetimeKind) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "start":
		*k = ThreadStart
	case "end":
		*k = ThreadEnd
	default:
		return fmt.Errorf("unknown lifetime kind: %q", string(b))
	}
	return nil
}

type ThreadLifetime struct {
	Kind      LifetimeKind
	ThreadID  int
	ProcessID int
	Processor int
	Timestamp time.Time
}

// Process describes the process under analysis
type Process struct {
	ID      int
	Name    string
	Start   time.Time
	End     time.Time
	Threads []int
}

// Marker is a named event emitted by a process, e.g. BenchmarkBegin
type Marker struct {
	Name      string
	ProcessID int
	Timestamp time.Time
}
