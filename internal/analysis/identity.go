// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import "fmt"

// IdentityKind classifies a thread relative to the monitored process
type IdentityKind int

const (
	KindSystem    IdentityKind = iota // any thread of another process
	KindIdle                          // the idle process, pid 0
	KindMonitored                     // a thread of the monitored process
	KindCustom                        // not attributable to any thread
)

func (k IdentityKind) String() string {
	switch k {
	case KindSystem:
		return "system"
	case KindIdle:
		return "idle"
	case KindMonitored:
		return "monitored"
	case KindCustom:
		return "custom"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ThreadIdentity is a comparable value identifying who time is attributed to.
// TID and PID are only set for KindMonitored.
type ThreadIdentity struct {
	Kind IdentityKind
	TID  int
	PID  int
}

var (
	SystemThread = ThreadIdentity{Kind: KindSystem}
	IdleThread   = ThreadIdentity{Kind: KindIdle}
	CustomThread = ThreadIdentity{Kind: KindCustom}
)

// MonitoredThread returns the identity of thread tid of the monitored process pid
func MonitoredThread(tid, pid int) ThreadIdentity {
	return ThreadIdentity{Kind: KindMonitored, TID: tid, PID: pid}
}

// Resolve classifies a (tid, pid) pair seen in the trace
func Resolve(tid, pid, monitored int) ThreadIdentity {
	switch {
	case pid == 0:
		return IdleThread
	case pid != monitored:
		return SystemThread
	default:
		return MonitoredThread(tid, pid)
	}
}

func (id ThreadIdentity) String() string {
	if id.Kind == KindMonitored {
		return fmt.Sprintf("%d/%d", id.PID, id.TID)
	}
	return id.Kind.String()
}

// less orders identities by kind, then pid, then tid
func (id ThreadIdentity) less(other ThreadIdentity) bool {
	if id.Kind != other.Kind {
		return id.Kind < other.Kind
	}
	if id.PID != other.PID {
		return id.PID < other.PID
	}
	return id.TID < other.TID
}
