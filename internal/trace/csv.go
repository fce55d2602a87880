// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
)

// Files making up a trace directory. Files marked optional may be absent.
const (
	ProcessesFile = "processes.csv"
	SwitchesFile  = "switches.csv"
	CountersFile  = "counters.csv"
	MarkersFile   = "markers.csv"   // optional
	LifetimesFile = "lifetimes.csv" // optional
	FaultsFile    = "faults.csv"    // optional
	LocksFile     = "locks.csv"     // optional
)

type processRecord struct {
	ID      int    `csv:"pid"`
	Name    string `csv:"name"`
	StartNs int64  `csv:"start_ns"`
	EndNs   int64  `csv:"end_ns"`
	Threads string `csv:"threads,omitempty"` // space separated thread ids
}

type markerRecord struct {
	Name        string `csv:"name"`
	ProcessID   int    `csv:"pid"`
	TimestampNs int64  `csv:"timestamp_ns"`
}

type switchRecord struct {
	OldThreadID  int         `csv:"old_tid"`
	OldProcessID int         `csv:"old_pid"`
	NewThreadID  int         `csv:"new_tid"`
	NewProcessID int         `csv:"new_pid"`
	State        ThreadState `csv:"state"`
	Processor    int         `csv:"cpu"`
	TimestampNs  int64       `csv:"timestamp_ns"`
}

type lifetimeRecord struct {
	Kind        LifetimeKind `csv:"kind"`
	ThreadID    int          `csv:"tid"`
	ProcessID   int          `csv:"pid"`
	Processor   int          `csv:"cpu"`
	TimestampNs int64        `csv:"timestamp_ns"`
}

type faultRecord struct {
	Kind        PageFaultKind `csv:"kind"`
	ThreadID    int           `csv:"tid"`
	ProcessID   int           `csv:"pid"`
	Processor   int           `csv:"cpu"`
	TimestampNs int64         `csv:"timestamp_ns"`
}

type lockRecord struct {
	Lock        int64    `csv:"lock"`
	Flag        int64    `csv:"flag"`
	Kind        LockKind `csv:"kind"`
	ThreadID    int      `csv:"tid"`
	ProcessID   int      `csv:"pid"`
	Processor   int      `csv:"cpu"`
	TimestampNs int64    `csv:"timestamp_ns"`
}

type counterRecord struct {
	Core        int         `csv:"core"`
	TimestampNs int64       `csv:"timestamp_ns"`
	DurationNs  int64       `csv:"duration_ns"`
	Type        CounterType `csv:"type"`
	Value       float64     `csv:"value"`
}

func nanos(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

// Load reads a trace from a directory of CSV files
func Load(dir string) (*Trace, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads a trace from the CSV files found at the root of fsys and
// returns it sorted by time
func LoadFS(fsys fs.FS) (*Trace, error) {
	t := &Trace{}

	processes, err := readFile[processRecord](fsys, ProcessesFile, true)
	if err != nil {
		return nil, err
	}
	for _, r := range processes {
		threads, err := parseThreads(r.Threads)
		if err != nil {
			return nil, fmt.Errorf("invalid threads for process %d: %w", r.ID, err)
		}
		t.Processes = append(t.Processes, Process{
			ID:      r.ID,
			Name:    r.Name,
			Start:   nanos(r.StartNs),
			End:     nanos(r.EndNs),
			Threads: threads,
		})
	}

	switches, err := readFile[switchRecord](fsys, SwitchesFile, true)
	if err != nil {
		return nil, err
	}
	t.Switches = make([]ContextSwitch, 0, len(switches))
	for _, r := range switches {
		t.Switches = append(t.Switches, ContextSwitch{
			OldThreadID:  r.OldThreadID,
			OldProcessID: r.OldProcessID,
			NewThreadID:  r.NewThreadID,
			NewProcessID: r.NewProcessID,
			State:        r.State,
			Processor:    r.Processor,
			Timestamp:    nanos(r.TimestampNs),
		})
	}

	counters, err := readFile[counterRecord](fsys, CountersFile, true)
	if err != nil {
		return nil, err
	}
	t.Counters = make([]CounterSample, 0, len(counters))
	for _, r := range counters {
		t.Counters = append(t.Counters, CounterSample{
			Core:      r.Core,
			Timestamp: nanos(r.TimestampNs),
			Duration:  time.Duration(r.DurationNs),
			Type:      r.Type,
			Value:     r.Value,
		})
	}

	markers, err := readFile[markerRecord](fsys, MarkersFile, false)
	if err != nil {
		return nil, err
	}
	for _, r := range markers {
		t.Markers = append(t.Markers, Marker{Name: r.Name, ProcessID: r.ProcessID, Timestamp: nanos(r.TimestampNs)})
	}

	lifetimes, err := readFile[lifetimeRecord](fsys, LifetimesFile, false)
	if err != nil {
		return nil, err
	}
	for _, r := range lifetimes {
		t.Lifetimes = append(t.Lifetimes, ThreadLifetime{
			Kind:      r.Kind,
			ThreadID:  r.ThreadID,
			ProcessID: r.ProcessID,
			Processor: r.Processor,
			Timestamp: nanos(r.TimestampNs),
		})
	}

	faults, err := readFile[faultRecord](fsys, FaultsFile, false)
	if err != nil {
		return nil, err
	}
	for _, r := range faults {
		t.Faults = append(t.Faults, PageFault{
			Kind:      r.Kind,
			ProcessID: r.ProcessID,
			ThreadID:  r.ThreadID,
			Processor: r.Processor,
			Timestamp: nanos(r.TimestampNs),
		})
	}

	locks, err := readFile[lockRecord](fsys, LocksFile, false)
	if err != nil {
		return nil, err
	}
	for _, r := range locks {
		t.Locks = append(t.Locks, NewLockEvent(r.Lock, r.Flag, r.Kind, r.ThreadID, r.ProcessID, r.Processor, nanos(r.TimestampNs)))
	}

	t.Sort()
	return t, nil
}

func readFile[R any](fsys fs.FS, name string, required bool) ([]R, error) {
	f, err := fsys.Open(name)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	records, err := decode[R](f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return records, nil
}

func decode[R any](r io.Reader) ([]R, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			// no header, no records
			return nil, nil
		}
		return nil, err
	}

	var records []R
	for {
		var rec R
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseThreads(v string) ([]int, error) {
	fields := strings.Fields(v)
	threads := make([]int, 0, len(fields))
	for _, f := range fields {
		tid, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		threads = append(threads, tid)
	}
	return threads, nil
}
