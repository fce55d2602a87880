// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package json

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sustainable-computing-io/harvester/internal/exporter"
	"github.com/sustainable-computing-io/harvester/internal/processor"
)

type provider struct {
	out processor.Output
	ch  chan struct{}
}

func newProvider(out processor.Output) *provider {
	p := &provider{out: out, ch: make(chan struct{})}
	close(p.ch)
	return p
}

func (p *provider) Output() (processor.Output, error) { return p.out, nil }

func (p *provider) DataChannel() <-chan struct{} { return p.ch }

func TestEncode(t *testing.T) {
	ts := time.Unix(1_700_000_000, 0).UTC()
	out := processor.Output{
		{Type: "l2perf", Program: "bench.exe", User: "user", Time: ts, Value: 1.25, TID: 5, PID: 99, CPU: 3, UID: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, out))

	assert.JSONEq(t, `[{
		"type": "l2perf",
		"program": "bench.exe",
		"user": "user",
		"time": "2023-11-14T22:13:20Z",
		"value": 1.25,
		"tid": 5,
		"pid": 99,
		"cid": 3,
		"uid": 1
	}]`, buf.String())

	var decoded processor.Output
	require.NoError(t, stdjson.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, out, decoded)
}

func TestEncode_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	e := NewExporter(newProvider(processor.Output{{Type: "sw", Value: 1}}),
		exporter.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		exporter.WithPath(path),
	)
	assert.Equal(t, "json", e.Name())

	require.NoError(t, e.Init())
	require.NoError(t, e.Run(context.Background()))
	require.NoError(t, e.Shutdown())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, stdjson.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "sw", decoded[0]["type"])
}
