// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package stdout

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sustainable-computing-io/harvester/internal/exporter"
	"github.com/sustainable-computing-io/harvester/internal/processor"
)

// MockProvider mocks the exporter.Provider interface
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Output() (processor.Output, error) {
	args := m.Called()
	if out := args.Get(0); out != nil {
		return out.(processor.Output), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) DataChannel() <-chan struct{} {
	args := m.Called()
	return args.Get(0).(<-chan struct{})
}

type dummyTarget struct {
	io.Writer
}

func (dwc *dummyTarget) Close() error {
	return nil
}

func testOutput() processor.Output {
	return processor.Output{
		{Type: "cycles", Program: "bench.exe", Value: 1000},
		{Type: "cycles", Program: "bench.exe", Value: 250},
		{Type: "cycles", Program: "System", Value: 10},
		{Type: "ipc", Program: "bench.exe", Value: 1.5},
	}
}

func TestEncode(t *testing.T) {
	buf := bytes.Buffer{}
	require.NoError(t, Encode(&buf, testOutput()))
	out := buf.String()

	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, "ENTRIES")
	assert.Contains(t, out, "1250.00", "cycles of bench.exe are summed")
	assert.Contains(t, out, "250.00")
	assert.Contains(t, out, "1.50")

	// rows sorted by type then program
	bench := strings.Index(out, "bench.exe")
	system := strings.Index(out, "System")
	ipc := strings.Index(out, "ipc")
	require.True(t, bench > 0 && system > 0 && ipc > 0)
	assert.Less(t, bench, system)
	assert.Less(t, system, ipc)
}

func TestEncode_Empty(t *testing.T) {
	buf := bytes.Buffer{}
	require.NoError(t, Encode(&buf, nil))
	assert.Contains(t, buf.String(), "PROGRAM")
}

func TestExporter_InitRunShutdown(t *testing.T) {
	ch := make(chan struct{})
	close(ch)

	mockProvider := &MockProvider{}
	mockProvider.On("DataChannel").Return((<-chan struct{})(ch))
	mockProvider.On("Output").Return(testOutput(), nil)

	buf := &bytes.Buffer{}
	e := NewExporter(mockProvider,
		exporter.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		exporter.WithOutput(&dummyTarget{buf}),
	)
	assert.Equal(t, "stdout", e.Name())

	require.NoError(t, e.Init())
	require.NoError(t, e.Run(context.Background()))
	assert.NoError(t, e.Shutdown())
	assert.Contains(t, buf.String(), "bench.exe")
	mockProvider.AssertExpectations(t)
}
