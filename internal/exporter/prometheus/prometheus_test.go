// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package prometheus

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

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

// MockAPIRegistry mocks the APIRegistry interface
type MockAPIRegistry struct {
	mock.Mock
}

func (m *MockAPIRegistry) Register(endpoint, summary, description string, handler http.Handler) error {
	args := m.Called(endpoint, summary, description, handler)
	return args.Error(0)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ready() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func testOutput() processor.Output {
	return processor.Output{
		{Type: "cycles", Program: "bench.exe", TID: 5, PID: 99, CPU: 0, Value: 1000},
		{Type: "cycles", Program: "bench.exe", TID: 5, PID: 99, CPU: 0, Value: 500},
	}
}

func readyProvider() *MockProvider {
	p := &MockProvider{}
	p.On("DataChannel").Return(ready())
	p.On("Output").Return(testOutput(), nil)
	return p
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		name string
		opts []OptionFn
	}{{
		name: "default options",
		opts: []OptionFn{},
	}, {
		name: "with custom logger",
		opts: []OptionFn{
			WithLogger(slog.Default().With("test", "custom")),
		},
	}, {
		name: "with debug collectors",
		opts: []OptionFn{
			WithDebugCollectors([]string{"go", "process"}),
		},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &MockProvider{}
			registry := &MockAPIRegistry{}
			e := NewExporter(p, append(tt.opts, WithServer(registry))...)

			assert.NotNil(t, e)
			assert.Equal(t, "prometheus", e.Name())
			assert.NotNil(t, e.logger)
			assert.NotNil(t, e.registry)
			assert.Same(t, p, e.provider)
			assert.Same(t, registry, e.server)
		})
	}
}

func TestExporter_Init(t *testing.T) {
	t.Run("registers metrics endpoint", func(t *testing.T) {
		registry := &MockAPIRegistry{}
		registry.On("Register", "/metrics", "Metrics", "Prometheus metrics", mock.Anything).Return(nil)

		e := NewExporter(&MockProvider{}, WithLogger(discard()), WithServer(registry))
		assert.NoError(t, e.Init())
		registry.AssertExpectations(t)
	})

	t.Run("registry returns error", func(t *testing.T) {
		registry := &MockAPIRegistry{}
		expectedErr := errors.New("register error")
		registry.On("Register", "/metrics", "Metrics", "Prometheus metrics", mock.Anything).Return(expectedErr)

		e := NewExporter(&MockProvider{}, WithLogger(discard()), WithServer(registry))
		assert.Equal(t, expectedErr, e.Init())
	})

	t.Run("without server", func(t *testing.T) {
		e := NewExporter(&MockProvider{}, WithLogger(discard()))
		assert.NoError(t, e.Init())
	})

	t.Run("with invalid collector", func(t *testing.T) {
		registry := &MockAPIRegistry{}
		e := NewExporter(&MockProvider{},
			WithLogger(discard()),
			WithServer(registry),
			WithDebugCollectors([]string{"unknown_collector"}),
		)
		err := e.Init()
		assert.ErrorContains(t, err, "unknown collector: unknown_collector")
		registry.AssertNotCalled(t, "Register")
	})
}

func TestCollectorForName(t *testing.T) {
	for _, name := range []string{"go", "process"} {
		c, err := collectorForName(name)
		require.NoError(t, err)
		assert.NoError(t, prom.NewRegistry().Register(c))
	}

	c, err := collectorForName("unknown")
	assert.Nil(t, c)
	assert.ErrorContains(t, err, "unknown collector: unknown")
}

func TestExporter_WriteStdout(t *testing.T) {
	p := readyProvider()
	buf := &bytes.Buffer{}
	e := NewExporter(p,
		WithLogger(discard()),
		WithCollectors(CreateCollectors(p, discard())),
		WithPath("-"),
		WithOutput(buf),
	)
	require.NoError(t, e.Init())
	require.NoError(t, e.Run(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "# TYPE harvester_entry_value summary")
	assert.Contains(t, out, `harvester_entry_value_sum{cpu="0",pid="99",program="bench.exe",tid="5",type="cycles"} 1500`)
	assert.Contains(t, out, `harvester_entry_value_count{cpu="0",pid="99",program="bench.exe",tid="5",type="cycles"} 2`)
	assert.Contains(t, out, "harvester_build_info")
}

func TestExporter_WriteTextfile(t *testing.T) {
	p := readyProvider()
	path := filepath.Join(t.TempDir(), "harvester.prom")
	e := NewExporter(p,
		WithLogger(discard()),
		WithCollectors(CreateCollectors(p, discard())),
		WithPath(path),
	)
	require.NoError(t, e.Init())
	require.NoError(t, e.Run(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `harvester_entries{type="cycles"} 2`)
}

func TestExporter_Serve(t *testing.T) {
	p := readyProvider()

	var handler http.Handler
	registry := &MockAPIRegistry{}
	registry.On("Register", "/metrics", "Metrics", "Prometheus metrics", mock.Anything).
		Run(func(args mock.Arguments) {
			handler = args.Get(3).(http.Handler)
		}).Return(nil)

	e := NewExporter(p,
		WithLogger(discard()),
		WithCollectors(CreateCollectors(p, discard())),
		WithServer(registry),
		WithLinger(true),
	)
	require.NoError(t, e.Init())
	require.NotNil(t, handler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- e.Run(ctx)
	}()

	assert.Never(t, func() bool { return len(done) > 0 }, 100*time.Millisecond, 10*time.Millisecond,
		"lingering exporter keeps running")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "harvester_entry_value_sum")

	cancel()
	assert.NoError(t, <-done)
}

func TestExporter_RunErrors(t *testing.T) {
	t.Run("output error", func(t *testing.T) {
		p := &MockProvider{}
		p.On("DataChannel").Return(ready())
		p.On("Output").Return(nil, errors.New("not ready"))

		e := NewExporter(p, WithLogger(discard()), WithPath("-"), WithOutput(io.Discard))
		require.NoError(t, e.Init())
		assert.ErrorContains(t, e.Run(context.Background()), "failed to get output")
	})

	t.Run("cancelled before output", func(t *testing.T) {
		p := &MockProvider{}
		p.On("DataChannel").Return((<-chan struct{})(make(chan struct{})))

		e := NewExporter(p, WithLogger(discard()))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NoError(t, e.Run(ctx))
	})

	t.Run("unwritable textfile", func(t *testing.T) {
		p := readyProvider()
		e := NewExporter(p, WithLogger(discard()),
			WithPath(filepath.Join(t.TempDir(), "missing", "x.prom")))
		require.NoError(t, e.Init())
		assert.Error(t, e.Run(context.Background()))
	})
}

func TestDefaultOpts(t *testing.T) {
	opts := DefaultOpts()
	assert.NotNil(t, opts.logger)
	assert.Empty(t, opts.debugCollectors)
	assert.Empty(t, opts.path, "nothing is written unless a path is set")

	WithDebugCollectors([]string{"process"})(&opts)
	assert.True(t, opts.debugCollectors["process"])
}
