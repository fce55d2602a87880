// SPDX-FileCopyrightText: 2025 The Kepler Authors
// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// registrar records what a service registers on the API server
type registrar struct {
	mock.Mock
}

func (m *registrar) Register(path, name, description string, handler http.Handler) error {
	args := m.Called(path, name, description, handler)
	return args.Error(0)
}

func (m *registrar) Name() string {
	return "registrar"
}

func TestNewPprof(t *testing.T) {
	api := &registrar{}
	p := NewPprof(api)

	require.NotNil(t, p)
	assert.Equal(t, api, p.api)
	assert.Equal(t, "pprof", p.Name())
}

func TestPprofInit(t *testing.T) {
	tt := []struct {
		name string
		err  error
	}{
		{"registered", nil},
		{"registration fails", assert.AnError},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			api := &registrar{}
			api.On("Register", "/debug/pprof/", "pprof", "Profiling Data",
				mock.AnythingOfType("*http.ServeMux")).Return(tc.err)

			err := NewPprof(api).Init()
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
			} else {
				assert.NoError(t, err)
			}
			api.AssertExpectations(t)
		})
	}
}

func TestPprofHandlers(t *testing.T) {
	mux, ok := pprofHandlers().(*http.ServeMux)
	require.True(t, ok)

	for _, path := range []string{
		"/debug/pprof/",
		"/debug/pprof/cmdline",
		"/debug/pprof/symbol",
		"/debug/pprof/goroutine?debug=1",
		"/debug/pprof/heap",
	} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}

	t.Run("profile and trace are routed", func(t *testing.T) {
		for _, path := range []string{"/debug/pprof/profile", "/debug/pprof/trace"} {
			_, pattern := mux.Handler(httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, path, pattern)
		}
	})
}
