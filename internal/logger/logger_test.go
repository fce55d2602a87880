// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tt := []struct {
		name     string
		format   string
		logLevel string

		shouldLogInfo bool
	}{{
		name:          "json format debug level",
		format:        "json",
		logLevel:      "debug",
		shouldLogInfo: true,
	}, {
		name:          "json format info level",
		format:        "json",
		logLevel:      "info",
		shouldLogInfo: true,
	}, {
		name:          "json format warn level",
		format:        "json",
		logLevel:      "warn",
		shouldLogInfo: false,
	}, {
		name:          "text format info level",
		format:        "text",
		logLevel:      "info",
		shouldLogInfo: true,
	}, {
		name:          "text format error level",
		format:        "text",
		logLevel:      "error",
		shouldLogInfo: false,
	}}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(tc.logLevel, tc.format, &buf)
			logger.Info("test message", "key", "value")

			output := buf.String()
			if !tc.shouldLogInfo {
				assert.Empty(t, output)
				return
			}
			assert.Contains(t, output, "test message")

			switch tc.format {
			case "text":
				assert.Contains(t, output, "source=logger/logger_test.go:")
			case "json":
				logParts := map[string]any{}
				require.NoError(t, json.Unmarshal(buf.Bytes(), &logParts))
				assert.Contains(t, logParts, "time")
				assert.Contains(t, logParts, "source")
				assert.Equal(t, "test message", logParts["msg"])
				assert.Equal(t, "value", logParts["key"])
			}
		})
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	assert.Panics(t, func() {
		_ = New("info", "invalid", os.Stderr)
	})
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestParseLogLevel(t *testing.T) {
	tt := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tc := range tt {
		t.Run(tc.level, func(t *testing.T) {
			assert.Equal(t, tc.expected, parseLogLevel(tc.level))
		})
	}
}
