// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	// Test default configuration values
	cfg := DefaultConfig()

	// Assert default values are set correctly
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 100*time.Millisecond, cfg.Analysis.Interval)
	assert.Equal(t, time.Second, cfg.Analysis.Margin)
	assert.Equal(t, 0, cfg.Analysis.Workers)
	assert.Equal(t, ".", cfg.Input.Dir)
	assert.Equal(t, "stdout", cfg.Export.Format)
	assert.Equal(t, StdoutPath, cfg.Export.Output)
	assert.Equal(t, FamilyAll, cfg.Export.Families)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	yamlData := `
log:
  level: debug
  format: json
analysis:
  process: bench
  interval: 50ms
  margin: 2s
  workers: 4
input:
  dir: ` + dir + `
export:
  format: csv
  output: out.csv
  families: [locality, lock]
`
	cfg, err := Load(strings.NewReader(yamlData))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "bench", cfg.Analysis.Process)
	assert.Equal(t, 50*time.Millisecond, cfg.Analysis.Interval)
	assert.Equal(t, 2*time.Second, cfg.Analysis.Margin)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, dir, cfg.Input.Dir)
	assert.Equal(t, "csv", cfg.Export.Format)
	assert.Equal(t, "out.csv", cfg.Export.Output)
	assert.Equal(t, FamilyLocality|FamilyLock, cfg.Export.Families)
}

func TestLoadEmptyFromYAML(t *testing.T) {
	cfg, err := Load(strings.NewReader(``))
	require.NoError(t, err)

	// Verify all values are defaults
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestCommandLinePrecedence(t *testing.T) {
	yamlData := `
log:
  level: info
analysis:
  process: bench
  interval: 200ms
`
	cfg, err := Load(strings.NewReader(yamlData))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level, "Must read YAML file")

	// Create a kingpin app and register flags
	app := kingpin.New("test", "Test application")
	updateConfig := RegisterFlags(app)
	assert.Equal(t, "info", cfg.Log.Level, "Must not change YAML values until updateConfig is called")

	// Parse command line arguments that override some settings
	_, err = app.Parse([]string{
		"--log.level=debug",
		"--analysis.process=other",
		"--export.format=json",
		"--export.families=memory",
		"--export.families=switch",
	})
	require.NoError(t, err)
	require.NoError(t, updateConfig(cfg))

	// Verify that command line arguments take precedence
	assert.Equal(t, "debug", cfg.Log.Level, "Command line should override YAML value")
	assert.Equal(t, "other", cfg.Analysis.Process)
	assert.Equal(t, "json", cfg.Export.Format)
	assert.Equal(t, FamilyMemory|FamilySwitch, cfg.Export.Families)

	// unset flags keep YAML and default values
	assert.Equal(t, "text", cfg.Log.Format, "Default value should not be overridden")
	assert.Equal(t, 200*time.Millisecond, cfg.Analysis.Interval)
	assert.Equal(t, time.Second, cfg.Analysis.Margin)
}

func TestWhitespaceHandling(t *testing.T) {
	yamlData := `
log:
  level: "  debug  "
  format: "  json  "
analysis:
  process: "  bench "
export:
  format: " CSV "
  output: "   "
`
	cfg, err := Load(strings.NewReader(yamlData))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "bench", cfg.Analysis.Process)
	assert.Equal(t, "csv", cfg.Export.Format)
	assert.Equal(t, StdoutPath, cfg.Export.Output)
}

func TestFromRealFile(t *testing.T) {
	yamlData := `
log:
  level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o644))

	cfg, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestInvalidYAML(t *testing.T) {
	yamlData := `
log:
  level: FATAL
invalid yaml
`
	_, err := Load(strings.NewReader(yamlData))
	assert.Error(t, err, "Loading invalid YAML should return an error")

	_, err = Load(strings.NewReader("export:\n  families: [power]\n"))
	assert.ErrorContains(t, err, "unknown metric family")
}

func TestInvalidFile(t *testing.T) {
	_, err := FromFile("non_existent_file.yaml")
	assert.Error(t, err, "Loading from non-existent file should return an error")
}

// ErrorReader is a mock io.Reader that always returns an error
type ErrorReader struct{}

func (r *ErrorReader) Read(p []byte) (n int, err error) {
	return 0, os.ErrInvalid
}

func TestReadError(t *testing.T) {
	_, err := Load(&ErrorReader{})
	assert.Error(t, err, "Read error should propagate")
}

func TestInvalidConfigurationValues(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	tt := []struct {
		name          string
		args          []string
		expectedError string
	}{
		{"zero interval", []string{"--analysis.interval=0s"}, "invalid analysis interval"},
		{"negative margin", []string{"--analysis.margin=-1s"}, "invalid analysis margin"},
		{"negative workers", []string{"--analysis.workers=-2"}, "invalid analysis workers"},
		{"missing input dir", []string{"--input.dir=/does/not/exist"}, "invalid input dir"},
		{"input dir is a file", []string{"--input.dir=" + file}, "input dir is not a directory"},
		{"sqlite to stdout", []string{"--export.format=sqlite"}, "sqlite export needs an output path"},
		{"unknown family", []string{"--export.families=power"}, "unknown metric family"},
		{"listen address without port", []string{"--web.listen-address=localhost"}, "invalid web listen address"},
		{"listen address port out of range", []string{"--web.listen-address=:70000"}, "port must be between 1 and 65535"},
		{"unreadable web config", []string{"--web.listen-address=:28282", "--web.config-file=/does/not/exist.yml"}, "invalid web config file"},
		{"pprof without server", []string{"--debug.pprof"}, "pprof needs a web listen address"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			app := kingpin.New("test", "Test application")
			updateConfig := RegisterFlags(app)
			_, err := app.Parse(tc.args)
			require.NoError(t, err)

			err = updateConfig(DefaultConfig())
			require.Error(t, err, "invalid input should be rejected by validation")
			assert.Contains(t, err.Error(), tc.expectedError)
		})
	}
}

func TestWebConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Serving(), "metrics are not served by default")

	webConfig := filepath.Join(t.TempDir(), "web.yml")
	require.NoError(t, os.WriteFile(webConfig, []byte("tls_server_config: {}\n"), 0o644))

	app := kingpin.New("test", "Test application")
	updateConfig := RegisterFlags(app)
	_, err := app.Parse([]string{
		"--web.listen-address= :28282 ",
		"--web.listen-address=127.0.0.1:9000",
		"--web.config-file=" + webConfig,
		"--debug.pprof",
	})
	require.NoError(t, err)
	require.NoError(t, updateConfig(cfg))

	assert.True(t, cfg.Serving())
	assert.Equal(t, []string{":28282", "127.0.0.1:9000"}, cfg.Web.ListenAddresses)
	assert.Equal(t, webConfig, cfg.Web.Config)
	assert.True(t, cfg.Debug.Pprof.Enabled)
}

func TestDebugCollectors(t *testing.T) {
	cfg, err := Load(strings.NewReader("export:\n  debugCollectors: [go, \" process\"]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "process"}, cfg.Export.DebugCollectors)

	_, err = Load(strings.NewReader("export:\n  debugCollectors: [gpu]\n"))
	assert.ErrorContains(t, err, "invalid debug collector: gpu")
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = "FATAL"
	cfg.Export.Format = "xml"
	cfg.Export.Families = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t,
		"invalid configuration: invalid log level: FATAL, invalid export format: xml, no metric families selected",
		err.Error())
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analysis.Process = "bench"
	cfg.Export.Families = FamilyLock

	s := cfg.String()
	assert.Contains(t, s, "process: bench")
	assert.Contains(t, s, "interval: 100ms")
	assert.Contains(t, s, "families: lock")

	manual := cfg.manualString()
	assert.Contains(t, manual, "analysis.process: bench")
	assert.Contains(t, manual, "export.families: lock")

	// round trip through YAML
	loaded, err := Load(strings.NewReader(s))
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
