// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type (
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	}

	Analysis struct {
		Process  string        `yaml:"process"`
		Interval time.Duration `yaml:"interval"`
		Margin   time.Duration `yaml:"margin"`
		Workers  int           `yaml:"workers"`
	}

	Input struct {
		Dir string `yaml:"dir"`
	}

	Export struct {
		Format          string   `yaml:"format"`
		Output          string   `yaml:"output"`
		Families        Family   `yaml:"families"`
		DebugCollectors []string `yaml:"debugCollectors,omitempty"`
	}

	// Web serves the harvested metrics until interrupted; disabled when no
	// listen address is given
	Web struct {
		Config          string   `yaml:"configFile"`
		ListenAddresses []string `yaml:"listenAddresses,omitempty"`
	}

	PprofDebug struct {
		Enabled bool `yaml:"enabled"`
	}

	Debug struct {
		Pprof PprofDebug `yaml:"pprof"`
	}

	Config struct {
		Log      Log      `yaml:"log"`
		Analysis Analysis `yaml:"analysis"`
		Input    Input    `yaml:"input"`
		Export   Export   `yaml:"export"`
		Web      Web      `yaml:"web"`
		Debug    Debug    `yaml:"debug"`
	}
)

const (
	// Flags
	LogLevelFlag  = "log.level"
	LogFormatFlag = "log.format"

	AnalysisProcessFlag  = "analysis.process"
	AnalysisIntervalFlag = "analysis.interval"
	AnalysisMarginFlag   = "analysis.margin"
	AnalysisWorkersFlag  = "analysis.workers"

	InputDirFlag = "input.dir"

	ExportFormatFlag   = "export.format"
	ExportOutputFlag   = "export.output"
	ExportFamiliesFlag = "export.families"

	WebConfigFlag        = "web.config-file"
	WebListenAddressFlag = "web.listen-address"

	pprofEnabledFlag = "debug.pprof"
)

// StdoutPath selects standard output as the export destination
const StdoutPath = "-"

// ValidFormats returns the supported export formats
func ValidFormats() []string {
	return []string{"csv", "json", "stdout", "prometheus", "sqlite"}
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	cfg := &Config{
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Analysis: Analysis{
			Interval: 100 * time.Millisecond,
			Margin:   time.Second,
			Workers:  0, // one per CPU
		},
		Input: Input{
			Dir: ".",
		},
		Export: Export{
			Format:   "stdout",
			Output:   StdoutPath,
			Families: FamilyAll,
		},
	}

	return cfg
}

// Load loads configuration from an io.Reader
func Load(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.sanitize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromFile loads configuration from a file
func FromFile(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Load(file)
}

type ConfigUpdaterFn func(*Config) error

// RegisterFlags registers command-line flags with kingpin app
// and returns ConfigUpdaterFn that updates the config from parsed flags
// as command line arguments override config file settings
func RegisterFlags(app *kingpin.Application) ConfigUpdaterFn {
	// track flags that were explicitly set
	flagsSet := map[string]bool{}

	app.PreAction(func(ctx *kingpin.ParseContext) error {
		// Clear the map in case this function is called multiple times
		flagsSet = map[string]bool{}

		for _, element := range ctx.Elements {
			if flag, ok := element.Clause.(*kingpin.FlagClause); ok && element.Value != nil {
				flagsSet[flag.Model().Name] = true
			}
		}
		return nil
	})

	// Logging
	logLevel := app.Flag(LogLevelFlag, "Logging level: debug, info, warn, error").Default("info").Enum("debug", "info", "warn", "error")
	logFormat := app.Flag(LogFormatFlag, "Logging format: text or json").Default("text").Enum("text", "json")

	// Analysis
	process := app.Flag(AnalysisProcessFlag, "Name (prefix) of the process to analyse").String()
	interval := app.Flag(AnalysisIntervalFlag, "Width of one analysis window").Default("100ms").Duration()
	margin := app.Flag(AnalysisMarginFlag, "Events selected before and after the analysis span").Default("1s").Duration()
	workers := app.Flag(AnalysisWorkersFlag, "Number of cores analysed concurrently, 0 for one per CPU").Default("0").Int()

	// Input
	inputDir := app.Flag(InputDirFlag, "Directory holding the collected trace files").Default(".").String()

	// Export
	format := app.Flag(ExportFormatFlag, "Export format: "+strings.Join(ValidFormats(), ", ")).Default("stdout").Enum(ValidFormats()...)
	output := app.Flag(ExportOutputFlag, "Export destination path, - for standard output").Default(StdoutPath).String()
	families := app.Flag(ExportFamiliesFlag, "Metric families to export: "+strings.Join(ValidFamilies(), ", ")).Strings()

	// Web
	webConfig := app.Flag(WebConfigFlag, "Web config file path").Default("").String()
	webListenAddresses := app.Flag(WebListenAddressFlag, "Serve metrics on these addresses until interrupted").Strings()
	enablePprof := app.Flag(pprofEnabledFlag, "Enable pprof debug endpoints").Default("false").Bool()

	return func(cfg *Config) error {
		// Logging settings
		if flagsSet[LogLevelFlag] {
			cfg.Log.Level = *logLevel
		}

		if flagsSet[LogFormatFlag] {
			cfg.Log.Format = *logFormat
		}

		if flagsSet[AnalysisProcessFlag] {
			cfg.Analysis.Process = *process
		}

		if flagsSet[AnalysisIntervalFlag] {
			cfg.Analysis.Interval = *interval
		}

		if flagsSet[AnalysisMarginFlag] {
			cfg.Analysis.Margin = *margin
		}

		if flagsSet[AnalysisWorkersFlag] {
			cfg.Analysis.Workers = *workers
		}

		if flagsSet[InputDirFlag] {
			cfg.Input.Dir = *inputDir
		}

		if flagsSet[ExportFormatFlag] {
			cfg.Export.Format = *format
		}

		if flagsSet[ExportOutputFlag] {
			cfg.Export.Output = *output
		}

		if flagsSet[ExportFamiliesFlag] {
			f, err := ParseFamily(*families)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", ExportFamiliesFlag, err)
			}
			cfg.Export.Families = f
		}

		if flagsSet[WebConfigFlag] {
			cfg.Web.Config = *webConfig
		}

		if flagsSet[WebListenAddressFlag] {
			cfg.Web.ListenAddresses = *webListenAddresses
		}

		if flagsSet[pprofEnabledFlag] {
			cfg.Debug.Pprof.Enabled = *enablePprof
		}

		cfg.sanitize()
		return cfg.Validate()
	}
}

func (c *Config) sanitize() {
	c.Log.Level = strings.TrimSpace(c.Log.Level)
	c.Log.Format = strings.TrimSpace(c.Log.Format)
	c.Analysis.Process = strings.TrimSpace(c.Analysis.Process)
	c.Input.Dir = strings.TrimSpace(c.Input.Dir)
	c.Export.Format = strings.ToLower(strings.TrimSpace(c.Export.Format))
	c.Export.Output = strings.TrimSpace(c.Export.Output)
	if c.Export.Output == "" {
		c.Export.Output = StdoutPath
	}
	for i := range c.Export.DebugCollectors {
		c.Export.DebugCollectors[i] = strings.TrimSpace(c.Export.DebugCollectors[i])
	}
	c.Web.Config = strings.TrimSpace(c.Web.Config)
	for i := range c.Web.ListenAddresses {
		c.Web.ListenAddresses[i] = strings.TrimSpace(c.Web.ListenAddresses[i])
	}
}

// Serving reports whether metrics are served over HTTP
func (c *Config) Serving() bool {
	return len(c.Web.ListenAddresses) > 0
}

// Validate checks for configuration errors
func (c *Config) Validate() error {
	var errs []string
	{ // log level

		validLogLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}

		// Validate logging settings
		if _, valid := validLogLevels[c.Log.Level]; !valid {
			errs = append(errs, fmt.Sprintf("invalid log level: %s", c.Log.Level))
		}
	}
	{ // log format
		validFormats := map[string]bool{
			"text": true,
			"json": true,
		}
		if _, valid := validFormats[c.Log.Format]; !valid {
			errs = append(errs, fmt.Sprintf("invalid log format: %s", c.Log.Format))
		}
	}
	{ // analysis
		if c.Analysis.Interval <= 0 {
			errs = append(errs, fmt.Sprintf("invalid analysis interval: %s", c.Analysis.Interval))
		}
		if c.Analysis.Margin < 0 {
			errs = append(errs, fmt.Sprintf("invalid analysis margin: %s", c.Analysis.Margin))
		}
		if c.Analysis.Workers < 0 {
			errs = append(errs, fmt.Sprintf("invalid analysis workers: %d", c.Analysis.Workers))
		}
	}
	{ // input
		if c.Input.Dir == "" {
			errs = append(errs, "input dir not set")
		} else if info, err := os.Stat(c.Input.Dir); err != nil {
			errs = append(errs, fmt.Sprintf("invalid input dir: %s", err))
		} else if !info.IsDir() {
			errs = append(errs, fmt.Sprintf("input dir is not a directory: %s", c.Input.Dir))
		}
	}
	{ // export
		valid := false
		for _, f := range ValidFormats() {
			if f == c.Export.Format {
				valid = true
				break
			}
		}
		if !valid {
			errs = append(errs, fmt.Sprintf("invalid export format: %s", c.Export.Format))
		}
		if c.Export.Format == "sqlite" && c.Export.Output == StdoutPath {
			errs = append(errs, "sqlite export needs an output path")
		}
		if c.Export.Families == 0 {
			errs = append(errs, "no metric families selected")
		}
		for _, name := range c.Export.DebugCollectors {
			if name != "go" && name != "process" {
				errs = append(errs, fmt.Sprintf("invalid debug collector: %s", name))
			}
		}
	}
	{ // web
		if c.Web.Config != "" {
			if err := canReadFile(c.Web.Config); err != nil {
				errs = append(errs, fmt.Sprintf("invalid web config file. path: %q: %s", c.Web.Config, err.Error()))
			}
		}
		for _, addr := range c.Web.ListenAddresses {
			if err := validateListenAddress(addr); err != nil {
				errs = append(errs, fmt.Sprintf("invalid web listen address %q: %s", addr, err.Error()))
			}
		}
		if c.Debug.Pprof.Enabled && !c.Serving() {
			errs = append(errs, "pprof needs a web listen address")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, ", "))
	}

	return nil
}

func canReadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	defer func() {
		// ignored on purpose
		_ = f.Close()
	}()
	buf := make([]byte, 8)
	_, err = f.Read(buf)
	if err != nil {
		return err
	}

	return nil
}

func validateListenAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("address cannot be empty")
	}

	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address format: %w", err)
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("port must be numeric, got %s", port)
	}
	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", portNum)
	}
	return nil
}

func (c *Config) String() string {
	bytes, err := yaml.Marshal(c)
	if err == nil {
		return string(bytes)
	}
	// NOTE:  this code path should not happen but if it does (i.e if yaml marshal) fails
	// for some reason, manually build the string
	return c.manualString()
}

func (c *Config) manualString() string {
	cfgs := []struct {
		Name  string
		Value string
	}{
		{LogLevelFlag, c.Log.Level},
		{LogFormatFlag, c.Log.Format},
		{AnalysisProcessFlag, c.Analysis.Process},
		{AnalysisIntervalFlag, c.Analysis.Interval.String()},
		{AnalysisMarginFlag, c.Analysis.Margin.String()},
		{AnalysisWorkersFlag, fmt.Sprintf("%d", c.Analysis.Workers)},
		{InputDirFlag, c.Input.Dir},
		{ExportFormatFlag, c.Export.Format},
		{ExportOutputFlag, c.Export.Output},
		{ExportFamiliesFlag, c.Export.Families.String()},
		{WebConfigFlag, c.Web.Config},
		{WebListenAddressFlag, strings.Join(c.Web.ListenAddresses, ", ")},
		{pprofEnabledFlag, fmt.Sprintf("%v", c.Debug.Pprof.Enabled)},
	}
	sb := strings.Builder{}

	for _, cfg := range cfgs {
		sb.WriteString(cfg.Name)
		sb.WriteString(": ")
		sb.WriteString(cfg.Value)
		sb.WriteString("\n")
	}

	return sb.String()
}
