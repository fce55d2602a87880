// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	"github.com/sustainable-computing-io/harvester/internal/analysis"
	"github.com/sustainable-computing-io/harvester/internal/config"
	"github.com/sustainable-computing-io/harvester/internal/exporter"
	"github.com/sustainable-computing-io/harvester/internal/exporter/csv"
	"github.com/sustainable-computing-io/harvester/internal/exporter/json"
	"github.com/sustainable-computing-io/harvester/internal/exporter/prometheus"
	"github.com/sustainable-computing-io/harvester/internal/exporter/sqlite"
	"github.com/sustainable-computing-io/harvester/internal/exporter/stdout"
	"github.com/sustainable-computing-io/harvester/internal/harvest"
	"github.com/sustainable-computing-io/harvester/internal/logger"
	"github.com/sustainable-computing-io/harvester/internal/processor"
	"github.com/sustainable-computing-io/harvester/internal/server"
	"github.com/sustainable-computing-io/harvester/internal/service"
	"github.com/sustainable-computing-io/harvester/internal/version"
)

func main() {
	// parse args and config and exit with error if there is an error
	cfg, err := parseArgsAndConfig(os.Args[1:])
	if err != nil {
		os.Exit(1)
	}
	// stdout carries the exported data; everything else goes to stderr
	logger := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	logVersionInfo(logger)
	printConfigInfo(os.Stderr, logger, cfg)

	services, err := createServices(logger, cfg)
	if err != nil {
		logger.Error("failed to create services", "error", err)
		os.Exit(1)
	}
	services = append(services, service.NewSignalHandler(logger, os.Interrupt, syscall.SIGTERM))

	if err := service.Init(logger, services); err != nil {
		logger.Error("Initialization failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting harvester")
	if err := service.Run(context.Background(), logger, services); err != nil {
		logger.Error("Harvester terminated with an error", "error", err)
		os.Exit(1)
	}
	logger.Info("Graceful shutdown completed")
}

func logVersionInfo(logger *slog.Logger) {
	v := version.Info()
	logger.Info("Harvester version information",
		"version", v.Version,
		"buildTime", v.BuildTime,
		"gitBranch", v.GitBranch,
		"gitCommit", v.GitCommit,
		"goVersion", v.GoVersion,
		"goOS", v.GoOS,
		"goArch", v.GoArch,
	)
}

func parseArgsAndConfig(args []string) (*config.Config, error) {
	const appName = "harvester"
	app := kingpin.New(appName, "Attributes CPU time and hardware counters of a traced program to its threads.")
	app.Version(version.Info().String())

	configFile := app.Flag("config.file", "Path to YAML configuration file").String()
	updateConfig := config.RegisterFlags(app)
	kingpin.MustParse(app.Parse(args))

	logger := logger.New("info", "text", os.Stderr)
	cfg := config.DefaultConfig()
	if *configFile != "" {
		logger.Info("Loading configuration file", "path", *configFile)
		loadedCfg, err := config.FromFile(*configFile)
		if err != nil {
			logger.Error("Error loading config file", "error", err.Error())
			return nil, err
		}
		// Replace default config with loaded config
		cfg = loadedCfg
		logger.Info("Completed loading of configuration file", "path", *configFile)
	}

	// Apply command line flags (these override config file settings)
	if err := updateConfig(cfg); err != nil {
		logger.Error("Error applying command line flags", "error", err.Error())
		return nil, err
	}

	return cfg, nil
}

func printConfigInfo(w io.Writer, logger *slog.Logger, cfg *config.Config) {
	if !logger.Enabled(context.Background(), slog.LevelInfo) || cfg.Log.Format == "json" {
		return
	}

	fmt.Fprintf(w, `
Configuration
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
%s
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
`, cfg)
}

func createServices(logger *slog.Logger, cfg *config.Config) ([]service.Service, error) {
	logger.Debug("Creating all services")

	procs := make([]processor.Processor, 0, len(processor.Names()))
	for _, name := range cfg.Export.Families.Names() {
		p, err := processor.New(name)
		if err != nil {
			return nil, err
		}
		procs = append(procs, p)
	}

	analyzer := analysis.NewAnalyzer(cfg.Analysis.Process,
		analysis.WithLogger(logger),
		analysis.WithInterval(cfg.Analysis.Interval),
		analysis.WithMargin(cfg.Analysis.Margin),
		analysis.WithWorkers(cfg.Analysis.Workers),
	)
	h := harvest.NewHarvester(analyzer, procs,
		harvest.WithLogger(logger),
		harvest.WithInputDir(cfg.Input.Dir),
	)

	var apiServer *server.APIServer
	if cfg.Serving() {
		apiServer = server.NewAPIServer(
			server.WithLogger(logger),
			server.WithListenAddress(cfg.Web.ListenAddresses),
			server.WithWebConfigFile(cfg.Web.Config),
		)
	}

	out, err := createExporter(logger, cfg, h, apiServer)
	if err != nil {
		return nil, err
	}

	services := []service.Service{h, out}
	if apiServer == nil {
		return services, nil
	}

	if cfg.Export.Format != "prometheus" {
		services = append(services, prometheus.NewExporter(h,
			prometheus.WithLogger(logger),
			prometheus.WithServer(apiServer),
			prometheus.WithPath(""),
			prometheus.WithCollectors(prometheus.CreateCollectors(h, logger)),
			prometheus.WithDebugCollectors(cfg.Export.DebugCollectors),
			prometheus.WithLinger(true),
		))
	}
	if cfg.Debug.Pprof.Enabled {
		services = append(services, server.NewPprof(apiServer))
	}
	services = append(services,
		server.NewHealthProbe(apiServer, []service.Service{h, out}, logger),
		apiServer,
	)
	return services, nil
}

func createExporter(logger *slog.Logger, cfg *config.Config, h harvest.Service, apiServer *server.APIServer) (service.Service, error) {
	linger := cfg.Serving()
	opts := []exporter.OptionFn{
		exporter.WithLogger(logger),
		exporter.WithPath(cfg.Export.Output),
		exporter.WithLinger(linger),
	}

	switch cfg.Export.Format {
	case "csv":
		return csv.NewExporter(h, opts...), nil
	case "json":
		return json.NewExporter(h, opts...), nil
	case "stdout":
		return stdout.NewExporter(h, opts...), nil
	case "sqlite":
		return sqlite.NewExporter(h, cfg.Export.Output,
			sqlite.WithLogger(logger),
			sqlite.WithLinger(linger),
		), nil
	case "prometheus":
		promOpts := []prometheus.OptionFn{
			prometheus.WithLogger(logger),
			prometheus.WithPath(cfg.Export.Output),
			prometheus.WithCollectors(prometheus.CreateCollectors(h, logger)),
			prometheus.WithDebugCollectors(cfg.Export.DebugCollectors),
			prometheus.WithLinger(linger),
		}
		if apiServer != nil {
			promOpts = append(promOpts, prometheus.WithServer(apiServer))
		}
		return prometheus.NewExporter(h, promOpts...), nil
	default:
		return nil, fmt.Errorf("unknown export format: %s", cfg.Export.Format)
	}
}
