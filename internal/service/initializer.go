// SPDX-FileCopyrightText: 2025 The Kepler Authors
// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"fmt"
	"log/slog"
	"os"
)

// Init initializes every Initializer in services, in order. When one fails
// the services initialized before it are shut down in reverse order, so an
// output file opened by an exporter is closed if the trace cannot be loaded
// afterwards.
func Init(logger *slog.Logger, services []Service) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	initialized := make([]Service, 0, len(services))
	for _, s := range services {
		i, ok := s.(Initializer)
		if !ok {
			logger.Debug("Not an initializer", "service", s.Name())
			continue
		}

		logger.Info("Initializing service", "service", s.Name())
		if err := i.Init(); err != nil {
			unwind(logger, initialized)
			return fmt.Errorf("failed to initialize service %s: %w", s.Name(), err)
		}
		initialized = append(initialized, s)
	}
	return nil
}

// unwind shuts down initialized services last first; errors are logged only
func unwind(logger *slog.Logger, initialized []Service) {
	logger.Info("Shutting down initialized services", "count", len(initialized))
	for i := len(initialized) - 1; i >= 0; i-- {
		s, ok := initialized[i].(Shutdowner)
		if !ok {
			continue
		}
		if err := s.Shutdown(); err != nil {
			logger.Error("Failed to shut down service", "service", s.Name(), "error", err)
			continue
		}
		logger.Debug("Service shut down", "service", s.Name())
	}
}
