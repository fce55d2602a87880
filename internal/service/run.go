// SPDX-FileCopyrightText: 2025 The Kepler Authors
// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/oklog/run"
)

// Run runs every Runner in services until the first of them returns. The
// others are then cancelled and each Shutdowner is shut down. Run returns
// the error of the Runner that ended the run, so a one-shot export that
// wrote its output ends it with nil.
func Run(outer context.Context, logger *slog.Logger, services []Service) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	ctx, cancel := context.WithCancel(outer)
	defer cancel()

	var g run.Group
	runners := 0
	for _, s := range services {
		r, ok := s.(Runner)
		if !ok {
			logger.Debug("Not a runner", "service", s.Name())
			continue
		}
		g.Add(execute(ctx, logger, r), interrupt(cancel, logger, r))
		runners++
	}

	logger.Info("Running services", "count", runners)
	err := g.Run()

	for _, s := range services {
		if p, ok := s.(Publisher); ok && !Published(p) {
			logger.Warn("Run ended before output was published", "service", s.Name())
		}
	}
	return err
}

// execute runs r and logs whether it finished on its own or was cancelled
func execute(ctx context.Context, logger *slog.Logger, r Runner) func() error {
	return func() error {
		logger.Info("Running service", "service", r.Name())
		err := r.Run(ctx)
		if err == nil && ctx.Err() == nil {
			logger.Info("Service finished, ending run", "service", r.Name())
		}
		return err
	}
}

// interrupt cancels the run and shuts r down once any runner has returned
func interrupt(cancel context.CancelFunc, logger *slog.Logger, r Runner) func(error) {
	return func(err error) {
		cancel()
		if err != nil {
			logger.Warn("Service terminated", "service", r.Name(), "reason", err)
		}

		s, ok := r.(Shutdowner)
		if !ok {
			logger.Debug("Not a shutdowner", "service", r.Name())
			return
		}
		logger.Info("Shutting down", "service", r.Name())
		if err := s.Shutdown(); err != nil {
			logger.Warn("Service shutdown failed", "service", r.Name(), "error", err)
		}
	}
}
