// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/sustainable-computing-io/harvester/internal/exporter"
	"github.com/sustainable-computing-io/harvester/internal/processor"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	type    TEXT    NOT NULL,
	program TEXT    NOT NULL,
	user    TEXT    NOT NULL,
	time_ns INTEGER NOT NULL,
	value   REAL    NOT NULL,
	tid     INTEGER NOT NULL,
	pid     INTEGER NOT NULL,
	cpu     INTEGER NOT NULL,
	uid     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS entries_type_time ON entries (type, time_ns);
`

const insert = `INSERT INTO entries (type, program, user, time_ns, value, tid, pid, cpu, uid)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type Opts struct {
	logger *slog.Logger
	linger bool
}

// DefaultOpts returns a new Opts with defaults set
func DefaultOpts() Opts {
	return Opts{
		logger: slog.Default(),
	}
}

// OptionFn is a function sets one more more options in Opts struct
type OptionFn func(*Opts)

// WithLogger sets the logger for the Exporter
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Opts) {
		o.logger = logger
	}
}

// WithLinger keeps Run blocked after writing until its context is done
func WithLinger(linger bool) OptionFn {
	return func(o *Opts) {
		o.linger = linger
	}
}

// Exporter stores the harvested output in an SQLite database
type Exporter struct {
	logger   *slog.Logger
	provider exporter.Provider
	path     string
	linger   bool
	db       *sql.DB
}

var (
	_ exporter.Initializer = (*Exporter)(nil)
	_ exporter.Runner      = (*Exporter)(nil)
	_ exporter.Shutdowner  = (*Exporter)(nil)
)

// NewExporter creates an Exporter writing to the database at path
func NewExporter(p exporter.Provider, path string, applyOpts ...OptionFn) *Exporter {
	opts := DefaultOpts()
	for _, apply := range applyOpts {
		apply(&opts)
	}

	return &Exporter{
		logger:   opts.logger.With("service", "sqlite"),
		provider: p,
		path:     path,
		linger:   opts.linger,
	}
}

// Name implements service.Name
func (e *Exporter) Name() string {
	return "sqlite"
}

func (e *Exporter) Init() error {
	if e.path == "" || e.path == exporter.StdoutPath {
		return fmt.Errorf("sqlite export needs a database path")
	}

	db, err := sql.Open("sqlite", e.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}
	e.db = db
	e.logger.Info("Database opened", "path", e.path)
	return nil
}

func (e *Exporter) Run(ctx context.Context) error {
	out, err := exporter.Await(ctx, e.provider)
	if err != nil {
		if ctx.Err() != nil {
			e.logger.Info("Exiting before output was ready")
			return nil
		}
		return fmt.Errorf("failed to get output: %w", err)
	}

	if err := e.store(ctx, out); err != nil {
		return err
	}
	e.logger.Info("Output stored", "entries", len(out), "path", e.path)

	if e.linger {
		<-ctx.Done()
	}
	return nil
}

// store inserts out in a single transaction
func (e *Exporter) store(ctx context.Context, out processor.Output) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, en := range out {
		if _, err := stmt.ExecContext(ctx,
			en.Type, en.Program, en.User, en.Time.UnixNano(), en.Value,
			en.TID, en.PID, en.CPU, en.UID,
		); err != nil {
			return fmt.Errorf("failed to insert %s entry: %w", en.Type, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entries: %w", err)
	}
	return nil
}

func (e *Exporter) Shutdown() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}
