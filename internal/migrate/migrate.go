// Package migrate runs the embedded SQL schema migrations of the
// postgres and sqlite backends through goose.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

// Dir is the directory inside each backend's embedded filesystem holding migrations.
const Dir = "migrations"

// goose keeps its dialect, base filesystem and logger in package state.
var gooseMu sync.Mutex

// Runner applies migrations from an embedded filesystem to one database.
type Runner struct {
	db      *sql.DB
	fsys    fs.FS
	dialect string
	logger  zerolog.Logger
}

// NewRunner creates a Runner. dialect is a goose dialect name ("postgres", "sqlite3").
func NewRunner(db *sql.DB, fsys fs.FS, dialect string, logger zerolog.Logger) *Runner {
	return &Runner{
		db:      db,
		fsys:    fsys,
		dialect: dialect,
		logger:  logger.With().Str("component", "migrate").Str("dialect", dialect).Logger(),
	}
}

func (r *Runner) run(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(r.fsys)
	goose.SetLogger(gooseLogger{r.logger})
	if err := goose.SetDialect(r.dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	return fn()
}

// Up applies all pending migrations.
func (r *Runner) Up(ctx context.Context) error {
	return r.run(func() error {
		if err := goose.UpContext(ctx, r.db, Dir); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		return nil
	})
}

// Down rolls back the most recent migration.
func (r *Runner) Down(ctx context.Context) error {
	return r.run(func() error {
		if err := goose.DownContext(ctx, r.db, Dir); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return nil
	})
}

// Reset rolls back every applied migration.
func (r *Runner) Reset(ctx context.Context) error {
	return r.run(func() error {
		if err := goose.ResetContext(ctx, r.db, Dir); err != nil {
			return fmt.Errorf("failed to reset migrations: %w", err)
		}
		return nil
	})
}

// Status logs the applied state of every migration.
func (r *Runner) Status(ctx context.Context) error {
	return r.run(func() error {
		return goose.StatusContext(ctx, r.db, Dir)
	})
}

// Version returns the current schema version.
func (r *Runner) Version(ctx context.Context) (int64, error) {
	var version int64
	err := r.run(func() error {
		var err error
		version, err = goose.GetDBVersionContext(ctx, r.db)
		return err
	})
	return version, err
}

// gooseLogger routes goose output through zerolog.
type gooseLogger struct {
	logger zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info().Msgf(format, v...)
}

// Fatalf logs at error level; goose's default would exit the process.
func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error().Msgf(format, v...)
}
