// Package sqlite provides SQLite implementations of the repository interfaces
// for embedded single-binary deployments.
// This package uses modernc.org/sqlite, a pure Go SQLite implementation that
// doesn't require CGO.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/prn-tf/cityguide/internal/config"
	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/migrate"
	"github.com/prn-tf/cityguide/internal/repository"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

// Config holds SQLite connection settings.
type Config struct {
	// Path is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	Path string

	// MaxOpenConns sets the maximum number of open connections.
	MaxOpenConns int

	// ConnMaxLifetime sets the maximum connection lifetime.
	ConnMaxLifetime time.Duration

	// JournalMode sets the SQLite journal mode (WAL recommended for concurrency).
	JournalMode string

	// BusyTimeout sets the busy timeout in milliseconds.
	BusyTimeout int

	// CacheSize sets the page cache size (negative = KB, positive = pages).
	CacheSize int

	// SynchronousMode sets the synchronous mode (NORMAL, FULL, OFF).
	SynchronousMode string
}

// DefaultConfig returns a default SQLite configuration.
func DefaultConfig(dbPath string) Config {
	return Config{
		Path:            dbPath,
		MaxOpenConns:    1, // SQLite works best with a single writer
		ConnMaxLifetime: time.Hour,
		JournalMode:     "WAL",
		BusyTimeout:     5000,
		CacheSize:       -2000,
		SynchronousMode: "NORMAL",
	}
}

// ConfigFromDatabase fills a Config from the application database settings,
// keeping defaults for unset values.
func ConfigFromDatabase(cfg config.DatabaseConfig) Config {
	c := DefaultConfig(cfg.Path)
	if cfg.JournalMode != "" {
		c.JournalMode = cfg.JournalMode
	}
	if cfg.BusyTimeout > 0 {
		c.BusyTimeout = cfg.BusyTimeout
	}
	if cfg.CacheSize != 0 {
		c.CacheSize = cfg.CacheSize
	}
	if cfg.SynchronousMode != "" {
		c.SynchronousMode = cfg.SynchronousMode
	}
	return c
}

// dsn appends the pragmas in the form modernc.org/sqlite understands.
func (c Config) dsn() string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout))
	q.Add("_pragma", fmt.Sprintf("journal_mode(%s)", c.JournalMode))
	q.Add("_pragma", fmt.Sprintf("cache_size(%d)", c.CacheSize))
	q.Add("_pragma", fmt.Sprintf("synchronous(%s)", c.SynchronousMode))
	return c.Path + "?" + q.Encode()
}

// DB wraps a sql.DB connection for SQLite.
type DB struct {
	db     *sql.DB
	logger zerolog.Logger
	path   string
}

// NewDB creates a new SQLite database connection.
func NewDB(ctx context.Context, cfg Config, logger zerolog.Logger) (*DB, error) {
	db, err := sql.Open("sqlite", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	// An in-memory database lives only as long as its connection.
	if cfg.Path != ":memory:" {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	logger.Info().
		Str("path", cfg.Path).
		Str("journal_mode", cfg.JournalMode).
		Int("max_conns", cfg.MaxOpenConns).
		Msg("connected to SQLite database")

	return &DB{
		db:     db,
		logger: logger,
		path:   cfg.Path,
	}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.logger.Info().Msg("closing SQLite connection")
	return db.db.Close()
}

// Ping checks the database connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

// Migrator returns a migration runner for this database.
func (db *DB) Migrator() *migrate.Runner {
	return migrate.NewRunner(db.db, migrationsFS, "sqlite3", db.logger)
}

// Migrate applies pending schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	return db.Migrator().Up(ctx)
}

// NewBackend builds repositories for every category on top of db.
func NewBackend(db *DB) *repository.Backend {
	listings := make(map[domain.Category]repository.ListingRepository)
	for _, c := range domain.AllCategories() {
		listings[c] = NewListingRepository(db, c)
	}

	return &repository.Backend{
		Repos: &repository.Repositories{
			User:     NewUserRepository(db),
			Listings: listings,
		},
		Database: db,
	}
}
