// Package sqlite implements the deal stores on top of a sqlite database.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sethvargo/go-envconfig"
	"github.com/sethvargo/go-retry"
	"modernc.org/sqlite"

	"github.com/jdholdren/dealwatch/internal/dealwatch"
	"github.com/jdholdren/dealwatch/internal/migrations"
)

// Ensure Repo implements each of the store interfaces.
var (
	_ dealwatch.PostService    = (*Repo)(nil)
	_ dealwatch.ListingService = (*Repo)(nil)
	_ dealwatch.RuleService    = (*Repo)(nil)
	_ dealwatch.MatchService   = (*Repo)(nil)
)

type (
	// Repo is the surface for interacting with all four deal stores.
	Repo struct {
		db *sqlx.DB

		dedupeMatches bool
	}

	// Config holds the options for opening a store.
	Config struct {
		// Path to the database file.
		Database string `env:"DATABASE, required"`

		JournalMode string        `env:"JOURNAL_MODE, default=WAL"`
		BusyTimeout time.Duration `env:"BUSY_TIMEOUT, default=5s"`

		// When set, recording a match for a (rule, post) pair that already
		// has one returns the existing row instead of appending another.
		DedupeMatches bool `env:"DEDUPE_MATCHES, default=false"`
	}

	Option func(*Repo)
)

// WithMatchDedupe makes RecordMatch collapse repeat matches for the same
// (rule, post) pair. The default is to append every match, since the match
// table doubles as an audit log of evaluation runs.
func WithMatchDedupe() Option {
	return func(r *Repo) {
		r.dedupeMatches = true
	}
}

// New wraps an already-open database. The caller keeps ownership of the
// pool; use Open to have the repo manage the whole lifecycle.
func New(dbx *sqlx.DB, opts ...Option) *Repo {
	r := &Repo{db: dbx}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ConfigFromEnv builds a Config from the process environment.
func ConfigFromEnv(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Open connects to the configured database, runs migrations, and returns a
// ready Repo. Close releases the connection pool.
func Open(ctx context.Context, cfg Config) (*Repo, error) {
	dsn := fmt.Sprintf("%s?_txlock=immediate&_journal_mode=%s&_busy_timeout=%d",
		cfg.Database, cfg.JournalMode, cfg.BusyTimeout.Milliseconds())
	dbx, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %s", err)
	}
	if err := dbx.PingContext(ctx); err != nil {
		dbx.Close()
		return nil, fmt.Errorf("error reaching database: %s", err)
	}

	if err := migrations.Run(dbx); err != nil {
		dbx.Close()
		return nil, fmt.Errorf("error running migrations: %s", err)
	}

	var opts []Option
	if cfg.DedupeMatches {
		opts = append(opts, WithMatchDedupe())
	}

	slog.InfoContext(ctx, "opened deal store", "database", cfg.Database)

	return New(dbx, opts...), nil
}

func (r *Repo) Close() error {
	return r.db.Close()
}

// inTx runs fn inside a transaction, retrying the whole attempt when
// sqlite reports the database busy or locked under a concurrent writer.
func (r *Repo) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	b := retry.WithMaxRetries(5, retry.NewFibonacci(10*time.Millisecond))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return retryIfBusy(fmt.Errorf("error beginning transaction: %w", err))
		}

		if err := fn(tx); err != nil {
			tx.Rollback()
			return retryIfBusy(err)
		}
		if err := tx.Commit(); err != nil {
			return retryIfBusy(fmt.Errorf("error committing transaction: %w", err))
		}

		return nil
	})
}

// SQLITE_BUSY and SQLITE_LOCKED primary result codes.
const (
	codeBusy   = 5
	codeLocked = 6
)

func retryIfBusy(err error) error {
	if sqliteErr := (&sqlite.Error{}); errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case codeBusy, codeLocked:
			return retry.RetryableError(err)
		}
	}

	return err
}
