// Package store is the SQLite-backed persistence engine collaborating with
// the lifecycle dispatcher. Repositories call into the dispatcher at every
// extension point - before/after create, update and delete - supply the
// is-new flag and any partial-write field restriction, and refresh snapshots
// once a write is confirmed. The package also owns the ambient transaction
// and its post-commit callback list, which the engine uses for
// commit-deferred hooks.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fieldwatch/fieldwatch/internal/engine"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps the SQLite database and the dispatcher it reports lifecycle
// events to. Uses WAL mode for concurrent read access.
type Store struct {
	db  *sql.DB
	eng *engine.Dispatcher
}

// Open creates or opens a SQLite database at the given path and applies the
// schema. Idempotent - safe to call against an existing database.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string, eng *engine.Dispatcher) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// SQLite supports one writer at a time; a single pooled connection
	// avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, eng: eng}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries. Prefer the
// repository methods when one exists.
func (s *Store) DB() *sql.DB { return s.db }

// Dispatcher returns the lifecycle dispatcher the store reports to.
func (s *Store) Dispatcher() *engine.Dispatcher { return s.eng }

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// execer abstracts over the bare connection and an ambient transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the ambient transaction from ctx when one is active, else
// the bare connection. Repository writes inside BeginTx automatically join
// the transaction.
func (s *Store) conn(ctx context.Context) execer {
	if tx := TxFrom(ctx); tx != nil {
		return tx.tx
	}
	return s.db
}
