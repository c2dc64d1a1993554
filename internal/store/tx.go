package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Tx wraps a database transaction with a post-commit callback list. The
// lifecycle engine appends commit-deferred hooks and snapshot refreshes
// here; callbacks run in registration order after a successful commit and
// are discarded wholesale on rollback.
type Tx struct {
	tx        *sql.Tx
	callbacks []func(context.Context) error
	done      bool
}

// BeginTx starts a transaction and returns a context carrying it. Writes
// made through the store with that context join the transaction, and
// commit-deferred hooks dispatched under it run only after Commit succeeds.
func (s *Store) BeginTx(ctx context.Context) (context.Context, *Tx, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ctx, nil, fmt.Errorf("begin transaction: %w", err)
	}
	tx := &Tx{tx: sqlTx}
	return WithTx(ctx, tx), tx, nil
}

// OnCommit registers fn to run after the transaction commits successfully.
// Callbacks never run on rollback.
func (t *Tx) OnCommit(fn func(context.Context) error) {
	t.callbacks = append(t.callbacks, fn)
}

// Commit commits the transaction, then runs the post-commit callbacks in
// registration order. A commit failure returns immediately and no callback
// runs. Callback faults do not undo the already-durable write; they are
// collected into a *CommitHookError so the caller can report them while
// treating the write itself as succeeded.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true

	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	var faults []error
	for _, fn := range t.callbacks {
		if err := fn(ctx); err != nil {
			faults = append(faults, err)
		}
	}
	t.callbacks = nil
	if len(faults) > 0 {
		return &CommitHookError{Err: errors.Join(faults...)}
	}
	return nil
}

// Rollback aborts the transaction and discards every registered callback.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.callbacks = nil
	return t.tx.Rollback()
}

// CommitHookError reports faults from post-commit callbacks. The commit
// itself succeeded; the wrapped faults are best-effort failures that
// happened after the write became durable.
type CommitHookError struct {
	Err error
}

// Error implements the error interface.
func (e *CommitHookError) Error() string {
	return fmt.Sprintf("post-commit hooks failed (write is durable): %v", e.Err)
}

// Unwrap returns the joined callback faults.
func (e *CommitHookError) Unwrap() error { return e.Err }

type txCtxKey struct{}

// WithTx returns a context carrying the transaction as the ambient one.
func WithTx(ctx context.Context, tx *Tx) context.Context {
	return context.WithValue(ctx, txCtxKey{}, tx)
}

// TxFrom returns the ambient transaction, or nil.
func TxFrom(ctx context.Context) *Tx {
	tx, _ := ctx.Value(txCtxKey{}).(*Tx)
	return tx
}

// AmbientTx adapts the context-carried transaction to the engine's
// transaction-manager contract.
type AmbientTx struct{}

// Active implements engine.TxManager.
func (AmbientTx) Active(ctx context.Context) bool {
	tx := TxFrom(ctx)
	return tx != nil && !tx.done
}

// OnCommit implements engine.TxManager. Callers check Active first; an
// OnCommit without an ambient transaction is an engine bug, so it panics.
func (AmbientTx) OnCommit(ctx context.Context, fn func(context.Context) error) {
	tx := TxFrom(ctx)
	if tx == nil {
		panic("store: OnCommit without an ambient transaction")
	}
	tx.OnCommit(fn)
}
