// Package dbx provides the small database abstractions shared by
// repositories: DBTX, implemented by both *sql.DB and *sql.Tx, a WithTx
// helper, and Runner, which lets services stay agnostic of whether a real
// database sits behind the repositories.
package dbx

import (
	"context"
	"database/sql"
	"sync"
)

// DBTX is the subset of database/sql used by our repos.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc is the body of a transaction.
type TxFunc func(ctx context.Context, tx DBTX) error

// Runner hands out database handles to services.
type Runner interface {
	// Conn returns the non-transactional handle.
	Conn() DBTX
	// WithTx runs fn inside a transaction.
	WithTx(ctx context.Context, fn TxFunc) error
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// SQLRunner is a Runner over a *sql.DB.
type SQLRunner struct {
	db *sql.DB
}

func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db}
}

func (r *SQLRunner) Conn() DBTX { return r.db }

func (r *SQLRunner) WithTx(ctx context.Context, fn TxFunc) error {
	return WithTx(ctx, r.db, nil, fn)
}

// LocalRunner serializes transactions in-process for repositories that keep
// their state in memory. Conn and the tx handle are nil; memory repositories
// ignore them. Repositories must not call back into the runner.
type LocalRunner struct {
	mu sync.Mutex
}

func NewLocalRunner() *LocalRunner {
	return &LocalRunner{}
}

func (r *LocalRunner) Conn() DBTX { return nil }

func (r *LocalRunner) WithTx(ctx context.Context, fn TxFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, nil)
}
