package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/alexanderramin/timekeep/internal/db"
)

// FailOnNthExecUoW is a test UoW that injects an error on the Nth ExecContext
// call within a transaction. This enables rollback integration tests by
// simulating failures at precise points in multi-write operations.
//
// ExecContext calls are counted starting at 1. QueryContext and QueryRowContext
// are not counted (reads pass through normally).
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn db.TxFunc) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	wrapped := &failOnNthExec{DBTX: tx, failOn: u.FailOn, err: u.Err}
	if fnErr := fn(ctx, wrapped); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

type failOnNthExec struct {
	db.DBTX
	count  atomic.Int32
	failOn int32
	err    error
}

func (f *failOnNthExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	n := f.count.Add(1)
	if n == f.failOn {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}

// FlakyUoW fails the first Failures transactions with Err before running fn,
// then delegates to a real unit of work.
type FlakyUoW struct {
	Inner    db.UnitOfWork
	Failures int32
	Err      error

	calls atomic.Int32
}

func (u *FlakyUoW) WithinTx(ctx context.Context, fn db.TxFunc) error {
	if n := u.calls.Add(1); n <= u.Failures {
		return u.Err
	}
	return u.Inner.WithinTx(ctx, fn)
}

// Calls returns how many transactions were attempted.
func (u *FlakyUoW) Calls() int {
	return int(u.calls.Load())
}

// LostAckUoW commits the first transaction and then reports Err, simulating
// a write whose acknowledgement was lost. Later transactions behave normally.
type LostAckUoW struct {
	Inner db.UnitOfWork
	Err   error

	calls atomic.Int32
}

func (u *LostAckUoW) WithinTx(ctx context.Context, fn db.TxFunc) error {
	err := u.Inner.WithinTx(ctx, fn)
	if u.calls.Add(1) == 1 && err == nil {
		return u.Err
	}
	return err
}
