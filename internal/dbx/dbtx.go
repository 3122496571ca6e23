// Package dbx provides the unit-of-work plumbing shared by repositories:
// a minimal interface (DBTX) implemented by *sql.DB, *sql.Tx and *Tx, an
// explicit transaction handle, and a helper that runs a function inside a
// transaction.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/reviewhub/internal/common"
)

// DBTX is the subset of database/sql used by our repos.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txState int

const (
	txActive txState = iota
	txCommitted
	txRolledBack
)

// Tx is an explicit transaction handle. Rollback is safe to defer: after a
// successful Commit it does nothing. Committing twice, or committing after a
// rollback, returns common.ErrTransactionState.
type Tx struct {
	tx    *sql.Tx
	state txState
}

// Begin starts a transaction. Cancelling ctx rolls it back.
func Begin(ctx context.Context, db *sql.DB, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{tx: tx}, nil
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

func (t *Tx) Commit() error {
	if t.state != txActive {
		return fmt.Errorf("commit: %w", common.ErrTransactionState)
	}
	t.state = txCommitted
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	if t.state == txCommitted {
		return nil
	}
	if t.state == txRolledBack {
		return nil
	}
	t.state = txRolledBack
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    return m.Users(tx).Update(ctx, user)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := Begin(ctx, db, opts)
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
