package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TxManager runs a function inside a database transaction, committing on nil
// and rolling back on error. Services take this instead of a pool so tests
// can run the function without a database.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	// Savepoint runs fn in a nested transaction of tx. A failing statement
	// inside fn aborts only the savepoint, leaving tx usable.
	Savepoint(ctx context.Context, tx pgx.Tx, fn func(tx pgx.Tx) error) error
}

// TxBeginner is the transaction entry point of the database wrapper
type TxBeginner interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// PgxTxManager implements TxManager on a pgx connection pool
type PgxTxManager struct {
	db TxBeginner
}

// NewPgxTxManager creates a new PgxTxManager
func NewPgxTxManager(db TxBeginner) *PgxTxManager {
	return &PgxTxManager{db: db}
}

// RunInTx executes fn in a transaction
func (m *PgxTxManager) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := m.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Savepoint executes fn in a nested transaction (a SQL savepoint)
func (m *PgxTxManager) Savepoint(ctx context.Context, tx pgx.Tx, fn func(tx pgx.Tx) error) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	if err := fn(sp); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}

	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

// Ensure PgxTxManager implements TxManager
var _ TxManager = (*PgxTxManager)(nil)
