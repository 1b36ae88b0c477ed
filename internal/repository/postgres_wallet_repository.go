package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/plannivo/booking-engine/internal/domain"
)

// PostgresWalletRepository implements WalletRepository using PostgreSQL.
// The wallet is a pure ledger: balances are derived, never stored.
type PostgresWalletRepository struct {
	db DBTX
}

// NewPostgresWalletRepository creates a new PostgresWalletRepository
func NewPostgresWalletRepository(db DBTX) *PostgresWalletRepository {
	return &PostgresWalletRepository{db: db}
}

// WithTx returns a copy bound to the given transaction
func (r *PostgresWalletRepository) WithTx(tx pgx.Tx) WalletRepository {
	return &PostgresWalletRepository{db: tx}
}

// Record appends one immutable ledger entry. When allowNegative is false and
// the entry would take the balance below zero it fails without writing.
// The balance check and the insert see the same snapshot because callers
// run this inside the enclosing transaction.
func (r *PostgresWalletRepository) Record(ctx context.Context, txn *domain.WalletTransaction, allowNegative bool) error {
	if !allowNegative && txn.Amount.IsNegative() {
		balance, err := r.Balance(ctx, txn.UserID, txn.Currency)
		if err != nil {
			return err
		}
		if balance.Add(txn.Amount).IsNegative() {
			return domain.ErrInsufficientBalance
		}
	}

	query := `
		INSERT INTO wallet_transactions (
			id, user_id, amount, currency, type, status,
			related_entity_type, related_entity_id, description,
			created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		txn.ID, txn.UserID, txn.Amount, txn.Currency, txn.Type.String(),
		txn.Status, txn.RelatedEntityType, nullString(txn.RelatedEntityID),
		txn.Description, txn.CreatedBy, txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record wallet transaction: %w", err)
	}
	return nil
}

// Balance returns the signed sum of the user's ledger entries in a currency
func (r *PostgresWalletRepository) Balance(ctx context.Context, userID, currency string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM wallet_transactions
		WHERE user_id = $1 AND currency = $2 AND status = 'completed'
	`

	var balance decimal.Decimal
	if err := r.db.QueryRow(ctx, query, userID, currency).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute wallet balance: %w", err)
	}
	return balance, nil
}

// Ensure PostgresWalletRepository implements WalletRepository
var _ WalletRepository = (*PostgresWalletRepository)(nil)
