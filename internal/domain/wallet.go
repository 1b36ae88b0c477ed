package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a wallet ledger entry
type TransactionType string

const (
	TransactionTypeDeposit               TransactionType = "deposit"
	TransactionTypeBookingCharge         TransactionType = "booking_charge"
	TransactionTypeBookingDeletedRefund  TransactionType = "booking_deleted_refund"
	TransactionTypeBookingCancelRefund   TransactionType = "booking_cancelled_refund"
	TransactionTypeBookingRestoreCharge  TransactionType = "booking_restore_charge"
	TransactionTypeUndoDeleteReversal    TransactionType = "undo_delete_reversal"
	TransactionTypePackagePurchase       TransactionType = "package_purchase"
)

// String returns the string representation of the transaction type
func (t TransactionType) String() string {
	return string(t)
}

// WalletTransaction is one signed monetary ledger entry. Entries are
// append-only; a reversal is a new equal-and-opposite entry, never an edit.
// A user's balance in a currency is the signed sum of their entries.
type WalletTransaction struct {
	ID                string
	UserID            string
	Amount            decimal.Decimal // signed: charges negative, refunds positive
	Currency          string
	Type              TransactionType
	Status            string
	RelatedEntityType string
	RelatedEntityID   string
	Description       string
	CreatedBy         string
	CreatedAt         time.Time
}

// RelatedEntityBooking is the entity type linking ledger entries to bookings
const RelatedEntityBooking = "booking"

// RelatedEntityPackage is the entity type linking ledger entries to packages
const RelatedEntityPackage = "customer_package"
