package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/plannivo/booking-engine/internal/domain"
)

// DBTX is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so the same
// repository methods run standalone or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BookingRepository persists bookings, participants and delete audits
type BookingRepository interface {
	// WithTx returns a copy of the repository bound to the transaction
	WithTx(tx pgx.Tx) BookingRepository

	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	// GetByIDForUpdate takes an exclusive row lock; must run inside a transaction
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
	// UpdateSlot relocates one booking; storage conflicts surface as ErrSlotConflict
	UpdateSlot(ctx context.Context, id string, slot domain.Slot, updatedBy string) error
	// SwapSlots relocates two bookings in one statement so no intermediate
	// state with only one move applied is ever durable
	SwapSlots(ctx context.Context, idA, idB string, slotA, slotB domain.Slot, updatedBy string) error
	// DeferOverlapConstraint defers the no-overlap exclusion constraint to
	// commit time for the current transaction
	DeferOverlapConstraint(ctx context.Context) error

	// FindConflict returns the first active booking overlapping the candidate
	// interval, nil when the slot is free. Must run on the transaction's
	// connection to close the check-then-act race.
	FindConflict(ctx context.Context, instructorID string, date time.Time, start, duration decimal.Decimal, excludeIDs []string) (*domain.Booking, error)
	ListActiveByInstructorDate(ctx context.Context, instructorID string, date time.Time) ([]*domain.Booking, error)
	CountAtExactSlot(ctx context.Context, slot domain.Slot) (int, error)

	SoftDelete(ctx context.Context, id, deletedBy, reason string, at time.Time) error
	ClearDeleted(ctx context.Context, id string, status domain.BookingStatus, updatedBy string) error
	LatestDeleted(ctx context.Context) (*domain.Booking, error)

	List(ctx context.Context, filter BookingFilter) ([]*domain.Booking, error)

	CreateParticipants(ctx context.Context, participants []*domain.BookingParticipant) error
	ListParticipants(ctx context.Context, bookingID string) ([]*domain.BookingParticipant, error)

	RecordDeleteAudit(ctx context.Context, audit *domain.DeleteAudit) error
	LatestDeleteAudit(ctx context.Context, bookingID string) (*domain.DeleteAudit, error)
}

// PackageRepository persists prepaid hour packages
type PackageRepository interface {
	WithTx(tx pgx.Tx) PackageRepository

	Create(ctx context.Context, pkg *domain.CustomerPackage) error
	GetByID(ctx context.Context, id string) (*domain.CustomerPackage, error)
	// FindActiveForUser returns the earliest-purchased active package with
	// remaining hours that matches the service name, or ErrNoMatchingPackage
	FindActiveForUser(ctx context.Context, userID, serviceName string) (*domain.CustomerPackage, error)
	// Consume deducts min(requested, remaining) hours with an optimistic
	// condition-qualified update; zero rows affected means the package was
	// taken concurrently and the enclosing operation must fail
	Consume(ctx context.Context, id string, requested decimal.Decimal) (decimal.Decimal, error)
	// Restore returns hours to the package, clamped to [0, total]
	Restore(ctx context.Context, id string, hours decimal.Decimal) error
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
}

// WalletRepository appends to and sums the monetary ledger
type WalletRepository interface {
	WithTx(tx pgx.Tx) WalletRepository

	// Record appends one immutable entry. With allowNegative=false it fails
	// with ErrInsufficientBalance when the resulting balance would go below
	// zero; refunds always pass allowNegative=true.
	Record(ctx context.Context, txn *domain.WalletTransaction, allowNegative bool) error
	Balance(ctx context.Context, userID, currency string) (decimal.Decimal, error)
}

// UserRepository resolves and auto-creates customer accounts
type UserRepository interface {
	WithTx(tx pgx.Tx) UserRepository

	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateStudent(ctx context.Context, user *domain.User) error
}

// CatalogRepository reads the service catalog and prices
type CatalogRepository interface {
	GetService(ctx context.Context, id string) (*domain.Service, error)
	// HourlyRate is the price lookup collaborator: service + currency → rate
	HourlyRate(ctx context.Context, serviceID, currency string) (decimal.Decimal, error)
}
