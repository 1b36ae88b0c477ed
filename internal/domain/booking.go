package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusNoShow    BookingStatus = "no_show"
)

// String returns the string representation of the status
func (s BookingStatus) String() string {
	return string(s)
}

// Valid reports whether the status is one of the known states
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted,
		BookingStatusCancelled, BookingStatusNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether no further participant-driven transitions apply
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow:
		return true
	}
	return false
}

// IsCompletedLike reports whether the status counts as a finished lesson for
// commission and rating-reminder purposes.
func (s BookingStatus) IsCompletedLike() bool {
	return s == BookingStatusCompleted
}

// PaymentStatus represents how a booking was settled
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPackage PaymentStatus = "package"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusNone    PaymentStatus = "none"
)

// String returns the string representation of the payment status
func (s PaymentStatus) String() string {
	return string(s)
}

// RefundType classifies the reconciliation outcome of a delete or cancel.
// This classification, not the mere presence of a package link, decides
// whether cash is refunded: a package booking whose hour restoration failed
// is made whole by hours only, never hours plus cash.
type RefundType string

const (
	RefundTypePackageHoursRestored RefundType = "package_hours_restored"
	RefundTypePackageNoRefund      RefundType = "package_booking_no_refund"
	RefundTypeBalanceRefund        RefundType = "balance_refund"
	RefundTypeNone                 RefundType = "none"
)

// Booking is one scheduled engagement between an instructor and a customer.
// StartHour and Duration are fractional hours (9.5 = 09:30, 0.5 = 30 min).
type Booking struct {
	ID                string
	Date              time.Time
	StartHour         decimal.Decimal
	Duration          decimal.Decimal
	InstructorUserID  string
	StudentUserID     string
	ServiceID         string
	Status            BookingStatus
	PaymentStatus     PaymentStatus
	Amount            decimal.Decimal
	FinalAmount       decimal.Decimal
	Currency          string
	CustomerPackageID string          // empty when not package-funded
	PackageHours      decimal.Decimal // hours actually consumed from the package at settlement
	SharedSlot        bool            // capacity-capped group lesson slots may coincide exactly
	Notes             string
	DeletedAt         *time.Time
	DeletedBy         string
	DeleteReason      string
	CreatedBy         string
	UpdatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EndHour returns the exclusive end of the booked interval
func (b *Booking) EndHour() decimal.Decimal {
	return b.StartHour.Add(b.Duration)
}

// IsDeleted reports whether the booking is soft-deleted
func (b *Booking) IsDeleted() bool {
	return b.DeletedAt != nil
}

// Active reports whether the booking occupies schedule space: not cancelled
// and not soft-deleted.
func (b *Booking) Active() bool {
	return b.Status != BookingStatusCancelled && !b.IsDeleted()
}

// BookingParticipant is one person's stake in a (possibly group) booking.
// Participants are written in the same transaction that creates the booking
// and are immutable afterwards; deletion cascades by booking.
type BookingParticipant struct {
	ID                string
	BookingID         string
	UserID            string
	IsPrimary         bool
	PaymentStatus     PaymentStatus
	Amount            decimal.Decimal
	CustomerPackageID string
	PackageHours      decimal.Decimal
	CashHours         decimal.Decimal
}

// DerivePaymentStatus computes the parent booking's payment status from its
// participants: package when everyone settled fully by package, partial when
// some did, paid otherwise.
func DerivePaymentStatus(participants []*BookingParticipant) PaymentStatus {
	if len(participants) == 0 {
		return PaymentStatusNone
	}
	allPackage := true
	anyPackage := false
	for _, p := range participants {
		if p.PackageHours.IsPositive() {
			anyPackage = true
		}
		if p.CashHours.IsPositive() || !p.PackageHours.IsPositive() {
			allPackage = false
		}
	}
	switch {
	case allPackage:
		return PaymentStatusPackage
	case anyPackage:
		return PaymentStatusPartial
	default:
		return PaymentStatusPaid
	}
}
