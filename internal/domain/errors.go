package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	// Booking errors
	ErrBookingNotFound   = errors.New("booking not found")
	ErrBookingDeleted    = errors.New("booking is deleted")
	ErrBookingNotDeleted = errors.New("booking is not deleted")

	// Validation errors
	ErrInvalidDate        = errors.New("invalid or missing date")
	ErrInvalidStartHour   = errors.New("start hour must be within the day")
	ErrInvalidDuration    = errors.New("duration must be greater than zero")
	ErrInvalidInstructor  = errors.New("invalid instructor id")
	ErrInvalidStudent     = errors.New("invalid student id")
	ErrInvalidService     = errors.New("invalid service id")
	ErrInvalidStatus      = errors.New("invalid booking status")
	ErrInvalidAmount      = errors.New("amount cannot be negative")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidHours       = errors.New("hours must be greater than zero")
	ErrDurationMismatch   = errors.New("bookings have different durations")
	ErrDateMismatch       = errors.New("bookings are on different dates")
	ErrMissingParticipant = errors.New("group booking requires at least one participant")

	// Conflict errors
	ErrSlotConflict     = errors.New("slot conflicts with an existing booking")
	ErrCapacityExceeded = errors.New("service participant capacity exceeded")
	ErrNoParkingSlot    = errors.New("no parking slot available")

	// Not-found errors
	ErrPackageNotFound = errors.New("package not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrServiceNotFound = errors.New("service not found")
	ErrPriceNotFound   = errors.New("no price configured for service and currency")

	// Financial errors
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrNoMatchingPackage   = errors.New("no active package matches this service")
	ErrPackageUnavailable  = errors.New("package no longer available")

	// Gone errors
	ErrUndoTokenGone = errors.New("undo token expired or already redeemed")

	// Integrity errors
	ErrLedgerInconsistent = errors.New("ledger and booking state are inconsistent")
)

// SuggestedSlot is one alternative free slot offered with a conflict
type SuggestedSlot struct {
	Date      time.Time       `json:"date"`
	StartHour decimal.Decimal `json:"start_hour"`
	Duration  decimal.Decimal `json:"duration"`
}

// ConflictDetails describes which existing booking blocked the request and,
// best-effort, up to a few free alternatives near it.
type ConflictDetails struct {
	BookingID   string          `json:"conflicting_booking_id,omitempty"`
	Date        time.Time       `json:"date"`
	StartHour   decimal.Decimal `json:"start_hour"`
	EndHour     decimal.Decimal `json:"end_hour"`
	Side        string          `json:"side,omitempty"` // for swaps: which side failed
	Suggestions []SuggestedSlot `json:"suggestions,omitempty"`
}

// SlotConflictError carries conflict diagnostics alongside ErrSlotConflict
type SlotConflictError struct {
	Details ConflictDetails
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot conflicts with booking %s (%s-%s)",
		e.Details.BookingID, e.Details.StartHour, e.Details.EndHour)
}

// Unwrap lets errors.Is match ErrSlotConflict
func (e *SlotConflictError) Unwrap() error {
	return ErrSlotConflict
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrPackageNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrServiceNotFound) ||
		errors.Is(err, ErrPriceNotFound) ||
		errors.Is(err, ErrBookingNotDeleted)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidStartHour) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidInstructor) ||
		errors.Is(err, ErrInvalidStudent) ||
		errors.Is(err, ErrInvalidService) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrInvalidHours) ||
		errors.Is(err, ErrDurationMismatch) ||
		errors.Is(err, ErrDateMismatch) ||
		errors.Is(err, ErrMissingParticipant) ||
		errors.Is(err, ErrBookingDeleted)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrSlotConflict) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrNoParkingSlot)
}

// IsFinancialError checks if the error is a financial error, distinguished
// from generic failures so clients can react specifically.
func IsFinancialError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrNoMatchingPackage) ||
		errors.Is(err, ErrPackageUnavailable)
}

// IsGoneError checks if the error marks an expired or consumed undo token
func IsGoneError(err error) bool {
	return errors.Is(err, ErrUndoTokenGone)
}
