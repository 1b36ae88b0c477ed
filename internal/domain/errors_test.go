package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotConflictErrorUnwrapsToSentinel(t *testing.T) {
	err := &SlotConflictError{Details: ConflictDetails{
		BookingID: "b-1", StartHour: d(9), EndHour: d(10),
	}}

	assert.ErrorIs(t, err, ErrSlotConflict)
	assert.True(t, IsConflictError(err))

	var conflictErr *SlotConflictError
	require.ErrorAs(t, fmt.Errorf("creating booking: %w", err), &conflictErr)
	assert.Equal(t, "b-1", conflictErr.Details.BookingID)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		matches func(error) bool
	}{
		{"not found", ErrBookingNotFound, IsNotFoundError},
		{"wrapped not found", fmt.Errorf("get: %w", ErrPackageNotFound), IsNotFoundError},
		{"validation", ErrInvalidDuration, IsValidationError},
		{"conflict", ErrCapacityExceeded, IsConflictError},
		{"no parking", ErrNoParkingSlot, IsConflictError},
		{"financial", ErrInsufficientBalance, IsFinancialError},
		{"package drained", ErrPackageUnavailable, IsFinancialError},
		{"gone", ErrUndoTokenGone, IsGoneError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.matches(tt.err))
		})
	}

	// The categories are disjoint
	assert.False(t, IsValidationError(ErrBookingNotFound))
	assert.False(t, IsConflictError(errors.New("plain failure")))
	assert.False(t, IsFinancialError(ErrSlotConflict))
}
