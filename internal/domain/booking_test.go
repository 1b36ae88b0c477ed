package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatusValid(t *testing.T) {
	for _, s := range []BookingStatus{
		BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted,
		BookingStatusCancelled, BookingStatusNoShow,
	} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, BookingStatus("paused").Valid())
	assert.False(t, BookingStatus("").Valid())
}

func TestBookingActive(t *testing.T) {
	deletedAt := time.Now()

	tests := []struct {
		name    string
		booking Booking
		want    bool
	}{
		{"confirmed", Booking{Status: BookingStatusConfirmed}, true},
		{"completed", Booking{Status: BookingStatusCompleted}, true},
		{"cancelled", Booking{Status: BookingStatusCancelled}, false},
		{"soft deleted", Booking{Status: BookingStatusConfirmed, DeletedAt: &deletedAt}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.booking.Active())
		})
	}
}

func TestDerivePaymentStatus(t *testing.T) {
	pkg := &BookingParticipant{PackageHours: d(1)}
	cash := &BookingParticipant{CashHours: d(1)}
	blended := &BookingParticipant{PackageHours: d(0.5), CashHours: d(0.5)}

	tests := []struct {
		name         string
		participants []*BookingParticipant
		want         PaymentStatus
	}{
		{"no participants", nil, PaymentStatusNone},
		{"all package", []*BookingParticipant{pkg, pkg}, PaymentStatusPackage},
		{"all cash", []*BookingParticipant{cash, cash}, PaymentStatusPaid},
		{"mixed members", []*BookingParticipant{pkg, cash}, PaymentStatusPartial},
		{"one blended member", []*BookingParticipant{blended}, PaymentStatusPartial},
		{"blended plus cash", []*BookingParticipant{blended, cash}, PaymentStatusPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DerivePaymentStatus(tt.participants))
		})
	}
}
