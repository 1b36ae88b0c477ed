package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plannivo/booking-engine/internal/domain"
)

var testDate = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func validCreateInput() CreateBookingInput {
	return CreateBookingInput{
		Date:             testDate,
		StartHour:        dec(9),
		Duration:         dec(1.5),
		InstructorUserID: "instructor-1",
		StudentUserID:    "student-1",
		ServiceID:        "service-1",
		ActorID:          "actor-1",
		ActorRole:        "student",
	}
}

func TestCreateBooking_CashPath(t *testing.T) {
	deps := newTestDeps()
	svc := deps.bookingService()

	result, err := svc.CreateBooking(context.Background(), validCreateInput())
	require.NoError(t, err)

	b := result.Booking
	assert.Equal(t, domain.BookingStatusConfirmed, b.Status)
	assert.Equal(t, domain.PaymentStatusPaid, b.PaymentStatus)
	assert.True(t, b.Amount.Equal(dec(75)), "1.5h at 50/h")
	assert.True(t, b.FinalAmount.Equal(dec(75)))
	assert.Empty(t, b.CustomerPackageID)

	require.Len(t, deps.wallets.recorded, 1)
	txn := deps.wallets.recorded[0]
	assert.True(t, txn.Amount.Equal(dec(-75)), "charge is a negative ledger entry")
	assert.Equal(t, domain.TransactionTypeBookingCharge, txn.Type)
	assert.Equal(t, b.ID, txn.RelatedEntityID)

	assert.Len(t, deps.events.byType(domain.BookingEventCreated), 1)
}

func TestCreateBooking_ZeroAmountSkipsCharge(t *testing.T) {
	deps := newTestDeps()
	svc := deps.bookingService()

	input := validCreateInput()
	zero := 0.0
	input.Amount = decimalPtr(zero)

	result, err := svc.CreateBooking(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusPaid, result.Booking.PaymentStatus)
	assert.Empty(t, deps.wallets.recorded)
}

func TestCreateBooking_PackageFullCoverage(t *testing.T) {
	deps := newTestDeps()
	deps.packages.FindActiveForUserFunc = func(_ context.Context, userID, serviceName string) (*domain.CustomerPackage, error) {
		return &domain.CustomerPackage{
			ID: "pkg-1", UserID: userID,
			TotalHours: dec(10), UsedHours: dec(2), RemainingHours: dec(8),
			PurchasePrice: dec(400), Status: domain.PackageStatusActive,
		}, nil
	}
	deps.packages.ConsumeFunc = func(_ context.Context, id string, requested decimal.Decimal) (decimal.Decimal, error) {
		return requested, nil
	}
	svc := deps.bookingService()

	input := validCreateInput()
	input.UsePackage = true

	result, err := svc.CreateBooking(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusPackage, result.Booking.PaymentStatus)
	assert.Equal(t, "pkg-1", result.Booking.CustomerPackageID)
	assert.True(t, result.Booking.FinalAmount.IsZero())
	assert.Empty(t, deps.wallets.recorded, "package bookings charge no cash")
}

func TestCreateBooking_PackageShortfallFails(t *testing.T) {
	deps := newTestDeps()
	deps.packages.FindActiveForUserFunc = func(context.Context, string, string) (*domain.CustomerPackage, error) {
		return &domain.CustomerPackage{
			ID: "pkg-1", TotalHours: dec(10), RemainingHours: dec(0.5),
			PurchasePrice: dec(400), Status: domain.PackageStatusActive,
		}, nil
	}
	deps.packages.ConsumeFunc = func(context.Context, string, decimal.Decimal) (decimal.Decimal, error) {
		return dec(0.5), nil
	}
	svc := deps.bookingService()

	input := validCreateInput()
	input.UsePackage = true

	_, err := svc.CreateBooking(context.Background(), input)
	assert.ErrorIs(t, err, domain.ErrPackageUnavailable,
		"single bookings require full package coverage")
}

func TestCreateBooking_NoMatchingPackage(t *testing.T) {
	deps := newTestDeps()
	svc := deps.bookingService()

	input := validCreateInput()
	input.UsePackage = true

	_, err := svc.CreateBooking(context.Background(), input)
	assert.ErrorIs(t, err, domain.ErrNoMatchingPackage,
		"no silent fallback to cash for single bookings")
}

func TestCreateBooking_ConflictWithSuggestions(t *testing.T) {
	existing := &domain.Booking{
		ID: "other", Date: testDate, StartHour: dec(9), Duration: dec(1),
		InstructorUserID: "instructor-1", Status: domain.BookingStatusConfirmed,
	}
	deps := newTestDeps()
	deps.bookings.FindConflictFunc = func(context.Context, string, time.Time, decimal.Decimal, decimal.Decimal, []string) (*domain.Booking, error) {
		return existing, nil
	}
	deps.bookings.ListActiveByInstructorDateFunc = func(context.Context, string, time.Time) ([]*domain.Booking, error) {
		return []*domain.Booking{existing}, nil
	}
	svc := deps.bookingService()

	input := validCreateInput()
	input.StartHour = dec(9.5)
	input.Duration = dec(0.5)

	_, err := svc.CreateBooking(context.Background(), input)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSlotConflict)

	var conflictErr *domain.SlotConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "other", conflictErr.Details.BookingID)
	assert.NotEmpty(t, conflictErr.Details.Suggestions)
	for _, s := range conflictErr.Details.Suggestions {
		assert.False(t, domain.Overlaps(s.StartHour, s.Duration, existing.StartHour, existing.Duration),
			"suggestions must not overlap the conflicting booking")
	}
}

func TestCreateBooking_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateBookingInput)
		wantErr error
	}{
		{"missing date", func(i *CreateBookingInput) { i.Date = time.Time{} }, domain.ErrInvalidDate},
		{"zero duration", func(i *CreateBookingInput) { i.Duration = decimal.Zero }, domain.ErrInvalidDuration},
		{"negative start", func(i *CreateBookingInput) { i.StartHour = dec(-1) }, domain.ErrInvalidStartHour},
		{"past midnight", func(i *CreateBookingInput) { i.StartHour = dec(23.5); i.Duration = dec(1) }, domain.ErrInvalidStartHour},
		{"missing instructor", func(i *CreateBookingInput) { i.InstructorUserID = "" }, domain.ErrInvalidInstructor},
		{"missing student", func(i *CreateBookingInput) { i.StudentUserID = "" }, domain.ErrInvalidStudent},
		{"missing service", func(i *CreateBookingInput) { i.ServiceID = "" }, domain.ErrInvalidService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps()
			input := validCreateInput()
			tt.mutate(&input)

			_, err := deps.bookingService().CreateBooking(context.Background(), input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateBooking_CapacityExceeded(t *testing.T) {
	deps := newTestDeps()
	deps.catalog.GetServiceFunc = func(_ context.Context, id string) (*domain.Service, error) {
		return &domain.Service{ID: id, Name: "group surf", MaxParticipants: 2}, nil
	}
	deps.bookings.CountAtExactSlotFunc = func(context.Context, domain.Slot) (int, error) {
		return 2, nil
	}
	svc := deps.bookingService()

	_, err := svc.CreateBooking(context.Background(), validCreateInput())
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
}

func TestCreateBooking_CappedServiceMarksSharedSlot(t *testing.T) {
	deps := newTestDeps()
	deps.catalog.GetServiceFunc = func(_ context.Context, id string) (*domain.Service, error) {
		return &domain.Service{ID: id, Name: "group surf", MaxParticipants: 4}, nil
	}
	svc := deps.bookingService()

	result, err := svc.CreateBooking(context.Background(), validCreateInput())
	require.NoError(t, err)
	assert.True(t, result.Booking.SharedSlot)
}

func TestCreateGroupBooking_DegradesToCash(t *testing.T) {
	deps := newTestDeps()
	deps.packages.FindActiveForUserFunc = func(_ context.Context, userID, _ string) (*domain.CustomerPackage, error) {
		if userID == "student-1" {
			return &domain.CustomerPackage{
				ID: "pkg-1", TotalHours: dec(10), RemainingHours: dec(10),
				PurchasePrice: dec(500), Status: domain.PackageStatusActive,
			}, nil
		}
		return nil, domain.ErrNoMatchingPackage
	}
	deps.packages.ConsumeFunc = func(_ context.Context, _ string, requested decimal.Decimal) (decimal.Decimal, error) {
		return requested, nil
	}
	svc := deps.bookingService()

	input := CreateGroupBookingInput{
		CreateBookingInput: validCreateInput(),
		Participants: []ParticipantInput{
			{UserID: "student-1", UsePackage: true},
			{UserID: "student-2", UsePackage: true},
		},
	}

	result, err := svc.CreateGroupBooking(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, []string{"student-2"}, result.Degradations)
	assert.Equal(t, domain.PaymentStatusPartial, result.Booking.PaymentStatus,
		"one package participant and one cash participant")

	require.Len(t, result.Participants, 2)
	assert.Equal(t, domain.PaymentStatusPackage, result.Participants[0].PaymentStatus)
	assert.Equal(t, domain.PaymentStatusPaid, result.Participants[1].PaymentStatus)

	// Only the degraded participant pays cash
	require.Len(t, deps.wallets.recorded, 1)
	assert.Equal(t, "student-2", deps.wallets.recorded[0].UserID)
}

func TestCreateGroupBooking_AllPackage(t *testing.T) {
	deps := newTestDeps()
	deps.packages.FindActiveForUserFunc = func(_ context.Context, userID, _ string) (*domain.CustomerPackage, error) {
		return &domain.CustomerPackage{
			ID: "pkg-" + userID, TotalHours: dec(10), RemainingHours: dec(10),
			PurchasePrice: dec(500), Status: domain.PackageStatusActive,
		}, nil
	}
	deps.packages.ConsumeFunc = func(_ context.Context, _ string, requested decimal.Decimal) (decimal.Decimal, error) {
		return requested, nil
	}
	svc := deps.bookingService()

	input := CreateGroupBookingInput{
		CreateBookingInput: validCreateInput(),
		Participants: []ParticipantInput{
			{UserID: "student-1", UsePackage: true},
			{UserID: "student-2", UsePackage: true},
		},
	}

	result, err := svc.CreateGroupBooking(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPackage, result.Booking.PaymentStatus)
	assert.Empty(t, deps.wallets.recorded)
}

func TestCreateGroupBooking_NoParticipants(t *testing.T) {
	deps := newTestDeps()
	input := CreateGroupBookingInput{CreateBookingInput: validCreateInput()}

	_, err := deps.bookingService().CreateGroupBooking(context.Background(), input)
	assert.ErrorIs(t, err, domain.ErrMissingParticipant)
}

func TestCreateCalendarBooking_AutoCreatesStudent(t *testing.T) {
	deps := newTestDeps()
	var created *domain.User
	deps.users.CreateStudentFunc = func(_ context.Context, u *domain.User) error {
		created = u
		return nil
	}
	svc := deps.bookingService()

	input := CreateCalendarBookingInput{
		CreateBookingInput: validCreateInput(),
		Email:              "new@example.com",
		FirstName:          "New",
		LastName:           "Customer",
	}
	input.StudentUserID = ""

	result, err := svc.CreateCalendarBooking(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "new@example.com", created.Email)
	assert.Equal(t, created.ID, result.Booking.StudentUserID)
}

func TestCreateCalendarBooking_KnownEmailReusesAccount(t *testing.T) {
	deps := newTestDeps()
	deps.users.FindByEmailFunc = func(context.Context, string) (*domain.User, error) {
		return &domain.User{ID: "existing-user", Email: "known@example.com"}, nil
	}
	deps.users.CreateStudentFunc = func(context.Context, *domain.User) error {
		t.Fatal("must not create a student for a known email")
		return nil
	}
	svc := deps.bookingService()

	input := CreateCalendarBookingInput{
		CreateBookingInput: validCreateInput(),
		Email:              "known@example.com",
	}
	input.StudentUserID = ""

	result, err := svc.CreateCalendarBooking(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "existing-user", result.Booking.StudentUserID)
}

func TestCreateCalendarBooking_AllowsPartialSettlement(t *testing.T) {
	deps := newTestDeps()
	deps.users.FindByEmailFunc = func(context.Context, string) (*domain.User, error) {
		return &domain.User{ID: "student-1"}, nil
	}
	deps.packages.FindActiveForUserFunc = func(context.Context, string, string) (*domain.CustomerPackage, error) {
		return &domain.CustomerPackage{
			ID: "pkg-1", TotalHours: dec(10), RemainingHours: dec(0.5),
			PurchasePrice: dec(500), Status: domain.PackageStatusActive,
		}, nil
	}
	deps.packages.ConsumeFunc = func(context.Context, string, decimal.Decimal) (decimal.Decimal, error) {
		return dec(0.5), nil
	}
	svc := deps.bookingService()

	input := CreateCalendarBookingInput{
		CreateBookingInput: validCreateInput(),
		Email:              "known@example.com",
	}
	input.UsePackage = true

	result, err := svc.CreateCalendarBooking(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusPartial, result.Booking.PaymentStatus)
	// 1h uncovered at the blended rate 500/10 = 50/h
	assert.True(t, result.Booking.FinalAmount.Equal(dec(50)), "got %s", result.Booking.FinalAmount)
	require.Len(t, deps.wallets.recorded, 1)
	assert.True(t, deps.wallets.recorded[0].Amount.Equal(dec(-50)))
}

func confirmedCashBooking() *domain.Booking {
	return &domain.Booking{
		ID: "b-1", Date: testDate, StartHour: dec(9), Duration: dec(1),
		InstructorUserID: "instructor-1", StudentUserID: "student-1",
		ServiceID: "service-1", Status: domain.BookingStatusConfirmed,
		PaymentStatus: domain.PaymentStatusPaid,
		Amount:        dec(80), FinalAmount: dec(80), Currency: "EUR",
	}
}

func TestUpdateBooking_FirstCompletionSideEffects(t *testing.T) {
	booking := confirmedCashBooking()
	booking.PaymentStatus = domain.PaymentStatusPackage
	booking.CustomerPackageID = "pkg-1"

	deps := newTestDeps()
	deps.bookings.GetByIDForUpdateFunc = func(context.Context, string) (*domain.Booking, error) {
		return booking, nil
	}
	touched := false
	deps.packages.TouchLastUsedFunc = func(_ context.Context, id string, _ time.Time) error {
		touched = true
		assert.Equal(t, "pkg-1", id)
		return nil
	}
	deps.packages.ConsumeFunc = func(context.Context, string, decimal.Decimal) (decimal.Decimal, error) {
		t.Fatal("completion must not re-deduct package hours")
		return decimal.Zero, nil
	}
	svc := deps.bookingService()

	completed := domain.BookingStatusCompleted
	_, err := svc.UpdateBooking(context.Background(), "b-1", UpdateBookingInput{
		Status: &completed, ActorID: "actor-1",
	})
	require.NoError(t, err)

	assert.True(t, touched)
	assert.Len(t, deps.events.byType(domain.BookingEventRatingReminder), 1)
	assert.Len(t, deps.events.byType(domain.BookingEventCommission), 1)
}

func TestUpdateBooking_SecondCompletionNoSideEffects(t *testing.T) {
	booking := confirmedCashBooking()
	booking.Status = domain.BookingStatusCompleted

	deps := newTestDeps()
	deps.bookings.GetByIDForUpdateFunc = func(context.Context, string) (*domain.Booking, error) {
		return booking, nil
	}
	svc := deps.bookingService()

	completed := domain.BookingStatusCompleted
	_, err := svc.UpdateBooking(context.Background(), "b-1", UpdateBookingInput{
		Status: &completed, ActorID: "actor-1",
	})
	require.NoError(t, err)
	assert.Empty(t, deps.events.byType(domain.BookingEventRatingReminder))
	assert.Empty(t, deps.events.byType(domain.BookingEventCommission))
}

func TestUpdateBooking_SlotChangeChecksConflict(t *testing.T) {
	booking := confirmedCashBooking()

	deps := newTestDeps()
	deps.bookings.GetByIDForUpdateFunc = func(context.Context, string) (*domain.Booking, error) {
		return booking, nil
	}
	var gotExclude []string
	deps.bookings.FindConflictFunc = func(_ context.Context, _ string, _ time.Time, _, _ decimal.Decimal, exclude []string) (*domain.Booking, error) {
		gotExclude = exclude
		return nil, nil
	}
	svc := deps.bookingService()

	newStart := dec(14)
	_, err := svc.UpdateBooking(context.Background(), "b-1", UpdateBookingInput{
		StartHour: &newStart, ActorID: "actor-1",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b-1"}, gotExclude, "the booking being moved is excluded from its own check")
}

func TestCancelBooking_CashRefund(t *testing.T) {
	booking := confirmedCashBooking()

	deps := newTestDeps()
	deps.bookings.GetByIDForUpdateFunc = func(context.Context, string) (*domain.Booking, error) {
		return booking, nil
	}
	svc := deps.bookingService()

	got, err := svc.CancelBooking(context.Background(), "b-1", "actor-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, got.Status)

	require.Len(t, deps.wallets.recorded, 1)
	refund := deps.wallets.recorded[0]
	assert.True(t, refund.Amount.Equal(dec(80)))
	assert.Equal(t, domain.TransactionTypeBookingCancelRefund, refund.Type)
}

func TestCancelBooking_PackageRestoresHoursNoCash(t *testing.T) {
	booking := confirmedCashBooking()
	booking.PaymentStatus = domain.PaymentStatusPackage
	booking.CustomerPackageID = "pkg-1"
	booking.PackageHours = dec(1)
	booking.FinalAmount = decimal.Zero

	deps := newTestDeps()
	deps.bookings.GetByIDForUpdateFunc = func(context.Context, string) (*domain.Booking, error) {
		return booking, nil
	}
	var restoredHours decimal.Decimal
	deps.packages.RestoreFunc = func(_ context.Context, id string, hours decimal.Decimal) error {
		assert.Equal(t, "pkg-1", id)
		restoredHours = hours
		return nil
	}
	svc := deps.bookingService()

	_, err := svc.CancelBooking(context.Background(), "b-1", "actor-1")
	require.NoError(t, err)
	assert.True(t, restoredHours.Equal(dec(1)))
	assert.Empty(t, deps.wallets.recorded, "package bookings never get cash refunds")
}

func TestCancelBooking_PartialNeverRefundsCash(t *testing.T) {
	booking := confirmedCashBooking()
	booking.PaymentStatus = domain.PaymentStatusPartial
	booking.CustomerPackageID = "pkg-1"
	booking.PackageHours = dec(0.5)
	booking.FinalAmount = dec(25)

	deps := newTestDeps()
	deps.bookings.GetByIDForUpdateFunc = func(context.Context, string) (*domain.Booking, error) {
		return booking, nil
	}
	svc := deps.bookingService()

	_, err := svc.CancelBooking(context.Background(), "b-1", "actor-1")
	require.NoError(t, err)
	assert.Empty(t, deps.wallets.recorded, "partially package-funded bookings never get cash refunds")
}

func TestCancelBooking_BlendedSettlementRestoresOnlyConsumedHours(t *testing.T) {
	deps := newTestDeps()
	deps.users.FindByEmailFunc = func(context.Context, string) (*domain.User, error) {
		return &domain.User{ID: "student-1"}, nil
	}
	deps.packages.FindActiveForUserFunc = func(context.Context, string, string) (*domain.CustomerPackage, error) {
		return &domain.CustomerPackage{
			ID: "pkg-1", TotalHours: dec(10), RemainingHours: dec(0.5),
			PurchasePrice: dec(500), Status: domain.PackageStatusActive,
		}, nil
	}
	deps.packages.ConsumeFunc = func(context.Context, string, decimal.Decimal) (decimal.Decimal, error) {
		return dec(0.5), nil
	}
	var created *domain.Booking
	deps.bookings.CreateFunc = func(_ context.Context, b *domain.Booking) error {
		created = b
		return nil
	}
	deps.bookings.GetByIDForUpdateFunc = func(context.Context, string) (*domain.Booking, error) {
		return created, nil
	}
	var restored decimal.Decimal
	deps.packages.RestoreFunc = func(_ context.Context, id string, hours decimal.Decimal) error {
		assert.Equal(t, "pkg-1", id)
		restored = hours
		return nil
	}
	svc := deps.bookingService()

	// 1.5h booking, package covers only the first half hour; the remaining
	// hour is charged in cash at the blended rate.
	input := CreateCalendarBookingInput{
		CreateBookingInput: validCreateInput(),
		Email:              "known@example.com",
	}
	input.UsePackage = true

	result, err := svc.CreateCalendarBooking(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, result.Booking.PackageHours.Equal(dec(0.5)),
		"the booking records the hours the settlement took from the package")
	assert.True(t, result.Booking.FinalAmount.Equal(dec(50)))

	_, err = svc.CancelBooking(context.Background(), result.Booking.ID, "actor-1")
	require.NoError(t, err)

	assert.True(t, restored.Equal(dec(0.5)),
		"cancel restores the half hour actually consumed, not the full duration, got %s", restored)
}

func TestDeleteBooking_ClassifiesAndAudits(t *testing.T) {
	booking := confirmedCashBooking()

	deps := newTestDeps()
	deps.bookings.GetByIDForUpdateFunc = func(context.Context, string) (*domain.Booking, error) {
		return booking, nil
	}
	var audit *domain.DeleteAudit
	deps.bookings.RecordDeleteAuditFunc = func(_ context.Context, a *domain.DeleteAudit) error {
		audit = a
		return nil
	}
	softDeleted := false
	deps.bookings.SoftDeleteFunc = func(context.Context, string, string, string, time.Time) error {
		softDeleted = true
		return nil
	}
	svc := deps.bookingService()

	result, err := svc.DeleteBooking(context.Background(), "b-1", "actor-1", "double booked")
	require.NoError(t, err)

	assert.True(t, softDeleted)
	require.NotNil(t, audit)
	assert.Equal(t, domain.RefundTypeBalanceRefund, audit.RefundType)
	assert.True(t, audit.RefundAmount.Equal(dec(80)))
	assert.Equal(t, domain.BookingStatusConfirmed, audit.PriorStatus)
	assert.Equal(t, audit, result.Audit)
}

func TestDeleteBooking_AlreadyDeleted(t *testing.T) {
	booking := confirmedCashBooking()
	deletedAt := time.Now()
	booking.DeletedAt = &deletedAt

	deps := newTestDeps()
	deps.bookings.GetByIDForUpdateFunc = func(context.Context, string) (*domain.Booking, error) {
		return booking, nil
	}
	svc := deps.bookingService()

	_, err := svc.DeleteBooking(context.Background(), "b-1", "actor-1", "")
	assert.ErrorIs(t, err, domain.ErrBookingDeleted)
}

func TestRestoreBooking_ReversesRecordedAmounts(t *testing.T) {
	booking := confirmedCashBooking()
	deletedAt := time.Now()
	booking.DeletedAt = &deletedAt
	booking.Status = domain.BookingStatusConfirmed

	deps := newTestDeps()
	deps.bookings.GetByIDForUpdateFunc = func(context.Context, string) (*domain.Booking, error) {
		return booking, nil
	}
	deps.bookings.LatestDeleteAuditFunc = func(context.Context, string) (*domain.DeleteAudit, error) {
		return &domain.DeleteAudit{
			BookingID: "b-1", RefundType: domain.RefundTypeBalanceRefund,
			RefundAmount: dec(80), Currency: "EUR",
			PriorStatus: domain.BookingStatusCompleted,
		}, nil
	}
	var clearedStatus domain.BookingStatus
	deps.bookings.ClearDeletedFunc = func(_ context.Context, _ string, status domain.BookingStatus, _ string) error {
		clearedStatus = status
		return nil
	}
	svc := deps.bookingService()

	got, err := svc.RestoreBooking(context.Background(), "b-1", "actor-1")
	require.NoError(t, err)

	assert.Equal(t, domain.BookingStatusCompleted, clearedStatus, "prior status from the audit, not recomputed")
	assert.False(t, got.IsDeleted())

	require.Len(t, deps.wallets.recorded, 1)
	charge := deps.wallets.recorded[0]
	assert.True(t, charge.Amount.Equal(dec(-80)), "exact inverse of the recorded refund")
	assert.Equal(t, domain.TransactionTypeBookingRestoreCharge, charge.Type)
}

func TestRestoreBooking_NotDeleted(t *testing.T) {
	booking := confirmedCashBooking()

	deps := newTestDeps()
	deps.bookings.GetByIDForUpdateFunc = func(context.Context, string) (*domain.Booking, error) {
		return booking, nil
	}
	svc := deps.bookingService()

	_, err := svc.RestoreBooking(context.Background(), "b-1", "actor-1")
	assert.ErrorIs(t, err, domain.ErrBookingNotDeleted)
}

func decimalPtr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}
