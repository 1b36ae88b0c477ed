package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/plannivo/booking-engine/internal/domain"
	"github.com/plannivo/booking-engine/internal/repository"
	"github.com/plannivo/booking-engine/pkg/logger"
)

// Config holds scheduling engine settings shared by the services
type Config struct {
	DefaultCurrency string
	WorkingWindow   domain.WorkingWindow
	SuggestionCount int
}

// DefaultConfig returns the default engine settings
func DefaultConfig() Config {
	return Config{
		DefaultCurrency: "EUR",
		WorkingWindow:   domain.DefaultWorkingWindow(),
		SuggestionCount: 3,
	}
}

// BookingService orchestrates booking creation, update, status transitions,
// cancellation, soft deletion and restoration. Every mutation runs inside
// exactly one transaction; ledger writes and conflict checks share that
// transaction so no partially settled booking is ever durable.
type BookingService struct {
	txm      TxManager
	bookings repository.BookingRepository
	packages repository.PackageRepository
	wallets  repository.WalletRepository
	users    repository.UserRepository
	catalog  repository.CatalogRepository
	events   EventPublisher
	cfg      Config
}

// NewBookingService creates a new BookingService
func NewBookingService(
	txm TxManager,
	bookings repository.BookingRepository,
	packages repository.PackageRepository,
	wallets repository.WalletRepository,
	users repository.UserRepository,
	catalog repository.CatalogRepository,
	events EventPublisher,
	cfg Config,
) *BookingService {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "EUR"
	}
	if cfg.SuggestionCount <= 0 {
		cfg.SuggestionCount = 3
	}
	if cfg.WorkingWindow.End.LessThanOrEqual(cfg.WorkingWindow.Start) {
		cfg.WorkingWindow = domain.DefaultWorkingWindow()
	}
	return &BookingService{
		txm:      txm,
		bookings: bookings,
		packages: packages,
		wallets:  wallets,
		users:    users,
		catalog:  catalog,
		events:   events,
		cfg:      cfg,
	}
}

// CreateBookingInput carries the fields for a single-customer booking
type CreateBookingInput struct {
	Date             time.Time
	StartHour        decimal.Decimal
	Duration         decimal.Decimal
	InstructorUserID string
	StudentUserID    string
	ServiceID        string
	UsePackage       bool
	Amount           *decimal.Decimal // overrides the catalog price when set
	Notes            string
	ActorID          string
	ActorRole        string
}

// ParticipantInput is one member of a group booking request
type ParticipantInput struct {
	UserID     string
	UsePackage bool
}

// CreateGroupBookingInput carries the fields for a group booking
type CreateGroupBookingInput struct {
	CreateBookingInput
	Participants []ParticipantInput
}

// CreateCalendarBookingInput is a calendar-originated booking identified by
// customer email instead of user id.
type CreateCalendarBookingInput struct {
	CreateBookingInput
	Email     string
	FirstName string
	LastName  string
}

// CreateBookingResult is the outcome of any create operation
type CreateBookingResult struct {
	Booking      *domain.Booking
	Participants []*domain.BookingParticipant
	// Degradations lists participants whose package payment fell back to
	// cash, for the caller's information only.
	Degradations []string
}

// CreateBooking creates a single-customer booking. The package path requires
// the package to cover the full duration; there is no silent fallback to
// cash for single bookings.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error) {
	if err := s.validateCreate(&input); err != nil {
		return nil, err
	}

	var booking *domain.Booking

	err := s.txm.RunInTx(ctx, func(tx pgx.Tx) error {
		br := s.bookings.WithTx(tx)
		pr := s.packages.WithTx(tx)
		wr := s.wallets.WithTx(tx)

		svc, err := s.catalog.GetService(ctx, input.ServiceID)
		if err != nil {
			return err
		}

		sharedSlot, err := s.checkSlot(ctx, br, svc, input)
		if err != nil {
			return err
		}

		rate, err := s.resolveRate(ctx, input)
		if err != nil {
			return err
		}

		settlement, _, err := s.settle(ctx, pr, input.StudentUserID, svc.Name, input.Duration, rate, input.UsePackage, false)
		if err != nil {
			return err
		}

		now := time.Now()
		booking = &domain.Booking{
			ID:                uuid.New().String(),
			Date:              input.Date,
			StartHour:         input.StartHour,
			Duration:          input.Duration,
			InstructorUserID:  input.InstructorUserID,
			StudentUserID:     input.StudentUserID,
			ServiceID:         input.ServiceID,
			Status:            domain.BookingStatusConfirmed,
			PaymentStatus:     settlement.PaymentStatus(),
			Amount:            rate.Mul(input.Duration),
			FinalAmount:       settlement.CashAmount,
			Currency:          s.cfg.DefaultCurrency,
			CustomerPackageID: settlement.PackageID,
			PackageHours:      settlement.PackageHours,
			SharedSlot:        sharedSlot,
			Notes:             input.Notes,
			CreatedBy:         input.ActorID,
			UpdatedBy:         input.ActorID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		if err := br.Create(ctx, booking); err != nil {
			return err
		}

		// Ledger entries reference the booking id, so they are written
		// only after the booking row exists.
		return s.chargeCash(ctx, wr, booking, input.StudentUserID, settlement.CashAmount, input.ActorID, input.ActorRole)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, domain.BookingEventCreated, []string{booking.ID}, input.ActorID, nil)
	return &CreateBookingResult{Booking: booking}, nil
}

// CreateGroupBooking creates a booking with multiple participants. Package
// and cash settlement runs per participant; a participant whose package
// fails degrades gracefully to cash instead of failing the booking.
func (s *BookingService) CreateGroupBooking(ctx context.Context, input CreateGroupBookingInput) (*CreateBookingResult, error) {
	if err := s.validateCreate(&input.CreateBookingInput); err != nil {
		return nil, err
	}
	if len(input.Participants) == 0 {
		return nil, domain.ErrMissingParticipant
	}

	var (
		booking      *domain.Booking
		participants []*domain.BookingParticipant
		degradations []string
	)

	err := s.txm.RunInTx(ctx, func(tx pgx.Tx) error {
		br := s.bookings.WithTx(tx)
		pr := s.packages.WithTx(tx)
		wr := s.wallets.WithTx(tx)

		svc, err := s.catalog.GetService(ctx, input.ServiceID)
		if err != nil {
			return err
		}

		// One group-level slot check runs before any participant write
		sharedSlot, err := s.checkSlot(ctx, br, svc, input.CreateBookingInput)
		if err != nil {
			return err
		}

		rate, err := s.resolveRate(ctx, input.CreateBookingInput)
		if err != nil {
			return err
		}

		now := time.Now()
		bookingID := uuid.New().String()
		participants = participants[:0]
		degradations = degradations[:0]

		totalCash := decimal.Zero
		for _, pin := range input.Participants {
			settlement, degraded, err := s.settle(ctx, pr, pin.UserID, svc.Name, input.Duration, rate, pin.UsePackage, true)
			if err != nil {
				return err
			}
			if degraded {
				degradations = append(degradations, pin.UserID)
			}

			participants = append(participants, &domain.BookingParticipant{
				ID:                uuid.New().String(),
				BookingID:         bookingID,
				UserID:            pin.UserID,
				IsPrimary:         pin.UserID == input.StudentUserID,
				PaymentStatus:     settlement.PaymentStatus(),
				Amount:            settlement.CashAmount,
				CustomerPackageID: settlement.PackageID,
				PackageHours:      settlement.PackageHours,
				CashHours:         settlement.CashHours,
			})
			totalCash = totalCash.Add(settlement.CashAmount)
		}

		booking = &domain.Booking{
			ID:               bookingID,
			Date:             input.Date,
			StartHour:        input.StartHour,
			Duration:         input.Duration,
			InstructorUserID: input.InstructorUserID,
			StudentUserID:    input.StudentUserID,
			ServiceID:        input.ServiceID,
			Status:           domain.BookingStatusConfirmed,
			PaymentStatus:    domain.DerivePaymentStatus(participants),
			Amount:           rate.Mul(input.Duration).Mul(decimal.NewFromInt(int64(len(input.Participants)))),
			FinalAmount:      totalCash,
			Currency:         s.cfg.DefaultCurrency,
			SharedSlot:       sharedSlot,
			Notes:            input.Notes,
			CreatedBy:        input.ActorID,
			UpdatedBy:        input.ActorID,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		if err := br.Create(ctx, booking); err != nil {
			return err
		}
		if err := br.CreateParticipants(ctx, participants); err != nil {
			return err
		}

		for _, p := range participants {
			if err := s.chargeCash(ctx, wr, booking, p.UserID, p.Amount, input.ActorID, input.ActorRole); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, domain.BookingEventCreated, []string{booking.ID}, input.ActorID, map[string]string{
		"participants": decimal.NewFromInt(int64(len(participants))).String(),
	})
	return &CreateBookingResult{Booking: booking, Participants: participants, Degradations: degradations}, nil
}

// CreateCalendarBooking creates a booking from the calendar surface where
// the customer is identified by email. Unknown emails get a student account
// auto-created inside the same transaction. Blended package+cash settlement
// is allowed on this path.
func (s *BookingService) CreateCalendarBooking(ctx context.Context, input CreateCalendarBookingInput) (*CreateBookingResult, error) {
	if input.Email == "" {
		return nil, domain.ErrInvalidEmail
	}

	var (
		booking *domain.Booking
		student *domain.User
	)

	err := s.txm.RunInTx(ctx, func(tx pgx.Tx) error {
		br := s.bookings.WithTx(tx)
		pr := s.packages.WithTx(tx)
		wr := s.wallets.WithTx(tx)
		ur := s.users.WithTx(tx)

		var err error
		student, err = ur.FindByEmail(ctx, input.Email)
		if errors.Is(err, domain.ErrUserNotFound) {
			student = &domain.User{
				ID:        uuid.New().String(),
				Email:     input.Email,
				FirstName: input.FirstName,
				LastName:  input.LastName,
				CreatedAt: time.Now(),
			}
			err = ur.CreateStudent(ctx, student)
		}
		if err != nil {
			return err
		}

		input.StudentUserID = student.ID
		if err := s.validateCreate(&input.CreateBookingInput); err != nil {
			return err
		}

		svc, err := s.catalog.GetService(ctx, input.ServiceID)
		if err != nil {
			return err
		}

		sharedSlot, err := s.checkSlot(ctx, br, svc, input.CreateBookingInput)
		if err != nil {
			return err
		}

		rate, err := s.resolveRate(ctx, input.CreateBookingInput)
		if err != nil {
			return err
		}

		settlement, _, err := s.settle(ctx, pr, student.ID, svc.Name, input.Duration, rate, input.UsePackage, true)
		if err != nil {
			return err
		}

		now := time.Now()
		booking = &domain.Booking{
			ID:                uuid.New().String(),
			Date:              input.Date,
			StartHour:         input.StartHour,
			Duration:          input.Duration,
			InstructorUserID:  input.InstructorUserID,
			StudentUserID:     student.ID,
			ServiceID:         input.ServiceID,
			Status:            domain.BookingStatusConfirmed,
			PaymentStatus:     settlement.PaymentStatus(),
			Amount:            rate.Mul(input.Duration),
			FinalAmount:       settlement.CashAmount,
			Currency:          s.cfg.DefaultCurrency,
			CustomerPackageID: settlement.PackageID,
			PackageHours:      settlement.PackageHours,
			SharedSlot:        sharedSlot,
			Notes:             input.Notes,
			CreatedBy:         input.ActorID,
			UpdatedBy:         input.ActorID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		if err := br.Create(ctx, booking); err != nil {
			return err
		}
		return s.chargeCash(ctx, wr, booking, student.ID, settlement.CashAmount, input.ActorID, input.ActorRole)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, domain.BookingEventCreated, []string{booking.ID}, input.ActorID, map[string]string{
		"origin": "calendar",
	})
	return &CreateBookingResult{Booking: booking}, nil
}

// UpdateBookingInput is a partial update; nil fields keep their value
type UpdateBookingInput struct {
	Date             *time.Time
	StartHour        *decimal.Decimal
	Duration         *decimal.Decimal
	InstructorUserID *string
	ServiceID        *string
	Status           *domain.BookingStatus
	Amount           *decimal.Decimal
	FinalAmount      *decimal.Decimal
	Notes            *string
	ActorID          string
	ActorRole        string
}

// UpdateBooking applies a partial update. A transition into cancelled runs
// the cancel reconciliation; a first transition into completed refreshes the
// package last-used marker without re-deducting hours, then queues a rating
// reminder and commission computation after commit.
func (s *BookingService) UpdateBooking(ctx context.Context, id string, input UpdateBookingInput) (*domain.Booking, error) {
	if input.Duration != nil && !input.Duration.IsPositive() {
		return nil, domain.ErrInvalidDuration
	}

	var (
		booking        *domain.Booking
		firstCompleted bool
	)

	err := s.txm.RunInTx(ctx, func(tx pgx.Tx) error {
		br := s.bookings.WithTx(tx)
		pr := s.packages.WithTx(tx)
		wr := s.wallets.WithTx(tx)

		var err error
		booking, err = br.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if booking.IsDeleted() {
			return domain.ErrBookingDeleted
		}

		prevStatus := booking.Status
		slotChanged := applySlotFields(booking, input)
		applyOtherFields(booking, input)

		if input.Status != nil {
			if !input.Status.Valid() {
				return domain.ErrInvalidStatus
			}
			booking.Status = *input.Status
		}

		if slotChanged {
			if err := s.ensureSlotFree(ctx, br, booking.InstructorUserID, booking.Date,
				booking.StartHour, booking.Duration, []string{booking.ID}); err != nil {
				return err
			}
		}

		if prevStatus != domain.BookingStatusCancelled && booking.Status == domain.BookingStatusCancelled {
			if _, err := s.reconcile(ctx, br, pr, wr, booking,
				domain.TransactionTypeBookingCancelRefund, input.ActorID); err != nil {
				return err
			}
		}

		if booking.Status.IsCompletedLike() && !prevStatus.IsCompletedLike() {
			firstCompleted = true
			// Hours were deducted at creation; completion only refreshes
			// the last-used marker.
			if booking.CustomerPackageID != "" {
				if err := pr.TouchLastUsed(ctx, booking.CustomerPackageID, time.Now()); err != nil {
					return err
				}
			}
		}

		booking.UpdatedBy = input.ActorID
		return br.Update(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, domain.BookingEventUpdated, []string{booking.ID}, input.ActorID, nil)
	if firstCompleted {
		s.events.Publish(ctx, domain.BookingEventRatingReminder, []string{booking.ID}, input.ActorID, map[string]string{
			"student_user_id": booking.StudentUserID,
		})
		s.events.Publish(ctx, domain.BookingEventCommission, []string{booking.ID}, input.ActorID, map[string]string{
			"instructor_user_id": booking.InstructorUserID,
			"amount":             booking.FinalAmount.String(),
			"currency":           booking.Currency,
		})
	}
	return booking, nil
}

// ChangeStatus transitions a booking's status, refunding on cancellation
func (s *BookingService) ChangeStatus(ctx context.Context, id string, status domain.BookingStatus, actorID, actorRole string) (*domain.Booking, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	booking, err := s.UpdateBooking(ctx, id, UpdateBookingInput{
		Status:    &status,
		ActorID:   actorID,
		ActorRole: actorRole,
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, domain.BookingEventStatusChanged, []string{booking.ID}, actorID, map[string]string{
		"status": status.String(),
	})
	return booking, nil
}

// CancelBooking cancels a booking and reconciles its ledgers: package hours
// are restored, and cash is refunded only for genuine cash payments.
func (s *BookingService) CancelBooking(ctx context.Context, id, actorID string) (*domain.Booking, error) {
	var booking *domain.Booking

	err := s.txm.RunInTx(ctx, func(tx pgx.Tx) error {
		br := s.bookings.WithTx(tx)
		pr := s.packages.WithTx(tx)
		wr := s.wallets.WithTx(tx)

		var err error
		booking, err = br.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if booking.IsDeleted() {
			return domain.ErrBookingDeleted
		}
		if booking.Status == domain.BookingStatusCancelled {
			return nil
		}

		if _, err := s.reconcile(ctx, br, pr, wr, booking,
			domain.TransactionTypeBookingCancelRefund, actorID); err != nil {
			return err
		}

		booking.Status = domain.BookingStatusCancelled
		booking.UpdatedBy = actorID
		return br.Update(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, domain.BookingEventCancelled, []string{booking.ID}, actorID, nil)
	return booking, nil
}

// DeleteResult is the outcome of a soft delete
type DeleteResult struct {
	Booking *domain.Booking
	Audit   *domain.DeleteAudit
}

// DeleteBooking soft-deletes a booking with full ledger reconciliation and
// writes a durable audit record of the outcome.
func (s *BookingService) DeleteBooking(ctx context.Context, id, actorID, reason string) (*DeleteResult, error) {
	var result *DeleteResult

	err := s.txm.RunInTx(ctx, func(tx pgx.Tx) error {
		var err error
		result, err = s.SoftDeleteInTx(ctx, tx, id, actorID, reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, domain.BookingEventDeleted, []string{id}, actorID, map[string]string{
		"refund_type": string(result.Audit.RefundType),
	})
	return result, nil
}

// SoftDeleteInTx runs the single-booking delete reconciliation inside an
// existing transaction. Bulk delete reuses it per target booking.
func (s *BookingService) SoftDeleteInTx(ctx context.Context, tx pgx.Tx, id, actorID, reason string) (*DeleteResult, error) {
	br := s.bookings.WithTx(tx)
	pr := s.packages.WithTx(tx)
	wr := s.wallets.WithTx(tx)

	booking, err := br.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.IsDeleted() {
		return nil, domain.ErrBookingDeleted
	}

	rec, err := s.reconcile(ctx, br, pr, wr, booking, domain.TransactionTypeBookingDeletedRefund, actorID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	audit := &domain.DeleteAudit{
		ID:            uuid.New().String(),
		BookingID:     booking.ID,
		RefundType:    rec.refundType,
		RefundAmount:  rec.refundAmount,
		Currency:      booking.Currency,
		PackageID:     rec.packageID,
		HoursRestored: rec.hoursRestored,
		PriorStatus:   booking.Status,
		DeletedBy:     actorID,
		Reason:        reason,
		CreatedAt:     now,
	}
	if err := br.RecordDeleteAudit(ctx, audit); err != nil {
		return nil, err
	}
	if err := br.SoftDelete(ctx, booking.ID, actorID, reason, now); err != nil {
		return nil, err
	}

	booking.DeletedAt = &now
	booking.DeletedBy = actorID
	booking.DeleteReason = reason
	return &DeleteResult{Booking: booking, Audit: audit}, nil
}

// RestoreBooking clears the soft-delete marker and reverses the delete-time
// reconciliation using the amounts recorded in the audit, never recomputed.
// An empty id restores the most recently deleted booking.
func (s *BookingService) RestoreBooking(ctx context.Context, id, actorID string) (*domain.Booking, error) {
	var booking *domain.Booking

	err := s.txm.RunInTx(ctx, func(tx pgx.Tx) error {
		br := s.bookings.WithTx(tx)
		pr := s.packages.WithTx(tx)
		wr := s.wallets.WithTx(tx)

		var err error
		if id == "" {
			booking, err = br.LatestDeleted(ctx)
			if err != nil {
				return err
			}
			id = booking.ID
		}

		booking, err = br.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !booking.IsDeleted() {
			return domain.ErrBookingNotDeleted
		}

		audit, err := br.LatestDeleteAudit(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrBookingNotDeleted) {
			return err
		}

		status := domain.BookingStatusConfirmed
		if audit != nil && audit.PriorStatus.Valid() {
			status = audit.PriorStatus
		}

		if err := br.ClearDeleted(ctx, id, status, actorID); err != nil {
			return err
		}
		booking.Status = status
		booking.DeletedAt = nil
		booking.DeletedBy = ""
		booking.DeleteReason = ""

		if audit == nil {
			return nil
		}
		return s.reverseDeleteAudit(ctx, pr, wr, booking, audit, actorID)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, domain.BookingEventRestored, []string{booking.ID}, actorID, nil)
	return booking, nil
}

// reverseDeleteAudit re-deducts restored package hours and re-charges
// refunded cash, exactly inverting the recorded delete-time outcome.
func (s *BookingService) reverseDeleteAudit(ctx context.Context, pr repository.PackageRepository, wr repository.WalletRepository, booking *domain.Booking, audit *domain.DeleteAudit, actorID string) error {
	if audit.HoursRestored.IsPositive() && audit.PackageID != "" {
		if _, err := pr.Consume(ctx, audit.PackageID, audit.HoursRestored); err != nil {
			if !errors.Is(err, domain.ErrPackageUnavailable) {
				return err
			}
			// The package was drained since the delete; the restore still
			// proceeds, made whole by the hours already spent elsewhere.
			logger.Get().Warn("could not re-deduct package hours on restore",
				zap.String("booking_id", booking.ID),
				zap.String("package_id", audit.PackageID),
			)
		}
	}

	if audit.RefundType == domain.RefundTypeBalanceRefund && audit.RefundAmount.IsPositive() {
		return wr.Record(ctx, &domain.WalletTransaction{
			ID:                uuid.New().String(),
			UserID:            booking.StudentUserID,
			Amount:            audit.RefundAmount.Neg(),
			Currency:          audit.Currency,
			Type:              domain.TransactionTypeBookingRestoreCharge,
			Status:            "completed",
			RelatedEntityType: domain.RelatedEntityBooking,
			RelatedEntityID:   booking.ID,
			Description:       "re-charge on booking restore",
			CreatedBy:         actorID,
			CreatedAt:         time.Now(),
		}, true)
	}
	return nil
}

// GetBooking returns one booking with its participants
func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, []*domain.BookingParticipant, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	participants, err := s.bookings.ListParticipants(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return booking, participants, nil
}

// ListBookings returns bookings matching the filter
func (s *BookingService) ListBookings(ctx context.Context, filter repository.BookingFilter) ([]*domain.Booking, error) {
	return s.bookings.List(ctx, filter)
}

// reconciliation is the per-booking outcome of a cancel or delete
type reconciliation struct {
	refundType    domain.RefundType
	refundAmount  decimal.Decimal
	packageID     string
	hoursRestored decimal.Decimal
}

// reconcile restores package hours consumed by the booking's participants
// (or by the booking itself when no participant rows exist) and refunds the
// wallet for genuine cash payments. The refund classification, not the mere
// presence of a package link, decides whether cash moves: a package booking
// is made whole by hours only, never hours plus cash.
func (s *BookingService) reconcile(ctx context.Context, br repository.BookingRepository, pr repository.PackageRepository, wr repository.WalletRepository, booking *domain.Booking, txnType domain.TransactionType, actorID string) (reconciliation, error) {
	rec := reconciliation{refundType: domain.RefundTypeNone}

	participants, err := br.ListParticipants(ctx, booking.ID)
	if err != nil {
		return rec, err
	}

	if len(participants) > 0 {
		for _, p := range participants {
			if p.CustomerPackageID == "" || !p.PackageHours.IsPositive() {
				continue
			}
			if err := pr.Restore(ctx, p.CustomerPackageID, p.PackageHours); err != nil {
				return rec, err
			}
			rec.hoursRestored = rec.hoursRestored.Add(p.PackageHours)
			if rec.packageID == "" {
				rec.packageID = p.CustomerPackageID
			}
		}
	} else if booking.CustomerPackageID != "" && booking.PackageHours.IsPositive() {
		// Only the hours the settlement actually took from the package come
		// back; a blended booking's cash remainder is handled by the refund
		// classification below, never by inflating the hour restoration.
		if err := pr.Restore(ctx, booking.CustomerPackageID, booking.PackageHours); err != nil {
			return rec, err
		}
		rec.hoursRestored = booking.PackageHours
		rec.packageID = booking.CustomerPackageID
	}

	packageFunded := booking.PaymentStatus == domain.PaymentStatusPackage ||
		booking.PaymentStatus == domain.PaymentStatusPartial

	switch {
	case rec.hoursRestored.IsPositive():
		rec.refundType = domain.RefundTypePackageHoursRestored
	case packageFunded:
		rec.refundType = domain.RefundTypePackageNoRefund
	case booking.PaymentStatus == domain.PaymentStatusPaid && booking.FinalAmount.IsPositive():
		rec.refundType = domain.RefundTypeBalanceRefund
		rec.refundAmount = booking.FinalAmount
		// Refunds are never blocked by balance checks
		err := wr.Record(ctx, &domain.WalletTransaction{
			ID:                uuid.New().String(),
			UserID:            booking.StudentUserID,
			Amount:            booking.FinalAmount,
			Currency:          booking.Currency,
			Type:              txnType,
			Status:            "completed",
			RelatedEntityType: domain.RelatedEntityBooking,
			RelatedEntityID:   booking.ID,
			Description:       "refund for booking " + booking.ID,
			CreatedBy:         actorID,
			CreatedAt:         time.Now(),
		}, true)
		if err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// settle classifies one participant's payment. allowPartial enables blended
// package+cash settlement and graceful degradation to cash (group and
// calendar paths); without it the package must cover the full duration.
func (s *BookingService) settle(ctx context.Context, pr repository.PackageRepository, userID, serviceName string, duration, rate decimal.Decimal, usePackage, allowPartial bool) (domain.Settlement, bool, error) {
	if !usePackage {
		return domain.PaidSettlement(duration, rate.Mul(duration)), false, nil
	}

	pkg, err := pr.FindActiveForUser(ctx, userID, serviceName)
	if err != nil {
		if allowPartial && errors.Is(err, domain.ErrNoMatchingPackage) {
			return domain.PaidSettlement(duration, rate.Mul(duration)), true, nil
		}
		return domain.Settlement{}, false, err
	}

	consumed, err := pr.Consume(ctx, pkg.ID, duration)
	if err != nil {
		if allowPartial && errors.Is(err, domain.ErrPackageUnavailable) {
			return domain.PaidSettlement(duration, rate.Mul(duration)), true, nil
		}
		return domain.Settlement{}, false, err
	}

	if consumed.GreaterThanOrEqual(duration) {
		return domain.PackageSettlement(pkg.ID, duration), false, nil
	}

	if !allowPartial {
		// Single bookings require full coverage; the enclosing transaction
		// rolls back the partial consumption.
		return domain.Settlement{}, false, domain.ErrPackageUnavailable
	}

	cashHours := duration.Sub(consumed)
	cashAmount := cashHours.Mul(pkg.PerHourRate())
	return domain.PartialSettlement(pkg.ID, consumed, cashHours, cashAmount), false, nil
}

// chargeCash appends the booking charge to the wallet. Staff actors may
// drive a customer balance negative; customers may not.
func (s *BookingService) chargeCash(ctx context.Context, wr repository.WalletRepository, booking *domain.Booking, userID string, amount decimal.Decimal, actorID, actorRole string) error {
	if !amount.IsPositive() {
		return nil
	}
	return wr.Record(ctx, &domain.WalletTransaction{
		ID:                uuid.New().String(),
		UserID:            userID,
		Amount:            amount.Neg(),
		Currency:          booking.Currency,
		Type:              domain.TransactionTypeBookingCharge,
		Status:            "completed",
		RelatedEntityType: domain.RelatedEntityBooking,
		RelatedEntityID:   booking.ID,
		Description:       "charge for booking " + booking.ID,
		CreatedBy:         actorID,
		CreatedAt:         time.Now(),
	}, allowNegativeFor(actorRole))
}

// checkSlot enforces the capacity cap for capped services and the overlap
// invariant for everything else, returning whether the booking shares its
// slot tuple with others.
func (s *BookingService) checkSlot(ctx context.Context, br repository.BookingRepository, svc *domain.Service, input CreateBookingInput) (bool, error) {
	slot := domain.Slot{
		InstructorUserID: input.InstructorUserID,
		Date:             input.Date,
		StartHour:        input.StartHour,
		Duration:         input.Duration,
	}

	if svc.HasParticipantCap() {
		count, err := br.CountAtExactSlot(ctx, slot)
		if err != nil {
			return false, err
		}
		if count >= svc.MaxParticipants {
			return false, domain.ErrCapacityExceeded
		}
	}

	if err := s.ensureSlotFree(ctx, br, input.InstructorUserID, input.Date, input.StartHour, input.Duration, nil); err != nil {
		return false, err
	}
	return svc.HasParticipantCap(), nil
}

// ensureSlotFree runs the conflict check and, on conflict, attaches the
// blocking window plus best-effort alternative slots.
func (s *BookingService) ensureSlotFree(ctx context.Context, br repository.BookingRepository, instructorID string, date time.Time, start, duration decimal.Decimal, excludeIDs []string) error {
	conflict, err := br.FindConflict(ctx, instructorID, date, start, duration, excludeIDs)
	if err != nil {
		return err
	}
	if conflict == nil {
		return nil
	}

	existing, err := br.ListActiveByInstructorDate(ctx, instructorID, date)
	if err != nil {
		logger.Get().Warn("failed to compute slot suggestions", zap.Error(err))
		existing = nil
	}

	return &domain.SlotConflictError{Details: domain.ConflictDetails{
		BookingID:   conflict.ID,
		Date:        conflict.Date,
		StartHour:   conflict.StartHour,
		EndHour:     conflict.EndHour(),
		Suggestions: suggestSlots(existing, conflict, duration, s.cfg.WorkingWindow, s.cfg.SuggestionCount, excludeIDs),
	}}
}

func (s *BookingService) resolveRate(ctx context.Context, input CreateBookingInput) (decimal.Decimal, error) {
	if input.Amount != nil {
		if input.Amount.IsNegative() {
			return decimal.Zero, domain.ErrInvalidAmount
		}
		return input.Amount.Div(input.Duration), nil
	}
	return s.catalog.HourlyRate(ctx, input.ServiceID, s.cfg.DefaultCurrency)
}

func (s *BookingService) validateCreate(input *CreateBookingInput) error {
	if input.Date.IsZero() {
		return domain.ErrInvalidDate
	}
	if !input.Duration.IsPositive() {
		return domain.ErrInvalidDuration
	}
	if input.StartHour.IsNegative() ||
		input.StartHour.Add(input.Duration).GreaterThan(decimal.NewFromInt(24)) {
		return domain.ErrInvalidStartHour
	}
	if input.InstructorUserID == "" {
		return domain.ErrInvalidInstructor
	}
	if input.StudentUserID == "" {
		return domain.ErrInvalidStudent
	}
	if input.ServiceID == "" {
		return domain.ErrInvalidService
	}
	if input.Amount != nil && input.Amount.IsNegative() {
		return domain.ErrInvalidAmount
	}
	return nil
}

func applySlotFields(b *domain.Booking, input UpdateBookingInput) bool {
	changed := false
	if input.Date != nil && !input.Date.Equal(b.Date) {
		b.Date = *input.Date
		changed = true
	}
	if input.StartHour != nil && !input.StartHour.Equal(b.StartHour) {
		b.StartHour = *input.StartHour
		changed = true
	}
	if input.Duration != nil && !input.Duration.Equal(b.Duration) {
		b.Duration = *input.Duration
		changed = true
	}
	if input.InstructorUserID != nil && *input.InstructorUserID != b.InstructorUserID {
		b.InstructorUserID = *input.InstructorUserID
		changed = true
	}
	return changed
}

func applyOtherFields(b *domain.Booking, input UpdateBookingInput) {
	if input.ServiceID != nil {
		b.ServiceID = *input.ServiceID
	}
	if input.Amount != nil {
		b.Amount = *input.Amount
	}
	if input.FinalAmount != nil {
		b.FinalAmount = *input.FinalAmount
	}
	if input.Notes != nil {
		b.Notes = *input.Notes
	}
}

// allowNegativeFor reports whether the actor's role may drive a customer
// balance negative. This is a role policy, never client input.
func allowNegativeFor(role string) bool {
	switch role {
	case "admin", "manager", "owner", "instructor":
		return true
	}
	return false
}
