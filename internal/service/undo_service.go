package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/plannivo/booking-engine/internal/domain"
	"github.com/plannivo/booking-engine/internal/repository"
	"github.com/plannivo/booking-engine/internal/undo"
	"github.com/plannivo/booking-engine/pkg/logger"
)

// DefaultUndoTokenTTL bounds how long a bulk delete stays reversible
const DefaultUndoTokenTTL = 10 * time.Second

// UndoService deletes bookings in bulk and mints a short-lived single-use
// token that reverses the whole batch: schedule, package hours and wallet
// refunds, using the amounts captured at delete time.
type UndoService struct {
	txm      TxManager
	booking  *BookingService
	bookings repository.BookingRepository
	packages repository.PackageRepository
	wallets  repository.WalletRepository
	store    undo.Store
	events   EventPublisher
	tokenTTL time.Duration
}

// NewUndoService creates a new UndoService
func NewUndoService(
	txm TxManager,
	booking *BookingService,
	bookings repository.BookingRepository,
	packages repository.PackageRepository,
	wallets repository.WalletRepository,
	store undo.Store,
	events EventPublisher,
	tokenTTL time.Duration,
) *UndoService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultUndoTokenTTL
	}
	return &UndoService{
		txm:      txm,
		booking:  booking,
		bookings: bookings,
		packages: packages,
		wallets:  wallets,
		store:    store,
		events:   events,
		tokenTTL: tokenTTL,
	}
}

// BulkDeleteResult is the outcome of a bulk delete
type BulkDeleteResult struct {
	UndoToken string
	ExpiresIn time.Duration
	Deleted   []*DeleteResult
}

// BulkDelete soft-deletes every target booking with full reconciliation in
// one transaction, then mints the undo token after commit. Any individual
// failure rolls back the entire batch.
func (s *UndoService) BulkDelete(ctx context.Context, ids []string, actorID, reason string) (*BulkDeleteResult, error) {
	if len(ids) == 0 {
		return nil, domain.ErrBookingNotFound
	}

	var deleted []*DeleteResult

	err := s.txm.RunInTx(ctx, func(tx pgx.Tx) error {
		deleted = deleted[:0]
		for _, id := range ids {
			result, err := s.booking.SoftDeleteInTx(ctx, tx, id, actorID, reason)
			if err != nil {
				return err
			}
			deleted = append(deleted, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	payload := undo.Payload{
		ActorID:   actorID,
		CreatedAt: time.Now(),
		Items:     make([]undo.Item, 0, len(deleted)),
	}
	for _, d := range deleted {
		payload.Items = append(payload.Items, undo.Item{
			BookingID:     d.Booking.ID,
			RefundType:    d.Audit.RefundType,
			RefundAmount:  d.Audit.RefundAmount,
			Currency:      d.Audit.Currency,
			PackageID:     d.Audit.PackageID,
			HoursRestored: d.Audit.HoursRestored,
			PriorStatus:   d.Audit.PriorStatus,
			StudentUserID: d.Booking.StudentUserID,
		})
	}

	token := uuid.New().String()
	if err := s.store.Put(ctx, token, payload, s.tokenTTL); err != nil {
		// The deletions are committed; without a token they simply cannot
		// be undone in bulk.
		logger.Get().Error("failed to store undo token", zap.Error(err))
		token = ""
	}

	ids = make([]string, 0, len(deleted))
	for _, d := range deleted {
		ids = append(ids, d.Booking.ID)
	}
	s.events.Publish(ctx, domain.BookingEventDeleted, ids, actorID, map[string]string{
		"bulk": "true",
	})

	return &BulkDeleteResult{UndoToken: token, ExpiresIn: s.tokenTTL, Deleted: deleted}, nil
}

// UndoResult reports which bookings a redemption restored
type UndoResult struct {
	Restored []string
	Skipped  []string
	// NotRestorable lists bookings whose freed slot was taken while the
	// token was live; they stay deleted and keep their refunds.
	NotRestorable []string
}

// Undo redeems a token exactly once, restoring every still-deleted booking
// in the batch and reversing its ledger effects. Bookings already restored
// by other means are skipped silently; bookings whose slot was rebooked in
// the meantime are reported as not restorable without failing the rest of
// the batch, since the token is already consumed.
func (s *UndoService) Undo(ctx context.Context, token, actorID string) (*UndoResult, error) {
	payload, err := s.store.Redeem(ctx, token)
	if err != nil {
		return nil, err
	}

	result := &UndoResult{}

	err = s.txm.RunInTx(ctx, func(tx pgx.Tx) error {
		br := s.bookings.WithTx(tx)
		pr := s.packages.WithTx(tx)
		wr := s.wallets.WithTx(tx)

		result.Restored = result.Restored[:0]
		result.Skipped = result.Skipped[:0]
		result.NotRestorable = result.NotRestorable[:0]

		for _, item := range payload.Items {
			booking, err := br.GetByIDForUpdate(ctx, item.BookingID)
			if err != nil {
				return err
			}
			if !booking.IsDeleted() {
				result.Skipped = append(result.Skipped, item.BookingID)
				continue
			}

			status := domain.BookingStatusConfirmed
			if item.PriorStatus.Valid() {
				status = item.PriorStatus
			}
			// Each restore runs under a savepoint: the freed slot may have
			// been rebooked while the token was live, and that constraint
			// trip must not abort the other restores in the batch.
			err = s.txm.Savepoint(ctx, tx, func(sp pgx.Tx) error {
				return s.bookings.WithTx(sp).ClearDeleted(ctx, item.BookingID, status, actorID)
			})
			if err != nil {
				if errors.Is(err, domain.ErrSlotConflict) {
					result.NotRestorable = append(result.NotRestorable, item.BookingID)
					continue
				}
				return err
			}

			if err := s.reverseItem(ctx, pr, wr, item, actorID); err != nil {
				return err
			}
			result.Restored = append(result.Restored, item.BookingID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.Restored) > 0 {
		s.events.Publish(ctx, domain.BookingEventRestored, result.Restored, actorID, map[string]string{
			"undo": "true",
		})
	}
	return result, nil
}

// reverseItem re-deducts restored package hours and re-charges refunded
// cash for one item, using the captured snapshot amounts.
func (s *UndoService) reverseItem(ctx context.Context, pr repository.PackageRepository, wr repository.WalletRepository, item undo.Item, actorID string) error {
	if item.HoursRestored.IsPositive() && item.PackageID != "" {
		if _, err := pr.Consume(ctx, item.PackageID, item.HoursRestored); err != nil {
			if !errors.Is(err, domain.ErrPackageUnavailable) {
				return err
			}
			logger.Get().Warn("could not re-deduct package hours on undo",
				zap.String("booking_id", item.BookingID),
				zap.String("package_id", item.PackageID),
			)
		}
	}

	if item.RefundType == domain.RefundTypeBalanceRefund && item.RefundAmount.IsPositive() {
		return wr.Record(ctx, &domain.WalletTransaction{
			ID:                uuid.New().String(),
			UserID:            item.StudentUserID,
			Amount:            item.RefundAmount.Neg(),
			Currency:          item.Currency,
			Type:              domain.TransactionTypeUndoDeleteReversal,
			Status:            "completed",
			RelatedEntityType: domain.RelatedEntityBooking,
			RelatedEntityID:   item.BookingID,
			Description:       "undo delete reversal for booking " + item.BookingID,
			CreatedBy:         actorID,
			CreatedAt:         time.Now(),
		}, true)
	}
	return nil
}
