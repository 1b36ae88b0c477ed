package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/plannivo/booking-engine/internal/domain"
	"github.com/plannivo/booking-engine/internal/repository"
)

// SwapService moves two bookings to each other's slots without ever making
// an overlapping schedule durable. Direct swap relocates both rows in one
// statement under a deferred constraint; parking swap stages one booking in
// a temporary free slot and is the fallback whenever a direct swap cannot
// be proven safe.
type SwapService struct {
	txm      TxManager
	bookings repository.BookingRepository
	events   EventPublisher
	cfg      Config
}

// NewSwapService creates a new SwapService
func NewSwapService(txm TxManager, bookings repository.BookingRepository, events EventPublisher, cfg Config) *SwapService {
	if cfg.SuggestionCount <= 0 {
		cfg.SuggestionCount = 3
	}
	if cfg.WorkingWindow.End.LessThanOrEqual(cfg.WorkingWindow.Start) {
		cfg.WorkingWindow = domain.DefaultWorkingWindow()
	}
	return &SwapService{txm: txm, bookings: bookings, events: events, cfg: cfg}
}

// SwapResult holds the two bookings after a successful swap
type SwapResult struct {
	BookingA *domain.Booking
	BookingB *domain.Booking
}

// DirectSwap exchanges the slots of two bookings with a single combined
// update. Both destinations are conflict-checked first; on conflict the
// response names the failing side and suggests free alternatives.
func (s *SwapService) DirectSwap(ctx context.Context, idA, idB, actorID string) (*SwapResult, error) {
	var result *SwapResult

	err := s.txm.RunInTx(ctx, func(tx pgx.Tx) error {
		br := s.bookings.WithTx(tx)

		a, b, err := s.lockPair(ctx, br, idA, idB)
		if err != nil {
			return err
		}
		if err := validateSwapPair(a, b); err != nil {
			return err
		}

		exclude := []string{a.ID, b.ID}

		// A moves into B's slot, B into A's
		if err := s.checkDestination(ctx, br, slotOf(b), a.Duration, exclude, "a"); err != nil {
			return err
		}
		if err := s.checkDestination(ctx, br, slotOf(a), b.Duration, exclude, "b"); err != nil {
			return err
		}

		// The combined update transiently places both bookings in occupied
		// intervals; the constraint must not fire until commit.
		if err := br.DeferOverlapConstraint(ctx); err != nil {
			return err
		}

		slotA, slotB := slotOf(b), slotOf(a)
		if err := br.SwapSlots(ctx, a.ID, b.ID, slotA, slotB, actorID); err != nil {
			return err
		}

		applySlot(a, slotA)
		applySlot(b, slotB)
		result = &SwapResult{BookingA: a, BookingB: b}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifySwap(ctx, result, actorID, "direct")
	return result, nil
}

// ParkingSwap exchanges two bookings via a temporary free slot: A parks, B
// moves into A's old slot, A moves into B's old slot. Every step
// re-validates non-conflict immediately before writing; any failure rolls
// the whole transaction back with both bookings untouched.
func (s *SwapService) ParkingSwap(ctx context.Context, idA, idB, actorID string) (*SwapResult, error) {
	var result *SwapResult

	err := s.txm.RunInTx(ctx, func(tx pgx.Tx) error {
		br := s.bookings.WithTx(tx)

		a, b, err := s.lockPair(ctx, br, idA, idB)
		if err != nil {
			return err
		}
		if err := validateSwapPair(a, b); err != nil {
			return err
		}

		exclude := []string{a.ID, b.ID}
		origA, origB := slotOf(a), slotOf(b)

		parking, err := s.findParkingSlot(ctx, br, a, b)
		if err != nil {
			return err
		}

		// Step 1: A into parking
		if err := s.moveChecked(ctx, br, a.ID, parking, a.Duration, exclude, actorID, "parking"); err != nil {
			return err
		}
		// Step 2: B into A's original slot
		if err := s.moveChecked(ctx, br, b.ID, origA, b.Duration, exclude, actorID, "b"); err != nil {
			return err
		}
		// Step 3: A out of parking into B's original slot
		if err := s.moveChecked(ctx, br, a.ID, origB, a.Duration, exclude, actorID, "a"); err != nil {
			return err
		}

		applySlot(a, origB)
		applySlot(b, origA)
		result = &SwapResult{BookingA: a, BookingB: b}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifySwap(ctx, result, actorID, "parking")
	return result, nil
}

// AutoSwap always uses the parking-based relocation
func (s *SwapService) AutoSwap(ctx context.Context, idA, idB, actorID string) (*SwapResult, error) {
	return s.ParkingSwap(ctx, idA, idB, actorID)
}

// lockPair locks both bookings in a deterministic order so two concurrent
// swaps touching the same pair cannot deadlock.
func (s *SwapService) lockPair(ctx context.Context, br repository.BookingRepository, idA, idB string) (*domain.Booking, *domain.Booking, error) {
	first, second := idA, idB
	if second < first {
		first, second = second, first
	}

	locked := make(map[string]*domain.Booking, 2)
	for _, id := range []string{first, second} {
		b, err := br.GetByIDForUpdate(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		locked[id] = b
	}
	return locked[idA], locked[idB], nil
}

func validateSwapPair(a, b *domain.Booking) error {
	if a.ID == b.ID {
		return domain.ErrBookingNotFound
	}
	if a.IsDeleted() || b.IsDeleted() {
		return domain.ErrBookingDeleted
	}
	if !a.Date.Equal(b.Date) {
		return domain.ErrDateMismatch
	}
	if !a.Duration.Equal(b.Duration) {
		return domain.ErrDurationMismatch
	}
	return nil
}

// checkDestination verifies a destination slot is free, reporting which side
// of the swap failed and suggesting alternatives on conflict.
func (s *SwapService) checkDestination(ctx context.Context, br repository.BookingRepository, dest domain.Slot, duration decimal.Decimal, exclude []string, side string) error {
	conflict, err := br.FindConflict(ctx, dest.InstructorUserID, dest.Date, dest.StartHour, duration, exclude)
	if err != nil {
		return err
	}
	if conflict == nil {
		return nil
	}

	existing, err := br.ListActiveByInstructorDate(ctx, dest.InstructorUserID, dest.Date)
	if err != nil {
		existing = nil
	}

	return &domain.SlotConflictError{Details: domain.ConflictDetails{
		BookingID:   conflict.ID,
		Date:        conflict.Date,
		StartHour:   conflict.StartHour,
		EndHour:     conflict.EndHour(),
		Side:        side,
		Suggestions: suggestSlots(existing, conflict, duration, s.cfg.WorkingWindow, s.cfg.SuggestionCount, exclude),
	}}
}

// moveChecked re-validates the destination and relocates one booking
func (s *SwapService) moveChecked(ctx context.Context, br repository.BookingRepository, id string, dest domain.Slot, duration decimal.Decimal, exclude []string, actorID, side string) error {
	dest.Duration = duration
	if err := s.checkDestination(ctx, br, dest, duration, exclude, side); err != nil {
		return err
	}
	return br.UpdateSlot(ctx, id, dest, actorID)
}

// findParkingSlot scans half-hour-aligned starts within the working window
// for a temporary slot free on A's instructor's day, falling back to B's
// instructor, that conflicts with neither party.
func (s *SwapService) findParkingSlot(ctx context.Context, br repository.BookingRepository, a, b *domain.Booking) (domain.Slot, error) {
	exclude := []string{a.ID, b.ID}

	for _, instructorID := range parkingInstructors(a, b) {
		existing, err := br.ListActiveByInstructorDate(ctx, instructorID, a.Date)
		if err != nil {
			return domain.Slot{}, err
		}

		for start := s.cfg.WorkingWindow.Start; s.cfg.WorkingWindow.Contains(start, a.Duration); start = start.Add(domain.HalfHour) {
			if slotFree(existing, exclude, start, a.Duration) {
				return domain.Slot{
					InstructorUserID: instructorID,
					Date:             a.Date,
					StartHour:        start,
					Duration:         a.Duration,
				}, nil
			}
		}
	}
	return domain.Slot{}, domain.ErrNoParkingSlot
}

func parkingInstructors(a, b *domain.Booking) []string {
	if a.InstructorUserID == b.InstructorUserID {
		return []string{a.InstructorUserID}
	}
	return []string{a.InstructorUserID, b.InstructorUserID}
}

func slotOf(b *domain.Booking) domain.Slot {
	return domain.Slot{
		InstructorUserID: b.InstructorUserID,
		Date:             b.Date,
		StartHour:        b.StartHour,
		Duration:         b.Duration,
	}
}

func applySlot(b *domain.Booking, slot domain.Slot) {
	b.InstructorUserID = slot.InstructorUserID
	b.Date = slot.Date
	b.StartHour = slot.StartHour
	b.Duration = slot.Duration
	b.UpdatedAt = time.Now()
}

// notifySwap emits the post-commit swap notification, best-effort
func (s *SwapService) notifySwap(ctx context.Context, result *SwapResult, actorID, mode string) {
	s.events.Publish(ctx, domain.BookingEventSwapped,
		[]string{result.BookingA.ID, result.BookingB.ID}, actorID,
		map[string]string{"mode": mode},
	)
}
