package service

import (
	"github.com/shopspring/decimal"

	"github.com/plannivo/booking-engine/internal/domain"
)

// suggestSlots computes up to count free alternative slots around a
// conflicting booking: half-hour increments scanning forward from the
// conflict's end, then backward from its start, within the working window.
// The result is best-effort and may hold fewer than count entries near day
// boundaries.
func suggestSlots(existing []*domain.Booking, conflict *domain.Booking, duration decimal.Decimal, window domain.WorkingWindow, count int, excludeIDs []string) []domain.SuggestedSlot {
	if count <= 0 || conflict == nil {
		return nil
	}

	suggestions := make([]domain.SuggestedSlot, 0, count)

	add := func(start decimal.Decimal) bool {
		if !window.Contains(start, duration) {
			return false
		}
		if !slotFree(existing, excludeIDs, start, duration) {
			return true // blocked, keep scanning
		}
		suggestions = append(suggestions, domain.SuggestedSlot{
			Date:      conflict.Date,
			StartHour: start,
			Duration:  duration,
		})
		return true
	}

	// Forward from the conflict's end
	for start := conflict.EndHour(); len(suggestions) < count; start = start.Add(domain.HalfHour) {
		if !add(start) {
			break
		}
	}

	// Backward from the conflict's start
	for start := conflict.StartHour.Sub(duration); len(suggestions) < count; start = start.Sub(domain.HalfHour) {
		if !add(start) {
			break
		}
	}

	return suggestions
}

// slotFree reports whether a candidate interval overlaps none of the
// instructor's active bookings that day.
func slotFree(existing []*domain.Booking, excludeIDs []string, start, duration decimal.Decimal) bool {
	for _, b := range existing {
		if !b.Active() || excluded(excludeIDs, b.ID) {
			continue
		}
		if domain.Overlaps(start, duration, b.StartHour, b.Duration) {
			return false
		}
	}
	return true
}

func excluded(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
