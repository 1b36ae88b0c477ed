package domain

import "time"

// BookingEventType identifies audit/notification events emitted after commit
type BookingEventType string

const (
	BookingEventCreated        BookingEventType = "booking.created"
	BookingEventUpdated        BookingEventType = "booking.updated"
	BookingEventStatusChanged  BookingEventType = "booking.status_changed"
	BookingEventCancelled      BookingEventType = "booking.cancelled"
	BookingEventDeleted        BookingEventType = "booking.deleted"
	BookingEventRestored       BookingEventType = "booking.restored"
	BookingEventSwapped        BookingEventType = "booking.swapped"
	BookingEventRatingReminder BookingEventType = "booking.rating_reminder"
	BookingEventCommission     BookingEventType = "booking.commission"
)

// BookingEvent is the envelope written to the audit/event sink. Delivery is
// best-effort and fire-and-forget; failures never abort a booking operation.
type BookingEvent struct {
	ID         string            `json:"id"`
	Type       BookingEventType  `json:"type"`
	BookingIDs []string          `json:"booking_ids"`
	ActorID    string            `json:"actor_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
