// Package undo provides short-lived single-use token storage for the
// undo-delete flow. A token maps to the serialized outcome of a bulk delete
// and can be redeemed exactly once before its TTL expires.
package undo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plannivo/booking-engine/internal/domain"
)

// Item is the recorded outcome for one deleted booking, captured at delete
// time. Redeeming the token reverses these exact amounts.
type Item struct {
	BookingID     string              `json:"booking_id"`
	RefundType    domain.RefundType   `json:"refund_type"`
	RefundAmount  decimal.Decimal     `json:"refund_amount"`
	Currency      string              `json:"currency"`
	PackageID     string              `json:"package_id,omitempty"`
	HoursRestored decimal.Decimal     `json:"hours_restored"`
	PriorStatus   domain.BookingStatus `json:"prior_status"`
	StudentUserID string              `json:"student_user_id"`
}

// Payload is what an undo token resolves to
type Payload struct {
	Items     []Item    `json:"items"`
	ActorID   string    `json:"actor_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Store holds undo tokens for their TTL. Redeem must be atomic: concurrent
// redemptions of the same token succeed at most once.
type Store interface {
	Put(ctx context.Context, token string, payload Payload, ttl time.Duration) error
	// Redeem removes and returns the payload; ErrUndoTokenGone when the
	// token is absent, expired or already redeemed.
	Redeem(ctx context.Context, token string) (Payload, error)
	Stop()
}
