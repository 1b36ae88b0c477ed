package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/plannivo/booking-engine/internal/domain"
)

// DateLayout is the wire format for booking dates
const DateLayout = "2006-01-02"

// CreateBookingRequest is the request body for creating a single booking
type CreateBookingRequest struct {
	Date             string   `json:"date" binding:"required"`
	StartHour        float64  `json:"start_hour"`
	Duration         float64  `json:"duration" binding:"required"`
	InstructorUserID string   `json:"instructor_user_id" binding:"required"`
	StudentUserID    string   `json:"student_user_id" binding:"required"`
	ServiceID        string   `json:"service_id" binding:"required"`
	UsePackage       bool     `json:"use_package"`
	Amount           *float64 `json:"amount"`
	Notes            string   `json:"notes"`
}

// ParseDate parses the request date
func (r *CreateBookingRequest) ParseDate() (time.Time, error) {
	return time.Parse(DateLayout, r.Date)
}

// GroupParticipantRequest is one participant in a group booking request
type GroupParticipantRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	UsePackage bool   `json:"use_package"`
}

// CreateGroupBookingRequest is the request body for a group booking
type CreateGroupBookingRequest struct {
	CreateBookingRequest
	Participants []GroupParticipantRequest `json:"participants" binding:"required,min=1"`
}

// CreateCalendarBookingRequest is a calendar-originated booking keyed by
// customer email; unknown emails get a student account auto-created.
type CreateCalendarBookingRequest struct {
	Date             string   `json:"date" binding:"required"`
	StartHour        float64  `json:"start_hour"`
	Duration         float64  `json:"duration" binding:"required"`
	InstructorUserID string   `json:"instructor_user_id" binding:"required"`
	ServiceID        string   `json:"service_id" binding:"required"`
	Email            string   `json:"email" binding:"required,email"`
	FirstName        string   `json:"first_name"`
	LastName         string   `json:"last_name"`
	UsePackage       bool     `json:"use_package"`
	Amount           *float64 `json:"amount"`
	Notes            string   `json:"notes"`
}

// UpdateBookingRequest is a partial update; absent fields keep their value
type UpdateBookingRequest struct {
	Date             *string  `json:"date"`
	StartHour        *float64 `json:"start_hour"`
	Duration         *float64 `json:"duration"`
	InstructorUserID *string  `json:"instructor_user_id"`
	ServiceID        *string  `json:"service_id"`
	Status           *string  `json:"status"`
	Amount           *float64 `json:"amount"`
	FinalAmount      *float64 `json:"final_amount"`
	Notes            *string  `json:"notes"`
}

// UpdateStatusRequest transitions a booking's status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// DeleteBookingRequest carries the optional reason for a delete
type DeleteBookingRequest struct {
	Reason string `json:"reason"`
}

// BulkDeleteRequest soft-deletes several bookings at once
type BulkDeleteRequest struct {
	BookingIDs []string `json:"booking_ids" binding:"required,min=1"`
	Reason     string   `json:"reason"`
}

// UndoDeleteRequest redeems an undo token
type UndoDeleteRequest struct {
	UndoToken string `json:"undo_token" binding:"required"`
}

// ListBookingsQuery holds the optional list filters
type ListBookingsQuery struct {
	InstructorUserID string `form:"instructor_user_id"`
	StudentUserID    string `form:"student_user_id"`
	ServiceID        string `form:"service_id"`
	Status           string `form:"status"`
	Date             string `form:"date"`
	DateFrom         string `form:"date_from"`
	DateTo           string `form:"date_to"`
	IncludeDeleted   bool   `form:"include_deleted"`
	Limit            int    `form:"limit"`
	Offset           int    `form:"offset"`
}

// BookingResponse is the wire representation of a booking
type BookingResponse struct {
	ID                string          `json:"id"`
	Date              string          `json:"date"`
	StartHour         decimal.Decimal `json:"start_hour"`
	Duration          decimal.Decimal `json:"duration"`
	EndHour           decimal.Decimal `json:"end_hour"`
	InstructorUserID  string          `json:"instructor_user_id"`
	StudentUserID     string          `json:"student_user_id"`
	ServiceID         string          `json:"service_id"`
	Status            string          `json:"status"`
	PaymentStatus     string          `json:"payment_status"`
	Amount            decimal.Decimal `json:"amount"`
	FinalAmount       decimal.Decimal `json:"final_amount"`
	Currency          string          `json:"currency"`
	CustomerPackageID string          `json:"customer_package_id,omitempty"`
	PackageHours      decimal.Decimal `json:"package_hours"`
	SharedSlot        bool            `json:"shared_slot,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	DeletedAt         *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToBookingResponse converts a domain booking to its wire form
func ToBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:                b.ID,
		Date:              b.Date.Format(DateLayout),
		StartHour:         b.StartHour,
		Duration:          b.Duration,
		EndHour:           b.EndHour(),
		InstructorUserID:  b.InstructorUserID,
		StudentUserID:     b.StudentUserID,
		ServiceID:         b.ServiceID,
		Status:            b.Status.String(),
		PaymentStatus:     b.PaymentStatus.String(),
		Amount:            b.Amount,
		FinalAmount:       b.FinalAmount,
		Currency:          b.Currency,
		CustomerPackageID: b.CustomerPackageID,
		PackageHours:      b.PackageHours,
		SharedSlot:        b.SharedSlot,
		Notes:             b.Notes,
		DeletedAt:         b.DeletedAt,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// ToBookingResponses converts a slice of bookings
func ToBookingResponses(bookings []*domain.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, ToBookingResponse(b))
	}
	return out
}

// ParticipantResponse is the wire representation of a participant
type ParticipantResponse struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	IsPrimary         bool            `json:"is_primary"`
	PaymentStatus     string          `json:"payment_status"`
	Amount            decimal.Decimal `json:"amount"`
	CustomerPackageID string          `json:"customer_package_id,omitempty"`
	PackageHours      decimal.Decimal `json:"package_hours"`
	CashHours         decimal.Decimal `json:"cash_hours"`
}

// ToParticipantResponses converts participants to their wire form
func ToParticipantResponses(participants []*domain.BookingParticipant) []ParticipantResponse {
	out := make([]ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		out = append(out, ParticipantResponse{
			ID:                p.ID,
			UserID:            p.UserID,
			IsPrimary:         p.IsPrimary,
			PaymentStatus:     p.PaymentStatus.String(),
			Amount:            p.Amount,
			CustomerPackageID: p.CustomerPackageID,
			PackageHours:      p.PackageHours,
			CashHours:         p.CashHours,
		})
	}
	return out
}

// CreateBookingResponse wraps a created booking with settlement details
type CreateBookingResponse struct {
	Booking      BookingResponse       `json:"booking"`
	Participants []ParticipantResponse `json:"participants,omitempty"`
	Degradations []string              `json:"degraded_to_cash,omitempty"`
}

// BulkDeleteResponse returns the undo token for a bulk delete
type BulkDeleteResponse struct {
	UndoToken        string            `json:"undo_token,omitempty"`
	ExpiresInSeconds int               `json:"expires_in_seconds"`
	Deleted          []BookingResponse `json:"deleted"`
}

// UndoDeleteResponse reports the outcome of an undo redemption
type UndoDeleteResponse struct {
	Restored      []string `json:"restored"`
	Skipped       []string `json:"skipped,omitempty"`
	NotRestorable []string `json:"not_restorable,omitempty"`
}

// DeleteBookingResponse reports the reconciliation outcome of a delete
type DeleteBookingResponse struct {
	Booking      BookingResponse `json:"booking"`
	RefundType   string          `json:"refund_type"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}
