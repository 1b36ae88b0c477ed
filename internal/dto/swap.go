package dto

// SwapRequest identifies the two bookings to exchange
type SwapRequest struct {
	BookingAID string `json:"booking_a_id" binding:"required"`
	BookingBID string `json:"booking_b_id" binding:"required"`
}

// SwapResponse returns both bookings after a successful swap
type SwapResponse struct {
	BookingA BookingResponse `json:"booking_a"`
	BookingB BookingResponse `json:"booking_b"`
}
