package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/plannivo/booking-engine/internal/dto"
	"github.com/plannivo/booking-engine/internal/service"
	"github.com/plannivo/booking-engine/pkg/response"
)

// SwapHandler exposes the swap coordinator over HTTP
type SwapHandler struct {
	swaps *service.SwapService
}

// NewSwapHandler creates a new SwapHandler
func NewSwapHandler(swaps *service.SwapService) *SwapHandler {
	return &SwapHandler{swaps: swaps}
}

// Swap handles POST /bookings/swap
func (h *SwapHandler) Swap(c *gin.Context) {
	h.run(c, h.swaps.DirectSwap)
}

// SwapWithParking handles POST /bookings/swap-with-parking
func (h *SwapHandler) SwapWithParking(c *gin.Context) {
	h.run(c, h.swaps.ParkingSwap)
}

// SwapAuto handles POST /bookings/swap-auto
func (h *SwapHandler) SwapAuto(c *gin.Context) {
	h.run(c, h.swaps.AutoSwap)
}

func (h *SwapHandler) run(c *gin.Context, swap func(ctx context.Context, idA, idB, actorID string) (*service.SwapResult, error)) {
	var req dto.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	actorID, _ := actor(c)
	result, err := swap(c.Request.Context(), req.BookingAID, req.BookingBID, actorID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, dto.SwapResponse{
		BookingA: dto.ToBookingResponse(result.BookingA),
		BookingB: dto.ToBookingResponse(result.BookingB),
	})
}
