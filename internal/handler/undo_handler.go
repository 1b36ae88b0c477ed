package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/plannivo/booking-engine/internal/dto"
	"github.com/plannivo/booking-engine/internal/service"
	"github.com/plannivo/booking-engine/pkg/response"
)

// UndoHandler exposes bulk delete and undo redemption over HTTP
type UndoHandler struct {
	undo *service.UndoService
}

// NewUndoHandler creates a new UndoHandler
func NewUndoHandler(undo *service.UndoService) *UndoHandler {
	return &UndoHandler{undo: undo}
}

// BulkDelete handles POST /bookings/bulk-delete
func (h *UndoHandler) BulkDelete(c *gin.Context) {
	var req dto.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	actorID, _ := actor(c)
	result, err := h.undo.BulkDelete(c.Request.Context(), req.BookingIDs, actorID, req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}

	resp := dto.BulkDeleteResponse{
		UndoToken:        result.UndoToken,
		ExpiresInSeconds: int(result.ExpiresIn.Seconds()),
	}
	for _, d := range result.Deleted {
		resp.Deleted = append(resp.Deleted, dto.ToBookingResponse(d.Booking))
	}
	response.Success(c, resp)
}

// UndoDelete handles POST /bookings/undo-delete
func (h *UndoHandler) UndoDelete(c *gin.Context) {
	var req dto.UndoDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	actorID, _ := actor(c)
	result, err := h.undo.Undo(c.Request.Context(), req.UndoToken, actorID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, dto.UndoDeleteResponse{
		Restored:      result.Restored,
		Skipped:       result.Skipped,
		NotRestorable: result.NotRestorable,
	})
}
