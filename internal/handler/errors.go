package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/plannivo/booking-engine/internal/domain"
	"github.com/plannivo/booking-engine/pkg/logger"
	"github.com/plannivo/booking-engine/pkg/response"
)

// handleError maps domain errors onto the HTTP taxonomy: validation and
// financial failures are 400, conflicts 409 with diagnostics, missing
// entities 404, spent undo tokens 410, everything else 500.
func handleError(c *gin.Context, err error) {
	var conflictErr *domain.SlotConflictError
	if errors.As(err, &conflictErr) {
		response.Conflict(c, "booking_conflict", err.Error(), conflictErr.Details)
		return
	}

	switch {
	case errors.Is(err, domain.ErrCapacityExceeded):
		response.Conflict(c, "capacity_exceeded", err.Error(), nil)
	case errors.Is(err, domain.ErrNoParkingSlot):
		response.Conflict(c, "no_parking_slot", err.Error(), nil)
	case domain.IsConflictError(err):
		response.Conflict(c, "booking_conflict", err.Error(), nil)
	case domain.IsFinancialError(err):
		response.Error(c, http.StatusBadRequest, "FINANCIAL_ERROR", err.Error(), nil)
	case domain.IsValidationError(err):
		response.BadRequest(c, err.Error())
	case domain.IsNotFoundError(err):
		response.NotFound(c, err.Error())
	case domain.IsGoneError(err):
		response.Gone(c, err.Error())
	default:
		logger.Get().Error("request failed", zap.Error(err))
		response.InternalError(c, err)
	}
}

// actor reads the verified identity the auth middleware attached
func actor(c *gin.Context) (id, role string) {
	return c.GetString("user_id"), c.GetString("role")
}
