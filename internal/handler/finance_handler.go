package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/plannivo/booking-engine/internal/dto"
	"github.com/plannivo/booking-engine/internal/service"
	"github.com/plannivo/booking-engine/pkg/response"
)

// FinanceHandler exposes wallet and package operations over HTTP
type FinanceHandler struct {
	finance *service.FinanceService
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(finance *service.FinanceService) *FinanceHandler {
	return &FinanceHandler{finance: finance}
}

// Deposit handles POST /wallet/deposit/:userId
func (h *FinanceHandler) Deposit(c *gin.Context) {
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := c.Param("userId")
	actorID, _ := actor(c)
	balance, err := h.finance.Deposit(c.Request.Context(), userID,
		decimal.NewFromFloat(req.Amount), req.Currency, actorID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, dto.BalanceResponse{
		UserID:   userID,
		Balance:  balance,
		Currency: req.Currency,
	})
}

// Balance handles GET /wallet/balance/:userId
func (h *FinanceHandler) Balance(c *gin.Context) {
	userID := c.Param("userId")
	currency := c.Query("currency")

	balance, err := h.finance.Balance(c.Request.Context(), userID, currency)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, dto.BalanceResponse{
		UserID:   userID,
		Balance:  balance,
		Currency: currency,
	})
}

// PurchasePackage handles POST /packages/purchase
func (h *FinanceHandler) PurchasePackage(c *gin.Context) {
	var req dto.PurchasePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	actorID, actorRole := actor(c)
	pkg, err := h.finance.PurchasePackage(c.Request.Context(), service.PurchasePackageInput{
		UserID:      req.UserID,
		Name:        req.Name,
		ServiceName: req.ServiceName,
		TotalHours:  decimal.NewFromFloat(req.TotalHours),
		Price:       decimal.NewFromFloat(req.Price),
		Currency:    req.Currency,
		ActorID:     actorID,
		ActorRole:   actorRole,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, dto.ToPackageResponse(pkg))
}
