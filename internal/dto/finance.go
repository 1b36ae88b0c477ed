package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/plannivo/booking-engine/internal/domain"
)

// DepositRequest credits a user's wallet
type DepositRequest struct {
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency"`
}

// BalanceResponse is a user's wallet balance in one currency
type BalanceResponse struct {
	UserID   string          `json:"user_id"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// PurchasePackageRequest buys a prepaid hour package
type PurchasePackageRequest struct {
	UserID      string  `json:"user_id" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	ServiceName string  `json:"service_name"`
	TotalHours  float64 `json:"total_hours" binding:"required,gt=0"`
	Price       float64 `json:"price" binding:"gte=0"`
	Currency    string  `json:"currency"`
}

// PackageResponse is the wire representation of a customer package
type PackageResponse struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Name           string          `json:"name"`
	ServiceName    string          `json:"service_name,omitempty"`
	TotalHours     decimal.Decimal `json:"total_hours"`
	UsedHours      decimal.Decimal `json:"used_hours"`
	RemainingHours decimal.Decimal `json:"remaining_hours"`
	PurchasePrice  decimal.Decimal `json:"purchase_price"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	PurchasedAt    time.Time       `json:"purchased_at"`
}

// ToPackageResponse converts a domain package to its wire form
func ToPackageResponse(p *domain.CustomerPackage) PackageResponse {
	return PackageResponse{
		ID:             p.ID,
		UserID:         p.UserID,
		Name:           p.Name,
		ServiceName:    p.ServiceName,
		TotalHours:     p.TotalHours,
		UsedHours:      p.UsedHours,
		RemainingHours: p.RemainingHours,
		PurchasePrice:  p.PurchasePrice,
		Currency:       p.Currency,
		Status:         p.Status.String(),
		PurchasedAt:    p.PurchasedAt,
	}
}
