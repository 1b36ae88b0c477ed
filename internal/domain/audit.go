package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeleteAudit is the durable record written at soft-delete time. Restore
// reverses exactly what it records instead of recomputing the reconciliation.
type DeleteAudit struct {
	ID            string
	BookingID     string
	RefundType    RefundType
	RefundAmount  decimal.Decimal
	Currency      string
	PackageID     string
	HoursRestored decimal.Decimal
	PriorStatus   BookingStatus
	DeletedBy     string
	Reason        string
	CreatedAt     time.Time
}
