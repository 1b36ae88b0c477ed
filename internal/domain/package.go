package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PackageStatus represents the state of a prepaid hour package
type PackageStatus string

const (
	PackageStatusActive  PackageStatus = "active"
	PackageStatusUsedUp  PackageStatus = "used_up"
	PackageStatusExpired PackageStatus = "expired"
)

// String returns the string representation of the package status
func (s PackageStatus) String() string {
	return string(s)
}

// CustomerPackage is a prepaid bucket of lesson hours. The invariant
// used_hours + remaining_hours == total_hours holds through every mutation;
// remaining_hours never goes negative and status flips to used_up exactly
// when it reaches zero.
type CustomerPackage struct {
	ID             string
	UserID         string
	Name           string
	ServiceName    string // empty = usable for any service
	TotalHours     decimal.Decimal
	UsedHours      decimal.Decimal
	RemainingHours decimal.Decimal
	PurchasePrice  decimal.Decimal
	Currency       string
	Status         PackageStatus
	PurchasedAt    time.Time
	LastUsedAt     *time.Time
}

// PerHourRate returns the blended hourly rate the customer effectively paid,
// used to price the cash portion of a partially covered booking.
func (p *CustomerPackage) PerHourRate() decimal.Decimal {
	if p.TotalHours.IsZero() {
		return decimal.Zero
	}
	return p.PurchasePrice.Div(p.TotalHours)
}

// MatchesService reports whether this package can pay for the named service.
// A package with no service binding matches everything. Otherwise the names
// must match exactly or up to a trailing "s" (singular/plural heuristic).
func (p *CustomerPackage) MatchesService(serviceName string) bool {
	if p.ServiceName == "" {
		return true
	}
	a := strings.ToLower(strings.TrimSpace(p.ServiceName))
	b := strings.ToLower(strings.TrimSpace(serviceName))
	if a == b {
		return true
	}
	return strings.TrimSuffix(a, "s") == strings.TrimSuffix(b, "s")
}
