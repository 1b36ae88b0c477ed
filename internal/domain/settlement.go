package domain

import "github.com/shopspring/decimal"

// SettlementKind tags how a participant's share of a booking was paid
type SettlementKind int

const (
	// SettlementPaid: full cash charge against the wallet
	SettlementPaid SettlementKind = iota
	// SettlementPackage: fully covered by prepaid package hours
	SettlementPackage
	// SettlementPartial: package hours plus a cash remainder
	SettlementPartial
)

// Settlement is the single classification of a participant's payment,
// computed once at booking time and carried through instead of being
// re-derived from overlapping flags at each call site.
type Settlement struct {
	Kind         SettlementKind
	PackageID    string
	PackageHours decimal.Decimal
	CashHours    decimal.Decimal
	CashAmount   decimal.Decimal
}

// PaidSettlement settles the full duration in cash
func PaidSettlement(hours, amount decimal.Decimal) Settlement {
	return Settlement{Kind: SettlementPaid, CashHours: hours, CashAmount: amount}
}

// PackageSettlement settles the full duration from a package
func PackageSettlement(packageID string, hours decimal.Decimal) Settlement {
	return Settlement{Kind: SettlementPackage, PackageID: packageID, PackageHours: hours}
}

// PartialSettlement settles part from a package, the rest in cash
func PartialSettlement(packageID string, packageHours, cashHours, cashAmount decimal.Decimal) Settlement {
	return Settlement{
		Kind:         SettlementPartial,
		PackageID:    packageID,
		PackageHours: packageHours,
		CashHours:    cashHours,
		CashAmount:   cashAmount,
	}
}

// PaymentStatus maps the settlement to the participant's payment status
func (s Settlement) PaymentStatus() PaymentStatus {
	switch s.Kind {
	case SettlementPackage:
		return PaymentStatusPackage
	case SettlementPartial:
		return PaymentStatusPartial
	default:
		// Zero-amount cash bookings are still marked paid; the wallet
		// charge is simply skipped.
		return PaymentStatusPaid
	}
}

// UsesPackage reports whether any package hours were consumed
func (s Settlement) UsesPackage() bool {
	return s.Kind == SettlementPackage || s.Kind == SettlementPartial
}
