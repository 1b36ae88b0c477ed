package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSettlementPaymentStatus(t *testing.T) {
	tests := []struct {
		name       string
		settlement Settlement
		want       PaymentStatus
	}{
		{"full cash", PaidSettlement(d(1), d(50)), PaymentStatusPaid},
		{"zero amount cash still counts as paid", PaidSettlement(d(1), decimal.Zero), PaymentStatusPaid},
		{"full package", PackageSettlement("pkg-1", d(1)), PaymentStatusPackage},
		{"blended", PartialSettlement("pkg-1", d(0.5), d(0.5), d(25)), PaymentStatusPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.settlement.PaymentStatus())
		})
	}
}

func TestSettlementUsesPackage(t *testing.T) {
	assert.False(t, PaidSettlement(d(1), d(50)).UsesPackage())
	assert.True(t, PackageSettlement("pkg-1", d(1)).UsesPackage())
	assert.True(t, PartialSettlement("pkg-1", d(0.5), d(0.5), d(25)).UsesPackage())
}

func TestSettlementCashBreakdown(t *testing.T) {
	s := PartialSettlement("pkg-1", d(1.5), d(0.5), d(25))
	assert.Equal(t, "pkg-1", s.PackageID)
	assert.True(t, s.PackageHours.Equal(d(1.5)))
	assert.True(t, s.CashHours.Equal(d(0.5)))
	assert.True(t, s.CashAmount.Equal(d(25)))
}
