package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPackageMatchesService(t *testing.T) {
	tests := []struct {
		name        string
		packageName string
		serviceName string
		want        bool
	}{
		{"unbound package matches anything", "", "kitesurfing lesson", true},
		{"exact match", "surf lesson", "surf lesson", true},
		{"case insensitive", "Surf Lesson", "surf lesson", true},
		{"surrounding whitespace", " surf lesson ", "surf lesson", true},
		{"plural package singular service", "surf lessons", "surf lesson", true},
		{"singular package plural service", "surf lesson", "surf lessons", true},
		{"different service", "surf lesson", "yoga class", false},
		{"shared prefix is not a match", "surf lesson", "surf lesson advanced", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &CustomerPackage{ServiceName: tt.packageName}
			assert.Equal(t, tt.want, p.MatchesService(tt.serviceName))
		})
	}
}

func TestPackagePerHourRate(t *testing.T) {
	p := &CustomerPackage{TotalHours: d(10), PurchasePrice: d(450)}
	assert.True(t, p.PerHourRate().Equal(d(45)))

	free := &CustomerPackage{TotalHours: decimal.Zero, PurchasePrice: d(100)}
	assert.True(t, free.PerHourRate().IsZero(), "zero-hour packages never divide by zero")
}
