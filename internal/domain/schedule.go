package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HalfHour is the scheduling granularity for suggestions and parking slots
var HalfHour = decimal.NewFromFloat(0.5)

// Overlaps reports whether two half-open hour intervals [s1, s1+d1) and
// [s2, s2+d2) overlap. Touching endpoints are not conflicts.
func Overlaps(start1, dur1, start2, dur2 decimal.Decimal) bool {
	end1 := start1.Add(dur1)
	end2 := start2.Add(dur2)
	return start1.LessThan(end2) && start2.LessThan(end1)
}

// Slot identifies a schedulable interval on an instructor's day
type Slot struct {
	InstructorUserID string
	Date             time.Time
	StartHour        decimal.Decimal
	Duration         decimal.Decimal
}

// EndHour returns the exclusive end of the slot
func (s Slot) EndHour() decimal.Decimal {
	return s.StartHour.Add(s.Duration)
}

// SameTuple reports whether two slots are identical
func (s Slot) SameTuple(o Slot) bool {
	return s.InstructorUserID == o.InstructorUserID &&
		s.Date.Equal(o.Date) &&
		s.StartHour.Equal(o.StartHour) &&
		s.Duration.Equal(o.Duration)
}

// WorkingWindow bounds the schedulable part of a day in fractional hours
type WorkingWindow struct {
	Start decimal.Decimal
	End   decimal.Decimal
}

// DefaultWorkingWindow is 06:00-21:00, the window parking slots are drawn from
func DefaultWorkingWindow() WorkingWindow {
	return WorkingWindow{
		Start: decimal.NewFromInt(6),
		End:   decimal.NewFromInt(21),
	}
}

// Contains reports whether a [start, start+duration) interval fits the window
func (w WorkingWindow) Contains(start, duration decimal.Decimal) bool {
	return start.GreaterThanOrEqual(w.Start) && start.Add(duration).LessThanOrEqual(w.End)
}
