package repository

import (
	"fmt"
	"strings"
	"time"
)

// BookingFilter is the open set of optional list filters. The builder binds
// every value positionally; identifiers and values are never interpolated
// into the query text.
type BookingFilter struct {
	InstructorUserID string
	StudentUserID    string
	ServiceID        string
	Status           string
	Date             *time.Time
	DateFrom         *time.Time
	DateTo           *time.Time
	IncludeDeleted   bool
	Limit            int
	Offset           int
}

// bookingQueryBuilder accumulates WHERE fragments with positional binds
type bookingQueryBuilder struct {
	conditions []string
	args       []any
}

func (b *bookingQueryBuilder) where(condition string, value any) {
	b.args = append(b.args, value)
	b.conditions = append(b.conditions, fmt.Sprintf(condition, len(b.args)))
}

func (b *bookingQueryBuilder) whereRaw(condition string) {
	b.conditions = append(b.conditions, condition)
}

// build renders the filter into a WHERE clause and its bound arguments
func (f BookingFilter) build() (string, []any) {
	b := &bookingQueryBuilder{}

	if f.InstructorUserID != "" {
		b.where("instructor_user_id = $%d", f.InstructorUserID)
	}
	if f.StudentUserID != "" {
		b.where("student_user_id = $%d", f.StudentUserID)
	}
	if f.ServiceID != "" {
		b.where("service_id = $%d", f.ServiceID)
	}
	if f.Status != "" {
		b.where("status = $%d", f.Status)
	}
	if f.Date != nil {
		b.where("date = $%d", *f.Date)
	}
	if f.DateFrom != nil {
		b.where("date >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		b.where("date <= $%d", *f.DateTo)
	}
	if !f.IncludeDeleted {
		b.whereRaw("deleted_at IS NULL")
	}

	if len(b.conditions) == 0 {
		return "", b.args
	}
	return "WHERE " + strings.Join(b.conditions, " AND "), b.args
}

// limits renders LIMIT/OFFSET with positional binds, defaulting the limit
func (f BookingFilter) limits(args []any) (string, []any) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	clause := fmt.Sprintf("LIMIT $%d", len(args))
	if f.Offset > 0 {
		args = append(args, f.Offset)
		clause += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return clause, args
}
