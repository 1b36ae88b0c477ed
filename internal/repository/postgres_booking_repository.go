package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/plannivo/booking-engine/internal/domain"
)

const bookingColumns = `
	id, date, start_hour, duration, instructor_user_id, student_user_id,
	service_id, status, payment_status, amount, final_amount, currency,
	customer_package_id, package_hours, shared_slot, notes, deleted_at,
	deleted_by, delete_reason, created_by, updated_by, created_at, updated_at`

// PostgresBookingRepository implements BookingRepository using PostgreSQL
type PostgresBookingRepository struct {
	db DBTX
}

// NewPostgresBookingRepository creates a new PostgresBookingRepository
func NewPostgresBookingRepository(db DBTX) *PostgresBookingRepository {
	return &PostgresBookingRepository{db: db}
}

// WithTx returns a copy bound to the given transaction
func (r *PostgresBookingRepository) WithTx(tx pgx.Tx) BookingRepository {
	return &PostgresBookingRepository{db: tx}
}

// Create inserts a new booking row. A violation of the storage-level
// no-overlap constraint is translated to a conflict error; it is the last
// line of defense behind the in-transaction conflict check.
func (r *PostgresBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `
		INSERT INTO bookings (
			id, date, start_hour, duration, instructor_user_id, student_user_id,
			service_id, status, payment_status, amount, final_amount, currency,
			customer_package_id, package_hours, shared_slot, notes, created_by,
			updated_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19, $20
		)
	`

	_, err := r.db.Exec(ctx, query,
		b.ID,
		b.Date,
		b.StartHour,
		b.Duration,
		b.InstructorUserID,
		b.StudentUserID,
		b.ServiceID,
		b.Status.String(),
		b.PaymentStatus.String(),
		b.Amount,
		b.FinalAmount,
		b.Currency,
		nullString(b.CustomerPackageID),
		b.PackageHours,
		b.SharedSlot,
		b.Notes,
		b.CreatedBy,
		b.UpdatedBy,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if isOverlapViolation(err) {
			return domain.ErrSlotConflict
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its ID, including soft-deleted rows
func (r *PostgresBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT` + bookingColumns + ` FROM bookings WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

// GetByIDForUpdate retrieves a booking under an exclusive row lock. Two
// operations touching the same booking serialize here; disjoint bookings
// proceed in parallel.
func (r *PostgresBookingRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	return r.queryOne(ctx, query, id)
}

func (r *PostgresBookingRepository) queryOne(ctx context.Context, query string, args ...any) (*domain.Booking, error) {
	booking, err := scanBooking(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// Update writes the mutable fields of a booking
func (r *PostgresBookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	query := `
		UPDATE bookings SET
			date = $2,
			start_hour = $3,
			duration = $4,
			instructor_user_id = $5,
			service_id = $6,
			status = $7,
			payment_status = $8,
			amount = $9,
			final_amount = $10,
			customer_package_id = $11,
			notes = $12,
			updated_by = $13,
			updated_at = $14
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		b.ID,
		b.Date,
		b.StartHour,
		b.Duration,
		b.InstructorUserID,
		b.ServiceID,
		b.Status.String(),
		b.PaymentStatus.String(),
		b.Amount,
		b.FinalAmount,
		nullString(b.CustomerPackageID),
		b.Notes,
		b.UpdatedBy,
		time.Now(),
	)
	if err != nil {
		if isOverlapViolation(err) {
			return domain.ErrSlotConflict
		}
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

// UpdateSlot relocates one booking to a new slot
func (r *PostgresBookingRepository) UpdateSlot(ctx context.Context, id string, slot domain.Slot, updatedBy string) error {
	query := `
		UPDATE bookings SET
			date = $2,
			start_hour = $3,
			duration = $4,
			instructor_user_id = $5,
			updated_by = $6,
			updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		id, slot.Date, slot.StartHour, slot.Duration, slot.InstructorUserID, updatedBy, time.Now(),
	)
	if err != nil {
		if isOverlapViolation(err) {
			return domain.ErrSlotConflict
		}
		return fmt.Errorf("failed to relocate booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

// SwapSlots relocates two bookings in a single statement so that no state
// with only one move applied is ever durable.
func (r *PostgresBookingRepository) SwapSlots(ctx context.Context, idA, idB string, slotA, slotB domain.Slot, updatedBy string) error {
	query := `
		UPDATE bookings SET
			date = CASE id WHEN $1::uuid THEN $3::date ELSE $7::date END,
			start_hour = CASE id WHEN $1::uuid THEN $4::numeric ELSE $8::numeric END,
			duration = CASE id WHEN $1::uuid THEN $5::numeric ELSE $9::numeric END,
			instructor_user_id = CASE id WHEN $1::uuid THEN $6::uuid ELSE $10::uuid END,
			updated_by = $11,
			updated_at = $12
		WHERE id = $1 OR id = $2
	`

	result, err := r.db.Exec(ctx, query,
		idA, idB,
		slotA.Date, slotA.StartHour, slotA.Duration, slotA.InstructorUserID,
		slotB.Date, slotB.StartHour, slotB.Duration, slotB.InstructorUserID,
		updatedBy, time.Now(),
	)
	if err != nil {
		if isOverlapViolation(err) {
			return domain.ErrSlotConflict
		}
		return fmt.Errorf("failed to swap booking slots: %w", err)
	}
	if result.RowsAffected() != 2 {
		return domain.ErrBookingNotFound
	}
	return nil
}

// DeferOverlapConstraint postpones the exclusion constraint check to commit
// time so a combined swap update cannot trip over its own intermediate rows.
func (r *PostgresBookingRepository) DeferOverlapConstraint(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `SET CONSTRAINTS bookings_no_overlap DEFERRED`); err != nil {
		return fmt.Errorf("failed to defer overlap constraint: %w", err)
	}
	return nil
}

// FindConflict returns the first active booking whose interval overlaps the
// candidate, or nil when the slot is free. A shared-slot booking at the
// exact candidate tuple is not a conflict; the capacity check governs those.
func (r *PostgresBookingRepository) FindConflict(ctx context.Context, instructorID string, date time.Time, start, duration decimal.Decimal, excludeIDs []string) (*domain.Booking, error) {
	if excludeIDs == nil {
		excludeIDs = []string{}
	}

	query := `SELECT` + bookingColumns + `
		FROM bookings
		WHERE instructor_user_id = $1
			AND date = $2
			AND status <> 'cancelled'
			AND deleted_at IS NULL
			AND start_hour < $3::numeric + $4::numeric
			AND $3::numeric < start_hour + duration
			AND NOT (shared_slot AND start_hour = $3::numeric AND duration = $4::numeric)
			AND id <> ALL($5::uuid[])
		ORDER BY start_hour
		LIMIT 1
	`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, instructorID, date, start, duration, excludeIDs))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check slot conflict: %w", err)
	}
	return booking, nil
}

// ListActiveByInstructorDate returns the instructor's active bookings for a
// day ordered by start hour, for suggestion and parking-slot scans.
func (r *PostgresBookingRepository) ListActiveByInstructorDate(ctx context.Context, instructorID string, date time.Time) ([]*domain.Booking, error) {
	query := `SELECT` + bookingColumns + `
		FROM bookings
		WHERE instructor_user_id = $1
			AND date = $2
			AND status <> 'cancelled'
			AND deleted_at IS NULL
		ORDER BY start_hour
	`

	rows, err := r.db.Query(ctx, query, instructorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// CountAtExactSlot counts confirmed/completed bookings at the exact tuple,
// for services that cap participants per slot.
func (r *PostgresBookingRepository) CountAtExactSlot(ctx context.Context, slot domain.Slot) (int, error) {
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE instructor_user_id = $1
			AND date = $2
			AND start_hour = $3
			AND duration = $4
			AND status IN ('confirmed', 'completed')
			AND deleted_at IS NULL
	`

	var count int
	err := r.db.QueryRow(ctx, query, slot.InstructorUserID, slot.Date, slot.StartHour, slot.Duration).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings at slot: %w", err)
	}
	return count, nil
}

// SoftDelete marks a booking deleted without removing the row
func (r *PostgresBookingRepository) SoftDelete(ctx context.Context, id, deletedBy, reason string, at time.Time) error {
	query := `
		UPDATE bookings SET
			deleted_at = $2,
			deleted_by = $3,
			delete_reason = $4,
			updated_by = $3,
			updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query, id, at, deletedBy, reason)
	if err != nil {
		return fmt.Errorf("failed to soft delete booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Distinguish missing from already deleted
		var deletedAt *time.Time
		err := r.db.QueryRow(ctx, `SELECT deleted_at FROM bookings WHERE id = $1`, id).Scan(&deletedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrBookingNotFound
			}
			return fmt.Errorf("failed to check booking state: %w", err)
		}
		return domain.ErrBookingDeleted
	}
	return nil
}

// ClearDeleted removes the soft-delete marker and sets the restored status.
// The overlap constraint applies again the moment the marker clears.
func (r *PostgresBookingRepository) ClearDeleted(ctx context.Context, id string, status domain.BookingStatus, updatedBy string) error {
	query := `
		UPDATE bookings SET
			deleted_at = NULL,
			deleted_by = NULL,
			delete_reason = NULL,
			status = $2,
			updated_by = $3,
			updated_at = $4
		WHERE id = $1 AND deleted_at IS NOT NULL
	`

	result, err := r.db.Exec(ctx, query, id, status.String(), updatedBy, time.Now())
	if err != nil {
		if isOverlapViolation(err) {
			return domain.ErrSlotConflict
		}
		return fmt.Errorf("failed to restore booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrBookingNotDeleted
	}
	return nil
}

// LatestDeleted returns the most recently soft-deleted booking
func (r *PostgresBookingRepository) LatestDeleted(ctx context.Context) (*domain.Booking, error) {
	query := `SELECT` + bookingColumns + `
		FROM bookings
		WHERE deleted_at IS NOT NULL
		ORDER BY deleted_at DESC
		LIMIT 1
	`
	return r.queryOne(ctx, query)
}

// List returns bookings matching the filter, newest date first
func (r *PostgresBookingRepository) List(ctx context.Context, filter BookingFilter) ([]*domain.Booking, error) {
	where, args := filter.build()
	limits, args := filter.limits(args)

	query := `SELECT` + bookingColumns + ` FROM bookings ` + where +
		` ORDER BY date DESC, start_hour ` + limits

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// CreateParticipants inserts participant rows for a group booking
func (r *PostgresBookingRepository) CreateParticipants(ctx context.Context, participants []*domain.BookingParticipant) error {
	query := `
		INSERT INTO booking_participants (
			id, booking_id, user_id, is_primary, payment_status, amount,
			customer_package_id, package_hours, cash_hours
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, p := range participants {
		_, err := r.db.Exec(ctx, query,
			p.ID, p.BookingID, p.UserID, p.IsPrimary, p.PaymentStatus.String(),
			p.Amount, nullString(p.CustomerPackageID), p.PackageHours, p.CashHours,
		)
		if err != nil {
			return fmt.Errorf("failed to create participant: %w", err)
		}
	}
	return nil
}

// ListParticipants returns a booking's participants, primary first
func (r *PostgresBookingRepository) ListParticipants(ctx context.Context, bookingID string) ([]*domain.BookingParticipant, error) {
	query := `
		SELECT id, booking_id, user_id, is_primary, payment_status, amount,
			customer_package_id, package_hours, cash_hours
		FROM booking_participants
		WHERE booking_id = $1
		ORDER BY is_primary DESC, id
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*domain.BookingParticipant
	for rows.Next() {
		p := &domain.BookingParticipant{}
		var status string
		var packageID *string
		if err := rows.Scan(
			&p.ID, &p.BookingID, &p.UserID, &p.IsPrimary, &status, &p.Amount,
			&packageID, &p.PackageHours, &p.CashHours,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.PaymentStatus = domain.PaymentStatus(status)
		if packageID != nil {
			p.CustomerPackageID = *packageID
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}
	return participants, nil
}

// RecordDeleteAudit writes the durable reconciliation outcome of a delete
func (r *PostgresBookingRepository) RecordDeleteAudit(ctx context.Context, a *domain.DeleteAudit) error {
	query := `
		INSERT INTO booking_delete_audits (
			id, booking_id, refund_type, refund_amount, currency, package_id,
			hours_restored, prior_status, deleted_by, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		a.ID, a.BookingID, string(a.RefundType), a.RefundAmount, a.Currency,
		nullString(a.PackageID), a.HoursRestored, a.PriorStatus.String(),
		a.DeletedBy, a.Reason, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record delete audit: %w", err)
	}
	return nil
}

// LatestDeleteAudit returns the most recent delete audit for a booking
func (r *PostgresBookingRepository) LatestDeleteAudit(ctx context.Context, bookingID string) (*domain.DeleteAudit, error) {
	query := `
		SELECT id, booking_id, refund_type, refund_amount, currency, package_id,
			hours_restored, prior_status, deleted_by, reason, created_at
		FROM booking_delete_audits
		WHERE booking_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	a := &domain.DeleteAudit{}
	var refundType, priorStatus string
	var packageID *string
	err := r.db.QueryRow(ctx, query, bookingID).Scan(
		&a.ID, &a.BookingID, &refundType, &a.RefundAmount, &a.Currency,
		&packageID, &a.HoursRestored, &priorStatus, &a.DeletedBy, &a.Reason, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotDeleted
		}
		return nil, fmt.Errorf("failed to get delete audit: %w", err)
	}
	a.RefundType = domain.RefundType(refundType)
	a.PriorStatus = domain.BookingStatus(priorStatus)
	if packageID != nil {
		a.PackageID = *packageID
	}
	return a, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	var (
		status, paymentStatus string
		packageID             *string
		notes                 *string
		deletedAt             *time.Time
		deletedBy             *string
		deleteReason          *string
	)

	err := row.Scan(
		&b.ID, &b.Date, &b.StartHour, &b.Duration, &b.InstructorUserID,
		&b.StudentUserID, &b.ServiceID, &status, &paymentStatus, &b.Amount,
		&b.FinalAmount, &b.Currency, &packageID, &b.PackageHours, &b.SharedSlot,
		&notes, &deletedAt, &deletedBy, &deleteReason, &b.CreatedBy,
		&b.UpdatedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Status = domain.BookingStatus(status)
	b.PaymentStatus = domain.PaymentStatus(paymentStatus)
	if packageID != nil {
		b.CustomerPackageID = *packageID
	}
	if notes != nil {
		b.Notes = *notes
	}
	b.DeletedAt = deletedAt
	if deletedBy != nil {
		b.DeletedBy = *deletedBy
	}
	if deleteReason != nil {
		b.DeleteReason = *deleteReason
	}
	return b, nil
}

func collectBookings(rows pgx.Rows) ([]*domain.Booking, error) {
	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}
	return bookings, nil
}

// isOverlapViolation reports whether the error is the storage-level overlap
// exclusion constraint or a uniqueness violation on the schedule.
func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23P01" || pgErr.Code == "23505"
}

// nullString converts an empty string to a nil pointer for nullable columns
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Ensure PostgresBookingRepository implements BookingRepository
var _ BookingRepository = (*PostgresBookingRepository)(nil)
