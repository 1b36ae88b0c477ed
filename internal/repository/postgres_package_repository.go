package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/plannivo/booking-engine/internal/domain"
)

const packageColumns = `
	id, user_id, name, service_name, total_hours, used_hours, remaining_hours,
	purchase_price, currency, status, purchased_at, last_used_at`

// PostgresPackageRepository implements PackageRepository using PostgreSQL
type PostgresPackageRepository struct {
	db DBTX
}

// NewPostgresPackageRepository creates a new PostgresPackageRepository
func NewPostgresPackageRepository(db DBTX) *PostgresPackageRepository {
	return &PostgresPackageRepository{db: db}
}

// WithTx returns a copy bound to the given transaction
func (r *PostgresPackageRepository) WithTx(tx pgx.Tx) PackageRepository {
	return &PostgresPackageRepository{db: tx}
}

// Create inserts a new customer package
func (r *PostgresPackageRepository) Create(ctx context.Context, p *domain.CustomerPackage) error {
	query := `
		INSERT INTO customer_packages (
			id, user_id, name, service_name, total_hours, used_hours,
			remaining_hours, purchase_price, currency, status, purchased_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		p.ID, p.UserID, p.Name, p.ServiceName, p.TotalHours, p.UsedHours,
		p.RemainingHours, p.PurchasePrice, p.Currency, p.Status.String(), p.PurchasedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}
	return nil
}

// GetByID retrieves a package by its ID
func (r *PostgresPackageRepository) GetByID(ctx context.Context, id string) (*domain.CustomerPackage, error) {
	query := `SELECT` + packageColumns + ` FROM customer_packages WHERE id = $1`

	pkg, err := scanPackage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return pkg, nil
}

// FindActiveForUser returns the oldest active package with remaining hours
// that matches the service name. Name matching uses the singular/plural
// heuristic in the domain, so candidates are filtered in Go.
func (r *PostgresPackageRepository) FindActiveForUser(ctx context.Context, userID, serviceName string) (*domain.CustomerPackage, error) {
	query := `SELECT` + packageColumns + `
		FROM customer_packages
		WHERE user_id = $1
			AND status = 'active'
			AND remaining_hours > 0
		ORDER BY purchased_at
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find packages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		if pkg.MatchesService(serviceName) {
			return pkg, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating packages: %w", err)
	}
	return nil, domain.ErrNoMatchingPackage
}

// Consume deducts min(requested, remaining) hours. The row is locked first
// so a concurrent consumer cannot drive remaining hours negative; the
// condition-qualified update then surfaces a lost race as
// ErrPackageUnavailable.
func (r *PostgresPackageRepository) Consume(ctx context.Context, id string, requested decimal.Decimal) (decimal.Decimal, error) {
	var remaining decimal.Decimal
	err := r.db.QueryRow(ctx,
		`SELECT remaining_hours FROM customer_packages WHERE id = $1 AND status = 'active' FOR UPDATE`,
		id,
	).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrPackageUnavailable
		}
		return decimal.Zero, fmt.Errorf("failed to lock package: %w", err)
	}
	if remaining.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrPackageUnavailable
	}

	consumed := decimal.Min(requested, remaining)
	newRemaining := remaining.Sub(consumed)

	update := `
		UPDATE customer_packages SET
			used_hours = used_hours + $2,
			remaining_hours = $3,
			status = CASE WHEN $3::numeric = 0 THEN 'used_up' ELSE status END,
			last_used_at = $4
		WHERE id = $1 AND status = 'active' AND remaining_hours = $5
	`

	result, err := r.db.Exec(ctx, update, id, consumed, newRemaining, time.Now(), remaining)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to consume package hours: %w", err)
	}
	if result.RowsAffected() == 0 {
		return decimal.Zero, domain.ErrPackageUnavailable
	}
	return consumed, nil
}

// Restore returns hours to the package, clamped so remaining never exceeds
// total, and reactivates a used-up package.
func (r *PostgresPackageRepository) Restore(ctx context.Context, id string, hours decimal.Decimal) error {
	query := `
		UPDATE customer_packages SET
			remaining_hours = LEAST(total_hours, remaining_hours + $2::numeric),
			used_hours = total_hours - LEAST(total_hours, remaining_hours + $2::numeric),
			status = CASE WHEN status = 'used_up' THEN 'active' ELSE status END
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, hours)
	if err != nil {
		return fmt.Errorf("failed to restore package hours: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrPackageNotFound
	}
	return nil
}

// TouchLastUsed updates the package's last-used timestamp
func (r *PostgresPackageRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE customer_packages SET last_used_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to touch package: %w", err)
	}
	return nil
}

func scanPackage(row rowScanner) (*domain.CustomerPackage, error) {
	p := &domain.CustomerPackage{}
	var status string
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.ServiceName, &p.TotalHours, &p.UsedHours,
		&p.RemainingHours, &p.PurchasePrice, &p.Currency, &status,
		&p.PurchasedAt, &p.LastUsedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = domain.PackageStatus(status)
	return p, nil
}

// Ensure PostgresPackageRepository implements PackageRepository
var _ PackageRepository = (*PostgresPackageRepository)(nil)
