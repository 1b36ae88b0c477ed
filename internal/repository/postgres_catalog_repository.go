package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/plannivo/booking-engine/internal/domain"
)

// PostgresCatalogRepository reads services and prices from PostgreSQL
type PostgresCatalogRepository struct {
	db DBTX
}

// NewPostgresCatalogRepository creates a new PostgresCatalogRepository
func NewPostgresCatalogRepository(db DBTX) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db}
}

// GetService retrieves a bookable service by its ID
func (r *PostgresCatalogRepository) GetService(ctx context.Context, id string) (*domain.Service, error) {
	query := `
		SELECT id, name, service_type, COALESCE(max_participants, 0), created_at
		FROM services
		WHERE id = $1
	`

	s := &domain.Service{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.ServiceType, &s.MaxParticipants, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return s, nil
}

// HourlyRate returns the configured hourly rate for a service in a currency
func (r *PostgresCatalogRepository) HourlyRate(ctx context.Context, serviceID, currency string) (decimal.Decimal, error) {
	query := `
		SELECT hourly_rate
		FROM service_prices
		WHERE service_id = $1 AND currency = $2
	`

	var rate decimal.Decimal
	err := r.db.QueryRow(ctx, query, serviceID, currency).Scan(&rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrPriceNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get hourly rate: %w", err)
	}
	return rate, nil
}

// Ensure PostgresCatalogRepository implements CatalogRepository
var _ CatalogRepository = (*PostgresCatalogRepository)(nil)
