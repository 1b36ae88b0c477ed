package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/plannivo/booking-engine/internal/domain"
)

// PostgresUserRepository implements UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db DBTX
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db DBTX) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// WithTx returns a copy bound to the given transaction
func (r *PostgresUserRepository) WithTx(tx pgx.Tx) UserRepository {
	return &PostgresUserRepository{db: tx}
}

// FindByEmail resolves a user account by email, case-insensitively
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, first_name, last_name, role, created_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`

	u := &domain.User{}
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return u, nil
}

// CreateStudent inserts an auto-created student account for a
// calendar-originated booking whose email is unknown.
func (r *PostgresUserRepository) CreateStudent(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, first_name, last_name, role, created_at)
		VALUES ($1, $2, $3, $4, 'student', $5)
	`

	_, err := r.db.Exec(ctx, query, u.ID, u.Email, u.FirstName, u.LastName, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	u.Role = "student"
	return nil
}

// Ensure PostgresUserRepository implements UserRepository
var _ UserRepository = (*PostgresUserRepository)(nil)
