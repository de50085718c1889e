package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/podiumlabs/orator_service/internal/client"
	"github.com/podiumlabs/orator_service/internal/errors"
)

// Profile represents a row in profiles.
type Profile struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"display_name"`
	TotalSpeeches int       `json:"total_speeches"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProfileRepository defines the interface for profile data access.
type ProfileRepository interface {
	GetByID(ctx context.Context, userID string) (*Profile, error)
	IncrementTotalSpeeches(ctx context.Context, userID string) error
}

// PostgresProfileRepository implements ProfileRepository with PostgreSQL.
type PostgresProfileRepository struct {
	db *client.PostgresClient
}

// NewPostgresProfileRepository creates a new PostgresProfileRepository.
func NewPostgresProfileRepository(db *client.PostgresClient) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

// GetByID retrieves a profile by user id.
func (r *PostgresProfileRepository) GetByID(ctx context.Context, userID string) (*Profile, error) {
	query := `
		SELECT id::text, COALESCE(display_name, ''), total_speeches, created_at
		FROM profiles
		WHERE id = $1::uuid
	`

	var p Profile
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(&p.ID, &p.DisplayName, &p.TotalSpeeches, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound("profile")
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

// IncrementTotalSpeeches bumps the upload counter for a user.
func (r *PostgresProfileRepository) IncrementTotalSpeeches(ctx context.Context, userID string) error {
	query := `UPDATE profiles SET total_speeches = total_speeches + 1 WHERE id = $1::uuid`

	if _, err := r.db.Pool.Exec(ctx, query, userID); err != nil {
		return errors.Wrap(errors.ErrPersistence, "failed to increment total speeches", err)
	}
	return nil
}
