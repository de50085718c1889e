package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/podiumlabs/orator_service/internal/client"
	"github.com/podiumlabs/orator_service/internal/errors"
)

// Speech represents a row in speeches. The transcript is nil until the
// analysis pipeline attaches one.
type Speech struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	AudioURL     string    `json:"audio_url"`
	PromptUsed   string    `json:"prompt_used"`
	Transcript   *string   `json:"transcript"`
	IsAssessment bool      `json:"is_assessment"`
	CreatedAt    time.Time `json:"created_at"`
}

// SpeechRepository defines the interface for speech data access.
type SpeechRepository interface {
	Create(ctx context.Context, speech *Speech) error
	GetByID(ctx context.Context, speechID string) (*Speech, error)
	ListByUser(ctx context.Context, userID string) ([]Speech, error)
	// AttachTranscript updates the transcript column, last write wins.
	AttachTranscript(ctx context.Context, speechID, transcript string) error
	// GetOwner is a point lookup of the owning user id. Fails with
	// SpeechNotFound when no row exists.
	GetOwner(ctx context.Context, speechID string) (string, error)
}

// PostgresSpeechRepository implements SpeechRepository with PostgreSQL.
type PostgresSpeechRepository struct {
	db *client.PostgresClient
}

// NewPostgresSpeechRepository creates a new PostgresSpeechRepository.
func NewPostgresSpeechRepository(db *client.PostgresClient) *PostgresSpeechRepository {
	return &PostgresSpeechRepository{db: db}
}

// Create inserts a new speech row.
func (r *PostgresSpeechRepository) Create(ctx context.Context, speech *Speech) error {
	query := `
		INSERT INTO speeches (user_id, title, audio_url, prompt_used, is_assessment)
		VALUES ($1::uuid, $2, $3, $4, $5)
		RETURNING id::text, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		speech.UserID,
		speech.Title,
		speech.AudioURL,
		speech.PromptUsed,
		speech.IsAssessment,
	).Scan(&speech.ID, &speech.CreatedAt)
	if err != nil {
		return errors.Wrap(errors.ErrPersistence, "failed to create speech", err)
	}

	return nil
}

// GetByID retrieves one speech by id.
func (r *PostgresSpeechRepository) GetByID(ctx context.Context, speechID string) (*Speech, error) {
	query := `
		SELECT id::text, user_id::text, title, COALESCE(prompt_used, ''), audio_url, transcript, is_assessment, created_at
		FROM speeches
		WHERE id = $1::uuid
	`

	var s Speech
	err := r.db.Pool.QueryRow(ctx, query, speechID).Scan(
		&s.ID, &s.UserID, &s.Title, &s.PromptUsed, &s.AudioURL, &s.Transcript, &s.IsAssessment, &s.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.SpeechNotFound(speechID)
		}
		return nil, fmt.Errorf("failed to get speech: %w", err)
	}

	return &s, nil
}

// ListByUser returns a user's speeches, newest first.
func (r *PostgresSpeechRepository) ListByUser(ctx context.Context, userID string) ([]Speech, error) {
	query := `
		SELECT id::text, user_id::text, title, COALESCE(prompt_used, ''), audio_url, transcript, is_assessment, created_at
		FROM speeches
		WHERE user_id = $1::uuid
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query speeches: %w", err)
	}
	defer rows.Close()

	var speeches []Speech
	for rows.Next() {
		var s Speech
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.PromptUsed, &s.AudioURL, &s.Transcript, &s.IsAssessment, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan speech: %w", err)
		}
		speeches = append(speeches, s)
	}
	return speeches, rows.Err()
}

// AttachTranscript writes the transcript onto an existing speech row.
func (r *PostgresSpeechRepository) AttachTranscript(ctx context.Context, speechID, transcript string) error {
	query := `UPDATE speeches SET transcript = $1 WHERE id = $2::uuid`

	if _, err := r.db.Pool.Exec(ctx, query, transcript, speechID); err != nil {
		return errors.Wrap(errors.ErrPersistence, "failed to attach transcript", err)
	}
	return nil
}

// GetOwner returns the user id owning the speech.
func (r *PostgresSpeechRepository) GetOwner(ctx context.Context, speechID string) (string, error) {
	query := `SELECT user_id::text FROM speeches WHERE id = $1::uuid`

	var userID string
	err := r.db.Pool.QueryRow(ctx, query, speechID).Scan(&userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", errors.SpeechNotFound(speechID)
		}
		return "", errors.Wrap(errors.ErrPersistence, "failed to look up speech owner", err)
	}
	return userID, nil
}
