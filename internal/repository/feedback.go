package repository

import (
	"context"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/podiumlabs/orator_service/internal/client"
	"github.com/podiumlabs/orator_service/internal/errors"
)

// Feedback represents a row in feedback: the persisted coaching result for one
// speech. Rows are written once by the analysis pipeline and never mutated.
type Feedback struct {
	ID               string    `json:"id"`
	SpeechID         string    `json:"speech_id"`
	UserID           string    `json:"user_id"`
	ConfidenceScore  int       `json:"confidence_score"`
	PaceRating       string    `json:"pace_rating"`
	ClarityRating    string    `json:"clarity_rating"`
	FillerWordsCount int       `json:"filler_words_count"`
	Strengths        []string  `json:"strengths"`
	Improvements     []string  `json:"improvements"`
	AISummary        string    `json:"ai_summary"`
	CreatedAt        time.Time `json:"created_at"`
}

// FeedbackRepository defines the interface for feedback data access.
type FeedbackRepository interface {
	// Insert writes one feedback row. Constraint violations surface as
	// PersistenceError.
	Insert(ctx context.Context, fb *Feedback) error
	GetBySpeech(ctx context.Context, speechID string) (*Feedback, error)
	ListBySpeech(ctx context.Context, speechID string) ([]Feedback, error)
}

// PostgresFeedbackRepository implements FeedbackRepository with PostgreSQL.
type PostgresFeedbackRepository struct {
	db *client.PostgresClient
}

// NewPostgresFeedbackRepository creates a new PostgresFeedbackRepository.
func NewPostgresFeedbackRepository(db *client.PostgresClient) *PostgresFeedbackRepository {
	return &PostgresFeedbackRepository{db: db}
}

// Insert writes one feedback row and fills in the generated id and timestamp.
func (r *PostgresFeedbackRepository) Insert(ctx context.Context, fb *Feedback) error {
	query := `
		INSERT INTO feedback (speech_id, user_id, confidence_score, pace_rating, clarity_rating,
			filler_words_count, strengths, improvements, ai_summary)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id::text, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		fb.SpeechID,
		fb.UserID,
		fb.ConfidenceScore,
		fb.PaceRating,
		fb.ClarityRating,
		fb.FillerWordsCount,
		fb.Strengths,
		fb.Improvements,
		fb.AISummary,
	).Scan(&fb.ID, &fb.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if goerrors.As(err, &pgErr) {
			return errors.Wrap(errors.ErrPersistence,
				fmt.Sprintf("feedback insert rejected: %s", pgErr.Message), err)
		}
		return errors.Wrap(errors.ErrPersistence, "failed to insert feedback", err)
	}

	return nil
}

// GetBySpeech returns the most recent feedback row for a speech. A speech with
// a transcript but no feedback yet is a valid state and reads as NotFound.
func (r *PostgresFeedbackRepository) GetBySpeech(ctx context.Context, speechID string) (*Feedback, error) {
	query := `
		SELECT id::text, speech_id::text, user_id::text, confidence_score, pace_rating, clarity_rating,
			filler_words_count, COALESCE(strengths, '{}'), COALESCE(improvements, '{}'), ai_summary, created_at
		FROM feedback
		WHERE speech_id = $1::uuid
		ORDER BY created_at DESC
		LIMIT 1
	`

	var fb Feedback
	err := r.db.Pool.QueryRow(ctx, query, speechID).Scan(
		&fb.ID, &fb.SpeechID, &fb.UserID, &fb.ConfidenceScore, &fb.PaceRating, &fb.ClarityRating,
		&fb.FillerWordsCount, &fb.Strengths, &fb.Improvements, &fb.AISummary, &fb.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound("feedback")
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}

	return &fb, nil
}

// ListBySpeech returns all feedback rows for a speech, newest first. Repeated
// analysis runs produce one row each, so more than one row is expected.
func (r *PostgresFeedbackRepository) ListBySpeech(ctx context.Context, speechID string) ([]Feedback, error) {
	query := `
		SELECT id::text, speech_id::text, user_id::text, confidence_score, pace_rating, clarity_rating,
			filler_words_count, COALESCE(strengths, '{}'), COALESCE(improvements, '{}'), ai_summary, created_at
		FROM feedback
		WHERE speech_id = $1::uuid
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, speechID)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var list []Feedback
	for rows.Next() {
		var fb Feedback
		if err := rows.Scan(
			&fb.ID, &fb.SpeechID, &fb.UserID, &fb.ConfidenceScore, &fb.PaceRating, &fb.ClarityRating,
			&fb.FillerWordsCount, &fb.Strengths, &fb.Improvements, &fb.AISummary, &fb.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		list = append(list, fb)
	}
	return list, rows.Err()
}
