package repository

import (
	"context"
	"errors"
	"fmt"

	"lextutor-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionSchema creates the question log table.
const QuestionSchema = `
CREATE TABLE IF NOT EXISTS question_logs (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	question TEXT NOT NULL,
	keywords TEXT[] NOT NULL DEFAULT '{}',
	status VARCHAR(20) NOT NULL,
	result JSONB NOT NULL DEFAULT '{}'::jsonb,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS question_logs_created_at_idx ON question_logs (created_at DESC);
`

// ErrQuestionNotFound is returned when no question log matches the ID
var ErrQuestionNotFound = errors.New("question not found")

// QuestionRepository handles database operations for the question log
type QuestionRepository struct {
	db *pgxpool.Pool
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// EnsureSchema creates the question log table if it does not exist
func (r *QuestionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, QuestionSchema); err != nil {
		return fmt.Errorf("failed to create question_logs: %w", err)
	}
	return nil
}

// Create stores a processed question
func (r *QuestionRepository) Create(ctx context.Context, record *models.QuestionRecord) error {
	query := `
		INSERT INTO question_logs (id, question, keywords, status, result, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	return r.db.QueryRow(
		ctx, query,
		record.ID,
		record.Question,
		record.Keywords,
		record.Status,
		record.Result,
		record.Error,
	).Scan(&record.CreatedAt)
}

// GetByID retrieves a question log by ID
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.QuestionRecord, error) {
	query := `
		SELECT id, question, keywords, status, result, error_message, created_at
		FROM question_logs
		WHERE id = $1`

	record := &models.QuestionRecord{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&record.ID,
		&record.Question,
		&record.Keywords,
		&record.Status,
		&record.Result,
		&record.Error,
		&record.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListRecent retrieves the most recent question logs, newest first
func (r *QuestionRepository) ListRecent(ctx context.Context, limit int) ([]*models.QuestionRecord, error) {
	query := `
		SELECT id, question, keywords, status, result, error_message, created_at
		FROM question_logs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*models.QuestionRecord, 0)
	for rows.Next() {
		record := &models.QuestionRecord{}
		err := rows.Scan(
			&record.ID,
			&record.Question,
			&record.Keywords,
			&record.Status,
			&record.Result,
			&record.Error,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
