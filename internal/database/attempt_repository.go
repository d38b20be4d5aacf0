package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/wordmastery/pkg/models"
)

// AttemptRepository archives evaluated attempts
type AttemptRepository struct {
	db *sqlx.DB
}

// NewAttemptRepository creates a new repository instance
func NewAttemptRepository(db *sqlx.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Create inserts an attempt record
func (r *AttemptRepository) Create(ctx context.Context, a *models.AttemptRecord) error {
	return r.create(ctx, r.db, a)
}

func (r *AttemptRepository) create(ctx context.Context, q sqlx.ExtContext, a *models.AttemptRecord) error {
	query, args, err := q.BindNamed(`
		INSERT INTO attempts (
			id, learner_id, item_id, mode, activity, user_input, expected_answer,
			is_correct, latency_ms, confidence, context_tags, created_at
		) VALUES (
			:id, :learner_id, :item_id, :mode, :activity, :user_input, :expected_answer,
			:is_correct, :latency_ms, :confidence, :context_tags, :created_at
		)`, a)
	if err != nil {
		return errors.Wrap(err, "failed to bind attempt")
	}
	_, err = q.ExecContext(ctx, query, args...)
	return errors.Wrap(err, "failed to create attempt")
}

// ListRecent returns the latest attempts of a learner, newest first
func (r *AttemptRepository) ListRecent(ctx context.Context, learnerID int64, limit int) ([]models.AttemptRecord, error) {
	var attempts []models.AttemptRecord
	err := r.db.SelectContext(ctx, &attempts, r.db.Rebind(`
		SELECT id, learner_id, item_id, mode, activity, user_input, expected_answer,
			is_correct, latency_ms, confidence, context_tags, created_at
		FROM attempts
		WHERE learner_id = ?
		ORDER BY created_at DESC
		LIMIT ?`), learnerID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list attempts")
	}
	return attempts, nil
}

// Summary counts attempts made at or after since
func (r *AttemptRepository) Summary(ctx context.Context, learnerID int64, since time.Time) (models.AttemptSummary, error) {
	var s models.AttemptSummary
	err := sqlx.GetContext(ctx, r.db, &s, r.db.Rebind(`
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0) AS correct,
			COALESCE(SUM(CASE WHEN mode <> 'recognition' THEN 1 ELSE 0 END), 0) AS production
		FROM attempts
		WHERE learner_id = ? AND created_at >= ?`), learnerID, since.UTC())
	if err != nil {
		return models.AttemptSummary{}, errors.Wrap(err, "failed to summarize attempts")
	}
	return s, nil
}
