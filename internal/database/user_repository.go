package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/wordmastery/pkg/models"
)

// LearnerRepository handles database operations for learners
type LearnerRepository struct {
	db *sqlx.DB
}

// NewLearnerRepository creates a new repository instance
func NewLearnerRepository(db *sqlx.DB) *LearnerRepository {
	return &LearnerRepository{db: db}
}

// Get returns a learner by ID, or ErrNotFound
func (r *LearnerRepository) Get(ctx context.Context, id int64) (*models.Learner, error) {
	var l models.Learner
	err := r.db.GetContext(ctx, &l,
		r.db.Rebind("SELECT id, chat_id, username, language, CAST(created_at AS TEXT) AS created_at FROM learners WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get learner")
	}
	return &l, nil
}

// List returns all learners
func (r *LearnerRepository) List(ctx context.Context) ([]models.Learner, error) {
	var learners []models.Learner
	err := r.db.SelectContext(ctx, &learners,
		"SELECT id, chat_id, username, language, CAST(created_at AS TEXT) AS created_at FROM learners ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list learners")
	}
	return learners, nil
}

// Upsert creates a learner or updates chat, username and language of an existing one
func (r *LearnerRepository) Upsert(ctx context.Context, l *models.Learner) error {
	return r.upsert(ctx, r.db, l)
}

func (r *LearnerRepository) upsert(ctx context.Context, q sqlx.ExtContext, l *models.Learner) error {
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO learners (id, chat_id, username, language)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			chat_id = excluded.chat_id,
			username = excluded.username,
			language = CASE WHEN excluded.language = '' THEN learners.language ELSE excluded.language END`),
		l.ID, l.ChatID, l.Username, l.Language)
	return errors.Wrap(err, "failed to save learner")
}
