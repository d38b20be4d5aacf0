package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/wordmastery/pkg/models"
)

const progressColumns = `id, schema_version, learner_id, item_id, current_streak, production_in_streak,
	mastery_score, total_attempts, correct_attempts, review_interval_days, ease_factor,
	next_review_date, mastered_at, last_practiced_at, first_seen_at, updated_at`

// ProgressRepository handles database operations for learner progress
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Get returns progress for a learner and item, or nil if none exists yet.
// Stored values are clamped into range on read.
func (r *ProgressRepository) Get(ctx context.Context, learnerID, itemID int64) (*models.LearnerProgress, error) {
	var p models.LearnerProgress
	err := r.db.GetContext(ctx, &p,
		r.db.Rebind("SELECT "+progressColumns+" FROM learner_progress WHERE learner_id = ? AND item_id = ?"),
		learnerID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get learner progress")
	}
	p.Clamp()
	return &p, nil
}

// ListByLearner returns every progress record of a learner
func (r *ProgressRepository) ListByLearner(ctx context.Context, learnerID int64) ([]models.LearnerProgress, error) {
	var progress []models.LearnerProgress
	err := r.db.SelectContext(ctx, &progress,
		r.db.Rebind("SELECT "+progressColumns+" FROM learner_progress WHERE learner_id = ? ORDER BY item_id"),
		learnerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list learner progress")
	}
	for i := range progress {
		progress[i].Clamp()
	}
	return progress, nil
}

// Save inserts or updates progress keyed by learner and item, and sets p.ID
func (r *ProgressRepository) Save(ctx context.Context, p *models.LearnerProgress) error {
	return r.save(ctx, r.db, p)
}

func (r *ProgressRepository) save(ctx context.Context, q sqlx.ExtContext, p *models.LearnerProgress) error {
	p.Clamp()
	p.SchemaVersion = models.CurrentProgressVersion
	p.UpdatedAt = time.Now().UTC()

	query, args, err := q.BindNamed(`
		INSERT INTO learner_progress (
			schema_version, learner_id, item_id, current_streak, production_in_streak,
			mastery_score, total_attempts, correct_attempts, review_interval_days, ease_factor,
			next_review_date, mastered_at, last_practiced_at, first_seen_at, updated_at
		) VALUES (
			:schema_version, :learner_id, :item_id, :current_streak, :production_in_streak,
			:mastery_score, :total_attempts, :correct_attempts, :review_interval_days, :ease_factor,
			:next_review_date, :mastered_at, :last_practiced_at, :first_seen_at, :updated_at
		)
		ON CONFLICT (learner_id, item_id) DO UPDATE SET
			schema_version = excluded.schema_version,
			current_streak = excluded.current_streak,
			production_in_streak = excluded.production_in_streak,
			mastery_score = excluded.mastery_score,
			total_attempts = excluded.total_attempts,
			correct_attempts = excluded.correct_attempts,
			review_interval_days = excluded.review_interval_days,
			ease_factor = excluded.ease_factor,
			next_review_date = excluded.next_review_date,
			mastered_at = COALESCE(learner_progress.mastered_at, excluded.mastered_at),
			last_practiced_at = excluded.last_practiced_at,
			updated_at = excluded.updated_at`, p)
	if err != nil {
		return errors.Wrap(err, "failed to bind learner progress")
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "failed to save learner progress")
	}

	err = sqlx.GetContext(ctx, q, &p.ID,
		q.Rebind("SELECT id FROM learner_progress WHERE learner_id = ? AND item_id = ?"),
		p.LearnerID, p.ItemID)
	return errors.Wrap(err, "failed to read learner progress id")
}
