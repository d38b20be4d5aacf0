package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/wordmastery/pkg/models"
)

// SmartResourceRepository handles smart resource definitions and their membership
type SmartResourceRepository struct {
	db *sqlx.DB
}

// NewSmartResourceRepository creates a new repository instance
func NewSmartResourceRepository(db *sqlx.DB) *SmartResourceRepository {
	return &SmartResourceRepository{db: db}
}

// ListByLearner returns a learner's definitions with their current members
func (r *SmartResourceRepository) ListByLearner(ctx context.Context, learnerID int64) ([]models.SmartResourceDefinition, error) {
	var defs []models.SmartResourceDefinition
	err := r.db.SelectContext(ctx, &defs, r.db.Rebind(`
		SELECT id, learner_id, kind, name, refreshed_at
		FROM smart_resources WHERE learner_id = ? ORDER BY id`), learnerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list smart resources")
	}
	for i := range defs {
		members, err := r.members(ctx, defs[i].ID)
		if err != nil {
			return nil, err
		}
		defs[i].Members = members
	}
	return defs, nil
}

// Create inserts a definition and sets def.ID
func (r *SmartResourceRepository) Create(ctx context.Context, def *models.SmartResourceDefinition) error {
	id, err := insertReturningID(ctx, r.db,
		"INSERT INTO smart_resources (learner_id, kind, name) VALUES (?, ?, ?)",
		def.LearnerID, def.Kind, def.Name)
	if err != nil {
		return errors.Wrap(err, "failed to create smart resource")
	}
	def.ID = id
	return nil
}

// members returns the item IDs currently in a resource
func (r *SmartResourceRepository) members(ctx context.Context, resourceID int64) (models.ItemSet, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids,
		r.db.Rebind("SELECT item_id FROM smart_resource_items WHERE resource_id = ?"), resourceID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list smart resource items")
	}
	return models.NewItemSet(ids...), nil
}

// ReplaceMembership removes every member of a resource and inserts members,
// in one transaction
func (r *SmartResourceRepository) ReplaceMembership(ctx context.Context, resourceID int64, members models.ItemSet, refreshedAt time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin membership replace")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM smart_resource_items WHERE resource_id = ?"), resourceID); err != nil {
		return errors.Wrap(err, "failed to clear smart resource items")
	}
	insert := tx.Rebind("INSERT INTO smart_resource_items (resource_id, item_id) VALUES (?, ?)")
	for _, id := range members.Sorted() {
		if _, err := tx.ExecContext(ctx, insert, resourceID, id); err != nil {
			return errors.Wrap(err, "failed to add smart resource item")
		}
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("UPDATE smart_resources SET refreshed_at = ? WHERE id = ?"), refreshedAt.UTC(), resourceID); err != nil {
		return errors.Wrap(err, "failed to mark smart resource refreshed")
	}
	return errors.Wrap(tx.Commit(), "failed to commit membership replace")
}
