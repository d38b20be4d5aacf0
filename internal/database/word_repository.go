package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/wordmastery/pkg/models"
)

const itemColumns = "id, term, translation, lemma, language, tags, created_at, updated_at"

// ItemRepository handles database operations for vocabulary items
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new repository instance
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Get returns an item by ID, or ErrNotFound
func (r *ItemRepository) Get(ctx context.Context, id int64) (*models.VocabularyItem, error) {
	return r.get(ctx, r.db, id)
}

func (r *ItemRepository) get(ctx context.Context, q sqlx.ExtContext, id int64) (*models.VocabularyItem, error) {
	var item models.VocabularyItem
	err := sqlx.GetContext(ctx, q, &item, q.Rebind("SELECT "+itemColumns+" FROM vocabulary_items WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get vocabulary item")
	}
	return &item, nil
}

// GetByTerm returns the item with the given term (case-insensitive), or ErrNotFound
func (r *ItemRepository) GetByTerm(ctx context.Context, term string) (*models.VocabularyItem, error) {
	var item models.VocabularyItem
	err := r.db.GetContext(ctx, &item,
		r.db.Rebind("SELECT "+itemColumns+" FROM vocabulary_items WHERE LOWER(term) = ?"),
		strings.ToLower(strings.TrimSpace(term)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get vocabulary item by term")
	}
	return &item, nil
}

// List returns all items ordered by ID
func (r *ItemRepository) List(ctx context.Context) ([]models.VocabularyItem, error) {
	var items []models.VocabularyItem
	if err := r.db.SelectContext(ctx, &items, "SELECT "+itemColumns+" FROM vocabulary_items ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "failed to list vocabulary items")
	}
	return items, nil
}

// Upsert inserts item, or updates the existing item with the same term.
// It reports whether a new row was created and sets item.ID.
func (r *ItemRepository) Upsert(ctx context.Context, item *models.VocabularyItem) (bool, error) {
	existing, err := r.GetByTerm(ctx, item.Term)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, err
	}

	now := time.Now().UTC()
	if existing != nil {
		_, err := r.db.ExecContext(ctx, r.db.Rebind(`
			UPDATE vocabulary_items SET
				translation = ?, lemma = ?, language = ?, tags = ?, updated_at = ?
			WHERE id = ?`),
			item.Translation, item.Lemma, item.Language, item.Tags, now, existing.ID)
		if err != nil {
			return false, errors.Wrap(err, "failed to update vocabulary item")
		}
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
		item.UpdatedAt = now
		return false, nil
	}

	id, err := insertReturningID(ctx, r.db, `
		INSERT INTO vocabulary_items (term, translation, lemma, language, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.Term, item.Translation, item.Lemma, item.Language, item.Tags, now, now)
	if err != nil {
		return false, errors.Wrap(err, "failed to create vocabulary item")
	}
	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now
	return true, nil
}

// insertReturningID runs an INSERT written with ? placeholders and returns the new ID.
// PostgreSQL has no LastInsertId, so RETURNING is used there.
func insertReturningID(ctx context.Context, q sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	if isPostgres(q) {
		var id int64
		err := sqlx.GetContext(ctx, q, &id, q.Rebind(query+" RETURNING id"), args...)
		return id, err
	}
	result, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
