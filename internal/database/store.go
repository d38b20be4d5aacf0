package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/wordmastery/pkg/models"
)

// Store bundles the repositories behind a single storage collaborator
type Store struct {
	DB             *sqlx.DB
	Items          *ItemRepository
	Progress       *ProgressRepository
	Learners       *LearnerRepository
	Attempts       *AttemptRepository
	SmartResources *SmartResourceRepository
}

// NewStore creates repositories sharing db
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		DB:             db,
		Items:          NewItemRepository(db),
		Progress:       NewProgressRepository(db),
		Learners:       NewLearnerRepository(db),
		Attempts:       NewAttemptRepository(db),
		SmartResources: NewSmartResourceRepository(db),
	}
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// GetItem returns an item by ID, or nil if it doesn't exist
func (s *Store) GetItem(ctx context.Context, id int64) (*models.VocabularyItem, error) {
	item, err := s.Items.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return item, err
}

// ListItems returns the whole catalog
func (s *Store) ListItems(ctx context.Context) ([]models.VocabularyItem, error) {
	return s.Items.List(ctx)
}

// UpsertItem inserts or updates an item keyed by term
func (s *Store) UpsertItem(ctx context.Context, item *models.VocabularyItem) (bool, error) {
	return s.Items.Upsert(ctx, item)
}

// GetProgress returns progress for a learner and item, or nil if none exists
func (s *Store) GetProgress(ctx context.Context, learnerID, itemID int64) (*models.LearnerProgress, error) {
	return s.Progress.Get(ctx, learnerID, itemID)
}

// ListProgress returns every progress record of a learner
func (s *Store) ListProgress(ctx context.Context, learnerID int64) ([]models.LearnerProgress, error) {
	return s.Progress.ListByLearner(ctx, learnerID)
}

// SaveAttemptResult upserts progress and archives the attempt in one transaction
func (s *Store) SaveAttemptResult(ctx context.Context, p *models.LearnerProgress, a *models.AttemptRecord) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin attempt transaction")
	}
	defer tx.Rollback()

	if err := s.Progress.save(ctx, tx, p); err != nil {
		return err
	}
	if err := s.Attempts.create(ctx, tx, a); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "failed to commit attempt")
}

// SummarizeAttempts counts a learner's attempts made at or after since
func (s *Store) SummarizeAttempts(ctx context.Context, learnerID int64, since time.Time) (models.AttemptSummary, error) {
	return s.Attempts.Summary(ctx, learnerID, since)
}

// RecentAttempts returns a learner's latest attempts, newest first
func (s *Store) RecentAttempts(ctx context.Context, learnerID int64, limit int) ([]models.AttemptRecord, error) {
	return s.Attempts.ListRecent(ctx, learnerID, limit)
}

// GetLearner returns a learner by ID, or ErrNotFound
func (s *Store) GetLearner(ctx context.Context, id int64) (*models.Learner, error) {
	return s.Learners.Get(ctx, id)
}

// ListLearners returns every registered learner
func (s *Store) ListLearners(ctx context.Context) ([]models.Learner, error) {
	return s.Learners.List(ctx)
}

// UpsertLearner registers a learner or refreshes their chat details
func (s *Store) UpsertLearner(ctx context.Context, l *models.Learner) error {
	return s.Learners.Upsert(ctx, l)
}

// ListSmartResources returns a learner's smart resources with their members
func (s *Store) ListSmartResources(ctx context.Context, learnerID int64) ([]models.SmartResourceDefinition, error) {
	return s.SmartResources.ListByLearner(ctx, learnerID)
}

// CreateSmartResource inserts a definition and sets its ID
func (s *Store) CreateSmartResource(ctx context.Context, def *models.SmartResourceDefinition) error {
	return s.SmartResources.Create(ctx, def)
}

// ReplaceMembership swaps a resource's members wholesale
func (s *Store) ReplaceMembership(ctx context.Context, resourceID int64, members models.ItemSet, refreshedAt time.Time) error {
	return s.SmartResources.ReplaceMembership(ctx, resourceID, members, refreshedAt)
}
