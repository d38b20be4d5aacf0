// Package practice runs learner attempts through evaluation, scoring and
// scheduling, and keeps smart vocabulary lists up to date.
package practice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/example/wordmastery/internal/evaluator"
	"github.com/example/wordmastery/internal/logger"
	"github.com/example/wordmastery/internal/mastery"
	"github.com/example/wordmastery/internal/selector"
	"github.com/example/wordmastery/internal/spaced_repetition"
	"github.com/example/wordmastery/pkg/models"
)

var (
	// ErrItemNotFound is returned when an attempt names an item missing from the catalog
	ErrItemNotFound = errors.New("practice: vocabulary item not found")
	// ErrInvalidAttempt is returned for attempts without a learner, an item or a valid input mode
	ErrInvalidAttempt = errors.New("practice: invalid attempt")
	// ErrNothingToPractice is returned when a learner has neither due nor new items
	ErrNothingToPractice = errors.New("practice: nothing to practice")
)

// Store is the storage collaborator used by the service.
// GetItem and GetProgress return nil without error when the row is missing.
type Store interface {
	GetItem(ctx context.Context, id int64) (*models.VocabularyItem, error)
	ListItems(ctx context.Context) ([]models.VocabularyItem, error)
	GetProgress(ctx context.Context, learnerID, itemID int64) (*models.LearnerProgress, error)
	ListProgress(ctx context.Context, learnerID int64) ([]models.LearnerProgress, error)
	// SaveAttemptResult stores the updated progress and archives the attempt
	// atomically: either both are written or neither is.
	SaveAttemptResult(ctx context.Context, p *models.LearnerProgress, a *models.AttemptRecord) error
	SummarizeAttempts(ctx context.Context, learnerID int64, since time.Time) (models.AttemptSummary, error)
	UpsertLearner(ctx context.Context, l *models.Learner) error
	ListSmartResources(ctx context.Context, learnerID int64) ([]models.SmartResourceDefinition, error)
	CreateSmartResource(ctx context.Context, def *models.SmartResourceDefinition) error
	ReplaceMembership(ctx context.Context, resourceID int64, members models.ItemSet, refreshedAt time.Time) error
}

// Service composes the evaluator, scorer, scheduler and selector over a Store.
type Service struct {
	store     Store
	log       *logger.Logger
	evaluator *evaluator.Evaluator
	scorer    *mastery.Scorer
	scheduler *spaced_repetition.SM2
	selector  *selector.Selector
	now       func() time.Time
	locks     *recordLocks
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithEvaluator replaces the default evaluator and its language table.
func WithEvaluator(e *evaluator.Evaluator) Option {
	return func(s *Service) { s.evaluator = e }
}

// WithSelectorRules replaces the default smart list thresholds.
func WithSelectorRules(r selector.Rules) Option {
	return func(s *Service) { s.selector = selector.New(r) }
}

// NewService creates a service with default components.
func NewService(store Store, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Service{
		store:     store,
		log:       log,
		evaluator: evaluator.New(evaluator.DefaultLanguages()...),
		scorer:    mastery.NewScorer(),
		scheduler: spaced_repetition.NewSM2(),
		selector:  selector.New(selector.DefaultRules()),
		now:       time.Now,
		locks:     newRecordLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a learner or refreshes their chat details.
func (s *Service) Register(ctx context.Context, l *models.Learner) error {
	if l.ID == 0 {
		return errors.New("practice: learner id is required")
	}
	if err := s.store.UpsertLearner(ctx, l); err != nil {
		return errors.Wrap(err, "failed to register learner")
	}
	return nil
}

// Submission is a raw learner answer to a prompt.
type Submission struct {
	LearnerID int64
	ItemID    int64
	Input     string
	Activity  models.ActivityKind
	// Mode overrides the input mode implied by Activity.
	Mode models.InputMode
	// ExpectTranslation is set when the prompt showed the term and asked for
	// the native-language translation.
	ExpectTranslation bool
	Latency           time.Duration
	Confidence        *float64
	ContextTags       models.Tags
	// At defaults to the service clock.
	At time.Time
}

// Outcome is the result of a submission.
type Outcome struct {
	Item     models.VocabularyItem
	Result   evaluator.Result
	Attempt  models.AttemptRecord
	Progress models.LearnerProgress
}

// SubmitAnswer evaluates a submission and records the resulting attempt.
func (s *Service) SubmitAnswer(ctx context.Context, sub Submission) (*Outcome, error) {
	if sub.LearnerID == 0 || sub.ItemID == 0 {
		return nil, errors.Wrap(ErrInvalidAttempt, "learner and item are required")
	}
	item, err := s.store.GetItem(ctx, sub.ItemID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load vocabulary item")
	}
	if item == nil {
		return nil, errors.Wrapf(ErrItemNotFound, "item %d", sub.ItemID)
	}

	mode := sub.Mode
	if mode == 0 {
		mode = models.Production
		if sub.Activity != 0 {
			mode = sub.Activity.InputMode()
		}
	}
	at := sub.At
	if at.IsZero() {
		at = s.now()
	}

	expected, lang := item.Term, item.Language
	if sub.ExpectTranslation {
		expected, lang = item.Translation, ""
	}
	result := s.evaluator.EvaluateLanguage(lang, sub.Input, expected)

	attempt := models.NewAttemptRecord(sub.LearnerID, sub.ItemID, mode, sub.Input, expected, result.IsCorrect, at)
	attempt.Activity = sub.Activity
	attempt.LatencyMs = sub.Latency.Milliseconds()
	attempt.Confidence = sub.Confidence
	attempt.ContextTags = sub.ContextTags

	progress, err := s.RecordAttempt(ctx, attempt)
	if err != nil {
		return nil, err
	}
	return &Outcome{Item: *item, Result: result, Attempt: attempt, Progress: *progress}, nil
}

// RecordAttempt applies an evaluated attempt to the learner's progress and
// persists both. Attempts on the same learner and item are serialized.
func (s *Service) RecordAttempt(ctx context.Context, attempt models.AttemptRecord) (*models.LearnerProgress, error) {
	if attempt.LearnerID == 0 || attempt.ItemID == 0 || !attempt.Mode.Valid() {
		return nil, errors.Wrapf(ErrInvalidAttempt, "learner %d item %d mode %s",
			attempt.LearnerID, attempt.ItemID, attempt.Mode)
	}
	if attempt.Timestamp.IsZero() {
		attempt.Timestamp = s.now()
	}
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}

	unlock := s.locks.lock(recordKey{attempt.LearnerID, attempt.ItemID})
	defer unlock()

	current, err := s.store.GetProgress(ctx, attempt.LearnerID, attempt.ItemID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load progress")
	}
	progress := models.NewLearnerProgress(attempt.LearnerID, attempt.ItemID, attempt.Timestamp)
	if current != nil {
		progress = *current
	}

	wasKnown := progress.IsKnown()
	progress = s.scorer.RecordAttempt(progress, attempt)
	progress = s.scheduler.Schedule(progress, attempt.IsCorrect, attempt.Timestamp)

	if err := s.store.SaveAttemptResult(ctx, &progress, &attempt); err != nil {
		return nil, errors.Wrap(err, "failed to save attempt")
	}

	s.log.Debug("Attempt recorded",
		"learner", attempt.LearnerID,
		"item", attempt.ItemID,
		"mode", attempt.Mode.String(),
		"correct", attempt.IsCorrect,
		"latency", attempt.Latency(),
		"streak", progress.CurrentStreak,
		"mastery", progress.MasteryScore,
		"interval", progress.ReviewIntervalDays)
	if !wasKnown && progress.IsKnown() {
		s.log.Info("Item mastered", "learner", attempt.LearnerID, "item", attempt.ItemID)
	}
	return &progress, nil
}

// RefreshSmartResources creates the default smart lists for a learner that
// has none, then recomputes and replaces the membership of every list.
func (s *Service) RefreshSmartResources(ctx context.Context, learnerID int64) ([]models.SmartResourceDefinition, error) {
	defs, err := s.store.ListSmartResources(ctx, learnerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list smart resources")
	}
	for _, def := range selector.MissingDefinitions(learnerID, defs) {
		def := def
		if err := s.store.CreateSmartResource(ctx, &def); err != nil {
			return nil, errors.Wrapf(err, "failed to create %s list", def.Kind)
		}
		defs = append(defs, def)
	}

	progress, err := s.store.ListProgress(ctx, learnerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list progress")
	}
	itemIDs, err := s.itemIDs(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	refreshed := s.selector.RefreshAll(defs, progress, itemIDs, now)
	for _, def := range refreshed {
		if err := s.store.ReplaceMembership(ctx, def.ID, def.Members, now); err != nil {
			return nil, errors.Wrapf(err, "failed to replace %s membership", def.Kind)
		}
	}

	s.log.Debug("Smart resources refreshed", "learner", learnerID, "lists", len(refreshed))
	return refreshed, nil
}

func (s *Service) itemIDs(ctx context.Context) ([]int64, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list vocabulary items")
	}
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids, nil
}
