package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordmastery/pkg/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Connect("sqlite", ":memory:")
	require.NoError(t, err)
	s := NewStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func addItem(t *testing.T, s *Store, term, translation string) int64 {
	t.Helper()
	item := &models.VocabularyItem{Term: term, Translation: translation, Language: "en"}
	created, err := s.Items.Upsert(context.Background(), item)
	require.NoError(t, err)
	require.True(t, created)
	return item.ID
}

func TestItemUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id := addItem(t, s, "apple", "яблоко")

	item := &models.VocabularyItem{Term: "Apple", Translation: "яблоко (фрукт)", Tags: models.Tags{"food"}}
	created, err := s.Items.Upsert(ctx, item)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, item.ID)

	got, err := s.Items.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "apple", got.Term)
	assert.Equal(t, "яблоко (фрукт)", got.Translation)
	assert.Equal(t, models.Tags{"food"}, got.Tags)

	addItem(t, s, "pear", "груша")
	items, err := s.Items.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = s.Items.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProgressSaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	itemID := addItem(t, s, "apple", "яблоко")

	missing, err := s.Progress.Get(ctx, 1, itemID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	p := models.NewLearnerProgress(1, itemID, t0)
	p.CurrentStreak = 3
	p.TotalAttempts = 4
	p.CorrectAttempts = 3
	p.MasteryScore = 0.5
	p.ReviewIntervalDays = 6
	p.EaseFactor = 2.1
	p.NextReviewDate = models.Day(t0).AddDate(0, 0, 6)
	require.NoError(t, s.Progress.Save(ctx, &p))
	assert.NotZero(t, p.ID)

	got, err := s.Progress.Get(ctx, 1, itemID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, 3, got.CurrentStreak)
	assert.Equal(t, 6, got.ReviewIntervalDays)
	assert.InDelta(t, 2.1, got.EaseFactor, 1e-9)
	assert.True(t, got.NextReviewDate.Equal(p.NextReviewDate))
	assert.Equal(t, models.CurrentProgressVersion, got.SchemaVersion)
}

func TestProgressSaveKeepsMasteredAt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	itemID := addItem(t, s, "apple", "яблоко")

	p := models.NewLearnerProgress(1, itemID, t0)
	mastered := t0.Add(time.Hour)
	p.MasteredAt = &mastered
	require.NoError(t, s.Progress.Save(ctx, &p))

	p.MasteredAt = nil
	p.MasteryScore = 0.1
	require.NoError(t, s.Progress.Save(ctx, &p))

	got, err := s.Progress.Get(ctx, 1, itemID)
	require.NoError(t, err)
	require.NotNil(t, got.MasteredAt)
	assert.True(t, got.MasteredAt.Equal(mastered))
	assert.InDelta(t, 0.1, got.MasteryScore, 1e-9)
}

func TestProgressClampedOnRead(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	itemID := addItem(t, s, "apple", "яблоко")

	p := models.NewLearnerProgress(1, itemID, t0)
	require.NoError(t, s.Progress.Save(ctx, &p))
	_, err := s.DB.Exec("UPDATE learner_progress SET ease_factor = 9, review_interval_days = 5000, mastery_score = -1")
	require.NoError(t, err)

	got, err := s.Progress.Get(ctx, 1, itemID)
	require.NoError(t, err)
	assert.Equal(t, models.MaxEaseFactor, got.EaseFactor)
	assert.Equal(t, models.MaxIntervalDays, got.ReviewIntervalDays)
	assert.Equal(t, 0.0, got.MasteryScore)
}

func TestLearnerUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Learners.Upsert(ctx, &models.Learner{ID: 42, ChatID: 42, Username: "alice", Language: "ko"}))
	require.NoError(t, s.Learners.Upsert(ctx, &models.Learner{ID: 42, ChatID: 43, Username: "alice2"}))

	l, err := s.Learners.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(43), l.ChatID)
	assert.Equal(t, "alice2", l.Username)
	assert.Equal(t, "ko", l.Language)

	learners, err := s.Learners.List(ctx)
	require.NoError(t, err)
	assert.Len(t, learners, 1)

	_, err = s.Learners.Get(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)

	l, err = s.GetLearner(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice2", l.Username)
	_, err = s.GetLearner(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttemptCreateAndSummary(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a1 := models.NewAttemptRecord(1, 10, models.Production, "apple", "apple", true, t0)
	a1.Activity = models.Typing
	a1.LatencyMs = 1200
	a2 := models.NewAttemptRecord(1, 10, models.Recognition, "pear", "apple", false, t0.Add(time.Minute))
	confidence := 0.3
	a2.Confidence = &confidence
	a3 := models.NewAttemptRecord(1, 11, models.Voice, "pear", "pear", true, t0.AddDate(0, 0, -2))
	for _, a := range []*models.AttemptRecord{&a1, &a2, &a3} {
		require.NoError(t, s.Attempts.Create(ctx, a))
	}

	recent, err := s.Attempts.ListRecent(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, a2.ID, recent[0].ID)
	assert.Equal(t, models.Recognition, recent[0].Mode)
	require.NotNil(t, recent[0].Confidence)
	assert.InDelta(t, 0.3, *recent[0].Confidence, 1e-9)
	assert.Equal(t, a1.ID, recent[1].ID)
	assert.Equal(t, models.Typing, recent[1].Activity)
	assert.Equal(t, int64(1200), recent[1].LatencyMs)

	sum, err := s.Attempts.Summary(ctx, 1, models.Day(t0))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 1, sum.Correct)
	assert.Equal(t, 1, sum.Production)
	assert.InDelta(t, 0.5, sum.Accuracy(), 1e-9)

	assert.Equal(t, 0.0, models.AttemptSummary{}.Accuracy())
}

func TestSaveAttemptResultIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	itemID := addItem(t, s, "apple", "яблоко")

	p := models.NewLearnerProgress(1, itemID, t0)
	p.CurrentStreak = 1
	a := models.NewAttemptRecord(1, itemID, models.Production, "apple", "apple", true, t0)
	require.NoError(t, s.SaveAttemptResult(ctx, &p, &a))
	assert.NotZero(t, p.ID)

	// archiving the same attempt twice violates the primary key, so the
	// progress update must be rolled back with it
	p.CurrentStreak = 2
	assert.Error(t, s.SaveAttemptResult(ctx, &p, &a))

	got, err := s.GetProgress(ctx, 1, itemID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.CurrentStreak)

	recent, err := s.RecentAttempts(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	sum, err := s.SummarizeAttempts(ctx, 1, models.Day(t0))
	require.NoError(t, err)
	assert.Equal(t, models.AttemptSummary{Total: 1, Correct: 1, Production: 1}, sum)
}

func TestSmartResourceMembership(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	def := &models.SmartResourceDefinition{LearnerID: 1, Kind: models.DailyReview, Name: models.DailyReview.Title()}
	require.NoError(t, s.SmartResources.Create(ctx, def))
	assert.NotZero(t, def.ID)

	require.NoError(t, s.SmartResources.ReplaceMembership(ctx, def.ID, models.NewItemSet(1, 2, 3), t0))
	require.NoError(t, s.SmartResources.ReplaceMembership(ctx, def.ID, models.NewItemSet(2, 4), t0.Add(time.Hour)))

	defs, err := s.SmartResources.ListByLearner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, models.DailyReview, defs[0].Kind)
	assert.Equal(t, []int64{2, 4}, defs[0].Members.Sorted())
	require.NotNil(t, defs[0].RefreshedAt)
	assert.True(t, defs[0].RefreshedAt.Equal(t0.Add(time.Hour)))

	other, err := s.SmartResources.ListByLearner(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestLegacyMigration(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := sqlx.Connect("sqlite3", path)
	require.NoError(t, err)
	for _, stmt := range []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, telegram_id INTEGER UNIQUE NOT NULL, username TEXT)`,
		`CREATE TABLE topics (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE)`,
		`CREATE TABLE words (id INTEGER PRIMARY KEY AUTOINCREMENT, word TEXT NOT NULL, translation TEXT NOT NULL, topic_id INTEGER NOT NULL)`,
		`CREATE TABLE user_progress (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			word_id INTEGER NOT NULL,
			easiness_factor REAL DEFAULT 2.5,
			interval INTEGER DEFAULT 1,
			repetitions INTEGER DEFAULT 0,
			last_quality INTEGER DEFAULT 3,
			consecutive_right INTEGER DEFAULT 0,
			is_learned BOOLEAN DEFAULT FALSE,
			last_review_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			next_review_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`,
		`INSERT INTO users (id, telegram_id, username) VALUES (1, 555, 'bob')`,
		`INSERT INTO topics (id, name) VALUES (1, 'food')`,
		`INSERT INTO words (id, word, translation, topic_id) VALUES (1, 'apple', 'яблоко', 1), (2, 'pear', 'груша', 1)`,
		`INSERT INTO user_progress (user_id, word_id, easiness_factor, interval, repetitions, last_quality, consecutive_right, is_learned,
			last_review_date, next_review_date, created_at, updated_at)
		VALUES (1, 1, 2.2, 6, 3, 4, 3, 0, '2025-06-14 09:00:00', '2025-06-20 09:00:00', '2025-06-01 08:00:00', '2025-06-14 09:00:00'),
			(1, 99, 2.5, 1, 0, 3, 0, 0, '2025-06-14 09:00:00', '2025-06-15 09:00:00', '2025-06-01 08:00:00', '2025-06-14 09:00:00')`,
	} {
		_, err := legacy.Exec(stmt)
		require.NoError(t, err)
	}
	require.NoError(t, legacy.Close())

	db, err := Connect("sqlite", path)
	require.NoError(t, err)
	s := NewStore(db)

	l, err := s.Learners.Get(ctx, 555)
	require.NoError(t, err)
	assert.Equal(t, "bob", l.Username)

	item, err := s.Items.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "apple", item.Term)
	assert.Equal(t, models.Tags{"food"}, item.Tags)

	progress, err := s.Progress.ListByLearner(ctx, 555)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	p := progress[0]
	assert.Equal(t, int64(1), p.ItemID)
	assert.Equal(t, 3, p.CurrentStreak)
	assert.Equal(t, 3, p.TotalAttempts)
	assert.Equal(t, 3, p.CorrectAttempts)
	assert.Equal(t, 6, p.ReviewIntervalDays)
	assert.InDelta(t, 2.2, p.EaseFactor, 1e-9)
	assert.True(t, p.NextReviewDate.Equal(time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, p.MasteredAt)

	for _, table := range []string{"users", "words", "user_progress"} {
		exists, err := tableExists(ctx, s.DB, table)
		require.NoError(t, err)
		assert.False(t, exists, table)
		exists, err = tableExists(ctx, s.DB, table+"_v1")
		require.NoError(t, err)
		assert.True(t, exists, table+"_v1")
	}

	// reopening must not import twice
	require.NoError(t, s.Close())
	db, err = Connect("sqlite", path)
	require.NoError(t, err)
	s = NewStore(db)
	defer s.Close()
	progress, err = s.Progress.ListByLearner(ctx, 555)
	require.NoError(t, err)
	assert.Len(t, progress, 1)
}
