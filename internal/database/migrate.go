package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/wordmastery/pkg/models"
)

func tableExists(ctx context.Context, q sqlx.ExtContext, name string) (bool, error) {
	query := "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	if isPostgres(q) {
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?"
	}
	var n int
	if err := sqlx.GetContext(ctx, q, &n, q.Rebind(query), name); err != nil {
		return false, err
	}
	return n > 0, nil
}

type legacyStep struct {
	table string
	run   func(ctx context.Context, tx *sqlx.Tx, now time.Time) error
}

// migrateLegacy imports the version 1 users, words and user_progress tables.
// Each table is renamed with a _v1 suffix once imported so the step runs once.
func migrateLegacy(ctx context.Context, db *sqlx.DB, now time.Time) error {
	steps := []legacyStep{
		{"users", migrateLegacyUsers},
		{"words", migrateLegacyWords},
		{"user_progress", migrateLegacyProgress},
	}
	for _, step := range steps {
		exists, err := tableExists(ctx, db, step.table)
		if err != nil {
			return errors.Wrapf(err, "failed to check for legacy %s table", step.table)
		}
		if !exists {
			continue
		}
		if err := runLegacyStep(ctx, db, step, now); err != nil {
			return err
		}
	}
	return nil
}

func runLegacyStep(ctx context.Context, db *sqlx.DB, step legacyStep, now time.Time) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin legacy migration")
	}
	defer tx.Rollback()

	if err := step.run(ctx, tx, now); err != nil {
		return errors.Wrapf(err, "failed to migrate legacy %s", step.table)
	}
	if _, err := tx.ExecContext(ctx, "ALTER TABLE "+step.table+" RENAME TO "+step.table+"_v1"); err != nil {
		return errors.Wrapf(err, "failed to retire legacy %s table", step.table)
	}
	return errors.Wrap(tx.Commit(), "failed to commit legacy migration")
}

func migrateLegacyUsers(ctx context.Context, tx *sqlx.Tx, _ time.Time) error {
	var users []struct {
		TelegramID int64   `db:"telegram_id"`
		Username   *string `db:"username"`
	}
	if err := tx.SelectContext(ctx, &users, "SELECT telegram_id, username FROM users"); err != nil {
		return err
	}
	learners := NewLearnerRepository(nil)
	for _, u := range users {
		l := models.Learner{ID: u.TelegramID, ChatID: u.TelegramID}
		if u.Username != nil {
			l.Username = *u.Username
		}
		if err := learners.upsert(ctx, tx, &l); err != nil {
			return err
		}
	}
	return nil
}

func migrateLegacyWords(ctx context.Context, tx *sqlx.Tx, _ time.Time) error {
	var words []struct {
		ID          int64  `db:"id"`
		Word        string `db:"word"`
		Translation string `db:"translation"`
		Topic       string `db:"topic"`
	}
	query := "SELECT id, word, translation, '' AS topic FROM words"
	hasTopics, err := tableExists(ctx, tx, "topics")
	if err != nil {
		return err
	}
	if hasTopics {
		query = `
			SELECT w.id, w.word, w.translation, COALESCE(t.name, '') AS topic
			FROM words w LEFT JOIN topics t ON t.id = w.topic_id`
	}
	if err := tx.SelectContext(ctx, &words, query); err != nil {
		return err
	}

	for _, w := range words {
		var tags models.Tags
		if w.Topic != "" {
			tags = models.Tags{w.Topic}
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO vocabulary_items (id, term, translation, tags)
			VALUES (?, ?, ?, ?)
			ON CONFLICT DO NOTHING`), w.ID, w.Word, w.Translation, tags)
		if err != nil {
			return err
		}
	}

	if isPostgres(tx) {
		// explicit ids don't advance the serial sequence
		_, err := tx.ExecContext(ctx, `
			SELECT setval(pg_get_serial_sequence('vocabulary_items', 'id'),
				COALESCE((SELECT MAX(id) FROM vocabulary_items), 1))`)
		return err
	}
	return nil
}

// migrateLegacyProgress skips rows whose word no longer exists.
func migrateLegacyProgress(ctx context.Context, tx *sqlx.Tx, now time.Time) error {
	// user_id referenced the internal users row; learners are keyed by Telegram ID
	userID := "p.user_id"
	for _, users := range []string{"users", "users_v1"} {
		exists, err := tableExists(ctx, tx, users)
		if err != nil {
			return err
		}
		if exists {
			userID = "COALESCE((SELECT u.telegram_id FROM " + users + " u WHERE u.id = p.user_id), p.user_id)"
			break
		}
	}

	var rows []models.LegacyProgress
	err := tx.SelectContext(ctx, &rows, `
		SELECT p.id, `+userID+` AS user_id, p.word_id,
			COALESCE(CAST(p.last_review_date AS TEXT), '') AS last_review_date,
			COALESCE(CAST(p.next_review_date AS TEXT), '') AS next_review_date,
			COALESCE(p."interval", 1) AS "interval",
			COALESCE(p.easiness_factor, 0) AS easiness_factor,
			COALESCE(p.repetitions, 0) AS repetitions,
			COALESCE(p.last_quality, 3) AS last_quality,
			COALESCE(p.consecutive_right, 0) AS consecutive_right,
			COALESCE(p.is_learned, FALSE) AS is_learned,
			COALESCE(CAST(p.created_at AS TEXT), '') AS created_at,
			COALESCE(CAST(p.updated_at AS TEXT), '') AS updated_at
		FROM user_progress p`)
	if err != nil {
		return err
	}

	items := NewItemRepository(nil)
	progress := NewProgressRepository(nil)
	for _, old := range rows {
		if _, err := items.get(ctx, tx, old.WordID); errors.Is(err, ErrNotFound) {
			continue
		} else if err != nil {
			return err
		}
		p := models.MigrateLegacyProgress(old, now)
		if err := progress.save(ctx, tx, &p); err != nil {
			return errors.Wrapf(err, "progress %d", old.ID)
		}
	}
	return nil
}
