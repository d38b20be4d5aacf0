package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("database: not found")

// Connect opens the database for dbType ("sqlite" or "postgres") and creates
// the schema if it doesn't exist
func Connect(dbType, dsn string) (*sqlx.DB, error) {
	driver := "sqlite3"
	if dbType == "postgres" {
		driver = "postgres"
	}

	if driver == "sqlite3" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		// Create data directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create data directory")
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "failed to enable foreign keys")
		}
		db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrateLegacy(context.Background(), db, time.Now()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func isPostgres(db sqlx.ExtContext) bool {
	return db.DriverName() == "postgres"
}

// schema is written for SQLite; {{pk}} and {{float}} are replaced per dialect
var schema = []struct {
	name string
	ddl  string
}{
	{"learners", `
		CREATE TABLE IF NOT EXISTS learners (
			id BIGINT PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
	{"vocabulary_items", `
		CREATE TABLE IF NOT EXISTS vocabulary_items (
			id {{pk}},
			term TEXT NOT NULL UNIQUE,
			translation TEXT NOT NULL,
			lemma TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
	{"learner_progress", `
		CREATE TABLE IF NOT EXISTS learner_progress (
			id {{pk}},
			schema_version INTEGER NOT NULL DEFAULT 2,
			learner_id BIGINT NOT NULL,
			item_id BIGINT NOT NULL REFERENCES vocabulary_items(id),
			current_streak INTEGER NOT NULL DEFAULT 0,
			production_in_streak INTEGER NOT NULL DEFAULT 0,
			mastery_score {{float}} NOT NULL DEFAULT 0,
			total_attempts INTEGER NOT NULL DEFAULT 0,
			correct_attempts INTEGER NOT NULL DEFAULT 0,
			review_interval_days INTEGER NOT NULL DEFAULT 1,
			ease_factor {{float}} NOT NULL DEFAULT 2.5,
			next_review_date TIMESTAMP NOT NULL,
			mastered_at TIMESTAMP,
			last_practiced_at TIMESTAMP,
			first_seen_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(learner_id, item_id)
		)`},
	{"attempts", `
		CREATE TABLE IF NOT EXISTS attempts (
			id TEXT PRIMARY KEY,
			learner_id BIGINT NOT NULL,
			item_id BIGINT NOT NULL,
			mode TEXT NOT NULL,
			activity INTEGER NOT NULL DEFAULT 0,
			user_input TEXT NOT NULL,
			expected_answer TEXT NOT NULL,
			is_correct BOOLEAN NOT NULL,
			latency_ms BIGINT NOT NULL DEFAULT 0,
			confidence {{float}},
			context_tags TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL
		)`},
	{"smart_resources", `
		CREATE TABLE IF NOT EXISTS smart_resources (
			id {{pk}},
			learner_id BIGINT NOT NULL,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			refreshed_at TIMESTAMP,
			UNIQUE(learner_id, kind)
		)`},
	{"smart_resource_items", `
		CREATE TABLE IF NOT EXISTS smart_resource_items (
			resource_id BIGINT NOT NULL REFERENCES smart_resources(id) ON DELETE CASCADE,
			item_id BIGINT NOT NULL,
			PRIMARY KEY (resource_id, item_id)
		)`},
	{"attempts index", `CREATE INDEX IF NOT EXISTS idx_attempts_learner ON attempts(learner_id, created_at)`},
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	pk, float := "INTEGER PRIMARY KEY AUTOINCREMENT", "REAL"
	if isPostgres(db) {
		pk, float = "BIGSERIAL PRIMARY KEY", "DOUBLE PRECISION"
	}
	for _, t := range schema {
		ddl := strings.NewReplacer("{{pk}}", pk, "{{float}}", float).Replace(t.ddl)
		if _, err := db.Exec(ddl); err != nil {
			return errors.Wrapf(err, "failed to create %s table", t.name)
		}
	}
	return nil
}
