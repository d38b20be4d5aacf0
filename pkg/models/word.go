package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// VocabularyItem represents a single word or phrase to be learned.
// Items are read-only for the mastery engine.
type VocabularyItem struct {
	ID          int64     `json:"id" db:"id"`
	Term        string    `json:"term" db:"term"`               // Target-language term
	Translation string    `json:"translation" db:"translation"` // Native-language term
	Lemma       string    `json:"lemma,omitempty" db:"lemma"`   // Optional dictionary form
	Language    string    `json:"language" db:"language"`
	Tags        Tags      `json:"tags" db:"tags"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Tags is a free-form tag list persisted as a JSON array.
type Tags []string

// Value implements driver.Valuer.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *Tags) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*t = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.Errorf("models: cannot scan %T into Tags", src)
	}
	if len(data) == 0 {
		*t = nil
		return nil
	}
	return json.Unmarshal(data, (*[]string)(t))
}

// Has reports whether the tag list contains tag.
func (t Tags) Has(tag string) bool {
	for _, v := range t {
		if v == tag {
			return true
		}
	}
	return false
}
