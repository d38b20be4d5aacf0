package models

import (
	"database/sql/driver"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// SmartKind names a rule used to compute a dynamic vocabulary list.
type SmartKind string

const (
	DailyReview SmartKind = "daily_review"
	NewWords    SmartKind = "new_words"
	Struggling  SmartKind = "struggling"
)

// SmartKinds lists every rule in the order definitions are created.
var SmartKinds = []SmartKind{DailyReview, NewWords, Struggling}

// Title returns a human readable list name.
func (k SmartKind) Title() string {
	switch k {
	case DailyReview:
		return "Daily Review"
	case NewWords:
		return "New Words"
	case Struggling:
		return "Struggling"
	}
	return string(k)
}

// Valid reports whether k is a known rule.
func (k SmartKind) Valid() bool {
	switch k {
	case DailyReview, NewWords, Struggling:
		return true
	}
	return false
}

// Value implements driver.Valuer.
func (k SmartKind) Value() (driver.Value, error) {
	if !k.Valid() {
		return nil, errors.Errorf("models: invalid smart kind %q", string(k))
	}
	return string(k), nil
}

// Scan implements sql.Scanner.
func (k *SmartKind) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return errors.Errorf("models: cannot scan %T into SmartKind", src)
	}
	if !SmartKind(s).Valid() {
		return errors.Errorf("models: invalid smart kind %q", s)
	}
	*k = SmartKind(s)
	return nil
}

// SmartResourceDefinition is a named selection rule owned by a learner
// together with its last computed membership.
type SmartResourceDefinition struct {
	ID          int64      `json:"id" db:"id"`
	LearnerID   int64      `json:"learner_id" db:"learner_id"`
	Kind        SmartKind  `json:"kind" db:"kind"`
	Name        string     `json:"name" db:"name"`
	RefreshedAt *time.Time `json:"refreshed_at" db:"refreshed_at"`
	Members     ItemSet    `json:"members" db:"-"`
}

// ItemSet is a set of vocabulary item IDs.
type ItemSet map[int64]struct{}

// NewItemSet builds a set from ids.
func NewItemSet(ids ...int64) ItemSet {
	s := make(ItemSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id into the set.
func (s ItemSet) Add(id int64) {
	s[id] = struct{}{}
}

// Contains reports whether id is in the set.
func (s ItemSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s ItemSet) Sorted() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
