package models

import (
	"math"
	"time"
)

// CurrentProgressVersion is the schema version written by this code.
const CurrentProgressVersion = 2

// Bounds shared by the scorer, the scheduler and the storage layer.
const (
	DefaultIntervalDays = 1
	MaxIntervalDays     = 365
	MinEaseFactor       = 1.3
	MaxEaseFactor       = 2.5
	DefaultEaseFactor   = 2.5
)

// Status is the derived learning status of a progress record.
type Status string

const (
	StatusUnknown  Status = "unknown"
	StatusLearning Status = "learning"
	StatusKnown    Status = "known"
)

// LearnerProgress tracks one learner's mastery of one vocabulary item.
type LearnerProgress struct {
	ID                 int64      `json:"id" db:"id"`
	SchemaVersion      int        `json:"schema_version" db:"schema_version"`
	LearnerID          int64      `json:"learner_id" db:"learner_id"`
	ItemID             int64      `json:"item_id" db:"item_id"`
	CurrentStreak      int        `json:"current_streak" db:"current_streak"`
	ProductionInStreak int        `json:"production_in_streak" db:"production_in_streak"`
	MasteryScore       float64    `json:"mastery_score" db:"mastery_score"`
	TotalAttempts      int        `json:"total_attempts" db:"total_attempts"`
	CorrectAttempts    int        `json:"correct_attempts" db:"correct_attempts"`
	ReviewIntervalDays int        `json:"review_interval_days" db:"review_interval_days"`
	EaseFactor         float64    `json:"ease_factor" db:"ease_factor"`
	NextReviewDate     time.Time  `json:"next_review_date" db:"next_review_date"`
	MasteredAt         *time.Time `json:"mastered_at,omitempty" db:"mastered_at"`
	LastPracticedAt    *time.Time `json:"last_practiced_at,omitempty" db:"last_practiced_at"`
	FirstSeenAt        time.Time  `json:"first_seen_at" db:"first_seen_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// NewLearnerProgress returns a record with default values, due today.
func NewLearnerProgress(learnerID, itemID int64, now time.Time) LearnerProgress {
	return LearnerProgress{
		SchemaVersion:      CurrentProgressVersion,
		LearnerID:          learnerID,
		ItemID:             itemID,
		ReviewIntervalDays: DefaultIntervalDays,
		EaseFactor:         DefaultEaseFactor,
		NextReviewDate:     Day(now),
		FirstSeenAt:        now,
	}
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsKnown reports whether the item was ever mastered.
func (p *LearnerProgress) IsKnown() bool {
	return p.MasteredAt != nil
}

// IsLearning reports whether the item has been practiced but not mastered.
func (p *LearnerProgress) IsLearning() bool {
	return !p.IsKnown() && p.TotalAttempts > 0
}

// IsUnknown reports whether the item has never been practiced.
func (p *LearnerProgress) IsUnknown() bool {
	return !p.IsKnown() && p.TotalAttempts == 0
}

// Status returns the derived status.
func (p *LearnerProgress) Status() Status {
	switch {
	case p.IsKnown():
		return StatusKnown
	case p.IsLearning():
		return StatusLearning
	default:
		return StatusUnknown
	}
}

// Accuracy returns correct/total, or 0 before the first attempt.
func (p *LearnerProgress) Accuracy() float64 {
	if p.TotalAttempts == 0 {
		return 0
	}
	return float64(p.CorrectAttempts) / float64(p.TotalAttempts)
}

// IsDue reports whether the item is scheduled on or before the day of now.
func (p *LearnerProgress) IsDue(now time.Time) bool {
	return !Day(p.NextReviewDate).After(Day(now))
}

// Clamp forces every field back into its valid range.
// Corrupted records are repaired in place rather than rejected.
func (p *LearnerProgress) Clamp() {
	if math.IsNaN(p.MasteryScore) || p.MasteryScore < 0 {
		p.MasteryScore = 0
	}
	if p.MasteryScore > 1 {
		p.MasteryScore = 1
	}
	if p.CurrentStreak < 0 {
		p.CurrentStreak = 0
	}
	if p.ProductionInStreak < 0 {
		p.ProductionInStreak = 0
	}
	if p.ProductionInStreak > p.CurrentStreak {
		p.ProductionInStreak = p.CurrentStreak
	}
	if p.TotalAttempts < 0 {
		p.TotalAttempts = 0
	}
	if p.CorrectAttempts < 0 {
		p.CorrectAttempts = 0
	}
	if p.CorrectAttempts > p.TotalAttempts {
		p.CorrectAttempts = p.TotalAttempts
	}
	if p.ReviewIntervalDays < DefaultIntervalDays {
		p.ReviewIntervalDays = DefaultIntervalDays
	}
	if p.ReviewIntervalDays > MaxIntervalDays {
		p.ReviewIntervalDays = MaxIntervalDays
	}
	if math.IsNaN(p.EaseFactor) || p.EaseFactor > MaxEaseFactor {
		p.EaseFactor = MaxEaseFactor
	}
	if p.EaseFactor < MinEaseFactor {
		p.EaseFactor = MinEaseFactor
	}
}
