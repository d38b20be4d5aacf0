package models

import (
	"time"

	"github.com/google/uuid"
)

// AttemptRecord is one evaluated learner response. Records are immutable once built.
type AttemptRecord struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	ItemID         int64        `json:"item_id" db:"item_id"`
	LearnerID      int64        `json:"learner_id" db:"learner_id"`
	Mode           InputMode    `json:"mode" db:"mode"`
	Activity       ActivityKind `json:"activity,omitempty" db:"activity"`
	UserInput      string       `json:"user_input" db:"user_input"`
	ExpectedAnswer string       `json:"expected_answer" db:"expected_answer"`
	IsCorrect      bool         `json:"is_correct" db:"is_correct"`
	LatencyMs      int64        `json:"latency_ms" db:"latency_ms"`
	Confidence     *float64     `json:"confidence,omitempty" db:"confidence"` // Optional self-reported confidence 0-1
	ContextTags    Tags         `json:"context_tags,omitempty" db:"context_tags"`
	Timestamp      time.Time    `json:"timestamp" db:"created_at"`
}

// NewAttemptRecord creates an attempt with a fresh ID.
func NewAttemptRecord(learnerID, itemID int64, mode InputMode, userInput, expected string, isCorrect bool, at time.Time) AttemptRecord {
	return AttemptRecord{
		ID:             uuid.New(),
		ItemID:         itemID,
		LearnerID:      learnerID,
		Mode:           mode,
		UserInput:      userInput,
		ExpectedAnswer: expected,
		IsCorrect:      isCorrect,
		Timestamp:      at,
	}
}

// Latency returns the response latency as a duration.
func (a AttemptRecord) Latency() time.Duration {
	return time.Duration(a.LatencyMs) * time.Millisecond
}

// IsProduction reports whether the attempt required the learner to produce the answer.
func (a AttemptRecord) IsProduction() bool {
	return a.Mode.IsProduction()
}

// AttemptSummary aggregates a learner's attempts over a period.
type AttemptSummary struct {
	Total      int `json:"total" db:"total"`
	Correct    int `json:"correct" db:"correct"`
	Production int `json:"production" db:"production"`
}

// Accuracy returns correct/total, or 0 with no attempts.
func (s AttemptSummary) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}
