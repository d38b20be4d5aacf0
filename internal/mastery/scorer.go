// Package mastery turns attempt outcomes into streaks and a 0-1 mastery score.
package mastery

import (
	"math"
	"time"

	"github.com/example/wordmastery/pkg/models"
)

// Scorer implements streak-based mastery scoring.
type Scorer struct {
	// Effective streak that maps to a score of 1.0
	StreakForMastery float64
	// Extra streak credit for each production answer in the current streak
	ProductionBonus float64
	// Multiplier applied to the score after a miss
	MissPenalty float64
	// Score required for the known transition
	KnownThreshold float64
	// Production answers in the current streak required for the known transition
	MinProductionForKnown int
}

// NewScorer creates a Scorer with the default settings.
func NewScorer() *Scorer {
	return &Scorer{
		StreakForMastery:      7.0,
		ProductionBonus:       0.5,
		MissPenalty:           0.6,
		KnownThreshold:        0.85,
		MinProductionForKnown: 2,
	}
}

// RecordAttempt applies one attempt to progress and returns the updated copy.
// The input record is not modified.
func (s *Scorer) RecordAttempt(progress models.LearnerProgress, attempt models.AttemptRecord) models.LearnerProgress {
	p := progress
	p.Clamp()

	now := attempt.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	if p.FirstSeenAt.IsZero() {
		p.FirstSeenAt = now
	}

	p.TotalAttempts++
	if attempt.IsCorrect {
		p.CorrectAttempts++
		p.CurrentStreak++
		if attempt.IsProduction() {
			p.ProductionInStreak++
		}
		p.MasteryScore = s.Score(p.CurrentStreak, p.ProductionInStreak)
	} else {
		p.CurrentStreak = 0
		p.ProductionInStreak = 0
		p.MasteryScore *= s.MissPenalty
	}

	if p.MasteredAt == nil && s.meetsKnown(p) {
		mastered := now
		p.MasteredAt = &mastered
	}

	practiced := now
	p.LastPracticedAt = &practiced
	p.SchemaVersion = models.CurrentProgressVersion

	p.Clamp()
	return p
}

// Score returns the mastery score for a streak.
func (s *Scorer) Score(streak, productionInStreak int) float64 {
	effective := float64(streak) + float64(productionInStreak)*s.ProductionBonus
	return math.Min(effective/s.StreakForMastery, 1.0)
}

// meetsKnown requires production evidence so recognition alone never marks a word known.
func (s *Scorer) meetsKnown(p models.LearnerProgress) bool {
	return p.MasteryScore >= s.KnownThreshold && p.ProductionInStreak >= s.MinProductionForKnown
}
