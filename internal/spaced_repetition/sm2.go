package spaced_repetition

import (
	"math"
	"sort"
	"time"

	"github.com/example/wordmastery/pkg/models"
)

// SM2 implements a bounded, pass/fail variant of the SuperMemo-2 algorithm
type SM2 struct {
	// Interval after the first successful review in days
	SecondInterval int
	// Maximum interval in days
	MaxInterval int
	// Ease factor bounds
	MinEase float64
	MaxEase float64
	// Ease gained on a correct review once past the bootstrap step
	EaseBonus float64
	// Ease lost on a miss
	EasePenalty float64
}

// NewSM2 creates a new SM2 with the default settings
func NewSM2() *SM2 {
	return &SM2{
		SecondInterval: 6,
		MaxInterval:    models.MaxIntervalDays, // one year
		MinEase:        models.MinEaseFactor,
		MaxEase:        models.MaxEaseFactor,
		EaseBonus:      0.1,
		EasePenalty:    0.2,
	}
}

// Schedule computes the next interval and review date after an attempt.
// The input record is not modified.
func (sm *SM2) Schedule(progress models.LearnerProgress, wasCorrect bool, now time.Time) models.LearnerProgress {
	p := progress
	sm.clamp(&p)

	switch {
	case !wasCorrect:
		p.ReviewIntervalDays = 1
		p.EaseFactor = math.Max(sm.MinEase, p.EaseFactor-sm.EasePenalty)
	case p.ReviewIntervalDays == 1:
		p.ReviewIntervalDays = sm.SecondInterval
	default:
		next := int(math.Round(float64(p.ReviewIntervalDays) * p.EaseFactor))
		if next > sm.MaxInterval {
			next = sm.MaxInterval
		}
		p.ReviewIntervalDays = next
		p.EaseFactor = math.Min(sm.MaxEase, p.EaseFactor+sm.EaseBonus)
	}

	sm.clamp(&p)
	p.NextReviewDate = models.Day(now).AddDate(0, 0, p.ReviewIntervalDays)
	return p
}

func (sm *SM2) clamp(p *models.LearnerProgress) {
	if p.ReviewIntervalDays < 1 {
		p.ReviewIntervalDays = 1
	}
	if p.ReviewIntervalDays > sm.MaxInterval {
		p.ReviewIntervalDays = sm.MaxInterval
	}
	if math.IsNaN(p.EaseFactor) || p.EaseFactor > sm.MaxEase {
		p.EaseFactor = sm.MaxEase
	}
	if p.EaseFactor < sm.MinEase {
		p.EaseFactor = sm.MinEase
	}
}

// GetNextWords returns up to limit records due on or before the day of now,
// most urgent first. limit <= 0 returns every due record.
func (sm *SM2) GetNextWords(progress []models.LearnerProgress, now time.Time, limit int) []models.LearnerProgress {
	var due []models.LearnerProgress
	for _, p := range progress {
		if p.IsDue(now) {
			due = append(due, p)
		}
	}

	// Sort due items by priority:
	// 1. Words that have never been practiced
	// 2. Words with lowest ease factor (hardest words)
	// 3. Words that are more overdue
	sort.SliceStable(due, func(i, j int) bool {
		newI, newJ := due[i].TotalAttempts == 0, due[j].TotalAttempts == 0
		if newI != newJ {
			return newI
		}
		if due[i].EaseFactor != due[j].EaseFactor {
			return due[i].EaseFactor < due[j].EaseFactor
		}
		if !due[i].NextReviewDate.Equal(due[j].NextReviewDate) {
			return due[i].NextReviewDate.Before(due[j].NextReviewDate)
		}
		return due[i].ItemID < due[j].ItemID
	})

	if limit > 0 && len(due) > limit {
		return due[:limit]
	}
	return due
}
