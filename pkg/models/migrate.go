package models

import (
	"math"
	"time"
)

// LegacyProgress is the version 1 row shape of the user_progress table,
// written by the quality-rated SM-2 flow before streak scoring existed.
type LegacyProgress struct {
	ID               int64   `db:"id"`
	UserID           int64   `db:"user_id"`
	WordID           int64   `db:"word_id"`
	LastReviewDate   string  `db:"last_review_date"`
	NextReviewDate   string  `db:"next_review_date"`
	Interval         int     `db:"interval"`
	EasinessFactor   float64 `db:"easiness_factor"`
	Repetitions      int     `db:"repetitions"`
	LastQuality      int     `db:"last_quality"`
	ConsecutiveRight int     `db:"consecutive_right"`
	IsLearned        bool    `db:"is_learned"`
	CreatedAt        string  `db:"created_at"`
	UpdatedAt        string  `db:"updated_at"`
}

var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseLegacyTime(s string) (time.Time, bool) {
	for _, layout := range legacyTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MigrateLegacyProgress maps a version 1 row onto the current record.
// Quality ratings and the repetition counter have no current equivalent;
// they only seed the attempt counters. now is used for unparsable dates.
func MigrateLegacyProgress(old LegacyProgress, now time.Time) LearnerProgress {
	p := NewLearnerProgress(old.UserID, old.WordID, now)

	p.CurrentStreak = old.ConsecutiveRight
	p.TotalAttempts = old.Repetitions
	if old.ConsecutiveRight > p.TotalAttempts {
		p.TotalAttempts = old.ConsecutiveRight
	}
	p.CorrectAttempts = p.TotalAttempts
	if old.LastQuality < 3 && p.TotalAttempts > 0 {
		// the last review was a miss
		p.CorrectAttempts--
	}
	p.MasteryScore = math.Min(float64(p.CurrentStreak)/7.0, 1.0)
	p.ReviewIntervalDays = old.Interval
	p.EaseFactor = old.EasinessFactor
	if p.EaseFactor == 0 {
		p.EaseFactor = DefaultEaseFactor
	}

	if t, ok := parseLegacyTime(old.NextReviewDate); ok {
		p.NextReviewDate = Day(t)
	}
	if t, ok := parseLegacyTime(old.LastReviewDate); ok && p.TotalAttempts > 0 {
		p.LastPracticedAt = &t
	}
	if t, ok := parseLegacyTime(old.CreatedAt); ok {
		p.FirstSeenAt = t
	}
	if old.IsLearned {
		mastered := p.FirstSeenAt
		if t, ok := parseLegacyTime(old.UpdatedAt); ok {
			mastered = t
		}
		p.MasteredAt = &mastered
	}

	p.Clamp()
	return p
}
