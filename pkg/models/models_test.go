package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func TestNewLearnerProgressDefaults(t *testing.T) {
	p := NewLearnerProgress(7, 42, t0)

	assert.Equal(t, int64(7), p.LearnerID)
	assert.Equal(t, int64(42), p.ItemID)
	assert.Equal(t, 0, p.CurrentStreak)
	assert.Equal(t, 1, p.ReviewIntervalDays)
	assert.Equal(t, 2.5, p.EaseFactor)
	assert.Equal(t, CurrentProgressVersion, p.SchemaVersion)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), p.NextReviewDate)
	assert.True(t, p.IsUnknown())
	assert.Equal(t, StatusUnknown, p.Status())
}

func TestStatusPredicates(t *testing.T) {
	p := NewLearnerProgress(1, 1, t0)
	p.TotalAttempts = 3
	assert.True(t, p.IsLearning())
	assert.False(t, p.IsKnown())

	p.MasteredAt = &t0
	assert.True(t, p.IsKnown())
	assert.False(t, p.IsLearning())
	assert.False(t, p.IsUnknown())
	assert.Equal(t, StatusKnown, p.Status())
}

func TestClampRepairsCorruptRecord(t *testing.T) {
	p := LearnerProgress{
		MasteryScore:       1.7,
		CurrentStreak:      2,
		ProductionInStreak: 5,
		TotalAttempts:      3,
		CorrectAttempts:    9,
		ReviewIntervalDays: 9000,
		EaseFactor:         0.4,
	}
	p.Clamp()

	assert.Equal(t, 1.0, p.MasteryScore)
	assert.Equal(t, 2, p.ProductionInStreak)
	assert.Equal(t, 3, p.CorrectAttempts)
	assert.Equal(t, MaxIntervalDays, p.ReviewIntervalDays)
	assert.Equal(t, MinEaseFactor, p.EaseFactor)

	p.MasteryScore = math.NaN()
	p.ReviewIntervalDays = 0
	p.Clamp()
	assert.Equal(t, 0.0, p.MasteryScore)
	assert.Equal(t, 1, p.ReviewIntervalDays)
}

func TestIsDueComparesCalendarDays(t *testing.T) {
	p := NewLearnerProgress(1, 1, t0)
	assert.True(t, p.IsDue(t0))
	p.NextReviewDate = Day(t0.AddDate(0, 0, 1))
	assert.False(t, p.IsDue(t0.Add(13*time.Hour - time.Minute)))
	assert.True(t, p.IsDue(t0.AddDate(0, 0, 1)))
}

func TestMigrateLegacyProgress(t *testing.T) {
	old := LegacyProgress{
		UserID:           5,
		WordID:           9,
		LastReviewDate:   "2025-05-01T08:00:00Z",
		NextReviewDate:   "2025-05-08T08:00:00Z",
		Interval:         7,
		EasinessFactor:   2.36,
		Repetitions:      4,
		LastQuality:      4,
		ConsecutiveRight: 4,
		IsLearned:        true,
		CreatedAt:        "2025-04-01 09:00:00",
		UpdatedAt:        "2025-05-01 08:00:00",
	}

	p := MigrateLegacyProgress(old, t0)

	assert.Equal(t, int64(5), p.LearnerID)
	assert.Equal(t, int64(9), p.ItemID)
	assert.Equal(t, 4, p.CurrentStreak)
	assert.Equal(t, 0, p.ProductionInStreak)
	assert.Equal(t, 4, p.TotalAttempts)
	assert.Equal(t, 4, p.CorrectAttempts)
	assert.InDelta(t, 4.0/7.0, p.MasteryScore, 1e-9)
	assert.Equal(t, 7, p.ReviewIntervalDays)
	assert.Equal(t, 2.36, p.EaseFactor)
	assert.Equal(t, time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC), p.NextReviewDate)
	require.NotNil(t, p.MasteredAt)
	assert.Equal(t, time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC), *p.MasteredAt)
	require.NotNil(t, p.LastPracticedAt)
	assert.Equal(t, time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC), p.FirstSeenAt)
}

func TestMigrateLegacyProgressRepairsBadValues(t *testing.T) {
	old := LegacyProgress{UserID: 1, WordID: 2, Interval: 0, LastQuality: 1, Repetitions: 2, NextReviewDate: "garbage"}

	p := MigrateLegacyProgress(old, t0)

	assert.Equal(t, 1, p.ReviewIntervalDays)
	assert.Equal(t, DefaultEaseFactor, p.EaseFactor)
	assert.Equal(t, 1, p.CorrectAttempts)
	assert.Equal(t, Day(t0), p.NextReviewDate)
	assert.Nil(t, p.MasteredAt)
}

func TestInputModeRoundTrip(t *testing.T) {
	for _, m := range []InputMode{Recognition, Production, Voice} {
		text, err := m.MarshalText()
		require.NoError(t, err)
		var back InputMode
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, m, back)
	}

	var bad InputMode
	assert.Error(t, bad.UnmarshalText([]byte("typing")))
	_, err := InputMode(0).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "InputMode(9)", InputMode(9).String())
}

func TestInputModeIsProduction(t *testing.T) {
	assert.False(t, Recognition.IsProduction())
	assert.True(t, Production.IsProduction())
	assert.True(t, Voice.IsProduction())
}

func TestActivityKindInputMode(t *testing.T) {
	cases := map[ActivityKind]InputMode{
		Flashcard:      Recognition,
		MultipleChoice: Recognition,
		Typing:         Production,
		Dictation:      Production,
		Speaking:       Voice,
	}
	for activity, want := range cases {
		assert.Equal(t, want, activity.InputMode(), activity.String())
	}
}

func TestAttemptRecordJSONUsesModeNames(t *testing.T) {
	a := NewAttemptRecord(1, 2, Voice, "sagwa", "사과", true, t0)
	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mode":"voice"`)
	assert.True(t, a.IsProduction())
}

func TestTagsScanAndValue(t *testing.T) {
	tags := Tags{"food", "topik-1"}
	v, err := tags.Value()
	require.NoError(t, err)
	assert.Equal(t, `["food","topik-1"]`, v)

	var back Tags
	require.NoError(t, back.Scan([]byte(`["food","topik-1"]`)))
	assert.Equal(t, tags, back)
	assert.True(t, back.Has("food"))

	require.NoError(t, back.Scan(nil))
	assert.Nil(t, back)
}

func TestItemSetSorted(t *testing.T) {
	s := NewItemSet(5, 1, 3)
	s.Add(2)
	assert.Equal(t, []int64{1, 2, 3, 5}, s.Sorted())
	assert.True(t, s.Contains(3))
	assert.False(t, s.Contains(4))
}

func TestSmartKindScan(t *testing.T) {
	var k SmartKind
	require.NoError(t, k.Scan("struggling"))
	assert.Equal(t, Struggling, k)
	assert.Error(t, k.Scan("favourites"))
	assert.Equal(t, "Daily Review", DailyReview.Title())
}

func TestScanErrorsCarryStack(t *testing.T) {
	type stackTracer interface {
		StackTrace() errors.StackTrace
	}

	var k SmartKind
	var tags Tags
	var mode InputMode
	_, badMode := InputMode(9).Value()
	for _, err := range []error{k.Scan(42), k.Scan("favourites"), tags.Scan(3.5), mode.Scan(true), badMode} {
		require.Error(t, err)
		_, ok := err.(stackTracer)
		assert.True(t, ok, err.Error())
	}
	assert.EqualError(t, tags.Scan(3.5), "models: cannot scan float64 into Tags")
	assert.EqualError(t, k.Scan(42), "models: cannot scan int into SmartKind")
}

func TestAttemptLatency(t *testing.T) {
	a := NewAttemptRecord(1, 2, Production, "x", "x", true, t0)
	assert.Equal(t, time.Duration(0), a.Latency())
	a.LatencyMs = 1500
	assert.Equal(t, 1500*time.Millisecond, a.Latency())
}
