package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordmastery/internal/config"
	"github.com/example/wordmastery/pkg/models"
)

type fakeLearners []models.Learner

func (f fakeLearners) ListLearners(context.Context) ([]models.Learner, error) {
	return f, nil
}

type fakeRefresher struct {
	due      map[int64]int
	fail     map[int64]bool
	calls    int32
	inFlight int32
	maxSeen  int32
}

func (f *fakeRefresher) RefreshSmartResources(_ context.Context, learnerID int64) ([]models.SmartResourceDefinition, error) {
	atomic.AddInt32(&f.calls, 1)
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if f.fail[learnerID] {
		return nil, errors.New("boom")
	}
	members := models.NewItemSet()
	for i := 0; i < f.due[learnerID]; i++ {
		members.Add(int64(i + 1))
	}
	return []models.SmartResourceDefinition{
		{LearnerID: learnerID, Kind: models.NewWords, Members: models.NewItemSet(99)},
		{LearnerID: learnerID, Kind: models.DailyReview, Members: members},
	}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent map[int64]int
	// failures is the number of sends that fail before any succeeds
	failures int
	attempts int
}

func (f *fakeNotifier) SendReminders(_ context.Context, learner models.Learner, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failures > 0 {
		f.failures--
		return errors.New("telegram unavailable")
	}
	if f.sent == nil {
		f.sent = make(map[int64]int)
	}
	f.sent[learner.ID] += count
	return nil
}

func testConfig() *config.Config {
	cfg := config.FromEnv(func(string) string { return "" })
	cfg.RefreshConcurrency = 2
	return cfg
}

func learners(n int) fakeLearners {
	out := make(fakeLearners, n)
	for i := range out {
		out[i] = models.Learner{ID: int64(i + 1), ChatID: int64(i + 1)}
	}
	return out
}

func TestRunOnceRefreshesAndNotifies(t *testing.T) {
	refresher := &fakeRefresher{due: map[int64]int{1: 3, 3: 1}, fail: map[int64]bool{4: true}}
	notifier := &fakeNotifier{}
	s := New(testConfig(), learners(6), refresher, notifier, nil)
	s.now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }

	require.NoError(t, s.RunOnce(context.Background()))

	assert.Equal(t, int32(6), atomic.LoadInt32(&refresher.calls))
	assert.LessOrEqual(t, atomic.LoadInt32(&refresher.maxSeen), int32(2))
	assert.Equal(t, map[int64]int{1: 3, 3: 1}, notifier.sent)

	// one reminder per day
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, map[int64]int{1: 3, 3: 1}, notifier.sent)

	s.now = func() time.Time { return time.Date(2025, 6, 16, 10, 0, 0, 0, time.UTC) }
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, map[int64]int{1: 6, 3: 2}, notifier.sent)
}

func TestRunOnceOutsideWindow(t *testing.T) {
	refresher := &fakeRefresher{due: map[int64]int{1: 3}}
	notifier := &fakeNotifier{}
	s := New(testConfig(), learners(1), refresher, notifier, nil)
	s.now = func() time.Time { return time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC) }

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&refresher.calls))
	assert.Empty(t, notifier.sent)
}

func TestRunOnceRetriesFailedReminderSameDay(t *testing.T) {
	refresher := &fakeRefresher{due: map[int64]int{1: 3}}
	notifier := &fakeNotifier{failures: 1}
	s := New(testConfig(), learners(1), refresher, notifier, nil)
	s.now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Empty(t, notifier.sent)

	s.now = func() time.Time { return time.Date(2025, 6, 15, 11, 0, 0, 0, time.UTC) }
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, map[int64]int{1: 3}, notifier.sent)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, map[int64]int{1: 3}, notifier.sent)
	assert.Equal(t, 2, notifier.attempts)
}

func TestRunOnceWindowUsesUTC(t *testing.T) {
	refresher := &fakeRefresher{due: map[int64]int{1: 2}}
	notifier := &fakeNotifier{}
	s := New(testConfig(), learners(1), refresher, notifier, nil)

	// 12:00 in Seoul is 03:00 UTC
	seoul := time.FixedZone("KST", 9*60*60)
	s.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, seoul) }
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Empty(t, notifier.sent)

	// 22:00 on the 14th at UTC-12 is 10:00 UTC on the 15th
	west := time.FixedZone("UTC-12", -12*60*60)
	s.now = func() time.Time { return time.Date(2025, 6, 14, 22, 0, 0, 0, west) }
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, map[int64]int{1: 2}, notifier.sent)

	// same UTC day, so no second reminder
	s.now = func() time.Time { return time.Date(2025, 6, 15, 11, 0, 0, 0, time.UTC) }
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, map[int64]int{1: 2}, notifier.sent)
}

func TestRunManualCheck(t *testing.T) {
	refresher := &fakeRefresher{due: map[int64]int{1: 2}}
	notifier := &fakeNotifier{}
	s := New(testConfig(), learners(0), refresher, notifier, nil)

	require.NoError(t, s.RunManualCheck(context.Background(), models.Learner{ID: 1}))
	require.NoError(t, s.RunManualCheck(context.Background(), models.Learner{ID: 2}))
	assert.Equal(t, map[int64]int{1: 2}, notifier.sent)

	refresher.fail = map[int64]bool{1: true}
	assert.Error(t, s.RunManualCheck(context.Background(), models.Learner{ID: 1}))
}

func TestStartRunsImmediately(t *testing.T) {
	refresher := &fakeRefresher{}
	cfg := testConfig()
	cfg.RefreshInterval = time.Hour
	s := New(cfg, learners(1), refresher, nil, nil)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&refresher.calls) >= 1
	}, 2*time.Second, 10*time.Millisecond)
}
