package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/example/wordmastery/internal/config"
	"github.com/example/wordmastery/internal/logger"
	"github.com/example/wordmastery/pkg/models"
)

// Notifier interface for sending notifications
type Notifier interface {
	SendReminders(ctx context.Context, learner models.Learner, count int) error
}

// LearnerLister lists the learners whose lists are kept fresh
type LearnerLister interface {
	ListLearners(ctx context.Context) ([]models.Learner, error)
}

// Refresher recomputes a learner's smart lists
type Refresher interface {
	RefreshSmartResources(ctx context.Context, learnerID int64) ([]models.SmartResourceDefinition, error)
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	cfg       *config.Config
	learners  LearnerLister
	refresher Refresher
	notifier  Notifier
	log       *logger.Logger
	now       func() time.Time

	mu           sync.Mutex
	lastNotified map[int64]time.Time
}

// New creates a new scheduler instance. notifier may be nil.
func New(cfg *config.Config, learners LearnerLister, refresher Refresher, notifier Notifier, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Scheduler{
		scheduler:    gocron.NewScheduler(time.UTC),
		cfg:          cfg,
		learners:     learners,
		refresher:    refresher,
		notifier:     notifier,
		log:          log,
		now:          time.Now,
		lastNotified: make(map[int64]time.Time),
	}
}

// Start begins running the refresh job every RefreshInterval, starting now
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.cfg.RefreshInterval).Do(func() {
		if err := s.RunOnce(context.Background()); err != nil {
			s.log.Error("Scheduled refresh failed", "error", err)
		}
	})
	if err != nil {
		return errors.Wrap(err, "failed to schedule refresh job")
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunOnce refreshes the smart lists of every learner with bounded
// parallelism, then sends reminders when inside the notification window.
// A failure for one learner is logged and does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	learners, err := s.learners.ListLearners(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list learners")
	}

	reviewCounts := make([]int, len(learners))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for i, l := range learners {
		i, l := i, l
		g.Go(func() error {
			defs, err := s.refresher.RefreshSmartResources(gctx, l.ID)
			if err != nil {
				s.log.Warn("Failed to refresh smart lists", "learner", l.ID, "error", err)
				return nil
			}
			reviewCounts[i] = dailyReviewCount(defs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.log.Info("Smart lists refreshed", "learners", len(learners))

	if s.notifier == nil {
		return nil
	}
	// notification hours are UTC
	now := s.now().UTC()
	if !s.cfg.InNotificationWindow(now.Hour()) {
		s.log.Debug("Outside notification hours, skipping reminders",
			"hour", now.Hour(),
			"start", s.cfg.NotificationStartHour,
			"end", s.cfg.NotificationEndHour)
		return nil
	}
	for i, l := range learners {
		if reviewCounts[i] == 0 || !s.claimReminder(l.ID, now) {
			continue
		}
		if err := s.notifier.SendReminders(ctx, l, reviewCounts[i]); err != nil {
			s.releaseReminder(l.ID, now)
			s.log.Warn("Failed to send reminder", "learner", l.ID, "error", err)
		}
	}
	return nil
}

// RunManualCheck refreshes one learner and sends a reminder if anything is due,
// ignoring the notification window
func (s *Scheduler) RunManualCheck(ctx context.Context, learner models.Learner) error {
	defs, err := s.refresher.RefreshSmartResources(ctx, learner.ID)
	if err != nil {
		return err
	}
	count := dailyReviewCount(defs)
	if count == 0 || s.notifier == nil {
		return nil
	}
	return s.notifier.SendReminders(ctx, learner, count)
}

// claimReminder allows one reminder per learner per calendar day
func (s *Scheduler) claimReminder(learnerID int64, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	today := models.Day(now)
	if last, ok := s.lastNotified[learnerID]; ok && !last.Before(today) {
		return false
	}
	s.lastNotified[learnerID] = today
	return true
}

// releaseReminder undoes today's claim so the next run retries
func (s *Scheduler) releaseReminder(learnerID int64, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastNotified[learnerID]; ok && last.Equal(models.Day(now)) {
		delete(s.lastNotified, learnerID)
	}
}

func (s *Scheduler) concurrency() int {
	if s.cfg.RefreshConcurrency > 0 {
		return s.cfg.RefreshConcurrency
	}
	return config.DefaultRefreshConcurrency
}

func dailyReviewCount(defs []models.SmartResourceDefinition) int {
	for _, def := range defs {
		if def.Kind == models.DailyReview {
			return len(def.Members)
		}
	}
	return 0
}
