package practice

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/example/wordmastery/pkg/models"
)

// Entry pairs a catalog item with the learner's progress on it.
// Progress is nil for items the learner has never seen.
type Entry struct {
	Item     models.VocabularyItem
	Progress *models.LearnerProgress
}

// DueQueue returns up to limit items due for the learner, most urgent first.
// limit <= 0 returns every due item.
func (s *Service) DueQueue(ctx context.Context, learnerID int64, limit int) ([]Entry, error) {
	progress, err := s.store.ListProgress(ctx, learnerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list progress")
	}
	items, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	var queue []Entry
	for _, p := range s.scheduler.GetNextWords(progress, s.now(), 0) {
		item, ok := items[p.ItemID]
		if !ok {
			continue
		}
		p := p
		queue = append(queue, Entry{Item: item, Progress: &p})
		if limit > 0 && len(queue) == limit {
			break
		}
	}
	return queue, nil
}

// NewItems returns up to limit catalog items the learner has never practiced,
// in catalog order.
func (s *Service) NewItems(ctx context.Context, learnerID int64, limit int) ([]models.VocabularyItem, error) {
	progress, err := s.store.ListProgress(ctx, learnerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list progress")
	}
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list vocabulary items")
	}
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	def := models.SmartResourceDefinition{LearnerID: learnerID, Kind: models.NewWords}
	fresh := s.selector.Refresh(def, progress, ids, s.now())

	var out []models.VocabularyItem
	for _, item := range items {
		if !fresh.Contains(item.ID) {
			continue
		}
		out = append(out, item)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Next returns the most urgent due item, or the first new item when nothing is due.
func (s *Service) Next(ctx context.Context, learnerID int64) (*Entry, error) {
	due, err := s.DueQueue(ctx, learnerID, 1)
	if err != nil {
		return nil, err
	}
	if len(due) > 0 {
		return &due[0], nil
	}
	fresh, err := s.NewItems(ctx, learnerID, 1)
	if err != nil {
		return nil, err
	}
	if len(fresh) == 0 {
		return nil, ErrNothingToPractice
	}
	return &Entry{Item: fresh[0]}, nil
}

func (s *Service) catalog(ctx context.Context) (map[int64]models.VocabularyItem, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list vocabulary items")
	}
	byID := make(map[int64]models.VocabularyItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return byID, nil
}

// Stats summarizes a learner's progress over the catalog.
type Stats struct {
	TotalItems      int
	Known           int
	Learning        int
	Unknown         int
	Due             int
	TotalAttempts   int
	CorrectAttempts int
	// Accuracy is CorrectAttempts/TotalAttempts, 0 without attempts.
	Accuracy float64
	// Strongest lists up to five learning items with the highest mastery.
	Strongest []Entry
	// Week counts attempts made during the last seven days, today included.
	Week models.AttemptSummary
}

// statsWindowDays is the length of the Stats.Week period.
const statsWindowDays = 7

// Stats computes status counts, the due count and overall accuracy.
func (s *Service) Stats(ctx context.Context, learnerID int64) (*Stats, error) {
	progress, err := s.store.ListProgress(ctx, learnerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list progress")
	}
	items, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	st := &Stats{TotalItems: len(items)}
	var learning []Entry
	for _, p := range progress {
		item, ok := items[p.ItemID]
		if !ok {
			continue
		}
		st.TotalAttempts += p.TotalAttempts
		st.CorrectAttempts += p.CorrectAttempts
		if p.IsDue(now) {
			st.Due++
		}
		switch p.Status() {
		case models.StatusKnown:
			st.Known++
		case models.StatusLearning:
			st.Learning++
			p := p
			learning = append(learning, Entry{Item: item, Progress: &p})
		}
	}
	st.Unknown = st.TotalItems - st.Known - st.Learning
	if st.TotalAttempts > 0 {
		st.Accuracy = float64(st.CorrectAttempts) / float64(st.TotalAttempts)
	}

	sort.SliceStable(learning, func(i, j int) bool {
		return learning[i].Progress.MasteryScore > learning[j].Progress.MasteryScore
	})
	if len(learning) > 5 {
		learning = learning[:5]
	}
	st.Strongest = learning

	since := models.Day(now).AddDate(0, 0, 1-statsWindowDays)
	if st.Week, err = s.store.SummarizeAttempts(ctx, learnerID, since); err != nil {
		return nil, errors.Wrap(err, "failed to summarize attempts")
	}
	return st, nil
}
