package practice

import (
	"context"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/example/wordmastery/internal/evaluator"
	"github.com/example/wordmastery/pkg/models"
)

// DefaultChoices is the option count used when MultipleChoice gets n < 2.
const DefaultChoices = 4

// Question is a recognition prompt: the term with translation options.
type Question struct {
	Item         models.VocabularyItem
	Options      []string
	CorrectIndex int
}

// Answer returns the option text for index i, or "" when out of range.
func (q *Question) Answer(i int) string {
	if i < 0 || i >= len(q.Options) {
		return ""
	}
	return q.Options[i]
}

// MultipleChoice builds a question for itemID with up to n options. Distractor
// translations come from items sharing a tag first, then from the rest of the
// catalog. Translations the evaluator would accept as the answer are never
// offered. itemID 0 picks the learner's next item.
func (s *Service) MultipleChoice(ctx context.Context, learnerID, itemID int64, n int, rnd *rand.Rand) (*Question, error) {
	if n < 2 {
		n = DefaultChoices
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(s.now().UnixNano()))
	}

	if itemID == 0 {
		next, err := s.Next(ctx, learnerID)
		if err != nil {
			return nil, err
		}
		itemID = next.Item.ID
	}

	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list vocabulary items")
	}
	var target *models.VocabularyItem
	for i := range items {
		if items[i].ID == itemID {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return nil, errors.Wrapf(ErrItemNotFound, "item %d", itemID)
	}

	// Get incorrect options
	distractors := s.pickDistractors(*target, items, n-1, rnd)

	// Add correct option and shuffle
	options := append(distractors, target.Translation)
	rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	correct := 0
	for i, opt := range options {
		if opt == target.Translation {
			correct = i
			break
		}
	}
	return &Question{Item: *target, Options: options, CorrectIndex: correct}, nil
}

func (s *Service) pickDistractors(target models.VocabularyItem, items []models.VocabularyItem, count int, rnd *rand.Rand) []string {
	var sameTag, others []models.VocabularyItem
	for _, item := range items {
		if item.ID == target.ID {
			continue
		}
		if sharesTag(item.Tags, target.Tags) {
			sameTag = append(sameTag, item)
		} else {
			others = append(others, item)
		}
	}
	rnd.Shuffle(len(sameTag), func(i, j int) { sameTag[i], sameTag[j] = sameTag[j], sameTag[i] })
	rnd.Shuffle(len(others), func(i, j int) { others[i], others[j] = others[j], others[i] })

	seen := map[string]bool{evaluator.Normalize(target.Translation): true}
	options := make([]string, 0, count)
	for _, item := range append(sameTag, others...) {
		if len(options) == count {
			break
		}
		key := evaluator.Normalize(item.Translation)
		if key == "" || seen[key] {
			continue
		}
		if s.evaluator.EvaluateLanguage("", item.Translation, target.Translation).IsCorrect {
			continue
		}
		seen[key] = true
		options = append(options, item.Translation)
	}
	return options
}

// AnswerChoice records the learner's pick of option idx. Picks are graded by
// position only.
func (s *Service) AnswerChoice(ctx context.Context, learnerID int64, q *Question, idx int, latency time.Duration) (*Outcome, error) {
	if q == nil || q.Answer(idx) == "" {
		return nil, errors.Wrapf(ErrInvalidAttempt, "option %d", idx)
	}

	result := evaluator.Result{MatchType: evaluator.MatchNone}
	if idx == q.CorrectIndex {
		result = evaluator.Result{IsCorrect: true, MatchType: evaluator.MatchExact, Similarity: 1}
	}
	attempt := models.NewAttemptRecord(learnerID, q.Item.ID, models.MultipleChoice.InputMode(),
		q.Answer(idx), q.Answer(q.CorrectIndex), result.IsCorrect, s.now())
	attempt.Activity = models.MultipleChoice
	attempt.LatencyMs = latency.Milliseconds()

	progress, err := s.RecordAttempt(ctx, attempt)
	if err != nil {
		return nil, err
	}
	return &Outcome{Item: q.Item, Result: result, Attempt: attempt, Progress: *progress}, nil
}

func sharesTag(a, b models.Tags) bool {
	for _, tag := range a {
		if b.Has(tag) {
			return true
		}
	}
	return false
}

// Blank replaces the placeholder of a cloze sentence.
const Blank = "_______"

// Cloze blanks the first case-insensitive occurrence of term in sentence.
// When term does not occur the blank is appended.
func Cloze(sentence, term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return sentence
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
	loc := re.FindStringIndex(sentence)
	if loc == nil {
		return strings.TrimSpace(sentence) + " " + Blank
	}
	return sentence[:loc[0]] + Blank + sentence[loc[1]:]
}
