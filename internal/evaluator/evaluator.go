// Package evaluator decides whether a learner's free-form answer matches
// the expected answer, tolerating annotations, partial phrases and typos.
package evaluator

import (
	"strings"
)

// MatchType describes how an answer was accepted.
type MatchType int

const (
	MatchNone MatchType = iota
	MatchExact
	MatchFuzzy
)

func (m MatchType) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchFuzzy:
		return "fuzzy"
	case MatchNone:
		return "none"
	}
	return "unknown"
}

// Thresholds for the edit-distance fallback.
const (
	MinSimilarity   = 0.75
	MaxEditDistance = 2
)

// Result is the outcome of evaluating one answer.
type Result struct {
	IsCorrect bool
	MatchType MatchType
	// CanonicalForm is the full expected answer, set for fuzzy matches so
	// the complete form can be shown to the learner.
	CanonicalForm string
	Distance      int
	Similarity    float64
}

// Evaluator compares answers using per-language segmentation.
type Evaluator struct {
	segmenters map[string]LanguageSegmenter
	fallback   LanguageSegmenter
}

// New creates an Evaluator with a segmenter for each config.
func New(languages ...LanguageConfig) *Evaluator {
	e := &Evaluator{
		segmenters: make(map[string]LanguageSegmenter, len(languages)),
		fallback:   WhitespaceSegmenter{},
	}
	for _, cfg := range languages {
		e.segmenters[cfg.Code] = NewConfigSegmenter(cfg)
	}
	return e
}

// Segmenter returns the segmenter for lang, or whitespace splitting when
// no configuration exists.
func (e *Evaluator) Segmenter(lang string) LanguageSegmenter {
	if s, ok := e.segmenters[lang]; ok {
		return s
	}
	return e.fallback
}

// Evaluate compares userInput with expected using whitespace segmentation.
func (e *Evaluator) Evaluate(userInput, expected string) Result {
	return e.evaluate(e.fallback, userInput, expected)
}

// EvaluateLanguage compares userInput with expected using the segmenter
// configured for lang.
func (e *Evaluator) EvaluateLanguage(lang, userInput, expected string) Result {
	return e.evaluate(e.Segmenter(lang), userInput, expected)
}

func (e *Evaluator) evaluate(seg LanguageSegmenter, userInput, expected string) Result {
	rawInput, rawExpected := strings.TrimSpace(userInput), strings.TrimSpace(expected)
	if rawInput == "" || rawExpected == "" {
		return Result{MatchType: MatchNone}
	}

	a, b := Normalize(userInput), Normalize(expected)
	if a == "" || b == "" {
		// nothing but annotation or punctuation on one side
		return Result{MatchType: MatchNone}
	}
	if strings.EqualFold(a, b) {
		if strings.EqualFold(rawInput, rawExpected) {
			return Result{IsCorrect: true, MatchType: MatchExact, Similarity: 1}
		}
		return fuzzy(expected, 0, 1)
	}

	if containsEither(seg.Segment(a), seg.Segment(b)) {
		return fuzzy(expected, Levenshtein(a, b), Similarity(a, b))
	}

	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return Result{MatchType: MatchNone}
	}
	distance := Levenshtein(a, b)
	similarity := 1 - float64(distance)/float64(maxLen)
	if similarity >= MinSimilarity || distance <= MaxEditDistance {
		return fuzzy(expected, distance, similarity)
	}
	return Result{MatchType: MatchNone, Distance: distance, Similarity: similarity}
}

func fuzzy(expected string, distance int, similarity float64) Result {
	return Result{
		IsCorrect:     true,
		MatchType:     MatchFuzzy,
		CanonicalForm: expected,
		Distance:      distance,
		Similarity:    similarity,
	}
}

// containsEither reports whether every word of one side appears in the other.
// Empty word lists never match.
func containsEither(input, expected []string) bool {
	if len(input) == 0 || len(expected) == 0 {
		return false
	}
	return subset(input, expected) || subset(expected, input)
}

func subset(words, of []string) bool {
	set := make(map[string]struct{}, len(of))
	for _, w := range of {
		set[w] = struct{}{}
	}
	for _, w := range words {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}
