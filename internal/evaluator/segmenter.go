package evaluator

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// LanguageSegmenter splits a normalized answer into comparable words.
type LanguageSegmenter interface {
	Segment(s string) []string
}

// LanguageConfig is the static per-language tokenization data.
type LanguageConfig struct {
	Code          string
	MinWordLength int      // in runes
	FunctionWords []string // dropped entirely
	Particles     []string // stripped from the end of a word
}

// WhitespaceSegmenter splits on whitespace only.
type WhitespaceSegmenter struct{}

// Segment implements LanguageSegmenter.
func (WhitespaceSegmenter) Segment(s string) []string {
	return strings.Fields(s)
}

// ConfigSegmenter applies a LanguageConfig on top of whitespace splitting.
type ConfigSegmenter struct {
	minLen    int
	function  map[string]struct{}
	particles []string
}

// NewConfigSegmenter builds a segmenter from cfg. Particles and function
// words are normalized the same way answers are.
func NewConfigSegmenter(cfg LanguageConfig) *ConfigSegmenter {
	s := &ConfigSegmenter{
		minLen:   cfg.MinWordLength,
		function: make(map[string]struct{}, len(cfg.FunctionWords)),
	}
	for _, w := range cfg.FunctionWords {
		s.function[Normalize(w)] = struct{}{}
	}
	for _, p := range cfg.Particles {
		if p = Normalize(p); p != "" {
			s.particles = append(s.particles, p)
		}
	}
	// longest particle first so 에서 wins over 서
	sort.SliceStable(s.particles, func(i, j int) bool {
		return utf8.RuneCountInString(s.particles[i]) > utf8.RuneCountInString(s.particles[j])
	})
	return s
}

// Segment implements LanguageSegmenter.
func (s *ConfigSegmenter) Segment(text string) []string {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := s.function[f]; ok {
			continue
		}
		words = append(words, s.stripParticle(f))
	}

	kept := words[:0:0]
	for _, w := range words {
		if utf8.RuneCountInString(w) >= s.minLen {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return words
	}
	return kept
}

func (s *ConfigSegmenter) stripParticle(word string) string {
	for _, p := range s.particles {
		if !strings.HasSuffix(word, p) {
			continue
		}
		stem := strings.TrimSuffix(word, p)
		if utf8.RuneCountInString(stem) >= max(s.minLen, 1) {
			return stem
		}
	}
	return word
}

// DefaultLanguages returns the built-in language configurations.
func DefaultLanguages() []LanguageConfig {
	return []LanguageConfig{
		{
			Code:          "ko",
			MinWordLength: 2,
			Particles: []string{
				"은", "는", "이", "가", "을", "를", "에", "에서", "의",
				"도", "로", "으로", "와", "과",
			},
		},
		{
			Code:          "en",
			MinWordLength: 2,
			FunctionWords: []string{"a", "an", "the"},
		},
	}
}
