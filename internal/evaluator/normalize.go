package evaluator

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	parenAnnotation = regexp.MustCompile(`\([^)]*\)`)
	tildeAnnotation = regexp.MustCompile(`~.*$`)
	lowerCaser      = cases.Lower(language.Und)
)

const infinitiveMarker = "to "

// Normalize reduces an answer to the form used for comparison: NFC,
// lowercase, annotations removed, punctuation removed, leading "to "
// removed and whitespace collapsed. Normalize is idempotent.
func Normalize(s string) string {
	s = norm.NFC.String(lowerCaser.String(s))
	s = parenAnnotation.ReplaceAllString(s, " ")
	s = tildeAnnotation.ReplaceAllString(s, "")
	s = stripPunctuation(s)
	s = strings.Join(strings.Fields(s), " ")
	for strings.HasPrefix(s, infinitiveMarker) {
		s = strings.TrimPrefix(s, infinitiveMarker)
	}
	// recompose marks that punctuation removal brought next to their base
	return norm.NFC.String(strings.TrimSpace(s))
}

// stripPunctuation keeps letters, digits, combining marks and whitespace in any script.
func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r):
			return r
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, s)
}
