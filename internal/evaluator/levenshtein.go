package evaluator

import "github.com/agnivade/levenshtein"

// Levenshtein returns the edit distance between a and b counted in code points.
func Levenshtein(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Similarity returns 1 - distance/maxLength, and 0 when both strings are empty.
func Similarity(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 0
	}
	return 1 - float64(Levenshtein(a, b))/float64(maxLen)
}
