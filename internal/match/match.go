// Package match provides the normalized string-similarity primitive shared by
// the intent classifier and the entity resolver.
//
// Similarity is a thin normalization layer over the Levenshtein edit distance:
// the distance is scaled into [0, 1] so that 1.0 means the strings are equal
// and 0.0 means every character position differs. The function is pure and
// deterministic; callers that want case-insensitive comparison must lower-case
// both inputs themselves (the classifier and resolver both do).
package match

import (
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Similarity returns the normalized Levenshtein similarity between a and b.
//
// The score is (maxLen - distance) / maxLen where maxLen is the rune count of
// the longer string and distance is the classic Levenshtein edit distance with
// unit costs for insertion, deletion, and substitution. Two empty strings are
// defined to have similarity 1.0.
//
// Cost is O(len(a)·len(b)) time and space, which is fine for the short
// utterances and entity names this package is used with.
func Similarity(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}

	dist := matchr.Levenshtein(a, b)
	return float64(maxLen-dist) / float64(maxLen)
}
