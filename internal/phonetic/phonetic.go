// Package phonetic corrects misheard election and candidate names in voice
// transcripts using Double Metaphone phonetic encoding combined with
// Jaro-Winkler string similarity.
//
// The algorithm proceeds in two stages:
//
//  1. Phonetic candidate filtering: Double Metaphone codes are computed for
//     each word in the input and for each known name. If any code from the
//     input overlaps with any code from a name, the name becomes a phonetic
//     candidate.
//
//  2. Jaro-Winkler ranking: Among phonetic candidates, the name with the
//     highest Jaro-Winkler similarity (computed on the original strings,
//     case-insensitive) is selected, provided its score exceeds the
//     configurable phonetic threshold.
//
//     When no phonetic candidate is found, a secondary pass tests pure
//     Jaro-Winkler similarity against all names using a higher fuzzy
//     threshold (default 0.85).
//
// Multi-word names (e.g. "mumbai municipal election") are supported: the
// matcher computes phonetic codes for each word. Pairwise token scoring is
// only applied to single-token inputs, so a window that merely shares one
// word with a longer name does not outrank a proper full-string match.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched name to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic match is found and the matcher falls back to pure string
// similarity. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// Matcher is a phonetic name matcher. All methods are safe for concurrent
// use; the Matcher is read-only after construction.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a new [Matcher] configured with the supplied options.
// Default thresholds are 0.70 for phonetic matches and 0.85 for fuzzy
// fallback matches.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match attempts to find the name from names that is most phonetically
// similar to word.
//
// word may be a single word or a space-separated phrase (n-gram window).
// When matched is false, corrected equals word unchanged and confidence is 0.
func (m *Matcher) Match(word string, names []string) (corrected string, confidence float64, matched bool) {
	if len(names) == 0 || strings.TrimSpace(word) == "" {
		return word, 0, false
	}

	wordLower := strings.ToLower(strings.TrimSpace(word))
	wordTokens := strings.Fields(wordLower)

	inputCodes := codesForTokens(wordTokens)

	type candidate struct {
		name     string
		score    float64
		phonetic bool
	}

	var best candidate

	for _, name := range names {
		nameLower := strings.ToLower(strings.TrimSpace(name))
		if nameLower == "" {
			continue
		}
		nameTokens := strings.Fields(nameLower)

		nameCodes := codesForTokens(nameTokens)
		phoneticMatch := codesOverlap(inputCodes, nameCodes)

		jwScore := bestJWScore(wordTokens, nameTokens, wordLower, nameLower)

		if phoneticMatch {
			if jwScore >= m.phoneticThreshold {
				if !best.phonetic || jwScore > best.score {
					best = candidate{name: name, score: jwScore, phonetic: true}
				}
			}
		} else if !best.phonetic {
			if jwScore >= m.fuzzyThreshold && jwScore > best.score {
				best = candidate{name: name, score: jwScore, phonetic: false}
			}
		}
	}

	if best.name != "" {
		return best.name, best.score, true
	}
	return word, 0, false
}

// codesForTokens returns the union of all Double Metaphone codes for the
// given tokens. Empty codes (produced when the word is too short or contains
// no consonants) are excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap returns true if the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJWScore computes the highest Jaro-Winkler similarity between the input
// and the name using three strategies:
//
//  1. Full-string comparison (e.g. "asha patel" vs "asha patil").
//  2. Space-stripped comparison (e.g. "ashapatel" vs "ashapatil").
//  3. Best pairwise word comparison, applied only when the input is a single
//     token, so a misheard surname can still recall the full name.
func bestJWScore(inputTokens, nameTokens []string, inputFull, nameFull string) float64 {
	score := matchr.JaroWinkler(inputFull, nameFull, false)

	if len(inputTokens) > 1 || len(nameTokens) > 1 {
		concat1 := strings.Join(inputTokens, "")
		concat2 := strings.Join(nameTokens, "")
		if s := matchr.JaroWinkler(concat1, concat2, false); s > score {
			score = s
		}
	}

	if len(inputTokens) == 1 {
		for _, nt := range nameTokens {
			if s := matchr.JaroWinkler(inputTokens[0], nt, false); s > score {
				score = s
			}
		}
	}

	return score
}
