package phonetic

import (
	"strings"

	"github.com/deshkavote/voicebridge/internal/dialogue"
)

// Corrector rewrites misheard name spans in a transcript before intent
// classification. It implements the dialogue.Corrector interface.
//
// The transcript is tokenised into words, and at each position n-gram windows
// (from the widest name word count down to 1) are tested against the known
// names. The longest matching window wins, its tokens are replaced with the
// matched name, and the cursor advances past the consumed window. Unmatched
// tokens pass through unchanged.
type Corrector struct {
	matcher *Matcher
}

// NewCorrector returns a [Corrector] backed by the given matcher. A nil
// matcher uses the default thresholds.
func NewCorrector(m *Matcher) *Corrector {
	if m == nil {
		m = New()
	}
	return &Corrector{matcher: m}
}

// Correct returns text with recognised name spans replaced by their canonical
// spelling from names. When names is empty or nothing matches, text is
// returned unchanged.
func (c *Corrector) Correct(text string, names []string) string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 || len(names) == 0 {
		return text
	}

	maxNameWords := maxWordCount(names)

	var output []string

	i := 0
	for i < len(tokens) {
		maxN := maxNameWords
		if i+maxN > len(tokens) {
			maxN = len(tokens) - i
		}

		matched := false
		for n := maxN; n >= 1; n-- {
			window := strings.Join(tokens[i:i+n], " ")
			name, _, ok := c.matcher.Match(window, names)
			if !ok {
				continue
			}
			output = append(output, strings.Fields(name)...)
			i += n
			matched = true
			break
		}

		if !matched {
			output = append(output, tokens[i])
			i++
		}
	}

	return strings.Join(output, " ")
}

// maxWordCount returns the maximum number of whitespace-separated words in
// any name. Returns 1 when names is empty.
func maxWordCount(names []string) int {
	max := 1
	for _, n := range names {
		if c := len(strings.Fields(n)); c > max {
			max = c
		}
	}
	return max
}

// Ensure Corrector implements dialogue.Corrector at compile time.
var _ dialogue.Corrector = (*Corrector)(nil)
