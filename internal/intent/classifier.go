package intent

import (
	"errors"
	"strings"

	"github.com/deshkavote/voicebridge/internal/match"
)

// Scoring defaults. The per-phrase score is
//
//	phraseWeight*similarity + containmentBonus (when contained) + keywordWeight*keywordFraction
//
// and an intent's score is the maximum per-phrase score across its phrases.
// These coefficients are the documented contract of the classifier; changing
// them changes observable matching behaviour.
const (
	defaultPhraseWeight     = 0.5
	defaultContainmentBonus = 0.3
	defaultKeywordWeight    = 0.2
	defaultKeywordThreshold = 0.7
	defaultMinConfidence    = 0.3
)

// ErrNoIntents is returned by Classify when the catalog is empty. It is a
// distinct condition from a low-confidence match: the former is a
// configuration problem, the latter is a normal outcome.
var ErrNoIntents = errors.New("intent: no intents configured")

// Match is the result of classifying one utterance: the winning intent, its
// confidence score, and the literal input text that produced it.
type Match struct {
	Intent     ID
	Confidence float64
	Input      string
}

// Option is a functional option for configuring a [Classifier].
type Option func(*Classifier)

// WithWeights overrides the three scoring coefficients: the phrase-similarity
// weight, the flat containment bonus, and the keyword-fraction weight.
func WithWeights(phrase, containment, keyword float64) Option {
	return func(c *Classifier) {
		c.phraseWeight = phrase
		c.containmentBonus = containment
		c.keywordWeight = keyword
	}
}

// WithKeywordThreshold sets the minimum token similarity for an utterance
// token to count as matching an intent keyword. Default: 0.7.
func WithKeywordThreshold(threshold float64) Option {
	return func(c *Classifier) {
		c.keywordThreshold = threshold
	}
}

// WithMinConfidence sets the confidence below which a match is rejected as
// "not understood". Default: 0.3.
func WithMinConfidence(threshold float64) Option {
	return func(c *Classifier) {
		c.minConfidence = threshold
	}
}

// Classifier scores utterances against a fixed intent catalog.
// All methods are safe for concurrent use — the Classifier is read-only after
// construction.
type Classifier struct {
	catalog          Catalog
	phraseWeight     float64
	containmentBonus float64
	keywordWeight    float64
	keywordThreshold float64
	minConfidence    float64
}

// New returns a [Classifier] over catalog configured with the supplied
// options.
func New(catalog Catalog, opts ...Option) *Classifier {
	c := &Classifier{
		catalog:          catalog,
		phraseWeight:     defaultPhraseWeight,
		containmentBonus: defaultContainmentBonus,
		keywordWeight:    defaultKeywordWeight,
		keywordThreshold: defaultKeywordThreshold,
		minConfidence:    defaultMinConfidence,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// MinConfidence returns the rejection threshold the classifier was configured
// with.
func (c *Classifier) MinConfidence() float64 { return c.minConfidence }

// Accepts reports whether m clears the minimum-confidence threshold.
func (c *Classifier) Accepts(m Match) bool { return m.Confidence >= c.minConfidence }

// Classify scores utterance against every catalog entry and returns the best
// match. Ties are broken by catalog declaration order (first wins). The
// returned match may still be below the confidence threshold; use [Accepts]
// to decide whether to act on it.
//
// Returns [ErrNoIntents] when the catalog has no entries.
func (c *Classifier) Classify(utterance string) (Match, error) {
	if len(c.catalog) == 0 {
		return Match{}, ErrNoIntents
	}

	utter := strings.ToLower(strings.TrimSpace(utterance))
	tokens := strings.Fields(utter)
	firstWord := ""
	if len(tokens) > 0 {
		firstWord = tokens[0]
	}

	best := Match{Input: utterance}
	for _, def := range c.catalog {
		score := c.scoreIntent(utter, firstWord, tokens, def)
		if score > best.Confidence || best.Intent == "" {
			best.Intent = def.ID
			best.Confidence = score
		}
	}
	return best, nil
}

// ClassifyBest classifies the primary transcript and every alternative
// transcription independently and returns the single best result. Alternatives
// are never merged or averaged; ties keep the earlier input (the primary
// transcript wins over alternatives).
func (c *Classifier) ClassifyBest(transcript string, alternatives []string) (Match, error) {
	best, err := c.Classify(transcript)
	if err != nil {
		return Match{}, err
	}
	for _, alt := range alternatives {
		m, err := c.Classify(alt)
		if err != nil {
			return Match{}, err
		}
		if m.Confidence > best.Confidence {
			best = m
		}
	}
	return best, nil
}

// scoreIntent computes the intent's score: the maximum per-phrase combined
// score across all its example phrases.
func (c *Classifier) scoreIntent(utter, firstWord string, tokens []string, def Definition) float64 {
	keywordFraction := c.keywordFraction(tokens, def.Keywords)

	var best float64
	for _, phrase := range def.Phrases {
		phrase = strings.ToLower(phrase)
		score := c.phraseWeight * match.Similarity(utter, phrase)
		if strings.Contains(utter, phrase) || (firstWord != "" && strings.Contains(phrase, firstWord)) {
			score += c.containmentBonus
		}
		score += c.keywordWeight * keywordFraction
		if score > best {
			best = score
		}
	}
	return best
}

// keywordFraction returns the fraction of keywords that fuzzily match at
// least one utterance token. Returns 0 when the keyword set is empty.
func (c *Classifier) keywordFraction(tokens, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	matched := 0
	for _, kw := range keywords {
		for _, tok := range tokens {
			if match.Similarity(tok, kw) > c.keywordThreshold {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(keywords))
}
