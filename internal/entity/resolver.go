package entity

import (
	"errors"
	"strings"

	"github.com/deshkavote/voicebridge/internal/match"
)

const (
	defaultWordMatchThreshold = 0.75
	defaultMinConfidence      = 0.4
)

// defaultStopWords are the intent-carrier words removed from utterances
// before matching, so that "vote in mumbai municipal" compares as
// "mumbai municipal". Matched as whole words only.
var defaultStopWords = []string{
	"vote", "in", "for", "the", "open", "select", "choose", "election", "candidate",
}

// ErrNoEntities is returned by Resolve when the entity list is empty. It is
// distinct from a low-confidence match so callers can give different guidance
// ("open an election first" vs "please repeat the name").
var ErrNoEntities = errors.New("entity: no entities available")

// Match is the result of resolving one utterance against an entity list.
type Match struct {
	Entity     Entity
	Confidence float64

	// Cleaned is the lower-cased, stop-word-stripped text the entity was
	// matched against.
	Cleaned string
}

// Option is a functional option for configuring a [Resolver].
type Option func(*Resolver)

// WithWordMatchThreshold sets the minimum token similarity for an entity-name
// token to count as present in the utterance. Default: 0.75.
func WithWordMatchThreshold(threshold float64) Option {
	return func(r *Resolver) {
		r.wordMatchThreshold = threshold
	}
}

// WithMinConfidence sets the confidence below which a match is rejected and
// the caller should enumerate the options instead. Default: 0.4.
func WithMinConfidence(threshold float64) Option {
	return func(r *Resolver) {
		r.minConfidence = threshold
	}
}

// WithStopWords replaces the default stop-word set.
func WithStopWords(words []string) Option {
	return func(r *Resolver) {
		r.stopWords = make(map[string]struct{}, len(words))
		for _, w := range words {
			r.stopWords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// Resolver selects the best-matching entity for an utterance.
// All methods are safe for concurrent use — the Resolver is read-only after
// construction.
type Resolver struct {
	stopWords          map[string]struct{}
	wordMatchThreshold float64
	minConfidence      float64
}

// New returns a [Resolver] configured with the supplied options.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		wordMatchThreshold: defaultWordMatchThreshold,
		minConfidence:      defaultMinConfidence,
	}
	WithStopWords(defaultStopWords)(r)
	for _, o := range opts {
		o(r)
	}
	return r
}

// MinConfidence returns the rejection threshold the resolver was configured
// with.
func (r *Resolver) MinConfidence() float64 { return r.minConfidence }

// Accepts reports whether m clears the minimum-confidence threshold.
func (r *Resolver) Accepts(m Match) bool { return m.Confidence >= r.minConfidence }

// Resolve matches utterance against entities and returns the highest-scoring
// entity. Per-entity score is the maximum of three signals: full-string
// similarity against the name, the fraction of name tokens fuzzily present in
// the utterance, and full-string similarity against the secondary label.
// Ties are broken by list order (first wins). The returned match may still be
// below the confidence threshold; use [Accepts] before acting on it.
//
// Returns [ErrNoEntities] when entities is empty.
func (r *Resolver) Resolve(utterance string, entities []Entity) (Match, error) {
	if len(entities) == 0 {
		return Match{}, ErrNoEntities
	}

	cleaned := r.Clean(utterance)
	cleanedTokens := strings.Fields(cleaned)

	best := Match{Cleaned: cleaned, Confidence: -1}
	for _, e := range entities {
		score := r.scoreEntity(cleaned, cleanedTokens, e)
		if score > best.Confidence {
			best.Entity = e
			best.Confidence = score
		}
	}
	return best, nil
}

// Clean lower-cases utterance, removes stop-words (whole-word matches), and
// collapses the remaining tokens into a single-space-separated string.
func (r *Resolver) Clean(utterance string) string {
	var kept []string
	for _, tok := range strings.Fields(strings.ToLower(utterance)) {
		if _, stop := r.stopWords[tok]; stop {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// scoreEntity computes max(nameSimilarity, wordMatchFraction, labelSimilarity)
// for one entity.
func (r *Resolver) scoreEntity(cleaned string, cleanedTokens []string, e Entity) float64 {
	name := strings.ToLower(e.Name)
	score := match.Similarity(cleaned, name)

	if frac := r.wordMatchFraction(cleanedTokens, strings.Fields(name)); frac > score {
		score = frac
	}

	if e.Label != "" {
		if labelSim := match.Similarity(cleaned, strings.ToLower(e.Label)); labelSim > score {
			score = labelSim
		}
	}
	return score
}

// wordMatchFraction returns the fraction of entity-name tokens that fuzzily
// match at least one utterance token. Returns 0 when the name has no tokens.
func (r *Resolver) wordMatchFraction(utterTokens, nameTokens []string) float64 {
	if len(nameTokens) == 0 {
		return 0
	}
	matched := 0
	for _, nt := range nameTokens {
		for _, ut := range utterTokens {
			if match.Similarity(ut, nt) > r.wordMatchThreshold {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(nameTokens))
}
