// Package intent implements fuzzy intent classification for voice commands.
//
// A [Catalog] is an ordered list of intent definitions, each carrying a set of
// example phrases and a set of keyword tokens. The [Classifier] scores a
// free-form utterance against every definition and returns the best match with
// a heuristic confidence value in [0, 1]. Confidence is a ranking score, not a
// calibrated probability; callers should compare it against the classifier's
// minimum-confidence threshold via [Classifier.Accepts].
package intent

// ID identifies a recognized category of user request.
type ID string

// The built-in voting assistant intents. Declaration order matters: when two
// intents score exactly equal, the one listed earlier in the catalog wins.
const (
	Help             ID = "help"
	ShowElections    ID = "show_elections"
	VoteInElection   ID = "vote_in_election"
	ListCandidates   ID = "list_candidates"
	VoteForCandidate ID = "vote_for_candidate"
	ConfirmVote      ID = "confirm_vote"
	Cancel           ID = "cancel"
	NavigateProfile  ID = "navigate_profile"
	NavigateResults  ID = "navigate_results"
)

// Definition describes one intent: its identifier, the example phrases users
// say to express it, and the keyword tokens that hint at it.
type Definition struct {
	ID       ID
	Phrases  []string
	Keywords []string
}

// Catalog is an ordered list of intent definitions. Order is the tie-break:
// earlier definitions win when scores are exactly equal.
type Catalog []Definition

// DefaultCatalog returns the built-in voting assistant catalog. Phrases and
// keywords are stored lower-cased; the classifier lower-cases utterances
// before comparing against them.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			ID:       Help,
			Phrases:  []string{"help", "what can", "commands", "options", "assist", "guide"},
			Keywords: []string{"help", "command", "what", "how", "assist"},
		},
		{
			ID:       ShowElections,
			Phrases:  []string{"show election", "list election", "available election", "see election", "display election", "election list"},
			Keywords: []string{"show", "list", "election", "available", "see", "display"},
		},
		{
			ID:       VoteInElection,
			Phrases:  []string{"vote in", "open election", "start voting", "vote for election", "select election", "choose election"},
			Keywords: []string{"vote", "open", "start", "election", "select", "choose"},
		},
		{
			ID:       ListCandidates,
			Phrases:  []string{"list candidate", "show candidate", "who are", "available candidate", "candidate list"},
			Keywords: []string{"list", "show", "candidate", "who", "available"},
		},
		{
			ID:       VoteForCandidate,
			Phrases:  []string{"vote for", "select", "choose", "pick", "cast vote for"},
			Keywords: []string{"vote", "select", "choose", "pick", "cast", "for"},
		},
		{
			ID:       ConfirmVote,
			Phrases:  []string{"confirm", "yes", "cast vote", "submit", "proceed", "go ahead", "okay"},
			Keywords: []string{"confirm", "yes", "cast", "submit", "proceed", "okay", "ok"},
		},
		{
			ID:       Cancel,
			Phrases:  []string{"cancel", "no", "go back", "stop", "abort", "nevermind"},
			Keywords: []string{"cancel", "no", "back", "stop", "abort", "never"},
		},
		{
			ID:       NavigateProfile,
			Phrases:  []string{"profile", "my profile", "go to profile", "show profile"},
			Keywords: []string{"profile", "my", "go", "show"},
		},
		{
			ID:       NavigateResults,
			Phrases:  []string{"result", "show result", "go to result", "election result"},
			Keywords: []string{"result", "show", "go", "election"},
		},
	}
}
