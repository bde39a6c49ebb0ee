// Package entity implements fuzzy entity resolution for voice commands: given
// an utterance and a runtime-supplied list of named entities (elections or
// candidates), it strips intent stop-words from the utterance and selects the
// best-matching entity with a confidence score.
//
// Like the intent classifier, confidence is a heuristic ranking score in
// [0, 1], not a probability. Callers compare it against the resolver's
// minimum-confidence threshold via [Resolver.Accepts] and, on rejection,
// should enumerate the valid options to the user instead of guessing.
package entity

// Entity is a concrete named item a voice command can apply to: an election
// (no label) or a candidate (label holds the party name).
type Entity struct {
	// ID is the backend identifier used when dispatching actions.
	ID string

	// Name is the display name matched against utterances.
	Name string

	// Label is an optional secondary name (the candidate's party). Matching
	// it lets "vote for the people's front" select that party's candidate.
	Label string
}
