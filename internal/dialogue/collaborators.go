package dialogue

import "context"

// Candidate is one candidate row returned by the voting backend.
type Candidate struct {
	ID     string
	Name   string
	Party  string
	Symbol string
}

// NavTarget names a page the assistant can navigate the user to.
type NavTarget string

const (
	NavProfile NavTarget = "profile"
	NavResults NavTarget = "results"
)

// Backend is the voting-backend collaborator. Both calls are awaited before
// any dialogue state transition is committed; errors are announced to the
// user and never advance the state machine past the point of failure.
type Backend interface {
	// FetchCandidates returns the candidate roster for an election.
	FetchCandidates(ctx context.Context, electionID string) ([]Candidate, error)

	// CastVote dispatches a vote and returns the backend's status message.
	// Duplicate-vote rejection and eligibility checks are enforced
	// server-side.
	CastVote(ctx context.Context, electionID, candidateID string) (string, error)
}

// Announcer delivers feedback to the user (spoken or displayed). Calls are
// fire-and-forget from the controller's perspective.
type Announcer interface {
	Announce(ctx context.Context, text string)
}

// Navigator triggers page navigation. The controller does not wait for
// completion; navigation implicitly ends the session on the client side.
type Navigator interface {
	Navigate(ctx context.Context, target NavTarget)
}

// Corrector optionally rewrites a transcript before classification, e.g. by
// phonetically aligning proper nouns against the known entity names. It must
// not change matching semantics, only the input text.
type Corrector interface {
	Correct(text string, names []string) string
}
