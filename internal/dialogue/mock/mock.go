// Package mock provides test doubles for the dialogue collaborator
// interfaces.
//
// Each mock records its calls in order and returns configurable canned
// results, so tests can drive the dialogue controller through full voting
// scenarios without a live backend or speech output.
package mock

import (
	"context"
	"sync"

	"github.com/deshkavote/voicebridge/internal/dialogue"
)

// FetchCandidatesCall records a single invocation of Backend.FetchCandidates.
type FetchCandidatesCall struct {
	ElectionID string
}

// CastVoteCall records a single invocation of Backend.CastVote.
type CastVoteCall struct {
	ElectionID  string
	CandidateID string
}

// Backend is a mock implementation of dialogue.Backend.
type Backend struct {
	mu sync.Mutex

	// Candidates is returned by FetchCandidates when FetchErr is nil.
	Candidates []dialogue.Candidate

	// FetchErr, if non-nil, is returned by every FetchCandidates call.
	FetchErr error

	// CastMessage is the message returned by CastVote.
	CastMessage string

	// CastErr, if non-nil, is returned by every CastVote call.
	CastErr error

	// FetchCandidatesCalls records every call to FetchCandidates in order.
	FetchCandidatesCalls []FetchCandidatesCall

	// CastVoteCalls records every call to CastVote in order.
	CastVoteCalls []CastVoteCall
}

// FetchCandidates records the call and returns Candidates, FetchErr.
func (b *Backend) FetchCandidates(_ context.Context, electionID string) ([]dialogue.Candidate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.FetchCandidatesCalls = append(b.FetchCandidatesCalls, FetchCandidatesCall{ElectionID: electionID})
	if b.FetchErr != nil {
		return nil, b.FetchErr
	}
	return b.Candidates, nil
}

// CastVote records the call and returns CastMessage, CastErr.
func (b *Backend) CastVote(_ context.Context, electionID, candidateID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CastVoteCalls = append(b.CastVoteCalls, CastVoteCall{ElectionID: electionID, CandidateID: candidateID})
	return b.CastMessage, b.CastErr
}

// Ensure Backend implements dialogue.Backend at compile time.
var _ dialogue.Backend = (*Backend)(nil)

// Announcer is a mock implementation of dialogue.Announcer that records every
// announced text in order.
type Announcer struct {
	mu sync.Mutex

	// Announcements holds every text passed to Announce, in order.
	Announcements []string
}

// Announce records text.
func (a *Announcer) Announce(_ context.Context, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Announcements = append(a.Announcements, text)
}

// Last returns the most recent announcement, or "" when none were made.
func (a *Announcer) Last() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.Announcements) == 0 {
		return ""
	}
	return a.Announcements[len(a.Announcements)-1]
}

// Ensure Announcer implements dialogue.Announcer at compile time.
var _ dialogue.Announcer = (*Announcer)(nil)

// Navigator is a mock implementation of dialogue.Navigator that records every
// navigation target in order.
type Navigator struct {
	mu sync.Mutex

	// Targets holds every target passed to Navigate, in order.
	Targets []dialogue.NavTarget
}

// Navigate records target.
func (n *Navigator) Navigate(_ context.Context, target dialogue.NavTarget) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Targets = append(n.Targets, target)
}

// Ensure Navigator implements dialogue.Navigator at compile time.
var _ dialogue.Navigator = (*Navigator)(nil)
