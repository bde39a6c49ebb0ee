// Package dialogue implements the voice-voting dialogue controller: a small
// state machine that sequences utterance → intent classification →
// (conditionally) entity resolution → action dispatch → state transition.
//
// The controller is pure glue between the matching engines and its external
// collaborators ([Backend], [Announcer], [Navigator]); it performs no I/O of
// its own beyond calling them. One controller instance serves one voting
// session and processes one utterance at a time: utterances arriving while a
// collaborator call is still in flight are dropped (logged at debug level,
// no announcement), so interleaved state transitions cannot occur.
package dialogue

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/deshkavote/voicebridge/internal/entity"
	"github.com/deshkavote/voicebridge/internal/intent"
)

// State is the controller's current stage within a multi-turn voting
// interaction.
type State string

const (
	// StateIdle means no election has been opened.
	StateIdle State = "idle"

	// StateCandidateSelection means an election has been opened and its
	// candidate roster is loaded; a selected election is set and no
	// candidate is selected yet.
	StateCandidateSelection State = "candidate_selection"

	// StateConfirmPending means a candidate has been tentatively selected;
	// both a selected election and a selected candidate are set and the
	// controller is awaiting explicit confirmation or cancellation.
	StateConfirmPending State = "confirm_pending"
)

// Result summarises one processed utterance for callers that audit or display
// dialogue turns. It never carries user-facing text — announcements go
// through the [Announcer].
type Result struct {
	// Handled is false when the utterance was dropped because a previous
	// one was still being processed.
	Handled bool

	// Intent and Confidence describe the winning classification. Intent is
	// empty when classification fell below the threshold for all
	// alternatives.
	Intent     intent.ID
	Confidence float64

	// Input is the transcript (or alternative) that produced the winning
	// classification.
	Input string

	// Action is a short machine-readable outcome tag, e.g. "vote_cast" or
	// "clarify_candidate".
	Action string

	// State is the dialogue state after the utterance was processed.
	State State
}

// Option is a functional option for configuring a [Controller].
type Option func(*Controller)

// WithCorrector attaches a transcript pre-correction stage. Before
// classification, every transcript is passed through the corrector together
// with the currently known election and candidate names.
func WithCorrector(c Corrector) Option {
	return func(ctrl *Controller) { ctrl.corrector = c }
}

// Controller is the dialogue state machine. Construct one per voting session
// with [NewController]; it is safe for concurrent use, but concurrent
// utterances are not queued — see the package documentation.
type Controller struct {
	classifier *intent.Classifier
	resolver   *entity.Resolver
	backend    Backend
	announcer  Announcer
	navigator  Navigator
	corrector  Corrector

	mu                sync.Mutex
	busy              bool
	state             State
	elections         []entity.Entity
	candidates        []entity.Entity
	selectedElection  entity.Entity
	selectedCandidate entity.Entity
}

// NewController wires a controller from its matching engines and
// collaborators. The elections list starts empty; the owner supplies it via
// [Controller.SetElections] whenever the available election set changes.
func NewController(
	classifier *intent.Classifier,
	resolver *entity.Resolver,
	backend Backend,
	announcer Announcer,
	navigator Navigator,
	opts ...Option,
) *Controller {
	c := &Controller{
		classifier: classifier,
		resolver:   resolver,
		backend:    backend,
		announcer:  announcer,
		navigator:  navigator,
		state:      StateIdle,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetElections replaces the available-elections list. The controller never
// fetches this itself; the owner pushes a fresh list whenever the voting UI's
// election set changes.
func (c *Controller) SetElections(elections []entity.Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elections = elections
}

// State returns the current dialogue state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset clears all selection state and returns the controller to
// [StateIdle]. Call it when the voting session ends (e.g. the voice modal is
// closed). The elections list is kept.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// reset must be called with c.mu held.
func (c *Controller) reset() {
	c.state = StateIdle
	c.candidates = nil
	c.selectedElection = entity.Entity{}
	c.selectedCandidate = entity.Entity{}
}

// OnUtterance is the sole entry point, invoked by the transport layer with
// the primary transcript and the recognizer's alternative transcriptions.
// It classifies the utterance, runs entity resolution when the intent calls
// for it, dispatches the corresponding action, and commits the state
// transition — all before returning. Collaborator failures are announced and
// leave the state unchanged.
//
// A non-nil error is only returned for configuration problems (an empty
// intent catalog); every user-level failure is reported via the [Announcer]
// instead.
func (c *Controller) OnUtterance(ctx context.Context, transcript string, alternatives []string) (Result, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		slog.Debug("dialogue: utterance dropped, previous one still in flight", "text", transcript)
		return Result{Handled: false, State: c.State()}, nil
	}
	c.busy = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	transcript, alternatives = c.correct(transcript, alternatives)

	m, err := c.classifier.ClassifyBest(transcript, alternatives)
	if err != nil {
		if errors.Is(err, intent.ErrNoIntents) {
			c.announcer.Announce(ctx, textNotUnderstood)
		}
		return Result{}, err
	}

	if !c.classifier.Accepts(m) {
		slog.Debug("dialogue: intent rejected", "text", transcript, "best_intent", m.Intent, "confidence", m.Confidence)
		c.announcer.Announce(ctx, textNotUnderstood)
		return Result{Handled: true, Confidence: m.Confidence, Input: m.Input, Action: "rejected", State: c.State()}, nil
	}

	slog.Info("dialogue: intent matched", "intent", m.Intent, "confidence", m.Confidence, "text", m.Input)

	action := c.dispatch(ctx, m)
	return Result{
		Handled:    true,
		Intent:     m.Intent,
		Confidence: m.Confidence,
		Input:      m.Input,
		Action:     action,
		State:      c.State(),
	}, nil
}

// correct applies the optional pre-correction stage to the transcript and all
// alternatives, using the currently known entity names.
func (c *Controller) correct(transcript string, alternatives []string) (string, []string) {
	if c.corrector == nil {
		return transcript, alternatives
	}

	c.mu.Lock()
	names := make([]string, 0, len(c.elections)+len(c.candidates))
	for _, e := range c.elections {
		names = append(names, e.Name)
	}
	for _, e := range c.candidates {
		names = append(names, e.Name)
	}
	c.mu.Unlock()

	corrected := c.corrector.Correct(transcript, names)
	correctedAlts := make([]string, len(alternatives))
	for i, alt := range alternatives {
		correctedAlts[i] = c.corrector.Correct(alt, names)
	}
	return corrected, correctedAlts
}

// dispatch routes an accepted intent match to its handler and returns the
// action tag for the caller's audit trail.
func (c *Controller) dispatch(ctx context.Context, m intent.Match) string {
	switch m.Intent {
	case intent.Help:
		c.announcer.Announce(ctx, textHelp)
		return "help"
	case intent.ShowElections:
		return c.handleShowElections(ctx)
	case intent.VoteInElection:
		return c.handleVoteInElection(ctx, m.Input)
	case intent.ListCandidates:
		return c.handleListCandidates(ctx)
	case intent.VoteForCandidate:
		return c.handleVoteForCandidate(ctx, m.Input)
	case intent.ConfirmVote:
		return c.handleConfirmVote(ctx)
	case intent.Cancel:
		return c.handleCancel(ctx)
	case intent.NavigateProfile:
		c.announcer.Announce(ctx, textNavigateProfile)
		c.navigator.Navigate(ctx, NavProfile)
		return "navigate_profile"
	case intent.NavigateResults:
		c.announcer.Announce(ctx, textNavigateResults)
		c.navigator.Navigate(ctx, NavResults)
		return "navigate_results"
	default:
		c.announcer.Announce(ctx, textNotUnderstood)
		return "rejected"
	}
}

func (c *Controller) handleShowElections(ctx context.Context) string {
	c.mu.Lock()
	elections := c.elections
	c.mu.Unlock()

	if len(elections) == 0 {
		c.announcer.Announce(ctx, textNoElections)
		return "no_elections"
	}
	c.announcer.Announce(ctx, textShowElections(elections))
	return "list_elections"
}

func (c *Controller) handleVoteInElection(ctx context.Context, utterance string) string {
	c.mu.Lock()
	elections := c.elections
	c.mu.Unlock()

	if len(elections) == 0 {
		c.announcer.Announce(ctx, textNoElections)
		return "no_elections"
	}

	m, err := c.resolver.Resolve(utterance, elections)
	if err != nil {
		// Unreachable with a non-empty list; report like an empty one.
		c.announcer.Announce(ctx, textNoElections)
		return "no_elections"
	}
	if !c.resolver.Accepts(m) {
		c.announcer.Announce(ctx, textClarifyElection(elections))
		return "clarify_election"
	}

	election := m.Entity
	c.announcer.Announce(ctx, textOpeningElection(election.Name))

	candidates, err := c.backend.FetchCandidates(ctx, election.ID)
	if err != nil || len(candidates) == 0 {
		if err != nil {
			slog.Warn("dialogue: candidate fetch failed", "election_id", election.ID, "err", err)
		}
		c.announcer.Announce(ctx, textCandidatesLoadFailed)
		return "candidates_failed"
	}

	roster := make([]entity.Entity, len(candidates))
	for i, cand := range candidates {
		roster[i] = entity.Entity{ID: cand.ID, Name: cand.Name, Label: cand.Party}
	}

	c.mu.Lock()
	c.selectedElection = election
	c.selectedCandidate = entity.Entity{}
	c.candidates = roster
	c.state = StateCandidateSelection
	c.mu.Unlock()

	c.announcer.Announce(ctx, textCandidateRoster(roster))
	return "election_selected"
}

func (c *Controller) handleListCandidates(ctx context.Context) string {
	c.mu.Lock()
	election := c.selectedElection
	candidates := c.candidates
	c.mu.Unlock()

	if election.ID == "" {
		c.announcer.Announce(ctx, textNoElectionSelected)
		return "no_election_selected"
	}
	if len(candidates) == 0 {
		c.announcer.Announce(ctx, textNoCandidatesFound)
		return "no_candidates"
	}
	c.announcer.Announce(ctx, textListCandidates(election.Name, candidates))
	return "list_candidates"
}

func (c *Controller) handleVoteForCandidate(ctx context.Context, utterance string) string {
	c.mu.Lock()
	candidates := c.candidates
	c.mu.Unlock()

	if len(candidates) == 0 {
		c.announcer.Announce(ctx, textNoCandidatesLoaded)
		return "no_candidates"
	}

	m, err := c.resolver.Resolve(utterance, candidates)
	if err != nil {
		c.announcer.Announce(ctx, textNoCandidatesLoaded)
		return "no_candidates"
	}
	if !c.resolver.Accepts(m) {
		c.announcer.Announce(ctx, textClarifyCandidate(candidates))
		return "clarify_candidate"
	}

	c.mu.Lock()
	c.selectedCandidate = m.Entity
	c.state = StateConfirmPending
	c.mu.Unlock()

	c.announcer.Announce(ctx, textCandidateSelected(m.Entity))
	return "candidate_selected"
}

func (c *Controller) handleConfirmVote(ctx context.Context) string {
	c.mu.Lock()
	if c.state != StateConfirmPending {
		c.mu.Unlock()
		c.announcer.Announce(ctx, textNothingToConfirm)
		return "nothing_to_confirm"
	}
	// StateConfirmPending guarantees both selections are set: the only
	// transition into it sets the candidate, and its only predecessor
	// (StateCandidateSelection) sets the election.
	election := c.selectedElection
	candidate := c.selectedCandidate
	c.mu.Unlock()

	c.announcer.Announce(ctx, textCastingVote(candidate.Name))

	message, err := c.backend.CastVote(ctx, election.ID, candidate.ID)
	if err != nil {
		slog.Warn("dialogue: vote cast failed",
			"election_id", election.ID,
			"candidate_id", candidate.ID,
			"err", err,
		)
		if message != "" {
			c.announcer.Announce(ctx, "Error: "+message)
		} else {
			c.announcer.Announce(ctx, textVoteCastFailed)
		}
		return "vote_failed"
	}

	c.mu.Lock()
	c.reset()
	c.mu.Unlock()

	c.announcer.Announce(ctx, textVoteCastSuccess(candidate.Name))
	return "vote_cast"
}

func (c *Controller) handleCancel(ctx context.Context) string {
	c.mu.Lock()
	if c.state == StateConfirmPending {
		c.selectedCandidate = entity.Entity{}
		c.state = StateCandidateSelection
		c.mu.Unlock()
		c.announcer.Announce(ctx, textVoteCancelled)
		return "cancelled_selection"
	}
	c.reset()
	c.mu.Unlock()
	c.announcer.Announce(ctx, textCancelled)
	return "cancelled"
}
