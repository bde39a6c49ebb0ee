package resilience

import (
	"context"

	"github.com/deshkavote/voicebridge/internal/dialogue"
)

// GuardedBackend wraps a [dialogue.Backend] with a [CircuitBreaker]. While
// the breaker is open, calls fail immediately with [ErrCircuitOpen]; the
// dialogue controller announces the failure and leaves its state unchanged,
// so the voter can simply retry later.
//
// A vote the backend explicitly rejects (duplicate vote, closed election)
// comes back with a message and does not count as a backend failure: the
// backend answered, it just said no.
type GuardedBackend struct {
	inner   dialogue.Backend
	breaker *CircuitBreaker
}

var _ dialogue.Backend = (*GuardedBackend)(nil)

// NewGuardedBackend wraps inner with a breaker built from cfg.
func NewGuardedBackend(inner dialogue.Backend, cfg CircuitBreakerConfig) *GuardedBackend {
	if cfg.Name == "" {
		cfg.Name = "voting-backend"
	}
	return &GuardedBackend{
		inner:   inner,
		breaker: NewCircuitBreaker(cfg),
	}
}

// FetchCandidates forwards to the inner backend through the breaker.
func (g *GuardedBackend) FetchCandidates(ctx context.Context, electionID string) ([]dialogue.Candidate, error) {
	var candidates []dialogue.Candidate
	err := g.breaker.Execute(func() error {
		var err error
		candidates, err = g.inner.FetchCandidates(ctx, electionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// CastVote forwards to the inner backend through the breaker. Structured
// rejections (a non-empty message alongside the error) are passed through
// without tripping the breaker.
func (g *GuardedBackend) CastVote(ctx context.Context, electionID, candidateID string) (string, error) {
	var message string
	var callErr error
	breakerErr := g.breaker.Execute(func() error {
		message, callErr = g.inner.CastVote(ctx, electionID, candidateID)
		if callErr != nil && message != "" {
			return nil
		}
		return callErr
	})
	if breakerErr != nil && callErr == nil {
		// Rejected by the open breaker before the call was made.
		return "", breakerErr
	}
	return message, callErr
}

// State exposes the breaker state for readiness reporting.
func (g *GuardedBackend) State() State {
	return g.breaker.State()
}
