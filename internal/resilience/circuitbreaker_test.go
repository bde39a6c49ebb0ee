package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBackendDown = errors.New("backend unreachable")

// trip drives the breaker to the open state with n consecutive failures.
func trip(t *testing.T, cb *CircuitBreaker, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_ = cb.Execute(func() error { return errBackendDown })
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v after %d failures, want open", cb.State(), n)
	}
}

func TestCircuitBreaker_DefaultsOpenAfterFiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "voting-backend"})
	if cb.State() != StateClosed {
		t.Fatalf("initial state = %v, want closed", cb.State())
	}
	for i := 0; i < 4; i++ {
		_ = cb.Execute(func() error { return errBackendDown })
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v after 4 failures, want still closed", cb.State())
	}
	_ = cb.Execute(func() error { return errBackendDown })
	if cb.State() != StateOpen {
		t.Fatalf("state = %v after 5 failures, want open", cb.State())
	}
}

func TestCircuitBreaker_ClosedPassesCallsThrough(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "voting-backend", MaxFailures: 3})

	calls := 0
	if err := cb.Execute(func() error { calls++; return nil }); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	err := cb.Execute(func() error { calls++; return errBackendDown })
	if !errors.Is(err, errBackendDown) {
		t.Fatalf("Execute err = %v, want the fn's error passed through", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestCircuitBreaker_OpenRejectsWithoutCalling(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "voting-backend",
		MaxFailures:  2,
		ResetTimeout: time.Hour,
	})
	trip(t, cb, 2)

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Execute err = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Fatal("fn was called while the breaker was open")
	}
}

func TestCircuitBreaker_SuccessClearsFailureStreak(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "voting-backend", MaxFailures: 3})

	_ = cb.Execute(func() error { return errBackendDown })
	_ = cb.Execute(func() error { return errBackendDown })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errBackendDown })
	_ = cb.Execute(func() error { return errBackendDown })

	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed; the streak never reached 3", cb.State())
	}
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "voting-backend",
		MaxFailures:  2,
		ResetTimeout: 10 * time.Millisecond,
		HalfOpenMax:  2,
	})
	trip(t, cb, 2)

	time.Sleep(15 * time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %v after reset timeout, want half-open", cb.State())
	}

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("probe %d: %v", i, err)
		}
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v after successful probes, want closed", cb.State())
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "voting-backend",
		MaxFailures:  2,
		ResetTimeout: 10 * time.Millisecond,
		HalfOpenMax:  3,
	})
	trip(t, cb, 2)

	time.Sleep(15 * time.Millisecond)
	if err := cb.Execute(func() error { return errBackendDown }); !errors.Is(err, errBackendDown) {
		t.Fatalf("probe err = %v, want the fn's error", err)
	}

	// Read the raw state: State() would report half-open again once the
	// reset timeout elapses relative to the fresh failure.
	cb.mu.Lock()
	got := cb.state
	cb.mu.Unlock()
	if got != StateOpen {
		t.Fatalf("state = %v after failed probe, want open", got)
	}
}

func TestCircuitBreaker_ManualReset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "voting-backend",
		MaxFailures:  2,
		ResetTimeout: time.Hour,
	})
	trip(t, cb, 2)

	cb.Reset()
	if cb.State() != StateClosed {
		t.Fatalf("state = %v after Reset, want closed", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("Execute after Reset: %v", err)
	}
}

func TestState_String(t *testing.T) {
	for want, s := range map[string]State{
		"closed":    StateClosed,
		"open":      StateOpen,
		"half-open": StateHalfOpen,
		"unknown":   State(42),
	} {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
