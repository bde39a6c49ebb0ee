package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deshkavote/voicebridge/internal/app"
	"github.com/deshkavote/voicebridge/internal/audit"
	"github.com/deshkavote/voicebridge/internal/config"
	"github.com/deshkavote/voicebridge/internal/dialogue/mock"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			ListenAddr: "127.0.0.1:0",
			LogLevel:   config.LogInfo,
		},
		Backend: config.BackendConfig{
			BaseURL: "http://127.0.0.1:8000",
			Timeout: config.Duration(2 * time.Second),
		},
	}
}

func TestNew_WithInjectedCollaborators(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), testConfig(),
		app.WithBackend(&mock.Backend{}),
		app.WithRecorder(audit.NopRecorder{}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == nil {
		t.Fatal("New returned nil app")
	}
}

func TestNew_InvalidBackendURL(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Backend.BaseURL = "not-a-url"

	if _, err := app.New(context.Background(), cfg); err == nil {
		t.Fatal("expected error for invalid backend URL, got nil")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), testConfig(),
		app.WithBackend(&mock.Backend{}),
		app.WithRecorder(audit.NopRecorder{}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	// Give the listener a moment to come up, then stop.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want nil or context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		t.Errorf("Shutdown returned %v, want nil", err)
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), testConfig(),
		app.WithBackend(&mock.Backend{}),
		app.WithRecorder(audit.NopRecorder{}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	if err := a.Shutdown(ctx); err != nil {
		t.Errorf("first Shutdown returned %v", err)
	}
	if err := a.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown returned %v", err)
	}
}
