// Package app wires all VoiceBridge subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run blocks serving traffic until the context is cancelled, and
// Shutdown tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithBackend, WithRecorder). When an option is not provided, New creates
// real implementations from the config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deshkavote/voicebridge/internal/audit"
	"github.com/deshkavote/voicebridge/internal/backend"
	"github.com/deshkavote/voicebridge/internal/config"
	"github.com/deshkavote/voicebridge/internal/dialogue"
	"github.com/deshkavote/voicebridge/internal/entity"
	"github.com/deshkavote/voicebridge/internal/health"
	"github.com/deshkavote/voicebridge/internal/intent"
	"github.com/deshkavote/voicebridge/internal/phonetic"
	"github.com/deshkavote/voicebridge/internal/resilience"
	"github.com/deshkavote/voicebridge/internal/server"
)

// shutdownTimeout bounds the drain of in-flight requests during Run's exit.
const shutdownTimeout = 10 * time.Second

// App owns all subsystem lifetimes for the VoiceBridge server.
type App struct {
	cfg *config.Config
	srv *server.Server

	backend  dialogue.Backend
	recorder audit.Recorder
	level    *slog.LevelVar
	watcher  *config.Watcher

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithBackend injects a voting-backend client instead of building one from
// the config.
func WithBackend(b dialogue.Backend) Option {
	return func(a *App) { a.backend = b }
}

// WithRecorder injects an audit recorder instead of connecting to the
// configured PostgreSQL store.
func WithRecorder(r audit.Recorder) Option {
	return func(a *App) { a.recorder = r }
}

// WithLevelVar attaches the process log level so config reloads can adjust
// verbosity at runtime.
func WithLevelVar(level *slog.LevelVar) Option {
	return func(a *App) { a.level = level }
}

// New creates an App by wiring all subsystems together: the backend client,
// the audit store, the matching engines, and the HTTP server.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	checkers, err := a.initBackend()
	if err != nil {
		return nil, fmt.Errorf("app: init backend: %w", err)
	}

	dbCheckers, err := a.initAudit(ctx)
	if err != nil {
		return nil, fmt.Errorf("app: init audit: %w", err)
	}
	checkers = append(checkers, dbCheckers...)

	matchers := buildMatchers(cfg.Matching)

	srvOpts := []server.Option{
		server.WithRecorder(a.recorder),
		server.WithHealthCheckers(checkers...),
	}
	if matchers.Corrector != nil {
		srvOpts = append(srvOpts, server.WithCorrector(matchers.Corrector))
	}
	if cfg.Server.TLS != nil {
		srvOpts = append(srvOpts, server.WithTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile))
	}

	a.srv = server.New(cfg.Server.ListenAddr, a.backend, matchers.Classifier, matchers.Resolver, srvOpts...)
	return a, nil
}

// initBackend builds the voting-backend client unless one was injected.
func (a *App) initBackend() ([]health.Checker, error) {
	if a.backend != nil {
		return nil, nil
	}

	bc := a.cfg.Backend
	client, err := backend.New(bc.BaseURL,
		backend.WithTimeout(bc.Timeout.Std()),
		backend.WithSession(bc.SessionCookie, bc.CSRFToken),
	)
	if err != nil {
		return nil, err
	}
	a.backend = resilience.NewGuardedBackend(client, resilience.CircuitBreakerConfig{})

	return []health.Checker{{Name: "backend", Check: client.Ping}}, nil
}

// initAudit connects the PostgreSQL audit store, or falls back to the no-op
// recorder when no DSN is configured.
func (a *App) initAudit(ctx context.Context) ([]health.Checker, error) {
	if a.recorder != nil {
		return nil, nil
	}

	dsn := a.cfg.Audit.PostgresDSN
	if dsn == "" {
		if path := a.cfg.Audit.LogFile; path != "" {
			a.recorder = audit.NewFileRecorder(path)
		} else {
			a.recorder = audit.NopRecorder{}
		}
		return nil, nil
	}

	store, closeStore, err := audit.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	a.recorder = store
	a.closers = append(a.closers, func() error {
		closeStore()
		return nil
	})

	return []health.Checker{{Name: "database", Check: store.Ping}}, nil
}

// buildMatchers constructs the matching engines from the config overrides.
func buildMatchers(m config.MatchingConfig) server.Matchers {
	matchers := server.Matchers{
		Classifier: intent.New(intent.DefaultCatalog(), m.IntentOptions()...),
		Resolver:   entity.New(m.EntityOptions()...),
	}
	if m.Phonetic.Enabled {
		matchers.Corrector = phonetic.NewCorrector(phonetic.New(m.PhoneticOptions()...))
	}
	return matchers
}

// WatchConfig starts hot-reloading the config file at path. Threshold and
// log-level changes apply to the running server; anything else is logged as
// needing a restart. Call before Run.
func (a *App) WatchConfig(path string, opts ...config.WatcherOption) error {
	w, err := config.NewWatcher(path, a.onConfigChange, opts...)
	if err != nil {
		return fmt.Errorf("app: watch config: %w", err)
	}
	a.watcher = w
	return nil
}

// onConfigChange applies hot-reloadable changes from a rewritten config file.
func (a *App) onConfigChange(old, new *config.Config) {
	d := config.Diff(old, new)
	if !d.Changed() {
		return
	}

	if d.LogLevelChanged {
		if a.level != nil {
			a.level.Set(d.NewLogLevel.SlogLevel())
			slog.Info("log level updated", "level", d.NewLogLevel)
		} else {
			slog.Warn("log level changed in config but no level var is attached")
		}
	}

	if d.MatchingChanged {
		a.srv.UpdateMatchers(buildMatchers(new.Matching))
		slog.Info("matching configuration updated; applies to new sessions")
	}

	if d.RestartRequired {
		slog.Warn("server, backend, or audit configuration changed; restart to apply")
	}
}

// Run serves traffic and blocks until ctx is cancelled or the listener fails.
// On cancellation it drains in-flight requests for up to shutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server listening", "addr", a.cfg.Server.ListenAddr, "tls", a.cfg.Server.TLS != nil)
		return a.srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.srv.Shutdown(drainCtx)
	})

	return g.Wait()
}

// Shutdown tears down all subsystems in order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if a.watcher != nil {
			a.watcher.Stop()
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
