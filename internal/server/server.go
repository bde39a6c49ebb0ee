// Package server exposes the VoiceBridge operational surface over HTTP: the
// voice WebSocket, health probes, and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deshkavote/voicebridge/internal/audit"
	"github.com/deshkavote/voicebridge/internal/dialogue"
	"github.com/deshkavote/voicebridge/internal/entity"
	"github.com/deshkavote/voicebridge/internal/health"
	"github.com/deshkavote/voicebridge/internal/intent"
	"github.com/deshkavote/voicebridge/internal/observe"
)

// Server serves the voice WebSocket alongside health and metrics endpoints.
// Construct with [New]; the zero value is not usable.
type Server struct {
	addr     string
	backend  dialogue.Backend
	recorder audit.Recorder
	metrics  *observe.Metrics
	checkers []health.Checker
	origins  []string

	// matchers is swapped atomically on config reload; established sessions
	// keep the matchers they were built with.
	matchers atomic.Pointer[Matchers]

	tlsCertFile string
	tlsKeyFile  string

	httpSrv *http.Server
}

// Matchers bundles the matching engines a voice session is built on.
type Matchers struct {
	Classifier *intent.Classifier
	Resolver   *entity.Resolver
	Corrector  dialogue.Corrector
}

// Option is a functional option for configuring a [Server].
type Option func(*Server)

// WithRecorder sets the audit recorder for processed utterances. The default
// is [audit.NopRecorder].
func WithRecorder(r audit.Recorder) Option {
	return func(s *Server) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithCorrector attaches a transcript pre-correction stage to every session's
// dialogue controller.
func WithCorrector(c dialogue.Corrector) Option {
	return func(s *Server) {
		m := *s.matchers.Load()
		m.Corrector = c
		s.matchers.Store(&m)
	}
}

// WithMetrics overrides the metrics instance. The default is
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithHealthCheckers registers readiness checks served under /readyz.
func WithHealthCheckers(checkers ...health.Checker) Option {
	return func(s *Server) { s.checkers = append(s.checkers, checkers...) }
}

// WithAllowedOrigins sets the host patterns accepted for WebSocket upgrades,
// e.g. "vote.example.org". Without it only same-origin requests are accepted.
func WithAllowedOrigins(patterns ...string) Option {
	return func(s *Server) { s.origins = append(s.origins, patterns...) }
}

// WithTLS enables HTTPS using the given certificate and key files.
func WithTLS(certFile, keyFile string) Option {
	return func(s *Server) {
		s.tlsCertFile = certFile
		s.tlsKeyFile = keyFile
	}
}

// New creates a Server listening on addr. The classifier and resolver are
// shared across sessions (they are read-only after construction); each
// WebSocket connection gets its own dialogue controller on top of them.
func New(
	addr string,
	backend dialogue.Backend,
	classifier *intent.Classifier,
	resolver *entity.Resolver,
	opts ...Option,
) *Server {
	s := &Server{
		addr:     addr,
		backend:  backend,
		recorder: audit.NopRecorder{},
	}
	s.matchers.Store(&Matchers{Classifier: classifier, Resolver: resolver})
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP routing tree. Exposed for tests; production code
// should use [Server.Start].
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observe.Middleware(s.metrics))

	health.New(s.checkers...).Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/ws/voice", s.handleVoice)

	return r
}

// Start runs the HTTP server and blocks until [Server.Shutdown] is called or
// the listener fails.
func (s *Server) Start() error {
	var err error
	if s.tlsCertFile != "" {
		err = s.httpSrv.ListenAndServeTLS(s.tlsCertFile, s.tlsKeyFile)
	} else {
		err = s.httpSrv.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// UpdateMatchers replaces the matching engines used for new sessions, e.g.
// after a config reload changed thresholds. Sessions already in progress are
// unaffected. Nil fields in m fall back to the current values.
func (s *Server) UpdateMatchers(m Matchers) {
	cur := s.matchers.Load()
	if m.Classifier == nil {
		m.Classifier = cur.Classifier
	}
	if m.Resolver == nil {
		m.Resolver = cur.Resolver
	}
	s.matchers.Store(&m)
}

// Shutdown stops accepting new connections and waits for in-flight requests
// up to the context deadline. Open WebSocket sessions are closed by their
// request contexts being cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
