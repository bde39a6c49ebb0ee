package server

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/deshkavote/voicebridge/internal/dialogue"
	"github.com/deshkavote/voicebridge/internal/observe"
)

// handleVoice upgrades the request to a WebSocket and runs a voice session on
// it. Each connection gets a fresh dialogue controller, so concurrent voters
// never share selection state.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		slog.Warn("websocket accept failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	ctx := r.Context()
	sessionID := uuid.NewString()
	logger := observe.Logger(ctx).With("session_id", sessionID)

	sess := &session{
		id:       sessionID,
		conn:     conn,
		recorder: s.recorder,
		metrics:  s.metrics,
		logger:   logger,
	}

	m := s.matchers.Load()
	var opts []dialogue.Option
	if m.Corrector != nil {
		opts = append(opts, dialogue.WithCorrector(m.Corrector))
	}
	sess.ctrl = dialogue.NewController(m.Classifier, m.Resolver, s.backend, sess, sess, opts...)

	s.metrics.ActiveSessions.Add(ctx, 1)
	logger.Info("voice session opened", "remote", r.RemoteAddr)

	sess.run(ctx)

	s.metrics.ActiveSessions.Add(ctx, -1)
	logger.Info("voice session closed")
	conn.Close(websocket.StatusNormalClosure, "session ended")
}
