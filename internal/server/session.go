package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/deshkavote/voicebridge/internal/audit"
	"github.com/deshkavote/voicebridge/internal/dialogue"
	"github.com/deshkavote/voicebridge/internal/entity"
	"github.com/deshkavote/voicebridge/internal/observe"
)

// writeTimeout bounds each outbound frame write. A client that stops reading
// loses its session rather than blocking the dialogue turn.
const writeTimeout = 5 * time.Second

// session owns one WebSocket connection and its dialogue controller. It is
// the controller's [dialogue.Announcer] and [dialogue.Navigator]: both write
// frames back over the same connection.
type session struct {
	id       string
	conn     *websocket.Conn
	recorder audit.Recorder
	metrics  *observe.Metrics
	logger   *slog.Logger

	// set right after construction; the controller needs the session as its
	// announcer and navigator.
	ctrl *dialogue.Controller

	// writeMu serialises frame writes: announcements during a dialogue turn
	// and the trailing state frame must not interleave.
	writeMu sync.Mutex
}

var (
	_ dialogue.Announcer = (*session)(nil)
	_ dialogue.Navigator = (*session)(nil)
)

// run processes client frames until the connection drops or ctx is cancelled.
func (s *session) run(ctx context.Context) {
	for {
		var f inboundFrame
		if err := wsjson.Read(ctx, s.conn, &f); err != nil {
			status := websocket.CloseStatus(err)
			if status == -1 && ctx.Err() == nil {
				s.logger.Debug("session read failed", "err", err)
			}
			return
		}

		switch f.Type {
		case frameUtterance:
			s.handleUtterance(ctx, f)
		case frameElections:
			s.handleElections(f)
		case frameReset:
			s.ctrl.Reset()
			s.writeFrame(ctx, outboundFrame{Type: frameState, State: string(dialogue.StateIdle)})
		default:
			s.writeFrame(ctx, outboundFrame{Type: frameError, Text: "unknown frame type: " + f.Type})
		}
	}
}

// handleUtterance runs one dialogue turn and reports the committed state back
// to the client. Announcements are written by the controller mid-turn via
// [session.Announce].
func (s *session) handleUtterance(ctx context.Context, f inboundFrame) {
	ctx, span := observe.StartSpan(ctx, "handle-utterance")
	defer span.End()
	span.SetAttributes(observe.Attr("session_id", s.id))

	start := time.Now()
	res, err := s.ctrl.OnUtterance(ctx, f.Transcript, f.Alternatives)
	if err != nil {
		s.logger.Error("utterance processing failed", "err", err)
		s.writeFrame(ctx, outboundFrame{Type: frameError, Text: "could not process that command"})
		return
	}
	if !res.Handled {
		// Dropped because the previous turn is still in flight.
		return
	}

	s.metrics.RecordUtterance(ctx, res.Action, time.Since(start))
	s.metrics.RecordIntentMatch(ctx, string(res.Intent), res.Confidence, res.Action != "rejected")
	switch res.Action {
	case "election_selected":
		s.metrics.RecordEntityResolution(ctx, "election", true)
	case "clarify_election":
		s.metrics.RecordEntityResolution(ctx, "election", false)
	case "candidate_selected":
		s.metrics.RecordEntityResolution(ctx, "candidate", true)
	case "clarify_candidate":
		s.metrics.RecordEntityResolution(ctx, "candidate", false)
	case "vote_cast":
		s.metrics.RecordVoteDispatched(ctx, "accepted")
	case "vote_failed":
		s.metrics.RecordVoteDispatched(ctx, "rejected")
	}

	s.writeFrame(ctx, outboundFrame{Type: frameState, State: string(res.State)})

	if err := s.recorder.Record(ctx, audit.Entry{
		SessionID:  s.id,
		Transcript: f.Transcript,
		Intent:     string(res.Intent),
		Confidence: res.Confidence,
		State:      string(res.State),
		Action:     res.Action,
	}); err != nil {
		s.logger.Warn("audit record failed", "err", err)
	}
}

// handleElections replaces the controller's available-elections list.
func (s *session) handleElections(f inboundFrame) {
	elections := make([]entity.Entity, len(f.Elections))
	for i, e := range f.Elections {
		elections[i] = entity.Entity{ID: e.ID, Name: e.Name}
	}
	s.ctrl.SetElections(elections)
	s.logger.Debug("elections updated", "count", len(elections))
}

// Announce implements [dialogue.Announcer] by sending an announce frame.
func (s *session) Announce(ctx context.Context, text string) {
	s.writeFrame(ctx, outboundFrame{Type: frameAnnounce, Text: text})
}

// Navigate implements [dialogue.Navigator] by sending a navigate frame.
func (s *session) Navigate(ctx context.Context, target dialogue.NavTarget) {
	s.writeFrame(ctx, outboundFrame{Type: frameNavigate, Target: string(target)})
}

func (s *session) writeFrame(ctx context.Context, f outboundFrame) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(wctx, s.conn, f); err != nil {
		s.logger.Debug("frame write failed", "type", f.Type, "err", err)
	}
}
