package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/deshkavote/voicebridge/internal/audit"
	"github.com/deshkavote/voicebridge/internal/dialogue"
	"github.com/deshkavote/voicebridge/internal/dialogue/mock"
	"github.com/deshkavote/voicebridge/internal/entity"
	"github.com/deshkavote/voicebridge/internal/intent"
	"github.com/deshkavote/voicebridge/internal/observe"
	"github.com/deshkavote/voicebridge/internal/server"
)

// frame mirrors the wire format for both directions; unused fields stay empty.
type frame struct {
	Type         string         `json:"type"`
	Text         string         `json:"text,omitempty"`
	Target       string         `json:"target,omitempty"`
	State        string         `json:"state,omitempty"`
	Transcript   string         `json:"transcript,omitempty"`
	Alternatives []string       `json:"alternatives,omitempty"`
	Elections    []electionItem `json:"elections,omitempty"`
}

type electionItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// captureRecorder collects audit entries under a mutex.
type captureRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *captureRecorder) Record(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *captureRecorder) all() []audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Entry(nil), r.entries...)
}

func newTestServer(t *testing.T, backend dialogue.Backend, opts ...server.Option) *httptest.Server {
	t.Helper()
	s := server.New(
		":0",
		backend,
		intent.New(intent.DefaultCatalog()),
		entity.New(),
		opts...,
	)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dialVoice(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/voice"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func writeFrame(t *testing.T, conn *websocket.Conn, f frame) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, conn, f); err != nil {
		t.Fatalf("write frame %+v: %v", f, err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var f frame
	if err := wsjson.Read(ctx, conn, &f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func testElectionsFrame() frame {
	return frame{
		Type: "elections",
		Elections: []electionItem{
			{ID: "e1", Name: "mumbai municipal election"},
			{ID: "e2", Name: "delhi assembly election"},
		},
	}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &mock.Backend{})

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: status %d, want %d", path, resp.StatusCode, http.StatusOK)
		}
	}
}

func TestVoiceSession_ShowElections(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &mock.Backend{})
	conn := dialVoice(t, ts)

	writeFrame(t, conn, testElectionsFrame())
	writeFrame(t, conn, frame{Type: "utterance", Transcript: "show elections"})

	announce := readFrame(t, conn)
	if announce.Type != "announce" {
		t.Fatalf("frame type = %q, want announce", announce.Type)
	}
	if !strings.Contains(announce.Text, "mumbai municipal election") {
		t.Errorf("announcement should enumerate elections, got %q", announce.Text)
	}

	state := readFrame(t, conn)
	if state.Type != "state" || state.State != "idle" {
		t.Errorf("state frame = %+v, want state=idle", state)
	}
}

func TestVoiceSession_FullVoteFlow(t *testing.T) {
	t.Parallel()

	backend := &mock.Backend{
		Candidates: []dialogue.Candidate{
			{ID: "c1", Name: "asha patil", Party: "national unity party"},
			{ID: "c2", Name: "ravi kumar", Party: "progress alliance"},
		},
		CastMessage: "Vote cast successfully!",
	}
	ts := newTestServer(t, backend)
	conn := dialVoice(t, ts)

	writeFrame(t, conn, testElectionsFrame())

	// Open the election: opening announcement, roster announcement, state.
	writeFrame(t, conn, frame{Type: "utterance", Transcript: "vote in mumbai municipal election"})
	readFrame(t, conn)
	roster := readFrame(t, conn)
	if !strings.Contains(roster.Text, "asha patil") {
		t.Errorf("roster announcement should list candidates, got %q", roster.Text)
	}
	state := readFrame(t, conn)
	if state.State != "candidate_selection" {
		t.Fatalf("state after opening election = %q, want candidate_selection", state.State)
	}

	// Select a candidate.
	writeFrame(t, conn, frame{Type: "utterance", Transcript: "pick asha patil"})
	readFrame(t, conn)
	state = readFrame(t, conn)
	if state.State != "confirm_pending" {
		t.Fatalf("state after selection = %q, want confirm_pending", state.State)
	}

	// Confirm: casting announcement, success announcement, state.
	writeFrame(t, conn, frame{Type: "utterance", Transcript: "confirm vote"})
	readFrame(t, conn)
	success := readFrame(t, conn)
	if !strings.Contains(success.Text, "successfully") {
		t.Errorf("success announcement = %q, want it to mention success", success.Text)
	}
	state = readFrame(t, conn)
	if state.State != "idle" {
		t.Errorf("state after vote = %q, want idle", state.State)
	}

	calls := backend.CastVoteCalls
	if len(calls) != 1 || calls[0].ElectionID != "e1" || calls[0].CandidateID != "c1" {
		t.Errorf("CastVote calls = %+v, want one call for e1/c1", calls)
	}
}

func TestVoiceSession_NavigateFrame(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &mock.Backend{})
	conn := dialVoice(t, ts)

	writeFrame(t, conn, frame{Type: "utterance", Transcript: "go to results"})

	announce := readFrame(t, conn)
	if announce.Type != "announce" {
		t.Fatalf("first frame type = %q, want announce", announce.Type)
	}
	nav := readFrame(t, conn)
	if nav.Type != "navigate" || nav.Target != "results" {
		t.Errorf("navigate frame = %+v, want target=results", nav)
	}
	state := readFrame(t, conn)
	if state.Type != "state" {
		t.Errorf("final frame type = %q, want state", state.Type)
	}
}

func TestVoiceSession_ResetFrame(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &mock.Backend{})
	conn := dialVoice(t, ts)

	writeFrame(t, conn, frame{Type: "reset"})

	state := readFrame(t, conn)
	if state.Type != "state" || state.State != "idle" {
		t.Errorf("reset reply = %+v, want state=idle", state)
	}
}

func TestVoiceSession_UnknownFrameType(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &mock.Backend{})
	conn := dialVoice(t, ts)

	writeFrame(t, conn, frame{Type: "wibble"})

	errFrame := readFrame(t, conn)
	if errFrame.Type != "error" {
		t.Fatalf("frame type = %q, want error", errFrame.Type)
	}
	if !strings.Contains(errFrame.Text, "unknown frame type") {
		t.Errorf("error text = %q, want it to name the unknown type", errFrame.Text)
	}
}

func TestVoiceSession_RecordsAuditEntries(t *testing.T) {
	t.Parallel()

	rec := &captureRecorder{}
	ts := newTestServer(t, &mock.Backend{}, server.WithRecorder(rec))
	conn := dialVoice(t, ts)

	writeFrame(t, conn, testElectionsFrame())
	writeFrame(t, conn, frame{Type: "utterance", Transcript: "show elections"})
	readFrame(t, conn) // announce
	readFrame(t, conn) // state

	// A reset round-trip guarantees the previous turn fully finished.
	writeFrame(t, conn, frame{Type: "reset"})
	readFrame(t, conn)

	entries := rec.all()
	if len(entries) != 1 {
		t.Fatalf("recorded entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.SessionID == "" {
		t.Error("entry has empty session ID")
	}
	if e.Transcript != "show elections" {
		t.Errorf("entry transcript = %q, want %q", e.Transcript, "show elections")
	}
	if e.Action != "list_elections" {
		t.Errorf("entry action = %q, want list_elections", e.Action)
	}
	if e.State != "idle" {
		t.Errorf("entry state = %q, want idle", e.State)
	}
}

func TestVoiceSession_SeparateConnectionsDoNotShareState(t *testing.T) {
	t.Parallel()

	backend := &mock.Backend{
		Candidates: []dialogue.Candidate{
			{ID: "c1", Name: "asha patil", Party: "national unity party"},
		},
	}
	ts := newTestServer(t, backend)

	first := dialVoice(t, ts)
	writeFrame(t, first, testElectionsFrame())
	writeFrame(t, first, frame{Type: "utterance", Transcript: "vote in mumbai municipal election"})
	readFrame(t, first)
	readFrame(t, first)
	if state := readFrame(t, first); state.State != "candidate_selection" {
		t.Fatalf("first session state = %q, want candidate_selection", state.State)
	}

	// A second connection starts idle with no elections.
	second := dialVoice(t, ts)
	writeFrame(t, second, frame{Type: "utterance", Transcript: "show elections"})
	announce := readFrame(t, second)
	if !strings.Contains(announce.Text, "no active elections") {
		t.Errorf("second session should have no elections, got %q", announce.Text)
	}
	if state := readFrame(t, second); state.State != "idle" {
		t.Errorf("second session state = %q, want idle", state.State)
	}
}

func TestVoiceSession_RecordsEntityResolutionMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	backend := &mock.Backend{
		Candidates: []dialogue.Candidate{
			{ID: "c1", Name: "asha patil", Party: "national unity party"},
		},
	}
	ts := newTestServer(t, backend, server.WithMetrics(m))
	conn := dialVoice(t, ts)

	writeFrame(t, conn, testElectionsFrame())

	// Resolve the election: opening + roster announcements, then state.
	writeFrame(t, conn, frame{Type: "utterance", Transcript: "vote in mumbai municipal election"})
	readFrame(t, conn)
	readFrame(t, conn)
	readFrame(t, conn)

	// Resolve the candidate: confirm prompt, then state.
	writeFrame(t, conn, frame{Type: "utterance", Transcript: "pick asha patil"})
	readFrame(t, conn)
	readFrame(t, conn)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var met *metricdata.Metrics
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == "voicebridge.entity.resolutions" {
				met = &sm.Metrics[i]
			}
		}
	}
	if met == nil {
		t.Fatal("voicebridge.entity.resolutions not recorded")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("data type = %T, want int64 sum", met.Data)
	}

	want := map[string]bool{"election": false, "candidate": false}
	for _, dp := range sum.DataPoints {
		var kind string
		resolved := false
		for _, kv := range dp.Attributes.ToSlice() {
			switch string(kv.Key) {
			case "kind":
				kind = kv.Value.AsString()
			case "resolved":
				resolved = kv.Value.AsBool()
			}
		}
		if _, known := want[kind]; known && resolved && dp.Value == 1 {
			want[kind] = true
		}
	}
	for kind, seen := range want {
		if !seen {
			t.Errorf("no successful %s resolution recorded", kind)
		}
	}
}
