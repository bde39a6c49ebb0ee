package server

// Wire frames exchanged over /ws/voice. The client sends utterance,
// elections, and reset frames; the server replies with announce, navigate,
// state, and error frames. One client frame may produce several server
// frames: every announcement is written as it happens, followed by a single
// state frame once the dialogue turn is committed.

// Client → server frame types.
const (
	frameUtterance = "utterance"
	frameElections = "elections"
	frameReset     = "reset"
)

// Server → client frame types.
const (
	frameAnnounce = "announce"
	frameNavigate = "navigate"
	frameState    = "state"
	frameError    = "error"
)

// inboundFrame is the union of all client frame payloads; which fields are
// meaningful depends on Type.
type inboundFrame struct {
	Type string `json:"type"`

	// utterance
	Transcript   string   `json:"transcript,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`

	// elections
	Elections []electionPayload `json:"elections,omitempty"`
}

// electionPayload is one selectable election pushed by the client.
type electionPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// outboundFrame is the union of all server frame payloads.
type outboundFrame struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Target string `json:"target,omitempty"`
	State  string `json:"state,omitempty"`
}
