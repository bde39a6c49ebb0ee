// Package audit persists a trail of processed voice commands. Every utterance
// that reaches the dialogue controller produces one [Entry]; the trail backs
// operator review of contested voting sessions.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one processed voice command.
type Entry struct {
	// ID is assigned by the recorder when empty.
	ID string

	// SessionID identifies the voice session the command belongs to.
	SessionID string

	// Transcript is the recognized utterance (after correction, if any).
	Transcript string

	// Intent is the matched intent identifier, empty when the command was
	// rejected.
	Intent string

	// Confidence is the classifier confidence for the winning intent.
	Confidence float64

	// State is the dialogue state after processing.
	State string

	// Action is the dialogue outcome tag, e.g. "vote_cast".
	Action string

	// CreatedAt is assigned by the recorder when zero.
	CreatedAt time.Time
}

// Recorder persists audit entries. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// Record persists one entry. Implementations fill in Entry.ID and
	// Entry.CreatedAt when unset.
	Record(ctx context.Context, e Entry) error
}

// NopRecorder discards all entries. Used when no audit database is
// configured.
type NopRecorder struct{}

// Record does nothing.
func (NopRecorder) Record(context.Context, Entry) error { return nil }

var _ Recorder = NopRecorder{}

// fill assigns the generated fields of an entry.
func fill(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return e
}
