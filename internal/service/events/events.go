// Package events fans session changes out to live subscribers (SSE and
// WebSocket clients) over a watermill publisher/subscriber pair.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Type names a session event.
type Type string

const (
	MessageAppended Type = "message.appended"
	StateChanged    Type = "state.changed"
	TypingChanged   Type = "typing.changed"
	SurfaceChanged  Type = "surface.changed"
	SessionClosed   Type = "session.closed"
)

// Event is the envelope published for every session change.
type Event struct {
	Type      Type            `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// New encodes data into an event envelope.
func New(t Type, sessionID string, data any) (Event, error) {
	ev := Event{Type: t, SessionID: sessionID, Timestamp: time.Now().UTC()}
	if data == nil {
		return ev, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, errors.Wrapf(err, "encode %s event", t)
	}
	ev.Data = raw
	return ev, nil
}

// Publisher accepts session events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber streams the events of one session until ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context, sessionID string) (<-chan Event, error)
}

// Topic is the bus topic carrying one session's events.
func Topic(sessionID string) string {
	return "session." + sessionID
}

// StateData is the payload of StateChanged.
type StateData struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// TypingData is the payload of TypingChanged.
type TypingData struct {
	Typing bool `json:"typing"`
}
