package event

import (
	"chat-hub/domain"
	"encoding/json"
	"time"
)

// DomainEvent is something that happened in a room.
// Broadcast events are also the wire payload sent to clients.
type DomainEvent interface {
	RoomID() domain.RoomID
	Name() string
}

// Typing announces that a user started composing in a room.
type Typing struct {
	UserID      string        `json:"userId"`
	DisplayName string        `json:"name"`
	Room        domain.RoomID `json:"room"`
}

func (t Typing) RoomID() domain.RoomID { return t.Room }
func (Typing) Name() string            { return domain.EventTyping }

// StopTyping clears a typing indicator. Expired is set when the hub cleared it on inactivity.
type StopTyping struct {
	UserID  string        `json:"userId"`
	Room    domain.RoomID `json:"room"`
	Expired bool          `json:"-"`
}

func (s StopTyping) RoomID() domain.RoomID { return s.Room }
func (StopTyping) Name() string            { return domain.EventStopTyping }

// MessageReceived wraps a persisted message pushed by its sender.
// It is encoded as the original payload.
type MessageReceived struct {
	Room     domain.RoomID
	MsgID    string
	SenderID string
	Payload  json.RawMessage
}

func (m MessageReceived) RoomID() domain.RoomID { return m.Room }
func (MessageReceived) Name() string            { return domain.EventMessageReceived }

func (m MessageReceived) MarshalJSON() ([]byte, error) {
	if len(m.Payload) == 0 {
		return []byte("null"), nil
	}
	return m.Payload, nil
}

// RoomJoined and RoomLeft are local lifecycle events, never sent to clients.
type RoomJoined struct {
	Conn   domain.ConnID
	UserID string
	Room   domain.RoomID
	At     time.Time
}

func (r RoomJoined) RoomID() domain.RoomID { return r.Room }
func (RoomJoined) Name() string            { return "room joined" }

type RoomLeft struct {
	Conn         domain.ConnID
	UserID       string
	Room         domain.RoomID
	Disconnected bool
	At           time.Time
}

func (r RoomLeft) RoomID() domain.RoomID { return r.Room }
func (RoomLeft) Name() string            { return "room left" }
