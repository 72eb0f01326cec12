package event

import (
	"chat-hub/domain"
	"encoding/json"
	"time"
)

// Frame is the unit written to and read from a client socket.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// EncodeFrame builds the wire bytes of an event name and an already encoded payload.
func EncodeFrame(name string, data json.RawMessage) ([]byte, error) {
	return json.Marshal(Frame{Event: name, Data: data})
}

// Envelope carries one room broadcast between hub instances.
// Except is the connection the broadcast must skip, usually the emitter.
type Envelope struct {
	Origin string          `json:"origin"`
	Room   domain.RoomID   `json:"room"`
	Except domain.ConnID   `json:"except,omitempty"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
	At     time.Time       `json:"at"`
}

func NewEnvelope(origin string, except domain.ConnID, evt DomainEvent, at time.Time) (Envelope, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Origin: origin,
		Room:   evt.RoomID(),
		Except: except,
		Event:  evt.Name(),
		Data:   data,
		At:     at,
	}, nil
}

// Frame returns the client wire bytes of the envelope.
func (e Envelope) Frame() ([]byte, error) {
	return EncodeFrame(e.Event, e.Data)
}
