package domain

import (
	"chat-hub/errors"
	"encoding/json"
)

// Command is an inbound real-time request, already decoded and validated by the transport.
type Command interface {
	EventName() string
}

// SetupCommand attaches a user identity to the connection.
// The browser sends the logged-in user object, whose id is "_id".
type SetupCommand struct {
	UserID string `json:"_id" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email,omitempty"`
	Pic    string `json:"pic,omitempty"`
}

func (SetupCommand) EventName() string { return EventSetup }

// UnmarshalJSON accepts "userId" as an alias of "_id".
func (c *SetupCommand) UnmarshalJSON(data []byte) error {
	type alias SetupCommand
	var raw struct {
		alias
		AltUserID string `json:"userId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = SetupCommand(raw.alias)
	if c.UserID == "" {
		c.UserID = raw.AltUserID
	}
	return nil
}

type JoinChatCommand struct {
	Room RoomID `validate:"required"`
}

func (JoinChatCommand) EventName() string { return EventJoinChat }

// ChatRef is the part of a message payload the hub needs for routing.
type ChatRef struct {
	ID    RoomID            `json:"_id"`
	Users []json.RawMessage `json:"users"`
}

// NewMessageCommand carries an already persisted message.
// Payload keeps the original bytes so they are forwarded untouched.
type NewMessageCommand struct {
	ID      string          `json:"_id"`
	Chat    *ChatRef        `json:"chat"`
	Payload json.RawMessage `json:"-"`
}

func (NewMessageCommand) EventName() string { return EventNewMessage }

// Room returns the routing room, empty when the chat is missing.
func (c NewMessageCommand) Room() RoomID {
	if c.Chat == nil {
		return ""
	}
	return c.Chat.ID
}

// Validate checks the routing data: the chat id and a defined users list.
func (c NewMessageCommand) Validate() error {
	if c.Chat == nil || c.Chat.ID.IsZero() {
		return errors.ErrMissingRoom
	}
	if c.Chat.Users == nil {
		return errors.ErrMissingChatUsers
	}
	return nil
}

type TypingCommand struct {
	Room RoomID `validate:"required"`
}

func (TypingCommand) EventName() string { return EventTyping }

type StopTypingCommand struct {
	Room RoomID `validate:"required"`
}

func (StopTypingCommand) EventName() string { return EventStopTyping }
