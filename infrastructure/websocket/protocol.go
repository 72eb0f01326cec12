// Package websocket is the real-time transport of the hub.
// It decodes client frames into commands and drives the coordinator.
package websocket

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeCommand turns one inbound frame into a validated command.
func DecodeCommand(raw []byte) (domain.Command, error) {
	var frame event.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}

	var cmd domain.Command
	switch frame.Event {
	case domain.EventSetup:
		var setup domain.SetupCommand
		if err := decodeData(frame.Data, &setup); err != nil {
			return nil, err
		}
		cmd = setup
	case domain.EventJoinChat:
		room, err := decodeRoom(frame.Data)
		if err != nil {
			return nil, err
		}
		cmd = domain.JoinChatCommand{Room: room}
	case domain.EventTyping:
		room, err := decodeRoom(frame.Data)
		if err != nil {
			return nil, err
		}
		cmd = domain.TypingCommand{Room: room}
	case domain.EventStopTyping:
		room, err := decodeRoom(frame.Data)
		if err != nil {
			return nil, err
		}
		cmd = domain.StopTypingCommand{Room: room}
	case domain.EventNewMessage:
		var msg domain.NewMessageCommand
		if err := decodeData(frame.Data, &msg); err != nil {
			return nil, err
		}
		if err := msg.Validate(); err != nil {
			return nil, err
		}
		msg.Payload = append(json.RawMessage(nil), frame.Data...)
		return msg, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEvent, frame.Event)
	}

	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	return cmd, nil
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("%w: missing data", errors.ErrInvalidPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	return nil
}

// decodeRoom reads a bare room id. Clients sometimes send the chat object instead.
func decodeRoom(data json.RawMessage) (domain.RoomID, error) {
	var room string
	if err := json.Unmarshal(data, &room); err == nil {
		return domain.RoomID(room), nil
	}
	var chat struct {
		ID string `json:"_id"`
	}
	if err := decodeData(data, &chat); err != nil {
		return "", err
	}
	return domain.RoomID(chat.ID), nil
}
