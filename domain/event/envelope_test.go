package event

import (
	"chat-hub/domain"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewEnvelope_MessageReceived_KeepsPayload(t *testing.T) {
	req := require.New(t)
	payload := json.RawMessage(`{"_id":"m1","content":"hi","chat":{"_id":"chat-42","users":[{"_id":"alice"},{"_id":"bob"}]},"extra":{"nested":[1,2,3]}}`)

	// Given a message pushed by its sender
	evt := MessageReceived{Room: "chat-42", MsgID: "m1", SenderID: "alice", Payload: payload}

	// When it is wrapped for the broker
	env, err := NewEnvelope("instance-a", "c1", evt, time.Now())
	req.NoError(err)

	// Then routing data is extracted
	req.Equal(domain.RoomID("chat-42"), env.Room)
	req.Equal(domain.ConnID("c1"), env.Except)
	req.Equal(domain.EventMessageReceived, env.Event)

	// And the client frame carries the payload untouched
	frameBytes, err := env.Frame()
	req.NoError(err)
	var frame Frame
	req.NoError(json.Unmarshal(frameBytes, &frame))
	req.Equal("message received", frame.Event)
	req.JSONEq(string(payload), string(frame.Data))
}

func TestNewEnvelope_Typing(t *testing.T) {
	req := require.New(t)

	env, err := NewEnvelope("instance-a", "c1", Typing{UserID: "alice", DisplayName: "Alice", Room: "chat-42"}, time.Now())
	req.NoError(err)

	frameBytes, err := env.Frame()
	req.NoError(err)
	req.JSONEq(`{"event":"typing","data":{"userId":"alice","name":"Alice","room":"chat-42"}}`, string(frameBytes))
}

func TestEnvelope_RoundTrip(t *testing.T) {
	req := require.New(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	env, err := NewEnvelope("instance-a", "c1", StopTyping{UserID: "alice", Room: "chat-42", Expired: true}, at)
	req.NoError(err)

	raw, err := json.Marshal(env)
	req.NoError(err)
	var decoded Envelope
	req.NoError(json.Unmarshal(raw, &decoded))

	req.Equal(env.Origin, decoded.Origin)
	req.Equal(env.Room, decoded.Room)
	req.Equal(env.Except, decoded.Except)
	req.Equal(env.Event, decoded.Event)
	req.True(env.At.Equal(decoded.At))
	// Expired stays local
	req.JSONEq(`{"userId":"alice","room":"chat-42"}`, string(decoded.Data))
}

func TestEncodeFrame_NullData(t *testing.T) {
	raw, err := EncodeFrame(domain.EventConnected, nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"event":"connected","data":null}`, string(raw))
}
