package websocket

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeCommand(t *testing.T) {
	t.Run("should decode setup with either id field", func(t *testing.T) {
		req := require.New(t)
		cmd, err := DecodeCommand([]byte(`{"event":"setup","data":{"_id":"alice","name":"Alice","email":"alice@example.com"}}`))
		req.NoError(err)
		req.Equal(domain.SetupCommand{UserID: "alice", Name: "Alice", Email: "alice@example.com"}, cmd)

		cmd, err = DecodeCommand([]byte(`{"event":"setup","data":{"userId":"bob","name":"Bob"}}`))
		req.NoError(err)
		req.Equal(domain.SetupCommand{UserID: "bob", Name: "Bob"}, cmd)
	})

	t.Run("should decode room commands from a bare id", func(t *testing.T) {
		req := require.New(t)
		cmd, err := DecodeCommand([]byte(`{"event":"join chat","data":"chat-42"}`))
		req.NoError(err)
		req.Equal(domain.JoinChatCommand{Room: "chat-42"}, cmd)

		cmd, err = DecodeCommand([]byte(`{"event":"typing","data":"chat-42"}`))
		req.NoError(err)
		req.Equal(domain.TypingCommand{Room: "chat-42"}, cmd)

		cmd, err = DecodeCommand([]byte(`{"event":"stop typing","data":"chat-42"}`))
		req.NoError(err)
		req.Equal(domain.StopTypingCommand{Room: "chat-42"}, cmd)
	})

	t.Run("should accept a chat object as room", func(t *testing.T) {
		cmd, err := DecodeCommand([]byte(`{"event":"join chat","data":{"_id":"chat-42","chatName":"sender"}}`))
		require.NoError(t, err)
		require.Equal(t, domain.JoinChatCommand{Room: "chat-42"}, cmd)
	})

	t.Run("should keep the message payload untouched", func(t *testing.T) {
		req := require.New(t)
		payload := `{"_id":"m1","content":"hi","chat":{"_id":"chat-42","users":[{"_id":"alice"}]},"extra":[1,2]}`
		cmd, err := DecodeCommand([]byte(`{"event":"new message","data":` + payload + `}`))
		req.NoError(err)
		msg, ok := cmd.(domain.NewMessageCommand)
		req.True(ok)
		req.Equal(domain.RoomID("chat-42"), msg.Room())
		req.Equal(payload, string(msg.Payload))
	})

	t.Run("should reject malformed frames", func(t *testing.T) {
		cases := map[string]struct {
			raw string
			err error
		}{
			"not json":           {raw: `not json`, err: errors.ErrInvalidPayload},
			"unknown event":      {raw: `{"event":"dance","data":null}`, err: errors.ErrUnknownEvent},
			"setup without id":   {raw: `{"event":"setup","data":{"name":"Alice"}}`, err: errors.ErrInvalidPayload},
			"setup without data": {raw: `{"event":"setup"}`, err: errors.ErrInvalidPayload},
			"empty room":         {raw: `{"event":"join chat","data":""}`, err: errors.ErrInvalidPayload},
			"null room":          {raw: `{"event":"typing","data":null}`, err: errors.ErrInvalidPayload},
			"numeric room":       {raw: `{"event":"typing","data":42}`, err: errors.ErrInvalidPayload},
			"message no chat":    {raw: `{"event":"new message","data":{"_id":"m1"}}`, err: errors.ErrMissingRoom},
			"message no users":   {raw: `{"event":"new message","data":{"_id":"m1","chat":{"_id":"chat-42"}}}`, err: errors.ErrMissingChatUsers},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := DecodeCommand([]byte(tc.raw))
				require.ErrorIs(t, err, tc.err)
			})
		}
	})
}
