package e2e

import (
	"chat-hub/domain/event"
	grpcclient "chat-hub/infrastructure/grpc/client"
	"chat-hub/services"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type chatScenarioSuite struct {
	BaseHubSuite
}

func TestChatScenarioSuite(t *testing.T) {
	suite.Run(t, &chatScenarioSuite{})
}

func (s *chatScenarioSuite) TestDirectConversation() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	alice := s.Register("Alice")
	bob := s.Register("Bob")
	var chat services.ChatView

	s.Run("Step 1: Alice opens a direct chat with Bob", func() {
		s.Step("POST /api/chat")
		code := s.Call(http.MethodPost, "/api/chat", alice.Token, map[string]string{"userId": bob.ID}, &chat)
		s.Require().Equal(http.StatusOK, code)
		s.Require().Len(chat.Users, 2)
	})

	aliceSocket := s.Socket(ctx, alice.Token)
	bobSocket := s.Socket(ctx, bob.Token)
	connected := make(chan struct{}, 2)
	typing := make(chan event.Typing, 1)
	received := make(chan json.RawMessage, 1)
	aliceSocket.OnConnected(func() { connected <- struct{}{} })
	bobSocket.OnConnected(func() { connected <- struct{}{} })
	bobSocket.OnTyping(func(e event.Typing) { typing <- e })
	bobSocket.OnMessage(func(m json.RawMessage) { received <- m })

	s.Run("Step 2: Both join the room", func() {
		s.Step("setup and join chat")
		s.Require().NoError(aliceSocket.Setup(ctx, alice.ID, alice.Name))
		s.Require().NoError(bobSocket.Setup(ctx, bob.ID, bob.Name))
		for range 2 {
			select {
			case <-connected:
			case <-ctx.Done():
				s.FailNow("setup was not acknowledged")
			}
		}
		s.Require().NoError(aliceSocket.JoinChat(ctx, chat.ID))
		s.Require().NoError(bobSocket.JoinChat(ctx, chat.ID))
		// Joins are not acknowledged
		time.Sleep(200 * time.Millisecond)
	})

	s.Run("Step 3: Bob sees Alice typing", func() {
		s.Step("typing")
		s.Require().NoError(aliceSocket.Typing(ctx, chat.ID))
		select {
		case e := <-typing:
			s.Equal(event.Typing{UserID: alice.ID, DisplayName: alice.Name, Room: chat.ID}, e)
		case <-ctx.Done():
			s.FailNow("typing was not delivered")
		}
	})

	s.Run("Step 4: A persisted message reaches Bob", func() {
		s.Step("POST /api/message then new message")
		var message services.MessageView
		code := s.Call(http.MethodPost, "/api/message", alice.Token, map[string]any{"content": "hello bob", "chatId": chat.ID}, &message)
		s.Require().Equal(http.StatusOK, code)
		s.Require().NotNil(message.Chat)

		s.Require().NoError(aliceSocket.SendMessage(ctx, message))
		select {
		case raw := <-received:
			var got services.MessageView
			s.Require().NoError(json.Unmarshal(raw, &got))
			s.Equal(message.ID, got.ID)
			s.Equal("hello bob", got.Content)
		case <-ctx.Done():
			s.FailNow("message was not delivered")
		}

		var page services.MessagePage
		code = s.Call(http.MethodGet, "/api/message/"+string(chat.ID), bob.Token, nil, &page)
		s.Require().Equal(http.StatusOK, code)
		s.Require().NotEmpty(page.Messages)
		s.Equal(message.ID, page.Messages[len(page.Messages)-1].ID)
	})

	s.Run("Step 5: The admin snapshot lists the room", func() {
		if s.Config.AdminToken == "" {
			s.T().Skip("HUB_ADMIN_TOKEN is not set")
		}
		s.WithAdmin("CoordinatorAdmin/Snapshot", func(ctx context.Context, admin *grpcclient.AdminClient) {
			snapshot, err := admin.Snapshot(ctx)
			s.Require().NoError(err)
			rooms, ok := snapshot.AsMap()["rooms"].([]any)
			s.Require().True(ok)
			s.Contains(rooms, map[string]any{"room": string(chat.ID), "members": float64(2)})
		})
	})
}
