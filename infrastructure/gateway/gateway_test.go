package gateway

import (
	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/mocks"
	"chat-hub/services"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	users    *mocks.MockIAuthService
	chats    *mocks.MockIChatService
	messages *mocks.MockIMessageService
	tokens   *auth.TokenManager
	handler  http.Handler
}

func newFixture(t *testing.T, maxBodySize int64) fixture {
	ctrl := gomock.NewController(t)
	f := fixture{
		users:    mocks.NewMockIAuthService(ctrl),
		chats:    mocks.NewMockIChatService(ctrl),
		messages: mocks.NewMockIMessageService(ctrl),
		tokens:   auth.NewTokenManager("test-secret", time.Hour),
	}
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	f.handler = NewGateway(log, f.tokens, f.users, f.chats, f.messages, maxBodySize).Routes(nil)
	return f
}

// do sends a request as userID, anonymously when userID is empty.
func (f fixture) do(t *testing.T, method, target, body, userID string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)
	if userID != "" {
		token, err := f.tokens.GenerateToken(domain.User{ID: userID})
		require.NoError(t, err)
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}

func TestGateway_Health(t *testing.T) {
	f := newFixture(t, 0)
	for _, target := range []string{"/", "/healthz"} {
		w := f.do(t, http.MethodGet, target, "", "")
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "API is running", w.Body.String())
	}
	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/unknown", "", "").Code)
}

func TestGateway_Users(t *testing.T) {
	t.Run("should register and answer 201", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, 0)
		registration := auth.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "Str0ng-Passw0rd!"}
		f.users.EXPECT().Register(registration).
			Return(services.AuthView{UserView: services.UserView{ID: "alice", Name: "Alice"}, Token: "jwt"}, nil)

		w := f.do(t, http.MethodPost, "/api/user", `{"name":"Alice","email":"alice@example.com","password":"Str0ng-Passw0rd!"}`, "")

		req.Equal(http.StatusCreated, w.Code)
		req.JSONEq(`{"_id":"alice","name":"Alice","email":"","pic":"","isAdmin":false,"token":"jwt"}`, w.Body.String())
	})

	t.Run("should map a duplicate email to 400", func(t *testing.T) {
		f := newFixture(t, 0)
		f.users.EXPECT().Register(gomock.Any()).Return(services.AuthView{}, errors.ErrUserAlreadyExists)

		w := f.do(t, http.MethodPost, "/api/user", `{"name":"Alice","email":"alice@example.com","password":"x"}`, "")

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "user already exists", errorMessage(t, w))
	})

	t.Run("should refuse invalid credentials with 401", func(t *testing.T) {
		f := newFixture(t, 0)
		f.users.EXPECT().Login(auth.LoginRequest{Email: "alice@example.com", Password: "wrong"}).
			Return(services.AuthView{}, errors.ErrInvalidCredentials)

		w := f.do(t, http.MethodPost, "/api/user/login", `{"email":"alice@example.com","password":"wrong"}`, "")

		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("should reject a malformed body", func(t *testing.T) {
		f := newFixture(t, 0)
		w := f.do(t, http.MethodPost, "/api/user/login", `{"email":`, "")
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should search as the caller", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, 0)
		f.users.EXPECT().Search("alice", "bo").Return([]services.UserView{{ID: "bob", Name: "Bob"}}, nil)

		w := f.do(t, http.MethodGet, "/api/user?search=bo", "", "alice")

		req.Equal(http.StatusOK, w.Code)
		var users []services.UserView
		req.NoError(json.Unmarshal(w.Body.Bytes(), &users))
		req.Equal("bob", users[0].ID)
	})

	t.Run("should update the picture of the caller", func(t *testing.T) {
		f := newFixture(t, 0)
		f.users.EXPECT().UpdatePic("alice", "https://cdn.example.com/a.png").
			Return(services.AuthView{UserView: services.UserView{ID: "alice"}}, nil)

		w := f.do(t, http.MethodPut, "/api/user/pic", `{"pic":"https://cdn.example.com/a.png"}`, "alice")

		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGateway_Requires_Token(t *testing.T) {
	f := newFixture(t, 0)
	routes := [][2]string{
		{http.MethodGet, "/api/user"},
		{http.MethodPut, "/api/user/pic"},
		{http.MethodPost, "/api/chat"},
		{http.MethodGet, "/api/chat"},
		{http.MethodPost, "/api/chat/group"},
		{http.MethodPut, "/api/chat/rename"},
		{http.MethodPut, "/api/chat/groupadd"},
		{http.MethodPut, "/api/chat/groupremove"},
		{http.MethodPost, "/api/message"},
		{http.MethodGet, "/api/message/chat-42"},
		{http.MethodGet, "/api/message/chat-42/search"},
	}
	for _, route := range routes {
		t.Run(fmt.Sprintf("should protect %s %s", route[0], route[1]), func(t *testing.T) {
			w := f.do(t, route[0], route[1], "", "")
			require.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	t.Run("should refuse a forged token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
		r.Header.Set("Authorization", "Bearer forged")
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, r)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGateway_Chats(t *testing.T) {
	t.Run("should require the other user id", func(t *testing.T) {
		f := newFixture(t, 0)
		w := f.do(t, http.MethodPost, "/api/chat", `{}`, "alice")
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should access a direct chat", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, 0)
		f.chats.EXPECT().AccessChat("alice", "bob").Return(services.ChatView{ID: "chat-42", ChatName: "sender"}, nil)

		w := f.do(t, http.MethodPost, "/api/chat", `{"userId":"bob"}`, "alice")

		req.Equal(http.StatusOK, w.Code)
		var chat services.ChatView
		req.NoError(json.Unmarshal(w.Body.Bytes(), &chat))
		req.Equal(domain.RoomID("chat-42"), chat.ID)
	})

	t.Run("should fetch the chats of the caller", func(t *testing.T) {
		f := newFixture(t, 0)
		f.chats.EXPECT().FetchChats("alice").Return([]services.ChatView{{ID: "chat-42"}, {ID: "chat-99"}}, nil)
		w := f.do(t, http.MethodGet, "/api/chat", "", "alice")
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("should accept group members as array or encoded string", func(t *testing.T) {
		f := newFixture(t, 0)
		f.chats.EXPECT().CreateGroup("alice", "Team", []string{"bob", "carol"}).
			Return(services.ChatView{ID: "chat-99"}, nil).Times(2)

		w := f.do(t, http.MethodPost, "/api/chat/group", `{"name":"Team","users":["bob","carol"]}`, "alice")
		require.Equal(t, http.StatusOK, w.Code)
		w = f.do(t, http.MethodPost, "/api/chat/group", `{"name":"Team","users":"[\"bob\",\"carol\"]"}`, "alice")
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("should reject unreadable group members", func(t *testing.T) {
		f := newFixture(t, 0)
		w := f.do(t, http.MethodPost, "/api/chat/group", `{"name":"Team","users":42}`, "alice")
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should map group rules to status codes", func(t *testing.T) {
		f := newFixture(t, 0)
		f.chats.EXPECT().RenameGroup("bob", domain.RoomID("chat-99"), "New").Return(services.ChatView{}, errors.ErrNotGroupAdmin)
		f.chats.EXPECT().AddToGroup("alice", domain.RoomID("chat-00"), "dave").Return(services.ChatView{}, errors.ErrChatNotFound)
		f.chats.EXPECT().RemoveFromGroup("alice", domain.RoomID("chat-99"), "bob").Return(services.ChatView{ID: "chat-99"}, nil)

		require.Equal(t, http.StatusForbidden, f.do(t, http.MethodPut, "/api/chat/rename", `{"chatId":"chat-99","chatName":"New"}`, "bob").Code)
		require.Equal(t, http.StatusNotFound, f.do(t, http.MethodPut, "/api/chat/groupadd", `{"chatId":"chat-00","userId":"dave"}`, "alice").Code)
		require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/api/chat/groupremove", `{"chatId":"chat-99","userId":"bob"}`, "alice").Code)
	})
}

func TestGateway_Messages(t *testing.T) {
	t.Run("should send as the caller", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, 0)
		f.messages.EXPECT().Send(gomock.Any(), "alice", domain.RoomID("chat-42"), "hello").
			Return(services.MessageView{ID: "m1", Content: "hello"}, nil)

		w := f.do(t, http.MethodPost, "/api/message", `{"content":"hello","chatId":"chat-42"}`, "alice")

		req.Equal(http.StatusOK, w.Code)
		var msg services.MessageView
		req.NoError(json.Unmarshal(w.Body.Bytes(), &msg))
		req.Equal("m1", msg.ID)
	})

	t.Run("should refuse a non member", func(t *testing.T) {
		f := newFixture(t, 0)
		f.messages.EXPECT().Send(gomock.Any(), "mallory", domain.RoomID("chat-42"), "hi").
			Return(services.MessageView{}, errors.ErrNotChatMember)
		w := f.do(t, http.MethodPost, "/api/message", `{"content":"hi","chatId":"chat-42"}`, "mallory")
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("should pass the cursor through", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, 0)
		older := "cursor-1"
		f.messages.EXPECT().List("alice", domain.RoomID("chat-42"), (*string)(nil)).
			Return(services.MessagePage{Messages: []services.MessageView{{ID: "m2"}}, Cursor: &older}, nil)
		f.messages.EXPECT().List("alice", domain.RoomID("chat-42"), &older).
			Return(services.MessagePage{Messages: []services.MessageView{{ID: "m1"}}}, nil)

		w := f.do(t, http.MethodGet, "/api/message/chat-42", "", "alice")
		req.Equal(http.StatusOK, w.Code)
		var page services.MessagePage
		req.NoError(json.Unmarshal(w.Body.Bytes(), &page))
		req.Equal(&older, page.Cursor)

		w = f.do(t, http.MethodGet, "/api/message/chat-42?cursor=cursor-1", "", "alice")
		req.Equal(http.StatusOK, w.Code)
		req.NoError(json.Unmarshal(w.Body.Bytes(), &page))
		req.Nil(page.Cursor)
	})

	t.Run("should search the chat", func(t *testing.T) {
		f := newFixture(t, 0)
		f.messages.EXPECT().Search(gomock.Any(), "alice", domain.RoomID("chat-42"), "hello").
			Return(services.SearchResult{Total: 1, Messages: []services.MessageView{{ID: "m1"}}}, nil)
		w := f.do(t, http.MethodGet, "/api/message/chat-42/search?q=hello", "", "alice")
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"messages":[{"_id":"m1","sender":{"_id":"","name":"","email":"","pic":"","isAdmin":false},"content":"","createdAt":"0001-01-01T00:00:00Z"}],"total":1}`, w.Body.String())
	})

	t.Run("should hide internal failures", func(t *testing.T) {
		f := newFixture(t, 0)
		f.messages.EXPECT().Search(gomock.Any(), "alice", domain.RoomID("chat-42"), "x").
			Return(services.SearchResult{}, fmt.Errorf("bluge exploded"))
		w := f.do(t, http.MethodGet, "/api/message/chat-42/search?q=x", "", "alice")
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Equal(t, "internal server error", errorMessage(t, w))
	})

	t.Run("should limit the body size", func(t *testing.T) {
		f := newFixture(t, 32)
		body := fmt.Sprintf(`{"content":%q,"chatId":"chat-42"}`, strings.Repeat("a", 64))
		w := f.do(t, http.MethodPost, "/api/message", body, "alice")
		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
