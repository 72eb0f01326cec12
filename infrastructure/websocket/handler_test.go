package websocket

import (
	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/infrastructure/broker"
	"chat-hub/observability"
	"chat-hub/runtime"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type testHub struct {
	url         string
	coordinator *runtime.Coordinator
	handler     *Handler
	monitoring  *observability.MonitoringManager
}

func newTestHub(t *testing.T, cfg Config, tokens *auth.TokenManager) *testHub {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	monitoring := observability.NewMonitoringManager(log)
	coordinator := runtime.NewCoordinator(log, "test", runtime.NewRegistry(), broker.NewLocal(), nil, monitoring, 200*time.Millisecond)
	t.Cleanup(coordinator.Close)

	handler := NewHandler(log, cfg, coordinator, tokens, monitoring)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testHub{
		url:         "ws" + strings.TrimPrefix(srv.URL, "http"),
		coordinator: coordinator,
		handler:     handler,
		monitoring:  monitoring,
	}
}

func (h *testHub) dial(t *testing.T, query string) *websocket.Conn {
	ws, _, err := websocket.DefaultDialer.Dial(h.url+query, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

// identified opens a socket, sets it up and joins room, waiting for the coordinator to see it.
func (h *testHub) identified(t *testing.T, userID, name string, room domain.RoomID) *websocket.Conn {
	ws := h.dial(t, "")
	before := h.coordinator.Snapshot().Rooms[room]
	send(t, ws, domain.EventSetup, map[string]string{"_id": userID, "name": name})
	expect(t, ws, domain.EventConnected)
	send(t, ws, domain.EventJoinChat, room)
	require.Eventually(t, func() bool {
		return h.coordinator.Snapshot().Rooms[room] == before+1
	}, time.Second, 5*time.Millisecond)
	return ws
}

func send(t *testing.T, ws *websocket.Conn, name string, data any) {
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	frame, err := event.EncodeFrame(name, raw)
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, frame))
}

func expect(t *testing.T, ws *websocket.Conn, name string) event.Frame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := ws.ReadMessage()
	require.NoError(t, err)
	var frame event.Frame
	require.NoError(t, json.Unmarshal(raw, &frame))
	require.Equal(t, name, frame.Event)
	return frame
}

// expectNothing leaves the connection unreadable, so it has to be the last read.
func expectNothing(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, raw, err := ws.ReadMessage()
	require.Error(t, err, "unexpected frame %s", raw)
}

func TestHandler_Typing_And_Room_Switch(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t, Config{}, nil)

	// Given alice and bob in chat-42
	alice := hub.identified(t, "alice", "Alice", "chat-42")
	bob := hub.identified(t, "bob", "Bob", "chat-42")

	// When alice types
	send(t, alice, domain.EventTyping, "chat-42")

	// Then bob sees who is typing
	var typing event.Typing
	req.NoError(json.Unmarshal(expect(t, bob, domain.EventTyping).Data, &typing))
	req.Equal(event.Typing{UserID: "alice", DisplayName: "Alice", Room: "chat-42"}, typing)

	// When alice switches to chat-99
	send(t, alice, domain.EventJoinChat, "chat-99")

	// Then bob is told she stopped typing in chat-42
	var stop event.StopTyping
	req.NoError(json.Unmarshal(expect(t, bob, domain.EventStopTyping).Data, &stop))
	req.Equal(event.StopTyping{UserID: "alice", Room: "chat-42"}, stop)

	// And alice got no echo
	expectNothing(t, alice)
}

func TestHandler_Message_Fanout(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t, Config{}, nil)

	// Given alice and bob in chat-42 and carol in chat-99
	alice := hub.identified(t, "alice", "Alice", "chat-42")
	bob := hub.identified(t, "bob", "Bob", "chat-42")
	carol := hub.identified(t, "carol", "Carol", "chat-99")

	// When alice pushes a persisted message
	payload := json.RawMessage(`{"_id":"m1","content":"hello","sender":{"_id":"alice"},"chat":{"_id":"chat-42","users":[{"_id":"alice"},{"_id":"bob"}]}}`)
	send(t, alice, domain.EventNewMessage, payload)

	// Then bob receives it verbatim
	req.JSONEq(string(payload), string(expect(t, bob, domain.EventMessageReceived).Data))

	// And neither the sender nor another room sees it
	expectNothing(t, alice)
	expectNothing(t, carol)
}

func TestHandler_Disconnect_While_Typing(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t, Config{}, nil)
	alice := hub.identified(t, "alice", "Alice", "chat-42")
	bob := hub.identified(t, "bob", "Bob", "chat-42")

	// Given alice typing
	send(t, alice, domain.EventTyping, "chat-42")
	expect(t, bob, domain.EventTyping)

	// When her socket goes away
	req.NoError(alice.Close())

	// Then bob gets exactly one stop typing even after the expiry delay
	expect(t, bob, domain.EventStopTyping)
	time.Sleep(300 * time.Millisecond)
	expectNothing(t, bob)
	req.Eventually(func() bool { return hub.handler.Connections() == 1 }, time.Second, 5*time.Millisecond)
	req.Equal(1, hub.coordinator.Snapshot().Connections)
}

func TestHandler_Invalid_Frames_Keep_The_Connection(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t, Config{}, nil)
	ws := hub.dial(t, "")

	// When garbage is sent
	req.NoError(ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	send(t, ws, "dance", nil)
	send(t, ws, domain.EventNewMessage, map[string]string{"_id": "m1"})

	// Then the socket still answers
	send(t, ws, domain.EventSetup, map[string]string{"_id": "alice", "name": "Alice"})
	expect(t, ws, domain.EventConnected)
	req.Equal(uint64(3), hub.monitoring.GetLatest().InvalidFrames)
}

func TestHandler_Rate_Limit(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t, Config{RateLimit: 0.5, RateBurst: 1}, nil)
	ws := hub.dial(t, "")

	// When a burst of setups is sent
	for range 3 {
		send(t, ws, domain.EventSetup, map[string]string{"_id": "alice", "name": "Alice"})
	}

	// Then only the first one goes through
	expect(t, ws, domain.EventConnected)
	expectNothing(t, ws)
	req.Equal(uint64(2), hub.monitoring.GetLatest().RateLimited)
}

func TestHandler_Authentication(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	hub := newTestHub(t, Config{AuthRequired: true}, tokens)
	token, err := tokens.GenerateToken(domain.User{ID: "alice", Name: "Alice"})
	require.NoError(t, err)

	t.Run("should refuse a socket without token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(hub.url, nil)
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("should refuse a forged token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(hub.url+"?token=forged", nil)
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("should only accept the setup of the token owner", func(t *testing.T) {
		ws := hub.dial(t, "?token="+token)
		send(t, ws, domain.EventSetup, map[string]string{"_id": "mallory", "name": "Mallory"})
		send(t, ws, domain.EventSetup, map[string]string{"_id": "alice", "name": "Alice"})
		expect(t, ws, domain.EventConnected)
		expectNothing(t, ws)
	})
}

func TestHandler_Origin_Not_Allowed(t *testing.T) {
	hub := newTestHub(t, Config{AllowedOrigins: []string{"https://app.example.com"}}, nil)
	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(hub.url, header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHandler_Shutdown(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t, Config{}, nil)
	ws := hub.dial(t, "")
	req.Eventually(func() bool { return hub.handler.Connections() == 1 }, time.Second, 5*time.Millisecond)

	// When the server shuts down
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	req.NoError(hub.handler.Shutdown(ctx))

	// Then the client is told the server is going away
	req.NoError(ws.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := ws.ReadMessage()
	req.True(websocket.IsCloseError(err, websocket.CloseGoingAway))
	req.Eventually(func() bool { return hub.coordinator.Snapshot().Connections == 0 }, time.Second, 5*time.Millisecond)
}
