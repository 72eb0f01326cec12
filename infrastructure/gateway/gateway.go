// Package gateway is the REST API consumed by the web client.
package gateway

import (
	"chat-hub/auth"
	"chat-hub/services"
	"log/slog"
	"net/http"
)

const defaultMaxBodySize = 5 << 20

type Gateway struct {
	log         *slog.Logger
	tokens      *auth.TokenManager
	users       services.IAuthService
	chats       services.IChatService
	messages    services.IMessageService
	maxBodySize int64
}

func NewGateway(
	log *slog.Logger,
	tokens *auth.TokenManager,
	users services.IAuthService,
	chats services.IChatService,
	messages services.IMessageService,
	maxBodySize int64,
) *Gateway {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}
	return &Gateway{
		log:         log,
		tokens:      tokens,
		users:       users,
		chats:       chats,
		messages:    messages,
		maxBodySize: maxBodySize,
	}
}

// Routes mounts the API. socket is served on /ws when not nil.
func (g *Gateway) Routes(socket http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", g.handleRoot)
	mux.HandleFunc("GET /healthz", g.handleRoot)
	if socket != nil {
		mux.Handle("GET /ws", socket)
	}

	mux.HandleFunc("POST /api/user", g.handleRegister)
	mux.HandleFunc("POST /api/user/login", g.handleLogin)
	mux.Handle("GET /api/user", g.requireAuth(g.handleSearchUsers))
	mux.Handle("PUT /api/user/pic", g.requireAuth(g.handleUpdatePic))

	mux.Handle("POST /api/chat", g.requireAuth(g.handleAccessChat))
	mux.Handle("GET /api/chat", g.requireAuth(g.handleFetchChats))
	mux.Handle("POST /api/chat/group", g.requireAuth(g.handleCreateGroup))
	mux.Handle("PUT /api/chat/rename", g.requireAuth(g.handleRenameGroup))
	mux.Handle("PUT /api/chat/groupadd", g.requireAuth(g.handleAddToGroup))
	mux.Handle("PUT /api/chat/groupremove", g.requireAuth(g.handleRemoveFromGroup))

	mux.Handle("POST /api/message", g.requireAuth(g.handleSendMessage))
	mux.Handle("GET /api/message/{chatId}", g.requireAuth(g.handleListMessages))
	mux.Handle("GET /api/message/{chatId}/search", g.requireAuth(g.handleSearchMessages))

	return g.recoverPanics(g.logRequests(mux))
}

func (g *Gateway) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("API is running"))
}
