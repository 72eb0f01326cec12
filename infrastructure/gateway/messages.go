package gateway

import (
	"chat-hub/domain"
	"net/http"
)

type sendMessageRequest struct {
	Content string        `json:"content"`
	ChatID  domain.RoomID `json:"chatId"`
}

func (g *Gateway) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := g.decode(w, r, &req); err != nil {
		g.writeError(w, r, err)
		return
	}
	message, err := g.messages.Send(r.Context(), callerID(r), req.ChatID, req.Content)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	g.writeJSON(w, http.StatusOK, message)
}

func (g *Gateway) handleListMessages(w http.ResponseWriter, r *http.Request) {
	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}
	page, err := g.messages.List(callerID(r), domain.RoomID(r.PathValue("chatId")), cursor)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	g.writeJSON(w, http.StatusOK, page)
}

func (g *Gateway) handleSearchMessages(w http.ResponseWriter, r *http.Request) {
	result, err := g.messages.Search(r.Context(), callerID(r), domain.RoomID(r.PathValue("chatId")), r.URL.Query().Get("q"))
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	g.writeJSON(w, http.StatusOK, result)
}
