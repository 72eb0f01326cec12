package gateway

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"encoding/json"
	"fmt"
	"net/http"
)

type accessChatRequest struct {
	UserID string `json:"userId"`
}

type createGroupRequest struct {
	Name  string          `json:"name"`
	Users json.RawMessage `json:"users"`
}

// memberIDs accepts a JSON array or a JSON-encoded array string,
// which is how browser forms usually post it.
func (c createGroupRequest) memberIDs() ([]string, error) {
	if len(c.Users) == 0 {
		return nil, fmt.Errorf("%w: users are required", errors.ErrInvalidRequest)
	}
	var ids []string
	if err := json.Unmarshal(c.Users, &ids); err == nil {
		return ids, nil
	}
	var encoded string
	if err := json.Unmarshal(c.Users, &encoded); err != nil {
		return nil, fmt.Errorf("%w: users must be a list of ids", errors.ErrInvalidRequest)
	}
	if err := json.Unmarshal([]byte(encoded), &ids); err != nil {
		return nil, fmt.Errorf("%w: users must be a list of ids", errors.ErrInvalidRequest)
	}
	return ids, nil
}

type renameGroupRequest struct {
	ChatID   domain.RoomID `json:"chatId"`
	ChatName string        `json:"chatName"`
}

type groupMemberRequest struct {
	ChatID domain.RoomID `json:"chatId"`
	UserID string        `json:"userId"`
}

func (g *Gateway) handleAccessChat(w http.ResponseWriter, r *http.Request) {
	var req accessChatRequest
	if err := g.decode(w, r, &req); err != nil {
		g.writeError(w, r, err)
		return
	}
	if req.UserID == "" {
		g.writeError(w, r, fmt.Errorf("%w: userId is required", errors.ErrInvalidRequest))
		return
	}
	chat, err := g.chats.AccessChat(callerID(r), req.UserID)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	g.writeJSON(w, http.StatusOK, chat)
}

func (g *Gateway) handleFetchChats(w http.ResponseWriter, r *http.Request) {
	chats, err := g.chats.FetchChats(callerID(r))
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	g.writeJSON(w, http.StatusOK, chats)
}

func (g *Gateway) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := g.decode(w, r, &req); err != nil {
		g.writeError(w, r, err)
		return
	}
	ids, err := req.memberIDs()
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	chat, err := g.chats.CreateGroup(callerID(r), req.Name, ids)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	g.writeJSON(w, http.StatusOK, chat)
}

func (g *Gateway) handleRenameGroup(w http.ResponseWriter, r *http.Request) {
	var req renameGroupRequest
	if err := g.decode(w, r, &req); err != nil {
		g.writeError(w, r, err)
		return
	}
	chat, err := g.chats.RenameGroup(callerID(r), req.ChatID, req.ChatName)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	g.writeJSON(w, http.StatusOK, chat)
}

func (g *Gateway) handleAddToGroup(w http.ResponseWriter, r *http.Request) {
	var req groupMemberRequest
	if err := g.decode(w, r, &req); err != nil {
		g.writeError(w, r, err)
		return
	}
	chat, err := g.chats.AddToGroup(callerID(r), req.ChatID, req.UserID)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	g.writeJSON(w, http.StatusOK, chat)
}

func (g *Gateway) handleRemoveFromGroup(w http.ResponseWriter, r *http.Request) {
	var req groupMemberRequest
	if err := g.decode(w, r, &req); err != nil {
		g.writeError(w, r, err)
		return
	}
	chat, err := g.chats.RemoveFromGroup(callerID(r), req.ChatID, req.UserID)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	g.writeJSON(w, http.StatusOK, chat)
}
