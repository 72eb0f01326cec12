package gateway

import (
	"chat-hub/auth"
	"net/http"
)

func (g *Gateway) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := g.decode(w, r, &req); err != nil {
		g.writeError(w, r, err)
		return
	}
	view, err := g.users.Register(req)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	g.writeJSON(w, http.StatusCreated, view)
}

func (g *Gateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := g.decode(w, r, &req); err != nil {
		g.writeError(w, r, err)
		return
	}
	view, err := g.users.Login(req)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	g.writeJSON(w, http.StatusOK, view)
}

func (g *Gateway) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := g.users.Search(callerID(r), r.URL.Query().Get("search"))
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	g.writeJSON(w, http.StatusOK, users)
}

type picRequest struct {
	Pic string `json:"pic"`
}

func (g *Gateway) handleUpdatePic(w http.ResponseWriter, r *http.Request) {
	var req picRequest
	if err := g.decode(w, r, &req); err != nil {
		g.writeError(w, r, err)
		return
	}
	view, err := g.users.UpdatePic(callerID(r), req.Pic)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	g.writeJSON(w, http.StatusOK, view)
}
