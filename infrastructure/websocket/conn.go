package websocket

import (
	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/sink"
	"context"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

type conn struct {
	id       domain.ConnID
	ws       *websocket.Conn
	out      *sink.ChannelSink
	identity *auth.Identity
	limiter  *rate.Limiter
}

// readPump hands every frame to the coordinator in arrival order until the socket fails.
func (h *Handler) readPump(ctx context.Context, c *conn) {
	if h.cfg.MaxMessageSize > 0 {
		c.ws.SetReadLimit(h.cfg.MaxMessageSize)
	}
	_ = c.ws.SetReadDeadline(time.Now().Add(h.cfg.PingTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(h.cfg.PingTimeout))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			h.logReadError(c.id, err)
			return
		}
		if !c.limiter.Allow() {
			h.monitoring.IncrRateLimited()
			h.log.Debug("Frame dropped", "conn_id", c.id, "error", errors.ErrRateLimited)
			continue
		}
		cmd, err := DecodeCommand(raw)
		if err != nil {
			h.monitoring.IncrInvalidFrames()
			h.log.Warn("Invalid frame dropped", "conn_id", c.id, "error", err)
			continue
		}
		if setup, ok := cmd.(domain.SetupCommand); ok && c.identity != nil && setup.UserID != c.identity.UserID {
			h.log.Warn("Setup does not match the token", "conn_id", c.id, "user_id", setup.UserID, "error", errors.ErrForbidden)
			continue
		}
		h.coordinator.Handle(ctx, c.id, cmd)
	}
}

// writePump is the only writer of data frames on the socket.
// Every frame goes out as its own text message.
func (h *Handler) writePump(c *conn) {
	ticker := time.NewTicker(pingPeriod(h.cfg.PingTimeout))
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame := <-c.out.Frames():
			_ = c.ws.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.log.Debug("Write failed", "conn_id", c.id, "error", err)
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.cfg.WriteTimeout)); err != nil {
				h.log.Debug("Ping failed", "conn_id", c.id, "error", err)
				return
			}
		case <-c.out.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.cfg.WriteTimeout))
			return
		}
	}
}

func (h *Handler) logReadError(id domain.ConnID, err error) {
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		h.log.Debug("Client closed the connection", "conn_id", id)
	case websocket.IsUnexpectedCloseError(err):
		h.log.Info("Connection closed unexpectedly", "conn_id", id, "error", err)
	default:
		h.log.Debug("Read failed", "conn_id", id, "error", err)
	}
}

func pingPeriod(timeout time.Duration) time.Duration {
	return timeout * 9 / 10
}
