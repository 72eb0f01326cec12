// Package client is a Go SDK for the real-time socket of the hub.
package client

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

var ErrNotConnected = errors.New("client is not connected")

type Config struct {
	URL              string
	Token            string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

type Client struct {
	cfg        Config
	log        *slog.Logger
	dispatcher Dispatcher

	mu     sync.Mutex
	ws     *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}
}

func New(log *slog.Logger, cfg Config) *Client {
	return &Client{cfg: cfg, log: log}
}

func (c *Client) OnConnected(fn func())                  { c.dispatcher.SetOnConnected(fn) }
func (c *Client) OnMessage(fn func(json.RawMessage))      { c.dispatcher.SetOnMessage(fn) }
func (c *Client) OnTyping(fn func(event.Typing))          { c.dispatcher.SetOnTyping(fn) }
func (c *Client) OnStopTyping(fn func(event.StopTyping)) { c.dispatcher.SetOnStopTyping(fn) }
func (c *Client) OnError(fn func(error))                  { c.dispatcher.SetOnError(fn) }

// Connect dials the hub and starts reading frames in the background.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws != nil {
		return errors.New("client is already connected")
	}

	target, err := c.target()
	if err != nil {
		return err
	}
	dialCtx := ctx
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}
	ws, _, err := websocket.Dial(dialCtx, target, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.ws = ws
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.readLoop(runCtx, ws, c.done)
	return nil
}

func (c *Client) Setup(ctx context.Context, userID, name string) error {
	return c.send(ctx, domain.EventSetup, domain.SetupCommand{UserID: userID, Name: name})
}

func (c *Client) JoinChat(ctx context.Context, room domain.RoomID) error {
	return c.send(ctx, domain.EventJoinChat, room)
}

// SendMessage forwards an already persisted message, which must carry its chat.
func (c *Client) SendMessage(ctx context.Context, message any) error {
	return c.send(ctx, domain.EventNewMessage, message)
}

func (c *Client) Typing(ctx context.Context, room domain.RoomID) error {
	return c.send(ctx, domain.EventTyping, room)
}

func (c *Client) StopTyping(ctx context.Context, room domain.RoomID) error {
	return c.send(ctx, domain.EventStopTyping, room)
}

// Done is closed when the read loop ends.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *Client) Close() error {
	c.mu.Lock()
	ws, cancel := c.ws, c.cancel
	c.ws, c.cancel = nil, nil
	c.mu.Unlock()
	if ws == nil {
		return nil
	}
	// The read loop has to observe the closure before its context is cancelled.
	err := ws.Close(websocket.StatusNormalClosure, "client close")
	cancel()
	return err
}

func (c *Client) target() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", c.cfg.URL, err)
	}
	if c.cfg.Token != "" {
		q := u.Query()
		q.Set("token", c.cfg.Token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) send(ctx context.Context, name string, data any) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return ErrNotConnected
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if c.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.WriteTimeout)
		defer cancel()
	}
	return wsjson.Write(ctx, ws, event.Frame{Event: name, Data: raw})
}

func (c *Client) readLoop(ctx context.Context, ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		var frame event.Frame
		if err := wsjson.Read(ctx, ws, &frame); err != nil {
			if !expectedDisconnect(ctx, err) {
				c.log.Warn("Read loop stopped", "error", err)
				c.dispatcher.reportError(err)
			}
			return
		}
		c.dispatcher.Dispatch(frame)
	}
}

func expectedDisconnect(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
