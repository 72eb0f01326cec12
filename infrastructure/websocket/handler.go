package websocket

import (
	"chat-hub/auth"
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/observability"
	"chat-hub/sink"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	defaultPingTimeout  = 60 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultSendBuffer   = 64
)

type Config struct {
	AllowedOrigins []string
	AuthRequired   bool
	MaxMessageSize int64
	PingTimeout    time.Duration
	WriteTimeout   time.Duration
	SendBuffer     int
	RateLimit      float64
	RateBurst      int
}

func (c Config) withDefaults() Config {
	if c.PingTimeout <= 0 {
		c.PingTimeout = defaultPingTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = defaultSendBuffer
	}
	return c
}

// Handler upgrades HTTP requests and runs one read and one write pump per socket.
type Handler struct {
	log         *slog.Logger
	cfg         Config
	coordinator contract.ICoordinator
	tokens      *auth.TokenManager
	monitoring  *observability.MonitoringManager
	upgrader    websocket.Upgrader

	mu    sync.Mutex
	conns map[domain.ConnID]*websocket.Conn
	wg    sync.WaitGroup
}

func NewHandler(
	log *slog.Logger,
	cfg Config,
	coordinator contract.ICoordinator,
	tokens *auth.TokenManager,
	monitoring *observability.MonitoringManager,
) *Handler {
	origins := NewOriginPolicy(log, cfg.AllowedOrigins)
	return &Handler{
		log:         log,
		cfg:         cfg.withDefaults(),
		coordinator: coordinator,
		tokens:      tokens,
		monitoring:  monitoring,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.Check,
		},
		conns: make(map[domain.ConnID]*websocket.Conn),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authenticate(r)
	if err != nil {
		h.log.Debug("Socket authentication failed", "remote", r.RemoteAddr, "error", err)
		http.Error(w, err.Error(), errors.MapToHTTPStatus(err))
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already wrote the HTTP error.
		h.log.Debug("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	id := domain.ConnID(uuid.NewString())
	out := sink.NewChannelSink(h.cfg.SendBuffer)
	c := &conn{
		id:       id,
		ws:       ws,
		out:      out,
		identity: identity,
		limiter:  newLimiter(h.cfg.RateLimit, h.cfg.RateBurst),
	}

	h.track(id, ws)
	defer h.untrack(id)

	// The request context is not cancelled until ServeHTTP returns.
	ctx := context.WithoutCancel(r.Context())
	h.coordinator.Connect(ctx, id, out)
	h.log.Debug("Connection opened", "conn_id", id, "remote", r.RemoteAddr)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.writePump(c)
	}()

	h.readPump(ctx, c)

	h.coordinator.Disconnect(ctx, id)
	out.Close()
	_ = ws.Close()
	h.log.Debug("Connection closed", "conn_id", id)
}

// Connections returns the number of open sockets.
func (h *Handler) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Shutdown sends a going-away close frame to every socket and waits for the
// write pumps to stop or ctx to end. Hijacked connections are not closed by
// http.Server.Shutdown, so this has to run alongside it.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	for id, ws := range h.conns {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown")
		if err := ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.cfg.WriteTimeout)); err != nil {
			h.log.Debug("Unable to send close frame", "conn_id", id, "error", err)
		}
		_ = ws.Close()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handler) authenticate(r *http.Request) (*auth.Identity, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if h.cfg.AuthRequired {
			return nil, errors.ErrUnauthorized
		}
		return nil, nil
	}
	if h.tokens == nil {
		return nil, nil
	}
	identity, err := h.tokens.Authenticate("Bearer " + token)
	if err != nil {
		if h.cfg.AuthRequired {
			return nil, err
		}
		return nil, nil
	}
	return &identity, nil
}

func (h *Handler) track(id domain.ConnID, ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[id] = ws
}

func (h *Handler) untrack(id domain.ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
