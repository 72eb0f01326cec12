package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/observability"
	"context"
	"log/slog"
	"sync"
	"time"
)

// Coordinator owns the room membership and typing state of one hub instance.
//
// Every command runs as one atomic step under mu: local members are served
// before the lock is released, other instances are reached through the broker
// afterwards so no network call happens while the state is held. Broadcasts
// still reach the broker in the order the steps were applied, timer expiries included.
//
// Misuse (unknown connection, stale room, incomplete message) is dropped and logged.
type Coordinator struct {
	log        *slog.Logger
	mu         sync.Mutex
	instanceID string
	registry   contract.IRegistry
	typing     *TypingTracker
	broker     contract.Broker
	order      *sequencer
	telemetry  chan event.DomainEvent
	monitoring *observability.MonitoringManager
	now        func() time.Time
}

func NewCoordinator(
	log *slog.Logger,
	instanceID string,
	registry contract.IRegistry,
	broker contract.Broker,
	telemetry chan event.DomainEvent,
	monitoring *observability.MonitoringManager,
	typingTimeout time.Duration,
) *Coordinator {
	c := &Coordinator{
		log:        log,
		instanceID: instanceID,
		registry:   registry,
		broker:     broker,
		order:      newSequencer(),
		telemetry:  telemetry,
		monitoring: monitoring,
		now:        time.Now,
	}
	c.typing = NewTypingTracker(typingTimeout, c.expireTyping)
	return c
}

func (c *Coordinator) InstanceID() string {
	return c.instanceID
}

// Connect registers a live connection. It stays unidentified until setup.
func (c *Coordinator) Connect(_ context.Context, id domain.ConnID, sink contract.ConnectionSink) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.registry.Connect(id, sink)
	c.log.Debug("Connection opened", "conn_id", id)
}

// Handle routes a decoded command to its operation.
func (c *Coordinator) Handle(ctx context.Context, id domain.ConnID, cmd domain.Command) {
	switch cmd := cmd.(type) {
	case domain.SetupCommand:
		c.Setup(ctx, id, cmd)
	case domain.JoinChatCommand:
		c.JoinRoom(ctx, id, cmd.Room)
	case domain.NewMessageCommand:
		c.SendMessage(ctx, id, cmd)
	case domain.TypingCommand:
		c.Typing(ctx, id, cmd.Room)
	case domain.StopTypingCommand:
		c.StopTyping(ctx, id, cmd.Room)
	default:
		c.log.Warn("Command dropped", "conn_id", id, "error", errors.ErrUnknownEvent)
	}
}

// Setup attaches the user identity and acknowledges the caller only.
// A repeated setup may rename the user but never switch to another user id.
func (c *Coordinator) Setup(_ context.Context, id domain.ConnID, cmd domain.SetupCommand) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.registry.Identify(id, cmd.UserID, cmd.Name)
	if err != nil {
		c.log.Warn("Setup dropped", "conn_id", id, "user_id", cmd.UserID, "error", err)
		return
	}
	c.log.Debug("Connection identified", "conn_id", id, "user_id", conn.UserID)

	sink, ok := c.registry.Sink(id)
	if !ok {
		return
	}
	frame, err := event.EncodeFrame(domain.EventConnected, nil)
	if err != nil {
		c.log.Error("Unable to encode frame", "event", domain.EventConnected, "error", err)
		return
	}
	c.send(sink, frame)
}

// JoinRoom moves the connection into room. The previous room, if any, receives
// a stop typing for this user and loses the connection. Joining the held room is a no-op.
func (c *Coordinator) JoinRoom(ctx context.Context, id domain.ConnID, room domain.RoomID) {
	if room.IsZero() {
		c.log.Debug("Join dropped", "conn_id", id, "error", errors.ErrMissingRoom)
		return
	}

	c.mu.Lock()
	conn, ok := c.registry.Get(id)
	if !ok {
		c.mu.Unlock()
		c.log.Debug("Join dropped", "conn_id", id, "error", errors.ErrConnectionNotFound)
		return
	}
	if conn.InRoom(room) {
		c.mu.Unlock()
		return
	}

	var outgoing []event.Envelope
	if !conn.Room.IsZero() {
		outgoing = c.leave(conn, false)
	}
	c.registry.Move(id, room)
	c.emitTelemetry(event.RoomJoined{Conn: id, UserID: conn.UserID, Room: room, At: c.now().UTC()})
	c.log.Debug("Room joined", "conn_id", id, "room_id", room, "previous_room_id", conn.Room)
	c.unlockAndPublish(ctx, outgoing...)
}

// SendMessage fans a persisted message out to the other members of its chat room.
// The payload is forwarded as received.
func (c *Coordinator) SendMessage(ctx context.Context, id domain.ConnID, cmd domain.NewMessageCommand) {
	if err := cmd.Validate(); err != nil {
		c.log.Warn("Message dropped", "conn_id", id, "error", err)
		return
	}

	c.mu.Lock()
	conn, ok := c.registry.Get(id)
	if !ok {
		c.mu.Unlock()
		c.log.Debug("Message dropped", "conn_id", id, "error", errors.ErrConnectionNotFound)
		return
	}
	env, ok := c.broadcast(id, event.MessageReceived{
		Room:     cmd.Room(),
		MsgID:    cmd.ID,
		SenderID: conn.UserID,
		Payload:  cmd.Payload,
	})
	if !ok {
		c.mu.Unlock()
		return
	}
	c.unlockAndPublish(ctx, env)
}

// Typing announces the caller in room, once per pending indicator.
// Repeated signals only push the expiry back.
func (c *Coordinator) Typing(ctx context.Context, id domain.ConnID, room domain.RoomID) {
	c.mu.Lock()
	conn, ok := c.typingAllowed(id, room)
	if !ok {
		c.mu.Unlock()
		return
	}
	if !c.typing.Start(room, id, conn.UserID) {
		c.mu.Unlock()
		return
	}
	env, ok := c.broadcast(id, event.Typing{UserID: conn.UserID, DisplayName: conn.Name, Room: room})
	if !ok {
		c.mu.Unlock()
		return
	}
	c.unlockAndPublish(ctx, env)
}

// StopTyping clears the caller's indicator in room.
func (c *Coordinator) StopTyping(ctx context.Context, id domain.ConnID, room domain.RoomID) {
	c.mu.Lock()
	conn, ok := c.typingAllowed(id, room)
	if !ok {
		c.mu.Unlock()
		return
	}
	c.typing.Stop(room, id)
	env, ok := c.broadcast(id, event.StopTyping{UserID: conn.UserID, Room: room})
	if !ok {
		c.mu.Unlock()
		return
	}
	c.unlockAndPublish(ctx, env)
}

// Disconnect is terminal: the held room gets a stop typing and the connection is forgotten.
func (c *Coordinator) Disconnect(ctx context.Context, id domain.ConnID) {
	c.mu.Lock()
	conn, ok := c.registry.Get(id)
	if !ok {
		c.mu.Unlock()
		c.log.Debug("Disconnect ignored", "conn_id", id, "error", errors.ErrConnectionNotFound)
		return
	}
	var outgoing []event.Envelope
	if !conn.Room.IsZero() {
		outgoing = c.leave(conn, true)
	}
	c.registry.Remove(id)
	c.log.Debug("Connection closed", "conn_id", id, "room_id", conn.Room)
	c.unlockAndPublish(ctx, outgoing...)
}

// Deliver serves the local members of a broadcast published by another instance.
func (c *Coordinator) Deliver(_ context.Context, env event.Envelope) {
	if env.Origin == c.instanceID {
		return
	}
	c.monitoring.IncrRelayed()
	c.deliverLocal(env)
}

// Snapshot returns the live rooms of this instance.
func (c *Coordinator) Snapshot() domain.Presence {
	c.mu.Lock()
	defer c.mu.Unlock()

	presence := c.registry.Presence()
	presence.Typing = c.typing.Len()
	return presence
}

// Close cancels pending typing expiries.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.typing.Close()
}

// expireTyping runs on the timer goroutine and publishes in turn with the commands.
func (c *Coordinator) expireTyping(room domain.RoomID, id domain.ConnID, gen uint64) {
	c.mu.Lock()
	userID, ok := c.typing.Expire(room, id, gen)
	if !ok {
		c.mu.Unlock()
		return
	}
	if conn, found := c.registry.Get(id); !found || !conn.InRoom(room) {
		c.mu.Unlock()
		return
	}
	env, ok := c.broadcast(id, event.StopTyping{UserID: userID, Room: room, Expired: true})
	c.log.Debug("Typing expired", "conn_id", id, "room_id", room)
	if !ok {
		c.mu.Unlock()
		return
	}
	c.unlockAndPublish(context.Background(), env)
}

// typingAllowed must be called with mu held.
func (c *Coordinator) typingAllowed(id domain.ConnID, room domain.RoomID) (domain.Connection, bool) {
	conn, ok := c.registry.Get(id)
	if !ok {
		c.log.Debug("Typing dropped", "conn_id", id, "error", errors.ErrConnectionNotFound)
		return domain.Connection{}, false
	}
	if !conn.IsIdentified() {
		c.log.Debug("Typing dropped", "conn_id", id, "error", errors.ErrNotIdentified)
		return domain.Connection{}, false
	}
	if !conn.InRoom(room) {
		c.log.Debug("Typing dropped", "conn_id", id, "room_id", room, "error", errors.ErrNotInRoom)
		return domain.Connection{}, false
	}
	return conn, true
}

// leave clears the typing indicator of conn in its room and tells the others.
// It must be called with mu held and before the registry forgets the room.
func (c *Coordinator) leave(conn domain.Connection, disconnected bool) []event.Envelope {
	room := conn.Room
	c.typing.Stop(room, conn.ID)
	c.emitTelemetry(event.RoomLeft{
		Conn:         conn.ID,
		UserID:       conn.UserID,
		Room:         room,
		Disconnected: disconnected,
		At:           c.now().UTC(),
	})
	if !conn.IsIdentified() {
		return nil
	}
	env, ok := c.broadcast(conn.ID, event.StopTyping{UserID: conn.UserID, Room: room})
	if !ok {
		return nil
	}
	return []event.Envelope{env}
}

// broadcast serves the local members of the event's room except the emitter
// and returns the envelope still to be published. It must be called with mu held.
func (c *Coordinator) broadcast(except domain.ConnID, evt event.DomainEvent) (event.Envelope, bool) {
	env, err := event.NewEnvelope(c.instanceID, except, evt, c.now().UTC())
	if err != nil {
		c.log.Error("Unable to encode event", "event", evt.Name(), "room_id", evt.RoomID(), "error", err)
		return event.Envelope{}, false
	}
	c.deliverLocal(env)
	c.emitTelemetry(evt)
	return env, true
}

func (c *Coordinator) deliverLocal(env event.Envelope) {
	sinks := c.registry.GetSinksForRoom(env.Room, env.Except)
	if len(sinks) == 0 {
		return
	}
	frame, err := env.Frame()
	if err != nil {
		c.log.Error("Unable to encode frame", "event", env.Event, "error", err)
		return
	}
	for _, sink := range sinks {
		c.send(sink, frame)
	}
}

func (c *Coordinator) send(sink contract.ConnectionSink, frame []byte) {
	if sink.Send(frame) {
		c.monitoring.IncrFramesSent()
		return
	}
	c.monitoring.IncrFramesDropped()
}

// unlockAndPublish releases mu, then hands envelopes to the broker once every
// broadcast of an earlier step is published. It must be called with mu held.
func (c *Coordinator) unlockAndPublish(ctx context.Context, envelopes ...event.Envelope) {
	if c.broker == nil || len(envelopes) == 0 {
		c.mu.Unlock()
		return
	}
	turn := c.order.take()
	c.mu.Unlock()

	c.order.wait(turn)
	defer c.order.done()
	for _, env := range envelopes {
		if err := c.broker.Publish(ctx, env); err != nil {
			c.monitoring.IncrPublishErrors()
			c.log.Warn("Broadcast not published", "room_id", env.Room, "event", env.Event, "error", err)
			continue
		}
		c.monitoring.IncrPublished()
	}
}

func (c *Coordinator) emitTelemetry(evt event.DomainEvent) {
	if c.telemetry == nil {
		return
	}
	select {
	case c.telemetry <- evt:
	default:
		c.monitoring.IncrTelemetryLost()
		c.log.Debug("Observability telemetry event lost", "event", evt.Name())
	}
}
