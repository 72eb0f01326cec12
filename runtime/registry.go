package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/errors"
	"sync"
	"time"
)

type Set map[domain.ConnID]struct{}

type session struct {
	conn domain.Connection
	sink contract.ConnectionSink
}

// Registry is the live directory of connections and room memberships.
// It is mutated only by the Coordinator, reads may come from broker deliveries.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[domain.ConnID]*session // map connection -> session
	roomMembers map[domain.RoomID]Set      // map room to connections
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[domain.ConnID]*session),
		roomMembers: make(map[domain.RoomID]Set),
	}
}

// Connect registers a new unidentified connection with its outbound sink.
// Registering an existing ID replaces its sink and keeps its state.
func (r *Registry) Connect(id domain.ConnID, sink contract.ConnectionSink) domain.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.sink = sink
		return s.conn
	}
	conn := domain.NewConnection(id, time.Now().UTC())
	r.sessions[id] = &session{conn: conn, sink: sink}
	return conn
}

// Identify attaches a user to a connection. Once set, the user id is fixed for
// the lifetime of the connection; a later call for the same user only renames it.
func (r *Registry) Identify(id domain.ConnID, userID, name string) (domain.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return domain.Connection{}, errors.ErrConnectionNotFound
	}
	if s.conn.UserID != "" && s.conn.UserID != userID {
		return s.conn, errors.ErrIdentityChanged
	}
	s.conn.UserID = userID
	s.conn.Name = name
	return s.conn, nil
}

// Move sets the current room of a connection and returns the room it held before.
// An empty room only leaves the previous one.
func (r *Registry) Move(id domain.ConnID, room domain.RoomID) (domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return "", false
	}
	prev := s.conn.Room
	if prev == room {
		return prev, true
	}
	r.leave(id, prev)
	s.conn.Room = room
	if !room.IsZero() {
		if _, ok := r.roomMembers[room]; !ok {
			r.roomMembers[room] = make(Set)
		}
		r.roomMembers[room][id] = struct{}{}
	}
	return prev, true
}

func (r *Registry) Get(id domain.ConnID) (domain.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return domain.Connection{}, false
	}
	return s.conn, true
}

// Sink returns the outbound sink of a single connection.
func (r *Registry) Sink(id domain.ConnID) (contract.ConnectionSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return s.sink, true
}

// Remove drops the connection and its room membership.
// It returns the connection as it was right before removal.
func (r *Registry) Remove(id domain.ConnID) (domain.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return domain.Connection{}, false
	}
	delete(r.sessions, id)
	r.leave(id, s.conn.Room)
	return s.conn, true
}

// GetSinksForRoom resolves the members of a room into their sinks, skipping except.
// Returns nil if the room doesn't exist or has no other members.
func (r *Registry) GetSinksForRoom(roomID domain.RoomID, except domain.ConnID) []contract.ConnectionSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	var activeSinks []contract.ConnectionSink
	for connID := range members {
		if connID == except {
			continue
		}
		if s, exists := r.sessions[connID]; exists && s.conn.Room == roomID {
			activeSinks = append(activeSinks, s.sink)
		}
	}
	return activeSinks
}

func (r *Registry) Presence() domain.Presence {
	r.mu.RLock()
	defer r.mu.RUnlock()

	presence := domain.Presence{
		Connections: len(r.sessions),
		Rooms:       make(map[domain.RoomID]int, len(r.roomMembers)),
	}
	for _, s := range r.sessions {
		if s.conn.IsIdentified() {
			presence.Identified++
		}
	}
	for room, members := range r.roomMembers {
		presence.Rooms[room] = len(members)
	}
	return presence
}

// leave must be called with the write lock held.
func (r *Registry) leave(id domain.ConnID, room domain.RoomID) {
	if room.IsZero() {
		return
	}
	if members, ok := r.roomMembers[room]; ok {
		delete(members, id)

		// If no one is left in the room, remove the room entry entirely
		if len(members) == 0 {
			delete(r.roomMembers, room)
		}
	}
}
