// Package domain contains core concepts of the chat system.
// This file defines live connections and their lifecycle.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// ConnID identifies one live transport session, distinct from the user account.
type ConnID string

type ConnState int

const (
	StateUnidentified ConnState = iota
	StateIdentified
	StateJoinedRoom
)

func (s ConnState) String() string {
	switch s {
	case StateIdentified:
		return "identified"
	case StateJoinedRoom:
		return "joined_room"
	default:
		return "unidentified"
	}
}

// Connection is the coordinator's view of a client session.
// UserID and Name are empty until setup, Room is empty until the first join.
type Connection struct {
	ID          ConnID
	UserID      string
	Name        string
	Room        RoomID
	ConnectedAt time.Time
}

func NewConnection(id ConnID, at time.Time) Connection {
	return Connection{ID: id, ConnectedAt: at}
}

func (c Connection) IsIdentified() bool {
	return c.UserID != ""
}

// InRoom reports whether the connection currently holds the given room.
func (c Connection) InRoom(room RoomID) bool {
	return !c.Room.IsZero() && c.Room == room
}

func (c Connection) State() ConnState {
	switch {
	case !c.Room.IsZero():
		return StateJoinedRoom
	case c.IsIdentified():
		return StateIdentified
	default:
		return StateUnidentified
	}
}
