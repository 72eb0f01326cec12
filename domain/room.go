package domain

// RoomID is the persistent identifier of a chat. A live room is the set of
// connections whose current room carries that identifier.
type RoomID string

func (r RoomID) String() string {
	return string(r)
}

// IsZero reports whether no room is held.
func (r RoomID) IsZero() bool {
	return r == ""
}

// Presence is a point-in-time view of the live rooms of one instance.
type Presence struct {
	Connections int
	Identified  int
	Rooms       map[RoomID]int
	Typing      int
}
