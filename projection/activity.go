// Package projection builds local views from observed room events.
// Handles aggregation only.
// Does not emit events or interact with connections directly.
package projection

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"context"
	"sort"
	"sync"
	"time"
)

// RoomActivity counts what happened in one room on this instance.
type RoomActivity struct {
	Room          domain.RoomID
	Messages      int
	TypingStarts  int
	TypingExpired int
	Joins         int
	Leaves        int
	LastMessageID string
	LastActivity  time.Time
}

// Activity is a permanent sink fed by the event fanout.
type Activity struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*RoomActivity
	now   func() time.Time
}

func NewActivity() *Activity {
	return &Activity{
		rooms: make(map[domain.RoomID]*RoomActivity),
		now:   time.Now,
	}
}

func (a *Activity) Consume(_ context.Context, e event.DomainEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	room, ok := a.rooms[e.RoomID()]
	if !ok {
		room = &RoomActivity{Room: e.RoomID()}
		a.rooms[e.RoomID()] = room
	}
	room.LastActivity = a.now().UTC()

	switch evt := e.(type) {
	case event.MessageReceived:
		room.Messages++
		room.LastMessageID = evt.MsgID
	case event.Typing:
		room.TypingStarts++
	case event.StopTyping:
		if evt.Expired {
			room.TypingExpired++
		}
	case event.RoomJoined:
		room.Joins++
		room.LastActivity = evt.At
	case event.RoomLeft:
		room.Leaves++
		room.LastActivity = evt.At
	}
	return nil
}

func (a *Activity) Room(id domain.RoomID) (RoomActivity, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	room, ok := a.rooms[id]
	if !ok {
		return RoomActivity{}, false
	}
	return *room, true
}

// Snapshot returns every room, most recently active first.
func (a *Activity) Snapshot() []RoomActivity {
	a.mu.RLock()
	rooms := make([]RoomActivity, 0, len(a.rooms))
	for _, room := range a.rooms {
		rooms = append(rooms, *room)
	}
	a.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].LastActivity.Equal(rooms[j].LastActivity) {
			return rooms[i].Room < rooms[j].Room
		}
		return rooms[i].LastActivity.After(rooms[j].LastActivity)
	})
	return rooms
}
