package runtime

import (
	"chat-hub/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type expiry struct {
	room domain.RoomID
	conn domain.ConnID
	gen  uint64
}

func TestTypingTracker_Start_Debounces(t *testing.T) {
	req := require.New(t)
	tracker := NewTypingTracker(0, nil)

	req.True(tracker.Start("chat-42", "c1", "alice"))
	req.False(tracker.Start("chat-42", "c1", "alice"))
	req.True(tracker.Start("chat-99", "c1", "alice"))
	req.True(tracker.Start("chat-42", "c2", "bob"))
	req.Equal(3, tracker.Len())
	req.True(tracker.IsTyping("chat-42", "c1"))
}

func TestTypingTracker_Stop(t *testing.T) {
	req := require.New(t)
	tracker := NewTypingTracker(time.Hour, func(domain.RoomID, domain.ConnID, uint64) {})

	tracker.Start("chat-42", "c1", "alice")

	req.True(tracker.Stop("chat-42", "c1"))
	req.False(tracker.Stop("chat-42", "c1"))
	req.False(tracker.IsTyping("chat-42", "c1"))
	req.Zero(tracker.Len())
}

func TestTypingTracker_Expire_Fires(t *testing.T) {
	req := require.New(t)
	fired := make(chan expiry, 4)
	tracker := NewTypingTracker(20*time.Millisecond, func(room domain.RoomID, conn domain.ConnID, gen uint64) {
		fired <- expiry{room: room, conn: conn, gen: gen}
	})

	// Given a typing indicator
	tracker.Start("chat-42", "c1", "alice")

	// When the timeout elapses
	var got expiry
	select {
	case got = <-fired:
	case <-time.After(time.Second):
		req.Fail("expiry should have fired")
	}

	// Then the callback identifies the entry and the generation matches once
	req.Equal(domain.RoomID("chat-42"), got.room)
	req.Equal(domain.ConnID("c1"), got.conn)
	userID, ok := tracker.Expire(got.room, got.conn, got.gen)
	req.True(ok)
	req.Equal("alice", userID)

	_, ok = tracker.Expire(got.room, got.conn, got.gen)
	req.False(ok)
}

func TestTypingTracker_Refresh_Invalidates_Previous_Generation(t *testing.T) {
	req := require.New(t)
	tracker := NewTypingTracker(time.Hour, func(domain.RoomID, domain.ConnID, uint64) {})
	defer tracker.Close()

	tracker.Start("chat-42", "c1", "alice")
	firstGen := tracker.entries[typingKey{room: "chat-42", conn: "c1"}].gen

	// When the indicator is refreshed
	tracker.Start("chat-42", "c1", "alice")

	// Then a timer armed before the refresh can no longer clear it
	_, ok := tracker.Expire("chat-42", "c1", firstGen)
	req.False(ok)
	req.True(tracker.IsTyping("chat-42", "c1"))
}

func TestTypingTracker_Stop_Cancels_Timer(t *testing.T) {
	fired := make(chan expiry, 1)
	tracker := NewTypingTracker(30*time.Millisecond, func(room domain.RoomID, conn domain.ConnID, gen uint64) {
		fired <- expiry{room: room, conn: conn, gen: gen}
	})

	tracker.Start("chat-42", "c1", "alice")
	tracker.Stop("chat-42", "c1")

	select {
	case <-fired:
		require.Fail(t, "a stopped indicator must not expire")
	case <-time.After(100 * time.Millisecond):
	}
}
