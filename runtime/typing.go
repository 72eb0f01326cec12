package runtime

import (
	"chat-hub/domain"
	"time"
)

type typingKey struct {
	room domain.RoomID
	conn domain.ConnID
}

type typingEntry struct {
	userID string
	gen    uint64
	timer  *time.Timer
}

// ExpireFunc is called from the timer goroutine when a typing entry was not refreshed in time.
type ExpireFunc func(room domain.RoomID, conn domain.ConnID, gen uint64)

// TypingTracker holds the pending typing indicators, one per (room, connection).
// It is not safe for concurrent use: the Coordinator guards it with its own lock.
// A zero timeout disables expiry.
type TypingTracker struct {
	timeout  time.Duration
	entries  map[typingKey]*typingEntry
	nextGen  uint64
	onExpire ExpireFunc
}

func NewTypingTracker(timeout time.Duration, onExpire ExpireFunc) *TypingTracker {
	return &TypingTracker{
		timeout:  timeout,
		entries:  make(map[typingKey]*typingEntry),
		onExpire: onExpire,
	}
}

// Start records a typing signal. It returns true when no indicator was pending,
// otherwise the pending one is only refreshed.
func (t *TypingTracker) Start(room domain.RoomID, conn domain.ConnID, userID string) bool {
	key := typingKey{room: room, conn: conn}
	entry, pending := t.entries[key]
	if pending {
		entry.userID = userID
		t.arm(key, entry)
		return false
	}
	entry = &typingEntry{userID: userID}
	t.entries[key] = entry
	t.arm(key, entry)
	return true
}

// Stop clears the indicator and cancels its expiry. It reports whether one was pending.
func (t *TypingTracker) Stop(room domain.RoomID, conn domain.ConnID) bool {
	key := typingKey{room: room, conn: conn}
	entry, ok := t.entries[key]
	if !ok {
		return false
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	delete(t.entries, key)
	return true
}

// Expire removes the entry only if it still carries the generation of the fired timer.
func (t *TypingTracker) Expire(room domain.RoomID, conn domain.ConnID, gen uint64) (string, bool) {
	key := typingKey{room: room, conn: conn}
	entry, ok := t.entries[key]
	if !ok || entry.gen != gen {
		return "", false
	}
	delete(t.entries, key)
	return entry.userID, true
}

func (t *TypingTracker) IsTyping(room domain.RoomID, conn domain.ConnID) bool {
	_, ok := t.entries[typingKey{room: room, conn: conn}]
	return ok
}

func (t *TypingTracker) Len() int {
	return len(t.entries)
}

// Close cancels every pending expiry.
func (t *TypingTracker) Close() {
	for key, entry := range t.entries {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		delete(t.entries, key)
	}
}

// arm replaces the timer so a callback already in flight carries a stale generation.
func (t *TypingTracker) arm(key typingKey, entry *typingEntry) {
	if entry.timer != nil {
		entry.timer.Stop()
	}
	t.nextGen++
	entry.gen = t.nextGen
	if t.timeout <= 0 || t.onExpire == nil {
		entry.timer = nil
		return
	}
	gen := entry.gen
	entry.timer = time.AfterFunc(t.timeout, func() {
		t.onExpire(key.room, key.conn, gen)
	})
}
