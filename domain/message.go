// Package domain contains core concepts of the chat system.
// This file defines the persisted accounts, chats and messages.
package domain

import (
	"time"

	"github.com/samber/lo"
)

// DefaultPic is assigned to users registering without an avatar.
const DefaultPic = "https://icon-library.com/images/anonymous-avatar-icon/anonymous-avatar-icon-25.jpg"

type User struct {
	ID           string
	Name         string
	Email        string
	Pic          string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// Roles returns the token roles of the user.
func (u User) Roles() []string {
	if u.IsAdmin {
		return []string{"user", "admin"}
	}
	return []string{"user"}
}

// Chat is either a one to one conversation or a named group.
type Chat struct {
	ID            RoomID
	Name          string
	IsGroup       bool
	Users         []string
	GroupAdmin    string
	LatestMessage string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (c Chat) HasMember(userID string) bool {
	return lo.Contains(c.Users, userID)
}

// Message represents an immutable chat message.
type Message struct {
	ID        string
	ChatID    RoomID
	SenderID  string
	Content   string
	Lang      string
	CreatedAt time.Time
}
