package services

import (
	"chat-hub/domain"
	"time"

	"github.com/samber/lo"
)

// Views are the JSON shapes served to web clients. A message view embeds its
// chat with populated users, which is what clients echo back on "new message".

type UserView struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Pic     string `json:"pic"`
	IsAdmin bool   `json:"isAdmin"`
}

// AuthView is returned by register, login and picture update.
type AuthView struct {
	UserView
	Token string `json:"token"`
}

type ChatView struct {
	ID            domain.RoomID `json:"_id"`
	ChatName      string        `json:"chatName"`
	IsGroupChat   bool          `json:"isGroupChat"`
	Users         []UserView    `json:"users"`
	GroupAdmin    *UserView     `json:"groupAdmin,omitempty"`
	LatestMessage *MessageView  `json:"latestMessage,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

type MessageView struct {
	ID        string    `json:"_id"`
	Sender    UserView  `json:"sender"`
	Content   string    `json:"content"`
	Lang      string    `json:"lang,omitempty"`
	Chat      *ChatView `json:"chat,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type MessagePage struct {
	Messages []MessageView `json:"messages"`
	Cursor   *string       `json:"cursor"`
}

type SearchResult struct {
	Messages []MessageView `json:"messages"`
	Total    uint64        `json:"total"`
}

func toUserView(user domain.User) UserView {
	return UserView{ID: user.ID, Name: user.Name, Email: user.Email, Pic: user.Pic, IsAdmin: user.IsAdmin}
}

func toUserViews(users []domain.User) []UserView {
	return lo.Map(users, func(u domain.User, _ int) UserView { return toUserView(u) })
}

// toChatView expects users to hold every member of chat.
func toChatView(chat domain.Chat, users []domain.User) ChatView {
	view := ChatView{
		ID:          chat.ID,
		ChatName:    chat.Name,
		IsGroupChat: chat.IsGroup,
		Users:       toUserViews(users),
		CreatedAt:   chat.CreatedAt,
		UpdatedAt:   chat.UpdatedAt,
	}
	if admin, found := lo.Find(users, func(u domain.User) bool { return u.ID == chat.GroupAdmin }); found && chat.IsGroup {
		view.GroupAdmin = lo.ToPtr(toUserView(admin))
	}
	return view
}

func toMessageView(message domain.Message, sender domain.User, chat *ChatView) MessageView {
	return MessageView{
		ID:        message.ID,
		Sender:    toUserView(sender),
		Content:   message.Content,
		Lang:      message.Lang,
		Chat:      chat,
		CreatedAt: message.CreatedAt,
	}
}
