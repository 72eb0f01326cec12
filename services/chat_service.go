//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// minGroupMembers is the number of members a group needs besides its creator.
const minGroupMembers = 2

type IChatService interface {
	AccessChat(callerID, userID string) (ChatView, error)
	FetchChats(callerID string) ([]ChatView, error)
	CreateGroup(callerID, name string, userIDs []string) (ChatView, error)
	RenameGroup(callerID string, chatID domain.RoomID, name string) (ChatView, error)
	AddToGroup(callerID string, chatID domain.RoomID, userID string) (ChatView, error)
	RemoveFromGroup(callerID string, chatID domain.RoomID, userID string) (ChatView, error)
	MemberChat(callerID string, chatID domain.RoomID) (domain.Chat, error)
}

type ChatService struct {
	log               *slog.Logger
	chatRepository    repositories.IChatRepository
	userRepository    repositories.IUserRepository
	messageRepository repositories.IMessageRepository
	now               func() time.Time
}

func NewChatService(
	log *slog.Logger,
	chatRepository repositories.IChatRepository,
	userRepository repositories.IUserRepository,
	messageRepository repositories.IMessageRepository,
) *ChatService {
	return &ChatService{
		log:               log,
		chatRepository:    chatRepository,
		userRepository:    userRepository,
		messageRepository: messageRepository,
		now:               time.Now,
	}
}

// AccessChat returns the one to one chat between the caller and userID, creating it on first access.
func (s *ChatService) AccessChat(callerID, userID string) (ChatView, error) {
	if userID == "" || userID == callerID {
		return ChatView{}, fmt.Errorf("%w: userId must designate another user", errors.ErrInvalidRequest)
	}
	if _, err := s.userRepository.GetUserByID(userID); err != nil {
		return ChatView{}, err
	}

	chat, found, err := s.chatRepository.FindDirectChat(callerID, userID)
	if err != nil {
		return ChatView{}, err
	}
	if !found {
		now := s.now().UTC()
		chat = domain.Chat{
			ID:        domain.RoomID(uuid.New().String()),
			Name:      "sender",
			Users:     []string{callerID, userID},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.chatRepository.SaveChat(chat); err != nil {
			return ChatView{}, err
		}
		s.log.Debug("Direct chat created", "room_id", chat.ID)
	}
	return s.populate(chat)
}

// FetchChats lists the chats of the caller, most recently updated first.
func (s *ChatService) FetchChats(callerID string) ([]ChatView, error) {
	chats, err := s.chatRepository.GetChatsForUser(callerID)
	if err != nil {
		return nil, err
	}
	views := make([]ChatView, 0, len(chats))
	for _, chat := range chats {
		view, err := s.populate(chat)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// CreateGroup creates a named group administered by the caller.
func (s *ChatService) CreateGroup(callerID, name string, userIDs []string) (ChatView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ChatView{}, fmt.Errorf("%w: name is required", errors.ErrInvalidRequest)
	}
	others := lo.Without(lo.Uniq(lo.Compact(userIDs)), callerID)
	if len(others) < minGroupMembers {
		return ChatView{}, errors.ErrGroupTooSmall
	}
	if _, err := s.userRepository.GetUsersByIDs(others); err != nil {
		return ChatView{}, err
	}

	now := s.now().UTC()
	chat := domain.Chat{
		ID:         domain.RoomID(uuid.New().String()),
		Name:       name,
		IsGroup:    true,
		Users:      append(others, callerID),
		GroupAdmin: callerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.chatRepository.SaveChat(chat); err != nil {
		return ChatView{}, err
	}
	s.log.Debug("Group created", "room_id", chat.ID, "members", len(chat.Users))
	return s.populate(chat)
}

func (s *ChatService) RenameGroup(callerID string, chatID domain.RoomID, name string) (ChatView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ChatView{}, fmt.Errorf("%w: chatName is required", errors.ErrInvalidRequest)
	}
	return s.update(chatID, func(chat *domain.Chat) error {
		if err := adminOf(callerID, *chat); err != nil {
			return err
		}
		chat.Name = name
		s.touch(chat)
		return nil
	})
}

// AddToGroup is a no-op when userID is already a member.
func (s *ChatService) AddToGroup(callerID string, chatID domain.RoomID, userID string) (ChatView, error) {
	if _, err := s.userRepository.GetUserByID(userID); err != nil {
		return ChatView{}, err
	}
	return s.update(chatID, func(chat *domain.Chat) error {
		if err := adminOf(callerID, *chat); err != nil {
			return err
		}
		if chat.HasMember(userID) {
			return nil
		}
		chat.Users = append(chat.Users, userID)
		s.touch(chat)
		return nil
	})
}

// RemoveFromGroup lets the admin remove anyone and any member leave on their own.
// An admin leaving hands the group over to the oldest remaining member.
func (s *ChatService) RemoveFromGroup(callerID string, chatID domain.RoomID, userID string) (ChatView, error) {
	return s.update(chatID, func(chat *domain.Chat) error {
		if !chat.IsGroup {
			return errors.ErrNotGroupChat
		}
		if chat.GroupAdmin != callerID && userID != callerID {
			return errors.ErrNotGroupAdmin
		}
		if !chat.HasMember(userID) {
			return errors.ErrNotChatMember
		}
		chat.Users = lo.Without(chat.Users, userID)
		if chat.GroupAdmin == userID && len(chat.Users) > 0 {
			chat.GroupAdmin = chat.Users[0]
		}
		s.touch(chat)
		return nil
	})
}

// MemberChat returns the chat if the caller belongs to it.
func (s *ChatService) MemberChat(callerID string, chatID domain.RoomID) (domain.Chat, error) {
	chat, err := s.chatRepository.GetChat(chatID)
	if err != nil {
		return domain.Chat{}, err
	}
	if !chat.HasMember(callerID) {
		return domain.Chat{}, errors.ErrNotChatMember
	}
	return chat, nil
}

func adminOf(callerID string, chat domain.Chat) error {
	if !chat.IsGroup {
		return errors.ErrNotGroupChat
	}
	if chat.GroupAdmin != callerID {
		return errors.ErrNotGroupAdmin
	}
	return nil
}

// update applies change atomically against the stored chat, so concurrent
// membership edits never overwrite each other.
func (s *ChatService) update(chatID domain.RoomID, change func(chat *domain.Chat) error) (ChatView, error) {
	chat, err := s.chatRepository.UpdateChat(chatID, change)
	if err != nil {
		return ChatView{}, err
	}
	return s.populate(chat)
}

func (s *ChatService) touch(chat *domain.Chat) {
	chat.UpdatedAt = s.now().UTC()
}

// populate loads the members and the latest message of a chat.
func (s *ChatService) populate(chat domain.Chat) (ChatView, error) {
	users, err := s.userRepository.GetUsersByIDs(chat.Users)
	if err != nil {
		return ChatView{}, err
	}
	view := toChatView(chat, users)
	if chat.LatestMessage == "" {
		return view, nil
	}

	latest, err := s.messageRepository.GetMessage(chat.LatestMessage)
	if err != nil {
		s.log.Warn("Latest message unavailable", "room_id", chat.ID, "error", err)
		return view, nil
	}
	sender, found := lo.Find(users, func(u domain.User) bool { return u.ID == latest.SenderID })
	if !found {
		if sender, err = s.userRepository.GetUserByID(latest.SenderID); err != nil {
			s.log.Warn("Latest message sender unavailable", "room_id", chat.ID, "error", err)
			return view, nil
		}
	}
	view.LatestMessage = lo.ToPtr(toMessageView(latest, sender, nil))
	return view, nil
}
