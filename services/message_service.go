//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/moderation"
	"chat-hub/repositories"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"
)

type IMessageService interface {
	Send(ctx context.Context, callerID string, chatID domain.RoomID, content string) (MessageView, error)
	List(callerID string, chatID domain.RoomID, cursor *string) (MessagePage, error)
	Search(ctx context.Context, callerID string, chatID domain.RoomID, query string) (SearchResult, error)
}

// MessageService persists chat messages. Real-time delivery is left to the
// client, which forwards the returned view on its socket.
type MessageService struct {
	log               *slog.Logger
	chats             IChatService
	userRepository    repositories.IUserRepository
	messageRepository repositories.IMessageRepository
	chatRepository    repositories.IChatRepository
	index             repositories.IMessageIndex
	moderator         *moderation.Moderator
	searchLimit       int
	now               func() time.Time
}

// NewMessageService builds the service. A nil moderator disables censoring.
func NewMessageService(
	log *slog.Logger,
	chats IChatService,
	userRepository repositories.IUserRepository,
	messageRepository repositories.IMessageRepository,
	chatRepository repositories.IChatRepository,
	index repositories.IMessageIndex,
	moderator *moderation.Moderator,
	searchLimit int,
) *MessageService {
	return &MessageService{
		log:               log,
		chats:             chats,
		userRepository:    userRepository,
		messageRepository: messageRepository,
		chatRepository:    chatRepository,
		index:             index,
		moderator:         moderator,
		searchLimit:       searchLimit,
		now:               time.Now,
	}
}

// Send stores a message from a chat member and makes it the chat's latest message.
// The language is detected on the raw content, which is then censored before storage.
func (s *MessageService) Send(_ context.Context, callerID string, chatID domain.RoomID, content string) (MessageView, error) {
	content = strings.TrimSpace(content)
	if content == "" || chatID.IsZero() {
		return MessageView{}, fmt.Errorf("%w: content and chatId are required", errors.ErrInvalidRequest)
	}
	chat, err := s.chats.MemberChat(callerID, chatID)
	if err != nil {
		return MessageView{}, err
	}

	lang := detectLang(content)
	if s.moderator != nil {
		censored, words := s.moderator.Censor(content)
		if len(words) > 0 {
			s.log.Info("Message censored", "room_id", chatID, "user_id", callerID, "words", len(words))
		}
		content = censored
	}

	message, err := s.messageRepository.StoreMessage(domain.Message{
		ChatID:    chatID,
		SenderID:  callerID,
		Content:   content,
		Lang:      lang,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return MessageView{}, err
	}

	chat, err = s.chatRepository.UpdateChat(chatID, func(chat *domain.Chat) error {
		chat.LatestMessage = message.ID
		if message.CreatedAt.After(chat.UpdatedAt) {
			chat.UpdatedAt = message.CreatedAt
		}
		return nil
	})
	if err != nil {
		return MessageView{}, err
	}
	if err := s.index.Index(message); err != nil {
		// Search lags behind but the message is stored
		s.log.Warn("Message not indexed", "message_id", message.ID, "error", err)
	}

	users, err := s.userRepository.GetUsersByIDs(chat.Users)
	if err != nil {
		return MessageView{}, err
	}
	sender, _ := lo.Find(users, func(u domain.User) bool { return u.ID == callerID })
	chatView := toChatView(chat, users)
	return toMessageView(message, sender, &chatView), nil
}

// List returns one page of the chat history, oldest first, and the cursor of the previous page.
func (s *MessageService) List(callerID string, chatID domain.RoomID, cursor *string) (MessagePage, error) {
	chat, err := s.chats.MemberChat(callerID, chatID)
	if err != nil {
		return MessagePage{}, err
	}
	messages, next, err := s.messageRepository.GetMessages(chatID, cursor)
	if err != nil {
		return MessagePage{}, err
	}
	views, err := s.views(chat, messages)
	if err != nil {
		return MessagePage{}, err
	}
	return MessagePage{Messages: views, Cursor: next}, nil
}

// Search runs a full-text query over the chat, newest matches first.
func (s *MessageService) Search(ctx context.Context, callerID string, chatID domain.RoomID, query string) (SearchResult, error) {
	chat, err := s.chats.MemberChat(callerID, chatID)
	if err != nil {
		return SearchResult{}, err
	}
	if strings.TrimSpace(query) == "" {
		return SearchResult{}, fmt.Errorf("%w: q is required", errors.ErrInvalidRequest)
	}
	ids, total, err := s.index.Search(ctx, chatID, query, s.searchLimit)
	if err != nil {
		return SearchResult{}, err
	}

	messages := make([]domain.Message, 0, len(ids))
	for _, id := range ids {
		message, err := s.messageRepository.GetMessage(id)
		if errors.Is(err, errors.ErrMessageNotFound) {
			s.log.Warn("Indexed message missing from store", "message_id", id)
			continue
		}
		if err != nil {
			return SearchResult{}, err
		}
		messages = append(messages, message)
	}
	views, err := s.views(chat, messages)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Messages: views, Total: total}, nil
}

// views resolves senders once per page. Former members are looked up individually.
func (s *MessageService) views(chat domain.Chat, messages []domain.Message) ([]MessageView, error) {
	senders := make(map[string]domain.User)
	views := make([]MessageView, 0, len(messages))
	for _, message := range messages {
		sender, ok := senders[message.SenderID]
		if !ok {
			user, err := s.userRepository.GetUserByID(message.SenderID)
			if err != nil && !errors.Is(err, errors.ErrUserNotFound) {
				return nil, err
			}
			if err != nil {
				user = domain.User{ID: message.SenderID}
			}
			sender = user
			senders[message.SenderID] = sender
		}
		views = append(views, toMessageView(message, sender, &ChatView{ID: chat.ID, ChatName: chat.Name, IsGroupChat: chat.IsGroup}))
	}
	return views, nil
}

// detectLang returns the ISO 639-1 code of content, or "" when detection is unreliable.
func detectLang(content string) string {
	info := whatlanggo.Detect(content)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
