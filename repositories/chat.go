//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=../mocks/mock_chat_repository.go -package=mocks
package repositories

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

const (
	chatPrefix     = "chat:"
	userChatPrefix = "user-chat:"

	// Concurrent transactions on the same chat abort with badger.ErrConflict
	maxUpdateAttempts = 10
)

type IChatRepository interface {
	SaveChat(chat domain.Chat) error
	UpdateChat(id domain.RoomID, change func(chat *domain.Chat) error) (domain.Chat, error)
	GetChat(id domain.RoomID) (domain.Chat, error)
	FindDirectChat(userA, userB string) (domain.Chat, bool, error)
	GetChatsForUser(userID string) ([]domain.Chat, error)
}

// ChatRepository stores chats under "chat:{id}" and maintains a
// "user-chat:{user}:{chat}" membership index used to list a user's chats.
type ChatRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewChatRepository(db *badger.DB, log *slog.Logger) *ChatRepository {
	return &ChatRepository{db: db, log: log}
}

// SaveChat creates or replaces a chat and keeps the membership index in sync.
func (c *ChatRepository) SaveChat(chat domain.Chat) error {
	return c.db.Update(func(txn *badger.Txn) error {
		previous, err := getChat(txn, chat.ID)
		if err != nil && !errors.Is(err, errors.ErrChatNotFound) {
			return err
		}
		return putChat(txn, previous, chat)
	})
}

// UpdateChat reads the chat, applies change and writes it back in one transaction.
// The whole read-change-write is replayed when another writer commits the chat first.
// An error returned by change aborts the update untouched.
func (c *ChatRepository) UpdateChat(id domain.RoomID, change func(chat *domain.Chat) error) (domain.Chat, error) {
	var updated domain.Chat
	for attempt := 1; ; attempt++ {
		err := c.db.Update(func(txn *badger.Txn) error {
			previous, err := getChat(txn, id)
			if err != nil {
				return err
			}
			next := previous
			next.Users = append([]string(nil), previous.Users...)
			if err := change(&next); err != nil {
				return err
			}
			next.ID = id
			updated = next
			return putChat(txn, previous, next)
		})
		if errors.Is(err, badger.ErrConflict) && attempt < maxUpdateAttempts {
			c.log.Debug("Chat update conflict, retrying", "room_id", id, "attempt", attempt)
			continue
		}
		if err != nil {
			return domain.Chat{}, err
		}
		return updated, nil
	}
}

func putChat(txn *badger.Txn, previous, chat domain.Chat) error {
	data, err := encodeChat(chat)
	if err != nil {
		return err
	}
	removed, _ := lo.Difference(previous.Users, chat.Users)
	for _, userID := range removed {
		if err := txn.Delete(userChatKey(userID, chat.ID)); err != nil {
			return err
		}
	}
	for _, userID := range chat.Users {
		if err := txn.Set(userChatKey(userID, chat.ID), nil); err != nil {
			return err
		}
	}
	return txn.Set([]byte(chatPrefix+string(chat.ID)), data)
}

func (c *ChatRepository) GetChat(id domain.RoomID) (domain.Chat, error) {
	var chat domain.Chat
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		chat, err = getChat(txn, id)
		return err
	})
	return chat, err
}

// FindDirectChat returns the one to one chat between both users, if any.
func (c *ChatRepository) FindDirectChat(userA, userB string) (domain.Chat, bool, error) {
	chats, err := c.GetChatsForUser(userA)
	if err != nil {
		return domain.Chat{}, false, err
	}
	chat, found := lo.Find(chats, func(chat domain.Chat) bool {
		return !chat.IsGroup && len(chat.Users) == 2 && chat.HasMember(userA) && chat.HasMember(userB)
	})
	return chat, found, nil
}

// GetChatsForUser lists the chats of a user, most recently updated first.
func (c *ChatRepository) GetChatsForUser(userID string) ([]domain.Chat, error) {
	var chats []domain.Chat
	err := c.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false // The chat ID is in the key
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(fmt.Sprintf("%s%s:", userChatPrefix, userID))
		var ids []domain.RoomID
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, domain.RoomID(it.Item().Key()[len(prefix):]))
		}
		for _, id := range ids {
			chat, err := getChat(txn, id)
			if errors.Is(err, errors.ErrChatNotFound) {
				c.log.Warn("Dangling chat membership", "user_id", userID, "room_id", id)
				continue
			}
			if err != nil {
				return err
			}
			chats = append(chats, chat)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(chats, func(i, j int) bool { return chats[i].UpdatedAt.After(chats[j].UpdatedAt) })
	return chats, nil
}

func getChat(txn *badger.Txn, id domain.RoomID) (domain.Chat, error) {
	item, err := txn.Get([]byte(chatPrefix + string(id)))
	if err != nil {
		return domain.Chat{}, notFound(err, errors.ErrChatNotFound)
	}
	var chat domain.Chat
	err = item.Value(func(val []byte) error {
		chat, err = decodeChat(val)
		return err
	})
	return chat, err
}

func userChatKey(userID string, chatID domain.RoomID) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", userChatPrefix, userID, chatID))
}

func encodeChat(chat domain.Chat) ([]byte, error) {
	return encode(map[string]any{
		"id":             string(chat.ID),
		"name":           chat.Name,
		"is_group":       chat.IsGroup,
		"users":          toAnySlice(chat.Users),
		"group_admin":    chat.GroupAdmin,
		"latest_message": chat.LatestMessage,
		"created_at":     formatTime(chat.CreatedAt),
		"updated_at":     formatTime(chat.UpdatedAt),
	})
}

func decodeChat(data []byte) (domain.Chat, error) {
	r, err := decode(data)
	if err != nil {
		return domain.Chat{}, err
	}
	return domain.Chat{
		ID:            domain.RoomID(r.str("id")),
		Name:          r.str("name"),
		IsGroup:       r.boolean("is_group"),
		Users:         r.strings("users"),
		GroupAdmin:    r.str("group_admin"),
		LatestMessage: r.str("latest_message"),
		CreatedAt:     r.time("created_at"),
		UpdatedAt:     r.time("updated_at"),
	}, nil
}
