//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	messagePrefix   = "msg:"
	messageIDPrefix = "msg-id:"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) (domain.Message, error)
	GetMessage(id string) (domain.Message, error)
	GetMessages(chatID domain.RoomID, cursor *string) ([]domain.Message, *string, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// StoreMessage persists a message in BadgerDB, generating its ID and timestamp when missing.
// The key is formatted as "msg:{chat_id}:{timestamp_padded}:{id}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using the ID as a tie breaker if two messages
//     arrive at the same nanosecond.
//
// "msg-id:{id}" points back to that key.
func (m *MessageRepository) StoreMessage(message domain.Message) (domain.Message, error) {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	key := messageKey(message)
	data, err := encode(map[string]any{
		"id":         message.ID,
		"chat_id":    string(message.ChatID),
		"sender_id":  message.SenderID,
		"content":    message.Content,
		"lang":       message.Lang,
		"created_at": formatTime(message.CreatedAt),
	})
	if err != nil {
		return domain.Message{}, err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(messageIDPrefix+message.ID), []byte(key)); err != nil {
			return err
		}
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

func (m *MessageRepository) GetMessage(id string) (domain.Message, error) {
	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(messageIDPrefix + id))
		if err != nil {
			return notFound(err, errors.ErrMessageNotFound)
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(key)
		if err != nil {
			return notFound(err, errors.ErrMessageNotFound)
		}
		return item.Value(func(val []byte) error {
			message, err = decodeMessage(val)
			return err
		})
	})
	return message, err
}

// GetMessages returns one page of a chat, oldest first.
// Pages are read backwards from cursor (or from the newest message) and stop once
// limitMessages is reached. The returned cursor is nil when no older message remains.
func (m *MessageRepository) GetMessages(chatID domain.RoomID, cursor *string) ([]domain.Message, *string, error) {
	var byteMessages [][]byte
	var lastKey string
	hasMore := false
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("%s%s:", messagePrefix, chatID)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible key, msg:{chat}:9999999999999999999
			// then walk back in time
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()[prefixLen:]) == *cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				hasMore = true
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			byteMessages = append(byteMessages, value)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	messages := make([]domain.Message, 0, len(byteMessages))
	for _, b := range byteMessages {
		message, err := decodeMessage(b)
		if err != nil {
			return nil, nil, err
		}
		messages = append(messages, message)
	}
	slices.Reverse(messages)

	if !hasMore {
		return messages, nil, nil
	}
	return messages, &lastKey, nil
}

func messageKey(message domain.Message) string {
	return fmt.Sprintf("%s%s:%019d:%s",
		messagePrefix,
		message.ChatID,
		message.CreatedAt.UnixNano(),
		message.ID,
	)
}

func decodeMessage(data []byte) (domain.Message, error) {
	r, err := decode(data)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        r.str("id"),
		ChatID:    domain.RoomID(r.str("chat_id")),
		SenderID:  r.str("sender_id"),
		Content:   r.str("content"),
		Lang:      r.str("lang"),
		CreatedAt: r.time("created_at"),
	}, nil
}
