//go:generate go run go.uber.org/mock/mockgen -source=message_index.go -destination=../mocks/mock_message_index.go -package=mocks
package repositories

import (
	"chat-hub/domain"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blugelabs/bluge"
)

const (
	fieldContent = "content"
	fieldChat    = "chat"
	fieldSender  = "sender"
	fieldAt      = "at"
	fieldID      = "_id"
)

type IMessageIndex interface {
	Index(message domain.Message) error
	Search(ctx context.Context, chatID domain.RoomID, query string, limit int) ([]string, uint64, error)
}

// MessageIndex is the full-text index of message contents.
// Badger stays the source of truth, the index only returns message IDs.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

func (i *MessageIndex) Index(message domain.Message) error {
	doc := bluge.NewDocument(message.ID).
		AddField(bluge.NewTextField(fieldContent, message.Content)).
		AddField(bluge.NewKeywordField(fieldChat, string(message.ChatID))).
		AddField(bluge.NewKeywordField(fieldSender, message.SenderID)).
		AddField(bluge.NewDateTimeField(fieldAt, message.CreatedAt).Sortable())

	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("index message %s: %w", message.ID, err)
	}
	return nil
}

// Search matches query against the contents of one chat, newest first.
// It returns at most limit message IDs and the total number of hits.
func (i *MessageIndex) Search(ctx context.Context, chatID domain.RoomID, query string, limit int) ([]string, uint64, error) {
	if strings.TrimSpace(query) == "" {
		return nil, 0, nil
	}
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, 0, fmt.Errorf("open index reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Debug("Unable to close index reader", "error", err)
		}
	}()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query).SetField(fieldContent)).
		AddMust(bluge.NewTermQuery(string(chatID)).SetField(fieldChat))
	request := bluge.NewTopNSearch(limit, q).
		SortBy([]string{"-" + fieldAt}).
		WithStandardAggregations()

	it, err := reader.Search(ctx, request)
	if err != nil {
		return nil, 0, fmt.Errorf("search messages: %w", err)
	}

	var ids []string
	match, err := it.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == fieldID {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			break
		}
		match, err = it.Next()
	}
	if err != nil {
		return nil, 0, fmt.Errorf("iterate matches: %w", err)
	}
	return ids, it.Aggregations().Count(), nil
}
