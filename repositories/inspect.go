package repositories

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
)

// Inspect maps every entry whose key starts with prefix, in key order.
func Inspect(db *badger.DB, prefix string) ([]database.InspectRow, error) {
	var rows []database.InspectRow
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			if err := item.Value(func(val []byte) error {
				rows = append(rows, InspectRow(key, val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return rows, err
}

// InspectRow describes one badger entry for the debug inspector and cmd/inspect.
func InspectRow(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)

	switch {
	case strings.HasPrefix(key, userPrefix):
		user, err := decodeUser(val)
		if err != nil {
			row.Detail = "Error: " + err.Error()
			return row
		}
		row.Type = "USER"
		row.Detail = fmt.Sprintf("%s <%s>", user.Name, user.Email)
	case strings.HasPrefix(key, chatPrefix):
		chat, err := decodeChat(val)
		if err != nil {
			row.Detail = "Error: " + err.Error()
			return row
		}
		row.Type = "CHAT"
		if chat.IsGroup {
			row.Type = "GROUP"
		}
		row.Detail = fmt.Sprintf("%s (%d members)", chat.Name, len(chat.Users))
	case strings.HasPrefix(key, messagePrefix):
		msg, err := decodeMessage(val)
		if err != nil {
			row.Detail = "Error: " + err.Error()
			return row
		}
		row.Type = "MESSAGE"
		row.Detail = fmt.Sprintf("%s: %s", msg.SenderID, msg.Content)
	case strings.HasPrefix(key, userEmailPrefix),
		strings.HasPrefix(key, userChatPrefix),
		strings.HasPrefix(key, messageIDPrefix):
		row.Type = "INDEX"
		row.Detail = string(val)
	}
	return row
}
