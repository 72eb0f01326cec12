//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	userPrefix      = "user:"
	userEmailPrefix = "user-email:"
)

type IUserRepository interface {
	CreateUser(user domain.User) (domain.User, error)
	GetUserByEmail(email string) (domain.User, error)
	GetUserByID(id string) (domain.User, error)
	GetUsersByIDs(ids []string) ([]domain.User, error)
	SearchUsers(query, excludeID string) ([]domain.User, error)
	UpdatePic(id, pic string) (domain.User, error)
}

// UserRepository keeps accounts under "user:{id}" and a unique
// "user-email:{email}" index pointing to the ID.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser persists a new account and returns it with its generated ID.
// Emails are compared case-insensitively.
func (u *UserRepository) CreateUser(user domain.User) (domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Email = normalizeEmail(user.Email)

	data, err := encodeUser(user)
	if err != nil {
		return domain.User{}, err
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte(userEmailPrefix + user.Email)
		if _, err := txn.Get(emailKey); err == nil {
			return errors.ErrUserAlreadyExists
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if err := txn.Set(emailKey, []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(userPrefix+user.ID), data)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (u *UserRepository) GetUserByEmail(email string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userEmailPrefix + normalizeEmail(email)))
		if err != nil {
			return notFound(err, errors.ErrUserNotFound)
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		user, err = getUser(txn, string(id))
		return err
	})
	return user, err
}

func (u *UserRepository) GetUserByID(id string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	return user, err
}

// GetUsersByIDs returns the users in the order of ids. A single missing user fails the call.
func (u *UserRepository) GetUsersByIDs(ids []string) ([]domain.User, error) {
	users := make([]domain.User, 0, len(ids))
	err := u.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			user, err := getUser(txn, id)
			if err != nil {
				return fmt.Errorf("user %s: %w", id, err)
			}
			users = append(users, user)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// SearchUsers scans every account and keeps those whose name or email contains
// query, ignoring case. An empty query matches everybody. excludeID is never returned.
func (u *UserRepository) SearchUsers(query, excludeID string) ([]domain.User, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	var users []domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(userPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var user domain.User
			err := it.Item().Value(func(val []byte) error {
				var err error
				user, err = decodeUser(val)
				return err
			})
			if err != nil {
				return err
			}
			if user.ID == excludeID {
				continue
			}
			if needle == "" ||
				strings.Contains(strings.ToLower(user.Name), needle) ||
				strings.Contains(user.Email, needle) {
				users = append(users, user)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (u *UserRepository) UpdatePic(id, pic string) (domain.User, error) {
	var user domain.User
	err := u.db.Update(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		if err != nil {
			return err
		}
		user.Pic = pic
		data, err := encodeUser(user)
		if err != nil {
			return err
		}
		return txn.Set([]byte(userPrefix+id), data)
	})
	return user, err
}

func getUser(txn *badger.Txn, id string) (domain.User, error) {
	item, err := txn.Get([]byte(userPrefix + id))
	if err != nil {
		return domain.User{}, notFound(err, errors.ErrUserNotFound)
	}
	var user domain.User
	err = item.Value(func(val []byte) error {
		user, err = decodeUser(val)
		return err
	})
	return user, err
}

func encodeUser(user domain.User) ([]byte, error) {
	return encode(map[string]any{
		"id":            user.ID,
		"name":          user.Name,
		"email":         user.Email,
		"pic":           user.Pic,
		"password_hash": user.PasswordHash,
		"is_admin":      user.IsAdmin,
		"created_at":    formatTime(user.CreatedAt),
	})
}

func decodeUser(data []byte) (domain.User, error) {
	r, err := decode(data)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:           r.str("id"),
		Name:         r.str("name"),
		Email:        r.str("email"),
		Pic:          r.str("pic"),
		PasswordHash: r.str("password_hash"),
		IsAdmin:      r.boolean("is_admin"),
		CreatedAt:    r.time("created_at"),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// notFound translates a badger miss into the given sentinel.
func notFound(err, sentinel error) error {
	if err == badger.ErrKeyNotFound {
		return sentinel
	}
	return err
}
