package services_test

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/mocks"
	"chat-hub/services"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type chatFixture struct {
	chats    *mocks.MockIChatRepository
	users    *mocks.MockIUserRepository
	messages *mocks.MockIMessageRepository
	svc      *services.ChatService
}

func newChatFixture(t *testing.T) chatFixture {
	ctrl := gomock.NewController(t)
	f := chatFixture{
		chats:    mocks.NewMockIChatRepository(ctrl),
		users:    mocks.NewMockIUserRepository(ctrl),
		messages: mocks.NewMockIMessageRepository(ctrl),
	}
	f.svc = services.NewChatService(slog.Default(), f.chats, f.users, f.messages)
	return f
}

func users(ids ...string) []domain.User {
	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.User{ID: id, Name: id})
	}
	return out
}

func group(admin string, members ...string) domain.Chat {
	return domain.Chat{ID: "chat-99", Name: "Team", IsGroup: true, Users: members, GroupAdmin: admin}
}

func TestChatService_AccessChat(t *testing.T) {
	t.Run("should return the existing direct chat", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)
		existing := domain.Chat{ID: "chat-42", Users: []string{"alice", "bob"}, LatestMessage: "m1"}

		f.users.EXPECT().GetUserByID("bob").Return(domain.User{ID: "bob"}, nil)
		f.chats.EXPECT().FindDirectChat("alice", "bob").Return(existing, true, nil)
		f.chats.EXPECT().SaveChat(gomock.Any()).Times(0)
		f.users.EXPECT().GetUsersByIDs([]string{"alice", "bob"}).Return(users("alice", "bob"), nil)
		f.messages.EXPECT().GetMessage("m1").Return(domain.Message{ID: "m1", SenderID: "bob", Content: "hi"}, nil)

		view, err := f.svc.AccessChat("alice", "bob")

		req.NoError(err)
		req.Equal(domain.RoomID("chat-42"), view.ID)
		req.Len(view.Users, 2)
		req.Nil(view.GroupAdmin)
		req.NotNil(view.LatestMessage)
		req.Equal("bob", view.LatestMessage.Sender.ID)
	})

	t.Run("should create the direct chat on first access", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		f.users.EXPECT().GetUserByID("bob").Return(domain.User{ID: "bob"}, nil)
		f.chats.EXPECT().FindDirectChat("alice", "bob").Return(domain.Chat{}, false, nil)
		f.chats.EXPECT().SaveChat(gomock.Any()).DoAndReturn(func(chat domain.Chat) error {
			req.False(chat.IsGroup)
			req.Equal([]string{"alice", "bob"}, chat.Users)
			req.NotEmpty(chat.ID)
			return nil
		})
		f.users.EXPECT().GetUsersByIDs([]string{"alice", "bob"}).Return(users("alice", "bob"), nil)

		view, err := f.svc.AccessChat("alice", "bob")
		req.NoError(err)
		req.Nil(view.LatestMessage)
	})

	t.Run("should refuse to chat with oneself or a ghost", func(t *testing.T) {
		f := newChatFixture(t)
		_, err := f.svc.AccessChat("alice", "alice")
		require.ErrorIs(t, err, errors.ErrInvalidRequest)

		f.users.EXPECT().GetUserByID("ghost").Return(domain.User{}, errors.ErrUserNotFound)
		_, err = f.svc.AccessChat("alice", "ghost")
		require.ErrorIs(t, err, errors.ErrUserNotFound)
	})
}

func TestChatService_CreateGroup(t *testing.T) {
	t.Run("should need two other members", func(t *testing.T) {
		f := newChatFixture(t)
		_, err := f.svc.CreateGroup("alice", "Team", []string{"bob", "alice", "bob", ""})
		require.ErrorIs(t, err, errors.ErrGroupTooSmall)
	})

	t.Run("should need a name", func(t *testing.T) {
		f := newChatFixture(t)
		_, err := f.svc.CreateGroup("alice", " ", []string{"bob", "carol"})
		require.ErrorIs(t, err, errors.ErrInvalidRequest)
	})

	t.Run("should make the caller admin and member", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		f.users.EXPECT().GetUsersByIDs([]string{"bob", "carol"}).Return(users("bob", "carol"), nil)
		f.chats.EXPECT().SaveChat(gomock.Any()).DoAndReturn(func(chat domain.Chat) error {
			req.True(chat.IsGroup)
			req.Equal("alice", chat.GroupAdmin)
			req.Equal([]string{"bob", "carol", "alice"}, chat.Users)
			return nil
		})
		f.users.EXPECT().GetUsersByIDs([]string{"bob", "carol", "alice"}).Return(users("bob", "carol", "alice"), nil)

		view, err := f.svc.CreateGroup("alice", "Team", []string{"bob", "carol"})
		req.NoError(err)
		req.Equal("Team", view.ChatName)
		req.Equal("alice", view.GroupAdmin.ID)
	})
}

// stored answers UpdateChat the way the repository does: change runs on a copy
// of chat and nothing is kept when it fails.
func stored(chat domain.Chat) func(domain.RoomID, func(*domain.Chat) error) (domain.Chat, error) {
	return func(_ domain.RoomID, change func(*domain.Chat) error) (domain.Chat, error) {
		next := chat
		next.Users = append([]string(nil), chat.Users...)
		if err := change(&next); err != nil {
			return domain.Chat{}, err
		}
		return next, nil
	}
}

func TestChatService_GroupAdministration(t *testing.T) {
	t.Run("should rename only as admin", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)
		f.chats.EXPECT().UpdateChat(domain.RoomID("chat-99"), gomock.Any()).
			DoAndReturn(stored(group("alice", "alice", "bob", "carol"))).Times(2)

		_, err := f.svc.RenameGroup("bob", "chat-99", "Mine")
		req.ErrorIs(err, errors.ErrNotGroupAdmin)

		f.users.EXPECT().GetUsersByIDs(gomock.Any()).Return(users("alice", "bob", "carol"), nil)
		view, err := f.svc.RenameGroup("alice", "chat-99", "Renamed")
		req.NoError(err)
		req.Equal("Renamed", view.ChatName)
	})

	t.Run("should refuse group operations on a direct chat", func(t *testing.T) {
		f := newChatFixture(t)
		f.users.EXPECT().GetUserByID("carol").Return(domain.User{ID: "carol"}, nil)
		f.chats.EXPECT().UpdateChat(domain.RoomID("chat-42"), gomock.Any()).
			DoAndReturn(stored(domain.Chat{ID: "chat-42", Users: []string{"alice", "bob"}}))
		_, err := f.svc.AddToGroup("alice", "chat-42", "carol")
		require.ErrorIs(t, err, errors.ErrNotGroupChat)
	})

	t.Run("should add a member once", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)
		f.users.EXPECT().GetUserByID(gomock.Any()).Return(domain.User{}, nil).Times(2)
		f.users.EXPECT().GetUsersByIDs(gomock.Any()).Return(users("alice", "bob", "carol", "dave"), nil).Times(2)

		f.chats.EXPECT().UpdateChat(domain.RoomID("chat-99"), gomock.Any()).
			DoAndReturn(func(id domain.RoomID, change func(*domain.Chat) error) (domain.Chat, error) {
				chat, err := stored(group("alice", "alice", "bob", "carol"))(id, change)
				req.Equal([]string{"alice", "bob", "carol", "dave"}, chat.Users)
				req.False(chat.UpdatedAt.IsZero())
				return chat, err
			})
		_, err := f.svc.AddToGroup("alice", "chat-99", "dave")
		req.NoError(err)

		// Already a member: the chat is left as stored
		f.chats.EXPECT().UpdateChat(domain.RoomID("chat-99"), gomock.Any()).
			DoAndReturn(func(id domain.RoomID, change func(*domain.Chat) error) (domain.Chat, error) {
				chat, err := stored(group("alice", "alice", "bob", "carol"))(id, change)
				req.Equal([]string{"alice", "bob", "carol"}, chat.Users)
				req.True(chat.UpdatedAt.IsZero())
				return chat, err
			})
		_, err = f.svc.AddToGroup("alice", "chat-99", "bob")
		req.NoError(err)
	})

	t.Run("should let a member leave but not remove others", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)
		f.chats.EXPECT().UpdateChat(domain.RoomID("chat-99"), gomock.Any()).
			DoAndReturn(stored(group("alice", "alice", "bob", "carol"))).Times(2)

		_, err := f.svc.RemoveFromGroup("bob", "chat-99", "carol")
		req.ErrorIs(err, errors.ErrNotGroupAdmin)

		f.users.EXPECT().GetUsersByIDs([]string{"alice", "carol"}).Return(users("alice", "carol"), nil)
		view, err := f.svc.RemoveFromGroup("bob", "chat-99", "bob")
		req.NoError(err)
		req.Len(view.Users, 2)
	})

	t.Run("should hand the group over when the admin leaves", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)
		f.chats.EXPECT().UpdateChat(domain.RoomID("chat-99"), gomock.Any()).
			DoAndReturn(stored(group("alice", "alice", "bob", "carol")))
		f.users.EXPECT().GetUsersByIDs([]string{"bob", "carol"}).Return(users("bob", "carol"), nil)

		view, err := f.svc.RemoveFromGroup("alice", "chat-99", "alice")
		req.NoError(err)
		req.Equal("bob", view.GroupAdmin.ID)
	})
}

func TestChatService_FetchChats(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	now := time.Now().UTC()
	chats := []domain.Chat{
		{ID: "chat-99", Users: []string{"alice", "bob"}, UpdatedAt: now, LatestMessage: "gone"},
		{ID: "chat-42", Users: []string{"alice", "carol"}, UpdatedAt: now.Add(-time.Hour)},
	}
	f.chats.EXPECT().GetChatsForUser("alice").Return(chats, nil)
	f.users.EXPECT().GetUsersByIDs(gomock.Any()).Return(users("alice", "bob"), nil).Times(2)
	f.messages.EXPECT().GetMessage("gone").Return(domain.Message{}, errors.ErrMessageNotFound)

	views, err := f.svc.FetchChats("alice")

	// Then the order is kept and a missing latest message is tolerated
	req.NoError(err)
	req.Len(views, 2)
	req.Equal(domain.RoomID("chat-99"), views[0].ID)
	req.Nil(views[0].LatestMessage)
}

func TestChatService_MemberChat(t *testing.T) {
	f := newChatFixture(t)
	f.chats.EXPECT().GetChat(domain.RoomID("chat-42")).Return(domain.Chat{ID: "chat-42", Users: []string{"alice", "bob"}}, nil).Times(2)

	chat, err := f.svc.MemberChat("bob", "chat-42")
	require.NoError(t, err)
	require.Equal(t, domain.RoomID("chat-42"), chat.ID)

	_, err = f.svc.MemberChat("mallory", "chat-42")
	require.ErrorIs(t, err, errors.ErrNotChatMember)
}
