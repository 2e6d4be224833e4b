package members

import (
	"context"
	"path/filepath"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YogurtTheHorse/karma-bot/internal/common"
	"github.com/YogurtTheHorse/karma-bot/internal/db/sqlite"
)

func stores(t *testing.T) map[string]Store {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "karma.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLiteRepository(db),
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "@vasya", (&Member{Username: "vasya", FirstName: "Вася"}).DisplayName())
	assert.Equal(t, "Вася Пупкин", (&Member{FirstName: "Вася", LastName: "Пупкин"}).DisplayName())
	assert.Equal(t, "Пупкин", (&Member{LastName: "Пупкин"}).DisplayName())
	assert.Equal(t, "42", (&Member{UserID: 42}).DisplayName())
}

func TestService(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := NewService(store)

			_, err := store.GetChatTitle(ctx, 1)
			assert.ErrorIs(t, err, common.ErrChatNotFound)

			_, err = svc.Chat(ctx, 1)
			assert.ErrorIs(t, err, common.ErrChatNotFound)

			require.NoError(t, svc.EnsureChat(ctx, 1, "Флуд"))
			chat, err := svc.Chat(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, int64(1), chat.ID)
			assert.Equal(t, "Флуд", chat.Title)
			assert.Empty(t, chat.Members)

			require.NoError(t, svc.EnsureMember(ctx, 1, 10, UpdateInfo{FirstName: "Аня"}))
			require.NoError(t, svc.HandleNewMember(ctx, 1, 20, UpdateInfo{Username: "boris", FirstName: "Борис"}))
			require.NoError(t, svc.EnsureChat(ctx, 2, "Другой"))
			require.NoError(t, svc.EnsureMember(ctx, 2, 30, UpdateInfo{FirstName: "Чужой"}))

			// пустое название не затирает сохранённое
			require.NoError(t, svc.EnsureChat(ctx, 1, ""))
			chat, err = svc.Chat(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "Флуд", chat.Title)
			assert.Equal(t, map[int64]string{10: "Аня", 20: "@boris"}, chat.Members)

			// смена имени
			require.NoError(t, svc.EnsureMember(ctx, 1, 10, UpdateInfo{FirstName: "Анна", LastName: "К"}))

			// вышедший участник пропадает из списка
			require.NoError(t, svc.HandleLeftMember(ctx, 1, 20))
			names, err := svc.Names(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, map[int64]string{10: "Анна К"}, names)

			// и возвращается, когда снова пишет
			require.NoError(t, svc.EnsureMember(ctx, 1, 20, UpdateInfo{Username: "boris"}))
			active, err := svc.ListActive(ctx, 1)
			require.NoError(t, err)
			require.Len(t, active, 2)
			assert.Equal(t, int64(10), active[0].UserID)
			assert.Equal(t, int64(20), active[1].UserID)
			assert.False(t, active[1].HasLeft)

			// переименование чата
			require.NoError(t, svc.EnsureChat(ctx, 1, "Флудилка"))
			chat, err = svc.Chat(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "Флудилка", chat.Title)

			ids, err := svc.ChatIDs(ctx)
			require.NoError(t, err)
			assert.Equal(t, []int64{1, 2}, ids)
		})
	}
}

func TestHandler_NewAndLeftMembers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(store)
	h := NewHandler(svc)

	require.NoError(t, svc.EnsureChat(ctx, 1, ""))

	h.HandleNewChatMembers(ctx, 1, []tgbotapi.User{
		{ID: 10, FirstName: "Аня"},
		{ID: 11, FirstName: "Бот", IsBot: true},
	})
	names, err := svc.Names(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{10: "Аня"}, names)

	h.HandleLeftChatMember(ctx, 1, &tgbotapi.User{ID: 10})
	h.HandleLeftChatMember(ctx, 1, nil)

	names, err = svc.Names(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, names)
}
