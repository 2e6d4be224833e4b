package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YogurtTheHorse/karma-bot/internal/bot/commands"
	"github.com/YogurtTheHorse/karma-bot/internal/common"
	"github.com/YogurtTheHorse/karma-bot/internal/config"
	"github.com/YogurtTheHorse/karma-bot/internal/features/karma"
	"github.com/YogurtTheHorse/karma-bot/internal/features/members"
)

type dispatchFixture struct {
	dispatcher *Dispatcher
	ledger     *karma.Ledger
	members    *members.Service
}

func newDispatchFixture(t *testing.T, store karma.Store) *dispatchFixture {
	t.Helper()
	ctx := context.Background()

	registry, err := commands.Default("/")
	require.NoError(t, err)

	ledger := karma.NewLedger(store, time.UTC, time.Second)
	karmaService := karma.NewService(ledger, &config.Config{KarmaDailyLimit: 3, KarmaRejectUnresolved: true})

	memberService := members.NewService(members.NewMemoryStore())
	require.NoError(t, memberService.EnsureChat(ctx, 1, "Флуд"))
	require.NoError(t, memberService.EnsureMember(ctx, 1, 10, members.UpdateInfo{FirstName: "Аня"}))
	require.NoError(t, memberService.EnsureMember(ctx, 1, 20, members.UpdateInfo{Username: "boris"}))

	return &dispatchFixture{
		dispatcher: NewDispatcher(registry, karmaService, memberService),
		ledger:     ledger,
		members:    memberService,
	}
}

func TestDispatcher_PlainTextIsIgnored(t *testing.T) {
	f := newDispatchFixture(t, karma.NewMemoryStore())

	reply, ok := f.dispatcher.HandleText(context.Background(), 1, 10, "hello /karma 20")
	assert.False(t, ok)
	assert.Empty(t, reply)
}

func TestDispatcher_Help(t *testing.T) {
	f := newDispatchFixture(t, karma.NewMemoryStore())

	reply, ok := f.dispatcher.HandleText(context.Background(), 1, 10, "/help")
	require.True(t, ok)
	assert.Equal(t, f.dispatcher.Registry().List(), reply)
}

func TestDispatcher_KarmaAndStats(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, karma.NewMemoryStore())

	reply, ok := f.dispatcher.HandleText(ctx, 1, 10, "/karma 20")
	require.True(t, ok)
	assert.Equal(t, karma.MsgKarmaGiven, reply)

	reply, ok = f.dispatcher.HandleText(ctx, 1, 20, "/dekarm [id10|Аня]")
	require.True(t, ok)
	assert.Equal(t, karma.MsgKarmaTaken, reply)

	reply, ok = f.dispatcher.HandleText(ctx, 1, 10, "/stats")
	require.True(t, ok)
	assert.Equal(t, "@boris: 1\nАня: -1", reply)
}

func TestDispatcher_StatsEmpty(t *testing.T) {
	f := newDispatchFixture(t, karma.NewMemoryStore())

	reply, ok := f.dispatcher.HandleText(context.Background(), 1, 10, "/stats")
	require.True(t, ok)
	assert.Equal(t, karma.MsgNoKarma, reply)
}

func TestDispatcher_UnknownChat(t *testing.T) {
	f := newDispatchFixture(t, karma.NewMemoryStore())

	reply, ok := f.dispatcher.HandleText(context.Background(), 404, 10, "/stats")
	require.True(t, ok)
	assert.Equal(t, karma.MsgNoKarma, reply)
}

func TestDispatcher_ParseErrorsBecomeText(t *testing.T) {
	f := newDispatchFixture(t, karma.NewMemoryStore())

	for _, text := range []string{"/", "/unknown", "/karma", "/karma 1 2", "/stats now"} {
		reply, ok := f.dispatcher.HandleText(context.Background(), 1, 10, text)
		require.True(t, ok, text)
		assert.Contains(t, reply, "Ошибка разбора команды", text)
	}
}

func TestDispatcher_InvalidTarget(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, karma.NewMemoryStore())

	reply, ok := f.dispatcher.HandleText(ctx, 1, 10, "/karma вася")
	require.True(t, ok)
	assert.Equal(t, karma.MsgInvalidTarget, reply)

	events, err := f.ledger.Events(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDispatcher_DailyLimit(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, karma.NewMemoryStore())

	for i := 0; i < 3; i++ {
		reply, _ := f.dispatcher.HandleText(ctx, 1, 10, "/karma 20")
		require.Equal(t, karma.MsgKarmaGiven, reply, "попытка %d", i+1)
	}
	reply, _ := f.dispatcher.HandleText(ctx, 1, 10, "/karma 20")
	assert.Equal(t, karma.MsgTryTomorrow, reply)

	// снятие считается отдельно
	reply, _ = f.dispatcher.HandleText(ctx, 1, 10, "/dekarm 20")
	assert.Equal(t, karma.MsgKarmaTaken, reply)
}

func TestDispatcher_ReplyTarget(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, karma.NewMemoryStore())

	reply, ok := f.dispatcher.Handle(ctx, Incoming{ChatID: 1, ActorID: 10, Text: "/karma", ReplyToUserID: 20})
	require.True(t, ok)
	assert.Equal(t, karma.MsgKarmaGiven, reply)

	// явный аргумент важнее ответа
	reply, _ = f.dispatcher.Handle(ctx, Incoming{ChatID: 1, ActorID: 20, Text: "/dekarm 10", ReplyToUserID: 99})
	assert.Equal(t, karma.MsgKarmaTaken, reply)

	// к остальным командам цель из ответа не подставляется
	reply, _ = f.dispatcher.Handle(ctx, Incoming{ChatID: 1, ActorID: 10, Text: "/stats", ReplyToUserID: 20})
	assert.Equal(t, "@boris: 1\nАня: -1", reply)

	events, err := f.ledger.Events(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(20), events[0].TargetUserID)
	assert.Equal(t, int64(10), events[1].TargetUserID)
}

type failingStore struct {
	karma.Store
}

func (failingStore) CountsSince(context.Context, int64, int64, time.Time) (karma.Counts, error) {
	return karma.Counts{}, errors.New("connection reset")
}

func (failingStore) Totals(context.Context, int64) ([]karma.Total, error) {
	return nil, errors.New("connection reset")
}

func TestDispatcher_StorageFailure(t *testing.T) {
	f := newDispatchFixture(t, failingStore{Store: karma.NewMemoryStore()})

	reply, ok := f.dispatcher.HandleText(context.Background(), 1, 10, "/karma 20")
	require.True(t, ok)
	assert.Equal(t, MsgStorageFailure, reply)

	reply, _ = f.dispatcher.HandleText(context.Background(), 1, 10, "/stats")
	assert.Equal(t, MsgStorageFailure, reply)
}

type unknownCommand struct{ commands.Command }

func TestDispatcher_UnknownCommandType(t *testing.T) {
	f := newDispatchFixture(t, karma.NewMemoryStore())

	_, err := f.dispatcher.Dispatch(context.Background(), unknownCommand{}, &members.Chat{ID: 1}, 10)
	assert.Error(t, err)
}

func TestErrorReply(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", common.ErrInvalidTarget), karma.MsgInvalidTarget},
		{&karma.StorageError{Op: "totals", Err: context.DeadlineExceeded}, MsgStorageFailure},
		{errors.New("boom"), MsgInternalError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorReply(tt.err), tt.err.Error())
	}
	assert.Contains(t, ErrorReply(common.ErrUnknownCommand), common.ErrUnknownCommand.Error())
}
