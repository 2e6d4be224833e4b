package karma

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YogurtTheHorse/karma-bot/internal/db/sqlite"
)

type storeFactory func(t *testing.T) Store

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": newSQLiteStore,
	}
}

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "karma.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteRepository(db)
}

var day = time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

func event(id string, chat, target, actor int64, dir Direction, at time.Time) Event {
	return Event{ID: id, ChatID: chat, TargetUserID: target, ActorUserID: actor, Direction: dir, CreatedAt: at}
}

func TestStores(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			t.Run("Totals", func(t *testing.T) { testStoreTotals(t, factory(t)) })
			t.Run("CountsSince", func(t *testing.T) { testStoreCountsSince(t, factory(t)) })
			t.Run("AppendLimited", func(t *testing.T) { testStoreAppendLimited(t, factory(t)) })
			t.Run("Events", func(t *testing.T) { testStoreEvents(t, factory(t)) })
		})
	}
}

func testStoreTotals(t *testing.T, s Store) {
	ctx := context.Background()

	totals, err := s.Totals(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, totals)

	at := day.Add(time.Hour)
	for i, e := range []Event{
		event("01", 1, 10, 100, Increase, at),
		event("02", 1, 10, 100, Increase, at),
		event("03", 1, 10, 101, Increase, at),
		event("04", 1, 10, 101, Decrease, at),
		event("05", 1, 20, 100, Increase, at),
		event("06", 1, 30, 100, Increase, at),
		event("07", 1, 40, 100, Decrease, at),
		event("08", 2, 10, 100, Decrease, at), // другой чат
	} {
		require.NoError(t, s.Append(ctx, e), "event %d", i)
	}

	totals, err = s.Totals(ctx, 1)
	require.NoError(t, err)

	want := []Total{
		{UserID: 10, Karma: 2},
		{UserID: 20, Karma: 1},
		{UserID: 30, Karma: 1},
		{UserID: 40, Karma: -1},
	}
	if diff := cmp.Diff(want, totals); diff != "" {
		t.Errorf("Totals mismatch (-want +got):\n%s", diff)
	}

	other, err := s.Totals(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []Total{{UserID: 10, Karma: -1}}, other)
}

func testStoreCountsSince(t *testing.T, s Store) {
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, event("01", 1, 10, 100, Increase, day.Add(-time.Minute))))
	require.NoError(t, s.Append(ctx, event("02", 1, 10, 100, Increase, day)))
	require.NoError(t, s.Append(ctx, event("03", 1, 20, 100, Decrease, day.Add(time.Hour))))
	require.NoError(t, s.Append(ctx, event("04", 1, 20, 200, Decrease, day.Add(time.Hour))))
	require.NoError(t, s.Append(ctx, event("05", 2, 20, 100, Decrease, day.Add(time.Hour))))

	c, err := s.CountsSince(ctx, 1, 100, day)
	require.NoError(t, err)
	assert.Equal(t, Counts{Increase: 1, Decrease: 1}, c)

	c, err = s.CountsSince(ctx, 1, 999, day)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, c)
}

func testStoreAppendLimited(t *testing.T, s Store) {
	ctx := context.Background()
	at := day.Add(time.Hour)

	for i := 0; i < 3; i++ {
		ok, err := s.AppendLimited(ctx, event(string(rune('a'+i)), 1, 10, 100, Increase, at), day, 3)
		require.NoError(t, err)
		require.True(t, ok, "append %d", i)
	}

	ok, err := s.AppendLimited(ctx, event("x", 1, 10, 100, Increase, at), day, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	// снятие кармы считается отдельно
	ok, err = s.AppendLimited(ctx, event("y", 1, 10, 100, Decrease, at), day, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	// вчерашние события не учитываются
	ok, err = s.AppendLimited(ctx, event("z", 1, 10, 100, Increase, at.Add(24*time.Hour)), day.Add(24*time.Hour), 3)
	require.NoError(t, err)
	assert.True(t, ok)

	totals, err := s.Totals(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []Total{{UserID: 10, Karma: 3}}, totals)
}

func testStoreEvents(t *testing.T, s Store) {
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, event("01", 1, 10, 100, Increase, day)))
	require.NoError(t, s.Append(ctx, event("02", 1, 20, 100, Decrease, day.Add(time.Second))))
	require.NoError(t, s.Append(ctx, event("03", 2, 20, 100, Decrease, day.Add(time.Second))))

	events, err := s.Events(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "01", events[0].ID)
	assert.Equal(t, Increase, events[0].Direction)
	assert.True(t, events[0].CreatedAt.Equal(day))
	assert.Equal(t, "02", events[1].ID)
	assert.Equal(t, int64(20), events[1].TargetUserID)
}
