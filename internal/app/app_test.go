package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YogurtTheHorse/karma-bot/internal/config"
	"github.com/YogurtTheHorse/karma-bot/internal/features/karma"
)

func testConfig(driver string) *config.Config {
	return &config.Config{
		DBDriver:              driver,
		AppTimezone:           "UTC",
		BotCommandSymbol:      "/",
		KarmaDailyLimit:       3,
		KarmaRejectUnresolved: true,
		LedgerTimeout:         time.Second,
	}
}

func TestServices_EndToEnd(t *testing.T) {
	ctx := context.Background()

	for _, driver := range []string{config.DriverMemory, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(driver)
			cfg.SQLitePath = filepath.Join(t.TempDir(), "karma.db")

			storage, err := OpenStorage(ctx, cfg)
			require.NoError(t, err)
			defer storage.Close()

			services, err := NewServices(cfg, storage)
			require.NoError(t, err)
			assert.Equal(t, time.UTC, services.Ledger.Location())

			require.NoError(t, services.Members.EnsureChat(ctx, -100, "Флуд"))

			reply, ok := services.Dispatcher.HandleText(ctx, -100, 10, "/karma 20")
			require.True(t, ok)
			assert.Equal(t, karma.MsgKarmaGiven, reply)

			totals, err := services.Ledger.TotalsByUser(ctx, -100)
			require.NoError(t, err)
			assert.Equal(t, []karma.Total{{UserID: 20, Karma: 1}}, totals)
		})
	}
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	_, err := OpenStorage(context.Background(), testConfig("mongo"))
	assert.Error(t, err)
}

func TestNewServices_DefaultSymbol(t *testing.T) {
	cfg := testConfig(config.DriverMemory)
	cfg.BotCommandSymbol = ""

	storage, err := OpenStorage(context.Background(), cfg)
	require.NoError(t, err)

	// пустой символ — значит "/"
	services, err := NewServices(cfg, storage)
	require.NoError(t, err)
	assert.Equal(t, "/", services.Dispatcher.Registry().Symbol())
}
