package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/YogurtTheHorse/karma-bot/internal/config"
	"github.com/YogurtTheHorse/karma-bot/internal/db/postgres"
	"github.com/YogurtTheHorse/karma-bot/internal/db/sqlite"
	"github.com/YogurtTheHorse/karma-bot/internal/features/karma"
	"github.com/YogurtTheHorse/karma-bot/internal/features/members"
)

// Storage — хранилища кармы и участников поверх выбранной БД.
type Storage struct {
	Karma   karma.Store
	Members members.Store

	close func()
}

// Close закрывает соединения с БД.
func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage подключается к БД из DB_DRIVER и применяет миграции.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ошибка миграций: %w", err)
		}
		return &Storage{
			Karma:   karma.NewRepository(pool),
			Members: members.NewRepository(pool),
			close:   pool.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Storage{
			Karma:   karma.NewSQLiteRepository(db),
			Members: members.NewSQLiteRepository(db),
			close: func() {
				if err := db.Close(); err != nil {
					log.WithError(err).Warn("Ошибка закрытия SQLite")
				}
			},
		}, nil

	case config.DriverMemory:
		log.Warn("DB_DRIVER=memory: карма не переживёт перезапуск")
		return &Storage{
			Karma:   karma.NewMemoryStore(),
			Members: members.NewMemoryStore(),
		}, nil
	}
	return nil, fmt.Errorf("неизвестный DB_DRIVER %q", cfg.DBDriver)
}
