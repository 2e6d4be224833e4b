// Package sqlite открывает встроенную базу SQLite (modernc.org/sqlite, без cgo)
// и применяет миграции по PRAGMA user_version.
// Используется при DB_DRIVER=sqlite — для одного инстанса бота без PostgreSQL.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion — последняя версия схемы.
const CurrentSchemaVersion = 1

// Open открывает (или создаёт) базу по пути path и применяет миграции.
// Пул ограничен одним соединением: SQLite допускает одного писателя,
// а транзакции кармы так сериализуются внутри процесса.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("не удалось создать каталог базы: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть базу: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	log.WithField("path", path).Info("База SQLite открыта")
	return db, nil
}

// GetUserVersion читает PRAGMA user_version.
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("не удалось прочитать user_version: %w", err)
	}
	return version, nil
}

func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		// karma_events только дополняется: UPDATE и DELETE запрещены триггерами.
		schema := `
		CREATE TABLE IF NOT EXISTS chats (
		  chat_id    INTEGER PRIMARY KEY,
		  title      TEXT NOT NULL DEFAULT '',
		  created_at INTEGER NOT NULL,
		  updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS chat_members (
		  chat_id    INTEGER NOT NULL REFERENCES chats(chat_id),
		  user_id    INTEGER NOT NULL,
		  username   TEXT NOT NULL DEFAULT '',
		  first_name TEXT NOT NULL DEFAULT '',
		  last_name  TEXT NOT NULL DEFAULT '',
		  has_left   INTEGER NOT NULL DEFAULT 0,
		  joined_at  INTEGER NOT NULL,
		  updated_at INTEGER NOT NULL,
		  PRIMARY KEY (chat_id, user_id)
		);

		CREATE TABLE IF NOT EXISTS karma_events (
		  id             TEXT PRIMARY KEY,
		  chat_id        INTEGER NOT NULL,
		  target_user_id INTEGER NOT NULL,
		  actor_user_id  INTEGER NOT NULL,
		  direction      TEXT NOT NULL CHECK (direction IN ('increase', 'decrease')),
		  created_at     INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_karma_events_chat
		ON karma_events(chat_id, target_user_id);

		CREATE INDEX IF NOT EXISTS idx_karma_events_actor
		ON karma_events(chat_id, actor_user_id, created_at DESC);

		CREATE TRIGGER IF NOT EXISTS karma_events_no_update
		BEFORE UPDATE ON karma_events
		BEGIN SELECT RAISE(ABORT, 'karma_events is append-only'); END;

		CREATE TRIGGER IF NOT EXISTS karma_events_no_delete
		BEFORE DELETE ON karma_events
		BEGIN SELECT RAISE(ABORT, 'karma_events is append-only'); END;
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if _, err := db.Exec("PRAGMA user_version = 1"); err != nil {
			return fmt.Errorf("не удалось записать user_version: %w", err)
		}
	}

	return nil
}
