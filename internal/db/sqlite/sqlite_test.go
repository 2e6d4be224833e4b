package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "karma.db")

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	version, err := GetUserVersion(db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)

	for _, table := range []string{"chats", "chat_members", "karma_events"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
	}

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "karma.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	version, err := GetUserVersion(db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestKarmaEvents_AppendOnly(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "karma.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO karma_events (id, chat_id, target_user_id, actor_user_id, direction, created_at)
		VALUES ('01HZZZZZZZZZZZZZZZZZZZZZZZ', 1, 2, 3, 'increase', 0)`)
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE karma_events SET direction = 'decrease'`)
	assert.ErrorContains(t, err, "append-only")

	_, err = db.Exec(`DELETE FROM karma_events`)
	assert.ErrorContains(t, err, "append-only")

	_, err = db.Exec(`INSERT INTO karma_events (id, chat_id, target_user_id, actor_user_id, direction, created_at)
		VALUES ('01HZZZZZZZZZZZZZZZZZZZZZZY', 1, 2, 3, 'sideways', 0)`)
	assert.Error(t, err)
}
