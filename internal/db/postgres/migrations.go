// Package postgres — migrations.go содержит SQL-миграции.
// Миграции встроены в код для упрощения деплоя.
package postgres

var migrations = []struct {
	version int
	sql     string
}{
	{1, migration001Chats},
	{2, migration002KarmaEvents},
}

var migration001Chats = `
CREATE TABLE IF NOT EXISTS chats (
    chat_id BIGINT PRIMARY KEY,
    title VARCHAR(255) NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS chat_members (
    chat_id BIGINT NOT NULL REFERENCES chats(chat_id),
    user_id BIGINT NOT NULL,
    username VARCHAR(255) NOT NULL DEFAULT '',
    first_name VARCHAR(255) NOT NULL DEFAULT '',
    last_name VARCHAR(255) NOT NULL DEFAULT '',
    has_left BOOLEAN NOT NULL DEFAULT FALSE,
    joined_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),
    PRIMARY KEY (chat_id, user_id)
);
`

// karma_events только дополняется: UPDATE и DELETE запрещены триггером.
var migration002KarmaEvents = `
CREATE TABLE IF NOT EXISTS karma_events (
    id VARCHAR(26) PRIMARY KEY,
    chat_id BIGINT NOT NULL,
    target_user_id BIGINT NOT NULL,
    actor_user_id BIGINT NOT NULL,
    direction VARCHAR(16) NOT NULL CHECK (direction IN ('increase', 'decrease')),
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_karma_events_chat ON karma_events(chat_id, target_user_id);
CREATE INDEX IF NOT EXISTS idx_karma_events_actor ON karma_events(chat_id, actor_user_id, created_at DESC);

CREATE OR REPLACE FUNCTION karma_events_append_only() RETURNS trigger AS $$
BEGIN
    RAISE EXCEPTION 'karma_events is append-only';
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS karma_events_no_modify ON karma_events;
CREATE TRIGGER karma_events_no_modify
    BEFORE UPDATE OR DELETE ON karma_events
    FOR EACH ROW EXECUTE FUNCTION karma_events_append_only();
`
