// Package karma — repository_sqlite.go хранит журнал кармы в SQLite.
// Время хранится как unix-наносекунды в UTC.
package karma

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteRepository работает с таблицей karma_events в SQLite.
// Пул открывается с одним соединением (см. db/sqlite), поэтому
// транзакция AppendLimited сериализует все записи процесса.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository создаёт репозиторий кармы поверх SQLite.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const insertEventSQLite = `
	INSERT INTO karma_events (id, chat_id, target_user_id, actor_user_id, direction, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
`

func (r *SQLiteRepository) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx, insertEventSQLite,
		e.ID, e.ChatID, e.TargetUserID, e.ActorUserID, string(e.Direction), e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("ошибка записи события кармы: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) AppendLimited(ctx context.Context, e Event, since time.Time, limit int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM karma_events
		WHERE chat_id = ? AND actor_user_id = ? AND direction = ? AND created_at >= ?
	`, e.ChatID, e.ActorUserID, string(e.Direction), since.UnixNano()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("ошибка подсчёта событий: %w", err)
	}
	if count >= limit {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, insertEventSQLite,
		e.ID, e.ChatID, e.TargetUserID, e.ActorUserID, string(e.Direction), e.CreatedAt.UnixNano(),
	); err != nil {
		return false, fmt.Errorf("ошибка записи события кармы: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) Totals(ctx context.Context, chatID int64) ([]Total, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT target_user_id,
		       SUM(CASE WHEN direction = 'increase' THEN 1 ELSE -1 END) AS karma
		FROM karma_events
		WHERE chat_id = ?
		GROUP BY target_user_id
		ORDER BY karma DESC, target_user_id ASC
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка агрегации кармы: %w", err)
	}
	defer rows.Close()

	var totals []Total
	for rows.Next() {
		var t Total
		if err := rows.Scan(&t.UserID, &t.Karma); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *SQLiteRepository) CountsSince(ctx context.Context, chatID, actorID int64, since time.Time) (Counts, error) {
	var c Counts
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(direction = 'increase'), 0),
		       COALESCE(SUM(direction = 'decrease'), 0)
		FROM karma_events
		WHERE chat_id = ? AND actor_user_id = ? AND created_at >= ?
	`, chatID, actorID, since.UnixNano()).Scan(&c.Increase, &c.Decrease)
	if err != nil {
		return Counts{}, fmt.Errorf("ошибка подсчёта событий: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) Events(ctx context.Context, chatID int64) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chat_id, target_user_id, actor_user_id, direction, created_at
		FROM karma_events
		WHERE chat_id = ?
		ORDER BY created_at, id
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения событий: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var dir string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.ChatID, &e.TargetUserID, &e.ActorUserID, &dir, &createdAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		e.Direction = Direction(dir)
		e.CreatedAt = time.Unix(0, createdAt)
		events = append(events, e)
	}
	return events, rows.Err()
}
