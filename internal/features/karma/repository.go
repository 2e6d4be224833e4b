// Package karma — repository.go хранит журнал кармы в PostgreSQL (таблица karma_events).
package karma

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository работает с таблицей karma_events.
// UPDATE и DELETE запрещены триггером в миграции.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий кармы.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const insertEventSQL = `
	INSERT INTO karma_events (id, chat_id, target_user_id, actor_user_id, direction, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
`

// Append записывает событие.
func (r *Repository) Append(ctx context.Context, e Event) error {
	_, err := r.db.Exec(ctx, insertEventSQL,
		e.ID, e.ChatID, e.TargetUserID, e.ActorUserID, string(e.Direction), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ошибка записи события кармы: %w", err)
	}
	return nil
}

// AppendLimited проверяет лимит и записывает событие в одной транзакции.
// Транзакционная advisory-блокировка по ключу (чат, автор, направление)
// не даёт двум параллельным запросам одновременно пройти проверку.
func (r *Repository) AppendLimited(ctx context.Context, e Event, since time.Time, limit int) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	// Откатываем транзакцию, если что-то пошло не так
	defer tx.Rollback(ctx)

	lockKey := fmt.Sprintf("karma:%d:%d:%s", e.ChatID, e.ActorUserID, e.Direction)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		return false, fmt.Errorf("ошибка блокировки: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM karma_events
		WHERE chat_id = $1 AND actor_user_id = $2 AND direction = $3 AND created_at >= $4
	`, e.ChatID, e.ActorUserID, string(e.Direction), since).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("ошибка подсчёта событий: %w", err)
	}
	if count >= limit {
		return false, nil
	}

	if _, err := tx.Exec(ctx, insertEventSQL,
		e.ID, e.ChatID, e.TargetUserID, e.ActorUserID, string(e.Direction), e.CreatedAt,
	); err != nil {
		return false, fmt.Errorf("ошибка записи события кармы: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return true, nil
}

// Totals считает карму по пользователям чата.
func (r *Repository) Totals(ctx context.Context, chatID int64) ([]Total, error) {
	query := `
		SELECT target_user_id,
		       SUM(CASE WHEN direction = 'increase' THEN 1 ELSE -1 END) AS karma
		FROM karma_events
		WHERE chat_id = $1
		GROUP BY target_user_id
		ORDER BY karma DESC, target_user_id ASC
	`
	rows, err := r.db.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка агрегации кармы: %w", err)
	}
	totals, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Total, error) {
		var t Total
		err := row.Scan(&t.UserID, &t.Karma)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования: %w", err)
	}
	return totals, nil
}

// CountsSince считает события автора начиная с since.
func (r *Repository) CountsSince(ctx context.Context, chatID, actorID int64, since time.Time) (Counts, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE direction = 'increase'),
		       COUNT(*) FILTER (WHERE direction = 'decrease')
		FROM karma_events
		WHERE chat_id = $1 AND actor_user_id = $2 AND created_at >= $3
	`
	var c Counts
	if err := r.db.QueryRow(ctx, query, chatID, actorID, since).Scan(&c.Increase, &c.Decrease); err != nil {
		return Counts{}, fmt.Errorf("ошибка подсчёта событий: %w", err)
	}
	return c, nil
}

// Events возвращает события чата в порядке записи.
func (r *Repository) Events(ctx context.Context, chatID int64) ([]Event, error) {
	query := `
		SELECT id, chat_id, target_user_id, actor_user_id, direction, created_at
		FROM karma_events
		WHERE chat_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения событий: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var dir string
		if err := rows.Scan(&e.ID, &e.ChatID, &e.TargetUserID, &e.ActorUserID, &dir, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		e.Direction = Direction(dir)
		events = append(events, e)
	}
	return events, rows.Err()
}
