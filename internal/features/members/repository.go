// Package members — repository.go отвечает за операции с таблицами chats
// и chat_members в PostgreSQL.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package members

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YogurtTheHorse/karma-bot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) UpsertChat(ctx context.Context, chatID int64, title string) error {
	query := `
		INSERT INTO chats (chat_id, title)
		VALUES ($1, $2)
		ON CONFLICT (chat_id) DO UPDATE
		SET title = EXCLUDED.title, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, chatID, title); err != nil {
		return fmt.Errorf("ошибка сохранения чата: %w", err)
	}
	return nil
}

// GetChatTitle: если чат не найден — common.ErrChatNotFound
func (r *Repository) GetChatTitle(ctx context.Context, chatID int64) (string, error) {
	var title string
	err := r.db.QueryRow(ctx, `SELECT title FROM chats WHERE chat_id = $1`, chatID).Scan(&title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("chat_id=%d: %w", chatID, common.ErrChatNotFound)
		}
		return "", fmt.Errorf("ошибка чтения чата (chat_id=%d): %w", chatID, err)
	}
	return title, nil
}

func (r *Repository) ChatIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT chat_id FROM chats ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса чатов: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения чатов: %w", err)
	}
	return ids, nil
}

// Upsert добавляет участника чата.
// На конфликте обновляет только имя/username и возвращает его в чат.
func (r *Repository) Upsert(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO chat_members (chat_id, user_id, username, first_name, last_name, has_left, joined_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		ON CONFLICT (chat_id, user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    has_left = FALSE,
		    updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query,
		m.ChatID, m.UserID, m.Username, m.FirstName, m.LastName, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("ошибка создания/обновления участника: %w", err)
	}
	return nil
}

func (r *Repository) MarkLeft(ctx context.Context, chatID, userID int64) error {
	query := `UPDATE chat_members SET has_left = TRUE, updated_at = NOW() WHERE chat_id = $1 AND user_id = $2`
	if _, err := r.db.Exec(ctx, query, chatID, userID); err != nil {
		return fmt.Errorf("ошибка пометки выхода участника: %w", err)
	}
	return nil
}

func (r *Repository) ListActive(ctx context.Context, chatID int64) ([]*Member, error) {
	query := `
		SELECT chat_id, user_id, username, first_name, last_name, has_left, joined_at, updated_at
		FROM chat_members
		WHERE chat_id = $1 AND has_left = FALSE
		ORDER BY user_id
	`
	rows, err := r.db.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса участников: %w", err)
	}
	defer rows.Close()

	var out []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(
			&m.ChatID, &m.UserID, &m.Username, &m.FirstName, &m.LastName,
			&m.HasLeft, &m.JoinedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}

	return out, nil
}
