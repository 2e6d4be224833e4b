// Package members — repository_sqlite.go хранит чаты и участников в SQLite.
package members

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/YogurtTheHorse/karma-bot/internal/common"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) UpsertChat(ctx context.Context, chatID int64, title string) error {
	now := time.Now().UnixNano()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chats (chat_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (chat_id) DO UPDATE
		SET title = excluded.title, updated_at = excluded.updated_at
	`, chatID, title, now, now)
	if err != nil {
		return fmt.Errorf("ошибка сохранения чата: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetChatTitle(ctx context.Context, chatID int64) (string, error) {
	var title string
	err := r.db.QueryRowContext(ctx, `SELECT title FROM chats WHERE chat_id = ?`, chatID).Scan(&title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("chat_id=%d: %w", chatID, common.ErrChatNotFound)
		}
		return "", fmt.Errorf("ошибка чтения чата (chat_id=%d): %w", chatID, err)
	}
	return title, nil
}

func (r *SQLiteRepository) ChatIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT chat_id FROM chats ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса чатов: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка чтения чатов: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) Upsert(ctx context.Context, m *Member) error {
	now := time.Now().UnixNano()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_members (chat_id, user_id, username, first_name, last_name, has_left, joined_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT (chat_id, user_id) DO UPDATE
		SET username = excluded.username,
		    first_name = excluded.first_name,
		    last_name = excluded.last_name,
		    has_left = 0,
		    updated_at = excluded.updated_at
	`, m.ChatID, m.UserID, m.Username, m.FirstName, m.LastName, now, now)
	if err != nil {
		return fmt.Errorf("ошибка создания/обновления участника: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkLeft(ctx context.Context, chatID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chat_members SET has_left = 1, updated_at = ? WHERE chat_id = ? AND user_id = ?`,
		time.Now().UnixNano(), chatID, userID,
	)
	if err != nil {
		return fmt.Errorf("ошибка пометки выхода участника: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListActive(ctx context.Context, chatID int64) ([]*Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, user_id, username, first_name, last_name, has_left, joined_at, updated_at
		FROM chat_members
		WHERE chat_id = ? AND has_left = 0
		ORDER BY user_id
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса участников: %w", err)
	}
	defer rows.Close()

	var out []*Member
	for rows.Next() {
		var m Member
		var joinedAt, updatedAt int64
		if err := rows.Scan(
			&m.ChatID, &m.UserID, &m.Username, &m.FirstName, &m.LastName,
			&m.HasLeft, &joinedAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		m.JoinedAt = time.Unix(0, joinedAt)
		m.UpdatedAt = time.Unix(0, updatedAt)
		out = append(out, &m)
	}
	return out, rows.Err()
}
