// Package members хранит чаты и их участников: кэш «user id → имя»,
// который нужен таблице кармы.
// models.go описывает структуры данных для таблиц chats и chat_members.
package members

import (
	"strconv"
	"time"
)

// Chat — чат, в котором работает бот.
// Members содержит только текущих участников (ушедшие исключены).
type Chat struct {
	ID      int64
	Title   string
	Members map[int64]string // user id → отображаемое имя
}

// Member — участник конкретного чата.
// Запись создаётся при первом сообщении пользователя в чате.
type Member struct {
	ChatID    int64     `db:"chat_id"`
	UserID    int64     `db:"user_id"`    // Telegram user ID
	Username  string    `db:"username"`   // @username (может быть пустым)
	FirstName string    `db:"first_name"` // Имя пользователя
	LastName  string    `db:"last_name"`  // Фамилия (может быть пустой)
	HasLeft   bool      `db:"has_left"`   // Вышел из чата (или был исключён)
	JoinedAt  time.Time `db:"joined_at"`  // Когда впервые увидели в чате
	UpdatedAt time.Time `db:"updated_at"` // Последнее обновление записи
}

// UpdateInfo содержит данные для обновления информации о пользователе.
// Используется, когда имя/username могли измениться.
type UpdateInfo struct {
	Username  string // Новый @username
	FirstName string // Новое имя
	LastName  string // Новая фамилия
}

// DisplayName возвращает отображаемое имя пользователя.
// Если есть @username — возвращает его, иначе — имя + фамилию,
// а если пусто и то и другое — id.
func (m *Member) DisplayName() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	name := m.FirstName
	if m.LastName != "" {
		if name != "" {
			name += " "
		}
		name += m.LastName
	}
	if name == "" {
		return strconv.FormatInt(m.UserID, 10)
	}
	return name
}
