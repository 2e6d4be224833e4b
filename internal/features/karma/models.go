// Package karma реализует систему кармы: журнал событий (ledger) и правила
// выдачи/снятия кармы с дневным лимитом.
// models.go описывает событие кармы и агрегаты, которые считаются из журнала.
package karma

import "time"

// Direction — направление изменения кармы.
type Direction string

const (
	Increase Direction = "increase"
	Decrease Direction = "decrease"
)

// Valid проверяет, что направление из допустимого набора.
func (d Direction) Valid() bool {
	return d == Increase || d == Decrease
}

// Delta — вклад одного события в сумму кармы.
func (d Direction) Delta() int {
	if d == Increase {
		return 1
	}
	return -1
}

// Event — неизменяемая запись журнала. Создаётся один раз на каждую
// успешную команду /karma или /dekarm, не обновляется и не удаляется.
type Event struct {
	ID           string    `db:"id"` // ULID
	ChatID       int64     `db:"chat_id"`
	TargetUserID int64     `db:"target_user_id"`
	ActorUserID  int64     `db:"actor_user_id"`
	Direction    Direction `db:"direction"`
	CreatedAt    time.Time `db:"created_at"`
}

// Total — суммарная карма пользователя в чате.
type Total struct {
	UserID int64 `db:"target_user_id"`
	Karma  int   `db:"karma"`
}

// Counts — сколько раз автор давал и снимал карму за период.
type Counts struct {
	Increase int
	Decrease int
}

// Of возвращает счётчик для направления.
func (c Counts) Of(d Direction) int {
	if d == Increase {
		return c.Increase
	}
	return c.Decrease
}
