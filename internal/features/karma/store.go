// Package karma — store.go описывает контракт хранилища журнала кармы.
// Реализации: MemoryStore, Repository (PostgreSQL), SQLiteRepository.
package karma

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/YogurtTheHorse/karma-bot/internal/common"
)

// Store — хранилище событий кармы. Только добавление и чтение.
type Store interface {
	// Append добавляет событие.
	Append(ctx context.Context, e Event) error
	// AppendLimited добавляет событие, только если у автора в этом чате
	// меньше limit событий того же направления начиная с since.
	// Проверка и запись выполняются атомарно для ключа (чат, автор, направление).
	AppendLimited(ctx context.Context, e Event, since time.Time, limit int) (bool, error)
	// Totals — карма по пользователям чата, по убыванию (при равенстве — по user id).
	Totals(ctx context.Context, chatID int64) ([]Total, error)
	// CountsSince — события автора в чате начиная с since.
	CountsSince(ctx context.Context, chatID, actorID int64, since time.Time) (Counts, error)
	// Events — все события чата в хронологическом порядке.
	Events(ctx context.Context, chatID int64) ([]Event, error)
}

// StorageError — ошибка хранилища (таймаут, соединение).
// Совпадает с common.ErrStorage и с исходной ошибкой через errors.Is.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("karma storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{common.ErrStorage, e.Err}
}

// sortTotals упорядочивает агрегаты: карма по убыванию, затем user id по возрастанию.
func sortTotals(totals []Total) {
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Karma != totals[j].Karma {
			return totals[i].Karma > totals[j].Karma
		}
		return totals[i].UserID < totals[j].UserID
	})
}

// foldTotals сворачивает события в суммы по пользователям.
func foldTotals(events []Event) []Total {
	sums := make(map[int64]int)
	for _, e := range events {
		sums[e.TargetUserID] += e.Direction.Delta()
	}
	totals := make([]Total, 0, len(sums))
	for userID, karma := range sums {
		totals = append(totals, Total{UserID: userID, Karma: karma})
	}
	sortTotals(totals)
	return totals
}
