// Package karma — ledger.go оборачивает Store: проставляет id и время событий,
// считает границу «сегодня», ограничивает каждый вызов таймаутом
// и заворачивает ошибки хранилища в StorageError.
package karma

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/YogurtTheHorse/karma-bot/internal/common"
)

// DefaultTimeout — таймаут одного обращения к хранилищу по умолчанию.
const DefaultTimeout = 5 * time.Second

// Ledger — журнал кармы. Суммы всегда пересчитываются из событий,
// счётчиков отдельно не хранится.
type Ledger struct {
	store   Store
	loc     *time.Location
	timeout time.Duration
	now     func() time.Time

	mu      sync.Mutex // entropy не потокобезопасен
	entropy io.Reader
}

// NewLedger создаёт журнал поверх хранилища.
// loc задаёт полночь для TodayCounts, timeout ограничивает каждый вызов хранилища.
func NewLedger(store Store, loc *time.Location, timeout time.Duration) *Ledger {
	if loc == nil {
		loc = time.Local
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Ledger{
		store:   store,
		loc:     loc,
		timeout: timeout,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// RecordEvent добавляет событие без проверки лимитов.
func (l *Ledger) RecordEvent(ctx context.Context, chatID, targetID, actorID int64, dir Direction) (Event, error) {
	e, err := l.newEvent(chatID, targetID, actorID, dir)
	if err != nil {
		return Event{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.store.Append(ctx, e); err != nil {
		return Event{}, &StorageError{Op: "append", Err: err}
	}
	return e, nil
}

// RecordEventLimited добавляет событие, только если автор сегодня сделал
// меньше limit изменений этого направления. ok=false — лимит исчерпан, записи нет.
func (l *Ledger) RecordEventLimited(ctx context.Context, chatID, targetID, actorID int64, dir Direction, limit int) (Event, bool, error) {
	e, err := l.newEvent(chatID, targetID, actorID, dir)
	if err != nil {
		return Event{}, false, err
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ok, err := l.store.AppendLimited(ctx, e, l.startOfToday(e.CreatedAt), limit)
	if err != nil {
		return Event{}, false, &StorageError{Op: "append limited", Err: err}
	}
	if !ok {
		return Event{}, false, nil
	}
	return e, true, nil
}

// TotalsByUser возвращает карму пользователей чата по убыванию.
// Пустой срез, если событий нет.
func (l *Ledger) TotalsByUser(ctx context.Context, chatID int64) ([]Total, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	totals, err := l.store.Totals(ctx, chatID)
	if err != nil {
		return nil, &StorageError{Op: "totals", Err: err}
	}
	if totals == nil {
		totals = []Total{}
	}
	return totals, nil
}

// TodayCounts — сколько раз автор давал и снимал карму в чате с полуночи.
func (l *Ledger) TodayCounts(ctx context.Context, chatID, actorID int64) (Counts, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	c, err := l.store.CountsSince(ctx, chatID, actorID, l.startOfToday(l.now()))
	if err != nil {
		return Counts{}, &StorageError{Op: "today counts", Err: err}
	}
	return c, nil
}

// Events возвращает историю событий чата (для аудита).
func (l *Ledger) Events(ctx context.Context, chatID int64) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	events, err := l.store.Events(ctx, chatID)
	if err != nil {
		return nil, &StorageError{Op: "events", Err: err}
	}
	return events, nil
}

// Location возвращает часовой пояс, по которому считается «сегодня».
func (l *Ledger) Location() *time.Location {
	return l.loc
}

func (l *Ledger) startOfToday(now time.Time) time.Time {
	return common.StartOfDay(now, l.loc)
}

func (l *Ledger) newEvent(chatID, targetID, actorID int64, dir Direction) (Event, error) {
	if !dir.Valid() {
		return Event{}, fmt.Errorf("unknown karma direction %q", dir)
	}

	now := l.now()

	l.mu.Lock()
	id, err := ulid.New(ulid.Timestamp(now), l.entropy)
	l.mu.Unlock()
	if err != nil {
		return Event{}, fmt.Errorf("ulid: %w", err)
	}

	return Event{
		ID:           id.String(),
		ChatID:       chatID,
		TargetUserID: targetID,
		ActorUserID:  actorID,
		Direction:    dir,
		CreatedAt:    now,
	}, nil
}
