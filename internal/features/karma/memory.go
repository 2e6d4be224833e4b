// Package karma — memory.go хранит журнал в памяти процесса.
// Используется в тестах и при DB_DRIVER=memory.
package karma

import (
	"context"
	"sync"
	"time"
)

// MemoryStore — журнал в памяти. Один мьютекс на всё хранилище
// сериализует AppendLimited.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryStore создаёт пустой журнал.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *MemoryStore) AppendLimited(ctx context.Context, e Event, since time.Time, limit int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.countsSince(e.ChatID, e.ActorUserID, since).Of(e.Direction) >= limit {
		return false, nil
	}
	s.events = append(s.events, e)
	return true, nil
}

func (s *MemoryStore) Totals(ctx context.Context, chatID int64) ([]Total, error) {
	events, err := s.Events(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return foldTotals(events), nil
}

func (s *MemoryStore) CountsSince(ctx context.Context, chatID, actorID int64, since time.Time) (Counts, error) {
	if err := ctx.Err(); err != nil {
		return Counts{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countsSince(chatID, actorID, since), nil
}

func (s *MemoryStore) Events(ctx context.Context, chatID int64) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Event
	for _, e := range s.events {
		if e.ChatID == chatID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) countsSince(chatID, actorID int64, since time.Time) Counts {
	var c Counts
	for _, e := range s.events {
		if e.ChatID != chatID || e.ActorUserID != actorID || e.CreatedAt.Before(since) {
			continue
		}
		if e.Direction == Increase {
			c.Increase++
		} else {
			c.Decrease++
		}
	}
	return c
}
