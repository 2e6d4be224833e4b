// Package members — store.go описывает контракт хранилища участников.
// Реализации: Repository (PostgreSQL), SQLiteRepository и MemoryStore.
package members

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/YogurtTheHorse/karma-bot/internal/common"
)

// Store — хранилище чатов и участников.
type Store interface {
	// UpsertChat создаёт чат или обновляет его название.
	UpsertChat(ctx context.Context, chatID int64, title string) error
	// GetChatTitle возвращает название чата; common.ErrChatNotFound, если чата нет.
	GetChatTitle(ctx context.Context, chatID int64) (string, error)
	// ChatIDs возвращает id всех известных чатов.
	ChatIDs(ctx context.Context) ([]int64, error)
	// Upsert создаёт участника или обновляет имя и снимает флаг has_left.
	Upsert(ctx context.Context, m *Member) error
	// MarkLeft помечает участника как вышедшего.
	MarkLeft(ctx context.Context, chatID, userID int64) error
	// ListActive возвращает текущих участников чата.
	ListActive(ctx context.Context, chatID int64) ([]*Member, error)
}

type memberKey struct {
	chatID int64
	userID int64
}

// MemoryStore — хранилище в памяти (тесты и DB_DRIVER=memory).
type MemoryStore struct {
	mu      sync.RWMutex
	chats   map[int64]string
	members map[memberKey]*Member
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chats:   make(map[int64]string),
		members: make(map[memberKey]*Member),
	}
}

func (s *MemoryStore) UpsertChat(_ context.Context, chatID int64, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chatID] = title
	return nil
}

func (s *MemoryStore) GetChatTitle(_ context.Context, chatID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	title, ok := s.chats[chatID]
	if !ok {
		return "", common.ErrChatNotFound
	}
	return title, nil
}

func (s *MemoryStore) ChatIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.chats))
	for id := range s.chats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemoryStore) Upsert(_ context.Context, m *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	key := memberKey{m.ChatID, m.UserID}
	stored, ok := s.members[key]
	if !ok {
		stored = &Member{ChatID: m.ChatID, UserID: m.UserID, JoinedAt: now}
		s.members[key] = stored
	}
	stored.Username = m.Username
	stored.FirstName = m.FirstName
	stored.LastName = m.LastName
	stored.HasLeft = false
	stored.UpdatedAt = now
	return nil
}

func (s *MemoryStore) MarkLeft(_ context.Context, chatID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.members[memberKey{chatID, userID}]; ok {
		m.HasLeft = true
		m.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (s *MemoryStore) ListActive(_ context.Context, chatID int64) ([]*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Member
	for key, m := range s.members {
		if key.chatID != chatID || m.HasLeft {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
