// Package members — service.go содержит логику работы с участниками:
// регистрацию чатов и участников, выход из чата и сборку Chat для кармы.
package members

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/YogurtTheHorse/karma-bot/internal/common"
)

// Service управляет чатами и их участниками.
type Service struct {
	repo Store
}

// NewService создаёт новый сервис участников.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// EnsureChat регистрирует чат при первом сообщении и обновляет его название.
// Пустое название не затирает сохранённое.
func (s *Service) EnsureChat(ctx context.Context, chatID int64, title string) error {
	stored, err := s.repo.GetChatTitle(ctx, chatID)
	switch {
	case errors.Is(err, common.ErrChatNotFound):
		if err := s.repo.UpsertChat(ctx, chatID, title); err != nil {
			return err
		}
		log.WithFields(log.Fields{"chat_id": chatID, "title": title}).Info("Новый чат зарегистрирован")
		return nil
	case err != nil:
		return err
	case title != "" && stored != title:
		return s.repo.UpsertChat(ctx, chatID, title)
	}
	return nil
}

// Chat возвращает чат вместе с именами текущих участников.
// Для незнакомого чата — common.ErrChatNotFound.
func (s *Service) Chat(ctx context.Context, chatID int64) (*Chat, error) {
	title, err := s.repo.GetChatTitle(ctx, chatID)
	if err != nil {
		return nil, err
	}
	names, err := s.Names(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return &Chat{ID: chatID, Title: title, Members: names}, nil
}

// Names возвращает отображаемые имена текущих участников чата.
func (s *Service) Names(ctx context.Context, chatID int64) (map[int64]string, error) {
	list, err := s.repo.ListActive(ctx, chatID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(list))
	for _, m := range list {
		names[m.UserID] = m.DisplayName()
	}
	return names, nil
}

// ListActive возвращает текущих участников чата.
func (s *Service) ListActive(ctx context.Context, chatID int64) ([]*Member, error) {
	return s.repo.ListActive(ctx, chatID)
}

// ChatIDs возвращает все известные чаты.
func (s *Service) ChatIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ChatIDs(ctx)
}

// EnsureMember регистрирует автора сообщения и обновляет его имя.
// Вызывается на каждое сообщение в чате.
func (s *Service) EnsureMember(ctx context.Context, chatID, userID int64, info UpdateInfo) error {
	return s.repo.Upsert(ctx, &Member{
		ChatID:    chatID,
		UserID:    userID,
		Username:  info.Username,
		FirstName: info.FirstName,
		LastName:  info.LastName,
	})
}

// HandleNewMember обрабатывает вступление пользователя в чат.
func (s *Service) HandleNewMember(ctx context.Context, chatID, userID int64, info UpdateInfo) error {
	if err := s.EnsureMember(ctx, chatID, userID, info); err != nil {
		return fmt.Errorf("ошибка регистрации нового участника: %w", err)
	}

	log.WithFields(log.Fields{
		"chat_id":  chatID,
		"user_id":  userID,
		"username": info.Username,
	}).Info("Новый участник зарегистрирован")
	return nil
}

// HandleLeftMember помечает участника как вышедшего.
// Его карма остаётся в журнале, но в таблицу кармы он больше не попадает.
func (s *Service) HandleLeftMember(ctx context.Context, chatID, userID int64) error {
	if err := s.repo.MarkLeft(ctx, chatID, userID); err != nil {
		return err
	}
	log.WithFields(log.Fields{"chat_id": chatID, "user_id": userID}).Info("Участник вышел из чата")
	return nil
}
