// Package members — handlers.go обрабатывает Telegram-события, связанные с участниками:
// вступление в чат и выход из него.
package members

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Handler обрабатывает события участников.
type Handler struct {
	service *Service // Сервис участников для бизнес-логики
}

// NewHandler создаёт новый обработчик событий участников.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleNewChatMembers регистрирует каждого вступившего пользователя.
// Боты пропускаются — карму им не дают.
func (h *Handler) HandleNewChatMembers(ctx context.Context, chatID int64, newMembers []tgbotapi.User) {
	for _, user := range newMembers {
		if user.IsBot {
			continue
		}
		err := h.service.HandleNewMember(ctx, chatID, user.ID, InfoFromUser(&user))
		if err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Ошибка регистрации нового участника")
		}
	}
}

// HandleLeftChatMember помечает вышедшего пользователя.
func (h *Handler) HandleLeftChatMember(ctx context.Context, chatID int64, user *tgbotapi.User) {
	if user == nil {
		return
	}
	if err := h.service.HandleLeftMember(ctx, chatID, user.ID); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("Ошибка обработки выхода участника")
	}
}

// InfoFromUser переносит имя и username из Telegram-пользователя.
func InfoFromUser(u *tgbotapi.User) UpdateInfo {
	return UpdateInfo{
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
