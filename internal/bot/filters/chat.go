// Package filters решает, в каких чатах бот вообще отвечает.
package filters

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// ChatFilter пропускает только групповые чаты.
// Если список разрешённых чатов задан — только их.
type ChatFilter struct {
	allowed map[int64]struct{}
}

// NewChatFilter создаёт фильтр. Пустой список — любой групповой чат.
func NewChatFilter(allowedChatIDs []int64) *ChatFilter {
	allowed := make(map[int64]struct{}, len(allowedChatIDs))
	for _, id := range allowedChatIDs {
		allowed[id] = struct{}{}
	}
	return &ChatFilter{allowed: allowed}
}

// CheckAccess возвращает true, если сообщение нужно обработать.
func (f *ChatFilter) CheckAccess(message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("nil message/chat")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Debug("nil message.From (service/channel message?)")
		return false
	}

	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
		"user_id":   message.From.ID,
	})

	// 1) Карма — только в группах
	if !message.Chat.IsGroup() && !message.Chat.IsSuperGroup() {
		logger.Debug("deny: not a group chat")
		return false
	}

	// 2) Список не задан — пускаем любую группу
	if len(f.allowed) == 0 {
		return true
	}

	if _, ok := f.allowed[message.Chat.ID]; ok {
		return true
	}
	logger.Info("deny: chat not in ALLOWED_CHAT_IDS")
	return false
}
