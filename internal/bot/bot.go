// Package bot содержит главный модуль бота — приём апдейтов, фильтры и отправку ответов.
// bot.go запускает polling и передаёт сообщения диспетчеру команд.
package bot

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/YogurtTheHorse/karma-bot/internal/bot/filters"
	"github.com/YogurtTheHorse/karma-bot/internal/bot/middleware"
	"github.com/YogurtTheHorse/karma-bot/internal/config"
	"github.com/YogurtTheHorse/karma-bot/internal/features/members"
)

// Sender отправляет сообщения в Telegram.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// API — та часть tgbotapi.BotAPI, которой пользуется бот.
type API interface {
	Sender
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api API
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	memberService *members.Service
	memberHandler *members.Handler
	dispatcher    *Dispatcher

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
	wg       sync.WaitGroup
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api API,
	cfg *config.Config,
	memberService *members.Service,
	dispatcher *Dispatcher,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:           api,
		cfg:           cfg,
		chatFilter:    chatFilter,
		rateLimiter:   middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		memberService: memberService,
		memberHandler: members.NewHandler(memberService),
		dispatcher:    dispatcher,
		inflight:      make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
// Возвращается, когда ctx отменён и все начатые апдейты обработаны.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			select {
			case b.inflight <- struct{}{}:
			case <-ctx.Done():
				b.api.StopReceivingUpdates()
				return
			}
			b.wg.Add(1)
			go func(upd tgbotapi.Update) {
				defer b.wg.Done()
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// Close освобождает фоновые ресурсы бота.
func (b *Bot) Close() {
	b.rateLimiter.Close()
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	message := update.Message
	if message == nil {
		return
	}

	// Проверяем доступ (разрешённые групповые чаты)
	if !b.chatFilter.CheckAccess(message) {
		return
	}

	chatID := message.Chat.ID

	// Чат должен существовать раньше участников
	if err := b.memberService.EnsureChat(ctx, chatID, message.Chat.Title); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("EnsureChat failed")
		return
	}

	// Служебные события вступления и выхода
	if message.NewChatMembers != nil {
		b.memberHandler.HandleNewChatMembers(ctx, chatID, message.NewChatMembers)
		return
	}
	if message.LeftChatMember != nil {
		b.memberHandler.HandleLeftChatMember(ctx, chatID, message.LeftChatMember)
		return
	}

	if message.Text == "" || message.From.IsBot {
		return
	}

	// Логируем входящее
	middleware.LogMessage(message)

	userID := message.From.ID

	// EnsureMember — ошибки нельзя игнорировать, иначе потом будет "оно не работает"
	if err := b.memberService.EnsureMember(ctx, chatID, userID, members.InfoFromUser(message.From)); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("EnsureMember failed")
	}

	// Обычный текст дальше не идёт
	if !strings.HasPrefix(strings.Trim(message.Text, " "), b.dispatcher.Registry().Symbol()) {
		return
	}

	// Rate limiting
	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	in := Incoming{ChatID: chatID, ActorID: userID, Text: message.Text}
	if reply := message.ReplyToMessage; reply != nil && reply.From != nil && !reply.From.IsBot {
		in.ReplyToUserID = reply.From.ID
	}

	text, ok := b.dispatcher.Handle(ctx, in)
	if !ok {
		return
	}
	b.sendReply(chatID, message.MessageID, text)
}

// sendReply отправляет ответ на сообщение с командой.
func (b *Bot) sendReply(chatID int64, replyTo int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
