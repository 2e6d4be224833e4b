// Package bot — dispatch.go связывает разбор команд с сервисом кармы.
// Dispatcher не знает про Telegram: на входе текст и id, на выходе текст ответа.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/YogurtTheHorse/karma-bot/internal/bot/commands"
	"github.com/YogurtTheHorse/karma-bot/internal/common"
	"github.com/YogurtTheHorse/karma-bot/internal/features/karma"
	"github.com/YogurtTheHorse/karma-bot/internal/features/members"
)

// Тексты ответов на ошибки.
const (
	MsgStorageFailure = "⚠️ Не получилось, попробуй чуть позже"
	MsgInternalError  = "⚠️ Что-то пошло не так"
)

// ChatSource отдаёт чат с именами участников.
type ChatSource interface {
	Chat(ctx context.Context, chatID int64) (*members.Chat, error)
}

// Incoming — входящее сообщение, уже без привязки к транспорту.
type Incoming struct {
	ChatID  int64
	ActorID int64
	Text    string
	// ReplyToUserID — автор сообщения, на которое ответили (0 — не ответ).
	ReplyToUserID int64
}

// Dispatcher разбирает текст и выполняет команду.
type Dispatcher struct {
	registry *commands.Registry
	karma    *karma.Service
	chats    ChatSource
}

// NewDispatcher создаёт диспетчер команд.
func NewDispatcher(registry *commands.Registry, karmaService *karma.Service, chats ChatSource) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		karma:    karmaService,
		chats:    chats,
	}
}

// Registry возвращает реестр команд.
func (d *Dispatcher) Registry() *commands.Registry {
	return d.registry
}

// Dispatch выполняет уже разобранную команду.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd commands.Command, chat *members.Chat, actorID int64) (string, error) {
	switch c := cmd.(type) {
	case commands.Help:
		return d.registry.List(), nil
	case commands.Stats:
		return d.karma.ShowStats(ctx, chat)
	case commands.GiveKarma:
		return d.karma.GiveKarma(ctx, chat, actorID, c.Target)
	case commands.TakeKarma:
		return d.karma.TakeKarma(ctx, chat, actorID, c.Target)
	default:
		return "", fmt.Errorf("неизвестный тип команды %T", cmd)
	}
}

// Handle разбирает и выполняет сообщение.
// ok=false — это не команда, отвечать не нужно. Любая ошибка превращается в текст ответа.
func (d *Dispatcher) Handle(ctx context.Context, in Incoming) (reply string, ok bool) {
	res, isCommand, err := d.parse(in)
	if !isCommand {
		return "", false
	}

	logger := log.WithFields(log.Fields{
		"component": "dispatcher",
		"chat_id":   in.ChatID,
		"user_id":   in.ActorID,
		"cmd":       res.Name,
	})
	if err != nil {
		logger.WithError(err).Debug("Команда не разобрана")
		return ErrorReply(err), true
	}

	chat, err := d.chats.Chat(ctx, in.ChatID)
	if errors.Is(err, common.ErrChatNotFound) {
		// сообщение пришло раньше, чем чат успели записать
		chat, err = &members.Chat{ID: in.ChatID, Members: map[int64]string{}}, nil
	}
	if err != nil {
		logger.WithError(err).Error("Не удалось загрузить чат")
		return ErrorReply(err), true
	}

	reply, err = d.Dispatch(ctx, res.Command, chat, in.ActorID)
	if err != nil {
		if errors.Is(err, common.ErrStorage) {
			logger.WithError(err).Error("Ошибка хранилища кармы")
		} else {
			logger.WithError(err).Debug("Команда не выполнена")
		}
		return ErrorReply(err), true
	}
	return reply, true
}

// HandleText — Handle для сообщения, которое не является ответом.
func (d *Dispatcher) HandleText(ctx context.Context, chatID, actorID int64, text string) (string, bool) {
	return d.Handle(ctx, Incoming{ChatID: chatID, ActorID: actorID, Text: text})
}

// parse разбирает текст. Команда кармы без аргумента в ответ на сообщение
// получает автора того сообщения в качестве цели.
func (d *Dispatcher) parse(in Incoming) (commands.Result, bool, error) {
	res, isCommand, err := d.registry.Parse(in.Text)
	if !errors.Is(err, common.ErrArgCount) || in.ReplyToUserID == 0 || len(res.Args) != 0 {
		return res, isCommand, err
	}

	withTarget, _, retryErr := d.registry.Parse(in.Text + " " + strconv.FormatInt(in.ReplyToUserID, 10))
	if retryErr != nil {
		return res, isCommand, err
	}
	switch withTarget.Command.(type) {
	case commands.GiveKarma, commands.TakeKarma:
		return withTarget, true, nil
	}
	return res, isCommand, err
}

// ErrorReply превращает ошибку в текст ответа пользователю.
func ErrorReply(err error) string {
	switch {
	case errors.Is(err, common.ErrUnknownCommand),
		errors.Is(err, common.ErrMissingCommandName),
		errors.Is(err, common.ErrArgCount):
		return "❌ Ошибка разбора команды: " + err.Error()
	case errors.Is(err, common.ErrInvalidTarget):
		return karma.MsgInvalidTarget
	case errors.Is(err, common.ErrStorage):
		return MsgStorageFailure
	default:
		return MsgInternalError
	}
}
