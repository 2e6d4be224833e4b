// Package karma — service.go содержит правила кармы: дневной лимит,
// определение цели и текст таблицы кармы.
package karma

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/YogurtTheHorse/karma-bot/internal/common"
	"github.com/YogurtTheHorse/karma-bot/internal/config"
	"github.com/YogurtTheHorse/karma-bot/internal/features/members"
)

// Тексты ответов.
const (
	MsgNoKarma       = "Кармы в этом чате пока ни у кого нет"
	MsgTryTomorrow   = "⏳ Лимит на сегодня исчерпан, попробуй завтра"
	MsgKarmaGiven    = "⭐ +1 к карме!"
	MsgKarmaTaken    = "👎 -1 к карме"
	MsgInvalidTarget = "❌ Не понял, кому. Укажи id пользователя или упоминание"
)

// DefaultDailyLimit — сколько раз в день можно дать (и отдельно снять) карму.
const DefaultDailyLimit = 3

// Service управляет системой кармы. Своего состояния не хранит —
// всё читает и пишет через Ledger.
type Service struct {
	ledger           *Ledger
	dailyLimit       int
	rejectUnresolved bool
}

// NewService создаёт сервис кармы.
func NewService(ledger *Ledger, cfg *config.Config) *Service {
	limit := cfg.KarmaDailyLimit
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &Service{
		ledger:           ledger,
		dailyLimit:       limit,
		rejectUnresolved: cfg.KarmaRejectUnresolved,
	}
}

// DailyLimit возвращает лимит на одно направление в день.
func (s *Service) DailyLimit() int {
	return s.dailyLimit
}

// ShowStats возвращает таблицу кармы чата: "Имя: карма" по строке на участника.
// Пользователи, которых нет в списке участников чата, пропускаются.
func (s *Service) ShowStats(ctx context.Context, chat *members.Chat) (string, error) {
	totals, err := s.ledger.TotalsByUser(ctx, chat.ID)
	if err != nil {
		return "", err
	}
	if len(totals) == 0 {
		return MsgNoKarma, nil
	}

	lines := make([]string, 0, len(totals))
	for _, t := range totals {
		name, ok := chat.Members[t.UserID]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %d", name, t.Karma))
	}
	if len(lines) == 0 {
		// карма есть только у тех, кого уже нет в чате
		return MsgNoKarma, nil
	}
	return strings.Join(lines, "\n"), nil
}

// GiveKarma даёт +1 карму пользователю из rawTarget.
func (s *Service) GiveKarma(ctx context.Context, chat *members.Chat, actorID int64, rawTarget string) (string, error) {
	return s.change(ctx, chat, actorID, rawTarget, Increase, MsgKarmaGiven)
}

// TakeKarma снимает 1 карму с пользователя из rawTarget.
func (s *Service) TakeKarma(ctx context.Context, chat *members.Chat, actorID int64, rawTarget string) (string, error) {
	return s.change(ctx, chat, actorID, rawTarget, Decrease, MsgKarmaTaken)
}

func (s *Service) change(ctx context.Context, chat *members.Chat, actorID int64, rawTarget string, dir Direction, ack string) (string, error) {
	targetID := ResolveTarget(rawTarget)
	logger := log.WithFields(log.Fields{
		"component": "karma",
		"chat_id":   chat.ID,
		"user_id":   actorID,
		"target_id": targetID,
		"direction": dir,
	})

	if targetID == UnresolvedTarget && s.rejectUnresolved {
		logger.WithField("raw_target", rawTarget).Debug("Цель не определена")
		return "", common.ErrInvalidTarget
	}

	err := s.record(ctx, chat.ID, targetID, actorID, dir)
	if errors.Is(err, common.ErrKarmaDailyLimit) {
		logger.Debug("Дневной лимит исчерпан")
		return MsgTryTomorrow, nil
	}
	if err != nil {
		return "", err
	}

	logger.Info("Карма изменена")
	return ack, nil
}

// record проверяет дневной лимит и пишет событие.
// Быстрая проверка по TodayCounts, затем запись с повторной атомарной
// проверкой в хранилище: два параллельных запроса не пройдут лимит оба.
func (s *Service) record(ctx context.Context, chatID, targetID, actorID int64, dir Direction) error {
	counts, err := s.ledger.TodayCounts(ctx, chatID, actorID)
	if err != nil {
		return err
	}
	if counts.Of(dir) >= s.dailyLimit {
		return common.ErrKarmaDailyLimit
	}

	_, ok, err := s.ledger.RecordEventLimited(ctx, chatID, targetID, actorID, dir, s.dailyLimit)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrKarmaDailyLimit
	}
	return nil
}
