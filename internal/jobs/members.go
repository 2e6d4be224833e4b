package jobs

import (
	"context"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/YogurtTheHorse/karma-bot/internal/features/members"
)

// refreshParallelism — сколько запросов GetChatMember идёт одновременно.
const refreshParallelism = 4

// MemberFetcher спрашивает у Telegram статус участника чата.
type MemberFetcher interface {
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// MembersRefresher обновляет имена и статус известных участников.
// Ушедшие из чата помечаются, их карма остаётся в журнале.
type MembersRefresher struct {
	members *members.Service
	fetcher MemberFetcher
}

// NewMembersRefresher создаёт задачу обновления участников.
func NewMembersRefresher(memberService *members.Service, fetcher MemberFetcher) *MembersRefresher {
	return &MembersRefresher{members: memberService, fetcher: fetcher}
}

// RefreshAll обновляет участников всех известных чатов.
func (r *MembersRefresher) RefreshAll(ctx context.Context) error {
	chatIDs, err := r.members.ChatIDs(ctx)
	if err != nil {
		return err
	}
	for _, chatID := range chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.RefreshChat(ctx, chatID); err != nil {
			log.WithError(err).WithField("chat_id", chatID).Warn("Не удалось обновить участников чата")
		}
	}
	return nil
}

// RefreshChat обновляет текущих участников одного чата.
// Ошибка Telegram по одному участнику не прерывает обновление остальных.
func (r *MembersRefresher) RefreshChat(ctx context.Context, chatID int64) error {
	active, err := r.members.ListActive(ctx, chatID)
	if err != nil {
		return err
	}

	var updated, left atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshParallelism)

	for _, m := range active {
		userID := m.UserID
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cm, err := r.fetcher.GetChatMember(tgbotapi.GetChatMemberConfig{
				ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
			})
			if err != nil {
				log.WithError(err).WithFields(log.Fields{
					"chat_id": chatID,
					"user_id": userID,
				}).Debug("GetChatMember failed")
				return nil
			}

			switch cm.Status {
			case "left", "kicked":
				left.Add(1)
				return r.members.HandleLeftMember(gctx, chatID, userID)
			}
			if cm.User == nil {
				return nil
			}
			updated.Add(1)
			return r.members.EnsureMember(gctx, chatID, userID, members.InfoFromUser(cm.User))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"chat_id": chatID,
		"updated": updated.Load(),
		"left":    left.Load(),
	}).Info("Участники чата обновлены")
	return nil
}
