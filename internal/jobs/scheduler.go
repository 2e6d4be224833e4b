// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: периодическое обновление участников чатов.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron      *cron.Cron
	spec      string
	refresher *MembersRefresher
}

// NewScheduler создаёт планировщик задач в часовом поясе бота.
func NewScheduler(spec string, loc *time.Location, refresher *MembersRefresher) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		spec:      spec,
		refresher: refresher,
	}
}

// Start запускает все фоновые задачи.
// Ошибка — только если расписание не разбирается.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		log.Debug("[CRON] Обновление участников чатов")
		if err := s.refresher.RefreshAll(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка обновления участников")
		}
	})
	if err != nil {
		return fmt.Errorf("MEMBERS_REFRESH_CRON %q: %w", s.spec, err)
	}

	s.cron.Start()
	log.WithField("spec", s.spec).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
