// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: открывает БД, создаёт хранилища, сервисы,
// диспетчер команд и фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/YogurtTheHorse/karma-bot/internal/bot"
	"github.com/YogurtTheHorse/karma-bot/internal/bot/commands"
	"github.com/YogurtTheHorse/karma-bot/internal/bot/filters"
	"github.com/YogurtTheHorse/karma-bot/internal/common"
	"github.com/YogurtTheHorse/karma-bot/internal/config"
	"github.com/YogurtTheHorse/karma-bot/internal/features/karma"
	"github.com/YogurtTheHorse/karma-bot/internal/features/members"
	"github.com/YogurtTheHorse/karma-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Storage   *Storage
	BotAPI    *tgbotapi.BotAPI
}

// Services — сервисы без транспорта. Их же использует karmactl.
type Services struct {
	Ledger     *karma.Ledger
	Karma      *karma.Service
	Members    *members.Service
	Dispatcher *bot.Dispatcher
}

// NewServices собирает сервисы поверх хранилищ.
// Ошибка — только если реестр команд собран с конфликтом имён.
func NewServices(cfg *config.Config, storage *Storage) (*Services, error) {
	ledger := karma.NewLedger(storage.Karma, common.LoadLocation(cfg.AppTimezone), cfg.LedgerTimeout)
	karmaService := karma.NewService(ledger, cfg)
	memberService := members.NewService(storage.Members)

	registry, err := commands.Default(cfg.BotCommandSymbol)
	if err != nil {
		return nil, fmt.Errorf("ошибка регистрации команд: %w", err)
	}

	return &Services{
		Ledger:     ledger,
		Karma:      karmaService,
		Members:    memberService,
		Dispatcher: bot.NewDispatcher(registry, karmaService, memberService),
	}, nil
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN не задан")
	}

	// === 1. База данных ===
	storage, err := OpenStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// === 2. Сервисы и команды ===
	services, err := NewServices(cfg, storage)
	if err != nil {
		storage.Close()
		return nil, err
	}

	// === 3. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 4. Фильтры ===
	chatFilter := filters.NewChatFilter(cfg.AllowedChatIDs)

	// === 5. Собираем бота ===
	b := bot.New(botAPI, cfg, services.Members, services.Dispatcher, chatFilter)

	// === 6. Планировщик задач ===
	scheduler := jobs.NewScheduler(
		cfg.MembersRefreshCron,
		services.Ledger.Location(),
		jobs.NewMembersRefresher(services.Members, botAPI),
	)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		Storage:   storage,
		BotAPI:    botAPI,
	}, nil
}

// Close освобождает ресурсы приложения.
func (a *App) Close() {
	a.Bot.Close()
	a.Storage.Close()
}
