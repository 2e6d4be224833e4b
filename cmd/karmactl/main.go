// Package main — karmactl, CLI для просмотра журнала кармы.
// Читает ту же конфигурацию, что и бот, и работает с той же БД.
package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/YogurtTheHorse/karma-bot/internal/app"
	"github.com/YogurtTheHorse/karma-bot/internal/config"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Не удалось загрузить конфигурацию")
	}

	ctx := context.Background()
	storage, err := app.OpenStorage(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Не удалось открыть БД")
	}

	services, err := app.NewServices(cfg, storage)
	if err != nil {
		storage.Close()
		log.WithError(err).Fatal("Не удалось инициализировать сервисы")
	}

	cliApp := newCLIApp(services.Ledger, services.Members, services.Karma.DailyLimit(), os.Stdout)
	err = cliApp.RunContext(ctx, os.Args)
	storage.Close()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
