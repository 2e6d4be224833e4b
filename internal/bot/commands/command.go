// Package commands — command.go описывает закрытый набор команд бота.
// Каждая команда — отдельный тип со своими аргументами; диспетчер
// разбирает их через type switch.
package commands

import (
	"fmt"

	"github.com/YogurtTheHorse/karma-bot/internal/common"
)

// Command — одна из команд бота: Help, Stats, GiveKarma или TakeKarma.
type Command interface {
	isCommand()
}

// Help — /help, список команд.
type Help struct{}

// Stats — /stats, таблица кармы чата.
type Stats struct{}

// GiveKarma — /karma <id-или-упоминание>.
type GiveKarma struct {
	Target string
}

// TakeKarma — /dekarm <id-или-упоминание>.
type TakeKarma struct {
	Target string
}

func (Help) isCommand()      {}
func (Stats) isCommand()     {}
func (GiveKarma) isCommand() {}
func (TakeKarma) isCommand() {}

// Builder превращает аргументы команды в её типизированное значение.
type Builder func(args []string) (Command, error)

// BuildHelp принимает любые аргументы.
func BuildHelp(_ []string) (Command, error) {
	return Help{}, nil
}

// BuildStats не принимает аргументов.
func BuildStats(args []string) (Command, error) {
	if err := exactArgs(args, 0); err != nil {
		return nil, err
	}
	return Stats{}, nil
}

// BuildGiveKarma ожидает ровно один аргумент — цель.
func BuildGiveKarma(args []string) (Command, error) {
	if err := exactArgs(args, 1); err != nil {
		return nil, err
	}
	return GiveKarma{Target: args[0]}, nil
}

// BuildTakeKarma ожидает ровно один аргумент — цель.
func BuildTakeKarma(args []string) (Command, error) {
	if err := exactArgs(args, 1); err != nil {
		return nil, err
	}
	return TakeKarma{Target: args[0]}, nil
}

func exactArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: want %d, got %d", common.ErrArgCount, n, len(args))
	}
	return nil
}
