// Package commands — registry.go хранит зарегистрированные команды и разбирает
// входящий текст на имя команды и аргументы.
//
// Разбор намеренно простой: аргументы делятся по одиночному пробелу,
// кавычек нет, пустые токены от двойных пробелов сохраняются.
package commands

import (
	"fmt"
	"strings"

	"github.com/YogurtTheHorse/karma-bot/internal/common"
)

// DefaultSymbol — префикс команды по умолчанию.
const DefaultSymbol = "/"

// Description — зарегистрированная команда.
type Description struct {
	Name            string
	Build           Builder
	Help            string
	ArgsDescription string
}

// Result — результат разбора одного сообщения.
type Result struct {
	Name    string
	Command Command
	Args    []string
}

// Registry — набор команд. Заполняется на старте, дальше только читается.
type Registry struct {
	symbol   string
	order    []string
	commands map[string]Description
}

// NewRegistry создаёт реестр и сразу регистрирует в нём help.
func NewRegistry(symbol string) *Registry {
	if symbol == "" {
		symbol = DefaultSymbol
	}
	r := &Registry{
		symbol:   symbol,
		commands: make(map[string]Description),
	}
	// help регистрируется в пустой реестр — ошибки быть не может
	_ = r.Register("help", BuildHelp, "Lists all commands", "")
	return r
}

// Symbol возвращает префикс команд.
func (r *Registry) Symbol() string {
	return r.symbol
}

// Register добавляет команду.
func (r *Registry) Register(name string, build Builder, help, argsDescription string) error {
	if _, ok := r.commands[name]; ok {
		return fmt.Errorf("%w %s", common.ErrDuplicateCommand, name)
	}
	if strings.Contains(name, " ") {
		return fmt.Errorf("%w: %q", common.ErrInvalidCommandName, name)
	}

	r.commands[name] = Description{
		Name:            name,
		Build:           build,
		Help:            help,
		ArgsDescription: argsDescription,
	}
	r.order = append(r.order, name)
	return nil
}

// List возвращает справку по всем командам в порядке регистрации.
func (r *Registry) List() string {
	infos := make([]string, 0, len(r.order))
	for _, name := range r.order {
		cmd := r.commands[name]
		info := fmt.Sprintf("%s%s - %s", r.symbol, cmd.Name, cmd.Help)
		if cmd.ArgsDescription != "" {
			info += "\n  Args: " + cmd.ArgsDescription
		}
		infos = append(infos, info)
	}
	return strings.Join(infos, "\n\n")
}

// Parse разбирает текст сообщения.
// isCommand=false — это обычный текст, на него не отвечаем.
// При ошибке аргументов Result содержит имя и аргументы, но не Command.
func (r *Registry) Parse(text string) (res Result, isCommand bool, err error) {
	text = strings.Trim(text, " ")
	if !strings.HasPrefix(text, r.symbol) {
		return Result{}, false, nil
	}

	name, _, _ := strings.Cut(text[len(r.symbol):], " ")
	if name == "" {
		return Result{}, true, common.ErrMissingCommandName
	}

	cmd, ok := r.commands[name]
	if !ok {
		return Result{}, true, fmt.Errorf("%w: %s", common.ErrUnknownCommand, name)
	}

	args := strings.Split(text, " ")[1:]
	built, err := cmd.Build(args)
	if err != nil {
		return Result{Name: name, Args: args}, true, fmt.Errorf("%s%s: %w", r.symbol, name, err)
	}

	return Result{Name: name, Command: built, Args: args}, true, nil
}

// Default собирает реестр с командами кармы.
func Default(symbol string) (*Registry, error) {
	r := NewRegistry(symbol)
	for _, d := range []Description{
		{Name: "stats", Build: BuildStats, Help: "Shows karma stats"},
		{Name: "karma", Build: BuildGiveKarma, Help: "Adds karma", ArgsDescription: "user id or mention"},
		{Name: "dekarm", Build: BuildTakeKarma, Help: "Decreases karma", ArgsDescription: "user id or mention"},
	} {
		if err := r.Register(d.Name, d.Build, d.Help, d.ArgsDescription); err != nil {
			return nil, err
		}
	}
	return r, nil
}
