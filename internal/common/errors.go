// Package common — errors.go определяет ошибки, которые используются во всех модулях бота.
// Обработчики различают их через errors.Is и отвечают пользователю понятным текстом.
package common

import "errors"

// Ошибки регистрации команд (возникают на старте, фатальны)
var (
	// ErrDuplicateCommand — команда с таким именем уже зарегистрирована
	ErrDuplicateCommand = errors.New("duplicate command")
	// ErrInvalidCommandName — в имени команды есть пробел
	ErrInvalidCommandName = errors.New("spaces in command name not allowed")
)

// Ошибки разбора команд (превращаются в текст ответа)
var (
	// ErrUnknownCommand — команда не зарегистрирована
	ErrUnknownCommand = errors.New("no such command")
	// ErrMissingCommandName — после символа команды ничего нет
	ErrMissingCommandName = errors.New("can't parse command name")
	// ErrArgCount — неверное число аргументов команды
	ErrArgCount = errors.New("wrong number of arguments")
)

// Ошибки кармы
var (
	// ErrStorage — хранилище кармы недоступно (таймаут, обрыв соединения)
	ErrStorage = errors.New("karma storage unavailable")
	// ErrInvalidTarget — из аргумента не удалось получить id пользователя
	ErrInvalidTarget = errors.New("не удалось определить пользователя")
	// ErrKarmaDailyLimit — дневной лимит кармы исчерпан
	ErrKarmaDailyLimit = errors.New("лимит кармы на сегодня исчерпан")
)

// Ошибки участников
var (
	// ErrChatNotFound — чат ещё ни разу не писал боту
	ErrChatNotFound = errors.New("чат не найден")
)
