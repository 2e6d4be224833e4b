// Package karma — target.go достаёт id пользователя из аргумента команды.
package karma

import (
	"strconv"
	"strings"
	"unicode"
)

// UnresolvedTarget — id, который получается, если в аргументе нет цифр.
const UnresolvedTarget int64 = 0

// ResolveTarget берёт цифры из части аргумента до первого «|».
// Так поддерживаются и просто id ("123"), и упоминания вида "[id123|Имя]".
//
// Примеры:
//
//	ResolveTarget("123")          → 123
//	ResolveTarget("[id123|Вася]") → 123
//	ResolveTarget("abc")          → 0
func ResolveTarget(token string) int64 {
	head, _, _ := strings.Cut(token, "|")

	var digits strings.Builder
	for _, r := range head {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return UnresolvedTarget
	}

	id, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		// переполнение int64 — такого пользователя точно нет
		return UnresolvedTarget
	}
	return id
}
