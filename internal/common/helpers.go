// Package common содержит общие утилиты, используемые во всём проекте:
// работу с часовым поясом и склонение русских числительных.
package common

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"
)

// LoadLocation возвращает часовой пояс по имени из конфига.
// Пустое имя и "Local" означают часовой пояс процесса.
// Если пояс не найден — используем локальный и пишем предупреждение.
func LoadLocation(name string) *time.Location {
	if name == "" || name == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.WithError(err).WithField("timezone", name).Warn("Не удалось загрузить часовой пояс, используем локальный")
		return time.Local
	}
	return loc
}

// StartOfDay возвращает полночь того дня, в который попадает t, в поясе loc.
// Используется для дневных лимитов кармы.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// PluralizeTimes возвращает правильную форму слова «раз» для числа n.
//
// Правила:
//   - 1, 21, 31 → "раз"
//   - 2-4, 22-24 → "раза"
//   - 5-20, 25-30 → "раз"
func PluralizeTimes(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "раза"
	}
	return "раз"
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" в поясе loc.
// Используется karmactl при выводе событий.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("02.01.2006 15:04")
}
