package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// Now подменяется в тестах.
var Now = time.Now

// Date: календарная дата без времени.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today: текущая дата в локальной зоне.
func Today() Date {
	return DateOf(Now())
}

// ParseDate принимает только YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %s is not in YYYY-MM-DD format", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// ParseDeadline как ParseDate, но "none" (в любом регистре) снимает дедлайн:
// возвращается nil без ошибки. Пустая строка считается ошибкой.
func ParseDeadline(s string) (*Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: deadline cannot be empty", ErrInvalidDate)
	}
	if strings.EqualFold(s, "none") {
		return nil, nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

func (d Date) Before(o Date) bool {
	return d.Time().Before(o.Time())
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Overdue: дедлайн строго раньше сегодняшней даты. Статус выполнения
// здесь не учитывается.
func Overdue(deadline *Date) bool {
	if deadline == nil {
		return false
	}
	return deadline.Before(Today())
}
