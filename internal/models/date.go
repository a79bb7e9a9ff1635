package models

import (
	"bytes"
	"fmt"
	"time"
)

// DateLayout формат даты, в котором backend принимает и отдаёт календарные даты.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	DateLayout,
}

// Date календарная дата или момент времени из JSON backend'а.
//
// Backend отдаёт даты то как "2006-01-02", то как LocalDateTime без зоны,
// то в RFC3339. Пустая строка и null оставляют нулевое значение.
type Date struct {
	time.Time
}

// NewDate оборачивает time.Time.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// ParseDate разбирает строку в любом из поддерживаемых форматов.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("models.ParseDate: unsupported date %q", s)
}

// UnmarshalJSON реализует json.Unmarshaler. Нераспознанная дата даёт нулевое
// значение, чтобы одна битая запись не ломала разбор всего списка.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	parsed, err := ParseDate(string(bytes.Trim(b, `"`)))
	if err != nil {
		d.Time = time.Time{}
		return nil
	}
	*d = parsed
	return nil
}

// MarshalJSON реализует json.Marshaler. Нулевая дата сериализуется как null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(time.RFC3339) + `"`), nil
}

// String возвращает дату в формате DateLayout.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}
