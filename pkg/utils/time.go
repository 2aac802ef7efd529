package utils

import (
	"fmt"
	"time"
)

// time.go - разбор дат в параметрах API

// DateLayout - формат дат в query-параметрах (?start=2024-01-01)
const DateLayout = "2006-01-02"

// ParseDate разбирает дату формата YYYY-MM-DD
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", value, err)
	}
	return t, nil
}

// FormatDate форматирует дату для ответов API
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
