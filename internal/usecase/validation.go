package usecase

import (
	"strconv"
	"strings"
	"time"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

func parsePositiveInt(field, raw string, def, max int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, NewValidationError(field, "must be an integer")
	}
	if n < 1 {
		return 0, NewValidationError(field, "must be at least 1")
	}
	if max > 0 && n > max {
		return 0, NewValidationError(field, "must not exceed "+strconv.Itoa(max))
	}
	return n, nil
}

// parseDate accepts a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp.
// dateOnly reports which form was given.
func parseDate(field, raw string) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, false, nil
	}
	return time.Time{}, false, NewValidationError(field, "must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
}

func endOfDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond)
}
