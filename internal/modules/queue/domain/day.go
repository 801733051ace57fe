package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout names daily logs and query dates.
const DateLayout = "2006-01-02"

// DateKey returns the local calendar day of t in loc.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

// ParseDate validates a YYYY-MM-DD string and returns its canonical form.
func ParseDate(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	parsed, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return parsed.Format(DateLayout), nil
}

// DayBounds returns [start, end) of the local calendar day.
func DayBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	start, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return start, start.AddDate(0, 0, 1), nil
}
