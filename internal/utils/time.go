package utils

import (
	"strings"
	"time"
)

const (
	layoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02 15:04:05"
)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatDate formats time to YYYY-MM-DD in its own location.
func FormatDate(t time.Time) string {
	return t.Format(layoutDate)
}

// FormatDateTime formats time to "YYYY-MM-DD HH:MM:SS" in local timezone.
func FormatDateTime(t time.Time) string {
	return t.In(time.Local).Format(layoutDateTime)
}

// NormalizeDate reduces a date or timestamp string to YYYY-MM-DD.
// RFC3339 values keep the calendar date written in the string.
// It returns false for empty or unparsable input.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(layoutDate) {
		return "", false
	}
	if _, err := time.Parse(layoutDate, s[:len(layoutDate)]); err != nil {
		return "", false
	}
	if len(s) > len(layoutDate) {
		switch s[len(layoutDate)] {
		case 'T', 't', ' ':
		default:
			return "", false
		}
	}
	return s[:len(layoutDate)], true
}
