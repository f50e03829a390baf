package utils

import (
	"fmt"
	"time"
)

const DefaultDateFormat = "2006-01-02"

// feedDateFormats covers the date shapes the feed providers are known to
// emit: ISO dates, ISO timestamps (brapi), and Brazilian DD/MM/YYYY
// (statusinvest).
var feedDateFormats = []string{
	DefaultDateFormat,
	"2006-01-02T15:04:05.000Z",
	time.RFC3339,
	"02/01/2006",
	"02-01-2006",
}

// ParseFeedDate parses a provider date string, trying each known format.
// The result is truncated to the calendar day.
func ParseFeedDate(dateStr string) (time.Time, error) {
	for _, format := range feedDateFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", dateStr)
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders t using the default calendar format.
func FormatDate(t time.Time) string {
	return t.Format(DefaultDateFormat)
}
