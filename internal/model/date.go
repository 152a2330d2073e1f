package model

import (
	"math"
	"strings"
	"time"

	"github.com/nhle/projectpulse/internal/apperr"
)

// DateLayout is the storage and display format of calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, apperr.Validationf("date", "invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// DateOf returns the calendar date of t (in t's own location) as UTC midnight,
// so that dates from different zones compare and subtract cleanly.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateIn returns the calendar date of t as seen in loc. Stored timestamps
// are UTC; comparing them with a local "today" needs this first.
func DateIn(t time.Time, loc *time.Location) time.Time {
	return DateOf(t.In(loc))
}

// FormatDate renders the calendar date of t.
func FormatDate(t time.Time) string {
	return DateOf(t).Format(DateLayout)
}

// DaysBetween returns the number of calendar days from from to to.
// The result is negative when to is before from.
func DaysBetween(from, to time.Time) int {
	return int(math.Round(DateOf(to).Sub(DateOf(from)).Hours() / 24))
}

// Round2 rounds v to two decimals. Use it at presentation boundaries only.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
