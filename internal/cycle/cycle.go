// Package cycle resolves calendar dates against a repeating N-week rota.
package cycle

import "time"

// DateLayout is the wire format for all calendar dates in the API.
const DateLayout = "2006-01-02"

// WeekOf returns the 1-based week of the cycle that target falls in, given
// the cycle's anchor date and length in weeks. Dates before the anchor wrap
// backward through the cycle rather than erroring, so week N is followed by
// week 1 in both directions. A cycleWeeks below 1 is treated as 1.
func WeekOf(target, start time.Time, cycleWeeks int) int {
	if cycleWeeks < 1 {
		cycleWeeks = 1
	}

	days := daysBetween(start, target)
	week := floorDiv(days, 7) % cycleWeeks
	if week < 0 {
		week += cycleWeeks
	}
	return week + 1
}

// Weekday returns the day of week with Monday=0 through Sunday=6. Go's
// time.Weekday counts Sunday as 0, so it is remapped here.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ParseDate parses a YYYY-MM-DD string in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// daysBetween returns the whole-day offset from a to b, negative when b is
// earlier. Both are truncated to midnight UTC first so time-of-day and zone
// never shift the result.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad) / (24 * time.Hour))
}

// floorDiv divides rounding toward negative infinity, unlike Go's
// truncating integer division.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
