// Package normalizer turns the free-form date tokens found on statements into
// calendar dates.
package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order. Month-first numeric layouts precede
// day-first ones, so "01/02/2024" reads as January 2nd.
var dateLayouts = []string{
	"2 Jan 2006",     // 06 Nov 2024
	"Jan 2 2006",     // Nov 06 2024
	"2 January 2006", // 06 November 2024
	"January 2 2006", // November 06 2024
	"1/2/2006",       // 11/06/2024
	"2/1/2006",       // 06/11/2024
	"2006-1-2",       // 2024-11-06
	"2-1-2006",       // 06-11-2024
	"Jan 2, 2006",    // Nov 06, 2024
	"2 Jan, 2006",    // 06 Nov, 2024
	"2-Jan-2006",     // 06-Nov-2024
	"Jan-2-2006",     // Nov-06-2024
}

var (
	integerRun = regexp.MustCompile(`\d+`)
	spaces     = regexp.MustCompile(`\s+`)
)

// DateNormalizer parses statement date tokens. The zero value uses time.Now.
type DateNormalizer struct {
	now func() time.Time
}

// NewDateNormalizer returns a normalizer using the given clock. A nil clock
// means time.Now.
func NewDateNormalizer(now func() time.Time) *DateNormalizer {
	return &DateNormalizer{now: now}
}

func (n *DateNormalizer) today() time.Time {
	if n == nil || n.now == nil {
		return time.Now()
	}
	return n.now()
}

// Normalize returns a date for raw. The boolean is false when no reading of
// raw produced a valid date and the current date was substituted; callers
// should surface that as a data quality signal.
//
// Resolution order: the fixed layouts above; then the first three integer
// runs as day, month, year (two-digit years are promoted into the current
// century, and day and month are swapped when the month exceeds 12); then
// today. Years later than the current year are clamped to it.
func (n *DateNormalizer) Normalize(raw string) (time.Time, bool) {
	now := n.today()
	s := strings.TrimSpace(spaces.ReplaceAllString(raw, " "))
	if s == "" {
		return now, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return clampYear(t, now), true
		}
	}

	if t, ok := fromComponents(s, now); ok {
		return clampYear(t, now), true
	}
	return now, false
}

// NormalizeWithLayouts tries the caller's layouts (which may carry a time of
// day) before falling back to Normalize.
func (n *DateNormalizer) NormalizeWithLayouts(raw string, layouts []string) (time.Time, bool) {
	s := strings.TrimSpace(spaces.ReplaceAllString(raw, " "))
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return clampYear(t, n.today()), true
		}
	}
	return n.Normalize(s)
}

func fromComponents(s string, now time.Time) (time.Time, bool) {
	runs := integerRun.FindAllString(s, 3)
	if len(runs) < 3 {
		return time.Time{}, false
	}

	var parts [3]int
	for i, r := range runs {
		v, err := strconv.Atoi(r)
		if err != nil {
			return time.Time{}, false
		}
		parts[i] = v
	}
	day, month, year := parts[0], parts[1], parts[2]

	if year < 100 {
		year += now.Year() / 100 * 100
	}
	if month > 12 {
		day, month = month, day
		// Still not a month after the swap: a misaligned column glued an
		// extra digit on, keep the leading one.
		if month > 12 {
			month = leadingDigit(month)
		}
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func leadingDigit(v int) int {
	for v >= 10 {
		v /= 10
	}
	return v
}

func clampYear(t, now time.Time) time.Time {
	if t.Year() > now.Year() {
		return time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, t.Location())
	}
	return t
}
