package timeutil

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates everywhere in the
// engine: YYYY-MM-DD, bucketed by the user's timezone.
const DateLayout = "2006-01-02"

// LoadZone resolves an IANA zone name, falling back to UTC when the
// name is empty or unrecognized. Streak processing must never fail a
// request over a bad zone string.
func LoadZone(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ValidZone reports whether name resolves in the zone database.
func ValidZone(name string) bool {
	if name == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// DateIn returns the calendar date of t as observed in the given zone.
func DateIn(t time.Time, zone string) string {
	return t.In(LoadZone(zone)).Format(DateLayout)
}

// Today is the current calendar date in the given zone.
func Today(clock Clock, zone string) string {
	return DateIn(clock.Now(), zone)
}

// Yesterday is the calendar date immediately before Today in the given
// zone. Computed by date arithmetic, not by subtracting 24 hours, so
// DST transitions cannot skip or repeat a day.
func Yesterday(clock Clock, zone string) string {
	return PrevDate(Today(clock, zone))
}

// PrevDate returns the calendar date one day before the given
// YYYY-MM-DD date. Malformed input is returned unchanged.
func PrevDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, -1).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// DaysBetween returns the absolute number of calendar-day boundaries
// between two YYYY-MM-DD dates: 0 for the same date, 1 for adjacent
// dates. Malformed dates count as zero days apart.
func DaysBetween(a, b string) int {
	ta, errA := time.Parse(DateLayout, a)
	tb, errB := time.Parse(DateLayout, b)
	if errA != nil || errB != nil {
		return 0
	}
	days := int(tb.Sub(ta).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}
