package calendar

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"
)

// dayKeyLayout is the wire format for day keys. It is part of the
// durability contract and must not change.
const dayKeyLayout = "2006-01-02"

var dayKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DayKey returns the stable calendar-day identifier for t in loc,
// format YYYY-MM-DD. All instants within the same local calendar day
// map to the same key, including days with a DST transition.
//
// Zones that skip an entire calendar date (a dateline shift such as
// Pacific/Apia in December 2011) cannot produce that date from a real
// instant, but a key may still arrive from stored data or arithmetic.
// The round-trip guard below shifts such a key to the nearest valid
// date instead of returning one the zone never had.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	key := t.In(loc).Format(dayKeyLayout)
	anchor, err := Anchor(key, loc)
	if err != nil {
		// Unreachable from a well-formed instant; keep the key.
		slog.Warn("day key anchor failed", "key", key, "error", err)
		return key
	}
	if got := anchor.Format(dayKeyLayout); got != key {
		slog.Warn("day key shifted to nearest valid date", "key", key, "shifted", got)
		return got
	}
	return key
}

// ValidDayKey reports whether key has the YYYY-MM-DD shape.
func ValidDayKey(key string) bool {
	if !dayKeyPattern.MatchString(key) {
		return false
	}
	_, err := time.Parse(dayKeyLayout, key)
	return err == nil
}

// Anchor returns a representative instant (local noon) for the given
// day key in loc. Noon is used instead of midnight because several
// zones spring forward over midnight itself. If the date does not
// exist in loc, the normalized (nearest valid) instant is returned.
func Anchor(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.Parse(dayKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day key %q: %w", key, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc), nil
}

// NextDayKey returns the key of the calendar day after key in loc.
func NextDayKey(key string, loc *time.Location) (string, error) {
	anchor, err := Anchor(key, loc)
	if err != nil {
		return "", err
	}
	return DayKey(anchor.AddDate(0, 0, 1), loc), nil
}

// PrevDayKey returns the key of the calendar day before key in loc.
func PrevDayKey(key string, loc *time.Location) (string, error) {
	anchor, err := Anchor(key, loc)
	if err != nil {
		return "", err
	}
	return DayKey(anchor.AddDate(0, 0, -1), loc), nil
}

// Weekday returns the day-of-week for a day key. The zone does not
// matter for the weekday of a calendar date.
func Weekday(key string) (time.Weekday, error) {
	d, err := time.Parse(dayKeyLayout, key)
	if err != nil {
		return time.Sunday, fmt.Errorf("parse day key %q: %w", key, err)
	}
	return d.Weekday(), nil
}
