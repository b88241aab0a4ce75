package calendar

import (
	"log/slog"
	"time"
)

// maxHourGap bounds NextHourBoundary: a "fall back" day has 25 hours.
const maxHourGap = 25 * time.Hour

// HourIndex returns the local hour of day in [0,23].
//
// Converting a real instant always yields a valid local hour, so a
// "spring forward" gap cannot appear here; an hour skipped by the
// transition simply has no instants that map to it. During "fall
// back" the repeated hour is returned as the calendar computes it,
// without disambiguation.
func HourIndex(t time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Hour()
}

// MinutesSinceMidnight returns local minutes elapsed since 00:00,
// in [0,1439].
func MinutesSinceMidnight(t time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	return lt.Hour()*60 + lt.Minute()
}

// NextHourBoundary returns the next exact top-of-hour strictly after
// t, in loc. The result lands on a :00:00 wall-clock boundary and is
// between one second and 25 hours later. The calendar-based
// computation handles DST gaps (a nonexistent hour normalizes to the
// following valid one); if it produces anything outside the contract
// the deterministic absolute-time fallback is used instead. This
// function never fails.
func NextHourBoundary(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	next := time.Date(lt.Year(), lt.Month(), lt.Day(), lt.Hour()+1, 0, 0, 0, loc)

	if next.After(t) && next.Sub(t) <= maxHourGap && next.Minute() == 0 && next.Second() == 0 {
		return next
	}

	slog.Warn("calendar hour boundary fell back to absolute arithmetic",
		"input", t.Format(time.RFC3339), "candidate", next.Format(time.RFC3339))
	return manualNextHour(t, loc)
}

// manualNextHour advances to the next absolute hour boundary since
// the epoch. For zones on a whole-hour offset this is also a local
// :00:00; for 30/45-minute offset zones it is the nearest safe
// approximation.
func manualNextHour(t time.Time, loc *time.Location) time.Time {
	next := t.Truncate(time.Hour).Add(time.Hour)
	if !next.After(t) {
		next = next.Add(time.Hour)
	}
	return next.In(loc)
}
