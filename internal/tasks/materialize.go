package tasks

import (
	"fmt"
	"sort"

	"github.com/hedging-my-bets/petprogress/internal/calendar"
	"github.com/hedging-my-bets/petprogress/internal/state"
)

// OriginKind distinguishes where a materialized task came from.
type OriginKind string

const (
	OriginOneOff OriginKind = "one-off"
	OriginSeries OriginKind = "series"
)

// Origin carries the provenance of a materialized task. SeriesID is
// set only for series instances; snoozing such an instance writes a
// per-day override instead of touching the template.
type Origin struct {
	Kind     OriginKind
	SeriesID string
}

// Materialized is one concrete task due on a specific day.
type Materialized struct {
	ID        string
	Title     string
	TimeOfDay state.TimeOfDay
	Completed bool
	Origin    Origin
}

// InstanceID returns the deterministic id of a series instance on a
// day. Completion sets reference instances by this id.
func InstanceID(seriesID, dayKey string) string {
	return seriesID + ":" + dayKey
}

// Materialize projects series, per-day overrides, and one-off tasks
// into the ordered task list for dayKey. Calling it twice with the
// same inputs produces identical output: ordering is by time of day,
// then series before one-off, then id.
func Materialize(doc *state.Document, dayKey string) ([]Materialized, error) {
	wd, err := calendar.Weekday(dayKey)
	if err != nil {
		return nil, fmt.Errorf("materialize %s: %w", dayKey, err)
	}

	var out []Materialized

	for i := range doc.Series {
		s := &doc.Series[i]
		if !s.Repeat.ActiveOn(wd) {
			continue
		}
		tod := s.TimeOfDay
		if o := doc.OverrideFor(s.ID, dayKey); o != nil {
			if o.Cancelled {
				continue
			}
			tod = o.TimeOfDay
		}
		id := InstanceID(s.ID, dayKey)
		out = append(out, Materialized{
			ID:        id,
			Title:     s.Title,
			TimeOfDay: tod,
			Completed: doc.IsCompleted(dayKey, id),
			Origin:    Origin{Kind: OriginSeries, SeriesID: s.ID},
		})
	}

	for i := range doc.Tasks {
		t := &doc.Tasks[i]
		if t.DayKey != dayKey {
			continue
		}
		out = append(out, Materialized{
			ID:        t.ID,
			Title:     t.Title,
			TimeOfDay: t.TimeOfDay,
			Completed: t.Completed || doc.IsCompleted(dayKey, t.ID),
			Origin:    Origin{Kind: OriginOneOff},
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TimeOfDay != b.TimeOfDay {
			return a.TimeOfDay < b.TimeOfDay
		}
		if a.Origin.Kind != b.Origin.Kind {
			return a.Origin.Kind == OriginSeries
		}
		return a.ID < b.ID
	})
	return out, nil
}

// Next selects the current/next task: the first incomplete task whose
// hour window is current, else the earliest incomplete task scheduled
// later in the day, else the earliest incomplete task. Returns nil
// when everything is done.
func Next(list []Materialized, nowMinutes, graceMinutes int) *Materialized {
	nowHour := nowMinutes / 60
	nowMinute := nowMinutes % 60

	var firstIncomplete, firstUpcoming *Materialized
	for i := range list {
		m := &list[i]
		if m.Completed {
			continue
		}
		if InCurrentWindow(m.TimeOfDay.Hour(), nowHour, nowMinute, graceMinutes) {
			return m
		}
		if firstIncomplete == nil {
			firstIncomplete = m
		}
		if firstUpcoming == nil && m.TimeOfDay.Minutes() >= nowMinutes {
			firstUpcoming = m
		}
	}
	if firstUpcoming != nil {
		return firstUpcoming
	}
	return firstIncomplete
}
