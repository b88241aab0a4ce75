package state

import (
	"fmt"
	"strings"

	"github.com/hedging-my-bets/petprogress/internal/calendar"
)

// ValidationError reports a rejected mutation with the offending
// field and a specific reason. The document is left unchanged
// whenever one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateTask checks a one-off task before it enters the document.
// excludeID skips the named task when checking slot conflicts, so an
// update does not collide with itself.
func (d *Document) ValidateTask(task TaskItem, excludeID string) error {
	if strings.TrimSpace(task.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if !task.TimeOfDay.Valid() {
		return &ValidationError{Field: "timeOfDay", Reason: "out of range"}
	}
	if !calendar.ValidDayKey(task.DayKey) {
		return &ValidationError{Field: "dayKey", Reason: fmt.Sprintf("%q is not YYYY-MM-DD", task.DayKey)}
	}
	for i := range d.Tasks {
		t := &d.Tasks[i]
		if t.ID == excludeID {
			continue
		}
		if t.DayKey == task.DayKey && t.TimeOfDay == task.TimeOfDay {
			return &ValidationError{
				Field:  "timeOfDay",
				Reason: fmt.Sprintf("slot %s on %s already taken by %q", task.TimeOfDay, task.DayKey, t.Title),
			}
		}
	}

	// Series instances occupy slots on their day too: compare against
	// each active series at its effective (override-aware) time.
	wd, err := calendar.Weekday(task.DayKey)
	if err != nil {
		return &ValidationError{Field: "dayKey", Reason: err.Error()}
	}
	for i := range d.Series {
		sr := &d.Series[i]
		if !sr.Repeat.ActiveOn(wd) {
			continue
		}
		tod := sr.TimeOfDay
		if o := d.OverrideFor(sr.ID, task.DayKey); o != nil {
			if o.Cancelled {
				continue
			}
			tod = o.TimeOfDay
		}
		if tod == task.TimeOfDay {
			return &ValidationError{
				Field:  "timeOfDay",
				Reason: fmt.Sprintf("slot %s on %s already taken by series %q", task.TimeOfDay, task.DayKey, sr.Title),
			}
		}
	}
	return nil
}

// ValidateSeries checks a recurring series template.
func (d *Document) ValidateSeries(s TaskSeries) error {
	if strings.TrimSpace(s.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if !s.TimeOfDay.Valid() {
		return &ValidationError{Field: "timeOfDay", Reason: "out of range"}
	}
	switch s.Repeat.Kind {
	case RepeatDaily:
	case RepeatWeekly:
		if len(s.Repeat.Weekdays) == 0 {
			return &ValidationError{Field: "repeat", Reason: "weekly rule needs at least one weekday"}
		}
		for _, wd := range s.Repeat.Weekdays {
			if wd < 0 || wd > 6 {
				return &ValidationError{Field: "repeat", Reason: fmt.Sprintf("weekday %d out of range", wd)}
			}
		}
	default:
		return &ValidationError{Field: "repeat", Reason: fmt.Sprintf("unknown kind %q", s.Repeat.Kind)}
	}
	return nil
}

// ValidatePolicy checks user-supplied policy values.
func ValidatePolicy(p Policy) error {
	if p.GraceMinutes < 0 || p.GraceMinutes > 12*60 {
		return &ValidationError{Field: "graceMinutes", Reason: "must be between 0 and 720"}
	}
	if !p.ResetTimeOfDay.Valid() {
		return &ValidationError{Field: "resetTimeOfDay", Reason: "out of range"}
	}
	if p.LateCutoffMinutes < 0 {
		return &ValidationError{Field: "lateCutoffMinutes", Reason: "must not be negative"}
	}
	if p.LateCutoffMinutes > 0 && p.LateCutoffMinutes <= p.GraceMinutes {
		return &ValidationError{Field: "lateCutoffMinutes", Reason: "must be wider than graceMinutes when set"}
	}
	return nil
}
