package state

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// TimeOfDay is a wall-clock time as minutes since local midnight,
// in [0,1439]. It marshals as "HH:MM", which is part of the
// durability contract.
type TimeOfDay int

// MinutesPerDay is the number of minutes in a civil day.
const MinutesPerDay = 24 * 60

// EndOfDay is the latest representable time, 23:59. Snoozing clamps
// here; a snooze never crosses into the next day.
const EndOfDay TimeOfDay = MinutesPerDay - 1

// NewTimeOfDay builds a TimeOfDay from hour and minute components.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time of day %02d:%02d out of range", hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// ParseTimeOfDay parses the "HH:MM" wire form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return NewTimeOfDay(h, m)
}

// Hour returns the hour component in [0,23].
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component in [0,59].
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Minutes returns the raw minutes-since-midnight value.
func (t TimeOfDay) Minutes() int { return int(t) }

// Valid reports whether t is inside a single civil day.
func (t TimeOfDay) Valid() bool { return t >= 0 && t < MinutesPerDay }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("time of day %d out of range", int(t))
	}
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
