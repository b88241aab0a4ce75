package state

import (
	"slices"
	"time"
)

// SchemaVersion is the current document schema version. Decoding
// accepts any version up to this one; newer versions are rejected so
// an old binary never rewrites a document it does not understand.
const SchemaVersion = 1

// Document is the single source of truth shared by both surfaces.
// It is mutated only through named operations and persisted as a
// whole after every mutation.
type Document struct {
	SchemaVersion int                 `json:"schemaVersion"`
	CurrentDayKey string              `json:"currentDayKey"`
	Tasks         []TaskItem          `json:"tasks"`
	Series        []TaskSeries        `json:"series,omitempty"`
	Overrides     []InstanceOverride  `json:"overrides,omitempty"`
	Completions   map[string][]string `json:"completions"`
	Progression   Progression         `json:"progression"`
	Policy        Policy              `json:"policy"`
}

// TaskItem is a one-off task owned by a single day.
type TaskItem struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	DayKey       string     `json:"dayKey"`
	TimeOfDay    TimeOfDay  `json:"timeOfDay"`
	Completed    bool       `json:"completed"`
	CompletedAt  *string    `json:"completedAt,omitempty"` // RFC3339
	SnoozedUntil *TimeOfDay `json:"snoozedUntil,omitempty"`
}

// TaskSeries is a recurring task template. Instances are materialized
// per day; the template itself is never mutated by per-day actions.
type TaskSeries struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	TimeOfDay TimeOfDay  `json:"timeOfDay"`
	Repeat    RepeatRule `json:"repeat"`
}

// RepeatRule describes when a series produces an instance.
type RepeatRule struct {
	Kind     RepeatKind     `json:"kind"`
	Weekdays []time.Weekday `json:"weekdays,omitempty"` // for RepeatWeekly, 0=Sunday
}

// RepeatKind selects the repeat schedule of a series.
type RepeatKind string

const (
	RepeatDaily  RepeatKind = "daily"
	RepeatWeekly RepeatKind = "weekly"
)

// ActiveOn reports whether the rule fires on the given weekday.
func (r RepeatRule) ActiveOn(wd time.Weekday) bool {
	switch r.Kind {
	case RepeatDaily:
		return true
	case RepeatWeekly:
		return slices.Contains(r.Weekdays, wd)
	}
	return false
}

// InstanceOverride is a per-day exception for one series instance.
// At most one override exists per (seriesId, dayKey) pair.
type InstanceOverride struct {
	SeriesID  string    `json:"seriesId"`
	DayKey    string    `json:"dayKey"`
	TimeOfDay TimeOfDay `json:"timeOfDay"`
	Cancelled bool      `json:"cancelled,omitempty"`
}

// Progression is the companion's durable state. StageXP never goes
// negative and StageIndex is always recomputed from StageXP.
type Progression struct {
	StageIndex         int    `json:"stageIndex"`
	StageXP            int    `json:"stageXP"`
	LastCloseoutDayKey string `json:"lastCloseoutDayKey"`
}

// Policy holds the user-configurable behavior knobs.
type Policy struct {
	GraceMinutes      int       `json:"graceMinutes"`
	ResetTimeOfDay    TimeOfDay `json:"resetTimeOfDay"`
	RolloverEnabled   bool      `json:"rolloverEnabled"`
	LateCutoffMinutes int       `json:"lateCutoffMinutes"` // 0 disables the reduced tier
}

// DefaultPolicy returns first-launch policy values.
func DefaultPolicy() Policy {
	return Policy{
		GraceMinutes:      30,
		ResetTimeOfDay:    0, // midnight
		RolloverEnabled:   false,
		LateCutoffMinutes: 0,
	}
}

// Default builds a fresh first-launch document for the given day.
func Default(dayKey string) *Document {
	return &Document{
		SchemaVersion: SchemaVersion,
		CurrentDayKey: dayKey,
		Tasks:         []TaskItem{},
		Completions:   map[string][]string{},
		Progression:   Progression{LastCloseoutDayKey: dayKey},
		Policy:        DefaultPolicy(),
	}
}

// TaskByID returns a pointer to the one-off task with the given id,
// or nil if absent.
func (d *Document) TaskByID(id string) *TaskItem {
	for i := range d.Tasks {
		if d.Tasks[i].ID == id {
			return &d.Tasks[i]
		}
	}
	return nil
}

// SeriesByID returns the series with the given id, or nil.
func (d *Document) SeriesByID(id string) *TaskSeries {
	for i := range d.Series {
		if d.Series[i].ID == id {
			return &d.Series[i]
		}
	}
	return nil
}

// OverrideFor returns the override for (seriesID, dayKey), or nil.
func (d *Document) OverrideFor(seriesID, dayKey string) *InstanceOverride {
	for i := range d.Overrides {
		if d.Overrides[i].SeriesID == seriesID && d.Overrides[i].DayKey == dayKey {
			return &d.Overrides[i]
		}
	}
	return nil
}

// UpsertOverride replaces any existing override for the same
// (seriesId, dayKey) pair. Last override wins; duplicates are never
// stored.
func (d *Document) UpsertOverride(o InstanceOverride) {
	for i := range d.Overrides {
		if d.Overrides[i].SeriesID == o.SeriesID && d.Overrides[i].DayKey == o.DayKey {
			d.Overrides[i] = o
			return
		}
	}
	d.Overrides = append(d.Overrides, o)
}

// IsCompleted reports whether the task id is in the day's completion set.
func (d *Document) IsCompleted(dayKey, taskID string) bool {
	return slices.Contains(d.Completions[dayKey], taskID)
}

// SetCompleted adds the task id to the day's completion set. The set
// stays sorted so the encoded document is byte-stable.
func (d *Document) SetCompleted(dayKey, taskID string) {
	if d.Completions == nil {
		d.Completions = map[string][]string{}
	}
	ids := d.Completions[dayKey]
	if slices.Contains(ids, taskID) {
		return
	}
	ids = append(ids, taskID)
	slices.Sort(ids)
	d.Completions[dayKey] = ids
}
