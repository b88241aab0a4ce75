package tasks

import (
	"reflect"
	"testing"
	"time"

	"github.com/hedging-my-bets/petprogress/internal/state"
)

// 2026-08-29 is a Saturday.
const day = "2026-08-29"

func fixtureDoc() *state.Document {
	doc := state.Default(day)
	doc.Series = []state.TaskSeries{
		{ID: "s-walk", Title: "Walk", TimeOfDay: 18 * 60, Repeat: state.RepeatRule{Kind: state.RepeatDaily}},
		{ID: "s-gym", Title: "Gym", TimeOfDay: 7 * 60, Repeat: state.RepeatRule{
			Kind: state.RepeatWeekly, Weekdays: []time.Weekday{time.Monday, time.Wednesday},
		}},
	}
	doc.Tasks = []state.TaskItem{
		{ID: "t-journal", Title: "Journal", DayKey: day, TimeOfDay: 21 * 60},
		{ID: "t-other-day", Title: "Elsewhere", DayKey: "2026-08-28", TimeOfDay: 9 * 60},
		{ID: "t-stretch", Title: "Stretch", DayKey: day, TimeOfDay: 7 * 60},
	}
	return doc
}

func TestMaterializeBasics(t *testing.T) {
	doc := fixtureDoc()
	got, err := Materialize(doc, day)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	// Saturday: gym (Mon/Wed) is inactive, other-day task filtered out.
	wantIDs := []string{"t-stretch", "s-walk:" + day, "t-journal"}
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d tasks, want %d: %+v", len(got), len(wantIDs), got)
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, got[i].ID, id)
		}
	}
	if got[1].Origin.Kind != OriginSeries || got[1].Origin.SeriesID != "s-walk" {
		t.Errorf("series origin not carried: %+v", got[1].Origin)
	}
}

func TestMaterializeOverrideWins(t *testing.T) {
	doc := fixtureDoc()
	doc.UpsertOverride(state.InstanceOverride{SeriesID: "s-walk", DayKey: day, TimeOfDay: 6 * 60})

	got, err := Materialize(doc, day)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if got[0].ID != "s-walk:"+day || got[0].TimeOfDay != 6*60 {
		t.Errorf("override time not applied: %+v", got[0])
	}
}

func TestMaterializeCancelledOverride(t *testing.T) {
	doc := fixtureDoc()
	doc.UpsertOverride(state.InstanceOverride{SeriesID: "s-walk", DayKey: day, Cancelled: true})

	got, err := Materialize(doc, day)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	for _, m := range got {
		if m.Origin.SeriesID == "s-walk" {
			t.Errorf("cancelled instance still materialized: %+v", m)
		}
	}
}

func TestMaterializeCompletionMembership(t *testing.T) {
	doc := fixtureDoc()
	doc.SetCompleted(day, "t-stretch")
	doc.SetCompleted(day, InstanceID("s-walk", day))

	got, err := Materialize(doc, day)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	for _, m := range got {
		want := m.ID == "t-stretch" || m.ID == InstanceID("s-walk", day)
		if m.Completed != want {
			t.Errorf("%s completed = %v, want %v", m.ID, m.Completed, want)
		}
	}
}

func TestMaterializeDeterministic(t *testing.T) {
	doc := fixtureDoc()
	// A series instance and a one-off sharing a time slot exercises
	// the tiebreak: series first, then id.
	doc.Tasks = append(doc.Tasks, state.TaskItem{ID: "t-tea", Title: "Tea", DayKey: day, TimeOfDay: 18 * 60})

	first, err := Materialize(doc, day)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	second, err := Materialize(doc, day)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("materializer not deterministic:\n%+v\n%+v", first, second)
	}
	// Tie at 18:00: series before one-off.
	var at18 []Materialized
	for _, m := range first {
		if m.TimeOfDay == 18*60 {
			at18 = append(at18, m)
		}
	}
	if len(at18) != 2 || at18[0].Origin.Kind != OriginSeries {
		t.Errorf("tiebreak wrong at 18:00: %+v", at18)
	}
}

func TestNextSelection(t *testing.T) {
	doc := fixtureDoc()
	list, err := Materialize(doc, day)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	// 07:10 — the 07:00 stretch is in its own hour.
	if next := Next(list, 7*60+10, 30); next == nil || next.ID != "t-stretch" {
		t.Errorf("Next at 07:10 = %+v, want t-stretch", next)
	}

	// 12:00 — nothing current; earliest upcoming is the 18:00 walk.
	if next := Next(list, 12*60, 30); next == nil || next.ID != "s-walk:"+day {
		t.Errorf("Next at 12:00 = %+v, want walk instance", next)
	}

	// All complete: nil.
	for i := range list {
		list[i].Completed = true
	}
	if next := Next(list, 12*60, 30); next != nil {
		t.Errorf("Next with all complete = %+v, want nil", next)
	}
}
