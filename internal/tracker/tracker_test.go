package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hedging-my-bets/petprogress/internal/progression"
	"github.com/hedging-my-bets/petprogress/internal/state"
	"github.com/hedging-my-bets/petprogress/internal/store"
	"github.com/hedging-my-bets/petprogress/internal/widget"
)

const testDay = "2026-08-29" // a Saturday

func testClock(hour, minute int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, 8, 29, hour, minute, 0, 0, time.UTC)
	}
}

func newTestService(t *testing.T, now func() time.Time) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc, err := New(st, progression.DefaultConfig(), time.UTC, WithClock(now))
	require.NoError(t, err)
	return svc, st
}

func TestNewSeedsDefaultOnFirstLaunch(t *testing.T) {
	svc, st := newTestService(t, testClock(9, 0))
	require.Equal(t, LoadedDefault, svc.Source())

	doc, err := svc.Document()
	require.NoError(t, err)
	require.Equal(t, testDay, doc.CurrentDayKey)
	require.Equal(t, 30, doc.Policy.GraceMinutes)

	// The seed is durable: a second service over the same store loads
	// it from the primary.
	again, err := New(st, progression.DefaultConfig(), time.UTC, WithClock(testClock(9, 5)))
	require.NoError(t, err)
	require.Equal(t, LoadedPrimary, again.Source())
}

func TestMarkDoneOnTime(t *testing.T) {
	svc, _ := newTestService(t, testClock(9, 20))
	ctx := context.Background()

	task, err := svc.AddTask(ctx, "Morning run", testDay, state.TimeOfDay(9*60))
	require.NoError(t, err)

	res, err := svc.MarkDone(ctx, task.ID, testClock(9, 20)())
	require.NoError(t, err)
	require.True(t, res.OnTime)
	require.False(t, res.LateTier)
	require.Equal(t, 5, res.Awarded)
	require.Equal(t, 5, res.PointsAfter)

	doc, err := svc.Document()
	require.NoError(t, err)
	require.True(t, doc.IsCompleted(testDay, task.ID))
	got := doc.TaskByID(task.ID)
	require.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
}

func TestMarkDoneLateTier(t *testing.T) {
	svc, _ := newTestService(t, testClock(9, 0))
	ctx := context.Background()

	policy := state.DefaultPolicy()
	policy.LateCutoffMinutes = 120
	require.NoError(t, svc.UpdatePolicy(ctx, policy))

	task, err := svc.AddTask(ctx, "Morning run", testDay, state.TimeOfDay(9*60))
	require.NoError(t, err)

	// 09:50 is outside the ±30 grace window but within the cutoff.
	res, err := svc.MarkDone(ctx, task.ID, testClock(9, 50)())
	require.NoError(t, err)
	require.False(t, res.OnTime)
	require.True(t, res.LateTier)
	require.Equal(t, 2, res.Awarded)
}

func TestMarkDoneLateBeyondCutoffAwardsNothing(t *testing.T) {
	svc, _ := newTestService(t, testClock(9, 0))
	ctx := context.Background()

	task, err := svc.AddTask(ctx, "Morning run", testDay, state.TimeOfDay(9*60))
	require.NoError(t, err)

	// Cutoff disabled by default, so any off-window completion counts
	// but scores zero.
	res, err := svc.MarkDone(ctx, task.ID, testClock(14, 0)())
	require.NoError(t, err)
	require.False(t, res.OnTime)
	require.False(t, res.LateTier)
	require.Zero(t, res.Awarded)

	doc, err := svc.Document()
	require.NoError(t, err)
	require.True(t, doc.IsCompleted(testDay, task.ID))
}

func TestMarkDoneTwiceFails(t *testing.T) {
	svc, _ := newTestService(t, testClock(9, 0))
	ctx := context.Background()

	task, err := svc.AddTask(ctx, "Morning run", testDay, state.TimeOfDay(9*60))
	require.NoError(t, err)

	_, err = svc.MarkDone(ctx, task.ID, testClock(9, 10)())
	require.NoError(t, err)

	_, err = svc.MarkDone(ctx, task.ID, testClock(9, 15)())
	require.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestMarkDoneUnknownID(t *testing.T) {
	svc, _ := newTestService(t, testClock(9, 0))
	_, err := svc.MarkDone(context.Background(), "nope", testClock(9, 0)())
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestMarkDoneSeriesInstance(t *testing.T) {
	svc, _ := newTestService(t, testClock(8, 0))
	ctx := context.Background()

	series, err := svc.AddSeries(ctx, "Stretch", state.TimeOfDay(8*60),
		state.RepeatRule{Kind: state.RepeatDaily})
	require.NoError(t, err)

	instanceID := series.ID + ":" + testDay
	res, err := svc.MarkDone(ctx, instanceID, testClock(8, 10)())
	require.NoError(t, err)
	require.True(t, res.OnTime)
	require.Equal(t, 5, res.Awarded)

	doc, err := svc.Document()
	require.NoError(t, err)
	require.True(t, doc.IsCompleted(testDay, instanceID))
}

func TestMarkDoneSeriesInstanceUsesOverrideTime(t *testing.T) {
	svc, _ := newTestService(t, testClock(8, 0))
	ctx := context.Background()

	series, err := svc.AddSeries(ctx, "Stretch", state.TimeOfDay(8*60),
		state.RepeatRule{Kind: state.RepeatDaily})
	require.NoError(t, err)

	instanceID := series.ID + ":" + testDay
	require.NoError(t, svc.Snooze(ctx, instanceID, 60)) // effective 09:00

	// 09:10 is on time for the snoozed slot, off-window for the
	// template's 08:00.
	res, err := svc.MarkDone(ctx, instanceID, testClock(9, 10)())
	require.NoError(t, err)
	require.True(t, res.OnTime)
}

func TestSnoozeOneOff(t *testing.T) {
	svc, _ := newTestService(t, testClock(9, 0))
	ctx := context.Background()

	task, err := svc.AddTask(ctx, "Call dentist", testDay, state.TimeOfDay(9*60))
	require.NoError(t, err)
	require.NoError(t, svc.Snooze(ctx, task.ID, 45))

	doc, err := svc.Document()
	require.NoError(t, err)
	got := doc.TaskByID(task.ID)
	require.Equal(t, state.TimeOfDay(9*60+45), got.TimeOfDay)
	require.NotNil(t, got.SnoozedUntil)
	require.Equal(t, got.TimeOfDay, *got.SnoozedUntil)
}

func TestSnoozeSeriesLeavesTemplateUntouched(t *testing.T) {
	svc, _ := newTestService(t, testClock(7, 0))
	ctx := context.Background()

	series, err := svc.AddSeries(ctx, "Stretch", state.TimeOfDay(7*60),
		state.RepeatRule{Kind: state.RepeatDaily})
	require.NoError(t, err)

	require.NoError(t, svc.Snooze(ctx, series.ID+":"+testDay, 30))

	doc, err := svc.Document()
	require.NoError(t, err)
	require.Equal(t, state.TimeOfDay(7*60), doc.SeriesByID(series.ID).TimeOfDay)

	o := doc.OverrideFor(series.ID, testDay)
	require.NotNil(t, o)
	require.Equal(t, state.TimeOfDay(7*60+30), o.TimeOfDay)
}

func TestSnoozeRejectsNonPositive(t *testing.T) {
	svc, _ := newTestService(t, testClock(9, 0))
	err := svc.Snooze(context.Background(), "whatever", 0)
	var verr *state.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUpdateAndDeleteTask(t *testing.T) {
	svc, _ := newTestService(t, testClock(9, 0))
	ctx := context.Background()

	task, err := svc.AddTask(ctx, "Draft email", testDay, state.TimeOfDay(10*60))
	require.NoError(t, err)

	require.NoError(t, svc.UpdateTask(ctx, task.ID, "Send email", state.TimeOfDay(11*60)))
	doc, err := svc.Document()
	require.NoError(t, err)
	got := doc.TaskByID(task.ID)
	require.Equal(t, "Send email", got.Title)
	require.Equal(t, state.TimeOfDay(11*60), got.TimeOfDay)

	require.NoError(t, svc.DeleteTask(ctx, task.ID))
	doc, err = svc.Document()
	require.NoError(t, err)
	require.Nil(t, doc.TaskByID(task.ID))

	require.ErrorIs(t, svc.DeleteTask(ctx, task.ID), ErrTaskNotFound)
}

func TestApplyCloseoutIfNeeded(t *testing.T) {
	svc, _ := newTestService(t, testClock(9, 0))
	ctx := context.Background()

	task, err := svc.AddTask(ctx, "Morning run", testDay, state.TimeOfDay(9*60))
	require.NoError(t, err)
	_, err = svc.MarkDone(ctx, task.ID, testClock(9, 10)())
	require.NoError(t, err)

	// Same day: guarded no-op.
	out, err := svc.ApplyCloseoutIfNeeded(ctx, testClock(23, 0)())
	require.NoError(t, err)
	require.False(t, out.Ran)

	// Next day: the prior day scores 1/1.
	nextDay := time.Date(2026, 8, 30, 0, 10, 0, 0, time.UTC)
	out, err = svc.ApplyCloseoutIfNeeded(ctx, nextDay)
	require.NoError(t, err)
	require.True(t, out.Ran)
	require.Equal(t, testDay, out.PriorDayKey)
	require.InDelta(t, 1.0, out.CompletionRate, 1e-9)
	require.Greater(t, out.PointsAfter, out.PointsBefore)

	doc, err := svc.Document()
	require.NoError(t, err)
	require.Equal(t, "2026-08-30", doc.CurrentDayKey)
	require.Equal(t, "2026-08-30", doc.Progression.LastCloseoutDayKey)
}

func TestReconcileWidgetActions(t *testing.T) {
	svc, st := newTestService(t, testClock(9, 0))
	ctx := context.Background()

	task, err := svc.AddTask(ctx, "Morning run", testDay, state.TimeOfDay(9*60))
	require.NoError(t, err)

	log := widget.ActionLog{Actions: []widget.Action{{
		Kind:   widget.ActionMarkDone,
		TaskID: task.ID,
		At:     testClock(9, 20)().Format(time.RFC3339),
	}}}
	b, err := widget.EncodeJSON(log)
	require.NoError(t, err)
	require.NoError(t, st.Put(ctx, widget.ActionsKey, b))

	applied, err := svc.ReconcileWidgetActions(ctx, testClock(12, 0)())
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	doc, err := svc.Document()
	require.NoError(t, err)
	require.True(t, doc.IsCompleted(testDay, task.ID))
	// Scored against the recorded instant, not reconcile time.
	require.Equal(t, 5, doc.Progression.StageXP)

	raw, _, err := st.Get(ctx, widget.ActionsKey)
	require.NoError(t, err)
	cleared, err := widget.DecodeActionLog(raw)
	require.NoError(t, err)
	require.Empty(t, cleared.Actions)
}

func TestReconcileSkipsAlreadyCompleted(t *testing.T) {
	svc, st := newTestService(t, testClock(9, 0))
	ctx := context.Background()

	task, err := svc.AddTask(ctx, "Morning run", testDay, state.TimeOfDay(9*60))
	require.NoError(t, err)
	_, err = svc.MarkDone(ctx, task.ID, testClock(9, 5)())
	require.NoError(t, err)

	log := widget.ActionLog{Actions: []widget.Action{
		{Kind: widget.ActionMarkDone, TaskID: task.ID, At: testClock(9, 20)().Format(time.RFC3339)},
		{Kind: widget.ActionMarkDone, TaskID: "ghost", At: testClock(9, 21)().Format(time.RFC3339)},
	}}
	b, err := widget.EncodeJSON(log)
	require.NoError(t, err)
	require.NoError(t, st.Put(ctx, widget.ActionsKey, b))

	applied, err := svc.ReconcileWidgetActions(ctx, testClock(12, 0)())
	require.NoError(t, err)
	require.Zero(t, applied)
}

func TestReconcileWithEmptyStoreIsNoOp(t *testing.T) {
	svc, _ := newTestService(t, testClock(9, 0))
	applied, err := svc.ReconcileWidgetActions(context.Background(), testClock(9, 0)())
	require.NoError(t, err)
	require.Zero(t, applied)
}

func TestPersistWritesDaySummary(t *testing.T) {
	svc, st := newTestService(t, testClock(9, 0))
	ctx := context.Background()

	task, err := svc.AddTask(ctx, "Morning run", testDay, state.TimeOfDay(9*60))
	require.NoError(t, err)
	_, err = svc.MarkDone(ctx, task.ID, testClock(9, 10)())
	require.NoError(t, err)

	raw, _, err := st.Get(ctx, widget.SummaryKey(testDay))
	require.NoError(t, err)
	summary, err := widget.DecodeSummary(raw)
	require.NoError(t, err)
	require.Equal(t, testDay, summary.DayKey)
	require.Len(t, summary.Tasks, 1)
	require.True(t, summary.Tasks[0].Completed)
	require.Equal(t, 5, summary.Points)
	require.Equal(t, 30, summary.GraceMinutes)
}

func TestLoadRederivesStageIndexUnderNewStageTable(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	ctx := context.Background()

	svc, err := New(st, progression.DefaultConfig(), time.UTC, WithClock(testClock(9, 0)))
	require.NoError(t, err)

	// Two on-time completions push the companion past the first
	// threshold of the default table.
	for i, title := range []string{"Run", "Read"} {
		task, err := svc.AddTask(ctx, title, testDay, state.TimeOfDay((9+i)*60))
		require.NoError(t, err)
		_, err = svc.MarkDone(ctx, task.ID, testClock(9+i, 10)())
		require.NoError(t, err)
	}
	require.Equal(t, 1, svc.Progression().StageIndex)

	// Reopening the same store under a shorter (still valid) stage
	// table must re-derive the index; the persisted one would be out
	// of range.
	single := progression.Config{{Name: "Only", Threshold: 0}}
	require.NoError(t, single.Validate())

	reopened, err := New(st, single, time.UTC, WithClock(testClock(10, 0)))
	require.NoError(t, err)
	require.Zero(t, reopened.Progression().StageIndex)

	// Mutations publish the day summary, which names the current
	// stage; this must not panic under the new table.
	_, err = reopened.AddTask(ctx, "Stretch", testDay, state.TimeOfDay(12*60))
	require.NoError(t, err)
}

func TestResetRestoresDefaults(t *testing.T) {
	svc, _ := newTestService(t, testClock(9, 0))
	ctx := context.Background()

	task, err := svc.AddTask(ctx, "Morning run", testDay, state.TimeOfDay(9*60))
	require.NoError(t, err)
	_, err = svc.MarkDone(ctx, task.ID, testClock(9, 10)())
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx))
	doc, err := svc.Document()
	require.NoError(t, err)
	require.Empty(t, doc.Tasks)
	require.Zero(t, doc.Progression.StageXP)
	require.Equal(t, testDay, doc.CurrentDayKey)
}
