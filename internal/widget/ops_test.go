package widget_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hedging-my-bets/petprogress/internal/progression"
	"github.com/hedging-my-bets/petprogress/internal/state"
	"github.com/hedging-my-bets/petprogress/internal/store"
	"github.com/hedging-my-bets/petprogress/internal/tracker"
	"github.com/hedging-my-bets/petprogress/internal/widget"
)

const testDay = "2026-08-29"

func at(hour, minute int) time.Time {
	return time.Date(2026, 8, 29, hour, minute, 0, 0, time.UTC)
}

func newOps(t *testing.T) (*widget.Ops, *tracker.Service, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc, err := tracker.New(st, progression.DefaultConfig(), time.UTC,
		tracker.WithClock(func() time.Time { return at(9, 0) }))
	require.NoError(t, err)
	return widget.NewOps(st, svc), svc, st
}

func seedTasks(t *testing.T, svc *tracker.Service, titles ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(titles))
	for i, title := range titles {
		task, err := svc.AddTask(context.Background(), title, testDay, state.TimeOfDay((9+i)*60))
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	return ids
}

func TestShowPublishesSummary(t *testing.T) {
	ops, svc, _ := newOps(t)
	seedTasks(t, svc, "Run", "Read")

	view, err := ops.Show(context.Background(), at(9, 5))
	require.NoError(t, err)
	require.Equal(t, testDay, view.Summary.DayKey)
	require.Len(t, view.Summary.Tasks, 2)
	require.Zero(t, view.Index)
	require.Equal(t, "Egg", view.Summary.StageName)
}

func TestMarkNextDoneScoresThroughActionLog(t *testing.T) {
	ops, svc, st := newOps(t)
	ids := seedTasks(t, svc, "Run", "Read")
	ctx := context.Background()

	done, err := ops.MarkNextDone(ctx, at(9, 10))
	require.NoError(t, err)
	require.Equal(t, ids[0], done.ID)

	// The intent reached the canonical document with on-time scoring.
	doc, err := svc.Document()
	require.NoError(t, err)
	require.True(t, doc.IsCompleted(testDay, ids[0]))
	require.Equal(t, 5, doc.Progression.StageXP)

	// The log is drained after reconciliation.
	raw, _, err := st.Get(ctx, widget.ActionsKey)
	require.NoError(t, err)
	log, err := widget.DecodeActionLog(raw)
	require.NoError(t, err)
	require.Empty(t, log.Actions)

	// A second call picks up the remaining task.
	done, err = ops.MarkNextDone(ctx, at(10, 10))
	require.NoError(t, err)
	require.Equal(t, ids[1], done.ID)

	_, err = ops.MarkNextDone(ctx, at(10, 20))
	require.ErrorIs(t, err, widget.ErrNoPendingTask)
}

func TestSkipNextMovesCursorWithoutScoring(t *testing.T) {
	ops, svc, _ := newOps(t)
	ids := seedTasks(t, svc, "Run", "Read")
	ctx := context.Background()

	require.NoError(t, ops.SkipNext(ctx, at(9, 5)))

	doc, err := svc.Document()
	require.NoError(t, err)
	require.False(t, doc.IsCompleted(testDay, ids[0]))
	require.Zero(t, doc.Progression.StageXP)

	// The cursor now points past the skipped task, so done targets
	// the second one.
	done, err := ops.MarkNextDone(ctx, at(10, 5))
	require.NoError(t, err)
	require.Equal(t, ids[1], done.ID)
}

func TestNavigationClampsAtEnds(t *testing.T) {
	ops, svc, _ := newOps(t)
	seedTasks(t, svc, "Run", "Read")
	ctx := context.Background()

	view, err := ops.GoToPrevious(ctx, at(9, 5))
	require.NoError(t, err)
	require.Zero(t, view.Index)

	view, err = ops.GoToNext(ctx, at(9, 5))
	require.NoError(t, err)
	require.Equal(t, 1, view.Index)

	view, err = ops.GoToNext(ctx, at(9, 5))
	require.NoError(t, err)
	require.Equal(t, 1, view.Index)
}

func TestMarkNextDoneWrapsAroundCursor(t *testing.T) {
	ops, svc, _ := newOps(t)
	ids := seedTasks(t, svc, "Run", "Read")
	ctx := context.Background()

	// Cursor on the second task, which gets completed; the next done
	// wraps back to the first.
	_, err := ops.GoToNext(ctx, at(9, 5))
	require.NoError(t, err)
	done, err := ops.MarkNextDone(ctx, at(10, 5))
	require.NoError(t, err)
	require.Equal(t, ids[1], done.ID)

	done, err = ops.MarkNextDone(ctx, at(10, 10))
	require.NoError(t, err)
	require.Equal(t, ids[0], done.ID)
}

func TestShowRunsCloseoutForNewDay(t *testing.T) {
	ops, svc, _ := newOps(t)
	ids := seedTasks(t, svc, "Run")
	ctx := context.Background()

	_, err := svc.MarkDone(ctx, ids[0], at(9, 10))
	require.NoError(t, err)

	nextDay := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)
	view, err := ops.Show(ctx, nextDay)
	require.NoError(t, err)
	require.Equal(t, "2026-08-30", view.Summary.DayKey)

	doc, err := svc.Document()
	require.NoError(t, err)
	require.Equal(t, "2026-08-30", doc.Progression.LastCloseoutDayKey)
	// 1/1 yesterday: closeout added its full positive swing.
	require.Equal(t, 15, doc.Progression.StageXP)
}
