package widget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hedging-my-bets/petprogress/internal/calendar"
	"github.com/hedging-my-bets/petprogress/internal/closeout"
	"github.com/hedging-my-bets/petprogress/internal/store"
)

// ErrNoPendingTask is returned when every task in the day summary is
// already completed.
var ErrNoPendingTask = errors.New("no pending task")

// Coordinator is the slice of the core service the narrow surface
// needs: day reconciliation and summary publishing. It is satisfied by
// the tracker service.
type Coordinator interface {
	ApplyCloseoutIfNeeded(ctx context.Context, now time.Time) (closeout.Outcome, error)
	ReconcileWidgetActions(ctx context.Context, now time.Time) (int, error)
	WriteDaySummary(ctx context.Context, now time.Time) error
	Location() *time.Location
}

// Ops implements the narrow surface's five operations. Every
// state-affecting one starts by running the day closeout, so the
// widget behaves identically whether or not the main surface opened
// today.
type Ops struct {
	store *store.Store
	co    Coordinator
}

// NewOps wires the narrow surface over the shared store.
func NewOps(st *store.Store, co Coordinator) *Ops {
	return &Ops{store: st, co: co}
}

// View is the resolved display state: the day summary plus the
// navigation cursor clamped to the task list.
type View struct {
	Summary *Summary
	Index   int
}

// Show reconciles the day and returns the current view.
func (o *Ops) Show(ctx context.Context, now time.Time) (*View, error) {
	summary, err := o.refresh(ctx, now)
	if err != nil {
		return nil, err
	}
	idx, err := o.pageIndex(ctx, len(summary.Tasks))
	if err != nil {
		return nil, err
	}
	return &View{Summary: summary, Index: idx}, nil
}

// MarkNextDone records a completion intent for the first incomplete
// task at or after the cursor, then reconciles it into the canonical
// document immediately. The recorded instant is now, so scoring is
// unaffected by how long reconciliation takes.
func (o *Ops) MarkNextDone(ctx context.Context, now time.Time) (*SummaryTask, error) {
	summary, err := o.refresh(ctx, now)
	if err != nil {
		return nil, err
	}
	idx, err := o.pageIndex(ctx, len(summary.Tasks))
	if err != nil {
		return nil, err
	}
	target := nextIncomplete(summary.Tasks, idx)
	if target == nil {
		return nil, ErrNoPendingTask
	}

	if err := o.appendAction(ctx, Action{
		Kind:   ActionMarkDone,
		TaskID: target.ID,
		At:     now.UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}
	if _, err := o.co.ReconcileWidgetActions(ctx, now); err != nil {
		return nil, err
	}
	return target, o.co.WriteDaySummary(ctx, now)
}

// SkipNext moves the cursor past the first incomplete task without
// scoring anything.
func (o *Ops) SkipNext(ctx context.Context, now time.Time) error {
	summary, err := o.refresh(ctx, now)
	if err != nil {
		return err
	}
	idx, err := o.pageIndex(ctx, len(summary.Tasks))
	if err != nil {
		return err
	}
	target := nextIncomplete(summary.Tasks, idx)
	if target == nil {
		return ErrNoPendingTask
	}
	for i, task := range summary.Tasks {
		if task.ID == target.ID {
			return o.writePage(ctx, clamp(i+1, len(summary.Tasks)))
		}
	}
	return ErrNoPendingTask
}

// GoToNext advances the cursor one task. Pure navigation.
func (o *Ops) GoToNext(ctx context.Context, now time.Time) (*View, error) {
	return o.move(ctx, now, +1)
}

// GoToPrevious moves the cursor one task back. Pure navigation.
func (o *Ops) GoToPrevious(ctx context.Context, now time.Time) (*View, error) {
	return o.move(ctx, now, -1)
}

func (o *Ops) move(ctx context.Context, now time.Time, delta int) (*View, error) {
	summary, err := o.refresh(ctx, now)
	if err != nil {
		return nil, err
	}
	idx, err := o.pageIndex(ctx, len(summary.Tasks))
	if err != nil {
		return nil, err
	}
	idx = clamp(idx+delta, len(summary.Tasks))
	if err := o.writePage(ctx, idx); err != nil {
		return nil, err
	}
	return &View{Summary: summary, Index: idx}, nil
}

// refresh runs the closeout and pending-action reconciliation, then
// reads back the freshly published summary.
func (o *Ops) refresh(ctx context.Context, now time.Time) (*Summary, error) {
	if _, err := o.co.ApplyCloseoutIfNeeded(ctx, now); err != nil {
		return nil, err
	}
	if _, err := o.co.ReconcileWidgetActions(ctx, now); err != nil {
		return nil, err
	}
	if err := o.co.WriteDaySummary(ctx, now); err != nil {
		return nil, err
	}

	dayKey := calendar.DayKey(now, o.co.Location())
	raw, _, err := o.store.Get(ctx, SummaryKey(dayKey))
	if err != nil {
		return nil, fmt.Errorf("read day summary: %w", err)
	}
	return DecodeSummary(raw)
}

func (o *Ops) pageIndex(ctx context.Context, taskCount int) (int, error) {
	raw, _, err := o.store.Get(ctx, PageKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	p, err := DecodePagePointer(raw)
	if err != nil {
		// A broken cursor is not worth failing the surface over.
		return 0, nil
	}
	return clamp(p.Index, taskCount), nil
}

func (o *Ops) writePage(ctx context.Context, idx int) error {
	b, err := EncodeJSON(PagePointer{Index: idx})
	if err != nil {
		return err
	}
	return o.store.Put(ctx, PageKey, b)
}

func (o *Ops) appendAction(ctx context.Context, a Action) error {
	log := ActionLog{Actions: []Action{}}
	if raw, _, err := o.store.Get(ctx, ActionsKey); err == nil {
		if existing, derr := DecodeActionLog(raw); derr == nil {
			log = *existing
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	log.Actions = append(log.Actions, a)
	b, err := EncodeJSON(log)
	if err != nil {
		return err
	}
	return o.store.Put(ctx, ActionsKey, b)
}

// nextIncomplete returns the first incomplete task scanning from idx,
// wrapping around to the start.
func nextIncomplete(list []SummaryTask, idx int) *SummaryTask {
	if len(list) == 0 {
		return nil
	}
	if idx < 0 || idx >= len(list) {
		idx = 0
	}
	for i := 0; i < len(list); i++ {
		task := list[(idx+i)%len(list)]
		if !task.Completed {
			return &task
		}
	}
	return nil
}

func clamp(idx, taskCount int) int {
	if taskCount == 0 {
		return 0
	}
	if idx < 0 {
		return 0
	}
	if idx >= taskCount {
		return taskCount - 1
	}
	return idx
}
