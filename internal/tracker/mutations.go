package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hedging-my-bets/petprogress/internal/calendar"
	"github.com/hedging-my-bets/petprogress/internal/progression"
	"github.com/hedging-my-bets/petprogress/internal/state"
	"github.com/hedging-my-bets/petprogress/internal/tasks"
)

// CheckResult reports what marking a task done did to the companion.
type CheckResult struct {
	TaskID      string
	OnTime      bool
	LateTier    bool
	Awarded     int
	PointsAfter int
	StageBefore int
	StageAfter  int
}

// AddTask creates a one-off task. Validation failures leave the
// document unchanged.
func (s *Service) AddTask(ctx context.Context, title, dayKey string, tod state.TimeOfDay) (*state.TaskItem, error) {
	clone, err := state.Clone(s.doc)
	if err != nil {
		return nil, err
	}
	task := state.TaskItem{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		DayKey:    dayKey,
		TimeOfDay: tod,
	}
	if err := clone.ValidateTask(task, ""); err != nil {
		return nil, err
	}
	clone.Tasks = append(clone.Tasks, task)
	if err := s.persist(ctx, clone); err != nil {
		return nil, err
	}
	return &task, nil
}

// AddSeries creates a recurring series template.
func (s *Service) AddSeries(ctx context.Context, title string, tod state.TimeOfDay, rule state.RepeatRule) (*state.TaskSeries, error) {
	clone, err := state.Clone(s.doc)
	if err != nil {
		return nil, err
	}
	series := state.TaskSeries{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		TimeOfDay: tod,
		Repeat:    rule,
	}
	if err := clone.ValidateSeries(series); err != nil {
		return nil, err
	}
	clone.Series = append(clone.Series, series)
	if err := s.persist(ctx, clone); err != nil {
		return nil, err
	}
	return &series, nil
}

// UpdateTask retitles or reschedules a one-off task.
func (s *Service) UpdateTask(ctx context.Context, id, title string, tod state.TimeOfDay) error {
	clone, err := state.Clone(s.doc)
	if err != nil {
		return err
	}
	task := clone.TaskByID(id)
	if task == nil {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	updated := *task
	updated.Title = strings.TrimSpace(title)
	updated.TimeOfDay = tod
	if err := clone.ValidateTask(updated, id); err != nil {
		return err
	}
	*task = updated
	return s.persist(ctx, clone)
}

// DeleteTask removes a one-off task and its completion marker.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	clone, err := state.Clone(s.doc)
	if err != nil {
		return err
	}
	found := false
	kept := clone.Tasks[:0]
	for _, t := range clone.Tasks {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	clone.Tasks = kept
	return s.persist(ctx, clone)
}

// MarkDone records a completion at the given instant, classifies it
// against the grace window, applies the award, and re-derives the
// stage. The id may be a one-off task id or a series instance id.
func (s *Service) MarkDone(ctx context.Context, id string, now time.Time) (*CheckResult, error) {
	clone, err := state.Clone(s.doc)
	if err != nil {
		return nil, err
	}

	dayKey, tod, err := s.resolveScheduled(clone, id, now)
	if err != nil {
		return nil, err
	}
	if clone.IsCompleted(dayKey, id) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyCompleted, id)
	}

	nowMin := calendar.MinutesSinceMidnight(now, s.loc)
	grace := clone.Policy.GraceMinutes
	cutoff := clone.Policy.LateCutoffMinutes

	res := &CheckResult{
		TaskID:      id,
		OnTime:      tasks.IsOnTime(tod, nowMin, grace),
		StageBefore: clone.Progression.StageIndex,
	}
	if !res.OnTime {
		res.LateTier = tasks.IsLateWithinCutoff(tod, nowMin, grace, cutoff)
	}

	before := clone.Progression.StageXP
	switch {
	case res.OnTime:
		clone.Progression.StageXP = progression.OnTaskCheck(true, before)
	case res.LateTier:
		clone.Progression.StageXP = progression.OnTaskCheck(false, before)
	}
	res.Awarded = clone.Progression.StageXP - before
	clone.Progression.StageIndex = progression.StageIndexFor(clone.Progression.StageXP, s.stages)

	clone.SetCompleted(dayKey, id)
	if task := clone.TaskByID(id); task != nil {
		task.Completed = true
		stamp := now.UTC().Format(time.RFC3339)
		task.CompletedAt = &stamp
	}

	if err := s.persist(ctx, clone); err != nil {
		return nil, err
	}
	res.PointsAfter = clone.Progression.StageXP
	res.StageAfter = clone.Progression.StageIndex
	return res, nil
}

// resolveScheduled finds the day and effective scheduled time for a
// task id: one-offs directly, series instances through their day's
// materialization (so overrides apply).
func (s *Service) resolveScheduled(doc *state.Document, id string, now time.Time) (string, state.TimeOfDay, error) {
	if task := doc.TaskByID(id); task != nil {
		return task.DayKey, task.TimeOfDay, nil
	}

	seriesID, dayKey, ok := splitInstanceID(id)
	if !ok {
		return "", 0, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	list, err := tasks.Materialize(doc, dayKey)
	if err != nil {
		return "", 0, err
	}
	for _, m := range list {
		if m.ID == id && m.Origin.SeriesID == seriesID {
			return dayKey, m.TimeOfDay, nil
		}
	}
	return "", 0, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

func splitInstanceID(id string) (seriesID, dayKey string, ok bool) {
	i := strings.LastIndexByte(id, ':')
	if i <= 0 || i == len(id)-1 {
		return "", "", false
	}
	seriesID, dayKey = id[:i], id[i+1:]
	return seriesID, dayKey, calendar.ValidDayKey(dayKey)
}

// Snooze pushes a task later in its day. A series instance gets a
// per-day override; the series template is never touched. A one-off
// is rescheduled directly.
func (s *Service) Snooze(ctx context.Context, id string, minutes int) error {
	if minutes <= 0 {
		return &state.ValidationError{Field: "minutes", Reason: "must be positive"}
	}
	clone, err := state.Clone(s.doc)
	if err != nil {
		return err
	}

	if task := clone.TaskByID(id); task != nil {
		snoozed := tasks.SnoozeTime(task.TimeOfDay, minutes)
		task.TimeOfDay = snoozed
		task.SnoozedUntil = &snoozed
		return s.persist(ctx, clone)
	}

	seriesID, dayKey, ok := splitInstanceID(id)
	if !ok || clone.SeriesByID(seriesID) == nil {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	current := clone.SeriesByID(seriesID).TimeOfDay
	if o := clone.OverrideFor(seriesID, dayKey); o != nil {
		if o.Cancelled {
			return fmt.Errorf("%w: %s is cancelled for %s", ErrTaskNotFound, seriesID, dayKey)
		}
		current = o.TimeOfDay
	}
	clone.UpsertOverride(state.InstanceOverride{
		SeriesID:  seriesID,
		DayKey:    dayKey,
		TimeOfDay: tasks.SnoozeTime(current, minutes),
	})
	return s.persist(ctx, clone)
}

// UpdatePolicy replaces the policy after validation.
func (s *Service) UpdatePolicy(ctx context.Context, p state.Policy) error {
	if err := state.ValidatePolicy(p); err != nil {
		return err
	}
	clone, err := state.Clone(s.doc)
	if err != nil {
		return err
	}
	clone.Policy = p
	return s.persist(ctx, clone)
}

// Reset replaces the document with a fresh default sharing the same
// schema. User-initiated only.
func (s *Service) Reset(ctx context.Context) error {
	return s.persist(ctx, state.Default(calendar.DayKey(s.now(), s.loc)))
}
