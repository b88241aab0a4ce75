package tracker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hedging-my-bets/petprogress/internal/store"
	"github.com/hedging-my-bets/petprogress/internal/widget"
)

// ReconcileWidgetActions folds the narrow surface's pending intents
// into the canonical document. The widget only appends to its own
// action log; this is the one place its completions get scored and
// the log cleared. Each action is classified against the instant the
// widget recorded, not the reconcile instant, so a completion that
// sat in the log overnight still scores as it happened.
func (s *Service) ReconcileWidgetActions(ctx context.Context, now time.Time) (int, error) {
	raw, _, err := s.store.Get(ctx, widget.ActionsKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	log, err := widget.DecodeActionLog(raw)
	if err != nil {
		slog.Warn("widget action log unreadable, dropping", "error", err)
		return 0, s.clearActionLog(ctx)
	}

	applied := 0
	for _, action := range log.Actions {
		if action.Kind != widget.ActionMarkDone {
			slog.Warn("unknown widget action skipped", "kind", action.Kind)
			continue
		}
		at, perr := time.Parse(time.RFC3339, action.At)
		if perr != nil {
			at = now
		}
		if _, err := s.MarkDone(ctx, action.TaskID, at); err != nil {
			// Already-done and vanished tasks are expected when both
			// surfaces act on the same day.
			if !errors.Is(err, ErrAlreadyCompleted) && !errors.Is(err, ErrTaskNotFound) {
				return applied, err
			}
			slog.Debug("widget action skipped", "task", action.TaskID, "reason", err)
			continue
		}
		applied++
	}
	if err := s.clearActionLog(ctx); err != nil {
		return applied, err
	}
	return applied, nil
}

func (s *Service) clearActionLog(ctx context.Context) error {
	empty, err := widget.EncodeJSON(widget.ActionLog{Actions: []widget.Action{}})
	if err != nil {
		return err
	}
	return s.store.Put(ctx, widget.ActionsKey, empty)
}
