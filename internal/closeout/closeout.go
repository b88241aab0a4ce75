// Package closeout implements the once-per-day reconciliation that
// scores the prior day's completion rate and advances the document's
// current-day pointer.
package closeout

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hedging-my-bets/petprogress/internal/progression"
	"github.com/hedging-my-bets/petprogress/internal/state"
	"github.com/hedging-my-bets/petprogress/internal/tasks"
)

// Outcome describes what a closeout run did. Ran is false when the
// document was already up to date for today.
type Outcome struct {
	Ran            bool
	PriorDayKey    string
	CompletionRate float64
	PointsBefore   int
	PointsAfter    int
	StageBefore    int
	StageAfter     int
	RolledOver     int
}

// Run reconciles the document up to today. The guard on
// lastCloseoutDayKey makes the sequence idempotent: re-running after
// an interruption repeats the work but the final persisted state is
// identical, and a second call after success is a no-op.
//
// The prior day scored is the single day recorded in
// lastCloseoutDayKey, even when the app was closed for longer — one
// day's outcome is applied exactly once, never once per skipped day.
//
// The caller persists the document afterwards and must hold the
// store's single-writer discipline; Run itself is not safe to invoke
// concurrently on the same document.
func Run(doc *state.Document, stages progression.Config, today string) (Outcome, error) {
	out := Outcome{
		PointsBefore: doc.Progression.StageXP,
		StageBefore:  doc.Progression.StageIndex,
	}

	// Day keys compare lexically. today <= lastCloseoutDayKey also
	// covers a wall clock that moved backwards (westward travel,
	// timezone override): the day was already closed out once and must
	// not be scored again when it comes back around.
	if doc.Progression.LastCloseoutDayKey != "" && today <= doc.Progression.LastCloseoutDayKey {
		out.PointsAfter = out.PointsBefore
		out.StageAfter = out.StageBefore
		return out, nil
	}

	prior := doc.Progression.LastCloseoutDayKey
	out.Ran = true
	out.PriorDayKey = prior

	if prior == "" {
		// First launch: seed the pointers, nothing to score.
		advance(doc, stages, today)
		out.CompletionRate = 1.0
		out.PointsAfter = doc.Progression.StageXP
		out.StageAfter = doc.Progression.StageIndex
		return out, nil
	}

	priorTasks, err := tasks.Materialize(doc, prior)
	if err != nil {
		return out, fmt.Errorf("closeout: %w", err)
	}

	completed := 0
	var incomplete []tasks.Materialized
	for _, m := range priorTasks {
		if m.Completed {
			completed++
		} else {
			incomplete = append(incomplete, m)
		}
	}

	// An empty day is neutral: rate 1.0, never a penalty.
	rate := 1.0
	if len(priorTasks) > 0 {
		rate = float64(completed) / float64(len(priorTasks))
	}
	out.CompletionRate = rate

	doc.Progression.StageXP = progression.OnDailyCloseout(rate, doc.Progression.StageXP)

	if doc.Policy.RolloverEnabled {
		for _, m := range incomplete {
			rolled := state.TaskItem{
				ID:        uuid.NewString(),
				Title:     m.Title,
				DayKey:    today,
				TimeOfDay: m.TimeOfDay,
			}
			// A slot conflict on the new day skips the copy rather
			// than failing the whole closeout.
			if err := doc.ValidateTask(rolled, ""); err != nil {
				slog.Warn("rollover skipped", "title", m.Title, "error", err)
				continue
			}
			doc.Tasks = append(doc.Tasks, rolled)
			out.RolledOver++
		}
	}

	advance(doc, stages, today)
	out.PointsAfter = doc.Progression.StageXP
	out.StageAfter = doc.Progression.StageIndex
	return out, nil
}

// advance moves the day pointers forward and re-derives the stage
// index. currentDayKey is monotonic: it never moves backwards even if
// the wall clock does.
func advance(doc *state.Document, stages progression.Config, today string) {
	doc.Progression.StageIndex = progression.StageIndexFor(doc.Progression.StageXP, stages)
	doc.Progression.LastCloseoutDayKey = today
	if today > doc.CurrentDayKey {
		doc.CurrentDayKey = today
	}
}
