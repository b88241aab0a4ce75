// Package tracker is the core service façade: it owns the
// load-mutate-persist cycle for the state document and exposes the
// named operations both surfaces go through. Consumers never touch
// the durable store directly.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hedging-my-bets/petprogress/internal/calendar"
	"github.com/hedging-my-bets/petprogress/internal/closeout"
	"github.com/hedging-my-bets/petprogress/internal/progression"
	"github.com/hedging-my-bets/petprogress/internal/state"
	"github.com/hedging-my-bets/petprogress/internal/store"
	"github.com/hedging-my-bets/petprogress/internal/tasks"
	"github.com/hedging-my-bets/petprogress/internal/widget"
)

var (
	// ErrTaskNotFound is returned when an id matches neither a
	// one-off task nor a materialized series instance for its day.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAlreadyCompleted is returned when marking a task that is
	// already in the day's completion set.
	ErrAlreadyCompleted = errors.New("task already completed")
)

// LoadSource says which link of the load chain produced the document.
type LoadSource int

const (
	LoadedPrimary LoadSource = iota
	LoadedMirror
	LoadedDefault
)

func (l LoadSource) String() string {
	switch l {
	case LoadedMirror:
		return "mirror"
	case LoadedDefault:
		return "default"
	default:
		return "primary"
	}
}

// Service is the injectable owner of the canonical document. One
// instance per process; all mutations funnel through it, so
// read-modify-persist cycles are atomic from this process's point of
// view.
type Service struct {
	store  *store.Store
	stages progression.Config
	loc    *time.Location
	now    func() time.Time

	doc    *state.Document
	source LoadSource
}

// Option configures a Service.
type Option func(*Service)

// WithClock injects a clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New builds a Service and loads the document through the explicit
// primary → mirror → default chain. Call sites never re-implement
// the chain; this is the one loader.
func New(st *store.Store, stages progression.Config, loc *time.Location, opts ...Option) (*Service, error) {
	if loc == nil {
		loc = time.Local
	}
	s := &Service{
		store:  st,
		stages: stages,
		loc:    loc,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) load(ctx context.Context) error {
	today := calendar.DayKey(s.now(), s.loc)

	raw, src, err := s.store.Get(ctx, store.AppStateKey)
	if err == nil {
		doc, derr := state.Decode(raw)
		if derr == nil {
			source := LoadedPrimary
			if src == store.SourceMirror {
				source = LoadedMirror
			}
			s.adopt(doc, source)
			return nil
		}
		slog.Warn("primary document decode failed, trying mirror", "error", derr)

		if recovered, rerr := s.store.RecoverFromMirror(ctx, store.AppStateKey); rerr == nil {
			if doc, derr := state.Decode(recovered); derr == nil {
				s.adopt(doc, LoadedMirror)
				return nil
			}
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("load document: %w", err)
	}

	// Nothing usable anywhere: first launch (or unrecoverable
	// corruption) starts from defaults.
	s.adopt(state.Default(today), LoadedDefault)
	if err := s.persist(ctx, s.doc); err != nil {
		return fmt.Errorf("seed default document: %w", err)
	}
	return nil
}

// adopt installs a loaded document, re-deriving the stage index
// against the stage table in use. The persisted index may have been
// computed under a different table (the stage file is user-supplied),
// so it is never trusted across a load.
func (s *Service) adopt(doc *state.Document, src LoadSource) {
	doc.Progression.StageIndex = progression.StageIndexFor(doc.Progression.StageXP, s.stages)
	s.doc = doc
	s.source = src
}

// Source reports where the document was loaded from.
func (s *Service) Source() LoadSource { return s.source }

// Document returns a deep copy of the current document for display.
// Mutations go through the named operations only.
func (s *Service) Document() (*state.Document, error) {
	return state.Clone(s.doc)
}

// Progression returns the current companion snapshot.
func (s *Service) Progression() state.Progression {
	return s.doc.Progression
}

// Stages returns the stage configuration in use.
func (s *Service) Stages() progression.Config { return s.stages }

// Location returns the working timezone.
func (s *Service) Location() *time.Location { return s.loc }

// Today materializes the task list for the current calendar day.
func (s *Service) Today(now time.Time) ([]tasks.Materialized, error) {
	return tasks.Materialize(s.doc, calendar.DayKey(now, s.loc))
}

// persist writes the document to the canonical key and refreshes the
// day summary. Only after the canonical write succeeds does the
// in-memory document switch to the new state.
func (s *Service) persist(ctx context.Context, doc *state.Document) error {
	b, err := state.Encode(doc)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, store.AppStateKey, b); err != nil {
		return err
	}
	s.doc = doc

	if err := s.writeDaySummary(ctx, doc.CurrentDayKey); err != nil {
		// The summary is derived data; a stale one is refreshed by
		// the daemon's next tick.
		slog.Warn("day summary refresh failed", "error", err)
	}
	return nil
}

// writeDaySummary publishes the reduced per-day view for the narrow
// surface.
func (s *Service) writeDaySummary(ctx context.Context, dayKey string) error {
	list, err := tasks.Materialize(s.doc, dayKey)
	if err != nil {
		return err
	}
	summary := widget.Summary{
		DayKey:       dayKey,
		Tasks:        make([]widget.SummaryTask, 0, len(list)),
		Points:       s.doc.Progression.StageXP,
		StageIndex:   s.doc.Progression.StageIndex,
		StageName:    s.stages[s.doc.Progression.StageIndex].Name,
		GraceMinutes: s.doc.Policy.GraceMinutes,
		GeneratedAt:  s.now().UTC().Format(time.RFC3339),
	}
	for _, m := range list {
		summary.Tasks = append(summary.Tasks, widget.SummaryTask{
			ID:        m.ID,
			Title:     m.Title,
			TimeOfDay: m.TimeOfDay,
			Completed: m.Completed,
		})
	}
	b, err := widget.EncodeJSON(summary)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, widget.SummaryKey(dayKey), b)
}

// WriteDaySummary refreshes the summary for the day containing now.
func (s *Service) WriteDaySummary(ctx context.Context, now time.Time) error {
	return s.writeDaySummary(ctx, calendar.DayKey(now, s.loc))
}

// ApplyCloseoutIfNeeded runs the daily closeout when the document has
// not been reconciled for the day containing now. Safe to call on
// every launch and before every narrow-surface action; the day-key
// guard makes repeats no-ops.
func (s *Service) ApplyCloseoutIfNeeded(ctx context.Context, now time.Time) (closeout.Outcome, error) {
	today := calendar.DayKey(now, s.loc)

	clone, err := state.Clone(s.doc)
	if err != nil {
		return closeout.Outcome{}, err
	}
	out, err := closeout.Run(clone, s.stages, today)
	if err != nil {
		return out, err
	}
	if !out.Ran {
		return out, nil
	}
	if err := s.persist(ctx, clone); err != nil {
		return out, fmt.Errorf("persist closeout: %w", err)
	}
	slog.Info("daily closeout applied",
		"priorDay", out.PriorDayKey,
		"rate", out.CompletionRate,
		"points", out.PointsAfter,
		"stage", out.StageAfter,
		"rolledOver", out.RolledOver)
	return out, nil
}
