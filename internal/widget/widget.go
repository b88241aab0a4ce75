// Package widget holds the reduced documents owned by the narrow
// surface: a per-day summary it reads, and the small set of keys it
// is allowed to write (navigation pointer, action log). It never
// touches the canonical app_state key.
package widget

import (
	"encoding/json"
	"fmt"

	"github.com/hedging-my-bets/petprogress/internal/state"
)

// Keys written or read by the narrow surface.
const (
	PageKey    = "widget_page"
	ActionsKey = "widget_actions"
)

// SummaryKey returns the per-day summary key for a day.
func SummaryKey(dayKey string) string {
	return "day_" + dayKey
}

// SummaryTask is one row of the reduced task list.
type SummaryTask struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	TimeOfDay state.TimeOfDay `json:"timeOfDay"`
	Completed bool            `json:"completed"`
}

// Summary is the reduced per-day view consumed by the narrow
// surface: the ordered task list plus a progression snapshot.
type Summary struct {
	DayKey       string        `json:"dayKey"`
	Tasks        []SummaryTask `json:"tasks"`
	Points       int           `json:"points"`
	StageIndex   int           `json:"stageIndex"`
	StageName    string        `json:"stageName"`
	GraceMinutes int           `json:"graceMinutes"`
	GeneratedAt  string        `json:"generatedAt"` // RFC3339
}

// PagePointer is the narrow surface's navigation cursor. Pure
// navigation: moving it has no scoring effect.
type PagePointer struct {
	Index int `json:"index"`
}

// ActionKind labels entries in the action log.
type ActionKind string

const (
	ActionMarkDone ActionKind = "markDone"
)

// Action is one intent recorded by the narrow surface, reconciled
// later by the canonical owner of app_state.
type Action struct {
	Kind   ActionKind `json:"kind"`
	TaskID string     `json:"taskId"`
	At     string     `json:"at"` // RFC3339
}

// ActionLog is the widget-owned queue of pending intents.
type ActionLog struct {
	Actions []Action `json:"actions"`
}

// EncodeJSON serializes any widget document with the same
// deterministic properties as the state encoding.
func EncodeJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode widget document: %w", err)
	}
	return b, nil
}

// DecodeSummary parses a per-day summary.
func DecodeSummary(b []byte) (*Summary, error) {
	var s Summary
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	return &s, nil
}

// DecodePagePointer parses the navigation cursor.
func DecodePagePointer(b []byte) (*PagePointer, error) {
	var p PagePointer
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode page pointer: %w", err)
	}
	return &p, nil
}

// DecodeActionLog parses the pending-intent queue.
func DecodeActionLog(b []byte) (*ActionLog, error) {
	var l ActionLog
	if err := json.Unmarshal(b, &l); err != nil {
		return nil, fmt.Errorf("decode action log: %w", err)
	}
	return &l, nil
}
