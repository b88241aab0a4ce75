package ui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/hedging-my-bets/petprogress/internal/progression"
	"github.com/hedging-my-bets/petprogress/internal/tasks"
	"github.com/hedging-my-bets/petprogress/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string

	if p.Label != "" {
		result += theme.Body.Render(p.Label) + "  "
	}

	labelWidth := lipgloss.Width(result)
	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6 // " 100%"
	}

	barWidth := p.Width - labelWidth - percentWidth
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * p.Percent)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	empty := barWidth - filled

	result += theme.ProgressFilled.Render(strings.Repeat(" ", filled))
	result += theme.ProgressEmpty.Render(strings.Repeat(" ", empty))

	if p.ShowPercent {
		result += theme.Subtitle.Render(fmt.Sprintf("  %d%%", int(p.Percent*100)))
	}

	return result
}

// RenderStatus renders the companion card: sprite, stage name, points,
// and progress toward the next stage.
func RenderStatus(stageIndex, points int, cfg progression.Config, mood Mood) string {
	stage := cfg[stageIndex]

	var b strings.Builder
	b.WriteString(RenderPet(stage.Name, mood))
	b.WriteString("\n\n")
	b.WriteString(theme.Title.Render(stage.Name))
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("  %d pts", points)))
	b.WriteString("\n")

	if stageIndex+1 < len(cfg) {
		next := cfg[stageIndex+1]
		span := next.Threshold - stage.Threshold
		pct := float64(points-stage.Threshold) / float64(span)
		bar := ProgressBar{Percent: pct, Width: 28}
		b.WriteString(bar.View())
		b.WriteString(theme.Hint.Render(fmt.Sprintf("  next: %s at %d", next.Name, next.Threshold)))
	} else {
		b.WriteString(theme.Hint.Render("final form"))
	}

	return theme.Card.Render(b.String())
}

// RenderTaskList renders the day's tasks with status markers. The
// current task (by grace window) is highlighted.
func RenderTaskList(list []tasks.Materialized, nowMinutes, graceMinutes int) string {
	if len(list) == 0 {
		return theme.Hint.Render("nothing scheduled today")
	}

	next := tasks.Next(list, nowMinutes, graceMinutes)

	var b strings.Builder
	for i := range list {
		m := &list[i]
		line := fmt.Sprintf("%s  %s", m.TimeOfDay, m.Title)
		switch {
		case m.Completed:
			b.WriteString(theme.Done.Render("✓ " + line))
		case next != nil && m.ID == next.ID:
			b.WriteString(theme.Current.Render("▸ " + line))
		case m.TimeOfDay.Minutes()+graceMinutes < nowMinutes:
			b.WriteString(theme.Overdue.Render("! " + line))
		default:
			b.WriteString(theme.Pending.Render("· " + line))
		}
		if i < len(list)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
