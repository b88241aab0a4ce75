package tasks

import "github.com/hedging-my-bets/petprogress/internal/state"

// Two window semantics live here on purpose: IsOnTime is the
// symmetric scoring window, InCurrentWindow is the asymmetric
// hour-based rule used for next-task navigation. They answer
// different questions and are not interchangeable.

// IsOnTime reports whether nowMinutes falls inside the symmetric
// grace window [scheduled-grace, scheduled+grace]. Everything is
// computed in minutes since midnight; windows that spill past
// midnight in either direction branch explicitly instead of relying
// on modulo arithmetic.
func IsOnTime(scheduled state.TimeOfDay, nowMinutes, graceMinutes int) bool {
	start := scheduled.Minutes() - graceMinutes
	end := scheduled.Minutes() + graceMinutes

	switch {
	case start < 0:
		// Window reaches back into the previous day.
		return nowMinutes <= end || nowMinutes >= start+state.MinutesPerDay
	case end >= state.MinutesPerDay:
		// Window spills past midnight into the next day.
		return nowMinutes >= start || nowMinutes <= end-state.MinutesPerDay
	default:
		return nowMinutes >= start && nowMinutes <= end
	}
}

// IsLateWithinCutoff reports whether nowMinutes is past the grace
// window but still inside the wider cutoff window after the
// scheduled time. cutoffMinutes <= graceMinutes disables the tier.
func IsLateWithinCutoff(scheduled state.TimeOfDay, nowMinutes, graceMinutes, cutoffMinutes int) bool {
	if cutoffMinutes <= graceMinutes {
		return false
	}
	if IsOnTime(scheduled, nowMinutes, graceMinutes) {
		return false
	}
	elapsed := nowMinutes - scheduled.Minutes()
	if elapsed < 0 {
		elapsed += state.MinutesPerDay
	}
	return elapsed <= cutoffMinutes
}

// InCurrentWindow is the navigation rule for the narrow surface: a
// task is current when its hour equals the current hour, or its hour
// is the previous hour and the current minute is still within the
// grace allowance. Hour 0 wraps to 23 for the previous-hour case, so
// a 23:xx task with a grace period spanning midnight stays current in
// the first minutes of the next day.
func InCurrentWindow(taskHour, nowHour, nowMinute, graceMinutes int) bool {
	if taskHour == nowHour {
		return true
	}
	prev := nowHour - 1
	if prev < 0 {
		prev = 23
	}
	return taskHour == prev && nowMinute <= graceMinutes
}

// SnoozeTime returns the scheduled time pushed forward by delta
// minutes, clamped to 23:59. Snoozing never crosses into the next
// day.
func SnoozeTime(scheduled state.TimeOfDay, deltaMinutes int) state.TimeOfDay {
	if deltaMinutes < 0 {
		deltaMinutes = 0
	}
	snoozed := state.TimeOfDay(scheduled.Minutes() + deltaMinutes)
	if snoozed > state.EndOfDay {
		return state.EndOfDay
	}
	return snoozed
}
