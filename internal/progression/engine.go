package progression

import (
	"math"
	"sort"
)

// Point increments. OnTimeAward and LateAward are the two completion
// tiers; the caller decides which applies using the grace-window
// tests before calling OnTaskCheck.
const (
	OnTimeAward = 5
	LateAward   = 2
	MissPenalty = 3

	// closeoutSwing is the maximum points moved by a daily closeout
	// in either direction: +closeoutSwing at 100% completion,
	// -closeoutSwing at 0%.
	closeoutSwing = 10
)

// StageIndexFor returns the largest index whose threshold is at most
// points. Result is always within [0, len(cfg)-1].
func StageIndexFor(points int, cfg Config) int {
	if len(cfg) == 0 {
		return 0
	}
	if points < 0 {
		points = 0
	}
	// First stage with threshold > points, then step back one.
	i := sort.Search(len(cfg), func(i int) bool { return cfg[i].Threshold > points })
	if i == 0 {
		return 0
	}
	return i - 1
}

// OnTaskCheck applies the completion award: full for on-time, reduced
// for late-within-cutoff. The engine only distinguishes the two cases
// it is told about.
func OnTaskCheck(onTime bool, points int) int {
	if onTime {
		return clampFloor(points + OnTimeAward)
	}
	return clampFloor(points + LateAward)
}

// OnMiss applies the missed-task penalty. Points never go negative.
func OnMiss(points int) int {
	return clampFloor(points - MissPenalty)
}

// OnDailyCloseout applies the prior day's outcome, scaled linearly by
// its completion rate: 1.0 grants the full bonus, 0.0 the full
// penalty, 0.5 is neutral. Callers pass rate 1.0 for a day with no
// scheduled tasks so an empty day is never penalized.
func OnDailyCloseout(rate float64, points int) int {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	delta := int(math.Round((rate - 0.5) * 2 * closeoutSwing))
	return clampFloor(points + delta)
}

func clampFloor(points int) int {
	if points < 0 {
		return 0
	}
	return points
}
