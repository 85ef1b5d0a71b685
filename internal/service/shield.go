package service

import (
	"github.com/strideapp/stride-server/internal/model"
	"github.com/strideapp/stride-server/internal/timeutil"
)

// EnsureWeeklyWindow maintains the shield replenishment window in
// place. Runs once at the start of streak processing, before any
// transition is evaluated.
//
// Rules: an unset window is initialized to today with zero usage. Once
// seven or more calendar days have elapsed, the window rolls forward to
// today, weekly usage resets, and exactly one shield is granted up to
// the tier cap. A single shield per roll, no matter how many weeks
// passed while the user was idle.
func EnsureWeeklyWindow(streak *model.UserStreak, tierCap int, today string) {
	if streak.ShieldWeekStart == nil {
		start := today
		streak.ShieldWeekStart = &start
		streak.ShieldsUsedWeek = 0
	} else if timeutil.DaysBetween(*streak.ShieldWeekStart, today) >= 7 {
		start := today
		streak.ShieldWeekStart = &start
		streak.ShieldsUsedWeek = 0
		if streak.ShieldsAvailable < tierCap {
			streak.ShieldsAvailable++
		}
	}

	// A tier downgrade can leave the balance above the new cap.
	if streak.ShieldsAvailable > tierCap {
		streak.ShieldsAvailable = tierCap
	}
}
