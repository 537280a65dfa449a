package scheduler

import (
	"context"
	"time"
)

// Wall-clock alignment helpers. All schedules fire at fixed local-time
// boundaries rather than relative to process start, so restarts do not
// drift the cadence.

// NextTopOfHour returns the next full hour strictly after now.
func NextTopOfHour(now time.Time) time.Time {
	return now.Truncate(time.Hour).Add(time.Hour)
}

// NextDailyAt returns the next occurrence of hh:mm strictly after now.
func NextDailyAt(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// NextWeeklyAt returns the next occurrence of the weekday at hh:mm strictly
// after now.
func NextWeeklyAt(now time.Time, day time.Weekday, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	for next.Weekday() != day || !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// NextMonthlyAt returns the next first-of-month at hh:mm strictly after now.
func NextMonthlyAt(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), 1, hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 1, 0)
	}
	return next
}

// RunAligned sleeps until the boundary computed by next, runs fn, and
// repeats. Runs never overlap; a run that overshoots the next boundary just
// delays it. Blocks until the context ends.
func RunAligned(ctx context.Context, next func(time.Time) time.Time, fn func()) {
	for {
		delay := time.Until(next(time.Now()))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			fn()
		}
	}
}
