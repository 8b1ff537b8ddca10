package task

import "time"

// NextDueDate computes the due date a recurring task rolls forward to when
// completed. The second return is false when the policy is RecurNone.
//
// Daily adds one calendar day, Weekly seven. Monthly moves to the same
// day-of-month in the next month, clamping overflow to the last valid day
// (Jan 31 -> Feb 29 in a leap year, not Mar 2). A zero current date falls
// back to today per the clock.
func NextDueDate(current time.Time, policy Recurrence, clock Clock) (time.Time, bool) {
	if policy == RecurNone {
		return time.Time{}, false
	}

	base := DayStart(current)
	if current.IsZero() {
		base = DayStart(clock.Now())
	}

	switch policy {
	case RecurDaily:
		return base.AddDate(0, 0, 1), true
	case RecurWeekly:
		return base.AddDate(0, 0, 7), true
	case RecurMonthly:
		return addMonthClamped(base), true
	}
	return time.Time{}, false
}

func addMonthClamped(d time.Time) time.Time {
	y, m, day := d.Date()
	// A due date on the last day of its month stays anchored to month
	// end, so Jan 31 -> Feb 29 -> Mar 31 rather than drifting to the 29th.
	if day == daysIn(y, m) {
		day = 31
	}
	first := time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
