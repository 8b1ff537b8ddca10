package task

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDueDateNone(t *testing.T) {
	clock := FixedClock{T: date(2024, 6, 1)}
	if _, ok := NextDueDate(date(2024, 6, 1), RecurNone, clock); ok {
		t.Fatal("None policy should not produce a next due date")
	}
}

func TestNextDueDate(t *testing.T) {
	clock := FixedClock{T: date(2024, 6, 15)}

	tests := []struct {
		name    string
		current time.Time
		policy  Recurrence
		want    time.Time
	}{
		{"daily", date(2024, 6, 1), RecurDaily, date(2024, 6, 2)},
		{"weekly", date(2024, 6, 1), RecurWeekly, date(2024, 6, 8)},
		{"monthly simple", date(2024, 4, 15), RecurMonthly, date(2024, 5, 15)},
		{"monthly year rollover", date(2024, 12, 10), RecurMonthly, date(2025, 1, 10)},
		{"monthly clamp leap feb", date(2024, 1, 31), RecurMonthly, date(2024, 2, 29)},
		{"monthly clamp non-leap feb", date(2023, 1, 31), RecurMonthly, date(2023, 2, 28)},
		{"monthly clamp 30-day month", date(2024, 3, 31), RecurMonthly, date(2024, 4, 30)},
		{"daily across month end", date(2024, 6, 30), RecurDaily, date(2024, 7, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextDueDate(tt.current, tt.policy, clock)
			if !ok {
				t.Fatalf("expected a next due date")
			}
			if !got.Equal(tt.want) {
				t.Fatalf("NextDueDate(%s, %s) = %s, want %s",
					tt.current.Format("2006-01-02"), tt.policy,
					got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

// Applying Monthly twice from Jan 31 lands on Feb 29 then Mar 31.
func TestNextDueDateMonthlyChained(t *testing.T) {
	clock := FixedClock{T: date(2024, 1, 1)}

	first, ok := NextDueDate(date(2024, 1, 31), RecurMonthly, clock)
	if !ok || !first.Equal(date(2024, 2, 29)) {
		t.Fatalf("first rollover = %s, want 2024-02-29", first.Format("2006-01-02"))
	}

	again, ok := NextDueDate(date(2024, 1, 31), RecurMonthly, clock)
	if !ok || !again.Equal(date(2024, 2, 29)) {
		t.Fatal("rollover must be deterministic for the same input")
	}
	// Feb 29 is month end, so the anchor holds and the second step lands
	// on Mar 31, not Mar 29.
	second, ok := NextDueDate(first, RecurMonthly, clock)
	if !ok || !second.Equal(date(2024, 3, 31)) {
		t.Fatalf("second rollover = %s, want 2024-03-31", second.Format("2006-01-02"))
	}
}

func TestNextDueDateZeroCurrentDefaultsToToday(t *testing.T) {
	clock := FixedClock{T: time.Date(2024, 6, 1, 17, 30, 0, 0, time.UTC)}
	got, ok := NextDueDate(time.Time{}, RecurDaily, clock)
	if !ok {
		t.Fatal("expected a next due date")
	}
	if !got.Equal(date(2024, 6, 2)) {
		t.Fatalf("zero current should base on today: got %s", got.Format("2006-01-02"))
	}
}
