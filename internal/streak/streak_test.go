package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candemir/studydeck/internal/history"
)

func onDay(taskID, day string, minutes int) history.Entry {
	completed, _ := time.Parse("2006-01-02", day)
	return history.Entry{
		TaskID:           taskID,
		CompletedAt:      completed.Add(9 * time.Hour),
		Day:              day,
		EstimatedMinutes: minutes,
	}
}

func TestComputeEmpty(t *testing.T) {
	snap := Compute(nil, nil, nil)
	assert.Zero(t, snap.CurrentStreak)
	assert.Zero(t, snap.LongestStreak)
	assert.Zero(t, snap.TotalCompletions)
	assert.Empty(t, snap.Unlocked)
	assert.Empty(t, snap.NewlyUnlocked)
}

func TestStreakCountsConsecutiveDays(t *testing.T) {
	// Three consecutive days, a gap, then one more day: the run ending at
	// the most recent day is 1, the longest is 3.
	entries := []history.Entry{
		onDay("a", "2024-06-01", 25),
		onDay("b", "2024-06-02", 25),
		onDay("c", "2024-06-03", 25),
		onDay("d", "2024-06-05", 25),
	}
	snap := Compute(entries, nil, nil)
	assert.Equal(t, 1, snap.CurrentStreak)
	assert.Equal(t, 3, snap.LongestStreak)
	assert.Equal(t, 4, snap.TotalCompletions)
}

func TestStreakIgnoresSameDayDuplicateTasks(t *testing.T) {
	// Multiple completions on one day count once toward the streak.
	entries := []history.Entry{
		onDay("a", "2024-06-01", 25),
		onDay("b", "2024-06-01", 25),
		onDay("c", "2024-06-02", 25),
	}
	snap := Compute(entries, nil, nil)
	assert.Equal(t, 2, snap.CurrentStreak)
	assert.Equal(t, 2, snap.LongestStreak)
	assert.Equal(t, 2, snap.PerDayCompletions["2024-06-01"])
}

func TestPerDayAggregates(t *testing.T) {
	entries := []history.Entry{
		onDay("a", "2024-06-01", 25),
		onDay("b", "2024-06-01", 45),
		onDay("c", "2024-06-02", 30),
	}
	snap := Compute(entries, nil, nil)
	assert.Equal(t, 70, snap.MinutesPerDay["2024-06-01"])
	assert.Equal(t, 30, snap.MinutesPerDay["2024-06-02"])
}

func TestFirstTaskBadge(t *testing.T) {
	snap := Compute([]history.Entry{onDay("a", "2024-06-01", 10)}, nil, nil)
	assert.Equal(t, []string{BadgeFirstTask}, snap.Unlocked)
	assert.Equal(t, []string{BadgeFirstTask}, snap.NewlyUnlocked)
}

func TestOverachieverAtFiveCompletions(t *testing.T) {
	var entries []history.Entry
	for i, day := range []string{"2024-06-01", "2024-06-01", "2024-06-02", "2024-06-02", "2024-06-03"} {
		entries = append(entries, onDay(string(rune('a'+i)), day, 10))
	}
	snap := Compute(entries, nil, nil)
	assert.Contains(t, snap.Unlocked, BadgeOverachiever)

	snap = Compute(entries[:4], nil, nil)
	assert.NotContains(t, snap.Unlocked, BadgeOverachiever)
}

func TestStreakBadges(t *testing.T) {
	var entries []history.Entry
	for d := 1; d <= 7; d++ {
		entries = append(entries, onDay("t", time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC).Format("2006-01-02"), 10))
	}

	snap := Compute(entries[:3], nil, nil)
	assert.Contains(t, snap.Unlocked, BadgeStreak3)
	assert.NotContains(t, snap.Unlocked, BadgeStreak7)

	snap = Compute(entries, nil, nil)
	assert.Contains(t, snap.Unlocked, BadgeStreak3)
	assert.Contains(t, snap.Unlocked, BadgeStreak7)
}

func TestFocusRookieNeedsSixtyMinutesInOneDay(t *testing.T) {
	// 59 minutes spread over two days does not count.
	snap := Compute([]history.Entry{
		onDay("a", "2024-06-01", 30),
		onDay("b", "2024-06-02", 29),
	}, nil, nil)
	assert.NotContains(t, snap.Unlocked, BadgeFocusRookie)

	snap = Compute([]history.Entry{
		onDay("a", "2024-06-01", 30),
		onDay("b", "2024-06-01", 30),
	}, nil, nil)
	assert.Contains(t, snap.Unlocked, BadgeFocusRookie)
}

func TestPlannerProNeedsFullVocabulary(t *testing.T) {
	partial := [][]string{{"Work", "Urgent"}, {"Personal"}}
	snap := Compute(nil, partial, nil)
	assert.NotContains(t, snap.Unlocked, BadgePlannerPro)

	full := [][]string{{"Work", "Urgent"}, {"Personal", "Learning"}, {"Low Priority"}}
	snap = Compute(nil, full, nil)
	assert.Contains(t, snap.Unlocked, BadgePlannerPro)
}

// A badge persisted earlier stays unlocked even after the ledger no longer
// supports it, and it is never reported as newly unlocked again.
func TestUnlocksAreMonotonic(t *testing.T) {
	first := Compute([]history.Entry{onDay("a", "2024-06-01", 10)}, nil, nil)
	require.Equal(t, []string{BadgeFirstTask}, first.NewlyUnlocked)

	// History cleared, but the persisted set carries the badge.
	second := Compute(nil, nil, first.Unlocked)
	assert.Equal(t, []string{BadgeFirstTask}, second.Unlocked)
	assert.Empty(t, second.NewlyUnlocked)
}

func TestNewlyUnlockedIsTheDelta(t *testing.T) {
	prev := []string{BadgeFirstTask}
	entries := []history.Entry{
		onDay("a", "2024-06-01", 60),
		onDay("b", "2024-06-02", 10),
		onDay("c", "2024-06-03", 10),
	}
	snap := Compute(entries, nil, prev)
	assert.Contains(t, snap.Unlocked, BadgeFirstTask)
	assert.NotContains(t, snap.NewlyUnlocked, BadgeFirstTask)
	assert.Contains(t, snap.NewlyUnlocked, BadgeStreak3)
	assert.Contains(t, snap.NewlyUnlocked, BadgeFocusRookie)
}

func TestUnlockedFollowsDisplayOrder(t *testing.T) {
	entries := []history.Entry{
		onDay("a", "2024-06-01", 60),
		onDay("b", "2024-06-02", 10),
		onDay("c", "2024-06-03", 10),
		onDay("d", "2024-06-03", 10),
		onDay("e", "2024-06-03", 10),
	}
	snap := Compute(entries, nil, nil)
	assert.Equal(t, []string{BadgeFirstTask, BadgeOverachiever, BadgeStreak3, BadgeFocusRookie}, snap.Unlocked)
}
